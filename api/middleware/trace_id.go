package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/makao-africa/makao-backend/pkg/logger"
)

const traceIDHeader = "X-Trace-Id"

// TraceID propagates the caller's trace id, minting one when absent, and
// echoes it on the response so failures can be correlated across services.
func TraceID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(traceIDHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}

			w.Header().Set(traceIDHeader, traceID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithTraceID(ctx, traceID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
