package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/makao-africa/makao-backend/api/responses"
	"github.com/makao-africa/makao-backend/pkg/config"
	"github.com/makao-africa/makao-backend/pkg/db"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
	"github.com/makao-africa/makao-backend/pkg/redis"
	"github.com/makao-africa/makao-backend/pkg/storage/gcs"
)

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Makao-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the hard dependencies. Anything unreachable makes the
// instance not ready; the checks share one short deadline.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, gcsP gcs.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Makao-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		checks["database"] = checkDependency(ctx, dbP.Ping, &healthy)
		checks["redis"] = checkDependency(ctx, redisP.Ping, &healthy)
		checks["storage"] = checkDependency(ctx, gcsP.Ping, &healthy)

		if !healthy {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

func checkDependency(ctx context.Context, ping func(context.Context) error, healthy *bool) string {
	if err := ping(ctx); err != nil {
		*healthy = false
		return err.Error()
	}
	return "ok"
}
