package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/makao-africa/makao-backend/api/controllers"
	"github.com/makao-africa/makao-backend/api/middleware"
	"github.com/makao-africa/makao-backend/internal/bookings"
	"github.com/makao-africa/makao-backend/internal/chats"
	"github.com/makao-africa/makao-backend/internal/notifications"
	"github.com/makao-africa/makao-backend/internal/receipts"
	"github.com/makao-africa/makao-backend/pkg/config"
	"github.com/makao-africa/makao-backend/pkg/db"
	"github.com/makao-africa/makao-backend/pkg/logger"
	"github.com/makao-africa/makao-backend/pkg/redis"
	"github.com/makao-africa/makao-backend/pkg/storage/gcs"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	registry *prometheus.Registry,
	bookingService bookings.Service,
	receiptService receipts.Service,
	chatService chats.Service,
	notificationService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.TraceID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, gcsClient))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Verify links land from QR scans, so this one stays outside auth.
		r.Get("/receipts/{receiptId}/verify", controllers.VerifyReceipt(receiptService, logg))

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, logg),
				middleware.Idempotency(redisClient, logg),
			)

			r.Post("/bookings", controllers.CreateBooking(bookingService, logg))
			r.Post("/receipts", controllers.GenerateReceipt(receiptService, logg))
			r.Post("/chats", controllers.CreateChat(chatService, logg))
			r.Post("/chats/{chatId}/messages", controllers.SendMessage(chatService, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(notificationService, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationService, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationService, logg))
			})
		})
	})

	return r
}
