package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/makao-africa/makao-backend/api/routes"
	"github.com/makao-africa/makao-backend/internal/bookings"
	"github.com/makao-africa/makao-backend/internal/bookings/reservation"
	"github.com/makao-africa/makao-backend/internal/chats"
	"github.com/makao-africa/makao-backend/internal/notifications"
	"github.com/makao-africa/makao-backend/internal/payments"
	"github.com/makao-africa/makao-backend/internal/receipts"
	"github.com/makao-africa/makao-backend/pkg/config"
	"github.com/makao-africa/makao-backend/pkg/db"
	"github.com/makao-africa/makao-backend/pkg/logger"
	"github.com/makao-africa/makao-backend/pkg/metrics"
	"github.com/makao-africa/makao-backend/pkg/migrate"
	"github.com/makao-africa/makao-backend/pkg/outbox"
	"github.com/makao-africa/makao-backend/pkg/pdfrender"
	"github.com/makao-africa/makao-backend/pkg/redis"
	"github.com/makao-africa/makao-backend/pkg/saga"
	"github.com/makao-africa/makao-backend/pkg/square"
	"github.com/makao-africa/makao-backend/pkg/storage/gcs"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing cloud storage", err)
		}
	}()

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square client", err)
		os.Exit(1)
	}

	pdfClient, err := pdfrender.NewClient(cfg.PDFRender, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pdf renderer", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	sagaMetrics := metrics.NewSagaMetrics(registry)
	coord := saga.New(logg, saga.WithObserver(sagaMetrics.IncOutcome))

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	paymentService, err := payments.NewService(payments.NewRepository(dbClient.DB()), squareClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	receiptService, err := receipts.NewService(
		receipts.NewRepository(dbClient.DB()),
		pdfClient,
		gcsClient,
		outboxService,
		dbClient,
		cfg.Receipts,
		cfg.GCS.DownloadURLExpiry,
		sagaMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create receipts service", err)
		os.Exit(1)
	}

	bookingService, err := bookings.NewService(
		bookings.NewRepository(dbClient.DB()),
		paymentService,
		reservation.New(),
		outboxService,
		dbClient,
		coord,
		receipts.NewBookingIssuer(receiptService),
		sagaMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create bookings service", err)
		os.Exit(1)
	}

	chatService, err := chats.NewService(
		chats.NewRepository(dbClient.DB()),
		outboxService,
		dbClient,
		coord,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create chats service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gcsClient,
			registry,
			bookingService,
			receiptService,
			chatService,
			notificationService,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
