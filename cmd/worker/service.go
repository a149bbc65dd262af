package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/makao-africa/makao-backend/internal/notifications"
	"github.com/makao-africa/makao-backend/pkg/config"
	"github.com/makao-africa/makao-backend/pkg/db"
	"github.com/makao-africa/makao-backend/pkg/enums"
	"github.com/makao-africa/makao-backend/pkg/logger"
	"github.com/makao-africa/makao-backend/pkg/outbox"
	"github.com/makao-africa/makao-backend/pkg/pubsub"
	"github.com/makao-africa/makao-backend/pkg/redis"
)

type ServiceParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	PubSub   *pubsub.Client
	Consumer *notifications.Consumer
}

// Service drains the notification subscription and hands each envelope to
// the notifications consumer.
type Service struct {
	cfg      *config.Config
	logg     *logger.Logger
	db       *db.Client
	redis    *redis.Client
	pubsub   *pubsub.Client
	consumer *notifications.Consumer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("notifications consumer is required")
	}

	return &Service{
		cfg:      params.Config,
		logg:     params.Logger,
		db:       params.DB,
		redis:    params.Redis,
		pubsub:   params.PubSub,
		consumer: params.Consumer,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

// Run consumes notification messages until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	subscription := s.pubsub.NotificationSubscription()
	if subscription == nil {
		return errors.New("notification subscription not configured")
	}

	return subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.handleMessage(innerCtx, msg) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// handleMessage reports whether the message should be redelivered.
// Malformed messages are acked: redelivery cannot fix them.
func (s *Service) handleMessage(ctx context.Context, msg *gcppubsub.Message) (nack bool) {
	logCtx := s.logg.WithField(ctx, "message_id", msg.ID)

	eventType, err := enums.ParseOutboxEventType(msg.Attributes["event_type"])
	if err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "unknown event type, dropping message")
		return false
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "malformed envelope, dropping message")
		return false
	}

	if err := s.consumer.Process(logCtx, eventType, envelope); err != nil {
		s.logg.Error(logCtx, "processing notification event failed", err)
		return true
	}
	return false
}
