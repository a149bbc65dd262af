package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/makao-africa/makao-backend/pkg/db/models"
	"github.com/makao-africa/makao-backend/pkg/enums"
	"github.com/makao-africa/makao-backend/pkg/logger"
	"github.com/makao-africa/makao-backend/pkg/mailer"
	"github.com/makao-africa/makao-backend/pkg/outbox"
	"github.com/makao-africa/makao-backend/pkg/outbox/payloads"
)

const notificationsConsumerName = "notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
	FindUserEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

// bookingPatcher flips a booking's receipt_sent flag once the receipt email
// went out. Best-effort: a failed patch is logged, never retried.
type bookingPatcher interface {
	MarkReceiptSent(ctx context.Context, bookingID uuid.UUID) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer turns domain events into in-app notifications and emails.
type Consumer struct {
	repo     repository
	bookings bookingPatcher
	sender   mailer.Sender
	manager  idempotencyChecker
	logg     *logger.Logger
}

// NewConsumer builds the notifications consumer.
func NewConsumer(
	repo repository,
	bookings bookingPatcher,
	sender mailer.Sender,
	manager idempotencyChecker,
	logg *logger.Logger,
) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if bookings == nil {
		return nil, fmt.Errorf("booking patcher required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:     repo,
		bookings: bookings,
		sender:   sender,
		manager:  manager,
		logg:     logg,
	}, nil
}

// Process dispatches a single outbox envelope. A returned error means the
// message should be redelivered; the idempotency marker is cleared first so
// the retry is not mistaken for a duplicate.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, notificationsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.manager.Delete(ctx, notificationsConsumerName, eventID)
		return err
	}
	return nil
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventBookingConfirmed:
		var payload payloads.BookingConfirmedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing booking payload: %w", err)
		}
		return c.handleBookingConfirmed(ctx, payload, logCtx)
	case enums.EventReceiptGenerated:
		var payload payloads.ReceiptGeneratedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing receipt payload: %w", err)
		}
		return c.handleReceiptGenerated(ctx, payload, logCtx)
	case enums.EventChatMessageSent:
		var payload payloads.ChatMessageSentEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing chat payload: %w", err)
		}
		return c.handleChatMessage(ctx, payload, logCtx)
	default:
		c.logg.Info(logCtx, "event type not handled")
		return nil
	}
}

func (c *Consumer) handleBookingConfirmed(ctx context.Context, payload payloads.BookingConfirmedEvent, logCtx context.Context) error {
	if payload.LandlordID == uuid.Nil {
		return fmt.Errorf("landlord id missing")
	}
	link := fmt.Sprintf("/bookings/%s", payload.BookingID)
	notification := &models.Notification{
		UserID:  payload.LandlordID,
		Type:    enums.NotificationTypeBookingReceived,
		Title:   "New booking received",
		Message: strings.TrimSpace(fmt.Sprintf("Booking %s confirmed, payment reference %s.", payload.BookingID, payload.PaymentReference)),
		Link:    stringPtr(link),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}

	// Emails are best-effort: the booking stands whether or not they land.
	if payload.GuestEmail != "" {
		if err := c.sender.Send(ctx, bookingConfirmedGuestEmail(payload.GuestEmail, payload)); err != nil {
			c.logg.Warn(logCtx, "guest confirmation email failed")
		}
	}
	if landlordEmail := c.lookupEmail(ctx, payload.LandlordID, logCtx); landlordEmail != "" {
		if err := c.sender.Send(ctx, bookingConfirmedLandlordEmail(landlordEmail, payload)); err != nil {
			c.logg.Warn(logCtx, "landlord booking email failed")
		}
	}

	c.logg.Info(logCtx, "booking notifications dispatched")
	return nil
}

func (c *Consumer) handleReceiptGenerated(ctx context.Context, payload payloads.ReceiptGeneratedEvent, logCtx context.Context) error {
	if payload.PayerEmail == "" {
		c.logg.Info(logCtx, "receipt has no payer email, nothing to send")
		return nil
	}
	if err := c.sender.Send(ctx, receiptReadyEmail(payload.PayerEmail, payload)); err != nil {
		c.logg.Warn(logCtx, "receipt email failed")
		return nil
	}
	if payload.BookingID != nil {
		if err := c.bookings.MarkReceiptSent(ctx, *payload.BookingID); err != nil {
			c.logg.Warn(logCtx, "marking receipt sent failed")
		}
	}
	c.logg.Info(logCtx, "receipt notification dispatched")
	return nil
}

func (c *Consumer) handleChatMessage(ctx context.Context, payload payloads.ChatMessageSentEvent, logCtx context.Context) error {
	if payload.RecipientID == uuid.Nil {
		return fmt.Errorf("recipient id missing")
	}
	link := fmt.Sprintf("/chats/%s", payload.ChatID)
	message := "You have a new message."
	if payload.Preview != "" {
		message = fmt.Sprintf("New message: %s", payload.Preview)
	}
	notification := &models.Notification{
		UserID:  payload.RecipientID,
		Type:    enums.NotificationTypeChatMessage,
		Title:   "New message",
		Message: message,
		Link:    stringPtr(link),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "chat notification created")
	return nil
}

func (c *Consumer) lookupEmail(ctx context.Context, userID uuid.UUID, logCtx context.Context) string {
	email, err := c.repo.FindUserEmail(ctx, userID)
	if err != nil {
		c.logg.Warn(logCtx, "user email lookup failed")
		return ""
	}
	return email
}

func stringPtr(value string) *string {
	return &value
}
