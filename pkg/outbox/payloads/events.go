package payloads

import (
	"time"

	"github.com/google/uuid"
)

// BookingConfirmedEvent signals that a booking was durably recorded after
// payment verification.
type BookingConfirmedEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	RoomID           uuid.UUID `json:"room_id"`
	PropertyID       uuid.UUID `json:"property_id"`
	LandlordID       uuid.UUID `json:"landlord_id"`
	GuestEmail       string    `json:"guest_email,omitempty"`
	GuestName        string    `json:"guest_name,omitempty"`
	PaymentReference string    `json:"payment_reference"`
	AmountCents      int64     `json:"amount_cents"`
	Currency         string    `json:"currency"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
}

// ReceiptGeneratedEvent surfaces the stored receipt artifact for delivery.
type ReceiptGeneratedEvent struct {
	ReceiptID     string     `json:"receipt_id"`
	ReceiptNumber string     `json:"receipt_number"`
	BookingID     *uuid.UUID `json:"booking_id,omitempty"`
	PayerEmail    string     `json:"payer_email,omitempty"`
	AmountDisplay string     `json:"amount_display"`
	PublicURL     string     `json:"public_url"`
	DownloadURL   string     `json:"download_url"`
	VerifyURL     string     `json:"verify_url"`
}

// ChatMessageSentEvent notifies the counterparty of a new message.
type ChatMessageSentEvent struct {
	ChatID      uuid.UUID `json:"chat_id"`
	MessageID   uuid.UUID `json:"message_id"`
	SenderID    uuid.UUID `json:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Preview     string    `json:"preview,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}
