package receipts

import (
	"context"

	"github.com/makao-africa/makao-backend/internal/bookings"
)

// BookingIssuer adapts the receipt service to the booking flow. The
// idempotency key is derived from the booking ID so a retried fulfillment
// never produces a second artifact.
type BookingIssuer struct {
	svc Service
}

func NewBookingIssuer(svc Service) *BookingIssuer {
	return &BookingIssuer{svc: svc}
}

func (b *BookingIssuer) Issue(ctx context.Context, req bookings.ReceiptRequest) (*bookings.ReceiptResult, error) {
	value := req.AmountCents
	result, err := b.svc.Generate(ctx, GenerateInput{
		BookingID:        &req.BookingID,
		PropertyName:     req.PropertyName,
		RoomName:         req.RoomName,
		GuestName:        req.GuestName,
		PayerEmail:       req.PayerEmail,
		PaymentReference: req.PaymentReference,
		Amount:           AmountInput{Value: &value, Currency: req.Currency},
		IdempotencyKey:   "booking:" + req.BookingID.String(),
		CreatedBy:        "fulfillment",
	})
	if err != nil {
		return nil, err
	}
	return &bookings.ReceiptResult{
		ReceiptID: result.Receipt.ReceiptID,
		PublicURL: result.Receipt.PublicURL,
	}, nil
}
