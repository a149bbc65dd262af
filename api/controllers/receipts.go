package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/makao-africa/makao-backend/api/responses"
	"github.com/makao-africa/makao-backend/api/validators"
	receiptsvc "github.com/makao-africa/makao-backend/internal/receipts"
	"github.com/makao-africa/makao-backend/pkg/db/models"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
)

// GenerateReceipt produces a standalone receipt artifact. Replayed
// idempotency keys return the prior receipt with 200 instead of 201.
func GenerateReceipt(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		var payload generateReceiptRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Generate(r.Context(), receiptsvc.GenerateInput{
			BookingID:        payload.BookingID,
			PropertyName:     payload.PropertyName,
			RoomName:         payload.RoomName,
			GuestName:        payload.GuestName,
			PayerEmail:       payload.PayerEmail,
			PaymentReference: payload.PaymentReference,
			Amount: receiptsvc.AmountInput{
				Value:    payload.AmountValue,
				Currency: payload.AmountCurrency,
				Display:  payload.Amount,
			},
			IdempotencyKey: payload.IdempotencyKey,
			CreatedBy:      "api",
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Reused {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, newReceiptResponse(result.Receipt, result.Reused))
	}
}

// VerifyReceipt backs the QR verify link. Public, read-only.
func VerifyReceipt(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		receipt, err := svc.Verify(r.Context(), chi.URLParam(r, "receiptId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, verifyReceiptResponse{
			Valid:         true,
			ReceiptID:     receipt.ReceiptID,
			ReceiptNumber: receipt.ReceiptNumber,
			AmountDisplay: receipt.AmountDisplay,
			IssuedAt:      receipt.CreatedAt,
		})
	}
}

type generateReceiptRequest struct {
	BookingID        *uuid.UUID `json:"booking_id,omitempty" validate:"omitempty,uuid4"`
	PropertyName     string     `json:"property_name" validate:"required,max=200"`
	RoomName         string     `json:"room_name" validate:"omitempty,max=200"`
	GuestName        string     `json:"guest_name" validate:"omitempty,max=200"`
	PayerEmail       string     `json:"payer_email" validate:"omitempty,email"`
	PaymentReference string     `json:"payment_reference" validate:"required,max=128"`
	AmountValue      *int64     `json:"amount_value,omitempty" validate:"omitempty,gt=0"`
	AmountCurrency   string     `json:"amount_currency,omitempty" validate:"omitempty,len=3"`
	Amount           string     `json:"amount,omitempty" validate:"omitempty,max=64"`
	IdempotencyKey   string     `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
}

type receiptResponse struct {
	ReceiptID     string    `json:"receipt_id"`
	ReceiptNumber string    `json:"receipt_number"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	AmountDisplay string    `json:"amount_display"`
	PublicURL     string    `json:"public_url"`
	DownloadURL   string    `json:"download_url"`
	VerifyURL     string    `json:"verify_url"`
	Reused        bool      `json:"reused"`
	CreatedAt     time.Time `json:"created_at"`
}

type verifyReceiptResponse struct {
	Valid         bool      `json:"valid"`
	ReceiptID     string    `json:"receipt_id"`
	ReceiptNumber string    `json:"receipt_number"`
	AmountDisplay string    `json:"amount_display"`
	IssuedAt      time.Time `json:"issued_at"`
}

func newReceiptResponse(receipt *models.Receipt, reused bool) receiptResponse {
	if receipt == nil {
		return receiptResponse{}
	}
	return receiptResponse{
		ReceiptID:     receipt.ReceiptID,
		ReceiptNumber: receipt.ReceiptNumber,
		AmountCents:   receipt.AmountCents,
		Currency:      string(receipt.Currency),
		AmountDisplay: receipt.AmountDisplay,
		PublicURL:     receipt.PublicURL,
		DownloadURL:   receipt.DownloadURL,
		VerifyURL:     receipt.VerifyURL,
		Reused:        reused,
		CreatedAt:     receipt.CreatedAt,
	}
}
