package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/makao-africa/makao-backend/api/middleware"
	"github.com/makao-africa/makao-backend/api/responses"
	"github.com/makao-africa/makao-backend/api/validators"
	bookingsvc "github.com/makao-africa/makao-backend/internal/bookings"
	"github.com/makao-africa/makao-backend/pkg/db/models"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
)

// CreateBooking confirms a booking against a verified payment reference.
// A committed booking whose receipt failed afterwards still returns 201;
// the response carries receipt_status "pending" in that case.
func CreateBooking(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		var payload createBookingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := bookingsvc.BookInput{
			RoomID:           payload.RoomID,
			GuestName:        payload.GuestName,
			GuestEmail:       payload.GuestEmail,
			GuestPhone:       payload.GuestPhone,
			PaymentReference: payload.PaymentReference,
		}
		if tenantID, err := tenantIDFromContext(r); err == nil {
			input.TenantID = &tenantID
		}

		result, err := svc.Book(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newBookingResponse(result))
	}
}

type createBookingRequest struct {
	RoomID           uuid.UUID `json:"room_id" validate:"required,uuid4"`
	GuestName        string    `json:"guest_name" validate:"omitempty,max=200"`
	GuestEmail       string    `json:"guest_email" validate:"omitempty,email"`
	GuestPhone       string    `json:"guest_phone" validate:"omitempty,max=32"`
	PaymentReference string    `json:"payment_reference" validate:"required,max=128"`
}

type bookingResponse struct {
	BookingID        uuid.UUID `json:"booking_id"`
	RoomID           uuid.UUID `json:"room_id"`
	PropertyID       uuid.UUID `json:"property_id"`
	PaymentReference string    `json:"payment_reference"`
	ReceiptStatus    string    `json:"receipt_status"`
	ReceiptID        *string   `json:"receipt_id,omitempty"`
	ReceiptURL       *string   `json:"receipt_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func newBookingResponse(result *bookingsvc.BookResult) bookingResponse {
	if result == nil || result.Booking == nil {
		return bookingResponse{}
	}
	booking := result.Booking
	return bookingResponse{
		BookingID:        booking.ID,
		RoomID:           booking.RoomID,
		PropertyID:       booking.PropertyID,
		PaymentReference: booking.PaymentReference,
		ReceiptStatus:    string(booking.ReceiptStatus),
		ReceiptID:        booking.ReceiptID,
		ReceiptURL:       booking.ReceiptURL,
		CreatedAt:        booking.CreatedAt,
	}
}

// tenantIDFromContext resolves the authenticated tenant. Landlord callers
// book on behalf of walk-in guests, so an absent tenant is not an error here.
func tenantIDFromContext(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if middleware.RoleFromContext(r.Context()) != models.RoleTenant {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant account required")
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return parsed, nil
}
