package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/makao-africa/makao-backend/api/middleware"
	bookingsvc "github.com/makao-africa/makao-backend/internal/bookings"
	"github.com/makao-africa/makao-backend/pkg/db/models"
	"github.com/makao-africa/makao-backend/pkg/enums"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
)

type stubBookingService struct {
	result *bookingsvc.BookResult
	err    error

	gotInput bookingsvc.BookInput
}

func (s *stubBookingService) Book(ctx context.Context, in bookingsvc.BookInput) (*bookingsvc.BookResult, error) {
	s.gotInput = in
	return s.result, s.err
}

func bookingRequest(t *testing.T, body string, userID uuid.UUID, role string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, role)
	return req.WithContext(ctx)
}

func TestCreateBookingSuccess(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	receiptID := "rcp_123"
	receiptURL := "https://storage.example.com/receipts/rcp_123.pdf"
	booking := &models.Booking{
		ID:               uuid.New(),
		RoomID:           uuid.New(),
		PropertyID:       uuid.New(),
		PaymentReference: "sq_pay_001",
		ReceiptID:        &receiptID,
		ReceiptURL:       &receiptURL,
		ReceiptStatus:    enums.ReceiptStatusGenerated,
	}
	svc := &stubBookingService{result: &bookingsvc.BookResult{Booking: booking}}
	handler := CreateBooking(svc, nil)

	body := `{"room_id":"` + booking.RoomID.String() + `","payment_reference":"sq_pay_001","guest_email":"amina@example.com"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, bookingRequest(t, body, tenantID, models.RoleTenant))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotInput.TenantID == nil || *svc.gotInput.TenantID != tenantID {
		t.Fatalf("expected tenant id %s forwarded, got %v", tenantID, svc.gotInput.TenantID)
	}

	var envelope struct {
		Data bookingResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.BookingID != booking.ID {
		t.Fatalf("unexpected booking id: %s", envelope.Data.BookingID)
	}
	if envelope.Data.ReceiptStatus != string(enums.ReceiptStatusGenerated) {
		t.Fatalf("unexpected receipt status: %s", envelope.Data.ReceiptStatus)
	}
	if envelope.Data.ReceiptID == nil || *envelope.Data.ReceiptID != receiptID {
		t.Fatalf("expected receipt id in response")
	}
}

func TestCreateBookingDegradedReceiptStillCreated(t *testing.T) {
	t.Parallel()

	booking := &models.Booking{
		ID:               uuid.New(),
		RoomID:           uuid.New(),
		PropertyID:       uuid.New(),
		PaymentReference: "sq_pay_002",
		ReceiptStatus:    enums.ReceiptStatusPending,
	}
	svc := &stubBookingService{result: &bookingsvc.BookResult{Booking: booking, ReceiptDegraded: true}}
	handler := CreateBooking(svc, nil)

	body := `{"room_id":"` + booking.RoomID.String() + `","payment_reference":"sq_pay_002","guest_email":"amina@example.com"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, bookingRequest(t, body, uuid.New(), models.RoleTenant))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	var envelope struct {
		Data bookingResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ReceiptStatus != string(enums.ReceiptStatusPending) {
		t.Fatalf("expected pending receipt status, got %s", envelope.Data.ReceiptStatus)
	}
	if envelope.Data.ReceiptID != nil {
		t.Fatalf("expected no receipt id on degraded success")
	}
}

func TestCreateBookingLandlordBooksForGuest(t *testing.T) {
	t.Parallel()

	booking := &models.Booking{
		ID:               uuid.New(),
		RoomID:           uuid.New(),
		PropertyID:       uuid.New(),
		PaymentReference: "sq_pay_003",
		ReceiptStatus:    enums.ReceiptStatusPending,
	}
	svc := &stubBookingService{result: &bookingsvc.BookResult{Booking: booking}}
	handler := CreateBooking(svc, nil)

	body := `{"room_id":"` + booking.RoomID.String() + `","payment_reference":"sq_pay_003","guest_name":"Walk In","guest_email":"walkin@example.com"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, bookingRequest(t, body, uuid.New(), models.RoleLandlord))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotInput.TenantID != nil {
		t.Fatalf("landlord booking must not carry a tenant id")
	}
	if svc.gotInput.GuestEmail != "walkin@example.com" {
		t.Fatalf("guest email not forwarded: %q", svc.gotInput.GuestEmail)
	}
}

func TestCreateBookingValidationError(t *testing.T) {
	t.Parallel()

	svc := &stubBookingService{}
	handler := CreateBooking(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, bookingRequest(t, `{}`, uuid.New(), models.RoleTenant))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateBookingServiceErrorMapped(t *testing.T) {
	t.Parallel()

	svc := &stubBookingService{err: pkgerrors.New(pkgerrors.CodeConflict, "payment reference already used")}
	handler := CreateBooking(svc, nil)

	body := `{"room_id":"` + uuid.NewString() + `","payment_reference":"sq_pay_004","guest_email":"amina@example.com"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, bookingRequest(t, body, uuid.New(), models.RoleTenant))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeConflict) {
		t.Fatalf("unexpected error code: %s", envelope.Error.Code)
	}
}
