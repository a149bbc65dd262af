package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/makao-africa/makao-backend/internal/bookings/reservation"
	"github.com/makao-africa/makao-backend/internal/payments"
	"github.com/makao-africa/makao-backend/pkg/db/models"
	"github.com/makao-africa/makao-backend/pkg/enums"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
	"github.com/makao-africa/makao-backend/pkg/metrics"
	"github.com/makao-africa/makao-backend/pkg/outbox"
	"github.com/makao-africa/makao-backend/pkg/outbox/payloads"
	"github.com/makao-africa/makao-backend/pkg/saga"
)

const fulfillmentSaga = "booking_fulfillment"

// TxRunner abstracts the database client's transaction helper so the
// service can be exercised without a live Postgres.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReceiptRequest carries everything the receipt generator needs about a
// freshly confirmed booking.
type ReceiptRequest struct {
	BookingID        uuid.UUID
	PropertyName     string
	RoomName         string
	GuestName        string
	PayerEmail       string
	PaymentReference string
	AmountCents      int64
	Currency         string
}

// ReceiptResult is the stored artifact handed back to the booking flow.
type ReceiptResult struct {
	ReceiptID string
	PublicURL string
}

// ReceiptIssuer generates and stores the receipt artifact for a booking.
// Issuance happens after the booking transaction commits; a failure here
// degrades the response but never rolls the booking back.
type ReceiptIssuer interface {
	Issue(ctx context.Context, req ReceiptRequest) (*ReceiptResult, error)
}

// BookInput is the request to confirm a booking against a verified payment.
type BookInput struct {
	RoomID           uuid.UUID
	TenantID         *uuid.UUID
	GuestName        string
	GuestEmail       string
	GuestPhone       string
	PaymentReference string
	// Privileged callers (internal backfills) skip gateway verification
	// and payment redemption entirely.
	Privileged bool
}

// BookResult pairs the durable booking with the state of its receipt.
type BookResult struct {
	Booking *models.Booking
	// ReceiptDegraded is set when the booking committed but receipt
	// generation failed afterwards. The caller still gets a success
	// response; the receipt stays pending.
	ReceiptDegraded bool
}

// Service confirms bookings: verify payment, reserve inventory, persist the
// booking, redeem the payment, then generate the receipt best-effort.
type Service interface {
	Book(ctx context.Context, in BookInput) (*BookResult, error)
}

type service struct {
	repo     Repository
	payments payments.Service
	reserver reservation.Reserver
	emitter  outbox.Emitter
	txRunner TxRunner
	coord    *saga.Coordinator
	issuer   ReceiptIssuer
	metrics  *metrics.SagaMetrics
	logg     *logger.Logger
}

// NewService builds the booking fulfillment service. The receipt issuer and
// metrics are optional; everything else is required.
func NewService(
	repo Repository,
	paymentsSvc payments.Service,
	reserver reservation.Reserver,
	emitter outbox.Emitter,
	txRunner TxRunner,
	coord *saga.Coordinator,
	issuer ReceiptIssuer,
	sagaMetrics *metrics.SagaMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if paymentsSvc == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if reserver == nil {
		return nil, fmt.Errorf("reserver required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if txRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if coord == nil {
		return nil, fmt.Errorf("saga coordinator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		payments: paymentsSvc,
		reserver: reserver,
		emitter:  emitter,
		txRunner: txRunner,
		coord:    coord,
		issuer:   issuer,
		metrics:  sagaMetrics,
		logg:     logg,
	}, nil
}

func (s *service) Book(ctx context.Context, in BookInput) (*BookResult, error) {
	started := time.Now()
	if err := validateBookInput(in); err != nil {
		return nil, err
	}
	ctx = s.logg.WithPaymentReference(ctx, in.PaymentReference)

	// Gateway verification happens before any write. A reference that is
	// unsettled or already consumed never touches inventory.
	var verified *payments.VerifiedPayment
	if !in.Privileged {
		var err error
		verified, err = s.payments.Verify(ctx, in.PaymentReference)
		if err != nil {
			return nil, err
		}
	}

	listing, err := s.repo.ResolveListing(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}

	booking := s.newBooking(in, listing)
	amountCents, currency := bookingAmount(verified, listing)

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.coord.Run(ctx, fulfillmentSaga, s.fulfillmentSteps(ctx, tx, in, listing, booking, amountCents, currency))
	})
	if err != nil {
		s.observeDuration(started)
		return nil, err
	}
	ctx = s.logg.WithBookingID(ctx, booking.ID.String())
	s.logg.Info(ctx, "booking confirmed")

	result := &BookResult{Booking: booking}
	s.issueReceipt(ctx, result, listing, in, amountCents, currency)
	s.observeDuration(started)
	return result, nil
}

// fulfillmentSteps builds the saga closing over the booking transaction.
// Payment redemption runs last so a reference is never burned when an
// earlier write fails; compensation mirrors each durable write.
func (s *service) fulfillmentSteps(
	ctx context.Context,
	tx *gorm.DB,
	in BookInput,
	listing *Listing,
	booking *models.Booking,
	amountCents int64,
	currency string,
) []saga.Step {
	repo := s.repo.WithTx(tx)
	steps := []saga.Step{
		{
			Name: "reserve_room",
			Do: func(ctx context.Context) error {
				return s.reserver.Reserve(ctx, tx, listing.Room.ID)
			},
			Undo: func(ctx context.Context) error {
				return s.reserver.Release(ctx, tx, listing.Room.ID)
			},
		},
		{
			Name: "reserve_property_units",
			Do: func(ctx context.Context) error {
				return repo.DecrementPropertyUnits(ctx, listing.Property.ID)
			},
			Undo: func(ctx context.Context) error {
				return repo.IncrementPropertyUnits(ctx, listing.Property.ID)
			},
		},
		{
			Name: "insert_booking",
			Do: func(ctx context.Context) error {
				_, err := repo.Create(ctx, booking)
				return err
			},
			Undo: func(ctx context.Context) error {
				return repo.Delete(ctx, booking.ID)
			},
		},
	}
	if !in.Privileged {
		steps = append(steps, saga.Step{
			Name: "redeem_payment",
			Do: func(ctx context.Context) error {
				return s.payments.Redeem(ctx, tx, in.PaymentReference)
			},
			Undo: func(ctx context.Context) error {
				return s.payments.Release(ctx, tx, in.PaymentReference)
			},
		})
	}
	steps = append(steps, saga.Step{
		Name: "queue_notification",
		Do: func(ctx context.Context) error {
			return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventBookingConfirmed,
				AggregateType: enums.AggregateBooking,
				AggregateID:   booking.ID,
				Data: payloads.BookingConfirmedEvent{
					BookingID:        booking.ID,
					RoomID:           listing.Room.ID,
					PropertyID:       listing.Property.ID,
					LandlordID:       listing.Landlord.ID,
					GuestEmail:       in.GuestEmail,
					GuestName:        in.GuestName,
					PaymentReference: in.PaymentReference,
					AmountCents:      amountCents,
					Currency:         currency,
					ConfirmedAt:      time.Now(),
				},
				Version: 1,
			})
		},
	})
	return steps
}

// issueReceipt runs after the booking transaction committed. Any failure is
// degraded success: the booking stands, the receipt stays pending, and the
// caller is told so.
func (s *service) issueReceipt(
	ctx context.Context,
	result *BookResult,
	listing *Listing,
	in BookInput,
	amountCents int64,
	currency string,
) {
	if s.issuer == nil {
		return
	}
	booking := result.Booking
	issued, err := s.issuer.Issue(ctx, ReceiptRequest{
		BookingID:        booking.ID,
		PropertyName:     listing.Property.Name,
		RoomName:         listing.Room.Name,
		GuestName:        in.GuestName,
		PayerEmail:       in.GuestEmail,
		PaymentReference: in.PaymentReference,
		AmountCents:      amountCents,
		Currency:         currency,
	})
	if err != nil {
		s.logg.Error(ctx, "receipt generation failed, booking stays pending", err)
		result.ReceiptDegraded = true
		return
	}
	if err := s.repo.AttachReceipt(ctx, booking.ID, issued.ReceiptID, issued.PublicURL); err != nil {
		s.logg.Error(ctx, "attaching receipt to booking failed", err)
		result.ReceiptDegraded = true
		return
	}
	booking.ReceiptID = &issued.ReceiptID
	booking.ReceiptURL = &issued.PublicURL
	booking.ReceiptStatus = enums.ReceiptStatusGenerated
}

func (s *service) newBooking(in BookInput, listing *Listing) *models.Booking {
	booking := &models.Booking{
		ID:               uuid.New(),
		RoomID:           listing.Room.ID,
		PropertyID:       listing.Property.ID,
		LandlordID:       listing.Landlord.ID,
		TenantID:         in.TenantID,
		PaymentReference: in.PaymentReference,
		ReceiptStatus:    enums.ReceiptStatusPending,
	}
	if name := strings.TrimSpace(in.GuestName); name != "" {
		booking.GuestName = &name
	}
	if email := strings.TrimSpace(in.GuestEmail); email != "" {
		booking.GuestEmail = &email
	}
	if phone := strings.TrimSpace(in.GuestPhone); phone != "" {
		booking.GuestPhone = &phone
	}
	return booking
}

func (s *service) observeDuration(started time.Time) {
	s.metrics.ObserveDuration(fulfillmentSaga, time.Since(started))
}

func bookingAmount(verified *payments.VerifiedPayment, listing *Listing) (int64, string) {
	if verified != nil {
		return verified.AmountCents, strings.ToUpper(verified.Currency)
	}
	return listing.Room.RentCents, string(listing.Room.Currency)
}

func validateBookInput(in BookInput) error {
	if in.RoomID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "room_id is required")
	}
	if strings.TrimSpace(in.PaymentReference) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment_reference is required")
	}
	if in.TenantID == nil && strings.TrimSpace(in.GuestEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant_id or guest_email is required")
	}
	return nil
}
