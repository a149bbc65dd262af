package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/makao-africa/makao-backend/pkg/db/models"
	"github.com/makao-africa/makao-backend/pkg/enums"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
	"github.com/makao-africa/makao-backend/pkg/square"
)

// Service verifies gateway payments and enforces single redemption.
type Service interface {
	// Verify checks the reference with the gateway and records the payment
	// locally. It fails with PAYMENT_ALREADY_USED when the reference has
	// already funded a booking and PAYMENT_VERIFICATION_FAILED when the
	// gateway reports the payment unsettled.
	Verify(ctx context.Context, reference string) (*VerifiedPayment, error)
	// Redeem marks the verified payment as consumed inside the caller's
	// transaction. Exactly one concurrent redeemer succeeds.
	Redeem(ctx context.Context, tx *gorm.DB, reference string) error
	// Release undoes a redemption during saga compensation.
	Release(ctx context.Context, tx *gorm.DB, reference string) error
}

// VerifiedPayment is the normalized result handed to the booking flow.
type VerifiedPayment struct {
	Reference   string
	AmountCents int64
	Currency    string
	PayerEmail  string
}

type service struct {
	repo    Repository
	gateway square.Verifier
	logg    *logger.Logger
}

// NewService builds a payment service with the required dependencies.
func NewService(repo Repository, gateway square.Verifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, gateway: gateway, logg: logg}, nil
}

func (s *service) Verify(ctx context.Context, reference string) (*VerifiedPayment, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	ctx = s.logg.WithPaymentReference(ctx, ref)

	// Local replay check first: a consumed reference never reaches the
	// gateway again. A lookup failure does not block verification since the
	// conditional update at redemption time is the authoritative guard.
	existing, err := s.repo.FindByReference(ctx, ref)
	if err != nil {
		s.logg.Warn(ctx, "local payment lookup failed, falling through to gateway")
	} else if existing != nil && existing.Status == enums.PaymentStatusUsed {
		return nil, pkgerrors.New(pkgerrors.CodePaymentUsed, "payment reference already used")
	}

	details, err := s.gateway.VerifyPayment(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !details.Completed() {
		return nil, pkgerrors.New(
			pkgerrors.CodePaymentFailed,
			fmt.Sprintf("payment not completed: gateway status %s", details.Status),
		).WithDetails(map[string]any{"gateway_status": details.Status})
	}

	if existing == nil {
		now := time.Now()
		payment := &models.Payment{
			Reference:   ref,
			Status:      enums.PaymentStatusUnused,
			AmountCents: details.AmountCents,
			Currency:    enums.Currency(strings.ToUpper(details.Currency)),
			PayerEmail:  details.PayerEmail,
			VerifiedAt:  &now,
		}
		if _, err := s.repo.Record(ctx, payment); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording verified payment")
		}
	}

	s.logg.Info(ctx, "payment verified")
	return &VerifiedPayment{
		Reference:   ref,
		AmountCents: details.AmountCents,
		Currency:    details.Currency,
		PayerEmail:  details.PayerEmail,
	}, nil
}

func (s *service) Redeem(ctx context.Context, tx *gorm.DB, reference string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	marked, err := s.repo.WithTx(tx).MarkUsed(ctx, reference, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking payment used")
	}
	if !marked {
		return pkgerrors.New(pkgerrors.CodePaymentUsed, "payment reference already used")
	}
	return nil
}

func (s *service) Release(ctx context.Context, tx *gorm.DB, reference string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	return s.repo.WithTx(tx).Release(ctx, reference)
}
