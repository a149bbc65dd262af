package payments

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/makao-africa/makao-backend/pkg/db/models"
	"github.com/makao-africa/makao-backend/pkg/enums"
)

// Repository defines persistence operations for verified payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	Record(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	MarkUsed(ctx context.Context, reference string, booking *models.Booking) (bool, error)
	Release(ctx context.Context, reference string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// Record inserts the verified payment, tolerating a concurrent insert of the
// same reference. The unique index on reference is the real guard.
func (r *repository) Record(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoNothing: true,
		}).
		Create(payment).Error
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// MarkUsed flips the payment to used only while it is still unused. The
// conditional update makes concurrent redemptions lose cleanly: exactly one
// caller sees true.
func (r *repository) MarkUsed(ctx context.Context, reference string, booking *models.Booking) (bool, error) {
	updates := map[string]any{
		"status": enums.PaymentStatusUsed,
	}
	if booking != nil {
		updates["booking_id"] = booking.ID
	}
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("reference = ? AND status = ?", reference, enums.PaymentStatusUnused).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Release reverts a used payment back to unused during compensation.
func (r *repository) Release(ctx context.Context, reference string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("reference = ? AND status = ?", reference, enums.PaymentStatusUsed).
		Updates(map[string]any{
			"status":     enums.PaymentStatusUnused,
			"booking_id": nil,
		}).Error
}
