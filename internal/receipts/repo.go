package receipts

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/makao-africa/makao-backend/pkg/db/models"
)

// Repository defines persistence operations for receipts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, receipt *models.Receipt) (*models.Receipt, bool, error)
	FindByReceiptID(ctx context.Context, receiptID string) (*models.Receipt, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Receipt, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a receipts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Insert persists the receipt row. A concurrent insert with the same
// idempotency key loses to the partial unique index; the stored winner is
// re-read and returned with inserted=false so callers never hand out a
// receipt that was skipped.
func (r *repository) Insert(ctx context.Context, receipt *models.Receipt) (*models.Receipt, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "idempotency_key"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "idempotency_key IS NOT NULL"}}},
			DoNothing:   true,
		}).
		Create(receipt)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected > 0 {
		return receipt, true, nil
	}
	if receipt.IdempotencyKey == nil {
		return nil, false, errors.New("receipt insert affected no rows")
	}
	var winner models.Receipt
	if err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", *receipt.IdempotencyKey).
		First(&winner).Error; err != nil {
		return nil, false, err
	}
	return &winner, false, nil
}

func (r *repository) FindByReceiptID(ctx context.Context, receiptID string) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).Where("receipt_id = ?", receiptID).First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &receipt, nil
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &receipt, nil
}
