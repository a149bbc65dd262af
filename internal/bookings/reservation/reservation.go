package reservation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/makao-africa/makao-backend/pkg/db/models"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
)

// Reserver holds and releases room units.
type Reserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) error
}

type reserver struct{}

// New builds the conditional-update reservation guard.
func New() Reserver {
	return reserver{}
}

// Reserve takes one unit from the room. The decrement is a single
// conditional UPDATE guarded by units_available > 0, so concurrent
// requests for the last unit resolve to exactly one winner and the counter
// can never go negative. The listing is deactivated in the same statement
// when the last unit goes.
func (reserver) Reserve(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	result := tx.WithContext(ctx).
		Model(&models.Room{}).
		Where("id = ? AND units_available > 0", roomID).
		Updates(map[string]any{
			"units_available": gorm.Expr("units_available - 1"),
			"active":          gorm.Expr("units_available - 1 > 0"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Zero rows is either a sold-out room or an unknown id; only the
		// latter is a 404.
		var count int64
		if err := tx.WithContext(ctx).
			Model(&models.Room{}).
			Where("id = ?", roomID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return pkgerrors.New(pkgerrors.CodeBookingNotFound, "room not found")
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "room fully booked")
	}
	return nil
}

// Release returns one unit during compensation and reactivates the listing.
func (reserver) Release(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	result := tx.WithContext(ctx).
		Model(&models.Room{}).
		Where("id = ?", roomID).
		Updates(map[string]any{
			"units_available": gorm.Expr("units_available + 1"),
			"active":          true,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeBookingNotFound, "room not found")
	}
	return nil
}
