package bookings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/makao-africa/makao-backend/pkg/db/models"
	"github.com/makao-africa/makao-backend/pkg/enums"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
)

// Listing is the resolved context a booking is written against: the room,
// its property, and the landlord who owns it.
type Listing struct {
	Room     models.Room
	Property models.Property
	Landlord models.User
}

// Repository defines persistence operations for bookings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ResolveListing(ctx context.Context, roomID uuid.UUID) (*Listing, error)
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	Delete(ctx context.Context, bookingID uuid.UUID) error
	FindByID(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	AttachReceipt(ctx context.Context, bookingID uuid.UUID, receiptID, receiptURL string) error
	MarkReceiptSent(ctx context.Context, bookingID uuid.UUID) error
	DecrementPropertyUnits(ctx context.Context, propertyID uuid.UUID) error
	IncrementPropertyUnits(ctx context.Context, propertyID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bookings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ResolveListing loads the room, its property, and the landlord user. A
// missing room or property surfaces as ROOM_OR_PROPERTY_NOT_FOUND; a
// property whose landlord row is gone or no longer a landlord surfaces as
// LANDLORD_NOT_FOUND.
func (r *repository) ResolveListing(ctx context.Context, roomID uuid.UUID) (*Listing, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeBookingNotFound, "room not found")
		}
		return nil, err
	}

	var property models.Property
	if err := r.db.WithContext(ctx).Where("id = ?", room.PropertyID).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeBookingNotFound, "property not found for room")
		}
		return nil, err
	}

	var landlord models.User
	if err := r.db.WithContext(ctx).Where("id = ?", property.LandlordID).First(&landlord).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeLandlordNotFound, "landlord not found for property")
		}
		return nil, err
	}
	if landlord.Role != models.RoleLandlord {
		return nil, pkgerrors.New(pkgerrors.CodeLandlordNotFound, "property owner is not a landlord")
	}

	return &Listing{Room: room, Property: property, Landlord: landlord}, nil
}

func (r *repository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *repository) Delete(ctx context.Context, bookingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", bookingID).
		Delete(&models.Booking{}).Error
}

func (r *repository) FindByID(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Where("id = ?", bookingID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// AttachReceipt records the generated receipt artifact on the booking.
func (r *repository) AttachReceipt(ctx context.Context, bookingID uuid.UUID, receiptID, receiptURL string) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Updates(map[string]any{
			"receipt_id":     receiptID,
			"receipt_url":    receiptURL,
			"receipt_status": enums.ReceiptStatusGenerated,
		}).Error
}

func (r *repository) MarkReceiptSent(ctx context.Context, bookingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("receipt_sent", true).Error
}

// DecrementPropertyUnits lowers the property-wide availability counter,
// floored at zero. Zero rows affected is not an error: the room counter is
// the authoritative guard, this one is informational.
func (r *repository) DecrementPropertyUnits(ctx context.Context, propertyID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ? AND units_available > 0", propertyID).
		Update("units_available", gorm.Expr("units_available - 1")).Error
}

func (r *repository) IncrementPropertyUnits(ctx context.Context, propertyID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", propertyID).
		Update("units_available", gorm.Expr("units_available + 1")).Error
}
