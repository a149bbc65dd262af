package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/makao-africa/makao-backend/pkg/enums"
)

// Booking is created exactly once per successful fulfillment run. After
// creation only the receipt attachment fields change.
type Booking struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RoomID           uuid.UUID           `gorm:"column:room_id;type:uuid;not null;index"`
	PropertyID       uuid.UUID           `gorm:"column:property_id;type:uuid;not null;index"`
	LandlordID       uuid.UUID           `gorm:"column:landlord_id;type:uuid;not null"`
	TenantID         *uuid.UUID          `gorm:"column:tenant_id;type:uuid"`
	GuestName        *string             `gorm:"column:guest_name"`
	GuestEmail       *string             `gorm:"column:guest_email"`
	GuestPhone       *string             `gorm:"column:guest_phone"`
	PaymentReference string              `gorm:"column:payment_reference;not null;index"`
	ReceiptID        *string             `gorm:"column:receipt_id"`
	ReceiptURL       *string             `gorm:"column:receipt_url"`
	ReceiptStatus    enums.ReceiptStatus `gorm:"column:receipt_status;type:text;not null;default:'pending'"`
	ReceiptSent      bool                `gorm:"column:receipt_sent;not null;default:false"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
