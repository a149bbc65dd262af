package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/makao-africa/makao-backend/pkg/enums"
)

// Payment records a gateway reference and whether it has been redeemed.
// The gateway stays authoritative for verification; this row only guards
// against reuse, enforced by the unique index on reference.
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference   string              `gorm:"column:reference;not null;uniqueIndex:ux_payments_reference"`
	Status      enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'unused'"`
	AmountCents int64               `gorm:"column:amount_cents;not null"`
	Currency    enums.Currency      `gorm:"column:currency;type:text;not null"`
	PayerEmail  string              `gorm:"column:payer_email"`
	BookingID   *uuid.UUID          `gorm:"column:booking_id;type:uuid"`
	VerifiedAt  *time.Time          `gorm:"column:verified_at"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
