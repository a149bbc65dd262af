package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/makao-africa/makao-backend/pkg/enums"
)

// Room tracks the bookable unit count. Active is derived: a room stays
// listed only while UnitsAvailable is positive. Decrements happen through
// conditional updates, never read-modify-write.
type Room struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PropertyID     uuid.UUID      `gorm:"column:property_id;type:uuid;not null;index"`
	Name           string         `gorm:"column:name;not null"`
	RentCents      int64          `gorm:"column:rent_cents;not null"`
	Currency       enums.Currency `gorm:"column:currency;type:text;not null;default:'KES'"`
	UnitsAvailable int            `gorm:"column:units_available;not null;default:0"`
	Active         bool           `gorm:"column:active;not null;default:false"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
