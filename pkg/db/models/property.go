package models

import (
	"time"

	"github.com/google/uuid"
)

// Property aggregates rooms under a landlord. UnitsAvailable mirrors the
// sum of its rooms' counters and floors at zero.
type Property struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LandlordID     uuid.UUID `gorm:"column:landlord_id;type:uuid;not null;index"`
	Name           string    `gorm:"column:name;not null"`
	City           string    `gorm:"column:city"`
	CountryCode    string    `gorm:"column:country_code;type:char(2)"`
	UnitsAvailable int       `gorm:"column:units_available;not null;default:0"`
	Active         bool      `gorm:"column:active;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
