package models

import (
	"time"

	"github.com/google/uuid"
)

// User covers both landlords and tenants. Role distinguishes the two; a
// landlord must exist before a booking can reference them.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex:ux_users_email"`
	FullName  string    `gorm:"column:full_name;not null"`
	Phone     string    `gorm:"column:phone"`
	Role      string    `gorm:"column:role;not null;default:'tenant'"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

const (
	RoleLandlord = "landlord"
	RoleTenant   = "tenant"
)
