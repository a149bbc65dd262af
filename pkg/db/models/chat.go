package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat is a conversation thread between a tenant and a landlord, usually
// scoped to a property. A chat is only considered created once its opening
// message has been written in the same transaction.
type Chat struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID   uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index"`
	LandlordID uuid.UUID  `gorm:"column:landlord_id;type:uuid;not null;index"`
	PropertyID *uuid.UUID `gorm:"column:property_id;type:uuid;index"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
