package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/makao-africa/makao-backend/pkg/enums"
)

// Receipt is the durable record backing a rendered receipt PDF.
// ReceiptID is the stable external identifier; ReceiptNumber is a
// human-shareable display string with no uniqueness guarantee.
type Receipt struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReceiptID      string         `gorm:"column:receipt_id;not null;uniqueIndex:ux_receipts_receipt_id"`
	ReceiptNumber  string         `gorm:"column:receipt_number;not null"`
	AmountCents    int64          `gorm:"column:amount_cents;not null"`
	Currency       enums.Currency `gorm:"column:currency;type:text;not null"`
	AmountDisplay  string         `gorm:"column:amount_display;not null"`
	IdempotencyKey *string        `gorm:"column:idempotency_key;uniqueIndex:ux_receipts_idempotency_key"`
	PublicURL      string         `gorm:"column:public_url;not null"`
	DownloadURL    string         `gorm:"column:download_url;not null"`
	VerifyURL      string         `gorm:"column:verify_url;not null"`
	CreatedBy      string         `gorm:"column:created_by"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
}
