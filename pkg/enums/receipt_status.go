package enums

import "fmt"

// ReceiptStatus reports whether a booking's receipt artifact exists yet.
// A booking persists even when receipt generation fails afterwards; the
// caller sees "pending" in that degraded-success case.
type ReceiptStatus string

const (
	ReceiptStatusPending   ReceiptStatus = "pending"
	ReceiptStatusGenerated ReceiptStatus = "generated"
)

var validReceiptStatuses = []ReceiptStatus{
	ReceiptStatusPending,
	ReceiptStatusGenerated,
}

// IsValid reports whether the value is a known ReceiptStatus.
func (r ReceiptStatus) IsValid() bool {
	for _, candidate := range validReceiptStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReceiptStatus converts raw input into a ReceiptStatus.
func ParseReceiptStatus(value string) (ReceiptStatus, error) {
	for _, candidate := range validReceiptStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid receipt status %q", value)
}
