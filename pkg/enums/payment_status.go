package enums

import "fmt"

// PaymentStatus tracks redemption of a verified payment reference.
// A reference moves unused -> used at most once.
type PaymentStatus string

const (
	PaymentStatusUnused PaymentStatus = "unused"
	PaymentStatusUsed   PaymentStatus = "used"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusUnused,
	PaymentStatusUsed,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
