package enums

import "fmt"

// Currency represents supported ISO 4217 denominations for rent and receipts.
type Currency string

const (
	CurrencyKES Currency = "KES"
	CurrencyTZS Currency = "TZS"
	CurrencyUGX Currency = "UGX"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
)

// minorUnitExponent maps each supported currency to its ISO 4217 exponent.
var minorUnitExponent = map[Currency]int{
	CurrencyKES: 2,
	CurrencyTZS: 2,
	CurrencyUGX: 0,
	CurrencyUSD: 2,
	CurrencyEUR: 2,
	CurrencyGBP: 2,
	CurrencyJPY: 0,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	_, ok := minorUnitExponent[c]
	return ok
}

// MinorUnits returns the ISO 4217 exponent (digits after the decimal point).
func (c Currency) MinorUnits() (int, error) {
	exp, ok := minorUnitExponent[c]
	if !ok {
		return 0, fmt.Errorf("invalid currency %q", c)
	}
	return exp, nil
}

// ParseCurrency converts a raw string into a Currency.
func ParseCurrency(value string) (Currency, error) {
	c := Currency(value)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid currency %q", value)
	}
	return c, nil
}
