package receipts

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/makao-africa/makao-backend/pkg/enums"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
)

// AmountInput is the raw money shape accepted by receipt generation.
// Either the structured pair (Value + Currency) or the legacy display
// string ("KES 2,500.00") must be present.
type AmountInput struct {
	// Value is the amount in minor units (cents for 2-exponent currencies).
	Value *int64
	// Currency accompanies Value.
	Currency string
	// Display is the legacy single-string form, currency code first.
	Display string
}

// Amount is the normalized money value every receipt is built from.
type Amount struct {
	Cents    int64
	Currency enums.Currency
	Display  string
}

// NormalizeAmount converts either input form into minor units plus a
// canonical display string. All parsing is decimal; floats never touch the
// value. Anything malformed or in an unsupported currency fails with
// INVALID_AMOUNT.
func NormalizeAmount(in AmountInput) (*Amount, error) {
	if in.Value != nil {
		return normalizeStructured(*in.Value, in.Currency)
	}
	if strings.TrimSpace(in.Display) != "" {
		return normalizeDisplay(in.Display)
	}
	return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "amount is required")
}

func normalizeStructured(value int64, currency string) (*Amount, error) {
	if value <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "amount must be positive")
	}
	cur, err := enums.ParseCurrency(strings.ToUpper(strings.TrimSpace(currency)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, fmt.Sprintf("unsupported currency %q", currency))
	}
	return &Amount{
		Cents:    value,
		Currency: cur,
		Display:  FormatAmount(value, cur),
	}, nil
}

// normalizeDisplay parses the legacy "KES 2,500.00" form: currency code,
// whitespace, then a grouped decimal number.
func normalizeDisplay(display string) (*Amount, error) {
	fields := strings.Fields(strings.TrimSpace(display))
	if len(fields) != 2 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, fmt.Sprintf("malformed amount %q", display))
	}
	cur, err := enums.ParseCurrency(strings.ToUpper(fields[0]))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, fmt.Sprintf("unsupported currency %q", fields[0]))
	}
	raw := strings.ReplaceAll(fields[1], ",", "")
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, fmt.Sprintf("malformed amount %q", display))
	}
	if !value.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "amount must be positive")
	}
	exp, err := cur.MinorUnits()
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, err.Error())
	}
	scaled := value.Shift(int32(exp))
	if !scaled.IsInteger() {
		return nil, pkgerrors.New(
			pkgerrors.CodeInvalidAmount,
			fmt.Sprintf("amount %q has more precision than %s allows", display, cur),
		)
	}
	cents := scaled.IntPart()
	return &Amount{
		Cents:    cents,
		Currency: cur,
		Display:  FormatAmount(cents, cur),
	}, nil
}

// FormatAmount renders minor units as the canonical display string, with
// thousands separators and the currency's exponent worth of decimals.
func FormatAmount(cents int64, currency enums.Currency) string {
	exp, err := currency.MinorUnits()
	if err != nil {
		exp = 2
	}
	value := decimal.New(cents, -int32(exp))
	return fmt.Sprintf("%s %s", currency, groupThousands(value.StringFixed(int32(exp))))
}

// groupThousands inserts commas into the integer part of a fixed-point
// decimal string.
func groupThousands(s string) string {
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	if neg {
		intPart = "-" + intPart
	}
	return intPart + fracPart
}
