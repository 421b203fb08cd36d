// Package money converts between major-unit decimal amounts and the integer
// minor units payment providers expect.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

// exponent per ISO 4217; every supported currency uses two decimals.
var exponents = map[enums.Currency]int32{
	enums.CurrencyINR: 2,
	enums.CurrencyUSD: 2,
}

func exponentFor(currency enums.Currency) (int32, error) {
	exp, ok := exponents[currency]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %q", currency)
	}
	return exp, nil
}

// ToMinor converts a major-unit amount to minor units, rounding half-up
// (away from zero) at the currency exponent.
func ToMinor(amount decimal.Decimal, currency enums.Currency) (int64, error) {
	exp, err := exponentFor(currency)
	if err != nil {
		return 0, err
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative: %s", amount)
	}
	return amount.Round(exp).Shift(exp).IntPart(), nil
}

// FromMinor converts provider minor units back to a major-unit amount.
func FromMinor(minor int64, currency enums.Currency) (decimal.Decimal, error) {
	exp, err := exponentFor(currency)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(minor, -exp), nil
}

// Round rounds a major-unit amount half-up at the currency exponent.
func Round(amount decimal.Decimal, currency enums.Currency) decimal.Decimal {
	exp, err := exponentFor(currency)
	if err != nil {
		exp = 2
	}
	return amount.Round(exp)
}

// BasisPoints returns round_half_up(minor * bps / 10000) in minor units.
func BasisPoints(minor int64, bps int64) int64 {
	return decimal.NewFromInt(minor).
		Mul(decimal.NewFromInt(bps)).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()
}

// Format renders a major-unit amount with the currency code, e.g. "299.00 INR".
func Format(amount decimal.Decimal, currency enums.Currency) string {
	exp, err := exponentFor(currency)
	if err != nil {
		exp = 2
	}
	return amount.StringFixed(exp) + " " + currency.String()
}
