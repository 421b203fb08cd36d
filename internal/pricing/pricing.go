// Package pricing computes payable totals. Tax is always an explicit
// TaxPolicy argument so every flow states which rate it charges.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/money"
)

// TaxPolicy is a flat tax rate in basis points (1800 = 18%).
type TaxPolicy struct {
	RateBps int64
}

// NoTax charges nothing on top of the taxable amount.
var NoTax = TaxPolicy{}

// Rate returns the policy as a decimal fraction.
func (p TaxPolicy) Rate() decimal.Decimal {
	return decimal.NewFromInt(p.RateBps).Div(decimal.NewFromInt(10000))
}

// Policies resolves the configured tax policy per payable kind.
type Policies struct {
	Booking   TaxPolicy
	Video     TaxPolicy
	VendorFee TaxPolicy
}

func PoliciesFromConfig(cfg config.TaxConfig) Policies {
	return Policies{
		Booking:   TaxPolicy{RateBps: cfg.BookingBps},
		Video:     TaxPolicy{RateBps: cfg.VideoBps},
		VendorFee: TaxPolicy{RateBps: cfg.VendorFeeBps},
	}
}

// For returns the policy for a payable kind.
func (p Policies) For(kind enums.PayableType) TaxPolicy {
	switch kind {
	case enums.PayableBooking:
		return p.Booking
	case enums.PayableVideoPurchase:
		return p.Video
	case enums.PayableVendorFee:
		return p.VendorFee
	default:
		return NoTax
	}
}

// Input describes what is being priced.
type Input struct {
	UnitPrice decimal.Decimal
	Quantity  int
	Fees      decimal.Decimal
	Discount  decimal.Decimal
	Currency  enums.Currency
}

// Breakdown is the priced result, every amount rounded to the currency.
type Breakdown struct {
	Base     decimal.Decimal `json:"base"`
	Fees     decimal.Decimal `json:"fees"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Final    decimal.Decimal `json:"final"`
	Currency enums.Currency  `json:"currency"`
}

// Quote computes base = unit*qty, tax on (base+fees-discount) and the final
// total. The discount is capped so no component goes negative.
func Quote(in Input, policy TaxPolicy) (Breakdown, error) {
	if in.Quantity <= 0 {
		return Breakdown{}, fmt.Errorf("quantity must be positive")
	}
	if in.UnitPrice.IsNegative() || in.Fees.IsNegative() || in.Discount.IsNegative() {
		return Breakdown{}, fmt.Errorf("amounts must not be negative")
	}
	if policy.RateBps < 0 {
		return Breakdown{}, fmt.Errorf("tax rate must not be negative")
	}

	base := money.Round(in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))), in.Currency)
	fees := money.Round(in.Fees, in.Currency)
	discount := money.Round(in.Discount, in.Currency)
	if gross := base.Add(fees); discount.GreaterThan(gross) {
		discount = gross
	}

	taxable := base.Add(fees).Sub(discount)
	tax := money.Round(taxable.Mul(policy.Rate()), in.Currency)

	return Breakdown{
		Base:     base,
		Fees:     fees,
		Tax:      tax,
		Discount: discount,
		Final:    taxable.Add(tax),
		Currency: in.Currency,
	}, nil
}
