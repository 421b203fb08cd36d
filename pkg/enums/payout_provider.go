package enums

// PayoutProvider names a bank transfer provider.
type PayoutProvider string

const (
	PayoutProviderCashfree  PayoutProvider = "cashfree"
	PayoutProviderRazorpayX PayoutProvider = "razorpayx"
)

var validPayoutProviders = set[PayoutProvider]{
	PayoutProviderCashfree,
	PayoutProviderRazorpayX,
}

// String implements fmt.Stringer.
func (p PayoutProvider) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutProvider.
func (p PayoutProvider) IsValid() bool {
	return validPayoutProviders.has(p)
}

// ParsePayoutProvider converts raw input into a PayoutProvider.
func ParsePayoutProvider(value string) (PayoutProvider, error) {
	return validPayoutProviders.parse("payout provider", value)
}
