package enums

// Gateway names a payment provider variant.
type Gateway string

const (
	GatewayRazorpay Gateway = "razorpay"
	GatewayCashfree Gateway = "cashfree"
	GatewayCCAvenue Gateway = "ccavenue"
	GatewayStripe   Gateway = "stripe"
)

var validGateways = set[Gateway]{
	GatewayRazorpay,
	GatewayCashfree,
	GatewayCCAvenue,
	GatewayStripe,
}

// String implements fmt.Stringer.
func (g Gateway) String() string {
	return string(g)
}

// IsValid reports whether the value is a known Gateway.
func (g Gateway) IsValid() bool {
	return validGateways.has(g)
}

// ParseGateway converts raw input into a Gateway.
func ParseGateway(value string) (Gateway, error) {
	return validGateways.parse("gateway", value)
}
