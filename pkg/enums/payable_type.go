package enums

// PayableType identifies what a payment transaction pays for.
type PayableType string

const (
	PayableBooking       PayableType = "booking"
	PayableVideoPurchase PayableType = "video_purchase"
	PayableVendorFee     PayableType = "vendor_fee"
)

var validPayableTypes = set[PayableType]{
	PayableBooking,
	PayableVideoPurchase,
	PayableVendorFee,
}

// String implements fmt.Stringer.
func (p PayableType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayableType.
func (p PayableType) IsValid() bool {
	return validPayableTypes.has(p)
}

// ParsePayableType converts raw input into a PayableType.
func ParsePayableType(value string) (PayableType, error) {
	return validPayableTypes.parse("payable type", value)
}
