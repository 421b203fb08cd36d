package enums

// PurchaseType distinguishes rentals from permanent purchases.
type PurchaseType string

const (
	PurchaseTypeRent PurchaseType = "rent"
	PurchaseTypeBuy  PurchaseType = "buy"
)

var validPurchaseTypes = set[PurchaseType]{
	PurchaseTypeRent,
	PurchaseTypeBuy,
}

// String implements fmt.Stringer.
func (p PurchaseType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseType.
func (p PurchaseType) IsValid() bool {
	return validPurchaseTypes.has(p)
}

// ParsePurchaseType converts raw input into a PurchaseType.
func ParsePurchaseType(value string) (PurchaseType, error) {
	return validPurchaseTypes.parse("purchase type", value)
}
