package enums

// VendorStatus is the review state of a vendor application.
type VendorStatus string

const (
	VendorStatusPending  VendorStatus = "pending"
	VendorStatusApproved VendorStatus = "approved"
	VendorStatusRejected VendorStatus = "rejected"
)

var validVendorStatuses = set[VendorStatus]{
	VendorStatusPending,
	VendorStatusApproved,
	VendorStatusRejected,
}

// String implements fmt.Stringer.
func (v VendorStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VendorStatus.
func (v VendorStatus) IsValid() bool {
	return validVendorStatuses.has(v)
}

// ParseVendorStatus converts raw input into a VendorStatus.
func ParseVendorStatus(value string) (VendorStatus, error) {
	return validVendorStatuses.parse("vendor status", value)
}
