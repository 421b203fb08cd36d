package enums

// PayoutStatus is the normalized provider transfer status.
type PayoutStatus string

const (
	PayoutStatusSuccess PayoutStatus = "SUCCESS"
	PayoutStatusFailed  PayoutStatus = "FAILED"
	PayoutStatusPending PayoutStatus = "PENDING"
)

var validPayoutStatuses = set[PayoutStatus]{
	PayoutStatusSuccess,
	PayoutStatusFailed,
	PayoutStatusPending,
}

// String implements fmt.Stringer.
func (p PayoutStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutStatus.
func (p PayoutStatus) IsValid() bool {
	return validPayoutStatuses.has(p)
}

// ParsePayoutStatus converts raw input into a PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	return validPayoutStatuses.parse("payout status", value)
}

// Terminal reports whether no further provider transitions are expected.
func (p PayoutStatus) Terminal() bool {
	return p == PayoutStatusSuccess || p == PayoutStatusFailed
}
