package enums

// WithdrawalStatus is the lifecycle of a vendor withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusSuccess    WithdrawalStatus = "success"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
)

var validWithdrawalStatuses = set[WithdrawalStatus]{
	WithdrawalStatusPending,
	WithdrawalStatusProcessing,
	WithdrawalStatusSuccess,
	WithdrawalStatusFailed,
}

// String implements fmt.Stringer.
func (w WithdrawalStatus) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WithdrawalStatus.
func (w WithdrawalStatus) IsValid() bool {
	return validWithdrawalStatuses.has(w)
}

// ParseWithdrawalStatus converts raw input into a WithdrawalStatus.
func ParseWithdrawalStatus(value string) (WithdrawalStatus, error) {
	return validWithdrawalStatuses.parse("withdrawal status", value)
}
