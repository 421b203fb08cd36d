package enums

// EarningEntryType classifies vendor earnings ledger rows.
type EarningEntryType string

const (
	EarningSaleCredit         EarningEntryType = "sale_credit"
	EarningWithdrawalHold     EarningEntryType = "withdrawal_hold"
	EarningWithdrawalReversal EarningEntryType = "withdrawal_reversal"
	EarningRefundDebit        EarningEntryType = "refund_debit"
)

var validEarningEntryTypes = set[EarningEntryType]{
	EarningSaleCredit,
	EarningWithdrawalHold,
	EarningWithdrawalReversal,
	EarningRefundDebit,
}

// String implements fmt.Stringer.
func (e EarningEntryType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EarningEntryType.
func (e EarningEntryType) IsValid() bool {
	return validEarningEntryTypes.has(e)
}

// ParseEarningEntryType converts raw input into a EarningEntryType.
func ParseEarningEntryType(value string) (EarningEntryType, error) {
	return validEarningEntryTypes.parse("earning entry type", value)
}
