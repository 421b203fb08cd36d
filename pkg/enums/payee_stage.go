package enums

// PayeeStage records how far payout step one got, so a retry can skip it.
type PayeeStage string

const (
	PayeeStageNone  PayeeStage = "none"
	PayeeStageReady PayeeStage = "payee_ready"
)

var validPayeeStages = set[PayeeStage]{
	PayeeStageNone,
	PayeeStageReady,
}

// String implements fmt.Stringer.
func (p PayeeStage) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayeeStage.
func (p PayeeStage) IsValid() bool {
	return validPayeeStages.has(p)
}

// ParsePayeeStage converts raw input into a PayeeStage.
func ParsePayeeStage(value string) (PayeeStage, error) {
	return validPayeeStages.parse("payee stage", value)
}
