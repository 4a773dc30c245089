package enums

import "fmt"

// EarningType classifies rows in the agent earnings ledger.
type EarningType string

const (
	EarningTypeDelivery      EarningType = "delivery"
	EarningTypeSalaryAccrual EarningType = "salary_accrual"
	EarningTypeAdjustment    EarningType = "adjustment"
)

var validEarningTypes = []EarningType{
	EarningTypeDelivery,
	EarningTypeSalaryAccrual,
	EarningTypeAdjustment,
}

// String implements fmt.Stringer.
func (e EarningType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EarningType.
func (e EarningType) IsValid() bool {
	for _, candidate := range validEarningTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEarningType converts raw input into an EarningType.
func ParseEarningType(value string) (EarningType, error) {
	for _, candidate := range validEarningTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid earning type %q", value)
}
