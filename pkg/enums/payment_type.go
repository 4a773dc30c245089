package enums

import "fmt"

// AgentPaymentType describes how a delivery agent is compensated.
type AgentPaymentType string

const (
	AgentPaymentTypeMonthlySalary      AgentPaymentType = "monthly_salary"
	AgentPaymentTypeFixedPerOrder      AgentPaymentType = "fixed_per_order"
	AgentPaymentTypePercentagePerOrder AgentPaymentType = "percentage_per_order"
)

var validAgentPaymentTypes = []AgentPaymentType{
	AgentPaymentTypeMonthlySalary,
	AgentPaymentTypeFixedPerOrder,
	AgentPaymentTypePercentagePerOrder,
}

// String implements fmt.Stringer.
func (p AgentPaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known AgentPaymentType.
func (p AgentPaymentType) IsValid() bool {
	for _, candidate := range validAgentPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseAgentPaymentType converts raw input into an AgentPaymentType.
func ParseAgentPaymentType(value string) (AgentPaymentType, error) {
	for _, candidate := range validAgentPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid agent payment type %q", value)
}
