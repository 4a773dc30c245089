package earnings

import (
	"github.com/shopspring/decimal"

	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/enums"
	pkgerrors "github.com/storekart/storekart-backend/pkg/errors"
)

// Calculator computes the paise an agent earns for a delivered order from
// the agent's payment configuration. It is pure and safe for concurrent use.
type Calculator struct {
	// RecordZeroSalaryEarnings keeps a zero-amount ledger row for
	// monthly-salary agents so per-delivery reporting stays complete.
	RecordZeroSalaryEarnings bool
}

// NewCalculator builds a calculator with the given salary-row policy.
func NewCalculator(recordZeroSalaryEarnings bool) *Calculator {
	return &Calculator{RecordZeroSalaryEarnings: recordZeroSalaryEarnings}
}

// Result carries the computed amount and whether a ledger row should be written.
type Result struct {
	AmountPaise int64
	RecordRow   bool
	Type        enums.EarningType
}

// Compute resolves the per-delivery earning for the agent against the order
// total. Percentage amounts round half-up to the nearest paisa.
func (c *Calculator) Compute(agent models.DeliveryAgent, order models.Order) (Result, error) {
	switch agent.PaymentType {
	case enums.AgentPaymentTypeFixedPerOrder:
		// An unconfigured rate earns zero; it must not block the delivery.
		var amount int64
		if agent.PerOrderAmountPaise != nil {
			amount = *agent.PerOrderAmountPaise
		}
		if amount < 0 {
			return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "per-order amount must not be negative")
		}
		return Result{
			AmountPaise: amount,
			RecordRow:   true,
			Type:        enums.EarningTypeDelivery,
		}, nil

	case enums.AgentPaymentTypePercentagePerOrder:
		if agent.PercentageValue == nil {
			return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "agent has no percentage configured")
		}
		pct := *agent.PercentageValue
		if pct.IsNegative() {
			return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "percentage must not be negative")
		}
		amount := decimal.NewFromInt(order.TotalPaise).
			Mul(pct).
			Div(decimal.NewFromInt(100)).
			Round(0)
		return Result{
			AmountPaise: amount.IntPart(),
			RecordRow:   true,
			Type:        enums.EarningTypeDelivery,
		}, nil

	case enums.AgentPaymentTypeMonthlySalary:
		return Result{
			AmountPaise: 0,
			RecordRow:   c.RecordZeroSalaryEarnings,
			Type:        enums.EarningTypeSalaryAccrual,
		}, nil

	default:
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown agent payment type").
			WithDetails(map[string]string{"payment_type": agent.PaymentType.String()})
	}
}
