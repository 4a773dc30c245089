package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storekart/storekart-backend/pkg/enums"
)

// DeliveryAgent is a delivery worker with a configured payment type and a
// running wallet. WalletBalancePaise always equals TotalEarnedPaise minus
// TotalPaidPaise; both sides move only through atomic deltas.
type DeliveryAgent struct {
	ID                  uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID            uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null" json:"tenant_id"`
	UserID              uuid.UUID              `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Name                string                 `gorm:"column:name;not null" json:"name"`
	PaymentType         enums.AgentPaymentType `gorm:"column:payment_type;type:agent_payment_type_enum;not null" json:"payment_type"`
	PerOrderAmountPaise *int64                 `gorm:"column:per_order_amount_paise" json:"per_order_amount_paise,omitempty"`
	PercentageValue     *decimal.Decimal       `gorm:"column:percentage_value;type:numeric(5,2)" json:"percentage_value,omitempty"`
	WalletBalancePaise  int64                  `gorm:"column:wallet_balance_paise;not null;default:0" json:"wallet_balance_paise"`
	TotalEarnedPaise    int64                  `gorm:"column:total_earned_paise;not null;default:0" json:"total_earned_paise"`
	TotalPaidPaise      int64                  `gorm:"column:total_paid_paise;not null;default:0" json:"total_paid_paise"`
	Active              bool                   `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt           time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
