package models

import (
	"time"

	"github.com/google/uuid"
)

// Payout is the settlement row written when an approved payout request is
// marked paid. The sum of an agent's payouts equals total_paid_paise.
type Payout struct {
	ID                   uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID             uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null" json:"tenant_id"`
	AgentID              uuid.UUID  `gorm:"column:agent_id;type:uuid;not null" json:"agent_id"`
	PayoutRequestID      *uuid.UUID `gorm:"column:payout_request_id;type:uuid" json:"payout_request_id,omitempty"`
	AmountPaise          int64      `gorm:"column:amount_paise;not null" json:"amount_paise"`
	PaidAt               time.Time  `gorm:"column:paid_at;autoCreateTime" json:"paid_at"`
	TransactionReference string     `gorm:"column:transaction_reference;not null" json:"transaction_reference"`
}
