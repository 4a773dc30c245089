package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storekart/storekart-backend/pkg/enums"
)

// Earning is an immutable ledger row crediting an agent. The unique index on
// assignment_id is what makes the delivered credit idempotent under retry.
type Earning struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID     uuid.UUID         `gorm:"column:tenant_id;type:uuid;not null" json:"tenant_id"`
	AgentID      uuid.UUID         `gorm:"column:agent_id;type:uuid;not null" json:"agent_id"`
	AssignmentID *uuid.UUID        `gorm:"column:assignment_id;type:uuid;uniqueIndex:ux_earnings_assignment_id" json:"assignment_id,omitempty"`
	OrderID      *uuid.UUID        `gorm:"column:order_id;type:uuid" json:"order_id,omitempty"`
	AmountPaise  int64             `gorm:"column:amount_paise;not null" json:"amount_paise"`
	Type         enums.EarningType `gorm:"column:type;type:earning_type_enum;not null" json:"type"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
