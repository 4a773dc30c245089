package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storekart/storekart-backend/pkg/enums"
)

// PayoutRequest is an agent-initiated draw against the wallet balance,
// reviewed and settled by an admin. The wallet is debited at settlement,
// not at request time.
type PayoutRequest struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID     uuid.UUID                 `gorm:"column:tenant_id;type:uuid;not null" json:"tenant_id"`
	AgentID      uuid.UUID                 `gorm:"column:agent_id;type:uuid;not null" json:"agent_id"`
	AmountPaise  int64                     `gorm:"column:amount_paise;not null" json:"amount_paise"`
	Status       enums.PayoutRequestStatus `gorm:"column:status;type:payout_request_status_enum;not null;default:'pending'" json:"status"`
	RequestedAt  time.Time                 `gorm:"column:requested_at;autoCreateTime" json:"requested_at"`
	ProcessedAt  *time.Time                `gorm:"column:processed_at" json:"processed_at,omitempty"`
	ProcessedBy  *uuid.UUID                `gorm:"column:processed_by;type:uuid" json:"processed_by,omitempty"`
	RejectReason *string                   `gorm:"column:reject_reason" json:"reject_reason,omitempty"`
}
