package assignments

import (
	"time"

	"github.com/google/uuid"

	"github.com/storekart/storekart-backend/pkg/enums"
)

// ClaimInput identifies the assignment an agent is trying to win.
type ClaimInput struct {
	AssignmentID uuid.UUID
	TenantID     uuid.UUID
	AgentID      uuid.UUID
	ActorUserID  uuid.UUID
}

// TransitionInput carries a requested status change and who is driving it.
type TransitionInput struct {
	AssignmentID uuid.UUID
	TenantID     uuid.UUID
	Target       enums.AssignmentStatus
	Notes        *string
	Actor        enums.StatusActor
	ActorUserID  uuid.UUID
	AgentID      uuid.UUID
}

// ListInput scopes a visibility query to one agent within a tenant.
type ListInput struct {
	TenantID uuid.UUID
	AgentID  uuid.UUID
	Limit    int
	Cursor   string
}

// ClaimedEvent is emitted when an agent wins an assignment.
type ClaimedEvent struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	OrderID      uuid.UUID `json:"order_id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	AgentID      uuid.UUID `json:"agent_id"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// StatusChangedEvent is emitted for every non-delivery transition.
type StatusChangedEvent struct {
	AssignmentID uuid.UUID              `json:"assignment_id"`
	OrderID      uuid.UUID              `json:"order_id"`
	TenantID     uuid.UUID              `json:"tenant_id"`
	OldStatus    enums.AssignmentStatus `json:"old_status"`
	NewStatus    enums.AssignmentStatus `json:"new_status"`
	Actor        enums.StatusActor      `json:"actor"`
}

// DeliveredEvent surfaces the completed delivery plus the credited earning.
type DeliveredEvent struct {
	AssignmentID  uuid.UUID `json:"assignment_id"`
	OrderID       uuid.UUID `json:"order_id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	AgentID       uuid.UUID `json:"agent_id"`
	DeliveredAt   time.Time `json:"delivered_at"`
	EarningPaise  int64     `json:"earning_paise"`
	EarningLogged bool      `json:"earning_logged"`
}
