package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storekart/storekart-backend/pkg/enums"
)

// StatusLog is the append-only audit row written for every assignment status
// transition. Rows are never updated or deleted.
type StatusLog struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID     uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null" json:"tenant_id"`
	AssignmentID uuid.UUID              `gorm:"column:assignment_id;type:uuid;not null" json:"assignment_id"`
	OldStatus    enums.AssignmentStatus `gorm:"column:old_status;type:assignment_status_enum;not null" json:"old_status"`
	NewStatus    enums.AssignmentStatus `gorm:"column:new_status;type:assignment_status_enum;not null" json:"new_status"`
	Actor        enums.StatusActor      `gorm:"column:actor;type:status_actor_enum;not null" json:"actor"`
	ActorID      *uuid.UUID             `gorm:"column:actor_id;type:uuid" json:"actor_id,omitempty"`
	Notes        *string                `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
