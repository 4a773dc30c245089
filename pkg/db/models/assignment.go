package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storekart/storekart-backend/pkg/enums"
)

// Assignment links one order to one delivery agent and tracks delivery status.
// There is exactly one assignment per order; it is created unassigned and only
// mutated through the status machine.
type Assignment struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null" json:"tenant_id"`
	OrderID     uuid.UUID              `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_assignments_order_id" json:"order_id"`
	ZoneID      *uuid.UUID             `gorm:"column:zone_id;type:uuid" json:"zone_id,omitempty"`
	AgentID     *uuid.UUID             `gorm:"column:agent_id;type:uuid" json:"agent_id,omitempty"`
	Status      enums.AssignmentStatus `gorm:"column:status;type:assignment_status_enum;not null;default:'unassigned'" json:"status"`
	AssignedAt  *time.Time             `gorm:"column:assigned_at" json:"assigned_at,omitempty"`
	PickedUpAt  *time.Time             `gorm:"column:picked_up_at" json:"picked_up_at,omitempty"`
	DeliveredAt *time.Time             `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	Notes       *string                `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}
