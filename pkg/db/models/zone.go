package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/storekart/storekart-backend/pkg/db/types"
)

// Zone is a named set of pincodes used to route visibility of unclaimed
// assignments to agents. Membership is a flat set test, no geocoding.
type Zone struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null" json:"tenant_id"`
	Name      string              `gorm:"column:name;not null" json:"name"`
	Pincodes  dbtypes.StringArray `gorm:"column:pincodes;type:text[];not null" json:"pincodes"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// ZoneAgent records that an agent covers a zone.
type ZoneAgent struct {
	ZoneID    uuid.UUID `gorm:"column:zone_id;type:uuid;primaryKey" json:"zone_id"`
	AgentID   uuid.UUID `gorm:"column:agent_id;type:uuid;primaryKey" json:"agent_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName keeps the join table out of gorm pluralization surprises.
func (ZoneAgent) TableName() string {
	return "zone_agents"
}
