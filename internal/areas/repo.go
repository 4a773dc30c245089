package areas

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storekart/storekart-backend/pkg/db/models"
)

// Repository manages persistence for zones and zone coverage.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListZones(ctx context.Context, tenantID uuid.UUID) ([]models.Zone, error)
	ListZonesForAgent(ctx context.Context, agentID uuid.UUID) ([]models.Zone, error)
	CreateZone(ctx context.Context, zone *models.Zone) error
	AddAgentToZone(ctx context.Context, zoneID, agentID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an areas repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListZones(ctx context.Context, tenantID uuid.UUID) ([]models.Zone, error) {
	var zones []models.Zone
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *repository) ListZonesForAgent(ctx context.Context, agentID uuid.UUID) ([]models.Zone, error) {
	var zones []models.Zone
	if err := r.db.WithContext(ctx).
		Joins("JOIN zone_agents ON zone_agents.zone_id = zones.id").
		Where("zone_agents.agent_id = ?", agentID).
		Order("zones.created_at ASC").
		Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *repository) CreateZone(ctx context.Context, zone *models.Zone) error {
	return r.db.WithContext(ctx).Create(zone).Error
}

func (r *repository) AddAgentToZone(ctx context.Context, zoneID, agentID uuid.UUID) error {
	link := models.ZoneAgent{ZoneID: zoneID, AgentID: agentID}
	return r.db.WithContext(ctx).Create(&link).Error
}
