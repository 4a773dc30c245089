package areas

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/enums"
	pkgerrors "github.com/storekart/storekart-backend/pkg/errors"
	"github.com/storekart/storekart-backend/pkg/outbox"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service resolves delivery zones and decides which assignments an agent
// may see. Zone membership is a flat pincode set test.
type Service interface {
	ZonesForAgent(ctx context.Context, agentID uuid.UUID) ([]models.Zone, error)
	ZoneIDsForAgent(ctx context.Context, agentID uuid.UUID) ([]uuid.UUID, error)
	ResolveZone(ctx context.Context, tenantID uuid.UUID, pincode string) (*models.Zone, error)
	ResolveZoneForAssignment(ctx context.Context, tx *gorm.DB, assignment *models.Assignment, pincode string) (*models.Zone, error)
}

type service struct {
	repo   Repository
	outbox outboxPublisher
}

// UnroutableEvent is emitted when an order's pincode matches no zone so
// tenant admins can intervene.
type UnroutableEvent struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	OrderID      uuid.UUID `json:"order_id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Pincode      string    `json:"pincode"`
}

// NewService wires an areas service with the provided repository.
func NewService(repo Repository, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("areas repository required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, outbox: outboxSvc}, nil
}

func (s *service) ZonesForAgent(ctx context.Context, agentID uuid.UUID) ([]models.Zone, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	return s.repo.ListZonesForAgent(ctx, agentID)
}

func (s *service) ZoneIDsForAgent(ctx context.Context, agentID uuid.UUID) ([]uuid.UUID, error) {
	zones, err := s.ZonesForAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(zones))
	for _, zone := range zones {
		ids = append(ids, zone.ID)
	}
	return ids, nil
}

// ResolveZone returns the first zone of the tenant containing the pincode,
// or nil when the pincode is unroutable. Membership is evaluated in Go so
// the same logic serves Postgres and the sqlite test driver.
func (s *service) ResolveZone(ctx context.Context, tenantID uuid.UUID, pincode string) (*models.Zone, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if pincode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pincode required")
	}
	zones, err := s.repo.ListZones(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list zones")
	}
	for i := range zones {
		if zones[i].Pincodes.Contains(pincode) {
			return &zones[i], nil
		}
	}
	return nil, nil
}

// ResolveZoneForAssignment resolves the zone inside the caller's transaction
// and records an unroutable event when no zone matches.
func (s *service) ResolveZoneForAssignment(ctx context.Context, tx *gorm.DB, assignment *models.Assignment, pincode string) (*models.Zone, error) {
	if assignment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment required")
	}

	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	zones, err := repo.ListZones(ctx, assignment.TenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list zones")
	}
	for i := range zones {
		if zones[i].Pincodes.Contains(pincode) {
			return &zones[i], nil
		}
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventAssignmentUnroutable,
		AggregateType: enums.AggregateAssignment,
		AggregateID:   assignment.ID,
		Version:       1,
		Data: UnroutableEvent{
			AssignmentID: assignment.ID,
			OrderID:      assignment.OrderID,
			TenantID:     assignment.TenantID,
			Pincode:      pincode,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit unroutable event")
	}
	return nil, nil
}

// Visible reports whether an unclaimed assignment sits in one of the given
// zones. It decides only the claimable half of an agent's view; assignments
// the agent already holds are listed separately by the assignments service.
// Assignments without a zone are never offered for claim.
func Visible(zoneIDs []uuid.UUID, assignment models.Assignment) bool {
	if assignment.Status != enums.AssignmentStatusUnassigned {
		return false
	}
	if assignment.ZoneID == nil {
		return false
	}
	for _, id := range zoneIDs {
		if id == *assignment.ZoneID {
			return true
		}
	}
	return false
}
