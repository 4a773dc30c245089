package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/enums"
	"github.com/storekart/storekart-backend/pkg/pagination"
)

// Repository manages persistence for assignments and their status audit log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Claim(ctx context.Context, assignmentID, agentID uuid.UUID, at time.Time) (bool, error)
	UpdateStatus(ctx context.Context, assignmentID uuid.UUID, from, to enums.AssignmentStatus, at time.Time) (bool, error)
	AppendStatusLog(ctx context.Context, log *models.StatusLog) error
	ListUnassignedInZone(ctx context.Context, tenantID, zoneID uuid.UUID, limit int) ([]models.Assignment, error)
	ListForAgent(ctx context.Context, agentID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Assignment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an assignments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Claim is the compare-and-set that decides concurrent claim races: the
// UPDATE only lands while the row is still unassigned, so exactly one of N
// contenders sees RowsAffected == 1.
func (r *repository) Claim(ctx context.Context, assignmentID, agentID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status = ?", assignmentID, enums.AssignmentStatusUnassigned).
		Updates(map[string]any{
			"status":      enums.AssignmentStatusAssigned,
			"agent_id":    agentID,
			"assigned_at": at,
			"updated_at":  at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateStatus applies a transition conditionally on the expected current
// status, stamping the phase timestamp that belongs to the target state.
func (r *repository) UpdateStatus(ctx context.Context, assignmentID uuid.UUID, from, to enums.AssignmentStatus, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case enums.AssignmentStatusPickedUp:
		updates["picked_up_at"] = at
	case enums.AssignmentStatusDelivered:
		updates["delivered_at"] = at
	}

	res := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status = ?", assignmentID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AppendStatusLog(ctx context.Context, log *models.StatusLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) ListUnassignedInZone(ctx context.Context, tenantID, zoneID uuid.UUID, limit int) ([]models.Assignment, error) {
	var rows []models.Assignment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND zone_id = ? AND status = ?", tenantID, zoneID, enums.AssignmentStatusUnassigned).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListForAgent(ctx context.Context, agentID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Assignment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
