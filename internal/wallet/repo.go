package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/pagination"
)

// Repository manages persistence for delivery agents and their earnings ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAgent(ctx context.Context, agentID uuid.UUID) (*models.DeliveryAgent, error)
	FindAgentByUserID(ctx context.Context, userID uuid.UUID) (*models.DeliveryAgent, error)
	CreateEarning(ctx context.Context, earning *models.Earning) error
	ApplyEarningDelta(ctx context.Context, agentID uuid.UUID, amountPaise int64) error
	ListEarnings(ctx context.Context, agentID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Earning, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindAgent(ctx context.Context, agentID uuid.UUID) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	if err := r.db.WithContext(ctx).
		Where("id = ?", agentID).
		First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *repository) FindAgentByUserID(ctx context.Context, userID uuid.UUID) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *repository) CreateEarning(ctx context.Context, earning *models.Earning) error {
	return r.db.WithContext(ctx).Create(earning).Error
}

// ApplyEarningDelta moves the wallet balance and lifetime earned total in a
// single atomic statement so concurrent credits never lose updates.
func (r *repository) ApplyEarningDelta(ctx context.Context, agentID uuid.UUID, amountPaise int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryAgent{}).
		Where("id = ?", agentID).
		Updates(map[string]any{
			"wallet_balance_paise": gorm.Expr("wallet_balance_paise + ?", amountPaise),
			"total_earned_paise":   gorm.Expr("total_earned_paise + ?", amountPaise),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListEarnings(ctx context.Context, agentID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Earning, error) {
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

	var rows []models.Earning
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
