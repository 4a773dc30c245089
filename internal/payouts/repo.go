package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/enums"
	"github.com/storekart/storekart-backend/pkg/pagination"
)

// Repository manages persistence for payout requests and settlements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRequest(ctx context.Context, request *models.PayoutRequest) error
	FindRequest(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, from, to enums.PayoutRequestStatus, processedBy uuid.UUID, rejectReason *string, at time.Time) (bool, error)
	CreatePayout(ctx context.Context, payout *models.Payout) error
	DebitAgent(ctx context.Context, agentID uuid.UUID, amountPaise int64) (bool, error)
	ListRequests(ctx context.Context, tenantID uuid.UUID, status *enums.PayoutRequestStatus, limit int, cursor *pagination.Cursor) ([]models.PayoutRequest, error)
	ListRequestsForAgent(ctx context.Context, agentID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.PayoutRequest, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payouts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRequest(ctx context.Context, request *models.PayoutRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindRequest(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	var request models.PayoutRequest
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateRequestStatus applies a review decision conditionally on the expected
// current status so concurrent admins cannot double-process a request.
func (r *repository) UpdateRequestStatus(ctx context.Context, id uuid.UUID, from, to enums.PayoutRequestStatus, processedBy uuid.UUID, rejectReason *string, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":       to,
		"processed_at": at,
		"processed_by": processedBy,
	}
	if rejectReason != nil {
		updates["reject_reason"] = *rejectReason
	}

	res := r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreatePayout(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

// DebitAgent moves the wallet balance and lifetime paid total only while the
// balance still covers the amount. RowsAffected == 0 means the settlement
// must not proceed.
func (r *repository) DebitAgent(ctx context.Context, agentID uuid.UUID, amountPaise int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryAgent{}).
		Where("id = ? AND wallet_balance_paise >= ?", agentID, amountPaise).
		Updates(map[string]any{
			"wallet_balance_paise": gorm.Expr("wallet_balance_paise - ?", amountPaise),
			"total_paid_paise":     gorm.Expr("total_paid_paise + ?", amountPaise),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListRequests(ctx context.Context, tenantID uuid.UUID, status *enums.PayoutRequestStatus, limit int, cursor *pagination.Cursor) ([]models.PayoutRequest, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("requested_at DESC").
		Order("id DESC").
		Limit(limit)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if cursor != nil {
		query = query.Where(
			"(requested_at < ?) OR (requested_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.PayoutRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListRequestsForAgent(ctx context.Context, agentID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.PayoutRequest, error) {
	query := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("requested_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(requested_at < ?) OR (requested_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.PayoutRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
