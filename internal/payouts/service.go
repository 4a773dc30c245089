package payouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/enums"
	pkgerrors "github.com/storekart/storekart-backend/pkg/errors"
	"github.com/storekart/storekart-backend/pkg/logger"
	"github.com/storekart/storekart-backend/pkg/metrics"
	"github.com/storekart/storekart-backend/pkg/outbox"
	"github.com/storekart/storekart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type walletReader interface {
	Agent(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) (*models.DeliveryAgent, error)
	InvalidateBalance(ctx context.Context, agentID uuid.UUID)
}

// Service runs the payout review workflow: agents draw against their wallet,
// admins approve or reject, and settlement debits the wallet at mark-paid
// time with a fresh balance check.
type Service interface {
	RequestPayout(ctx context.Context, input RequestInput) (*models.PayoutRequest, error)
	Approve(ctx context.Context, input DecisionInput) (*models.PayoutRequest, error)
	Reject(ctx context.Context, input DecisionInput) (*models.PayoutRequest, error)
	MarkPaid(ctx context.Context, input SettleInput) (*models.Payout, error)
	ListForTenant(ctx context.Context, tenantID uuid.UUID, status *enums.PayoutRequestStatus, params pagination.Params) ([]models.PayoutRequest, string, error)
	ListForAgent(ctx context.Context, agentID uuid.UUID, params pagination.Params) ([]models.PayoutRequest, string, error)
}

type service struct {
	repo            Repository
	tx              txRunner
	wallet          walletReader
	outbox          outboxPublisher
	minRequestPaise int64
	metrics         *metrics.DeliveryMetrics
	logg            *logger.Logger
}

// RequestInput is an agent's draw against their wallet balance.
type RequestInput struct {
	TenantID    uuid.UUID
	AgentID     uuid.UUID
	ActorUserID uuid.UUID
	AmountPaise int64
}

// DecisionInput carries an admin's approve/reject call.
type DecisionInput struct {
	RequestID    uuid.UUID
	TenantID     uuid.UUID
	AdminUserID  uuid.UUID
	RejectReason *string
}

// SettleInput marks an approved request as paid out.
type SettleInput struct {
	RequestID            uuid.UUID
	TenantID             uuid.UUID
	AdminUserID          uuid.UUID
	TransactionReference string
}

// PaidEvent is emitted when a payout settles.
type PaidEvent struct {
	PayoutRequestID uuid.UUID `json:"payout_request_id"`
	PayoutID        uuid.UUID `json:"payout_id"`
	TenantID        uuid.UUID `json:"tenant_id"`
	AgentID         uuid.UUID `json:"agent_id"`
	AmountPaise     int64     `json:"amount_paise"`
	PaidAt          time.Time `json:"paid_at"`
}

// NewService builds the payout service with the required collaborators.
func NewService(repo Repository, tx txRunner, wallet walletReader, outboxSvc outboxPublisher, minRequestPaise int64, deliveryMetrics *metrics.DeliveryMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:            repo,
		tx:              tx,
		wallet:          wallet,
		outbox:          outboxSvc,
		minRequestPaise: minRequestPaise,
		metrics:         deliveryMetrics,
		logg:            logg,
	}, nil
}

// RequestPayout records a pending draw. The balance check here is advisory;
// the wallet is only debited at settlement, which re-checks.
func (s *service) RequestPayout(ctx context.Context, input RequestInput) (*models.PayoutRequest, error) {
	if input.AgentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "agent identity missing")
	}
	if input.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.AmountPaise < s.minRequestPaise {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount below minimum").
			WithDetails(map[string]int64{"min_request_paise": s.minRequestPaise})
	}

	agent, err := s.wallet.Agent(ctx, nil, input.AgentID)
	if err != nil {
		return nil, err
	}
	if agent.TenantID != input.TenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "agent belongs to another tenant")
	}
	if input.AmountPaise > agent.WalletBalancePaise {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "amount exceeds wallet balance").
			WithDetails(map[string]int64{"wallet_balance_paise": agent.WalletBalancePaise})
	}

	request := &models.PayoutRequest{
		ID:          uuid.New(),
		TenantID:    input.TenantID,
		AgentID:     input.AgentID,
		AmountPaise: input.AmountPaise,
		Status:      enums.PayoutRequestStatusPending,
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout request")
	}
	return request, nil
}

func (s *service) Approve(ctx context.Context, input DecisionInput) (*models.PayoutRequest, error) {
	return s.decide(ctx, input, enums.PayoutRequestStatusApproved)
}

func (s *service) Reject(ctx context.Context, input DecisionInput) (*models.PayoutRequest, error) {
	if input.RejectReason == nil || *input.RejectReason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reject reason required")
	}
	return s.decide(ctx, input, enums.PayoutRequestStatusRejected)
}

func (s *service) decide(ctx context.Context, input DecisionInput, target enums.PayoutRequestStatus) (*models.PayoutRequest, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.AdminUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	request, err := s.loadScopedRequest(ctx, s.repo, input.RequestID, input.TenantID)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.PayoutRequestStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request already processed").
			WithDetails(map[string]string{"status": request.Status.String()})
	}

	now := time.Now()
	applied, err := s.repo.UpdateRequestStatus(ctx, request.ID,
		enums.PayoutRequestStatusPending, target, input.AdminUserID, input.RejectReason, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request status")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "request processed concurrently")
	}

	request.Status = target
	request.ProcessedAt = &now
	adminID := input.AdminUserID
	request.ProcessedBy = &adminID
	request.RejectReason = input.RejectReason
	return request, nil
}

// MarkPaid settles an approved request: the conditional debit re-checks the
// balance at settlement time so the wallet can never go negative, even when
// several approved requests race.
func (s *service) MarkPaid(ctx context.Context, input SettleInput) (*models.Payout, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.AdminUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}
	if input.TransactionReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference required")
	}

	var (
		settled *models.Payout
		agentID uuid.UUID
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := s.loadScopedRequest(ctx, repo, input.RequestID, input.TenantID)
		if err != nil {
			return err
		}
		if request.Status != enums.PayoutRequestStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only approved requests can be paid").
				WithDetails(map[string]string{"status": request.Status.String()})
		}

		debited, err := repo.DebitAgent(ctx, request.AgentID, request.AmountPaise)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
		}
		if !debited {
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "wallet balance no longer covers the payout")
		}

		now := time.Now()
		applied, err := repo.UpdateRequestStatus(ctx, request.ID,
			enums.PayoutRequestStatusApproved, enums.PayoutRequestStatusPaid, input.AdminUserID, nil, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request status")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeConflict, "request settled concurrently")
		}

		requestID := request.ID
		payout := &models.Payout{
			ID:                   uuid.New(),
			TenantID:             request.TenantID,
			AgentID:              request.AgentID,
			PayoutRequestID:      &requestID,
			AmountPaise:          request.AmountPaise,
			PaidAt:               now,
			TransactionReference: input.TransactionReference,
		}
		if err := repo.CreatePayout(ctx, payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPayoutPaid,
			AggregateType: enums.AggregatePayoutRequest,
			AggregateID:   request.ID,
			Version:       1,
			Actor: &outbox.ActorRef{
				UserID:   input.AdminUserID,
				TenantID: input.TenantID,
				Role:     enums.MemberRoleAdmin.String(),
			},
			Data: PaidEvent{
				PayoutRequestID: request.ID,
				PayoutID:        payout.ID,
				TenantID:        request.TenantID,
				AgentID:         request.AgentID,
				AmountPaise:     request.AmountPaise,
				PaidAt:          now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payout event")
		}

		settled = payout
		agentID = request.AgentID
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientBalance {
			s.metrics.ObserveSettlement("insufficient_balance")
		} else {
			s.metrics.ObserveSettlement("error")
		}
		return nil, err
	}

	s.metrics.ObserveSettlement("paid")
	s.wallet.InvalidateBalance(ctx, agentID)
	return settled, nil
}

func (s *service) loadScopedRequest(ctx context.Context, repo Repository, requestID, tenantID uuid.UUID) (*models.PayoutRequest, error) {
	request, err := repo.FindRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout request")
	}
	if request.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request belongs to another tenant")
	}
	return request, nil
}

func (s *service) ListForTenant(ctx context.Context, tenantID uuid.UUID, status *enums.PayoutRequestStatus, params pagination.Params) ([]models.PayoutRequest, string, error) {
	if tenantID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor").WithDetails(err.Error())
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListRequests(ctx, tenantID, status, limit+1, cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payout requests")
	}
	return paginateRequests(rows, limit)
}

func (s *service) ListForAgent(ctx context.Context, agentID uuid.UUID, params pagination.Params) ([]models.PayoutRequest, string, error) {
	if agentID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor").WithDetails(err.Error())
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListRequestsForAgent(ctx, agentID, limit+1, cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payout requests")
	}
	return paginateRequests(rows, limit)
}

func paginateRequests(rows []models.PayoutRequest, limit int) ([]models.PayoutRequest, string, error) {
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.RequestedAt, ID: last.ID})
	}
	return rows, next, nil
}
