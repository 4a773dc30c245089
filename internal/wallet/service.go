package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storekart/storekart-backend/pkg/db"
	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/enums"
	pkgerrors "github.com/storekart/storekart-backend/pkg/errors"
	"github.com/storekart/storekart-backend/pkg/logger"
	"github.com/storekart/storekart-backend/pkg/pagination"
	"github.com/storekart/storekart-backend/pkg/redis"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Service is the agent earnings ledger: idempotent credits keyed on the
// assignment, atomic balance deltas, and re-queryable balance/history reads.
type Service interface {
	Credit(ctx context.Context, tx *gorm.DB, input CreditInput) (bool, error)
	Balance(ctx context.Context, agentID uuid.UUID) (*BalanceView, error)
	History(ctx context.Context, agentID uuid.UUID, params pagination.Params) ([]models.Earning, string, error)
	Agent(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) (*models.DeliveryAgent, error)
	AgentForUser(ctx context.Context, userID uuid.UUID) (*models.DeliveryAgent, error)
	InvalidateBalance(ctx context.Context, agentID uuid.UUID)
}

type service struct {
	repo     Repository
	cache    cacheStore
	cacheTTL time.Duration
	logg     *logger.Logger
}

// CreditInput carries the immutable data an earning row requires.
type CreditInput struct {
	TenantID     uuid.UUID
	AgentID      uuid.UUID
	AssignmentID uuid.UUID
	OrderID      *uuid.UUID
	AmountPaise  int64
	Type         enums.EarningType
}

// BalanceView is the wallet snapshot returned to agents.
type BalanceView struct {
	AgentID            uuid.UUID `json:"agent_id"`
	WalletBalancePaise int64     `json:"wallet_balance_paise"`
	TotalEarnedPaise   int64     `json:"total_earned_paise"`
	TotalPaidPaise     int64     `json:"total_paid_paise"`
}

// NewService wires a wallet service. Cache is optional; pass nil to read
// balances straight from the database.
func NewService(repo Repository, cache cacheStore, cacheTTL time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{repo: repo, cache: cache, cacheTTL: cacheTTL, logg: logg}, nil
}

// Credit writes the earning ledger row and moves the wallet balance inside
// the caller's transaction. A repeat credit for the same assignment is
// swallowed via the unique index so retries cannot double-pay; the bool
// result reports whether this call actually credited.
func (s *service) Credit(ctx context.Context, tx *gorm.DB, input CreditInput) (bool, error) {
	if tx == nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}
	if input.AgentID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	if input.AssignmentID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	if input.AmountPaise < 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "credit amount must not be negative")
	}
	if !input.Type.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid earning type")
	}

	repo := s.repo.WithTx(tx)
	assignmentID := input.AssignmentID
	earning := models.Earning{
		TenantID:     input.TenantID,
		AgentID:      input.AgentID,
		AssignmentID: &assignmentID,
		OrderID:      input.OrderID,
		AmountPaise:  input.AmountPaise,
		Type:         input.Type,
	}
	if err := repo.CreateEarning(ctx, &earning); err != nil {
		if db.IsUniqueViolation(err, "") {
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"agent_id":      input.AgentID.String(),
					"assignment_id": input.AssignmentID.String(),
				})
				s.logg.Info(logCtx, "duplicate earning credit skipped")
			}
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create earning")
	}

	if input.AmountPaise > 0 {
		if err := repo.ApplyEarningDelta(ctx, input.AgentID, input.AmountPaise); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
			}
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply earning delta")
		}
	}
	return true, nil
}

func (s *service) Balance(ctx context.Context, agentID uuid.UUID) (*BalanceView, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}

	key := redis.WalletKey(agentID.String())
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var view BalanceView
			if err := json.Unmarshal([]byte(raw), &view); err == nil {
				return &view, nil
			}
		}
	}

	agent, err := s.repo.FindAgent(ctx, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
	}

	view := &BalanceView{
		AgentID:            agent.ID,
		WalletBalancePaise: agent.WalletBalancePaise,
		TotalEarnedPaise:   agent.TotalEarnedPaise,
		TotalPaidPaise:     agent.TotalPaidPaise,
	}
	if s.cache != nil && s.cacheTTL > 0 {
		if raw, err := json.Marshal(view); err == nil {
			// best effort; a failed cache write only costs the next read
			_ = s.cache.Set(ctx, key, string(raw), s.cacheTTL)
		}
	}
	return view, nil
}

func (s *service) History(ctx context.Context, agentID uuid.UUID, params pagination.Params) ([]models.Earning, string, error) {
	if agentID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor").WithDetails(err.Error())
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListEarnings(ctx, agentID, limit+1, cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list earnings")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// Agent loads the full agent row, optionally inside a transaction, for
// callers that need the payment configuration.
func (s *service) Agent(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) (*models.DeliveryAgent, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	agent, err := repo.FindAgent(ctx, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
	}
	return agent, nil
}

func (s *service) AgentForUser(ctx context.Context, userID uuid.UUID) (*models.DeliveryAgent, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	agent, err := s.repo.FindAgentByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
	}
	return agent, nil
}

// InvalidateBalance drops the cached balance after a committed credit or
// debit. Callers invoke it outside the transaction.
func (s *service) InvalidateBalance(ctx context.Context, agentID uuid.UUID) {
	if s.cache == nil || agentID == uuid.Nil {
		return
	}
	if err := s.cache.Del(ctx, redis.WalletKey(agentID.String())); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithAgentID(ctx, agentID.String()), "wallet cache invalidation failed")
	}
}
