package assignments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storekart/storekart-backend/internal/areas"
	"github.com/storekart/storekart-backend/internal/earnings"
	"github.com/storekart/storekart-backend/internal/wallet"
	"github.com/storekart/storekart-backend/pkg/db"
	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/enums"
	pkgerrors "github.com/storekart/storekart-backend/pkg/errors"
	"github.com/storekart/storekart-backend/pkg/logger"
	"github.com/storekart/storekart-backend/pkg/metrics"
	"github.com/storekart/storekart-backend/pkg/outbox"
	"github.com/storekart/storekart-backend/pkg/pagination"
	"github.com/storekart/storekart-backend/pkg/redis"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type walletLedger interface {
	Credit(ctx context.Context, tx *gorm.DB, input wallet.CreditInput) (bool, error)
	Agent(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) (*models.DeliveryAgent, error)
	InvalidateBalance(ctx context.Context, agentID uuid.UUID)
}

type zoneResolver interface {
	ZoneIDsForAgent(ctx context.Context, agentID uuid.UUID) ([]uuid.UUID, error)
	ResolveZoneForAssignment(ctx context.Context, tx *gorm.DB, assignment *models.Assignment, pincode string) (*models.Zone, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Service coordinates the delivery lifecycle: assignment creation, the claim
// race, and the status machine with its delivered-credit side effect.
type Service interface {
	CreateForOrder(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error)
	ListVisible(ctx context.Context, input ListInput) ([]models.Assignment, string, error)
	ListMine(ctx context.Context, input ListInput) ([]models.Assignment, string, error)
	Claim(ctx context.Context, input ClaimInput) (*models.Assignment, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Assignment, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	wallet   walletLedger
	areas    zoneResolver
	calc     *earnings.Calculator
	outbox   outboxPublisher
	cache    cacheStore
	queueTTL time.Duration
	metrics  *metrics.DeliveryMetrics
	logg     *logger.Logger
}

// NewService builds the assignment service with the required collaborators.
// Cache and metrics are optional.
func NewService(
	repo Repository,
	tx txRunner,
	walletSvc walletLedger,
	areasSvc zoneResolver,
	calc *earnings.Calculator,
	outboxSvc outboxPublisher,
	cache cacheStore,
	queueTTL time.Duration,
	deliveryMetrics *metrics.DeliveryMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if walletSvc == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if areasSvc == nil {
		return nil, fmt.Errorf("areas service required")
	}
	if calc == nil {
		return nil, fmt.Errorf("earnings calculator required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		wallet:   walletSvc,
		areas:    areasSvc,
		calc:     calc,
		outbox:   outboxSvc,
		cache:    cache,
		queueTTL: queueTTL,
		metrics:  deliveryMetrics,
		logg:     logg,
	}, nil
}

// CreateForOrder creates the single unassigned assignment for an order,
// resolving its zone from the delivery pincode. Orders without a matching
// zone still get an assignment; the unroutable event alerts tenant admins.
func (s *service) CreateForOrder(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var created *models.Assignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		assignment := &models.Assignment{
			ID:       uuid.New(),
			TenantID: order.TenantID,
			OrderID:  order.ID,
			Status:   enums.AssignmentStatusUnassigned,
		}

		zone, err := s.areas.ResolveZoneForAssignment(ctx, tx, assignment, order.DeliveryPincode)
		if err != nil {
			return err
		}
		if zone != nil {
			zoneID := zone.ID
			assignment.ZoneID = &zoneID
		}

		if err := repo.Create(ctx, assignment); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "order already has an assignment")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
		}
		created = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created.ZoneID != nil {
		s.invalidateQueue(ctx, created.TenantID, *created.ZoneID)
	}
	return created, nil
}

// ListVisible returns the unclaimed assignments inside the agent's zones,
// oldest first. Per-zone queues are served from a short-lived cache; cursor
// pages always bypass it.
func (s *service) ListVisible(ctx context.Context, input ListInput) ([]models.Assignment, string, error) {
	if input.AgentID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor").WithDetails(err.Error())
	}

	zoneIDs, err := s.areas.ZoneIDsForAgent(ctx, input.AgentID)
	if err != nil {
		return nil, "", err
	}
	if len(zoneIDs) == 0 {
		return []models.Assignment{}, "", nil
	}

	var merged []models.Assignment
	for _, zoneID := range zoneIDs {
		rows, err := s.zoneQueue(ctx, input.TenantID, zoneID, cursor == nil)
		if err != nil {
			return nil, "", err
		}
		merged = append(merged, rows...)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID.String() < merged[j].ID.String()
		}
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})

	if cursor != nil {
		filtered := merged[:0]
		for _, row := range merged {
			if row.CreatedAt.After(cursor.CreatedAt) ||
				(row.CreatedAt.Equal(cursor.CreatedAt) && row.ID.String() > cursor.ID.String()) {
				filtered = append(filtered, row)
			}
		}
		merged = filtered
	}

	limit := pagination.NormalizeLimit(input.Limit)
	next := ""
	if len(merged) > limit {
		merged = merged[:limit]
		last := merged[len(merged)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return merged, next, nil
}

func (s *service) zoneQueue(ctx context.Context, tenantID, zoneID uuid.UUID, useCache bool) ([]models.Assignment, error) {
	key := redis.QueueKey(tenantID.String(), zoneID.String())
	if useCache && s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var rows []models.Assignment
			if err := json.Unmarshal([]byte(raw), &rows); err == nil {
				return rows, nil
			}
		}
	}

	rows, err := s.repo.ListUnassignedInZone(ctx, tenantID, zoneID, pagination.MaxLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unassigned queue")
	}

	if useCache && s.cache != nil && s.queueTTL > 0 {
		if raw, err := json.Marshal(rows); err == nil {
			_ = s.cache.Set(ctx, key, string(raw), s.queueTTL)
		}
	}
	return rows, nil
}

// ListMine returns the agent's own assignments, newest first.
func (s *service) ListMine(ctx context.Context, input ListInput) ([]models.Assignment, string, error) {
	if input.AgentID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor").WithDetails(err.Error())
	}

	limit := pagination.NormalizeLimit(input.Limit)
	rows, err := s.repo.ListForAgent(ctx, input.AgentID, limit+1, cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list agent assignments")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// Claim lets an agent take an unassigned assignment in one of their zones.
// Exactly one of N concurrent claimers wins; the rest receive a conflict.
func (s *service) Claim(ctx context.Context, input ClaimInput) (*models.Assignment, error) {
	if input.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	if input.AgentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "agent identity missing")
	}

	zoneIDs, err := s.areas.ZoneIDsForAgent(ctx, input.AgentID)
	if err != nil {
		return nil, err
	}

	var claimed *models.Assignment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assignment, err := repo.FindByID(ctx, input.AssignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
		}
		if assignment.TenantID != input.TenantID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "assignment belongs to another tenant")
		}
		if !areas.Visible(zoneIDs, *assignment) {
			if assignment.Status != enums.AssignmentStatusUnassigned {
				return pkgerrors.New(pkgerrors.CodeConflict, "assignment already claimed")
			}
			return pkgerrors.New(pkgerrors.CodeForbidden, "assignment outside agent zones")
		}

		now := time.Now()
		won, err := repo.Claim(ctx, assignment.ID, input.AgentID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim assignment")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeConflict, "assignment already claimed")
		}

		agentID := input.AgentID
		assignment.Status = enums.AssignmentStatusAssigned
		assignment.AgentID = &agentID
		assignment.AssignedAt = &now

		logRow := &models.StatusLog{
			TenantID:     assignment.TenantID,
			AssignmentID: assignment.ID,
			OldStatus:    enums.AssignmentStatusUnassigned,
			NewStatus:    enums.AssignmentStatusAssigned,
			Actor:        enums.StatusActorAgent,
			ActorID:      &agentID,
		}
		if err := repo.AppendStatusLog(ctx, logRow); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status log")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAssignmentClaimed,
			AggregateType: enums.AggregateAssignment,
			AggregateID:   assignment.ID,
			Version:       1,
			Actor:         claimActor(input),
			Data: ClaimedEvent{
				AssignmentID: assignment.ID,
				OrderID:      assignment.OrderID,
				TenantID:     assignment.TenantID,
				AgentID:      input.AgentID,
				AssignedAt:   now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit claim event")
		}

		claimed = assignment
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			s.metrics.ObserveClaim("conflict")
		} else {
			s.metrics.ObserveClaim("error")
		}
		return nil, err
	}

	s.metrics.ObserveClaim("won")
	if claimed.ZoneID != nil {
		s.invalidateQueue(ctx, claimed.TenantID, *claimed.ZoneID)
	}
	return claimed, nil
}

// Transition moves an assignment along the status machine. On delivered, the
// earnings credit commits in the same transaction as the status write.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Assignment, error) {
	if input.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status").
			WithDetails(map[string]string{"status": input.Target.String()})
	}
	if !input.Actor.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid actor")
	}
	if input.Actor == enums.StatusActorAgent && input.AgentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "agent identity missing")
	}

	var (
		updated       *models.Assignment
		creditedAgent uuid.UUID
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assignment, err := repo.FindByID(ctx, input.AssignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
		}
		if assignment.TenantID != input.TenantID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "assignment belongs to another tenant")
		}
		if input.Actor == enums.StatusActorAgent {
			if assignment.AgentID == nil || *assignment.AgentID != input.AgentID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "assignment belongs to another agent")
			}
		}

		from := assignment.Status
		if !CanTransition(from, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed").
				WithDetails(map[string]any{
					"from":    from.String(),
					"to":      input.Target.String(),
					"allowed": AllowedTargets(from),
				})
		}

		now := time.Now()
		applied, err := repo.UpdateStatus(ctx, assignment.ID, from, input.Target, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update status")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeConflict, "assignment changed concurrently")
		}

		assignment.Status = input.Target
		switch input.Target {
		case enums.AssignmentStatusPickedUp:
			assignment.PickedUpAt = &now
		case enums.AssignmentStatusDelivered:
			assignment.DeliveredAt = &now
		}
		if input.Notes != nil {
			assignment.Notes = input.Notes
		}

		actorID := input.ActorUserID
		logRow := &models.StatusLog{
			TenantID:     assignment.TenantID,
			AssignmentID: assignment.ID,
			OldStatus:    from,
			NewStatus:    input.Target,
			Actor:        input.Actor,
			Notes:        input.Notes,
		}
		if actorID != uuid.Nil {
			logRow.ActorID = &actorID
		}
		if err := repo.AppendStatusLog(ctx, logRow); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status log")
		}

		if input.Target == enums.AssignmentStatusDelivered {
			if err := s.creditDelivery(ctx, tx, repo, assignment, now, input); err != nil {
				return err
			}
			if assignment.AgentID != nil {
				creditedAgent = *assignment.AgentID
			}
		} else {
			event := outbox.DomainEvent{
				EventType:     enums.EventAssignmentStatusChanged,
				AggregateType: enums.AggregateAssignment,
				AggregateID:   assignment.ID,
				Version:       1,
				Actor:         transitionActor(input),
				Data: StatusChangedEvent{
					AssignmentID: assignment.ID,
					OrderID:      assignment.OrderID,
					TenantID:     assignment.TenantID,
					OldStatus:    from,
					NewStatus:    input.Target,
					Actor:        input.Actor,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status event")
			}
		}

		updated = assignment
		return nil
	})
	if err != nil {
		s.metrics.ObserveTransition(input.Target.String(), "rejected")
		return nil, err
	}

	s.metrics.ObserveTransition(input.Target.String(), "applied")
	if creditedAgent != uuid.Nil {
		s.wallet.InvalidateBalance(ctx, creditedAgent)
	}
	return updated, nil
}

func (s *service) creditDelivery(ctx context.Context, tx *gorm.DB, repo Repository, assignment *models.Assignment, deliveredAt time.Time, input TransitionInput) error {
	if assignment.AgentID == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "delivered assignment has no agent")
	}

	agent, err := s.wallet.Agent(ctx, tx, *assignment.AgentID)
	if err != nil {
		return err
	}
	order, err := repo.FindOrder(ctx, assignment.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	result, err := s.calc.Compute(*agent, *order)
	if err != nil {
		return err
	}

	logged := false
	if result.RecordRow {
		orderID := assignment.OrderID
		logged, err = s.wallet.Credit(ctx, tx, wallet.CreditInput{
			TenantID:     assignment.TenantID,
			AgentID:      agent.ID,
			AssignmentID: assignment.ID,
			OrderID:      &orderID,
			AmountPaise:  result.AmountPaise,
			Type:         result.Type,
		})
		if err != nil {
			return err
		}
		if logged {
			s.metrics.IncCredit()
		}
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventAssignmentDelivered,
		AggregateType: enums.AggregateAssignment,
		AggregateID:   assignment.ID,
		Version:       1,
		Actor:         transitionActor(input),
		Data: DeliveredEvent{
			AssignmentID:  assignment.ID,
			OrderID:       assignment.OrderID,
			TenantID:      assignment.TenantID,
			AgentID:       agent.ID,
			DeliveredAt:   deliveredAt,
			EarningPaise:  result.AmountPaise,
			EarningLogged: logged,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit delivered event")
	}
	return nil
}

func (s *service) invalidateQueue(ctx context.Context, tenantID, zoneID uuid.UUID) {
	if s.cache == nil {
		return
	}
	key := redis.QueueKey(tenantID.String(), zoneID.String())
	if err := s.cache.Del(ctx, key); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithTenantID(ctx, tenantID.String()), "queue cache invalidation failed")
	}
}

func claimActor(input ClaimInput) *outbox.ActorRef {
	agentID := input.AgentID
	return &outbox.ActorRef{
		UserID:   input.ActorUserID,
		TenantID: input.TenantID,
		AgentID:  &agentID,
		Role:     enums.MemberRoleAgent.String(),
	}
}

func transitionActor(input TransitionInput) *outbox.ActorRef {
	ref := &outbox.ActorRef{
		UserID:   input.ActorUserID,
		TenantID: input.TenantID,
		Role:     input.Actor.String(),
	}
	if input.AgentID != uuid.Nil {
		agentID := input.AgentID
		ref.AgentID = &agentID
	}
	return ref
}
