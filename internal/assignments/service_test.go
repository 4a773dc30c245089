package assignments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storekart/storekart-backend/internal/earnings"
	"github.com/storekart/storekart-backend/internal/wallet"
	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/enums"
	pkgerrors "github.com/storekart/storekart-backend/pkg/errors"
	"github.com/storekart/storekart-backend/pkg/outbox"
	"github.com/storekart/storekart-backend/pkg/pagination"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeRepo struct {
	assignments map[uuid.UUID]*models.Assignment
	orders      map[uuid.UUID]*models.Order
	logs        []models.StatusLog
	claimWins   bool
	updateWins  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		assignments: map[uuid.UUID]*models.Assignment{},
		orders:      map[uuid.UUID]*models.Order{},
		claimWins:   true,
		updateWins:  true,
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	f.assignments[assignment.ID] = assignment
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	if a, ok := f.assignments[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error) {
	for _, a := range f.assignments {
		if a.OrderID == orderID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if o, ok := f.orders[orderID]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) Claim(ctx context.Context, assignmentID, agentID uuid.UUID, at time.Time) (bool, error) {
	if !f.claimWins {
		return false, nil
	}
	a := f.assignments[assignmentID]
	a.Status = enums.AssignmentStatusAssigned
	a.AgentID = &agentID
	a.AssignedAt = &at
	return true, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, assignmentID uuid.UUID, from, to enums.AssignmentStatus, at time.Time) (bool, error) {
	if !f.updateWins {
		return false, nil
	}
	a := f.assignments[assignmentID]
	if a.Status != from {
		return false, nil
	}
	a.Status = to
	return true, nil
}

func (f *fakeRepo) AppendStatusLog(ctx context.Context, log *models.StatusLog) error {
	f.logs = append(f.logs, *log)
	return nil
}

func (f *fakeRepo) ListUnassignedInZone(ctx context.Context, tenantID, zoneID uuid.UUID, limit int) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range f.assignments {
		if a.TenantID == tenantID && a.ZoneID != nil && *a.ZoneID == zoneID &&
			a.Status == enums.AssignmentStatusUnassigned {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListForAgent(ctx context.Context, agentID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range f.assignments {
		if a.AgentID != nil && *a.AgentID == agentID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeWallet struct {
	agents      map[uuid.UUID]*models.DeliveryAgent
	credits     []wallet.CreditInput
	invalidated []uuid.UUID
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{agents: map[uuid.UUID]*models.DeliveryAgent{}}
}

func (f *fakeWallet) Credit(ctx context.Context, tx *gorm.DB, input wallet.CreditInput) (bool, error) {
	for _, existing := range f.credits {
		if existing.AssignmentID == input.AssignmentID {
			return false, nil
		}
	}
	f.credits = append(f.credits, input)
	return true, nil
}

func (f *fakeWallet) Agent(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) (*models.DeliveryAgent, error) {
	if a, ok := f.agents[agentID]; ok {
		return a, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
}

func (f *fakeWallet) InvalidateBalance(ctx context.Context, agentID uuid.UUID) {
	f.invalidated = append(f.invalidated, agentID)
}

type fakeAreas struct {
	zoneIDs []uuid.UUID
	zone    *models.Zone
}

func (f *fakeAreas) ZoneIDsForAgent(ctx context.Context, agentID uuid.UUID) ([]uuid.UUID, error) {
	return f.zoneIDs, nil
}

func (f *fakeAreas) ResolveZoneForAssignment(ctx context.Context, tx *gorm.DB, assignment *models.Assignment, pincode string) (*models.Zone, error) {
	return f.zone, nil
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fixture struct {
	repo   *fakeRepo
	wallet *fakeWallet
	areas  *fakeAreas
	sink   *fakeOutbox
	svc    Service
}

func newFixture(t *testing.T, recordSalary bool) *fixture {
	t.Helper()

	repo := newFakeRepo()
	walletSvc := newFakeWallet()
	areasSvc := &fakeAreas{}
	sink := &fakeOutbox{}
	svc, err := NewService(
		repo, fakeTxRunner{}, walletSvc, areasSvc,
		earnings.NewCalculator(recordSalary), sink,
		nil, 0, nil, nil,
	)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return &fixture{repo: repo, wallet: walletSvc, areas: areasSvc, sink: sink, svc: svc}
}

func (f *fixture) seedAssignment(status enums.AssignmentStatus, zoneID uuid.UUID) *models.Assignment {
	tenantID := uuid.New()
	orderID := uuid.New()
	zone := zoneID
	assignment := &models.Assignment{
		ID:        uuid.New(),
		TenantID:  tenantID,
		OrderID:   orderID,
		ZoneID:    &zone,
		Status:    status,
		CreatedAt: time.Now(),
	}
	f.repo.assignments[assignment.ID] = assignment
	f.repo.orders[orderID] = &models.Order{
		ID:              orderID,
		TenantID:        tenantID,
		TotalPaise:      50000,
		DeliveryPincode: "560001",
	}
	return assignment
}

func (f *fixture) seedAgent(assignment *models.Assignment, paymentType enums.AgentPaymentType) *models.DeliveryAgent {
	agent := &models.DeliveryAgent{
		ID:          uuid.New(),
		TenantID:    assignment.TenantID,
		UserID:      uuid.New(),
		Name:        "ravi",
		PaymentType: paymentType,
		Active:      true,
	}
	if paymentType == enums.AgentPaymentTypeFixedPerOrder {
		amount := int64(3000)
		agent.PerOrderAmountPaise = &amount
	}
	f.wallet.agents[agent.ID] = agent
	return agent
}

func TestService_ClaimWins(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	assignment := f.seedAssignment(enums.AssignmentStatusUnassigned, zoneID)
	agent := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)
	f.areas.zoneIDs = []uuid.UUID{zoneID}

	got, err := f.svc.Claim(context.Background(), ClaimInput{
		AssignmentID: assignment.ID,
		TenantID:     assignment.TenantID,
		AgentID:      agent.ID,
		ActorUserID:  agent.UserID,
	})
	if err != nil {
		t.Fatalf("Claim error: %v", err)
	}
	if got.Status != enums.AssignmentStatusAssigned {
		t.Fatalf("expected assigned status, got %s", got.Status)
	}
	if got.AgentID == nil || *got.AgentID != agent.ID {
		t.Fatalf("expected agent %s on assignment, got %v", agent.ID, got.AgentID)
	}
	if got.AssignedAt == nil {
		t.Fatal("expected assigned_at to be set")
	}
	if len(f.repo.logs) != 1 || f.repo.logs[0].NewStatus != enums.AssignmentStatusAssigned {
		t.Fatalf("expected one claim status log, got %+v", f.repo.logs)
	}
	if len(f.sink.events) != 1 || f.sink.events[0].EventType != enums.EventAssignmentClaimed {
		t.Fatalf("expected claim event, got %+v", f.sink.events)
	}
}

func TestService_ClaimLoserGetsConflict(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	assignment := f.seedAssignment(enums.AssignmentStatusUnassigned, zoneID)
	agent := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)
	f.areas.zoneIDs = []uuid.UUID{zoneID}
	f.repo.claimWins = false

	_, err := f.svc.Claim(context.Background(), ClaimInput{
		AssignmentID: assignment.ID,
		TenantID:     assignment.TenantID,
		AgentID:      agent.ID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for losing claimer, got %v", err)
	}
	if len(f.sink.events) != 0 {
		t.Fatalf("losing claim must not emit events, got %d", len(f.sink.events))
	}
}

func TestService_ClaimAlreadyAssigned(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	assignment := f.seedAssignment(enums.AssignmentStatusAssigned, zoneID)
	agent := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)
	f.areas.zoneIDs = []uuid.UUID{zoneID}

	_, err := f.svc.Claim(context.Background(), ClaimInput{
		AssignmentID: assignment.ID,
		TenantID:     assignment.TenantID,
		AgentID:      agent.ID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestService_ClaimOutsideZoneForbidden(t *testing.T) {
	f := newFixture(t, false)
	assignment := f.seedAssignment(enums.AssignmentStatusUnassigned, uuid.New())
	agent := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)
	f.areas.zoneIDs = []uuid.UUID{uuid.New()}

	_, err := f.svc.Claim(context.Background(), ClaimInput{
		AssignmentID: assignment.ID,
		TenantID:     assignment.TenantID,
		AgentID:      agent.ID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestService_ClaimWrongTenant(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	assignment := f.seedAssignment(enums.AssignmentStatusUnassigned, zoneID)
	agent := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)
	f.areas.zoneIDs = []uuid.UUID{zoneID}

	_, err := f.svc.Claim(context.Background(), ClaimInput{
		AssignmentID: assignment.ID,
		TenantID:     uuid.New(),
		AgentID:      agent.ID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for cross-tenant claim, got %v", err)
	}
}

func transitionTo(t *testing.T, f *fixture, assignment *models.Assignment, agent *models.DeliveryAgent, target enums.AssignmentStatus) (*models.Assignment, error) {
	t.Helper()
	return f.svc.Transition(context.Background(), TransitionInput{
		AssignmentID: assignment.ID,
		TenantID:     assignment.TenantID,
		Target:       target,
		Actor:        enums.StatusActorAgent,
		ActorUserID:  agent.UserID,
		AgentID:      agent.ID,
	})
}

func TestService_TransitionDeliveredCreditsWallet(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	assignment := f.seedAssignment(enums.AssignmentStatusOutForDelivery, zoneID)
	agent := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)
	agentID := agent.ID
	f.repo.assignments[assignment.ID].AgentID = &agentID

	got, err := transitionTo(t, f, assignment, agent, enums.AssignmentStatusDelivered)
	if err != nil {
		t.Fatalf("Transition error: %v", err)
	}
	if got.Status != enums.AssignmentStatusDelivered || got.DeliveredAt == nil {
		t.Fatalf("expected delivered with timestamp, got %+v", got)
	}
	if len(f.wallet.credits) != 1 {
		t.Fatalf("expected one wallet credit, got %d", len(f.wallet.credits))
	}
	credit := f.wallet.credits[0]
	if credit.AmountPaise != 3000 || credit.AssignmentID != assignment.ID {
		t.Fatalf("unexpected credit %+v", credit)
	}
	if len(f.sink.events) != 1 || f.sink.events[0].EventType != enums.EventAssignmentDelivered {
		t.Fatalf("expected delivered event, got %+v", f.sink.events)
	}
	if len(f.wallet.invalidated) != 1 || f.wallet.invalidated[0] != agent.ID {
		t.Fatalf("expected balance invalidation for agent, got %v", f.wallet.invalidated)
	}
}

func TestService_TransitionDeliveredUnsetRateEarnsZero(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	assignment := f.seedAssignment(enums.AssignmentStatusOutForDelivery, zoneID)
	agent := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)
	agent.PerOrderAmountPaise = nil
	agentID := agent.ID
	f.repo.assignments[assignment.ID].AgentID = &agentID

	got, err := transitionTo(t, f, assignment, agent, enums.AssignmentStatusDelivered)
	if err != nil {
		t.Fatalf("Transition error: %v", err)
	}
	if got.Status != enums.AssignmentStatusDelivered {
		t.Fatalf("expected delivered, got %s", got.Status)
	}
	if len(f.wallet.credits) != 1 || f.wallet.credits[0].AmountPaise != 0 {
		t.Fatalf("expected one zero-amount credit, got %+v", f.wallet.credits)
	}
}

func TestService_TransitionSalaryAgentNoCredit(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	assignment := f.seedAssignment(enums.AssignmentStatusOutForDelivery, zoneID)
	agent := f.seedAgent(assignment, enums.AgentPaymentTypeMonthlySalary)
	agentID := agent.ID
	f.repo.assignments[assignment.ID].AgentID = &agentID

	_, err := transitionTo(t, f, assignment, agent, enums.AssignmentStatusDelivered)
	if err != nil {
		t.Fatalf("Transition error: %v", err)
	}
	if len(f.wallet.credits) != 0 {
		t.Fatalf("salary agent should not be credited per delivery, got %+v", f.wallet.credits)
	}
	if len(f.sink.events) != 1 || f.sink.events[0].EventType != enums.EventAssignmentDelivered {
		t.Fatalf("expected delivered event, got %+v", f.sink.events)
	}
}

func TestService_TransitionIllegalEdge(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	assignment := f.seedAssignment(enums.AssignmentStatusAssigned, zoneID)
	agent := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)
	agentID := agent.ID
	f.repo.assignments[assignment.ID].AgentID = &agentID

	_, err := transitionTo(t, f, assignment, agent, enums.AssignmentStatusDelivered)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for assigned -> delivered, got %v", err)
	}
}

func TestService_TransitionTerminalAbsorbs(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	assignment := f.seedAssignment(enums.AssignmentStatusDelivered, zoneID)
	agent := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)
	agentID := agent.ID
	f.repo.assignments[assignment.ID].AgentID = &agentID

	_, err := transitionTo(t, f, assignment, agent, enums.AssignmentStatusFailed)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict from terminal state, got %v", err)
	}
}

func TestService_TransitionOtherAgentsAssignment(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	assignment := f.seedAssignment(enums.AssignmentStatusAssigned, zoneID)
	owner := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)
	ownerID := owner.ID
	f.repo.assignments[assignment.ID].AgentID = &ownerID
	intruder := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)

	_, err := transitionTo(t, f, assignment, intruder, enums.AssignmentStatusPickedUp)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestService_TransitionConcurrentChange(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	assignment := f.seedAssignment(enums.AssignmentStatusAssigned, zoneID)
	agent := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)
	agentID := agent.ID
	f.repo.assignments[assignment.ID].AgentID = &agentID
	f.repo.updateWins = false

	_, err := transitionTo(t, f, assignment, agent, enums.AssignmentStatusPickedUp)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for concurrent change, got %v", err)
	}
}

func TestService_TransitionDeliveredRetryDoesNotDoublePay(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	assignment := f.seedAssignment(enums.AssignmentStatusOutForDelivery, zoneID)
	agent := f.seedAgent(assignment, enums.AgentPaymentTypeFixedPerOrder)
	agentID := agent.ID
	f.repo.assignments[assignment.ID].AgentID = &agentID

	if _, err := transitionTo(t, f, assignment, agent, enums.AssignmentStatusDelivered); err != nil {
		t.Fatalf("first delivery error: %v", err)
	}

	// a retried delivery hits the terminal guard before any credit
	_, err := transitionTo(t, f, assignment, agent, enums.AssignmentStatusDelivered)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on retry, got %v", err)
	}
	if len(f.wallet.credits) != 1 {
		t.Fatalf("expected exactly one credit, got %d", len(f.wallet.credits))
	}
}

func TestService_CreateForOrderResolvesZone(t *testing.T) {
	f := newFixture(t, false)
	orderID := uuid.New()
	tenantID := uuid.New()
	f.repo.orders[orderID] = &models.Order{
		ID:              orderID,
		TenantID:        tenantID,
		TotalPaise:      50000,
		DeliveryPincode: "560001",
	}
	zone := &models.Zone{ID: uuid.New(), TenantID: tenantID, Name: "north"}
	f.areas.zone = zone

	created, err := f.svc.CreateForOrder(context.Background(), orderID)
	if err != nil {
		t.Fatalf("CreateForOrder error: %v", err)
	}
	if created.Status != enums.AssignmentStatusUnassigned {
		t.Fatalf("expected unassigned, got %s", created.Status)
	}
	if created.ZoneID == nil || *created.ZoneID != zone.ID {
		t.Fatalf("expected zone %s, got %v", zone.ID, created.ZoneID)
	}
}

func TestService_CreateForOrderUnknownOrder(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.CreateForOrder(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_ListVisibleFiltersZones(t *testing.T) {
	f := newFixture(t, false)
	zoneID := uuid.New()
	inZone := f.seedAssignment(enums.AssignmentStatusUnassigned, zoneID)
	f.seedAssignment(enums.AssignmentStatusUnassigned, uuid.New())
	agent := f.seedAgent(inZone, enums.AgentPaymentTypeFixedPerOrder)
	f.areas.zoneIDs = []uuid.UUID{zoneID}

	rows, next, err := f.svc.ListVisible(context.Background(), ListInput{
		TenantID: inZone.TenantID,
		AgentID:  agent.ID,
	})
	if err != nil {
		t.Fatalf("ListVisible error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != inZone.ID {
		t.Fatalf("expected only the in-zone assignment, got %+v", rows)
	}
	if next != "" {
		t.Fatalf("expected no next cursor, got %q", next)
	}
}

func TestService_ListVisibleNoZones(t *testing.T) {
	f := newFixture(t, false)

	rows, _, err := f.svc.ListVisible(context.Background(), ListInput{
		TenantID: uuid.New(),
		AgentID:  uuid.New(),
	})
	if err != nil {
		t.Fatalf("ListVisible error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("agent without zones should see nothing, got %+v", rows)
	}
}
