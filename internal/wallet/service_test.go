package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/enums"
	pkgerrors "github.com/storekart/storekart-backend/pkg/errors"
	"github.com/storekart/storekart-backend/pkg/pagination"
)

type fakeRepository struct {
	agents       map[uuid.UUID]*models.DeliveryAgent
	earnings     []models.Earning
	createErr    error
	deltaApplied []int64
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{agents: map[uuid.UUID]*models.DeliveryAgent{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) FindAgent(ctx context.Context, agentID uuid.UUID) (*models.DeliveryAgent, error) {
	if agent, ok := f.agents[agentID]; ok {
		return agent, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindAgentByUserID(ctx context.Context, userID uuid.UUID) (*models.DeliveryAgent, error) {
	for _, agent := range f.agents {
		if agent.UserID == userID {
			return agent, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateEarning(ctx context.Context, earning *models.Earning) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.earnings {
		if existing.AssignmentID != nil && earning.AssignmentID != nil &&
			*existing.AssignmentID == *earning.AssignmentID {
			return errors.New("duplicate key value violates unique constraint \"ux_earnings_assignment_id\"")
		}
	}
	earning.ID = uuid.New()
	earning.CreatedAt = time.Now()
	f.earnings = append(f.earnings, *earning)
	return nil
}

func (f *fakeRepository) ApplyEarningDelta(ctx context.Context, agentID uuid.UUID, amountPaise int64) error {
	agent, ok := f.agents[agentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	agent.WalletBalancePaise += amountPaise
	agent.TotalEarnedPaise += amountPaise
	f.deltaApplied = append(f.deltaApplied, amountPaise)
	return nil
}

func (f *fakeRepository) ListEarnings(ctx context.Context, agentID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Earning, error) {
	var out []models.Earning
	for _, e := range f.earnings {
		if e.AgentID == agentID {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func seedAgent(repo *fakeRepository) *models.DeliveryAgent {
	agent := &models.DeliveryAgent{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Name:        "ravi",
		PaymentType: enums.AgentPaymentTypeFixedPerOrder,
	}
	repo.agents[agent.ID] = agent
	return agent
}

func TestService_CreditMovesBalanceAndLedger(t *testing.T) {
	repo := newFakeRepository()
	agent := seedAgent(repo)
	svc, err := NewService(repo, nil, 0, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	credited, err := svc.Credit(context.Background(), &gorm.DB{}, CreditInput{
		TenantID:     agent.TenantID,
		AgentID:      agent.ID,
		AssignmentID: uuid.New(),
		AmountPaise:  3000,
		Type:         enums.EarningTypeDelivery,
	})
	if err != nil {
		t.Fatalf("Credit error: %v", err)
	}
	if !credited {
		t.Fatal("expected credit to apply")
	}
	if agent.WalletBalancePaise != 3000 || agent.TotalEarnedPaise != 3000 {
		t.Fatalf("balance not moved: %+v", agent)
	}
	if len(repo.earnings) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(repo.earnings))
	}
}

func TestService_CreditIsIdempotentPerAssignment(t *testing.T) {
	repo := newFakeRepository()
	agent := seedAgent(repo)
	svc, err := NewService(repo, nil, 0, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	assignmentID := uuid.New()
	input := CreditInput{
		TenantID:     agent.TenantID,
		AgentID:      agent.ID,
		AssignmentID: assignmentID,
		AmountPaise:  3000,
		Type:         enums.EarningTypeDelivery,
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.Credit(context.Background(), &gorm.DB{}, input); err != nil {
			t.Fatalf("Credit attempt %d error: %v", i+1, err)
		}
	}

	if agent.WalletBalancePaise != 3000 || agent.TotalEarnedPaise != 3000 {
		t.Fatalf("duplicate credit moved the balance twice: %+v", agent)
	}
	if len(repo.earnings) != 1 {
		t.Fatalf("expected one ledger row after retry, got %d", len(repo.earnings))
	}
	if len(repo.deltaApplied) != 1 {
		t.Fatalf("expected one delta, got %d", len(repo.deltaApplied))
	}
}

func TestService_CreditZeroAmountSkipsDelta(t *testing.T) {
	repo := newFakeRepository()
	agent := seedAgent(repo)
	svc, err := NewService(repo, nil, 0, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	credited, err := svc.Credit(context.Background(), &gorm.DB{}, CreditInput{
		TenantID:     agent.TenantID,
		AgentID:      agent.ID,
		AssignmentID: uuid.New(),
		AmountPaise:  0,
		Type:         enums.EarningTypeSalaryAccrual,
	})
	if err != nil {
		t.Fatalf("Credit error: %v", err)
	}
	if !credited {
		t.Fatal("expected ledger row to be written")
	}
	if agent.WalletBalancePaise != 0 || len(repo.deltaApplied) != 0 {
		t.Fatalf("zero credit should not touch the balance: %+v", agent)
	}
}

func TestService_CreditValidation(t *testing.T) {
	repo := newFakeRepository()
	agent := seedAgent(repo)
	svc, err := NewService(repo, nil, 0, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name  string
		tx    *gorm.DB
		input CreditInput
	}{
		{
			name: "missing transaction",
			tx:   nil,
			input: CreditInput{
				AgentID:      agent.ID,
				AssignmentID: uuid.New(),
				AmountPaise:  100,
				Type:         enums.EarningTypeDelivery,
			},
		},
		{
			name: "missing agent id",
			tx:   &gorm.DB{},
			input: CreditInput{
				AssignmentID: uuid.New(),
				AmountPaise:  100,
				Type:         enums.EarningTypeDelivery,
			},
		},
		{
			name: "negative amount",
			tx:   &gorm.DB{},
			input: CreditInput{
				AgentID:      agent.ID,
				AssignmentID: uuid.New(),
				AmountPaise:  -1,
				Type:         enums.EarningTypeDelivery,
			},
		},
		{
			name: "invalid earning type",
			tx:   &gorm.DB{},
			input: CreditInput{
				AgentID:      agent.ID,
				AssignmentID: uuid.New(),
				AmountPaise:  100,
				Type:         enums.EarningType("tips"),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Credit(context.Background(), tc.tx, tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_BalanceUnknownAgent(t *testing.T) {
	svc, err := NewService(newFakeRepository(), nil, 0, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	_, err = svc.Balance(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_BalanceReflectsInvariant(t *testing.T) {
	repo := newFakeRepository()
	agent := seedAgent(repo)
	agent.TotalEarnedPaise = 10000
	agent.TotalPaidPaise = 4000
	agent.WalletBalancePaise = 6000

	svc, err := NewService(repo, nil, 0, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	view, err := svc.Balance(context.Background(), agent.ID)
	if err != nil {
		t.Fatalf("Balance error: %v", err)
	}
	if view.WalletBalancePaise != view.TotalEarnedPaise-view.TotalPaidPaise {
		t.Fatalf("balance does not equal earned minus paid: %+v", view)
	}
}
