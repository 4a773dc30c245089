package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storekart/storekart-backend/internal/assignments"
	"github.com/storekart/storekart-backend/internal/payouts"
	"github.com/storekart/storekart-backend/internal/wallet"
	pkgAuth "github.com/storekart/storekart-backend/pkg/auth"
	"github.com/storekart/storekart-backend/pkg/config"
	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/enums"
	"github.com/storekart/storekart-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAssignmentsService struct{}

func (stubAssignmentsService) CreateForOrder(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error) {
	return &models.Assignment{ID: uuid.New(), OrderID: orderID}, nil
}

func (stubAssignmentsService) ListVisible(ctx context.Context, input assignments.ListInput) ([]models.Assignment, string, error) {
	return nil, "", nil
}

func (stubAssignmentsService) ListMine(ctx context.Context, input assignments.ListInput) ([]models.Assignment, string, error) {
	return nil, "", nil
}

func (stubAssignmentsService) Claim(ctx context.Context, input assignments.ClaimInput) (*models.Assignment, error) {
	return &models.Assignment{ID: input.AssignmentID}, nil
}

func (stubAssignmentsService) Transition(ctx context.Context, input assignments.TransitionInput) (*models.Assignment, error) {
	return &models.Assignment{ID: input.AssignmentID, Status: input.Target}, nil
}

type stubWalletService struct{}

func (stubWalletService) Credit(ctx context.Context, tx *gorm.DB, input wallet.CreditInput) (bool, error) {
	return false, nil
}

func (stubWalletService) Balance(ctx context.Context, agentID uuid.UUID) (*wallet.BalanceView, error) {
	return &wallet.BalanceView{AgentID: agentID}, nil
}

func (stubWalletService) History(ctx context.Context, agentID uuid.UUID, params pagination.Params) ([]models.Earning, string, error) {
	return nil, "", nil
}

func (stubWalletService) Agent(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) (*models.DeliveryAgent, error) {
	return nil, nil
}

func (stubWalletService) AgentForUser(ctx context.Context, userID uuid.UUID) (*models.DeliveryAgent, error) {
	return nil, nil
}

func (stubWalletService) InvalidateBalance(ctx context.Context, agentID uuid.UUID) {}

type stubPayoutsService struct{}

func (stubPayoutsService) RequestPayout(ctx context.Context, input payouts.RequestInput) (*models.PayoutRequest, error) {
	return &models.PayoutRequest{ID: uuid.New()}, nil
}

func (stubPayoutsService) Approve(ctx context.Context, input payouts.DecisionInput) (*models.PayoutRequest, error) {
	return &models.PayoutRequest{ID: input.RequestID}, nil
}

func (stubPayoutsService) Reject(ctx context.Context, input payouts.DecisionInput) (*models.PayoutRequest, error) {
	return &models.PayoutRequest{ID: input.RequestID}, nil
}

func (stubPayoutsService) MarkPaid(ctx context.Context, input payouts.SettleInput) (*models.Payout, error) {
	return &models.Payout{ID: uuid.New()}, nil
}

func (stubPayoutsService) ListForTenant(ctx context.Context, tenantID uuid.UUID, status *enums.PayoutRequestStatus, params pagination.Params) ([]models.PayoutRequest, string, error) {
	return nil, "", nil
}

func (stubPayoutsService) ListForAgent(ctx context.Context, agentID uuid.UUID, params pagination.Params) ([]models.PayoutRequest, string, error) {
	return nil, "", nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "storekart-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	return NewRouter(cfg, nil, stubPinger{}, stubPinger{}, nil,
		stubAssignmentsService{}, stubWalletService{}, stubPayoutsService{})
}

func mintToken(t *testing.T, cfg *config.Config, role enums.MemberRole, agentID *uuid.UUID) string {
	t.Helper()

	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		AgentID:  agentID,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAgentRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agent/assignments/queue", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAgentRoutesRejectAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agent/assignments/queue", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.MemberRoleAdmin, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAgentQueueWithAgentToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	agentID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agent/assignments/queue", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.MemberRoleAgent, &agentID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminRoutesRejectAgentRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	agentID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/payouts/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.MemberRoleAgent, &agentID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAdminPayoutListWithAdminToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/payouts/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.MemberRoleAdmin, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}
