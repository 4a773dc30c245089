package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storekart/storekart-backend/api/middleware"
	"github.com/storekart/storekart-backend/internal/assignments"
	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/enums"
	pkgerrors "github.com/storekart/storekart-backend/pkg/errors"
)

type stubAssignmentsService struct {
	createFn      func(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error)
	listVisibleFn func(ctx context.Context, input assignments.ListInput) ([]models.Assignment, string, error)
	listMineFn    func(ctx context.Context, input assignments.ListInput) ([]models.Assignment, string, error)
	claimFn       func(ctx context.Context, input assignments.ClaimInput) (*models.Assignment, error)
	transitionFn  func(ctx context.Context, input assignments.TransitionInput) (*models.Assignment, error)
}

func (s stubAssignmentsService) CreateForOrder(ctx context.Context, orderID uuid.UUID) (*models.Assignment, error) {
	if s.createFn != nil {
		return s.createFn(ctx, orderID)
	}
	return nil, nil
}

func (s stubAssignmentsService) ListVisible(ctx context.Context, input assignments.ListInput) ([]models.Assignment, string, error) {
	if s.listVisibleFn != nil {
		return s.listVisibleFn(ctx, input)
	}
	return nil, "", nil
}

func (s stubAssignmentsService) ListMine(ctx context.Context, input assignments.ListInput) ([]models.Assignment, string, error) {
	if s.listMineFn != nil {
		return s.listMineFn(ctx, input)
	}
	return nil, "", nil
}

func (s stubAssignmentsService) Claim(ctx context.Context, input assignments.ClaimInput) (*models.Assignment, error) {
	if s.claimFn != nil {
		return s.claimFn(ctx, input)
	}
	return nil, nil
}

func (s stubAssignmentsService) Transition(ctx context.Context, input assignments.TransitionInput) (*models.Assignment, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, input)
	}
	return nil, nil
}

type testActor struct {
	userID   uuid.UUID
	tenantID uuid.UUID
	agentID  uuid.UUID
}

func newTestActor() testActor {
	return testActor{userID: uuid.New(), tenantID: uuid.New(), agentID: uuid.New()}
}

func withActor(r *http.Request, actor testActor) *http.Request {
	ctx := middleware.WithUserID(r.Context(), actor.userID.String())
	ctx = middleware.WithTenantID(ctx, actor.tenantID.String())
	if actor.agentID != uuid.Nil {
		ctx = middleware.WithAgentID(ctx, actor.agentID.String())
	}
	return r.WithContext(ctx)
}

func withAssignmentID(r *http.Request, id uuid.UUID) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("assignmentId", id.String())
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}

func TestAgentAssignmentQueue(t *testing.T) {
	actor := newTestActor()
	assignmentID := uuid.New()

	svc := stubAssignmentsService{
		listVisibleFn: func(ctx context.Context, input assignments.ListInput) ([]models.Assignment, string, error) {
			if input.TenantID != actor.tenantID || input.AgentID != actor.agentID {
				t.Fatalf("unexpected list input %+v", input)
			}
			if input.Limit != 5 {
				t.Fatalf("unexpected limit %d", input.Limit)
			}
			return []models.Assignment{{ID: assignmentID, Status: enums.AssignmentStatusUnassigned}}, "next-token", nil
		},
	}

	handler := AgentAssignmentQueue(svc, nil)
	req := withActor(httptest.NewRequest(http.MethodGet, "/?limit=5", nil), actor)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data assignmentListResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Assignments) != 1 || envelope.Data.Assignments[0].ID != assignmentID {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
	if envelope.Data.NextCursor != "next-token" {
		t.Fatalf("unexpected cursor %q", envelope.Data.NextCursor)
	}
}

func TestAgentAssignmentQueue_MissingAgentContext(t *testing.T) {
	actor := newTestActor()
	actor.agentID = uuid.Nil

	handler := AgentAssignmentQueue(stubAssignmentsService{}, nil)
	req := withActor(httptest.NewRequest(http.MethodGet, "/", nil), actor)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAgentClaimAssignment(t *testing.T) {
	actor := newTestActor()
	assignmentID := uuid.New()

	svc := stubAssignmentsService{
		claimFn: func(ctx context.Context, input assignments.ClaimInput) (*models.Assignment, error) {
			if input.AssignmentID != assignmentID {
				t.Fatalf("unexpected assignment id %s", input.AssignmentID)
			}
			if input.AgentID != actor.agentID || input.ActorUserID != actor.userID {
				t.Fatalf("unexpected claim input %+v", input)
			}
			agentID := input.AgentID
			return &models.Assignment{ID: assignmentID, Status: enums.AssignmentStatusAssigned, AgentID: &agentID}, nil
		},
	}

	handler := AgentClaimAssignment(svc, nil)
	req := withAssignmentID(withActor(httptest.NewRequest(http.MethodPost, "/", nil), actor), assignmentID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data models.Assignment `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.AssignmentStatusAssigned {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}

func TestAgentClaimAssignment_Conflict(t *testing.T) {
	actor := newTestActor()
	assignmentID := uuid.New()

	svc := stubAssignmentsService{
		claimFn: func(ctx context.Context, input assignments.ClaimInput) (*models.Assignment, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "assignment already claimed")
		},
	}

	handler := AgentClaimAssignment(svc, nil)
	req := withAssignmentID(withActor(httptest.NewRequest(http.MethodPost, "/", nil), actor), assignmentID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAgentUpdateAssignmentStatus(t *testing.T) {
	actor := newTestActor()
	assignmentID := uuid.New()

	svc := stubAssignmentsService{
		transitionFn: func(ctx context.Context, input assignments.TransitionInput) (*models.Assignment, error) {
			if input.Target != enums.AssignmentStatusPickedUp {
				t.Fatalf("unexpected target %s", input.Target)
			}
			if input.Actor != enums.StatusActorAgent {
				t.Fatalf("unexpected actor %s", input.Actor)
			}
			return &models.Assignment{ID: assignmentID, Status: input.Target}, nil
		},
	}

	handler := AgentUpdateAssignmentStatus(svc, nil)
	body := strings.NewReader(`{"status":"picked_up"}`)
	req := withAssignmentID(withActor(httptest.NewRequest(http.MethodPost, "/", body), actor), assignmentID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAgentUpdateAssignmentStatus_UnknownStatus(t *testing.T) {
	actor := newTestActor()
	assignmentID := uuid.New()

	handler := AgentUpdateAssignmentStatus(stubAssignmentsService{}, nil)
	body := strings.NewReader(`{"status":"teleported"}`)
	req := withAssignmentID(withActor(httptest.NewRequest(http.MethodPost, "/", body), actor), assignmentID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
