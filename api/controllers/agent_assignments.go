package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storekart/storekart-backend/api/responses"
	"github.com/storekart/storekart-backend/api/validators"
	"github.com/storekart/storekart-backend/internal/assignments"
	"github.com/storekart/storekart-backend/pkg/db/models"
	"github.com/storekart/storekart-backend/pkg/enums"
	pkgerrors "github.com/storekart/storekart-backend/pkg/errors"
	"github.com/storekart/storekart-backend/pkg/logger"
	"github.com/storekart/storekart-backend/pkg/pagination"
)

type assignmentListResponse struct {
	Assignments []models.Assignment `json:"assignments"`
	NextCursor  string              `json:"next_cursor,omitempty"`
}

type updateAssignmentStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes" validate:"omitempty,max=500"`
}

// AgentAssignmentQueue returns the unassigned assignments an agent can claim
// across the zones they cover.
func AgentAssignmentQueue(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		identity, err := agentIdentityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListVisible(r.Context(), assignments.ListInput{
			TenantID: identity.TenantID,
			AgentID:  identity.AgentID,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, assignmentListResponse{Assignments: rows, NextCursor: next})
	}
}

// AgentAssignments returns the assignments currently or previously held by the agent.
func AgentAssignments(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		identity, err := agentIdentityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListMine(r.Context(), assignments.ListInput{
			TenantID: identity.TenantID,
			AgentID:  identity.AgentID,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, assignmentListResponse{Assignments: rows, NextCursor: next})
	}
}

// AgentClaimAssignment lets an agent take an unassigned assignment. Exactly one
// concurrent claimer wins; everyone else gets a conflict.
func AgentClaimAssignment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		identity, err := agentIdentityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignmentID, err := parseUUIDParam(strings.TrimSpace(chi.URLParam(r, "assignmentId")), "assignment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claimed, err := svc.Claim(r.Context(), assignments.ClaimInput{
			AssignmentID: assignmentID,
			TenantID:     identity.TenantID,
			AgentID:      identity.AgentID,
			ActorUserID:  identity.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, claimed)
	}
}

// AgentUpdateAssignmentStatus drives an assignment through the delivery
// lifecycle (picked_up, out_for_delivery, delivered, failed, returned).
func AgentUpdateAssignmentStatus(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		identity, err := agentIdentityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignmentID, err := parseUUIDParam(strings.TrimSpace(chi.URLParam(r, "assignmentId")), "assignment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateAssignmentStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseAssignmentStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.Transition(r.Context(), assignments.TransitionInput{
			AssignmentID: assignmentID,
			TenantID:     identity.TenantID,
			Target:       target,
			Notes:        req.Notes,
			Actor:        enums.StatusActorAgent,
			ActorUserID:  identity.UserID,
			AgentID:      identity.AgentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}
