package controllers

import (
	"net/http"
	"strings"

	"github.com/storekart/storekart-backend/api/responses"
	"github.com/storekart/storekart-backend/api/validators"
	"github.com/storekart/storekart-backend/internal/payouts"
	"github.com/storekart/storekart-backend/pkg/db/models"
	pkgerrors "github.com/storekart/storekart-backend/pkg/errors"
	"github.com/storekart/storekart-backend/pkg/logger"
	"github.com/storekart/storekart-backend/pkg/pagination"
)

type requestPayoutRequest struct {
	AmountPaise int64 `json:"amount_paise" validate:"required,gt=0"`
}

type payoutRequestListResponse struct {
	Requests   []models.PayoutRequest `json:"requests"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

// AgentRequestPayout opens a withdrawal request against the agent's wallet balance.
func AgentRequestPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		identity, err := agentIdentityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req requestPayoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.RequestPayout(r.Context(), payouts.RequestInput{
			TenantID:    identity.TenantID,
			AgentID:     identity.AgentID,
			ActorUserID: identity.UserID,
			AmountPaise: req.AmountPaise,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AgentPayoutRequests lists the agent's own payout requests, newest first.
func AgentPayoutRequests(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
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

		rows, next, err := svc.ListForAgent(r.Context(), identity.AgentID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payoutRequestListResponse{Requests: rows, NextCursor: next})
	}
}
