package controllers

import (
	"net/http"

	"github.com/storekart/storekart-backend/api/responses"
	"github.com/storekart/storekart-backend/api/validators"
	"github.com/storekart/storekart-backend/internal/assignments"
	pkgerrors "github.com/storekart/storekart-backend/pkg/errors"
	"github.com/storekart/storekart-backend/pkg/logger"
)

type createAssignmentRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid4"`
}

// AdminCreateAssignment opens a delivery assignment for an order projection.
// Normally assignments are created when checkout publishes the order, so this
// route exists for backfills and manual intervention.
func AdminCreateAssignment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		identity, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createAssignmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseUUIDParam(req.OrderID, "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Orders live under the admin's tenant; do not reveal other tenants' ids.
		if created.TenantID != identity.TenantID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}
