package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/storekart/storekart-backend/api/middleware"
	pkgerrors "github.com/storekart/storekart-backend/pkg/errors"
)

// actorIdentity is the resolved token context every authenticated handler needs.
type actorIdentity struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	AgentID  uuid.UUID
}

func identityFromRequest(r *http.Request) (*actorIdentity, error) {
	rawUser := middleware.UserIDFromContext(r.Context())
	if rawUser == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}

	rawTenant := middleware.TenantIDFromContext(r.Context())
	if rawTenant == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	tenantID, err := uuid.Parse(rawTenant)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tenant id")
	}

	identity := &actorIdentity{UserID: userID, TenantID: tenantID}
	if rawAgent := middleware.AgentIDFromContext(r.Context()); rawAgent != "" {
		agentID, err := uuid.Parse(rawAgent)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid agent id")
		}
		identity.AgentID = agentID
	}
	return identity, nil
}

// agentIdentityFromRequest additionally requires the agent claim that only
// agent tokens carry.
func agentIdentityFromRequest(r *http.Request) (*actorIdentity, error) {
	identity, err := identityFromRequest(r)
	if err != nil {
		return nil, err
	}
	if identity.AgentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "agent context missing")
	}
	return identity, nil
}

func parseUUIDParam(raw, field string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return id, nil
}
