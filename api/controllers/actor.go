package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kwabenadarko/outlethub-backend/api/middleware"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	pkgerrors "github.com/kwabenadarko/outlethub-backend/pkg/errors"
)

// requestUser extracts the authenticated user id and role placed on the
// request context by the auth middleware.
func requestUser(r *http.Request) (uuid.UUID, enums.UserRole, error) {
	rawID := middleware.UserIDFromContext(r.Context())
	if rawID == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}
	return userID, role, nil
}

// requestOutletID returns the caller's outlet id when one is attached to the
// session. Customers and admins have none.
func requestOutletID(r *http.Request) (*uuid.UUID, error) {
	raw := middleware.OutletIDFromContext(r.Context())
	if raw == "" {
		return nil, nil
	}
	outletID, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid outlet id")
	}
	return &outletID, nil
}
