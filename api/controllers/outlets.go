package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kwabenadarko/outlethub-backend/api/responses"
	"github.com/kwabenadarko/outlethub-backend/api/validators"
	"github.com/kwabenadarko/outlethub-backend/internal/outlets"
	pkgerrors "github.com/kwabenadarko/outlethub-backend/pkg/errors"
	"github.com/kwabenadarko/outlethub-backend/pkg/logger"
)

func parseOutletID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "outletId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "outlet id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid outlet id")
	}
	return id, nil
}

func outletActor(r *http.Request) (outlets.Actor, error) {
	userID, role, err := requestUser(r)
	if err != nil {
		return outlets.Actor{}, err
	}
	return outlets.Actor{UserID: userID, Role: role}, nil
}

// CreateOutlet registers a storefront for an outlet-role user.
func CreateOutlet(svc outlets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "outlet service unavailable"))
			return
		}

		actor, err := outletActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body outlets.CreateOutletInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outlet, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, outlet)
	}
}

// GetOwnOutlet returns the caller's storefront.
func GetOwnOutlet(svc outlets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "outlet service unavailable"))
			return
		}

		actor, err := outletActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outlet, err := svc.GetOwn(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outlet)
	}
}

// UpdateOutlet applies a partial update. Owners may edit their own outlet,
// admins any outlet.
func UpdateOutlet(svc outlets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "outlet service unavailable"))
			return
		}

		actor, err := outletActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outletID, err := parseOutletID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body outlets.UpdateOutletInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outlet, err := svc.Update(r.Context(), actor, outletID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outlet)
	}
}

// GetOutlet resolves a public outlet by id.
func GetOutlet(svc outlets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "outlet service unavailable"))
			return
		}

		outletID, err := parseOutletID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outlet, err := svc.GetByID(r.Context(), outletID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outlet)
	}
}

// GetOutletBySlug resolves a public outlet by its URL slug.
func GetOutletBySlug(svc outlets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "outlet service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug is required"))
			return
		}

		outlet, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outlet)
	}
}

// ListOutlets returns a page of outlets using limit/offset.
func ListOutlets(svc outlets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "outlet service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

type setVerifiedRequest struct {
	Verified bool `json:"verified"`
}

// AdminVerifyOutlet flips the verified badge on an outlet.
func AdminVerifyOutlet(svc outlets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "outlet service unavailable"))
			return
		}

		actor, err := outletActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outletID, err := parseOutletID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setVerifiedRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetVerified(r.Context(), actor, outletID, body.Verified); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// AdminDeleteOutlet removes an outlet together with its catalog.
func AdminDeleteOutlet(svc outlets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "outlet service unavailable"))
			return
		}

		actor, err := outletActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outletID, err := parseOutletID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, outletID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
