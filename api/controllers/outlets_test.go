package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/kwabenadarko/outlethub-backend/internal/outlets"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	pkgerrors "github.com/kwabenadarko/outlethub-backend/pkg/errors"
)

type stubOutletService struct {
	outlet *outlets.OutletDTO
	list   *outlets.ListResult
	err    error

	lastVerified *bool
	deleted      []uuid.UUID
}

func (s *stubOutletService) Create(_ context.Context, _ outlets.Actor, _ outlets.CreateOutletInput) (*outlets.OutletDTO, error) {
	return s.outlet, s.err
}

func (s *stubOutletService) GetByID(_ context.Context, _ uuid.UUID) (*outlets.OutletDTO, error) {
	return s.outlet, s.err
}

func (s *stubOutletService) GetBySlug(_ context.Context, _ string) (*outlets.OutletDTO, error) {
	return s.outlet, s.err
}

func (s *stubOutletService) GetOwn(_ context.Context, _ outlets.Actor) (*outlets.OutletDTO, error) {
	return s.outlet, s.err
}

func (s *stubOutletService) List(_ context.Context, _, _ int) (*outlets.ListResult, error) {
	return s.list, s.err
}

func (s *stubOutletService) Update(_ context.Context, _ outlets.Actor, _ uuid.UUID, _ outlets.UpdateOutletInput) (*outlets.OutletDTO, error) {
	return s.outlet, s.err
}

func (s *stubOutletService) SetVerified(_ context.Context, _ outlets.Actor, _ uuid.UUID, verified bool) error {
	s.lastVerified = &verified
	return s.err
}

func (s *stubOutletService) Delete(_ context.Context, _ outlets.Actor, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return s.err
}

func TestCreateOutletSuccess(t *testing.T) {
	svc := &stubOutletService{outlet: &outlets.OutletDTO{ID: uuid.New(), Name: "Accra Gadgets", Slug: "accra-gadgets"}}
	handler := CreateOutlet(svc, nil)

	body := []byte(`{"name":"Accra Gadgets"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/outlets", bytes.NewReader(body))
	req = withActor(req, uuid.New(), enums.UserRoleOutlet, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data outlets.OutletDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Slug != "accra-gadgets" {
		t.Fatalf("expected slug in payload, got %q", envelope.Data.Slug)
	}
}

func TestCreateOutletDuplicate(t *testing.T) {
	svc := &stubOutletService{err: pkgerrors.New(pkgerrors.CodeConflict, "outlet already exists for this account")}
	handler := CreateOutlet(svc, nil)

	body := []byte(`{"name":"Accra Gadgets"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/outlets", bytes.NewReader(body))
	req = withActor(req, uuid.New(), enums.UserRoleOutlet, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestGetOutletBySlug(t *testing.T) {
	svc := &stubOutletService{outlet: &outlets.OutletDTO{ID: uuid.New(), Slug: "accra-gadgets"}}
	handler := GetOutletBySlug(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/outlets/slug/accra-gadgets", nil)
	req = withURLParam(req, "slug", "accra-gadgets")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestGetOutletBySlugMissing(t *testing.T) {
	handler := GetOutletBySlug(&stubOutletService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/outlets/slug/", nil)
	req = withURLParam(req, "slug", "")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminVerifyOutletForwardsFlag(t *testing.T) {
	outletID := uuid.New()
	svc := &stubOutletService{}
	handler := AdminVerifyOutlet(svc, nil)

	body := []byte(`{"verified":true}`)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/v1/outlets/"+outletID.String()+"/verify", bytes.NewReader(body))
	req = withURLParam(req, "outletId", outletID.String())
	req = withActor(req, uuid.New(), enums.UserRoleAdmin, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastVerified == nil || !*svc.lastVerified {
		t.Fatalf("expected verified=true forwarded to service")
	}
}

func TestAdminDeleteOutlet(t *testing.T) {
	outletID := uuid.New()
	svc := &stubOutletService{}
	handler := AdminDeleteOutlet(svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/v1/outlets/"+outletID.String(), nil)
	req = withURLParam(req, "outletId", outletID.String())
	req = withActor(req, uuid.New(), enums.UserRoleAdmin, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != outletID {
		t.Fatalf("expected delete forwarded with outlet id")
	}
}
