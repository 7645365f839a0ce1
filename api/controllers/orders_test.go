package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	ordersvc "github.com/kwabenadarko/outlethub-backend/internal/orders"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	pkgerrors "github.com/kwabenadarko/outlethub-backend/pkg/errors"
	"github.com/kwabenadarko/outlethub-backend/pkg/pagination"
)

type stubOrderService struct {
	createResult *ordersvc.CreateOrderResult
	order        *ordersvc.OrderDTO
	list         *ordersvc.OrderList
	err          error

	lastActor   ordersvc.Actor
	lastFilters ordersvc.OrderListFilters
	lastStatus  string
	lastRef     string
}

func (s *stubOrderService) Create(_ context.Context, actor ordersvc.Actor, _ ordersvc.CreateOrderInput) (*ordersvc.CreateOrderResult, error) {
	s.lastActor = actor
	return s.createResult, s.err
}

func (s *stubOrderService) ConfirmPayment(_ context.Context, reference string) (*ordersvc.OrderDTO, error) {
	s.lastRef = reference
	return s.order, s.err
}

func (s *stubOrderService) VerifyPayment(_ context.Context, reference string) (*ordersvc.OrderDTO, error) {
	s.lastRef = reference
	return s.order, s.err
}

func (s *stubOrderService) UpdateStatus(_ context.Context, actor ordersvc.Actor, _ uuid.UUID, next string) (*ordersvc.OrderDTO, error) {
	s.lastActor = actor
	s.lastStatus = next
	return s.order, s.err
}

func (s *stubOrderService) GetByID(_ context.Context, actor ordersvc.Actor, _ uuid.UUID) (*ordersvc.OrderDTO, error) {
	s.lastActor = actor
	return s.order, s.err
}

func (s *stubOrderService) List(_ context.Context, actor ordersvc.Actor, _ pagination.Params, filters ordersvc.OrderListFilters) (*ordersvc.OrderList, error) {
	s.lastActor = actor
	s.lastFilters = filters
	return s.list, s.err
}

func (s *stubOrderService) ListAll(_ context.Context, actor ordersvc.Actor, _ pagination.Params, filters ordersvc.OrderListFilters) (*ordersvc.OrderList, error) {
	s.lastActor = actor
	s.lastFilters = filters
	return s.list, s.err
}

func TestCreateOrderReturnsPaymentURL(t *testing.T) {
	paymentURL := "https://checkout.paystack.com/abc123"
	svc := &stubOrderService{createResult: &ordersvc.CreateOrderResult{
		Order:      &ordersvc.OrderDTO{ID: uuid.New(), OrderNumber: "OH-1725000000000-a1b2"},
		PaymentURL: &paymentURL,
	}}
	handler := CreateOrder(svc, nil)

	body := []byte(`{
		"items": [{"product_id":"` + uuid.NewString() + `","quantity":2}],
		"delivery_address": {"line1":"12 Ring Rd","city":"Accra","state":"GA","postal_code":"00233","country":"GH"},
		"payment_method": "paystack"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	req = withActor(req, uuid.New(), enums.UserRoleCustomer, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data ordersvc.CreateOrderResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.PaymentURL == nil || *envelope.Data.PaymentURL != paymentURL {
		t.Fatalf("expected payment url in payload, got %+v", envelope.Data.PaymentURL)
	}
	if svc.lastActor.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer actor, got %s", svc.lastActor.Role)
	}
}

func TestCreateOrderRequiresAuth(t *testing.T) {
	handler := CreateOrder(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")}
	handler := CreateOrder(svc, nil)

	body := []byte(`{
		"items": [{"product_id":"` + uuid.NewString() + `","quantity":100}],
		"delivery_address": {"line1":"12 Ring Rd","city":"Accra","state":"GA","postal_code":"00233","country":"GH"},
		"payment_method": "on_delivery"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	req = withActor(req, uuid.New(), enums.UserRoleCustomer, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestListOrdersParsesStatusFilter(t *testing.T) {
	svc := &stubOrderService{list: &ordersvc.OrderList{}}
	handler := ListOrders(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=processing&payment_status=completed", nil)
	req = withActor(req, uuid.New(), enums.UserRoleCustomer, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastFilters.Status == nil || *svc.lastFilters.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected processing filter, got %+v", svc.lastFilters.Status)
	}
	if svc.lastFilters.PaymentStatus == nil || *svc.lastFilters.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed payment filter, got %+v", svc.lastFilters.PaymentStatus)
	}
}

func TestListOrdersRejectsUnknownStatus(t *testing.T) {
	handler := ListOrders(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=teleported", nil)
	req = withActor(req, uuid.New(), enums.UserRoleCustomer, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestUpdateOrderStatusForwardsTarget(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{order: &ordersvc.OrderDTO{ID: orderID, Status: enums.OrderStatusShipped}}
	handler := UpdateOrderStatus(svc, nil)

	body := []byte(`{"status":"shipped"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/orders/"+orderID.String()+"/status", bytes.NewReader(body))
	req = withURLParam(req, "orderId", orderID.String())
	outletID := uuid.New()
	req = withActor(req, uuid.New(), enums.UserRoleOutlet, &outletID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastStatus != "shipped" {
		t.Fatalf("expected status forwarded, got %q", svc.lastStatus)
	}
	if svc.lastActor.OutletID == nil || *svc.lastActor.OutletID != outletID {
		t.Fatalf("expected outlet id on actor")
	}
}

func TestUpdateOrderStatusInvalidTransition(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeValidation, "cannot move order from pending to shipped")}
	handler := UpdateOrderStatus(svc, nil)

	orderID := uuid.New()
	body := []byte(`{"status":"shipped"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/orders/"+orderID.String()+"/status", bytes.NewReader(body))
	req = withURLParam(req, "orderId", orderID.String())
	req = withActor(req, uuid.New(), enums.UserRoleAdmin, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestVerifyOrderPayment(t *testing.T) {
	svc := &stubOrderService{order: &ordersvc.OrderDTO{ID: uuid.New(), PaymentStatus: enums.PaymentStatusCompleted}}
	handler := VerifyOrderPayment(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/verify-payment/ref_123", nil)
	req = withURLParam(req, "reference", "ref_123")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastRef != "ref_123" {
		t.Fatalf("expected reference forwarded, got %q", svc.lastRef)
	}
}

func TestVerifyOrderPaymentMissingReference(t *testing.T) {
	handler := VerifyOrderPayment(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/verify-payment/", nil)
	req = withURLParam(req, "reference", "")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminListOrdersForbiddenForNonAdmins(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")}
	handler := AdminListOrders(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req = withActor(req, uuid.New(), enums.UserRoleCustomer, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}
