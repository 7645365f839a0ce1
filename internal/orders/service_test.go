package orders

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/kwabenadarko/outlethub-backend/internal/products"
	"github.com/kwabenadarko/outlethub-backend/pkg/config"
	"github.com/kwabenadarko/outlethub-backend/pkg/db/models"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	pkgerrors "github.com/kwabenadarko/outlethub-backend/pkg/errors"
	"github.com/kwabenadarko/outlethub-backend/pkg/logger"
	"github.com/kwabenadarko/outlethub-backend/pkg/pagination"
	"github.com/kwabenadarko/outlethub-backend/pkg/paystack"
	"github.com/kwabenadarko/outlethub-backend/pkg/types"
)

type stubOrderRepo struct {
	orders map[uuid.UUID]*models.Order

	createErr error
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrderRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubOrderRepo) CreateOrder(_ context.Context, order *models.Order) (*models.Order, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for _, existing := range s.orders {
		if existing.OrderNumber == order.OrderNumber {
			return nil, fmt.Errorf("duplicate key value violates unique constraint \"idx_orders_order_number\"")
		}
	}
	order.CreatedAt = time.Now().UTC()
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.orders[id]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) FindByPaymentReference(_ context.Context, reference string) (*models.Order, error) {
	for _, order := range s.orders {
		if order.PaymentReference != nil && *order.PaymentReference == reference {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) SetPaymentReference(_ context.Context, orderID uuid.UUID, reference string) error {
	if order, ok := s.orders[orderID]; ok {
		order.PaymentReference = &reference
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) ClaimPaymentCompleted(_ context.Context, reference string, paidAt time.Time) (int64, error) {
	for _, order := range s.orders {
		if order.PaymentReference != nil && *order.PaymentReference == reference &&
			order.PaymentStatus == enums.PaymentStatusPending {
			order.PaymentStatus = enums.PaymentStatusCompleted
			order.PaidAt = &paidAt
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubOrderRepo) MarkPaymentFailed(_ context.Context, reference string) (int64, error) {
	for _, order := range s.orders {
		if order.PaymentReference != nil && *order.PaymentReference == reference &&
			order.PaymentStatus == enums.PaymentStatusPending {
			order.PaymentStatus = enums.PaymentStatusFailed
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubOrderRepo) UpdateStatusFrom(_ context.Context, orderID uuid.UUID, from, to enums.OrderStatus, deliveredAt *time.Time) (int64, error) {
	order, ok := s.orders[orderID]
	if !ok || order.Status != from {
		return 0, nil
	}
	order.Status = to
	if deliveredAt != nil {
		order.DeliveredAt = deliveredAt
	}
	return 1, nil
}

func (s *stubOrderRepo) HasOutletItems(_ context.Context, orderID, outletID uuid.UUID) (bool, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return false, nil
	}
	for _, item := range order.Items {
		if item.OutletID == outletID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubOrderRepo) ListForUser(_ context.Context, userID uuid.UUID, _ pagination.Params, _ OrderListFilters) (*OrderList, error) {
	list := &OrderList{Orders: []OrderDTO{}}
	for _, order := range s.orders {
		if order.UserID == userID {
			list.Orders = append(list.Orders, *FromModel(order))
		}
	}
	return list, nil
}

func (s *stubOrderRepo) ListForOutlet(_ context.Context, outletID uuid.UUID, _ pagination.Params, _ OrderListFilters) (*OrderList, error) {
	list := &OrderList{Orders: []OrderDTO{}}
	for _, order := range s.orders {
		for _, item := range order.Items {
			if item.OutletID == outletID {
				list.Orders = append(list.Orders, *FromModel(order))
				break
			}
		}
	}
	return list, nil
}

func (s *stubOrderRepo) ListAll(_ context.Context, _ pagination.Params, _ OrderListFilters) (*OrderList, error) {
	list := &OrderList{Orders: []OrderDTO{}}
	for _, order := range s.orders {
		list.Orders = append(list.Orders, *FromModel(order))
	}
	return list, nil
}

type stubCatalog struct {
	products   map[uuid.UUID]*models.Product
	decrements map[uuid.UUID]int
	restores   map[uuid.UUID]int
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		products:   map[uuid.UUID]*models.Product{},
		decrements: map[uuid.UUID]int{},
		restores:   map[uuid.UUID]int{},
	}
}

func (s *stubCatalog) addProduct(outletID uuid.UUID, name string, price int64, stock int) *models.Product {
	prod := &models.Product{
		ID:         uuid.New(),
		OutletID:   outletID,
		Name:       name,
		PriceCents: price,
		Stock:      stock,
		IsActive:   true,
	}
	s.products[prod.ID] = prod
	return prod
}

func (s *stubCatalog) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if prod, ok := s.products[id]; ok {
		copied := *prod
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalog) DecrementStock(_ context.Context, productID uuid.UUID, qty int) error {
	prod, ok := s.products[productID]
	if !ok || prod.Stock < qty {
		return product.ErrInsufficientStock
	}
	prod.Stock -= qty
	s.decrements[productID] += qty
	return nil
}

func (s *stubCatalog) RestoreStock(_ context.Context, productID uuid.UUID, qty int) error {
	if prod, ok := s.products[productID]; ok {
		prod.Stock += qty
	}
	s.restores[productID] += qty
	return nil
}

type stubUserReader struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserReader) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubGateway struct {
	initResp  *paystack.InitializeResponse
	initErr   error
	initCalls int

	verifyResp *paystack.Transaction
	verifyErr  error
}

func (s *stubGateway) InitializeTransaction(_ context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error) {
	s.initCalls++
	if s.initErr != nil {
		return nil, s.initErr
	}
	if s.initResp != nil {
		return s.initResp, nil
	}
	return &paystack.InitializeResponse{
		AuthorizationURL: "https://checkout.paystack.test/" + req.Reference,
		AccessCode:       "access",
		Reference:        req.Reference,
	}, nil
}

func (s *stubGateway) VerifyTransaction(_ context.Context, reference string) (*paystack.Transaction, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	if s.verifyResp != nil {
		return s.verifyResp, nil
	}
	return &paystack.Transaction{Reference: reference, Status: "success"}, nil
}

type passthroughTxRunner struct{}

func (passthroughTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type orderServiceHarness struct {
	repo    *stubOrderRepo
	catalog *stubCatalog
	gateway *stubGateway
	users   *stubUserReader
	svc     Service

	customer Actor
	outletID uuid.UUID
}

func newOrderServiceHarness(t *testing.T) *orderServiceHarness {
	t.Helper()
	repo := newStubOrderRepo()
	catalog := newStubCatalog()
	gateway := &stubGateway{}

	customerID := uuid.New()
	users := &stubUserReader{users: map[uuid.UUID]*models.User{
		customerID: {
			ID:    customerID,
			Email: "buyer@example.com",
			Role:  enums.UserRoleCustomer,
		},
	}}

	svc, err := NewService(ServiceParams{
		Repo:        repo,
		Tx:          passthroughTxRunner{},
		Users:       users,
		Gateway:     gateway,
		Logger:      logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard}),
		Orders:      config.OrdersConfig{DeliveryFeeCents: 1_500, Currency: "GHS"},
		CallbackURL: "https://shop.example.com/payment/callback",
		ProductStoreFactory: func(_ *gorm.DB) productStore {
			return catalog
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &orderServiceHarness{
		repo:     repo,
		catalog:  catalog,
		gateway:  gateway,
		users:    users,
		svc:      svc,
		customer: Actor{UserID: customerID, Role: enums.UserRoleCustomer},
		outletID: uuid.New(),
	}
}

func testAddress() types.Address {
	return types.Address{
		Line1:   "14 Ring Road",
		City:    "Accra",
		State:   "Greater Accra",
		Country: "GH",
	}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	tagged := pkgerrors.As(err)
	if tagged == nil {
		t.Fatalf("expected tagged error, got %v", err)
	}
	if tagged.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, tagged.Code(), err)
	}
}

func TestCreateOrderSnapshotsPricesAndTotals(t *testing.T) {
	h := newOrderServiceHarness(t)
	kettle := h.catalog.addProduct(h.outletID, "Kettle", 12_000, 10)
	blender := h.catalog.addProduct(h.outletID, "Blender", 30_000, 5)

	result, err := h.svc.Create(context.Background(), h.customer, CreateOrderInput{
		Items: []CreateOrderItemInput{
			{ProductID: kettle.ID, Quantity: 2},
			{ProductID: blender.ID, Quantity: 1},
		},
		DeliveryAddress: testAddress(),
		PaymentMethod:   "paystack",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	order := result.Order
	if order.SubtotalCents != 54_000 {
		t.Fatalf("expected subtotal 54000, got %d", order.SubtotalCents)
	}
	if order.TotalCents != 55_500 {
		t.Fatalf("expected total 55500, got %d", order.TotalCents)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	for _, item := range order.Items {
		if item.OutletID != h.outletID {
			t.Fatalf("expected outlet snapshot on item, got %s", item.OutletID)
		}
	}
	if order.OrderNumber == "" {
		t.Fatal("expected an order number")
	}
	if result.PaymentURL == nil {
		t.Fatal("expected a hosted checkout URL for gateway payment")
	}
	if order.PaymentReference == nil || *order.PaymentReference != order.OrderNumber {
		t.Fatalf("expected stored gateway reference, got %v", order.PaymentReference)
	}

	// Gateway orders must not touch stock at checkout.
	if len(h.catalog.decrements) != 0 {
		t.Fatalf("expected no stock decrements, got %v", h.catalog.decrements)
	}
}

func TestCreateOrderChargesDiscountedPrice(t *testing.T) {
	h := newOrderServiceHarness(t)
	kettle := h.catalog.addProduct(h.outletID, "Kettle", 12_000, 10)
	discounted := int64(9_000)
	kettle.DiscountPriceCents = &discounted

	result, err := h.svc.Create(context.Background(), h.customer, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 2}},
		DeliveryAddress: testAddress(),
		PaymentMethod:   "paystack",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if result.Order.SubtotalCents != 18_000 {
		t.Fatalf("expected discounted subtotal 18000, got %d", result.Order.SubtotalCents)
	}
	if result.Order.Items[0].UnitPriceCents != discounted {
		t.Fatalf("expected discounted unit price snapshot, got %d", result.Order.Items[0].UnitPriceCents)
	}
}

func TestCreateOrderOnDeliveryCommitsStock(t *testing.T) {
	h := newOrderServiceHarness(t)
	kettle := h.catalog.addProduct(h.outletID, "Kettle", 12_000, 10)

	result, err := h.svc.Create(context.Background(), h.customer, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 3}},
		DeliveryAddress: testAddress(),
		PaymentMethod:   "on_delivery",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if result.PaymentURL != nil {
		t.Fatal("cash order must not return a checkout URL")
	}
	if h.catalog.decrements[kettle.ID] != 3 {
		t.Fatalf("expected 3 units decremented, got %d", h.catalog.decrements[kettle.ID])
	}
	if h.gateway.initCalls != 0 {
		t.Fatal("cash order must not touch the gateway")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	h := newOrderServiceHarness(t)
	kettle := h.catalog.addProduct(h.outletID, "Kettle", 12_000, 2)

	cases := []struct {
		name  string
		actor Actor
		input CreateOrderInput
		code  pkgerrors.Code
	}{
		{
			name:  "outlet role cannot order",
			actor: Actor{UserID: uuid.New(), Role: enums.UserRoleOutlet},
			input: CreateOrderInput{
				Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 1}},
				DeliveryAddress: testAddress(),
				PaymentMethod:   "paystack",
			},
			code: pkgerrors.CodeForbidden,
		},
		{
			name:  "empty items",
			actor: h.customer,
			input: CreateOrderInput{DeliveryAddress: testAddress(), PaymentMethod: "paystack"},
			code:  pkgerrors.CodeValidation,
		},
		{
			name:  "zero quantity",
			actor: h.customer,
			input: CreateOrderInput{
				Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 0}},
				DeliveryAddress: testAddress(),
				PaymentMethod:   "paystack",
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name:  "unknown payment method",
			actor: h.customer,
			input: CreateOrderInput{
				Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 1}},
				DeliveryAddress: testAddress(),
				PaymentMethod:   "bank_transfer",
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name:  "missing product",
			actor: h.customer,
			input: CreateOrderInput{
				Items:           []CreateOrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
				DeliveryAddress: testAddress(),
				PaymentMethod:   "paystack",
			},
			code: pkgerrors.CodeNotFound,
		},
		{
			name:  "over stock",
			actor: h.customer,
			input: CreateOrderInput{
				Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 5}},
				DeliveryAddress: testAddress(),
				PaymentMethod:   "paystack",
			},
			code: pkgerrors.CodeConflict,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Create(context.Background(), tc.actor, tc.input)
			expectCode(t, err, tc.code)
		})
	}
}

func TestCreateOrderSurvivesGatewayOutage(t *testing.T) {
	h := newOrderServiceHarness(t)
	kettle := h.catalog.addProduct(h.outletID, "Kettle", 12_000, 10)
	h.gateway.initErr = fmt.Errorf("paystack unreachable")

	result, err := h.svc.Create(context.Background(), h.customer, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 1}},
		DeliveryAddress: testAddress(),
		PaymentMethod:   "paystack",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if result.PaymentURL != nil {
		t.Fatal("expected no checkout URL when gateway init fails")
	}
	if result.Order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("expected order to stand unpaid, got %s", result.Order.PaymentStatus)
	}
	if len(h.catalog.decrements) != 0 {
		t.Fatal("gateway outage must not touch stock")
	}
}

func TestConfirmPaymentDecrementsOnce(t *testing.T) {
	h := newOrderServiceHarness(t)
	kettle := h.catalog.addProduct(h.outletID, "Kettle", 12_000, 10)

	result, err := h.svc.Create(context.Background(), h.customer, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 2}},
		DeliveryAddress: testAddress(),
		PaymentMethod:   "paystack",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	reference := *result.Order.PaymentReference

	confirmed, err := h.svc.ConfirmPayment(context.Background(), reference)
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if confirmed.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", confirmed.PaymentStatus)
	}
	if confirmed.PaidAt == nil {
		t.Fatal("expected paid_at stamped")
	}
	if confirmed.Status != enums.OrderStatusPending {
		t.Fatalf("payment confirmation must not advance order status, got %s", confirmed.Status)
	}
	if h.catalog.decrements[kettle.ID] != 2 {
		t.Fatalf("expected 2 units decremented, got %d", h.catalog.decrements[kettle.ID])
	}

	// Webhook, manual verify, and client poll can all deliver the same
	// reference. Replays return the order unchanged.
	for i := 0; i < 2; i++ {
		replay, err := h.svc.ConfirmPayment(context.Background(), reference)
		if err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
		if replay.PaymentStatus != enums.PaymentStatusCompleted {
			t.Fatalf("replay %d: expected completed, got %s", i, replay.PaymentStatus)
		}
	}
	if h.catalog.decrements[kettle.ID] != 2 {
		t.Fatalf("replays must not decrement again, got %d", h.catalog.decrements[kettle.ID])
	}
}

func TestConfirmPaymentUnknownReference(t *testing.T) {
	h := newOrderServiceHarness(t)
	_, err := h.svc.ConfirmPayment(context.Background(), "ref_missing")
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestVerifyPaymentFailureMarksFailed(t *testing.T) {
	h := newOrderServiceHarness(t)
	kettle := h.catalog.addProduct(h.outletID, "Kettle", 12_000, 10)

	result, err := h.svc.Create(context.Background(), h.customer, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 1}},
		DeliveryAddress: testAddress(),
		PaymentMethod:   "paystack",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	reference := *result.Order.PaymentReference
	h.gateway.verifyResp = &paystack.Transaction{Reference: reference, Status: "failed"}

	order, err := h.svc.VerifyPayment(context.Background(), reference)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if order.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", order.PaymentStatus)
	}
	if len(h.catalog.decrements) != 0 {
		t.Fatal("failed payment must not touch stock")
	}
}

func TestUpdateStatusAuthorization(t *testing.T) {
	h := newOrderServiceHarness(t)
	kettle := h.catalog.addProduct(h.outletID, "Kettle", 12_000, 10)

	result, err := h.svc.Create(context.Background(), h.customer, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 1}},
		DeliveryAddress: testAddress(),
		PaymentMethod:   "on_delivery",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	orderID := result.Order.ID

	_, err = h.svc.UpdateStatus(context.Background(), h.customer, orderID, "processing")
	expectCode(t, err, pkgerrors.CodeForbidden)

	strangerOutlet := uuid.New()
	_, err = h.svc.UpdateStatus(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleOutlet, OutletID: &strangerOutlet}, orderID, "processing")
	expectCode(t, err, pkgerrors.CodeForbidden)

	ownerActor := Actor{UserID: uuid.New(), Role: enums.UserRoleOutlet, OutletID: &h.outletID}
	updated, err := h.svc.UpdateStatus(context.Background(), ownerActor, orderID, "processing")
	if err != nil {
		t.Fatalf("owner transition: %v", err)
	}
	if updated.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}
}

func TestUpdateStatusTransitionTable(t *testing.T) {
	h := newOrderServiceHarness(t)
	kettle := h.catalog.addProduct(h.outletID, "Kettle", 12_000, 10)

	result, err := h.svc.Create(context.Background(), h.customer, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 1}},
		DeliveryAddress: testAddress(),
		PaymentMethod:   "on_delivery",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	orderID := result.Order.ID
	admin := Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	// pending straight to shipped must pass through processing first.
	_, err = h.svc.UpdateStatus(context.Background(), admin, orderID, "shipped")
	expectCode(t, err, pkgerrors.CodeValidation)

	for _, next := range []string{"processing", "shipped", "delivered"} {
		if _, err := h.svc.UpdateStatus(context.Background(), admin, orderID, next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	delivered, err := h.svc.GetByID(context.Background(), admin, orderID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if delivered.DeliveredAt == nil {
		t.Fatal("expected delivered_at stamped")
	}

	// Terminal states reject everything.
	_, err = h.svc.UpdateStatus(context.Background(), admin, orderID, "pending")
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestCancelOnDeliveryRestoresStock(t *testing.T) {
	h := newOrderServiceHarness(t)
	kettle := h.catalog.addProduct(h.outletID, "Kettle", 12_000, 10)

	result, err := h.svc.Create(context.Background(), h.customer, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 4}},
		DeliveryAddress: testAddress(),
		PaymentMethod:   "on_delivery",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	admin := Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	if _, err := h.svc.UpdateStatus(context.Background(), admin, result.Order.ID, "cancelled"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if h.catalog.restores[kettle.ID] != 4 {
		t.Fatalf("expected 4 units restored, got %d", h.catalog.restores[kettle.ID])
	}
}

func TestCancelUnpaidGatewayOrderLeavesStock(t *testing.T) {
	h := newOrderServiceHarness(t)
	kettle := h.catalog.addProduct(h.outletID, "Kettle", 12_000, 10)

	result, err := h.svc.Create(context.Background(), h.customer, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 4}},
		DeliveryAddress: testAddress(),
		PaymentMethod:   "paystack",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	admin := Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	if _, err := h.svc.UpdateStatus(context.Background(), admin, result.Order.ID, "cancelled"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(h.catalog.restores) != 0 {
		t.Fatalf("unpaid gateway order never took stock, restores: %v", h.catalog.restores)
	}
}

func TestGetByIDReadAuthorization(t *testing.T) {
	h := newOrderServiceHarness(t)
	kettle := h.catalog.addProduct(h.outletID, "Kettle", 12_000, 10)

	result, err := h.svc.Create(context.Background(), h.customer, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: kettle.ID, Quantity: 1}},
		DeliveryAddress: testAddress(),
		PaymentMethod:   "on_delivery",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	orderID := result.Order.ID

	if _, err := h.svc.GetByID(context.Background(), h.customer, orderID); err != nil {
		t.Fatalf("owner read: %v", err)
	}

	otherCustomer := Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}
	_, err = h.svc.GetByID(context.Background(), otherCustomer, orderID)
	expectCode(t, err, pkgerrors.CodeForbidden)

	outletActor := Actor{UserID: uuid.New(), Role: enums.UserRoleOutlet, OutletID: &h.outletID}
	if _, err := h.svc.GetByID(context.Background(), outletActor, orderID); err != nil {
		t.Fatalf("outlet read: %v", err)
	}

	strangerOutlet := uuid.New()
	_, err = h.svc.GetByID(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleOutlet, OutletID: &strangerOutlet}, orderID)
	expectCode(t, err, pkgerrors.CodeForbidden)

	admin := Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	if _, err := h.svc.GetByID(context.Background(), admin, orderID); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}

func TestListAllRequiresAdmin(t *testing.T) {
	h := newOrderServiceHarness(t)
	_, err := h.svc.ListAll(context.Background(), h.customer, pagination.Params{}, OrderListFilters{})
	expectCode(t, err, pkgerrors.CodeForbidden)
}
