package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kwabenadarko/outlethub-backend/pkg/db/models"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	"github.com/kwabenadarko/outlethub-backend/pkg/pagination"
	"github.com/kwabenadarko/outlethub-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.User{}, &models.Outlet{}, &models.Product{},
		&models.Order{}, &models.OrderItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

type orderFixture struct {
	conn     *gorm.DB
	customer *models.User
	outlet   *models.Outlet
	product  *models.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	conn := setupOrdersTestDB(t)

	customer := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("buyer_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Order",
		LastName:     "Tester",
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	owner := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("owner_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Outlet",
		LastName:     "Tester",
		Role:         enums.UserRoleOutlet,
		IsActive:     true,
	}
	for _, user := range []*models.User{customer, owner} {
		if err := conn.Create(user).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	// sqlite does not evaluate the uuid default, so set it ourselves.
	outlet := &models.Outlet{
		ID:       uuid.New(),
		OwnerID:  owner.ID,
		Name:     "Order Outlet",
		Slug:     fmt.Sprintf("order-outlet-%s", uuid.NewString()),
		IsActive: true,
	}
	if err := conn.Create(outlet).Error; err != nil {
		t.Fatalf("create outlet: %v", err)
	}

	product := &models.Product{
		ID:         uuid.New(),
		OutletID:   outlet.ID,
		Name:       "Test Kettle",
		Category:   enums.ProductCategoryHome,
		PriceCents: 12_000,
		Stock:      10,
		IsActive:   true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}

	return &orderFixture{conn: conn, customer: customer, outlet: outlet, product: product}
}

func (f *orderFixture) newOrder(t *testing.T, repo Repository, reference *string, qty int) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:               uuid.New(),
		OrderNumber:      fmt.Sprintf("OH-%d-%s", time.Now().UnixNano(), uuid.NewString()[:4]),
		UserID:           f.customer.ID,
		Status:           enums.OrderStatusPending,
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentMethod:    enums.PaymentMethodPaystack,
		PaymentReference: reference,
		SubtotalCents:    f.product.PriceCents * int64(qty),
		DeliveryFeeCents: 1_500,
		DeliveryAddress: types.Address{
			Line1:   "14 Ring Road",
			City:    "Accra",
			State:   "Greater Accra",
			Country: "GH",
		},
		Items: []models.OrderItem{{
			ID:             uuid.New(),
			ProductID:      f.product.ID,
			OutletID:       f.outlet.ID,
			ProductName:    f.product.Name,
			UnitPriceCents: f.product.PriceCents,
			Quantity:       qty,
		}},
	}
	order.TotalCents = order.SubtotalCents + order.DeliveryFeeCents

	saved, err := repo.CreateOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return saved
}

func strPtr(v string) *string { return &v }

func TestClaimPaymentCompletedIsExactlyOnce(t *testing.T) {
	fixture := newOrderFixture(t)
	repo := NewRepository(fixture.conn)
	ctx := context.Background()

	reference := fmt.Sprintf("ref_%s", uuid.NewString())
	fixture.newOrder(t, repo, strPtr(reference), 2)

	paidAt := time.Now().UTC()
	rows, err := repo.ClaimPaymentCompleted(ctx, reference, paidAt)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected first claim to hit 1 row, got %d", rows)
	}

	rows, err = repo.ClaimPaymentCompleted(ctx, reference, paidAt)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected duplicate claim to hit 0 rows, got %d", rows)
	}

	stored, err := repo.FindByPaymentReference(ctx, reference)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if stored.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", stored.PaymentStatus)
	}
	if stored.PaidAt == nil {
		t.Fatal("expected paid_at to be stamped")
	}
}

func TestMarkPaymentFailedOnlyFromPending(t *testing.T) {
	fixture := newOrderFixture(t)
	repo := NewRepository(fixture.conn)
	ctx := context.Background()

	reference := fmt.Sprintf("ref_%s", uuid.NewString())
	fixture.newOrder(t, repo, strPtr(reference), 1)

	if _, err := repo.ClaimPaymentCompleted(ctx, reference, time.Now().UTC()); err != nil {
		t.Fatalf("claim: %v", err)
	}

	rows, err := repo.MarkPaymentFailed(ctx, reference)
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if rows != 0 {
		t.Fatal("completed payment must never move back to failed")
	}
}

func TestUpdateStatusFromIsConditional(t *testing.T) {
	fixture := newOrderFixture(t)
	repo := NewRepository(fixture.conn)
	ctx := context.Background()

	order := fixture.newOrder(t, repo, nil, 1)

	rows, err := repo.UpdateStatusFrom(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusProcessing, nil)
	if err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected transition to hit 1 row, got %d", rows)
	}

	// A second writer still holding the stale pending status loses.
	rows, err = repo.UpdateStatusFrom(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled, nil)
	if err != nil {
		t.Fatalf("stale transition: %v", err)
	}
	if rows != 0 {
		t.Fatal("expected stale transition to hit 0 rows")
	}

	now := time.Now().UTC()
	if _, err := repo.UpdateStatusFrom(ctx, order.ID, enums.OrderStatusProcessing, enums.OrderStatusShipped, nil); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if _, err := repo.UpdateStatusFrom(ctx, order.ID, enums.OrderStatusShipped, enums.OrderStatusDelivered, &now); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	stored, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %s", stored.Status)
	}
	if stored.DeliveredAt == nil {
		t.Fatal("expected delivered_at to be stamped")
	}
}

func TestListScoping(t *testing.T) {
	fixture := newOrderFixture(t)
	repo := NewRepository(fixture.conn)
	ctx := context.Background()

	fixture.newOrder(t, repo, nil, 1)
	fixture.newOrder(t, repo, nil, 2)

	// An order from a different customer containing a different outlet's item.
	otherCustomer := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("other_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Other",
		LastName:     "Buyer",
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	if err := fixture.conn.Create(otherCustomer).Error; err != nil {
		t.Fatalf("create other customer: %v", err)
	}
	foreign := fixture.newOrder(t, repo, nil, 1)
	if err := fixture.conn.Model(&models.Order{}).Where("id = ?", foreign.ID).Update("user_id", otherCustomer.ID).Error; err != nil {
		t.Fatalf("reassign order: %v", err)
	}

	mine, err := repo.ListForUser(ctx, fixture.customer.ID, pagination.Params{Limit: 10}, OrderListFilters{})
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(mine.Orders) != 2 {
		t.Fatalf("expected 2 customer orders, got %d", len(mine.Orders))
	}

	outletOrders, err := repo.ListForOutlet(ctx, fixture.outlet.ID, pagination.Params{Limit: 10}, OrderListFilters{})
	if err != nil {
		t.Fatalf("list for outlet: %v", err)
	}
	if len(outletOrders.Orders) != 3 {
		t.Fatalf("expected outlet to see all 3 orders with its items, got %d", len(outletOrders.Orders))
	}

	all, err := repo.ListAll(ctx, pagination.Params{Limit: 10}, OrderListFilters{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all.Orders) != 3 {
		t.Fatalf("expected 3 orders total, got %d", len(all.Orders))
	}

	pendingOnly := enums.OrderStatusProcessing
	filtered, err := repo.ListAll(ctx, pagination.Params{Limit: 10}, OrderListFilters{Status: &pendingOnly})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered.Orders) != 0 {
		t.Fatalf("expected no processing orders, got %d", len(filtered.Orders))
	}
}

func TestHasOutletItems(t *testing.T) {
	fixture := newOrderFixture(t)
	repo := NewRepository(fixture.conn)
	ctx := context.Background()

	order := fixture.newOrder(t, repo, nil, 1)

	owns, err := repo.HasOutletItems(ctx, order.ID, fixture.outlet.ID)
	if err != nil {
		t.Fatalf("has outlet items: %v", err)
	}
	if !owns {
		t.Fatal("expected outlet to own an item in the order")
	}

	owns, err = repo.HasOutletItems(ctx, order.ID, uuid.New())
	if err != nil {
		t.Fatalf("has outlet items (stranger): %v", err)
	}
	if owns {
		t.Fatal("expected stranger outlet to own nothing")
	}
}
