package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/kwabenadarko/outlethub-backend/internal/products"
	"github.com/kwabenadarko/outlethub-backend/pkg/config"
	"github.com/kwabenadarko/outlethub-backend/pkg/db"
	"github.com/kwabenadarko/outlethub-backend/pkg/db/models"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	pkgerrors "github.com/kwabenadarko/outlethub-backend/pkg/errors"
	"github.com/kwabenadarko/outlethub-backend/pkg/logger"
	"github.com/kwabenadarko/outlethub-backend/pkg/pagination"
	"github.com/kwabenadarko/outlethub-backend/pkg/paystack"
	"github.com/kwabenadarko/outlethub-backend/pkg/types"
)

const orderNumberAttempts = 3

// Actor identifies who is performing an operation.
type Actor struct {
	UserID   uuid.UUID
	Role     enums.UserRole
	OutletID *uuid.UUID
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// productStore is the slice of the catalog repository the order path
// needs: reads for validation plus the two conditional stock mutators.
type productStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
	RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type paymentGateway interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// CreateOrderItemInput is one requested line at checkout.
type CreateOrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

// CreateOrderInput captures the checkout payload.
type CreateOrderInput struct {
	Items           []CreateOrderItemInput `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress types.Address          `json:"delivery_address" validate:"required"`
	PaymentMethod   string                 `json:"payment_method" validate:"required"`
	Notes           *string                `json:"notes,omitempty"`
}

// Service exposes order lifecycle operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateOrderInput) (*CreateOrderResult, error)
	ConfirmPayment(ctx context.Context, reference string) (*OrderDTO, error)
	VerifyPayment(ctx context.Context, reference string) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, next string) (*OrderDTO, error)
	GetByID(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, actor Actor, params pagination.Params, filters OrderListFilters) (*OrderList, error)
	ListAll(ctx context.Context, actor Actor, params pagination.Params, filters OrderListFilters) (*OrderList, error)
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Users   userReader
	Gateway paymentGateway
	Logger  *logger.Logger
	Orders  config.OrdersConfig
	// CallbackURL is where the gateway redirects the shopper after checkout.
	CallbackURL string
	// ProductStoreFactory lets tests swap the tx-bound catalog store.
	ProductStoreFactory func(tx *gorm.DB) productStore
}

type service struct {
	repo         Repository
	tx           txRunner
	users        userReader
	gateway      paymentGateway
	log          *logger.Logger
	cfg          config.OrdersConfig
	callbackURL  string
	productStore func(tx *gorm.DB) productStore
}

// NewService builds an order service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	factory := params.ProductStoreFactory
	if factory == nil {
		factory = func(tx *gorm.DB) productStore {
			return product.NewRepository(tx)
		}
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		users:        params.Users,
		gateway:      params.Gateway,
		log:          params.Logger,
		cfg:          params.Orders,
		callbackURL:  params.CallbackURL,
		productStore: factory,
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateOrderInput) (*CreateOrderResult, error) {
	if actor.Role != enums.UserRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can place orders")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
	}
	if err := input.DeliveryAddress.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery address")
	}
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	var created *models.Order
	err = s.withOrderNumberRetry(ctx, func(orderNumber string) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			catalog := s.productStore(tx)
			repo := s.repo.WithTx(tx)

			order := &models.Order{
				OrderNumber:      orderNumber,
				UserID:           actor.UserID,
				Status:           enums.OrderStatusPending,
				PaymentStatus:    enums.PaymentStatusPending,
				PaymentMethod:    method,
				DeliveryFeeCents: s.cfg.DeliveryFeeCents,
				DeliveryAddress:  input.DeliveryAddress,
				Notes:            input.Notes,
			}

			for _, item := range input.Items {
				prod, err := catalog.FindByID(ctx, item.ProductID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", item.ProductID))
					}
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
				}
				if !prod.IsActive {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", item.ProductID))
				}
				if prod.Stock < item.Quantity {
					return pkgerrors.New(pkgerrors.CodeConflict,
						fmt.Sprintf("insufficient stock for %s: requested %d, available %d", prod.Name, item.Quantity, prod.Stock)).
						WithDetails(map[string]any{
							"product_id": prod.ID,
							"requested":  item.Quantity,
							"available":  prod.Stock,
						})
				}

				unitPrice := prod.PriceCents
				if prod.DiscountPriceCents != nil && *prod.DiscountPriceCents > 0 {
					unitPrice = *prod.DiscountPriceCents
				}
				order.SubtotalCents += unitPrice * int64(item.Quantity)
				order.Items = append(order.Items, models.OrderItem{
					ProductID:      prod.ID,
					OutletID:       prod.OutletID,
					ProductName:    prod.Name,
					UnitPriceCents: unitPrice,
					Quantity:       item.Quantity,
				})
			}
			order.TotalCents = order.SubtotalCents + order.DeliveryFeeCents

			// Cash orders commit stock at checkout. Gateway orders wait
			// for the payment confirmation claim.
			if method == enums.PaymentMethodOnDelivery {
				for _, item := range order.Items {
					if err := s.decrementLine(ctx, catalog, order.OrderNumber, item); err != nil {
						return err
					}
				}
			}

			saved, err := repo.CreateOrder(ctx, order)
			if err != nil {
				return err
			}
			created = saved
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	result := &CreateOrderResult{Order: FromModel(created)}
	if method == enums.PaymentMethodPaystack {
		if url := s.initGatewayPayment(ctx, created); url != "" {
			result.PaymentURL = &url
			result.Order = FromModel(created)
		}
	}
	return result, nil
}

// initGatewayPayment opens a hosted checkout session. Failure leaves the
// order created-but-unpaid; the shopper can retry from verify-payment.
func (s *service) initGatewayPayment(ctx context.Context, order *models.Order) string {
	if s.gateway == nil {
		s.log.Warn(ctx, "payment gateway not configured, order left unpaid")
		return ""
	}
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		s.log.Error(ctx, "load user for payment init", err)
		return ""
	}

	resp, err := s.gateway.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:       user.Email,
		AmountCents: order.TotalCents,
		Reference:   order.OrderNumber,
		CallbackURL: s.callbackURL,
		Currency:    s.cfg.Currency,
	})
	if err != nil {
		ctx = s.log.WithOrderID(ctx, order.ID.String())
		s.log.Error(ctx, "initialize gateway transaction", err)
		return ""
	}

	if err := s.repo.SetPaymentReference(ctx, order.ID, resp.Reference); err != nil {
		s.log.Error(ctx, "store payment reference", err)
		return ""
	}
	order.PaymentReference = &resp.Reference
	return resp.AuthorizationURL
}

func (s *service) ConfirmPayment(ctx context.Context, reference string) (*OrderDTO, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}

	var confirmed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByPaymentReference(ctx, reference)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no order for payment reference")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by reference")
		}

		rows, err := repo.ClaimPaymentCompleted(ctx, reference, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim payment confirmation")
		}
		if rows == 0 {
			if order.PaymentStatus == enums.PaymentStatusCompleted {
				// Duplicate confirmation: webhook, manual verify, and
				// client polls may all fire for the same charge.
				confirmed = order
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not pending")
		}

		catalog := s.productStore(tx)
		for _, item := range order.Items {
			if err := s.decrementLine(ctx, catalog, order.OrderNumber, item); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		order.PaymentStatus = enums.PaymentStatusCompleted
		order.PaidAt = &now
		confirmed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(confirmed), nil
}

func (s *service) VerifyPayment(ctx context.Context, reference string) (*OrderDTO, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured")
	}

	txn, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	if txn.Succeeded() {
		return s.ConfirmPayment(ctx, reference)
	}

	if _, err := s.repo.MarkPaymentFailed(ctx, reference); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
	}
	order, err := s.repo.FindByPaymentReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order for payment reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by reference")
	}
	return FromModel(order), nil
}

func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, next string) (*OrderDTO, error) {
	target, err := enums.ParseOrderStatus(next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if err := s.authorizeStatusChange(ctx, repo, actor, order); err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("cannot transition order from %s to %s", order.Status, target))
		}

		var deliveredAt *time.Time
		if target == enums.OrderStatusDelivered {
			now := time.Now().UTC()
			deliveredAt = &now
		}

		rows, err := repo.UpdateStatusFrom(ctx, order.ID, order.Status, target, deliveredAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if rows == 0 {
			// A concurrent transition won the race.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		if target == enums.OrderStatusCancelled && s.stockWasCommitted(order) {
			catalog := s.productStore(tx)
			for _, item := range order.Items {
				if err := catalog.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
				}
			}
		}

		order.Status = target
		order.DeliveredAt = deliveredAt
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) GetByID(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := s.authorizeRead(actor, order); err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) List(ctx context.Context, actor Actor, params pagination.Params, filters OrderListFilters) (*OrderList, error) {
	switch actor.Role {
	case enums.UserRoleCustomer:
		list, err := s.repo.ListForUser(ctx, actor.UserID, params, filters)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
		}
		return list, nil
	case enums.UserRoleOutlet:
		if actor.OutletID == nil {
			return &OrderList{Orders: []OrderDTO{}}, nil
		}
		list, err := s.repo.ListForOutlet(ctx, *actor.OutletID, params, filters)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list outlet orders")
		}
		return list, nil
	case enums.UserRoleAdmin:
		return s.ListAll(ctx, actor, params, filters)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
}

func (s *service) ListAll(ctx context.Context, actor Actor, params pagination.Params, filters OrderListFilters) (*OrderList, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can list all orders")
	}
	list, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list all orders")
	}
	return list, nil
}

// authorizeRead: customers see their own orders, outlets see orders
// containing at least one of their lines, admins see everything.
// Unauthorized access to an existing order is a plain forbidden, not a
// masked not-found.
func (s *service) authorizeRead(actor Actor, order *models.Order) error {
	switch actor.Role {
	case enums.UserRoleAdmin:
		return nil
	case enums.UserRoleCustomer:
		if order.UserID == actor.UserID {
			return nil
		}
	case enums.UserRoleOutlet:
		if actor.OutletID != nil {
			for _, item := range order.Items {
				if item.OutletID == *actor.OutletID {
					return nil
				}
			}
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
}

func (s *service) authorizeStatusChange(ctx context.Context, repo Repository, actor Actor, order *models.Order) error {
	switch actor.Role {
	case enums.UserRoleAdmin:
		return nil
	case enums.UserRoleOutlet:
		if actor.OutletID == nil {
			return pkgerrors.New(pkgerrors.CodeForbidden, "outlet context missing")
		}
		owns, err := repo.HasOutletItems(ctx, order.ID, *actor.OutletID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check outlet items")
		}
		if !owns {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order has no items from this outlet")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "customers cannot change order status")
	}
}

func (s *service) decrementLine(ctx context.Context, catalog productStore, orderNumber string, item models.OrderItem) error {
	err := catalog.DecrementStock(ctx, item.ProductID, item.Quantity)
	if err == nil {
		return nil
	}
	if errors.Is(err, product.ErrInsufficientStock) {
		logCtx := s.log.WithFields(ctx, map[string]any{
			"order_number": orderNumber,
			"product_id":   item.ProductID.String(),
			"requested":    item.Quantity,
		})
		s.log.Warn(logCtx, "stock decrement rejected")
		return pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("insufficient stock for %s", item.ProductName)).
			WithDetails(map[string]any{
				"product_id": item.ProductID,
				"requested":  item.Quantity,
			})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
}

// stockWasCommitted reports whether this order has already taken stock:
// cash orders commit at checkout, gateway orders only once paid.
func (s *service) stockWasCommitted(order *models.Order) bool {
	if order.PaymentMethod == enums.PaymentMethodOnDelivery {
		return true
	}
	return order.PaymentStatus == enums.PaymentStatusCompleted
}

// withOrderNumberRetry regenerates the order number on a unique
// collision. Collisions need two checkouts inside the same millisecond
// to also draw the same random suffix, so three attempts is plenty.
func (s *service) withOrderNumberRetry(ctx context.Context, create func(orderNumber string) error) error {
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		err = create(newOrderNumber())
		if err == nil {
			return nil
		}
		if !isOrderNumberCollision(err) {
			return err
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
}

func isOrderNumberCollision(err error) bool {
	return db.IsUniqueViolation(err, "idx_orders_order_number")
}

func newOrderNumber() string {
	suffix := make([]byte, 2)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("OH-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:4])
	}
	return fmt.Sprintf("OH-%d-%s", time.Now().UnixMilli(), strings.ToUpper(hex.EncodeToString(suffix)))
}
