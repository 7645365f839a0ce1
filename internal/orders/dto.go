package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/kwabenadarko/outlethub-backend/pkg/db/models"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	"github.com/kwabenadarko/outlethub-backend/pkg/types"
)

// OrderItemDTO is one purchased line with its price snapshot.
type OrderItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	OutletID       uuid.UUID `json:"outlet_id"`
	ProductName    string    `json:"product_name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
}

// OrderDTO is the full transport shape of an order.
type OrderDTO struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      string              `json:"order_number"`
	UserID           uuid.UUID           `json:"user_id"`
	Status           enums.OrderStatus   `json:"status"`
	PaymentStatus    enums.PaymentStatus `json:"payment_status"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	PaymentReference *string             `json:"payment_reference,omitempty"`
	SubtotalCents    int64               `json:"subtotal_cents"`
	DeliveryFeeCents int64               `json:"delivery_fee_cents"`
	TotalCents       int64               `json:"total_cents"`
	DeliveryAddress  types.Address       `json:"delivery_address"`
	Notes            *string             `json:"notes,omitempty"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
	DeliveredAt      *time.Time          `json:"delivered_at,omitempty"`
	Items            []OrderItemDTO      `json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// OrderList wraps one cursor page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// OrderListFilters describe the supported list filter knobs.
type OrderListFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}

// CreateOrderResult pairs the persisted order with the hosted checkout
// URL when gateway payment was requested and initialization succeeded.
type CreateOrderResult struct {
	Order      *OrderDTO `json:"order"`
	PaymentURL *string   `json:"payment_url,omitempty"`
}

// FromModel maps a persisted order into its DTO.
func FromModel(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, OrderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			OutletID:       item.OutletID,
			ProductName:    item.ProductName,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}
	return &OrderDTO{
		ID:               m.ID,
		OrderNumber:      m.OrderNumber,
		UserID:           m.UserID,
		Status:           m.Status,
		PaymentStatus:    m.PaymentStatus,
		PaymentMethod:    m.PaymentMethod,
		PaymentReference: m.PaymentReference,
		SubtotalCents:    m.SubtotalCents,
		DeliveryFeeCents: m.DeliveryFeeCents,
		TotalCents:       m.TotalCents,
		DeliveryAddress:  m.DeliveryAddress,
		Notes:            m.Notes,
		PaidAt:           m.PaidAt,
		DeliveredAt:      m.DeliveredAt,
		Items:            items,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
