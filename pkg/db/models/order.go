package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	"github.com/kwabenadarko/outlethub-backend/pkg/types"
)

// Order is the customer-facing purchase record. Line items capture the
// unit price at purchase time so later catalog edits never rewrite
// history.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus   `gorm:"column:status;not null;default:pending"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;not null;default:pending"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentReference *string             `gorm:"column:payment_reference;uniqueIndex"`
	SubtotalCents    int64               `gorm:"column:subtotal_cents;not null"`
	DeliveryFeeCents int64               `gorm:"column:delivery_fee_cents;not null;default:0"`
	TotalCents       int64               `gorm:"column:total_cents;not null"`
	DeliveryAddress  types.Address       `gorm:"column:delivery_address;type:jsonb;not null"`
	Notes            *string             `gorm:"column:notes"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`
	DeliveredAt      *time.Time          `gorm:"column:delivered_at"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	User             *User               `gorm:"foreignKey:UserID"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
