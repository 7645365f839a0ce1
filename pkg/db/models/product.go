package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
)

// Product represents an outlet's catalog listing. Stock lives on the
// row itself and is only ever mutated through conditional updates.
type Product struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OutletID           uuid.UUID             `gorm:"column:outlet_id;type:uuid;not null;index"`
	Name               string                `gorm:"column:name;not null"`
	Description        *string               `gorm:"column:description"`
	Category           enums.ProductCategory `gorm:"column:category;not null;default:other"`
	PriceCents         int64                 `gorm:"column:price_cents;not null"`
	DiscountPriceCents *int64                `gorm:"column:discount_price_cents"`
	Stock              int                   `gorm:"column:stock;not null;default:0"`
	Images             []string              `gorm:"column:images;serializer:json;not null"`
	IsActive           bool                  `gorm:"column:is_active;not null;default:true"`
	IsFeatured         bool                  `gorm:"column:is_featured;not null;default:false"`
	Rating             float64               `gorm:"column:rating;not null;default:0"`
	RatingCount        int                   `gorm:"column:rating_count;not null;default:0"`
	Outlet             *Outlet               `gorm:"foreignKey:OutletID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
