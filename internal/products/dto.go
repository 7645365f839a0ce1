package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/kwabenadarko/outlethub-backend/pkg/db/models"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
)

// ProductDTO is the full product shape returned to owners and detail pages.
type ProductDTO struct {
	ID                 uuid.UUID             `json:"id"`
	OutletID           uuid.UUID             `json:"outlet_id"`
	Name               string                `json:"name"`
	Description        *string               `json:"description,omitempty"`
	Category           enums.ProductCategory `json:"category"`
	PriceCents         int64                 `json:"price_cents"`
	DiscountPriceCents *int64                `json:"discount_price_cents,omitempty"`
	Stock              int                   `json:"stock"`
	Images             []string              `json:"images"`
	IsActive           bool                  `json:"is_active"`
	IsFeatured         bool                  `json:"is_featured"`
	Rating             float64               `json:"rating"`
	RatingCount        int                   `json:"rating_count"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// OutletSummary exposes the minimal outlet data used by product read paths.
type OutletSummary struct {
	OutletID   uuid.UUID `json:"outlet_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	LogoURL    *string   `json:"logo_url,omitempty"`
	IsVerified bool      `json:"is_verified"`
}

// ProductDetail pairs a product with its outlet summary.
type ProductDetail struct {
	Product ProductDTO    `json:"product"`
	Outlet  OutletSummary `json:"outlet"`
}

// ProductSummary is the condensed row used by browse listings.
type ProductSummary struct {
	ID                 uuid.UUID             `json:"id"`
	OutletID           uuid.UUID             `json:"outlet_id"`
	Name               string                `json:"name"`
	Category           enums.ProductCategory `json:"category"`
	PriceCents         int64                 `json:"price_cents"`
	DiscountPriceCents *int64                `json:"discount_price_cents,omitempty"`
	Stock              int                   `json:"stock"`
	Images             []string              `json:"images"`
	IsFeatured         bool                  `json:"is_featured"`
	Rating             float64               `json:"rating"`
	RatingCount        int                   `json:"rating_count"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// ProductListResult wraps one page of product summaries.
type ProductListResult struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ReviewDTO is the transport shape for a product review.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModel maps a persisted product into its DTO.
func FromModel(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	return &ProductDTO{
		ID:                 m.ID,
		OutletID:           m.OutletID,
		Name:               m.Name,
		Description:        m.Description,
		Category:           m.Category,
		PriceCents:         m.PriceCents,
		DiscountPriceCents: m.DiscountPriceCents,
		Stock:              m.Stock,
		Images:             m.Images,
		IsActive:           m.IsActive,
		IsFeatured:         m.IsFeatured,
		Rating:             m.Rating,
		RatingCount:        m.RatingCount,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// ReviewFromModel maps a persisted review into its DTO.
func ReviewFromModel(m *models.ProductReview) *ReviewDTO {
	if m == nil {
		return nil
	}
	return &ReviewDTO{
		ID:        m.ID,
		ProductID: m.ProductID,
		UserID:    m.UserID,
		Rating:    m.Rating,
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
