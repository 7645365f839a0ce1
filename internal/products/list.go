package product

import (
	"github.com/google/uuid"

	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	"github.com/kwabenadarko/outlethub-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	Category      *enums.ProductCategory `json:"category,omitempty"`
	PriceMinCents *int64                 `json:"price_min_cents,omitempty"`
	PriceMaxCents *int64                 `json:"price_max_cents,omitempty"`
	Featured      *bool                  `json:"featured,omitempty"`
	InStock       *bool                  `json:"in_stock,omitempty"`
	Query         string                 `json:"q,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate/filter the catalog.
type ListProductsInput struct {
	OutletID   *uuid.UUID
	Filters    ProductListFilters
	Pagination pagination.Params
	// IncludeInactive is only honored for owner/admin listings.
	IncludeInactive bool
}
