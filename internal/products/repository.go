package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kwabenadarko/outlethub-backend/pkg/db/models"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	"github.com/kwabenadarko/outlethub-backend/pkg/pagination"
)

// ErrInsufficientStock signals that a conditional stock decrement matched no rows.
var ErrInsufficientStock = errors.New("insufficient stock")

const outletSummaryQuery = `
SELECT o.id AS outlet_id,
       o.name,
       o.slug,
       o.logo_url,
       o.is_verified
FROM outlets o
WHERE o.id = ?
`

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product and its reviews.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", id).Delete(&models.ProductReview{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Product{}).Error
}

// GetProductDetail fetches a product together with its outlet summary.
func (r *Repository) GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, *OutletSummary, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, nil, err
	}

	var summary OutletSummary
	if err := r.db.WithContext(ctx).Raw(outletSummaryQuery, product.OutletID).Scan(&summary).Error; err != nil {
		return &product, nil, err
	}
	return &product, &summary, nil
}

// ListProductsByOutlet lists the products owned by an outlet.
func (r *Repository) ListProductsByOutlet(ctx context.Context, outletID uuid.UUID, includeInactive bool) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Where("outlet_id = ?", outletID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Product
	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// DecrementStock atomically subtracts qty from the product's stock. The
// conditional WHERE clause is what makes oversells impossible under
// concurrent checkouts.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return errors.New("quantity must be positive")
	}
	result := r.db.WithContext(ctx).Exec(
		"UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?",
		qty, time.Now().UTC(), productID, qty,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// RestoreStock returns qty units to the product's stock.
func (r *Repository) RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return errors.New("quantity must be positive")
	}
	return r.db.WithContext(ctx).Exec(
		"UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?",
		qty, time.Now().UTC(), productID,
	).Error
}

// UpsertReview creates the user's review or replaces their previous one.
func (r *Repository) UpsertReview(ctx context.Context, review *models.ProductReview) (*models.ProductReview, error) {
	tx := r.db.WithContext(ctx)

	var existing models.ProductReview
	err := tx.Where("product_id = ? AND user_id = ?", review.ProductID, review.UserID).First(&existing).Error
	switch {
	case err == nil:
		existing.Rating = review.Rating
		existing.Comment = review.Comment
		if err := tx.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := tx.Create(review).Error; err != nil {
			return nil, err
		}
		return review, nil
	default:
		return nil, err
	}
}

// ListReviews returns the reviews for a product, newest first.
func (r *Repository) ListReviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, error) {
	var rows []models.ProductReview
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// RecomputeRating refreshes the denormalized rating columns from the
// review table.
func (r *Repository) RecomputeRating(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
UPDATE products SET
  rating = COALESCE((SELECT AVG(rating) FROM product_reviews WHERE product_id = products.id), 0),
  rating_count = (SELECT COUNT(*) FROM product_reviews WHERE product_id = products.id)
WHERE id = ?`, productID).Error
}

type productListQuery struct {
	Pagination      pagination.Params
	Filters         ProductListFilters
	OutletID        *uuid.UUID
	IncludeInactive bool
}

// ListProductSummaries runs the cursor-paginated browse query.
func (r *Repository) ListProductSummaries(ctx context.Context, query productListQuery) (*ProductListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Table("products p").
		Select(strings.Join([]string{
			"p.id",
			"p.outlet_id",
			"p.name",
			"p.category",
			"p.price_cents",
			"p.discount_price_cents",
			"p.stock",
			"p.images",
			"p.is_featured",
			"p.rating",
			"p.rating_count",
			"p.created_at",
			"p.updated_at",
		}, ", ")).
		Joins("JOIN outlets o ON o.id = p.outlet_id")

	filter := query.Filters
	if filter.Category != nil {
		qb = qb.Where("p.category = ?", *filter.Category)
	}
	if filter.PriceMinCents != nil {
		qb = qb.Where("p.price_cents >= ?", *filter.PriceMinCents)
	}
	if filter.PriceMaxCents != nil {
		qb = qb.Where("p.price_cents <= ?", *filter.PriceMaxCents)
	}
	if filter.Featured != nil {
		qb = qb.Where("p.is_featured = ?", *filter.Featured)
	}
	if filter.InStock != nil && *filter.InStock {
		qb = qb.Where("p.stock > 0")
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("LOWER(p.name) LIKE ?", pattern)
	}

	if query.OutletID != nil {
		qb = qb.Where("p.outlet_id = ?", *query.OutletID)
	}
	if !query.IncludeInactive {
		qb = qb.Where("p.is_active = ?", true)
		qb = qb.Where("o.is_active = ?", true)
	}

	if cursor != nil {
		qb = qb.Where("(p.created_at < ?) OR (p.created_at = ? AND p.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("p.created_at DESC").Order("p.id DESC").Limit(limitWithBuffer)

	var records []productSummaryRecord
	if err := qb.Scan(&records).Error; err != nil {
		return nil, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > pageSize {
		resultRows = records[:pageSize]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	summaries := make([]ProductSummary, 0, len(resultRows))
	for _, record := range resultRows {
		summaries = append(summaries, record.toSummary())
	}

	return &ProductListResult{
		Products:   summaries,
		NextCursor: nextCursor,
	}, nil
}

type productSummaryRecord struct {
	ID                 uuid.UUID
	OutletID           uuid.UUID
	Name               string
	Category           string
	PriceCents         int64
	DiscountPriceCents *int64
	Stock              int
	Images             []string `gorm:"column:images;serializer:json"`
	IsFeatured         bool
	Rating             float64
	RatingCount        int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (r productSummaryRecord) toSummary() ProductSummary {
	return ProductSummary{
		ID:                 r.ID,
		OutletID:           r.OutletID,
		Name:               r.Name,
		Category:           enumCategory(r.Category),
		PriceCents:         r.PriceCents,
		DiscountPriceCents: r.DiscountPriceCents,
		Stock:              r.Stock,
		Images:             r.Images,
		IsFeatured:         r.IsFeatured,
		Rating:             r.Rating,
		RatingCount:        r.RatingCount,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func enumCategory(value string) (category enums.ProductCategory) {
	parsed, err := enums.ParseProductCategory(value)
	if err != nil {
		return enums.ProductCategoryOther
	}
	return parsed
}
