package outlets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kwabenadarko/outlethub-backend/pkg/db/models"
)

// Repository handles outlet persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to outlet operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a new outlet row.
func (r *Repository) Create(ctx context.Context, dto CreateOutletDTO) (*models.Outlet, error) {
	outlet := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(outlet).Error; err != nil {
		return nil, err
	}
	return outlet, nil
}

// FindByID loads an outlet by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Outlet, error) {
	var outlet models.Outlet
	if err := r.db.WithContext(ctx).First(&outlet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &outlet, nil
}

// FindByOwnerID returns the outlet owned by the provided user.
func (r *Repository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Outlet, error) {
	var outlet models.Outlet
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&outlet).Error; err != nil {
		return nil, err
	}
	return &outlet, nil
}

// FindBySlug loads an outlet by its URL slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Outlet, error) {
	var outlet models.Outlet
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&outlet).Error; err != nil {
		return nil, err
	}
	return &outlet, nil
}

// CountBySlugPrefix reports how many outlets already use the slug or a
// suffixed variant of it.
func (r *Repository) CountBySlugPrefix(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Outlet{}).
		Where("slug = ? OR slug LIKE ?", slug, slug+"-%").
		Count(&count).Error
	return count, err
}

// List returns active outlets ordered by creation time.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Outlet, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&models.Outlet{}).Where("is_active = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var outlets []models.Outlet
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&outlets).Error
	if err != nil {
		return nil, 0, err
	}
	return outlets, total, nil
}

// Update saves the provided outlet.
func (r *Repository) Update(ctx context.Context, outlet *models.Outlet) error {
	if outlet == nil {
		return fmt.Errorf("outlet is required")
	}
	return r.db.WithContext(ctx).Save(outlet).Error
}

// SetVerified flips the verification flag.
func (r *Repository) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Outlet{}).
		Where("id = ?", id).
		UpdateColumn("is_verified", verified)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteWithTx removes the outlet row using the provided transaction.
func (r *Repository) DeleteWithTx(tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Delete(&models.Outlet{}, "id = ?", id).Error
}

// DeleteProductsWithTx removes every product belonging to the outlet.
func (r *Repository) DeleteProductsWithTx(tx *gorm.DB, outletID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if err := tx.Exec(
		"DELETE FROM product_reviews WHERE product_id IN (SELECT id FROM products WHERE outlet_id = ?)",
		outletID,
	).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Product{}, "outlet_id = ?", outletID).Error
}
