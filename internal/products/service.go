package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kwabenadarko/outlethub-backend/pkg/db/models"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	pkgerrors "github.com/kwabenadarko/outlethub-backend/pkg/errors"
)

// Actor identifies who is performing an operation. OutletID is only set
// for outlet-role tokens whose owner has an outlet.
type Actor struct {
	UserID   uuid.UUID
	Role     enums.UserRole
	OutletID *uuid.UUID
}

type productRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, *OutletSummary, error)
	ListProductSummaries(ctx context.Context, query productListQuery) (*ProductListResult, error)
	ListProductsByOutlet(ctx context.Context, outletID uuid.UUID, includeInactive bool) ([]models.Product, error)
	ListReviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, error)
	WithTx(tx *gorm.DB) *Repository
}

type reviewStore interface {
	UpsertReview(ctx context.Context, review *models.ProductReview) (*models.ProductReview, error)
	RecomputeRating(ctx context.Context, productID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateProductInput captures the fields an owner submits for a new product.
type CreateProductInput struct {
	Name               string   `json:"name" validate:"required,min=2"`
	Description        *string  `json:"description,omitempty"`
	Category           string   `json:"category" validate:"required"`
	PriceCents         int64    `json:"price_cents" validate:"required,gt=0"`
	DiscountPriceCents *int64   `json:"discount_price_cents,omitempty" validate:"omitempty,gt=0"`
	Stock              int      `json:"stock" validate:"gte=0"`
	Images             []string `json:"images" validate:"required,min=1,dive,required"`
}

// UpdateProductInput captures the mutable product fields. Nil pointers
// leave the stored value untouched.
type UpdateProductInput struct {
	Name               *string   `json:"name,omitempty"`
	Description        *string   `json:"description,omitempty"`
	Category           *string   `json:"category,omitempty"`
	PriceCents         *int64    `json:"price_cents,omitempty"`
	DiscountPriceCents *int64    `json:"discount_price_cents,omitempty"`
	Stock              *int      `json:"stock,omitempty"`
	Images             *[]string `json:"images,omitempty"`
	IsActive           *bool     `json:"is_active,omitempty"`
}

// AddReviewInput carries a customer's rating submission.
type AddReviewInput struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty"`
}

// Service exposes catalog operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, actor Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, actor Actor, productID uuid.UUID) error
	Get(ctx context.Context, productID uuid.UUID) (*ProductDetail, error)
	List(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	ListOwn(ctx context.Context, actor Actor) ([]ProductDTO, error)
	SetFeatured(ctx context.Context, actor Actor, productID uuid.UUID, featured bool) error
	AddReview(ctx context.Context, actor Actor, productID uuid.UUID, input AddReviewInput) (*ReviewDTO, error)
	ListReviews(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error)
}

type service struct {
	repo       productRepository
	tx         txRunner
	reviewRepo func(tx *gorm.DB) reviewStore
}

// ServiceParams bundles the product service dependencies.
type ServiceParams struct {
	Repo productRepository
	Tx   txRunner
	// ReviewStoreFactory lets tests swap the tx-bound review store.
	ReviewStoreFactory func(tx *gorm.DB) reviewStore
}

// NewService builds a product service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	factory := params.ReviewStoreFactory
	if factory == nil {
		factory = func(tx *gorm.DB) reviewStore {
			return NewRepository(tx)
		}
	}
	return &service{repo: params.Repo, tx: params.Tx, reviewRepo: factory}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateProductInput) (*ProductDTO, error) {
	if err := requireOutletActor(actor); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.DiscountPriceCents != nil && (*input.DiscountPriceCents <= 0 || *input.DiscountPriceCents >= input.PriceCents) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount price must be positive and below the list price")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if len(input.Images) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
	}
	category, err := enums.ParseProductCategory(input.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}

	product, err := s.repo.CreateProduct(ctx, &models.Product{
		OutletID:           *actor.OutletID,
		Name:               name,
		Description:        input.Description,
		Category:           category,
		PriceCents:         input.PriceCents,
		DiscountPriceCents: input.DiscountPriceCents,
		Stock:              input.Stock,
		Images:             input.Images,
		IsActive:           true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, actor Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadForWrite(ctx, actor, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		category, err := enums.ParseProductCategory(*input.Category)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		product.Category = category
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.DiscountPriceCents != nil {
		if *input.DiscountPriceCents <= 0 || *input.DiscountPriceCents >= product.PriceCents {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount price must be positive and below the list price")
		}
		product.DiscountPriceCents = input.DiscountPriceCents
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.Images != nil {
		if len(*input.Images) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
		}
		product.Images = *input.Images
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, actor Actor, productID uuid.UUID) error {
	if _, err := s.loadForWrite(ctx, actor, productID); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*ProductDetail, error) {
	product, outlet, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	detail := &ProductDetail{Product: *FromModel(product)}
	if outlet != nil {
		detail.Outlet = *outlet
	}
	return detail, nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	result, err := s.repo.ListProductSummaries(ctx, productListQuery{
		Pagination:      input.Pagination,
		Filters:         input.Filters,
		OutletID:        input.OutletID,
		IncludeInactive: input.IncludeInactive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return result, nil
}

func (s *service) ListOwn(ctx context.Context, actor Actor) ([]ProductDTO, error) {
	if err := requireOutletActor(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListProductsByOutlet(ctx, *actor.OutletID, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list own products")
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nil
}

func (s *service) SetFeatured(ctx context.Context, actor Actor, productID uuid.UUID, featured bool) error {
	if actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can feature products")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	product.IsFeatured = featured
	if _, err := s.repo.UpdateProduct(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return nil
}

func (s *service) AddReview(ctx context.Context, actor Actor, productID uuid.UUID, input AddReviewInput) (*ReviewDTO, error) {
	if actor.Role != enums.UserRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can review products")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	var saved *models.ProductReview
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.reviewRepo(tx)
		review, err := store.UpsertReview(ctx, &models.ProductReview{
			ProductID: productID,
			UserID:    actor.UserID,
			Rating:    input.Rating,
			Comment:   input.Comment,
		})
		if err != nil {
			return err
		}
		saved = review
		// The denormalized rating columns stay in step with the review
		// rows only because both writes share this transaction.
		return store.RecomputeRating(ctx, productID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save review")
	}
	return ReviewFromModel(saved), nil
}

func (s *service) ListReviews(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.repo.ListReviews(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	dtos := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *ReviewFromModel(&rows[i]))
	}
	return dtos, nil
}

func (s *service) loadForWrite(ctx context.Context, actor Actor, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if actor.Role == enums.UserRoleAdmin {
		return product, nil
	}
	if actor.Role == enums.UserRoleOutlet && actor.OutletID != nil && *actor.OutletID == product.OutletID {
		return product, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another outlet")
}

func requireOutletActor(actor Actor) error {
	if actor.Role != enums.UserRoleOutlet {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only outlet accounts can manage products")
	}
	if actor.OutletID == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "create an outlet before managing products")
	}
	return nil
}
