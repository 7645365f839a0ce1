package outlets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kwabenadarko/outlethub-backend/pkg/db/models"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	pkgerrors "github.com/kwabenadarko/outlethub-backend/pkg/errors"
	"github.com/kwabenadarko/outlethub-backend/pkg/types"
)

var slugSanitizeRe = regexp.MustCompile(`[^a-z0-9]+`)

// Actor identifies who is performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

type outletRepository interface {
	Create(ctx context.Context, dto CreateOutletDTO) (*models.Outlet, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Outlet, error)
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Outlet, error)
	FindBySlug(ctx context.Context, slug string) (*models.Outlet, error)
	CountBySlugPrefix(ctx context.Context, slug string) (int64, error)
	List(ctx context.Context, limit, offset int) ([]models.Outlet, int64, error)
	Update(ctx context.Context, outlet *models.Outlet) error
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error
	DeleteWithTx(tx *gorm.DB, id uuid.UUID) error
	DeleteProductsWithTx(tx *gorm.DB, outletID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateOutletInput captures the fields an owner submits for a new outlet.
type CreateOutletInput struct {
	Name        string         `json:"name" validate:"required,min=2"`
	Description *string        `json:"description,omitempty"`
	LogoURL     *string        `json:"logo_url,omitempty"`
	Address     *types.Address `json:"address,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
}

// UpdateOutletInput captures the mutable outlet fields.
type UpdateOutletInput struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	LogoURL     *string        `json:"logo_url,omitempty"`
	Address     *types.Address `json:"address,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
	IsActive    *bool          `json:"is_active,omitempty"`
}

// ListResult wraps one page of outlets.
type ListResult struct {
	Outlets []OutletDTO `json:"outlets"`
	Total   int64       `json:"total"`
}

// Service exposes outlet operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateOutletInput) (*OutletDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*OutletDTO, error)
	GetBySlug(ctx context.Context, slug string) (*OutletDTO, error)
	GetOwn(ctx context.Context, actor Actor) (*OutletDTO, error)
	List(ctx context.Context, limit, offset int) (*ListResult, error)
	Update(ctx context.Context, actor Actor, outletID uuid.UUID, input UpdateOutletInput) (*OutletDTO, error)
	SetVerified(ctx context.Context, actor Actor, outletID uuid.UUID, verified bool) error
	Delete(ctx context.Context, actor Actor, outletID uuid.UUID) error
}

type service struct {
	repo outletRepository
	tx   txRunner
}

// NewService builds an outlet service with the provided dependencies.
func NewService(repo outletRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("outlet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateOutletInput) (*OutletDTO, error) {
	if actor.Role != enums.UserRoleOutlet {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only outlet accounts can create outlets")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outlet name is required")
	}
	if input.Address != nil {
		if err := input.Address.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
		}
	}

	if _, err := s.repo.FindByOwnerID(ctx, actor.UserID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "owner already has an outlet")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing outlet")
	}

	slug, err := s.nextSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	outlet, err := s.repo.Create(ctx, CreateOutletDTO{
		OwnerID:     actor.UserID,
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		LogoURL:     input.LogoURL,
		Address:     input.Address,
		Phone:       input.Phone,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create outlet")
	}
	return FromModel(outlet), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*OutletDTO, error) {
	outlet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "outlet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load outlet")
	}
	return FromModel(outlet), nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*OutletDTO, error) {
	outlet, err := s.repo.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "outlet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load outlet")
	}
	return FromModel(outlet), nil
}

func (s *service) GetOwn(ctx context.Context, actor Actor) (*OutletDTO, error) {
	outlet, err := s.repo.FindByOwnerID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "outlet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load outlet")
	}
	return FromModel(outlet), nil
}

func (s *service) List(ctx context.Context, limit, offset int) (*ListResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}
	outlets, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list outlets")
	}
	result := &ListResult{Outlets: make([]OutletDTO, 0, len(outlets)), Total: total}
	for i := range outlets {
		result.Outlets = append(result.Outlets, *FromModel(&outlets[i]))
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, actor Actor, outletID uuid.UUID, input UpdateOutletInput) (*OutletDTO, error) {
	outlet, err := s.loadForWrite(ctx, actor, outletID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "outlet name cannot be empty")
		}
		outlet.Name = name
	}
	if input.Description != nil {
		outlet.Description = input.Description
	}
	if input.LogoURL != nil {
		outlet.LogoURL = input.LogoURL
	}
	if input.Address != nil {
		if err := input.Address.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
		}
		outlet.Address = input.Address
	}
	if input.Phone != nil {
		outlet.Phone = input.Phone
	}
	if input.IsActive != nil {
		outlet.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, outlet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update outlet")
	}
	return FromModel(outlet), nil
}

func (s *service) SetVerified(ctx context.Context, actor Actor, outletID uuid.UUID, verified bool) error {
	if actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can verify outlets")
	}
	if err := s.repo.SetVerified(ctx, outletID, verified); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "outlet not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set verified")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, actor Actor, outletID uuid.UUID) error {
	if _, err := s.loadForWrite(ctx, actor, outletID); err != nil {
		return err
	}

	// Products and their reviews go first so the outlet row never
	// leaves orphans behind.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.DeleteProductsWithTx(tx, outletID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete outlet products")
		}
		if err := s.repo.DeleteWithTx(tx, outletID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete outlet")
		}
		return nil
	})
	return err
}

func (s *service) loadForWrite(ctx context.Context, actor Actor, outletID uuid.UUID) (*models.Outlet, error) {
	outlet, err := s.repo.FindByID(ctx, outletID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "outlet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load outlet")
	}
	if actor.Role != enums.UserRoleAdmin && outlet.OwnerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the outlet owner")
	}
	return outlet, nil
}

func (s *service) nextSlug(ctx context.Context, name string) (string, error) {
	base := slugify(name)
	count, err := s.repo.CountBySlugPrefix(ctx, base)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count slugs")
	}
	if count == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s-%d", base, count+1), nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugSanitizeRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "outlet"
	}
	return slug
}
