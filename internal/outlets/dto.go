package outlets

import (
	"time"

	"github.com/google/uuid"

	"github.com/kwabenadarko/outlethub-backend/pkg/db/models"
	"github.com/kwabenadarko/outlethub-backend/pkg/types"
)

// OutletDTO exposes safe outlet data in API responses.
type OutletDTO struct {
	ID          uuid.UUID      `json:"id"`
	OwnerID     uuid.UUID      `json:"owner_id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description *string        `json:"description,omitempty"`
	LogoURL     *string        `json:"logo_url,omitempty"`
	Address     *types.Address `json:"address,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
	IsVerified  bool           `json:"is_verified"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateOutletDTO holds creation-time data for a new outlet.
type CreateOutletDTO struct {
	OwnerID     uuid.UUID
	Name        string
	Slug        string
	Description *string
	LogoURL     *string
	Address     *types.Address
	Phone       *string
}

// FromModel maps the persisted outlet into a DTO.
func FromModel(m *models.Outlet) *OutletDTO {
	if m == nil {
		return nil
	}

	dto := &OutletDTO{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		LogoURL:     m.LogoURL,
		Phone:       m.Phone,
		IsVerified:  m.IsVerified,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Address != nil {
		cpy := *m.Address
		dto.Address = &cpy
	}
	return dto
}

// ToModel converts the creation DTO into a persistence model.
func (c CreateOutletDTO) ToModel() *models.Outlet {
	return &models.Outlet{
		OwnerID:     c.OwnerID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		LogoURL:     c.LogoURL,
		Address:     c.Address,
		Phone:       c.Phone,
		IsActive:    true,
	}
}
