package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kwabenadarko/outlethub-backend/pkg/types"
)

// Outlet represents an independently owned storefront. Each owner
// account holds at most one outlet.
type Outlet struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID     uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;uniqueIndex"`
	Name        string         `gorm:"column:name;not null"`
	Slug        string         `gorm:"column:slug;not null;uniqueIndex"`
	Description *string        `gorm:"column:description"`
	LogoURL     *string        `gorm:"column:logo_url"`
	Address     *types.Address `gorm:"column:address;type:jsonb"`
	Phone       *string        `gorm:"column:phone"`
	IsVerified  bool           `gorm:"column:is_verified;not null;default:false"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	Owner       *User          `gorm:"foreignKey:OwnerID"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
