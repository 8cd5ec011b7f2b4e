package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node in the storefront taxonomy tree.
type Category struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name        string     `gorm:"column:name;not null;uniqueIndex"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex"`
	Description string     `gorm:"column:description"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	Parent      *Category  `gorm:"foreignKey:ParentID"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Brand groups products under a manufacturer label.
type Brand struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex"`
	Description string    `gorm:"column:description"`
	Website     string    `gorm:"column:website"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
