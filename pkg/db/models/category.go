package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products under a URL slug.
type Category struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name        string     `gorm:"column:name;type:text;not null"`
	Slug        string     `gorm:"column:slug;type:text;not null;uniqueIndex:idx_categories_slug"`
	Description *string    `gorm:"column:description;type:text"`
	Image       *string    `gorm:"column:image;type:text"`
	IsActive    bool       `gorm:"column:is_active;not null"`
	SortOrder   int        `gorm:"column:sort_order;not null"`
	Featured    bool       `gorm:"column:featured;not null"`
	CreatedBy   *uuid.UUID `gorm:"column:created_by;type:uuid;index"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
