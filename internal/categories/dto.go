package categories

import (
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/db/models"
)

// CategoryDTO is the category payload with its product count.
type CategoryDTO struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Description   *string    `json:"description,omitempty"`
	Image         *string    `json:"image,omitempty"`
	IsActive      bool       `json:"is_active"`
	SortOrder     int        `json:"sort_order"`
	Featured      bool       `json:"featured"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty"`
	ProductsCount int64      `json:"products_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func NewCategoryDTO(c *models.Category, productsCount int64) CategoryDTO {
	return CategoryDTO{
		ID:            c.ID,
		Name:          c.Name,
		Slug:          c.Slug,
		Description:   c.Description,
		Image:         c.Image,
		IsActive:      c.IsActive,
		SortOrder:     c.SortOrder,
		Featured:      c.Featured,
		CreatedBy:     c.CreatedBy,
		ProductsCount: productsCount,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
