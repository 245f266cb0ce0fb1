package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/types"
)

// ProductDTO is the catalog payload returned to clients.
type ProductDTO struct {
	ID                  uuid.UUID        `json:"id"`
	Name                string           `json:"name"`
	Description         *string          `json:"description,omitempty"`
	CategoryID          *uuid.UUID       `json:"category_id,omitempty"`
	Image               *string          `json:"image,omitempty"`
	Price               decimal.Decimal  `json:"price"`
	PromotionPercentage int              `json:"promotion_percentage"`
	PromoPrice          *decimal.Decimal `json:"promo_price"`
	EffectivePrice      decimal.Decimal  `json:"effective_price"`
	Stock               int              `json:"stock"`
	SizeStock           types.SizeStock  `json:"size_stock,omitempty"`
	Sizes               []string         `json:"sizes,omitempty"`
	IsActive            bool             `json:"is_active"`
	CreatedBy           *uuid.UUID       `json:"created_by,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// StockDTO answers the size-aware stock query.
type StockDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Size      *string   `json:"size,omitempty"`
	Available int       `json:"available"`
	InStock   bool      `json:"in_stock"`
}

// ProductListResult is one page of catalog results.
type ProductListResult struct {
	Items []ProductDTO   `json:"items"`
	Meta  types.PageMeta `json:"meta"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:                  p.ID,
		Name:                p.Name,
		Description:         p.Description,
		CategoryID:          p.CategoryID,
		Image:               p.Image,
		Price:               p.Price,
		PromotionPercentage: p.PromotionPercentage,
		PromoPrice:          p.PromoPrice,
		EffectivePrice:      p.EffectivePrice(),
		Stock:               p.Stock,
		IsActive:            p.IsActive,
		CreatedBy:           p.CreatedBy,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	if p.SizeStock.Has() {
		dto.SizeStock = p.SizeStock.Clone()
		dto.Sizes = p.SizeStock.Labels()
	}
	return dto
}
