package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/pricing"
	"github.com/threadline/threadline-backend/pkg/types"
	"gorm.io/gorm"
)

// Product is a catalog entry with total and optional per-size stock.
type Product struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name                string           `gorm:"column:name;type:text;not null"`
	Description         *string          `gorm:"column:description;type:text"`
	CategoryID          *uuid.UUID       `gorm:"column:category_id;type:uuid;index"`
	Image               *string          `gorm:"column:image;type:text"`
	Price               decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	PromotionPercentage int              `gorm:"column:promotion_percentage;not null"`
	PromoPrice          *decimal.Decimal `gorm:"column:promo_price;type:numeric(10,2)"`
	Stock               int              `gorm:"column:stock;not null"`
	SizeStock           types.SizeStock  `gorm:"column:size_stock;type:jsonb"`
	IsActive            bool             `gorm:"column:is_active;not null"`
	CreatedBy           *uuid.UUID       `gorm:"column:created_by;type:uuid;index"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// BeforeSave keeps promo_price and the size-derived total in step with their sources.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.PromoPrice = pricing.PromoPrice(p.Price, p.PromotionPercentage)
	p.SyncStock()
	return nil
}

// EffectivePrice is the unit price a customer pays today.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.PromoPrice != nil {
		return *p.PromoPrice
	}
	return p.Price
}

// SyncStock derives the total from size stock when the product is sized.
func (p *Product) SyncStock() {
	if p.SizeStock.Has() {
		p.Stock = p.SizeStock.Total()
	}
}
