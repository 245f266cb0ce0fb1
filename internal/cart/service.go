package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/internal/products"
	"github.com/threadline/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/pricing"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

// Service manages the per-user cart snapshot.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	Replace(ctx context.Context, userID uuid.UUID, lines []LineInput) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	RemoveProduct(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
}

// LineInput is one requested cart line.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	Size      string
}

// CartItemDTO is one cart line with its current price.
type CartItemDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Image     *string         `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	Size      *string         `json:"size,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Available int             `json:"available"`
}

// CartDTO is the full cart snapshot.
type CartDTO struct {
	Items     []CartItemDTO   `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type service struct {
	repo    *Repository
	tx      txRunner
	catalog productLoader
}

// NewService builds the cart service.
func NewService(repo *Repository, tx txRunner, catalog productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return buildCart(rows), nil
}

// Replace validates lines against the catalog and swaps the whole cart for them.
func (s *service) Replace(ctx context.Context, userID uuid.UUID, lines []LineInput) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		if _, dup := seen[line.ProductID]; dup {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "product %s listed more than once", line.ProductID)
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}

	found, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	rows := make([]models.CartItem, 0, len(lines))
	for _, line := range lines {
		product, ok := found[line.ProductID]
		if !ok || !product.IsActive {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", line.ProductID)
		}
		row := models.CartItem{ProductID: line.ProductID, Quantity: line.Quantity}
		if size := strings.TrimSpace(line.Size); size != "" {
			if product.SizeStock.Has() {
				if _, known := product.SizeStock.Available(size); !known {
					return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "size %s is not offered for %s", size, product.Name)
				}
			}
			row.Size = &size
		}
		rows = append(rows, row)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceAll(ctx, userID, rows)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace cart")
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) RemoveProduct(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	removed, err := s.repo.RemoveProduct(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	return s.Get(ctx, userID)
}

func buildCart(rows []models.CartItem) *CartDTO {
	out := &CartDTO{Items: make([]CartItemDTO, 0, len(rows)), Subtotal: decimal.Zero}
	for _, row := range rows {
		item := CartItemDTO{
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			Size:      row.Size,
			UnitPrice: decimal.Zero,
			LineTotal: decimal.Zero,
		}
		if row.Product != nil {
			size := ""
			if row.Size != nil {
				size = *row.Size
			}
			item.Name = row.Product.Name
			item.Image = row.Product.Image
			item.UnitPrice = row.Product.EffectivePrice()
			item.LineTotal = pricing.LineTotal(item.UnitPrice, row.Quantity)
			item.Available = products.AvailableFor(row.Product, size)
		}
		out.Items = append(out.Items, item)
		out.ItemCount += row.Quantity
		out.Subtotal = out.Subtotal.Add(item.LineTotal)
	}
	out.Subtotal = pricing.Round(out.Subtotal)
	return out
}
