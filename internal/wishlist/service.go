package wishlist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/internal/products"
	"github.com/threadline/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

// Service manages saved-for-later products.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*WishlistDTO, error)
	Replace(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (*WishlistDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	RemoveProduct(ctx context.Context, userID, productID uuid.UUID) (*WishlistDTO, error)
}

// WishlistItemDTO is one saved product.
type WishlistItemDTO struct {
	Product products.ProductDTO `json:"product"`
	AddedAt time.Time           `json:"added_at"`
}

// WishlistDTO lists the saved products.
type WishlistDTO struct {
	Items []WishlistItemDTO `json:"items"`
	Count int               `json:"count"`
}

type service struct {
	repo    *Repository
	tx      txRunner
	catalog productLoader
}

// NewService builds the wishlist service.
func NewService(repo *Repository, tx txRunner, catalog productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*WishlistDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	out := &WishlistDTO{Items: make([]WishlistItemDTO, 0, len(rows))}
	for _, row := range rows {
		if row.Product == nil {
			continue
		}
		out.Items = append(out.Items, WishlistItemDTO{
			Product: products.NewProductDTO(row.Product),
			AddedAt: row.CreatedAt,
		})
	}
	out.Count = len(out.Items)
	return out, nil
}

// Replace swaps the wishlist for productIDs; duplicate ids collapse to one entry.
func (s *service) Replace(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (*WishlistDTO, error) {
	unique := make([]uuid.UUID, 0, len(productIDs))
	seen := make(map[uuid.UUID]struct{}, len(productIDs))
	for _, id := range productIDs {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := s.catalog.FindByIDs(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	for _, id := range unique {
		if p, ok := found[id]; !ok || !p.IsActive {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", id)
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceAll(ctx, userID, unique)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace wishlist")
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear wishlist")
	}
	return nil
}

func (s *service) RemoveProduct(ctx context.Context, userID, productID uuid.UUID) (*WishlistDTO, error) {
	removed, err := s.repo.RemoveProduct(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in wishlist")
	}
	return s.Get(ctx, userID)
}
