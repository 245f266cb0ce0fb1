package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/auth"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/pagination"
	"github.com/threadline/threadline-backend/pkg/types"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog reads and admin catalog management.
type Service interface {
	List(ctx context.Context, input ListInput) (*ProductListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Stock(ctx context.Context, id uuid.UUID, size string) (*StockDTO, error)
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	AdjustStock(ctx context.Context, actor auth.Actor, id uuid.UUID, input StockInput) (*ProductDTO, error)
	SetPromotion(ctx context.Context, actor auth.Actor, id uuid.UUID, percentage int) (*ProductDTO, error)
}

// ListInput holds the public catalog filters.
type ListInput struct {
	Category string
	Search   string
	Size     string
	Page     pagination.Page
}

// CreateInput holds the validated payload to create a product.
type CreateInput struct {
	Name                string
	Description         *string
	CategoryID          *uuid.UUID
	Image               *string
	Price               decimal.Decimal
	PromotionPercentage int
	Stock               int
	SizeStock           map[string]int
	IsActive            bool
}

// UpdateInput holds optional mutation values for a product.
type UpdateInput struct {
	Name                *string
	Description         *string
	CategoryID          *uuid.UUID
	Image               *string
	Price               *decimal.Decimal
	PromotionPercentage *int
	Stock               *int
	SizeStock           *map[string]int
	IsActive            *bool
}

// StockInput is an admin stock correction.
type StockInput struct {
	Operation enums.StockOperation
	Quantity  int
	Size      string
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs the catalog service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ProductListResult, error) {
	page := pagination.NormalizePage(input.Page)
	rows, total, err := s.repo.List(ctx, ListFilter{
		Category: input.Category,
		Search:   input.Search,
		Size:     input.Size,
		Page:     page,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, NewProductDTO(&rows[i]))
	}
	return &ProductListResult{
		Items: items,
		Meta: types.PageMeta{
			Page:     page.Page,
			PerPage:  page.PerPage,
			Total:    total,
			LastPage: pagination.LastPage(total, page.PerPage),
		},
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Stock(ctx context.Context, id uuid.UUID, size string) (*StockDTO, error) {
	product, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	size = strings.TrimSpace(size)
	if size != "" && product.SizeStock.Has() {
		if _, ok := product.SizeStock.Available(size); !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "size %s not found", size)
		}
	}
	available := AvailableFor(product, size)
	out := &StockDTO{ProductID: product.ID, Available: available, InStock: available > 0}
	if size != "" {
		out.Size = &size
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*ProductDTO, error) {
	if err := validatePricing(input.Price, input.PromotionPercentage); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	sizeStock, err := normalizeSizeStock(input.SizeStock)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	creator := actor.UserID
	product := &models.Product{
		Name:                strings.TrimSpace(input.Name),
		Description:         trimPtr(input.Description),
		CategoryID:          input.CategoryID,
		Image:               trimPtr(input.Image),
		Price:               input.Price,
		PromotionPercentage: input.PromotionPercentage,
		Stock:               input.Stock,
		SizeStock:           sizeStock,
		IsActive:            input.IsActive,
		CreatedBy:           &creator,
	}
	if product.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}
	var out ProductDTO
	err := s.mutateLocked(ctx, actor, id, func(product *models.Product) error {
		return applyUpdate(product, input)
	}, func(repo *Repository, product *models.Product) error {
		return repo.Save(ctx, product)
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	product, err := s.load(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if !actor.OwnsResource(product.CreatedBy) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another admin")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) AdjustStock(ctx context.Context, actor auth.Actor, id uuid.UUID, input StockInput) (*ProductDTO, error) {
	var out ProductDTO
	err := s.mutateLocked(ctx, actor, id, func(product *models.Product) error {
		return ApplyStockOperation(product, input.Operation, input.Quantity, strings.TrimSpace(input.Size))
	}, func(repo *Repository, product *models.Product) error {
		return repo.SaveStock(ctx, product)
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) SetPromotion(ctx context.Context, actor auth.Actor, id uuid.UUID, percentage int) (*ProductDTO, error) {
	var out ProductDTO
	err := s.mutateLocked(ctx, actor, id, func(product *models.Product) error {
		if err := validatePricing(product.Price, percentage); err != nil {
			return err
		}
		product.PromotionPercentage = percentage
		return nil
	}, func(repo *Repository, product *models.Product) error {
		return repo.Save(ctx, product)
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// mutateLocked loads the product under a row lock, checks ownership, applies change and
// persists it with save, all in one transaction.
func (s *service) mutateLocked(
	ctx context.Context,
	actor auth.Actor,
	id uuid.UUID,
	change func(*models.Product) error,
	save func(*Repository, *models.Product) error,
	out *ProductDTO,
) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.LockForUpdate(ctx, []uuid.UUID{id})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
		}
		product, ok := locked[id]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if !actor.OwnsResource(product.CreatedBy) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another admin")
		}
		if err := change(product); err != nil {
			return err
		}
		if err := save(repo, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product")
		}
		*out = NewProductDTO(product)
		return nil
	})
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Product, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	ok, err := s.repo.CategoryExists(ctx, *id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "category not found").WithDetails(map[string]any{"field": "category_id"})
	}
	return nil
}

func applyUpdate(product *models.Product, input UpdateInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = trimPtr(input.Description)
	}
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.Image != nil {
		product.Image = trimPtr(input.Image)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.PromotionPercentage != nil {
		product.PromotionPercentage = *input.PromotionPercentage
	}
	if err := validatePricing(product.Price, product.PromotionPercentage); err != nil {
		return err
	}
	if input.SizeStock != nil {
		sizeStock, err := normalizeSizeStock(*input.SizeStock)
		if err != nil {
			return err
		}
		product.SizeStock = sizeStock
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		if product.SizeStock.Has() && *input.Stock != product.SizeStock.Total() {
			return pkgerrors.New(pkgerrors.CodeValidation, "stock of a sized product is the sum of its sizes")
		}
		product.Stock = *input.Stock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	return nil
}

func validatePricing(price decimal.Decimal, percentage int) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if percentage < 0 || percentage > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion_percentage must be between 0 and 100")
	}
	return nil
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
