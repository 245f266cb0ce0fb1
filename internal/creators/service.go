package creators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/internal/products"
	"github.com/threadline/threadline-backend/internal/users"
	"github.com/threadline/threadline-backend/pkg/auth"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/pagination"
	"github.com/threadline/threadline-backend/pkg/types"
	"gorm.io/gorm"
)

// DefaultPerPage is the page size of a creator's product grid.
const DefaultPerPage = 12

type catalog interface {
	List(ctx context.Context, filter products.ListFilter) ([]models.Product, int64, error)
}

type accounts interface {
	Create(ctx context.Context, actor auth.Actor, input users.CreateInput) (*users.UserDTO, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input users.UpdateInput) (*users.UserDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
}

// Service exposes the public creator pages and the admin creator roster.
type Service interface {
	List(ctx context.Context) ([]CreatorDTO, error)
	Get(ctx context.Context, id uuid.UUID, input ProductsInput) (*CreatorDetailDTO, error)

	AdminList(ctx context.Context) ([]AdminCreatorDTO, error)
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*users.UserDTO, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input users.UpdateInput) (*users.UserDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
}

// ProductsInput filters a creator's product grid.
type ProductsInput struct {
	Category string
	Page     pagination.Page
}

// CreateInput holds the payload to open an admin account.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Avatar   *string
}

// CreatorDTO is the public view of a creator.
type CreatorDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Avatar        *string   `json:"avatar,omitempty"`
	ProductsCount int64     `json:"products_count"`
}

// CreatorDetailDTO is a creator with one page of their live products.
type CreatorDetailDTO struct {
	Creator  CreatorDTO                  `json:"creator"`
	Products *products.ProductListResult `json:"products"`
}

// AdminCreatorDTO is a row of the admin creator roster.
type AdminCreatorDTO struct {
	CreatorDTO
	Email     string         `json:"email"`
	Role      enums.UserRole `json:"role"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
}

type service struct {
	repo     *Repository
	catalog  catalog
	accounts accounts
}

// NewService constructs the creators service.
func NewService(repo *Repository, catalog catalog, accounts accounts) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("creator repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("user service required")
	}
	return &service{repo: repo, catalog: catalog, accounts: accounts}, nil
}

func (s *service) List(ctx context.Context) ([]CreatorDTO, error) {
	rows, err := s.repo.ListPublic(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list creators")
	}
	out := make([]CreatorDTO, 0, len(rows))
	for i := range rows {
		out = append(out, publicDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, input ProductsInput) (*CreatorDetailDTO, error) {
	row, err := s.repo.FindPublic(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load creator")
	}

	page := input.Page
	if page.PerPage <= 0 {
		page.PerPage = DefaultPerPage
	}
	page = pagination.NormalizePage(page)
	rows, total, err := s.catalog.List(ctx, products.ListFilter{
		Category:  strings.TrimSpace(input.Category),
		CreatedBy: &row.ID,
		Page:      page,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list creator products")
	}
	items := make([]products.ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, products.NewProductDTO(&rows[i]))
	}
	return &CreatorDetailDTO{
		Creator: publicDTO(row),
		Products: &products.ProductListResult{
			Items: items,
			Meta: types.PageMeta{
				Page:     page.Page,
				PerPage:  page.PerPage,
				Total:    total,
				LastPage: pagination.LastPage(total, page.PerPage),
			},
		},
	}, nil
}

func (s *service) AdminList(ctx context.Context) ([]AdminCreatorDTO, error) {
	rows, err := s.repo.ListAdmins(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list creators")
	}
	out := make([]AdminCreatorDTO, 0, len(rows))
	for i := range rows {
		out = append(out, AdminCreatorDTO{
			CreatorDTO: publicDTO(&rows[i]),
			Email:      rows[i].Email,
			Role:       rows[i].Role,
			IsActive:   rows[i].IsActive,
			CreatedAt:  rows[i].CreatedAt,
		})
	}
	return out, nil
}

// Create opens a new admin account.
func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*users.UserDTO, error) {
	return s.accounts.Create(ctx, actor, users.CreateInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     enums.UserRoleAdmin,
		Avatar:   input.Avatar,
	})
}

// Update edits an admin account; customers are not creators and are reported as not found.
func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input users.UpdateInput) (*users.UserDTO, error) {
	if err := s.requireCreator(ctx, id); err != nil {
		return nil, err
	}
	return s.accounts.Update(ctx, actor, id, input)
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := s.requireCreator(ctx, id); err != nil {
		return err
	}
	return s.accounts.Delete(ctx, actor, id)
}

func (s *service) requireCreator(ctx context.Context, id uuid.UUID) error {
	role, err := s.repo.Role(ctx, id)
	if err != nil {
		return notFoundOr(err, "load creator")
	}
	if !role.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeNotFound, "creator not found")
	}
	return nil
}

func publicDTO(row *Row) CreatorDTO {
	return CreatorDTO{
		ID:            row.ID,
		Name:          row.Name,
		Avatar:        row.Avatar,
		ProductsCount: row.ProductsCount,
	}
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "creator not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
