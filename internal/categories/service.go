package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/auth"
	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"gorm.io/gorm"
)

// maxSlugAttempts bounds the -N suffix search for a free slug.
const maxSlugAttempts = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the public category reads and admin category management.
type Service interface {
	ListActive(ctx context.Context) ([]CategoryDTO, error)
	GetBySlug(ctx context.Context, slug string) (*CategoryDTO, error)

	List(ctx context.Context, actor auth.Actor, input ListInput) ([]CategoryDTO, error)
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*CategoryDTO, error)
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*CategoryDTO, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*CategoryDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	Reorder(ctx context.Context, actor auth.Actor, entries []ReorderEntry) error
	Stats(ctx context.Context, actor auth.Actor) (*Stats, error)
}

// ListInput holds admin listing filters.
type ListInput struct {
	Search    string
	SortBy    string
	SortOrder string
}

// CreateInput holds the validated payload to create a category.
type CreateInput struct {
	Name        string
	Slug        *string
	Description *string
	Image       *string
	IsActive    bool
	SortOrder   int
	Featured    bool
}

// UpdateInput holds optional mutation values for a category.
type UpdateInput struct {
	Name        *string
	Slug        *string
	Description *string
	Image       *string
	IsActive    *bool
	SortOrder   *int
	Featured    *bool
}

// ReorderEntry assigns a sort position to one category.
type ReorderEntry struct {
	ID        uuid.UUID
	SortOrder int
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs the category service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) ListActive(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx, ListFilter{ActiveOnly: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return s.withCounts(ctx, rows, true)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*CategoryDTO, error) {
	category, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, notFoundOr(err, "load category")
	}
	if !category.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return s.one(ctx, category, true)
}

// List scopes plain admins to the categories they created.
func (s *service) List(ctx context.Context, actor auth.Actor, input ListInput) ([]CategoryDTO, error) {
	filter := ListFilter{Search: input.Search, SortBy: input.SortBy, SortOrder: input.SortOrder}
	if !actor.IsSuperAdmin() {
		filter.CreatedBy = &actor.UserID
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return s.withCounts(ctx, rows, false)
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*CategoryDTO, error) {
	category, err := s.owned(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	return s.one(ctx, category, false)
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	creator := actor.UserID
	category := &models.Category{
		Name:        name,
		Description: trimPtr(input.Description),
		Image:       trimPtr(input.Image),
		IsActive:    input.IsActive,
		SortOrder:   input.SortOrder,
		Featured:    input.Featured,
		CreatedBy:   &creator,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		slug, err := s.resolveSlug(ctx, repo, name, input.Slug, nil)
		if err != nil {
			return err
		}
		category.Slug = slug
		if err := repo.Create(ctx, category); err != nil {
			if db.IsUniqueViolation(err, "idx_categories_slug") {
				return pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewCategoryDTO(category, 0)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*CategoryDTO, error) {
	var category *models.Category
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		category, err = s.owned(ctx, repo, actor, id)
		if err != nil {
			return err
		}

		renamed := false
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
			}
			renamed = name != category.Name
			category.Name = name
		}
		if input.Slug != nil || renamed {
			slug, err := s.resolveSlug(ctx, repo, category.Name, input.Slug, &category.ID)
			if err != nil {
				return err
			}
			category.Slug = slug
		}
		if input.Description != nil {
			category.Description = trimPtr(input.Description)
		}
		if input.Image != nil {
			category.Image = trimPtr(input.Image)
		}
		if input.IsActive != nil {
			category.IsActive = *input.IsActive
		}
		if input.SortOrder != nil {
			category.SortOrder = *input.SortOrder
		}
		if input.Featured != nil {
			category.Featured = *input.Featured
		}
		if err := repo.Save(ctx, category); err != nil {
			if db.IsUniqueViolation(err, "idx_categories_slug") {
				return pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save category")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.one(ctx, category, false)
}

// Delete refuses while any product still points at the category.
func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		category, err := s.owned(ctx, repo, actor, id)
		if err != nil {
			return err
		}
		counts, err := repo.ProductCounts(ctx, []uuid.UUID{category.ID}, false)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category products")
		}
		if n := counts[category.ID]; n > 0 {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "category still has %d products", n).
				WithDetails(map[string]any{"products_count": n})
		}
		if err := repo.Delete(ctx, category.ID); err != nil {
			return notFoundOr(err, "delete category")
		}
		return nil
	})
}

// Reorder applies every entry or none; plain admins may only move their own categories.
func (s *service) Reorder(ctx context.Context, actor auth.Actor, entries []ReorderEntry) error {
	if len(entries) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "categories are required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i, entry := range entries {
			if entry.SortOrder < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "sort_order cannot be negative").
					WithDetails(map[string]any{"index": i})
			}
			if _, err := s.owned(ctx, repo, actor, entry.ID); err != nil {
				return err
			}
			if _, err := repo.SetSortOrder(ctx, entry.ID, entry.SortOrder); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reorder categories")
			}
		}
		return nil
	})
}

func (s *service) Stats(ctx context.Context, actor auth.Actor) (*Stats, error) {
	var scope *uuid.UUID
	if !actor.IsSuperAdmin() {
		scope = &actor.UserID
	}
	stats, err := s.repo.Stats(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "category stats")
	}
	return stats, nil
}

// resolveSlug uses the requested slug verbatim when given and otherwise derives a free one
// from name by appending -1, -2 and so on.
func (s *service) resolveSlug(ctx context.Context, repo *Repository, name string, requested *string, exclude *uuid.UUID) (string, error) {
	if requested != nil && strings.TrimSpace(*requested) != "" {
		slug := Slugify(*requested)
		taken, err := repo.SlugTaken(ctx, slug, exclude)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
		}
		if taken {
			return "", pkgerrors.New(pkgerrors.CodeConflict, "slug already in use").WithDetails(map[string]any{"slug": slug})
		}
		return slug, nil
	}

	base := Slugify(name)
	for n := 0; n < maxSlugAttempts; n++ {
		candidate := withSuffix(base, n)
		taken, err := repo.SlugTaken(ctx, candidate, exclude)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", pkgerrors.Newf(pkgerrors.CodeConflict, "no free slug for %q", name)
}

func (s *service) owned(ctx context.Context, repo *Repository, actor auth.Actor, id uuid.UUID) (*models.Category, error) {
	category, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load category")
	}
	if !actor.OwnsResource(category.CreatedBy) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "category belongs to another admin")
	}
	return category, nil
}

func (s *service) one(ctx context.Context, category *models.Category, activeProducts bool) (*CategoryDTO, error) {
	out, err := s.withCounts(ctx, []models.Category{*category}, activeProducts)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *service) withCounts(ctx context.Context, rows []models.Category, activeProducts bool) ([]CategoryDTO, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}
	counts, err := s.repo.ProductCounts(ctx, ids, activeProducts)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category products")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewCategoryDTO(&rows[i], counts[rows[i].ID]))
	}
	return out, nil
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
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
