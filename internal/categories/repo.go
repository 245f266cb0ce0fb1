package categories

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var sortColumns = map[string]string{
	"name":       "name",
	"sort_order": "sort_order",
	"created_at": "created_at",
}

// ListFilter narrows category listings.
type ListFilter struct {
	Search     string
	ActiveOnly bool
	CreatedBy  *uuid.UUID
	SortBy     string
	SortOrder  string
}

// Stats are the category counters shown on the admin dashboard.
type Stats struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	WithProducts int64 `json:"with_products"`
	Empty        int64 `json:"empty"`
}

// Repository persists categories.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repository) Save(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// SlugTaken reports whether slug belongs to a category other than exclude.
func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns categories ordered by sort, defaulting to sort_order then name.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Search)); q != "" {
		like := "%" + q + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", like, like)
	}

	if column, ok := sortColumns[filter.SortBy]; ok {
		desc := strings.EqualFold(filter.SortOrder, "desc")
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	} else {
		query = query.Order("sort_order ASC")
	}
	var rows []models.Category
	err := query.Order("name ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// ProductCounts counts products per category; activeOnly limits the count to live products.
func (r *Repository) ProductCounts(ctx context.Context, ids []uuid.UUID, activeOnly bool) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("category_id, COUNT(*) AS count").
		Where("category_id IN ?", ids)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var grouped []struct {
		CategoryID uuid.UUID
		Count      int64
	}
	if err := query.Group("category_id").Scan(&grouped).Error; err != nil {
		return nil, err
	}
	for _, row := range grouped {
		out[row.CategoryID] = row.Count
	}
	return out, nil
}

// Delete removes a category by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetSortOrder writes sort_order only.
func (r *Repository) SetSortOrder(ctx context.Context, id uuid.UUID, order int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"sort_order": order, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

// Stats counts categories, optionally scoped to one creator.
func (r *Repository) Stats(ctx context.Context, scope *uuid.UUID) (*Stats, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Category{})
		if scope != nil {
			q = q.Where("created_by = ?", *scope)
		}
		return q
	}
	stats := &Stats{}
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	err := base().
		Where("EXISTS (SELECT 1 FROM products p WHERE p.category_id = categories.id)").
		Count(&stats.WithProducts).
		Error
	if err != nil {
		return nil, err
	}
	stats.Empty = stats.Total - stats.WithProducts
	return stats, nil
}
