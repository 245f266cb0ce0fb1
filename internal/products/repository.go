package products

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows the catalog listing.
type ListFilter struct {
	// Category is a category slug.
	Category     string
	Search       string
	Size         string
	IncludeDraft bool
	CreatedBy    *uuid.UUID
	Page         pagination.Page
}

// Repository persists catalog rows.
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

// FindByID loads the product without locking.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads products keyed by id; missing ids are simply absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// LockForUpdate takes row-level write locks on the given products in ascending id order
// so concurrent checkouts over overlapping products cannot deadlock. Must run inside a
// transaction.
func (r *Repository) LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	ordered := sortedUnique(ids)
	out := make(map[uuid.UUID]*models.Product, len(ordered))
	if len(ordered) == 0 {
		return out, nil
	}

	var rows []models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ordered).
		Order("id").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// SaveStock writes stock and size_stock only, leaving the rest of the row untouched.
func (r *Repository) SaveStock(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", p.ID).
		UpdateColumns(map[string]any{
			"stock":      p.Stock,
			"size_stock": p.SizeStock,
			"updated_at": now,
		}).
		Error
	if err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

// Create inserts a product row.
func (r *Repository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Save updates every column; BeforeSave re-derives promo price and total stock.
func (r *Repository) Save(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete removes a product by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CategoryExists reports whether a category row with id is present.
func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// List returns one page of products matching filter plus the total match count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if !filter.IncludeDraft {
		query = query.Where("is_active = ?", true)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		query = query.Where("category_id IN (SELECT id FROM categories WHERE slug = ?)", c)
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Search)); q != "" {
		like := "%" + q + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", like, like)
	}
	if size := strings.TrimSpace(filter.Size); size != "" {
		query = query.Where(r.sizeInStockExpr(), size)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := pagination.NormalizePage(filter.Page)
	var rows []models.Product
	err := query.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.PerPage).
		Offset(page.Offset()).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) sizeInStockExpr() string {
	if r.db.Dialector.Name() == "sqlite" {
		return "COALESCE(json_extract(size_stock, '$.\"' || ? || '\"'), 0) > 0"
	}
	return "COALESCE((size_stock ->> ?)::int, 0) > 0"
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
