package creators

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	"gorm.io/gorm"
)

var adminRoles = []enums.UserRole{enums.UserRoleAdmin, enums.UserRoleSuperAdmin}

// Row is a creator account with a product count.
type Row struct {
	ID            uuid.UUID
	Name          string
	Email         string
	Avatar        *string
	Role          enums.UserRole
	IsActive      bool
	ProductsCount int64
	CreatedAt     time.Time
}

// Repository reads creator accounts joined with the products they created.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListPublic returns active accounts with at least one live product, busiest first.
func (r *Repository) ListPublic(ctx context.Context) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.name, users.email, users.avatar, users.role, users.is_active, users.created_at, COUNT(products.id) AS products_count").
		Joins("JOIN products ON products.created_by = users.id AND products.is_active = ?", true).
		Where("users.is_active = ?", true).
		Group("users.id, users.name, users.email, users.avatar, users.role, users.is_active, users.created_at").
		Order("products_count DESC").
		Order("users.name ASC").
		Scan(&rows).
		Error
	return rows, err
}

// ListAdmins returns every admin and super admin with the count of all their products.
func (r *Repository) ListAdmins(ctx context.Context) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.name, users.email, users.avatar, users.role, users.is_active, users.created_at, COUNT(products.id) AS products_count").
		Joins("LEFT JOIN products ON products.created_by = users.id").
		Where("users.role IN ?", adminRoles).
		Group("users.id, users.name, users.email, users.avatar, users.role, users.is_active, users.created_at").
		Order("users.name ASC").
		Scan(&rows).
		Error
	return rows, err
}

// FindPublic loads one active account with its live product count. Accounts that are not
// admins and have no live products are reported as not found.
func (r *Repository) FindPublic(ctx context.Context, id uuid.UUID) (*Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.name, users.email, users.avatar, users.role, users.is_active, users.created_at, COUNT(products.id) AS products_count").
		Joins("LEFT JOIN products ON products.created_by = users.id AND products.is_active = ?", true).
		Where("users.id = ? AND users.is_active = ?", id, true).
		Group("users.id, users.name, users.email, users.avatar, users.role, users.is_active, users.created_at").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || (!rows[0].Role.IsAdmin() && rows[0].ProductsCount == 0) {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// Role returns the role of id.
func (r *Repository) Role(ctx context.Context, id uuid.UUID) (enums.UserRole, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("id, role").First(&user, "id = ?", id).Error; err != nil {
		return "", err
	}
	return user.Role, nil
}
