package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

var sortColumns = map[string]string{
	"name":          "name",
	"email":         "email",
	"created_at":    "created_at",
	"last_login_at": "last_login_at",
}

// AdminFilter narrows the admin user listing.
type AdminFilter struct {
	Search    string
	Role      *enums.UserRole
	IsActive  *bool
	SortBy    string
	SortOrder string
	Page      pagination.Page
}

// Activity aggregates what a user has done in the shop.
type Activity struct {
	OrdersCount   int64
	TotalSpent    decimal.Decimal
	ProductsCount int64
}

// Stats are the user counters shown on the admin dashboard.
type Stats struct {
	Total               int64 `json:"total"`
	Admins              int64 `json:"admins"`
	Customers           int64 `json:"customers"`
	Active              int64 `json:"active"`
	WithOrders          int64 `json:"with_orders"`
	RecentRegistrations int64 `json:"recent_registrations"`
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Save updates every column of the user.
func (r *Repository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// Delete removes a user by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EmailTaken reports whether email belongs to a user other than exclude.
func (r *Repository) EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ? AND id <> ?", email, exclude).
		Count(&count).
		Error
	return count > 0, err
}

// List returns one page of users matching filter plus the total match count.
func (r *Repository) List(ctx context.Context, filter AdminFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if q := strings.ToLower(strings.TrimSpace(filter.Search)); q != "" {
		like := "%" + q + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", like, like)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	desc := !strings.EqualFold(filter.SortOrder, "asc")
	page := pagination.NormalizePage(filter.Page)
	var rows []models.User
	err := query.Session(&gorm.Session{}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc}).
		Limit(page.PerPage).
		Offset(page.Offset()).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Activity loads order and catalog activity for the given users. Spend counts paid orders only.
func (r *Repository) Activity(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Activity, error) {
	out := make(map[uuid.UUID]Activity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var orderRows []struct {
		UserID      uuid.UUID
		OrdersCount int64
		TotalSpent  decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(
			"user_id, COUNT(*) AS orders_count, COALESCE(SUM(CASE WHEN payment_status = ? THEN total_amount ELSE 0 END), 0) AS total_spent",
			enums.PaymentStatusPaid,
		).
		Where("user_id IN ?", ids).
		Group("user_id").
		Scan(&orderRows).
		Error
	if err != nil {
		return nil, err
	}
	for _, row := range orderRows {
		a := out[row.UserID]
		a.OrdersCount = row.OrdersCount
		a.TotalSpent = row.TotalSpent
		out[row.UserID] = a
	}

	var productRows []struct {
		CreatedBy uuid.UUID
		Count     int64
	}
	err = r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("created_by, COUNT(*) AS count").
		Where("created_by IN ?", ids).
		Group("created_by").
		Scan(&productRows).
		Error
	if err != nil {
		return nil, err
	}
	for _, row := range productRows {
		a := out[row.CreatedBy]
		a.ProductsCount = row.Count
		out[row.CreatedBy] = a
	}
	return out, nil
}

// Stats counts users by role and activity; registrations at or after since count as recent.
func (r *Repository) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.User{})
	}
	stats := &Stats{}
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	admins := []enums.UserRole{enums.UserRoleAdmin, enums.UserRoleSuperAdmin}
	if err := base().Where("role IN ?", admins).Count(&stats.Admins).Error; err != nil {
		return nil, err
	}
	if err := base().Where("role = ?", enums.UserRoleCustomer).Count(&stats.Customers).Error; err != nil {
		return nil, err
	}
	if err := base().Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	err := base().
		Where("EXISTS (SELECT 1 FROM orders o WHERE o.user_id = users.id)").
		Count(&stats.WithOrders).
		Error
	if err != nil {
		return nil, err
	}
	if err := base().Where("created_at >= ?", since).Count(&stats.RecentRegistrations).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
