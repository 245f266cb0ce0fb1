package orders

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

// HighValueThreshold is the order total from which the high_value filter matches.
var HighValueThreshold = decimal.NewFromInt(500)

const ownedProductClause = `EXISTS (
  SELECT 1 FROM order_items oi
  JOIN products p ON p.id = oi.product_id
  WHERE oi.order_id = orders.id AND p.created_by = ?
)`

var sortColumns = map[string]string{
	"created_at":   "created_at",
	"total_amount": "total_amount",
	"order_number": "order_number",
	"status":       "status",
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number = ?", number).
		Count(&count).
		Error
	return count > 0, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *repository) FindByStripeSession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "stripe_session_id = ?", sessionID).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = pagination.NormalizePage(page)
	var rows []models.Order
	err := query.Session(&gorm.Session{}).
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.PerPage).
		Offset(page.Offset()).
		Find(&rows).
		Error
	return rows, total, err
}

func (r *repository) List(ctx context.Context, filter AdminFilter) ([]models.Order, int64, error) {
	query := r.filtered(ctx, filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := pagination.NormalizePage(filter.Page)
	var rows []models.Order
	err := applySort(query.Session(&gorm.Session{}), filter).
		Preload("Items").
		Limit(page.PerPage).
		Offset(page.Offset()).
		Find(&rows).
		Error
	return rows, total, err
}

func (r *repository) ListForExport(ctx context.Context, filter AdminFilter, limit int) ([]models.Order, error) {
	var rows []models.Order
	query := applySort(r.filtered(ctx, filter), filter).Preload("Items")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repository) filtered(ctx context.Context, filter AdminFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.ScopeCreatedBy != nil {
		query = query.Where(ownedProductClause, *filter.ScopeCreatedBy)
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Search)); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"(LOWER(order_number) LIKE ? OR LOWER(shipping_email) LIKE ? OR LOWER(shipping_first_name || ' ' || shipping_last_name) LIKE ?)",
			like, like, like,
		)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at < ?", filter.DateTo.AddDate(0, 0, 1))
	}
	if filter.HighValue {
		query = query.Where("total_amount >= ?", HighValueThreshold)
	}
	if filter.RecentSince != nil {
		query = query.Where("created_at >= ?", *filter.RecentSince)
	}
	return query
}

func applySort(query *gorm.DB, filter AdminFilter) *gorm.DB {
	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	desc := !strings.EqualFold(filter.SortOrder, "asc")
	return query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

func (r *repository) Stats(ctx context.Context, scope *uuid.UUID, dayStart time.Time) (*Stats, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Order{})
		if scope != nil {
			q = q.Where(ownedProductClause, *scope)
		}
		return q
	}

	stats := &Stats{ByStatus: make(map[enums.OrderStatus]int64)}
	for _, status := range enums.OrderStatuses() {
		stats.ByStatus[status] = 0
	}

	var grouped []struct {
		Status enums.OrderStatus
		Count  int64
	}
	if err := base().Select("status, COUNT(*) AS count").Group("status").Scan(&grouped).Error; err != nil {
		return nil, err
	}
	for _, row := range grouped {
		stats.ByStatus[row.Status] = row.Count
		stats.TotalOrders += row.Count
	}

	var paid struct {
		Revenue decimal.Decimal
		Orders  int64
	}
	err := base().
		Select("COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS orders").
		Where("payment_status = ?", enums.PaymentStatusPaid).
		Scan(&paid).
		Error
	if err != nil {
		return nil, err
	}
	stats.PaidRevenue = paid.Revenue.Round(2)
	stats.PaidOrders = paid.Orders
	stats.AverageOrderValue = decimal.Zero
	if paid.Orders > 0 {
		stats.AverageOrderValue = paid.Revenue.Div(decimal.NewFromInt(paid.Orders)).Round(2)
	}

	if err := base().Where("created_at >= ?", dayStart).Count(&stats.TodayOrders).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *repository) PaidSince(ctx context.Context, scope *uuid.UUID, since time.Time) ([]RevenueRow, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("created_at, total_amount").
		Where("payment_status = ?", enums.PaymentStatusPaid).
		Where("created_at >= ?", since)
	if scope != nil {
		query = query.Where(ownedProductClause, *scope)
	}
	var rows []RevenueRow
	err := query.Order("created_at ASC").Scan(&rows).Error
	return rows, err
}

// ContainsProductsBy reports whether the order has a line for a product created by createdBy.
func (r *repository) ContainsProductsBy(ctx context.Context, orderID, createdBy uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Where(ownedProductClause, createdBy).
		Count(&count).
		Error
	return count > 0, err
}
