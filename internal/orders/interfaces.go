package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the order ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	OrderNumberExists(ctx context.Context, number string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByStripeSession(ctx context.Context, sessionID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Order, int64, error)
	List(ctx context.Context, filter AdminFilter) ([]models.Order, int64, error)
	ListForExport(ctx context.Context, filter AdminFilter, limit int) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
	Stats(ctx context.Context, scope *uuid.UUID, dayStart time.Time) (*Stats, error)
	PaidSince(ctx context.Context, scope *uuid.UUID, since time.Time) ([]RevenueRow, error)
	ContainsProductsBy(ctx context.Context, orderID, createdBy uuid.UUID) (bool, error)
}

// AdminFilter holds the admin order list knobs. ScopeCreatedBy restricts results to
// orders containing at least one product created by that admin.
type AdminFilter struct {
	Search         string
	Status         *enums.OrderStatus
	PaymentStatus  *enums.PaymentStatus
	DateFrom       *time.Time
	DateTo         *time.Time
	HighValue      bool
	RecentSince    *time.Time
	SortBy         string
	SortOrder      string
	Page           pagination.Page
	ScopeCreatedBy *uuid.UUID
}

// Stats aggregates the admin dashboard counters.
type Stats struct {
	TotalOrders       int64                       `json:"total_orders"`
	ByStatus          map[enums.OrderStatus]int64 `json:"by_status"`
	PaidRevenue       decimal.Decimal             `json:"paid_revenue"`
	PaidOrders        int64                       `json:"paid_orders"`
	AverageOrderValue decimal.Decimal             `json:"average_order_value"`
	TodayOrders       int64                       `json:"today_orders"`
}

// RevenueRow is one paid order as seen by the revenue chart.
type RevenueRow struct {
	CreatedAt   time.Time
	TotalAmount decimal.Decimal
}
