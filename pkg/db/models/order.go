package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/types"
	"gorm.io/gorm"
)

// Order is a placed order with its totals and shipping snapshot.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID          *uuid.UUID            `gorm:"column:user_id;type:uuid;index"`
	OrderNumber     string                `gorm:"column:order_number;type:text;not null;uniqueIndex:idx_orders_order_number"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(10,2);not null"`
	TaxAmount       decimal.Decimal       `gorm:"column:tax_amount;type:numeric(10,2);not null"`
	ShippingAmount  decimal.Decimal       `gorm:"column:shipping_amount;type:numeric(10,2);not null"`
	DiscountAmount  decimal.Decimal       `gorm:"column:discount_amount;type:numeric(10,2);not null"`
	TotalAmount     decimal.Decimal       `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null;index"`
	PaymentStatus   enums.PaymentStatus   `gorm:"column:payment_status;type:text;not null;index"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null"`
	ShippingAddress types.ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_"`
	Notes           *string               `gorm:"column:notes;type:text"`
	TrackingNumber  *string               `gorm:"column:tracking_number;type:text"`
	StripeSessionID *string               `gorm:"column:stripe_session_id;type:text;uniqueIndex:idx_orders_stripe_session_id"`
	ShippedAt       *time.Time            `gorm:"column:shipped_at"`
	DeliveredAt     *time.Time            `gorm:"column:delivered_at"`
	CancelledAt     *time.Time            `gorm:"column:cancelled_at"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;references:ID"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// CanBeCancelled reports whether the order has not progressed past confirmation.
func (o *Order) CanBeCancelled() bool {
	return o.Status == enums.OrderStatusPending || o.Status == enums.OrderStatusConfirmed
}

// CanBeShipped reports whether the order is ready to leave the warehouse.
func (o *Order) CanBeShipped() bool {
	return o.Status == enums.OrderStatusConfirmed || o.Status == enums.OrderStatusProcessing
}

// CanBeRefunded reports whether a delivered, paid order may be refunded.
func (o *Order) CanBeRefunded() bool {
	return o.Status == enums.OrderStatusDelivered && o.PaymentStatus == enums.PaymentStatusPaid
}

// OrderItem is an immutable line with the unit price charged at purchase time.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	ProductName string          `gorm:"column:product_name;type:text;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Size        *string         `gorm:"column:size;type:text"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// OrderStatusHistory records every admin status change.
type OrderStatusHistory struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus enums.OrderStatus `gorm:"column:from_status;type:text;not null"`
	ToStatus   enums.OrderStatus `gorm:"column:to_status;type:text;not null"`
	ChangedBy  *uuid.UUID        `gorm:"column:changed_by;type:uuid"`
	Note       *string           `gorm:"column:note;type:text"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_histories"
}

func (h *OrderStatusHistory) BeforeCreate(tx *gorm.DB) error {
	ensureID(&h.ID)
	return nil
}
