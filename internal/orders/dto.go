package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/types"
)

// OrderItemDTO is a line as returned to clients.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Size        *string         `json:"size,omitempty"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// StatusChangeDTO is one entry of an order's status history.
type StatusChangeDTO struct {
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	ChangedBy  *uuid.UUID        `json:"changed_by,omitempty"`
	Note       *string           `json:"note,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// OrderDTO is the order representation shared by customer and admin endpoints.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	OrderNumber     string                `json:"order_number"`
	UserID          *uuid.UUID            `json:"user_id,omitempty"`
	Status          enums.OrderStatus     `json:"status"`
	PaymentStatus   enums.PaymentStatus   `json:"payment_status"`
	PaymentMethod   enums.PaymentMethod   `json:"payment_method"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	TaxAmount       decimal.Decimal       `json:"tax_amount"`
	ShippingAmount  decimal.Decimal       `json:"shipping_amount"`
	DiscountAmount  decimal.Decimal       `json:"discount_amount"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	Notes           *string               `json:"notes,omitempty"`
	TrackingNumber  *string               `json:"tracking_number,omitempty"`
	ShippedAt       *time.Time            `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time            `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
	Items           []OrderItemDTO        `json:"items"`
	History         []StatusChangeDTO     `json:"history,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// OrderListResult is a page of orders.
type OrderListResult struct {
	Items []OrderDTO     `json:"items"`
	Meta  types.PageMeta `json:"meta"`
}

// RevenuePoint is one bucket of the revenue chart.
type RevenuePoint struct {
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// NewOrderDTO maps a stored order to its client representation.
func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		UserID:          order.UserID,
		Status:          order.Status,
		PaymentStatus:   order.PaymentStatus,
		PaymentMethod:   order.PaymentMethod,
		Subtotal:        order.Subtotal,
		TaxAmount:       order.TaxAmount,
		ShippingAmount:  order.ShippingAmount,
		DiscountAmount:  order.DiscountAmount,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		Notes:           order.Notes,
		TrackingNumber:  order.TrackingNumber,
		ShippedAt:       order.ShippedAt,
		DeliveredAt:     order.DeliveredAt,
		CancelledAt:     order.CancelledAt,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Size:        item.Size,
			LineTotal:   item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return dto
}

func newStatusChangeDTOs(rows []models.OrderStatusHistory) []StatusChangeDTO {
	out := make([]StatusChangeDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, StatusChangeDTO{
			FromStatus: row.FromStatus,
			ToStatus:   row.ToStatus,
			ChangedBy:  row.ChangedBy,
			Note:       row.Note,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out
}
