package notifications

import (
	"context"
	"fmt"

	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
)

// Emitter turns order lifecycle events into stored notifications and pushes them to
// listeners. Callers treat its errors as best-effort.
type Emitter struct {
	admin       Repository
	customers   *CustomerService
	broadcaster *Broadcaster
}

// NewEmitter wires an emitter. customers may be nil when customer status updates are off.
func NewEmitter(admin Repository, customers *CustomerService, broadcaster *Broadcaster) (*Emitter, error) {
	if admin == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &Emitter{admin: admin, customers: customers, broadcaster: broadcaster}, nil
}

// OrderPlaced records a cash-on-delivery order for admins.
func (e *Emitter) OrderPlaced(ctx context.Context, order *models.Order) error {
	return e.emitAdmin(ctx, enums.NotificationTypeOrderPlaced, order,
		"New order received",
		fmt.Sprintf("Order %s was placed by %s for %s.", order.OrderNumber, order.ShippingAddress.FullName(), order.TotalAmount.StringFixed(2)),
	)
}

// OrderPaid records a card-paid order for admins.
func (e *Emitter) OrderPaid(ctx context.Context, order *models.Order) error {
	return e.emitAdmin(ctx, enums.NotificationTypeOrderPaid, order,
		"Order paid",
		fmt.Sprintf("Order %s was paid by card: %s.", order.OrderNumber, order.TotalAmount.StringFixed(2)),
	)
}

func (e *Emitter) emitAdmin(ctx context.Context, kind enums.NotificationType, order *models.Order, title, message string) error {
	n := &models.Notification{
		Type:      kind,
		Title:     title,
		Message:   message,
		Data:      orderData(order),
		CreatedBy: order.UserID,
	}
	if err := e.admin.Create(ctx, n); err != nil {
		return fmt.Errorf("store %s notification: %w", kind, err)
	}
	e.broadcaster.Admin(ctx, kind.String(), n)
	return nil
}

// OrderStatusChanged tells the order's owner about an admin status change.
func (e *Emitter) OrderStatusChanged(ctx context.Context, order *models.Order, from enums.OrderStatus) error {
	if e.customers == nil || order.UserID == nil {
		return nil
	}
	meta := orderData(order)
	meta["previous_status"] = from.String()
	if order.TrackingNumber != nil {
		meta["tracking_number"] = *order.TrackingNumber
	}
	n := &models.CustomerNotification{
		Type:            enums.NotificationTypeInfo,
		Title:           "Order update",
		Message:         fmt.Sprintf("Your order %s is now %s.", order.OrderNumber, order.Status),
		Meta:            meta,
		RecipientUserID: order.UserID,
		IsActive:        true,
	}
	if err := e.customers.Notify(ctx, n); err != nil {
		return fmt.Errorf("store order status notification: %w", err)
	}
	return nil
}

func orderData(order *models.Order) map[string]any {
	data := map[string]any{
		"order_id":       order.ID.String(),
		"order_number":   order.OrderNumber,
		"status":         order.Status.String(),
		"payment_status": order.PaymentStatus.String(),
		"payment_method": order.PaymentMethod.String(),
		"total_amount":   order.TotalAmount.StringFixed(2),
		"customer_name":  order.ShippingAddress.FullName(),
		"customer_email": order.ShippingAddress.Email,
	}
	if order.UserID != nil {
		data["user_id"] = order.UserID.String()
	}
	return data
}
