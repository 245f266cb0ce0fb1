package enums

// NotificationType tags admin and customer notifications.
type NotificationType string

const (
	NotificationTypeOrderPlaced NotificationType = "order.placed"
	NotificationTypeOrderPaid   NotificationType = "order.paid"
	NotificationTypeInfo        NotificationType = "info"
	NotificationTypePromotion   NotificationType = "promotion"
	NotificationTypeAlert       NotificationType = "alert"
)

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid accepts any non-empty tag up to 64 chars; admins may create custom types.
func (n NotificationType) IsValid() bool {
	return n != "" && len(n) <= 64
}
