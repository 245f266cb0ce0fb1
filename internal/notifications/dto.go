package notifications

import (
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/types"
)

// NotificationDTO is the admin notification payload.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]any         `json:"data,omitempty"`
	CreatedBy *uuid.UUID             `json:"created_by,omitempty"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func NewNotificationDTO(n *models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		CreatedBy: n.CreatedBy,
		IsRead:    n.ReadAt != nil,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// CustomerNotificationDTO is the customer notification payload. IsRead is only
// meaningful on per-user listings.
type CustomerNotificationDTO struct {
	ID              uuid.UUID              `json:"id"`
	Type            enums.NotificationType `json:"type"`
	Title           string                 `json:"title"`
	Message         string                 `json:"message"`
	Meta            map[string]any         `json:"meta,omitempty"`
	RecipientUserID *uuid.UUID             `json:"recipient_user_id,omitempty"`
	IsActive        bool                   `json:"is_active"`
	ScheduledAt     *time.Time             `json:"scheduled_at,omitempty"`
	IsRead          bool                   `json:"is_read"`
	CreatedAt       time.Time              `json:"created_at"`
}

func NewCustomerNotificationDTO(n *models.CustomerNotification) CustomerNotificationDTO {
	return CustomerNotificationDTO{
		ID:              n.ID,
		Type:            n.Type,
		Title:           n.Title,
		Message:         n.Message,
		Meta:            n.Meta,
		RecipientUserID: n.RecipientUserID,
		IsActive:        n.IsActive,
		ScheduledAt:     n.ScheduledAt,
		CreatedAt:       n.CreatedAt,
	}
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []NotificationDTO `json:"items"`
	Cursor string            `json:"cursor"`
}

// CustomerListResult is a cursor page of a user's notifications.
type CustomerListResult struct {
	Items  []CustomerNotificationDTO `json:"items"`
	Cursor string                    `json:"cursor"`
}

// CustomerPageResult is an offset page for the admin console.
type CustomerPageResult struct {
	Items []CustomerNotificationDTO `json:"items"`
	Meta  types.PageMeta            `json:"meta"`
}
