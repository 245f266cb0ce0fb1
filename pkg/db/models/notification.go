package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/enums"
	"gorm.io/gorm"
)

// Notification is an admin-facing event such as a newly placed order.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Type      enums.NotificationType `gorm:"column:type;type:text;not null;index"`
	Title     string                 `gorm:"column:title;type:text;not null"`
	Message   string                 `gorm:"column:message;type:text;not null"`
	Data      map[string]any         `gorm:"column:data;type:jsonb;serializer:json"`
	CreatedBy *uuid.UUID             `gorm:"column:created_by;type:uuid"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

// CustomerNotification targets one user, or everyone when RecipientUserID is nil.
type CustomerNotification struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Type            enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title           string                 `gorm:"column:title;type:text;not null"`
	Message         string                 `gorm:"column:message;type:text;not null"`
	Meta            map[string]any         `gorm:"column:meta;type:jsonb;serializer:json"`
	RecipientUserID *uuid.UUID             `gorm:"column:recipient_user_id;type:uuid;index"`
	CreatedBy       *uuid.UUID             `gorm:"column:created_by;type:uuid"`
	IsActive        bool                   `gorm:"column:is_active;not null"`
	ScheduledAt     *time.Time             `gorm:"column:scheduled_at"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (n *CustomerNotification) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

// IsBroadcast reports whether the notification is addressed to every user.
func (n *CustomerNotification) IsBroadcast() bool {
	return n.RecipientUserID == nil
}

// VisibleAt reports whether listeners may see the notification at now.
func (n *CustomerNotification) VisibleAt(now time.Time) bool {
	if !n.IsActive {
		return false
	}
	return n.ScheduledAt == nil || !n.ScheduledAt.After(now)
}

// CustomerNotificationRead is a per-user read receipt.
type CustomerNotificationRead struct {
	ID                     uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerNotificationID uuid.UUID `gorm:"column:customer_notification_id;type:uuid;not null;uniqueIndex:idx_customer_notification_reads_pair"`
	UserID                 uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_customer_notification_reads_pair"`
	ReadAt                 time.Time `gorm:"column:read_at;not null"`
}

func (r *CustomerNotificationRead) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
