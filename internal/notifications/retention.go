package notifications

import (
	"context"
	"time"

	"github.com/threadline/threadline-backend/pkg/db/models"
	"gorm.io/gorm"
)

// RetentionStore removes notifications nobody needs anymore.
type RetentionStore struct {
	db *gorm.DB
}

func NewRetentionStore(db *gorm.DB) *RetentionStore {
	return &RetentionStore{db: db}
}

func (s *RetentionStore) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// DeleteReadAdminBefore drops admin notifications read before cutoff. Unread ones stay.
func (s *RetentionStore) DeleteReadAdminBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	res := s.conn(tx).WithContext(ctx).
		Where("read_at IS NOT NULL AND read_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// DeleteInactiveCustomerBefore drops deactivated customer notifications untouched since
// cutoff, with their read receipts.
func (s *RetentionStore) DeleteInactiveCustomerBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	db := s.conn(tx).WithContext(ctx)
	stale := db.Model(&models.CustomerNotification{}).
		Select("id").
		Where("is_active = ? AND updated_at < ?", false, cutoff)

	if err := db.Where("customer_notification_id IN (?)", stale).
		Delete(&models.CustomerNotificationRead{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("is_active = ? AND updated_at < ?", false, cutoff).
		Delete(&models.CustomerNotification{})
	return res.RowsAffected, res.Error
}
