package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const unreadByUserClause = `NOT EXISTS (
  SELECT 1 FROM customer_notification_reads r
  WHERE r.customer_notification_id = customer_notifications.id AND r.user_id = ?
)`

// CustomerRepository persists customer notifications and their read receipts.
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository binds a customer notification repository to db.
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *CustomerRepository) WithTx(tx *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: tx}
}

func (r *CustomerRepository) Create(ctx context.Context, n *models.CustomerNotification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *CustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.CustomerNotification, error) {
	var n models.CustomerNotification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *CustomerRepository) Save(ctx context.Context, n *models.CustomerNotification) error {
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.CustomerNotification{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// ListAll pages every customer notification for the admin console, newest first.
func (r *CustomerRepository) ListAll(ctx context.Context, page pagination.Page) ([]models.CustomerNotification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomerNotification{})

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = pagination.NormalizePage(page)
	var rows []models.CustomerNotification
	err := query.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.PerPage).
		Offset(page.Offset()).
		Find(&rows).
		Error
	return rows, total, err
}

func (r *CustomerRepository) visibleTo(ctx context.Context, userID uuid.UUID, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.CustomerNotification{}).
		Where("is_active = ?", true).
		Where("(scheduled_at IS NULL OR scheduled_at <= ?)", now).
		Where("(recipient_user_id IS NULL OR recipient_user_id = ?)", userID)
}

// ListVisible pages the notifications userID may see at now, newest first.
func (r *CustomerRepository) ListVisible(ctx context.Context, userID uuid.UUID, now time.Time, limit int, cursor *pagination.Cursor) ([]models.CustomerNotification, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(limit)
	query := r.visibleTo(ctx, userID, now)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.CustomerNotification
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).
		Error
	if err != nil {
		return nil, nil, err
	}
	if len(rows) > normalized {
		last := rows[normalized-1]
		return rows[:normalized], &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

// ReadIDs returns which of ids userID has already read.
func (r *CustomerRepository) ReadIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var reads []models.CustomerNotificationRead
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND customer_notification_id IN ?", userID, ids).
		Find(&reads).
		Error
	if err != nil {
		return nil, err
	}
	for _, read := range reads {
		out[read.CustomerNotificationID] = true
	}
	return out, nil
}

// CountUnread counts visible notifications without a read receipt for userID.
func (r *CustomerRepository) CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.visibleTo(ctx, userID, now).
		Where(unreadByUserClause, userID).
		Count(&count).
		Error
	return count, err
}

// MarkRead records a receipt; an existing receipt is kept as is.
func (r *CustomerRepository) MarkRead(ctx context.Context, notificationID, userID uuid.UUID, now time.Time) error {
	receipt := &models.CustomerNotificationRead{
		CustomerNotificationID: notificationID,
		UserID:                 userID,
		ReadAt:                 now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_notification_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(receipt).
		Error
}

// MarkAllRead writes receipts for every visible unread notification and returns how many.
func (r *CustomerRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var ids []uuid.UUID
	err := r.visibleTo(ctx, userID, now).
		Where(unreadByUserClause, userID).
		Pluck("id", &ids).
		Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}

	receipts := make([]models.CustomerNotificationRead, 0, len(ids))
	for _, id := range ids {
		receipts = append(receipts, models.CustomerNotificationRead{
			CustomerNotificationID: id,
			UserID:                 userID,
			ReadAt:                 now,
		})
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&receipts)
	return res.RowsAffected, res.Error
}
