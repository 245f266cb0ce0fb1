package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
)

func TestRetentionStore_DeleteReadAdminBefore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := NewRetentionStore(db)
	now := time.Now().UTC()

	oldRead := now.Add(-40 * 24 * time.Hour)
	recentRead := now.Add(-24 * time.Hour)
	rows := []*models.Notification{
		{Type: enums.NotificationTypeOrderPlaced, Title: "old", Message: "read long ago", ReadAt: &oldRead},
		{Type: enums.NotificationTypeOrderPlaced, Title: "recent", Message: "read yesterday", ReadAt: &recentRead},
		{Type: enums.NotificationTypeOrderPaid, Title: "unread", Message: "never read"},
	}
	for _, n := range rows {
		require.NoError(t, db.Create(n).Error)
	}
	require.NoError(t, db.Model(&models.Notification{}).Where("id = ?", rows[2].ID).
		UpdateColumn("created_at", now.Add(-60*24*time.Hour)).Error)

	deleted, err := store.DeleteReadAdminBefore(ctx, nil, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []models.Notification
	require.NoError(t, db.Order("title").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, "recent", remaining[0].Title)
	assert.Equal(t, "unread", remaining[1].Title)
}

func TestRetentionStore_DeleteInactiveCustomerBefore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := NewRetentionStore(db)
	now := time.Now().UTC()
	old := now.Add(-120 * 24 * time.Hour)

	staleInactive := &models.CustomerNotification{Type: enums.NotificationTypeAlert, Title: "stale", Message: "gone", IsActive: false}
	recentInactive := &models.CustomerNotification{Type: enums.NotificationTypeAlert, Title: "paused", Message: "kept", IsActive: false}
	oldActive := &models.CustomerNotification{Type: enums.NotificationTypePromotion, Title: "evergreen", Message: "kept", IsActive: true}
	for _, n := range []*models.CustomerNotification{staleInactive, recentInactive, oldActive} {
		require.NoError(t, db.Create(n).Error)
	}
	require.NoError(t, db.Model(&models.CustomerNotification{}).
		Where("id IN ?", []uuid.UUID{staleInactive.ID, oldActive.ID}).
		UpdateColumn("updated_at", old).Error)
	require.NoError(t, db.Create(&models.CustomerNotificationRead{
		CustomerNotificationID: staleInactive.ID,
		UserID:                 uuid.New(),
		ReadAt:                 old,
	}).Error)
	require.NoError(t, db.Create(&models.CustomerNotificationRead{
		CustomerNotificationID: oldActive.ID,
		UserID:                 uuid.New(),
		ReadAt:                 old,
	}).Error)

	deleted, err := store.DeleteInactiveCustomerBefore(ctx, nil, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, db.Model(&models.CustomerNotification{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)

	var receipts []models.CustomerNotificationRead
	require.NoError(t, db.Find(&receipts).Error)
	require.Len(t, receipts, 1)
	assert.Equal(t, oldActive.ID, receipts[0].CustomerNotificationID)
}
