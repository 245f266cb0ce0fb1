package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListByUser returns the user's lines with their products, oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).
		Error
	return rows, err
}

// ReplaceAll deletes every line for the user and inserts lines in their place.
func (r *Repository) ReplaceAll(ctx context.Context, userID uuid.UUID, lines []models.CartItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].UserID = userID
	}
	return tx.Omit("Product").Create(&lines).Error
}

// Clear removes every line for the user.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// RemoveProduct deletes the user's line for productID and reports whether one existed.
func (r *Repository) RemoveProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}
