package wishlist

import (
	"context"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListByUser returns the user's saved products, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var rows []models.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).
		Error
	return rows, err
}

// ReplaceAll swaps the user's wishlist for productIDs.
func (r *Repository) ReplaceAll(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("user_id = ?", userID).Delete(&models.WishlistItem{}).Error; err != nil {
		return err
	}
	if len(productIDs) == 0 {
		return nil
	}
	rows := make([]models.WishlistItem, 0, len(productIDs))
	for _, id := range productIDs {
		rows = append(rows, models.WishlistItem{UserID: userID, ProductID: id})
	}
	return tx.Create(&rows).Error
}

// Clear removes every saved product for the user.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.WishlistItem{}).Error
}

// RemoveProduct deletes one saved product and reports whether it existed.
func (r *Repository) RemoveProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}
