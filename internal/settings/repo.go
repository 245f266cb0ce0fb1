package settings

import (
	"context"
	"errors"

	"github.com/threadline/threadline-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads and writes the single app settings row.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Load returns the stored settings or the defaults when no row exists yet.
func (r *Repository) Load(ctx context.Context) (models.AppSetting, error) {
	var row models.AppSetting
	err := r.db.WithContext(ctx).First(&row, "id = ?", models.AppSettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultAppSetting(), nil
	}
	return row, err
}

// Upsert writes the settings row.
func (r *Repository) Upsert(ctx context.Context, row *models.AppSetting) error {
	row.ID = models.AppSettingsID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"allow_register", "maintenance_mode", "updated_at"}),
		}).
		Create(row).
		Error
}
