package models

import "time"

// AppSettingsID is the primary key of the single settings row.
const AppSettingsID = 1

// AppSetting holds the process-wide feature toggles editable by admins.
type AppSetting struct {
	ID              int       `gorm:"column:id;primaryKey"`
	AllowRegister   bool      `gorm:"column:allow_register;not null"`
	MaintenanceMode bool      `gorm:"column:maintenance_mode;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// DefaultAppSetting is used until an admin saves the first row.
func DefaultAppSetting() AppSetting {
	return AppSetting{ID: AppSettingsID, AllowRegister: true}
}
