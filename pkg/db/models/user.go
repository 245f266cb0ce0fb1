package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/enums"
	"gorm.io/gorm"
)

// User is a shop account; admins share the table with customers.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name         string         `gorm:"column:name;type:text;not null"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex:idx_users_email"`
	PasswordHash string         `gorm:"column:password_hash;type:text;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;index"`
	IsActive     bool           `gorm:"column:is_active;not null"`
	Avatar       *string        `gorm:"column:avatar;type:text"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
