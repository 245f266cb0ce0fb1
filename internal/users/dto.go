package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/types"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Role        enums.UserRole `json:"role"`
	IsActive    bool           `json:"is_active"`
	Avatar      *string        `json:"avatar,omitempty"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Role         enums.UserRole
	Avatar       *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		Avatar:      u.Avatar,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.UserRoleCustomer
	}
	return &models.User{
		Name:         c.Name,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         role,
		IsActive:     true,
		Avatar:       c.Avatar,
	}
}

// AdminUserDTO is a user row in the admin listing with their order activity.
type AdminUserDTO struct {
	UserDTO
	OrdersCount   int64           `json:"orders_count"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	ProductsCount int64           `json:"products_count"`
}

// UserListResult is one page of the admin user listing.
type UserListResult struct {
	Items []AdminUserDTO `json:"items"`
	Meta  types.PageMeta `json:"meta"`
}

func newAdminUserDTO(u *models.User, activity Activity) AdminUserDTO {
	return AdminUserDTO{
		UserDTO:       *FromModel(u),
		OrdersCount:   activity.OrdersCount,
		TotalSpent:    activity.TotalSpent.Round(2),
		ProductsCount: activity.ProductsCount,
	}
}
