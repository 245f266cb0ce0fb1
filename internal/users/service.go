package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/auth"
	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/pagination"
	"github.com/threadline/threadline-backend/pkg/security"
	"github.com/threadline/threadline-backend/pkg/types"
	"gorm.io/gorm"
)

const (
	// MinPasswordLength applies to passwords set by an admin.
	MinPasswordLength = 8

	recentRegistrationWindow = 30 * 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the admin user management surface.
type Service interface {
	List(ctx context.Context, input ListInput) (*UserListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*AdminUserDTO, error)
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*UserDTO, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*UserDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	ResetPassword(ctx context.Context, actor auth.Actor, id uuid.UUID, password string) error
	Stats(ctx context.Context) (*Stats, error)
}

// ListInput holds the admin listing filters.
type ListInput struct {
	Search    string
	Role      *enums.UserRole
	IsActive  *bool
	SortBy    string
	SortOrder string
	Page      pagination.Page
}

// CreateInput holds the validated payload for an admin-created account.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     enums.UserRole
	Avatar   *string
}

// UpdateInput holds optional account changes.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *enums.UserRole
	IsActive *bool
	Avatar   *string
}

type service struct {
	repo        *Repository
	tx          txRunner
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService constructs the admin user service.
func NewService(repo *Repository, tx txRunner, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		passwordCfg: passwordCfg,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*UserListResult, error) {
	page := pagination.NormalizePage(input.Page)
	rows, total, err := s.repo.List(ctx, AdminFilter{
		Search:    input.Search,
		Role:      input.Role,
		IsActive:  input.IsActive,
		SortBy:    input.SortBy,
		SortOrder: input.SortOrder,
		Page:      page,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}
	activity, err := s.repo.Activity(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user activity")
	}
	items := make([]AdminUserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, newAdminUserDTO(&rows[i], activity[rows[i].ID]))
	}
	return &UserListResult{
		Items: items,
		Meta: types.PageMeta{
			Page:     page.Page,
			PerPage:  page.PerPage,
			Total:    total,
			LastPage: pagination.LastPage(total, page.PerPage),
		},
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AdminUserDTO, error) {
	user, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	activity, err := s.repo.Activity(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user activity")
	}
	dto := newAdminUserDTO(user, activity[id])
	return &dto, nil
}

// Create opens an account on behalf of someone; only a super admin may mint another one.
func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*UserDTO, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
	}
	role := input.Role
	if role == "" {
		role = enums.UserRoleCustomer
	}
	if !role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", role)
	}
	if role == enums.UserRoleSuperAdmin && !actor.IsSuperAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only a super admin can grant super_admin")
	}
	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Avatar:       trimPtr(input.Avatar),
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*UserDTO, error) {
	var out *UserDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := s.manageable(ctx, repo, actor, id)
		if err != nil {
			return err
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
			}
			user.Name = name
		}
		if input.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*input.Email))
			if email == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "email cannot be blank")
			}
			taken, err := repo.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
			}
			if taken {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			user.Email = email
		}
		if input.Role != nil && *input.Role != user.Role {
			role := *input.Role
			if !role.IsValid() {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", role)
			}
			if user.ID == actor.UserID {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot change your own role")
			}
			if role == enums.UserRoleSuperAdmin && !actor.IsSuperAdmin() {
				return pkgerrors.New(pkgerrors.CodeForbidden, "only a super admin can grant super_admin")
			}
			user.Role = role
		}
		if input.IsActive != nil {
			if !*input.IsActive && user.ID == actor.UserID {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot deactivate your own account")
			}
			user.IsActive = *input.IsActive
		}
		if input.Avatar != nil {
			user.Avatar = trimPtr(input.Avatar)
		}
		if input.Password != nil {
			hash, err := s.hash(*input.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}

		if err := repo.Save(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "idx_users_email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save user")
		}
		out = FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete refuses super admins, the caller's own account and anyone with orders or products.
func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if user.ID == actor.UserID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete your own account")
		}
		if user.Role == enums.UserRoleSuperAdmin {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "super admin accounts cannot be deleted")
		}
		activity, err := repo.Activity(ctx, []uuid.UUID{user.ID})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user activity")
		}
		a := activity[user.ID]
		if a.OrdersCount > 0 || a.ProductsCount > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user has orders or products").
				WithDetails(map[string]any{"orders_count": a.OrdersCount, "products_count": a.ProductsCount})
		}
		if err := repo.Delete(ctx, user.ID); err != nil {
			return notFoundOr(err, "delete user")
		}
		return nil
	})
}

func (s *service) ResetPassword(ctx context.Context, actor auth.Actor, id uuid.UUID, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := s.manageable(ctx, repo, actor, id)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		if err := repo.Save(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save user")
		}
		return nil
	})
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.Stats(ctx, s.now().Add(-recentRegistrationWindow))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "user stats")
	}
	return stats, nil
}

// manageable loads id and refuses changes to a super admin by anyone but a super admin.
func (s *service) manageable(ctx context.Context, repo *Repository, actor auth.Actor, id uuid.UUID) (*models.User, error) {
	user, err := s.load(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if user.Role == enums.UserRoleSuperAdmin && !actor.IsSuperAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "super admin accounts are managed by super admins")
	}
	return user, nil
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.User, error) {
	user, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load user")
	}
	return user, nil
}

func (s *service) hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "password must be at least %d characters", MinPasswordLength)
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
