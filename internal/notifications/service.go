package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/pagination"
)

// Service defines admin notification operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context) (int64, error)
	Create(ctx context.Context, input NotificationInput) (*NotificationDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*NotificationDTO, error)
	Update(ctx context.Context, id uuid.UUID, input NotificationInput) (*NotificationDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// NotificationInput carries admin-authored notification fields.
type NotificationInput struct {
	Type    enums.NotificationType `json:"type" validate:"required,max=64"`
	Title   string                 `json:"title" validate:"required,max=255"`
	Message string                 `json:"message" validate:"required"`
	Data    map[string]any         `json:"data"`
}

func (in NotificationInput) validate() error {
	if !in.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "type is required")
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Message) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title and message are required")
	}
	return nil
}

type service struct {
	repo        Repository
	broadcaster *Broadcaster
	now         func() time.Time
}

// NewService wires notifications dependencies. broadcaster may be nil.
func NewService(repo Repository, broadcaster *Broadcaster) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{
		repo:        repo,
		broadcaster: broadcaster,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listNotificationsParams{
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	items := make([]NotificationDTO, 0, len(rows))
	for i := range rows {
		items = append(items, NewNotificationDTO(&rows[i]))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) UnreadCount(ctx context.Context) (int64, error) {
	count, err := s.repo.CountUnread(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) Create(ctx context.Context, input NotificationInput) (*NotificationDTO, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	n := &models.Notification{
		Type:    input.Type,
		Title:   strings.TrimSpace(input.Title),
		Message: strings.TrimSpace(input.Message),
		Data:    input.Data,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	s.broadcaster.Admin(ctx, n.Type.String(), n)
	dto := NewNotificationDTO(n)
	return &dto, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification")
	}
	return n, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*NotificationDTO, error) {
	n, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := NewNotificationDTO(n)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input NotificationInput) (*NotificationDTO, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	n, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	n.Type = input.Type
	n.Title = strings.TrimSpace(input.Title)
	n.Message = strings.TrimSpace(input.Message)
	if input.Data != nil {
		n.Data = input.Data
	}
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update notification")
	}
	dto := NewNotificationDTO(n)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	result, err := s.repo.MarkRead(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) DeleteAll(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notifications")
	}
	return count, nil
}
