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
	"github.com/threadline/threadline-backend/pkg/types"
)

// CustomerInput carries admin-authored customer notification fields. A null or absent
// recipient_user_id addresses every customer on create; on update an absent one keeps the
// current recipient. A nil IsActive means active.
type CustomerInput struct {
	Type            enums.NotificationType `json:"type" validate:"required,max=64"`
	Title           string                 `json:"title" validate:"required,max=255"`
	Message         string                 `json:"message" validate:"required"`
	Meta            map[string]any         `json:"meta"`
	RecipientUserID types.NullableUUID     `json:"recipient_user_id"`
	IsActive        *bool                  `json:"is_active"`
	ScheduledAt     *time.Time             `json:"scheduled_at"`
}

// CustomerService manages customer notifications for admins and their readers.
type CustomerService struct {
	repo        *CustomerRepository
	broadcaster *Broadcaster
	now         func() time.Time
}

// NewCustomerService wires the customer notification service. broadcaster may be nil.
func NewCustomerService(repo *CustomerRepository, broadcaster *Broadcaster) (*CustomerService, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customer notifications repository required")
	}
	return &CustomerService{
		repo:        repo,
		broadcaster: broadcaster,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (in CustomerInput) apply(n *models.CustomerNotification, creating bool) error {
	if !in.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "type is required")
	}
	title := strings.TrimSpace(in.Title)
	message := strings.TrimSpace(in.Message)
	if title == "" || message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title and message are required")
	}
	n.Type = in.Type
	n.Title = title
	n.Message = message
	n.Meta = in.Meta
	if creating || in.RecipientUserID.Valid {
		n.RecipientUserID = in.RecipientUserID.Clone().Value
	}
	n.IsActive = in.IsActive == nil || *in.IsActive
	n.ScheduledAt = nil
	if in.ScheduledAt != nil {
		at := in.ScheduledAt.UTC()
		n.ScheduledAt = &at
	}
	return nil
}

// AdminList pages every customer notification, newest first.
func (s *CustomerService) AdminList(ctx context.Context, page pagination.Page) (*CustomerPageResult, error) {
	page = pagination.NormalizePage(page)
	rows, total, err := s.repo.ListAll(ctx, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer notifications")
	}
	items := make([]CustomerNotificationDTO, 0, len(rows))
	for i := range rows {
		items = append(items, NewCustomerNotificationDTO(&rows[i]))
	}
	return &CustomerPageResult{
		Items: items,
		Meta: types.PageMeta{
			Page:     page.Page,
			PerPage:  page.PerPage,
			Total:    total,
			LastPage: pagination.LastPage(total, page.PerPage),
		},
	}, nil
}

// Create stores a notification and broadcasts it when it is already visible.
func (s *CustomerService) Create(ctx context.Context, createdBy uuid.UUID, input CustomerInput) (*CustomerNotificationDTO, error) {
	n := &models.CustomerNotification{}
	if err := input.apply(n, true); err != nil {
		return nil, err
	}
	if createdBy != uuid.Nil {
		n.CreatedBy = &createdBy
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer notification")
	}
	s.broadcaster.Customer(ctx, n, s.now())
	dto := NewCustomerNotificationDTO(n)
	return &dto, nil
}

// Update rewrites the editable fields and rebroadcasts when visible.
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, input CustomerInput) (*CustomerNotificationDTO, error) {
	n, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.apply(n, false); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer notification")
	}
	s.broadcaster.Customer(ctx, n, s.now())
	dto := NewCustomerNotificationDTO(n)
	return &dto, nil
}

func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer notification")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

// Mine lists notifications visible to userID with their read state.
func (s *CustomerService) Mine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*CustomerListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListVisible(ctx, userID, s.now(), params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	read, err := s.repo.ReadIDs(ctx, userID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load read receipts")
	}

	items := make([]CustomerNotificationDTO, 0, len(rows))
	for i := range rows {
		dto := NewCustomerNotificationDTO(&rows[i])
		dto.IsRead = read[rows[i].ID]
		items = append(items, dto)
	}
	out := &CustomerListResult{Items: items}
	if next != nil {
		out.Cursor = pagination.EncodeCursor(*next)
	}
	return out, nil
}

func (s *CustomerService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

// MarkRead records a read receipt. Notifications addressed to someone else are forbidden.
func (s *CustomerService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !n.IsBroadcast() && *n.RecipientUserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "notification belongs to another user")
	}
	if err := s.repo.MarkRead(ctx, id, userID, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	return nil
}

func (s *CustomerService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

// Notify stores and broadcasts a system-authored notification.
func (s *CustomerService) Notify(ctx context.Context, n *models.CustomerNotification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.broadcaster.Customer(ctx, n, s.now())
	return nil
}

func (s *CustomerService) find(ctx context.Context, id uuid.UUID) (*models.CustomerNotification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification")
	}
	return n, nil
}
