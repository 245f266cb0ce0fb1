package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	paginationpkg "github.com/threadline/threadline-backend/pkg/pagination"
	"gorm.io/gorm"
)

type fakeRepository struct {
	created       []*models.Notification
	findFn        func(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	listFn        func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error)
	markReadFn    func(ctx context.Context, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error)
	markAllReadFn func(ctx context.Context, now time.Time) (int64, error)
	deleted       bool
	createErr     error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, notification *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	f.created = append(f.created, notification)
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) Save(ctx context.Context, notification *models.Notification) error {
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.deleted, nil
}

func (f *fakeRepository) DeleteAll(ctx context.Context) (int64, error) {
	return int64(len(f.created)), nil
}

func (f *fakeRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeRepository) CountUnread(ctx context.Context) (int64, error) {
	return 3, nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, notificationID, now)
	}
	return notificationMarkResult{}, nil
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, now time.Time) (int64, error) {
	if f.markAllReadFn != nil {
		return f.markAllReadFn(ctx, now)
	}
	return 0, nil
}

type recordingPublisher struct {
	channels []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, payload)
	return 1, nil
}

func newServiceWithRepo(repo Repository, pub Publisher) Service {
	svc, _ := NewService(repo, NewBroadcaster(pub, nil, nil))
	return svc
}

func TestService_ListNotifications(t *testing.T) {
	first := models.Notification{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Hour)}

	repo := &fakeRepository{
		listFn: func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error) {
			if params.Limit != 1 || !params.UnreadOnly {
				t.Fatalf("unexpected params %+v", params)
			}
			return []models.Notification{first}, &paginationpkg.Cursor{CreatedAt: first.CreatedAt, ID: first.ID}, nil
		},
	}

	svc := newServiceWithRepo(repo, nil)
	result, err := svc.List(context.Background(), ListParams{Limit: 1, UnreadOnly: true})
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].IsRead {
		t.Fatalf("unexpected items %+v", result.Items)
	}
	decoded, err := paginationpkg.ParseCursor(result.Cursor)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	if decoded.ID != first.ID {
		t.Fatalf("cursor id mismatch: %s", decoded.ID)
	}
}

func TestService_ListRejectsBadCursor(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{}, nil)
	_, err := svc.List(context.Background(), ListParams{Cursor: "%%%"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_MarkReadNotFound(t *testing.T) {
	repo := &fakeRepository{
		markReadFn: func(ctx context.Context, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
			return notificationMarkResult{Found: false}, nil
		},
	}
	svc := newServiceWithRepo(repo, nil)
	err := svc.MarkRead(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_MarkReadAlreadyRead(t *testing.T) {
	repo := &fakeRepository{
		markReadFn: func(ctx context.Context, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
			return notificationMarkResult{Found: true}, nil
		},
	}
	svc := newServiceWithRepo(repo, nil)
	if err := svc.MarkRead(context.Background(), uuid.New()); err != nil {
		t.Fatalf("expected already-read to succeed: %v", err)
	}
}

func TestService_MarkAllReadWrapsErrors(t *testing.T) {
	repo := &fakeRepository{
		markAllReadFn: func(ctx context.Context, now time.Time) (int64, error) {
			return 0, errors.New("boom")
		},
	}
	svc := newServiceWithRepo(repo, nil)
	_, err := svc.MarkAllRead(context.Background())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestService_CreateBroadcastsToAdmins(t *testing.T) {
	repo := &fakeRepository{}
	pub := &recordingPublisher{}
	svc := newServiceWithRepo(repo, pub)

	dto, err := svc.Create(context.Background(), NotificationInput{
		Type:    enums.NotificationTypeAlert,
		Title:   " Low stock ",
		Message: "Denim jacket is running low",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Title != "Low stock" {
		t.Fatalf("expected trimmed title, got %q", dto.Title)
	}
	if len(pub.channels) != 1 || pub.channels[0] != AdminChannel {
		t.Fatalf("unexpected channels %v", pub.channels)
	}
}

func TestService_CreateValidates(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{}, nil)
	_, err := svc.Create(context.Background(), NotificationInput{Type: enums.NotificationTypeInfo, Title: "  "})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_GetAndDeleteMissing(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{}, nil)
	if _, err := svc.Get(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on get, got %v", err)
	}
	if err := svc.Delete(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestService_UpdateKeepsDataWhenOmitted(t *testing.T) {
	existing := &models.Notification{
		ID:   uuid.New(),
		Type: enums.NotificationTypeInfo,
		Data: map[string]any{"k": "v"},
	}
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
			return existing, nil
		},
	}
	svc := newServiceWithRepo(repo, nil)
	dto, err := svc.Update(context.Background(), existing.ID, NotificationInput{
		Type:    enums.NotificationTypePromotion,
		Title:   "Sale",
		Message: "20% off",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Type != enums.NotificationTypePromotion || dto.Data["k"] != "v" {
		t.Fatalf("unexpected dto %+v", dto)
	}
}
