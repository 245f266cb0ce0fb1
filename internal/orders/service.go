package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/internal/products"
	"github.com/threadline/threadline-backend/pkg/auth"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/pagination"
	"github.com/threadline/threadline-backend/pkg/types"
	"gorm.io/gorm"
)

const (
	maxNotesLength          = 1000
	maxPaymentNoteLength    = 500
	maxTrackingNumberLength = 100
	maxExportRows           = 10000
	recentWindow            = 7 * 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StatusNotifier is told about committed admin status changes.
type StatusNotifier interface {
	OrderStatusChanged(ctx context.Context, order *models.Order, from enums.OrderStatus) error
}

// Service exposes customer order reads and admin order management.
type Service interface {
	ListForCustomer(ctx context.Context, userID uuid.UUID, page pagination.Page) (*OrderListResult, error)
	GetForCustomer(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	AdminList(ctx context.Context, actor auth.Actor, input AdminListInput) (*OrderListResult, error)
	AdminGet(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input StatusInput) (*OrderDTO, error)
	UpdatePaymentStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input PaymentStatusInput) (*OrderDTO, error)
	UpdateNotes(ctx context.Context, actor auth.Actor, orderID uuid.UUID, notes string) (*OrderDTO, error)
	Stats(ctx context.Context, actor auth.Actor) (*Stats, error)
	RevenueChart(ctx context.Context, actor auth.Actor, period enums.RevenuePeriod) ([]RevenuePoint, error)
	Export(ctx context.Context, actor auth.Actor, input AdminListInput, format enums.ExportFormat) (*ExportFile, error)
}

// AdminListInput holds the admin order list query.
type AdminListInput struct {
	Search        string
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	HighValue     bool
	Recent        bool
	SortBy        string
	SortOrder     string
	Page          pagination.Page
}

// StatusInput moves an order along its lifecycle.
type StatusInput struct {
	Status         enums.OrderStatus
	TrackingNumber *string
	Note           *string
}

// PaymentStatusInput overrides the payment status with an optional note.
type PaymentStatusInput struct {
	Status enums.PaymentStatus
	Notes  *string
}

type service struct {
	repo     Repository
	catalog  *products.Repository
	tx       txRunner
	notifier StatusNotifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the order service. notifier may be nil.
func NewService(repo Repository, catalog *products.Repository, tx txRunner, notifier StatusNotifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		catalog:  catalog,
		tx:       tx,
		notifier: notifier,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) ListForCustomer(ctx context.Context, userID uuid.UUID, page pagination.Page) (*OrderListResult, error) {
	page = pagination.NormalizePage(page)
	rows, total, err := s.repo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newListResult(rows, total, page), nil
}

func (s *service) GetForCustomer(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) AdminList(ctx context.Context, actor auth.Actor, input AdminListInput) (*OrderListResult, error) {
	filter := s.filterFor(actor, input)
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newListResult(rows, total, filter.Page), nil
}

func (s *service) AdminGet(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	if err := s.ensureVisible(ctx, actor, orderID); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListStatusHistory(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status history")
	}
	dto := NewOrderDTO(order)
	dto.History = newStatusChangeDTOs(history)
	return &dto, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input StatusInput) (*OrderDTO, error) {
	tracking := trimPtr(input.TrackingNumber)
	if tracking != nil && len(*tracking) > maxTrackingNumberLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "tracking number must be at most %d characters", maxTrackingNumberLength)
	}
	note := trimPtr(input.Note)
	if err := s.ensureVisible(ctx, actor, orderID); err != nil {
		return nil, err
	}

	var (
		from    enums.OrderStatus
		updated *models.Order
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if err := CheckTransition(order, input.Status); err != nil {
			return err
		}
		from = order.Status

		now := s.now()
		updates := map[string]any{"status": input.Status}
		switch input.Status {
		case enums.OrderStatusShipped:
			updates["shipped_at"] = now
		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
		case enums.OrderStatusCancelled:
			updates["cancelled_at"] = now
			if err := s.restock(ctx, tx, order.Items); err != nil {
				return err
			}
		case enums.OrderStatusRefunded:
			updates["payment_status"] = enums.PaymentStatusRefunded
		}
		if tracking != nil {
			updates["tracking_number"] = *tracking
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		changedBy := actor.UserID
		entry := &models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   input.Status,
			ChangedBy:  &changedBy,
			Note:       note,
		}
		if err := repo.CreateStatusHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status history")
		}

		updated, err = s.load(ctx, repo, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.OrderStatusChanged(ctx, updated, from); err != nil {
			logCtx := s.logg.WithOrderID(ctx, updated.ID.String())
			s.logg.Warn(logCtx, fmt.Sprintf("order status notification failed: %v", err))
		}
	}
	return s.AdminGet(ctx, actor, orderID)
}

func (s *service) restock(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	catalog := s.catalog.WithTx(tx)
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	locked, err := catalog.LockForUpdate(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock products for restock")
	}

	touched := make(map[uuid.UUID]*models.Product, len(locked))
	for _, item := range items {
		product, ok := locked[item.ProductID]
		if !ok {
			continue
		}
		size := ""
		if item.Size != nil {
			size = *item.Size
		}
		products.Restock(product, item.Quantity, size)
		touched[product.ID] = product
	}
	for _, product := range touched {
		if err := catalog.SaveStock(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock product")
		}
	}
	return nil
}

func (s *service) UpdatePaymentStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input PaymentStatusInput) (*OrderDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment status %q", input.Status)
	}
	note := trimPtr(input.Notes)
	if note != nil && len(*note) > maxPaymentNoteLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "notes must be at most %d characters", maxPaymentNoteLength)
	}
	if err := s.ensureVisible(ctx, actor, orderID); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		updates := map[string]any{"payment_status": input.Status}
		if note != nil {
			updates["notes"] = appendNote(order.Notes, *note)
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.AdminGet(ctx, actor, orderID)
}

func (s *service) UpdateNotes(ctx context.Context, actor auth.Actor, orderID uuid.UUID, notes string) (*OrderDTO, error) {
	notes = strings.TrimSpace(notes)
	if len(notes) > maxNotesLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "notes must be at most %d characters", maxNotesLength)
	}
	if err := s.ensureVisible(ctx, actor, orderID); err != nil {
		return nil, err
	}
	var value any
	if notes != "" {
		value = notes
	}
	if err := s.repo.Update(ctx, orderID, map[string]any{"notes": value}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update notes")
	}
	return s.AdminGet(ctx, actor, orderID)
}

func (s *service) Stats(ctx context.Context, actor auth.Actor) (*Stats, error) {
	dayStart := s.now().Truncate(24 * time.Hour)
	stats, err := s.repo.Stats(ctx, scopeFor(actor), dayStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute order stats")
	}
	return stats, nil
}

func (s *service) RevenueChart(ctx context.Context, actor auth.Actor, period enums.RevenuePeriod) ([]RevenuePoint, error) {
	window, err := newChartWindow(period, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid revenue period")
	}
	rows, err := s.repo.PaidSince(ctx, scopeFor(actor), window.since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load revenue")
	}
	return window.fill(rows), nil
}

func (s *service) Export(ctx context.Context, actor auth.Actor, input AdminListInput, format enums.ExportFormat) (*ExportFile, error) {
	rows, err := s.repo.ListForExport(ctx, s.filterFor(actor, input), maxExportRows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders for export")
	}
	file, err := renderExport(rows, format, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render export")
	}
	return file, nil
}

func (s *service) filterFor(actor auth.Actor, input AdminListInput) AdminFilter {
	filter := AdminFilter{
		Search:         input.Search,
		Status:         input.Status,
		PaymentStatus:  input.PaymentStatus,
		DateFrom:       input.DateFrom,
		DateTo:         input.DateTo,
		HighValue:      input.HighValue,
		SortBy:         input.SortBy,
		SortOrder:      input.SortOrder,
		Page:           pagination.NormalizePage(input.Page),
		ScopeCreatedBy: scopeFor(actor),
	}
	if input.Recent {
		since := s.now().Add(-recentWindow)
		filter.RecentSince = &since
	}
	return filter
}

func (s *service) ensureVisible(ctx context.Context, actor auth.Actor, orderID uuid.UUID) error {
	scope := scopeFor(actor)
	if scope == nil {
		return nil
	}
	ok, err := s.repo.ContainsProductsBy(ctx, orderID, *scope)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order scope")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func scopeFor(actor auth.Actor) *uuid.UUID {
	if actor.IsSuperAdmin() {
		return nil
	}
	id := actor.UserID
	return &id
}

func newListResult(rows []models.Order, total int64, page pagination.Page) *OrderListResult {
	items := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, NewOrderDTO(&rows[i]))
	}
	return &OrderListResult{
		Items: items,
		Meta: types.PageMeta{
			Page:     page.Page,
			PerPage:  page.PerPage,
			Total:    total,
			LastPage: pagination.LastPage(total, page.PerPage),
		},
	}
}

func appendNote(existing *string, note string) string {
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return note
	}
	return *existing + "\n" + note
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
