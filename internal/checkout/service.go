package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/internal/cart"
	"github.com/threadline/threadline-backend/internal/orders"
	"github.com/threadline/threadline-backend/internal/products"
	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/metrics"
	"github.com/threadline/threadline-backend/pkg/stripe"
	"gorm.io/gorm"
)

const (
	sessionConstraint   = "idx_orders_stripe_session_id"
	sessionColumnSQLite = "orders.stripe_session_id"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderEvents is told about committed orders. Failures are logged, never returned.
type OrderEvents interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
	OrderPaid(ctx context.Context, order *models.Order) error
}

// Service runs the checkout workflow.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*orders.OrderDTO, error)
	InitiatePayment(ctx context.Context, userID uuid.UUID, input InitiatePaymentInput) (*PaymentSession, error)
	ConfirmPaidSession(ctx context.Context, paid PaidSession) (*ConfirmResult, error)
}

// Settings carries the pricing and redirect configuration.
type Settings struct {
	Checkout    config.CheckoutConfig
	FrontendURL string
}

type service struct {
	tx       txRunner
	catalog  *products.Repository
	carts    *cart.Repository
	ledger   orders.Repository
	sessions stripe.CheckoutSessions
	events   OrderEvents
	metrics  *metrics.CheckoutMetrics
	settings Settings
	logg     *logger.Logger
}

// NewService builds the checkout service. sessions, events and checkoutMetrics may be nil;
// without sessions card payments are rejected.
func NewService(
	tx txRunner,
	catalog *products.Repository,
	carts *cart.Repository,
	ledger orders.Repository,
	sessions stripe.CheckoutSessions,
	events OrderEvents,
	checkoutMetrics *metrics.CheckoutMetrics,
	settings Settings,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(settings.Checkout.Currency) == "" {
		return nil, fmt.Errorf("checkout currency required")
	}
	return &service{
		tx:       tx,
		catalog:  catalog,
		carts:    carts,
		ledger:   ledger,
		sessions: sessions,
		events:   events,
		metrics:  checkoutMetrics,
		settings: settings,
		logg:     logg,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*orders.OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if err := validateLines(input.Items); err != nil {
		return nil, err
	}

	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalog := s.catalog.WithTx(tx)
		ledger := s.ledger.WithTx(tx)

		locked, err := catalog.LockForUpdate(ctx, lineIDs(input.Items))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock products")
		}
		lines, err := reserveLocked(locked, input.Items)
		if err != nil {
			return err
		}
		totals, err := DirectTotals(s.settings.Checkout, subtotalOf(lines), input.Shipping, input.Discount)
		if err != nil {
			return err
		}

		order := &models.Order{
			UserID:          &userID,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			PaymentMethod:   enums.PaymentMethodCashOnDelivery,
			ShippingAddress: input.ShippingAddress,
			Notes:           trimmed(input.Notes),
		}
		if err := s.record(ctx, ledger, catalog, order, totals, lines); err != nil {
			return err
		}
		if err := s.carts.WithTx(tx).Clear(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		placed = order
		return nil
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.metrics.IncOrderPlaced(string(enums.PaymentMethodCashOnDelivery))
	ctx = s.logg.WithOrderID(ctx, placed.ID.String())
	s.logg.Info(ctx, "order placed")
	if s.events != nil {
		if err := s.events.OrderPlaced(ctx, placed); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("order placed notification failed: %v", err))
		}
	}

	dto := orders.NewOrderDTO(placed)
	return &dto, nil
}

func (s *service) InitiatePayment(ctx context.Context, userID uuid.UUID, input InitiatePaymentInput) (*PaymentSession, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if s.sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "card payments are not configured")
	}
	if err := validateLines(input.Items); err != nil {
		return nil, err
	}

	found, err := s.catalog.FindByIDs(ctx, lineIDs(input.Items))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	lines, err := quoteUnlocked(found, input.Items)
	if err != nil {
		s.countRejection(err)
		return nil, err
	}
	totals := CardTotals(s.settings.Checkout, subtotalOf(lines))

	sessionLines := make([]sessionLine, 0, len(lines))
	for _, line := range lines {
		sessionLines = append(sessionLines, sessionLine{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			Size:      line.Size,
			UnitPrice: line.UnitPrice,
		})
	}
	meta, err := encodeSessionMetadata(sessionPayload{
		Lines:           sessionLines,
		ShippingAddress: input.ShippingAddress,
		UserID:          &userID,
		Totals:          totals,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session metadata")
	}

	frontend := strings.TrimRight(s.settings.FrontendURL, "/")
	currency := strings.ToLower(s.settings.Checkout.Currency)
	created, err := s.sessions.CreateSession(ctx, stripe.SessionRequest{
		Currency:          currency,
		Amount:            totals.Total,
		ProductName:       "Order total",
		SuccessURL:        frontend + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         frontend + "/checkout/cancelled",
		ClientReferenceID: userID.String(),
		CustomerEmail:     input.ShippingAddress.Email,
		Metadata:          meta,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment session")
	}

	return &PaymentSession{
		SessionID:  created.ID,
		SessionURL: created.URL,
		Subtotal:   totals.Subtotal,
		Tax:        totals.Tax,
		Shipping:   totals.Shipping,
		Total:      totals.Total,
		Currency:   currency,
	}, nil
}

func (s *service) ConfirmPaidSession(ctx context.Context, paid PaidSession) (*ConfirmResult, error) {
	if strings.TrimSpace(paid.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	ctx = s.logg.WithField(ctx, "stripe_session_id", paid.ID)

	if existing, err := s.ledger.FindByStripeSession(ctx, paid.ID); err == nil {
		return s.duplicate(ctx, existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup session order")
	}

	payload, err := decodeSessionMetadata(paid.Metadata)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session metadata")
	}
	if len(payload.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session metadata has no items")
	}
	s.checkPaidAmount(ctx, paid, payload.Totals)

	var recorded *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalog := s.catalog.WithTx(tx)
		ledger := s.ledger.WithTx(tx)

		ids := make([]uuid.UUID, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			ids = append(ids, line.ProductID)
		}
		locked, err := catalog.LockForUpdate(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock products")
		}
		lines, err := s.settlePaidLines(ctx, locked, payload.Lines)
		if err != nil {
			return err
		}

		sessionID := paid.ID
		order := &models.Order{
			UserID:          payload.UserID,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPaid,
			PaymentMethod:   enums.PaymentMethodStripe,
			ShippingAddress: payload.ShippingAddress,
			StripeSessionID: &sessionID,
		}
		if err := s.record(ctx, ledger, catalog, order, payload.Totals, lines); err != nil {
			return err
		}
		if payload.UserID != nil {
			if err := s.carts.WithTx(tx).Clear(ctx, *payload.UserID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
			}
		}
		recorded = order
		return nil
	})
	if err != nil {
		if isSessionConflict(err) {
			existing, findErr := s.ledger.FindByStripeSession(ctx, paid.ID)
			if findErr == nil {
				return s.duplicate(ctx, existing), nil
			}
		}
		return nil, err
	}

	s.metrics.IncOrderPlaced(string(enums.PaymentMethodStripe))
	ctx = s.logg.WithOrderID(ctx, recorded.ID.String())
	s.logg.Info(ctx, "paid order recorded")
	if s.events != nil {
		if err := s.events.OrderPaid(ctx, recorded); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("order paid notification failed: %v", err))
		}
	}

	dto := orders.NewOrderDTO(recorded)
	return &ConfirmResult{Order: &dto}, nil
}

// settlePaidLines prices paid lines at the current catalog price and decrements stock.
// Shortfalls are clamped and counted rather than rejected. A product missing from the
// catalog fails the whole confirmation so the event is retried.
func (s *service) settlePaidLines(ctx context.Context, locked map[uuid.UUID]*models.Product, paidLines []sessionLine) ([]pricedLine, error) {
	lines := make([]pricedLine, 0, len(paidLines))
	for _, line := range paidLines {
		if line.Quantity < 1 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "paid line for %s has quantity %d", line.ProductID, line.Quantity)
		}
		product, ok := locked[line.ProductID]
		if !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeInternal, "paid line references missing product %s", line.ProductID).
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}

		if _, known := product.SizeStock.Available(line.Size); product.SizeStock.Has() && !known {
			s.metrics.IncUnmatchedSize()
			s.logg.Warn(ctx, fmt.Sprintf("paid line for product %s has unknown size %q; stock left unchanged", product.ID, line.Size))
		} else if short := products.Decrement(product, line.Quantity, line.Size); short > 0 {
			s.metrics.IncOversold()
			s.logg.Warn(ctx, fmt.Sprintf("paid order oversold product %s size %q by %d", product.ID, line.Size, short))
		}

		lines = append(lines, pricedLine{
			Product:   product,
			Quantity:  line.Quantity,
			Size:      line.Size,
			UnitPrice: product.EffectivePrice(),
		})
	}
	return lines, nil
}

// record writes the order, its items and the decremented stock inside the caller's transaction.
func (s *service) record(
	ctx context.Context,
	ledger orders.Repository,
	catalog *products.Repository,
	order *models.Order,
	totals Totals,
	lines []pricedLine,
) error {
	number, err := orders.NextOrderNumber(ctx, ledger)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
	}
	order.OrderNumber = number
	order.Subtotal = totals.Subtotal
	order.TaxAmount = totals.Tax
	order.ShippingAmount = totals.Shipping
	order.DiscountAmount = totals.Discount
	order.TotalAmount = totals.Total

	if err := ledger.CreateOrder(ctx, order); err != nil {
		if isSessionConflict(err) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, line.orderItem(order.ID))
	}
	if err := ledger.CreateItems(ctx, items); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
	}
	order.Items = items

	saved := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if saved[line.Product.ID] {
			continue
		}
		if err := catalog.SaveStock(ctx, line.Product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock")
		}
		saved[line.Product.ID] = true
	}
	return nil
}

func (s *service) duplicate(ctx context.Context, existing *models.Order) *ConfirmResult {
	s.logg.Info(s.logg.WithOrderID(ctx, existing.ID.String()), "paid session already recorded")
	dto := orders.NewOrderDTO(existing)
	return &ConfirmResult{Order: &dto, Duplicate: true}
}

func (s *service) checkPaidAmount(ctx context.Context, paid PaidSession, totals Totals) {
	if paid.AmountTotal <= 0 || paid.Currency == "" {
		return
	}
	expected, err := stripe.MinorUnits(strings.ToLower(paid.Currency), totals.Total)
	if err != nil {
		return
	}
	if expected != paid.AmountTotal {
		s.logg.Warn(ctx, fmt.Sprintf("paid amount %d differs from recorded total %d", paid.AmountTotal, expected))
	}
}

func (s *service) countRejection(err error) {
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		return
	}
	scope := "total"
	if apiErr := pkgerrors.As(err); apiErr != nil {
		if shortage, ok := apiErr.Details().(products.StockShortage); ok && shortage.Size != "" {
			scope = "size"
		}
	}
	s.metrics.IncStockRejection(scope)
}

func isSessionConflict(err error) bool {
	return db.IsUniqueViolation(err, sessionConstraint) || db.IsUniqueViolation(err, sessionColumnSQLite)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
