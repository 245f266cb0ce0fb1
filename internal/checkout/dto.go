package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/internal/orders"
	"github.com/threadline/threadline-backend/pkg/types"
)

// LineInput is one requested (product, quantity, size) selection.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	Size      string
}

// PlaceOrderInput is the cash-on-delivery checkout request. Shipping and Discount are
// optional hints; subtotal is always computed from locked product prices.
type PlaceOrderInput struct {
	Items           []LineInput
	ShippingAddress types.ShippingAddress
	Shipping        *decimal.Decimal
	Discount        *decimal.Decimal
	Notes           *string
}

// InitiatePaymentInput is the card checkout request.
type InitiatePaymentInput struct {
	Items           []LineInput
	ShippingAddress types.ShippingAddress
}

// PaymentSession is returned to the client to redirect to the hosted payment page.
type PaymentSession struct {
	SessionID  string          `json:"sessionId"`
	SessionURL string          `json:"sessionUrl"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Shipping   decimal.Decimal `json:"shipping"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
}

// PaidSession is a completed hosted checkout as reported by the payment provider.
type PaidSession struct {
	ID                string
	ClientReferenceID string
	Currency          string
	AmountTotal       int64
	Metadata          map[string]string
}

// ConfirmResult reports the order recorded for a paid session.
type ConfirmResult struct {
	Order     *orders.OrderDTO
	Duplicate bool
}
