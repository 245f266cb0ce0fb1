package checkout

import (
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/config"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/pricing"
)

// Totals is the money breakdown stored on an order.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// DirectTotals prices a cash-on-delivery order: no tax, the configured shipping fee
// unless a non-zero shipping amount was supplied, minus an optional discount.
func DirectTotals(cfg config.CheckoutConfig, subtotal decimal.Decimal, shipping, discount *decimal.Decimal) (Totals, error) {
	t := Totals{
		Subtotal: pricing.Round(subtotal),
		Tax:      decimal.Zero,
		Shipping: pricing.Round(cfg.DirectShipping()),
		Discount: decimal.Zero,
	}
	if shipping != nil && !shipping.IsZero() {
		if shipping.IsNegative() {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping cannot be negative")
		}
		t.Shipping = pricing.Round(*shipping)
	}
	if discount != nil {
		if discount.IsNegative() {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
		}
		t.Discount = pricing.Round(*discount)
		if t.Discount.GreaterThan(t.Subtotal.Add(t.Shipping)) {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order amount")
		}
	}
	t.Total = pricing.NonNegative(t.Subtotal.Add(t.Shipping).Sub(t.Discount))
	return t, nil
}

// CardTotals prices a card order: tax on the subtotal plus a shipping fee below the
// free-shipping threshold.
func CardTotals(cfg config.CheckoutConfig, subtotal decimal.Decimal) Totals {
	t := Totals{
		Subtotal: pricing.Round(subtotal),
		Discount: decimal.Zero,
		Shipping: decimal.Zero,
	}
	t.Tax = pricing.Round(t.Subtotal.Mul(cfg.CardTax()))
	if t.Subtotal.LessThan(cfg.FreeShippingFrom()) {
		t.Shipping = pricing.Round(cfg.CardShipping())
	}
	t.Total = t.Subtotal.Add(t.Tax).Add(t.Shipping)
	return t
}
