package pricing

import "github.com/shopspring/decimal"

const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Round rounds an amount to cents.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(moneyPlaces)
}

// PromoPrice returns price discounted by pct percent, or nil when there is no promotion.
func PromoPrice(price decimal.Decimal, pct int) *decimal.Decimal {
	if pct <= 0 {
		return nil
	}
	if pct > 100 {
		pct = 100
	}
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromInt(int64(pct)).Div(hundred))
	promo := Round(price.Mul(factor))
	return &promo
}

// LineTotal multiplies a unit price by a quantity.
func LineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// NonNegative floors amount at zero.
func NonNegative(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
