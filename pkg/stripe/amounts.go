package stripe

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Stripe settles three-decimal currencies in multiples of ten minor units.
var threeDecimalCurrencies = map[string]bool{
	"bhd": true, "jod": true, "kwd": true, "omr": true, "tnd": true,
}

var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

var (
	ten      = decimal.NewFromInt(10)
	hundred  = decimal.NewFromInt(100)
	thousand = decimal.NewFromInt(1000)
)

// MinorUnits converts a major-unit amount to the integer Stripe expects.
func MinorUnits(currency string, amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount cannot be negative")
	}
	switch {
	case threeDecimalCurrencies[currency]:
		return amount.Mul(thousand).Div(ten).Round(0).Mul(ten).IntPart(), nil
	case zeroDecimalCurrencies[currency]:
		return amount.Round(0).IntPart(), nil
	default:
		return amount.Mul(hundred).Round(0).IntPart(), nil
	}
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(currency string, amount int64) decimal.Decimal {
	v := decimal.NewFromInt(amount)
	switch {
	case threeDecimalCurrencies[currency]:
		return v.Div(thousand)
	case zeroDecimalCurrencies[currency]:
		return v
	default:
		return v.Div(hundred)
	}
}
