package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
)

func TestDirectTotalsDefaultsShipping(t *testing.T) {
	totals, err := DirectTotals(testCheckoutConfig, decimal.NewFromInt(30), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.Shipping.Equal(decimal.NewFromFloat(7.5)) {
		t.Fatalf("expected default shipping 7.5, got %s", totals.Shipping)
	}
	if !totals.Tax.IsZero() {
		t.Fatalf("expected no tax on direct orders, got %s", totals.Tax)
	}
	if !totals.Total.Equal(decimal.NewFromFloat(37.5)) {
		t.Fatalf("expected total 37.5, got %s", totals.Total)
	}
}

func TestDirectTotalsZeroShippingHintFallsBackToFee(t *testing.T) {
	zero := decimal.Zero
	totals, err := DirectTotals(testCheckoutConfig, decimal.NewFromInt(20), &zero, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.Shipping.Equal(decimal.NewFromFloat(7.5)) {
		t.Fatalf("expected fallback shipping 7.5, got %s", totals.Shipping)
	}
	if !totals.Total.Equal(decimal.NewFromFloat(27.5)) {
		t.Fatalf("expected total 27.5, got %s", totals.Total)
	}

	custom := decimal.NewFromInt(3)
	totals, err = DirectTotals(testCheckoutConfig, decimal.NewFromInt(20), &custom, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.Shipping.Equal(custom) || !totals.Total.Equal(decimal.NewFromInt(23)) {
		t.Fatalf("expected supplied shipping 3 and total 23, got %s / %s", totals.Shipping, totals.Total)
	}
}

func TestDirectTotalsRejectsOversizedDiscount(t *testing.T) {
	discount := decimal.NewFromInt(100)
	_, err := DirectTotals(testCheckoutConfig, decimal.NewFromInt(30), nil, &discount)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCardTotalsFreeShippingThreshold(t *testing.T) {
	below := CardTotals(testCheckoutConfig, decimal.RequireFromString("49.99"))
	if !below.Shipping.Equal(decimal.RequireFromString("5.99")) {
		t.Fatalf("expected shipping below threshold, got %s", below.Shipping)
	}
	if !below.Tax.Equal(decimal.RequireFromString("9.5")) {
		t.Fatalf("expected tax 9.50, got %s", below.Tax)
	}

	at := CardTotals(testCheckoutConfig, decimal.NewFromInt(50))
	if !at.Shipping.IsZero() {
		t.Fatalf("expected free shipping at threshold, got %s", at.Shipping)
	}
	if !at.Total.Equal(decimal.RequireFromString("59.5")) {
		t.Fatalf("expected total 59.50, got %s", at.Total)
	}
}
