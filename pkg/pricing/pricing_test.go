package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPromoPrice(t *testing.T) {
	price := decimal.RequireFromString("59.90")

	if got := PromoPrice(price, 0); got != nil {
		t.Fatalf("expected nil promo price without promotion, got %s", got)
	}

	got := PromoPrice(price, 20)
	if got == nil || !got.Equal(decimal.RequireFromString("47.92")) {
		t.Fatalf("expected 47.92, got %v", got)
	}

	full := PromoPrice(price, 150)
	if full == nil || !full.IsZero() {
		t.Fatalf("expected promotions above 100 to clamp to free, got %v", full)
	}
}

func TestPromoPriceRoundsHalfUp(t *testing.T) {
	got := PromoPrice(decimal.RequireFromString("10.05"), 50)
	if got == nil || !got.Equal(decimal.RequireFromString("5.03")) {
		t.Fatalf("expected 5.03, got %v", got)
	}
}

func TestLineTotalAndNonNegative(t *testing.T) {
	if got := LineTotal(decimal.RequireFromString("12.50"), 3); !got.Equal(decimal.RequireFromString("37.5")) {
		t.Fatalf("expected 37.5, got %s", got)
	}
	if got := NonNegative(decimal.RequireFromString("-1")); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}
