package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/types"
)

func TestProductBeforeSaveDerivesPromoAndStock(t *testing.T) {
	p := &Product{
		Price:               decimal.RequireFromString("80"),
		PromotionPercentage: 25,
		Stock:               99,
		SizeStock:           types.SizeStock{"M": 4, "L": 6},
	}
	if err := p.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	if p.PromoPrice == nil || !p.PromoPrice.Equal(decimal.RequireFromString("60")) {
		t.Fatalf("expected promo 60, got %v", p.PromoPrice)
	}
	if p.Stock != 10 {
		t.Fatalf("expected stock derived from sizes = 10, got %d", p.Stock)
	}
	if !p.EffectivePrice().Equal(decimal.RequireFromString("60")) {
		t.Fatalf("expected effective price to be promo price")
	}

	p.PromotionPercentage = 0
	_ = p.BeforeSave(nil)
	if p.PromoPrice != nil {
		t.Fatal("expected promo cleared when promotion removed")
	}
	if !p.EffectivePrice().Equal(p.Price) {
		t.Fatal("expected effective price to fall back to price")
	}
}

func TestUnsizedProductKeepsStock(t *testing.T) {
	p := &Product{Price: decimal.NewFromInt(10), Stock: 7}
	_ = p.BeforeSave(nil)
	if p.Stock != 7 {
		t.Fatalf("expected unsized stock untouched, got %d", p.Stock)
	}
}

func TestOrderLifecycleHelpers(t *testing.T) {
	o := &Order{Status: enums.OrderStatusPending, PaymentStatus: enums.PaymentStatusPending}
	if !o.CanBeCancelled() || o.CanBeShipped() || o.CanBeRefunded() {
		t.Fatalf("unexpected helpers for pending order")
	}
	o.Status = enums.OrderStatusProcessing
	if o.CanBeCancelled() || !o.CanBeShipped() {
		t.Fatalf("unexpected helpers for processing order")
	}
	o.Status = enums.OrderStatusDelivered
	if o.CanBeRefunded() {
		t.Fatal("unpaid order cannot be refunded")
	}
	o.PaymentStatus = enums.PaymentStatusPaid
	if !o.CanBeRefunded() {
		t.Fatal("delivered paid order can be refunded")
	}
}

func TestCustomerNotificationVisibility(t *testing.T) {
	now := time.Date(2025, 9, 17, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	n := &CustomerNotification{IsActive: true}
	if !n.VisibleAt(now) || !n.IsBroadcast() {
		t.Fatal("active unscheduled broadcast should be visible")
	}
	n.ScheduledAt = &later
	if n.VisibleAt(now) {
		t.Fatal("future scheduled notification should be hidden")
	}
	n.ScheduledAt = &earlier
	if !n.VisibleAt(now) {
		t.Fatal("past scheduled notification should be visible")
	}
	n.IsActive = false
	if n.VisibleAt(now) {
		t.Fatal("inactive notification should be hidden")
	}
	recipient := uuid.New()
	n.RecipientUserID = &recipient
	if n.IsBroadcast() {
		t.Fatal("addressed notification is not a broadcast")
	}
}

func TestEnsureID(t *testing.T) {
	u := &User{}
	_ = u.BeforeCreate(nil)
	if u.ID == uuid.Nil {
		t.Fatal("expected id to be assigned")
	}
	keep := uuid.New()
	u2 := &User{ID: keep}
	_ = u2.BeforeCreate(nil)
	if u2.ID != keep {
		t.Fatal("expected existing id to be preserved")
	}
}
