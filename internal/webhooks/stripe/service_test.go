package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stripe/stripe-go/v84"
	"github.com/threadline/threadline-backend/internal/checkout"
	"github.com/threadline/threadline-backend/pkg/metrics"
)

type stubConfirmer struct {
	calls     []checkout.PaidSession
	duplicate bool
	err       error
}

func (s *stubConfirmer) ConfirmPaidSession(ctx context.Context, paid checkout.PaidSession) (*checkout.ConfirmResult, error) {
	s.calls = append(s.calls, paid)
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.ConfirmResult{Duplicate: s.duplicate}, nil
}

func sessionEvent(t *testing.T, eventType stripe.EventType, status stripe.CheckoutSessionPaymentStatus) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":                  "cs_test_123",
		"object":              "checkout.session",
		"client_reference_id": "user-1",
		"currency":            "tnd",
		"amount_total":        53590,
		"payment_status":      string(status),
		"metadata":            map[string]string{"user_id": "user-1"},
	})
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripe.Event{ID: "evt_1", Type: eventType, Data: &stripe.EventData{Raw: raw}}
}

func newTestService(t *testing.T, confirmer *stubConfirmer) (*Service, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{Checkout: confirmer, Metrics: metrics.NewCheckoutMetrics(reg)})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc, reg
}

func webhookCount(t *testing.T, reg *prometheus.Registry, eventType, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "stripe_webhook_events_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["type"] == eventType && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestService_CompletedSessionConfirmsOrder(t *testing.T) {
	confirmer := &stubConfirmer{}
	svc, _ := newTestService(t, confirmer)

	err := svc.HandleEvent(context.Background(), sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, stripe.CheckoutSessionPaymentStatusPaid))
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(confirmer.calls) != 1 {
		t.Fatalf("expected one confirmation, got %d", len(confirmer.calls))
	}
	got := confirmer.calls[0]
	if got.ID != "cs_test_123" || got.ClientReferenceID != "user-1" || got.AmountTotal != 53590 || got.Currency != "tnd" {
		t.Fatalf("unexpected paid session %+v", got)
	}
	if got.Metadata["user_id"] != "user-1" {
		t.Fatalf("metadata not forwarded: %+v", got.Metadata)
	}
}

func TestService_AsyncPaymentSucceededConfirmsOrder(t *testing.T) {
	confirmer := &stubConfirmer{duplicate: true}
	svc, _ := newTestService(t, confirmer)

	err := svc.HandleEvent(context.Background(), sessionEvent(t, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded, stripe.CheckoutSessionPaymentStatusPaid))
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(confirmer.calls) != 1 {
		t.Fatalf("expected confirmation call")
	}
}

func TestService_UnpaidSessionIgnored(t *testing.T) {
	confirmer := &stubConfirmer{}
	svc, _ := newTestService(t, confirmer)

	err := svc.HandleEvent(context.Background(), sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, stripe.CheckoutSessionPaymentStatusUnpaid))
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(confirmer.calls) != 0 {
		t.Fatalf("unpaid session must not create an order")
	}
}

func TestService_OtherEventsIgnored(t *testing.T) {
	confirmer := &stubConfirmer{}
	svc, _ := newTestService(t, confirmer)

	event := &stripe.Event{ID: "evt_2", Type: stripe.EventTypeChargeRefunded, Data: &stripe.EventData{Raw: []byte(`{}`)}}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(confirmer.calls) != 0 {
		t.Fatalf("unexpected confirmation for %s", event.Type)
	}
}

func TestService_ConfirmErrorPropagates(t *testing.T) {
	confirmer := &stubConfirmer{err: errors.New("db down")}
	svc, reg := newTestService(t, confirmer)

	err := svc.HandleEvent(context.Background(), sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, stripe.CheckoutSessionPaymentStatusPaid))
	if err == nil {
		t.Fatal("expected error to propagate so the event is retried")
	}
	if got := webhookCount(t, reg, string(stripe.EventTypeCheckoutSessionCompleted), outcomeFailed); got != 1 {
		t.Fatalf("expected failed outcome counted, got %v", got)
	}
}

func TestService_RejectsMissingData(t *testing.T) {
	svc, _ := newTestService(t, &stubConfirmer{})
	if err := svc.HandleEvent(context.Background(), &stripe.Event{}); err == nil {
		t.Fatal("expected validation error")
	}
}

type memoryEventStore struct {
	keys map[string]bool
}

func (m *memoryEventStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryEventStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func (m *memoryEventStore) WebhookEventKey(provider, eventID string) string {
	return provider + ":" + eventID
}

func TestIdempotencyGuard(t *testing.T) {
	store := &memoryEventStore{keys: map[string]bool{}}
	guard, err := NewIdempotencyGuard(store, time.Hour, "stripe")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	if err != nil || seen {
		t.Fatalf("first delivery: seen=%v err=%v", seen, err)
	}
	seen, _ = guard.CheckAndMark(ctx, "evt_1")
	if !seen {
		t.Fatal("expected replay to be detected")
	}
	if err := guard.Delete(ctx, "evt_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	seen, _ = guard.CheckAndMark(ctx, "evt_1")
	if seen {
		t.Fatal("expected released event to be processable again")
	}
	if _, err := NewIdempotencyGuard(nil, time.Hour, "stripe"); err == nil {
		t.Fatal("expected nil store to be rejected")
	}
}
