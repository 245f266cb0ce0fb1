package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks order placement, stock rejections and webhook handling.
type CheckoutMetrics struct {
	ordersPlaced      *prometheus.CounterVec
	stockRejections   *prometheus.CounterVec
	webhookEvents     *prometheus.CounterVec
	oversold          prometheus.Counter
	unmatchedSizes    prometheus.Counter
	broadcastFailures *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders created by checkout, by payment method.",
	}, []string{"payment_method"})
	stockRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_stock_rejections_total",
		Help: "Checkout attempts rejected for insufficient stock.",
	}, []string{"scope"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Stripe webhook events by type and outcome.",
	}, []string{"type", "outcome"})
	oversold := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_oversold_lines_total",
		Help: "Paid order lines whose quantity exceeded stock at confirmation.",
	})
	unmatchedSizes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_unmatched_size_lines_total",
		Help: "Paid order lines naming a size the product no longer stocks.",
	})
	broadcastFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_broadcast_failures_total",
		Help: "Best-effort notification deliveries that failed.",
	}, []string{"channel"})
	reg.MustRegister(ordersPlaced, stockRejections, webhookEvents, oversold, unmatchedSizes, broadcastFailures)
	return &CheckoutMetrics{
		ordersPlaced:      ordersPlaced,
		stockRejections:   stockRejections,
		webhookEvents:     webhookEvents,
		oversold:          oversold,
		unmatchedSizes:    unmatchedSizes,
		broadcastFailures: broadcastFailures,
	}
}

// IncOrderPlaced counts a committed order.
func (c *CheckoutMetrics) IncOrderPlaced(paymentMethod string) {
	if c == nil || c.ordersPlaced == nil {
		return
	}
	c.ordersPlaced.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncStockRejection counts a rejected checkout; scope is "size" or "total".
func (c *CheckoutMetrics) IncStockRejection(scope string) {
	if c == nil || c.stockRejections == nil {
		return
	}
	c.stockRejections.WithLabelValues(normalizeLabel(scope)).Inc()
}

// IncWebhookEvent counts a processed webhook event.
func (c *CheckoutMetrics) IncWebhookEvent(eventType, outcome string) {
	if c == nil || c.webhookEvents == nil {
		return
	}
	c.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// IncOversold counts a paid line that could not be fully covered by stock.
func (c *CheckoutMetrics) IncOversold() {
	if c == nil || c.oversold == nil {
		return
	}
	c.oversold.Inc()
}

// IncUnmatchedSize counts a paid line whose size is not stocked by a sized product.
func (c *CheckoutMetrics) IncUnmatchedSize() {
	if c == nil || c.unmatchedSizes == nil {
		return
	}
	c.unmatchedSizes.Inc()
}

// IncBroadcastFailure counts a failed broadcast on channel.
func (c *CheckoutMetrics) IncBroadcastFailure(channel string) {
	if c == nil || c.broadcastFailures == nil {
		return
	}
	c.broadcastFailures.WithLabelValues(normalizeLabel(channel)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
