package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/metrics"
)

const (
	// AdminChannel carries admin notification events.
	AdminChannel = "admin-notifications"
	// CustomerBroadcastChannel carries notifications addressed to every customer.
	CustomerBroadcastChannel = "customer.notifications"
)

// CustomerChannel is the per-user channel for addressed notifications.
func CustomerChannel(userID uuid.UUID) string {
	return CustomerBroadcastChannel + "." + userID.String()
}

// Publisher pushes a payload onto a named channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

// Message is the envelope listeners receive.
type Message struct {
	Event  string    `json:"event"`
	Data   any       `json:"data"`
	SentAt time.Time `json:"sent_at"`
}

// Broadcaster delivers notifications to listeners. Delivery is best-effort: failures
// are logged and counted, never returned.
type Broadcaster struct {
	publisher Publisher
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// NewBroadcaster wires a broadcaster. publisher may be nil, in which case nothing is sent.
func NewBroadcaster(publisher Publisher, checkoutMetrics *metrics.CheckoutMetrics, logg *logger.Logger) *Broadcaster {
	return &Broadcaster{publisher: publisher, metrics: checkoutMetrics, logg: logg}
}

// Admin publishes an admin notification under event.
func (b *Broadcaster) Admin(ctx context.Context, event string, n *models.Notification) {
	b.send(ctx, AdminChannel, event, NewNotificationDTO(n))
}

// Customer publishes a customer notification when it is visible at now, on the broadcast
// channel or on the recipient's channel.
func (b *Broadcaster) Customer(ctx context.Context, n *models.CustomerNotification, now time.Time) {
	if !n.VisibleAt(now) {
		return
	}
	channel := CustomerBroadcastChannel
	if !n.IsBroadcast() {
		channel = CustomerChannel(*n.RecipientUserID)
	}
	b.send(ctx, channel, n.Type.String(), NewCustomerNotificationDTO(n))
}

func (b *Broadcaster) send(ctx context.Context, channel, event string, data any) {
	if b == nil || b.publisher == nil {
		return
	}
	payload, err := json.Marshal(Message{Event: event, Data: data, SentAt: time.Now().UTC()})
	if err == nil {
		_, err = b.publisher.Publish(ctx, channel, payload)
	}
	if err != nil {
		b.metrics.IncBroadcastFailure(channel)
		if b.logg != nil {
			logCtx := b.logg.WithField(ctx, "channel", channel)
			b.logg.Warn(logCtx, fmt.Sprintf("notification broadcast failed: %v", err))
		}
	}
}
