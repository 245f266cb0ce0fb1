package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/threadline/threadline-backend/internal/checkout"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/metrics"
)

const (
	outcomeProcessed = "processed"
	outcomeDuplicate = "duplicate"
	outcomeIgnored   = "ignored"
	outcomeFailed    = "failed"
)

type sessionConfirmer interface {
	ConfirmPaidSession(ctx context.Context, paid checkout.PaidSession) (*checkout.ConfirmResult, error)
}

type ServiceParams struct {
	Checkout sessionConfirmer
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
}

// Service dispatches verified Stripe events to the checkout workflow.
type Service struct {
	checkout sessionConfirmer
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Checkout == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		checkout: params.Checkout,
		metrics:  params.Metrics,
		logg:     logg,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	eventType := string(event.Type)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"stripe_event_id":   event.ID,
		"stripe_event_type": eventType,
	})

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			s.metrics.IncWebhookEvent(eventType, outcomeFailed)
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
		}
		outcome, err := s.handleSession(ctx, &session)
		s.metrics.IncWebhookEvent(eventType, outcome)
		return err
	default:
		s.metrics.IncWebhookEvent(eventType, outcomeIgnored)
		s.logg.Info(ctx, "stripe event ignored")
		return nil
	}
}

func (s *Service) handleSession(ctx context.Context, session *stripe.CheckoutSession) (string, error) {
	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		s.logg.Info(ctx, fmt.Sprintf("checkout session %s not paid yet", session.ID))
		return outcomeIgnored, nil
	}

	result, err := s.checkout.ConfirmPaidSession(ctx, checkout.PaidSession{
		ID:                session.ID,
		ClientReferenceID: session.ClientReferenceID,
		Currency:          string(session.Currency),
		AmountTotal:       session.AmountTotal,
		Metadata:          session.Metadata,
	})
	if err != nil {
		return outcomeFailed, err
	}
	if result.Duplicate {
		return outcomeDuplicate, nil
	}
	return outcomeProcessed, nil
}
