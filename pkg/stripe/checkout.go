package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
)

// SessionRequest describes a single-line hosted checkout for an order total.
type SessionRequest struct {
	Currency          string
	Amount            decimal.Decimal
	ProductName       string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	CustomerEmail     string
	Metadata          map[string]string
}

// Session is the subset of a created checkout session the shop needs.
type Session struct {
	ID  string
	URL string
}

// CheckoutSessions creates hosted checkout sessions.
type CheckoutSessions interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

// CreateSession opens a payment-mode Checkout Session for req.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params, err := sessionParams(req)
	if err != nil {
		return nil, err
	}
	params.Context = ctx

	created, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &Session{ID: created.ID, URL: created.URL}, nil
}

func sessionParams(req SessionRequest) (*stripe.CheckoutSessionParams, error) {
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, fmt.Errorf("currency is required")
	}
	amount, err := MinorUnits(currency, req.Amount)
	if err != nil {
		return nil, err
	}
	name := req.ProductName
	if name == "" {
		name = "Order total"
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
					UnitAmount: stripe.Int64(amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return params, nil
}
