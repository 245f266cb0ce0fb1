package checkout

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/stripe"
	"github.com/threadline/threadline-backend/pkg/types"
)

const (
	metaItems           = "items"
	metaShippingAddress = "shipping_address"
	metaUserID          = "user_id"
	metaSubtotal        = "subtotal"
	metaTax             = "tax"
	metaShipping        = "shipping"
	metaFinalTotal      = "final_total"
)

// sessionLine is a line as embedded in session metadata, with the unit price resolved
// when the session was created.
type sessionLine struct {
	ProductID uuid.UUID       `json:"id"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	UnitPrice decimal.Decimal `json:"price"`
}

// sessionPayload is everything needed to record the order once the session is paid.
type sessionPayload struct {
	Lines           []sessionLine
	ShippingAddress types.ShippingAddress
	UserID          *uuid.UUID
	Totals          Totals
}

func encodeSessionMetadata(payload sessionPayload) (map[string]string, error) {
	meta := map[string]string{
		metaSubtotal:   payload.Totals.Subtotal.StringFixed(2),
		metaTax:        payload.Totals.Tax.StringFixed(2),
		metaShipping:   payload.Totals.Shipping.StringFixed(2),
		metaFinalTotal: payload.Totals.Total.StringFixed(2),
	}
	if payload.UserID != nil {
		meta[metaUserID] = payload.UserID.String()
	}
	if err := stripe.PutJSON(meta, metaItems, payload.Lines); err != nil {
		return nil, err
	}
	if err := stripe.PutJSON(meta, metaShippingAddress, payload.ShippingAddress); err != nil {
		return nil, err
	}
	return meta, nil
}

func decodeSessionMetadata(meta map[string]string) (*sessionPayload, error) {
	payload := &sessionPayload{}
	if err := stripe.GetJSON(meta, metaItems, &payload.Lines); err != nil {
		return nil, err
	}
	if err := stripe.GetJSON(meta, metaShippingAddress, &payload.ShippingAddress); err != nil {
		return nil, err
	}
	if raw := strings.TrimSpace(meta[metaUserID]); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		payload.UserID = &id
	}

	var err error
	if payload.Totals.Subtotal, err = decimalOrZero(meta[metaSubtotal]); err != nil {
		return nil, err
	}
	if payload.Totals.Tax, err = decimalOrZero(meta[metaTax]); err != nil {
		return nil, err
	}
	if payload.Totals.Shipping, err = decimalOrZero(meta[metaShipping]); err != nil {
		return nil, err
	}
	if payload.Totals.Total, err = decimalOrZero(meta[metaFinalTotal]); err != nil {
		return nil, err
	}
	payload.Totals.Discount = decimal.Zero
	return payload, nil
}

func decimalOrZero(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
