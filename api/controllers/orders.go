package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadline/threadline-backend/api/responses"
	"github.com/threadline/threadline-backend/api/validators"
	checkoutsvc "github.com/threadline/threadline-backend/internal/checkout"
	"github.com/threadline/threadline-backend/internal/orders"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/types"
)

type orderLineRequest struct {
	ProductID uuid.UUID `json:"id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	Size      *string   `json:"size,omitempty" validate:"omitempty,max=20"`
}

// placeOrderRequest mirrors the storefront checkout form. Client-side subtotal, tax and
// totalAmount are accepted for compatibility and recomputed on the server.
type placeOrderRequest struct {
	Items           []orderLineRequest    `json:"items" validate:"required,min=1,dive"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	Subtotal        *decimal.Decimal      `json:"subtotal,omitempty"`
	Tax             *decimal.Decimal      `json:"tax,omitempty"`
	Shipping        *decimal.Decimal      `json:"shipping,omitempty"`
	Discount        *decimal.Decimal      `json:"discount,omitempty"`
	TotalAmount     *decimal.Decimal      `json:"totalAmount,omitempty"`
	Notes           *string               `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type initiatePaymentRequest struct {
	Items           []orderLineRequest    `json:"items" validate:"required,min=1,dive"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
}

func toLineInputs(items []orderLineRequest) []checkoutsvc.LineInput {
	lines := make([]checkoutsvc.LineInput, 0, len(items))
	for _, item := range items {
		line := checkoutsvc.LineInput{ProductID: item.ProductID, Quantity: item.Quantity}
		if item.Size != nil {
			line.Size = strings.TrimSpace(*item.Size)
		}
		lines = append(lines, line)
	}
	return lines
}

// OrderPlace runs the direct (cash on delivery) checkout for the caller.
func OrderPlace(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), actor.UserID, checkoutsvc.PlaceOrderInput{
			Items:           toLineInputs(payload.Items),
			ShippingAddress: payload.ShippingAddress,
			Shipping:        payload.Shipping,
			Discount:        payload.Discount,
			Notes:           payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// InitiatePayment opens a hosted card payment session for the submitted lines.
func InitiatePayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var payload initiatePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.InitiatePayment(r.Context(), actor.UserID, checkoutsvc.InitiatePaymentInput{
			Items:           toLineInputs(payload.Items),
			ShippingAddress: payload.ShippingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// OrderList returns the caller's orders, newest first.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForCustomer(r.Context(), actor.UserID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderShow returns one of the caller's orders.
func OrderShow(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForCustomer(r.Context(), actor.UserID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
