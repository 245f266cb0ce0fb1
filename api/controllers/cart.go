package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/threadline/threadline-backend/api/responses"
	"github.com/threadline/threadline-backend/api/validators"
	"github.com/threadline/threadline-backend/internal/cart"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
)

type cartReplaceRequest struct {
	Items []cartLineRequest `json:"items" validate:"dive"`
}

type cartLineRequest struct {
	ProductID uuid.UUID `json:"id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	Size      *string   `json:"size,omitempty" validate:"omitempty,max=20"`
}

func (r cartReplaceRequest) toInput() []cart.LineInput {
	lines := make([]cart.LineInput, 0, len(r.Items))
	for _, item := range r.Items {
		line := cart.LineInput{ProductID: item.ProductID, Quantity: item.Quantity}
		if item.Size != nil {
			line.Size = strings.TrimSpace(*item.Size)
		}
		lines = append(lines, line)
	}
	return lines
}

// CartFetch returns the caller's cart.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		result, err := svc.Get(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CartReplace swaps the caller's cart for the submitted lines.
func CartReplace(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var payload cartReplaceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Replace(r.Context(), actor.UserID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CartClear empties the caller's cart.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		if err := svc.Clear(r.Context(), actor.UserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}

// CartRemoveItem drops one product from the caller's cart.
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RemoveProduct(r.Context(), actor.UserID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
