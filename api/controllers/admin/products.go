package admin

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadline/threadline-backend/api/responses"
	"github.com/threadline/threadline-backend/api/validators"
	productsvc "github.com/threadline/threadline-backend/internal/products"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
)

type createProductRequest struct {
	Name                string          `json:"name" validate:"required,max=255"`
	Description         *string         `json:"description,omitempty"`
	CategoryID          *uuid.UUID      `json:"category_id,omitempty"`
	Image               *string         `json:"image,omitempty"`
	Price               decimal.Decimal `json:"price"`
	PromotionPercentage int             `json:"promotion_percentage" validate:"gte=0,lte=100"`
	Stock               int             `json:"stock" validate:"gte=0"`
	SizeStock           map[string]int  `json:"size_stock,omitempty" validate:"omitempty,dive,gte=0"`
	IsActive            *bool           `json:"is_active,omitempty"`
}

func (r createProductRequest) toCreateInput() productsvc.CreateInput {
	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}
	return productsvc.CreateInput{
		Name:                strings.TrimSpace(r.Name),
		Description:         r.Description,
		CategoryID:          r.CategoryID,
		Image:               r.Image,
		Price:               r.Price,
		PromotionPercentage: r.PromotionPercentage,
		Stock:               r.Stock,
		SizeStock:           r.SizeStock,
		IsActive:            isActive,
	}
}

type updateProductRequest struct {
	Name                *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Description         *string          `json:"description,omitempty"`
	CategoryID          *uuid.UUID       `json:"category_id,omitempty"`
	Image               *string          `json:"image,omitempty"`
	Price               *decimal.Decimal `json:"price,omitempty"`
	PromotionPercentage *int             `json:"promotion_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	Stock               *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	SizeStock           *map[string]int  `json:"size_stock,omitempty"`
	IsActive            *bool            `json:"is_active,omitempty"`
}

func (r updateProductRequest) toUpdateInput() productsvc.UpdateInput {
	return productsvc.UpdateInput{
		Name:                r.Name,
		Description:         r.Description,
		CategoryID:          r.CategoryID,
		Image:               r.Image,
		Price:               r.Price,
		PromotionPercentage: r.PromotionPercentage,
		Stock:               r.Stock,
		SizeStock:           r.SizeStock,
		IsActive:            r.IsActive,
	}
}

type stockRequest struct {
	Stock     int     `json:"stock" validate:"gte=0"`
	Operation *string `json:"operation,omitempty"`
	Size      *string `json:"size,omitempty" validate:"omitempty,max=20"`
}

func (r stockRequest) toStockInput() (productsvc.StockInput, error) {
	op := enums.StockOperationSet
	if r.Operation != nil {
		parsed, err := enums.ParseStockOperation(strings.TrimSpace(*r.Operation))
		if err != nil {
			return productsvc.StockInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid operation")
		}
		op = parsed
	}
	input := productsvc.StockInput{Operation: op, Quantity: r.Stock}
	if r.Size != nil {
		input.Size = strings.TrimSpace(*r.Size)
	}
	return input, nil
}

type promotionRequest struct {
	PromotionPercentage int `json:"promotion_percentage" validate:"gte=0,lte=100"`
}

// CreateProduct adds a product owned by the calling admin.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		actor, ok := requireAdmin(w, r, logg)
		if !ok {
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), actor, payload.toCreateInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct applies a partial product update.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		actor, ok := requireAdmin(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), actor, productID, payload.toUpdateInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct removes a product.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		actor, ok := requireAdmin(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// AdjustProductStock sets, adds or subtracts stock, per size when given.
func AdjustProductStock(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		actor, ok := requireAdmin(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload stockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toStockInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AdjustStock(r.Context(), actor, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// SetProductPromotion updates the promotion percentage and derived promo price.
func SetProductPromotion(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		actor, ok := requireAdmin(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload promotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.SetPromotion(r.Context(), actor, productID, payload.PromotionPercentage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
