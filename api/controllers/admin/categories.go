package admin

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/threadline/threadline-backend/api/responses"
	"github.com/threadline/threadline-backend/api/validators"
	"github.com/threadline/threadline-backend/internal/categories"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
)

type createCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Image       *string `json:"image,omitempty" validate:"omitempty,max=2048"`
	IsActive    *bool   `json:"is_active,omitempty"`
	SortOrder   int     `json:"sort_order" validate:"gte=0"`
	Featured    bool    `json:"featured"`
}

func (r createCategoryRequest) toCreateInput() categories.CreateInput {
	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}
	return categories.CreateInput{
		Name:        strings.TrimSpace(r.Name),
		Slug:        r.Slug,
		Description: r.Description,
		Image:       r.Image,
		IsActive:    isActive,
		SortOrder:   r.SortOrder,
		Featured:    r.Featured,
	}
}

type updateCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Image       *string `json:"image,omitempty" validate:"omitempty,max=2048"`
	IsActive    *bool   `json:"is_active,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty" validate:"omitempty,gte=0"`
	Featured    *bool   `json:"featured,omitempty"`
}

type reorderRequest struct {
	Categories []struct {
		ID        uuid.UUID `json:"id" validate:"required"`
		SortOrder int       `json:"sort_order" validate:"gte=0"`
	} `json:"categories" validate:"required,min=1,dive"`
}

// ListCategories returns the categories the caller manages.
func ListCategories(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}
		actor, ok := requireAdmin(w, r, logg)
		if !ok {
			return
		}
		query := r.URL.Query()
		list, err := svc.List(r.Context(), actor, categories.ListInput{
			Search:    validators.SanitizeString(query.Get("search"), 100),
			SortBy:    strings.TrimSpace(query.Get("sort_by")),
			SortOrder: strings.TrimSpace(query.Get("sort_order")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CategoryStats returns category counters scoped to the caller.
func CategoryStats(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}
		actor, ok := requireAdmin(w, r, logg)
		if !ok {
			return
		}
		stats, err := svc.Stats(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// ShowCategory returns one managed category.
func ShowCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}
		actor, ok := requireAdmin(w, r, logg)
		if !ok {
			return
		}
		categoryID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.Get(r.Context(), actor, categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

// CreateCategory adds a category owned by the caller.
func CreateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}
		actor, ok := requireAdmin(w, r, logg)
		if !ok {
			return
		}
		var payload createCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.Create(r.Context(), actor, payload.toCreateInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

// UpdateCategory applies a partial category update.
func UpdateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}
		actor, ok := requireAdmin(w, r, logg)
		if !ok {
			return
		}
		categoryID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.Update(r.Context(), actor, categoryID, categories.UpdateInput{
			Name:        payload.Name,
			Slug:        payload.Slug,
			Description: payload.Description,
			Image:       payload.Image,
			IsActive:    payload.IsActive,
			SortOrder:   payload.SortOrder,
			Featured:    payload.Featured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

// DeleteCategory removes an empty category.
func DeleteCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}
		actor, ok := requireAdmin(w, r, logg)
		if !ok {
			return
		}
		categoryID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, categoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ReorderCategories assigns sort positions in one transaction.
func ReorderCategories(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}
		actor, ok := requireAdmin(w, r, logg)
		if !ok {
			return
		}
		var payload reorderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries := make([]categories.ReorderEntry, 0, len(payload.Categories))
		for _, c := range payload.Categories {
			entries = append(entries, categories.ReorderEntry{ID: c.ID, SortOrder: c.SortOrder})
		}
		if err := svc.Reorder(r.Context(), actor, entries); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
