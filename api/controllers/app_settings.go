package controllers

import (
	"context"
	"net/http"

	"github.com/threadline/threadline-backend/api/responses"
	"github.com/threadline/threadline-backend/internal/settings"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
)

// SettingsReader is the read side of the app settings service.
type SettingsReader interface {
	Get(ctx context.Context) (settings.AppSettings, error)
}

// AppSettingsShow exposes the public app settings.
func AppSettingsShow(svc SettingsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		current, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, current)
	}
}
