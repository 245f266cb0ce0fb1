package admin

import (
	"net/http"

	"github.com/threadline/threadline-backend/api/middleware"
	"github.com/threadline/threadline-backend/api/responses"
	pkgAuth "github.com/threadline/threadline-backend/pkg/auth"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
)

func requireAdmin(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (pkgAuth.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return pkgAuth.Actor{}, false
	}
	if !actor.Role.IsAdmin() {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
		return pkgAuth.Actor{}, false
	}
	return actor, true
}
