package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/threadline/threadline-backend/api/responses"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
)

// MaintenanceChecker reports whether customer traffic is paused.
type MaintenanceChecker interface {
	MaintenanceMode(ctx context.Context) (bool, error)
}

type maintenanceExemption struct {
	method string
	path   string
	prefix bool
}

// Admin tooling, health checks, payment callbacks and a few read-only customer views stay up.
var maintenanceExemptions = []maintenanceExemption{
	{path: "/api/admin/", prefix: true},
	{path: "/api/health/", prefix: true},
	{path: "/api/app-settings"},
	{path: "/metrics"},
	{method: http.MethodPost, path: "/api/auth/login"},
	{method: http.MethodPost, path: "/api/handleStripeWebhook"},
	{method: http.MethodGet, path: "/api/auth/user"},
	{method: http.MethodGet, path: "/api/cart"},
	{method: http.MethodGet, path: "/api/wishlist"},
}

// Maintenance rejects non-exempt requests with 503 while maintenance mode is on. Lookup
// errors let the request through.
func Maintenance(checker MaintenanceChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if checker == nil || maintenanceExempt(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			on, err := checker.MaintenanceMode(r.Context())
			if err != nil {
				if logg != nil {
					logg.Warn(r.Context(), "maintenance lookup failed: "+err.Error())
				}
				next.ServeHTTP(w, r)
				return
			}
			if on {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeMaintenance, "The application is under maintenance. Please try again later."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func maintenanceExempt(method, path string) bool {
	path = strings.TrimSuffix(path, "/")
	for _, ex := range maintenanceExemptions {
		if ex.method != "" && ex.method != method {
			continue
		}
		if ex.prefix {
			if strings.HasPrefix(path+"/", ex.path) {
				return true
			}
			continue
		}
		if path == ex.path {
			return true
		}
	}
	return false
}
