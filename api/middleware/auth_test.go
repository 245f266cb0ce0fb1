package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/auth"
	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func mintTestToken(t *testing.T, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, _, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{UserID: userID, Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	userID := uuid.New()
	token := mintTestToken(t, userID, enums.UserRoleAdmin)

	var actor auth.Actor
	var ok bool
	handler := Auth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !ok || actor.UserID != userID || actor.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected actor %+v ok=%v", actor, ok)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(nil)(okHandler())
	cases := map[enums.UserRole]int{
		enums.UserRoleCustomer:   http.StatusForbidden,
		enums.UserRoleAdmin:      http.StatusOK,
		enums.UserRoleSuperAdmin: http.StatusOK,
	}
	for role, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithActor(req.Context(), uuid.New(), role))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("%s: expected %d got %d", role, want, resp.Code)
		}
	}
}

type stubMaintenance struct {
	on  bool
	err error
}

func (s stubMaintenance) MaintenanceMode(ctx context.Context) (bool, error) {
	return s.on, s.err
}

func TestMaintenanceBlocksCustomerTraffic(t *testing.T) {
	handler := Maintenance(stubMaintenance{on: true}, nil)(okHandler())

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/orders", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/products", http.StatusServiceUnavailable},
		{http.MethodPut, "/api/cart", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/cart", http.StatusOK},
		{http.MethodGet, "/api/wishlist", http.StatusOK},
		{http.MethodGet, "/api/auth/user", http.StatusOK},
		{http.MethodPost, "/api/auth/login", http.StatusOK},
		{http.MethodGet, "/api/app-settings", http.StatusOK},
		{http.MethodPatch, "/api/admin/orders/1/status", http.StatusOK},
		{http.MethodGet, "/api/admin", http.StatusOK},
		{http.MethodPost, "/api/handleStripeWebhook", http.StatusOK},
		{http.MethodGet, "/api/health/ready", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(tc.method, tc.path, nil))
		if resp.Code != tc.want {
			t.Fatalf("%s %s: expected %d got %d", tc.method, tc.path, tc.want, resp.Code)
		}
	}
}

func TestMaintenanceOffOrUnknownLetsTrafficThrough(t *testing.T) {
	for _, checker := range []MaintenanceChecker{stubMaintenance{}, stubMaintenance{err: errors.New("redis down")}} {
		resp := httptest.NewRecorder()
		Maintenance(checker, nil)(okHandler()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/orders", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
	}
}
