package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/threadline/threadline-backend/internal/categories"
	"github.com/threadline/threadline-backend/internal/creators"
	"github.com/threadline/threadline-backend/internal/users"
	pkgAuth "github.com/threadline/threadline-backend/pkg/auth"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
)

type stubUsers struct {
	users.Service
	listInput   users.ListInput
	updateInput users.UpdateInput
	resetTo     string
}

func (s *stubUsers) List(ctx context.Context, input users.ListInput) (*users.UserListResult, error) {
	s.listInput = input
	return &users.UserListResult{}, nil
}

func (s *stubUsers) Update(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID, input users.UpdateInput) (*users.UserDTO, error) {
	s.updateInput = input
	return &users.UserDTO{ID: id}, nil
}

func (s *stubUsers) ResetPassword(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID, password string) error {
	s.resetTo = password
	return nil
}

type stubCategories struct {
	categories.Service
	reorder []categories.ReorderEntry
}

func (s *stubCategories) Reorder(ctx context.Context, actor pkgAuth.Actor, entries []categories.ReorderEntry) error {
	s.reorder = entries
	return nil
}

type stubCreators struct {
	creators.Service
}

func (stubCreators) Delete(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "user has orders or products")
}

func TestListUsersParsesFilters(t *testing.T) {
	svc := &stubUsers{}
	req := asRole(httptest.NewRequest(http.MethodGet,
		"/api/admin/users?search=amira&role=customer&is_active=false&sort_by=name&sort_order=asc&page=3", nil),
		enums.UserRoleAdmin)
	rec := httptest.NewRecorder()
	ListUsers(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	in := svc.listInput
	if in.Search != "amira" || in.Role == nil || *in.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected search/role %+v", in)
	}
	if in.IsActive == nil || *in.IsActive {
		t.Fatalf("expected is_active=false filter, got %v", in.IsActive)
	}
	if in.SortBy != "name" || in.SortOrder != "asc" || in.Page.Page != 3 {
		t.Fatalf("unexpected sort/page %+v", in)
	}

	req = asRole(httptest.NewRequest(http.MethodGet, "/api/admin/users?role=owner", nil), enums.UserRoleAdmin)
	rec = httptest.NewRecorder()
	ListUsers(svc, testLogger())(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
}

func TestUpdateUserParsesRoleAndStatus(t *testing.T) {
	svc := &stubUsers{}
	body := `{"role": "admin", "is_active": false}`
	req := withID(httptest.NewRequest(http.MethodPut, "/api/admin/users/x", strings.NewReader(body)), uuid.New())
	req = asRole(req, enums.UserRoleSuperAdmin)
	rec := httptest.NewRecorder()
	UpdateUser(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	in := svc.updateInput
	if in.Role == nil || *in.Role != enums.UserRoleAdmin || in.IsActive == nil || *in.IsActive {
		t.Fatalf("unexpected update input %+v", in)
	}
}

func TestResetUserPasswordRequiresConfirmation(t *testing.T) {
	svc := &stubUsers{}
	id := uuid.New()
	mismatch := `{"password": "longenough", "password_confirmation": "different"}`
	req := asRole(withID(httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(mismatch)), id), enums.UserRoleAdmin)
	rec := httptest.NewRecorder()
	ResetUserPassword(svc, testLogger())(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	match := `{"password": "longenough", "password_confirmation": "longenough"}`
	req = asRole(withID(httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(match)), id), enums.UserRoleAdmin)
	rec = httptest.NewRecorder()
	ResetUserPassword(svc, testLogger())(rec, req)
	if rec.Code != http.StatusNoContent || svc.resetTo != "longenough" {
		t.Fatalf("expected 204 and forwarded password, got %d %q", rec.Code, svc.resetTo)
	}
}

func TestReorderCategoriesForwardsEntries(t *testing.T) {
	svc := &stubCategories{}
	a, b := uuid.New(), uuid.New()
	body := `{"categories": [{"id": "` + a.String() + `", "sort_order": 2}, {"id": "` + b.String() + `", "sort_order": 1}]}`
	req := asRole(httptest.NewRequest(http.MethodPost, "/api/admin/categories/reorder", strings.NewReader(body)), enums.UserRoleAdmin)
	rec := httptest.NewRecorder()
	ReorderCategories(svc, testLogger())(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(svc.reorder) != 2 || svc.reorder[0].ID != a || svc.reorder[1].SortOrder != 1 {
		t.Fatalf("unexpected entries %+v", svc.reorder)
	}

	req = asRole(httptest.NewRequest(http.MethodPost, "/api/admin/categories/reorder", strings.NewReader(`{"categories": []}`)), enums.UserRoleAdmin)
	rec = httptest.NewRecorder()
	ReorderCategories(svc, testLogger())(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty list, got %d", rec.Code)
	}
}

func TestDeleteCreatorWithProductsIsUnprocessable(t *testing.T) {
	req := asRole(withID(httptest.NewRequest(http.MethodDelete, "/x", nil), uuid.New()), enums.UserRoleAdmin)
	rec := httptest.NewRecorder()
	DeleteCreator(stubCreators{}, testLogger())(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
