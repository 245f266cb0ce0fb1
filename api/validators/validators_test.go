package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
)

type lineBody struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type orderBody struct {
	Items []lineBody `json:"items" validate:"required,min=1,dive"`
}

func TestDecodeJSONBodyReportsNestedFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":[{"product_id":"p1","quantity":0}]}`))
	var body orderBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := typed.Details().(map[string]string)
	if details["items[0].quantity"] != "must be at least 1" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":[],"extra":1}`))
	var body orderBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&recent=true&date_from=2026-02-01&bad=x", nil)

	page, err := ParseQueryInt(req, "page", 1, 1, 100)
	if err != nil || page != 3 {
		t.Fatalf("page=%d err=%v", page, err)
	}
	if _, err := ParseQueryInt(req, "bad", 1, 1, 100); err == nil {
		t.Fatal("expected numeric error")
	}
	recent, err := ParseQueryBool(req, "recent")
	if err != nil || !recent {
		t.Fatalf("recent=%v err=%v", recent, err)
	}
	from, err := ParseQueryDate(req, "date_from")
	if err != nil || from == nil || from.Day() != 1 {
		t.Fatalf("date_from=%v err=%v", from, err)
	}
	if _, err := ParseQueryDate(req, "bad"); err == nil {
		t.Fatal("expected date error")
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseUUIDParam(req, "id")
	if err != nil || got != id {
		t.Fatalf("got %s err=%v", got, err)
	}
	if _, err := ParseUUIDParam(req, "missing"); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestParsePage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=2&per_page=30", nil)
	page, err := ParsePage(req)
	if err != nil || page.Page != 2 || page.PerPage != 30 {
		t.Fatalf("page=%+v err=%v", page, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	page, err = ParsePage(req)
	if err != nil || page.Page != 1 || page.PerPage != 15 {
		t.Fatalf("defaults=%+v err=%v", page, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/?per_page=500", nil)
	if _, err := ParsePage(req); err == nil {
		t.Fatal("expected per_page range error")
	}
}

func TestSanitizeStringCutsOnRuneBoundary(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{in: "  robe d'été  ", max: 0, want: "robe d'été"},
		{in: "été", max: 2, want: "ét"},
		{in: "chemise", max: 4, want: "chem"},
		{in: "قميص أبيض", max: 4, want: "قميص"},
		{in: "ab", max: 5, want: "ab"},
	}
	for _, tc := range cases {
		got := SanitizeString(tc.in, tc.max)
		if got != tc.want {
			t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("SanitizeString(%q, %d) produced invalid UTF-8 %q", tc.in, tc.max, got)
		}
	}
}
