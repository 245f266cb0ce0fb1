package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 123, time.UTC), ID: uuid.New()}
	got, err := ParseCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if c, err := ParseCursor(" "); err != nil || c != nil {
		t.Fatalf("blank cursor should be nil, got %+v err=%v", c, err)
	}
	if _, err := ParseCursor("not-base64!"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNormalizeLimit(t *testing.T) {
	if NormalizeLimit(0) != DefaultLimit || NormalizeLimit(500) != MaxLimit || NormalizeLimit(7) != 7 {
		t.Fatal("unexpected limit normalization")
	}
	if LimitWithBuffer(10) != 11 {
		t.Fatal("expected buffered limit")
	}
}

func TestPageHelpers(t *testing.T) {
	p := NormalizePage(Page{})
	if p.Page != 1 || p.PerPage != DefaultPerPage {
		t.Fatalf("unexpected defaults %+v", p)
	}
	if NormalizePage(Page{PerPage: 1000}).PerPage != MaxPerPage {
		t.Fatal("expected per_page cap")
	}
	if off := (Page{Page: 3, PerPage: 15}).Offset(); off != 30 {
		t.Fatalf("expected offset 30, got %d", off)
	}
	cases := map[int64]int{0: 1, 1: 1, 15: 1, 16: 2, 46: 4}
	for total, want := range cases {
		if got := LastPage(total, 15); got != want {
			t.Fatalf("LastPage(%d) expected %d, got %d", total, want, got)
		}
	}
}
