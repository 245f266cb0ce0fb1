package types

import "testing"

func TestSizeStockTotalsAndClone(t *testing.T) {
	s := SizeStock{"M": 4, "L": 6}
	if s.Total() != 10 {
		t.Fatalf("expected total 10, got %d", s.Total())
	}
	clone := s.Clone()
	clone["M"] = 0
	if s["M"] != 4 {
		t.Fatal("clone must not alias the source map")
	}
	if got := s.Labels(); len(got) != 2 || got[0] != "L" || got[1] != "M" {
		t.Fatalf("unexpected labels %v", got)
	}
	if qty, ok := s.Available("XL"); ok || qty != 0 {
		t.Fatalf("unknown label should be unavailable, got %d %v", qty, ok)
	}
}

func TestSizeStockValidate(t *testing.T) {
	if err := (SizeStock{"M": -1}).Validate(); err == nil {
		t.Fatal("expected negative stock error")
	}
	if err := (SizeStock{" ": 1}).Validate(); err == nil {
		t.Fatal("expected blank label error")
	}
	if err := (SizeStock{"S": 0}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSizeStockScanValue(t *testing.T) {
	var s SizeStock
	if err := s.Scan([]byte(`{"M":4,"L":6}`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if s["L"] != 6 {
		t.Fatalf("expected L=6, got %v", s)
	}
	if err := s.Scan(nil); err != nil || s != nil {
		t.Fatalf("expected nil after scanning NULL, got %v err=%v", s, err)
	}
	if err := s.Scan(42); err == nil {
		t.Fatal("expected unsupported type error")
	}

	v, err := SizeStock{"S": 1}.Value()
	if err != nil || v != `{"S":1}` {
		t.Fatalf("unexpected value %v err=%v", v, err)
	}
}

func TestShippingAddressFullName(t *testing.T) {
	a := ShippingAddress{FirstName: "Amel", LastName: "Ben Salah"}
	if a.FullName() != "Amel Ben Salah" {
		t.Fatalf("unexpected full name %q", a.FullName())
	}
}
