package categories

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Summer Dresses":      "summer-dresses",
		"  T-Shirts & Tops  ": "t-shirts-tops",
		"Robes d'été":         "robes-d-ete",
		"Jeans 2026":          "jeans-2026",
		"!!!":                 "category",
		"فساتين":              "category",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
	if got := withSuffix("dresses", 2); got != "dresses-2" {
		t.Fatalf("unexpected suffix %q", got)
	}
}
