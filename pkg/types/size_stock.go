package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SizeStock maps a size label (S, M, 42...) to its remaining units.
type SizeStock map[string]int

// Has reports whether the product is sold in discrete sizes.
func (s SizeStock) Has() bool {
	return len(s) > 0
}

// Total sums every size entry.
func (s SizeStock) Total() int {
	total := 0
	for _, qty := range s {
		total += qty
	}
	return total
}

// Available returns the units left for label and whether the label exists.
func (s SizeStock) Available(label string) (int, bool) {
	qty, ok := s[label]
	return qty, ok
}

// Labels returns the size labels in stable order.
func (s SizeStock) Labels() []string {
	labels := make([]string, 0, len(s))
	for label := range s {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Clone returns an independent copy.
func (s SizeStock) Clone() SizeStock {
	if s == nil {
		return nil
	}
	out := make(SizeStock, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Validate rejects blank labels and negative counts.
func (s SizeStock) Validate() error {
	for label, qty := range s {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("size label cannot be blank")
		}
		if qty < 0 {
			return fmt.Errorf("stock for size %s cannot be negative", label)
		}
	}
	return nil
}

func (s SizeStock) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]int(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *SizeStock) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("size stock: unsupported scan type %T", value)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*s = nil
		return nil
	}
	out := SizeStock{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("size stock: %w", err)
	}
	*s = out
	return nil
}
