package stripe

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MaxMetadataValueLen is Stripe's per-value metadata limit.
const MaxMetadataValueLen = 500

// PutJSON marshals v into meta under key, splitting it over key_0..key_n when it
// exceeds the per-value limit. key_parts records the chunk count.
func PutJSON(meta map[string]string, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal metadata %s: %w", key, err)
	}
	s := string(raw)
	if len(s) <= MaxMetadataValueLen {
		meta[key] = s
		return nil
	}

	parts := 0
	for start := 0; start < len(s); start += MaxMetadataValueLen {
		end := start + MaxMetadataValueLen
		if end > len(s) {
			end = len(s)
		}
		meta[fmt.Sprintf("%s_%d", key, parts)] = s[start:end]
		parts++
	}
	meta[key+"_parts"] = strconv.Itoa(parts)
	return nil
}

// GetJSON reassembles a value written by PutJSON and unmarshals it into dst.
func GetJSON(meta map[string]string, key string, dst any) error {
	raw, ok := meta[key]
	if !ok {
		countRaw, chunked := meta[key+"_parts"]
		if !chunked {
			return fmt.Errorf("metadata %s missing", key)
		}
		count, err := strconv.Atoi(countRaw)
		if err != nil || count <= 0 {
			return fmt.Errorf("metadata %s_parts invalid", key)
		}
		var b strings.Builder
		for i := 0; i < count; i++ {
			part, ok := meta[fmt.Sprintf("%s_%d", key, i)]
			if !ok {
				return fmt.Errorf("metadata %s_%d missing", key, i)
			}
			b.WriteString(part)
		}
		raw = b.String()
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("unmarshal metadata %s: %w", key, err)
	}
	return nil
}
