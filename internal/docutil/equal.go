package docutil

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// DeepCopy copies a normalised value tree. Scalars are returned as-is.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case []any:
		cp := make([]any, len(t))
		for i, item := range t {
			cp[i] = DeepCopy(item)
		}
		return cp
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, item := range t {
			cp[k] = DeepCopy(item)
		}
		return cp
	default:
		return v
	}
}

// CopyMap deep copies a mapping.
func CopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return DeepCopy(m).(map[string]any)
}

// Equal reports structural equality. Numbers compare by value, so int64(5)
// equals float64(5).
func Equal(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, item := range av {
			other, ok := bv[k]
			if !ok || !Equal(item, other) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case int64:
		switch bv := b.(type) {
		case int64:
			return av == bv
		case float64:
			return float64(av) == bv
		}
		return false
	case float64:
		switch bv := b.(type) {
		case float64:
			return av == bv
		case int64:
			return av == float64(bv)
		}
		return false
	default:
		return a == b
	}
}

// IsScalar reports whether v is neither a mapping nor a sequence.
func IsScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	default:
		return true
	}
}

// CanonicalKey returns a string that is identical for structurally equal
// values. Mapping keys are emitted in sorted order by the encoder, and
// integral floats encode like integers.
func CanonicalKey(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T:%v", v, v)
	}
	return string(b)
}
