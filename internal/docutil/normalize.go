// Package docutil holds the value-tree helpers shared by every ctschema
// package: normalisation of decoded YAML/JSON values, deep copies,
// structural equality, canonical keys and document file loading.
//
// A normalised tree contains only map[string]any, []any, string, bool, nil,
// int64 and float64.
package docutil

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Normalize converts a decoded value tree into its canonical shape.
// The input is not modified; containers are rebuilt.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			n, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			key := fmt.Sprint(k)
			n, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			n, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint:
		return normalizeUint(uint64(t)), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		return normalizeUint(t), nil
	case float32:
		return float64(t), nil
	case json.Number:
		return normalizeNumber(string(t))
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	case []byte:
		return base64.StdEncoding.EncodeToString(t), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// NormalizeInPlace normalises v, reusing its map[string]any and []any
// containers so that callers holding references to them see the result.
// Other containers are replaced by normalised copies.
func NormalizeInPlace(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			n, err := NormalizeInPlace(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			t[k] = n
		}
		return t, nil
	case []any:
		for i, item := range t {
			n, err := NormalizeInPlace(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			t[i] = n
		}
		return t, nil
	default:
		return Normalize(v)
	}
}

// MustNormalize is Normalize for trees built in code (tests, literals).
// It panics on unsupported types.
func MustNormalize(v any) any {
	n, err := Normalize(v)
	if err != nil {
		panic(err)
	}
	return n
}

func normalizeUint(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

func normalizeNumber(s string) (any, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return f, nil
}
