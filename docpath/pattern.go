package docpath

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ctschema/ctschema/internal/pathutil"
)

// Wildcard is the pattern segment matching every child of a container.
const Wildcard = "*"

// Pattern is a slash-separated path where any segment may be the wildcard
// "*". Numeric segments index sequences and are plain keys on mappings.
//
//	/participants/*/samples/*/cimac_id
type Pattern struct {
	raw      string
	segments []patternSegment
}

type patternSegment struct {
	token    string
	wildcard bool
}

// ParsePattern parses a path pattern. Segments that mix the wildcard with
// other characters (e.g. "abc*") are rejected.
func ParsePattern(raw string) (*Pattern, error) {
	if raw == "" {
		return nil, fmt.Errorf("docpath: empty pattern")
	}
	if !strings.HasPrefix(raw, "/") {
		return nil, fmt.Errorf("docpath: pattern %q must start with '/'", raw)
	}
	p := &Pattern{raw: raw}
	for _, tok := range pathutil.SplitPointer(raw) {
		if tok == Wildcard {
			p.segments = append(p.segments, patternSegment{wildcard: true})
			continue
		}
		if strings.Contains(tok, Wildcard) {
			return nil, fmt.Errorf("docpath: partial wildcard segment %q in pattern %q is not supported", tok, raw)
		}
		p.segments = append(p.segments, patternSegment{token: tok})
	}
	return p, nil
}

// String returns the pattern as written.
func (p *Pattern) String() string {
	return p.raw
}

// Values returns every value located at a path matching the pattern.
// Mapping children are visited in sorted key order so results are deterministic.
func (p *Pattern) Values(doc any) []any {
	current := []any{doc}
	for _, seg := range p.segments {
		current = applySegment(current, seg)
		if len(current) == 0 {
			return nil
		}
	}
	return current
}

// applySegment applies a segment to a list of current nodes and returns the results.
func applySegment(current []any, seg patternSegment) []any {
	var results []any
	for _, node := range current {
		switch v := node.(type) {
		case map[string]any:
			if seg.wildcard {
				keys := make([]string, 0, len(v))
				for k := range v {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					results = append(results, v[k])
				}
				continue
			}
			if val, ok := v[seg.token]; ok {
				results = append(results, val)
			}
		case []any:
			if seg.wildcard {
				results = append(results, v...)
				continue
			}
			if idx, err := strconv.Atoi(seg.token); err == nil && idx >= 0 && idx < len(v) {
				results = append(results, v[idx])
			}
		}
	}
	return results
}
