package merger

import (
	"fmt"

	"github.com/ctschema/ctschema/docpath"
	"github.com/ctschema/ctschema/resolver"
	"github.com/ctschema/ctschema/schemaerrors"
)

// Strategy selects how a field is merged.
type Strategy string

const (
	// StrategyThrowOnConflict keeps equal values and fails on different ones
	StrategyThrowOnConflict Strategy = "throwOnConflict"
	// StrategyOverwrite lets the head value win
	StrategyOverwrite Strategy = "overwrite"
	// StrategyObjectMerge merges mappings field by field
	StrategyObjectMerge Strategy = "objectMerge"
	// StrategyArrayMergeByID merges arrays of objects by an identity field
	StrategyArrayMergeByID Strategy = "arrayMergeById"
	// StrategyAppend concatenates arrays
	StrategyAppend Strategy = "append"
	// StrategyArrayUnion appends head items not already in the base array
	StrategyArrayUnion Strategy = "arrayUnion"
)

// Schema keywords read by the merger.
const (
	KeyMergeStrategy = "mergeStrategy"
	KeyMergeOptions  = "mergeOptions"
	KeyIDRef         = "idRef"
)

// DefaultIDRef is the identity field used by arrayMergeById when the schema
// does not name one.
const DefaultIDRef = "id"

// ValidStrategies returns all valid strategy names
func ValidStrategies() []string {
	return []string{
		string(StrategyThrowOnConflict),
		string(StrategyOverwrite),
		string(StrategyObjectMerge),
		string(StrategyArrayMergeByID),
		string(StrategyAppend),
		string(StrategyArrayUnion),
	}
}

// IsValidStrategy checks if a strategy name is valid
func IsValidStrategy(name string) bool {
	switch Strategy(name) {
	case StrategyThrowOnConflict, StrategyOverwrite, StrategyObjectMerge,
		StrategyArrayMergeByID, StrategyAppend, StrategyArrayUnion:
		return true
	default:
		return false
	}
}

// plan is the strategy chosen for one field.
type plan struct {
	strategy Strategy
	idRef    string
	node     map[string]any // dereferenced schema node, nil when unknown
}

// schemaView answers strategy questions against one resolved schema.
type schemaView struct {
	root map[string]any
}

// deref follows same-file $ref chains. Resolved schemas keep local refs so
// that recursive definitions stay finite.
func (s schemaView) deref(node any) map[string]any {
	m, _ := node.(map[string]any)
	for depth := 0; m != nil && depth < resolver.MaxRefDepth; depth++ {
		ref, ok := m[resolver.KeyRef].(string)
		if !ok || len(ref) == 0 || ref[0] != '#' {
			return m
		}
		target, found := docpath.ResolvePointer(s.root, ref)
		if !found {
			return nil
		}
		m, _ = target.(map[string]any)
	}
	return m
}

// property returns the schema node describing field name of an object node.
func (s schemaView) property(node map[string]any, name string) map[string]any {
	if node == nil {
		return nil
	}
	if props, ok := node["properties"].(map[string]any); ok {
		if sub, ok := props[name]; ok {
			return s.deref(sub)
		}
	}
	if all, ok := node["allOf"].([]any); ok {
		for _, branch := range all {
			if sub := s.property(s.deref(branch), name); sub != nil {
				return sub
			}
		}
	}
	if additional, ok := node["additionalProperties"].(map[string]any); ok {
		return s.deref(additional)
	}
	return nil
}

// items returns the schema node describing the elements of an array node.
func (s schemaView) items(node map[string]any) map[string]any {
	if node == nil {
		return nil
	}
	return s.deref(node["items"])
}

// choose picks the strategy for a field present in both documents.
func (s schemaView) choose(node map[string]any, base, head any) (plan, error) {
	p := plan{node: node, idRef: DefaultIDRef}
	if node != nil {
		if opts, ok := node[KeyMergeOptions].(map[string]any); ok {
			if id, ok := opts[KeyIDRef].(string); ok && id != "" {
				p.idRef = id
			}
		}
		if raw, ok := node[KeyMergeStrategy]; ok {
			name, _ := raw.(string)
			if !IsValidStrategy(name) {
				return p, &schemaerrors.SchemaShapeError{
					Problems: []string{fmt.Sprintf("unknown %s %v (valid: %v)", KeyMergeStrategy, raw, ValidStrategies())},
				}
			}
			p.strategy = Strategy(name)
			return p, nil
		}
		if st, ok := s.byType(node); ok {
			p.strategy = st
			return p, nil
		}
	}
	p.strategy = inferStrategy(base, head, p.idRef)
	return p, nil
}

// byType returns the default strategy for a node's declared type.
func (s schemaView) byType(node map[string]any) (Strategy, bool) {
	switch declaredType(node) {
	case "object":
		return StrategyObjectMerge, true
	case "array":
		if declaredType(s.items(node)) == "object" {
			return StrategyArrayMergeByID, true
		}
		return StrategyArrayUnion, true
	case "string", "number", "integer", "boolean", "null":
		return StrategyThrowOnConflict, true
	}
	return "", false
}

func declaredType(node map[string]any) string {
	if node == nil {
		return ""
	}
	switch t := node["type"].(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if name, ok := item.(string); ok && name != "null" {
				return name
			}
		}
	}
	if _, ok := node["properties"]; ok {
		return "object"
	}
	if _, ok := node["items"]; ok {
		return "array"
	}
	return ""
}

// inferStrategy picks a strategy from the values alone.
func inferStrategy(base, head any, idRef string) Strategy {
	switch b := base.(type) {
	case map[string]any:
		if _, ok := head.(map[string]any); ok {
			return StrategyObjectMerge
		}
	case []any:
		if h, ok := head.([]any); ok {
			if allIdentified(b, idRef) && allIdentified(h, idRef) {
				return StrategyArrayMergeByID
			}
			return StrategyArrayUnion
		}
	}
	return StrategyThrowOnConflict
}

func allIdentified(items []any, idRef string) bool {
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := m[idRef]; !ok {
			return false
		}
	}
	return true
}
