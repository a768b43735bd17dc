// Package locator finds where a known value lives inside a document.
//
// Collaborators that know a unique identifier (a sample id, a run id) but not
// its location use FindPaths to obtain the textual path of every occurrence,
// and LocateContainer to fetch the enclosing record together with the scalar
// fields of its ancestors:
//
//	container, siblings, err := locator.LocateContainer(doc, "CTTTPP101.00", 1)
//	// container: the sample mapping holding the id
//	// siblings["participants.participant_id"]: the owning participant
//
// Traversal is deterministic: mapping keys are visited in sorted order and
// sequences in index order. When a value occurs more than once,
// LocateContainer uses the first match in that order. Callers that need a
// specific occurrence must search for a value that is unique in the document.
package locator

import (
	"sort"
	"strings"

	"github.com/ctschema/ctschema/docpath"
	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/schemaerrors"
)

// Option configures a FindPaths call.
type Option func(*findConfig)

type findConfig struct {
	required   bool
	containers bool
}

// WithRequired makes FindPaths fail with a ValueNotFoundError when the value
// occurs nowhere in the document.
func WithRequired() Option {
	return func(c *findConfig) { c.required = true }
}

// WithContainers compares mappings and sequences against the value as well as
// scalar leaves.
func WithContainers() Option {
	return func(c *findConfig) { c.containers = true }
}

// FindPaths returns the textual path of every location in doc holding a value
// structurally equal to value. String comparison is exact and case-sensitive.
func FindPaths(doc, value any, opts ...Option) ([]string, error) {
	var cfg findConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var found []string
	walk(doc, docpath.Path{}, func(p docpath.Path, v any) {
		if !cfg.containers && !docutil.IsScalar(v) {
			return
		}
		if docutil.Equal(v, value) {
			found = append(found, p.String())
		}
	})

	if len(found) == 0 && cfg.required {
		return nil, &schemaerrors.ValueNotFoundError{Value: value}
	}
	return found, nil
}

// walk calls fn for every node of the tree in pre-order.
func walk(node any, path docpath.Path, fn func(docpath.Path, any)) {
	fn(path, node)
	switch v := node.(type) {
	case map[string]any:
		for _, k := range sortedKeys(v) {
			walk(v[k], path.Child(docpath.Key(k)), fn)
		}
	case []any:
		for i, item := range v {
			walk(item, path.Child(docpath.Index(i)), fn)
		}
	}
}

// LocateContainer finds value in doc, truncates the first matching path by
// levelsUp tokens and returns the container found there.
//
// The second result maps dotted ancestor field names to the scalar and
// scalar-sequence fields of every mapping on the way from the root to the
// container, e.g. "protocol_identifier" for a top-level field and
// "participants.cohort_name" for a field of the enclosing participant. Fields
// of the container itself are not included.
func LocateContainer(doc, value any, levelsUp int, opts ...Option) (any, map[string]any, error) {
	paths, err := FindPaths(doc, value, append(opts[:len(opts):len(opts)], WithRequired())...)
	if err != nil {
		return nil, nil, err
	}

	path, err := docpath.Parse(paths[0])
	if err != nil {
		return nil, nil, err
	}
	target := path.Truncate(levelsUp)

	container, err := docpath.Resolve(doc, target, 0)
	if err != nil {
		return nil, nil, err
	}
	return container, siblingContext(doc, target), nil
}

// siblingContext collects plain fields from each mapping strictly above the
// end of path.
func siblingContext(doc any, path docpath.Path) map[string]any {
	fields := make(map[string]any)
	current := doc
	var prefix []string

	for _, tok := range path {
		if m, ok := current.(map[string]any); ok {
			for k, v := range m {
				if isPlainField(v) {
					fields[dotted(prefix, k)] = docutil.DeepCopy(v)
				}
			}
		}
		if !tok.IsIndex {
			prefix = append(prefix, tok.Key)
		}
		next, err := docpath.Resolve(current, docpath.Path{tok}, 0)
		if err != nil {
			break
		}
		current = next
	}
	return fields
}

func isPlainField(v any) bool {
	if docutil.IsScalar(v) {
		return true
	}
	seq, ok := v.([]any)
	if !ok {
		return false
	}
	for _, item := range seq {
		if !docutil.IsScalar(item) {
			return false
		}
	}
	return true
}

func dotted(prefix []string, field string) string {
	if len(prefix) == 0 {
		return field
	}
	return strings.Join(prefix, ".") + "." + field
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
