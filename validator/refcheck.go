package validator

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/ctschema/ctschema/docpath"
	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/pathutil"
)

// refCheck is one constrained value awaiting its membership test.
type refCheck struct {
	path          string // JSON pointer of the value in the document
	value         any
	pattern       string
	schemaPointer string
}

func (c refCheck) key() string {
	return c.path + "\x00" + c.pattern
}

// unionChecks concatenates check lists, dropping repeats of the same value
// and pattern.
func unionChecks(lists ...[]refCheck) []refCheck {
	seen := make(map[string]bool)
	var out []refCheck
	for _, list := range lists {
		for _, c := range list {
			if seen[c.key()] {
				continue
			}
			seen[c.key()] = true
			out = append(out, c)
		}
	}
	return out
}

// walkChecks walks the schema alongside doc and returns every constrained
// value present in doc. It follows properties, patternProperties,
// additionalProperties, items, allOf and same-file $ref. Constraints under
// anyOf, oneOf, then and else are only checked when the structural pass
// reports them. Constraints under if or not are unsupported; Compile rejects
// those written inline, but ones reached through a $ref are not detected.
func (v *Validator) walkChecks(doc any) []refCheck {
	w := &refWalker{
		root:    v.schema,
		visited: make(map[string]bool),
		regexps: make(map[string]*regexp.Regexp),
	}
	w.walk(v.schema, "", doc, "")
	return w.checks
}

type refWalker struct {
	root    map[string]any
	visited map[string]bool // "$ref target\x00instance pointer"
	regexps map[string]*regexp.Regexp
	checks  []refCheck
}

func (w *refWalker) walk(schema any, schemaPtr string, inst any, instPtr string) {
	s, ok := schema.(map[string]any)
	if !ok {
		return
	}

	// Draft 7 ignores the siblings of $ref.
	if ref, ok := s["$ref"].(string); ok {
		if len(ref) == 0 || ref[0] != '#' {
			return
		}
		key := ref + "\x00" + instPtr
		if w.visited[key] {
			return
		}
		w.visited[key] = true
		target, found := docpath.ResolvePointer(w.root, ref)
		if found {
			w.walk(target, ref[1:], inst, instPtr)
		}
		return
	}

	if pattern, ok := s[KeyInDocRefPattern].(string); ok {
		w.checks = append(w.checks, refCheck{
			path:          instPtr,
			value:         inst,
			pattern:       pattern,
			schemaPointer: "#" + schemaPtr,
		})
	}

	if all, ok := s["allOf"].([]any); ok {
		for i, sub := range all {
			w.walk(sub, schemaPtr+"/allOf/"+strconv.Itoa(i), inst, instPtr)
		}
	}

	switch d := inst.(type) {
	case map[string]any:
		w.walkObject(s, schemaPtr, d, instPtr)
	case []any:
		w.walkArray(s, schemaPtr, d, instPtr)
	}
}

func (w *refWalker) walkObject(s map[string]any, schemaPtr string, obj map[string]any, instPtr string) {
	props, _ := s["properties"].(map[string]any)
	patternProps, _ := s["patternProperties"].(map[string]any)
	additional, _ := s["additionalProperties"].(map[string]any)

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		child := obj[k]
		childPtr := instPtr + "/" + pathutil.EscapeToken(k)
		matched := false
		if sub, ok := props[k]; ok {
			matched = true
			w.walk(sub, schemaPtr+"/properties/"+pathutil.EscapeToken(k), child, childPtr)
		}
		for expr, sub := range patternProps {
			if re := w.regexp(expr); re != nil && re.MatchString(k) {
				matched = true
				w.walk(sub, schemaPtr+"/patternProperties/"+pathutil.EscapeToken(expr), child, childPtr)
			}
		}
		if !matched && additional != nil {
			w.walk(additional, schemaPtr+"/additionalProperties", child, childPtr)
		}
	}
}

func (w *refWalker) walkArray(s map[string]any, schemaPtr string, arr []any, instPtr string) {
	switch items := s["items"].(type) {
	case map[string]any:
		for i, item := range arr {
			w.walk(items, schemaPtr+"/items", item, instPtr+"/"+strconv.Itoa(i))
		}
	case []any:
		for i := 0; i < len(items) && i < len(arr); i++ {
			w.walk(items[i], schemaPtr+"/items/"+strconv.Itoa(i), arr[i], instPtr+"/"+strconv.Itoa(i))
		}
	}
}

func (w *refWalker) regexp(expr string) *regexp.Regexp {
	if re, ok := w.regexps[expr]; ok {
		return re
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		re = nil
	}
	w.regexps[expr] = re
	return re
}

// candidateCache computes the values matching each pattern at most once
// per validation call.
type candidateCache struct {
	doc      any
	patterns map[string]*docpath.Pattern
	sets     map[string]map[string]struct{}
}

func newCandidateCache(doc any, patterns map[string]*docpath.Pattern) *candidateCache {
	return &candidateCache{
		doc:      doc,
		patterns: patterns,
		sets:     make(map[string]map[string]struct{}),
	}
}

// contains reports whether value occurs at a location matching pattern.
// A pattern matching no location contains nothing.
func (c *candidateCache) contains(pattern string, value any) bool {
	set, ok := c.sets[pattern]
	if !ok {
		set = make(map[string]struct{})
		p := c.patterns[pattern]
		if p == nil {
			var err error
			if p, err = docpath.ParsePattern(pattern); err != nil {
				p = nil
			}
		}
		if p != nil {
			for _, candidate := range p.Values(c.doc) {
				set[docutil.CanonicalKey(candidate)] = struct{}{}
			}
		}
		c.sets[pattern] = set
	}
	_, found := set[docutil.CanonicalKey(value)]
	return found
}
