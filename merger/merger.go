package merger

import (
	"errors"
	"fmt"
	"sort"

	jsonpatch "github.com/evanphx/json-patch/v5"
	json "github.com/goccy/go-json"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/pathutil"
	"github.com/ctschema/ctschema/resolver"
	"github.com/ctschema/ctschema/schemaerrors"
	"github.com/ctschema/ctschema/validator"
)

// DefaultIdentifierField is the top-level field that must agree between the
// base and head documents.
const DefaultIdentifierField = "protocol_identifier"

// MergerConfig configures how documents are merged
type MergerConfig struct {
	// IdentifierField must be present in the base and equal in both documents.
	// An empty value disables the check.
	IdentifierField string
	// ChangeSummary fills Result.Changes with an RFC 7386 merge patch from the
	// original base to the merged document
	ChangeSummary bool
	// Logger receives debug output. Nil selects resolver.NopLogger.
	Logger resolver.Logger
}

// DefaultConfig returns the default configuration
func DefaultConfig() MergerConfig {
	return MergerConfig{
		IdentifierField: DefaultIdentifierField,
	}
}

// Merger merges documents. It holds no per-merge state and is safe for
// concurrent use on distinct base documents.
type Merger struct {
	config MergerConfig
	logger resolver.Logger
}

// New creates a Merger from config.
func New(config MergerConfig) *Merger {
	return &Merger{config: config, logger: resolver.OrNop(config.Logger)}
}

// Result contains the outcome of a merge
type Result struct {
	// Document is the merged document (the updated base)
	Document map[string]any
	// Errors holds validation messages for the merged document. A non-empty
	// list does not make the merge fail.
	Errors []string
	// Changes is a JSON merge patch from the original base to Document, set
	// when the change summary is enabled. It is "{}" when nothing changed.
	Changes []byte
}

// Valid reports whether the merged document passed validation.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Merge merges head into base, guided by schema, and validates the result
// against it. schema may be nil for a schema-less merge without validation.
func Merge(base, head, schema map[string]any) (*Result, error) {
	var v *validator.Validator
	if schema != nil {
		var err error
		if v, err = validator.Compile("merge-schema.json", schema); err != nil {
			return nil, err
		}
	}
	return New(DefaultConfig()).Merge(base, head, v)
}

// Merge merges head into base in place. Strategies come from the schema of v,
// which also validates the merged document. v may be nil.
//
// The merge stops at the first conflicting field and returns a
// *schemaerrors.MergeCollisionError. Documents that must not be merged at all
// yield a *schemaerrors.InvalidMergeTargetError before any field is merged.
func (m *Merger) Merge(base, head map[string]any, v *validator.Validator) (*Result, error) {
	if base == nil {
		return nil, &schemaerrors.InvalidMergeTargetError{Message: "base document is nil"}
	}
	normHead, err := docutil.Normalize(head)
	if err != nil {
		return nil, &schemaerrors.InvalidMergeTargetError{Message: "head document: " + err.Error()}
	}
	headDoc, _ := normHead.(map[string]any)
	if headDoc == nil {
		return nil, &schemaerrors.InvalidMergeTargetError{Message: "head document is nil"}
	}
	if err := m.checkIdentity(base, headDoc); err != nil {
		return nil, err
	}
	if _, err := docutil.NormalizeInPlace(base); err != nil {
		return nil, &schemaerrors.InvalidMergeTargetError{Message: "base document: " + err.Error()}
	}

	var before []byte
	if m.config.ChangeSummary {
		if before, err = json.Marshal(base); err != nil {
			return nil, fmt.Errorf("merger: encoding base: %w", err)
		}
	}

	var view schemaView
	if v != nil {
		view.root = v.Schema()
	}
	run := &mergeRun{
		view:   view,
		logger: m.logger,
		ptr:    pathutil.Get(),
	}
	defer pathutil.Put(run.ptr)

	if err := run.mergeObject(base, headDoc, view.deref(view.root)); err != nil {
		var collision *schemaerrors.MergeCollisionError
		if errors.As(err, &collision) {
			m.logger.Debug("merge conflict", "field", collision.Field, "path", collision.Path,
				"context", collision.ContextMap())
		}
		return nil, err
	}

	result := &Result{Document: base}
	if v != nil {
		result.Errors = v.Messages(base)
	}
	if m.config.ChangeSummary {
		after, err := json.Marshal(base)
		if err != nil {
			return nil, fmt.Errorf("merger: encoding merged document: %w", err)
		}
		if result.Changes, err = jsonpatch.CreateMergePatch(before, after); err != nil {
			return nil, fmt.Errorf("merger: building change summary: %w", err)
		}
	}
	m.logger.Debug("merged document", "fields", len(headDoc), "validation_errors", len(result.Errors))
	return result, nil
}

// checkIdentity enforces the top-level identifier invariant.
func (m *Merger) checkIdentity(base, head map[string]any) error {
	field := m.config.IdentifierField
	if field == "" {
		return nil
	}
	baseID, ok := base[field]
	if !ok {
		return &schemaerrors.InvalidMergeTargetError{Message: fmt.Sprintf("base document has no %s", field)}
	}
	normBase, err := docutil.Normalize(baseID)
	if err != nil {
		return &schemaerrors.InvalidMergeTargetError{Message: "base document: " + err.Error()}
	}
	headID := head[field]
	if !docutil.Equal(normBase, headID) {
		return &schemaerrors.InvalidMergeTargetError{Field: field, Base: normBase, Head: headID}
	}
	return nil
}

// mergeRun carries the state of one Merge call.
type mergeRun struct {
	view   schemaView
	logger resolver.Logger
	ptr    *pathutil.PointerBuilder // location in the merged document
}

// mergeObject merges head into base field by field, in sorted key order.
func (r *mergeRun) mergeObject(base, head map[string]any, node map[string]any) error {
	keys := make([]string, 0, len(head))
	for k := range head {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		hv := head[k]
		bv, exists := base[k]
		if !exists {
			base[k] = hv
			continue
		}
		r.ptr.Push(k)
		merged, err := r.mergeField(k, bv, hv, r.view.property(node, k))
		r.ptr.Pop()
		if err != nil {
			return err
		}
		base[k] = merged
	}
	return nil
}

// mergeField merges one field present in both documents.
func (r *mergeRun) mergeField(field string, base, head any, node map[string]any) (any, error) {
	p, err := r.view.choose(node, base, head)
	if err != nil {
		var shape *schemaerrors.SchemaShapeError
		if errors.As(err, &shape) && len(shape.Problems) > 0 {
			shape.Problems[0] = displayPointer(r.ptr.String()) + ": " + shape.Problems[0]
		}
		return nil, err
	}

	switch p.strategy {
	case StrategyOverwrite:
		return head, nil

	case StrategyObjectMerge:
		b, okB := base.(map[string]any)
		h, okH := head.(map[string]any)
		if !okB || !okH {
			return r.keepOrConflict(field, base, head)
		}
		return b, r.mergeObject(b, h, p.node)

	case StrategyArrayMergeByID:
		b, okB := base.([]any)
		h, okH := head.([]any)
		if !okB || !okH {
			return r.keepOrConflict(field, base, head)
		}
		return r.mergeByID(b, h, r.view.items(p.node), p.idRef)

	case StrategyAppend:
		b, okB := base.([]any)
		h, okH := head.([]any)
		if !okB || !okH {
			return r.keepOrConflict(field, base, head)
		}
		return append(b, h...), nil

	case StrategyArrayUnion:
		b, okB := base.([]any)
		h, okH := head.([]any)
		if !okB || !okH {
			return r.keepOrConflict(field, base, head)
		}
		for _, item := range h {
			if indexOf(b, item) < 0 {
				b = append(b, item)
			}
		}
		return b, nil

	default:
		return r.keepOrConflict(field, base, head)
	}
}

// keepOrConflict is the no-clobber rule.
func (r *mergeRun) keepOrConflict(field string, base, head any) (any, error) {
	if docutil.Equal(base, head) {
		return base, nil
	}
	return nil, &schemaerrors.MergeCollisionError{
		Field: field,
		Path:  r.ptr.String(),
		Base:  base,
		Head:  head,
	}
}

// mergeByID merges arrays of objects by identity. Head objects without the
// identity field are appended unless an equal item is already present.
// Conflicts inside an element gain that element's identity as context.
func (r *mergeRun) mergeByID(base, head []any, items map[string]any, idRef string) ([]any, error) {
	for _, item := range head {
		h, ok := item.(map[string]any)
		id, hasID := h[idRef]
		if !ok || !hasID {
			if indexOf(base, item) < 0 {
				base = append(base, item)
			}
			continue
		}

		idx := indexByID(base, idRef, id)
		if idx < 0 {
			base = append(base, h)
			continue
		}

		r.ptr.PushIndex(idx)
		err := r.mergeObject(base[idx].(map[string]any), h, items)
		r.ptr.Pop()
		if err != nil {
			var collision *schemaerrors.MergeCollisionError
			if errors.As(err, &collision) {
				return nil, collision.WithContext(idRef, id)
			}
			return nil, err
		}
	}
	return base, nil
}

func displayPointer(ptr string) string {
	if ptr == "" {
		return "/"
	}
	return ptr
}

func indexByID(items []any, idRef string, id any) int {
	for i, item := range items {
		if m, ok := item.(map[string]any); ok {
			if v, ok := m[idRef]; ok && docutil.Equal(v, id) {
				return i
			}
		}
	}
	return -1
}

func indexOf(items []any, value any) int {
	for i, item := range items {
		if docutil.Equal(item, value) {
			return i
		}
	}
	return -1
}
