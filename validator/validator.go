package validator

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ctschema/ctschema/docpath"
	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/issues"
	"github.com/ctschema/ctschema/internal/pathutil"
	"github.com/ctschema/ctschema/internal/severity"
	"github.com/ctschema/ctschema/resolver"
	"github.com/ctschema/ctschema/schemaerrors"
)

// Severity indicates the severity level of a reported issue
type Severity = severity.Severity

const (
	// SeverityError marks a document as invalid
	SeverityError = severity.SeverityError
	// SeverityWarning is reported but does not invalidate a document
	SeverityWarning = severity.SeverityWarning
	// SeverityInfo is informational
	SeverityInfo = severity.SeverityInfo
)

// Issue is a report-friendly form of a validation error
type Issue = issues.Issue

const resourcePrefix = "mem://ctschema/"

// ValidationResult contains the outcome of validating one document.
type ValidationResult struct {
	// Valid is true if no errors were found
	Valid bool
	// Errors holds *schemaerrors.ValidationError values from the structural
	// pass followed by *schemaerrors.ReferentialIntegrityError values
	Errors []error
	// ErrorCount is len(Errors)
	ErrorCount int
	// StructuralCount is the number of structural errors
	StructuralCount int
	// ReferentialCount is the number of referential integrity errors
	ReferentialCount int
}

// Messages returns one human-readable line per error.
func (r *ValidationResult) Messages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

// Issues converts the errors into report issues.
func (r *ValidationResult) Issues() []Issue {
	out := make([]Issue, 0, len(r.Errors))
	for _, err := range r.Errors {
		var ri *schemaerrors.ReferentialIntegrityError
		var ve *schemaerrors.ValidationError
		switch {
		case errors.As(err, &ri):
			out = append(out, Issue{
				Path:          ri.Path,
				Message:       fmt.Sprintf("%v does not match any value at %s", ri.Value, ri.Pattern),
				Severity:      SeverityError,
				Keyword:       KeyInDocRefPattern,
				SchemaPointer: ri.SchemaPointer,
				Value:         ri.Value,
			})
		case errors.As(err, &ve):
			out = append(out, Issue{
				Path:          ve.Path,
				Message:       ve.Message,
				Severity:      SeverityError,
				Keyword:       ve.Keyword,
				SchemaPointer: ve.SchemaPointer,
			})
		default:
			out = append(out, Issue{Message: err.Error(), Severity: SeverityError})
		}
	}
	return out
}

// Validator validates documents against one compiled schema.
// A Validator is immutable and safe for concurrent use.
type Validator struct {
	name     string
	schema   map[string]any
	compiled *jsonschema.Schema
	patterns map[string]*docpath.Pattern
	logger   resolver.Logger
}

// Option configures Compile and Load.
type Option func(*config) error

type config struct {
	logger resolver.Logger
}

// WithLogger sets the logger used for debug output.
func WithLogger(l resolver.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

func applyOptions(opts ...Option) (*config, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("validator: invalid options: %w", err)
		}
	}
	cfg.logger = resolver.OrNop(cfg.logger)
	return cfg, nil
}

// Compile builds a Validator for an already resolved schema. name identifies
// the schema in errors. Same-file references in schema are followed by the
// structural validator.
func Compile(name string, schema map[string]any, opts ...Option) (*Validator, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, err
	}

	patterns, err := collectPatterns(schema)
	if err != nil {
		return nil, &schemaerrors.SchemaShapeError{Path: name, Cause: err}
	}

	compiled, err := compileSchema(resourcePrefix+name, schema, true)
	if err != nil {
		return nil, &schemaerrors.SchemaShapeError{Path: name, Cause: err}
	}

	cfg.logger.Debug("compiled schema", "schema", name, "ref_patterns", len(patterns))
	return &Validator{
		name:     name,
		schema:   schema,
		compiled: compiled,
		patterns: patterns,
		logger:   cfg.logger,
	}, nil
}

// Load resolves the schema at path with r and compiles it.
func Load(r *resolver.Resolver, path string, opts ...Option) (*Validator, error) {
	schema, err := r.LoadAndResolve(path)
	if err != nil {
		return nil, err
	}
	return Compile(path, schema, opts...)
}

// compileSchema hands schema to the structural validator as a draft 7
// resource, optionally with the in_doc_ref_pattern extension.
func compileSchema(resource string, schema map[string]any, withRefPatterns bool) (*jsonschema.Schema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if withRefPatterns {
		c.RegisterExtension(KeyInDocRefPattern, refPatternMeta, refPatternCompiler{})
	}
	if err := c.AddResource(resource, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return c.Compile(resource)
}

// nameMaps are keywords whose values map names to schemas, so an "if" or
// "not" key directly inside them is a name rather than a keyword.
var nameMaps = map[string]bool{
	"properties":        true,
	"patternProperties": true,
	"definitions":       true,
	"$defs":             true,
	"dependentSchemas":  true,
}

// collectPatterns parses every in_doc_ref_pattern declared in schema.
// Constraints nested under if or not are rejected: the structural pass always
// fails them, which would invert the enclosing condition.
func collectPatterns(schema map[string]any) (map[string]*docpath.Pattern, error) {
	patterns := make(map[string]*docpath.Pattern)
	var visit func(node any, holder string, conditional bool) error
	visit = func(node any, holder string, conditional bool) error {
		switch v := node.(type) {
		case map[string]any:
			if raw, ok := v[KeyInDocRefPattern].(string); ok {
				if conditional {
					return fmt.Errorf("%s %q under if or not is not supported", KeyInDocRefPattern, raw)
				}
				if _, seen := patterns[raw]; !seen {
					p, err := docpath.ParsePattern(raw)
					if err != nil {
						return err
					}
					patterns[raw] = p
				}
			}
			for k, child := range v {
				cond := conditional || (!nameMaps[holder] && (k == "if" || k == "not"))
				if err := visit(child, k, cond); err != nil {
					return err
				}
			}
		case []any:
			for _, item := range v {
				if err := visit(item, holder, conditional); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return patterns, visit(schema, "", false)
}

// Name returns the schema name given to Compile.
func (v *Validator) Name() string {
	return v.name
}

// Schema returns the resolved schema. It must not be modified.
func (v *Validator) Schema() map[string]any {
	return v.schema
}

// Validate checks doc and returns every error found.
func (v *Validator) Validate(doc any) *ValidationResult {
	result := &ValidationResult{}

	norm, err := docutil.Normalize(doc)
	if err != nil {
		result.Errors = append(result.Errors, &schemaerrors.ValidationError{
			Message: "document is not a plain value tree: " + err.Error(),
		})
		result.StructuralCount = 1
		result.ErrorCount = 1
		return result
	}

	var deferred []refCheck
	if err := v.compiled.Validate(norm); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			for _, leaf := range v.flatten(ve, norm, &deferred) {
				result.Errors = append(result.Errors, structuralError(leaf))
			}
		} else {
			result.Errors = append(result.Errors, &schemaerrors.ValidationError{Message: err.Error()})
		}
	}
	result.StructuralCount = len(result.Errors)

	checks := unionChecks(v.walkChecks(norm), deferred)
	if len(deferred) > 0 || len(checks) > 0 {
		v.logger.Debug("checking in-document references", "schema", v.name,
			"deferred", len(deferred), "checks", len(checks))
	}
	candidates := newCandidateCache(norm, v.patterns)
	for _, c := range checks {
		if !candidates.contains(c.pattern, c.value) {
			result.Errors = append(result.Errors, &schemaerrors.ReferentialIntegrityError{
				Path:          c.path,
				SchemaPointer: c.schemaPointer,
				Pattern:       c.pattern,
				Value:         c.value,
			})
		}
	}
	result.ReferentialCount = len(result.Errors) - result.StructuralCount
	result.ErrorCount = len(result.Errors)
	result.Valid = result.ErrorCount == 0
	return result
}

// Messages validates doc and returns the error messages (empty when valid).
func (v *Validator) Messages(doc any) []string {
	return v.Validate(doc).Messages()
}

// First validates doc and returns its first error, or nil when it is valid.
// The error is a *schemaerrors.ValidationError or a
// *schemaerrors.ReferentialIntegrityError.
func (v *Validator) First(doc any) error {
	result := v.Validate(doc)
	if result.Valid {
		return nil
	}
	return result.Errors[0]
}

// IsValid reports whether doc has no errors.
func (v *Validator) IsValid(doc any) bool {
	return v.Validate(doc).Valid
}

// flatten returns the leaf errors of e. Placeholder leaves are converted into
// deferred checks instead. A failed anyOf or oneOf branch whose only
// failures are placeholders counts as passing.
func (v *Validator) flatten(e *jsonschema.ValidationError, doc any, deferred *[]refCheck) []*jsonschema.ValidationError {
	if len(e.Causes) == 0 {
		if isPlaceholder(e) {
			if c, ok := v.placeholderCheck(e, doc); ok {
				*deferred = append(*deferred, c)
				return nil
			}
		}
		return []*jsonschema.ValidationError{e}
	}

	if isBranching(e) {
		for _, branch := range e.Causes {
			if onlyPlaceholders(branch) {
				for _, leaf := range leaves(branch) {
					if c, ok := v.placeholderCheck(leaf, doc); ok {
						*deferred = append(*deferred, c)
					}
				}
				return nil
			}
		}
	}

	var out []*jsonschema.ValidationError
	for _, cause := range e.Causes {
		out = append(out, v.flatten(cause, doc, deferred)...)
	}
	return out
}

// placeholderCheck recovers the constraint behind a placeholder failure.
func (v *Validator) placeholderCheck(e *jsonschema.ValidationError, doc any) (refCheck, bool) {
	frag, ok := schemaFragment(e)
	if !ok {
		return refCheck{}, false
	}
	node, _ := docpath.ResolvePointer(v.schema, frag)
	pattern, ok := node.(string)
	if !ok {
		v.logger.Warn("cannot locate in-document reference constraint", "location", e.AbsoluteKeywordLocation)
		return refCheck{}, false
	}
	path := instancePointer(e)
	value, _ := docpath.ResolvePointer(doc, path)
	return refCheck{
		path:          path,
		value:         value,
		pattern:       pattern,
		schemaPointer: "#" + strings.TrimSuffix(frag, "/"+KeyInDocRefPattern),
	}, true
}

// schemaFragment returns the unescaped pointer part of the absolute keyword location.
func schemaFragment(e *jsonschema.ValidationError) (string, bool) {
	_, frag, ok := strings.Cut(e.AbsoluteKeywordLocation, "#")
	if !ok {
		return "", false
	}
	if unescaped, err := url.PathUnescape(frag); err == nil {
		frag = unescaped
	}
	return frag, true
}

func instancePointer(e *jsonschema.ValidationError) string {
	if unescaped, err := url.PathUnescape(e.InstanceLocation); err == nil {
		return unescaped
	}
	return e.InstanceLocation
}

func isPlaceholder(e *jsonschema.ValidationError) bool {
	suffix := "/" + KeyInDocRefPattern
	return strings.HasSuffix(e.KeywordLocation, suffix) || strings.HasSuffix(e.AbsoluteKeywordLocation, suffix)
}

func isBranching(e *jsonschema.ValidationError) bool {
	return strings.HasSuffix(e.KeywordLocation, "/anyOf") || strings.HasSuffix(e.KeywordLocation, "/oneOf")
}

func onlyPlaceholders(e *jsonschema.ValidationError) bool {
	for _, leaf := range leaves(e) {
		if !isPlaceholder(leaf) {
			return false
		}
	}
	return true
}

func leaves(e *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(e.Causes) == 0 {
		return []*jsonschema.ValidationError{e}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range e.Causes {
		out = append(out, leaves(cause)...)
	}
	return out
}

func structuralError(e *jsonschema.ValidationError) *schemaerrors.ValidationError {
	keyword := e.KeywordLocation
	if i := strings.LastIndex(keyword, "/"); i >= 0 {
		keyword = keyword[i+1:]
	}
	schemaPointer := ""
	if frag, ok := schemaFragment(e); ok {
		schemaPointer = "#" + frag
	}
	return &schemaerrors.ValidationError{
		Path:          instancePointer(e),
		Keyword:       pathutil.UnescapeToken(keyword),
		SchemaPointer: schemaPointer,
		Message:       e.Message,
	}
}
