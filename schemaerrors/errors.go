package schemaerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrSchemaLoad indicates a schema file could not be loaded.
	ErrSchemaLoad = errors.New("schema load error")

	// ErrRefResolution indicates a reference resolution failure.
	ErrRefResolution = errors.New("reference resolution error")

	// ErrCircularReference indicates a cross-file reference cycle was detected.
	ErrCircularReference = errors.New("circular reference")

	// ErrPathTraversal indicates a reference tried to leave the schema root.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrSchemaShape indicates a schema does not conform to the meta-schema.
	ErrSchemaShape = errors.New("schema shape error")

	// ErrValidation indicates a document failed structural validation.
	ErrValidation = errors.New("validation error")

	// ErrReferentialIntegrity indicates an in-document reference was not found.
	ErrReferentialIntegrity = errors.New("in-document reference not found")

	// ErrPathNotFound indicates a path does not exist in a document.
	ErrPathNotFound = errors.New("path not found")

	// ErrValueNotFound indicates a value does not occur in a document.
	ErrValueNotFound = errors.New("value not found")

	// ErrMergeCollision indicates conflicting values for a no-clobber field.
	ErrMergeCollision = errors.New("merge collision")

	// ErrInvalidMergeTarget indicates two documents must not be merged at all.
	ErrInvalidMergeTarget = errors.New("invalid merge target")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// SchemaLoadError represents a schema file that could not be read or parsed.
type SchemaLoadError struct {
	// Path is the schema file path
	Path string
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *SchemaLoadError) Error() string {
	msg := "schema load error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *SchemaLoadError) Is(target error) bool {
	return target == ErrSchemaLoad
}

// RefResolutionError represents a failure to resolve a $ref or type_ref.
// As the failure propagates outward through nested resolutions it is wrapped
// with the file and field that introduced each reference.
type RefResolutionError struct {
	// Ref is the reference string that failed to resolve
	Ref string
	// File is the schema file containing the reference
	File string
	// Field is the JSON pointer of the referring node inside File
	Field string
	// Chain lists the files being resolved when the failure happened, outermost first
	Chain []string
	// IsCircular is true if this error is due to a cross-file reference cycle
	IsCircular bool
	// IsPathTraversal is true if the reference points outside the schema root
	IsPathTraversal bool
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *RefResolutionError) Error() string {
	msg := "reference error"
	if e.IsCircular {
		msg = "circular reference"
	} else if e.IsPathTraversal {
		msg = "path traversal detected"
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.File != "" {
		msg += " (in " + e.File
		if e.Field != "" {
			msg += " at " + e.Field
		}
		msg += ")"
	}
	if len(e.Chain) > 0 {
		msg += " [chain: " + strings.Join(e.Chain, " -> ") + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *RefResolutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrRefResolution, and also ErrCircularReference or ErrPathTraversal
// when appropriate flags are set.
func (e *RefResolutionError) Is(target error) bool {
	if target == ErrRefResolution {
		return true
	}
	if target == ErrCircularReference && e.IsCircular {
		return true
	}
	if target == ErrPathTraversal && e.IsPathTraversal {
		return true
	}
	return false
}

// SchemaShapeError represents a schema that violates the meta-schema.
type SchemaShapeError struct {
	// Path is the schema file path
	Path string
	// Problems lists the individual meta-schema violations
	Problems []string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *SchemaShapeError) Error() string {
	msg := "schema shape error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if len(e.Problems) > 0 {
		msg += ": " + strings.Join(e.Problems, "; ")
	} else if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *SchemaShapeError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *SchemaShapeError) Is(target error) bool {
	return target == ErrSchemaShape
}

// ValidationError represents a structural violation in a document.
type ValidationError struct {
	// Path is the JSON pointer of the offending value in the document
	Path string
	// Keyword is the schema keyword that failed (type, required, enum, ...)
	Keyword string
	// SchemaPointer locates the failing keyword in the resolved schema
	SchemaPointer string
	// Message describes the validation failure
	Message string
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	msg := "validation error"
	if e.Path != "" {
		msg += " at " + e.Path
	} else {
		msg += " at document root"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ReferentialIntegrityError represents a value that does not appear at any
// location matching its declared in-document reference pattern.
type ReferentialIntegrityError struct {
	// Path is the JSON pointer of the referring value in the document
	Path string
	// SchemaPointer locates the constraint in the resolved schema
	SchemaPointer string
	// Pattern is the declared path pattern
	Pattern string
	// Value is the referring value
	Value any
}

// Error returns a human-readable error message.
func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("in-document reference not found at %s: %v does not match any value at %s (schema %s)",
		displayPath(e.Path), e.Value, e.Pattern, e.SchemaPointer)
}

// Is reports whether target matches this error type.
// A referential integrity failure is also a validation failure.
func (e *ReferentialIntegrityError) Is(target error) bool {
	return target == ErrReferentialIntegrity || target == ErrValidation
}

// PathNotFoundError represents a path step that does not exist in a document.
type PathNotFoundError struct {
	// Path is the full path that was requested
	Path string
	// Token is the offending path token (string key or int index)
	Token any
	// Walked is the portion of the path successfully walked before the failure
	Walked string
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *PathNotFoundError) Error() string {
	msg := fmt.Sprintf("path not found: %v", e.Token)
	if e.Walked != "" {
		msg += " under " + e.Walked
	}
	if e.Path != "" {
		msg += " (requested " + e.Path + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *PathNotFoundError) Is(target error) bool {
	return target == ErrPathNotFound
}

// ValueNotFoundError represents a value that does not occur anywhere in a document.
type ValueNotFoundError struct {
	// Value is the value that was searched for
	Value any
}

// Error returns a human-readable error message.
func (e *ValueNotFoundError) Error() string {
	return fmt.Sprintf("value not found: %v", e.Value)
}

// Is reports whether target matches this error type.
func (e *ValueNotFoundError) Is(target error) bool {
	return target == ErrValueNotFound
}

// ContextEntry names one enclosing identity-bearing record of a merge conflict.
type ContextEntry struct {
	// Field is the identity field name (e.g. "id")
	Field string
	// Value is the identity value of the enclosing record
	Value any
}

// String returns "field=value".
func (c ContextEntry) String() string {
	return fmt.Sprintf("%s=%v", c.Field, c.Value)
}

// MergeCollisionError represents conflicting values for a no-clobber field.
// Values of this type are treated as immutable: WithContext returns a copy.
type MergeCollisionError struct {
	// Field is the conflicting field name
	Field string
	// Path is the JSON pointer of the field in the merged document
	Path string
	// Base is the value already recorded in the base document
	Base any
	// Head is the value proposed by the head document
	Head any
	// Context lists enclosing identity-bearing records, innermost first
	Context []ContextEntry
}

// WithContext returns a copy of the error with an enclosing identity appended.
func (e *MergeCollisionError) WithContext(field string, value any) *MergeCollisionError {
	out := *e
	out.Context = make([]ContextEntry, len(e.Context), len(e.Context)+1)
	copy(out.Context, e.Context)
	out.Context = append(out.Context, ContextEntry{Field: field, Value: value})
	return &out
}

// ContextMap returns the context as a field→value map.
// When the same identity field name occurs at several levels the innermost wins.
func (e *MergeCollisionError) ContextMap() map[string]any {
	m := make(map[string]any, len(e.Context))
	for i := len(e.Context) - 1; i >= 0; i-- {
		m[e.Context[i].Field] = e.Context[i].Value
	}
	return m
}

// Error returns a human-readable error message.
func (e *MergeCollisionError) Error() string {
	msg := fmt.Sprintf("merge collision on field %q: base value %v, head value %v", e.Field, e.Base, e.Head)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if len(e.Context) > 0 {
		parts := make([]string, len(e.Context))
		for i, c := range e.Context {
			parts[i] = c.String()
		}
		msg += " (in " + strings.Join(parts, ", ") + ")"
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *MergeCollisionError) Is(target error) bool {
	return target == ErrMergeCollision
}

// InvalidMergeTargetError represents two documents that must not be merged.
type InvalidMergeTargetError struct {
	// Field is the identifier field that was compared
	Field string
	// Base is the identifier value of the base document (nil if missing)
	Base any
	// Head is the identifier value of the head document (nil if missing)
	Head any
	// Message describes the failure
	Message string
}

// Error returns a human-readable error message.
func (e *InvalidMergeTargetError) Error() string {
	msg := "invalid merge target"
	if e.Field != "" {
		msg += fmt.Sprintf(": %s differs (base %v, head %v)", e.Field, e.Base, e.Head)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *InvalidMergeTargetError) Is(target error) bool {
	return target == ErrInvalidMergeTarget
}

// ConfigError represents an invalid configuration or input.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func displayPath(p string) string {
	if p == "" {
		return "document root"
	}
	return p
}
