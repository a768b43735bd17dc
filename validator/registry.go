package validator

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ctschema/ctschema/resolver"
)

// Registry memoises compiled validators per schema path.
//
// Like resolver.Cache it is filled lazily without locks: concurrent first
// requests for the same path may each compile, and the first stored
// validator wins.
type Registry struct {
	resolver   *resolver.Resolver
	opts       []Option
	validators sync.Map // cleaned path -> *Validator
}

// NewRegistry returns a registry that loads schemas through r.
func NewRegistry(r *resolver.Resolver, opts ...Option) *Registry {
	return &Registry{resolver: r, opts: opts}
}

// Resolver returns the resolver schemas are loaded with.
func (g *Registry) Resolver() *resolver.Resolver {
	return g.resolver
}

// For returns the validator for the schema at path, compiling it on first use.
func (g *Registry) For(path string) (*Validator, error) {
	key := filepath.ToSlash(filepath.Clean(path))
	if v, ok := g.validators.Load(key); ok {
		return v.(*Validator), nil
	}
	v, err := Load(g.resolver, key, g.opts...)
	if err != nil {
		return nil, err
	}
	actual, _ := g.validators.LoadOrStore(key, v)
	return actual.(*Validator), nil
}

// Warm compiles paths in order, stopping at the first failure.
func (g *Registry) Warm(paths ...string) error {
	for _, p := range paths {
		if _, err := g.For(p); err != nil {
			return fmt.Errorf("validator: warming %s: %w", p, err)
		}
	}
	return nil
}

// Validate validates doc against the schema at path.
func (g *Registry) Validate(doc any, path string) (*ValidationResult, error) {
	v, err := g.For(path)
	if err != nil {
		return nil, err
	}
	return v.Validate(doc), nil
}

// ValidateDocument compiles schema and returns the error messages for doc.
// Prefer a Validator or Registry when validating more than once.
func ValidateDocument(doc any, schema map[string]any) ([]string, error) {
	v, err := Compile("inline.json", schema)
	if err != nil {
		return nil, err
	}
	return v.Messages(doc), nil
}

// IsValid compiles schema and reports whether doc is valid against it.
func IsValid(doc any, schema map[string]any) (bool, error) {
	v, err := Compile("inline.json", schema)
	if err != nil {
		return false, err
	}
	return v.IsValid(doc), nil
}
