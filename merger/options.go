package merger

import (
	"fmt"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/options"
	"github.com/ctschema/ctschema/resolver"
	"github.com/ctschema/ctschema/schemaerrors"
	"github.com/ctschema/ctschema/validator"
)

// Option is a function that configures a merge operation
type Option func(*mergeConfig) error

// mergeConfig holds configuration for a merge operation
type mergeConfig struct {
	// Input sources
	base     map[string]any
	baseFile string
	head     map[string]any
	headFile string

	// Schema sources (at most one)
	schema     map[string]any
	schemaFile string
	validator  *validator.Validator

	resolver        *resolver.Resolver
	identifierField *string
	changeSummary   bool
	logger          resolver.Logger
}

// MergeWithOptions merges documents using functional options.
//
// Example:
//
//	result, err := merger.MergeWithOptions(
//	    merger.WithBaseFile("trial.json"),
//	    merger.WithHeadFile("patch.json"),
//	    merger.WithSchemaFile("clinical_trial.json"),
//	)
func MergeWithOptions(opts ...Option) (*Result, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, err
	}

	base := cfg.base
	if cfg.baseFile != "" {
		if base, err = docutil.LoadMap(cfg.baseFile); err != nil {
			return nil, fmt.Errorf("merger: loading base: %w", err)
		}
	}
	head := cfg.head
	if cfg.headFile != "" {
		if head, err = docutil.LoadMap(cfg.headFile); err != nil {
			return nil, fmt.Errorf("merger: loading head: %w", err)
		}
	}

	v, err := cfg.schemaValidator()
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if cfg.identifierField != nil {
		config.IdentifierField = *cfg.identifierField
	}
	config.ChangeSummary = cfg.changeSummary
	config.Logger = cfg.logger
	return New(config).Merge(base, head, v)
}

// applyOptions applies option functions and validates the input sources
func applyOptions(opts ...Option) (*mergeConfig, error) {
	cfg := &mergeConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("merger: invalid options: %w", err)
		}
	}

	if err := options.ExactlyOne(
		options.Source{Name: "WithBase", Set: cfg.base != nil},
		options.Source{Name: "WithBaseFile", Set: cfg.baseFile != ""},
	); err != nil {
		return nil, fmt.Errorf("merger: must specify a base document: %w", err)
	}
	if err := options.ExactlyOne(
		options.Source{Name: "WithHead", Set: cfg.head != nil},
		options.Source{Name: "WithHeadFile", Set: cfg.headFile != ""},
	); err != nil {
		return nil, fmt.Errorf("merger: must specify a head document: %w", err)
	}
	if err := options.AtMostOne(
		options.Source{Name: "WithSchema", Set: cfg.schema != nil},
		options.Source{Name: "WithSchemaFile", Set: cfg.schemaFile != ""},
		options.Source{Name: "WithValidator", Set: cfg.validator != nil},
	); err != nil {
		return nil, fmt.Errorf("merger: schema options are mutually exclusive: %w", err)
	}
	return cfg, nil
}

func (c *mergeConfig) schemaValidator() (*validator.Validator, error) {
	opts := []validator.Option{validator.WithLogger(c.logger)}
	switch {
	case c.validator != nil:
		return c.validator, nil
	case c.schema != nil:
		return validator.Compile("merge-schema.json", c.schema, opts...)
	case c.schemaFile != "":
		r := c.resolver
		if r == nil {
			r = resolver.New(resolver.DefaultConfig())
		}
		return validator.Load(r, c.schemaFile, opts...)
	}
	return nil, nil
}

// WithBase specifies the base document. It is updated in place.
func WithBase(doc map[string]any) Option {
	return func(cfg *mergeConfig) error {
		cfg.base = doc
		return nil
	}
}

// WithBaseFile loads the base document from a JSON or YAML file.
func WithBaseFile(path string) Option {
	return func(cfg *mergeConfig) error {
		cfg.baseFile = path
		return nil
	}
}

// WithHead specifies the head document.
func WithHead(doc map[string]any) Option {
	return func(cfg *mergeConfig) error {
		cfg.head = doc
		return nil
	}
}

// WithHeadFile loads the head document from a JSON or YAML file.
func WithHeadFile(path string) Option {
	return func(cfg *mergeConfig) error {
		cfg.headFile = path
		return nil
	}
}

// WithSchema merges under an already resolved schema.
func WithSchema(schema map[string]any) Option {
	return func(cfg *mergeConfig) error {
		cfg.schema = schema
		return nil
	}
}

// WithSchemaFile resolves the schema at path, relative to the resolver root.
func WithSchemaFile(path string) Option {
	return func(cfg *mergeConfig) error {
		cfg.schemaFile = path
		return nil
	}
}

// WithValidator merges under the schema of a compiled validator.
func WithValidator(v *validator.Validator) Option {
	return func(cfg *mergeConfig) error {
		cfg.validator = v
		return nil
	}
}

// WithResolver sets the resolver used by WithSchemaFile.
// Default: a resolver rooted at the working directory
func WithResolver(r *resolver.Resolver) Option {
	return func(cfg *mergeConfig) error {
		if r == nil {
			return &schemaerrors.ConfigError{Option: "resolver", Message: "must not be nil"}
		}
		cfg.resolver = r
		return nil
	}
}

// WithIdentifierField sets the top-level identifier field. An empty name
// disables the identifier check.
// Default: "protocol_identifier"
func WithIdentifierField(field string) Option {
	return func(cfg *mergeConfig) error {
		cfg.identifierField = &field
		return nil
	}
}

// WithChangeSummary enables or disables Result.Changes
// Default: false
func WithChangeSummary(enabled bool) Option {
	return func(cfg *mergeConfig) error {
		cfg.changeSummary = enabled
		return nil
	}
}

// WithLogger sets the logger for the merge and for schema compilation.
func WithLogger(l resolver.Logger) Option {
	return func(cfg *mergeConfig) error {
		cfg.logger = l
		return nil
	}
}
