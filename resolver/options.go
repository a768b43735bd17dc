package resolver

import (
	"fmt"

	"github.com/ctschema/ctschema/schemaerrors"
)

// Option configures a Resolver built by NewWithOptions.
type Option func(*Config) error

// NewWithOptions builds a Resolver starting from DefaultConfig.
//
//	r, err := resolver.NewWithOptions(
//	    resolver.WithRoot("schemas"),
//	    resolver.WithMode(resolver.ModeInlineLocal),
//	)
func NewWithOptions(opts ...Option) (*Resolver, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("resolver: invalid options: %w", err)
		}
	}
	return New(cfg), nil
}

// WithRoot sets the schema root directory.
func WithRoot(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return &schemaerrors.ConfigError{Option: "root", Message: "must not be empty"}
		}
		c.Root = dir
		return nil
	}
}

// WithMode sets the same-file reference mode.
func WithMode(m Mode) Option {
	return func(c *Config) error {
		if m != ModeKeepLocal && m != ModeInlineLocal {
			return &schemaerrors.ConfigError{Option: "mode", Value: int(m), Message: "unknown mode"}
		}
		c.Mode = m
		return nil
	}
}

// WithCache sets the schema cache.
func WithCache(cache *Cache) Option {
	return func(c *Config) error {
		if cache == nil {
			return &schemaerrors.ConfigError{Option: "cache", Message: "must not be nil"}
		}
		c.Cache = cache
		return nil
	}
}

// WithShapeChecker sets the checker run on every newly loaded schema file.
func WithShapeChecker(checker ShapeChecker) Option {
	return func(c *Config) error {
		c.Checker = checker
		return nil
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}
