// Package schemaset opens a schema directory for the command line and the
// MCP server: a resolver over the root, an optional meta-schema check and a
// registry of compiled validators.
package schemaset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ctschema/ctschema/resolver"
	"github.com/ctschema/ctschema/schemas"
	"github.com/ctschema/ctschema/validator"
)

// MetaSchemaNone disables the meta-schema check when given as Config.MetaSchema.
const MetaSchemaNone = "none"

// Config describes a schema set.
type Config struct {
	// Root is the schema directory. Empty extracts the built-in schemas to a
	// temporary directory.
	Root string
	// MetaSchema is the meta-schema path relative to Root, or MetaSchemaNone.
	// Empty selects the built-in strict meta-schema path.
	MetaSchema string
	// Mode selects how same-file references are treated
	Mode resolver.Mode
	// Logger receives resolver and validator debug output.
	Logger resolver.Logger
}

// Set is an opened schema set.
type Set struct {
	*validator.Registry
	temp string
}

// Open builds the resolver and registry described by c.
func Open(c Config) (*Set, error) {
	set := &Set{}
	root := c.Root
	if root == "" {
		dir, err := os.MkdirTemp("", "ctschema-schemas-")
		if err != nil {
			return nil, fmt.Errorf("schemaset: creating schema directory: %w", err)
		}
		if err := schemas.Extract(dir); err != nil {
			_ = os.RemoveAll(dir)
			return nil, err
		}
		root, set.temp = dir, dir
	}

	rcfg := resolver.DefaultConfig()
	rcfg.Root = root
	rcfg.Mode = c.Mode
	rcfg.Cache = resolver.NewCache()
	rcfg.Logger = c.Logger

	meta := c.MetaSchema
	if meta == "" {
		meta = schemas.MetaSchemaPath
	}
	if meta != MetaSchemaNone {
		checker, err := validator.LoadMetaChecker(filepath.Join(root, filepath.FromSlash(meta)))
		if err != nil {
			_ = set.Close()
			return nil, err
		}
		rcfg.Checker = checker
	}

	set.Registry = validator.NewRegistry(resolver.New(rcfg), validator.WithLogger(c.Logger))
	return set, nil
}

// Close removes the extracted built-in schemas, if any.
func (s *Set) Close() error {
	if s.temp == "" {
		return nil
	}
	err := os.RemoveAll(s.temp)
	s.temp = ""
	return err
}
