// Package schemas embeds the built-in schema set: the strict meta-schema and
// a small clinical trial schema spread over several files.
//
// The resolver reads schemas from a directory, so callers without their own
// schema root extract the set first:
//
//	dir, err := os.MkdirTemp("", "ctschema")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := schemas.Extract(dir); err != nil {
//		log.Fatal(err)
//	}
//	r := resolver.New(resolver.Config{Root: dir})
package schemas

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/pathutil"
)

// Paths of well-known files, relative to the schema root.
const (
	MetaSchemaPath    = "meta/strict_meta_schema.json"
	ClinicalTrialPath = "clinical_trial.json"
)

//go:embed *.json meta/*.json
var files embed.FS

// FS returns the embedded files.
func FS() fs.FS {
	return files
}

// Names returns the embedded file paths in sorted order.
func Names() []string {
	var names []string
	_ = fs.WalkDir(files, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			names = append(names, p)
		}
		return nil
	})
	sort.Strings(names)
	return names
}

// Read decodes the embedded schema at name.
func Read(name string) (map[string]any, error) {
	data, err := files.ReadFile(path.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("schemas: %w", err)
	}
	v, err := docutil.Decode(data, docutil.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("schemas: %s: %w", name, err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schemas: %s: top level is %T, not a mapping", name, v)
	}
	return m, nil
}

// MetaSchema decodes the embedded strict meta-schema.
func MetaSchema() (map[string]any, error) {
	return Read(MetaSchemaPath)
}

// Extract writes every embedded file below dir, creating directories as
// needed. Existing files are overwritten; symlinks are refused.
func Extract(dir string) error {
	for _, name := range Names() {
		data, err := files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("schemas: %w", err)
		}
		target, err := pathutil.SanitizeOutputPath(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			return fmt.Errorf("schemas: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return fmt.Errorf("schemas: creating directory: %w", err)
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			return fmt.Errorf("schemas: writing %s: %w", name, err)
		}
	}
	return nil
}
