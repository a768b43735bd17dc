// Package resolver inlines schema references into a single schema tree.
//
// Two reference keywords are understood:
//
//	{"$ref": "sample.json#/definitions/aliquot"}       plain reference
//	{"type_ref": "assays/components/ngs.json#/properties/files", "description": "..."}
//
// A plain reference replaces its node with the target. A typed reference
// merges the target's fields under the node's own fields, concatenating
// description and $comment text (target first).
//
// References whose target is in the same document ("#/...") are left in place,
// which lets a definition contain children of its own type. References into
// other files are resolved by loading the file, resolving it completely and
// splicing a deep copy of the requested fragment. Cross-file cycles are
// reported as a circular RefResolutionError naming the chain of files.
//
// Resolved schemas are memoised per (file, mode) in a [Cache].
package resolver

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/pathutil"
	"github.com/ctschema/ctschema/schemaerrors"
)

const (
	// MaxRefDepth is the maximum number of nested cross-file resolutions.
	MaxRefDepth = 100

	// KeyRef is the plain reference keyword.
	KeyRef = "$ref"
	// KeyTypeRef is the typed reference keyword.
	KeyTypeRef = "type_ref"
	// KeyDescription is concatenated by typed references.
	KeyDescription = "description"
	// KeyComment is concatenated by typed references.
	KeyComment = "$comment"
	// KeySchema and KeyID are dropped when a whole file is spliced
	KeySchema = "$schema"
	KeyID     = "$id"

	inlineName = "<inline>"
)

// Mode selects how same-file references are treated.
type Mode int

const (
	// ModeKeepLocal leaves every same-file $ref in place.
	ModeKeepLocal Mode = iota
	// ModeInlineLocal also inlines same-file $refs whose target never reaches
	// itself again. Recursive references are kept.
	ModeInlineLocal
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeKeepLocal:
		return "keep-local"
	case ModeInlineLocal:
		return "inline-local"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name back into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "keep-local":
		return ModeKeepLocal, nil
	case "inline-local":
		return ModeInlineLocal, nil
	}
	return 0, &schemaerrors.ConfigError{Option: "mode", Value: s, Message: "expected keep-local or inline-local"}
}

// ShapeChecker checks a newly loaded schema file before it is cached.
type ShapeChecker interface {
	CheckSchema(file string, schema map[string]any) error
}

// ShapeCheckerFunc adapts a function to ShapeChecker.
type ShapeCheckerFunc func(file string, schema map[string]any) error

// CheckSchema implements ShapeChecker.
func (f ShapeCheckerFunc) CheckSchema(file string, schema map[string]any) error {
	return f(file, schema)
}

// Config configures a Resolver.
type Config struct {
	// Root is the directory schema paths and external references are relative to
	Root string
	// Mode selects the treatment of same-file references
	Mode Mode
	// Cache holds loaded and resolved schemas (nil selects DefaultCache)
	Cache *Cache
	// Checker, when set, checks every schema file as it is first loaded
	Checker ShapeChecker
	// Logger receives debug output (nil discards it)
	Logger Logger
}

// DefaultConfig returns a Config rooted at the working directory.
func DefaultConfig() Config {
	return Config{
		Root: ".",
		Mode: ModeKeepLocal,
	}
}

// Resolver loads schema files and resolves their references.
// A Resolver is safe for concurrent use.
type Resolver struct {
	root    string
	mode    Mode
	cache   *Cache
	checker ShapeChecker
	logger  Logger
}

// New creates a Resolver from cfg.
func New(cfg Config) *Resolver {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	cache := cfg.Cache
	if cache == nil {
		cache = DefaultCache()
	}
	return &Resolver{
		root:    root,
		mode:    cfg.Mode,
		cache:   cache,
		checker: cfg.Checker,
		logger:  OrNop(cfg.Logger),
	}
}

// Root returns the absolute schema root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Mode returns the configured resolution mode.
func (r *Resolver) Mode() Mode {
	return r.mode
}

// Cache returns the cache the resolver reads and fills.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// LoadAndResolve loads the schema at path (relative to the root) and returns
// it with every cross-file reference inlined. Results are memoised; the
// returned tree is shared and must not be modified.
func (r *Resolver) LoadAndResolve(path string) (map[string]any, error) {
	abs, err := pathutil.WithinRoot(r.root, path)
	if err != nil {
		return nil, &schemaerrors.SchemaLoadError{Path: path, Message: "outside schema root " + r.root, Cause: err}
	}
	return r.resolveFile(&resolveState{}, abs)
}

// Resolve resolves an in-memory schema. External references are relative to
// the root. The input is not modified and the result is not cached.
func (r *Resolver) Resolve(schema map[string]any) (map[string]any, error) {
	norm, err := docutil.Normalize(schema)
	if err != nil {
		return nil, &schemaerrors.SchemaLoadError{Path: inlineName, Cause: err}
	}
	raw, ok := norm.(map[string]any)
	if !ok {
		return nil, &schemaerrors.SchemaLoadError{Path: inlineName, Message: "schema is not a mapping"}
	}
	fc := newFileContext(r, &resolveState{}, "", raw)
	return fc.resolveRoot()
}

// resolveState tracks the files being resolved by one top-level call.
type resolveState struct {
	stack []string
}

func (r *Resolver) resolveFile(st *resolveState, abs string) (map[string]any, error) {
	key := cacheKey{path: abs, mode: r.mode}
	if cached, ok := r.cache.resolvedSchema(key); ok {
		r.logger.Debug("resolved schema cache hit", "file", r.display(abs))
		return cached, nil
	}

	if slices.Contains(st.stack, abs) {
		chain := make([]string, 0, len(st.stack)+1)
		for _, f := range st.stack {
			chain = append(chain, r.display(f))
		}
		chain = append(chain, r.display(abs))
		return nil, &schemaerrors.RefResolutionError{
			Ref:        r.display(abs),
			Chain:      chain,
			IsCircular: true,
			Message:    "cross-file reference cycle",
		}
	}
	if len(st.stack) >= MaxRefDepth {
		return nil, &schemaerrors.RefResolutionError{
			Ref:     r.display(abs),
			Message: fmt.Sprintf("maximum reference depth (%d) exceeded", MaxRefDepth),
		}
	}

	raw, err := r.load(abs)
	if err != nil {
		return nil, err
	}

	st.stack = append(st.stack, abs)
	defer func() { st.stack = st.stack[:len(st.stack)-1] }()

	fc := newFileContext(r, st, abs, raw)
	resolved, err := fc.resolveRoot()
	if err != nil {
		return nil, err
	}
	r.logger.Debug("resolved schema", "file", r.display(abs), "mode", r.mode.String())
	return r.cache.storeResolved(key, resolved), nil
}

func (r *Resolver) load(abs string) (map[string]any, error) {
	if doc, ok := r.cache.loadedSchema(abs); ok {
		return doc, nil
	}
	display := r.display(abs)
	doc, err := docutil.LoadMap(abs)
	if err != nil {
		return nil, &schemaerrors.SchemaLoadError{Path: display, Cause: err}
	}
	if r.checker != nil {
		if err := r.checker.CheckSchema(display, doc); err != nil {
			return nil, err
		}
	}
	r.logger.Debug("loaded schema", "file", display)
	return r.cache.storeLoaded(abs, doc), nil
}

// display returns abs relative to the root, with forward slashes.
func (r *Resolver) display(abs string) string {
	if abs == "" {
		return inlineName
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}
