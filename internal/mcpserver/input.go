package mcpserver

import (
	"fmt"
	"sync"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/options"
	"github.com/ctschema/ctschema/internal/schemaset"
	"github.com/ctschema/ctschema/resolver"
)

// documentInput represents the two ways a document can be provided to a tool.
// Exactly one of File or Content must be set.
type documentInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a JSON or YAML document on disk"`
	Content string `json:"content,omitempty" jsonschema:"Inline document content (JSON or YAML)"`
}

// load decodes the document into a normalised value tree.
func (d documentInput) load() (any, error) {
	if err := options.ExactlyOne(
		options.Source{Name: "file", Set: d.File != ""},
		options.Source{Name: "content", Set: d.Content != ""},
	); err != nil {
		return nil, err
	}
	if d.File != "" {
		return docutil.LoadFile(d.File)
	}
	if int64(len(d.Content)) > cfg.MaxInlineSize {
		return nil, fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set CTSCHEMA_MAX_INLINE_SIZE to increase",
			len(d.Content), cfg.MaxInlineSize)
	}
	data := []byte(d.Content)
	return docutil.Decode(data, docutil.DetectFormat(data))
}

// loadMap is load for documents whose top level must be a mapping.
func (d documentInput) loadMap() (map[string]any, error) {
	v, err := d.load()
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document top level is %T, not a mapping", v)
	}
	return m, nil
}

// schemaSession owns the resolver and compiled validators shared by every
// tool call. It is built on first use from cfg.
type schemaSession struct {
	once sync.Once
	set  *schemaset.Set
	err  error
}

var session = &schemaSession{}

// get returns the session schema set, opening it on first use.
func (s *schemaSession) get() (*schemaset.Set, error) {
	s.once.Do(func() {
		s.set, s.err = openSchemaSet(cfg)
	})
	return s.set, s.err
}

// openSchemaSet opens c.SchemaRoot, or the built-in schemas when it is empty.
func openSchemaSet(c *serverConfig) (*schemaset.Set, error) {
	return schemaset.Open(schemaset.Config{
		Root:       c.SchemaRoot,
		MetaSchema: c.MetaSchema,
		Logger:     resolver.NewSlogAdapter(nil),
	})
}

// schemaOrDefault returns name, or the configured default schema when empty.
func schemaOrDefault(name string) string {
	if name == "" {
		return cfg.DefaultSchema
	}
	return name
}
