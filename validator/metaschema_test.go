package validator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctschema/ctschema/resolver"
	"github.com/ctschema/ctschema/schemaerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strictMeta() map[string]any {
	return map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []any{"type", "description"},
		"properties": map[string]any{
			"type":        map[string]any{"const": "object"},
			"description": map[string]any{"type": "string", "minLength": 1},
		},
	}
}

func TestNewMetaChecker(t *testing.T) {
	t.Run("accepts a well-formed meta-schema", func(t *testing.T) {
		m, err := NewMetaChecker("strict.json", strictMeta())
		require.NoError(t, err)
		assert.Equal(t, "strict.json", m.Name())
	})

	tests := []struct {
		name string
		meta map[string]any
	}{
		{"missing $schema", map[string]any{"type": "object"}},
		{"type is not object", map[string]any{"$schema": "x", "type": "array"}},
		{"definitions entries must be mappings", map[string]any{
			"$schema":     "x",
			"type":        "object",
			"definitions": map[string]any{"bad": "string"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMetaChecker("meta.json", tt.meta)
			require.ErrorIs(t, err, schemaerrors.ErrSchemaShape)
			assert.Contains(t, err.Error(), "meta.json")
		})
	}
}

func TestMetaChecker_CheckSchema(t *testing.T) {
	m, err := NewMetaChecker("strict.json", strictMeta())
	require.NoError(t, err)

	assert.NoError(t, m.CheckSchema("ok.json", map[string]any{"type": "object", "description": "Trial"}))

	err = m.CheckSchema("bad.json", map[string]any{"type": "object"})
	require.ErrorIs(t, err, schemaerrors.ErrSchemaShape)
	assert.True(t, strings.Contains(err.Error(), "bad.json"))
	assert.Contains(t, err.Error(), "description")
}

func TestMetaChecker_WithResolver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meta.json"),
		[]byte(`{"$schema": "http://json-schema.org/draft-07/schema#", "type": "object", "required": ["description"]}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"),
		[]byte(`{"type": "object", "description": "ok"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"),
		[]byte(`{"type": "object"}`), 0o600))

	m, err := LoadMetaChecker(filepath.Join(dir, "meta.json"))
	require.NoError(t, err)

	r := resolver.New(resolver.Config{Root: dir, Cache: resolver.NewCache(), Checker: m})
	_, err = r.LoadAndResolve("good.json")
	require.NoError(t, err)

	_, err = r.LoadAndResolve("bad.json")
	require.ErrorIs(t, err, schemaerrors.ErrSchemaShape)

	_, err = LoadMetaChecker(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, schemaerrors.ErrSchemaLoad)
}
