package validator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctschema/ctschema/resolver"
	"github.com/ctschema/ctschema/schemaerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// objsRefsSchema declares that every entry of refs must equal some objs[*].id.
func objsRefsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"objs": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": map[string]any{"id": map[string]any{}},
				},
			},
			"refs": map[string]any{
				"type":  "array",
				"items": map[string]any{"in_doc_ref_pattern": "/objs/*/id"},
			},
		},
	}
}

func mustCompile(t *testing.T, schema map[string]any) *Validator {
	t.Helper()
	v, err := Compile("test.json", schema)
	require.NoError(t, err)
	return v
}

func TestValidate_ReferentialIntegrity(t *testing.T) {
	v := mustCompile(t, objsRefsSchema())

	t.Run("all references found", func(t *testing.T) {
		doc := map[string]any{
			"objs": []any{map[string]any{"id": 1}, map[string]any{"id": "x"}},
			"refs": []any{1, "x"},
		}
		result := v.Validate(doc)
		assert.True(t, result.Valid, "unexpected errors: %v", result.Messages())
		assert.Empty(t, v.Messages(doc))
		assert.NoError(t, v.First(doc))
		assert.True(t, v.IsValid(doc))
	})

	t.Run("missing reference yields exactly one error", func(t *testing.T) {
		doc := map[string]any{
			"objs": []any{map[string]any{"id": 1}, map[string]any{"id": "x"}},
			"refs": []any{"missing"},
		}
		result := v.Validate(doc)
		require.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 0, result.StructuralCount)
		assert.Equal(t, 1, result.ReferentialCount)

		var ri *schemaerrors.ReferentialIntegrityError
		require.True(t, errors.As(result.Errors[0], &ri))
		assert.Equal(t, "/refs/0", ri.Path)
		assert.Equal(t, "/objs/*/id", ri.Pattern)
		assert.Equal(t, "missing", ri.Value)
		assert.Equal(t, "#/properties/refs/items", ri.SchemaPointer)

		err := v.First(doc)
		assert.ErrorIs(t, err, schemaerrors.ErrReferentialIntegrity)
		assert.ErrorIs(t, err, schemaerrors.ErrValidation)
	})

	t.Run("numbers match across int and float", func(t *testing.T) {
		doc := map[string]any{
			"objs": []any{map[string]any{"id": 2.0}},
			"refs": []any{int64(2)},
		}
		assert.True(t, v.IsValid(doc))
	})

	t.Run("strings are case sensitive", func(t *testing.T) {
		doc := map[string]any{
			"objs": []any{map[string]any{"id": "X"}},
			"refs": []any{"x"},
		}
		assert.False(t, v.IsValid(doc))
	})
}

func TestValidate_NoCandidatesAlwaysFails(t *testing.T) {
	v := mustCompile(t, objsRefsSchema())

	for _, ref := range []any{nil, "x", 0, false} {
		doc := map[string]any{
			"objs": []any{},
			"refs": []any{ref},
		}
		result := v.Validate(doc)
		require.Len(t, result.Errors, 1, "ref %v", ref)
		assert.ErrorIs(t, result.Errors[0], schemaerrors.ErrReferentialIntegrity)
	}
}

func TestValidate_StructuralThenReferential(t *testing.T) {
	schema := objsRefsSchema()
	schema["required"] = []any{"objs", "name"}
	v := mustCompile(t, schema)

	doc := map[string]any{
		"objs": "not-an-array",
		"refs": []any{"a", "b"},
	}
	result := v.Validate(doc)
	require.False(t, result.Valid)
	assert.Equal(t, 2, result.StructuralCount, "type and required: %v", result.Messages())
	assert.Equal(t, 2, result.ReferentialCount)
	assert.Equal(t, 4, result.ErrorCount)

	for i, err := range result.Errors {
		if i < result.StructuralCount {
			assert.NotErrorIs(t, err, schemaerrors.ErrReferentialIntegrity)
			assert.ErrorIs(t, err, schemaerrors.ErrValidation)
		} else {
			assert.ErrorIs(t, err, schemaerrors.ErrReferentialIntegrity)
		}
	}

	var ve *schemaerrors.ValidationError
	require.True(t, errors.As(v.First(doc), &ve))

	keywords := make(map[string]string)
	for _, issue := range result.Issues() {
		keywords[issue.DisplayPath()+" "+issue.Keyword] = issue.Message
	}
	assert.Contains(t, keywords, "/objs type")
	assert.Contains(t, keywords, "/ required")
	assert.Contains(t, keywords, "/refs/0 in_doc_ref_pattern")
	assert.Contains(t, keywords, "/refs/1 in_doc_ref_pattern")
}

func TestValidate_StructuralOnly(t *testing.T) {
	v := mustCompile(t, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cohort_name": map[string]any{"type": "string", "enum": []any{"Arm_A", "Arm_Z"}},
			"age":         map[string]any{"type": "integer"},
		},
	})

	result := v.Validate(map[string]any{"cohort_name": "Arm_B", "age": "old"})
	require.Equal(t, 2, result.ErrorCount, "%v", result.Messages())
	paths := []string{}
	for _, issue := range result.Issues() {
		paths = append(paths, issue.Path)
		assert.Equal(t, SeverityError, issue.Severity)
		assert.NotEmpty(t, issue.SchemaPointer)
	}
	assert.ElementsMatch(t, []string{"/cohort_name", "/age"}, paths)
}

func TestValidate_ConstraintInsideAnyOf(t *testing.T) {
	schema := objsRefsSchema()
	schema["properties"].(map[string]any)["primary"] = map[string]any{
		"anyOf": []any{
			map[string]any{"type": "integer"},
			map[string]any{"type": "string", "in_doc_ref_pattern": "/objs/*/id"},
		},
	}
	v := mustCompile(t, schema)
	objs := []any{map[string]any{"id": "x"}}

	assert.True(t, v.IsValid(map[string]any{"objs": objs, "primary": 7}))
	assert.True(t, v.IsValid(map[string]any{"objs": objs, "primary": "x"}))

	result := v.Validate(map[string]any{"objs": objs, "primary": "y"})
	require.Len(t, result.Errors, 1, "%v", result.Messages())
	assert.ErrorIs(t, result.Errors[0], schemaerrors.ErrReferentialIntegrity)
}

func TestValidate_ConstraintsBehindLocalRefs(t *testing.T) {
	v := mustCompile(t, map[string]any{
		"definitions": map[string]any{
			"node": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":     map[string]any{"type": "string"},
					"parent":   map[string]any{"in_doc_ref_pattern": "/names/*"},
					"children": map[string]any{"type": "array", "items": map[string]any{"$ref": "#/definitions/node"}},
				},
			},
		},
		"type": "object",
		"properties": map[string]any{
			"names": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"root":  map[string]any{"$ref": "#/definitions/node"},
		},
	})

	doc := map[string]any{
		"names": []any{"a", "b"},
		"root": map[string]any{
			"name":   "a",
			"parent": "a",
			"children": []any{
				map[string]any{"name": "b", "parent": "a"},
				map[string]any{"name": "c", "parent": "zzz", "children": []any{
					map[string]any{"name": "d", "parent": "b"},
				}},
			},
		},
	}
	result := v.Validate(doc)
	require.Len(t, result.Errors, 1, "%v", result.Messages())

	var ri *schemaerrors.ReferentialIntegrityError
	require.True(t, errors.As(result.Errors[0], &ri))
	assert.Equal(t, "/root/children/1/parent", ri.Path)
	assert.Equal(t, "#/definitions/node/properties/parent", ri.SchemaPointer)
}

func TestCompile_RejectsPartialWildcard(t *testing.T) {
	_, err := Compile("bad.json", map[string]any{
		"properties": map[string]any{
			"ref": map[string]any{"in_doc_ref_pattern": "/objs/ab*/id"},
		},
	})
	require.ErrorIs(t, err, schemaerrors.ErrSchemaShape)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestCompile_RejectsConditionalRefPattern(t *testing.T) {
	for name, schema := range map[string]map[string]any{
		"if": {
			"if":   map[string]any{"properties": map[string]any{"ref": map[string]any{"in_doc_ref_pattern": "/objs/*/id"}}},
			"then": map[string]any{"required": []any{"extra"}},
		},
		"not": {
			"properties": map[string]any{
				"ref": map[string]any{"not": map[string]any{"in_doc_ref_pattern": "/objs/*/id"}},
			},
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Compile("cond.json", schema)
			require.ErrorIs(t, err, schemaerrors.ErrSchemaShape)
			assert.Contains(t, err.Error(), "under if or not")
		})
	}

	t.Run("properties named if and not", func(t *testing.T) {
		_, err := Compile("names.json", map[string]any{
			"properties": map[string]any{
				"if":  map[string]any{"in_doc_ref_pattern": "/objs/*/id"},
				"not": map[string]any{"in_doc_ref_pattern": "/objs/*/id"},
			},
		})
		require.NoError(t, err)
	})

	t.Run("then branch", func(t *testing.T) {
		_, err := Compile("then.json", map[string]any{
			"if":   map[string]any{"required": []any{"ref"}},
			"then": map[string]any{"properties": map[string]any{"ref": map[string]any{"in_doc_ref_pattern": "/objs/*/id"}}},
		})
		require.NoError(t, err)
	})
}

func TestValidate_UnsupportedDocumentValue(t *testing.T) {
	v := mustCompile(t, map[string]any{"type": "object"})
	result := v.Validate(map[string]any{"ch": make(chan int)})
	require.False(t, result.Valid)
	assert.Equal(t, 1, result.StructuralCount)
}

func TestPackageHelpers(t *testing.T) {
	msgs, err := ValidateDocument(map[string]any{"objs": []any{}, "refs": []any{"q"}}, objsRefsSchema())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "in-document reference not found")

	ok, err := IsValid(map[string]any{"objs": []any{map[string]any{"id": "q"}}, "refs": []any{"q"}}, objsRefsSchema())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ids.json"),
		[]byte(`{"definitions": {"ref": {"type": "string", "in_doc_ref_pattern": "/ids/*"}}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.json"),
		[]byte(`{"type": "object", "properties": {"ids": {"type": "array"}, "use": {"$ref": "ids.json#/definitions/ref"}}}`), 0o600))

	r := resolver.New(resolver.Config{Root: dir, Cache: resolver.NewCache()})
	reg := NewRegistry(r)
	require.NoError(t, reg.Warm("doc.json"))

	first, err := reg.For("doc.json")
	require.NoError(t, err)
	second, err := reg.For("./doc.json")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "doc.json", first.Name())

	result, err := reg.Validate(map[string]any{"ids": []any{"a"}, "use": "b"}, "doc.json")
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], schemaerrors.ErrReferentialIntegrity)

	_, err = reg.For("absent.json")
	require.ErrorIs(t, err, schemaerrors.ErrSchemaLoad)
	require.Error(t, reg.Warm("absent.json"))
}
