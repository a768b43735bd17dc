package validator

import (
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/resolver"
	"github.com/ctschema/ctschema/schemaerrors"
)

// bootstrapMetaSchema is the fixed shape every meta-schema must have.
const bootstrapMetaSchema = `{
	"type": "object",
	"required": ["$schema", "type"],
	"properties": {
		"$schema": {"type": "string"},
		"type": {"const": "object"},
		"description": {"type": "string"},
		"definitions": {
			"type": "object",
			"additionalProperties": {"type": "object"}
		},
		"properties": {"type": "object"},
		"allOf": {"type": "array", "items": {"type": "object"}}
	}
}`

var bootstrap = jsonschema.MustCompileString(resourcePrefix+"bootstrap.json", bootstrapMetaSchema)

// MetaChecker checks schema files against a meta-schema. It implements
// resolver.ShapeChecker.
type MetaChecker struct {
	name string
	meta *jsonschema.Schema
}

var _ resolver.ShapeChecker = (*MetaChecker)(nil)

// NewMetaChecker checks meta against the built-in bootstrap meta-schema and
// compiles it. name identifies the meta-schema in errors.
func NewMetaChecker(name string, meta map[string]any) (*MetaChecker, error) {
	norm, err := docutil.Normalize(meta)
	if err != nil {
		return nil, &schemaerrors.SchemaLoadError{Path: name, Cause: err}
	}
	if err := bootstrap.Validate(norm); err != nil {
		return nil, shapeError(name, err)
	}
	compiled, err := compileSchema(resourcePrefix+name, norm.(map[string]any), false)
	if err != nil {
		return nil, &schemaerrors.SchemaShapeError{Path: name, Cause: err}
	}
	return &MetaChecker{name: name, meta: compiled}, nil
}

// LoadMetaChecker reads the meta-schema file at path and builds a MetaChecker.
func LoadMetaChecker(path string) (*MetaChecker, error) {
	meta, err := docutil.LoadMap(path)
	if err != nil {
		return nil, &schemaerrors.SchemaLoadError{Path: path, Cause: err}
	}
	return NewMetaChecker(path, meta)
}

// CheckSchema reports whether schema conforms to the meta-schema.
func (m *MetaChecker) CheckSchema(file string, schema map[string]any) error {
	if err := m.meta.Validate(schema); err != nil {
		return shapeError(file, err)
	}
	return nil
}

// Name returns the meta-schema name.
func (m *MetaChecker) Name() string {
	return m.name
}

func shapeError(file string, err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &schemaerrors.SchemaShapeError{Path: file, Cause: err}
	}
	var problems []string
	for _, leaf := range leaves(ve) {
		at := leaf.InstanceLocation
		if at == "" {
			at = "/"
		}
		problems = append(problems, fmt.Sprintf("%s: %s", at, leaf.Message))
	}
	return &schemaerrors.SchemaShapeError{Path: file, Problems: problems}
}
