package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/pathutil"
	"github.com/ctschema/ctschema/merger"
	"github.com/ctschema/ctschema/schemaerrors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mergeInput struct {
	Base            documentInput `json:"base"                       jsonschema:"The stored document to merge into"`
	Patch           documentInput `json:"patch"                      jsonschema:"The patch document to merge"`
	Schema          string        `json:"schema,omitempty"           jsonschema:"Schema path relative to the schema root (default clinical_trial.json)"`
	IdentifierField *string       `json:"identifier_field,omitempty" jsonschema:"Field both documents must agree on (default protocol_identifier, configurable via CTSCHEMA_IDENTIFIER_FIELD). Empty disables the check."`
	IncludeDocument bool          `json:"include_document,omitempty" jsonschema:"Include the merged document in output"`
	Output          string        `json:"output,omitempty"           jsonschema:"File path to write the merged document. The format follows the extension (.json or .yaml)."`
	Offset          int           `json:"offset,omitempty"           jsonschema:"Skip the first N validation errors (for pagination)"`
	Limit           int           `json:"limit,omitempty"            jsonschema:"Maximum number of validation errors to return (default 100)"`
}

type mergeConflict struct {
	Field   string         `json:"field"`
	Path    string         `json:"path"`
	Base    any            `json:"base"`
	Patch   any            `json:"patch"`
	Context map[string]any `json:"context,omitempty"`
}

type mergeOutput struct {
	Merged     bool           `json:"merged"`
	Valid      bool           `json:"valid"`
	Schema     string         `json:"schema"`
	Conflict   *mergeConflict `json:"conflict,omitempty"`
	ErrorCount int            `json:"error_count"`
	Returned   int            `json:"returned"`
	Errors     []string       `json:"errors,omitempty"`
	Changes    string         `json:"changes,omitempty"`
	Document   string         `json:"document,omitempty"`
	WrittenTo  string         `json:"written_to,omitempty"`
}

func handleMerge(_ context.Context, _ *mcp.CallToolRequest, input mergeInput) (*mcp.CallToolResult, mergeOutput, error) {
	base, err := input.Base.loadMap()
	if err != nil {
		return errResult(fmt.Errorf("base: %w", err)), mergeOutput{}, nil
	}
	patch, err := input.Patch.loadMap()
	if err != nil {
		return errResult(fmt.Errorf("patch: %w", err)), mergeOutput{}, nil
	}

	set, err := session.get()
	if err != nil {
		return errResult(err), mergeOutput{}, nil
	}
	schema := schemaOrDefault(input.Schema)
	v, err := set.For(schema)
	if err != nil {
		return errResult(err), mergeOutput{}, nil
	}

	config := merger.DefaultConfig()
	config.IdentifierField = cfg.IdentifierField
	if input.IdentifierField != nil {
		config.IdentifierField = *input.IdentifierField
	}
	config.ChangeSummary = true

	output := mergeOutput{Schema: schema}
	result, err := merger.New(config).Merge(base, patch, v)
	if err != nil {
		var collision *schemaerrors.MergeCollisionError
		if errors.As(err, &collision) {
			output.Conflict = &mergeConflict{
				Field:   collision.Field,
				Path:    collision.Path,
				Base:    collision.Base,
				Patch:   collision.Head,
				Context: collision.ContextMap(),
			}
			return nil, output, nil
		}
		return errResult(err), mergeOutput{}, nil
	}

	output.Merged = true
	output.Valid = result.Valid()
	output.ErrorCount = len(result.Errors)
	output.Errors = paginate(result.Errors, input.Offset, input.Limit)
	output.Returned = len(output.Errors)
	output.Changes = string(result.Changes)

	if input.Output != "" {
		target, err := pathutil.SanitizeOutputPath(input.Output)
		if err != nil {
			return errResult(err), mergeOutput{}, nil
		}
		data, err := docutil.Marshal(result.Document, docutil.FormatForPath(target))
		if err != nil {
			return errResult(err), mergeOutput{}, nil
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			return errResult(fmt.Errorf("failed to write output file: %w", err)), mergeOutput{}, nil
		}
		output.WrittenTo = input.Output
	}
	if input.IncludeDocument {
		data, err := docutil.Marshal(result.Document, docutil.FormatJSON)
		if err != nil {
			return errResult(err), mergeOutput{}, nil
		}
		output.Document = string(data)
	}

	return nil, output, nil
}
