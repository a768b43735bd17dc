package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type validateInput struct {
	Document documentInput `json:"document"         jsonschema:"The document to validate"`
	Schema   string        `json:"schema,omitempty" jsonschema:"Schema path relative to the schema root (default clinical_trial.json, configurable via CTSCHEMA_DEFAULT_SCHEMA)"`
	Offset   int           `json:"offset,omitempty" jsonschema:"Skip the first N errors (for pagination)"`
	Limit    int           `json:"limit,omitempty"  jsonschema:"Maximum number of errors to return (default 100)"`
}

type validateIssue struct {
	Path          string `json:"path"`
	Message       string `json:"message"`
	Keyword       string `json:"keyword,omitempty"`
	SchemaPointer string `json:"schema_pointer,omitempty"`
	Value         any    `json:"value,omitempty"`
}

type validateOutput struct {
	Valid            bool            `json:"valid"`
	Schema           string          `json:"schema"`
	ErrorCount       int             `json:"error_count"`
	StructuralCount  int             `json:"structural_count"`
	ReferentialCount int             `json:"referential_count"`
	Returned         int             `json:"returned"`
	Errors           []validateIssue `json:"errors,omitempty"`
}

func handleValidate(_ context.Context, _ *mcp.CallToolRequest, input validateInput) (*mcp.CallToolResult, validateOutput, error) {
	doc, err := input.Document.load()
	if err != nil {
		return errResult(err), validateOutput{}, nil
	}

	set, err := session.get()
	if err != nil {
		return errResult(err), validateOutput{}, nil
	}
	schema := schemaOrDefault(input.Schema)
	result, err := set.Validate(doc, schema)
	if err != nil {
		return errResult(err), validateOutput{}, nil
	}

	output := validateOutput{
		Valid:            result.Valid,
		Schema:           schema,
		ErrorCount:       result.ErrorCount,
		StructuralCount:  result.StructuralCount,
		ReferentialCount: result.ReferentialCount,
	}

	found := result.Issues()
	output.Errors = makeSlice[validateIssue](len(found))
	for _, issue := range found {
		output.Errors = append(output.Errors, validateIssue{
			Path:          issue.Path,
			Message:       issue.Message,
			Keyword:       issue.Keyword,
			SchemaPointer: issue.SchemaPointer,
			Value:         issue.Value,
		})
	}

	output.Errors = paginate(output.Errors, input.Offset, input.Limit)
	output.Returned = len(output.Errors)

	return nil, output, nil
}
