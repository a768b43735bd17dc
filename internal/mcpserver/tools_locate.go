package mcpserver

import (
	"context"
	"fmt"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/locator"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type locateInput struct {
	Document   documentInput `json:"document"             jsonschema:"The document to search"`
	Value      any           `json:"value"                jsonschema:"The value to find. Strings match exactly and case-sensitively; 1 and 1.0 are equal."`
	LevelsUp   *int          `json:"levels_up,omitempty"  jsonschema:"Also return the container this many path steps above the first match, with its ancestor fields"`
	Containers bool          `json:"containers,omitempty" jsonschema:"Also compare mappings and sequences against value, not only scalars"`
	Offset     int           `json:"offset,omitempty"     jsonschema:"Skip the first N paths (for pagination)"`
	Limit      int           `json:"limit,omitempty"      jsonschema:"Maximum number of paths to return (default 100)"`
}

type locateOutput struct {
	Count     int            `json:"count"`
	Returned  int            `json:"returned"`
	Paths     []string       `json:"paths,omitempty"`
	Container any            `json:"container,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

func handleLocate(_ context.Context, _ *mcp.CallToolRequest, input locateInput) (*mcp.CallToolResult, locateOutput, error) {
	doc, err := input.Document.load()
	if err != nil {
		return errResult(err), locateOutput{}, nil
	}
	value, err := docutil.Normalize(input.Value)
	if err != nil {
		return errResult(fmt.Errorf("value: %w", err)), locateOutput{}, nil
	}

	var opts []locator.Option
	if input.Containers {
		opts = append(opts, locator.WithContainers())
	}
	paths, err := locator.FindPaths(doc, value, opts...)
	if err != nil {
		return errResult(err), locateOutput{}, nil
	}

	output := locateOutput{Count: len(paths)}
	if input.LevelsUp != nil {
		if *input.LevelsUp < 0 {
			return errResult(fmt.Errorf("levels_up must not be negative (got %d)", *input.LevelsUp)), locateOutput{}, nil
		}
		container, fields, err := locator.LocateContainer(doc, value, *input.LevelsUp, opts...)
		if err != nil {
			return errResult(err), locateOutput{}, nil
		}
		output.Container = container
		output.Context = fields
	}

	output.Paths = paginate(paths, input.Offset, input.Limit)
	output.Returned = len(output.Paths)
	return nil, output, nil
}
