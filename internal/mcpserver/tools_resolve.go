package mcpserver

import (
	"context"
	"fmt"

	"github.com/ctschema/ctschema/docpath"
	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/options"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type resolvePathInput struct {
	Document documentInput `json:"document"            jsonschema:"The document to walk"`
	Path     string        `json:"path,omitempty"      jsonschema:"Path such as root['participants'][0]['samples'] (root alone is the whole document)"`
	Pointer  string        `json:"pointer,omitempty"   jsonschema:"JSON pointer such as /participants/0/samples, as an alternative to path"`
	SkipLast int           `json:"skip_last,omitempty" jsonschema:"Stop this many steps before the end of the path"`
}

type resolvePathOutput struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

func handleResolvePath(_ context.Context, _ *mcp.CallToolRequest, input resolvePathInput) (*mcp.CallToolResult, resolvePathOutput, error) {
	if err := options.ExactlyOne(
		options.Source{Name: "path", Set: input.Path != ""},
		options.Source{Name: "pointer", Set: input.Pointer != ""},
	); err != nil {
		return errResult(err), resolvePathOutput{}, nil
	}
	if input.SkipLast < 0 {
		return errResult(fmt.Errorf("skip_last must not be negative (got %d)", input.SkipLast)), resolvePathOutput{}, nil
	}
	doc, err := input.Document.load()
	if err != nil {
		return errResult(err), resolvePathOutput{}, nil
	}

	var path docpath.Path
	if input.Pointer != "" {
		path = docpath.FromPointer(doc, input.Pointer)
	} else if path, err = docpath.Parse(input.Path); err != nil {
		return errResult(err), resolvePathOutput{}, nil
	}

	value, err := docpath.Resolve(doc, path, input.SkipLast)
	if err != nil {
		return errResult(err), resolvePathOutput{}, nil
	}
	return nil, resolvePathOutput{
		Path:  path.Truncate(input.SkipLast).String(),
		Value: value,
	}, nil
}

type resolveSchemaInput struct {
	Schema  string `json:"schema,omitempty"  jsonschema:"Schema path relative to the schema root (default clinical_trial.json)"`
	Pointer string `json:"pointer,omitempty" jsonschema:"JSON pointer of the sub-schema to return, e.g. /properties/participants"`
}

type resolveSchemaOutput struct {
	Schema   string `json:"schema"`
	Pointer  string `json:"pointer,omitempty"`
	Resolved string `json:"resolved"`
}

func handleResolveSchema(_ context.Context, _ *mcp.CallToolRequest, input resolveSchemaInput) (*mcp.CallToolResult, resolveSchemaOutput, error) {
	set, err := session.get()
	if err != nil {
		return errResult(err), resolveSchemaOutput{}, nil
	}
	name := schemaOrDefault(input.Schema)
	resolved, err := set.Resolver().LoadAndResolve(name)
	if err != nil {
		return errResult(err), resolveSchemaOutput{}, nil
	}

	var node any = resolved
	if input.Pointer != "" {
		var ok bool
		if node, ok = docpath.ResolvePointer(resolved, input.Pointer); !ok {
			return errResult(fmt.Errorf("pointer %s not found in %s", input.Pointer, name)), resolveSchemaOutput{}, nil
		}
	}
	data, err := docutil.Marshal(node, docutil.FormatJSON)
	if err != nil {
		return errResult(err), resolveSchemaOutput{}, nil
	}
	return nil, resolveSchemaOutput{
		Schema:   name,
		Pointer:  input.Pointer,
		Resolved: string(data),
	}, nil
}
