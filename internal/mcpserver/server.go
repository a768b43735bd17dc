// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes ctschema capabilities as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/ctschema/ctschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `ctschema MCP server: validates, merges and cross-references clinical trial metadata documents against multi-file schemas.

Configuration: All defaults are configurable via CTSCHEMA_* environment variables set in your MCP client config.

Key settings:
- CTSCHEMA_SCHEMA_ROOT (default: built-in schemas) - directory schemas are loaded from; schema arguments are relative to it
- CTSCHEMA_META_SCHEMA (default: meta/strict_meta_schema.json) - meta-schema every loaded schema file must satisfy; "none" disables the check
- CTSCHEMA_DEFAULT_SCHEMA (default: clinical_trial.json) - schema used when a tool call names none
- CTSCHEMA_IDENTIFIER_FIELD (default: protocol_identifier) - field base and patch must agree on before merging
- CTSCHEMA_RESULT_LIMIT (default: 100) - default result limit for list outputs
- CTSCHEMA_MAX_INLINE_SIZE (default: 10MiB) - maximum size of inline document content

Resolved schemas and compiled validators are cached for the lifetime of the session.`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "ctschema", Version: ctschema.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate",
		Description: "Validate a document against a schema. Structural errors are reported first, then in-document reference errors (a value declared with in_doc_ref_pattern that appears nowhere under the pattern). Each error carries a JSON pointer into the document and into the resolved schema. Use offset/limit to paginate.",
	}, handleValidate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "merge",
		Description: "Merge a patch document into a stored base document under the per-field strategies declared in the schema (mergeStrategy, mergeOptions.idRef). Base and patch must agree on the identifier field. Conflicting scalar values fail with the conflicting field, both values and the chain of identifiers that locate it. The merged result is validated; use output to write it to a file.",
	}, handleMerge)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "locate",
		Description: "Find every location of a value in a document, returned as paths such as root['participants'][0]['cimac_participant_id']. With levels_up, also return the container that many levels above the first match and the keys leading to it.",
	}, handleLocate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_path",
		Description: "Resolve a path such as root['shipments'][0]['manifest_id'] against a document and return the value found there. skip_last stops that many steps short, returning an ancestor.",
	}, handleResolvePath)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_schema",
		Description: "Load a schema file and return it with every $ref to another file and every type_ref inlined. Local references are kept. Use pointer to return only a sub-schema.",
	}, handleResolveSchema)
}

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit defaults to cfg.ResultLimit.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = cfg.ResultLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) { // overflow or beyond slice
		end = len(items)
	}
	return items[offset:end]
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
