package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/agnivade/levenshtein"
	"github.com/ctschema/ctschema"
	"github.com/ctschema/ctschema/cmd/ctschema/commands"
	"github.com/ctschema/ctschema/internal/mcpserver"
)

// commandNames lists the subcommands, used for typo suggestions.
var commandNames = []string{"validate", "merge", "locate", "get", "resolve", "mcp", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version", "-v", "--version":
		fmt.Printf("ctschema %s\n", ctschema.Version())
		if len(args) > 0 && (args[0] == "-l" || args[0] == "--long") {
			fmt.Println(ctschema.BuildInfo())
		}
	case "help", "-h", "--help":
		printUsage()
	case "validate":
		err = commands.HandleValidate(args)
	case "merge":
		err = commands.HandleMerge(args)
	case "locate":
		err = commands.HandleLocate(args)
	case "get":
		err = commands.HandleGet(args)
	case "resolve":
		err = commands.HandleResolve(args)
	case "mcp":
		err = runMCP()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if suggestion := suggestCommand(command); suggestion != "" {
			fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", suggestion)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, commands.ErrFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// runMCP serves the MCP tools over stdio until the client disconnects or
// the process is interrupted. Logs go to stderr; stdout carries the protocol.
func runMCP() error {
	slog.SetDefault(commands.NewLogger(os.Getenv("CTSCHEMA_DEBUG") != ""))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return mcpserver.Run(ctx)
}

// suggestCommand returns the command closest to input within an edit
// distance of 2, or "" when none is that close.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := levenshtein.ComputeDistance(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func printUsage() {
	fmt.Println(`ctschema - clinical trial metadata schema tools

Usage:
  ctschema <command> [options]

Commands:
  validate    Validate a document against a schema, including in-document references
  merge       Merge a patch document into a stored record
  locate      Find every location of a value in a document
  get         Print the value at a path in a document
  resolve     Print a schema with cross-file references inlined
  mcp         Serve the commands as MCP tools over stdio
  version     Show version information (--long for build details)
  help        Show this help message

Environment:
  CTSCHEMA_SCHEMA_ROOT, CTSCHEMA_META_SCHEMA, CTSCHEMA_DEFAULT_SCHEMA and
  CTSCHEMA_IDENTIFIER_FIELD set flag defaults for every command and the MCP server.

Examples:
  ctschema validate trial.json
  ctschema merge -o merged.json trial.json patch.yaml
  ctschema locate --levels-up 1 trial.json CTTTPP1S1.00
  ctschema get trial.json "root['shipments'][0]"
  ctschema resolve --schema-root ./schemas clinical_trial.json

Run 'ctschema <command> --help' for more information on a command.`)
}
