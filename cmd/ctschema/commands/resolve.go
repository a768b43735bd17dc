package commands

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ctschema/ctschema/docpath"
	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/pathutil"
)

// ResolveFlags contains flags for the resolve command
type ResolveFlags struct {
	SchemaFlags
	Pointer string
	Output  string
	Format  string
}

// SetupResolveFlags creates and configures a FlagSet for the resolve command.
// Returns the FlagSet and a ResolveFlags struct with bound flag variables.
func SetupResolveFlags() (*flag.FlagSet, *ResolveFlags) {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	flags := &ResolveFlags{}

	AddSchemaFlags(fs, &flags.SchemaFlags)
	fs.StringVar(&flags.Pointer, "pointer", "", "print only the sub-schema at this JSON pointer")
	fs.StringVar(&flags.Output, "o", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Output, "output", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Format, "format", FormatJSON, "output format: json or yaml (ignored with -o, which uses the file extension)")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: ctschema resolve [flags] [schema]\n\n")
		Writef(fs.Output(), "Print a schema with every cross-file $ref and type_ref inlined.\n")
		Writef(fs.Output(), "The schema argument overrides --schema.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  ctschema resolve\n")
		Writef(fs.Output(), "  ctschema resolve --schema-root ./schemas participant.json\n")
		Writef(fs.Output(), "  ctschema resolve --mode inline-local --pointer /properties/participants\n")
	}

	return fs, flags
}

// HandleResolve executes the resolve command
func HandleResolve(args []string) error {
	fs, flags := SetupResolveFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		flags.Schema = fs.Arg(0)
	default:
		fs.Usage()
		return fmt.Errorf("resolve command takes at most one schema path")
	}
	if flags.Format != FormatJSON && flags.Format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s", flags.Format, FormatJSON, FormatYAML)
	}

	set, err := flags.Open()
	if err != nil {
		return err
	}
	defer func() { _ = set.Close() }()

	resolved, err := set.Resolver().LoadAndResolve(flags.Schema)
	if err != nil {
		return err
	}
	var node any = resolved
	if flags.Pointer != "" {
		var ok bool
		if node, ok = docpath.ResolvePointer(resolved, flags.Pointer); !ok {
			return fmt.Errorf("pointer %s not found in %s", flags.Pointer, flags.Schema)
		}
	}

	if flags.Output == "" {
		data, err := docutil.Marshal(node, docutil.Format(flags.Format))
		if err != nil {
			return err
		}
		Writef(stdout, "%s\n", data)
		return nil
	}

	target, err := pathutil.SanitizeOutputPath(flags.Output)
	if err != nil {
		return err
	}
	data, err := docutil.Marshal(node, docutil.FormatForPath(target))
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
