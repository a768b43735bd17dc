package commands

import (
	"errors"
	"flag"
	"fmt"

	"github.com/ctschema/ctschema/docpath"
	"github.com/ctschema/ctschema/internal/docutil"
)

// GetFlags contains flags for the get command
type GetFlags struct {
	SkipLast int
	Pointer  bool
	Format   string
}

// SetupGetFlags creates and configures a FlagSet for the get command.
// Returns the FlagSet and a GetFlags struct with bound flag variables.
func SetupGetFlags() (*flag.FlagSet, *GetFlags) {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	flags := &GetFlags{}

	fs.IntVar(&flags.SkipLast, "skip-last", 0, "stop this many steps before the end of the path")
	fs.BoolVar(&flags.Pointer, "pointer", false, "treat the path as a JSON pointer such as /participants/0")
	fs.StringVar(&flags.Format, "format", FormatYAML, "output format: json or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: ctschema get [flags] <file|-> <path>\n\n")
		Writef(fs.Output(), "Print the value at a path such as root['participants'][0]['samples'].\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  ctschema get trial.json \"root['shipments'][0]['manifest_id']\"\n")
		Writef(fs.Output(), "  ctschema get --skip-last 1 trial.json \"root['participants'][0]['samples'][0]['cimac_id']\"\n")
		Writef(fs.Output(), "  ctschema get --pointer --format json trial.json /participants/0\n")
	}

	return fs, flags
}

// HandleGet executes the get command
func HandleGet(args []string) error {
	fs, flags := SetupGetFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("get command requires a document and a path")
	}
	if flags.Format != FormatJSON && flags.Format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s", flags.Format, FormatJSON, FormatYAML)
	}
	if flags.SkipLast < 0 {
		return fmt.Errorf("skip-last must not be negative (got %d)", flags.SkipLast)
	}

	doc, err := ReadDocument(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	var path docpath.Path
	if flags.Pointer {
		path = docpath.FromPointer(doc, fs.Arg(1))
	} else if path, err = docpath.Parse(fs.Arg(1)); err != nil {
		return err
	}

	value, err := docpath.Resolve(doc, path, flags.SkipLast)
	if err != nil {
		return err
	}
	data, err := docutil.Marshal(value, docutil.Format(flags.Format))
	if err != nil {
		return err
	}
	Writef(stdout, "%s\n", data)
	return nil
}
