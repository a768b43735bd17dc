package commands

import (
	"errors"
	"flag"
	"fmt"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/locator"
)

// LocateFlags contains flags for the locate command
type LocateFlags struct {
	LevelsUp   int
	Typed      bool
	Containers bool
	Format     string
}

// locateReport is the structured output of the locate command.
type locateReport struct {
	Value     any            `json:"value" yaml:"value"`
	Paths     []string       `json:"paths" yaml:"paths"`
	Container any            `json:"container,omitempty" yaml:"container,omitempty"`
	Context   map[string]any `json:"context,omitempty" yaml:"context,omitempty"`
}

// SetupLocateFlags creates and configures a FlagSet for the locate command.
// Returns the FlagSet and a LocateFlags struct with bound flag variables.
func SetupLocateFlags() (*flag.FlagSet, *LocateFlags) {
	fs := flag.NewFlagSet("locate", flag.ContinueOnError)
	flags := &LocateFlags{}

	fs.IntVar(&flags.LevelsUp, "levels-up", -1, "also print the container this many steps above the first match (-1: paths only)")
	fs.BoolVar(&flags.Typed, "typed", false, "parse the value as a YAML scalar, so 3 is a number and true a boolean")
	fs.BoolVar(&flags.Containers, "containers", false, "also compare mappings and sequences against the value")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: ctschema locate [flags] <file|-> <value>\n\n")
		Writef(fs.Output(), "Print the path of every location of a value in a document.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  ctschema locate trial.json CTTTPP1S1.00\n")
		Writef(fs.Output(), "  ctschema locate --levels-up 1 --format yaml trial.json CTTTPP1S1.00\n")
		Writef(fs.Output(), "  ctschema locate --typed trial.json 2\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Value found\n")
		Writef(fs.Output(), "  1    Value not found\n")
	}

	return fs, flags
}

// HandleLocate executes the locate command
func HandleLocate(args []string) error {
	fs, flags := SetupLocateFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("locate command requires a document and a value")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	doc, err := ReadDocument(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}
	var value any = fs.Arg(1)
	if flags.Typed {
		if value, err = docutil.Decode([]byte(fs.Arg(1)), docutil.FormatYAML); err != nil {
			return fmt.Errorf("parsing value: %w", err)
		}
	}

	var opts []locator.Option
	if flags.Containers {
		opts = append(opts, locator.WithContainers())
	}
	paths, err := locator.FindPaths(doc, value, opts...)
	if err != nil {
		return err
	}

	report := locateReport{Value: value, Paths: paths}
	if flags.LevelsUp >= 0 && len(paths) > 0 {
		if report.Container, report.Context, err = locator.LocateContainer(doc, value, flags.LevelsUp, opts...); err != nil {
			return err
		}
	}

	if flags.Format == FormatJSON || flags.Format == FormatYAML {
		if err := OutputStructured(report, flags.Format); err != nil {
			return err
		}
	} else {
		for _, p := range paths {
			Writef(stdout, "%s\n", p)
		}
		if report.Container != nil {
			data, err := docutil.Marshal(report.Container, docutil.FormatYAML)
			if err != nil {
				return err
			}
			pal := newPalette(stdout)
			Writef(stdout, "\n%s\n%s", pal.dim.Sprint("# container"), data)
			if len(report.Context) > 0 {
				ctx, err := docutil.Marshal(report.Context, docutil.FormatYAML)
				if err != nil {
					return err
				}
				Writef(stdout, "%s\n%s", pal.dim.Sprint("# context"), ctx)
			}
		}
	}

	if len(paths) == 0 {
		Writef(stderr, "value %v not found in %s\n", value, FormatDocPath(fs.Arg(0)))
		return ErrFailed
	}
	return nil
}
