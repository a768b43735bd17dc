package commands

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/issues"
	"github.com/ctschema/ctschema/internal/pathutil"
	"github.com/ctschema/ctschema/internal/severity"
	"github.com/ctschema/ctschema/merger"
	"github.com/ctschema/ctschema/resolver"
	"github.com/ctschema/ctschema/schemaerrors"
)

// MergeFlags contains flags for the merge command
type MergeFlags struct {
	SchemaFlags
	Output          string
	IdentifierField string
	Changes         bool
	Quiet           bool
	Format          string
}

// mergeReport is the structured output of the merge command.
type mergeReport struct {
	Merged    bool          `json:"merged" yaml:"merged"`
	Valid     bool          `json:"valid" yaml:"valid"`
	Conflict  *issues.Issue `json:"conflict,omitempty" yaml:"conflict,omitempty"`
	Errors    []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
	Changes   any           `json:"changes,omitempty" yaml:"changes,omitempty"`
	WrittenTo string        `json:"written_to,omitempty" yaml:"written_to,omitempty"`
}

// SetupMergeFlags creates and configures a FlagSet for the merge command.
// Returns the FlagSet and a MergeFlags struct with bound flag variables.
func SetupMergeFlags() (*flag.FlagSet, *MergeFlags) {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	flags := &MergeFlags{}

	AddSchemaFlags(fs, &flags.SchemaFlags)
	fs.StringVar(&flags.Output, "o", "", "output file path (default: stdout); the extension selects json or yaml")
	fs.StringVar(&flags.Output, "output", "", "output file path (default: stdout); the extension selects json or yaml")
	fs.StringVar(&flags.IdentifierField, "identifier-field", envOr("CTSCHEMA_IDENTIFIER_FIELD", merger.DefaultIdentifierField),
		"field base and patch must agree on; empty disables the check")
	fs.BoolVar(&flags.Changes, "changes", false, "print a JSON merge patch of the changes to stderr")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: no diagnostic messages")
	fs.StringVar(&flags.Format, "format", FormatText, "report format: text, json, or yaml (json/yaml reports replace the document on stdout)")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: ctschema merge [flags] <base> <patch>\n\n")
		Writef(fs.Output(), "Merge a patch document into a stored base document using the merge strategies declared in the schema.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  ctschema merge trial.json patch.yaml > merged.json\n")
		Writef(fs.Output(), "  ctschema merge -o merged.yaml --changes trial.json patch.json\n")
		Writef(fs.Output(), "  ctschema merge --identifier-field '' --schema participant.json a.json b.json\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Merged document is valid\n")
		Writef(fs.Output(), "  1    Conflict, identifier mismatch, or merged document is invalid\n")
	}

	return fs, flags
}

// HandleMerge executes the merge command
func HandleMerge(args []string) error {
	fs, flags := SetupMergeFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("merge command requires a base and a patch document")
	}
	basePath, patchPath := fs.Arg(0), fs.Arg(1)
	if basePath == StdinFilePath && patchPath == StdinFilePath {
		return fmt.Errorf("only one of base and patch can be read from stdin")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	var target string
	if flags.Output != "" {
		var err error
		if target, err = pathutil.SanitizeOutputPath(flags.Output); err != nil {
			return err
		}
	}

	base, err := ReadDocumentMap(basePath)
	if err != nil {
		return fmt.Errorf("loading base: %w", err)
	}
	patch, err := ReadDocumentMap(patchPath)
	if err != nil {
		return fmt.Errorf("loading patch: %w", err)
	}

	set, err := flags.Open()
	if err != nil {
		return err
	}
	defer func() { _ = set.Close() }()
	v, err := set.For(flags.Schema)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	config := merger.DefaultConfig()
	config.IdentifierField = flags.IdentifierField
	config.ChangeSummary = flags.Changes || flags.Format != FormatText
	config.Logger = resolver.NewSlogAdapter(NewLogger(flags.Verbose))

	structured := flags.Format == FormatJSON || flags.Format == FormatYAML
	pal := newPalette(stderr)

	result, err := merger.New(config).Merge(base, patch, v)
	if err != nil {
		var collision *schemaerrors.MergeCollisionError
		if !errors.As(err, &collision) {
			return err
		}
		conflict := conflictIssue(collision)
		if structured {
			if err := OutputStructured(mergeReport{Conflict: &conflict}, flags.Format); err != nil {
				return err
			}
		} else if !flags.Quiet {
			Writef(stderr, "%s\n  %s\n", pal.bad.Sprint("✗ Merge conflict"), conflict.String())
		}
		return ErrFailed
	}

	if target != "" {
		data, err := docutil.Marshal(result.Document, docutil.FormatForPath(target))
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
	} else if !structured {
		format := docutil.FormatYAML
		if basePath != StdinFilePath {
			format = docutil.FormatForPath(basePath)
		}
		data, err := docutil.Marshal(result.Document, format)
		if err != nil {
			return err
		}
		Writef(stdout, "%s\n", data)
	}

	if structured {
		changes, err := docutil.Decode(result.Changes, docutil.FormatJSON)
		if err != nil {
			return err
		}
		report := mergeReport{
			Merged:    true,
			Valid:     result.Valid(),
			Errors:    result.Errors,
			Changes:   changes,
			WrittenTo: flags.Output,
		}
		if err := OutputStructured(report, flags.Format); err != nil {
			return err
		}
	} else if !flags.Quiet {
		if flags.Changes {
			Writef(stderr, "Changes: %s\n", result.Changes)
		}
		if target != "" {
			Writef(stderr, "Output: %s\n", flags.Output)
		}
		if result.Valid() {
			Writef(stderr, "%s\n", pal.ok.Sprint("✓ Merge succeeded"))
		} else {
			Writef(stderr, "%s\n", pal.warn.Sprintf("⚠ Merged document is invalid: %d error(s)", len(result.Errors)))
			for _, msg := range result.Errors {
				Writef(stderr, "  %s\n", pal.dim.Sprint(msg))
			}
		}
	}

	if !result.Valid() {
		return ErrFailed
	}
	return nil
}

// conflictIssue renders a merge collision as a report issue.
func conflictIssue(c *schemaerrors.MergeCollisionError) issues.Issue {
	issue := issues.Issue{
		Path:     c.Path,
		Message:  fmt.Sprintf("field %q: base value %v, patch value %v", c.Field, c.Base, c.Head),
		Severity: severity.SeverityError,
		Keyword:  "mergeStrategy",
		Value:    c.Head,
	}
	for i, entry := range c.Context {
		if i > 0 {
			issue.Context += ", "
		}
		issue.Context += entry.String()
	}
	return issue
}
