package commands

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/ctschema/ctschema"
	"github.com/ctschema/ctschema/validator"
)

// ValidateFlags contains flags for the validate command
type ValidateFlags struct {
	SchemaFlags
	Quiet  bool
	Format string
}

// validateReport is the structured output of the validate command.
type validateReport struct {
	Document         string            `json:"document" yaml:"document"`
	Schema           string            `json:"schema" yaml:"schema"`
	Valid            bool              `json:"valid" yaml:"valid"`
	ErrorCount       int               `json:"error_count" yaml:"error_count"`
	StructuralCount  int               `json:"structural_count" yaml:"structural_count"`
	ReferentialCount int               `json:"referential_count" yaml:"referential_count"`
	Errors           []validator.Issue `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// SetupValidateFlags creates and configures a FlagSet for the validate command.
// Returns the FlagSet and a ValidateFlags struct with bound flag variables.
func SetupValidateFlags() (*flag.FlagSet, *ValidateFlags) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags := &ValidateFlags{}

	AddSchemaFlags(fs, &flags.SchemaFlags)
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only output validation result, no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only output validation result, no diagnostic messages")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: ctschema validate [flags] <file|->\n\n")
		Writef(fs.Output(), "Validate a document against a schema: structural checks first, then in-document references.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  ctschema validate trial.json\n")
		Writef(fs.Output(), "  ctschema validate --schema-root ./schemas --schema clinical_trial.json trial.yaml\n")
		Writef(fs.Output(), "  cat trial.json | ctschema validate -q -\n")
		Writef(fs.Output(), "  ctschema validate --format json trial.json | jq '.valid'\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Document is valid\n")
		Writef(fs.Output(), "  1    Document is invalid, or the schema could not be loaded\n")
	}

	return fs, flags
}

// HandleValidate executes the validate command
func HandleValidate(args []string) error {
	fs, flags := SetupValidateFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("validate command requires exactly one file path or '-' for stdin")
	}
	docPath := fs.Arg(0)

	// Validate format flag early to fail fast before expensive operations
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	startTime := time.Now()
	doc, err := ReadDocument(docPath)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}
	set, err := flags.Open()
	if err != nil {
		return err
	}
	defer func() { _ = set.Close() }()

	result, err := set.Validate(doc, flags.Schema)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	totalTime := time.Since(startTime)

	if flags.Format == FormatJSON || flags.Format == FormatYAML {
		report := validateReport{
			Document:         FormatDocPath(docPath),
			Schema:           flags.Schema,
			Valid:            result.Valid,
			ErrorCount:       result.ErrorCount,
			StructuralCount:  result.StructuralCount,
			ReferentialCount: result.ReferentialCount,
			Errors:           result.Issues(),
		}
		if err := OutputStructured(report, flags.Format); err != nil {
			return err
		}
		if !result.Valid {
			return ErrFailed
		}
		return nil
	}

	pal := newPalette(stderr)
	if !flags.Quiet {
		Writef(stderr, "Document Validator\n")
		Writef(stderr, "==================\n\n")
		Writef(stderr, "ctschema version: %s\n", ctschema.Version())
		Writef(stderr, "Document: %s\n", FormatDocPath(docPath))
		Writef(stderr, "Schema: %s\n", flags.Schema)
		Writef(stderr, "Total Time: %v\n\n", totalTime)

		found := result.Issues()
		if result.StructuralCount > 0 {
			Writef(stderr, "Structural errors (%d):\n", result.StructuralCount)
			for _, issue := range found[:result.StructuralCount] {
				Writef(stderr, "  %s\n", issue.String())
			}
			Writef(stderr, "\n")
		}
		if result.ReferentialCount > 0 {
			Writef(stderr, "In-document reference errors (%d):\n", result.ReferentialCount)
			for _, issue := range found[result.StructuralCount:] {
				Writef(stderr, "  %s\n", issue.String())
			}
			Writef(stderr, "\n")
		}

		if result.Valid {
			Writef(stderr, "%s\n", pal.ok.Sprint("✓ Validation passed"))
		} else {
			Writef(stderr, "%s\n", pal.bad.Sprintf("✗ Validation failed: %d error(s)", result.ErrorCount))
		}
	}

	if !result.Valid {
		return ErrFailed
	}
	return nil
}
