// Package commands provides CLI command handlers for ctschema.
package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/mattn/go-isatty"
	"go.yaml.in/yaml/v4"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/schemaset"
	"github.com/ctschema/ctschema/resolver"
	"github.com/ctschema/ctschema/schemas"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ErrFailed is returned when a command ran to completion but its outcome is
// negative (an invalid document, a merge conflict, a value not found). The
// report has already been written; callers only set the exit status.
var ErrFailed = errors.New("command failed")

// Output streams. Tests replace them.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}
	return nil
}

// OutputStructured writes data in the specified format (json or yaml) to stdout.
func OutputStructured(data any, format string) error {
	var bytes []byte
	var err error

	switch format {
	case FormatJSON:
		bytes, err = json.MarshalIndent(data, "", "  ")
	case FormatYAML:
		bytes, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}

	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}

	Writef(stdout, "%s\n", bytes)
	return nil
}

// Writef writes formatted output to the writer.
// If the write fails, it logs to stderr (useful for debugging).
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil { //nolint:gosec // G705 - CLI tool, not a web server
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
	}
}

// FormatDocPath returns a display-friendly path for a document argument.
func FormatDocPath(path string) string {
	if path == StdinFilePath {
		return "<stdin>"
	}
	return path
}

// ReadDocument loads a document from a file, or from stdin for "-".
func ReadDocument(path string) (any, error) {
	if path != StdinFilePath {
		return docutil.LoadFile(path)
	}
	data, err := io.ReadAll(io.LimitReader(stdin, docutil.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	if int64(len(data)) > docutil.MaxFileSize {
		return nil, fmt.Errorf("stdin exceeds maximum size limit (%d bytes)", docutil.MaxFileSize)
	}
	return docutil.Decode(data, docutil.DetectFormat(data))
}

// ReadDocumentMap is ReadDocument for documents whose top level must be a mapping.
func ReadDocumentMap(path string) (map[string]any, error) {
	v, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: top level is %T, not a mapping", FormatDocPath(path), v)
	}
	return m, nil
}

// SchemaFlags selects the schema set a command works against. Defaults come
// from the CTSCHEMA_* environment variables shared with the MCP server.
type SchemaFlags struct {
	Root       string
	MetaSchema string
	Schema     string
	Mode       string
	Verbose    bool
}

// AddSchemaFlags registers the schema set flags on fs.
func AddSchemaFlags(fs *flag.FlagSet, flags *SchemaFlags) {
	fs.StringVar(&flags.Root, "schema-root", os.Getenv("CTSCHEMA_SCHEMA_ROOT"), "schema directory (default: built-in schemas)")
	fs.StringVar(&flags.MetaSchema, "meta-schema", envOr("CTSCHEMA_META_SCHEMA", schemas.MetaSchemaPath), "meta-schema path relative to the schema root, or 'none'")
	fs.StringVar(&flags.Schema, "schema", envOr("CTSCHEMA_DEFAULT_SCHEMA", schemas.ClinicalTrialPath), "schema path relative to the schema root")
	fs.StringVar(&flags.Mode, "mode", resolver.ModeKeepLocal.String(), "same-file $ref handling: keep-local or inline-local")
	fs.BoolVar(&flags.Verbose, "v", false, "log resolver and validator activity to stderr")
}

// Open opens the schema set the flags describe. The caller must Close it.
func (f *SchemaFlags) Open() (*schemaset.Set, error) {
	mode, err := resolver.ParseMode(f.Mode)
	if err != nil {
		return nil, err
	}
	return schemaset.Open(schemaset.Config{
		Root:       f.Root,
		MetaSchema: f.MetaSchema,
		Mode:       mode,
		Logger:     resolver.NewSlogAdapter(NewLogger(f.Verbose)),
	})
}

// NewLogger returns a text logger on stderr. Debug output is shown only
// when verbose is set.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// palette colours text reports. Colour is used only when the target is a
// terminal.
type palette struct {
	ok, bad, warn, dim *color.Color
}

func newPalette(w io.Writer) palette {
	p := palette{
		ok:   color.New(color.FgGreen, color.Bold),
		bad:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow),
		dim:  color.New(color.Faint),
	}
	enabled := isTerminal(w)
	for _, c := range []*color.Color{p.ok, p.bad, p.warn, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
