// Package issues provides the report record shared by validation and merge output.
package issues

import (
	"fmt"

	"github.com/ctschema/ctschema/internal/severity"
)

// Issue represents a single problem found in a document.
type Issue struct {
	// Path is the JSON pointer of the offending value ("" for the document root)
	Path string `json:"path" yaml:"path"`
	// Message is a human-readable description of the issue
	Message string `json:"message" yaml:"message"`
	// Severity indicates the severity level of the issue
	Severity severity.Severity `json:"-" yaml:"-"`
	// Keyword is the schema keyword that failed (optional)
	Keyword string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	// SchemaPointer locates the failing keyword in the resolved schema (optional)
	SchemaPointer string `json:"schema_pointer,omitempty" yaml:"schema_pointer,omitempty"`
	// Value is the problematic value (optional)
	Value any `json:"value,omitempty" yaml:"value,omitempty"`
	// Context names the enclosing records, e.g. "participant_id=P1" (optional)
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// DisplayPath returns Path, or "/" for the document root.
func (i Issue) DisplayPath() string {
	if i.Path == "" {
		return "/"
	}
	return i.Path
}

// String returns a formatted line such as
//
//	✗ /refs/0 [in_doc_ref_pattern]: "missing" does not match any value at /objs/*/id
func (i Issue) String() string {
	sb := getStringBuilder()
	defer putStringBuilder(sb)

	sb.WriteString(i.Severity.Symbol())
	sb.WriteByte(' ')
	sb.WriteString(i.DisplayPath())
	if i.Keyword != "" {
		sb.WriteString(" [")
		sb.WriteString(i.Keyword)
		sb.WriteByte(']')
	}
	sb.WriteString(": ")
	sb.WriteString(i.Message)
	if i.Context != "" {
		fmt.Fprintf(sb, "\n    Context: %s", i.Context)
	}
	return sb.String()
}

// Count returns the number of issues at each severity.
func Count(list []Issue) (errors, warnings, infos int) {
	for _, i := range list {
		switch i.Severity {
		case severity.SeverityError:
			errors++
		case severity.SeverityWarning:
			warnings++
		case severity.SeverityInfo:
			infos++
		}
	}
	return errors, warnings, infos
}
