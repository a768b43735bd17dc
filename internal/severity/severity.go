// Package severity defines the levels attached to reported issues.
//
//   - SeverityError: the document is invalid (structural or referential failures)
//   - SeverityWarning: reported but not fatal, e.g. validation failures of a
//     merged document, which the merge itself does not act on
//   - SeverityInfo: informational notes
package severity

import (
	"fmt"
	"strings"
)

// Severity indicates the severity level of an issue.
type Severity int

const (
	// SeverityError marks a failure that makes a document invalid.
	SeverityError Severity = iota

	// SeverityWarning marks a problem that is reported without failing the operation.
	SeverityWarning

	// SeverityInfo marks an informational message.
	SeverityInfo
)

// String returns the lowercase name of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Symbol returns the marker used in text reports.
func (s Severity) Symbol() string {
	switch s {
	case SeverityError:
		return "✗"
	case SeverityWarning:
		return "⚠"
	case SeverityInfo:
		return "ℹ"
	default:
		return "?"
	}
}

// Parse converts a level name back into a Severity.
func Parse(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	}
	return 0, fmt.Errorf("severity: unknown level %q", name)
}
