// Package outcome defines the reported result records produced by change
// validation, matching, and application. Outcomes are the only way expected
// failure conditions surface to callers; errors are reserved for faults.
package outcome

import (
	"fmt"
)

// 🏷️ Kind classifies a reported outcome
type Kind string

const (
	KindInvalidPath          Kind = "invalid_path"
	KindInvalidChange        Kind = "invalid_change"
	KindDisallowedCharacters Kind = "disallowed_characters"
	KindNoMatch              Kind = "no_match"
	KindMultipleMatches      Kind = "multiple_matches"
	KindFileNotFound         Kind = "file_not_found"
	KindFileAlreadyExists    Kind = "file_already_exists"
	KindPermissionDenied     Kind = "permission_denied"
	KindFileSystem           Kind = "file_system"
	KindChangesSuccessful    Kind = "file_changes_successful"
)

// 📊 Severity indicates how a caller should treat an outcome
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// 📄 Outcome is a single reported result from validation, matching, or
// application. Subject is typically a *change.Record; it is nil for
// file-scope or structural issues.
type Outcome struct {
	Subject  any            `json:"subject,omitempty"`
	Kind     Kind           `json:"kind"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}

// String returns a short human-readable representation
func (o Outcome) String() string {
	return fmt.Sprintf("[%s] %s: %s", o.Severity, o.Kind, o.Message)
}

// IsError reports whether the outcome blocks the change it refers to
func (o Outcome) IsError() bool {
	return o.Severity == SeverityError
}

// 📚 List is an ordered collection of outcomes
type List []Outcome

// HasErrors reports whether any outcome has error severity
func (l List) HasErrors() bool {
	for _, o := range l {
		if o.IsError() {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity outcomes
func (l List) Errors() List {
	var out List
	for _, o := range l {
		if o.IsError() {
			out = append(out, o)
		}
	}
	return out
}

// Warnings returns only the warning-severity outcomes
func (l List) Warnings() List {
	var out List
	for _, o := range l {
		if o.Severity == SeverityWarning {
			out = append(out, o)
		}
	}
	return out
}
