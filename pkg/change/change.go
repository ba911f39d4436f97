// Package change defines the change record — one requested edit against one
// file — and its structural validation. Records are constructed from an
// external batch, validated once, then consumed by the applicator.
package change

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/walteh/applydir/pkg/outcome"
	"github.com/walteh/applydir/pkg/policy"
	"gitlab.com/tozd/go/errors"
)

// 🎬 Action is the closed set of supported edit actions
type Action string

const (
	ActionReplaceLines Action = "replace_lines"
	ActionCreateFile   Action = "create_file"
	ActionDeleteFile   Action = "delete_file"
)

// Valid reports whether a is one of the supported actions
func (a Action) Valid() bool {
	switch a {
	case ActionReplaceLines, ActionCreateFile, ActionDeleteFile:
		return true
	}
	return false
}

// 📝 Record is one requested edit. BeforeLines is the block to locate in the
// existing file, AfterLines the replacement or new-file content. Which of
// the two may be empty is determined entirely by the action.
type Record struct {
	File        string   `json:"file"`
	Action      Action   `json:"action"`
	BeforeLines []string `json:"original_lines"`
	AfterLines  []string `json:"changed_lines"`
}

// ResolvePath resolves the record's file path to an absolute location inside
// baseDir. Paths that escape baseDir are rejected.
func (r *Record) ResolvePath(baseDir string) (string, error) {
	if r.File == "" {
		return "", errors.Errorf("file path is empty")
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", errors.Errorf("resolving base directory: %w", err)
	}
	abs := r.File
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(base, abs)
	}
	abs = filepath.Clean(abs)
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return "", errors.Errorf("resolving %q against %q: %w", r.File, base, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("path %q escapes base directory %q", r.File, base)
	}
	return abs, nil
}

// Validate checks the record's structural legality for its declared action
// and applies the character-set policy to AfterLines. It is pure: no file
// system access beyond path arithmetic, no mutation. An empty list means the
// record is fully valid.
func Validate(rec *Record, baseDir string, pol *policy.Policy) outcome.List {
	var results outcome.List

	if _, err := rec.ResolvePath(baseDir); err != nil {
		results = append(results, outcome.Outcome{
			Subject:  rec,
			Kind:     outcome.KindInvalidPath,
			Severity: outcome.SeverityError,
			Message:  "file path is not resolvable inside the base directory",
			Details:  map[string]any{"file": rec.File, "error": err.Error()},
		})
		return results
	}

	if structural := validateShape(rec); structural != nil {
		return append(results, *structural)
	}

	results = append(results, validateCharset(rec, pol)...)
	return results
}

// validateShape enforces the action-determined emptiness of the line blocks.
func validateShape(rec *Record) *outcome.Outcome {
	var msg string
	switch rec.Action {
	case ActionReplaceLines:
		switch {
		case len(rec.BeforeLines) == 0:
			msg = "replace_lines requires non-empty original_lines"
		case len(rec.AfterLines) == 0:
			msg = "replace_lines requires non-empty changed_lines"
		}
	case ActionCreateFile:
		switch {
		case len(rec.BeforeLines) != 0:
			msg = "create_file requires empty original_lines"
		case len(rec.AfterLines) == 0:
			msg = "create_file requires non-empty changed_lines"
		}
	case ActionDeleteFile:
		if len(rec.BeforeLines) != 0 || len(rec.AfterLines) != 0 {
			msg = "delete_file requires empty original_lines and changed_lines"
		}
	default:
		msg = fmt.Sprintf("unknown action %q", rec.Action)
	}
	if msg == "" {
		return nil
	}
	return &outcome.Outcome{
		Subject:  rec,
		Kind:     outcome.KindInvalidChange,
		Severity: outcome.SeverityError,
		Message:  msg,
		Details:  map[string]any{"file": rec.File, "action": string(rec.Action)},
	}
}

// validateCharset reports lines in AfterLines containing characters outside
// the allowed set (ASCII), at the enforcement level the policy resolves for
// this file.
func validateCharset(rec *Record, pol *policy.Policy) outcome.List {
	enforcement := pol.Charset.EnforcementFor(rec.File)
	if enforcement == policy.EnforceIgnore {
		return nil
	}
	severity := outcome.SeverityError
	if enforcement == policy.EnforceWarn {
		severity = outcome.SeverityWarning
	}

	var results outcome.List
	for i, line := range rec.AfterLines {
		if !containsNonASCII(line) {
			continue
		}
		results = append(results, outcome.Outcome{
			Subject:  rec,
			Kind:     outcome.KindDisallowedCharacters,
			Severity: severity,
			Message:  "line contains characters outside the allowed set",
			Details:  map[string]any{"file": rec.File, "line": line, "line_index": i},
		})
	}
	return results
}

func containsNonASCII(line string) bool {
	for _, r := range line {
		if r > 127 {
			return true
		}
	}
	return false
}
