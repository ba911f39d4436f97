// Package apply orchestrates the per-file sequence of validating change
// records, locating their original lines, mutating file content, and
// reporting outcomes. Expected failures never surface as errors; every
// condition a caller must react to is an outcome.
package apply

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/applydir/pkg/change"
	"github.com/walteh/applydir/pkg/log"
	"github.com/walteh/applydir/pkg/match"
	"github.com/walteh/applydir/pkg/outcome"
	"github.com/walteh/applydir/pkg/policy"
	"gitlab.com/tozd/go/errors"
)

// 🔁 groupState tracks where a file group is in its lifecycle
type groupState string

const (
	statePending    groupState = "pending"
	stateValidating groupState = "validating"
	stateValidated  groupState = "validated"
	stateRejected   groupState = "rejected"
	stateLocating   groupState = "locating"
	stateLocated    groupState = "located"
	stateAmbiguous  groupState = "ambiguous"
	stateUnmatched  groupState = "unmatched"
	stateWriting    groupState = "writing"
	stateApplied    groupState = "applied"
	stateFailed     groupState = "failed"
)

// 🔧 Options contains configuration for the applicator
type Options struct {
	// Policy is the rule set for validation, matching, and deletion
	Policy *policy.Policy
	// Matcher locates original line blocks; built from Policy when nil
	Matcher *match.Matcher
	// DryRun runs the full validate/locate pipeline without writing
	DryRun bool
}

// 🎮 Applicator applies change batches file group by file group
type Applicator struct {
	policy  *policy.Policy
	matcher *match.Matcher
	dryRun  bool
}

// 🏭 New creates a new applicator with the given options
func New(opts Options) (*Applicator, error) {
	if opts.Policy == nil {
		return nil, errors.Errorf("policy is required")
	}
	matcher := opts.Matcher
	if matcher == nil {
		matcher = match.New(opts.Policy.Match)
	}
	return &Applicator{
		policy:  opts.Policy,
		matcher: matcher,
		dryRun:  opts.DryRun,
	}, nil
}

// Apply processes every file group in the batch sequentially and returns the
// flat, ordered outcome list. A failure in one group never aborts the others;
// within one group a failing record halts the remainder of that group, and
// records already applied to that file stay applied.
func (a *Applicator) Apply(ctx context.Context, batch *change.Batch, baseDir string) outcome.List {
	var results outcome.List
	for _, group := range batch.Groups() {
		results = append(results, a.applyGroup(ctx, group, baseDir)...)
	}
	return results
}

// applyGroup runs one file group through the full lifecycle
func (a *Applicator) applyGroup(ctx context.Context, group change.Group, baseDir string) outcome.List {
	logger := zerolog.Ctx(ctx).With().Str("file", group.File).Logger()
	ctx = logger.WithContext(ctx)

	run := &groupRun{state: statePending}
	run.transition(ctx, stateValidating)

	var results outcome.List
	for _, rec := range group.Records {
		results = append(results, change.Validate(rec, baseDir, a.policy)...)
	}
	if results.HasErrors() {
		run.transition(ctx, stateRejected)
		return results
	}
	run.transition(ctx, stateValidated)

	for _, rec := range group.Records {
		recResults, halt := a.applyRecord(ctx, run, rec, baseDir)
		results = append(results, recResults...)
		if halt {
			// Records already applied to this file stay applied; only the
			// failing record and everything after it are abandoned.
			return append(results, a.flushOnHalt(ctx, run)...)
		}
		run.applied++
		run.noteAction(rec.Action)

		if a.policy.PersistEachChange && run.buffer != nil && !a.dryRun {
			run.transition(ctx, stateWriting)
			if err := run.buffer.writeBack(ctx); err != nil {
				run.transition(ctx, stateFailed)
				return append(results, fileSystemOutcome(rec, err))
			}
		}
	}

	if run.buffer != nil && !a.dryRun {
		run.transition(ctx, stateWriting)
		if err := run.buffer.writeBack(ctx); err != nil {
			run.transition(ctx, stateFailed)
			return append(results, fileSystemOutcome(group.Records[0], err))
		}
	}
	run.transition(ctx, stateApplied)

	return append(results, run.successOutcome(ctx, group, a.dryRun))
}

// flushOnHalt persists whatever earlier records already applied to the
// staged buffer before the group stopped.
func (a *Applicator) flushOnHalt(ctx context.Context, run *groupRun) outcome.List {
	if a.dryRun || run.buffer == nil || !run.buffer.dirty || run.applied == 0 {
		return nil
	}
	if err := run.buffer.writeBack(ctx); err != nil {
		return outcome.List{fileSystemOutcome(nil, err)}
	}
	return nil
}

// applyRecord performs one record's action against the (possibly staged)
// file content. The returned halt flag stops the remainder of the group.
func (a *Applicator) applyRecord(ctx context.Context, run *groupRun, rec *change.Record, baseDir string) (outcome.List, bool) {
	path, err := rec.ResolvePath(baseDir)
	if err != nil {
		// Validation already vouched for the path; a failure here is a fault.
		run.transition(ctx, stateFailed)
		return outcome.List{fileSystemOutcome(rec, err)}, true
	}

	switch rec.Action {
	case change.ActionCreateFile:
		return a.applyCreate(ctx, run, rec, path)
	case change.ActionDeleteFile:
		return a.applyDelete(ctx, run, rec, path)
	default:
		return a.applyReplace(ctx, run, rec, path)
	}
}

func (a *Applicator) applyCreate(ctx context.Context, run *groupRun, rec *change.Record, path string) (outcome.List, bool) {
	// Content staged by an earlier record in this group counts as existing.
	if run.buffer != nil {
		run.transition(ctx, stateFailed)
		return outcome.List{{
			Subject:  rec,
			Kind:     outcome.KindFileAlreadyExists,
			Severity: outcome.SeverityError,
			Message:  "cannot create file: an earlier change in this batch already staged it",
			Details:  map[string]any{"file": rec.File},
		}}, true
	}
	if _, err := os.Stat(path); err == nil {
		run.transition(ctx, stateFailed)
		return outcome.List{{
			Subject:  rec,
			Kind:     outcome.KindFileAlreadyExists,
			Severity: outcome.SeverityError,
			Message:  "cannot create file: path already exists",
			Details:  map[string]any{"file": rec.File},
		}}, true
	} else if !os.IsNotExist(err) {
		run.transition(ctx, stateFailed)
		return outcome.List{fileSystemOutcome(rec, err)}, true
	}
	run.buffer = newFileState(path, rec.AfterLines)
	return nil, false
}

func (a *Applicator) applyDelete(ctx context.Context, run *groupRun, rec *change.Record, path string) (outcome.List, bool) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		run.transition(ctx, stateFailed)
		return outcome.List{{
			Subject:  rec,
			Kind:     outcome.KindFileNotFound,
			Severity: outcome.SeverityError,
			Message:  "cannot delete file: path does not exist",
			Details:  map[string]any{"file": rec.File},
		}}, true
	} else if err != nil {
		run.transition(ctx, stateFailed)
		return outcome.List{fileSystemOutcome(rec, err)}, true
	}
	if !a.policy.AllowDelete {
		run.transition(ctx, stateFailed)
		return outcome.List{{
			Subject:  rec,
			Kind:     outcome.KindPermissionDenied,
			Severity: outcome.SeverityError,
			Message:  "file deletion is disabled by policy",
			Details:  map[string]any{"file": rec.File},
		}}, true
	}
	if !a.dryRun {
		if err := os.Remove(path); err != nil {
			run.transition(ctx, stateFailed)
			return outcome.List{fileSystemOutcome(rec, err)}, true
		}
	}
	return nil, false
}

func (a *Applicator) applyReplace(ctx context.Context, run *groupRun, rec *change.Record, path string) (outcome.List, bool) {
	if run.buffer == nil {
		st, err := loadFileState(path)
		if os.IsNotExist(err) {
			run.transition(ctx, stateFailed)
			return outcome.List{{
				Subject:  rec,
				Kind:     outcome.KindFileNotFound,
				Severity: outcome.SeverityError,
				Message:  "cannot replace lines: file does not exist",
				Details:  map[string]any{"file": rec.File},
			}}, true
		} else if err != nil {
			run.transition(ctx, stateFailed)
			return outcome.List{fileSystemOutcome(rec, err)}, true
		}
		run.buffer = st
		run.original = append([]string(nil), st.lines...)
	}

	run.transition(ctx, stateLocating)
	result, locateResults := a.matcher.Locate(ctx, run.buffer.lines, rec)
	if len(locateResults) > 0 {
		if result.Candidates > 1 {
			run.transition(ctx, stateAmbiguous)
		} else {
			run.transition(ctx, stateUnmatched)
		}
		return locateResults, true
	}
	run.transition(ctx, stateLocated)
	run.buffer.replaceRange(result.Start, result.End, rec.AfterLines)
	return nil, false
}

// 🏃 groupRun carries one file group's mutable progress
type groupRun struct {
	state    groupState
	buffer   *fileState
	original []string // content before any record touched the buffer
	applied  int
	actions  map[change.Action]int
}

func (r *groupRun) transition(ctx context.Context, to groupState) {
	zerolog.Ctx(ctx).Debug().
		Str("from", string(r.state)).
		Str("to", string(to)).
		Msg("file group state")
	r.state = to
}

func (r *groupRun) noteAction(a change.Action) {
	if r.actions == nil {
		r.actions = map[change.Action]int{}
	}
	r.actions[a]++
}

// successOutcome summarizes a fully applied file group
func (r *groupRun) successOutcome(ctx context.Context, group change.Group, dryRun bool) outcome.Outcome {
	names := make([]string, 0, len(r.actions))
	for a := range r.actions {
		names = append(names, string(a))
	}
	sort.Strings(names)

	details := map[string]any{
		"file":            group.File,
		"actions":         names,
		"changes_applied": r.applied,
	}
	if dryRun {
		details["dry_run"] = true
		if r.buffer != nil && r.original != nil {
			diff := log.UnifiedDiff(group.File, r.original, r.buffer.lines)
			details["diff"] = diff
			zerolog.Ctx(ctx).Debug().Msg("\n" + diff)
		}
	}

	return outcome.Outcome{
		Kind:     outcome.KindChangesSuccessful,
		Severity: outcome.SeverityInfo,
		Message:  fmt.Sprintf("applied %d change(s) [%s]", r.applied, strings.Join(names, ", ")),
		Details:  details,
	}
}

func fileSystemOutcome(subject any, err error) outcome.Outcome {
	details := map[string]any{"error": err.Error()}
	if rec, ok := subject.(*change.Record); ok && rec != nil {
		details["file"] = rec.File
	}
	return outcome.Outcome{
		Subject:  subject,
		Kind:     outcome.KindFileSystem,
		Severity: outcome.SeverityError,
		Message:  "file system fault",
		Details:  details,
	}
}
