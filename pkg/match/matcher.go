// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package match locates a change record's original line block inside a
// file's current line sequence, exact matching first with a configurable
// approximate fallback, and computes unique-context window sizes.
package match

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"github.com/walteh/applydir/pkg/change"
	"github.com/walteh/applydir/pkg/outcome"
	"github.com/walteh/applydir/pkg/policy"
)

// 🎯 Result describes where a record's original lines were located.
// Start/End are a zero-based half-open line range, populated only when
// Candidates == 1.
type Result struct {
	Start      int
	End        int
	Candidates int
}

// 🔍 Matcher locates original line blocks using the configured match policy
type Matcher struct {
	policy policy.MatchPolicy
}

// New creates a matcher for the given policy
func New(pol policy.MatchPolicy) *Matcher {
	return &Matcher{policy: pol}
}

// Locate finds rec.BeforeLines inside fileLines. It scans exact matches
// first; only when none are found and approximate matching is enabled for
// the file does it fall back to similarity scoring. Zero candidates yield a
// no_match outcome, more than one a multiple_matches outcome; in both cases
// no line range is returned.
func (m *Matcher) Locate(ctx context.Context, fileLines []string, rec *change.Record) (Result, outcome.List) {
	logger := zerolog.Ctx(ctx)

	if len(fileLines) == 0 {
		return Result{}, outcome.List{noMatch(rec, "no match: file is empty")}
	}
	if len(rec.BeforeLines) == 0 {
		return Result{}, outcome.List{noMatch(rec, "no match: original lines are empty")}
	}

	resolved := m.policy.For(rec.File)
	window := len(rec.BeforeLines)
	scanLimit := len(fileLines) - window + 1
	if scanLimit < 0 {
		scanLimit = 0
	}
	if m.policy.MaxSearchLines > 0 && scanLimit > m.policy.MaxSearchLines {
		scanLimit = m.policy.MaxSearchLines
	}

	normContent := NormalizeAll(fileLines, resolved.Whitespace, resolved.CaseFold)
	normBefore := NormalizeAll(rec.BeforeLines, resolved.Whitespace, resolved.CaseFold)

	offsets := exactScan(normContent, normBefore, scanLimit)
	if len(offsets) == 0 && resolved.Approximate {
		logger.Debug().
			Str("file", rec.File).
			Str("metric", string(resolved.Metric)).
			Float64("threshold", resolved.Threshold).
			Msg("no exact match, scanning approximately")
		offsets = approximateScan(normContent, normBefore, scanLimit, resolved)
	}

	switch len(offsets) {
	case 0:
		logger.Debug().Str("file", rec.File).Msg("no matching lines found")
		return Result{}, outcome.List{noMatch(rec, "no matching lines found")}
	case 1:
		start := offsets[0]
		logger.Debug().Str("file", rec.File).Int("start", start).Msg("located original lines")
		return Result{Start: start, End: start + window, Candidates: 1}, nil
	default:
		logger.Debug().Str("file", rec.File).Ints("offsets", offsets).Msg("ambiguous match")
		return Result{Candidates: len(offsets)}, outcome.List{{
			Subject:  rec,
			Kind:     outcome.KindMultipleMatches,
			Severity: outcome.SeverityError,
			Message:  "multiple matches found for original lines",
			Details: map[string]any{
				"file":          rec.File,
				"match_count":   len(offsets),
				"match_indices": offsets,
			},
		}}
	}
}

// exactScan collects every offset whose window is identical to the
// normalized original lines.
func exactScan(content, before []string, scanLimit int) []int {
	var offsets []int
	for i := 0; i < scanLimit; i++ {
		if slices.Equal(content[i:i+len(before)], before) {
			offsets = append(offsets, i)
		}
	}
	return offsets
}

// approximateScan scores every window against the original lines and keeps
// the offsets tied at the best score at or above the threshold. Several
// offsets at the same top score are all kept; picking one arbitrarily would
// hide a real ambiguity.
func approximateScan(content, before []string, scanLimit int, resolved policy.ResolvedMatch) []int {
	var offsets []int
	best := 0.0
	for i := 0; i < scanLimit; i++ {
		score := Similarity(content[i:i+len(before)], before, resolved.Metric)
		if score < resolved.Threshold {
			continue
		}
		switch {
		case score > best:
			best = score
			offsets = offsets[:0]
			offsets = append(offsets, i)
		case score == best:
			offsets = append(offsets, i)
		}
	}
	return offsets
}

func noMatch(rec *change.Record, msg string) outcome.Outcome {
	return outcome.Outcome{
		Subject:  rec,
		Kind:     outcome.KindNoMatch,
		Severity: outcome.SeverityError,
		Message:  msg,
		Details:  map[string]any{"file": rec.File},
	}
}
