package match_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/applydir/pkg/change"
	"github.com/walteh/applydir/pkg/match"
	"github.com/walteh/applydir/pkg/outcome"
	"github.com/walteh/applydir/pkg/policy"
)

func replaceRecord(file string, before ...string) *change.Record {
	return &change.Record{
		File:        file,
		Action:      change.ActionReplaceLines,
		BeforeLines: before,
		AfterLines:  []string{"replacement"},
	}
}

// 🧪 TestLocateExactUnique tests the single verbatim match case
func TestLocateExactUnique(t *testing.T) {
	matcher := match.New(policy.Default().Match)
	fileLines := []string{"a", "b", "c", "d", "e"}

	result, results := matcher.Locate(context.Background(), fileLines, replaceRecord("f.txt", "b", "c"))

	require.Empty(t, results, "unambiguous match yields no outcomes")
	assert.Equal(t, 1, result.Candidates)
	assert.Equal(t, 1, result.Start)
	assert.Equal(t, 3, result.End)
}

// 🧪 TestLocateMultipleMatches tests ambiguity detection
func TestLocateMultipleMatches(t *testing.T) {
	matcher := match.New(policy.Default().Match)
	fileLines := []string{"x", "y", "x", "y"}

	result, results := matcher.Locate(context.Background(), fileLines, replaceRecord("f.txt", "x", "y"))

	assert.Equal(t, 2, result.Candidates)
	require.Len(t, results, 1)
	assert.Equal(t, outcome.KindMultipleMatches, results[0].Kind)
	assert.Equal(t, 2, results[0].Details["match_count"])
	assert.Equal(t, []int{0, 2}, results[0].Details["match_indices"])
}

// 🧪 TestLocateNoMatch tests the zero-candidate case
func TestLocateNoMatch(t *testing.T) {
	pol := policy.Default().Match
	pol.Approximate = false
	matcher := match.New(pol)

	result, results := matcher.Locate(context.Background(), []string{"a", "b"}, replaceRecord("f.txt", "zzz"))

	assert.Equal(t, 0, result.Candidates)
	require.Len(t, results, 1)
	assert.Equal(t, outcome.KindNoMatch, results[0].Kind)
}

// 🧪 TestLocateEmptyFile tests matching against an empty file
func TestLocateEmptyFile(t *testing.T) {
	matcher := match.New(policy.Default().Match)

	_, results := matcher.Locate(context.Background(), nil, replaceRecord("f.txt", "a"))

	require.Len(t, results, 1)
	assert.Equal(t, outcome.KindNoMatch, results[0].Kind)
}

// 🧪 TestLocateCollapseWhitespace tests that collapsed whitespace makes
// trailing-space drift an exact match
func TestLocateCollapseWhitespace(t *testing.T) {
	pol := policy.Default().Match
	pol.Threshold = 0.8
	matcher := match.New(pol)

	fileLines := []string{"print('Hello')"}
	result, results := matcher.Locate(context.Background(), fileLines, replaceRecord("f.py", "print('Hello') "))

	require.Empty(t, results)
	assert.Equal(t, 1, result.Candidates)
	assert.Equal(t, 0, result.Start)
	assert.Equal(t, 1, result.End)
}

// 🧪 TestLocateApproximateFallback tests similarity scoring under strict
// whitespace, where the drifted line cannot match exactly
func TestLocateApproximateFallback(t *testing.T) {
	pol := policy.Default().Match
	pol.Whitespace = policy.WhitespaceStrict
	pol.Threshold = 0.8
	matcher := match.New(pol)

	fileLines := []string{"import os", "print('Hello')", "exit()"}
	result, results := matcher.Locate(context.Background(), fileLines, replaceRecord("f.py", "print('Hello' )"))

	require.Empty(t, results, "one window qualifies above the threshold")
	assert.Equal(t, 1, result.Candidates)
	assert.Equal(t, 1, result.Start)
	assert.Equal(t, 2, result.End)
}

// 🧪 TestLocateApproximateDisabled tests the per-extension kill switch
func TestLocateApproximateDisabled(t *testing.T) {
	off := false
	pol := policy.Default().Match
	pol.Whitespace = policy.WhitespaceStrict
	pol.Rules = []policy.MatchRule{{Extensions: []string{".py"}, Approximate: &off}}
	matcher := match.New(pol)

	fileLines := []string{"print('Hello')"}
	_, results := matcher.Locate(context.Background(), fileLines, replaceRecord("f.py", "print('Hello' )"))

	require.Len(t, results, 1)
	assert.Equal(t, outcome.KindNoMatch, results[0].Kind)
}

// 🧪 TestLocateApproximateTies tests that tied top scores stay ambiguous
func TestLocateApproximateTies(t *testing.T) {
	pol := policy.Default().Match
	pol.Whitespace = policy.WhitespaceStrict
	pol.Threshold = 0.8
	matcher := match.New(pol)

	fileLines := []string{"value = 12", "middle", "value = 12"}
	result, results := matcher.Locate(context.Background(), fileLines, replaceRecord("f.txt", "value = 13"))

	assert.Equal(t, 2, result.Candidates)
	require.Len(t, results, 1)
	assert.Equal(t, outcome.KindMultipleMatches, results[0].Kind)
}

// 🧪 TestLocateLevenshteinMetric tests the edit-distance metric selection
func TestLocateLevenshteinMetric(t *testing.T) {
	pol := policy.Default().Match
	pol.Whitespace = policy.WhitespaceStrict
	pol.Metric = policy.MetricLevenshtein
	pol.Threshold = 0.8
	matcher := match.New(pol)

	fileLines := []string{"first line", "second line here", "third"}
	result, results := matcher.Locate(context.Background(), fileLines, replaceRecord("f.txt", "second line hero"))

	require.Empty(t, results)
	assert.Equal(t, 1, result.Candidates)
	assert.Equal(t, 1, result.Start)
}

// 🧪 TestLocateMaxSearchLines tests the scan bound: a match beyond the bound
// is simply not found
func TestLocateMaxSearchLines(t *testing.T) {
	pol := policy.Default().Match
	pol.Approximate = false
	pol.MaxSearchLines = 2
	matcher := match.New(pol)

	fileLines := []string{"a", "b", "c", "target", "e"}
	result, results := matcher.Locate(context.Background(), fileLines, replaceRecord("f.txt", "target"))

	assert.Equal(t, 0, result.Candidates)
	require.Len(t, results, 1)
	assert.Equal(t, outcome.KindNoMatch, results[0].Kind)
}

// 🧪 TestLocateBlockLongerThanFile tests a window that cannot fit
func TestLocateBlockLongerThanFile(t *testing.T) {
	matcher := match.New(policy.Default().Match)

	_, results := matcher.Locate(context.Background(), []string{"a"}, replaceRecord("f.txt", "a", "b", "c"))

	require.Len(t, results, 1)
	assert.Equal(t, outcome.KindNoMatch, results[0].Kind)
}

// 🧪 TestLocateCaseFold tests case-insensitive comparison
func TestLocateCaseFold(t *testing.T) {
	pol := policy.Default().Match
	pol.CaseFold = true
	matcher := match.New(pol)

	result, results := matcher.Locate(context.Background(), []string{"Hello World"}, replaceRecord("f.txt", "hello world"))

	require.Empty(t, results)
	assert.Equal(t, 1, result.Candidates)
}
