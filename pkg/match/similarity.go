package match

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/walteh/applydir/pkg/policy"
)

// Similarity scores two line blocks with the given metric, returning a value
// in [0, 1]. Blocks of differing line counts never qualify.
func Similarity(a, b []string, metric policy.Metric) float64 {
	if len(a) != len(b) {
		return 0
	}
	joinedA := strings.Join(a, "\n")
	joinedB := strings.Join(b, "\n")
	if joinedA == joinedB {
		return 1
	}
	switch metric {
	case policy.MetricLevenshtein:
		return levenshteinRatio(joinedA, joinedB)
	default:
		return sequenceRatio(joinedA, joinedB)
	}
}

// sequenceRatio is a sequence-alignment ratio: one minus the Levenshtein
// distance of the aligned diff over the longer input.
func sequenceRatio(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	return 1 - float64(distance)/float64(maxLen)
}

// levenshteinRatio is the edit-distance ratio over the raw strings
func levenshteinRatio(a, b string) float64 {
	return levenshtein.Similarity(a, b, levenshtein.NewParams())
}
