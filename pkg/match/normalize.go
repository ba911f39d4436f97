package match

import (
	"regexp"
	"strings"

	"github.com/walteh/applydir/pkg/policy"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize applies the matching normalization to one line. It affects only
// matching decisions; stored text is never rewritten.
func Normalize(line string, ws policy.Whitespace, caseFold bool) string {
	var norm string
	switch ws {
	case policy.WhitespaceStrict:
		norm = line
	case policy.WhitespaceRemove:
		norm = whitespaceRun.ReplaceAllString(line, "")
	case policy.WhitespaceCollapse:
		norm = whitespaceRun.ReplaceAllString(strings.TrimSpace(line), " ")
	default:
		norm = whitespaceRun.ReplaceAllString(strings.TrimSpace(line), " ")
	}
	if caseFold {
		norm = strings.ToLower(norm)
	}
	return norm
}

// NormalizeAll normalizes every line, returning a new slice
func NormalizeAll(lines []string, ws policy.Whitespace, caseFold bool) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Normalize(line, ws, caseFold)
	}
	return out
}
