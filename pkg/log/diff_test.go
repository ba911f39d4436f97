package log_test

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/applydir/pkg/log"
)

// 🧪 TestUnifiedDiff tests the -/+ line diff rendering
func TestUnifiedDiff(t *testing.T) {
	before := []string{"a", "b", "c"}
	after := []string{"a", "B", "c", "d"}

	diff := log.UnifiedDiff("f.txt", before, after)

	lines := strings.Split(strings.TrimSuffix(diff, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "--- f.txt", lines[0])
	assert.Equal(t, "+++ f.txt", lines[1])
	assert.Contains(t, lines, " a", "unchanged lines keep a space prefix")
	assert.Contains(t, lines, "-b")
	assert.Contains(t, lines, "+B")
	assert.Contains(t, lines, "+d")
}

// 🧪 TestUnifiedDiffIdentical tests diffing equal content
func TestUnifiedDiffIdentical(t *testing.T) {
	content := []string{"same", "lines"}

	diff := log.UnifiedDiff("f.txt", content, content)

	assert.NotContains(t, diff, "\n-")
	assert.NotContains(t, diff, "\n+same")
	assert.Contains(t, diff, " same\n")
}

// 🧪 TestUnifiedDiffFromEmpty tests diffing a freshly created file
func TestUnifiedDiffFromEmpty(t *testing.T) {
	diff := log.UnifiedDiff("new.txt", nil, []string{"hello"})

	assert.Contains(t, diff, "+hello")
	assert.NotContains(t, diff, "-hello")
}

// 🧪 TestColorizeDiff tests per-line color assignment
func TestColorizeDiff(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	diff := "--- f.txt\n+++ f.txt\n a\n-b\n+B\n"
	colored := log.ColorizeDiff(diff)

	lines := strings.Split(colored, "\n")
	assert.Contains(t, lines[0], "\x1b[36m", "header is cyan")
	assert.Contains(t, lines[3], "\x1b[31m", "removed line is red")
	assert.Contains(t, lines[4], "\x1b[32m", "added line is green")
	assert.NotContains(t, lines[2], "\x1b[", "context line stays unstyled")
}
