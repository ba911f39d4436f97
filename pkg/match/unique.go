package match

import (
	"strings"

	"github.com/walteh/applydir/pkg/policy"
)

// MinimumUniqueWindow returns the smallest k such that every contiguous
// k-line window of fileLines is distinct under the default normalization.
// Callers use it to tell an upstream generator how much context would make
// an ambiguous block unique. An empty file returns 0; a single window (k
// equal to the file length) is trivially unique, so k never exceeds the
// file length.
func MinimumUniqueWindow(fileLines []string) int {
	pol := policy.Default()
	norm := NormalizeAll(fileLines, pol.Match.Whitespace, pol.Match.CaseFold)
	return minimumUniqueWindow(norm)
}

func minimumUniqueWindow(norm []string) int {
	n := len(norm)
	if n == 0 {
		return 0
	}
	for k := 1; k < n; k++ {
		if allWindowsDistinct(norm, k) {
			return k
		}
	}
	return n
}

// allWindowsDistinct reports whether no two k-line windows are identical
func allWindowsDistinct(norm []string, k int) bool {
	seen := make(map[string]struct{}, len(norm)-k+1)
	for i := 0; i+k <= len(norm); i++ {
		key := strings.Join(norm[i:i+k], "\n")
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}
