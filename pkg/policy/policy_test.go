package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walteh/applydir/pkg/policy"
)

// 🧪 TestCharsetEnforcementFor tests per-extension and per-pattern resolution
func TestCharsetEnforcementFor(t *testing.T) {
	pol := policy.CharsetPolicy{
		Default: policy.EnforceError,
		Rules: []policy.CharsetRule{
			{Extensions: []string{".md"}, Enforcement: policy.EnforceIgnore},
			{Patterns: []string{"docs/**"}, Enforcement: policy.EnforceWarn},
		},
	}

	assert.Equal(t, policy.EnforceError, pol.EnforcementFor("src/main.py"), "default applies when no rule matches")
	assert.Equal(t, policy.EnforceIgnore, pol.EnforcementFor("README.md"), "extension rule wins")
	assert.Equal(t, policy.EnforceWarn, pol.EnforcementFor("docs/guide.txt"), "pattern rule wins")
	assert.Equal(t, policy.EnforceIgnore, pol.EnforcementFor("docs/notes.md"), "first matching rule wins")
}

// 🧪 TestCharsetDefaultIsIgnore tests the zero-value default
func TestCharsetDefaultIsIgnore(t *testing.T) {
	var pol policy.CharsetPolicy
	assert.Equal(t, policy.EnforceIgnore, pol.EnforcementFor("main.go"), "zero value suppresses findings")
}

// 🧪 TestMatchPolicyFor tests per-field rule overrides
func TestMatchPolicyFor(t *testing.T) {
	strict := policy.WhitespaceStrict
	lev := policy.MetricLevenshtein
	threshold := 0.8
	off := false

	pol := policy.MatchPolicy{
		Whitespace:  policy.WhitespaceCollapse,
		Approximate: true,
		Threshold:   0.95,
		Metric:      policy.MetricSequence,
		Rules: []policy.MatchRule{
			{Extensions: []string{".py"}, Whitespace: &strict, Threshold: &threshold},
			{Extensions: []string{".md"}, Approximate: &off, Metric: &lev},
		},
	}

	base := pol.For("main.go")
	assert.Equal(t, policy.WhitespaceCollapse, base.Whitespace)
	assert.True(t, base.Approximate)
	assert.Equal(t, 0.95, base.Threshold)

	py := pol.For("src/app.py")
	assert.Equal(t, policy.WhitespaceStrict, py.Whitespace, "rule overrides whitespace")
	assert.Equal(t, 0.8, py.Threshold, "rule overrides threshold")
	assert.True(t, py.Approximate, "unset rule field inherits the default")
	assert.Equal(t, policy.MetricSequence, py.Metric, "unset rule field inherits the default")

	md := pol.For("README.md")
	assert.False(t, md.Approximate, "rule disables approximate matching")
	assert.Equal(t, policy.MetricLevenshtein, md.Metric)
}

// 🧪 TestMatchPolicyForFirstRuleOnly tests that only the first matching rule
// applies, even when a later rule would set fields the first leaves unset
func TestMatchPolicyForFirstRuleOnly(t *testing.T) {
	strict := policy.WhitespaceStrict
	lev := policy.MetricLevenshtein

	pol := policy.MatchPolicy{
		Whitespace: policy.WhitespaceCollapse,
		Metric:     policy.MetricSequence,
		Rules: []policy.MatchRule{
			{Extensions: []string{".py"}, Whitespace: &strict},
			{Patterns: []string{"**/*.py"}, Metric: &lev},
		},
	}

	resolved := pol.For("src/app.py")
	assert.Equal(t, policy.WhitespaceStrict, resolved.Whitespace)
	assert.Equal(t, policy.MetricSequence, resolved.Metric, "second matching rule never contributes")
}

// 🧪 TestMatchPolicyForZeroValue tests defaults on an empty policy
func TestMatchPolicyForZeroValue(t *testing.T) {
	var pol policy.MatchPolicy
	resolved := pol.For("anything.txt")

	assert.Equal(t, policy.WhitespaceCollapse, resolved.Whitespace)
	assert.Equal(t, policy.DefaultThreshold, resolved.Threshold)
	assert.Equal(t, policy.MetricSequence, resolved.Metric)
	assert.False(t, resolved.Approximate, "approximate matching is opt-in")
}

// 🧪 TestDefaultPolicy tests the caller-facing defaults
func TestDefaultPolicy(t *testing.T) {
	pol := policy.Default()

	assert.True(t, pol.AllowDelete)
	assert.True(t, pol.Match.Approximate)
	assert.False(t, pol.PersistEachChange)
	assert.Equal(t, policy.DefaultThreshold, pol.Match.Threshold)
}
