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

// Package policy holds the data-driven rule tables that control validation
// and matching behavior per file. Rules are resolved by a lookup against the
// target path (extension list or doublestar pattern), never by type
// hierarchies, so the rule set stays testable in isolation.
package policy

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// 🚦 Enforcement is the action taken when a rule is violated
type Enforcement string

const (
	EnforceError  Enforcement = "error"
	EnforceWarn   Enforcement = "warning"
	EnforceIgnore Enforcement = "ignore"
)

// 🔤 Whitespace selects how whitespace is treated during matching
type Whitespace string

const (
	WhitespaceStrict   Whitespace = "strict"   // no change
	WhitespaceCollapse Whitespace = "collapse" // runs of whitespace become one space
	WhitespaceRemove   Whitespace = "remove"   // all whitespace stripped
)

// 📐 Metric selects the similarity metric for approximate matching
type Metric string

const (
	MetricSequence    Metric = "sequence"    // sequence-alignment ratio
	MetricLevenshtein Metric = "levenshtein" // edit-distance ratio
)

// DefaultThreshold is the similarity score a window must reach to qualify
// as an approximate match when no rule overrides it.
const DefaultThreshold = 0.95

// 🔣 CharsetRule scopes a character-set enforcement level to files
type CharsetRule struct {
	Extensions  []string    // extensions including the dot, e.g. ".py"
	Patterns    []string    // doublestar patterns matched against the relative path
	Enforcement Enforcement // severity of disallowed-character findings
}

// 🔣 CharsetPolicy controls how lines containing characters outside the
// allowed set (ASCII) are reported, per file.
type CharsetPolicy struct {
	Default Enforcement
	Rules   []CharsetRule
}

// EnforcementFor resolves the enforcement level for one file path. The first
// matching rule wins; the default applies when none match.
func (p CharsetPolicy) EnforcementFor(path string) Enforcement {
	for _, rule := range p.Rules {
		if rule.matches(path) {
			return rule.Enforcement
		}
	}
	if p.Default == "" {
		return EnforceIgnore
	}
	return p.Default
}

func (r CharsetRule) matches(path string) bool {
	return matchesFile(path, r.Extensions, r.Patterns)
}

// 🔍 MatchRule overrides matching behavior for a subset of files. Nil fields
// inherit the policy defaults.
type MatchRule struct {
	Extensions  []string
	Patterns    []string
	Whitespace  *Whitespace
	CaseFold    *bool
	Approximate *bool
	Threshold   *float64
	Metric      *Metric
}

func (r MatchRule) matches(path string) bool {
	return matchesFile(path, r.Extensions, r.Patterns)
}

// 🔍 MatchPolicy controls line matching: normalization, whether approximate
// matching runs at all, and how candidate windows are scored.
type MatchPolicy struct {
	Whitespace  Whitespace
	CaseFold    bool // compare case-insensitively
	Approximate bool // enable the approximate fallback scan
	Threshold   float64
	Metric      Metric

	// MaxSearchLines bounds how many window start offsets from the top of
	// the file are scanned. Zero means the whole file. Candidates beyond
	// the bound are not considered, which can itself produce a no-match.
	MaxSearchLines int

	Rules []MatchRule
}

// 🎯 ResolvedMatch is the effective matching behavior for one file
type ResolvedMatch struct {
	Whitespace  Whitespace
	CaseFold    bool
	Approximate bool
	Threshold   float64
	Metric      Metric
}

// For resolves the effective matching behavior for one file path. Only the
// first matching rule applies: its set fields override the defaults, its
// unset fields inherit them, and later rules never contribute.
func (p MatchPolicy) For(path string) ResolvedMatch {
	resolved := ResolvedMatch{
		Whitespace:  p.Whitespace,
		CaseFold:    p.CaseFold,
		Approximate: p.Approximate,
		Threshold:   p.Threshold,
		Metric:      p.Metric,
	}
	if resolved.Whitespace == "" {
		resolved.Whitespace = WhitespaceCollapse
	}
	if resolved.Threshold == 0 {
		resolved.Threshold = DefaultThreshold
	}
	if resolved.Metric == "" {
		resolved.Metric = MetricSequence
	}
	for _, rule := range p.Rules {
		if !rule.matches(path) {
			continue
		}
		if rule.Whitespace != nil {
			resolved.Whitespace = *rule.Whitespace
		}
		if rule.CaseFold != nil {
			resolved.CaseFold = *rule.CaseFold
		}
		if rule.Approximate != nil {
			resolved.Approximate = *rule.Approximate
		}
		if rule.Threshold != nil {
			resolved.Threshold = *rule.Threshold
		}
		if rule.Metric != nil {
			resolved.Metric = *rule.Metric
		}
		break
	}
	return resolved
}

// 📚 Policy is the complete rule set consumed by validation and application.
// It is supplied by the caller; nothing in this module reads it from disk.
type Policy struct {
	Charset CharsetPolicy
	Match   MatchPolicy

	// AllowDelete permits delete_file actions. When false they are
	// reported as permission_denied.
	AllowDelete bool

	// PersistEachChange writes the target file back after every applied
	// record instead of once per file group.
	PersistEachChange bool
}

// Default returns the policy used when a caller supplies none: approximate
// matching on with the sequence metric at the default threshold, collapsed
// whitespace, non-ASCII findings ignored, deletions allowed.
func Default() *Policy {
	return &Policy{
		Charset: CharsetPolicy{Default: EnforceIgnore},
		Match: MatchPolicy{
			Whitespace:  WhitespaceCollapse,
			Approximate: true,
			Threshold:   DefaultThreshold,
			Metric:      MetricSequence,
		},
		AllowDelete: true,
	}
}

// matchesFile reports whether path is covered by the extension list or any
// doublestar pattern. Invalid patterns never match.
func matchesFile(path string, extensions, patterns []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, filepath.ToSlash(path))
		if err == nil && matched {
			return true
		}
	}
	return false
}
