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

// Package config loads caller-side configuration files and converts them
// into the policy tables the core consumes. The core itself never reads
// configuration from disk; this package exists for the CLI and other
// embedders.
package config

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/applydir/pkg/policy"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🔣 CharsetRuleConfig scopes an enforcement level to files
type CharsetRuleConfig struct {
	Extensions  []string `json:"extensions,omitempty" yaml:"extensions,omitempty" hcl:"extensions,optional"`
	Patterns    []string `json:"patterns,omitempty" yaml:"patterns,omitempty" hcl:"patterns,optional"`
	Enforcement string   `json:"enforcement" yaml:"enforcement" hcl:"enforcement"`
}

// 🔣 CharsetConfig controls disallowed-character reporting
type CharsetConfig struct {
	Default string              `json:"default,omitempty" yaml:"default,omitempty" hcl:"default,optional"`
	Rules   []CharsetRuleConfig `json:"rules,omitempty" yaml:"rules,omitempty" hcl:"rule,block"`
}

// 🔍 MatchRuleConfig overrides matching behavior for a subset of files
type MatchRuleConfig struct {
	Extensions  []string `json:"extensions,omitempty" yaml:"extensions,omitempty" hcl:"extensions,optional"`
	Patterns    []string `json:"patterns,omitempty" yaml:"patterns,omitempty" hcl:"patterns,optional"`
	Whitespace  *string  `json:"whitespace,omitempty" yaml:"whitespace,omitempty" hcl:"whitespace,optional"`
	CaseFold    *bool    `json:"case_fold,omitempty" yaml:"case_fold,omitempty" hcl:"case_fold,optional"`
	Approximate *bool    `json:"approximate,omitempty" yaml:"approximate,omitempty" hcl:"approximate,optional"`
	Threshold   *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty" hcl:"threshold,optional"`
	Metric      *string  `json:"metric,omitempty" yaml:"metric,omitempty" hcl:"metric,optional"`
}

// 🔍 MatchingConfig controls line matching defaults
type MatchingConfig struct {
	Whitespace     string            `json:"whitespace,omitempty" yaml:"whitespace,omitempty" hcl:"whitespace,optional"`
	CaseFold       bool              `json:"case_fold,omitempty" yaml:"case_fold,omitempty" hcl:"case_fold,optional"`
	Approximate    *bool             `json:"approximate,omitempty" yaml:"approximate,omitempty" hcl:"approximate,optional"`
	Threshold      *float64          `json:"threshold,omitempty" yaml:"threshold,omitempty" hcl:"threshold,optional"`
	Metric         string            `json:"metric,omitempty" yaml:"metric,omitempty" hcl:"metric,optional"`
	MaxSearchLines int               `json:"max_search_lines,omitempty" yaml:"max_search_lines,omitempty" hcl:"max_search_lines,optional"`
	Rules          []MatchRuleConfig `json:"rules,omitempty" yaml:"rules,omitempty" hcl:"rule,block"`
}

// 📚 Config represents the complete configuration file surface
type Config struct {
	Charset           *CharsetConfig  `json:"charset,omitempty" yaml:"charset,omitempty" hcl:"charset,block"`
	Matching          *MatchingConfig `json:"matching,omitempty" yaml:"matching,omitempty" hcl:"matching,block"`
	AllowDelete       *bool           `json:"allow_delete,omitempty" yaml:"allow_delete,omitempty" hcl:"allow_delete,optional"`
	PersistEachChange bool            `json:"persist_each_change,omitempty" yaml:"persist_each_change,omitempty" hcl:"persist_each_change,optional"`
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.Charset != nil {
		if err := validEnforcement(cfg.Charset.Default); err != nil {
			return err
		}
		for _, rule := range cfg.Charset.Rules {
			if rule.Enforcement == "" {
				return errors.Errorf("charset rule: enforcement is required")
			}
			if err := validEnforcement(rule.Enforcement); err != nil {
				return err
			}
			if len(rule.Extensions) == 0 && len(rule.Patterns) == 0 {
				return errors.Errorf("charset rule: extensions or patterns is required")
			}
		}
	}
	if cfg.Matching != nil {
		if err := validWhitespace(cfg.Matching.Whitespace); err != nil {
			return err
		}
		if err := validMetric(cfg.Matching.Metric); err != nil {
			return err
		}
		if err := validThreshold(cfg.Matching.Threshold); err != nil {
			return err
		}
		if cfg.Matching.MaxSearchLines < 0 {
			return errors.Errorf("matching.max_search_lines must not be negative")
		}
		for _, rule := range cfg.Matching.Rules {
			if len(rule.Extensions) == 0 && len(rule.Patterns) == 0 {
				return errors.Errorf("matching rule: extensions or patterns is required")
			}
			if rule.Whitespace != nil {
				if err := validWhitespace(*rule.Whitespace); err != nil {
					return err
				}
			}
			if rule.Metric != nil {
				if err := validMetric(*rule.Metric); err != nil {
					return err
				}
			}
			if err := validThreshold(rule.Threshold); err != nil {
				return err
			}
		}
	}
	return nil
}

// Policy converts the loaded configuration into the rule tables the core
// consumes, overlaying the defaults.
func (cfg *Config) Policy() *policy.Policy {
	pol := policy.Default()

	if cfg.Charset != nil {
		if cfg.Charset.Default != "" {
			pol.Charset.Default = policy.Enforcement(cfg.Charset.Default)
		}
		for _, rule := range cfg.Charset.Rules {
			pol.Charset.Rules = append(pol.Charset.Rules, policy.CharsetRule{
				Extensions:  rule.Extensions,
				Patterns:    rule.Patterns,
				Enforcement: policy.Enforcement(rule.Enforcement),
			})
		}
	}

	if cfg.Matching != nil {
		m := cfg.Matching
		if m.Whitespace != "" {
			pol.Match.Whitespace = policy.Whitespace(m.Whitespace)
		}
		pol.Match.CaseFold = m.CaseFold
		if m.Approximate != nil {
			pol.Match.Approximate = *m.Approximate
		}
		if m.Threshold != nil {
			pol.Match.Threshold = *m.Threshold
		}
		if m.Metric != "" {
			pol.Match.Metric = policy.Metric(m.Metric)
		}
		pol.Match.MaxSearchLines = m.MaxSearchLines
		for _, rule := range m.Rules {
			converted := policy.MatchRule{
				Extensions:  rule.Extensions,
				Patterns:    rule.Patterns,
				CaseFold:    rule.CaseFold,
				Approximate: rule.Approximate,
				Threshold:   rule.Threshold,
			}
			if rule.Whitespace != nil {
				ws := policy.Whitespace(*rule.Whitespace)
				converted.Whitespace = &ws
			}
			if rule.Metric != nil {
				metric := policy.Metric(*rule.Metric)
				converted.Metric = &metric
			}
			pol.Match.Rules = append(pol.Match.Rules, converted)
		}
	}

	if cfg.AllowDelete != nil {
		pol.AllowDelete = *cfg.AllowDelete
	}
	pol.PersistEachChange = cfg.PersistEachChange

	return pol
}

func validEnforcement(v string) error {
	switch policy.Enforcement(v) {
	case "", policy.EnforceError, policy.EnforceWarn, policy.EnforceIgnore:
		return nil
	}
	return errors.Errorf("invalid enforcement %q (want error, warning, or ignore)", v)
}

func validWhitespace(v string) error {
	switch policy.Whitespace(v) {
	case "", policy.WhitespaceStrict, policy.WhitespaceCollapse, policy.WhitespaceRemove:
		return nil
	}
	return errors.Errorf("invalid whitespace handling %q (want strict, collapse, or remove)", v)
}

func validMetric(v string) error {
	switch policy.Metric(v) {
	case "", policy.MetricSequence, policy.MetricLevenshtein:
		return nil
	}
	return errors.Errorf("invalid similarity metric %q (want sequence or levenshtein)", v)
}

func validThreshold(v *float64) error {
	if v != nil && (*v <= 0 || *v > 1) {
		return errors.Errorf("similarity threshold must be in (0, 1], got %v", *v)
	}
	return nil
}
