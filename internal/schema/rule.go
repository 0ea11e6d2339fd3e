// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity levels a rule may carry. Upstream rule compilers emit a few
// synonyms, normalized at load time by NormalizeSeverity.
const (
	SeverityOK       = "OK"
	SeverityLow      = "LOW"
	SeverityWarn     = "WARN"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

var severitySynonyms = map[string]string{
	"OK":       SeverityOK,
	"LOW":      SeverityLow,
	"INFO":     SeverityLow,
	"WARN":     SeverityWarn,
	"WARNING":  SeverityWarn,
	"MEDIUM":   SeverityWarn,
	"HIGH":     SeverityHigh,
	"ALERT":    SeverityHigh,
	"CRITICAL": SeverityCritical,
}

// NormalizeSeverity maps a raw severity string onto the canonical set.
// Unknown severities are a load-time error: the scoring and reporting layers
// key on the canonical values.
func NormalizeSeverity(raw string) (string, error) {
	if raw == "" {
		return SeverityWarn, nil
	}
	severity, ok := severitySynonyms[strings.ToUpper(raw)]
	if !ok {
		return "", fmt.Errorf("unsupported severity %q", raw)
	}
	return severity, nil
}

// Scope restricts which clauses a rule applies to. Absence of a value on the
// clause side never disqualifies a match; only an explicit mismatch does.
type Scope struct {
	Category    string   `json:"category,omitempty"`
	Subcategory string   `json:"subcategory,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Specificity counts the declared category and subcategory (0, 1 or 2).
func (s Scope) Specificity() int {
	specificity := 0
	if s.Category != "" {
		specificity++
	}
	if s.Subcategory != "" {
		specificity++
	}
	return specificity
}

// Activation controls whether a rule participates in matching. Start and end
// are carried through for catalog tooling but not evaluated here.
type Activation struct {
	Status string `json:"status,omitempty"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
}

// RegexPattern is a single syntax-matcher pattern with optional flags.
// Flags follow the upstream convention: the pattern is case-insensitive
// unless the flags string omits "i".
type RegexPattern struct {
	Pattern string `json:"pattern"`
	Flags   string `json:"flags,omitempty"`
}

// CaseInsensitive reports whether the pattern should match case-insensitively.
func (p RegexPattern) CaseInsensitive() bool {
	if p.Flags == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Flags), "i")
}

// Matchers holds a rule's declared pattern definitions in canonical map form.
type Matchers struct {
	Lexicon   []string       `json:"lexicon,omitempty"`
	Regex     []RegexPattern `json:"regex,omitempty"`
	Negations []string       `json:"negations,omitempty"`
	Proximity *Proximity     `json:"proximity,omitempty"`
	Numeric   *NumericSpec   `json:"numeric,omitempty"`
	Table     *NumericSpec   `json:"table,omitempty"`
}

// Proximity configures the snippet window. The window is parsed and applied
// to snippet sizing only; it does not gate match admission.
type Proximity struct {
	Window int `json:"window"`
}

// CompiledRule is a single detection definition from the compiled catalog:
// pattern matchers, scope, weight, severity, priority and activation.
type CompiledRule struct {
	RuleID     string     `json:"rule_id"`
	Version    string     `json:"version,omitempty"`
	Scope      Scope      `json:"scope"`
	Matchers   Matchers   `json:"matchers"`
	Severity   string     `json:"severity"`
	Weight     float64    `json:"weight"`
	Priority   int        `json:"priority"`
	Requires   []string   `json:"requires,omitempty"`
	Flags      []string   `json:"flags,omitempty"`
	Activation Activation `json:"activation"`
}

// IsActive reports whether the rule participates in matching.
func (r *CompiledRule) IsActive() bool {
	status := strings.ToLower(r.Activation.Status)
	return status != "disabled" && status != "deprecated"
}

// AppliesTo reports whether the rule's scope admits the clause. The check is
// asymmetric: a scope constraint only disqualifies when the clause declares a
// conflicting value.
func (r *CompiledRule) AppliesTo(clause *Clause) bool {
	if r.Scope.Category != "" && clause.Category != "" && r.Scope.Category != clause.Category {
		return false
	}
	if r.Scope.Subcategory != "" && clause.Subcategory != "" && r.Scope.Subcategory != clause.Subcategory {
		return false
	}
	if len(r.Scope.Tags) > 0 {
		if !intersects(r.Scope.Tags, clause.Tags) {
			return false
		}
	}
	return true
}

// HasFlag reports whether the rule carries the named flag, case-insensitively.
func (r *CompiledRule) HasFlag(name string) bool {
	for _, flag := range r.Flags {
		if strings.EqualFold(flag, name) {
			return true
		}
	}
	return false
}

// NumericSpecOrTable returns whichever numeric comparison spec the rule
// declares, preferring the numeric form.
func (r *CompiledRule) NumericSpecOrTable() *NumericSpec {
	if r.Matchers.Numeric != nil {
		return r.Matchers.Numeric
	}
	return r.Matchers.Table
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// rulePayload is the wire form of a rule before normalization. Matchers may
// arrive as the canonical map or as a legacy list of typed matcher entries,
// and flags may arrive as a list or as a name->bool map.
type rulePayload struct {
	RuleID     string          `json:"rule_id"`
	ID         string          `json:"id"`
	Version    string          `json:"version"`
	Scope      Scope           `json:"scope"`
	Matchers   json.RawMessage `json:"matchers"`
	Severity   string          `json:"severity"`
	Weight     *float64        `json:"weight"`
	Priority   int             `json:"priority"`
	Requires   []string        `json:"requires"`
	Flags      json.RawMessage `json:"flags"`
	Activation Activation      `json:"activation"`
}

func (p *rulePayload) toRule() (CompiledRule, error) {
	id := p.RuleID
	if id == "" {
		id = p.ID
	}
	severity, err := NormalizeSeverity(p.Severity)
	if err != nil {
		return CompiledRule{}, fmt.Errorf("rule %s: %w", id, err)
	}
	weight := 1.0
	if p.Weight != nil {
		weight = *p.Weight
	}
	matchers, err := decodeMatchers(p.Matchers)
	if err != nil {
		return CompiledRule{}, fmt.Errorf("rule %s: %w", id, err)
	}
	flags, err := decodeFlags(p.Flags)
	if err != nil {
		return CompiledRule{}, fmt.Errorf("rule %s: %w", id, err)
	}
	return CompiledRule{
		RuleID:     id,
		Version:    p.Version,
		Scope:      p.Scope,
		Matchers:   matchers,
		Severity:   severity,
		Weight:     weight,
		Priority:   p.Priority,
		Requires:   p.Requires,
		Flags:      flags,
		Activation: p.Activation,
	}, nil
}

// decodeFlags accepts either a list of flag names or a name->enabled map.
// The map form only surfaces enabled entries.
func decodeFlags(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var mapped map[string]bool
	if err := json.Unmarshal(raw, &mapped); err == nil {
		var flags []string
		if mapped["critical"] {
			flags = append(flags, "critical")
		}
		return flags, nil
	}
	return nil, fmt.Errorf("flags must be a list or an object")
}
