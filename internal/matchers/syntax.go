// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package matchers

import (
	"fmt"
	"regexp"
	"strings"

	"clause-scan/internal/schema"
)

// SyntaxMatcher scans raw clause text with the rule's regular expressions
// and flags negation cues found nearby. The matcher never suppresses a match
// on negation; cues are surfaced as notes for the risk scorer's penalty
// decision. The proximity window affects snippet sizing only.
type SyntaxMatcher struct {
	patternsByRule map[string][]*regexp.Regexp
	window         int
	negations      []string
	exceptions     []string
}

// NewSyntaxMatcher precompiles every rule's syntax patterns. A pattern that
// fails to compile is a catalog error and fails the batch before any
// matching begins.
func NewSyntaxMatcher(runtime *schema.RulesetRuntime) (*SyntaxMatcher, error) {
	m := &SyntaxMatcher{
		patternsByRule: map[string][]*regexp.Regexp{},
		window:         runtime.ProximityWindow,
		negations:      lowerAll(runtime.NegationTerms),
		exceptions:     lowerAll(runtime.ExceptionCues),
	}
	for i := range runtime.Rules {
		rule := &runtime.Rules[i]
		declared := append([]schema.RegexPattern{}, runtime.SyntaxPatterns[rule.RuleID]...)
		declared = append(declared, rule.Matchers.Regex...)

		var patterns []*regexp.Regexp
		for _, p := range declared {
			expr := p.Pattern
			if p.CaseInsensitive() {
				expr = `(?i)` + expr
			}
			compiled, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("rule %s: invalid syntax pattern %q: %w", rule.RuleID, p.Pattern, err)
			}
			patterns = append(patterns, compiled)
		}
		if len(patterns) > 0 {
			m.patternsByRule[rule.RuleID] = patterns
		}
	}
	return m, nil
}

// Match runs the rule's patterns over the clause text. Strength grows with
// the merged span count, bounded to [0.4, 0.8].
func (m *SyntaxMatcher) Match(clause *schema.Clause, rule *schema.CompiledRule) []schema.MatchEvidence {
	patterns := m.patternsByRule[rule.RuleID]
	if len(patterns) == 0 {
		return nil
	}
	text := clause.RawText()
	if text == "" {
		return nil
	}
	var notes []string
	lowered := strings.ToLower(text)
	for _, negation := range m.negations {
		if negation != "" && strings.Contains(lowered, negation) {
			notes = append(notes, "negation:"+negation)
		}
	}
	var spans []schema.Span
	for _, pattern := range patterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			spans = append(spans, schema.Span{Start: loc[0], End: loc[1]})
		}
	}
	if len(spans) == 0 {
		return nil
	}
	spans = schema.MergeSpans(spans)
	evidence := schema.MatchEvidence{
		RuleID:    rule.RuleID,
		ClauseID:  clause.ID,
		MatchType: schema.MatchTypeSyntax,
		Strength:  schema.Clamp(0.4+0.1*float64(len(spans)), 0.4, 0.8),
		Spans:     spans,
		Snippet:   gatherSnippet(text, spans, m.window),
		Notes:     notes,
	}
	evidence.ClampStrength()
	return []schema.MatchEvidence{evidence}
}

func lowerAll(values []string) []string {
	lowered := make([]string, 0, len(values))
	for _, value := range values {
		lowered = append(lowered, strings.ToLower(value))
	}
	return lowered
}
