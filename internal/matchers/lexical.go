// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package matchers

import (
	"regexp"
	"strings"

	"clause-scan/internal/schema"
)

// LexicalMatcher runs lightweight literal-phrase scans against normalized
// clause text. Phrases come from the rule's own lexicon and from the
// catalog-level per-rule lexicon map, deduplicated case-insensitively and
// compiled once per batch as escaped, case-insensitive patterns.
type LexicalMatcher struct {
	patternsByRule map[string][]*regexp.Regexp
}

// NewLexicalMatcher precompiles every rule's lexicon phrases.
func NewLexicalMatcher(runtime *schema.RulesetRuntime) *LexicalMatcher {
	m := &LexicalMatcher{patternsByRule: map[string][]*regexp.Regexp{}}
	for i := range runtime.Rules {
		rule := &runtime.Rules[i]
		var phrases []string
		phrases = append(phrases, runtime.Lexicons[rule.RuleID]...)
		phrases = append(phrases, rule.Matchers.Lexicon...)

		seen := map[string]bool{}
		var patterns []*regexp.Regexp
		for _, phrase := range phrases {
			key := strings.ToLower(phrase)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			patterns = append(patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(phrase)))
		}
		if len(patterns) > 0 {
			m.patternsByRule[rule.RuleID] = patterns
		}
	}
	return m
}

// Match scans the clause for the rule's phrases. Strength grows with the
// occurrence count, bounded to [0.2, 0.6].
func (m *LexicalMatcher) Match(clause *schema.Clause, rule *schema.CompiledRule) []schema.MatchEvidence {
	patterns := m.patternsByRule[rule.RuleID]
	if len(patterns) == 0 {
		return nil
	}
	haystack := clause.Haystack()
	if haystack == "" {
		return nil
	}
	var spans []schema.Span
	var notes []string
	for _, pattern := range patterns {
		locs := pattern.FindAllStringIndex(haystack, -1)
		phrase := strings.TrimPrefix(pattern.String(), `(?i)`)
		for _, loc := range locs {
			spans = append(spans, schema.Span{Start: loc[0], End: loc[1]})
			notes = append(notes, "lex:"+phrase)
		}
	}
	if len(spans) == 0 {
		return nil
	}
	snippetSource := clause.Text
	if snippetSource == "" {
		snippetSource = haystack
	}
	evidence := schema.MatchEvidence{
		RuleID:    rule.RuleID,
		ClauseID:  clause.ID,
		MatchType: schema.MatchTypeLex,
		Strength:  schema.Clamp(0.2+0.1*float64(len(spans)), 0.2, 0.6),
		Spans:     spans,
		Snippet:   gatherSnippet(snippetSource, spans, defaultSnippetWindow),
		Notes:     notes,
	}
	evidence.ClampStrength()
	return []schema.MatchEvidence{evidence}
}
