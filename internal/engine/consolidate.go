// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"

	"clause-scan/internal/schema"
)

// consolidate merges all evidence for one (rule, clause) pair into a single
// Hit: spans unioned and merged, strengths summed under the rule weight and
// clamped, the strongest evidence's snippet kept, and notes deduplicated in
// order with synthesized severity and priority tags appended.
func consolidate(clauseID string, rule *schema.CompiledRule, evidences []schema.MatchEvidence) (schema.Hit, bool) {
	if len(evidences) == 0 {
		return schema.Hit{}, false
	}

	totalStrength := 0.0
	var allSpans []schema.Span
	var notes []string
	bestSnippet := ""
	bestStrength := -1.0
	matchTypes := map[string]bool{}
	firstType := ""

	for _, evidence := range evidences {
		totalStrength += evidence.Strength * rule.Weight
		allSpans = append(allSpans, evidence.Spans...)
		notes = append(notes, evidence.Notes...)
		if !matchTypes[evidence.MatchType] {
			matchTypes[evidence.MatchType] = true
			if firstType == "" {
				firstType = evidence.MatchType
			}
		}
		if evidence.Strength > bestStrength {
			bestStrength = evidence.Strength
			bestSnippet = evidence.Snippet
		}
	}

	matchType := firstType
	if len(matchTypes) > 1 {
		matchType = schema.MatchTypeComposite
	}

	notes = append(notes,
		fmt.Sprintf("severity:%s", rule.Severity),
		fmt.Sprintf("priority:%d", rule.Priority),
	)
	seen := map[string]bool{}
	unique := make([]string, 0, len(notes))
	for _, note := range notes {
		if note == "" || seen[note] {
			continue
		}
		seen[note] = true
		unique = append(unique, note)
	}

	return schema.Hit{
		RuleID:    rule.RuleID,
		ClauseID:  clauseID,
		MatchType: matchType,
		Strength:  schema.Clamp(totalStrength, 0, 1),
		Spans:     schema.MergeSpans(allSpans),
		Snippet:   bestSnippet,
		Notes:     unique,
	}, true
}
