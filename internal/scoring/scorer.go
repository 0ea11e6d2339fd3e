// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scoring

import (
	"fmt"
	"sort"
	"strings"

	"clause-scan/internal/schema"
)

// variantFactors boost evidence kinds by how discriminative they are.
// "table" is reserved for a future matcher kind.
var variantFactors = map[string]float64{
	schema.MatchTypeLex:     1.00,
	schema.MatchTypeSyntax:  1.05,
	schema.MatchTypeNumeric: 1.08,
	schema.MatchTypeTable:   1.10,
}

// ClauseComputation is one clause's pre-calibration scoring state: the
// clamped confidence, the per-hit breakdown and the aggregated metadata the
// calibrator and aggregator consume.
type ClauseComputation struct {
	ClauseID        string
	Confidence      float64
	PerHitScores    []schema.PerHitScore
	AdoptedRules    []string
	SuppressedRules []string
	Reasons         []string
	Metadata        schema.ClauseMetadata
}

// ScoreClauses converts hits into per-clause computations. Each hit's raw
// score is rule.weight x hit.strength x variant multiplier x scope
// multiplier; penalties subtract from it. A hit with a positive adjusted
// score is adopted, otherwise suppressed, but its value still contributes
// to the clause's cumulative sum. The result is sorted by clause id.
func ScoreClauses(hits []schema.Hit, rules map[string]*schema.CompiledRule, policy schema.Policy) []ClauseComputation {
	grouped := map[string][]schema.Hit{}
	var order []string
	for _, hit := range hits {
		if _, seen := grouped[hit.ClauseID]; !seen {
			order = append(order, hit.ClauseID)
		}
		grouped[hit.ClauseID] = append(grouped[hit.ClauseID], hit)
	}

	computations := make([]ClauseComputation, 0, len(order))
	for _, clauseID := range order {
		computations = append(computations, scoreClause(clauseID, grouped[clauseID], rules, policy))
	}
	sort.SliceStable(computations, func(i, j int) bool {
		return computations[i].ClauseID < computations[j].ClauseID
	})
	return computations
}

func scoreClause(clauseID string, hits []schema.Hit, rules map[string]*schema.CompiledRule, policy schema.Policy) ClauseComputation {
	perHitScores := make([]schema.PerHitScore, 0, len(hits))
	adopted := []string{}
	suppressed := []string{}
	reasons := []string{}
	flags := map[string]bool{}
	severities := []string{}
	cumulative := 0.0
	maxPriority := 0
	havePriority := false

	for _, hit := range hits {
		rule := ruleOrDefault(rules, hit.RuleID)
		variant := variantFactors[hit.MatchType]
		if variant == 0 {
			variant = 1.0
		}
		raw := rule.Weight * hit.Strength * variant * scopeMultiplier(rule)

		penalties := collectPenalties(hit, rule, policy.Penalties)
		totalPenalty := 0.0
		for _, magnitude := range penalties {
			totalPenalty += magnitude
		}
		adjusted := raw - totalPenalty
		cumulative += adjusted

		perHitScores = append(perHitScores, schema.PerHitScore{
			RuleID:           hit.RuleID,
			Raw:              schema.Round(raw, 6),
			PenaltiesApplied: penalties,
			MatchType:        hit.MatchType,
			Strength:         hit.Strength,
			Weight:           rule.Weight,
			Adjusted:         schema.Round(adjusted, 6),
		})

		if adjusted > 0 {
			adopted = append(adopted, hit.RuleID)
		} else {
			suppressed = append(suppressed, hit.RuleID)
		}
		reasons = append(reasons, fmt.Sprintf("rule=%s (%s) => %.3f", hit.RuleID, hit.MatchType, adjusted))

		for _, flag := range rule.Flags {
			flags[flag] = true
		}
		for _, note := range hit.Notes {
			noteKey := noteSuffix(note)
			if _, ok := policy.Penalties[noteKey]; ok {
				flags[noteKey] = true
			}
		}

		if !havePriority || rule.Priority > maxPriority {
			maxPriority = rule.Priority
			havePriority = true
		}
		severities = append(severities, rule.Severity)
	}

	specificityPool := adopted
	if len(specificityPool) == 0 {
		specificityPool = suppressed
	}

	return ClauseComputation{
		ClauseID:        clauseID,
		Confidence:      schema.Clamp(cumulative, 0, 1),
		PerHitScores:    perHitScores,
		AdoptedRules:    adopted,
		SuppressedRules: suppressed,
		Reasons:         reasons,
		Metadata: schema.ClauseMetadata{
			Flags:            flags,
			MaxPriority:      maxPriority,
			Severities:       severities,
			ScopeSpecificity: bestScopeSpecificity(rules, specificityPool),
		},
	}
}

// scopeMultiplier rewards more specific rules: +0.05 for a declared
// category, +0.05 for a declared subcategory.
func scopeMultiplier(rule *schema.CompiledRule) float64 {
	multiplier := 1.0
	if rule.Scope.Category != "" {
		multiplier += 0.05
	}
	if rule.Scope.Subcategory != "" {
		multiplier += 0.05
	}
	return multiplier
}

// collectPenalties applies a configured penalty when its name equals one of
// the hit's note tokens (the lowered note, or its suffix after the last
// colon), or when the hit carries a matching flag or its source rule
// declares one. Distinct penalties stack; the same penalty applies once.
func collectPenalties(hit schema.Hit, rule *schema.CompiledRule, penalties map[string]float64) map[string]float64 {
	noteTokens := map[string]bool{}
	for _, note := range hit.Notes {
		lowered := strings.ToLower(note)
		noteTokens[lowered] = true
		noteTokens[noteSuffix(lowered)] = true
	}

	applied := map[string]float64{}
	for _, name := range sortedPenaltyNames(penalties) {
		key := strings.ToLower(name)
		switch {
		case noteTokens[key]:
			applied[name] = penalties[name]
		case hit.Flags[key]:
			applied[name] = penalties[name]
		case rule.HasFlag(key):
			applied[name] = penalties[name]
		}
	}
	return applied
}

// noteSuffix returns the note's suffix after the last colon, or the whole
// note when it has none.
func noteSuffix(note string) string {
	if idx := strings.LastIndex(note, ":"); idx >= 0 {
		return note[idx+1:]
	}
	return note
}

func bestScopeSpecificity(rules map[string]*schema.CompiledRule, ruleIDs []string) int {
	best := 0
	for _, ruleID := range ruleIDs {
		rule, ok := rules[ruleID]
		if !ok {
			continue
		}
		if specificity := rule.Scope.Specificity(); specificity > best {
			best = specificity
		}
	}
	return best
}

func sortedPenaltyNames(penalties map[string]float64) []string {
	names := make([]string, 0, len(penalties))
	for name := range penalties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ruleOrDefault returns the referenced rule, or a neutral default when the
// hit names a rule absent from the catalog (weight 1, priority 0, WARN).
func ruleOrDefault(rules map[string]*schema.CompiledRule, ruleID string) *schema.CompiledRule {
	if rule, ok := rules[ruleID]; ok {
		return rule
	}
	return &schema.CompiledRule{RuleID: ruleID, Weight: 1.0, Severity: schema.SeverityWarn}
}
