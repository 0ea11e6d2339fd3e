// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package matchers

import (
	"clause-scan/internal/schema"
)

// NumericMatcher extracts amount, percentage and duration features from
// clause text and evaluates a rule's numeric comparison spec against them.
// A leaf passes if any extracted candidate satisfies it.
type NumericMatcher struct {
	runtime *schema.RulesetRuntime
}

// numericContext holds the features extracted from one clause.
type numericContext struct {
	amounts         []float64
	amountSpans     []schema.Span
	percentages     []float64
	percentageSpans []schema.Span
	durations       []float64
	notes           []string
}

// NewNumericMatcher returns a matcher bound to the catalog's feature
// requirements.
func NewNumericMatcher(runtime *schema.RulesetRuntime) *NumericMatcher {
	return &NumericMatcher{runtime: runtime}
}

// Match evaluates the rule's numeric spec. The rule's declared requirements
// plus catalog-level feature requirements must all be present in the
// clause's extracted feature set, otherwise no evidence is emitted.
func (m *NumericMatcher) Match(clause *schema.Clause, rule *schema.CompiledRule) []schema.MatchEvidence {
	requirements := map[string]bool{}
	for _, req := range rule.Requires {
		requirements[req] = true
	}
	for _, req := range m.runtime.RequiredFeaturesFor(rule.RuleID) {
		requirements[req] = true
	}

	ctx := buildNumericContext(clause.RawText())
	if !ctx.satisfies(requirements) {
		return nil
	}

	spec := rule.NumericSpecOrTable()
	if spec == nil {
		return nil
	}
	ok, evalNotes := evaluateSpec(spec, &ctx)
	if !ok {
		return nil
	}

	notes := []string{"numeric:match"}
	for _, note := range append(ctx.notes, evalNotes...) {
		if note != "" {
			notes = append(notes, "numeric:"+note)
		}
	}

	var spans []schema.Span
	spans = append(spans, ctx.amountSpans...)
	spans = append(spans, ctx.percentageSpans...)
	if len(spans) > 3 {
		spans = spans[:3]
	}

	evidence := schema.MatchEvidence{
		RuleID:    rule.RuleID,
		ClauseID:  clause.ID,
		MatchType: schema.MatchTypeNumeric,
		Strength:  schema.Clamp(0.55+0.05*float64(len(evalNotes)), 0.45, 0.9),
		Spans:     spans,
		Snippet:   gatherSnippet(clause.RawText(), spans, defaultSnippetWindow),
		Notes:     notes,
	}
	evidence.ClampStrength()
	return []schema.MatchEvidence{evidence}
}

func buildNumericContext(text string) numericContext {
	var ctx numericContext
	ctx.amounts, ctx.amountSpans = extractAmounts(text)
	ctx.percentages, ctx.percentageSpans = extractPercentages(text)
	ctx.durations = extractDurations(text)
	if len(ctx.durations) > 0 {
		ctx.notes = append(ctx.notes, "duration_token")
	}
	return ctx
}

// satisfies builds the availability set from non-empty feature families and
// checks every requirement against it.
func (c *numericContext) satisfies(requirements map[string]bool) bool {
	if len(requirements) == 0 {
		return true
	}
	available := map[string]bool{}
	if len(c.amounts) > 0 {
		available[schema.FeatureNumericAmount] = true
	}
	if len(c.percentages) > 0 {
		available[schema.FeaturePercentage] = true
	}
	if len(c.durations) > 0 {
		available[schema.FeatureDateRange] = true
	}
	for req := range requirements {
		if !available[req] {
			return false
		}
	}
	return true
}

// evaluateSpec evaluates a leaf or an AND-combined leaf list. Every leaf
// must pass; pass notes accumulate across leaves.
func evaluateSpec(spec *schema.NumericSpec, ctx *numericContext) (bool, []string) {
	if spec.Scalar != nil {
		return *spec.Scalar, nil
	}
	var notes []string
	for _, leaf := range spec.Leaves {
		ok, leafNotes := evaluateLeaf(leaf, ctx)
		if !ok {
			return false, nil
		}
		notes = append(notes, leafNotes...)
	}
	return true, notes
}

func evaluateLeaf(leaf schema.NumericLeaf, ctx *numericContext) (bool, []string) {
	switch leaf.LHS {
	case schema.FeatureNumericAmount:
		return evaluateCandidates(ctx.amounts, leaf, "amount")
	case schema.FeaturePercentage:
		return evaluateCandidates(ctx.percentages, leaf, "percentage")
	case schema.FeatureDateRange:
		return evaluateCandidates(ctx.durations, leaf, "duration")
	default:
		return false, nil
	}
}

// evaluateCandidates applies the leaf operator existentially: one satisfying
// candidate passes the leaf.
func evaluateCandidates(candidates []float64, leaf schema.NumericLeaf, label string) (bool, []string) {
	for _, candidate := range candidates {
		if compare(leaf.Op, candidate, leaf.RHS) {
			return true, []string{label + "_pass"}
		}
	}
	return false, nil
}

func compare(op string, lhs, rhs float64) bool {
	switch op {
	case "<":
		return lhs < rhs
	case "<=":
		return lhs <= rhs
	case ">":
		return lhs > rhs
	case ">=":
		return lhs >= rhs
	case "==":
		return lhs == rhs
	case "!=":
		return lhs != rhs
	default:
		return false
	}
}
