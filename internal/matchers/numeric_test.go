// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package matchers

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"clause-scan/internal/schema"
)

func TestNumericMatch_Amount(t *testing.T) {
	runtime := mustRuleset(t, `{
		"rules": {"r1": {"matchers": {"numeric": {"lhs": "numeric_amount", "op": ">=", "rhs": 1000}}}}
	}`)
	matcher := NewNumericMatcher(runtime)

	clause := schema.Clause{ID: "c1", Text: "a deposit of 1,500 is required"}
	evidences := matcher.Match(&clause, &runtime.Rules[0])
	if len(evidences) != 1 {
		t.Fatalf("expected one evidence, got %d", len(evidences))
	}
	ev := evidences[0]
	if ev.MatchType != schema.MatchTypeNumeric {
		t.Errorf("expected numeric match type, got %q", ev.MatchType)
	}
	// 0.55 + 0.05 * 1 passed leaf
	if math.Abs(ev.Strength-0.6) > 1e-9 {
		t.Errorf("expected strength 0.6, got %v", ev.Strength)
	}
	if ev.Notes[0] != "numeric:match" {
		t.Errorf("expected numeric:match first, got %v", ev.Notes)
	}
	wantNote := "numeric:amount_pass"
	found := false
	for _, note := range ev.Notes {
		if note == wantNote {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %q note, got %v", wantNote, ev.Notes)
	}
}

func TestNumericMatch_KoreanCurrencyMultiplier(t *testing.T) {
	runtime := mustRuleset(t, `{
		"rules": {"r1": {"matchers": {"numeric": {"lhs": "numeric_amount", "op": ">=", "rhs": 50000000}}}}
	}`)
	matcher := NewNumericMatcher(runtime)

	// 5000만원 = 5000 x 10,000 = 50,000,000
	clause := schema.Clause{ID: "c1", Text: "계약금은 5000만원으로 한다"}
	evidences := matcher.Match(&clause, &runtime.Rules[0])
	if len(evidences) != 1 {
		t.Fatalf("expected multiplier-scaled amount to pass, got %d evidences", len(evidences))
	}

	// without the suffix the raw value fails the comparison
	plain := schema.Clause{ID: "c2", Text: "계약금은 5000으로 한다"}
	if evidences := matcher.Match(&plain, &runtime.Rules[0]); evidences != nil {
		t.Error("expected unscaled amount to fail")
	}
}

func TestNumericMatch_PercentageAndConjunction(t *testing.T) {
	runtime := mustRuleset(t, `{
		"rules": {"r1": {"matchers": {"numeric": [
			{"lhs": "percentage", "op": ">=", "rhs": 0.1},
			{"lhs": "numeric_amount", "op": ">", "rhs": 100}
		]}}}
	}`)
	matcher := NewNumericMatcher(runtime)

	clause := schema.Clause{ID: "c1", Text: "a 15% surcharge on amounts over 500"}
	evidences := matcher.Match(&clause, &runtime.Rules[0])
	if len(evidences) != 1 {
		t.Fatalf("expected conjunction to pass, got %d evidences", len(evidences))
	}
	// 0.55 + 0.05 * 2 passed leaves
	if math.Abs(evidences[0].Strength-0.65) > 1e-9 {
		t.Errorf("expected strength 0.65, got %v", evidences[0].Strength)
	}

	// one failing leaf fails the whole conjunction
	weak := schema.Clause{ID: "c2", Text: "a 5% surcharge on amounts over 500"}
	if evidences := matcher.Match(&weak, &runtime.Rules[0]); evidences != nil {
		t.Error("expected failing leaf to fail the conjunction")
	}
}

func TestNumericMatch_RequirementGating(t *testing.T) {
	runtime := mustRuleset(t, `{
		"rules": {"r1": {
			"requires": ["percentage"],
			"matchers": {"numeric": {"lhs": "numeric_amount", "op": ">", "rhs": 0}}
		}}
	}`)
	matcher := NewNumericMatcher(runtime)

	// amount present but the required percentage feature is absent
	clause := schema.Clause{ID: "c1", Text: "pay 500 upon signing"}
	if evidences := matcher.Match(&clause, &runtime.Rules[0]); evidences != nil {
		t.Error("expected missing required feature to gate the match")
	}

	withPercent := schema.Clause{ID: "c2", Text: "pay 500 plus 3% interest"}
	if evidences := matcher.Match(&withPercent, &runtime.Rules[0]); len(evidences) != 1 {
		t.Error("expected match once the required feature is present")
	}
}

func TestNumericMatch_CatalogFeatureRequirements(t *testing.T) {
	runtime := mustRuleset(t, `{
		"rules": {"r1": {"matchers": {"numeric": {"lhs": "numeric_amount", "op": ">", "rhs": 0}}}},
		"feature_requirements": {"r1": ["date_range"]}
	}`)
	matcher := NewNumericMatcher(runtime)

	noDuration := schema.Clause{ID: "c1", Text: "pay 500 upon signing"}
	if evidences := matcher.Match(&noDuration, &runtime.Rules[0]); evidences != nil {
		t.Error("expected catalog-level requirement to gate the match")
	}

	withDuration := schema.Clause{ID: "c2", Text: "pay 500 within 3 months"}
	evidences := matcher.Match(&withDuration, &runtime.Rules[0])
	if len(evidences) != 1 {
		t.Fatal("expected match with the duration token present")
	}
	found := false
	for _, note := range evidences[0].Notes {
		if note == "numeric:duration_token" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duration_token note, got %v", evidences[0].Notes)
	}
}

func TestNumericMatch_DurationLeaf(t *testing.T) {
	runtime := mustRuleset(t, `{
		"rules": {"r1": {"matchers": {"numeric": {"lhs": "date_range", "op": ">=", "rhs": 6}}}}
	}`)
	matcher := NewNumericMatcher(runtime)

	clause := schema.Clause{ID: "c1", Text: "유지보수 기간은 12개월로 한다"}
	if evidences := matcher.Match(&clause, &runtime.Rules[0]); len(evidences) != 1 {
		t.Fatal("expected Korean month duration to pass")
	}

	english := schema.Clause{ID: "c2", Text: "a warranty period of 9 months"}
	if evidences := matcher.Match(&english, &runtime.Rules[0]); len(evidences) != 1 {
		t.Fatal("expected English month duration to pass")
	}

	short := schema.Clause{ID: "c3", Text: "a warranty period of 3 months"}
	if evidences := matcher.Match(&short, &runtime.Rules[0]); evidences != nil {
		t.Error("expected short duration to fail the leaf")
	}
}

func TestNumericMatch_SpanCap(t *testing.T) {
	runtime := mustRuleset(t, `{
		"rules": {"r1": {"matchers": {"numeric": {"lhs": "numeric_amount", "op": ">", "rhs": 0}}}}
	}`)
	matcher := NewNumericMatcher(runtime)

	clause := schema.Clause{ID: "c1", Text: "pay 100 then 200 then 300 then 400 then 500"}
	evidences := matcher.Match(&clause, &runtime.Rules[0])
	if len(evidences) != 1 {
		t.Fatalf("expected one evidence, got %d", len(evidences))
	}
	if len(evidences[0].Spans) != 3 {
		t.Errorf("expected spans capped at 3, got %d", len(evidences[0].Spans))
	}
}

func TestNumericMatch_NoSpec(t *testing.T) {
	runtime := mustRuleset(t, `{"rules": {"r1": {}}}`)
	matcher := NewNumericMatcher(runtime)

	clause := schema.Clause{ID: "c1", Text: "pay 500"}
	if evidences := matcher.Match(&clause, &runtime.Rules[0]); evidences != nil {
		t.Error("expected no evidence without a numeric spec")
	}
}

func TestExtractAmounts(t *testing.T) {
	values, spans := extractAmounts("1,500 and 2.5")
	if len(values) != 2 || len(spans) != 2 {
		t.Fatalf("expected 2 amounts, got %v", values)
	}
	if values[0] != 1500 || values[1] != 2.5 {
		t.Errorf("unexpected values: %v", values)
	}
}

func TestExtractPercentages(t *testing.T) {
	values, spans := extractPercentages("10% up front, 2.5 % later")
	if len(values) != 2 || len(spans) != 2 {
		t.Fatalf("expected 2 percentages, got %v", values)
	}
	if math.Abs(values[0]-0.10) > 1e-9 || math.Abs(values[1]-0.025) > 1e-9 {
		t.Errorf("expected fractions, got %v", values)
	}
}

func TestGatherSnippet_NoSpans(t *testing.T) {
	text := "short clause"
	if got := gatherSnippet(text, nil, 80); got != "short clause" {
		t.Errorf("expected whole text, got %q", got)
	}
}

func TestGatherSnippet_RuneBoundaries(t *testing.T) {
	// Hangul is three bytes per rune; every window edge lands mid-rune
	// unless aligned.
	text := strings.Repeat("위약금 ", 20)
	for window := 1; window <= 12; window++ {
		for offset := 0; offset < 12; offset++ {
			span := []schema.Span{{Start: offset, End: offset + 3}}
			got := gatherSnippet(text, span, window)
			if !utf8.ValidString(got) {
				t.Fatalf("window %d offset %d: snippet is not valid UTF-8: %q", window, offset, got)
			}
		}
		if got := gatherSnippet(text, nil, window); !utf8.ValidString(got) {
			t.Fatalf("window %d: head snippet is not valid UTF-8: %q", window, got)
		}
	}
}
