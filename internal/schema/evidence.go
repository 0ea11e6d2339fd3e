// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Match types emitted by the matchers. "composite" marks a consolidated hit
// with evidence from more than one matcher kind; "table" is reserved for a
// future matcher and participates in scoring only.
const (
	MatchTypeLex       = "lex"
	MatchTypeSyntax    = "syntax"
	MatchTypeNumeric   = "numeric"
	MatchTypeTable     = "table"
	MatchTypeComposite = "composite"
)

// Span is a half-open [start, end) byte range into clause text.
type Span struct {
	Start int
	End   int
}

// MarshalJSON emits the compact [start, end] pair form.
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Start, s.End})
}

// UnmarshalJSON accepts both the pair form and {"start": s, "end": e}.
func (s *Span) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err == nil {
		s.Start, s.End = pair[0], pair[1]
		return nil
	}
	var obj struct {
		Start int  `json:"start"`
		End   *int `json:"end"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("span must be a [start, end] pair or object: %w", err)
	}
	s.Start = obj.Start
	if obj.End != nil {
		s.End = *obj.End
	} else {
		s.End = obj.Start
	}
	return nil
}

// MergeSpans sorts spans by start and merges every span that begins at or
// before the current merged end. The result is sorted and pairwise
// non-overlapping.
func MergeSpans(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	ordered := make([]Span, len(spans))
	copy(ordered, spans)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	merged := make([]Span, 0, len(ordered))
	current := ordered[0]
	for _, span := range ordered[1:] {
		if span.Start <= current.End {
			if span.End > current.End {
				current.End = span.End
			}
		} else {
			merged = append(merged, current)
			current = span
		}
	}
	return append(merged, current)
}

// MatchEvidence is a single matcher's raw finding for one (rule, clause)
// pair. Evidence is transient: it is consumed by consolidation and never
// serialized.
type MatchEvidence struct {
	RuleID    string
	ClauseID  string
	MatchType string
	Strength  float64
	Spans     []Span
	Snippet   string
	Notes     []string
}

// ClampStrength bounds the evidence strength into [0, 1].
func (e *MatchEvidence) ClampStrength() {
	e.Strength = Clamp(e.Strength, 0, 1)
}

// Hit is the consolidated, deduplicated result of all evidence for one
// (rule, clause) pair. Exactly one Hit exists per pair that received
// evidence. Hits are immutable once created.
type Hit struct {
	RuleID    string          `json:"rule_id"`
	ClauseID  string          `json:"clause_id"`
	MatchType string          `json:"match_type"`
	Strength  float64         `json:"strength"`
	Spans     []Span          `json:"spans"`
	Snippet   string          `json:"evidence_snippet"`
	Notes     []string        `json:"notes"`
	Flags     map[string]bool `json:"flags,omitempty"`
}

// MarshalJSON rounds strength to four decimals, matching the wire contract
// consumed by downstream evaluation tooling.
func (h Hit) MarshalJSON() ([]byte, error) {
	type alias Hit
	rounded := alias(h)
	rounded.Strength = Round(h.Strength, 4)
	if rounded.Spans == nil {
		rounded.Spans = []Span{}
	}
	if rounded.Notes == nil {
		rounded.Notes = []string{}
	}
	return json.Marshal(rounded)
}

// HitsFromJSON decodes a hit list produced by a previous engine run. Both a
// bare list and a {"hits": [...]} wrapper are accepted.
func HitsFromJSON(data []byte) ([]Hit, error) {
	var wrapper struct {
		Hits []Hit `json:"hits"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Hits != nil {
		return wrapper.Hits, nil
	}
	var hits []Hit
	if err := json.Unmarshal(data, &hits); err != nil {
		return nil, fmt.Errorf("invalid hits payload: %w", err)
	}
	return hits, nil
}

// Clamp bounds value into [minimum, maximum].
func Clamp(value, minimum, maximum float64) float64 {
	return math.Max(minimum, math.Min(maximum, value))
}

// Round rounds value to the given number of decimal places.
func Round(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
