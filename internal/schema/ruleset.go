// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// RulesetRuntime is the immutable, indexed view of a compiled rule catalog
// plus its shared matching artifacts: per-rule lexicons and syntax patterns,
// the proximity window, and the negation/exception cue lists.
type RulesetRuntime struct {
	Rules               []CompiledRule
	Metadata            map[string]any
	FeatureRequirements map[string][]string
	Lexicons            map[string][]string
	SyntaxPatterns      map[string][]RegexPattern
	ProximityWindow     int
	NegationTerms       []string
	ExceptionCues       []string

	byID map[string]*CompiledRule
}

const defaultProximityWindow = 40

// rulesetPayload is the wire form before normalization.
type rulesetPayload struct {
	Rules               json.RawMessage            `json:"rules"`
	Metadata            map[string]any             `json:"metadata"`
	FeatureRequirements json.RawMessage            `json:"feature_requirements"`
	Lexicons            map[string]json.RawMessage `json:"lexicons"`
	SyntaxPatterns      map[string]json.RawMessage `json:"syntax_patterns"`
	Proximity           map[string]json.RawMessage `json:"proximity"`
	NegationTerms       []string                   `json:"negation_terms"`
	ExceptionCues       []string                   `json:"exception_cues"`
}

// RulesetFromJSON decodes and normalizes a compiled ruleset. Three wire
// shapes are accepted: the canonical {"rules": {id: rule}} map form, a
// {"rules": [rule]} list form where each rule carries an id/rule_id field,
// and a bare top-level list of rules.
func RulesetFromJSON(data []byte) (*RulesetRuntime, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("empty ruleset payload")
	}
	if trimmed[0] == '[' {
		data = []byte(`{"rules":` + trimmed + `}`)
	}

	var payload rulesetPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid ruleset payload: %w", err)
	}

	rules, err := decodeRules(payload.Rules)
	if err != nil {
		return nil, err
	}

	runtime := &RulesetRuntime{
		Rules:           rules,
		Metadata:        payload.Metadata,
		Lexicons:        map[string][]string{},
		SyntaxPatterns:  map[string][]RegexPattern{},
		ProximityWindow: defaultProximityWindow,
		NegationTerms:   payload.NegationTerms,
		ExceptionCues:   payload.ExceptionCues,
		byID:            map[string]*CompiledRule{},
	}
	for i := range runtime.Rules {
		runtime.byID[runtime.Rules[i].RuleID] = &runtime.Rules[i]
	}

	runtime.FeatureRequirements, err = decodeFeatureRequirements(payload.FeatureRequirements, rules)
	if err != nil {
		return nil, err
	}

	for ruleID, raw := range payload.Lexicons {
		runtime.Lexicons[ruleID] = appendPhrases(nil, raw)
	}
	for ruleID, raw := range payload.SyntaxPatterns {
		patterns, err := flattenPatterns(raw)
		if err != nil {
			return nil, fmt.Errorf("syntax_patterns[%s]: %w", ruleID, err)
		}
		runtime.SyntaxPatterns[ruleID] = patterns
	}
	if raw, ok := payload.Proximity["window"]; ok {
		var window int
		if err := json.Unmarshal(raw, &window); err == nil && window > 0 {
			runtime.ProximityWindow = window
		}
	}
	return runtime, nil
}

// decodeRules accepts the map and list forms. The map form keys rules by id;
// the list form requires a rule_id or id per entry. Rule order is stable:
// map-form rules are ordered by id so a given catalog always produces the
// same matching order.
func decodeRules(raw json.RawMessage) ([]CompiledRule, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var payloads []rulePayload
	if trimmed[0] == '[' {
		var items []rulePayload
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("invalid rules list: %w", err)
		}
		for i := range items {
			if items[i].RuleID == "" && items[i].ID == "" {
				return nil, fmt.Errorf("rule at index %d has no rule_id", i)
			}
		}
		payloads = items
	} else {
		var keyed map[string]rulePayload
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return nil, fmt.Errorf("invalid rules map: %w", err)
		}
		ids := make([]string, 0, len(keyed))
		for id := range keyed {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			item := keyed[id]
			if item.RuleID == "" {
				item.RuleID = id
			}
			payloads = append(payloads, item)
		}
	}

	rules := make([]CompiledRule, 0, len(payloads))
	for i := range payloads {
		rule, err := payloads[i].toRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// decodeFeatureRequirements accepts a rule_id -> [feature] map, or a shared
// list applied to every rule.
func decodeFeatureRequirements(raw json.RawMessage, rules []CompiledRule) (map[string][]string, error) {
	requirements := map[string][]string{}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return requirements, nil
	}
	if trimmed[0] == '[' {
		var shared []string
		if err := json.Unmarshal(raw, &shared); err != nil {
			return nil, fmt.Errorf("invalid feature_requirements list: %w", err)
		}
		if len(shared) > 0 {
			for _, rule := range rules {
				requirements[rule.RuleID] = shared
			}
		}
		return requirements, nil
	}
	var keyed map[string][]string
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, fmt.Errorf("invalid feature_requirements map: %w", err)
	}
	for ruleID, features := range keyed {
		requirements[ruleID] = features
	}
	return requirements, nil
}

// RuleByID returns the rule with the given id, or nil.
func (r *RulesetRuntime) RuleByID(id string) *CompiledRule {
	return r.byID[id]
}

// RequiredFeaturesFor returns catalog-level feature requirements for a rule.
func (r *RulesetRuntime) RequiredFeaturesFor(ruleID string) []string {
	return r.FeatureRequirements[ruleID]
}

// RulesByID returns the full id -> rule index.
func (r *RulesetRuntime) RulesByID() map[string]*CompiledRule {
	return r.byID
}

// sortedKeys returns map keys in ascending order for deterministic iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
