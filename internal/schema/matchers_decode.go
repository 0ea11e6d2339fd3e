// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// decodeMatchers normalizes a rule's matcher definitions. The canonical form
// is a map with lexicon/regex/negations/proximity/numeric keys; older rule
// compilers emit a list of typed matcher entries instead, which is converted
// into the map form here.
func decodeMatchers(raw json.RawMessage) (Matchers, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Matchers{}, nil
	}
	if trimmed[0] == '[' {
		return decodeLegacyMatchers(raw)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Matchers{}, fmt.Errorf("matchers must be an object or a list: %w", err)
	}

	var matchers Matchers
	matchers.Lexicon = appendPhrases(matchers.Lexicon, payload["lexicon"])
	matchers.Lexicon = appendPhrases(matchers.Lexicon, payload["lexicon_phrases"])
	for _, key := range []string{"syntax", "regex", "syntax_patterns"} {
		patterns, err := flattenPatterns(payload[key])
		if err != nil {
			return Matchers{}, err
		}
		matchers.Regex = append(matchers.Regex, patterns...)
	}
	matchers.Negations = appendPhrases(matchers.Negations, payload["negations"])

	if raw, ok := payload["proximity"]; ok && string(raw) != "null" {
		var proximity Proximity
		if err := json.Unmarshal(raw, &proximity); err != nil {
			return Matchers{}, fmt.Errorf("invalid proximity config: %w", err)
		}
		matchers.Proximity = &proximity
	}
	for key, target := range map[string]**NumericSpec{
		"numeric": &matchers.Numeric,
		"table":   &matchers.Table,
	} {
		if raw, ok := payload[key]; ok && string(raw) != "null" {
			var spec NumericSpec
			if err := json.Unmarshal(raw, &spec); err != nil {
				return Matchers{}, fmt.Errorf("invalid %s spec: %w", key, err)
			}
			*target = &spec
		}
	}
	return matchers, nil
}

// legacyMatcherEntry is one element of the list-shaped matchers form:
// {"type": "...", "pattern": "...", "options": {...}}.
type legacyMatcherEntry struct {
	Type    string         `json:"type"`
	Pattern string         `json:"pattern"`
	Options map[string]any `json:"options"`
}

func decodeLegacyMatchers(raw json.RawMessage) (Matchers, error) {
	var entries []legacyMatcherEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return Matchers{}, fmt.Errorf("invalid legacy matchers list: %w", err)
	}
	var matchers Matchers
	seenLexicon := map[string]bool{}
	seenNegations := map[string]bool{}
	for _, entry := range entries {
		pattern := strings.TrimSpace(entry.Pattern)
		if pattern == "" {
			continue
		}
		if truthy(entry.Options["negate"]) || truthy(entry.Options["negation"]) {
			if !seenNegations[pattern] {
				seenNegations[pattern] = true
				matchers.Negations = append(matchers.Negations, pattern)
			}
			continue
		}
		switch strings.ToLower(entry.Type) {
		case "regex":
			flags := "i"
			if v, ok := entry.Options["flags"].(string); ok && v != "" {
				flags = v
			}
			matchers.Regex = append(matchers.Regex, RegexPattern{Pattern: pattern, Flags: flags})
		case "negation":
			if !seenNegations[pattern] {
				seenNegations[pattern] = true
				matchers.Negations = append(matchers.Negations, pattern)
			}
		case "proximity":
			if window, ok := asInt(entry.Options["window"]); ok {
				matchers.Proximity = &Proximity{Window: window}
			}
		default:
			// keyword, phrase and unknown types all land in the lexicon
			if !seenLexicon[pattern] {
				seenLexicon[pattern] = true
				matchers.Lexicon = append(matchers.Lexicon, pattern)
			}
		}
	}
	return matchers, nil
}

// appendPhrases flattens a string, list or map payload into phrase strings.
func appendPhrases(dst []string, raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return dst
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return dst
	}
	return appendPhraseValue(dst, value)
}

func appendPhraseValue(dst []string, value any) []string {
	switch v := value.(type) {
	case string:
		return append(dst, v)
	case []any:
		for _, item := range v {
			dst = appendPhraseValue(dst, item)
		}
		return dst
	case map[string]any:
		for _, key := range sortedKeys(v) {
			dst = appendPhraseValue(dst, v[key])
		}
		return dst
	default:
		return dst
	}
}

// flattenPatterns accepts a string, list or map of patterns, where each
// pattern is a bare string (case-insensitive by default) or a
// {pattern, flags} object.
func flattenPatterns(raw json.RawMessage) ([]RegexPattern, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("invalid pattern payload: %w", err)
	}
	return appendPatternValue(nil, value)
}

func appendPatternValue(dst []RegexPattern, value any) ([]RegexPattern, error) {
	switch v := value.(type) {
	case string:
		pattern := strings.TrimSpace(v)
		if pattern != "" {
			dst = append(dst, RegexPattern{Pattern: pattern, Flags: "i"})
		}
		return dst, nil
	case []any:
		var err error
		for _, item := range v {
			dst, err = appendPatternValue(dst, item)
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	case map[string]any:
		if rawPattern, ok := v["pattern"]; ok {
			pattern := strings.TrimSpace(fmt.Sprint(rawPattern))
			if pattern == "" {
				return dst, nil
			}
			flags := "i"
			if rawFlags, ok := v["flags"].(string); ok {
				flags = rawFlags
			}
			return append(dst, RegexPattern{Pattern: pattern, Flags: flags}), nil
		}
		var err error
		for _, key := range sortedKeys(v) {
			dst, err = appendPatternValue(dst, v[key])
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	default:
		return dst, nil
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != "" && v != "false" && v != "0"
	case float64:
		return v != 0
	default:
		return false
	}
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
