// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Feature names the numeric matcher can extract from clause text.
const (
	FeatureNumericAmount = "numeric_amount"
	FeaturePercentage    = "percentage"
	FeatureDateRange     = "date_range"
)

// NumericLeaf is a single boolean comparison against an extracted feature.
// A leaf passes if op(candidate, rhs) holds for any extracted candidate of
// the referenced feature (existential semantics).
type NumericLeaf struct {
	Op  string  `json:"op"`
	LHS string  `json:"lhs"`
	RHS float64 `json:"rhs"`
}

// NumericSpec is either a single leaf or a list of leaves combined with AND.
// A scalar truthy spec (legacy payloads) passes unconditionally.
type NumericSpec struct {
	Leaves []NumericLeaf
	Scalar *bool
}

// UnmarshalJSON accepts the object, list and scalar wire forms. Leaf objects
// may use op/comparator, lhs/feature and rhs/value key aliases.
func (s *NumericSpec) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	switch trimmed[0] {
	case '{':
		leaf, err := decodeNumericLeaf(data)
		if err != nil {
			return err
		}
		s.Leaves = []NumericLeaf{leaf}
		return nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if len(items) == 0 {
			// an empty conjunction is vacuously true
			truthy := true
			s.Scalar = &truthy
			return nil
		}
		for _, item := range items {
			leaf, err := decodeNumericLeaf(item)
			if err != nil {
				return err
			}
			s.Leaves = append(s.Leaves, leaf)
		}
		return nil
	default:
		truthy := trimmed != "false" && trimmed != "0" && trimmed != `""`
		s.Scalar = &truthy
		return nil
	}
}

// MarshalJSON re-emits the canonical form: a single leaf as an object, a
// conjunction as a list.
func (s NumericSpec) MarshalJSON() ([]byte, error) {
	if s.Scalar != nil {
		return json.Marshal(*s.Scalar)
	}
	if len(s.Leaves) == 1 {
		return json.Marshal(s.Leaves[0])
	}
	return json.Marshal(s.Leaves)
}

func decodeNumericLeaf(data []byte) (NumericLeaf, error) {
	var payload struct {
		Op         string          `json:"op"`
		Comparator string          `json:"comparator"`
		LHS        string          `json:"lhs"`
		Feature    string          `json:"feature"`
		RHS        json.RawMessage `json:"rhs"`
		Value      json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return NumericLeaf{}, fmt.Errorf("invalid numeric leaf: %w", err)
	}
	op := strings.TrimSpace(payload.Op)
	if op == "" {
		op = strings.TrimSpace(payload.Comparator)
	}
	lhs := payload.LHS
	if lhs == "" {
		lhs = payload.Feature
	}
	rhsRaw := payload.RHS
	if len(rhsRaw) == 0 {
		rhsRaw = payload.Value
	}
	rhs, err := decodeNumber(rhsRaw)
	if err != nil {
		return NumericLeaf{}, fmt.Errorf("invalid numeric leaf rhs: %w", err)
	}
	switch op {
	case "<", "<=", ">", ">=", "==", "!=":
	default:
		return NumericLeaf{}, fmt.Errorf("unsupported comparison operator %q", op)
	}
	return NumericLeaf{Op: op, LHS: lhs, RHS: rhs}, nil
}

// decodeNumber accepts a JSON number or a numeric string.
func decodeNumber(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing value")
	}
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("value %s is not numeric", string(raw))
}
