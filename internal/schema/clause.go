// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
)

// Clause is a normalized, delimited unit of document text carrying
// classification metadata. Clauses are produced by the upstream segmentation
// and normalization stages and are read-only inside the engine.
type Clause struct {
	ID             string   `json:"id"`
	IndexPath      string   `json:"index_path,omitempty"`
	Text           string   `json:"text"`
	NormalizedText string   `json:"normalized_text,omitempty"`
	Title          string   `json:"title,omitempty"`
	Category       string   `json:"category,omitempty"`
	Subcategory    string   `json:"subcategory,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	CanonicalTerms []string `json:"canonical_terms,omitempty"`
}

// Haystack returns the text the lexical matcher should scan: normalized text
// when available, raw text otherwise.
func (c *Clause) Haystack() string {
	if c.NormalizedText != "" {
		return c.NormalizedText
	}
	return c.Text
}

// RawText returns the text the syntax and numeric matchers scan: raw text
// when available, normalized text otherwise.
func (c *Clause) RawText() string {
	if c.Text != "" {
		return c.Text
	}
	return c.NormalizedText
}

// ClausesFromJSON decodes an array of clause objects. A clause without an id
// is rejected: downstream output is keyed by clause id and an empty key would
// silently collide.
func ClausesFromJSON(data []byte) ([]Clause, error) {
	var clauses []Clause
	if err := json.Unmarshal(data, &clauses); err != nil {
		return nil, fmt.Errorf("invalid clauses payload: %w", err)
	}
	for i := range clauses {
		if clauses[i].ID == "" {
			return nil, fmt.Errorf("clause at index %d has no id", i)
		}
		if clauses[i].NormalizedText == "" {
			clauses[i].NormalizedText = clauses[i].Text
		}
	}
	return clauses, nil
}
