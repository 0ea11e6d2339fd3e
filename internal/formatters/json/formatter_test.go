// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package json

import (
	"encoding/json"
	"strings"
	"testing"

	"clause-scan/internal/formatters"
	"clause-scan/internal/schema"
)

func sampleDocument() *schema.Document {
	return &schema.Document{
		Results: []schema.ClauseScore{{
			ClauseID:        "c1",
			Confidence:      0.42,
			RiskFlag:        schema.RiskFlagWarn,
			Reasons:         []string{"confidence >= WARN (0.10) with gap 0.08"},
			AdoptedRules:    []string{"r1"},
			SuppressedRules: []string{},
			PerHitScores:    []schema.PerHitScore{},
			Metadata: schema.ClauseMetadata{
				Flags:      map[string]bool{},
				Severities: []string{"WARN"},
			},
		}},
		Summary: schema.Summary{
			WarnRate: 1,
			ThresholdsApplied: schema.ThresholdsApplied{
				High: 0.99,
				Warn: 0.10,
			},
		},
	}
}

func TestFormat_Compact(t *testing.T) {
	formatter := NewFormatter()
	out, err := formatter.Format(sampleDocument(), formatters.FormatterOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "\n") {
		t.Error("expected compact single-line output")
	}
	// exact envelope: results then summary
	if !strings.HasPrefix(out, `{"results":[`) {
		t.Errorf("unexpected envelope: %s", out)
	}
	if !strings.Contains(out, `"thresholds_applied":{"HIGH":0.99,"WARN":0.1}`) {
		t.Errorf("unexpected thresholds encoding: %s", out)
	}
}

func TestFormat_Pretty(t *testing.T) {
	formatter := NewFormatter()
	out, err := formatter.Format(sampleDocument(), formatters.FormatterOptions{Pretty: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "\n  \"results\"") {
		t.Errorf("expected two-space indentation, got %s", out)
	}
}

func TestFormat_IndentOverridesPretty(t *testing.T) {
	formatter := NewFormatter()
	out, err := formatter.Format(sampleDocument(), formatters.FormatterOptions{Pretty: true, Indent: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "\n    \"results\"") {
		t.Errorf("expected four-space indentation, got %s", out)
	}
}

func TestFormat_RoundTrips(t *testing.T) {
	formatter := NewFormatter()
	out, err := formatter.Format(sampleDocument(), formatters.FormatterOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded schema.Document
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output does not round-trip: %v", err)
	}
	if decoded.Results[0].ClauseID != "c1" {
		t.Errorf("unexpected round-trip result: %+v", decoded.Results)
	}
}

func TestEncode_NoHTMLEscaping(t *testing.T) {
	out, err := Encode(map[string]string{"snippet": "a < b && c > d"}, formatters.FormatterOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(out), `<`) {
		t.Errorf("expected HTML escaping disabled, got %s", out)
	}
}

func TestRegistryLookup(t *testing.T) {
	formatter, err := formatters.Get("json")
	if err != nil {
		t.Fatalf("expected json formatter registered: %v", err)
	}
	if formatter.FileExtension() != ".json" {
		t.Errorf("unexpected extension %q", formatter.FileExtension())
	}

	if _, err := formatters.Get("bogus"); err == nil {
		t.Error("expected error for unknown formatter")
	}
}
