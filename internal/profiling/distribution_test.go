// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package profiling

import (
	"math"
	"testing"

	"clause-scan/internal/schema"
)

func documentWith(scores ...schema.ClauseScore) *schema.Document {
	return &schema.Document{Results: scores}
}

func score(id string, confidence float64, flag string) schema.ClauseScore {
	return schema.ClauseScore{ClauseID: id, Confidence: confidence, RiskFlag: flag}
}

func checkStat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: expected %v, got %v", name, want, got)
	}
}

func TestProfile(t *testing.T) {
	document := documentWith(
		score("c1", 0.1, schema.RiskFlagOK),
		score("c2", 0.2, schema.RiskFlagOK),
		score("c3", 0.3, schema.RiskFlagWarn),
		score("c4", 0.4, schema.RiskFlagWarn),
		score("c5", 0.5, schema.RiskFlagHigh),
	)

	dist, err := Profile(document)
	if err != nil {
		t.Fatalf("profiling failed: %v", err)
	}

	if dist.Count != 5 {
		t.Errorf("expected count 5, got %d", dist.Count)
	}
	checkStat(t, "mean", dist.Mean, 0.3)
	checkStat(t, "median", dist.Median, 0.3)
	checkStat(t, "min", dist.Min, 0.1)
	checkStat(t, "max", dist.Max, 0.5)
	// Population standard deviation of the batch, rounded to 6 places.
	checkStat(t, "std_dev", dist.StdDev, 0.141421)
	checkStat(t, "p25", dist.P25, 0.15)
	checkStat(t, "p75", dist.P75, 0.35)
	checkStat(t, "p90", dist.P90, 0.45)
	// The batch is symmetric around its mean.
	checkStat(t, "skewness", dist.Skewness, 0)
	checkStat(t, "kurtosis", dist.Kurtosis, -1.2)

	if dist.FlagCounts[schema.RiskFlagOK] != 2 ||
		dist.FlagCounts[schema.RiskFlagWarn] != 2 ||
		dist.FlagCounts[schema.RiskFlagHigh] != 1 {
		t.Errorf("unexpected flag counts: %v", dist.FlagCounts)
	}
}

func TestProfile_SingleClause(t *testing.T) {
	dist, err := Profile(documentWith(score("c1", 0.42, schema.RiskFlagWarn)))
	if err != nil {
		t.Fatalf("profiling failed: %v", err)
	}

	// Percentiles are undefined for one sample and fall back to the value.
	checkStat(t, "p25", dist.P25, 0.42)
	checkStat(t, "p75", dist.P75, 0.42)
	checkStat(t, "p90", dist.P90, 0.42)
	checkStat(t, "skewness", dist.Skewness, 0)
	checkStat(t, "kurtosis", dist.Kurtosis, 0)
}

func TestProfile_ConstantBatch(t *testing.T) {
	dist, err := Profile(documentWith(
		score("c1", 0.5, schema.RiskFlagWarn),
		score("c2", 0.5, schema.RiskFlagWarn),
		score("c3", 0.5, schema.RiskFlagWarn),
		score("c4", 0.5, schema.RiskFlagWarn),
	))
	if err != nil {
		t.Fatalf("profiling failed: %v", err)
	}

	checkStat(t, "std_dev", dist.StdDev, 0)
	// Higher moments stay zero when the batch has no spread.
	checkStat(t, "skewness", dist.Skewness, 0)
	checkStat(t, "kurtosis", dist.Kurtosis, 0)
}

func TestProfile_EmptyDocument(t *testing.T) {
	if _, err := Profile(&schema.Document{}); err == nil {
		t.Fatal("expected error for empty document")
	}
	if _, err := Profile(nil); err == nil {
		t.Fatal("expected error for nil document")
	}
}
