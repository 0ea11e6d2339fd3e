// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package calibration

import (
	"math"
	"testing"

	"clause-scan/internal/schema"
)

func defaultThresholds() schema.Thresholds {
	return schema.Thresholds{High: 0.99, Warn: 0.10, AmbigGap: 0.08}
}

func TestCalibrate_DisabledFallsBackToBase(t *testing.T) {
	calibrator := New(schema.CalibrationSettings{
		Enable:  false,
		MinWarn: 0.05,
		MaxWarn: 0.85,
	})
	clauses := []Clause{{ClauseID: "c1", Confidence: 0.5}}

	result := calibrator.Calibrate(clauses, defaultThresholds())
	if result.WarnThreshold != 0.10 {
		t.Errorf("expected base threshold 0.10, got %v", result.WarnThreshold)
	}
}

func TestCalibrate_EmptyBatch(t *testing.T) {
	calibrator := New(schema.CalibrationSettings{
		Enable:         true,
		TargetWarnRate: 0.9,
		MinWarn:        0.05,
		MaxWarn:        0.85,
	})
	result := calibrator.Calibrate(nil, defaultThresholds())
	if result.WarnThreshold != 0.10 {
		t.Errorf("expected base threshold for empty batch, got %v", result.WarnThreshold)
	}
}

func TestCalibrate_InvertedBoundsFallBack(t *testing.T) {
	calibrator := New(schema.CalibrationSettings{
		Enable:         true,
		TargetWarnRate: 0.9,
		MinWarn:        0.85,
		MaxWarn:        0.05,
	})
	clauses := []Clause{{ClauseID: "c1", Confidence: 0.5}}

	result := calibrator.Calibrate(clauses, defaultThresholds())
	// inverted bounds pass the base through unchanged
	if result.WarnThreshold != 0.10 {
		t.Errorf("expected base threshold with inverted bounds, got %v", result.WarnThreshold)
	}
}

func TestCalibrate_BaseClampedIntoBounds(t *testing.T) {
	calibrator := New(schema.CalibrationSettings{
		Enable:  false,
		MinWarn: 0.20,
		MaxWarn: 0.85,
	})
	result := calibrator.Calibrate([]Clause{{ClauseID: "c1", Confidence: 0.5}}, defaultThresholds())
	if result.WarnThreshold != 0.20 {
		t.Errorf("expected base clamped up to min bound, got %v", result.WarnThreshold)
	}
}

func TestCalibrate_ThresholdSearch(t *testing.T) {
	calibrator := New(schema.CalibrationSettings{
		Enable:         true,
		TargetWarnRate: 0.5,
		MinWarn:        0.05,
		MaxWarn:        0.85,
	})
	clauses := []Clause{
		{ClauseID: "c1", Confidence: 0.2},
		{ClauseID: "c2", Confidence: 0.3},
		{ClauseID: "c3", Confidence: 0.8},
	}
	thresholds := schema.Thresholds{High: 0.99, Warn: 0.10, AmbigGap: 0}

	result := calibrator.Calibrate(clauses, thresholds)

	// candidates just above 0.2 and at 0.3 both yield a warn rate of 2/3 or
	// 1/3 (distance 1/6 from target); the tie breaks toward the candidate
	// closest to the base threshold, which is 0.2 + 1e-6
	if math.Abs(result.WarnThreshold-0.200001) > 1e-9 {
		t.Errorf("expected threshold 0.200001, got %v", result.WarnThreshold)
	}
}

func TestCalibrate_TargetFullWarnKeepsBase(t *testing.T) {
	calibrator := New(schema.CalibrationSettings{
		Enable:         true,
		TargetWarnRate: 1.0,
		MinWarn:        0.05,
		MaxWarn:        0.85,
	})
	clauses := []Clause{
		{ClauseID: "c1", Confidence: 0.3},
		{ClauseID: "c2", Confidence: 0.6},
	}
	thresholds := schema.Thresholds{High: 0.99, Warn: 0.10, AmbigGap: 0}

	result := calibrator.Calibrate(clauses, thresholds)
	// several candidates reach rate 1.0; zero jitter keeps the base
	if result.WarnThreshold != 0.10 {
		t.Errorf("expected base threshold kept on tie, got %v", result.WarnThreshold)
	}
}

func TestCalibrate_Demotions(t *testing.T) {
	calibrator := New(schema.CalibrationSettings{
		Enable:           true,
		TargetWarnRate:   0.9,
		MinWarn:          0.05,
		MaxWarn:          0.85,
		DemoteHighToWarn: true,
		CriticalFlag:     "critical",
	})
	clauses := []Clause{
		{ClauseID: "c-critical", Confidence: 1.0, Flags: map[string]bool{"critical": true}},
		{ClauseID: "c-plain", Confidence: 1.0},
		{ClauseID: "c-low", Confidence: 0.3},
	}

	result := calibrator.Calibrate(clauses, defaultThresholds())

	if result.Demotions["c-critical"] {
		t.Error("expected critical clause to keep HIGH")
	}
	if !result.Demotions["c-plain"] {
		t.Error("expected non-critical HIGH clause demoted")
	}
	if result.Demotions["c-low"] {
		t.Error("expected sub-HIGH clause untouched")
	}
}

func TestCalibrate_DegenerateBatchSkipsDemotions(t *testing.T) {
	clauses := []Clause{{ClauseID: "c-plain", Confidence: 1.0}}

	disabled := New(schema.CalibrationSettings{
		Enable:           false,
		MinWarn:          0.05,
		MaxWarn:          0.85,
		DemoteHighToWarn: true,
		CriticalFlag:     "critical",
	})
	if result := disabled.Calibrate(clauses, defaultThresholds()); len(result.Demotions) != 0 {
		t.Errorf("expected no demotions with calibration disabled, got %v", result.Demotions)
	}

	inverted := New(schema.CalibrationSettings{
		Enable:           true,
		MinWarn:          0.85,
		MaxWarn:          0.05,
		DemoteHighToWarn: true,
		CriticalFlag:     "critical",
	})
	if result := inverted.Calibrate(clauses, defaultThresholds()); len(result.Demotions) != 0 {
		t.Errorf("expected no demotions with inverted bounds, got %v", result.Demotions)
	}
}

func TestCalibrate_DemotionsDisabled(t *testing.T) {
	calibrator := New(schema.CalibrationSettings{
		Enable:           true,
		TargetWarnRate:   0.9,
		MinWarn:          0.05,
		MaxWarn:          0.85,
		DemoteHighToWarn: false,
	})
	clauses := []Clause{{ClauseID: "c1", Confidence: 1.0}}

	result := calibrator.Calibrate(clauses, defaultThresholds())
	if len(result.Demotions) != 0 {
		t.Errorf("expected no demotions when disabled, got %v", result.Demotions)
	}
}

func TestWarnRate(t *testing.T) {
	clauses := []Clause{
		{Confidence: 1.0},
		{Confidence: 0.5},
		{Confidence: 0.2},
		{Confidence: 0.05},
	}
	// high cutoff 0.99; warn cutoff 0.10 + 0.08
	rate := warnRate(clauses, 0.10, 0.99, 0.08)
	if math.Abs(rate-0.5) > 1e-9 {
		t.Errorf("expected warn rate 0.5, got %v", rate)
	}

	if warnRate(nil, 0.1, 0.99, 0) != 0 {
		t.Error("expected zero rate for empty batch")
	}
}
