// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()

	if policy.Thresholds.High != 0.99 {
		t.Errorf("expected HIGH=0.99, got %v", policy.Thresholds.High)
	}
	if policy.Thresholds.Warn != 0.10 {
		t.Errorf("expected WARN=0.10, got %v", policy.Thresholds.Warn)
	}
	if policy.Thresholds.AmbigGap != 0.08 {
		t.Errorf("expected ambig_gap=0.08, got %v", policy.Thresholds.AmbigGap)
	}
	if policy.Penalties["negation"] != 0.25 {
		t.Errorf("expected negation penalty 0.25, got %v", policy.Penalties["negation"])
	}
	if policy.Penalties["exception"] != 0.15 {
		t.Errorf("expected exception penalty 0.15, got %v", policy.Penalties["exception"])
	}
	if !policy.Calibration.Enable {
		t.Error("expected calibration enabled by default")
	}
	if policy.Calibration.TargetWarnRate != 0.90 {
		t.Errorf("expected target_warn_rate 0.90, got %v", policy.Calibration.TargetWarnRate)
	}
	if policy.Calibration.CriticalFlag != "critical" {
		t.Errorf("expected critical_flag=critical, got %q", policy.Calibration.CriticalFlag)
	}
}

func TestPolicyFromJSON_PartialOverride(t *testing.T) {
	payload := `{
		"thresholds": {"WARN": 0.2},
		"penalties": {"negation": 0.5},
		"calibration": {"enable": false}
	}`

	policy, err := PolicyFromJSON([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if policy.Thresholds.Warn != 0.2 {
		t.Errorf("expected WARN=0.2, got %v", policy.Thresholds.Warn)
	}
	// unspecified thresholds keep their defaults
	if policy.Thresholds.High != 0.99 {
		t.Errorf("expected HIGH default preserved, got %v", policy.Thresholds.High)
	}
	// penalties merge per name, not wholesale
	if policy.Penalties["negation"] != 0.5 {
		t.Errorf("expected negation penalty overridden to 0.5, got %v", policy.Penalties["negation"])
	}
	if policy.Penalties["exception"] != 0.15 {
		t.Errorf("expected exception penalty default preserved, got %v", policy.Penalties["exception"])
	}
	if policy.Calibration.Enable {
		t.Error("expected calibration disabled")
	}
	if policy.Calibration.TargetWarnRate != 0.90 {
		t.Errorf("expected target default preserved, got %v", policy.Calibration.TargetWarnRate)
	}
}

func TestPolicyFromJSON_ExplicitZero(t *testing.T) {
	policy, err := PolicyFromJSON([]byte(`{"thresholds": {"ambig_gap": 0}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy.Thresholds.AmbigGap != 0 {
		t.Errorf("expected explicit zero gap, got %v", policy.Thresholds.AmbigGap)
	}
}

func TestPolicyFromJSON_Invalid(t *testing.T) {
	if _, err := PolicyFromJSON([]byte(`{"thresholds": [`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestPolicyFromJSON_Empty(t *testing.T) {
	policy, err := PolicyFromJSON(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy.Thresholds.High != DefaultHighThreshold {
		t.Errorf("expected default policy, got HIGH=%v", policy.Thresholds.High)
	}
}
