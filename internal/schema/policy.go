// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
)

// Default policy values applied when the policy payload omits a field.
const (
	DefaultHighThreshold  = 0.99
	DefaultWarnThreshold  = 0.10
	DefaultAmbigGap       = 0.08
	DefaultTargetWarnRate = 0.90
	DefaultMinWarn        = 0.05
	DefaultMaxWarn        = 0.85
	DefaultCriticalFlag   = "critical"
)

// DefaultPenalties is the penalty table applied when the policy omits one.
func DefaultPenalties() map[string]float64 {
	return map[string]float64{
		"negation":       0.25,
		"exception":      0.15,
		"conflict_local": 0.20,
		"low_evidence":   0.10,
	}
}

// Thresholds holds the static classification thresholds. WARN is the base
// value before calibration.
type Thresholds struct {
	High     float64 `json:"HIGH" yaml:"HIGH"`
	Warn     float64 `json:"WARN" yaml:"WARN"`
	AmbigGap float64 `json:"ambig_gap" yaml:"ambig_gap"`
}

// CalibrationSettings controls the batch-global WARN threshold search.
type CalibrationSettings struct {
	Enable           bool    `json:"enable" yaml:"enable"`
	TargetWarnRate   float64 `json:"target_warn_rate" yaml:"target_warn_rate"`
	MinWarn          float64 `json:"min_warn" yaml:"min_warn"`
	MaxWarn          float64 `json:"max_warn" yaml:"max_warn"`
	DemoteHighToWarn bool    `json:"demote_high_to_warn" yaml:"demote_high_to_warn"`
	CriticalFlag     string  `json:"critical_flag" yaml:"critical_flag"`
}

// Policy bundles thresholds, the penalty table and calibration settings.
// All fields are optional on the wire; defaults are documented above.
type Policy struct {
	Thresholds  Thresholds          `json:"thresholds" yaml:"thresholds"`
	Penalties   map[string]float64  `json:"penalties" yaml:"penalties"`
	Calibration CalibrationSettings `json:"calibration" yaml:"calibration"`
}

// DefaultPolicy returns the policy used when no policy payload is supplied.
func DefaultPolicy() Policy {
	return Policy{
		Thresholds: Thresholds{
			High:     DefaultHighThreshold,
			Warn:     DefaultWarnThreshold,
			AmbigGap: DefaultAmbigGap,
		},
		Penalties: DefaultPenalties(),
		Calibration: CalibrationSettings{
			Enable:           true,
			TargetWarnRate:   DefaultTargetWarnRate,
			MinWarn:          DefaultMinWarn,
			MaxWarn:          DefaultMaxWarn,
			DemoteHighToWarn: true,
			CriticalFlag:     DefaultCriticalFlag,
		},
	}
}

// policyPayload mirrors Policy with pointer fields so omitted values can be
// distinguished from explicit zeroes and filled from defaults.
type policyPayload struct {
	Thresholds *struct {
		High     *float64 `json:"HIGH"`
		Warn     *float64 `json:"WARN"`
		AmbigGap *float64 `json:"ambig_gap"`
	} `json:"thresholds"`
	Penalties   map[string]float64 `json:"penalties"`
	Calibration *struct {
		Enable           *bool    `json:"enable"`
		TargetWarnRate   *float64 `json:"target_warn_rate"`
		MinWarn          *float64 `json:"min_warn"`
		MaxWarn          *float64 `json:"max_warn"`
		DemoteHighToWarn *bool    `json:"demote_high_to_warn"`
		CriticalFlag     *string  `json:"critical_flag"`
	} `json:"calibration"`
}

// PolicyFromJSON decodes a policy payload, merging it over the defaults.
// Penalty entries are merged per name: supplying one penalty does not drop
// the default table.
func PolicyFromJSON(data []byte) (Policy, error) {
	policy := DefaultPolicy()
	if len(data) == 0 {
		return policy, nil
	}
	var payload policyPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Policy{}, fmt.Errorf("invalid policy payload: %w", err)
	}
	if payload.Thresholds != nil {
		if payload.Thresholds.High != nil {
			policy.Thresholds.High = *payload.Thresholds.High
		}
		if payload.Thresholds.Warn != nil {
			policy.Thresholds.Warn = *payload.Thresholds.Warn
		}
		if payload.Thresholds.AmbigGap != nil {
			policy.Thresholds.AmbigGap = *payload.Thresholds.AmbigGap
		}
	}
	for name, magnitude := range payload.Penalties {
		policy.Penalties[name] = magnitude
	}
	if payload.Calibration != nil {
		c := payload.Calibration
		if c.Enable != nil {
			policy.Calibration.Enable = *c.Enable
		}
		if c.TargetWarnRate != nil {
			policy.Calibration.TargetWarnRate = *c.TargetWarnRate
		}
		if c.MinWarn != nil {
			policy.Calibration.MinWarn = *c.MinWarn
		}
		if c.MaxWarn != nil {
			policy.Calibration.MaxWarn = *c.MaxWarn
		}
		if c.DemoteHighToWarn != nil {
			policy.Calibration.DemoteHighToWarn = *c.DemoteHighToWarn
		}
		if c.CriticalFlag != nil {
			policy.Calibration.CriticalFlag = *c.CriticalFlag
		}
	}
	return policy, nil
}
