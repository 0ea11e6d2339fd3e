// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package profiling computes summary statistics over batch confidence
// distributions, used to sanity-check ruleset and calibration behavior
// across corpora.
package profiling

import (
	"fmt"

	"clause-scan/internal/schema"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Distribution describes the shape of a batch's confidence values.
type Distribution struct {
	Count    int     `json:"count" yaml:"count"`
	Mean     float64 `json:"mean" yaml:"mean"`
	Median   float64 `json:"median" yaml:"median"`
	StdDev   float64 `json:"std_dev" yaml:"std_dev"`
	Min      float64 `json:"min" yaml:"min"`
	Max      float64 `json:"max" yaml:"max"`
	P25      float64 `json:"p25" yaml:"p25"`
	P75      float64 `json:"p75" yaml:"p75"`
	P90      float64 `json:"p90" yaml:"p90"`
	Skewness float64 `json:"skewness" yaml:"skewness"`
	Kurtosis float64 `json:"kurtosis" yaml:"kurtosis"`

	// Per-flag counts alongside the numeric summary.
	FlagCounts map[string]int `json:"flag_counts" yaml:"flag_counts"`
}

// Profile computes the confidence distribution of a scored document.
// Documents with no results produce an error rather than a zero-filled
// profile, so callers can distinguish "nothing scored" from "all zeros".
func Profile(document *schema.Document) (*Distribution, error) {
	if document == nil || len(document.Results) == 0 {
		return nil, fmt.Errorf("no scored clauses to profile")
	}

	confidences := make([]float64, 0, len(document.Results))
	flagCounts := make(map[string]int)
	for _, result := range document.Results {
		confidences = append(confidences, result.Confidence)
		flagCounts[result.RiskFlag]++
	}

	data := stats.Float64Data(confidences)
	dist := &Distribution{
		Count:      len(confidences),
		FlagCounts: flagCounts,
	}

	var err error
	if dist.Mean, err = data.Mean(); err != nil {
		return nil, fmt.Errorf("computing mean: %w", err)
	}
	if dist.Median, err = data.Median(); err != nil {
		return nil, fmt.Errorf("computing median: %w", err)
	}
	if dist.StdDev, err = data.StandardDeviation(); err != nil {
		return nil, fmt.Errorf("computing standard deviation: %w", err)
	}
	if dist.Min, err = data.Min(); err != nil {
		return nil, fmt.Errorf("computing min: %w", err)
	}
	if dist.Max, err = data.Max(); err != nil {
		return nil, fmt.Errorf("computing max: %w", err)
	}
	if dist.P25, err = data.Percentile(25); err != nil {
		// Percentile fails on single-element inputs; fall back to the value.
		dist.P25 = confidences[0]
	}
	if dist.P75, err = data.Percentile(75); err != nil {
		dist.P75 = confidences[0]
	}
	if dist.P90, err = data.Percentile(90); err != nil {
		dist.P90 = confidences[0]
	}

	// Higher moments need at least a few samples to mean anything; gonum
	// returns NaN for degenerate inputs, which JSON cannot encode.
	if len(confidences) >= 3 && dist.StdDev > 0 {
		dist.Skewness = stat.Skew(confidences, nil)
		dist.Kurtosis = stat.ExKurtosis(confidences, nil)
	}

	dist.round()
	return dist, nil
}

func (d *Distribution) round() {
	d.Mean = schema.Round(d.Mean, 6)
	d.Median = schema.Round(d.Median, 6)
	d.StdDev = schema.Round(d.StdDev, 6)
	d.Min = schema.Round(d.Min, 6)
	d.Max = schema.Round(d.Max, 6)
	d.P25 = schema.Round(d.P25, 6)
	d.P75 = schema.Round(d.P75, 6)
	d.P90 = schema.Round(d.P90, 6)
	d.Skewness = schema.Round(d.Skewness, 6)
	d.Kurtosis = schema.Round(d.Kurtosis, 6)
}
