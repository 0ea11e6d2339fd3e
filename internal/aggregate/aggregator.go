// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package aggregate

import (
	"fmt"
	"math"
	"sort"

	"clause-scan/internal/calibration"
	"clause-scan/internal/schema"
	"clause-scan/internal/scoring"
)

// Aggregator applies the calibrated thresholds to every clause computation
// and produces the final classification document.
type Aggregator struct {
	policy     schema.Policy
	calibrator *calibration.Calibrator
}

// New returns an aggregator for the given policy.
func New(policy schema.Policy) *Aggregator {
	return &Aggregator{
		policy:     policy,
		calibrator: calibration.New(policy.Calibration),
	}
}

// Aggregate calibrates the WARN threshold over the whole batch, classifies
// each clause through the ordered rule set and assembles the summary.
func (a *Aggregator) Aggregate(computations []scoring.ClauseComputation) schema.Document {
	ordered := make([]scoring.ClauseComputation, len(computations))
	copy(ordered, computations)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ClauseID < ordered[j].ClauseID })

	calibrationInput := make([]calibration.Clause, 0, len(ordered))
	for _, comp := range ordered {
		calibrationInput = append(calibrationInput, calibration.Clause{
			ClauseID:   comp.ClauseID,
			Confidence: comp.Confidence,
			Flags:      comp.Metadata.Flags,
		})
	}
	calibrated := a.calibrator.Calibrate(calibrationInput, a.policy.Thresholds)

	highThreshold := a.policy.Thresholds.High
	warnThreshold := calibrated.WarnThreshold
	ambigGap := a.policy.Thresholds.AmbigGap

	results := make([]schema.ClauseScore, 0, len(ordered))
	counters := map[string]int{}
	for _, comp := range ordered {
		riskFlag, reasons := classify(comp, highThreshold, warnThreshold, ambigGap, calibrated.Demotions)
		counters[riskFlag]++
		results = append(results, schema.ClauseScore{
			ClauseID:        comp.ClauseID,
			Confidence:      schema.Round(comp.Confidence, 6),
			RiskFlag:        riskFlag,
			Reasons:         reasons,
			AdoptedRules:    emptyIfNil(comp.AdoptedRules),
			SuppressedRules: emptyIfNil(comp.SuppressedRules),
			PerHitScores:    comp.PerHitScores,
			Metadata:        comp.Metadata,
		})
	}

	high := counters[schema.RiskFlagHigh]
	warn := counters[schema.RiskFlagWarn]
	ok := counters[schema.RiskFlagOK]
	ambig := counters[schema.RiskFlagAmbig]
	denominator := warn + high + ok
	total := denominator + ambig

	summary := schema.Summary{
		WarnRate:  schema.Round(rate(warn, denominator), 4),
		HighRate:  schema.Round(rate(high, denominator), 4),
		OKRate:    schema.Round(rate(ok, denominator), 4),
		AmbigRate: schema.Round(rate(ambig, total), 4),
		ThresholdsApplied: schema.ThresholdsApplied{
			High: schema.Round(highThreshold, 6),
			Warn: schema.Round(warnThreshold, 6),
		},
	}
	return schema.Document{Results: results, Summary: summary}
}

// classify evaluates the classification rules in strict order; the first
// match wins and appends a reason documenting the comparison that fired.
func classify(comp scoring.ClauseComputation, highThreshold, warnThreshold, ambigGap float64, demotions map[string]bool) (string, []string) {
	reasons := make([]string, 0, len(comp.Reasons)+3)
	reasons = append(reasons, comp.Reasons...)
	confidence := comp.Confidence
	demoted := demotions[comp.ClauseID]

	if confidence >= highThreshold && !demoted {
		reasons = append(reasons, fmt.Sprintf("confidence >= HIGH (%.2f)", highThreshold))
		return schema.RiskFlagHigh, reasons
	}

	if confidence >= highThreshold && demoted {
		reasons = append(reasons,
			"demoted_high_without_critical",
			fmt.Sprintf("confidence >= HIGH (%.2f)", highThreshold),
			"demoted_to_WARN via calibration",
		)
		return schema.RiskFlagWarn, reasons
	}

	warnCutoff := warnThreshold + math.Max(ambigGap, 0)
	if confidence >= warnCutoff {
		reasons = append(reasons, fmt.Sprintf("confidence >= WARN (%.2f) with gap %.2f", warnThreshold, ambigGap))
		return schema.RiskFlagWarn, reasons
	}

	if confidence >= warnThreshold {
		reasons = append(reasons, fmt.Sprintf("within ambig window [%.2f, %.2f)", warnThreshold, warnCutoff))
		return schema.RiskFlagAmbig, reasons
	}

	reasons = append(reasons, fmt.Sprintf("confidence < WARN (%.2f)", warnThreshold))
	return schema.RiskFlagOK, reasons
}

func rate(count, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(count) / float64(denominator)
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
