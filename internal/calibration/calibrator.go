// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package calibration

import (
	"math"

	"clause-scan/internal/schema"
)

// Clause is the minimal per-clause view the calibrator needs: a finalized
// confidence and the aggregated flags used for demotion decisions.
type Clause struct {
	ClauseID   string
	Confidence float64
	Flags      map[string]bool
}

// Result is the calibration outcome: the WARN threshold to apply uniformly
// across the batch and the set of clause ids demoted from HIGH to WARN.
type Result struct {
	WarnThreshold float64
	Demotions     map[string]bool
}

// Calibrator searches for a WARN threshold whose resulting warn rate is as
// close as possible to the policy's target, within [min_warn, max_warn].
type Calibrator struct {
	settings schema.CalibrationSettings
}

// New returns a calibrator for the given settings.
func New(settings schema.CalibrationSettings) *Calibrator {
	return &Calibrator{settings: settings}
}

// Calibrate picks the WARN threshold and, when demotion is enabled, marks
// every clause at or above HIGH that does not carry the critical flag.
// Degenerate batches skip the demotion pass along with the threshold
// search: disabled calibration returns the base threshold and no demotions.
func (c *Calibrator) Calibrate(clauses []Clause, thresholds schema.Thresholds) Result {
	result := Result{
		WarnThreshold: c.chooseWarnThreshold(clauses, thresholds),
		Demotions:     map[string]bool{},
	}
	if c.degenerate(clauses) {
		return result
	}
	if c.settings.DemoteHighToWarn {
		result.Demotions = c.findDemotions(clauses, thresholds.High)
	}
	return result
}

// degenerate reports whether the batch bypasses calibration entirely:
// calibration disabled, no clauses, or inverted bounds.
func (c *Calibrator) degenerate(clauses []Clause) bool {
	return !c.settings.Enable || len(clauses) == 0 || c.settings.MinWarn >= c.settings.MaxWarn
}

// chooseWarnThreshold evaluates a candidate set built from the policy values
// and every sub-HIGH clause confidence (plus an epsilon just above it), and
// selects the candidate minimizing the lexicographic tuple
// (|warn_rate - target|, |candidate - base|, candidate). Degenerate inputs
// (calibration disabled, no clauses, or inverted bounds) fall back to the
// clamped base threshold.
func (c *Calibrator) chooseWarnThreshold(clauses []Clause, thresholds schema.Thresholds) float64 {
	baseWarn := thresholds.Warn
	minWarn := c.settings.MinWarn
	maxWarn := c.settings.MaxWarn
	if c.degenerate(clauses) {
		return clamp(baseWarn, minWarn, maxWarn)
	}

	baseWarn = clamp(baseWarn, minWarn, maxWarn)
	candidates := []float64{baseWarn, minWarn, maxWarn}
	for _, clause := range clauses {
		if clause.Confidence >= thresholds.High {
			continue
		}
		candidates = append(candidates,
			clamp(clause.Confidence, minWarn, maxWarn),
			clamp(clause.Confidence+1e-6, minWarn, maxWarn),
		)
	}

	// dedupe at 6-decimal precision, first occurrence wins
	seen := map[int64]bool{}
	unique := candidates[:0]
	for _, candidate := range candidates {
		key := int64(math.Round(candidate * 1e6))
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, candidate)
	}

	target := c.settings.TargetWarnRate
	bestThreshold := baseWarn
	bestDistance := math.Inf(1)
	bestJitter := math.Inf(1)
	bestCandidate := math.Inf(1)

	for _, candidate := range unique {
		rate := warnRate(clauses, candidate, thresholds.High, thresholds.AmbigGap)
		distance := math.Abs(rate - target)
		jitter := math.Abs(candidate - baseWarn)
		if less(distance, jitter, candidate, bestDistance, bestJitter, bestCandidate) {
			bestDistance, bestJitter, bestCandidate = distance, jitter, candidate
			bestThreshold = candidate
		}
	}
	return clamp(bestThreshold, minWarn, maxWarn)
}

func (c *Calibrator) findDemotions(clauses []Clause, highThreshold float64) map[string]bool {
	demotions := map[string]bool{}
	for _, clause := range clauses {
		if clause.Confidence < highThreshold {
			continue
		}
		if !clause.Flags[c.settings.CriticalFlag] {
			demotions[clause.ClauseID] = true
		}
	}
	return demotions
}

// warnRate computes the hypothetical WARN share if the batch were classified
// with the candidate threshold. Ambiguous clauses (inside the gap) count as
// OK here, mirroring their exclusion from the final warn rate.
func warnRate(clauses []Clause, warnThreshold, highThreshold, ambigGap float64) float64 {
	warn, high, ok := 0, 0, 0
	warnCutoff := warnThreshold + math.Max(ambigGap, 0)
	for _, clause := range clauses {
		switch {
		case clause.Confidence >= highThreshold:
			high++
		case clause.Confidence >= warnCutoff:
			warn++
		default:
			ok++
		}
	}
	denominator := warn + high + ok
	if denominator == 0 {
		return 0
	}
	return float64(warn) / float64(denominator)
}

// less compares (d1, j1, c1) < (d2, j2, c2) lexicographically.
func less(d1, j1, c1, d2, j2, c2 float64) bool {
	if d1 != d2 {
		return d1 < d2
	}
	if j1 != j2 {
		return j1 < j2
	}
	return c1 < c2
}

// clamp bounds value into [lower, upper], passing it through unchanged when
// the bounds are inverted.
func clamp(value, lower, upper float64) float64 {
	if lower > upper {
		return value
	}
	return math.Max(lower, math.Min(value, upper))
}
