// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package schema

// Risk flags produced by classification.
const (
	RiskFlagHigh  = "HIGH"
	RiskFlagWarn  = "WARN"
	RiskFlagAmbig = "AMBIG"
	RiskFlagOK    = "OK"
)

// PerHitScore is one hit's weighted, penalty-adjusted contribution to a
// clause's confidence.
type PerHitScore struct {
	RuleID           string             `json:"rule_id" yaml:"rule_id"`
	Raw              float64            `json:"raw" yaml:"raw"`
	PenaltiesApplied map[string]float64 `json:"penalties_applied" yaml:"penalties_applied"`
	MatchType        string             `json:"match_type" yaml:"match_type"`
	Strength         float64            `json:"strength" yaml:"strength"`
	Weight           float64            `json:"weight" yaml:"weight"`
	Adjusted         float64            `json:"adjusted" yaml:"adjusted"`
}

// ClauseMetadata aggregates rule-level attributes across a clause's hits.
type ClauseMetadata struct {
	Flags            map[string]bool `json:"flags" yaml:"flags"`
	MaxPriority      int             `json:"max_priority" yaml:"max_priority"`
	Severities       []string        `json:"severities" yaml:"severities"`
	ScopeSpecificity int             `json:"scope_specificity" yaml:"scope_specificity"`
}

// ClauseScore is the final per-clause output: confidence, classification and
// the full scoring explanation. Field names and nesting are a compatibility
// surface for downstream evaluation tooling.
type ClauseScore struct {
	ClauseID        string         `json:"clause_id" yaml:"clause_id"`
	Confidence      float64        `json:"confidence" yaml:"confidence"`
	RiskFlag        string         `json:"risk_flag" yaml:"risk_flag"`
	Reasons         []string       `json:"reasons" yaml:"reasons"`
	AdoptedRules    []string       `json:"adopted_rules" yaml:"adopted_rules"`
	SuppressedRules []string       `json:"suppressed_rules" yaml:"suppressed_rules"`
	PerHitScores    []PerHitScore  `json:"per_hit_scores" yaml:"per_hit_scores"`
	Metadata        ClauseMetadata `json:"metadata" yaml:"metadata"`
}

// ThresholdsApplied records the threshold values a batch was classified with:
// the calibrated WARN and the static HIGH.
type ThresholdsApplied struct {
	High float64 `json:"HIGH" yaml:"HIGH"`
	Warn float64 `json:"WARN" yaml:"WARN"`
}

// Summary is the batch-level statistics block. Warn, high and ok rates are
// computed over WARN+HIGH+OK only; ambiguous clauses are abstentions with
// their own rate over all four buckets.
type Summary struct {
	WarnRate          float64           `json:"warn_rate" yaml:"warn_rate"`
	HighRate          float64           `json:"high_rate" yaml:"high_rate"`
	OKRate            float64           `json:"ok_rate" yaml:"ok_rate"`
	AmbigRate         float64           `json:"ambig_rate" yaml:"ambig_rate"`
	ThresholdsApplied ThresholdsApplied `json:"thresholds_applied" yaml:"thresholds_applied"`
}

// Document is the complete batch output: one ClauseScore per scored clause
// plus the summary block.
type Document struct {
	Results []ClauseScore `json:"results" yaml:"results"`
	Summary Summary       `json:"summary" yaml:"summary"`
}
