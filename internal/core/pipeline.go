// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"fmt"

	"clause-scan/internal/aggregate"
	"clause-scan/internal/engine"
	"clause-scan/internal/observability"
	"clause-scan/internal/schema"
	"clause-scan/internal/scoring"
)

// PipelineConfig holds the inputs for one scoring run.
type PipelineConfig struct {
	Clauses  []schema.Clause
	Ruleset  *schema.RulesetRuntime
	Policy   schema.Policy
	Workers  int
	Observer *observability.StandardObserver
}

// PipelineResult is the complete outcome of one run: the classification
// document, the intermediate consolidated hits, and the count of isolated
// matcher faults.
type PipelineResult struct {
	Document *schema.Document
	Hits     []schema.Hit
	Faults   int64
}

// Run executes the full pipeline shared by the CLI and the web server:
// matching, consolidation, scoring, batch calibration and aggregation. The
// run is a pure function of its inputs; no state survives between batches.
func Run(ctx context.Context, cfg PipelineConfig) (*PipelineResult, error) {
	if cfg.Ruleset == nil {
		return nil, fmt.Errorf("no ruleset supplied")
	}

	eng, err := engine.New(cfg.Ruleset,
		engine.WithWorkers(cfg.Workers),
		engine.WithObserver(cfg.Observer),
	)
	if err != nil {
		return nil, err
	}

	hits, err := eng.Execute(ctx, cfg.Clauses)
	if err != nil {
		return nil, fmt.Errorf("matching failed: %w", err)
	}

	computations := scoring.ScoreClauses(hits, cfg.Ruleset.RulesByID(), cfg.Policy)
	document := aggregate.New(cfg.Policy).Aggregate(computations)

	return &PipelineResult{
		Document: &document,
		Hits:     hits,
		Faults:   eng.FaultCount(),
	}, nil
}

// ScoreHits scores a precomputed hit list against a catalog, skipping the
// matching phase. Used when a previous run's hits are replayed under a new
// policy.
func ScoreHits(hits []schema.Hit, ruleset *schema.RulesetRuntime, policy schema.Policy) *schema.Document {
	rules := map[string]*schema.CompiledRule{}
	if ruleset != nil {
		rules = ruleset.RulesByID()
	}
	computations := scoring.ScoreClauses(hits, rules, policy)
	document := aggregate.New(policy).Aggregate(computations)
	return &document
}
