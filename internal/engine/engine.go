// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"clause-scan/internal/matchers"
	"clause-scan/internal/observability"
	"clause-scan/internal/parallel"
	"clause-scan/internal/schema"
)

// matchFunc is the common shape of the three matcher kinds.
type matchFunc func(clause *schema.Clause, rule *schema.CompiledRule) []schema.MatchEvidence

// Engine fans clause/rule pairs out across the three matchers and
// consolidates the resulting evidence into one Hit per (rule, clause) pair.
// Matchers are compiled once per batch from the rule catalog; pattern
// compilation failures surface here, before any matching begins.
type Engine struct {
	runtime  *schema.RulesetRuntime
	matchers []namedMatcher
	pool     *parallel.Processor
	observer *observability.StandardObserver

	// count of matcher invocations that panicked and were isolated
	faults atomic.Int64
}

type namedMatcher struct {
	name  string
	match matchFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the clause-level parallelism.
func WithWorkers(workers int) Option {
	return func(e *Engine) { e.pool = parallel.NewProcessor(workers) }
}

// WithObserver attaches an observer for timing and fault metrics.
func WithObserver(observer *observability.StandardObserver) Option {
	return func(e *Engine) { e.observer = observer }
}

// New builds an engine for the given catalog.
func New(runtime *schema.RulesetRuntime, opts ...Option) (*Engine, error) {
	syntax, err := matchers.NewSyntaxMatcher(runtime)
	if err != nil {
		return nil, fmt.Errorf("catalog build failed: %w", err)
	}
	lexical := matchers.NewLexicalMatcher(runtime)
	numeric := matchers.NewNumericMatcher(runtime)

	e := &Engine{
		runtime: runtime,
		matchers: []namedMatcher{
			{name: "lexical", match: lexical.Match},
			{name: "syntax", match: syntax.Match},
			{name: "numeric", match: numeric.Match},
		},
		pool: parallel.NewProcessor(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// FaultCount reports how many matcher invocations were isolated after a
// runtime failure during the most recent Execute call.
func (e *Engine) FaultCount() int64 {
	return e.faults.Load()
}

// Execute runs every active, in-scope rule against every clause and returns
// the consolidated hits sorted by (priority desc, strength desc, rule_id
// asc, clause_id asc). The ordering is a contract: identical inputs produce
// byte-identical output.
func (e *Engine) Execute(ctx context.Context, clauses []schema.Clause) ([]schema.Hit, error) {
	var finish func(bool, map[string]interface{})
	if e.observer != nil {
		finish = e.observer.StartTiming("engine", "execute", "")
	}
	e.faults.Store(0)

	perClause := make([][]schema.MatchEvidence, len(clauses))
	err := e.pool.Run(ctx, len(clauses), func(_ context.Context, index int) error {
		perClause[index] = e.matchClause(&clauses[index])
		return nil
	})
	if err != nil {
		if finish != nil {
			finish(false, map[string]interface{}{"error": err.Error()})
		}
		return nil, err
	}

	hits := e.consolidateAll(perClause)
	if finish != nil {
		finish(true, map[string]interface{}{
			"clause_count": len(clauses),
			"hit_count":    len(hits),
			"fault_count":  e.faults.Load(),
		})
	}
	return hits, nil
}

// matchClause runs all matchers for every active, in-scope rule against one
// clause. Evidence order is deterministic: catalog rule order, then matcher
// order.
func (e *Engine) matchClause(clause *schema.Clause) []schema.MatchEvidence {
	var evidences []schema.MatchEvidence
	for i := range e.runtime.Rules {
		rule := &e.runtime.Rules[i]
		if !rule.IsActive() || !rule.AppliesTo(clause) {
			continue
		}
		for _, matcher := range e.matchers {
			evidences = append(evidences, e.runMatcher(matcher, clause, rule)...)
		}
	}
	return evidences
}

// runMatcher invokes one matcher with fault isolation: a runtime panic is
// recovered and degrades to no evidence without aborting the batch.
func (e *Engine) runMatcher(m namedMatcher, clause *schema.Clause, rule *schema.CompiledRule) (evidences []schema.MatchEvidence) {
	defer func() {
		if r := recover(); r != nil {
			e.faults.Add(1)
			if e.observer != nil {
				e.observer.RecordFault(m.name+"_matcher", rule.RuleID, clause.ID, fmt.Sprint(r))
			}
			evidences = nil
		}
	}()
	return m.match(clause, rule)
}

// consolidateAll groups evidence by (rule, clause) in first-seen order,
// consolidates each group into a Hit and applies the output ordering.
func (e *Engine) consolidateAll(perClause [][]schema.MatchEvidence) []schema.Hit {
	type key struct{ ruleID, clauseID string }
	grouped := map[key][]schema.MatchEvidence{}
	var order []key
	for _, evidences := range perClause {
		for _, evidence := range evidences {
			k := key{evidence.RuleID, evidence.ClauseID}
			if _, seen := grouped[k]; !seen {
				order = append(order, k)
			}
			grouped[k] = append(grouped[k], evidence)
		}
	}

	hits := make([]schema.Hit, 0, len(order))
	for _, k := range order {
		rule := e.runtime.RuleByID(k.ruleID)
		if rule == nil {
			continue
		}
		if hit, ok := consolidate(k.clauseID, rule, grouped[k]); ok {
			hits = append(hits, hit)
		}
	}

	priorities := map[string]int{}
	for i := range e.runtime.Rules {
		priorities[e.runtime.Rules[i].RuleID] = e.runtime.Rules[i].Priority
	}
	sort.SliceStable(hits, func(i, j int) bool {
		pi, pj := priorities[hits[i].RuleID], priorities[hits[j].RuleID]
		if pi != pj {
			return pi > pj
		}
		if hits[i].Strength != hits[j].Strength {
			return hits[i].Strength > hits[j].Strength
		}
		if hits[i].RuleID != hits[j].RuleID {
			return hits[i].RuleID < hits[j].RuleID
		}
		return hits[i].ClauseID < hits[j].ClauseID
	})
	return hits
}
