// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Processor distributes independent per-clause jobs across a bounded set of
// workers. Jobs share no mutable state: each job writes only its own result
// slot, so the caller can merge results deterministically in input order.
type Processor struct {
	workers int
}

// NewProcessor creates a processor with the given parallelism. Zero or
// negative selects the number of CPUs.
func NewProcessor(workers int) *Processor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Processor{workers: workers}
}

// Workers returns the configured parallelism.
func (p *Processor) Workers() int {
	return p.workers
}

// Run executes fn for every index in [0, count). Cancellation is checked
// between units of work: once the context is done no new jobs start, and the
// context error is returned. Partial results written by completed jobs
// remain valid.
func (p *Processor) Run(ctx context.Context, count int, fn func(ctx context.Context, index int) error) error {
	if count == 0 {
		return ctx.Err()
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers)
	for index := 0; index < count; index++ {
		if groupCtx.Err() != nil {
			break
		}
		index := index
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			return fn(groupCtx, index)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	// The group context is always canceled once Wait returns; only the
	// caller's context decides whether the batch was cut short.
	return ctx.Err()
}
