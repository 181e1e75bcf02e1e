// Package scheduler executes reconciliation work items with bounded
// concurrency and aggregates their outcomes.
//
// Directory items are executed inline by the dispatch loop, in walk
// order, so a directory always exists before any file item inside it is
// handed to a worker. File items fan out to a fixed-size pool; their
// completion order carries no meaning. Every failure is collected — the
// caller refuses to commit unless the failure set is empty.
package scheduler

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/snapback/pkg/compare"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/types"
)

// Scheduler runs work items against a comparator with a fixed number of
// workers.
type Scheduler struct {
	workers    int
	comparator compare.Comparator
	reporter   types.Reporter
	log        zerolog.Logger
}

// Summary aggregates the outcome of one scheduling run.
type Summary struct {
	Linked      int
	Copied      int
	DirsCreated int
	Failures    []types.WorkResult
}

// Total returns the number of items that completed, failed or not.
func (s Summary) Total() int {
	return s.Linked + s.Copied + s.DirsCreated + len(s.Failures)
}

// OK reports whether every item succeeded.
func (s Summary) OK() bool { return len(s.Failures) == 0 }

// New creates a Scheduler. A non-positive worker count is clamped to one
// worker; a nil reporter is replaced by a no-op one.
func New(workers int, comparator compare.Comparator, reporter types.Reporter) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	if reporter == nil {
		reporter = types.NullReporter{}
	}
	return &Scheduler{
		workers:    workers,
		comparator: comparator,
		reporter:   reporter,
		log:        logging.GetLogger("scheduler"),
	}
}

// Run consumes items until the channel closes and returns the aggregated
// summary. When ctx is canceled no further file items are dispatched;
// items already handed to workers drain normally, since partially
// completed independent items are harmless in an uncommitted snapshot.
func (s *Scheduler) Run(ctx context.Context, items <-chan types.WorkItem) Summary {
	fileCh := make(chan types.WorkItem)
	resCh := make(chan types.WorkResult, s.workers)

	var wg sync.WaitGroup
	wg.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go func() {
			defer wg.Done()
			for item := range fileCh {
				resCh <- s.execute(item)
			}
		}()
	}

	// Dispatch loop. Runs mkdir items itself so the walk-order guarantee
	// (parent before child) becomes a completion guarantee.
	go func() {
		defer close(fileCh)
		for item := range items {
			if item.Kind == types.ItemDir {
				resCh <- s.execute(item)
				continue
			}
			select {
			case <-ctx.Done():
				s.log.Warn().Msg("canceled, no further items dispatched")
				return
			case fileCh <- item:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resCh)
	}()

	var summary Summary
	for res := range resCh {
		if res.Failed() {
			s.log.Error().Err(res.Err).Str("path", res.Item.Rel).Msg("work item failed")
			summary.Failures = append(summary.Failures, res)
		} else {
			switch res.Action {
			case types.ActionLinked:
				summary.Linked++
			case types.ActionCopied:
				summary.Copied++
			case types.ActionDirCreated:
				summary.DirsCreated++
			}
		}
		s.reporter.Completed(res)
	}
	return summary
}
