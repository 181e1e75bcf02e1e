// Package backup orchestrates one snapshot run: preflight, reconcile,
// concurrent execution, the atomic commit gate, and post-commit cleanup.
package backup

import (
	"context"
	"time"

	"github.com/arthur-debert/snapback/pkg/compare"
	"github.com/arthur-debert/snapback/pkg/config"
	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/reconcile"
	"github.com/arthur-debert/snapback/pkg/retention"
	"github.com/arthur-debert/snapback/pkg/scheduler"
	"github.com/arthur-debert/snapback/pkg/store"
	"github.com/arthur-debert/snapback/pkg/types"
)

// Options configures one backup run.
type Options struct {
	// Source is the directory tree to snapshot.
	Source string

	// Root is the backup root that holds all snapshots.
	Root string

	// MaxAge enables post-commit retention when positive.
	MaxAge time.Duration

	// Workers is the size of the execution pool.
	Workers int

	// Hash selects the comparison strategy (config.HashBytes/HashXXH3).
	Hash string

	// DryRun plans and reports without touching the backup root.
	DryRun bool

	// Reporter receives progress signals; nil means none.
	Reporter types.Reporter
}

// Result describes a finished (or planned, for dry runs) backup.
type Result struct {
	SnapshotPath string
	BasePath     string
	Summary      scheduler.Summary
	RemovedTemp  []store.Snapshot
	RemovedOld   []store.Snapshot
	DryRun       bool
}

// Run performs one backup. On any aggregated work-item failure the
// temporary directory is left in place and no snapshot is committed.
func Run(opts Options) (*Result, error) {
	log := logging.GetLogger("backup")
	done := logging.LogOperationStart(log, "backup")
	defer done()

	if opts.Workers < 1 {
		opts.Workers = config.DefaultWorkers
	}
	if opts.Hash == "" {
		opts.Hash = config.HashBytes
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = types.NullReporter{}
	}

	comparator, err := compare.New(opts.Hash)
	if err != nil {
		return nil, err
	}

	st, err := store.New(opts.Root)
	if err != nil {
		return nil, err
	}

	finalPath, tmpPath, err := st.AllocateNames()
	if err != nil {
		return nil, err
	}

	base, err := st.FindLatestCompleted()
	if err != nil {
		return nil, err
	}
	basePath := ""
	if base != nil {
		basePath = base.Path
	}

	rec, err := reconcile.New(opts.Source, tmpPath, basePath)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("source", rec.Source()).
		Str("snapshot", finalPath).
		Str("base", basePath).
		Bool("dryRun", opts.DryRun).
		Msg("starting backup")

	total, err := rec.CountFiles()
	if err != nil {
		return nil, err
	}
	reporter.Start(total)

	result := &Result{
		SnapshotPath: finalPath,
		BasePath:     basePath,
		DryRun:       opts.DryRun,
	}

	if opts.DryRun {
		summary, err := plan(rec, comparator, reporter)
		reporter.Finish()
		if err != nil {
			return nil, err
		}
		result.Summary = summary
		return result, nil
	}

	summary, walkErr := execute(rec, comparator, reporter, opts.Workers)
	reporter.Finish()
	result.Summary = summary

	if walkErr != nil {
		return result, errors.Wrapf(walkErr, errors.ErrReconcileFailed,
			"source walk failed, leaving %s for inspection", tmpPath)
	}
	if !summary.OK() {
		first := summary.Failures[0]
		return result, errors.Wrapf(first.Err, errors.ErrReconcileFailed,
			"%d of %d items failed, refusing to commit, leaving %s for inspection",
			len(summary.Failures), summary.Total(), tmpPath)
	}

	if err := st.Commit(tmpPath, finalPath); err != nil {
		return result, err
	}

	// Cleanup runs strictly after a successful commit.
	if result.RemovedTemp, err = retention.CleanTemporary(st); err != nil {
		return result, err
	}
	if result.RemovedOld, err = retention.New(opts.MaxAge).Apply(st, time.Now().UTC()); err != nil {
		return result, err
	}

	return result, nil
}

// execute streams the reconciler's items into a scheduler pool and
// returns its summary plus any walk error. A walk error stops feeding
// new items; already dispatched ones drain.
func execute(rec *reconcile.Reconciler, comparator compare.Comparator, reporter types.Reporter, workers int) (scheduler.Summary, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items := make(chan types.WorkItem)
	var walkErr error
	go func() {
		defer close(items)
		walkErr = rec.Walk(func(item types.WorkItem) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case items <- item:
				return nil
			}
		})
	}()

	summary := scheduler.New(workers, comparator, reporter).Run(ctx, items)
	return summary, walkErr
}

// plan walks the tree and decides link-vs-copy without materializing
// anything. Comparison still reads full content, so the reported plan is
// the real one.
func plan(rec *reconcile.Reconciler, comparator compare.Comparator, reporter types.Reporter) (scheduler.Summary, error) {
	var summary scheduler.Summary
	err := rec.Walk(func(item types.WorkItem) error {
		res := types.WorkResult{Item: item}
		switch {
		case item.Kind == types.ItemDir:
			res.Action = types.ActionDirCreated
			summary.DirsCreated++
		case item.Base != "":
			equal, err := comparator.Equal(item.Base, item.Source)
			if err != nil {
				return err
			}
			if equal {
				res.Action = types.ActionLinked
				summary.Linked++
			} else {
				res.Action = types.ActionCopied
				summary.Copied++
			}
		default:
			res.Action = types.ActionCopied
			summary.Copied++
		}
		reporter.Completed(res)
		return nil
	})
	return summary, err
}
