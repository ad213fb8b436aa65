// Package deployrun drives a planner.Plan's tasks to completion. Dependency
// awaits live inside each task's own closure (see package planner), so
// every task is started unbounded here; WrapDeploy is the single
// concurrency-limiting point, gating the warehouse-touching portion of a
// task rather than the whole task, so a task blocked awaiting a dependency
// never occupies a worker slot another, independent task needs to even
// start running.
package deployrun

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/bqport/bqport/internal/planner"
)

// WrapDeploy bounds concurrent invocations of deploy to limit. limit <= 0
// means unbounded, returning deploy unchanged.
func WrapDeploy(limit int, deploy planner.DeployFunc) planner.DeployFunc {
	if limit <= 0 {
		return deploy
	}
	sem := semaphore.NewWeighted(int64(limit))
	return func(ctx context.Context, job planner.FileJob, dryRun bool) (string, error) {
		if err := sem.Acquire(ctx, 1); err != nil {
			return "", err
		}
		defer sem.Release(1)
		return deploy(ctx, job, dryRun)
	}
}

// Run starts every task in plan and blocks until all of them reach a
// terminal state or ctx is cancelled. It returns ctx's error when ctx was
// cancelled; a task's own failure is recorded on that task, not returned.
func Run(ctx context.Context, plan *planner.Plan) error {
	eg, egctx := errgroup.WithContext(ctx)

	for _, ns := range plan.Order {
		for _, t := range plan.Nodes[ns].Tasks {
			t := t
			eg.Go(func() error {
				t.Run(egctx)
				return nil
			})
		}
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
