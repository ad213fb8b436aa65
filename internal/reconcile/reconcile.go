// Package reconcile compares a dataset's remote inventory against the local
// file tree and plans deletion tasks for whatever the local tree no longer
// declares.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bqport/bqport/internal/discovery"
	"github.com/bqport/bqport/internal/resource"
	"github.com/bqport/bqport/internal/task"
	"github.com/bqport/bqport/internal/warehouse"
)

// Orphan is a remote resource no local file declares.
type Orphan struct {
	ID   resource.ID
	Kind resource.Kind
}

// Plan is the result of diffing one or more datasets' remote inventory
// against the local file tree.
type Plan struct {
	Orphans []Orphan
	Tasks   []*task.Task
}

// Confirmer prompts the operator to approve a non-dry-run, non-forced
// deletion plan. It returns true if the operator confirmed.
type Confirmer func(orphans []Orphan) (bool, error)

// Options configures a reconciliation pass.
type Options struct {
	Force  bool
	DryRun bool
	Logger *slog.Logger
	// Confirm overrides the default readline prompt, primarily for tests.
	Confirm Confirmer
}

// Build diffs each dataset named in datasets against client's remote
// inventory and the local files discovered under those datasets, then
// returns a Plan naming every orphan and one deletion Task per orphan.
// A Task's worker is not run here; call task.Run on each once the caller
// has decided (via Confirm, or Force) that deletion should proceed.
func Build(ctx context.Context, client warehouse.Client, datasets []resource.ID, files []discovery.LocalFile, opts Options) (*Plan, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	declared := map[resource.ID]struct{}{}
	for _, f := range files {
		declared[f.ID] = struct{}{}
	}

	var orphans []Orphan
	for _, dsID := range datasets {
		ds := client.Dataset(dsID)

		tables, err := ds.Tables(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing tables in %s: %w", dsID, err)
		}
		orphans = append(orphans, diffKind(tables, declared, resource.KindTable)...)

		routines, err := ds.Routines(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing routines in %s: %w", dsID, err)
		}
		orphans = append(orphans, diffKind(routines, declared, resource.KindRoutine)...)

		models, err := ds.Models(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing models in %s: %w", dsID, err)
		}
		orphans = append(orphans, diffKind(models, declared, resource.KindModel)...)
	}

	sort.Slice(orphans, func(i, j int) bool { return orphans[i].ID.String() < orphans[j].ID.String() })

	plan := &Plan{Orphans: orphans}
	for _, o := range orphans {
		o := o
		name := taskName(o)
		plan.Tasks = append(plan.Tasks, task.New(name, func(ctx context.Context) (string, error) {
			if opts.DryRun {
				return "would delete (dry-run)", nil
			}
			if err := client.Dataset(o.ID.DatasetID()).Delete(ctx, o.ID); err != nil {
				opts.Logger.Warn("deletion failed, leaving resource in place", "resource", o.ID.String(), "error", err)
				return "", err
			}
			return "deleted", nil
		}))
	}

	return plan, nil
}

func diffKind(remote []resource.ID, declared map[resource.ID]struct{}, kind resource.Kind) []Orphan {
	var out []Orphan
	for _, id := range remote {
		id.Kind = kind
		if _, ok := declared[id]; ok {
			continue
		}
		out = append(out, Orphan{ID: id, Kind: kind})
	}
	return out
}

func taskName(o Orphan) string {
	return fmt.Sprintf("%s/%s/(DELETE)/%s/%s", o.ID.Project, o.ID.Dataset, o.Kind, o.ID.Name)
}

// Run executes a Plan: if it has no orphans it is a no-op; otherwise it asks
// opts.Confirm (or Force) for authorization, then runs every deletion task
// concurrently and waits for them all to finish. Deletion failures are
// swallowed per-task (logged, not returned) since one failed delete should
// not block the others or the overall command from succeeding.
func Run(ctx context.Context, plan *Plan, opts Options) error {
	if len(plan.Orphans) == 0 {
		return nil
	}

	if !opts.Force && !opts.DryRun {
		confirm := opts.Confirm
		if confirm == nil {
			confirm = confirmViaReadline
		}
		ok, err := confirm(plan.Orphans)
		if err != nil {
			return fmt.Errorf("confirmation: %w", err)
		}
		if !ok {
			return nil
		}
	}

	if opts.DryRun {
		for _, t := range plan.Tasks {
			t.SetWorker(func(ctx context.Context) (string, error) {
				return "would delete (dry-run)", nil
			})
		}
	}

	for _, t := range plan.Tasks {
		go t.Run(ctx)
	}
	for _, t := range plan.Tasks {
		<-t.Wait()
	}
	return nil
}

func summarize(orphans []Orphan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following %d resource(s) will be deleted:\n", len(orphans))
	for _, o := range orphans {
		fmt.Fprintf(&b, "  - %s %s\n", o.Kind, o.ID.String())
	}
	return b.String()
}
