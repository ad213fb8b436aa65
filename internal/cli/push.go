package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bqport/bqport/internal/cli/output"
	"github.com/bqport/bqport/internal/deployrun"
	"github.com/bqport/bqport/internal/discovery"
	"github.com/bqport/bqport/internal/executor"
	"github.com/bqport/bqport/internal/planner"
	"github.com/bqport/bqport/internal/reconcile"
	"github.com/bqport/bqport/internal/report"
)

func newPushCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Deploy the SQL file tree and reconcile orphaned remote resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(cmd, flags)
		},
	}
}

func runPush(cmd *cobra.Command, flags *Flags) error {
	ctx := cmd.Context()
	logger := newLogger(flags)
	r, err := newRenderer(cmd, flags)
	if err != nil {
		return err
	}

	client, err := requireClient(ctx)
	if err != nil {
		return err
	}
	ambientProject, err := client.ProjectID(ctx)
	if err != nil {
		return fmt.Errorf("resolving ambient project: %w", err)
	}

	files, err := discovery.Walk(flags.RootPath, ambientProject)
	if err != nil {
		return fmt.Errorf("walking %s: %w", flags.RootPath, err)
	}
	if len(files) == 0 {
		r.Warning("no ddl.sql or view.sql files found under %s", flags.RootPath)
		return nil
	}

	labels, err := parseLabels(flags.Labels)
	if err != nil {
		return err
	}
	params, err := parseParameters(flags.Parameters)
	if err != nil {
		return err
	}

	exec := executor.New(client, executor.Options{
		Labels:              labels,
		MaximumBytesBilled:  flags.MaximumBytesBilled,
		Params:              params,
		Logger:              logger,
	})

	plan, err := planner.Build(files, ambientProject, flags.DryRun, deployrun.WrapDeploy(flags.Threads, exec.Deploy))
	if err != nil {
		return fmt.Errorf("planning deployment: %w", err)
	}
	for _, w := range plan.Warnings {
		r.Warning("%s", w)
	}

	var entries []report.Entry
	for _, ns := range plan.Order {
		for _, t := range plan.Nodes[ns].Tasks {
			entries = append(entries, report.Entry{Name: t.Name, Task: t})
		}
	}
	reporter := report.New(cmd.OutOrStdout(), entries)

	reportCtx, stopReport := context.WithCancel(ctx)
	reportDone := make(chan struct{})
	go func() {
		defer close(reportDone)
		if r.EffectiveMode() == output.ModeConsole {
			reporter.Run(reportCtx)
		}
	}()

	runErr := deployrun.Run(ctx, plan)
	stopReport()
	<-reportDone

	// Per-task failures are reported but do not fail the command: the spec
	// guarantees a non-zero exit only for planner errors (cycle, invalid
	// paths), not for individual deploy failures. runErr here would only be
	// set by context cancellation, not by a task's own error.
	failed := 0
	for _, entry := range entries {
		if entry.Task.Err() != nil {
			failed++
			logger.Error("deployment failed", "task", entry.Name, "error", entry.Task.Err())
		}
	}
	if failed > 0 {
		r.Warning("%d task(s) failed", failed)
	}
	if runErr != nil {
		return fmt.Errorf("deployment aborted: %w", runErr)
	}

	datasets := discovery.Datasets(files)
	rplan, err := reconcile.Build(ctx, client, datasets, files, reconcile.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("building reconciliation plan: %w", err)
	}
	if err := reconcile.Run(ctx, rplan, reconcile.Options{
		Force:  flags.Force,
		DryRun: flags.DryRun,
		Logger: logger,
	}); err != nil {
		return fmt.Errorf("reconciling orphans: %w", err)
	}

	r.Println("push complete")
	return nil
}
