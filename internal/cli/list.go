package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bqport/bqport/internal/cli/output"
	"github.com/bqport/bqport/internal/discovery"
	"github.com/bqport/bqport/internal/planner"
)

func newListCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the resources a push would deploy, in dependency order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, flags)
		},
	}
}

// resourceLine is one row of `list`'s output, in both text and JSON mode.
type resourceLine struct {
	Namespace string   `json:"namespace"`
	Kind      string   `json:"kind"`
	Deps      []string `json:"deps,omitempty"`
}

func runList(cmd *cobra.Command, flags *Flags) error {
	ctx := cmd.Context()
	r, err := newRenderer(cmd, flags)
	if err != nil {
		return err
	}

	ambientProject := "@default"
	if client, cerr := requireClient(ctx); cerr == nil {
		if p, perr := client.ProjectID(ctx); perr == nil {
			ambientProject = p
		}
	}

	files, err := discovery.Walk(flags.RootPath, ambientProject)
	if err != nil {
		return fmt.Errorf("walking %s: %w", flags.RootPath, err)
	}

	plan, err := planner.Build(files, ambientProject, true, noopPlannerDeploy)
	if err != nil {
		return fmt.Errorf("planning: %w", err)
	}

	lines := make([]resourceLine, 0, len(plan.Order))
	for _, ns := range plan.Order {
		kind, _ := plan.Kind(ns)
		lines = append(lines, resourceLine{
			Namespace: ns,
			Kind:      string(kind),
			Deps:      plan.Deps(ns),
		})
	}

	if r.EffectiveMode() != output.ModeConsole {
		return r.JSON(lines)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"NAMESPACE", "KIND", "DEPENDS ON"})
	for _, line := range lines {
		t.AppendRow(table.Row{line.Namespace, line.Kind, strings.Join(line.Deps, ", ")})
	}
	t.Render()
	return nil
}

func noopPlannerDeploy(_ context.Context, _ planner.FileJob, _ bool) (string, error) {
	return "", nil
}
