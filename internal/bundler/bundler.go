// Package bundler concatenates a file tree's SQL into a single topologically
// ordered script, for the bundle command.
package bundler

import (
	"context"
	"fmt"
	"strings"

	"github.com/bqport/bqport/internal/discovery"
	"github.com/bqport/bqport/internal/planner"
)

// Result is a built bundle: the concatenated script and any warnings the
// planning pass collected along the way (e.g. orphan directories).
type Result struct {
	Script   string
	Warnings []string
}

// noopDeploy satisfies planner.DeployFunc for a planning-only pass: the
// bundle command never touches the warehouse, it only needs the plan's
// topological order.
func noopDeploy(ctx context.Context, job planner.FileJob, dryRun bool) (string, error) {
	return "", nil
}

// Build concatenates files' SQL in dependency order, separated by a banner
// naming each file's resource id and path.
func Build(files []discovery.LocalFile, ambientProject string) (*Result, error) {
	byNamespace := map[string][]discovery.LocalFile{}
	for _, f := range files {
		byNamespace[namespaceOf(f, ambientProject)] = append(byNamespace[namespaceOf(f, ambientProject)], f)
	}

	plan, err := planner.Build(files, ambientProject, true, noopDeploy)
	if err != nil {
		return nil, fmt.Errorf("planning bundle order: %w", err)
	}

	var b strings.Builder
	for _, ns := range plan.Order {
		for _, f := range byNamespace[ns] {
			fmt.Fprintf(&b, "-- %s (%s)\n", ns, f.Path)
			b.WriteString(strings.TrimRight(f.SQL, "\n"))
			b.WriteString(";\n\n")
		}
	}

	return &Result{Script: b.String(), Warnings: plan.Warnings}, nil
}

func namespaceOf(f discovery.LocalFile, ambientProject string) string {
	project := f.ID.Project
	if project == "" {
		project = ambientProject
	}
	if f.ID.Name == "" {
		return fmt.Sprintf("%s.%s", project, f.ID.Dataset)
	}
	return fmt.Sprintf("%s.%s.%s", project, f.ID.Dataset, f.ID.Name)
}
