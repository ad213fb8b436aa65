// Package planner builds the dependency DAG across a set of discovered SQL
// files and attaches per-file tasks whose run condition awaits their
// predecessors, per the deployment planning procedure.
package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bqport/bqport/internal/dag"
	"github.com/bqport/bqport/internal/discovery"
	"github.com/bqport/bqport/internal/resource"
	"github.com/bqport/bqport/internal/sqlanalyze"
	"github.com/bqport/bqport/internal/task"
)

// Destination is a normalized identifier a file declares it deploys to.
type Destination struct {
	ID   string
	Kind resource.Kind
}

// FileJob is one file's planning record: the namespace it was discovered
// under, the dependencies it awaits, and the destinations it deploys to.
type FileJob struct {
	File         discovery.LocalFile
	Namespace    string
	Deps         []string
	Destinations []Destination
}

// DeployFunc invokes the Deploy Executor for one FileJob. DryRun controls
// whether it submits a dry-run query.
type DeployFunc func(ctx context.Context, job FileJob, dryRun bool) (string, error)

// Node is one DagNode: the ordered list of tasks at a namespace, run in
// insertion (intra-directory) order.
type Node struct {
	Namespace string
	Tasks     []*task.Task
}

// Plan is the result of a planning pass: the topo order of every namespace
// node (including dataset nodes added only as parents, which carry no
// file), the nodes keyed by namespace, and any non-fatal
// warnings collected along the way.
type Plan struct {
	Order    []string
	Nodes    map[string]*Node
	Warnings []string

	graph *dag.Graph
}

// Build plans files into a Plan. ambientProject pads references that name
// no project. deploy is invoked inside each file's task closure once all of
// its dependencies have reached a terminal state.
func Build(files []discovery.LocalFile, ambientProject string, dryRun bool, deploy DeployFunc) (*Plan, error) {
	jobs := make([]FileJob, 0, len(files))
	groups := map[string][]FileJob{}

	for _, f := range files {
		job := buildFileJob(f, ambientProject)
		jobs = append(jobs, job)
		groups[job.Namespace] = append(groups[job.Namespace], job)
	}

	g := dag.NewGraph()
	for _, job := range jobs {
		for _, dest := range job.Destinations {
			g.AddNode(dest.ID, dest.Kind)
		}
	}
	for _, job := range jobs {
		destSet := map[string]struct{}{}
		for _, dest := range job.Destinations {
			destSet[dest.ID] = struct{}{}
		}
		for _, dep := range job.Deps {
			if _, self := destSet[dep]; self {
				continue
			}
			if _, exists := g.GetNode(dep); !exists {
				g.AddNode(dep, resource.KindTable)
			}
			for _, dest := range job.Destinations {
				if dep == dest.ID {
					continue
				}
				if err := g.AddEdge(dep, dest.ID); err != nil {
					return nil, fmt.Errorf("building dependency graph: %w", err)
				}
			}
		}
	}

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("planning: %w", err)
	}

	plan := &Plan{Nodes: map[string]*Node{}, graph: g}

	for _, n := range order {
		node := &Node{Namespace: n.ID}
		for _, job := range groups[n.ID] {
			job := job
			t := task.New(taskName(job), nil)
			ownIndex := len(node.Tasks)
			node.Tasks = append(node.Tasks, t)
			attachWorker(t, job, node, plan, dryRun, deploy, ownIndex)
		}
		plan.Nodes[n.ID] = node
		plan.Order = append(plan.Order, n.ID)
	}

	plan.Warnings = collectWarnings(groups, g)

	return plan, nil
}

// Kind returns the resource kind registered for a DAG node id, if any.
func (p *Plan) Kind(id string) (resource.Kind, bool) {
	n, ok := p.graph.GetNode(id)
	if !ok {
		return "", false
	}
	kind, ok := n.Data.(resource.Kind)
	return kind, ok
}

// Deps returns the upstream node ids a namespace's node depends on directly.
func (p *Plan) Deps(id string) []string {
	return p.graph.GetParents(id)
}

func buildFileJob(f discovery.LocalFile, ambientProject string) FileJob {
	namespace := resource.Normalize(f.ID, ambientProject, f.ID.Name == "")

	analysis := sqlanalyze.Analyze(f.SQL)

	var destinations []Destination
	if f.IsView {
		destinations = []Destination{{ID: namespace, Kind: resource.KindView}}
	} else {
		for _, d := range analysis.Destinations {
			if d.Identifier == "" {
				// The load-bearing catch-all: no SQL-text target to parse, so
				// the destination is the file's own namespace.
				destinations = append(destinations, Destination{ID: namespace, Kind: d.Kind})
				continue
			}
			id, err := resource.ParseReference(d.Identifier, d.Kind)
			if err != nil {
				continue
			}
			destinations = append(destinations, Destination{
				ID:   resource.Normalize(id, ambientProject, false),
				Kind: d.Kind,
			})
		}
		destinations = dedupeDestinations(destinations)
	}

	destSet := map[string]struct{}{}
	for _, d := range destinations {
		destSet[d.ID] = struct{}{}
	}

	depSet := map[string]struct{}{}
	for _, ref := range analysis.References {
		id, err := resource.ParseReference(ref, resource.KindTable)
		if err != nil {
			continue
		}
		norm := resource.Normalize(id, ambientProject, false)
		if _, self := destSet[norm]; self {
			continue
		}
		depSet[norm] = struct{}{}
	}
	datasetID := resource.Normalize(f.ID.DatasetID(), ambientProject, true)
	if _, self := destSet[datasetID]; !self {
		depSet[datasetID] = struct{}{}
	}

	deps := make([]string, 0, len(depSet))
	for d := range depSet {
		deps = append(deps, d)
	}
	sort.Strings(deps)

	return FileJob{
		File:         f,
		Namespace:    namespace,
		Deps:         deps,
		Destinations: destinations,
	}
}

func dedupeDestinations(in []Destination) []Destination {
	seen := map[string]struct{}{}
	out := make([]Destination, 0, len(in))
	for _, d := range in {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	return out
}

func taskName(job FileJob) string {
	return strings.ReplaceAll(job.Namespace, ".", "/") + "/" + job.File.Path
}

// attachWorker wires t's worker to await every task of every dependency
// node, then every earlier task in its own node, before invoking deploy.
// ownIndex is t's position in node.Tasks, captured by the caller before this
// task's own worker can observe node.Tasks growing further.
func attachWorker(t *task.Task, job FileJob, node *Node, plan *Plan, dryRun bool, deploy DeployFunc, ownIndex int) {
	worker := func(ctx context.Context) (string, error) {
		for _, dep := range job.Deps {
			depNode, ok := plan.Nodes[dep]
			if !ok {
				continue // external reference, nothing to await
			}
			for _, predecessor := range depNode.Tasks {
				if err := awaitTask(ctx, predecessor); err != nil {
					return "", err
				}
			}
		}
		for i := 0; i < ownIndex; i++ {
			predecessor := node.Tasks[i]
			if err := awaitTask(ctx, predecessor); err != nil {
				return "", err
			}
		}
		return deploy(ctx, job, dryRun)
	}
	t.SetWorker(worker)
}

func awaitTask(ctx context.Context, t *task.Task) error {
	select {
	case <-t.Wait():
	case <-ctx.Done():
		return ctx.Err()
	}
	if t.Status() == task.StatusFailed {
		return fmt.Errorf("suspended: parent failed: %s", t.Name)
	}
	return nil
}

func collectWarnings(groups map[string][]FileJob, g *dag.Graph) []string {
	var warnings []string
	for namespace := range groups {
		if _, exists := g.GetNode(namespace); !exists {
			warnings = append(warnings, fmt.Sprintf("no deployment files: %s", namespace))
		}
	}
	for namespace, group := range groups {
		if _, exists := g.GetNode(namespace); !exists {
			continue
		}
		declaresSelf := false
		for _, job := range group {
			for _, d := range job.Destinations {
				if d.ID == namespace {
					declaresSelf = true
				}
			}
		}
		if !declaresSelf {
			warnings = append(warnings, fmt.Sprintf("no DDL file but target directory found: %s", namespace))
		}
	}
	sort.Strings(warnings)
	return warnings
}
