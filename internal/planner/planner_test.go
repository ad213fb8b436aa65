package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/bqport/bqport/internal/dag"
	"github.com/bqport/bqport/internal/discovery"
	"github.com/bqport/bqport/internal/resource"
)

func file(path, dataset, name, sql string, isView bool) discovery.LocalFile {
	kind := resource.KindTable
	if name == "" {
		kind = resource.KindSchema
	}
	return discovery.LocalFile{
		Path:   path,
		ID:     resource.ID{Project: "proj", Dataset: dataset, Name: name, Kind: kind},
		SQL:    sql,
		IsView: isView,
	}
}

func TestBuildTrivialSingleFile(t *testing.T) {
	files := []discovery.LocalFile{
		file("/r/@default/ds/tbl/ddl.sql", "ds", "tbl", "CREATE TABLE ds.tbl (x INT64)", false),
	}

	var deployed []string
	plan, err := Build(files, "proj", false, func(ctx context.Context, job FileJob, dryRun bool) (string, error) {
		deployed = append(deployed, job.Namespace)
		return "12 bytes, 4ms", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Order) != 2 {
		t.Fatalf("expected 2 namespaces (dataset + table), got %v", plan.Order)
	}
	if plan.Order[0] != "proj.ds" || plan.Order[1] != "proj.ds.tbl" {
		t.Fatalf("unexpected order: %v", plan.Order)
	}

	runAll(t, plan)

	if len(deployed) != 1 || deployed[0] != "proj.ds.tbl" {
		t.Fatalf("expected exactly one deploy of proj.ds.tbl, got %v", deployed)
	}
}

func TestBuildCrossFileDependencyOrdersBeforeA(t *testing.T) {
	files := []discovery.LocalFile{
		file("/r/@default/ds/a/ddl.sql", "ds", "a", "CREATE TABLE ds.a AS SELECT * FROM ds.b", false),
		file("/r/@default/ds/b/ddl.sql", "ds", "b", "CREATE TABLE ds.b (x INT64)", false),
	}

	var order []string
	plan, err := Build(files, "proj", false, func(ctx context.Context, job FileJob, dryRun bool) (string, error) {
		order = append(order, job.Namespace)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runAll(t, plan)

	posA, posB := indexOf(order, "proj.ds.a"), indexOf(order, "proj.ds.b")
	if posA < 0 || posB < 0 || posB > posA {
		t.Fatalf("expected proj.ds.b to deploy before proj.ds.a, got %v", order)
	}
}

func TestBuildCycleFailsWithResidualNodes(t *testing.T) {
	files := []discovery.LocalFile{
		file("/r/@default/ds/x/ddl.sql", "ds", "x", "CREATE TABLE ds.x AS SELECT * FROM ds.y", false),
		file("/r/@default/ds/y/ddl.sql", "ds", "y", "CREATE TABLE ds.y AS SELECT * FROM ds.x", false),
	}

	_, err := Build(files, "proj", false, func(ctx context.Context, job FileJob, dryRun bool) (string, error) {
		return "ok", nil
	})
	if err == nil {
		t.Fatal("expected cycle error")
	}
	var cd *dag.CycleDetected
	if !errors.As(err, &cd) {
		t.Fatalf("expected a wrapped *dag.CycleDetected, got %v", err)
	}
}

func TestBuildViewSpecialCase(t *testing.T) {
	files := []discovery.LocalFile{
		file("/r/@default/ds/foo/view.sql", "ds", "foo", "SELECT 1", true),
	}

	var deployed bool
	plan, err := Build(files, "proj", true, func(ctx context.Context, job FileJob, dryRun bool) (string, error) {
		deployed = true
		if !dryRun {
			t.Fatal("expected dry-run propagated to deploy func")
		}
		if len(job.Destinations) != 1 {
			t.Fatalf("expected exactly one destination, got %+v", job.Destinations)
		}
		return "estimated bytes", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runAll(t, plan)

	if !deployed {
		t.Fatal("expected view.sql to be deployed")
	}
}

func runAll(t *testing.T, plan *Plan) {
	t.Helper()
	ctx := context.Background()
	for _, ns := range plan.Order {
		for _, tk := range plan.Nodes[ns].Tasks {
			go tk.Run(ctx)
		}
	}
	for _, ns := range plan.Order {
		for _, tk := range plan.Nodes[ns].Tasks {
			<-tk.Wait()
		}
	}
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
