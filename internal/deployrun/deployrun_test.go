package deployrun

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bqport/bqport/internal/discovery"
	"github.com/bqport/bqport/internal/planner"
	"github.com/bqport/bqport/internal/resource"
)

func crossFileFiles() []discovery.LocalFile {
	return []discovery.LocalFile{
		{
			Path: "/r/@default/ds/a/ddl.sql",
			ID:   resource.ID{Project: "proj", Dataset: "ds", Name: "a", Kind: resource.KindTable},
			SQL:  "CREATE TABLE ds.a AS SELECT * FROM ds.b",
		},
		{
			Path: "/r/@default/ds/b/ddl.sql",
			ID:   resource.ID{Project: "proj", Dataset: "ds", Name: "b", Kind: resource.KindTable},
			SQL:  "CREATE TABLE ds.b (x INT64)",
		},
	}
}

func TestRunCompletesEveryTask(t *testing.T) {
	var mu sync.Mutex
	var deployed []string
	plan, err := planner.Build(crossFileFiles(), "proj", false, func(ctx context.Context, job planner.FileJob, dryRun bool) (string, error) {
		mu.Lock()
		deployed = append(deployed, job.Namespace)
		mu.Unlock()
		return "ok", nil
	})
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), plan))
	require.Len(t, deployed, 2)
}

// TestRunWithWrapDeployAtLimitOneDoesNotDeadlock reproduces the scenario
// where a dependent task (a) would occupy a worker slot while awaiting an
// independent one (b) if the concurrency limiter gated the whole task
// instead of just the deploy call.
func TestRunWithWrapDeployAtLimitOneDoesNotDeadlock(t *testing.T) {
	var deployed int32
	deploy := WrapDeploy(1, func(ctx context.Context, job planner.FileJob, dryRun bool) (string, error) {
		atomic.AddInt32(&deployed, 1)
		return "ok", nil
	})
	plan, err := planner.Build(crossFileFiles(), "proj", false, deploy)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- Run(context.Background(), plan) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run deadlocked with WrapDeploy limit of 1")
	}
	require.EqualValues(t, 2, deployed)
}

func TestWrapDeployBoundsConcurrentCalls(t *testing.T) {
	var current, max int32
	deploy := WrapDeploy(2, func(ctx context.Context, job planner.FileJob, dryRun bool) (string, error) {
		n := atomic.AddInt32(&current, 1)
		for {
			old := atomic.LoadInt32(&max)
			if n <= old || atomic.CompareAndSwapInt32(&max, old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return "ok", nil
	})

	files := make([]discovery.LocalFile, 0, 6)
	for i := 0; i < 6; i++ {
		name := string(rune('a' + i))
		files = append(files, discovery.LocalFile{
			Path: "/r/@default/ds/" + name + "/ddl.sql",
			ID:   resource.ID{Project: "proj", Dataset: "ds", Name: name, Kind: resource.KindTable},
			SQL:  "CREATE TABLE ds." + name + " (x INT64)",
		})
	}
	plan, err := planner.Build(files, "proj", false, deploy)
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), plan))
	require.LessOrEqual(t, int(max), 2)
}
