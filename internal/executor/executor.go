// Package executor implements the Deploy Executor: it submits one query job
// per file to the warehouse, classifies the resulting job, resolves the
// touched resource, and synchronizes metadata back to disk.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/bqport/bqport/internal/metasync"
	"github.com/bqport/bqport/internal/planner"
	"github.com/bqport/bqport/internal/resource"
	"github.com/bqport/bqport/internal/warehouse"
)

// UnsupportedStatement reports a statementType the executor has no
// resolution rule for.
type UnsupportedStatement struct {
	StatementType warehouse.StatementType
}

func (e *UnsupportedStatement) Error() string {
	return fmt.Sprintf("unsupported statement type: %s", e.StatementType)
}

// WarehouseRpc wraps a failed job submission, poll, or resource fetch.
type WarehouseRpc struct {
	Op  string
	Err error
}

func (e *WarehouseRpc) Error() string {
	return fmt.Sprintf("warehouse rpc %s: %v", e.Op, e.Err)
}

func (e *WarehouseRpc) Unwrap() error { return e.Err }

// Options configures an Executor.
type Options struct {
	Labels              map[string]string
	MaximumBytesBilled  int64
	Params              []warehouse.Param
	Logger              *slog.Logger
}

// Executor deploys FileJobs to a warehouse.Client.
type Executor struct {
	client warehouse.Client
	opts   Options
}

// New creates an Executor bound to client.
func New(client warehouse.Client, opts Options) *Executor {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{client: client, opts: opts}
}

// Deploy implements planner.DeployFunc.
func (e *Executor) Deploy(ctx context.Context, job planner.FileJob, dryRun bool) (string, error) {
	if job.File.IsView {
		return e.deployView(ctx, job, dryRun)
	}
	return e.deployStatement(ctx, job, dryRun)
}

func (e *Executor) deployView(ctx context.Context, job planner.FileJob, dryRun bool) (string, error) {
	dest := job.Destinations[0]
	sql := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS\n%s", dest.ID, job.File.SQL)

	if dryRun {
		return e.submitDryRun(ctx, job, sql)
	}

	id, err := resource.ParseReference(dest.ID, resource.KindView)
	if err != nil {
		return "", fmt.Errorf("invalid identifier %q: %w", dest.ID, err)
	}
	ds := e.client.Dataset(id.DatasetID())

	res, err := ds.Table(ctx, id.Name)
	if err != nil && !isNotFound(err) {
		return "", &WarehouseRpc{Op: "get view", Err: err}
	}
	if res == nil {
		res, err = ds.CreateView(ctx, id.Name, job.File.SQL)
		if err != nil {
			return "", &WarehouseRpc{Op: "create view", Err: err}
		}
	}

	e.syncMetadataIfOwned(job, res)
	return "view deployed", nil
}

func (e *Executor) submitDryRun(ctx context.Context, job planner.FileJob, sql string) (string, error) {
	jobObj, err := e.client.CreateQueryJob(ctx, warehouse.QueryConfig{
		SQL:                sql,
		Priority:           warehouse.PriorityBatch,
		Labels:             e.jobLabels(),
		JobIDPrefix:        jobIDPrefix(job),
		DryRun:             true,
		MaximumBytesBilled: e.opts.MaximumBytesBilled,
		Params:             e.opts.Params,
	})
	if err != nil {
		return "", &WarehouseRpc{Op: "submit dry-run query", Err: err}
	}
	meta, err := jobObj.Metadata(ctx)
	if err != nil {
		return "", &WarehouseRpc{Op: "fetch dry-run metadata", Err: err}
	}
	return fmt.Sprintf("estimated %s", humanize.Bytes(uint64(meta.TotalBytesBilled))), nil
}

func (e *Executor) deployStatement(ctx context.Context, job planner.FileJob, dryRun bool) (string, error) {
	if dryRun {
		return e.submitDryRun(ctx, job, job.File.SQL)
	}

	jobObj, err := e.client.CreateQueryJob(ctx, warehouse.QueryConfig{
		SQL:                job.File.SQL,
		Priority:           warehouse.PriorityBatch,
		Labels:             e.jobLabels(),
		JobIDPrefix:        jobIDPrefix(job),
		MaximumBytesBilled: e.opts.MaximumBytesBilled,
		Params:             e.opts.Params,
	})
	if err != nil {
		return "", &WarehouseRpc{Op: "submit query", Err: err}
	}

	if err := jobObj.Wait(ctx); err != nil {
		return "", err
	}

	meta, err := jobObj.Metadata(ctx)
	if err != nil {
		return "", &WarehouseRpc{Op: "fetch job metadata", Err: err}
	}
	if meta.ErrorResult != nil {
		return "", meta.ErrorResult
	}

	res, err := e.resolveResource(ctx, meta)
	if err != nil {
		return "", err
	}
	if res != nil {
		e.syncMetadataIfOwned(job, res)
	}

	if meta.TotalBytesProcessed > 0 {
		elapsed := meta.EndTime.Sub(meta.StartTime)
		return fmt.Sprintf("%s, %s", humanize.Bytes(uint64(meta.TotalBytesProcessed)), elapsed.Round(time.Millisecond)), nil
	}
	return "deployed", nil
}

// resolveResource implements the statementType -> resource resolution table.
func (e *Executor) resolveResource(ctx context.Context, meta *warehouse.JobMetadata) (*warehouse.Resource, error) {
	switch meta.StatementType {
	case warehouse.StatementScript:
		return e.resolveScriptResult(ctx, meta)
	case warehouse.StatementCreateSchema, warehouse.StatementDropSchema, warehouse.StatementAlterSchema:
		if meta.DDLTargetTable == nil {
			return nil, nil
		}
		return e.client.Dataset(meta.DDLTargetTable.DatasetID()).Get(ctx)
	case warehouse.StatementCreateFunction, warehouse.StatementCreateTableFunction,
		warehouse.StatementDropFunction, warehouse.StatementCreateProcedure, warehouse.StatementDropProcedure:
		if meta.DDLTargetRoutine == nil {
			return nil, nil
		}
		return fetchIgnoreNotFound(func() (*warehouse.Resource, error) {
			return e.client.Dataset(meta.DDLTargetRoutine.DatasetID()).Routine(ctx, meta.DDLTargetRoutine.Name)
		})
	case warehouse.StatementCreateTable, warehouse.StatementCreateView, warehouse.StatementCreateMV,
		warehouse.StatementCreateTableAsSelect, warehouse.StatementDropTable, warehouse.StatementDropView,
		warehouse.StatementDropMV, warehouse.StatementAlterTable, warehouse.StatementAlterView,
		warehouse.StatementInsert, warehouse.StatementUpdate, warehouse.StatementDelete, warehouse.StatementMerge:
		if meta.DDLTargetTable == nil {
			return nil, nil
		}
		return fetchIgnoreNotFound(func() (*warehouse.Resource, error) {
			return e.client.Dataset(meta.DDLTargetTable.DatasetID()).Table(ctx, meta.DDLTargetTable.Name)
		})
	case warehouse.StatementCreateRowAccessPolicy, warehouse.StatementDropRowAccessPolicy,
		warehouse.StatementCreateModel, warehouse.StatementExportModel:
		return nil, &UnsupportedStatement{StatementType: meta.StatementType}
	default:
		return nil, fmt.Errorf("%w: statistics=%v", &UnsupportedStatement{StatementType: meta.StatementType}, meta.Statistics)
	}
}

func (e *Executor) resolveScriptResult(ctx context.Context, meta *warehouse.JobMetadata) (*warehouse.Resource, error) {
	children, err := e.client.Jobs(ctx, meta.JobID)
	if err != nil {
		return nil, &WarehouseRpc{Op: "list child jobs", Err: err}
	}
	for _, child := range children {
		childMeta, err := child.Metadata(ctx)
		if err != nil {
			e.opts.Logger.Warn("failed to fetch child job metadata", "job", child.ID(), "error", err)
			continue
		}
		res, err := e.resolveResource(ctx, childMeta)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			var unsupported *UnsupportedStatement
			if errors.As(err, &unsupported) {
				continue
			}
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

func fetchIgnoreNotFound(get func() (*warehouse.Resource, error)) (*warehouse.Resource, error) {
	res, err := get()
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, &WarehouseRpc{Op: "get resource", Err: err}
	}
	return res, nil
}

func isNotFound(err error) bool {
	var nf *warehouse.NotFoundError
	return errors.As(err, &nf)
}

// syncMetadataIfOwned pushes the resolved resource's metadata to disk only
// when it matches the file's own owning directory, per the "push direction"
// rule: a SCRIPT's side effects on unrelated resources are not mirrored.
func (e *Executor) syncMetadataIfOwned(job planner.FileJob, res *warehouse.Resource) {
	if res.ID.String() != job.File.ID.String() {
		return
	}
	dir := filepath.Dir(job.File.Path)
	var columns []metasync.ColumnMetadata
	for _, c := range res.Columns {
		columns = append(columns, metasync.ColumnMetadata{Name: c.Name, Description: c.Description})
	}
	if err := metasync.Push(dir, res.Labels, res.Description, columns); err != nil {
		e.opts.Logger.Warn("metadata sync failed", "dir", dir, "error", err)
	}
}

func (e *Executor) jobLabels() map[string]string {
	labels := map[string]string{"bqport": "true"}
	for k, v := range e.opts.Labels {
		labels[k] = v
	}
	return labels
}

func jobIDPrefix(job planner.FileJob) string {
	return fmt.Sprintf("bqport-%s_%s-%s-", job.File.ID.Dataset, job.File.ID.Name, uuid.NewString()[:8])
}
