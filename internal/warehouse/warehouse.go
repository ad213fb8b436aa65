// Package warehouse declares the pluggable interface the Deploy Executor and
// Reconciliation Planner consume to talk to the remote cloud warehouse. No
// implementation lives here: wiring a concrete BigQuery (or compatible)
// client is an external concern, matching the project's treatment of the
// warehouse client as an out-of-scope collaborator.
package warehouse

import (
	"context"
	"time"

	"github.com/bqport/bqport/internal/resource"
)

// Priority is the job priority requested at submission time.
type Priority string

const (
	PriorityBatch       Priority = "BATCH"
	PriorityInteractive Priority = "INTERACTIVE"
)

// Param is one query parameter. An empty Name means positional.
type Param struct {
	Name  string
	Type  string // "INTEGER", "STRING" or "NULL"; a "NULL" param carries Value == nil
	Value any
}

// QueryConfig configures a submitted query job.
type QueryConfig struct {
	SQL                 string
	Priority            Priority
	Labels              map[string]string
	JobIDPrefix         string
	DryRun              bool
	MaximumBytesBilled  int64
	Params              []Param
}

// StatementType mirrors the warehouse's classification of a completed job,
// used by the executor to resolve which resource a job touched.
type StatementType string

// Statement types the executor understands. Unlisted types fall to the
// default branch of the resolution table.
const (
	StatementScript              StatementType = "SCRIPT"
	StatementCreateSchema        StatementType = "CREATE_SCHEMA"
	StatementDropSchema          StatementType = "DROP_SCHEMA"
	StatementAlterSchema         StatementType = "ALTER_SCHEMA"
	StatementCreateFunction      StatementType = "CREATE_FUNCTION"
	StatementCreateTableFunction StatementType = "CREATE_TABLE_FUNCTION"
	StatementDropFunction        StatementType = "DROP_FUNCTION"
	StatementCreateProcedure     StatementType = "CREATE_PROCEDURE"
	StatementDropProcedure       StatementType = "DROP_PROCEDURE"
	StatementCreateTable         StatementType = "CREATE_TABLE"
	StatementCreateView          StatementType = "CREATE_VIEW"
	StatementCreateMV            StatementType = "CREATE_MATERIALIZED_VIEW"
	StatementCreateTableAsSelect StatementType = "CREATE_TABLE_AS_SELECT"
	StatementDropTable           StatementType = "DROP_TABLE"
	StatementDropView            StatementType = "DROP_VIEW"
	StatementDropMV              StatementType = "DROP_MATERIALIZED_VIEW"
	StatementAlterTable          StatementType = "ALTER_TABLE"
	StatementAlterView           StatementType = "ALTER_VIEW"
	StatementInsert              StatementType = "INSERT"
	StatementUpdate              StatementType = "UPDATE"
	StatementDelete              StatementType = "DELETE"
	StatementMerge               StatementType = "MERGE"
	StatementCreateRowAccessPolicy StatementType = "CREATE_ROW_ACCESS_POLICY"
	StatementDropRowAccessPolicy   StatementType = "DROP_ROW_ACCESS_POLICY"
	StatementCreateModel         StatementType = "CREATE_MODEL"
	StatementExportModel         StatementType = "EXPORT_MODEL"
)

// JobMetadata is the terminal state of a completed or errored job.
type JobMetadata struct {
	JobID               string
	ParentJobID         string
	StatementType       StatementType
	DDLTargetTable      *resource.ID
	DDLTargetRoutine    *resource.ID
	TotalBytesProcessed int64
	TotalBytesBilled    int64 // estimated, for a dry-run job
	StartTime           time.Time
	EndTime             time.Time
	ErrorResult         error
	Statistics          map[string]any
}

// Job is a submitted query job.
type Job interface {
	ID() string
	// Wait blocks until the job reaches a terminal state and returns its
	// ErrorResult, if any, as a Go error.
	Wait(ctx context.Context) error
	Metadata(ctx context.Context) (*JobMetadata, error)
}

// ColumnMeta is one column's synchronizable metadata.
type ColumnMeta struct {
	Name        string
	Description string
}

// Resource is a fetched warehouse object's synchronizable state.
type Resource struct {
	ID          resource.ID
	Labels      map[string]string
	Description string
	Columns     []ColumnMeta
}

// NotFoundError reports that a GET against the warehouse found nothing,
// analogous to the underlying client's 404.
type NotFoundError struct {
	ID resource.ID
}

func (e *NotFoundError) Error() string {
	return "resource not found: " + e.ID.String()
}

// Dataset scopes table/routine/model operations to one dataset.
type Dataset interface {
	ID() resource.ID
	Exists(ctx context.Context) (bool, error)
	Get(ctx context.Context) (*Resource, error)

	Table(ctx context.Context, name string) (*Resource, error)
	CreateTable(ctx context.Context, def *Resource) (*Resource, error)
	CreateView(ctx context.Context, name, body string) (*Resource, error)
	Routine(ctx context.Context, name string) (*Resource, error)
	Model(ctx context.Context, name string) (*Resource, error)

	Tables(ctx context.Context) ([]resource.ID, error)
	Routines(ctx context.Context) ([]resource.ID, error)
	Models(ctx context.Context) ([]resource.ID, error)

	Delete(ctx context.Context, id resource.ID) error
}

// Client is the pluggable warehouse connection the executor and reconciler
// are built against. A concrete implementation (e.g. a BigQuery REST/gRPC
// client) lives outside this module.
type Client interface {
	ProjectID(ctx context.Context) (string, error)
	CreateQueryJob(ctx context.Context, cfg QueryConfig) (Job, error)
	// Jobs lists jobs sharing parentJobID, used to enumerate a SCRIPT job's
	// children.
	Jobs(ctx context.Context, parentJobID string) ([]Job, error)
	Dataset(id resource.ID) Dataset
}
