package store

import (
	"context"
	"errors"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrNamespaceNotFound is returned when a workspace namespace has not been provisioned
var ErrNamespaceNotFound = errors.New("namespace not found")

// ErrTableNotFound is returned when a dataset table does not exist
var ErrTableNotFound = errors.New("table not found")

// ErrAlreadyExists is returned on unique violations
var ErrAlreadyExists = errors.New("already exists")

// WorkspaceStore defines the contract for the global workspace registry
type WorkspaceStore interface {
	GetByID(ctx context.Context, id string) (*model.Workspace, error)
	GetByNamespace(ctx context.Context, namespace string) (*model.Workspace, error)
	Upsert(ctx context.Context, ws *model.Workspace) (*model.Workspace, error)
	List(ctx context.Context, limit int) ([]model.Workspace, error)
}

// NamespaceStore creates per-workspace namespaces and their catalog tables
type NamespaceStore interface {
	Provision(ctx context.Context, namespace string) error
	Exists(ctx context.Context, namespace string) (bool, error)
}

// DatasetStore defines the contract for dataset tables and the per-namespace catalog
type DatasetStore interface {
	CreateTable(ctx context.Context, namespace, table string, columns []model.Column) error
	Register(ctx context.Context, ds *model.Dataset) (*model.Dataset, error)
	Get(ctx context.Context, namespace, table string) (*model.Dataset, error)
	List(ctx context.Context, namespace string) ([]model.Dataset, error)
	Truncate(ctx context.Context, namespace, table string) error
	ResetRowCount(ctx context.Context, namespace, table string) error
	InsertBatch(ctx context.Context, namespace, table string, columns []string, rows [][]any) (int64, error)
	AddRowCount(ctx context.Context, namespace, table string, delta int64) error
	Query(ctx context.Context, namespace, table string, columns []string, q model.DatasetQuery) ([]model.Row, error)
	Count(ctx context.Context, namespace, table string, filters []model.Filter) (int64, error)
	Summarize(ctx context.Context, ds *model.Dataset, topN int) ([]model.ColumnSummary, error)
	DropTable(ctx context.Context, namespace, table string) error
	Unregister(ctx context.Context, namespace, table string) error
}

// ImportRunStore defines the contract for import run history
type ImportRunStore interface {
	Create(ctx context.Context, run *model.ImportRun) error
	Update(ctx context.Context, run *model.ImportRun) error
	ListByNamespace(ctx context.Context, namespace string, limit int) ([]model.ImportRun, error)
}
