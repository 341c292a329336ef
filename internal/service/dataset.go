package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/pinn-product-builder/pinnbai-sub001/common/ident"
	"github.com/pinn-product-builder/pinnbai-sub001/common/logger"
	"github.com/pinn-product-builder/pinnbai-sub001/core/config"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/ddl"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/lock"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/store"
)

// ColumnSpec is a column as supplied by the tenant, before sanitization.
type ColumnSpec struct {
	Name     string
	DataType string
}

type CreateTableRequest struct {
	Namespace   string
	DatasetID   string
	WorkspaceID string
	TableName   string // raw; sanitized into the storage name
	Columns     []ColumnSpec
}

// QueryRequest is a page request as received from callers. Nil Limit and
// Offset take their defaults.
type QueryRequest struct {
	Limit    *int
	Offset   *int
	OrderBy  string
	OrderDir string
	Filters  []model.Filter
}

const (
	defaultBatchSize       = 500
	defaultImportListLimit = 20
	maxImportListLimit     = 100
)

type DatasetService interface {
	CreateTable(ctx context.Context, req CreateTableRequest) (*model.Dataset, error)
	// Ingest appends rows in sequential batches. On failure it returns the
	// rows committed so far together with an *IngestionBatchError.
	Ingest(ctx context.Context, namespace, table string, rows []model.Row) (int64, error)
	// Query returns an empty result when the namespace or table is missing.
	Query(ctx context.Context, namespace, table string, req QueryRequest) (*model.QueryResult, error)
	List(ctx context.Context, namespace string) ([]model.Dataset, error)
	Delete(ctx context.Context, namespace, table string) error
	Import(ctx context.Context, req ImportRequest) (*ImportResult, error)
	ListImports(ctx context.Context, namespace string, limit int) ([]model.ImportRun, error)
}

type datasetService struct {
	datasets   store.DatasetStore
	importRuns store.ImportRunStore
	txRunner   TxRunner
	locker     lock.Locker
	ingestCfg  config.IngestConfig
	queryCfg   config.QueryConfig
}

func NewDatasetService(
	datasets store.DatasetStore,
	importRuns store.ImportRunStore,
	txRunner TxRunner,
	locker lock.Locker,
	ingestCfg config.IngestConfig,
	queryCfg config.QueryConfig,
) DatasetService {
	return &datasetService{
		datasets:   datasets,
		importRuns: importRuns,
		txRunner:   txRunner,
		locker:     locker,
		ingestCfg:  ingestCfg,
		queryCfg:   queryCfg,
	}
}

func (s *datasetService) CreateTable(ctx context.Context, req CreateTableRequest) (*model.Dataset, error) {
	if err := validateNamespace(req.Namespace); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.DatasetID) == "" {
		return nil, &InvalidArgumentError{Field: "datasetId", Reason: "is required"}
	}
	table, err := ident.Identifier(req.TableName)
	if err != nil {
		return nil, &InvalidNameError{Field: "datasetName", Raw: req.TableName}
	}
	columns, err := BuildColumns(req.Columns)
	if err != nil {
		return nil, err
	}

	return s.createTable(ctx, &model.Dataset{
		ID:          req.DatasetID,
		WorkspaceID: req.WorkspaceID,
		Namespace:   req.Namespace,
		DisplayName: strings.TrimSpace(req.TableName),
		TableName:   table,
		Columns:     columns,
	})
}

// createTable creates the table and registers it in one transaction so a
// failed registration never leaves an unlisted table behind.
func (s *datasetService) createTable(ctx context.Context, ds *model.Dataset) (*model.Dataset, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Namespace: logger.Ptr(ds.Namespace),
		DatasetID: logger.Ptr(ds.ID),
		Table:     logger.Ptr(ds.TableName),
		Component: "pinn.service.dataset",
	})
	sc := logger.StartSpan(ctx, "dataset.create_table",
		attribute.String("namespace", ds.Namespace),
		attribute.String("table", ds.TableName),
		attribute.Int("columns", len(ds.Columns)),
	)
	defer sc.End()
	ctx = sc.Context()

	if ddl.IsReservedTable(ds.TableName) {
		return nil, &TableCreationError{
			Namespace: ds.Namespace,
			Table:     ds.TableName,
			Err:       fmt.Errorf("name is reserved for the workspace catalog"),
		}
	}

	ctx, cancel := withTimeout(ctx, s.ingestCfg.SchemaTimeout)
	defer cancel()

	var registered *model.Dataset
	err := s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		existing, err := stores.Datasets().Get(ctx, ds.Namespace, ds.TableName)
		switch {
		case err == nil:
			if existing.ID != ds.ID {
				return &ConflictError{
					Resource: "dataset",
					Name:     ds.TableName,
					Reason:   fmt.Sprintf("table name is already used by dataset %s", existing.ID),
				}
			}
			if !sameColumns(existing.Columns, ds.Columns) {
				return &ConflictError{
					Resource: "dataset",
					Name:     ds.TableName,
					Reason:   "column definitions differ from the existing table; delete or replace the dataset",
				}
			}
		case errors.Is(err, store.ErrNotFound):
		default:
			return &TableCreationError{Namespace: ds.Namespace, Table: ds.TableName, Err: err}
		}

		if err := stores.Datasets().CreateTable(ctx, ds.Namespace, ds.TableName, ds.Columns); err != nil {
			return &TableCreationError{Namespace: ds.Namespace, Table: ds.TableName, Err: err}
		}

		registered, err = stores.Datasets().Register(ctx, ds)
		if err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return &ConflictError{Resource: "dataset", Name: ds.TableName, Reason: "table name is already registered"}
			}
			return &TableCreationError{Namespace: ds.Namespace, Table: ds.TableName, Err: err}
		}
		return nil
	})
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	slog.InfoContext(ctx, "dataset table ready", "columns", len(ds.Columns), "row_count", registered.RowCount)
	return registered, nil
}

func (s *datasetService) Ingest(ctx context.Context, namespace, table string, rows []model.Row) (int64, error) {
	if err := validateNamespace(namespace); err != nil {
		return 0, err
	}
	if err := ddl.ValidateIdentifier(table); err != nil {
		return 0, &InvalidArgumentError{Field: "tableName", Reason: err.Error()}
	}
	if len(rows) == 0 {
		return 0, nil
	}

	ds, err := s.datasets.Get(ctx, namespace, table)
	if err != nil {
		if store.IsMissing(err) {
			return 0, &NotFoundError{Resource: "dataset", Name: table}
		}
		return 0, err
	}
	return s.ingest(ctx, ds, rows)
}

func (s *datasetService) ingest(ctx context.Context, ds *model.Dataset, rows []model.Row) (int64, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Namespace: logger.Ptr(ds.Namespace),
		Table:     logger.Ptr(ds.TableName),
		Component: "pinn.service.dataset",
	})

	columns := ds.ColumnNames()
	batchSize := s.ingestCfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	batchSize = ddl.BatchSizeFor(batchSize, len(columns))
	batches := (len(rows) + batchSize - 1) / batchSize

	var inserted int64
	for k := 0; k < batches; k++ {
		start := k * batchSize
		end := min(start+batchSize, len(rows))

		n, err := s.ingestBatch(ctx, ds, columns, k, start, rows[start:end])
		if err != nil {
			slog.ErrorContext(ctx, "ingestion batch failed",
				"batch", k,
				"batches", batches,
				"inserted", inserted,
				"error", err)
			return inserted, &IngestionBatchError{Batch: k, Inserted: inserted, Err: err}
		}
		inserted += n
	}

	slog.InfoContext(ctx, "rows ingested", "inserted", inserted, "batches", batches)
	return inserted, nil
}

// ingestBatch coerces one batch, inserts it and bumps the cached row count in
// the same transaction, so the count always equals committed rows.
func (s *datasetService) ingestBatch(ctx context.Context, ds *model.Dataset, columns []string, k, offset int, batch []model.Row) (int64, error) {
	sc := logger.StartSpan(ctx, "dataset.ingest_batch",
		attribute.Int("batch", k),
		attribute.Int("rows", len(batch)),
	)
	defer sc.End()
	ctx = sc.Context()

	values := make([][]any, len(batch))
	for i, row := range batch {
		v, err := ddl.CoerceRow(ds.Columns, row)
		if err != nil {
			err = &InvalidArgumentError{Field: fmt.Sprintf("rows[%d]", offset+i), Reason: err.Error()}
			sc.RecordError(err)
			return 0, err
		}
		values[i] = v
	}

	ctx, cancel := withTimeout(ctx, s.ingestCfg.BatchTimeout)
	defer cancel()

	var n int64
	err := s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		var err error
		n, err = stores.Datasets().InsertBatch(ctx, ds.Namespace, ds.TableName, columns, values)
		if err != nil {
			return err
		}
		return stores.Datasets().AddRowCount(ctx, ds.Namespace, ds.TableName, n)
	})
	if err != nil {
		sc.RecordError(err)
		return 0, err
	}
	return n, nil
}

func (s *datasetService) Query(ctx context.Context, namespace, table string, req QueryRequest) (*model.QueryResult, error) {
	empty := &model.QueryResult{Rows: []model.Row{}, TotalCount: 0}

	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}
	if err := ddl.ValidateIdentifier(table); err != nil {
		return nil, &InvalidArgumentError{Field: "datasetName", Reason: err.Error()}
	}
	q, err := s.normalizePage(req)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Namespace: logger.Ptr(namespace),
		Table:     logger.Ptr(table),
		Component: "pinn.service.dataset",
	})
	sc := logger.StartSpan(ctx, "dataset.query",
		attribute.String("namespace", namespace),
		attribute.String("table", table),
		attribute.Int("limit", q.Limit),
		attribute.Int("offset", q.Offset),
	)
	defer sc.End()
	ctx = sc.Context()

	ctx, cancel := withTimeout(ctx, s.queryCfg.Timeout)
	defer cancel()

	ds, err := s.datasets.Get(ctx, namespace, table)
	if err != nil {
		if store.IsMissing(err) {
			slog.DebugContext(ctx, "query against missing dataset", "error", err)
			return empty, nil
		}
		sc.RecordError(err)
		return nil, err
	}

	if req.OrderBy != "" {
		col, ok := resolveColumn(ds, req.OrderBy)
		if !ok {
			return nil, &InvalidArgumentError{Field: "orderBy", Reason: fmt.Sprintf("unknown column %q", req.OrderBy)}
		}
		q.OrderBy = col.Name
	}
	if q.Filters, err = resolveFilters(ds, req.Filters); err != nil {
		return nil, err
	}

	rows, err := s.datasets.Query(ctx, namespace, table, ds.ColumnNames(), q)
	if err != nil {
		if store.IsMissing(err) {
			return empty, nil
		}
		sc.RecordError(err)
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	total, err := s.datasets.Count(ctx, namespace, table, q.Filters)
	if err != nil {
		if store.IsMissing(err) {
			return empty, nil
		}
		sc.RecordError(err)
		return nil, fmt.Errorf("counting %s: %w", table, err)
	}

	if rows == nil {
		rows = []model.Row{}
	}
	return &model.QueryResult{Rows: rows, TotalCount: total}, nil
}

// normalizePage applies limit and offset defaults and bounds. Limits above
// the maximum are clamped rather than rejected.
func (s *datasetService) normalizePage(req QueryRequest) (model.DatasetQuery, error) {
	q := model.DatasetQuery{Limit: s.queryCfg.DefaultLimit, OrderDir: model.OrderAsc}

	if req.Limit != nil {
		switch {
		case *req.Limit < 0:
			return q, &InvalidArgumentError{Field: "limit", Reason: "must not be negative"}
		case *req.Limit > 0:
			q.Limit = *req.Limit
		}
	}
	if s.queryCfg.MaxLimit > 0 && q.Limit > s.queryCfg.MaxLimit {
		q.Limit = s.queryCfg.MaxLimit
	}

	if req.Offset != nil {
		if *req.Offset < 0 {
			return q, &InvalidArgumentError{Field: "offset", Reason: "must not be negative"}
		}
		q.Offset = *req.Offset
	}

	switch strings.ToLower(strings.TrimSpace(req.OrderDir)) {
	case "", string(model.OrderAsc):
	case string(model.OrderDesc):
		q.OrderDir = model.OrderDesc
	default:
		return q, &InvalidArgumentError{Field: "orderDir", Reason: "must be asc or desc"}
	}
	return q, nil
}

func (s *datasetService) List(ctx context.Context, namespace string) ([]model.Dataset, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}

	datasets, err := s.datasets.List(ctx, namespace)
	if err != nil {
		if store.IsMissing(err) {
			return []model.Dataset{}, nil
		}
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	return datasets, nil
}

// Delete drops the table and removes its catalog row in one transaction.
// Deleting a dataset that does not exist succeeds.
func (s *datasetService) Delete(ctx context.Context, namespace, table string) error {
	if err := validateNamespace(namespace); err != nil {
		return err
	}
	if err := ddl.ValidateIdentifier(table); err != nil {
		return &InvalidArgumentError{Field: "datasetName", Reason: err.Error()}
	}
	if ddl.IsReservedTable(table) {
		return &InvalidArgumentError{Field: "datasetName", Reason: "is a workspace catalog table"}
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Namespace: logger.Ptr(namespace),
		Table:     logger.Ptr(table),
		Component: "pinn.service.dataset",
	})
	ctx, cancel := withTimeout(ctx, s.ingestCfg.SchemaTimeout)
	defer cancel()

	if _, err := s.datasets.Get(ctx, namespace, table); errors.Is(err, store.ErrNamespaceNotFound) {
		return nil
	}

	err := s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		if err := stores.Datasets().DropTable(ctx, namespace, table); err != nil {
			return &DeletionError{Stage: DeletionStageDropTable, Table: table, Err: err}
		}
		if err := stores.Datasets().Unregister(ctx, namespace, table); err != nil {
			return &DeletionError{Stage: DeletionStageCatalog, Table: table, Err: err}
		}
		return nil
	})
	if err != nil {
		var delErr *DeletionError
		if !errors.As(err, &delErr) {
			// Commit failed after both steps ran; nothing was applied.
			err = &DeletionError{Stage: DeletionStageCatalog, Table: table, Err: err}
		}
		slog.ErrorContext(ctx, "dataset deletion failed", "error", err)
		return err
	}

	slog.InfoContext(ctx, "dataset deleted")
	return nil
}

func (s *datasetService) ListImports(ctx context.Context, namespace string, limit int) ([]model.ImportRun, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}
	switch {
	case limit < 0:
		return nil, &InvalidArgumentError{Field: "limit", Reason: "must not be negative"}
	case limit == 0:
		limit = defaultImportListLimit
	case limit > maxImportListLimit:
		limit = maxImportListLimit
	}

	runs, err := s.importRuns.ListByNamespace(ctx, namespace, limit)
	if err != nil {
		return nil, fmt.Errorf("listing import runs: %w", err)
	}
	return runs, nil
}

// BuildColumns sanitizes tenant column specs into storage columns. Empty
// names and names that collide after sanitization are rejected.
func BuildColumns(specs []ColumnSpec) ([]model.Column, error) {
	if len(specs) == 0 {
		return nil, &InvalidArgumentError{Field: "columns", Reason: "at least one column is required"}
	}

	columns := make([]model.Column, 0, len(specs))
	seen := make(map[string]string, len(specs))
	for i, spec := range specs {
		name, err := ident.Identifier(spec.Name)
		if err != nil {
			return nil, &InvalidNameError{Field: fmt.Sprintf("columns[%d].name", i), Raw: spec.Name}
		}
		if prev, dup := seen[name]; dup {
			return nil, &InvalidArgumentError{
				Field:  fmt.Sprintf("columns[%d].name", i),
				Reason: fmt.Sprintf("%q and %q both become %q", prev, spec.Name, name),
			}
		}
		seen[name] = spec.Name

		columns = append(columns, model.Column{
			Name:        name,
			DisplayName: strings.TrimSpace(spec.Name),
			DataType:    model.ParseDataType(spec.DataType),
			Order:       i,
		})
	}
	return columns, nil
}

// resolveColumn accepts either the storage name or the display name.
func resolveColumn(ds *model.Dataset, name string) (model.Column, bool) {
	if col, ok := ds.Column(name); ok {
		return col, true
	}
	for _, col := range ds.Columns {
		if col.DisplayName == name {
			return col, true
		}
	}
	return ds.Column(ident.Sanitize(name, ident.MaxLength))
}

// resolveFilters maps filter columns onto storage names and coerces values
// to the column types.
func resolveFilters(ds *model.Dataset, filters []model.Filter) ([]model.Filter, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	out := make([]model.Filter, 0, len(filters))
	for _, f := range filters {
		field := fmt.Sprintf("filters.%s", f.Column)
		col, ok := resolveColumn(ds, f.Column)
		if !ok {
			return nil, &InvalidArgumentError{Field: field, Reason: "unknown column"}
		}
		if f.Op == "" {
			f.Op = model.FilterEq
		}
		if !f.Op.Valid() {
			return nil, &InvalidArgumentError{Field: field, Reason: fmt.Sprintf("unsupported operator %q", f.Op)}
		}

		resolved := model.Filter{Column: col.Name, Op: f.Op}
		switch f.Op {
		case model.FilterIsNull:
			b, ok := f.Value.(bool)
			if !ok {
				return nil, &InvalidArgumentError{Field: field, Reason: "is_null expects a boolean"}
			}
			resolved.Value = b
		case model.FilterLike, model.FilterILike:
			str, ok := f.Value.(string)
			if !ok {
				return nil, &InvalidArgumentError{Field: field, Reason: "pattern must be a string"}
			}
			resolved.Value = str
		case model.FilterIn:
			list, ok := f.Value.([]any)
			if !ok {
				return nil, &InvalidArgumentError{Field: field, Reason: "in expects an array"}
			}
			values := make([]any, len(list))
			for i, v := range list {
				c, err := ddl.Coerce(col.DataType, v)
				if err != nil {
					return nil, &InvalidArgumentError{Field: field, Reason: err.Error()}
				}
				values[i] = c
			}
			resolved.Value = values
		default:
			c, err := ddl.Coerce(col.DataType, f.Value)
			if err != nil {
				return nil, &InvalidArgumentError{Field: field, Reason: err.Error()}
			}
			if c == nil && f.Op != model.FilterEq && f.Op != model.FilterNeq {
				return nil, &InvalidArgumentError{Field: field, Reason: "comparison needs a value"}
			}
			resolved.Value = c
		}
		out = append(out, resolved)
	}
	return out, nil
}

func sameColumns(a, b []model.Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || ddl.StorageType(a[i].DataType) != ddl.StorageType(b[i].DataType) {
			return false
		}
	}
	return true
}

func validateNamespace(namespace string) error {
	if err := ddl.ValidateNamespace(namespace); err != nil {
		return &InvalidArgumentError{Field: "namespace", Reason: err.Error()}
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
