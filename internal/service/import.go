package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pinn-product-builder/pinnbai-sub001/common/id"
	"github.com/pinn-product-builder/pinnbai-sub001/common/ident"
	"github.com/pinn-product-builder/pinnbai-sub001/common/logger"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/lock"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/store"
)

type ImportRequest struct {
	WorkspaceSlug string
	DatasetID     string // generated when empty
	DatasetName   string
	Columns       []ColumnSpec
	Rows          []model.Row
	// Replace empties the table before ingesting. When the column
	// definitions changed, the table is dropped and recreated instead.
	Replace bool
}

type ImportResult struct {
	DatasetID   string
	TableName   string
	RowCount    int64
	ImportRunID int64
}

// Import validates the request, creates the dataset table and ingests rows
// while holding the table's ingestion lock. On partial ingestion the result
// is returned together with the error.
func (s *datasetService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if strings.TrimSpace(req.WorkspaceSlug) == "" {
		return nil, &InvalidArgumentError{Field: "workspaceSlug", Reason: "is required"}
	}
	namespace, err := ident.Namespace(req.WorkspaceSlug)
	if err != nil {
		return nil, &InvalidNameError{Field: "workspaceSlug", Raw: req.WorkspaceSlug}
	}
	if strings.TrimSpace(req.DatasetName) == "" {
		return nil, &InvalidArgumentError{Field: "datasetName", Reason: "is required"}
	}
	table, err := ident.Identifier(req.DatasetName)
	if err != nil {
		return nil, &InvalidNameError{Field: "datasetName", Raw: req.DatasetName}
	}
	columns, err := BuildColumns(req.Columns)
	if err != nil {
		return nil, err
	}

	datasetID := strings.TrimSpace(req.DatasetID)
	if datasetID == "" {
		datasetID = uuid.NewString()
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkspaceSlug: logger.Ptr(req.WorkspaceSlug),
		Namespace:     logger.Ptr(namespace),
		DatasetID:     logger.Ptr(datasetID),
		Table:         logger.Ptr(table),
		Component:     "pinn.service.import",
	})

	unlock, err := s.locker.Acquire(ctx, lock.IngestKey(namespace, table))
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return nil, &IngestionInProgressError{Namespace: namespace, Table: table}
		}
		return nil, fmt.Errorf("acquiring ingestion lock: %w", err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			slog.WarnContext(ctx, "releasing ingestion lock failed", "error", err)
		}
	}()

	run := &model.ImportRun{
		ID:        id.New(),
		Namespace: namespace,
		DatasetID: datasetID,
		TableName: table,
		Status:    model.ImportRunStatusQueued,
		RowsTotal: int64(len(req.Rows)),
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{ImportRunID: logger.Ptr(run.ID)})
	s.recordRun(ctx, run, true)

	started := time.Now()
	run.Status = model.ImportRunStatusRunning
	run.StartedAt = &started
	s.recordRun(ctx, run, false)

	result := &ImportResult{DatasetID: datasetID, TableName: table, ImportRunID: run.ID}

	ds := &model.Dataset{
		ID:          datasetID,
		Namespace:   namespace,
		DisplayName: strings.TrimSpace(req.DatasetName),
		TableName:   table,
		Columns:     columns,
	}
	if req.Replace {
		if err := s.prepareReplace(ctx, ds); err != nil {
			s.finishRun(ctx, run, 0, err)
			return nil, err
		}
	}

	if _, err := s.createTable(ctx, ds); err != nil {
		s.finishRun(ctx, run, 0, err)
		return nil, err
	}

	inserted, err := s.ingest(ctx, ds, req.Rows)
	result.RowCount = inserted
	s.finishRun(ctx, run, inserted, err)
	if err != nil {
		return result, err
	}

	slog.InfoContext(ctx, "import completed",
		"rows", inserted,
		"replace", req.Replace,
		"duration_ms", time.Since(started).Milliseconds())
	return result, nil
}

// prepareReplace empties an existing table, or drops it when the column
// definitions changed so createTable can rebuild it.
func (s *datasetService) prepareReplace(ctx context.Context, ds *model.Dataset) error {
	existing, err := s.datasets.Get(ctx, ds.Namespace, ds.TableName)
	if err != nil {
		if store.IsMissing(err) {
			return nil
		}
		return err
	}
	if existing.ID != ds.ID {
		return &ConflictError{
			Resource: "dataset",
			Name:     ds.TableName,
			Reason:   fmt.Sprintf("table name is already used by dataset %s", existing.ID),
		}
	}

	if !sameColumns(existing.Columns, ds.Columns) {
		slog.InfoContext(ctx, "column definitions changed; recreating table")
		return s.Delete(ctx, ds.Namespace, ds.TableName)
	}

	ctx, cancel := withTimeout(ctx, s.ingestCfg.SchemaTimeout)
	defer cancel()

	err = s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		if err := stores.Datasets().Truncate(ctx, ds.Namespace, ds.TableName); err != nil {
			return err
		}
		return stores.Datasets().ResetRowCount(ctx, ds.Namespace, ds.TableName)
	})
	if err != nil {
		return fmt.Errorf("truncating %s: %w", ds.TableName, err)
	}
	return nil
}

// recordRun writes the run to the registry. Run history is best-effort and
// never fails an import.
func (s *datasetService) recordRun(ctx context.Context, run *model.ImportRun, create bool) {
	var err error
	if create {
		err = s.importRuns.Create(ctx, run)
	} else {
		err = s.importRuns.Update(ctx, run)
	}
	if err != nil {
		slog.WarnContext(ctx, "recording import run failed", "status", run.Status, "error", err)
	}
}

func (s *datasetService) finishRun(ctx context.Context, run *model.ImportRun, inserted int64, err error) {
	finished := time.Now()
	run.FinishedAt = &finished
	run.RowsInserted = inserted

	switch {
	case err == nil:
		run.Status = model.ImportRunStatusSucceeded
	case inserted > 0:
		run.Status = model.ImportRunStatusPartial
	default:
		run.Status = model.ImportRunStatusFailed
	}
	if err != nil {
		msg := logger.Truncate(err.Error(), 1000)
		run.Error = &msg
	}

	s.recordRun(context.WithoutCancel(ctx), run, false)
}
