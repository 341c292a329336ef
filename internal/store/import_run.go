package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pinn-product-builder/pinnbai-sub001/core/db"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
)

const importRunColumns = `id, namespace, dataset_id, table_name, status, rows_total, rows_inserted,
	error, started_at, finished_at, created_at, updated_at`

type importRunStore struct {
	conn db.DBTX
}

func newImportRunStore(conn db.DBTX) ImportRunStore {
	return &importRunStore{conn: conn}
}

func (s *importRunStore) Create(ctx context.Context, run *model.ImportRun) error {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO workspace_import_runs (id, namespace, dataset_id, table_name, status, rows_total, rows_inserted, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		run.ID, run.Namespace, run.DatasetID, run.TableName, string(run.Status),
		run.RowsTotal, run.RowsInserted, run.Error, run.StartedAt, run.FinishedAt,
	)
	return mapError(row.Scan(&run.CreatedAt, &run.UpdatedAt))
}

func (s *importRunStore) Update(ctx context.Context, run *model.ImportRun) error {
	row := s.conn.QueryRow(ctx, `
		UPDATE workspace_import_runs SET
			status = $2,
			rows_total = $3,
			rows_inserted = $4,
			error = $5,
			started_at = $6,
			finished_at = $7,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		run.ID, string(run.Status), run.RowsTotal, run.RowsInserted, run.Error, run.StartedAt, run.FinishedAt,
	)
	return mapError(row.Scan(&run.UpdatedAt))
}

func (s *importRunStore) ListByNamespace(ctx context.Context, namespace string, limit int) ([]model.ImportRun, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+importRunColumns+` FROM workspace_import_runs WHERE namespace = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		namespace, limit,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	runs := []model.ImportRun{}
	for rows.Next() {
		run, err := scanImportRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanImportRun(row pgx.Row) (*model.ImportRun, error) {
	var (
		run    model.ImportRun
		status string
	)
	if err := row.Scan(
		&run.ID, &run.Namespace, &run.DatasetID, &run.TableName, &status,
		&run.RowsTotal, &run.RowsInserted, &run.Error, &run.StartedAt, &run.FinishedAt,
		&run.CreatedAt, &run.UpdatedAt,
	); err != nil {
		return nil, err
	}
	run.Status = model.ImportRunStatus(status)
	return &run, nil
}
