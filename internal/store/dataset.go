package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pinn-product-builder/pinnbai-sub001/core/db"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/ddl"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
)

const datasetColumns = `id, table_name, display_name, columns, row_count, created_at, updated_at`

type datasetStore struct {
	conn db.DBTX
}

func newDatasetStore(conn db.DBTX) DatasetStore {
	return &datasetStore{conn: conn}
}

// CreateTable issues CREATE TABLE IF NOT EXISTS. An existing table is
// success; a missing namespace is ErrNamespaceNotFound. Inside a transaction
// the statement runs under a savepoint, so losing a concurrent create race
// leaves the transaction usable.
func (s *datasetStore) CreateTable(ctx context.Context, namespace, table string, columns []model.Column) error {
	stmt, err := ddl.CreateTable(namespace, table, columns)
	if err != nil {
		return err
	}

	tx, ok := s.conn.(pgx.Tx)
	if !ok {
		if _, err := s.conn.Exec(ctx, stmt); err != nil && !isDuplicate(err) {
			return mapError(err)
		}
		return nil
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("creating savepoint: %w", err)
	}
	if _, err := sp.Exec(ctx, stmt); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rolling back to savepoint: %w", rbErr)
		}
		if isDuplicate(err) {
			return nil
		}
		return mapError(err)
	}
	return sp.Commit(ctx)
}

// Register upserts the catalog row by dataset ID. Re-registering keeps the
// cached row count.
func (s *datasetStore) Register(ctx context.Context, ds *model.Dataset) (*model.Dataset, error) {
	cols, err := json.Marshal(ds.Columns)
	if err != nil {
		return nil, fmt.Errorf("encoding columns: %w", err)
	}

	row := s.conn.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, table_name, display_name, columns, row_count)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (id) DO UPDATE SET
			table_name = EXCLUDED.table_name,
			display_name = EXCLUDED.display_name,
			columns = EXCLUDED.columns,
			updated_at = now()
		RETURNING %s`, ddl.Qualified(ds.Namespace, ddl.CatalogDatasets), datasetColumns),
		ds.ID, ds.TableName, ds.DisplayName, cols,
	)
	out, err := scanDataset(row, ds.Namespace)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	out.WorkspaceID = ds.WorkspaceID
	return out, nil
}

func (s *datasetStore) Get(ctx context.Context, namespace, table string) (*model.Dataset, error) {
	if err := ddl.ValidateNamespace(namespace); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNamespaceNotFound, err)
	}
	row := s.conn.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE table_name = $1`, datasetColumns, ddl.Qualified(namespace, ddl.CatalogDatasets)),
		table,
	)
	ds, err := scanDataset(row, namespace)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	return ds, nil
}

// List returns the catalog ordered by creation time then table name.
func (s *datasetStore) List(ctx context.Context, namespace string) ([]model.Dataset, error) {
	if err := ddl.ValidateNamespace(namespace); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNamespaceNotFound, err)
	}
	rows, err := s.conn.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at, table_name`, datasetColumns, ddl.Qualified(namespace, ddl.CatalogDatasets)),
	)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	defer rows.Close()

	datasets := []model.Dataset{}
	for rows.Next() {
		ds, err := scanDataset(rows, namespace)
		if err != nil {
			return nil, mapCatalogError(err)
		}
		datasets = append(datasets, *ds)
	}
	if err := rows.Err(); err != nil {
		return nil, mapCatalogError(err)
	}
	return datasets, nil
}

func (s *datasetStore) Truncate(ctx context.Context, namespace, table string) error {
	stmt, err := ddl.TruncateTable(namespace, table)
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(ctx, stmt)
	return mapError(err)
}

func (s *datasetStore) ResetRowCount(ctx context.Context, namespace, table string) error {
	_, err := s.conn.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET row_count = 0, updated_at = now() WHERE table_name = $1`, ddl.Qualified(namespace, ddl.CatalogDatasets)),
		table,
	)
	return mapCatalogError(err)
}

// InsertBatch writes rows with one multi-row INSERT. Each row holds values
// in the order of columns.
func (s *datasetStore) InsertBatch(ctx context.Context, namespace, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	stmt, err := ddl.Insert(namespace, table, columns, len(rows))
	if err != nil {
		return 0, err
	}

	args := make([]any, 0, len(rows)*len(columns))
	for i, r := range rows {
		if len(r) != len(columns) {
			return 0, fmt.Errorf("row %d has %d values, want %d", i, len(r), len(columns))
		}
		args = append(args, r...)
	}

	tag, err := s.conn.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (s *datasetStore) AddRowCount(ctx context.Context, namespace, table string, delta int64) error {
	_, err := s.conn.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET row_count = row_count + $2, updated_at = now() WHERE table_name = $1`, ddl.Qualified(namespace, ddl.CatalogDatasets)),
		table, delta,
	)
	return mapCatalogError(err)
}

func (s *datasetStore) Query(ctx context.Context, namespace, table string, columns []string, q model.DatasetQuery) ([]model.Row, error) {
	st, err := ddl.Select(namespace, table, columns, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.conn.Query(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, mapError(err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]model.Row, len(maps))
	for i, m := range maps {
		out[i] = model.Row(m)
	}
	return out, nil
}

func (s *datasetStore) Count(ctx context.Context, namespace, table string, filters []model.Filter) (int64, error) {
	st, err := ddl.Count(namespace, table, filters)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.conn.QueryRow(ctx, st.SQL, st.Args...).Scan(&n); err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

// Summarize computes per-column statistics with one aggregate query per
// column, plus a top-values query for textual columns.
func (s *datasetStore) Summarize(ctx context.Context, ds *model.Dataset, topN int) ([]model.ColumnSummary, error) {
	summaries := make([]model.ColumnSummary, 0, len(ds.Columns))
	for _, col := range ds.Columns {
		sum, err := s.summarizeColumn(ctx, ds, col, topN)
		if err != nil {
			return nil, fmt.Errorf("summarizing %s: %w", col.Name, err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

func (s *datasetStore) summarizeColumn(ctx context.Context, ds *model.Dataset, col model.Column, topN int) (model.ColumnSummary, error) {
	sum := model.ColumnSummary{Name: col.Name, DataType: col.DataType}

	stmt, err := ddl.ColumnStats(ds.Namespace, ds.TableName, col)
	if err != nil {
		return sum, err
	}
	row := s.conn.QueryRow(ctx, stmt)

	switch {
	case col.DataType.IsNumeric():
		err = row.Scan(&sum.Nulls, &sum.Min, &sum.Max, &sum.Avg, &sum.Sum)
	case col.DataType.IsTemporal():
		err = row.Scan(&sum.Nulls, &sum.Earliest, &sum.Latest)
	case col.DataType == model.DataTypeBoolean:
		var t, f int64
		err = row.Scan(&sum.Nulls, &t, &f)
		sum.TrueCount, sum.FalseCount = &t, &f
	default:
		var distinct int64
		err = row.Scan(&sum.Nulls, &distinct)
		sum.Distinct = &distinct
	}
	if err != nil {
		return sum, mapError(err)
	}

	if !col.DataType.IsTextual() || topN <= 0 {
		return sum, nil
	}

	stmt, err = ddl.TopValues(ds.Namespace, ds.TableName, col.Name, topN)
	if err != nil {
		return sum, err
	}
	rows, err := s.conn.Query(ctx, stmt)
	if err != nil {
		return sum, mapError(err)
	}
	top, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (model.ValueCount, error) {
		var vc model.ValueCount
		err := r.Scan(&vc.Value, &vc.Count)
		return vc, err
	})
	if err != nil {
		return sum, mapError(err)
	}
	sum.Top = top
	return sum, nil
}

func (s *datasetStore) DropTable(ctx context.Context, namespace, table string) error {
	stmt, err := ddl.DropTable(namespace, table)
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(ctx, stmt)
	return mapError(err)
}

// Unregister deletes the catalog row. A missing row is not an error.
func (s *datasetStore) Unregister(ctx context.Context, namespace, table string) error {
	_, err := s.conn.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE table_name = $1`, ddl.Qualified(namespace, ddl.CatalogDatasets)),
		table,
	)
	return mapCatalogError(err)
}

func scanDataset(row pgx.Row, namespace string) (*model.Dataset, error) {
	var (
		ds   model.Dataset
		cols []byte
	)
	if err := row.Scan(&ds.ID, &ds.TableName, &ds.DisplayName, &cols, &ds.RowCount, &ds.CreatedAt, &ds.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cols, &ds.Columns); err != nil {
		return nil, fmt.Errorf("decoding columns for %s: %w", ds.TableName, err)
	}
	ds.Namespace = namespace
	return &ds, nil
}

// IsMissing reports whether err means the namespace, table or catalog row
// does not exist.
func IsMissing(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNamespaceNotFound) || errors.Is(err, ErrTableNotFound)
}
