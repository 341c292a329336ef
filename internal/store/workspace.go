package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pinn-product-builder/pinnbai-sub001/core/db"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
)

const workspaceColumns = `id, name, slug, namespace, status, created_at, updated_at`

type workspaceStore struct {
	conn db.DBTX
}

func newWorkspaceStore(conn db.DBTX) WorkspaceStore {
	return &workspaceStore{conn: conn}
}

func (s *workspaceStore) GetByID(ctx context.Context, id string) (*model.Workspace, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id)
	ws, err := scanWorkspace(row)
	if err != nil {
		return nil, mapError(err)
	}
	return ws, nil
}

func (s *workspaceStore) GetByNamespace(ctx context.Context, namespace string) (*model.Workspace, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE namespace = $1`, namespace)
	ws, err := scanWorkspace(row)
	if err != nil {
		return nil, mapError(err)
	}
	return ws, nil
}

// Upsert inserts the workspace or updates name, slug and status for an
// existing ID. Namespace is never rewritten.
func (s *workspaceStore) Upsert(ctx context.Context, ws *model.Workspace) (*model.Workspace, error) {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO workspaces (id, name, slug, namespace, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			status = EXCLUDED.status,
			updated_at = now()
		RETURNING `+workspaceColumns,
		ws.ID, ws.Name, ws.Slug, ws.Namespace, string(ws.Status),
	)
	out, err := scanWorkspace(row)
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (s *workspaceStore) List(ctx context.Context, limit int) ([]model.Workspace, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+workspaceColumns+` FROM workspaces ORDER BY created_at, id LIMIT $1`, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	workspaces := []model.Workspace{}
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, *ws)
	}
	return workspaces, rows.Err()
}

func scanWorkspace(row pgx.Row) (*model.Workspace, error) {
	var (
		ws     model.Workspace
		status string
	)
	if err := row.Scan(&ws.ID, &ws.Name, &ws.Slug, &ws.Namespace, &status, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return nil, err
	}
	ws.Status = model.WorkspaceStatus(status)
	return &ws, nil
}
