package store

import (
	"github.com/pinn-product-builder/pinnbai-sub001/core/db"
)

// Stores hands out stores bound to one connection: the pool, or a
// transaction when built inside db.WithTx.
type Stores struct {
	conn db.DBTX
}

func NewStores(conn db.DBTX) *Stores {
	return &Stores{conn: conn}
}

func (s *Stores) Workspaces() WorkspaceStore {
	return newWorkspaceStore(s.conn)
}

func (s *Stores) Namespaces() NamespaceStore {
	return newNamespaceStore(s.conn)
}

func (s *Stores) Datasets() DatasetStore {
	return newDatasetStore(s.conn)
}

func (s *Stores) ImportRuns() ImportRunStore {
	return newImportRunStore(s.conn)
}
