package store

import (
	"context"
	"fmt"

	"github.com/pinn-product-builder/pinnbai-sub001/core/db"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/ddl"
)

type namespaceStore struct {
	conn db.DBTX
}

func newNamespaceStore(conn db.DBTX) NamespaceStore {
	return &namespaceStore{conn: conn}
}

// Provision creates the namespace and its catalog tables. Statements are
// idempotent; a concurrent provisioner winning the race is not an error.
func (s *namespaceStore) Provision(ctx context.Context, namespace string) error {
	stmts, err := ddl.ProvisionStatements(namespace)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			if isDuplicate(err) {
				continue
			}
			return fmt.Errorf("provisioning %s: %w", namespace, mapError(err))
		}
	}
	return nil
}

func (s *namespaceStore) Exists(ctx context.Context, namespace string) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`,
		namespace,
	).Scan(&exists)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}
