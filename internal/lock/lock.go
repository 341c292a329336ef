// Package lock provides the advisory single-writer lock taken around dataset
// ingestion.
package lock

import (
	"context"
	"errors"
	"fmt"
)

// ErrHeld is returned by Acquire when another holder owns the key.
var ErrHeld = errors.New("lock is held")

// Unlock releases a lock obtained from Acquire. Releasing a lock that has
// already expired is not an error.
type Unlock func(ctx context.Context) error

type Locker interface {
	Acquire(ctx context.Context, key string) (Unlock, error)
}

// IngestKey is the lock key guarding writes into one dataset table.
func IngestKey(namespace, table string) string {
	return fmt.Sprintf("ingest:%s.%s", namespace, table)
}
