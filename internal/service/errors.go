package service

import (
	"errors"
	"fmt"
)

// InvalidArgumentError reports a malformed or missing request field. It is
// always returned before any storage call.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidNameError reports a tenant-supplied name that sanitizes to an
// empty identifier.
type InvalidNameError struct {
	Field string
	Raw   string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid %s %q: no usable characters", e.Field, e.Raw)
}

// NotFoundError reports a missing workspace or dataset on paths that do not
// degrade to empty results.
type NotFoundError struct {
	Resource string
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
}

// ConflictError reports a name that collides with an existing entity after
// sanitization.
type ConflictError struct {
	Resource string
	Name     string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q conflicts: %s", e.Resource, e.Name, e.Reason)
}

type ProvisionError struct {
	Namespace string
	Err       error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning namespace %s: %v", e.Namespace, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// TableCreationError reports any table creation failure other than the
// table already existing.
type TableCreationError struct {
	Namespace string
	Table     string
	Err       error
}

func (e *TableCreationError) Error() string {
	return fmt.Sprintf("creating table %s.%s: %v", e.Namespace, e.Table, e.Err)
}

func (e *TableCreationError) Unwrap() error { return e.Err }

// IngestionBatchError reports the first failed batch. Inserted counts the
// rows committed by earlier batches; those are not rolled back.
type IngestionBatchError struct {
	Batch    int
	Inserted int64
	Err      error
}

func (e *IngestionBatchError) Error() string {
	return fmt.Sprintf("batch %d failed after %d rows inserted: %v", e.Batch, e.Inserted, e.Err)
}

func (e *IngestionBatchError) Unwrap() error { return e.Err }

// IngestionInProgressError is returned when another import holds the
// table's ingestion lock.
type IngestionInProgressError struct {
	Namespace string
	Table     string
}

func (e *IngestionInProgressError) Error() string {
	return fmt.Sprintf("an import into %s.%s is already in progress", e.Namespace, e.Table)
}

type DeletionStage string

const (
	DeletionStageDropTable DeletionStage = "drop_table"
	DeletionStageCatalog   DeletionStage = "catalog"
)

// DeletionError identifies which step of a dataset deletion failed.
type DeletionError struct {
	Stage DeletionStage
	Table string
	Err   error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("deleting %s failed at %s: %v", e.Table, e.Stage, e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }

// ErrInsightsDisabled is returned when no LLM is configured.
var ErrInsightsDisabled = errors.New("insights are not configured")
