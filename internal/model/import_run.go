package model

import "time"

type ImportRunStatus string

const (
	ImportRunStatusQueued    ImportRunStatus = "queued"
	ImportRunStatusRunning   ImportRunStatus = "running"
	ImportRunStatusSucceeded ImportRunStatus = "succeeded"
	ImportRunStatusPartial   ImportRunStatus = "partial"
	ImportRunStatusFailed    ImportRunStatus = "failed"
)

// ImportRun records one insertWorkspaceData invocation in the global registry.
type ImportRun struct {
	ID           int64           `json:"id,string"`
	Namespace    string          `json:"namespace"`
	DatasetID    string          `json:"datasetId"`
	TableName    string          `json:"tableName"`
	Status       ImportRunStatus `json:"status"`
	RowsTotal    int64           `json:"rowsTotal"`
	RowsInserted int64           `json:"rowsInserted"`
	Error        *string         `json:"error,omitempty"`
	StartedAt    *time.Time      `json:"startedAt,omitempty"`
	FinishedAt   *time.Time      `json:"finishedAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
