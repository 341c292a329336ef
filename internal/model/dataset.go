package model

import "time"

// Column is a dataset column. Name is the sanitized storage identifier,
// DisplayName is the label the tenant supplied.
type Column struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	DataType    DataType `json:"dataType"`
	Order       int      `json:"order"`
}

type Dataset struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId,omitempty"`
	Namespace   string    `json:"namespace"`
	DisplayName string    `json:"displayName"`
	TableName   string    `json:"tableName"`
	Columns     []Column  `json:"columns"`
	RowCount    int64     `json:"rowCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Column returns the column with the given storage name.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns storage names in declared order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Row is one record keyed by column storage name.
type Row map[string]any
