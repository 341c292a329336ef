package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
)

type ColumnRequest struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
}

type InsertWorkspaceDataRequest struct {
	DatasetID   string          `json:"datasetId"`
	DatasetName string          `json:"datasetName" binding:"required"`
	Columns     []ColumnRequest `json:"columns" binding:"required"`
	Rows        []model.Row     `json:"rows"`
	Replace     bool            `json:"replace"`
}

func (r *InsertWorkspaceDataRequest) ToImportRequest(slug string) service.ImportRequest {
	cols := make([]service.ColumnSpec, len(r.Columns))
	for i, c := range r.Columns {
		cols[i] = service.ColumnSpec{Name: c.Name, DataType: c.DataType}
	}
	return service.ImportRequest{
		WorkspaceSlug: slug,
		DatasetID:     r.DatasetID,
		DatasetName:   r.DatasetName,
		Columns:       cols,
		Rows:          r.Rows,
		Replace:       r.Replace,
	}
}

type InsertWorkspaceDataResponse struct {
	Success     bool   `json:"success"`
	RowCount    int64  `json:"rowCount"`
	DatasetID   string `json:"datasetId"`
	TableName   string `json:"tableName"`
	ImportRunID int64  `json:"importRunId,string"`
}

type QueryWorkspaceDataRequest struct {
	Limit    *int                       `json:"limit"`
	Offset   *int                       `json:"offset"`
	OrderBy  string                     `json:"orderBy"`
	OrderDir string                     `json:"orderDir"`
	Filters  map[string]json.RawMessage `json:"filters"`
}

func (r *QueryWorkspaceDataRequest) ToQueryRequest() (service.QueryRequest, error) {
	filters, err := ParseFilters(r.Filters)
	if err != nil {
		return service.QueryRequest{}, err
	}
	return service.QueryRequest{
		Limit:    r.Limit,
		Offset:   r.Offset,
		OrderBy:  r.OrderBy,
		OrderDir: r.OrderDir,
		Filters:  filters,
	}, nil
}

type filterCondition struct {
	Op    model.FilterOp `json:"op"`
	Value any            `json:"value"`
}

// ParseFilters turns {"col": scalar} into equality filters and
// {"col": {"op": "...", "value": ...}} into operator filters. A bare array
// means "in". Filters are returned sorted by column.
func ParseFilters(raw map[string]json.RawMessage) ([]model.Filter, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	columns := make([]string, 0, len(raw))
	for col := range raw {
		columns = append(columns, col)
	}
	slices.Sort(columns)

	filters := make([]model.Filter, 0, len(raw))
	for _, col := range columns {
		msg := bytes.TrimSpace(raw[col])
		f := model.Filter{Column: col, Op: model.FilterEq}

		switch {
		case len(msg) > 0 && msg[0] == '{':
			var cond filterCondition
			if err := unmarshalNumbers(msg, &cond); err != nil {
				return nil, fmt.Errorf("filter %q: %w", col, err)
			}
			if cond.Op == "" {
				return nil, fmt.Errorf("filter %q: op is required", col)
			}
			f.Op, f.Value = cond.Op, cond.Value
		case len(msg) > 0 && msg[0] == '[':
			var values []any
			if err := unmarshalNumbers(msg, &values); err != nil {
				return nil, fmt.Errorf("filter %q: %w", col, err)
			}
			f.Op, f.Value = model.FilterIn, values
		default:
			if err := unmarshalNumbers(msg, &f.Value); err != nil {
				return nil, fmt.Errorf("filter %q: %w", col, err)
			}
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// unmarshalNumbers decodes numbers as json.Number so filter values keep
// full precision until they are coerced to the column type.
func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

type QueryWorkspaceDataResponse struct {
	Rows  []model.Row `json:"rows"`
	Count int64       `json:"count"`
}

type DatasetSummaryItem struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName"`
	RowCount    int64          `json:"rowCount"`
	Columns     []model.Column `json:"columns"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type ListWorkspaceDatasetsResponse struct {
	Datasets []DatasetSummaryItem `json:"datasets"`
}

func ToListWorkspaceDatasetsResponse(datasets []model.Dataset) ListWorkspaceDatasetsResponse {
	resp := ListWorkspaceDatasetsResponse{Datasets: make([]DatasetSummaryItem, len(datasets))}
	for i, ds := range datasets {
		resp.Datasets[i] = DatasetSummaryItem{
			ID:          ds.ID,
			Name:        ds.TableName,
			DisplayName: ds.DisplayName,
			RowCount:    ds.RowCount,
			Columns:     ds.Columns,
			CreatedAt:   ds.CreatedAt,
		}
	}
	return resp
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type InsightsRequest struct {
	Question string `json:"question"`
}

type ImportRunsResponse struct {
	Imports []model.ImportRun `json:"imports"`
}
