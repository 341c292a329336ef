package model

// DatasetSummary is the statistical digest used as AI insight context.
type DatasetSummary struct {
	TableName   string          `json:"tableName"`
	DisplayName string          `json:"displayName"`
	RowCount    int64           `json:"rowCount"`
	Columns     []ColumnSummary `json:"columns"`
}

type ColumnSummary struct {
	Name     string   `json:"name"`
	DataType DataType `json:"dataType"`
	Nulls    int64    `json:"nulls"`

	// numeric kinds
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
	Avg *float64 `json:"avg,omitempty"`
	Sum *float64 `json:"sum,omitempty"`

	// temporal kinds, ISO-8601
	Earliest *string `json:"earliest,omitempty"`
	Latest   *string `json:"latest,omitempty"`

	// textual kinds
	Distinct *int64       `json:"distinct,omitempty"`
	Top      []ValueCount `json:"top,omitempty"`

	// boolean
	TrueCount  *int64 `json:"trueCount,omitempty"`
	FalseCount *int64 `json:"falseCount,omitempty"`
}

type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Insight is one LLM-generated observation about a dataset.
type Insight struct {
	Title  string `json:"title" jsonschema:"description=Short headline for the observation"`
	Detail string `json:"detail" jsonschema:"description=One or two sentences explaining the observation"`
	Metric string `json:"metric" jsonschema:"description=Column the observation is about, empty when not specific"`
}

type InsightReport struct {
	Headline string    `json:"headline" jsonschema:"description=One sentence overall takeaway"`
	Insights []Insight `json:"insights"`
}
