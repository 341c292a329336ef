package model

type OrderDir string

const (
	OrderAsc  OrderDir = "asc"
	OrderDesc OrderDir = "desc"
)

type FilterOp string

const (
	FilterEq     FilterOp = "eq"
	FilterNeq    FilterOp = "neq"
	FilterGt     FilterOp = "gt"
	FilterGte    FilterOp = "gte"
	FilterLt     FilterOp = "lt"
	FilterLte    FilterOp = "lte"
	FilterLike   FilterOp = "like"
	FilterILike  FilterOp = "ilike"
	FilterIn     FilterOp = "in"
	FilterIsNull FilterOp = "is_null"
)

func (op FilterOp) Valid() bool {
	switch op {
	case FilterEq, FilterNeq, FilterGt, FilterGte, FilterLt, FilterLte,
		FilterLike, FilterILike, FilterIn, FilterIsNull:
		return true
	}
	return false
}

// Filter is a condition on a single column. For FilterIn, Value is a []any;
// for FilterIsNull it is a bool.
type Filter struct {
	Column string
	Op     FilterOp
	Value  any
}

// DatasetQuery is a normalized, validated page request against one dataset.
type DatasetQuery struct {
	Limit    int
	Offset   int
	OrderBy  string
	OrderDir OrderDir
	Filters  []Filter
}

type QueryResult struct {
	Rows       []Row `json:"rows"`
	TotalCount int64 `json:"count"`
}
