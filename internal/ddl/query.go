package ddl

import (
	"fmt"
	"strings"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
)

// Statement is SQL text with its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Select builds the page query for a dataset. Filter values must already be
// coerced to the column types; columns in filters and ordering must exist.
func Select(namespace, table string, columns []string, q model.DatasetQuery) (Statement, error) {
	if len(columns) == 0 {
		return Statement{}, fmt.Errorf("at least one column is required")
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		if err := ValidateIdentifier(c); err != nil {
			return Statement{}, fmt.Errorf("invalid column name %q: %w", c, err)
		}
		quoted[i] = QuoteIdentifier(c)
	}

	where, args, err := whereClause(q.Filters, 1)
	if err != nil {
		return Statement{}, err
	}

	order := QuoteIdentifier(RowIDColumn) + " ASC"
	if q.OrderBy != "" {
		if err := ValidateIdentifier(q.OrderBy); err != nil {
			return Statement{}, fmt.Errorf("invalid order column: %w", err)
		}
		dir := "ASC"
		if q.OrderDir == model.OrderDesc {
			dir = "DESC"
		}
		// Row id breaks ties so pages stay stable.
		order = fmt.Sprintf("%s %s, %s ASC", QuoteIdentifier(q.OrderBy), dir, QuoteIdentifier(RowIDColumn))
	}

	n := len(args)
	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		strings.Join(quoted, ", "),
		Qualified(namespace, table),
		where,
		order,
		n+1, n+2,
	)
	args = append(args, q.Limit, q.Offset)
	return Statement{SQL: sql, Args: args}, nil
}

// Count builds the total-count query for the same filters as Select.
func Count(namespace, table string, filters []model.Filter) (Statement, error) {
	where, args, err := whereClause(filters, 1)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:  fmt.Sprintf("SELECT count(*) FROM %s%s", Qualified(namespace, table), where),
		Args: args,
	}, nil
}

func whereClause(filters []model.Filter, firstParam int) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	var (
		conds []string
		args  []any
		p     = firstParam
	)
	next := func(v any) string {
		args = append(args, v)
		s := fmt.Sprintf("$%d", p)
		p++
		return s
	}

	for _, f := range filters {
		if err := ValidateIdentifier(f.Column); err != nil {
			return "", nil, fmt.Errorf("invalid filter column %q: %w", f.Column, err)
		}
		col := QuoteIdentifier(f.Column)

		switch f.Op {
		case model.FilterEq:
			if f.Value == nil {
				conds = append(conds, col+" IS NULL")
				continue
			}
			conds = append(conds, col+" = "+next(f.Value))
		case model.FilterNeq:
			if f.Value == nil {
				conds = append(conds, col+" IS NOT NULL")
				continue
			}
			conds = append(conds, col+" IS DISTINCT FROM "+next(f.Value))
		case model.FilterGt:
			conds = append(conds, col+" > "+next(f.Value))
		case model.FilterGte:
			conds = append(conds, col+" >= "+next(f.Value))
		case model.FilterLt:
			conds = append(conds, col+" < "+next(f.Value))
		case model.FilterLte:
			conds = append(conds, col+" <= "+next(f.Value))
		case model.FilterLike:
			conds = append(conds, col+"::text LIKE "+next(f.Value))
		case model.FilterILike:
			conds = append(conds, col+"::text ILIKE "+next(f.Value))
		case model.FilterIn:
			values, ok := f.Value.([]any)
			if !ok {
				return "", nil, fmt.Errorf("filter %q: in expects a list", f.Column)
			}
			if len(values) == 0 {
				conds = append(conds, "FALSE")
				continue
			}
			params := make([]string, len(values))
			for i, v := range values {
				params[i] = next(v)
			}
			conds = append(conds, fmt.Sprintf("%s IN (%s)", col, strings.Join(params, ", ")))
		case model.FilterIsNull:
			isNull, ok := f.Value.(bool)
			if !ok {
				return "", nil, fmt.Errorf("filter %q: is_null expects a boolean", f.Column)
			}
			if isNull {
				conds = append(conds, col+" IS NULL")
			} else {
				conds = append(conds, col+" IS NOT NULL")
			}
		default:
			return "", nil, fmt.Errorf("filter %q: unsupported operator %q", f.Column, f.Op)
		}
	}

	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// ColumnStats builds the aggregate query summarizing one column. The result
// row shape depends on the column kind:
//
//	numeric:  nulls, min, max, avg, sum (float8)
//	temporal: nulls, min, max (text)
//	boolean:  nulls, true count, false count
//	textual:  nulls, distinct count
func ColumnStats(namespace, table string, col model.Column) (string, error) {
	if err := ValidateIdentifier(col.Name); err != nil {
		return "", fmt.Errorf("invalid column name %q: %w", col.Name, err)
	}
	c := QuoteIdentifier(col.Name)
	from := Qualified(namespace, table)
	nulls := fmt.Sprintf("count(*) FILTER (WHERE %s IS NULL)", c)

	switch {
	case col.DataType.IsNumeric():
		return fmt.Sprintf("SELECT %s, min(%s)::float8, max(%s)::float8, avg(%s)::float8, sum(%s)::float8 FROM %s",
			nulls, c, c, c, c, from), nil
	case col.DataType.IsTemporal():
		return fmt.Sprintf("SELECT %s, min(%s)::text, max(%s)::text FROM %s", nulls, c, c, from), nil
	case col.DataType == model.DataTypeBoolean:
		return fmt.Sprintf("SELECT %s, count(*) FILTER (WHERE %s), count(*) FILTER (WHERE NOT %s) FROM %s",
			nulls, c, c, from), nil
	default:
		return fmt.Sprintf("SELECT %s, count(DISTINCT %s) FROM %s", nulls, c, from), nil
	}
}

// TopValues builds the most-frequent-values query for a textual column.
func TopValues(namespace, table, column string, limit int) (string, error) {
	if err := ValidateIdentifier(column); err != nil {
		return "", fmt.Errorf("invalid column name %q: %w", column, err)
	}
	c := QuoteIdentifier(column)
	return fmt.Sprintf("SELECT %s::text, count(*) FROM %s WHERE %s IS NOT NULL GROUP BY %s ORDER BY count(*) DESC, %s LIMIT %d",
		c, Qualified(namespace, table), c, c, c, limit), nil
}
