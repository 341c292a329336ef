package ddl

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006"}

var datetimeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

// Coerce converts a decoded JSON value into the Go value pgx binds for the
// storage type of dt. Nil and blank strings become nil (SQL NULL).
func Coerce(dt model.DataType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}

	switch StorageType(dt) {
	case TypeBigInt:
		return toInt64(v)
	case TypeNumeric:
		return toNumeric(v)
	case TypeDate:
		return toTime(v, dateLayouts)
	case TypeTimestamptz:
		return toTime(v, datetimeLayouts)
	case TypeBoolean:
		return toBool(v)
	default:
		return toText(v), nil
	}
}

// CoerceRow returns the values of row in column order, coerced to each
// column's storage type. A value is looked up by storage name, then by
// display name. Keys matching neither are ignored.
func CoerceRow(columns []model.Column, row model.Row) ([]any, error) {
	values := make([]any, len(columns))
	for i, c := range columns {
		raw, ok := row[c.Name]
		if !ok && c.DisplayName != "" {
			raw = row[c.DisplayName]
		}
		v, err := Coerce(c.DataType, raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		values[i] = v
	}
	return values, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("%v is out of range for an integer", n)
		}
		return int64(n), nil
	case json.Number:
		return toInt64(string(n))
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return 0, fmt.Errorf("%q is not an integer", n)
			}
			return toInt64(f)
		}
		return i, nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert %T to integer", v)
}

func toNumeric(v any) (pgtype.Numeric, error) {
	var s string
	switch n := v.(type) {
	case int:
		s = strconv.Itoa(n)
	case int64:
		s = strconv.FormatInt(n, 10)
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return pgtype.Numeric{}, fmt.Errorf("%v is not a finite number", n)
		}
		s = strconv.FormatFloat(n, 'f', -1, 64)
	case json.Number:
		s = string(n)
	case string:
		s = strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(n)
	default:
		return pgtype.Numeric{}, fmt.Errorf("cannot convert %T to number", v)
	}

	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("%v is not a number", v)
	}
	var num pgtype.Numeric
	if err := num.Scan(s); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("%v is not a number: %w", v, err)
	}
	return num, nil
}

func toTime(v any, layouts []string) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("%q is not a recognized date", t)
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to date", v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case float64:
		switch b {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	case json.Number:
		return toBool(string(b))
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "t", "yes", "y", "1":
			return true, nil
		case "false", "f", "no", "n", "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("%v is not a boolean", v)
}

func toText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case fmt.Stringer:
		return s.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
