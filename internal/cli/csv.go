package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pinn-product-builder/pinnbai-sub001/common/ident"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
)

// parseTypeFlags turns repeated name=type flags into a map keyed by the
// sanitized column name.
func parseTypeFlags(flags []string) (map[string]string, error) {
	types := make(map[string]string, len(flags))
	for _, f := range flags {
		name, dt, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(dt) == "" {
			return nil, fmt.Errorf("invalid --type %q: want name=type", f)
		}
		if model.ParseDataType(dt) == model.DataTypeUnknown {
			return nil, fmt.Errorf("invalid --type %q: unknown type %q", f, dt)
		}
		types[ident.Sanitize(name, ident.MaxLength)] = strings.TrimSpace(dt)
	}
	return types, nil
}

// readCSV reads a header row and records. Columns default to text; rows are
// keyed by sanitized header name with blank cells left for coercion to NULL.
func readCSV(r io.Reader, types map[string]string) ([]service.ColumnSpec, []model.Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("file is empty")
	}
	if err != nil {
		return nil, nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	columns := make([]service.ColumnSpec, len(header))
	keys := make([]string, len(header))
	used := make(map[string]bool, len(types))
	for i, h := range header {
		keys[i] = ident.Sanitize(h, ident.MaxLength)
		dt := string(model.DataTypeText)
		if t, ok := types[keys[i]]; ok {
			dt = t
			used[keys[i]] = true
		}
		columns[i] = service.ColumnSpec{Name: h, DataType: dt}
	}
	for name := range types {
		if !used[name] {
			return nil, nil, fmt.Errorf("--type names unknown column %q", name)
		}
	}

	var rows []model.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		row := make(model.Row, len(keys))
		for i, v := range record {
			row[keys[i]] = v
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}
