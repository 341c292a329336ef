// Package ddl builds the Postgres statements used to provision workspace
// namespaces and to create, fill, read and drop dataset tables.
package ddl

import (
	"fmt"
	"strings"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
)

// ProvisionStatements returns the statements that create a namespace and its
// catalog tables. Every statement is idempotent.
func ProvisionStatements(namespace string) ([]string, error) {
	if err := ValidateNamespace(namespace); err != nil {
		return nil, fmt.Errorf("invalid namespace: %w", err)
	}

	return []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", QuoteIdentifier(namespace)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	table_name TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	columns JSONB NOT NULL DEFAULT '[]'::jsonb,
	row_count BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, Qualified(namespace, CatalogDatasets)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	layout JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, Qualified(namespace, CatalogDashboards)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	data JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, Qualified(namespace, CatalogDataTables)),
	}, nil
}

// CreateTable returns CREATE TABLE IF NOT EXISTS for a dataset table with the
// system columns followed by one column per dataset column.
func CreateTable(namespace, table string, columns []model.Column) (string, error) {
	if err := ValidateNamespace(namespace); err != nil {
		return "", fmt.Errorf("invalid namespace: %w", err)
	}
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if IsReservedTable(table) {
		return "", fmt.Errorf("table name %q is reserved", table)
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}

	defs := []string{
		QuoteIdentifier(RowIDColumn) + " BIGSERIAL PRIMARY KEY",
		QuoteIdentifier(IngestedAtColumn) + " TIMESTAMPTZ NOT NULL DEFAULT now()",
	}
	for _, c := range columns {
		if err := ValidateIdentifier(c.Name); err != nil {
			return "", fmt.Errorf("invalid column name %q: %w", c.Name, err)
		}
		defs = append(defs, fmt.Sprintf("%s %s", QuoteIdentifier(c.Name), StorageType(c.DataType)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		Qualified(namespace, table),
		strings.Join(defs, ", "),
	), nil
}

// DropTable returns DROP TABLE IF EXISTS for a dataset table.
func DropTable(namespace, table string) (string, error) {
	if err := ValidateNamespace(namespace); err != nil {
		return "", fmt.Errorf("invalid namespace: %w", err)
	}
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if IsReservedTable(table) {
		return "", fmt.Errorf("table name %q is reserved", table)
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", Qualified(namespace, table)), nil
}

// TruncateTable empties a dataset table and restarts its row id sequence.
func TruncateTable(namespace, table string) (string, error) {
	if err := ValidateNamespace(namespace); err != nil {
		return "", fmt.Errorf("invalid namespace: %w", err)
	}
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY", Qualified(namespace, table)), nil
}

// Insert returns a multi-row INSERT with positional parameters for rowCount
// rows of the given columns.
func Insert(namespace, table string, columns []string, rowCount int) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}
	if rowCount <= 0 {
		return "", fmt.Errorf("row count must be positive")
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		if err := ValidateIdentifier(c); err != nil {
			return "", fmt.Errorf("invalid column name %q: %w", c, err)
		}
		quoted[i] = QuoteIdentifier(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", Qualified(namespace, table), strings.Join(quoted, ", "))
	param := 1
	for r := 0; r < rowCount; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", param)
			param++
		}
		b.WriteByte(')')
	}
	return b.String(), nil
}

// MaxParams is the Postgres limit on bind parameters per statement.
const MaxParams = 65535

// BatchSizeFor caps batchSize so a single INSERT never exceeds MaxParams.
func BatchSizeFor(batchSize, columnCount int) int {
	if columnCount <= 0 {
		return batchSize
	}
	if limit := MaxParams / columnCount; batchSize > limit {
		return limit
	}
	return batchSize
}
