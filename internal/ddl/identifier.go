package ddl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pinn-product-builder/pinnbai-sub001/common/ident"
)

// identifierRe accepts exactly what ident.Sanitize can produce.
var identifierRe = regexp.MustCompile(`^[a-z0-9_]+$`)

// Catalog tables created in every workspace namespace. Dataset tables may not
// reuse these names.
const (
	CatalogDatasets   = "datasets"
	CatalogDashboards = "dashboards"
	CatalogDataTables = "data_tables"
)

// System columns added to every dataset table. Sanitized tenant column names
// never start with '_', so these cannot collide.
const (
	RowIDColumn      = "_row_id"
	IngestedAtColumn = "_ingested_at"
)

var reservedTables = map[string]struct{}{
	CatalogDatasets:   {},
	CatalogDashboards: {},
	CatalogDataTables: {},
}

// IsReservedTable reports whether name collides with a catalog table.
func IsReservedTable(name string) bool {
	_, ok := reservedTables[name]
	return ok
}

// ValidateIdentifier checks that name is a non-empty sanitized identifier.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > ident.MaxLength {
		return fmt.Errorf("name must be at most %d characters", ident.MaxLength)
	}
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("name must match [a-z0-9_]+")
	}
	return nil
}

// ValidateNamespace checks that name is a workspace namespace.
func ValidateNamespace(name string) error {
	if err := ValidateIdentifier(name); err != nil {
		return err
	}
	if !ident.IsNamespace(name) {
		return fmt.Errorf("namespace must start with %q", ident.NamespacePrefix)
	}
	return nil
}

// QuoteIdentifier wraps a SQL identifier in double quotes, doubling any
// embedded double quote.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Qualified returns "namespace"."table".
func Qualified(namespace, table string) string {
	return QuoteIdentifier(namespace) + "." + QuoteIdentifier(table)
}
