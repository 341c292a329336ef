package ddl

import "github.com/pinn-product-builder/pinnbai-sub001/internal/model"

// Postgres column types used for dataset tables.
const (
	TypeText        = "TEXT"
	TypeBigInt      = "BIGINT"
	TypeNumeric     = "NUMERIC"
	TypeDate        = "DATE"
	TypeTimestamptz = "TIMESTAMPTZ"
	TypeBoolean     = "BOOLEAN"
)

// StorageType maps an abstract data type to its Postgres column type.
// Anything outside the recognized set is stored as TEXT so ingestion never
// fails on an unexpected type tag.
func StorageType(dt model.DataType) string {
	switch dt {
	case model.DataTypeText, model.DataTypeCategory, model.DataTypeID:
		return TypeText
	case model.DataTypeInteger:
		return TypeBigInt
	case model.DataTypeNumber, model.DataTypeCurrency, model.DataTypePercent:
		return TypeNumeric
	case model.DataTypeDate:
		return TypeDate
	case model.DataTypeDatetime:
		return TypeTimestamptz
	case model.DataTypeBoolean:
		return TypeBoolean
	default:
		return TypeText
	}
}
