package model

import "strings"

// DataType is the abstract column type detected upstream for imported data.
// DataTypeUnknown is the explicit catch-all arm; it is stored as text.
type DataType string

const (
	DataTypeText     DataType = "text"
	DataTypeCategory DataType = "category"
	DataTypeID       DataType = "id"
	DataTypeInteger  DataType = "integer"
	DataTypeNumber   DataType = "number"
	DataTypeCurrency DataType = "currency"
	DataTypePercent  DataType = "percent"
	DataTypeDate     DataType = "date"
	DataTypeDatetime DataType = "datetime"
	DataTypeBoolean  DataType = "boolean"
	DataTypeUnknown  DataType = "unknown"
)

// DataTypes lists every recognized type, excluding DataTypeUnknown.
var DataTypes = []DataType{
	DataTypeText,
	DataTypeCategory,
	DataTypeID,
	DataTypeInteger,
	DataTypeNumber,
	DataTypeCurrency,
	DataTypePercent,
	DataTypeDate,
	DataTypeDatetime,
	DataTypeBoolean,
}

// ParseDataType maps an upstream type tag onto the closed set. Unrecognized
// tags become DataTypeUnknown instead of failing.
func ParseDataType(s string) DataType {
	dt := DataType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DataTypes {
		if dt == known {
			return dt
		}
	}
	return DataTypeUnknown
}

func (d DataType) IsNumeric() bool {
	switch d {
	case DataTypeInteger, DataTypeNumber, DataTypeCurrency, DataTypePercent:
		return true
	}
	return false
}

func (d DataType) IsTemporal() bool {
	return d == DataTypeDate || d == DataTypeDatetime
}

func (d DataType) IsTextual() bool {
	return !d.IsNumeric() && !d.IsTemporal() && d != DataTypeBoolean
}
