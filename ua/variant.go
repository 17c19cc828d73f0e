// Copyright 2021 Converter Systems LLC. All rights reserved.

package ua

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"time"

	uuid "github.com/google/uuid"
)

var (
	validXML = regexp.MustCompile(`[^\x09\x0A\x0D\x20-\x{D7FF}\x{E000}-\x{FFFD}\x{10000}-\x{10FFFF}]+`)
)

// XMLElement is stored as string
type XMLElement string

// String returns element as a string.
func (e XMLElement) String() string {
	return validXML.ReplaceAllString(string(e), "")
}

// ByteString is stored as a string.
type ByteString string

// String returns ByteString as a base64-encoded string.
func (b ByteString) String() string {
	return base64.StdEncoding.EncodeToString([]byte(b))
}

// MarshalJSON returns ByteString as a base64-encoded string.
func (b ByteString) MarshalJSON() ([]byte, error) {
	return json.Marshal([]byte(b))
}

// Variant stores a value of one of the builtin types, or a one-dimensional
// slice of a builtin type. A nil Variant is the null value.
type Variant = any

// VariantType is the kind of value stored in the Variant.
type VariantType byte

// VariantTypes
const (
	VariantTypeNull VariantType = iota
	VariantTypeBoolean
	VariantTypeSByte
	VariantTypeByte
	VariantTypeInt16
	VariantTypeUInt16
	VariantTypeInt32
	VariantTypeUInt32
	VariantTypeInt64
	VariantTypeUInt64
	VariantTypeFloat
	VariantTypeDouble
	VariantTypeString
	VariantTypeDateTime
	VariantTypeGUID
	VariantTypeByteString
	VariantTypeXMLElement
	VariantTypeNodeID
	VariantTypeExpandedNodeID
	VariantTypeStatusCode
	VariantTypeQualifiedName
	VariantTypeLocalizedText
	VariantTypeExtensionObject
	VariantTypeDataValue
	VariantTypeVariant
	VariantTypeDiagnosticInfo
)

var variantTypeNames = map[VariantType]string{
	VariantTypeNull:          "Null",
	VariantTypeBoolean:       "Boolean",
	VariantTypeSByte:         "SByte",
	VariantTypeByte:          "Byte",
	VariantTypeInt16:         "Int16",
	VariantTypeUInt16:        "UInt16",
	VariantTypeInt32:         "Int32",
	VariantTypeUInt32:        "UInt32",
	VariantTypeInt64:         "Int64",
	VariantTypeUInt64:        "UInt64",
	VariantTypeFloat:         "Float",
	VariantTypeDouble:        "Double",
	VariantTypeString:        "String",
	VariantTypeDateTime:      "DateTime",
	VariantTypeGUID:          "Guid",
	VariantTypeByteString:    "ByteString",
	VariantTypeXMLElement:    "XmlElement",
	VariantTypeNodeID:        "NodeId",
	VariantTypeStatusCode:    "StatusCode",
	VariantTypeQualifiedName: "QualifiedName",
	VariantTypeLocalizedText: "LocalizedText",
	VariantTypeDataValue:     "DataValue",
}

// String returns the name of the builtin type.
func (t VariantType) String() string {
	if s, ok := variantTypeNames[t]; ok {
		return s
	}
	return "Unknown"
}

// VariantTypeOf returns the builtin type of the value and whether the value is an array.
// The ok result is false for values that are not one of the builtin types.
func VariantTypeOf(value Variant) (t VariantType, isArray bool, ok bool) {
	switch value.(type) {
	case nil:
		return VariantTypeNull, false, true
	case bool:
		return VariantTypeBoolean, false, true
	case int8:
		return VariantTypeSByte, false, true
	case uint8:
		return VariantTypeByte, false, true
	case int16:
		return VariantTypeInt16, false, true
	case uint16:
		return VariantTypeUInt16, false, true
	case int32:
		return VariantTypeInt32, false, true
	case uint32:
		return VariantTypeUInt32, false, true
	case int64:
		return VariantTypeInt64, false, true
	case uint64:
		return VariantTypeUInt64, false, true
	case float32:
		return VariantTypeFloat, false, true
	case float64:
		return VariantTypeDouble, false, true
	case string:
		return VariantTypeString, false, true
	case time.Time:
		return VariantTypeDateTime, false, true
	case uuid.UUID:
		return VariantTypeGUID, false, true
	case ByteString:
		return VariantTypeByteString, false, true
	case XMLElement:
		return VariantTypeXMLElement, false, true
	case NodeID:
		return VariantTypeNodeID, false, true
	case StatusCode:
		return VariantTypeStatusCode, false, true
	case QualifiedName:
		return VariantTypeQualifiedName, false, true
	case LocalizedText:
		return VariantTypeLocalizedText, false, true
	case DataValue:
		return VariantTypeDataValue, false, true
	case []bool:
		return VariantTypeBoolean, true, true
	case []int8:
		return VariantTypeSByte, true, true
	case []uint8:
		return VariantTypeByte, true, true
	case []int16:
		return VariantTypeInt16, true, true
	case []uint16:
		return VariantTypeUInt16, true, true
	case []int32:
		return VariantTypeInt32, true, true
	case []uint32:
		return VariantTypeUInt32, true, true
	case []int64:
		return VariantTypeInt64, true, true
	case []uint64:
		return VariantTypeUInt64, true, true
	case []float32:
		return VariantTypeFloat, true, true
	case []float64:
		return VariantTypeDouble, true, true
	case []string:
		return VariantTypeString, true, true
	case []time.Time:
		return VariantTypeDateTime, true, true
	case []uuid.UUID:
		return VariantTypeGUID, true, true
	case []ByteString:
		return VariantTypeByteString, true, true
	case []NodeID:
		return VariantTypeNodeID, true, true
	case []StatusCode:
		return VariantTypeStatusCode, true, true
	case []QualifiedName:
		return VariantTypeQualifiedName, true, true
	case []LocalizedText:
		return VariantTypeLocalizedText, true, true
	default:
		return VariantTypeNull, false, false
	}
}

// SameVariantType returns true if both values hold the same builtin type and rank.
func SameVariantType(a, b Variant) bool {
	ta, aa, oka := VariantTypeOf(a)
	tb, ab, okb := VariantTypeOf(b)
	return oka && okb && ta == tb && aa == ab
}
