// Copyright 2021 Converter Systems LLC. All rights reserved.

package ua

// Well-known NodeIDs of namespace 0.
var (
	ObjectIDRootFolder    = NewNodeIDNumeric(0, 84)
	ObjectIDObjectsFolder = NewNodeIDNumeric(0, 85)
	ObjectIDTypesFolder   = NewNodeIDNumeric(0, 86)
	ObjectIDViewsFolder   = NewNodeIDNumeric(0, 87)
	ObjectIDServer        = NewNodeIDNumeric(0, 2253)

	ObjectTypeIDBaseObjectType = NewNodeIDNumeric(0, 58)
	ObjectTypeIDFolderType     = NewNodeIDNumeric(0, 61)

	VariableTypeIDBaseDataVariableType = NewNodeIDNumeric(0, 63)

	ReferenceTypeIDReferences          = NewNodeIDNumeric(0, 31)
	ReferenceTypeIDHierarchicalRefs    = NewNodeIDNumeric(0, 33)
	ReferenceTypeIDHasChild            = NewNodeIDNumeric(0, 34)
	ReferenceTypeIDOrganizes           = NewNodeIDNumeric(0, 35)
	ReferenceTypeIDHasTypeDefinition   = NewNodeIDNumeric(0, 40)
	ReferenceTypeIDAggregates          = NewNodeIDNumeric(0, 44)
	ReferenceTypeIDHasSubtype          = NewNodeIDNumeric(0, 45)
	ReferenceTypeIDHasProperty         = NewNodeIDNumeric(0, 46)
	ReferenceTypeIDHasComponent        = NewNodeIDNumeric(0, 47)
	ReferenceTypeIDHasHistoricalConfig = NewNodeIDNumeric(0, 56)
)

// DataTypeIDs of the builtin types, indexed by VariantType.
var dataTypeIDs = map[VariantType]NodeID{
	VariantTypeBoolean:       NewNodeIDNumeric(0, 1),
	VariantTypeSByte:         NewNodeIDNumeric(0, 2),
	VariantTypeByte:          NewNodeIDNumeric(0, 3),
	VariantTypeInt16:         NewNodeIDNumeric(0, 4),
	VariantTypeUInt16:        NewNodeIDNumeric(0, 5),
	VariantTypeInt32:         NewNodeIDNumeric(0, 6),
	VariantTypeUInt32:        NewNodeIDNumeric(0, 7),
	VariantTypeInt64:         NewNodeIDNumeric(0, 8),
	VariantTypeUInt64:        NewNodeIDNumeric(0, 9),
	VariantTypeFloat:         NewNodeIDNumeric(0, 10),
	VariantTypeDouble:        NewNodeIDNumeric(0, 11),
	VariantTypeString:        NewNodeIDNumeric(0, 12),
	VariantTypeDateTime:      NewNodeIDNumeric(0, 13),
	VariantTypeGUID:          NewNodeIDNumeric(0, 14),
	VariantTypeByteString:    NewNodeIDNumeric(0, 15),
	VariantTypeXMLElement:    NewNodeIDNumeric(0, 16),
	VariantTypeNodeID:        NewNodeIDNumeric(0, 17),
	VariantTypeStatusCode:    NewNodeIDNumeric(0, 19),
	VariantTypeQualifiedName: NewNodeIDNumeric(0, 20),
	VariantTypeLocalizedText: NewNodeIDNumeric(0, 21),
	VariantTypeDataValue:     NewNodeIDNumeric(0, 23),
}

// DataTypeIDBaseDataType is the abstract root of all data types.
var DataTypeIDBaseDataType = NewNodeIDNumeric(0, 24)

// DataTypeIDOf returns the NodeID of the data type of the value.
func DataTypeIDOf(value Variant) NodeID {
	t, _, ok := VariantTypeOf(value)
	if !ok {
		return DataTypeIDBaseDataType
	}
	if id, ok := dataTypeIDs[t]; ok {
		return id
	}
	return DataTypeIDBaseDataType
}

// NamespaceURI of the standard namespace.
const NamespaceURI = "http://opcfoundation.org/UA/"
