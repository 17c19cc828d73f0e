// Copyright 2021 Converter Systems LLC. All rights reserved.

package ua

// NodeClass is the class of a node in the address space.
type NodeClass int32

// NodeClass enumeration
const (
	NodeClassUnspecified   NodeClass = 0
	NodeClassObject        NodeClass = 1
	NodeClassVariable      NodeClass = 2
	NodeClassMethod        NodeClass = 4
	NodeClassObjectType    NodeClass = 8
	NodeClassVariableType  NodeClass = 16
	NodeClassReferenceType NodeClass = 32
	NodeClassDataType      NodeClass = 64
	NodeClassView          NodeClass = 128
)

// String returns the name of the node class.
func (c NodeClass) String() string {
	switch c {
	case NodeClassObject:
		return "Object"
	case NodeClassVariable:
		return "Variable"
	case NodeClassMethod:
		return "Method"
	case NodeClassObjectType:
		return "ObjectType"
	case NodeClassVariableType:
		return "VariableType"
	case NodeClassReferenceType:
		return "ReferenceType"
	case NodeClassDataType:
		return "DataType"
	case NodeClassView:
		return "View"
	default:
		return "Unspecified"
	}
}

// AttributeIDs
const (
	AttributeIDNodeID                  uint32 = 1
	AttributeIDNodeClass               uint32 = 2
	AttributeIDBrowseName              uint32 = 3
	AttributeIDDisplayName             uint32 = 4
	AttributeIDDescription             uint32 = 5
	AttributeIDWriteMask               uint32 = 6
	AttributeIDUserWriteMask           uint32 = 7
	AttributeIDIsAbstract              uint32 = 8
	AttributeIDSymmetric               uint32 = 9
	AttributeIDInverseName             uint32 = 10
	AttributeIDContainsNoLoops         uint32 = 11
	AttributeIDEventNotifier           uint32 = 12
	AttributeIDValue                   uint32 = 13
	AttributeIDDataType                uint32 = 14
	AttributeIDValueRank               uint32 = 15
	AttributeIDArrayDimensions         uint32 = 16
	AttributeIDAccessLevel             uint32 = 17
	AttributeIDUserAccessLevel         uint32 = 18
	AttributeIDMinimumSamplingInterval uint32 = 19
	AttributeIDHistorizing             uint32 = 20
)

// AccessLevels
const (
	AccessLevelsNone           byte = 0x00
	AccessLevelsCurrentRead    byte = 0x01
	AccessLevelsCurrentWrite   byte = 0x02
	AccessLevelsHistoryRead    byte = 0x04
	AccessLevelsHistoryWrite   byte = 0x08
	AccessLevelsSemanticChange byte = 0x10
	AccessLevelsStatusWrite    byte = 0x20
	AccessLevelsTimestampWrite byte = 0x40
)

// ValueRanks
const (
	ValueRankScalarOrOneDimension int32 = -3
	ValueRankAny                  int32 = -2
	ValueRankScalar               int32 = -1
	ValueRankOneOrMoreDimensions  int32 = 0
	ValueRankOneDimension         int32 = 1
)

// Reference is a typed, directed link from the owning node to the target node.
type Reference struct {
	ReferenceTypeID NodeID
	IsInverse       bool
	TargetID        NodeID
}

// NewReference constructs a Reference.
func NewReference(referenceTypeID NodeID, isInverse bool, targetID NodeID) Reference {
	return Reference{referenceTypeID, isInverse, targetID}
}
