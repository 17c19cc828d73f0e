// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"sync"

	"github.com/awcullen/uatree/ua"
)

// VariableTypeNode ...
type VariableTypeNode struct {
	sync.RWMutex
	nodeID      ua.NodeID
	browseName  ua.QualifiedName
	displayName ua.LocalizedText
	references  []ua.Reference
	dataType    ua.NodeID
	valueRank   int32
	isAbstract  bool
}

var _ Node = (*VariableTypeNode)(nil)

// NewVariableTypeNode ...
func NewVariableTypeNode(nodeID ua.NodeID, browseName ua.QualifiedName, references []ua.Reference, dataType ua.NodeID, valueRank int32, isAbstract bool) *VariableTypeNode {
	return &VariableTypeNode{
		nodeID:      nodeID,
		browseName:  browseName,
		displayName: ua.LocalizedText{Text: browseName.Name},
		references:  references,
		dataType:    dataType,
		valueRank:   valueRank,
		isAbstract:  isAbstract,
	}
}

// NodeID returns the NodeID attribute of this node.
func (n *VariableTypeNode) NodeID() ua.NodeID {
	return n.nodeID
}

// NodeClass returns the NodeClass attribute of this node.
func (n *VariableTypeNode) NodeClass() ua.NodeClass {
	return ua.NodeClassVariableType
}

// BrowseName returns the BrowseName attribute of this node.
func (n *VariableTypeNode) BrowseName() ua.QualifiedName {
	return n.browseName
}

// DisplayName returns the DisplayName attribute of this node.
func (n *VariableTypeNode) DisplayName() ua.LocalizedText {
	return n.displayName
}

// Description returns the Description attribute of this node.
func (n *VariableTypeNode) Description() ua.LocalizedText {
	return ua.LocalizedText{}
}

// References returns the References of this node.
func (n *VariableTypeNode) References() []ua.Reference {
	n.RLock()
	res := n.references
	n.RUnlock()
	return res
}

// SetReferences sets the References of this node.
func (n *VariableTypeNode) SetReferences(value []ua.Reference) {
	n.Lock()
	n.references = value
	n.Unlock()
}

// DataType returns the DataType attribute of this node.
func (n *VariableTypeNode) DataType() ua.NodeID {
	return n.dataType
}

// ValueRank returns the ValueRank attribute of this node.
func (n *VariableTypeNode) ValueRank() int32 {
	return n.valueRank
}

// IsAbstract returns the IsAbstract attribute of this node.
func (n *VariableTypeNode) IsAbstract() bool {
	return n.isAbstract
}

// IsAttributeIDValid returns true if attributeId is supported for the node.
func (n *VariableTypeNode) IsAttributeIDValid(attributeID uint32) bool {
	switch attributeID {
	case ua.AttributeIDDataType, ua.AttributeIDValueRank, ua.AttributeIDIsAbstract:
		return true
	default:
		return isBaseAttributeID(attributeID)
	}
}
