// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"sync"
	"time"

	"github.com/awcullen/uatree/ua"
)

// VariableNode is a node of class Variable. It carries the current value
// and the historizing flag consulted by the write path.
type VariableNode struct {
	sync.RWMutex
	nodeID                  ua.NodeID
	browseName              ua.QualifiedName
	displayName             ua.LocalizedText
	description             ua.LocalizedText
	references              []ua.Reference
	value                   ua.DataValue
	dataType                ua.NodeID
	valueRank               int32
	accessLevel             byte
	minimumSamplingInterval float64
	historizing             bool
}

var _ Node = (*VariableNode)(nil)

// NewVariableNode ...
func NewVariableNode(nodeID ua.NodeID, browseName ua.QualifiedName, displayName ua.LocalizedText, description ua.LocalizedText, references []ua.Reference, value ua.DataValue, dataType ua.NodeID, valueRank int32, accessLevel byte, minimumSamplingInterval float64, historizing bool) *VariableNode {
	return &VariableNode{
		nodeID:                  nodeID,
		browseName:              browseName,
		displayName:             displayName,
		description:             description,
		references:              references,
		value:                   value,
		dataType:                dataType,
		valueRank:               valueRank,
		accessLevel:             accessLevel,
		minimumSamplingInterval: minimumSamplingInterval,
		historizing:             historizing,
	}
}

// NodeID returns the NodeID attribute of this node.
func (n *VariableNode) NodeID() ua.NodeID {
	return n.nodeID
}

// NodeClass returns the NodeClass attribute of this node.
func (n *VariableNode) NodeClass() ua.NodeClass {
	return ua.NodeClassVariable
}

// BrowseName returns the BrowseName attribute of this node.
func (n *VariableNode) BrowseName() ua.QualifiedName {
	return n.browseName
}

// DisplayName returns the DisplayName attribute of this node.
func (n *VariableNode) DisplayName() ua.LocalizedText {
	return n.displayName
}

// Description returns the Description attribute of this node.
func (n *VariableNode) Description() ua.LocalizedText {
	return n.description
}

// References returns the References of this node.
func (n *VariableNode) References() []ua.Reference {
	n.RLock()
	res := n.references
	n.RUnlock()
	return res
}

// SetReferences sets the References of this node.
func (n *VariableNode) SetReferences(value []ua.Reference) {
	n.Lock()
	n.references = value
	n.Unlock()
}

// Value returns the value of the Variable.
func (n *VariableNode) Value() ua.DataValue {
	n.RLock()
	res := n.value
	n.RUnlock()
	return res
}

// SetValue sets the value of the Variable. A zero server timestamp is
// replaced with the current time.
func (n *VariableNode) SetValue(value ua.DataValue) {
	if value.ServerTimestamp.IsZero() {
		value.ServerTimestamp = time.Now()
	}
	n.Lock()
	n.value = value
	n.Unlock()
}

// DataType returns the DataType attribute of this node.
func (n *VariableNode) DataType() ua.NodeID {
	n.RLock()
	defer n.RUnlock()
	return n.dataType
}

// ValueRank returns the ValueRank attribute of this node.
func (n *VariableNode) ValueRank() int32 {
	return n.valueRank
}

// AccessLevel returns the AccessLevel attribute of this node.
func (n *VariableNode) AccessLevel() byte {
	n.RLock()
	defer n.RUnlock()
	return n.accessLevel
}

// SetAccessLevel sets the AccessLevel attribute of this node.
func (n *VariableNode) SetAccessLevel(value byte) {
	n.Lock()
	n.accessLevel = value
	n.Unlock()
}

// MinimumSamplingInterval returns the MinimumSamplingInterval attribute of this node, in milliseconds.
func (n *VariableNode) MinimumSamplingInterval() float64 {
	return n.minimumSamplingInterval
}

// Historizing returns the Historizing attribute of this node.
func (n *VariableNode) Historizing() bool {
	n.RLock()
	defer n.RUnlock()
	return n.historizing
}

// SetHistorizing sets the Historizing attribute of this node. The history
// read and write bits of the access level follow the flag.
func (n *VariableNode) SetHistorizing(value bool) {
	n.Lock()
	n.historizing = value
	if value {
		n.accessLevel |= ua.AccessLevelsHistoryRead | ua.AccessLevelsHistoryWrite
	} else {
		n.accessLevel &^= ua.AccessLevelsHistoryRead | ua.AccessLevelsHistoryWrite
	}
	n.Unlock()
}

// IsAttributeIDValid returns true if attributeId is supported for the node.
func (n *VariableNode) IsAttributeIDValid(attributeID uint32) bool {
	switch attributeID {
	case ua.AttributeIDValue, ua.AttributeIDDataType, ua.AttributeIDValueRank,
		ua.AttributeIDAccessLevel, ua.AttributeIDUserAccessLevel,
		ua.AttributeIDMinimumSamplingInterval, ua.AttributeIDHistorizing:
		return true
	default:
		return isBaseAttributeID(attributeID)
	}
}
