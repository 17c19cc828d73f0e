// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"sync"

	"github.com/awcullen/uatree/ua"
)

// ObjectNode is a node of class Object. Folders are objects with a
// HasTypeDefinition reference to FolderType.
type ObjectNode struct {
	sync.RWMutex
	nodeID        ua.NodeID
	browseName    ua.QualifiedName
	displayName   ua.LocalizedText
	description   ua.LocalizedText
	references    []ua.Reference
	eventNotifier byte
}

var _ Node = (*ObjectNode)(nil)

// NewObjectNode ...
func NewObjectNode(nodeID ua.NodeID, browseName ua.QualifiedName, displayName ua.LocalizedText, description ua.LocalizedText, references []ua.Reference, eventNotifier byte) *ObjectNode {
	return &ObjectNode{
		nodeID:        nodeID,
		browseName:    browseName,
		displayName:   displayName,
		description:   description,
		references:    references,
		eventNotifier: eventNotifier,
	}
}

// NodeID returns the NodeID attribute of this node.
func (n *ObjectNode) NodeID() ua.NodeID {
	return n.nodeID
}

// NodeClass returns the NodeClass attribute of this node.
func (n *ObjectNode) NodeClass() ua.NodeClass {
	return ua.NodeClassObject
}

// BrowseName returns the BrowseName attribute of this node.
func (n *ObjectNode) BrowseName() ua.QualifiedName {
	return n.browseName
}

// DisplayName returns the DisplayName attribute of this node.
func (n *ObjectNode) DisplayName() ua.LocalizedText {
	return n.displayName
}

// Description returns the Description attribute of this node.
func (n *ObjectNode) Description() ua.LocalizedText {
	return n.description
}

// References returns the References of this node.
func (n *ObjectNode) References() []ua.Reference {
	n.RLock()
	res := n.references
	n.RUnlock()
	return res
}

// SetReferences sets the References of this node.
func (n *ObjectNode) SetReferences(value []ua.Reference) {
	n.Lock()
	n.references = value
	n.Unlock()
}

// EventNotifier returns the EventNotifier attribute of this node.
func (n *ObjectNode) EventNotifier() byte {
	return n.eventNotifier
}

// IsFolder returns true if the node's type definition is FolderType.
func (n *ObjectNode) IsFolder() bool {
	return typeDefinitionOf(n) == ua.ObjectTypeIDFolderType
}

// IsAttributeIDValid returns true if attributeId is supported for the node.
func (n *ObjectNode) IsAttributeIDValid(attributeID uint32) bool {
	return isBaseAttributeID(attributeID) || attributeID == ua.AttributeIDEventNotifier
}
