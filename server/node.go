// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"github.com/awcullen/uatree/ua"
)

// Node is the common interface of every node in the address space.
type Node interface {
	NodeID() ua.NodeID
	NodeClass() ua.NodeClass
	BrowseName() ua.QualifiedName
	DisplayName() ua.LocalizedText
	Description() ua.LocalizedText
	References() []ua.Reference
	SetReferences([]ua.Reference)
	IsAttributeIDValid(uint32) bool
}

// isBaseAttributeID reports whether the attribute is shared by every node class.
func isBaseAttributeID(attributeID uint32) bool {
	switch attributeID {
	case ua.AttributeIDNodeID, ua.AttributeIDNodeClass, ua.AttributeIDBrowseName,
		ua.AttributeIDDisplayName, ua.AttributeIDDescription:
		return true
	default:
		return false
	}
}

// typeDefinitionOf returns the target of the HasTypeDefinition reference, or NilNodeID.
func typeDefinitionOf(n Node) ua.NodeID {
	for _, r := range n.References() {
		if !r.IsInverse && r.ReferenceTypeID == ua.ReferenceTypeIDHasTypeDefinition {
			return r.TargetID
		}
	}
	return ua.NilNodeID
}
