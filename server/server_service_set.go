// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"context"
	"slices"
	"time"

	"github.com/awcullen/uatree/ua"
)

// ReferenceDescription describes a forward reference returned by Browse.
type ReferenceDescription struct {
	ReferenceTypeID ua.NodeID
	NodeID          ua.NodeID
	BrowseName      ua.QualifiedName
	DisplayName     ua.LocalizedText
	NodeClass       ua.NodeClass
	TypeDefinition  ua.NodeID
}

// AddFolder adds a FolderType object under parent.
func (srv *Server) AddFolder(parent ua.NodeID, browseName ua.QualifiedName, requestedID ua.NodeID) (ua.NodeID, error) {
	return srv.AddObject(parent, browseName, requestedID, ua.ObjectTypeIDFolderType)
}

// AddObject adds an object of the given type under parent. Children of
// folders are organized, children of other nodes are components.
func (srv *Server) AddObject(parent ua.NodeID, browseName ua.QualifiedName, requestedID ua.NodeID, typeDefinition ua.NodeID) (ua.NodeID, error) {
	if srv.halted() {
		return ua.NilNodeID, ua.BadServerHalted
	}
	if browseName.Name == "" {
		return ua.NilNodeID, ua.BadBrowseNameInvalid
	}
	if typeDefinition.IsNil() {
		typeDefinition = ua.ObjectTypeIDBaseObjectType
	}
	refType, err := srv.childReferenceType(parent)
	if err != nil {
		return ua.NilNodeID, err
	}
	n, err := srv.namespaceManager.InsertNode(parent, requestedID, browseName, refType, func(id ua.NodeID) Node {
		return NewObjectNode(id, browseName, ua.LocalizedText{Text: browseName.Name}, ua.LocalizedText{}, []ua.Reference{
			ua.NewReference(ua.ReferenceTypeIDHasTypeDefinition, false, typeDefinition),
		}, 0)
	})
	if err != nil {
		srv.logger.WithField("parent", parent).WithField("name", browseName.Name).WithError(err).Debug("Error adding object.")
		return ua.NilNodeID, err
	}
	return n.NodeID(), nil
}

// AddVariable adds a variable under parent. Its data type follows the
// runtime type of value.
func (srv *Server) AddVariable(parent ua.NodeID, browseName ua.QualifiedName, value ua.Variant, requestedID ua.NodeID, historizing bool) (ua.NodeID, error) {
	if srv.halted() {
		return ua.NilNodeID, ua.BadServerHalted
	}
	if browseName.Name == "" {
		return ua.NilNodeID, ua.BadBrowseNameInvalid
	}
	valueRank := ua.ValueRankScalar
	if value != nil {
		_, isArray, ok := ua.VariantTypeOf(value)
		if !ok {
			return ua.NilNodeID, ua.BadTypeMismatch
		}
		if isArray {
			valueRank = ua.ValueRankOneDimension
		}
	}
	refType, err := srv.childReferenceType(parent)
	if err != nil {
		return ua.NilNodeID, err
	}
	now := time.Now()
	accessLevel := ua.AccessLevelsCurrentRead | ua.AccessLevelsCurrentWrite
	n, err := srv.namespaceManager.InsertNode(parent, requestedID, browseName, refType, func(id ua.NodeID) Node {
		v := NewVariableNode(id, browseName, ua.LocalizedText{Text: browseName.Name}, ua.LocalizedText{}, []ua.Reference{
			ua.NewReference(ua.ReferenceTypeIDHasTypeDefinition, false, ua.VariableTypeIDBaseDataVariableType),
		}, ua.NewDataValue(value, ua.Good, now, 0, now, 0), ua.DataTypeIDOf(value), valueRank, accessLevel, float64(srv.minSamplingInterval/time.Millisecond), false)
		v.SetHistorizing(historizing)
		return v
	})
	if err != nil {
		srv.logger.WithField("parent", parent).WithField("name", browseName.Name).WithError(err).Debug("Error adding variable.")
		return ua.NilNodeID, err
	}
	return n.NodeID(), nil
}

func (srv *Server) childReferenceType(parent ua.NodeID) (ua.NodeID, error) {
	p, ok := srv.namespaceManager.FindNode(parent)
	if !ok {
		return ua.NilNodeID, ua.BadParentNodeIDInvalid
	}
	if o, ok := p.(*ObjectNode); ok && o.IsFolder() {
		return ua.ReferenceTypeIDOrganizes, nil
	}
	return ua.ReferenceTypeIDHasComponent, nil
}

// DeleteNode removes the node, and optionally its hierarchical children.
// Nodes of the standard namespace cannot be deleted.
func (srv *Server) DeleteNode(id ua.NodeID, deleteChildren bool) error {
	if srv.halted() {
		return ua.BadServerHalted
	}
	if deleteChildren {
		count, err := srv.namespaceManager.DeleteNodeByIDRecursive(id)
		if err == nil {
			srv.logger.WithField("node", id).WithField("count", count).Debug("Deleted nodes.")
		}
		return err
	}
	return srv.namespaceManager.DeleteNodeByID(id)
}

// Browse returns the forward hierarchical references of the node.
func (srv *Server) Browse(id ua.NodeID) ([]ReferenceDescription, error) {
	nm := srv.namespaceManager
	n, ok := nm.FindNode(id)
	if !ok {
		return nil, ua.BadNodeIDUnknown
	}
	res := []ReferenceDescription{}
	for _, r := range n.References() {
		if r.IsInverse || !slices.Contains(hasChildReferenceTypes, r.ReferenceTypeID) {
			continue
		}
		t, ok := nm.FindNode(r.TargetID)
		if !ok {
			continue
		}
		res = append(res, ReferenceDescription{
			ReferenceTypeID: r.ReferenceTypeID,
			NodeID:          t.NodeID(),
			BrowseName:      t.BrowseName(),
			DisplayName:     t.DisplayName(),
			NodeClass:       t.NodeClass(),
			TypeDefinition:  typeDefinitionOf(t),
		})
	}
	return res, nil
}

// FindChild returns the id of the hierarchical child of parent with the given browse name.
func (srv *Server) FindChild(parent ua.NodeID, browseName ua.QualifiedName) (ua.NodeID, error) {
	nm := srv.namespaceManager
	p, ok := nm.FindNode(parent)
	if !ok {
		return ua.NilNodeID, ua.BadNodeIDUnknown
	}
	c, ok := nm.FindChild(p, browseName)
	if !ok {
		return ua.NilNodeID, ua.BadNoMatch
	}
	return c.NodeID(), nil
}

// NodeClassOf returns the class of the node.
func (srv *Server) NodeClassOf(id ua.NodeID) (ua.NodeClass, error) {
	n, ok := srv.namespaceManager.FindNode(id)
	if !ok {
		return ua.NodeClassUnspecified, ua.BadNodeIDUnknown
	}
	return n.NodeClass(), nil
}

// SetHistorizing sets the Historizing attribute of the variable.
func (srv *Server) SetHistorizing(id ua.NodeID, historizing bool) error {
	n, err := srv.findVariable(id)
	if err != nil {
		return err
	}
	n.SetHistorizing(historizing)
	return nil
}

func (srv *Server) findVariable(id ua.NodeID) (*VariableNode, error) {
	n, ok := srv.namespaceManager.FindNode(id)
	if !ok {
		return nil, ua.BadNodeIDUnknown
	}
	v, ok := n.(*VariableNode)
	if !ok {
		return nil, ua.BadAttributeIDInvalid
	}
	return v, nil
}

// ReadValue returns the value of the variable.
func (srv *Server) ReadValue(ctx context.Context, id ua.NodeID) (ua.DataValue, error) {
	if srv.halted() {
		return ua.DataValue{}, ua.BadServerHalted
	}
	n, err := srv.findVariable(id)
	if err != nil {
		return ua.DataValue{}, err
	}
	if n.AccessLevel()&ua.AccessLevelsCurrentRead == 0 {
		return ua.DataValue{}, ua.BadNotReadable
	}
	return n.Value(), nil
}

// WriteValue writes the value to the variable with a source timestamp of now.
func (srv *Server) WriteValue(ctx context.Context, id ua.NodeID, value ua.Variant) error {
	return srv.WriteDataValue(ctx, id, ua.DataValue{Value: value})
}

// WriteDataValue writes the value, status and source timestamp to the variable.
// The value must have the variant type of the current value, if any. The
// configured history database is notified on the callback loop.
func (srv *Server) WriteDataValue(ctx context.Context, id ua.NodeID, value ua.DataValue) error {
	if srv.halted() {
		return ua.BadServerHalted
	}
	n, err := srv.findVariable(id)
	if err != nil {
		return err
	}
	if n.AccessLevel()&ua.AccessLevelsCurrentWrite == 0 {
		return ua.BadNotWritable
	}
	if _, _, ok := ua.VariantTypeOf(value.Value); !ok && value.Value != nil {
		return ua.BadTypeMismatch
	}
	if current := n.Value().Value; current != nil && !ua.SameVariantType(current, value.Value) {
		return ua.BadTypeMismatch
	}
	now := time.Now()
	if value.SourceTimestamp.IsZero() {
		value.SourceTimestamp = now
	}
	value.ServerTimestamp = now
	n.SetValue(value)

	if db := srv.historyDatabase(); db.SetValue != nil {
		session := SessionFromContext(ctx)
		historizing := n.Historizing()
		srv.dispatch(func() {
			db.SetValue(srv, db.Context, session, id, historizing, value)
		})
	}
	return nil
}

// HistoryReadRaw reads raw values of the nodes from the history database.
func (srv *Server) HistoryReadRaw(ctx context.Context, details ua.ReadRawModifiedDetails, timestampsToReturn ua.TimestampsToReturn, releaseContinuationPoints bool, nodesToRead []ua.HistoryReadValueID) ([]ua.HistoryReadResult, error) {
	if timestampsToReturn < ua.TimestampsToReturnSource || timestampsToReturn > ua.TimestampsToReturnNeither {
		return nil, ua.BadTimestampsToReturnInvalid
	}
	if details.IsReadModified {
		return nil, ua.BadHistoryOperationUnsupported
	}
	db := srv.historyDatabase()
	if db.ReadRaw == nil {
		return nil, ua.BadHistoryOperationUnsupported
	}
	session := SessionFromContext(ctx)
	results := make([]ua.HistoryReadResult, len(nodesToRead))
	var status ua.StatusCode
	if err := srv.invoke(func() {
		status = db.ReadRaw(srv, db.Context, session, details, timestampsToReturn, releaseContinuationPoints, nodesToRead, results)
	}); err != nil {
		return nil, err
	}
	if status.IsBad() {
		return results, status
	}
	return results, nil
}

// HistoryUpdateData inserts, replaces or updates values in the history database.
func (srv *Server) HistoryUpdateData(ctx context.Context, details []ua.UpdateDataDetails) ([]ua.HistoryUpdateResult, error) {
	db := srv.historyDatabase()
	if db.UpdateData == nil {
		return nil, ua.BadHistoryOperationUnsupported
	}
	session := SessionFromContext(ctx)
	results := make([]ua.HistoryUpdateResult, len(details))
	if err := srv.invoke(func() {
		for i, d := range details {
			db.UpdateData(srv, db.Context, session, d, &results[i])
		}
	}); err != nil {
		return nil, err
	}
	return results, nil
}

// HistoryDeleteRawModified removes values in a time range from the history database.
func (srv *Server) HistoryDeleteRawModified(ctx context.Context, details []ua.DeleteRawModifiedDetails) ([]ua.HistoryUpdateResult, error) {
	db := srv.historyDatabase()
	if db.DeleteRawModified == nil {
		return nil, ua.BadHistoryOperationUnsupported
	}
	session := SessionFromContext(ctx)
	results := make([]ua.HistoryUpdateResult, len(details))
	if err := srv.invoke(func() {
		for i, d := range details {
			db.DeleteRawModified(srv, db.Context, session, d, &results[i])
		}
	}); err != nil {
		return nil, err
	}
	return results, nil
}
