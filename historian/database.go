// Copyright 2021 Converter Systems LLC. All rights reserved.

package historian

import (
	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
)

// HistoryDatabase binds a server.HistoryDatabase table to DatabaseHooks.
// It must stay reachable for as long as a server uses its table.
type HistoryDatabase struct {
	registry    *uatree.Registry
	hooks       DatabaseHooks
	table       server.HistoryDatabase
	initialised bool
}

// NewHistoryDatabase returns an adapter with an empty table. A nil registry
// means uatree.DefaultRegistry, nil hooks mean UnimplementedDatabase.
func NewHistoryDatabase(reg *uatree.Registry, hooks DatabaseHooks) *HistoryDatabase {
	if reg == nil {
		reg = uatree.DefaultRegistry
	}
	if hooks == nil {
		hooks = UnimplementedDatabase{}
	}
	return &HistoryDatabase{registry: reg, hooks: hooks}
}

// Initialise binds every slot of the table to a trampoline.
func (d *HistoryDatabase) Initialise() {
	d.table = server.HistoryDatabase{
		Context:           d,
		SetValue:          databaseSetValue,
		ReadRaw:           readRaw,
		UpdateData:        updateData,
		DeleteRawModified: deleteRawModified,
	}
	d.initialised = true
}

// Initialised reports whether Initialise was called.
func (d *HistoryDatabase) Initialised() bool {
	return d.initialised
}

// Table returns a copy of the table.
func (d *HistoryDatabase) Table() server.HistoryDatabase {
	return d.table
}

// Hooks returns the hooks the trampolines forward to.
func (d *HistoryDatabase) Hooks() DatabaseHooks {
	return d.hooks
}

func resolveDatabase(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID) (DatabaseHooks, Context, bool) {
	d, ok := hctx.(*HistoryDatabase)
	if !ok || d == nil {
		return nil, Context{}, false
	}
	ctx, ok := contextOf(d.registry, srv, session, nodeID)
	if !ok {
		return nil, Context{}, false
	}
	return d.hooks, ctx, true
}

func databaseSetValue(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, historizing bool, value ua.DataValue) {
	hooks, ctx, ok := resolveDatabase(srv, hctx, session, nodeID)
	if !ok {
		return
	}
	hooks.SetValue(ctx, historizing, value)
}

func readRaw(srv *server.Server, hctx any, session *server.Session, details ua.ReadRawModifiedDetails, ttr ua.TimestampsToReturn, releaseContinuationPoints bool, nodesToRead []ua.HistoryReadValueID, results []ua.HistoryReadResult) ua.StatusCode {
	hooks, ctx, ok := resolveDatabase(srv, hctx, session, ua.NilNodeID)
	if !ok {
		return ua.Good
	}
	return hooks.ReadRaw(ctx, details, ttr, releaseContinuationPoints, nodesToRead, results)
}

func updateData(srv *server.Server, hctx any, session *server.Session, details ua.UpdateDataDetails, result *ua.HistoryUpdateResult) {
	hooks, ctx, ok := resolveDatabase(srv, hctx, session, details.NodeID)
	if !ok {
		return
	}
	hooks.UpdateData(ctx, details, result)
}

func deleteRawModified(srv *server.Server, hctx any, session *server.Session, details ua.DeleteRawModifiedDetails, result *ua.HistoryUpdateResult) {
	hooks, ctx, ok := resolveDatabase(srv, hctx, session, details.NodeID)
	if !ok {
		return
	}
	hooks.DeleteRawModified(ctx, details, result)
}
