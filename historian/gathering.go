// Copyright 2021 Converter Systems LLC. All rights reserved.

package historian

import (
	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
)

// HistoryDataGathering binds a server.HistoryDataGathering table to GatheringHooks.
// It must stay reachable for as long as a server uses its table.
type HistoryDataGathering struct {
	registry    *uatree.Registry
	hooks       GatheringHooks
	table       server.HistoryDataGathering
	initialised bool
}

// NewHistoryDataGathering returns an adapter with an empty table. A nil
// registry means uatree.DefaultRegistry, nil hooks mean UnimplementedGathering.
func NewHistoryDataGathering(reg *uatree.Registry, hooks GatheringHooks) *HistoryDataGathering {
	if reg == nil {
		reg = uatree.DefaultRegistry
	}
	if hooks == nil {
		hooks = UnimplementedGathering{}
	}
	return &HistoryDataGathering{registry: reg, hooks: hooks}
}

// Initialise binds every slot of the table to a trampoline.
func (g *HistoryDataGathering) Initialise() {
	g.table = server.HistoryDataGathering{
		Context:               g,
		RegisterNodeID:        registerNodeID,
		StopPoll:              stopPoll,
		StartPoll:             startPoll,
		UpdateNodeIDSetting:   updateNodeIDSetting,
		GetHistorizingSetting: getHistorizingSetting,
		SetValue:              gatheringSetValue,
	}
	g.initialised = true
}

// Initialised reports whether Initialise was called.
func (g *HistoryDataGathering) Initialised() bool {
	return g.initialised
}

// Table returns a copy of the table.
func (g *HistoryDataGathering) Table() server.HistoryDataGathering {
	return g.table
}

// Hooks returns the hooks the trampolines forward to.
func (g *HistoryDataGathering) Hooks() GatheringHooks {
	return g.hooks
}

// resolveGathering recovers the adapter from hctx and the owner of srv.
func resolveGathering(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID) (GatheringHooks, Context, bool) {
	g, ok := hctx.(*HistoryDataGathering)
	if !ok || g == nil {
		return nil, Context{}, false
	}
	ctx, ok := contextOf(g.registry, srv, session, nodeID)
	if !ok {
		return nil, Context{}, false
	}
	return g.hooks, ctx, true
}

func registerNodeID(srv *server.Server, hctx any, nodeID ua.NodeID, setting server.HistorizingNodeIDSettings) ua.StatusCode {
	hooks, ctx, ok := resolveGathering(srv, hctx, nil, nodeID)
	if !ok {
		return ua.Good
	}
	return hooks.RegisterNodeID(ctx, setting)
}

func stopPoll(srv *server.Server, hctx any, nodeID ua.NodeID) ua.StatusCode {
	hooks, ctx, ok := resolveGathering(srv, hctx, nil, nodeID)
	if !ok {
		return ua.Good
	}
	return hooks.StopPoll(ctx)
}

func startPoll(srv *server.Server, hctx any, nodeID ua.NodeID) ua.StatusCode {
	hooks, ctx, ok := resolveGathering(srv, hctx, nil, nodeID)
	if !ok {
		return ua.Good
	}
	return hooks.StartPoll(ctx)
}

func updateNodeIDSetting(srv *server.Server, hctx any, nodeID ua.NodeID, setting server.HistorizingNodeIDSettings) ua.StatusCode {
	hooks, ctx, ok := resolveGathering(srv, hctx, nil, nodeID)
	if !ok {
		return ua.Good
	}
	return hooks.UpdateNodeIDSetting(ctx, setting)
}

func getHistorizingSetting(srv *server.Server, hctx any, nodeID ua.NodeID) (server.HistorizingNodeIDSettings, bool) {
	hooks, ctx, ok := resolveGathering(srv, hctx, nil, nodeID)
	if !ok {
		return server.HistorizingNodeIDSettings{}, false
	}
	return hooks.GetHistorizingSetting(ctx)
}

func gatheringSetValue(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, historizing bool, value ua.DataValue) {
	hooks, ctx, ok := resolveGathering(srv, hctx, session, nodeID)
	if !ok {
		return
	}
	hooks.SetValue(ctx, historizing, value)
}
