// Copyright 2021 Converter Systems LLC. All rights reserved.

package historian

import (
	"time"

	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
)

// HistoryDataBackend binds a server.HistoryDataBackend table to BackendHooks.
// It must stay reachable for as long as a server uses its table.
type HistoryDataBackend struct {
	registry    *uatree.Registry
	hooks       BackendHooks
	table       server.HistoryDataBackend
	initialised bool
}

// NewHistoryDataBackend returns an adapter with an empty table. A nil
// registry means uatree.DefaultRegistry, nil hooks mean UnimplementedBackend.
func NewHistoryDataBackend(reg *uatree.Registry, hooks BackendHooks) *HistoryDataBackend {
	if reg == nil {
		reg = uatree.DefaultRegistry
	}
	if hooks == nil {
		hooks = UnimplementedBackend{}
	}
	return &HistoryDataBackend{registry: reg, hooks: hooks}
}

// Initialise binds every slot of the table to a trampoline.
func (b *HistoryDataBackend) Initialise() {
	b.table = server.HistoryDataBackend{
		Context:                     b,
		ServerSetHistoryData:        serverSetHistoryData,
		GetHistoryData:              getHistoryData,
		GetDateTimeMatch:            getDateTimeMatch,
		GetEnd:                      getEnd,
		LastIndex:                   lastIndex,
		FirstIndex:                  firstIndex,
		ResultSize:                  resultSize,
		CopyDataValues:              copyDataValues,
		GetDataValue:                getDataValue,
		BoundSupported:              boundSupported,
		TimestampsToReturnSupported: timestampsToReturnSupported,
		InsertDataValue:             insertDataValue,
		ReplaceDataValue:            replaceDataValue,
		UpdateDataValue:             updateDataValue,
		RemoveDataValue:             removeDataValue,
	}
	b.initialised = true
}

// Initialised reports whether Initialise was called.
func (b *HistoryDataBackend) Initialised() bool {
	return b.initialised
}

// Table returns a copy of the table.
func (b *HistoryDataBackend) Table() server.HistoryDataBackend {
	return b.table
}

// Hooks returns the hooks the trampolines forward to.
func (b *HistoryDataBackend) Hooks() BackendHooks {
	return b.hooks
}

func resolveBackend(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID) (BackendHooks, Context, bool) {
	b, ok := hctx.(*HistoryDataBackend)
	if !ok || b == nil {
		return nil, Context{}, false
	}
	ctx, ok := contextOf(b.registry, srv, session, nodeID)
	if !ok {
		return nil, Context{}, false
	}
	return b.hooks, ctx, true
}

func serverSetHistoryData(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, historizing bool, value ua.DataValue) ua.StatusCode {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return ua.Good
	}
	return hooks.ServerSetHistoryData(ctx, historizing, value)
}

func getHistoryData(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, q server.HistoryDataQuery, result *ua.HistoryData) (ua.ByteString, ua.StatusCode) {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return "", ua.Good
	}
	return hooks.GetHistoryData(ctx, q, result)
}

func getDateTimeMatch(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, timestamp time.Time, strategy server.MatchStrategy) int {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return 0
	}
	return hooks.GetDateTimeMatch(ctx, timestamp, strategy)
}

func getEnd(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID) int {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return 0
	}
	return hooks.GetEnd(ctx)
}

func lastIndex(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID) int {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return 0
	}
	return hooks.LastIndex(ctx)
}

func firstIndex(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID) int {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return 0
	}
	return hooks.FirstIndex(ctx)
}

func resultSize(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, startIndex, endIndex int) int {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return 0
	}
	return hooks.ResultSize(ctx, startIndex, endIndex)
}

func copyDataValues(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, startIndex, endIndex int, reverse bool, values []ua.DataValue) (int, ua.StatusCode) {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return 0, ua.Good
	}
	return hooks.CopyDataValues(ctx, startIndex, endIndex, reverse, values)
}

func getDataValue(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, index int) (ua.DataValue, bool) {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return ua.DataValue{}, false
	}
	return hooks.GetDataValue(ctx, index)
}

func boundSupported(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID) bool {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return false
	}
	return hooks.BoundSupported(ctx)
}

func timestampsToReturnSupported(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, ttr ua.TimestampsToReturn) bool {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return false
	}
	return hooks.TimestampsToReturnSupported(ctx, ttr)
}

func insertDataValue(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, value ua.DataValue) ua.StatusCode {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return ua.Good
	}
	return hooks.InsertDataValue(ctx, value)
}

func replaceDataValue(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, value ua.DataValue) ua.StatusCode {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return ua.Good
	}
	return hooks.ReplaceDataValue(ctx, value)
}

func updateDataValue(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, value ua.DataValue) ua.StatusCode {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return ua.Good
	}
	return hooks.UpdateDataValue(ctx, value)
}

func removeDataValue(srv *server.Server, hctx any, session *server.Session, nodeID ua.NodeID, start, end time.Time) ua.StatusCode {
	hooks, ctx, ok := resolveBackend(srv, hctx, session, nodeID)
	if !ok {
		return ua.Good
	}
	return hooks.RemoveDataValue(ctx, start, end)
}
