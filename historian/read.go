// Copyright 2021 Converter Systems LLC. All rights reserved.

package historian

import (
	"time"

	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
)

// ReadHistoryData answers a high-level read through the index based hooks of
// a backend, the way server.ReadHistoryData does for a table. Backends that
// keep their values ordered can implement GetHistoryData with it.
func ReadHistoryData(ctx Context, hooks BackendHooks, q server.HistoryDataQuery, result *ua.HistoryData) (ua.ByteString, ua.StatusCode) {
	return server.ReadHistoryData(ctx.raw(), indexTable(ctx, hooks), nil, ctx.NodeID, q, result)
}

// indexTable returns a table whose index based slots call hooks with ctx.
func indexTable(ctx Context, hooks BackendHooks) server.HistoryDataBackend {
	return server.HistoryDataBackend{
		GetDateTimeMatch: func(_ *server.Server, _ any, _ *server.Session, _ ua.NodeID, ts time.Time, s server.MatchStrategy) int {
			return hooks.GetDateTimeMatch(ctx, ts, s)
		},
		GetEnd: func(_ *server.Server, _ any, _ *server.Session, _ ua.NodeID) int {
			return hooks.GetEnd(ctx)
		},
		LastIndex: func(_ *server.Server, _ any, _ *server.Session, _ ua.NodeID) int {
			return hooks.LastIndex(ctx)
		},
		FirstIndex: func(_ *server.Server, _ any, _ *server.Session, _ ua.NodeID) int {
			return hooks.FirstIndex(ctx)
		},
		ResultSize: func(_ *server.Server, _ any, _ *server.Session, _ ua.NodeID, start, end int) int {
			return hooks.ResultSize(ctx, start, end)
		},
		CopyDataValues: func(_ *server.Server, _ any, _ *server.Session, _ ua.NodeID, start, end int, reverse bool, values []ua.DataValue) (int, ua.StatusCode) {
			return hooks.CopyDataValues(ctx, start, end, reverse, values)
		},
		GetDataValue: func(_ *server.Server, _ any, _ *server.Session, _ ua.NodeID, index int) (ua.DataValue, bool) {
			return hooks.GetDataValue(ctx, index)
		},
		BoundSupported: func(_ *server.Server, _ any, _ *server.Session, _ ua.NodeID) bool {
			return hooks.BoundSupported(ctx)
		},
		TimestampsToReturnSupported: func(_ *server.Server, _ any, _ *server.Session, _ ua.NodeID, ttr ua.TimestampsToReturn) bool {
			return hooks.TimestampsToReturnSupported(ctx, ttr)
		},
	}
}
