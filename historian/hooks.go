// Copyright 2021 Converter Systems LLC. All rights reserved.

package historian

import (
	"time"

	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
)

// GatheringHooks decides which nodes are historized and how their values are gathered.
type GatheringHooks interface {
	RegisterNodeID(ctx Context, setting server.HistorizingNodeIDSettings) ua.StatusCode
	StopPoll(ctx Context) ua.StatusCode
	StartPoll(ctx Context) ua.StatusCode
	UpdateNodeIDSetting(ctx Context, setting server.HistorizingNodeIDSettings) ua.StatusCode
	GetHistorizingSetting(ctx Context) (server.HistorizingNodeIDSettings, bool)
	SetValue(ctx Context, historizing bool, value ua.DataValue)
}

// BackendHooks stores and retrieves the values of historized nodes. The
// index based hooks address the values of a node ordered by source timestamp.
type BackendHooks interface {
	ServerSetHistoryData(ctx Context, historizing bool, value ua.DataValue) ua.StatusCode
	GetHistoryData(ctx Context, q server.HistoryDataQuery, result *ua.HistoryData) (ua.ByteString, ua.StatusCode)
	GetDateTimeMatch(ctx Context, timestamp time.Time, strategy server.MatchStrategy) int
	GetEnd(ctx Context) int
	LastIndex(ctx Context) int
	FirstIndex(ctx Context) int
	ResultSize(ctx Context, startIndex, endIndex int) int
	CopyDataValues(ctx Context, startIndex, endIndex int, reverse bool, values []ua.DataValue) (int, ua.StatusCode)
	GetDataValue(ctx Context, index int) (ua.DataValue, bool)
	BoundSupported(ctx Context) bool
	TimestampsToReturnSupported(ctx Context, ttr ua.TimestampsToReturn) bool
	InsertDataValue(ctx Context, value ua.DataValue) ua.StatusCode
	ReplaceDataValue(ctx Context, value ua.DataValue) ua.StatusCode
	UpdateDataValue(ctx Context, value ua.DataValue) ua.StatusCode
	RemoveDataValue(ctx Context, start, end time.Time) ua.StatusCode
}

// DatabaseHooks answers the history services of the server.
type DatabaseHooks interface {
	SetValue(ctx Context, historizing bool, value ua.DataValue)
	ReadRaw(ctx Context, details ua.ReadRawModifiedDetails, ttr ua.TimestampsToReturn, releaseContinuationPoints bool, nodesToRead []ua.HistoryReadValueID, results []ua.HistoryReadResult) ua.StatusCode
	UpdateData(ctx Context, details ua.UpdateDataDetails, result *ua.HistoryUpdateResult)
	DeleteRawModified(ctx Context, details ua.DeleteRawModifiedDetails, result *ua.HistoryUpdateResult)
}

// UnimplementedGathering does nothing. Embed it to implement only some hooks.
type UnimplementedGathering struct{}

func (UnimplementedGathering) RegisterNodeID(ctx Context, setting server.HistorizingNodeIDSettings) ua.StatusCode {
	return ua.Good
}

func (UnimplementedGathering) StopPoll(ctx Context) ua.StatusCode { return ua.Good }

func (UnimplementedGathering) StartPoll(ctx Context) ua.StatusCode { return ua.Good }

func (UnimplementedGathering) UpdateNodeIDSetting(ctx Context, setting server.HistorizingNodeIDSettings) ua.StatusCode {
	return ua.Good
}

func (UnimplementedGathering) GetHistorizingSetting(ctx Context) (server.HistorizingNodeIDSettings, bool) {
	return server.HistorizingNodeIDSettings{}, false
}

func (UnimplementedGathering) SetValue(ctx Context, historizing bool, value ua.DataValue) {}

// UnimplementedBackend stores nothing and reports no values. Embed it to
// implement only some hooks.
type UnimplementedBackend struct{}

func (UnimplementedBackend) ServerSetHistoryData(ctx Context, historizing bool, value ua.DataValue) ua.StatusCode {
	return ua.Good
}

func (UnimplementedBackend) GetHistoryData(ctx Context, q server.HistoryDataQuery, result *ua.HistoryData) (ua.ByteString, ua.StatusCode) {
	return "", ua.Good
}

func (UnimplementedBackend) GetDateTimeMatch(ctx Context, timestamp time.Time, strategy server.MatchStrategy) int {
	return 0
}

func (UnimplementedBackend) GetEnd(ctx Context) int { return 0 }

func (UnimplementedBackend) LastIndex(ctx Context) int { return 0 }

func (UnimplementedBackend) FirstIndex(ctx Context) int { return 0 }

func (UnimplementedBackend) ResultSize(ctx Context, startIndex, endIndex int) int { return 0 }

func (UnimplementedBackend) CopyDataValues(ctx Context, startIndex, endIndex int, reverse bool, values []ua.DataValue) (int, ua.StatusCode) {
	return 0, ua.Good
}

func (UnimplementedBackend) GetDataValue(ctx Context, index int) (ua.DataValue, bool) {
	return ua.DataValue{}, false
}

func (UnimplementedBackend) BoundSupported(ctx Context) bool { return false }

func (UnimplementedBackend) TimestampsToReturnSupported(ctx Context, ttr ua.TimestampsToReturn) bool {
	return false
}

func (UnimplementedBackend) InsertDataValue(ctx Context, value ua.DataValue) ua.StatusCode {
	return ua.Good
}

func (UnimplementedBackend) ReplaceDataValue(ctx Context, value ua.DataValue) ua.StatusCode {
	return ua.Good
}

func (UnimplementedBackend) UpdateDataValue(ctx Context, value ua.DataValue) ua.StatusCode {
	return ua.Good
}

func (UnimplementedBackend) RemoveDataValue(ctx Context, start, end time.Time) ua.StatusCode {
	return ua.Good
}

// UnimplementedDatabase ignores values and answers services without results.
// Embed it to implement only some hooks.
type UnimplementedDatabase struct{}

func (UnimplementedDatabase) SetValue(ctx Context, historizing bool, value ua.DataValue) {}

func (UnimplementedDatabase) ReadRaw(ctx Context, details ua.ReadRawModifiedDetails, ttr ua.TimestampsToReturn, releaseContinuationPoints bool, nodesToRead []ua.HistoryReadValueID, results []ua.HistoryReadResult) ua.StatusCode {
	return ua.Good
}

func (UnimplementedDatabase) UpdateData(ctx Context, details ua.UpdateDataDetails, result *ua.HistoryUpdateResult) {
}

func (UnimplementedDatabase) DeleteRawModified(ctx Context, details ua.DeleteRawModifiedDetails, result *ua.HistoryUpdateResult) {
}
