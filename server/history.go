// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"time"

	"github.com/awcullen/uatree/ua"
)

// HistorizingUpdateStrategy selects how values of a registered node reach the backend.
type HistorizingUpdateStrategy int

const (
	// HistorizingUpdateStrategyUser stores nothing automatically. Values are
	// inserted into the backend by the application.
	HistorizingUpdateStrategyUser HistorizingUpdateStrategy = iota
	// HistorizingUpdateStrategyValueSet stores every value written to the node.
	HistorizingUpdateStrategyValueSet
	// HistorizingUpdateStrategyPoll samples the node at the polling interval
	// and stores the value when it changed.
	HistorizingUpdateStrategyPoll
)

func (s HistorizingUpdateStrategy) String() string {
	switch s {
	case HistorizingUpdateStrategyUser:
		return "user"
	case HistorizingUpdateStrategyValueSet:
		return "valueset"
	case HistorizingUpdateStrategyPoll:
		return "poll"
	default:
		return "unknown"
	}
}

// MatchStrategy selects which stored value GetDateTimeMatch returns for a timestamp.
type MatchStrategy int

const (
	MatchEqual MatchStrategy = iota
	MatchAfter
	MatchEqualOrAfter
	MatchBefore
	MatchEqualOrBefore
)

// HistorizingNodeIDSettings is the per-node registration held by a gathering.
type HistorizingNodeIDSettings struct {
	Backend                    HistoryDataBackend
	MaxHistoryDataResponseSize int
	Strategy                   HistorizingUpdateStrategy
	PollingInterval            time.Duration
	UserContext                any
}

// HistoryDataQuery carries the arguments of a high-level backend read.
type HistoryDataQuery struct {
	Start                     time.Time
	End                       time.Time
	MaxSizePerResponse        int
	NumValuesPerNode          uint32
	ReturnBounds              bool
	TimestampsToReturn        ua.TimestampsToReturn
	IndexRange                string
	ReleaseContinuationPoints bool
	ContinuationPoint         ua.ByteString
}

// HistoryDataBackend is the table of callbacks that stores and retrieves the
// values of historized nodes. Context is passed as hctx to every slot. A nil
// slot is treated as unsupported by the default database.
//
// Index based slots address the values of a node in source timestamp order.
// GetEnd returns the position one past the last value and is the "not found"
// result of GetDateTimeMatch.
type HistoryDataBackend struct {
	Context any

	ServerSetHistoryData func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, historizing bool, value ua.DataValue) ua.StatusCode

	// GetHistoryData is the high-level read. When set, the default database
	// uses it instead of the index based slots below.
	GetHistoryData func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, query HistoryDataQuery, result *ua.HistoryData) (ua.ByteString, ua.StatusCode)

	GetDateTimeMatch            func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, timestamp time.Time, strategy MatchStrategy) int
	GetEnd                      func(srv *Server, hctx any, session *Session, nodeID ua.NodeID) int
	LastIndex                   func(srv *Server, hctx any, session *Session, nodeID ua.NodeID) int
	FirstIndex                  func(srv *Server, hctx any, session *Session, nodeID ua.NodeID) int
	ResultSize                  func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, startIndex, endIndex int) int
	CopyDataValues              func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, startIndex, endIndex int, reverse bool, values []ua.DataValue) (int, ua.StatusCode)
	GetDataValue                func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, index int) (ua.DataValue, bool)
	BoundSupported              func(srv *Server, hctx any, session *Session, nodeID ua.NodeID) bool
	TimestampsToReturnSupported func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, ttr ua.TimestampsToReturn) bool

	InsertDataValue  func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, value ua.DataValue) ua.StatusCode
	ReplaceDataValue func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, value ua.DataValue) ua.StatusCode
	UpdateDataValue  func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, value ua.DataValue) ua.StatusCode
	RemoveDataValue  func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, start, end time.Time) ua.StatusCode
}

// HistoryDataGathering is the table of callbacks that keeps the per-node
// registrations and decides when a value is handed to the backend.
type HistoryDataGathering struct {
	Context any

	RegisterNodeID        func(srv *Server, hctx any, nodeID ua.NodeID, setting HistorizingNodeIDSettings) ua.StatusCode
	StopPoll              func(srv *Server, hctx any, nodeID ua.NodeID) ua.StatusCode
	StartPoll             func(srv *Server, hctx any, nodeID ua.NodeID) ua.StatusCode
	UpdateNodeIDSetting   func(srv *Server, hctx any, nodeID ua.NodeID, setting HistorizingNodeIDSettings) ua.StatusCode
	GetHistorizingSetting func(srv *Server, hctx any, nodeID ua.NodeID) (HistorizingNodeIDSettings, bool)
	SetValue              func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, historizing bool, value ua.DataValue)
}

// HistoryDatabase is the table of callbacks the server calls from its write
// path and its history services. It is installed with Config().HistoryDatabase.
type HistoryDatabase struct {
	Context any

	SetValue          func(srv *Server, hctx any, session *Session, nodeID ua.NodeID, historizing bool, value ua.DataValue)
	ReadRaw           func(srv *Server, hctx any, session *Session, details ua.ReadRawModifiedDetails, ttr ua.TimestampsToReturn, releaseContinuationPoints bool, nodesToRead []ua.HistoryReadValueID, results []ua.HistoryReadResult) ua.StatusCode
	UpdateData        func(srv *Server, hctx any, session *Session, details ua.UpdateDataDetails, result *ua.HistoryUpdateResult)
	DeleteRawModified func(srv *Server, hctx any, session *Session, details ua.DeleteRawModifiedDetails, result *ua.HistoryUpdateResult)
}

// MatchIndex returns the index selected by strategy in a sequence of end
// values ordered by timestamp, where lower is the number of values before the
// timestamp and upper the number of values at or before it. It returns end
// when no value matches.
func MatchIndex(lower, upper, end int, strategy MatchStrategy) int {
	switch strategy {
	case MatchEqual:
		if lower < upper {
			return lower
		}
	case MatchAfter:
		if upper < end {
			return upper
		}
	case MatchEqualOrAfter:
		if lower < end {
			return lower
		}
	case MatchBefore:
		if lower > 0 {
			return lower - 1
		}
	case MatchEqualOrBefore:
		if upper > 0 {
			return upper - 1
		}
	}
	return end
}

// ResultSize returns the number of values between two inclusive indexes, in
// either order, of a sequence of end values.
func ResultSize(startIndex, endIndex, end int) int {
	if startIndex < 0 || endIndex < 0 || startIndex >= end || endIndex >= end {
		return 0
	}
	if startIndex > endIndex {
		return startIndex - endIndex + 1
	}
	return endIndex - startIndex + 1
}
