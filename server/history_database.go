// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"strconv"

	"github.com/awcullen/uatree/ua"
)

// defaultDatabase routes history services to the backend registered for each
// node in the gathering.
type defaultDatabase struct {
	gathering HistoryDataGathering
}

// NewDefaultHistoryDatabase returns a database that looks up each node's
// settings in the gathering and reads and updates through the node's backend.
func NewDefaultHistoryDatabase(gathering HistoryDataGathering) HistoryDatabase {
	d := &defaultDatabase{gathering: gathering}
	return HistoryDatabase{
		Context:           d,
		SetValue:          d.setValue,
		ReadRaw:           d.readRaw,
		UpdateData:        d.updateData,
		DeleteRawModified: d.deleteRawModified,
	}
}

func (d *defaultDatabase) setting(srv *Server, nodeID ua.NodeID) (HistorizingNodeIDSettings, bool) {
	g := d.gathering
	if g.GetHistorizingSetting == nil {
		return HistorizingNodeIDSettings{}, false
	}
	return g.GetHistorizingSetting(srv, g.Context, nodeID)
}

func (d *defaultDatabase) setValue(srv *Server, hctx any, session *Session, nodeID ua.NodeID, historizing bool, value ua.DataValue) {
	g := d.gathering
	if g.SetValue != nil {
		g.SetValue(srv, g.Context, session, nodeID, historizing, value)
	}
}

func (d *defaultDatabase) readRaw(srv *Server, hctx any, session *Session, details ua.ReadRawModifiedDetails, ttr ua.TimestampsToReturn, releaseContinuationPoints bool, nodesToRead []ua.HistoryReadValueID, results []ua.HistoryReadResult) ua.StatusCode {
	for i, n := range nodesToRead {
		setting, ok := d.setting(srv, n.NodeID)
		if !ok {
			results[i].StatusCode = ua.BadHistoryOperationInvalid
			continue
		}
		b := setting.Backend
		q := HistoryDataQuery{
			Start:                     details.StartTime,
			End:                       details.EndTime,
			MaxSizePerResponse:        setting.MaxHistoryDataResponseSize,
			NumValuesPerNode:          details.NumValuesPerNode,
			ReturnBounds:              details.ReturnBounds,
			TimestampsToReturn:        ttr,
			IndexRange:                n.IndexRange,
			ReleaseContinuationPoints: releaseContinuationPoints,
			ContinuationPoint:         n.ContinuationPoint,
		}
		if b.GetHistoryData != nil {
			results[i].ContinuationPoint, results[i].StatusCode = b.GetHistoryData(srv, b.Context, session, n.NodeID, q, &results[i].HistoryData)
			continue
		}
		results[i].ContinuationPoint, results[i].StatusCode = ReadHistoryData(srv, b, session, n.NodeID, q, &results[i].HistoryData)
	}
	return ua.Good
}

func (d *defaultDatabase) updateData(srv *Server, hctx any, session *Session, details ua.UpdateDataDetails, result *ua.HistoryUpdateResult) {
	setting, ok := d.setting(srv, details.NodeID)
	if !ok {
		result.StatusCode = ua.BadHistoryOperationInvalid
		return
	}
	b := setting.Backend
	var op func(*Server, any, *Session, ua.NodeID, ua.DataValue) ua.StatusCode
	switch details.PerformInsertReplace {
	case ua.PerformUpdateTypeInsert:
		op = b.InsertDataValue
	case ua.PerformUpdateTypeReplace:
		op = b.ReplaceDataValue
	case ua.PerformUpdateTypeUpdate:
		op = b.UpdateDataValue
	default:
		result.StatusCode = ua.BadHistoryOperationInvalid
		return
	}
	if op == nil {
		result.StatusCode = ua.BadHistoryOperationUnsupported
		return
	}
	result.StatusCode = ua.Good
	result.OperationResults = make([]ua.StatusCode, len(details.UpdateValues))
	for i, v := range details.UpdateValues {
		result.OperationResults[i] = op(srv, b.Context, session, details.NodeID, v)
	}
}

func (d *defaultDatabase) deleteRawModified(srv *Server, hctx any, session *Session, details ua.DeleteRawModifiedDetails, result *ua.HistoryUpdateResult) {
	if details.IsDeleteModified {
		result.StatusCode = ua.BadHistoryOperationUnsupported
		return
	}
	setting, ok := d.setting(srv, details.NodeID)
	if !ok {
		result.StatusCode = ua.BadHistoryOperationInvalid
		return
	}
	b := setting.Backend
	if b.RemoveDataValue == nil {
		result.StatusCode = ua.BadHistoryOperationUnsupported
		return
	}
	result.StatusCode = b.RemoveDataValue(srv, b.Context, session, details.NodeID, details.StartTime, details.EndTime)
}

// ReadHistoryData reads raw values through the index based slots of the
// backend. The start time is inclusive and the end time exclusive. An end
// time before the start time, or an end time without a start time, returns
// the values newest first. The continuation point is the decimal offset of
// the next value to return.
func ReadHistoryData(srv *Server, b HistoryDataBackend, session *Session, nodeID ua.NodeID, q HistoryDataQuery, result *ua.HistoryData) (ua.ByteString, ua.StatusCode) {
	if b.GetDateTimeMatch == nil || b.GetEnd == nil || b.FirstIndex == nil || b.LastIndex == nil || b.ResultSize == nil || b.CopyDataValues == nil {
		return "", ua.BadHistoryOperationUnsupported
	}
	if q.ReleaseContinuationPoints {
		return "", ua.Good
	}
	startSet, endSet := !q.Start.IsZero(), !q.End.IsZero()
	if !startSet && !endSet {
		return "", ua.BadInvalidTimestampArgument
	}
	if q.NumValuesPerNode == 0 && !(startSet && endSet) {
		return "", ua.BadInvalidTimestampArgument
	}
	if q.IndexRange != "" {
		return "", ua.BadIndexRangeInvalid
	}
	if q.ReturnBounds && (b.BoundSupported == nil || !b.BoundSupported(srv, b.Context, session, nodeID)) {
		return "", ua.BadBoundNotSupported
	}
	if b.TimestampsToReturnSupported != nil && !b.TimestampsToReturnSupported(srv, b.Context, session, nodeID, q.TimestampsToReturn) {
		return "", ua.BadTimestampsToReturnInvalid
	}
	offset := 0
	if len(q.ContinuationPoint) > 0 {
		var err error
		if offset, err = strconv.Atoi(string(q.ContinuationPoint)); err != nil || offset < 0 {
			return "", ua.BadContinuationPointInvalid
		}
	}

	ctx := b.Context
	end := b.GetEnd(srv, ctx, session, nodeID)
	match := func(s MatchStrategy, forward bool) int {
		if forward {
			return b.GetDateTimeMatch(srv, ctx, session, nodeID, q.Start, s)
		}
		return b.GetDateTimeMatch(srv, ctx, session, nodeID, q.End, s)
	}
	reverse := endSet && (!startSet || q.End.Before(q.Start))

	// first and last are inclusive indexes, in reading order.
	var first, last int
	var head, tail *ua.DataValue
	switch {
	case startSet && endSet && q.Start.Equal(q.End):
		first, last = match(MatchEqual, true), match(MatchEqualOrBefore, true)
	case !reverse:
		if startSet {
			first = match(MatchEqualOrAfter, true)
			if q.ReturnBounds {
				if i := match(MatchEqualOrBefore, true); i != end {
					first = i
				} else {
					head = &ua.DataValue{StatusCode: ua.BadBoundNotFound, SourceTimestamp: q.Start}
				}
			}
		} else {
			first = b.FirstIndex(srv, ctx, session, nodeID)
		}
		if endSet {
			last = match(MatchBefore, false)
			if q.ReturnBounds {
				if i := match(MatchEqualOrAfter, false); i != end {
					last = i
				} else {
					tail = &ua.DataValue{StatusCode: ua.BadBoundNotFound, SourceTimestamp: q.End}
				}
			}
		} else {
			last = b.LastIndex(srv, ctx, session, nodeID)
		}
		if first != end && last != end && last < first {
			first = end
		}
	default:
		if startSet {
			first = match(MatchEqualOrBefore, true)
			if q.ReturnBounds {
				if i := match(MatchEqualOrAfter, true); i != end {
					first = i
				} else {
					head = &ua.DataValue{StatusCode: ua.BadBoundNotFound, SourceTimestamp: q.Start}
				}
			}
		} else {
			first = b.LastIndex(srv, ctx, session, nodeID)
		}
		last = match(MatchAfter, false)
		if q.ReturnBounds {
			if i := match(MatchEqualOrBefore, false); i != end {
				last = i
			} else {
				tail = &ua.DataValue{StatusCode: ua.BadBoundNotFound, SourceTimestamp: q.End}
			}
		}
		if first != end && last != end && last > first {
			first = end
		}
	}

	values := make([]ua.DataValue, 0, 8)
	if head != nil {
		values = append(values, *head)
	}
	if end > 0 && first >= 0 && last >= 0 && first != end && last != end {
		buf := make([]ua.DataValue, b.ResultSize(srv, ctx, session, nodeID, first, last))
		n, code := b.CopyDataValues(srv, ctx, session, nodeID, first, last, reverse, buf)
		if code.IsBad() {
			return "", code
		}
		values = append(values, buf[:n]...)
	}
	if tail != nil {
		values = append(values, *tail)
	}
	if offset > len(values) {
		return "", ua.BadContinuationPointInvalid
	}
	values = values[offset:]
	if len(values) == 0 {
		result.DataValues = []ua.DataValue{}
		return "", ua.GoodNoData
	}

	page := len(values)
	if q.NumValuesPerNode > 0 && int(q.NumValuesPerNode) < page {
		page = int(q.NumValuesPerNode)
	}
	if q.MaxSizePerResponse > 0 && q.MaxSizePerResponse < page {
		page = q.MaxSizePerResponse
	}
	result.DataValues = make([]ua.DataValue, page)
	for i := range result.DataValues {
		result.DataValues[i] = values[i].WithTimestamps(q.TimestampsToReturn)
	}
	if page < len(values) {
		return ua.ByteString(strconv.Itoa(offset + page)), ua.Good
	}
	return "", ua.Good
}
