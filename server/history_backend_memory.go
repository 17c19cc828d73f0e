// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"sort"
	"sync"
	"time"

	"github.com/awcullen/uatree/ua"
	"github.com/gammazero/deque"
)

// memoryBackend keeps the values of each node in a deque ordered by source
// timestamp. When a node holds maxValuesPerNode values the oldest is dropped.
type memoryBackend struct {
	sync.Mutex
	nodes            map[ua.NodeID]*deque.Deque[ua.DataValue]
	maxValuesPerNode int
}

// NewMemoryHistoryDataBackend returns a backend that keeps values in memory.
// A maxValuesPerNode of 0 keeps every value.
func NewMemoryHistoryDataBackend(initialNodeIDStoreSize, maxValuesPerNode int) HistoryDataBackend {
	b := &memoryBackend{
		nodes:            make(map[ua.NodeID]*deque.Deque[ua.DataValue], initialNodeIDStoreSize),
		maxValuesPerNode: maxValuesPerNode,
	}
	return HistoryDataBackend{
		Context:                     b,
		ServerSetHistoryData:        b.serverSetHistoryData,
		GetDateTimeMatch:            b.getDateTimeMatch,
		GetEnd:                      b.getEnd,
		LastIndex:                   b.lastIndex,
		FirstIndex:                  b.firstIndex,
		ResultSize:                  b.resultSize,
		CopyDataValues:              b.copyDataValues,
		GetDataValue:                b.getDataValue,
		BoundSupported:              b.boundSupported,
		TimestampsToReturnSupported: b.timestampsToReturnSupported,
		InsertDataValue:             b.insertDataValue,
		ReplaceDataValue:            b.replaceDataValue,
		UpdateDataValue:             b.updateDataValue,
		RemoveDataValue:             b.removeDataValue,
	}
}

func (b *memoryBackend) store(nodeID ua.NodeID, create bool) *deque.Deque[ua.DataValue] {
	q, ok := b.nodes[nodeID]
	if !ok && create {
		q = deque.New[ua.DataValue]()
		b.nodes[nodeID] = q
	}
	return q
}

func timestampOf(value ua.DataValue) time.Time {
	if !value.SourceTimestamp.IsZero() {
		return value.SourceTimestamp
	}
	return value.ServerTimestamp
}

// bounds returns the index of the first value at or after ts and the index
// of the first value after ts.
func bounds(q *deque.Deque[ua.DataValue], ts time.Time) (lower, upper int) {
	n := 0
	if q != nil {
		n = q.Len()
	}
	lower = sort.Search(n, func(i int) bool { return !timestampOf(q.At(i)).Before(ts) })
	upper = sort.Search(n, func(i int) bool { return timestampOf(q.At(i)).After(ts) })
	return
}

func (b *memoryBackend) insert(q *deque.Deque[ua.DataValue], value ua.DataValue) {
	if value.SourceTimestamp.IsZero() {
		value.SourceTimestamp = time.Now()
	}
	_, upper := bounds(q, value.SourceTimestamp)
	q.Insert(upper, value)
	for b.maxValuesPerNode > 0 && q.Len() > b.maxValuesPerNode {
		q.PopFront()
	}
}

func (b *memoryBackend) serverSetHistoryData(srv *Server, hctx any, session *Session, nodeID ua.NodeID, historizing bool, value ua.DataValue) ua.StatusCode {
	b.Lock()
	defer b.Unlock()
	b.insert(b.store(nodeID, true), value)
	return ua.Good
}

func (b *memoryBackend) getDateTimeMatch(srv *Server, hctx any, session *Session, nodeID ua.NodeID, timestamp time.Time, strategy MatchStrategy) int {
	b.Lock()
	defer b.Unlock()
	q := b.store(nodeID, false)
	if q == nil {
		return 0
	}
	lower, upper := bounds(q, timestamp)
	return MatchIndex(lower, upper, q.Len(), strategy)
}

func (b *memoryBackend) getEnd(srv *Server, hctx any, session *Session, nodeID ua.NodeID) int {
	b.Lock()
	defer b.Unlock()
	if q := b.store(nodeID, false); q != nil {
		return q.Len()
	}
	return 0
}

func (b *memoryBackend) lastIndex(srv *Server, hctx any, session *Session, nodeID ua.NodeID) int {
	return b.getEnd(srv, hctx, session, nodeID) - 1
}

func (b *memoryBackend) firstIndex(srv *Server, hctx any, session *Session, nodeID ua.NodeID) int {
	return 0
}

func (b *memoryBackend) resultSize(srv *Server, hctx any, session *Session, nodeID ua.NodeID, startIndex, endIndex int) int {
	return ResultSize(startIndex, endIndex, b.getEnd(srv, hctx, session, nodeID))
}

func (b *memoryBackend) copyDataValues(srv *Server, hctx any, session *Session, nodeID ua.NodeID, startIndex, endIndex int, reverse bool, values []ua.DataValue) (int, ua.StatusCode) {
	b.Lock()
	defer b.Unlock()
	q := b.store(nodeID, false)
	if q == nil {
		return 0, ua.Good
	}
	end := q.Len()
	if startIndex < 0 || endIndex < 0 || startIndex >= end || endIndex >= end {
		return 0, ua.BadIndexRangeInvalid
	}
	n := 0
	if reverse {
		for i := startIndex; i >= endIndex && n < len(values); i-- {
			values[n] = q.At(i)
			n++
		}
		return n, ua.Good
	}
	for i := startIndex; i <= endIndex && n < len(values); i++ {
		values[n] = q.At(i)
		n++
	}
	return n, ua.Good
}

func (b *memoryBackend) getDataValue(srv *Server, hctx any, session *Session, nodeID ua.NodeID, index int) (ua.DataValue, bool) {
	b.Lock()
	defer b.Unlock()
	q := b.store(nodeID, false)
	if q == nil || index < 0 || index >= q.Len() {
		return ua.DataValue{}, false
	}
	return q.At(index), true
}

func (b *memoryBackend) boundSupported(srv *Server, hctx any, session *Session, nodeID ua.NodeID) bool {
	return true
}

func (b *memoryBackend) timestampsToReturnSupported(srv *Server, hctx any, session *Session, nodeID ua.NodeID, ttr ua.TimestampsToReturn) bool {
	switch ttr {
	case ua.TimestampsToReturnNeither, ua.TimestampsToReturnInvalid:
		return false
	case ua.TimestampsToReturnServer, ua.TimestampsToReturnBoth:
		b.Lock()
		defer b.Unlock()
		if q := b.store(nodeID, false); q != nil && q.Len() > 0 {
			return !q.Front().ServerTimestamp.IsZero()
		}
	}
	return true
}

func (b *memoryBackend) insertDataValue(srv *Server, hctx any, session *Session, nodeID ua.NodeID, value ua.DataValue) ua.StatusCode {
	if value.SourceTimestamp.IsZero() {
		return ua.BadInvalidTimestampArgument
	}
	b.Lock()
	defer b.Unlock()
	q := b.store(nodeID, true)
	if lower, upper := bounds(q, value.SourceTimestamp); lower < upper {
		return ua.BadEntryExists
	}
	b.insert(q, value)
	return ua.GoodEntryInserted
}

func (b *memoryBackend) replaceDataValue(srv *Server, hctx any, session *Session, nodeID ua.NodeID, value ua.DataValue) ua.StatusCode {
	if value.SourceTimestamp.IsZero() {
		return ua.BadInvalidTimestampArgument
	}
	b.Lock()
	defer b.Unlock()
	q := b.store(nodeID, false)
	if q == nil {
		return ua.BadNoEntryExists
	}
	lower, upper := bounds(q, value.SourceTimestamp)
	if lower == upper {
		return ua.BadNoEntryExists
	}
	q.Set(lower, value)
	return ua.GoodEntryReplaced
}

func (b *memoryBackend) updateDataValue(srv *Server, hctx any, session *Session, nodeID ua.NodeID, value ua.DataValue) ua.StatusCode {
	if code := b.replaceDataValue(srv, hctx, session, nodeID, value); code != ua.BadNoEntryExists {
		return code
	}
	return b.insertDataValue(srv, hctx, session, nodeID, value)
}

// removeDataValue removes the values with start <= timestamp < end.
func (b *memoryBackend) removeDataValue(srv *Server, hctx any, session *Session, nodeID ua.NodeID, start, end time.Time) ua.StatusCode {
	b.Lock()
	defer b.Unlock()
	q := b.store(nodeID, false)
	if q == nil {
		return ua.BadNoData
	}
	first, _ := bounds(q, start)
	last, _ := bounds(q, end)
	if end.IsZero() {
		last = q.Len()
	}
	if first >= last {
		return ua.BadNoData
	}
	for i := first; i < last; i++ {
		q.Remove(first)
	}
	return ua.Good
}
