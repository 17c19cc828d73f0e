// Copyright 2021 Converter Systems LLC. All rights reserved.

package server_test

import (
	"context"
	"testing"
	"time"

	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
	"gotest.tools/assert"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(i int) time.Time {
	return base.Add(time.Duration(i) * time.Second)
}

type historyFixture struct {
	srv       *server.Server
	gathering server.HistoryDataGathering
	backend   server.HistoryDataBackend
}

func newHistoryFixture(t *testing.T, maxValuesPerNode int) historyFixture {
	g := server.NewDefaultHistoryDataGathering(8)
	b := server.NewMemoryHistoryDataBackend(8, maxValuesPerNode)
	srv := NewTestServer(t, server.WithHistoryDatabase(server.NewDefaultHistoryDatabase(g)))
	return historyFixture{srv, g, b}
}

func (f historyFixture) addVariable(t *testing.T, name string, value ua.Variant, strategy server.HistorizingUpdateStrategy) ua.NodeID {
	id, err := f.srv.AddVariable(ua.ObjectIDObjectsFolder, ua.NewQualifiedName(2, name), value, ua.NewNodeIDString(2, name), true)
	assert.NilError(t, err)
	code := f.gathering.RegisterNodeID(f.srv, f.gathering.Context, id, server.HistorizingNodeIDSettings{
		Backend:                    f.backend,
		MaxHistoryDataResponseSize: 100,
		Strategy:                   strategy,
		PollingInterval:            10 * time.Millisecond,
	})
	assert.Equal(t, code, ua.Good)
	return id
}

func (f historyFixture) write(t *testing.T, id ua.NodeID, value ua.Variant, ts time.Time) {
	assert.NilError(t, f.srv.WriteDataValue(context.Background(), id, ua.DataValue{Value: value, SourceTimestamp: ts}))
}

func (f historyFixture) read(t *testing.T, details ua.ReadRawModifiedDetails, ttr ua.TimestampsToReturn, nodes ...ua.HistoryReadValueID) []ua.HistoryReadResult {
	results, err := f.srv.HistoryReadRaw(context.Background(), details, ttr, false, nodes)
	assert.NilError(t, err)
	assert.Equal(t, len(results), len(nodes))
	return results
}

func valuesOf(dvs []ua.DataValue) []ua.Variant {
	res := make([]ua.Variant, len(dvs))
	for i, dv := range dvs {
		res[i] = dv.Value
	}
	return res
}

func TestHistoryValueSet(t *testing.T) {
	f := newHistoryFixture(t, 0)
	id := f.addVariable(t, "Level", float64(0), server.HistorizingUpdateStrategyValueSet)
	for i := 1; i <= 3; i++ {
		f.write(t, id, float64(i), at(i))
	}
	assert.NilError(t, f.srv.Flush())

	res := f.read(t, ua.ReadRawModifiedDetails{StartTime: at(0), EndTime: at(10)}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	assert.Equal(t, res[0].StatusCode, ua.Good)
	assert.DeepEqual(t, valuesOf(res[0].HistoryData.DataValues), []ua.Variant{float64(1), float64(2), float64(3)})
	assert.Equal(t, res[0].HistoryData.DataValues[0].SourceTimestamp, at(1))
	assert.Assert(t, res[0].HistoryData.DataValues[0].ServerTimestamp.IsZero())

	// end time is exclusive
	res = f.read(t, ua.ReadRawModifiedDetails{StartTime: at(1), EndTime: at(3)}, ua.TimestampsToReturnBoth, ua.HistoryReadValueID{NodeID: id})
	assert.DeepEqual(t, valuesOf(res[0].HistoryData.DataValues), []ua.Variant{float64(1), float64(2)})
	assert.Assert(t, !res[0].HistoryData.DataValues[0].ServerTimestamp.IsZero())

	// end before start reads newest first
	res = f.read(t, ua.ReadRawModifiedDetails{StartTime: at(3), EndTime: at(1)}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	assert.DeepEqual(t, valuesOf(res[0].HistoryData.DataValues), []ua.Variant{float64(3), float64(2)})

	// outside of the stored range
	res = f.read(t, ua.ReadRawModifiedDetails{StartTime: at(20), EndTime: at(30)}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	assert.Equal(t, res[0].StatusCode, ua.GoodNoData)
	assert.Equal(t, len(res[0].HistoryData.DataValues), 0)
}

func TestHistoryRetention(t *testing.T) {
	f := newHistoryFixture(t, 2)
	id := f.addVariable(t, "Count", int32(0), server.HistorizingUpdateStrategyValueSet)
	for i := 1; i <= 4; i++ {
		f.write(t, id, int32(i), at(i))
	}
	assert.NilError(t, f.srv.Flush())

	res := f.read(t, ua.ReadRawModifiedDetails{StartTime: at(0), EndTime: at(10)}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	assert.DeepEqual(t, valuesOf(res[0].HistoryData.DataValues), []ua.Variant{int32(3), int32(4)})
}

func TestHistoryContinuationPoint(t *testing.T) {
	f := newHistoryFixture(t, 0)
	id := f.addVariable(t, "Flow", int32(0), server.HistorizingUpdateStrategyValueSet)
	for i := 1; i <= 5; i++ {
		f.write(t, id, int32(i), at(i))
	}
	assert.NilError(t, f.srv.Flush())

	details := ua.ReadRawModifiedDetails{StartTime: at(0), EndTime: at(10), NumValuesPerNode: 2}
	node := ua.HistoryReadValueID{NodeID: id}
	got := []ua.Variant{}
	for i := 0; i < 5; i++ {
		res := f.read(t, details, ua.TimestampsToReturnSource, node)
		assert.Equal(t, res[0].StatusCode, ua.Good)
		got = append(got, valuesOf(res[0].HistoryData.DataValues)...)
		if res[0].ContinuationPoint == "" {
			break
		}
		node.ContinuationPoint = res[0].ContinuationPoint
	}
	assert.DeepEqual(t, got, []ua.Variant{int32(1), int32(2), int32(3), int32(4), int32(5)})

	node.ContinuationPoint = "bogus"
	res := f.read(t, details, ua.TimestampsToReturnSource, node)
	assert.Equal(t, res[0].StatusCode, ua.BadContinuationPointInvalid)

	// start time only, limited by the number of values
	res = f.read(t, ua.ReadRawModifiedDetails{StartTime: at(4), NumValuesPerNode: 10}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	assert.DeepEqual(t, valuesOf(res[0].HistoryData.DataValues), []ua.Variant{int32(4), int32(5)})

	// end time only reads backwards
	res = f.read(t, ua.ReadRawModifiedDetails{EndTime: at(3), NumValuesPerNode: 10}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	assert.DeepEqual(t, valuesOf(res[0].HistoryData.DataValues), []ua.Variant{int32(5), int32(4)})
}

func TestHistoryReturnBounds(t *testing.T) {
	f := newHistoryFixture(t, 0)
	id := f.addVariable(t, "Pressure", int32(0), server.HistorizingUpdateStrategyValueSet)
	for i := 1; i <= 3; i++ {
		f.write(t, id, int32(i), at(i*10))
	}
	assert.NilError(t, f.srv.Flush())

	res := f.read(t, ua.ReadRawModifiedDetails{StartTime: at(15), EndTime: at(25), ReturnBounds: true}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	assert.DeepEqual(t, valuesOf(res[0].HistoryData.DataValues), []ua.Variant{int32(1), int32(2), int32(3)})

	res = f.read(t, ua.ReadRawModifiedDetails{StartTime: at(5), EndTime: at(35), ReturnBounds: true}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	dvs := res[0].HistoryData.DataValues
	assert.Equal(t, len(dvs), 5)
	assert.Equal(t, dvs[0].StatusCode, ua.BadBoundNotFound)
	assert.Equal(t, dvs[0].SourceTimestamp, at(5))
	assert.Equal(t, dvs[4].StatusCode, ua.BadBoundNotFound)
	assert.Equal(t, dvs[4].SourceTimestamp, at(35))
}

func TestHistoryReadErrors(t *testing.T) {
	f := newHistoryFixture(t, 0)
	id := f.addVariable(t, "Volts", int32(0), server.HistorizingUpdateStrategyValueSet)
	other, err := f.srv.AddVariable(ua.ObjectIDObjectsFolder, ua.NewQualifiedName(2, "Plain"), int32(0), ua.NewNodeIDNumeric(2, 0), false)
	assert.NilError(t, err)

	res := f.read(t, ua.ReadRawModifiedDetails{StartTime: at(0), EndTime: at(1)}, ua.TimestampsToReturnSource,
		ua.HistoryReadValueID{NodeID: id}, ua.HistoryReadValueID{NodeID: other})
	assert.Equal(t, res[0].StatusCode, ua.GoodNoData)
	assert.Equal(t, res[1].StatusCode, ua.BadHistoryOperationInvalid)

	res = f.read(t, ua.ReadRawModifiedDetails{}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	assert.Equal(t, res[0].StatusCode, ua.BadInvalidTimestampArgument)

	res = f.read(t, ua.ReadRawModifiedDetails{StartTime: at(0)}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	assert.Equal(t, res[0].StatusCode, ua.BadInvalidTimestampArgument)

	res = f.read(t, ua.ReadRawModifiedDetails{StartTime: at(0), EndTime: at(1)}, ua.TimestampsToReturnNeither, ua.HistoryReadValueID{NodeID: id})
	assert.Equal(t, res[0].StatusCode, ua.BadTimestampsToReturnInvalid)

	_, err = f.srv.HistoryReadRaw(context.Background(), ua.ReadRawModifiedDetails{}, ua.TimestampsToReturnInvalid, false, nil)
	assert.Equal(t, err, ua.BadTimestampsToReturnInvalid)
	_, err = f.srv.HistoryReadRaw(context.Background(), ua.ReadRawModifiedDetails{IsReadModified: true}, ua.TimestampsToReturnSource, false, nil)
	assert.Equal(t, err, ua.BadHistoryOperationUnsupported)
}

func TestHistoryWithoutDatabase(t *testing.T) {
	srv := NewTestServer(t)
	_, err := srv.HistoryReadRaw(context.Background(), ua.ReadRawModifiedDetails{}, ua.TimestampsToReturnSource, false, nil)
	assert.Equal(t, err, ua.BadHistoryOperationUnsupported)
	_, err = srv.HistoryUpdateData(context.Background(), nil)
	assert.Equal(t, err, ua.BadHistoryOperationUnsupported)
	_, err = srv.HistoryDeleteRawModified(context.Background(), nil)
	assert.Equal(t, err, ua.BadHistoryOperationUnsupported)
}

func TestHistoryUserStrategy(t *testing.T) {
	f := newHistoryFixture(t, 0)
	ctx := context.Background()
	id := f.addVariable(t, "Manual", int32(0), server.HistorizingUpdateStrategyUser)

	// writes are not stored
	f.write(t, id, int32(1), at(1))
	assert.NilError(t, f.srv.Flush())
	res := f.read(t, ua.ReadRawModifiedDetails{StartTime: at(0), EndTime: at(10)}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	assert.Equal(t, res[0].StatusCode, ua.GoodNoData)

	updates, err := f.srv.HistoryUpdateData(ctx, []ua.UpdateDataDetails{
		{NodeID: id, PerformInsertReplace: ua.PerformUpdateTypeInsert, UpdateValues: []ua.DataValue{
			{Value: int32(10), SourceTimestamp: at(1)},
			{Value: int32(20), SourceTimestamp: at(2)},
			{Value: int32(11), SourceTimestamp: at(1)},
		}},
		{NodeID: id, PerformInsertReplace: ua.PerformUpdateTypeReplace, UpdateValues: []ua.DataValue{
			{Value: int32(21), SourceTimestamp: at(2)},
			{Value: int32(30), SourceTimestamp: at(3)},
		}},
		{NodeID: id, PerformInsertReplace: ua.PerformUpdateTypeUpdate, UpdateValues: []ua.DataValue{
			{Value: int32(30), SourceTimestamp: at(3)},
			{Value: int32(12), SourceTimestamp: at(1)},
		}},
		{NodeID: ua.NewNodeIDString(2, "Unregistered"), PerformInsertReplace: ua.PerformUpdateTypeInsert},
		{NodeID: id, PerformInsertReplace: ua.PerformUpdateTypeRemove},
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, updates[0].OperationResults, []ua.StatusCode{ua.GoodEntryInserted, ua.GoodEntryInserted, ua.BadEntryExists})
	assert.DeepEqual(t, updates[1].OperationResults, []ua.StatusCode{ua.GoodEntryReplaced, ua.BadNoEntryExists})
	assert.DeepEqual(t, updates[2].OperationResults, []ua.StatusCode{ua.GoodEntryInserted, ua.GoodEntryReplaced})
	assert.Equal(t, updates[3].StatusCode, ua.BadHistoryOperationInvalid)
	assert.Equal(t, updates[4].StatusCode, ua.BadHistoryOperationInvalid)

	res = f.read(t, ua.ReadRawModifiedDetails{StartTime: at(0), EndTime: at(10)}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	assert.DeepEqual(t, valuesOf(res[0].HistoryData.DataValues), []ua.Variant{int32(12), int32(21), int32(30)})

	deletes, err := f.srv.HistoryDeleteRawModified(ctx, []ua.DeleteRawModifiedDetails{
		{NodeID: id, StartTime: at(1), EndTime: at(3)},
		{NodeID: id, StartTime: at(1), EndTime: at(3)},
		{NodeID: id, IsDeleteModified: true},
	})
	assert.NilError(t, err)
	assert.Equal(t, deletes[0].StatusCode, ua.Good)
	assert.Equal(t, deletes[1].StatusCode, ua.BadNoData)
	assert.Equal(t, deletes[2].StatusCode, ua.BadHistoryOperationUnsupported)

	res = f.read(t, ua.ReadRawModifiedDetails{StartTime: at(0), EndTime: at(10)}, ua.TimestampsToReturnSource, ua.HistoryReadValueID{NodeID: id})
	assert.DeepEqual(t, valuesOf(res[0].HistoryData.DataValues), []ua.Variant{int32(30)})
}

func TestHistoryPoll(t *testing.T) {
	f := newHistoryFixture(t, 0)
	ctx := context.Background()
	id := f.addVariable(t, "Sampled", int32(1), server.HistorizingUpdateStrategyPoll)
	g := f.gathering

	count := func() int {
		return f.backend.GetEnd(f.srv, f.backend.Context, nil, id)
	}
	waitFor := func(n int) {
		deadline := time.Now().Add(2 * time.Second)
		for count() < n && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		assert.Equal(t, count(), n)
	}

	assert.Equal(t, g.StartPoll(f.srv, g.Context, id), ua.Good)
	assert.Equal(t, g.StartPoll(f.srv, g.Context, id), ua.Good)
	waitFor(1)

	// unchanged values are not stored again
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count(), 1)

	assert.NilError(t, f.srv.WriteValue(ctx, id, int32(2)))
	waitFor(2)

	assert.Equal(t, g.StopPoll(f.srv, g.Context, id), ua.Good)
	assert.Equal(t, g.StopPoll(f.srv, g.Context, id), ua.BadInvalidState)
	assert.NilError(t, f.srv.WriteValue(ctx, id, int32(3)))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count(), 2)
}

func TestDefaultGathering(t *testing.T) {
	f := newHistoryFixture(t, 0)
	g := f.gathering
	id := f.addVariable(t, "Registered", int32(0), server.HistorizingUpdateStrategyValueSet)
	unknown := ua.NewNodeIDString(2, "Unknown")

	assert.Equal(t, g.RegisterNodeID(f.srv, g.Context, id, server.HistorizingNodeIDSettings{}), ua.BadNodeIDExists)
	assert.Equal(t, g.StartPoll(f.srv, g.Context, id), ua.BadHistoryOperationInvalid)
	assert.Equal(t, g.StopPoll(f.srv, g.Context, id), ua.BadHistoryOperationInvalid)
	assert.Equal(t, g.StartPoll(f.srv, g.Context, unknown), ua.BadNodeIDUnknown)
	assert.Equal(t, g.UpdateNodeIDSetting(f.srv, g.Context, unknown, server.HistorizingNodeIDSettings{}), ua.BadNodeIDUnknown)

	setting, ok := g.GetHistorizingSetting(f.srv, g.Context, id)
	assert.Assert(t, ok)
	assert.Equal(t, setting.Strategy, server.HistorizingUpdateStrategyValueSet)
	assert.Equal(t, setting.MaxHistoryDataResponseSize, 100)

	setting.Strategy = server.HistorizingUpdateStrategyUser
	assert.Equal(t, g.UpdateNodeIDSetting(f.srv, g.Context, id, setting), ua.Good)
	setting, _ = g.GetHistorizingSetting(f.srv, g.Context, id)
	assert.Equal(t, setting.Strategy, server.HistorizingUpdateStrategyUser)

	_, ok = g.GetHistorizingSetting(f.srv, g.Context, unknown)
	assert.Assert(t, !ok)
}

func TestMemoryBackendDateTimeMatch(t *testing.T) {
	b := server.NewMemoryHistoryDataBackend(1, 0)
	id := ua.NewNodeIDNumeric(2, 1)
	for _, i := range []int{10, 20, 30} {
		assert.Equal(t, b.ServerSetHistoryData(nil, b.Context, nil, id, true, ua.DataValue{Value: int32(i), SourceTimestamp: at(i)}), ua.Good)
	}
	end := b.GetEnd(nil, b.Context, nil, id)
	assert.Equal(t, end, 3)
	assert.Equal(t, b.FirstIndex(nil, b.Context, nil, id), 0)
	assert.Equal(t, b.LastIndex(nil, b.Context, nil, id), 2)

	testCases := []struct {
		ts       int
		strategy server.MatchStrategy
		want     int
	}{
		{20, server.MatchEqual, 1},
		{25, server.MatchEqual, end},
		{20, server.MatchAfter, 2},
		{30, server.MatchAfter, end},
		{20, server.MatchEqualOrAfter, 1},
		{25, server.MatchEqualOrAfter, 2},
		{35, server.MatchEqualOrAfter, end},
		{20, server.MatchBefore, 0},
		{10, server.MatchBefore, end},
		{20, server.MatchEqualOrBefore, 1},
		{25, server.MatchEqualOrBefore, 1},
		{5, server.MatchEqualOrBefore, end},
	}
	for _, tc := range testCases {
		assert.Equal(t, b.GetDateTimeMatch(nil, b.Context, nil, id, at(tc.ts), tc.strategy), tc.want, "ts=%d strategy=%d", tc.ts, tc.strategy)
	}

	assert.Equal(t, b.ResultSize(nil, b.Context, nil, id, 0, 2), 3)
	assert.Equal(t, b.ResultSize(nil, b.Context, nil, id, 2, 1), 2)
	assert.Equal(t, b.ResultSize(nil, b.Context, nil, id, 0, end), 0)

	values := make([]ua.DataValue, 3)
	n, code := b.CopyDataValues(nil, b.Context, nil, id, 2, 0, true, values)
	assert.Equal(t, code, ua.Good)
	assert.Equal(t, n, 3)
	assert.DeepEqual(t, valuesOf(values), []ua.Variant{int32(30), int32(20), int32(10)})

	dv, ok := b.GetDataValue(nil, b.Context, nil, id, 1)
	assert.Assert(t, ok)
	assert.Equal(t, dv.Value, int32(20))
	_, ok = b.GetDataValue(nil, b.Context, nil, id, 3)
	assert.Assert(t, !ok)
	assert.Assert(t, b.BoundSupported(nil, b.Context, nil, id))

	// an unknown node is empty
	other := ua.NewNodeIDNumeric(2, 2)
	assert.Equal(t, b.GetEnd(nil, b.Context, nil, other), 0)
	assert.Equal(t, b.GetDateTimeMatch(nil, b.Context, nil, other, at(0), server.MatchEqualOrAfter), 0)
}
