// Copyright 2021 Converter Systems LLC. All rights reserved.

package historian_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/historian"
	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
	"github.com/sirupsen/logrus"
	"gotest.tools/assert"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(i int) time.Time {
	return base.Add(time.Duration(i) * time.Second)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(t *testing.T, reg *uatree.Registry) *uatree.Server {
	s, err := uatree.NewServer(uatree.WithRegistry(reg), uatree.WithServerLogger(quietLogger()))
	assert.NilError(t, err)
	assert.NilError(t, s.Start())
	t.Cleanup(func() { s.Shutdown() })
	return s
}

func addHistorical(t *testing.T, s *uatree.Server, name string, value ua.Variant) ua.NodeID {
	id, err := s.AddHistoricalVariable(ua.ObjectIDObjectsFolder, ua.NewQualifiedName(2, name), value, ua.NewNodeIDString(2, name))
	assert.NilError(t, err)
	return id
}

func valuesOf(dvs []ua.DataValue) []ua.Variant {
	res := make([]ua.Variant, len(dvs))
	for i, dv := range dvs {
		res[i] = dv.Value
	}
	return res
}

// recordingBackend records the contexts it is called with.
type recordingBackend struct {
	historian.UnimplementedBackend
	sync.Mutex
	calls []historian.Context
}

func (b *recordingBackend) ServerSetHistoryData(ctx historian.Context, historizing bool, value ua.DataValue) ua.StatusCode {
	b.Lock()
	defer b.Unlock()
	b.calls = append(b.calls, ctx)
	return ua.BadOutOfMemory
}

func (b *recordingBackend) GetEnd(ctx historian.Context) int {
	b.Lock()
	defer b.Unlock()
	b.calls = append(b.calls, ctx)
	return 7
}

func (b *recordingBackend) count() int {
	b.Lock()
	defer b.Unlock()
	return len(b.calls)
}

func TestUnimplementedDefaults(t *testing.T) {
	reg := uatree.NewRegistry()
	s := newTestServer(t, reg)
	id := ua.NewNodeIDString(2, "X")
	h := historian.NewCustomHistorian(reg, nil, nil, nil)
	raw := s.Raw()

	g := h.Gathering
	assert.Equal(t, g.RegisterNodeID(raw, g.Context, id, server.HistorizingNodeIDSettings{}), ua.Good)
	assert.Equal(t, g.StartPoll(raw, g.Context, id), ua.Good)
	assert.Equal(t, g.StopPoll(raw, g.Context, id), ua.Good)
	_, ok := g.GetHistorizingSetting(raw, g.Context, id)
	assert.Assert(t, !ok)

	b := h.Backend
	dv := ua.DataValue{Value: int32(1), SourceTimestamp: at(1)}
	assert.Equal(t, b.ServerSetHistoryData(raw, b.Context, nil, id, true, dv), ua.Good)
	cp, code := b.GetHistoryData(raw, b.Context, nil, id, server.HistoryDataQuery{}, &ua.HistoryData{})
	assert.Equal(t, cp, ua.ByteString(""))
	assert.Equal(t, code, ua.Good)
	assert.Equal(t, b.GetDateTimeMatch(raw, b.Context, nil, id, at(1), server.MatchEqual), 0)
	assert.Equal(t, b.GetEnd(raw, b.Context, nil, id), 0)
	assert.Equal(t, b.LastIndex(raw, b.Context, nil, id), 0)
	assert.Equal(t, b.FirstIndex(raw, b.Context, nil, id), 0)
	assert.Equal(t, b.ResultSize(raw, b.Context, nil, id, 0, 3), 0)
	n, code := b.CopyDataValues(raw, b.Context, nil, id, 0, 3, false, make([]ua.DataValue, 4))
	assert.Equal(t, n, 0)
	assert.Equal(t, code, ua.Good)
	_, ok = b.GetDataValue(raw, b.Context, nil, id, 0)
	assert.Assert(t, !ok)
	assert.Assert(t, !b.BoundSupported(raw, b.Context, nil, id))
	assert.Assert(t, !b.TimestampsToReturnSupported(raw, b.Context, nil, id, ua.TimestampsToReturnSource))
	assert.Equal(t, b.InsertDataValue(raw, b.Context, nil, id, dv), ua.Good)
	assert.Equal(t, b.ReplaceDataValue(raw, b.Context, nil, id, dv), ua.Good)
	assert.Equal(t, b.UpdateDataValue(raw, b.Context, nil, id, dv), ua.Good)
	assert.Equal(t, b.RemoveDataValue(raw, b.Context, nil, id, at(0), at(1)), ua.Good)

	d := h.Database
	results := make([]ua.HistoryReadResult, 1)
	assert.Equal(t, d.ReadRaw(raw, d.Context, nil, ua.ReadRawModifiedDetails{}, ua.TimestampsToReturnSource, false, []ua.HistoryReadValueID{{NodeID: id}}, results), ua.Good)
	assert.Equal(t, results[0].StatusCode, ua.Good)
}

func TestTrampolineContext(t *testing.T) {
	reg := uatree.NewRegistry()
	s := newTestServer(t, reg)
	id := ua.NewNodeIDString(2, "X")
	hooks := &recordingBackend{}
	b := historian.NewHistoryDataBackend(reg, hooks)
	assert.Assert(t, !b.Initialised())
	b.Initialise()
	assert.Assert(t, b.Initialised())
	assert.Equal(t, b.Hooks(), historian.BackendHooks(hooks))

	table := b.Table()
	assert.Equal(t, table.Context, any(b))
	code := table.ServerSetHistoryData(s.Raw(), table.Context, nil, id, true, ua.DataValue{Value: int32(1)})
	assert.Equal(t, code, ua.BadOutOfMemory)
	assert.Equal(t, table.GetEnd(s.Raw(), table.Context, nil, id), 7)
	assert.Equal(t, hooks.count(), 2)
	ctx := hooks.calls[0]
	assert.Equal(t, ctx.Server, s)
	assert.Equal(t, ctx.NodeID, id)
	assert.Equal(t, ctx.SessionID, ua.NilNodeID)
	assert.Assert(t, ctx.SessionContext == nil)
}

func TestTrampolineWithoutOwner(t *testing.T) {
	reg := uatree.NewRegistry()
	s := newTestServer(t, reg)
	id := ua.NewNodeIDString(2, "X")
	hooks := &recordingBackend{}
	b := historian.NewHistoryDataBackend(reg, hooks)
	b.Initialise()
	table := b.Table()

	// wrong context
	assert.Equal(t, table.ServerSetHistoryData(s.Raw(), "other", nil, id, true, ua.DataValue{}), ua.Good)
	assert.Equal(t, hooks.count(), 0)

	// a server of another registry
	other := newTestServer(t, uatree.NewRegistry())
	assert.Equal(t, table.GetEnd(other.Raw(), table.Context, nil, id), 0)
	assert.Equal(t, hooks.count(), 0)

	// an unregistered server
	assert.NilError(t, s.Shutdown())
	assert.Assert(t, reg.Find(s.Raw()) == nil)
	assert.Equal(t, table.ServerSetHistoryData(s.Raw(), table.Context, nil, id, true, ua.DataValue{}), ua.Good)
	assert.Equal(t, table.GetEnd(s.Raw(), table.Context, nil, id), 0)
	assert.Equal(t, hooks.count(), 0)
}

func TestNilRegistryUsesDefault(t *testing.T) {
	s, err := uatree.NewServer(uatree.WithServerLogger(quietLogger()))
	assert.NilError(t, err)
	defer s.Shutdown()
	assert.Equal(t, s.Registry(), uatree.DefaultRegistry)

	hooks := &recordingBackend{}
	b := historian.NewHistoryDataBackend(nil, hooks)
	b.Initialise()
	table := b.Table()
	assert.Equal(t, table.GetEnd(s.Raw(), table.Context, nil, ua.NewNodeIDNumeric(2, 1)), 7)
	assert.Equal(t, hooks.calls[0].Server, s)
}

func TestMemoryHistorianUpdate(t *testing.T) {
	s := newTestServer(t, uatree.NewRegistry())
	h := historian.NewMemoryHistorian(8, 0)
	id := addHistorical(t, s, "Level", float64(0))
	assert.NilError(t, h.SetUpdateNode(s, id, 2))

	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		assert.NilError(t, s.Raw().WriteDataValue(ctx, id, ua.DataValue{Value: float64(i), SourceTimestamp: at(i)}))
	}
	assert.NilError(t, s.Raw().Flush())

	values, err := h.ReadRaw(ctx, s, id, at(0), at(10))
	assert.NilError(t, err)
	assert.DeepEqual(t, valuesOf(values), []ua.Variant{float64(1), float64(2), float64(3), float64(4), float64(5)})

	// registering again updates the setting
	assert.NilError(t, h.SetUpdateNode(s, id, 0))
	setting, ok := h.Gathering.GetHistorizingSetting(s.Raw(), h.Gathering.Context, id)
	assert.Assert(t, ok)
	assert.Equal(t, setting.MaxHistoryDataResponseSize, historian.DefaultResponseSize)
}

func TestMemoryHistorianUser(t *testing.T) {
	s := newTestServer(t, uatree.NewRegistry())
	h := historian.NewMemoryHistorian(8, 0)
	id := addHistorical(t, s, "Counter", int32(0))
	assert.NilError(t, h.SetUserNode(s, id, 0))

	ctx := context.Background()
	assert.NilError(t, s.WriteValue(ctx, id, int32(99)))
	for i := 1; i <= 3; i++ {
		assert.NilError(t, h.InsertValue(s, id, ua.DataValue{Value: int32(i), SourceTimestamp: at(i)}))
	}
	assert.NilError(t, s.Raw().Flush())

	values, err := h.ReadRaw(ctx, s, id, at(0), at(10))
	assert.NilError(t, err)
	assert.DeepEqual(t, valuesOf(values), []ua.Variant{int32(1), int32(2), int32(3)})

	_, err = h.ReadRaw(ctx, s, id, time.Time{}, time.Time{})
	assert.ErrorContains(t, err, "read history")
}

func TestMemoryHistorianPoll(t *testing.T) {
	s := newTestServer(t, uatree.NewRegistry())
	h := historian.NewMemoryHistorian(8, 0)
	id := addHistorical(t, s, "Speed", float64(1))
	assert.NilError(t, h.SetPollNode(s, id, 0, 10*time.Millisecond))

	ctx := context.Background()
	start := time.Now().Add(-time.Hour)
	var values []ua.DataValue
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var err error
		values, err = h.ReadRaw(ctx, s, id, start, time.Now().Add(time.Hour))
		assert.NilError(t, err)
		if len(values) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Assert(t, len(values) > 0)
	assert.Equal(t, values[0].Value, ua.Variant(float64(1)))

	assert.NilError(t, h.StopPoll(s, id))
	assert.ErrorContains(t, h.StopPoll(s, id), "stop poll")
}
