// Copyright 2021 Converter Systems LLC. All rights reserved.

package historian_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/historian"
	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"gotest.tools/assert"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                       { return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool { return true }
func (t *fakeToken) Error() error                     { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	sync.Mutex
	messages []published
	err      error
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.Lock()
	defer p.Unlock()
	p.messages = append(p.messages, published{topic, payload.([]byte)})
	return &fakeToken{err: p.err}
}

func (p *fakePublisher) all() []published {
	p.Lock()
	defer p.Unlock()
	return append([]published(nil), p.messages...)
}

func TestMQTTForwarder(t *testing.T) {
	pub := &fakePublisher{}
	f := historian.NewMQTTForwarder(server.NewMemoryHistoryDataBackend(8, 0), pub, "uatree/history/", quietLogger())
	id := ua.NewNodeIDString(2, "Level")
	ctx := historian.Context{NodeID: id}
	assert.Equal(t, f.Topic(id), "uatree/history/ns=2;s=Level")

	assert.Equal(t, f.ServerSetHistoryData(ctx, true, ua.DataValue{Value: float64(1.5), SourceTimestamp: at(1)}), ua.Good)
	assert.Equal(t, f.InsertDataValue(ctx, ua.DataValue{Value: float64(2), SourceTimestamp: at(1)}), ua.BadEntryExists)
	assert.Equal(t, f.InsertDataValue(ctx, ua.DataValue{Value: float64(2), SourceTimestamp: at(2)}), ua.GoodEntryInserted)
	assert.Equal(t, f.GetEnd(ctx), 2)

	msgs := pub.all()
	assert.Equal(t, len(msgs), 2)
	assert.Equal(t, msgs[0].topic, "uatree/history/ns=2;s=Level")
	var m struct {
		Node            string    `json:"node"`
		Value           float64   `json:"value"`
		Status          uint32    `json:"status"`
		SourceTimestamp time.Time `json:"sourceTimestamp"`
	}
	assert.NilError(t, json.Unmarshal(msgs[0].payload, &m))
	assert.Equal(t, m.Node, "ns=2;s=Level")
	assert.Equal(t, m.Value, 1.5)
	assert.Equal(t, m.Status, uint32(0))
	assert.Assert(t, m.SourceTimestamp.Equal(at(1)))

	// publish errors do not fail the store
	pub.err = errors.New("not connected")
	assert.Equal(t, f.UpdateDataValue(ctx, ua.DataValue{Value: float64(3), SourceTimestamp: at(3)}), ua.GoodEntryInserted)
	assert.Equal(t, len(pub.all()), 3)
	assert.Equal(t, f.RemoveDataValue(ctx, at(0), at(2)), ua.Good)
	assert.Equal(t, len(pub.all()), 3)
}

func TestMQTTHistorian(t *testing.T) {
	reg := uatree.NewRegistry()
	s := newTestServer(t, reg)
	pub := &fakePublisher{}
	f := historian.NewMQTTForwarder(server.NewMemoryHistoryDataBackend(8, 0), pub, "plant", nil)
	h := historian.NewBackendHistorian(reg, 8, f)
	id := addHistorical(t, s, "Pressure", int32(0))
	assert.NilError(t, h.SetUserNode(s, id, 0))

	for i := 1; i <= 3; i++ {
		assert.NilError(t, h.InsertValue(s, id, ua.DataValue{Value: int32(i), SourceTimestamp: at(i)}))
	}
	values, err := h.ReadRaw(context.Background(), s, id, at(0), at(3))
	assert.NilError(t, err)
	assert.DeepEqual(t, valuesOf(values), []ua.Variant{int32(1), int32(2)})
	assert.Equal(t, len(pub.all()), 3)
	assert.Equal(t, pub.all()[2].topic, "plant/ns=2;s=Pressure")
}
