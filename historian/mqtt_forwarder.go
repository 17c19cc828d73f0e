// Copyright 2021 Converter Systems LLC. All rights reserved.

package historian

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Publisher publishes a message. mqtt.Client implements it.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Message is the payload published for each stored value.
type Message struct {
	Node            string    `json:"node"`
	Value           any       `json:"value"`
	Status          uint32    `json:"status"`
	SourceTimestamp time.Time `json:"sourceTimestamp"`
}

// MQTTForwarder stores values in an inner backend and publishes every stored
// value to the topic "<prefix>/<node id>".
type MQTTForwarder struct {
	inner     server.HistoryDataBackend
	publisher Publisher
	prefix    string
	qos       byte
	timeout   time.Duration
	logger    logrus.FieldLogger
}

// NewMQTTForwarder returns a forwarder storing values in inner.
func NewMQTTForwarder(inner server.HistoryDataBackend, publisher Publisher, prefix string, logger logrus.FieldLogger) *MQTTForwarder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MQTTForwarder{
		inner:     inner,
		publisher: publisher,
		prefix:    strings.TrimSuffix(prefix, "/"),
		qos:       1,
		timeout:   5 * time.Second,
		logger:    logger,
	}
}

// Topic returns the topic of the node.
func (f *MQTTForwarder) Topic(nodeID ua.NodeID) string {
	return f.prefix + "/" + nodeID.String()
}

func (f *MQTTForwarder) publish(ctx Context, value ua.DataValue) error {
	payload, err := json.Marshal(Message{
		Node:            ctx.NodeID.String(),
		Value:           value.Value,
		Status:          uint32(value.StatusCode),
		SourceTimestamp: value.SourceTimestamp,
	})
	if err != nil {
		return errors.Wrap(err, "encode message")
	}
	token := f.publisher.Publish(f.Topic(ctx.NodeID), f.qos, false, payload)
	if !token.WaitTimeout(f.timeout) {
		return errors.Errorf("publish %s: timeout", ctx.NodeID)
	}
	return errors.Wrapf(token.Error(), "publish %s", ctx.NodeID)
}

// forward publishes the value when the inner backend stored it.
func (f *MQTTForwarder) forward(ctx Context, value ua.DataValue, code ua.StatusCode) ua.StatusCode {
	if code.IsBad() {
		return code
	}
	if err := f.publish(ctx, value); err != nil {
		f.logger.WithField("node", ctx.NodeID).WithError(err).Warn("Error forwarding value.")
	}
	return code
}

func (f *MQTTForwarder) ServerSetHistoryData(ctx Context, historizing bool, value ua.DataValue) ua.StatusCode {
	if f.inner.ServerSetHistoryData == nil {
		return ua.BadHistoryOperationUnsupported
	}
	if value.SourceTimestamp.IsZero() {
		value.SourceTimestamp = time.Now()
	}
	return f.forward(ctx, value, f.inner.ServerSetHistoryData(ctx.raw(), f.inner.Context, nil, ctx.NodeID, historizing, value))
}

func (f *MQTTForwarder) GetHistoryData(ctx Context, q server.HistoryDataQuery, result *ua.HistoryData) (ua.ByteString, ua.StatusCode) {
	if f.inner.GetHistoryData != nil {
		return f.inner.GetHistoryData(ctx.raw(), f.inner.Context, nil, ctx.NodeID, q, result)
	}
	return ReadHistoryData(ctx, f, q, result)
}

func (f *MQTTForwarder) GetDateTimeMatch(ctx Context, timestamp time.Time, strategy server.MatchStrategy) int {
	if f.inner.GetDateTimeMatch == nil {
		return 0
	}
	return f.inner.GetDateTimeMatch(ctx.raw(), f.inner.Context, nil, ctx.NodeID, timestamp, strategy)
}

func (f *MQTTForwarder) GetEnd(ctx Context) int {
	if f.inner.GetEnd == nil {
		return 0
	}
	return f.inner.GetEnd(ctx.raw(), f.inner.Context, nil, ctx.NodeID)
}

func (f *MQTTForwarder) LastIndex(ctx Context) int {
	if f.inner.LastIndex == nil {
		return 0
	}
	return f.inner.LastIndex(ctx.raw(), f.inner.Context, nil, ctx.NodeID)
}

func (f *MQTTForwarder) FirstIndex(ctx Context) int {
	if f.inner.FirstIndex == nil {
		return 0
	}
	return f.inner.FirstIndex(ctx.raw(), f.inner.Context, nil, ctx.NodeID)
}

func (f *MQTTForwarder) ResultSize(ctx Context, startIndex, endIndex int) int {
	if f.inner.ResultSize == nil {
		return 0
	}
	return f.inner.ResultSize(ctx.raw(), f.inner.Context, nil, ctx.NodeID, startIndex, endIndex)
}

func (f *MQTTForwarder) CopyDataValues(ctx Context, startIndex, endIndex int, reverse bool, values []ua.DataValue) (int, ua.StatusCode) {
	if f.inner.CopyDataValues == nil {
		return 0, ua.BadHistoryOperationUnsupported
	}
	return f.inner.CopyDataValues(ctx.raw(), f.inner.Context, nil, ctx.NodeID, startIndex, endIndex, reverse, values)
}

func (f *MQTTForwarder) GetDataValue(ctx Context, index int) (ua.DataValue, bool) {
	if f.inner.GetDataValue == nil {
		return ua.DataValue{}, false
	}
	return f.inner.GetDataValue(ctx.raw(), f.inner.Context, nil, ctx.NodeID, index)
}

func (f *MQTTForwarder) BoundSupported(ctx Context) bool {
	return f.inner.BoundSupported != nil && f.inner.BoundSupported(ctx.raw(), f.inner.Context, nil, ctx.NodeID)
}

func (f *MQTTForwarder) TimestampsToReturnSupported(ctx Context, ttr ua.TimestampsToReturn) bool {
	if f.inner.TimestampsToReturnSupported == nil {
		return true
	}
	return f.inner.TimestampsToReturnSupported(ctx.raw(), f.inner.Context, nil, ctx.NodeID, ttr)
}

func (f *MQTTForwarder) InsertDataValue(ctx Context, value ua.DataValue) ua.StatusCode {
	if f.inner.InsertDataValue == nil {
		return ua.BadHistoryOperationUnsupported
	}
	return f.forward(ctx, value, f.inner.InsertDataValue(ctx.raw(), f.inner.Context, nil, ctx.NodeID, value))
}

func (f *MQTTForwarder) ReplaceDataValue(ctx Context, value ua.DataValue) ua.StatusCode {
	if f.inner.ReplaceDataValue == nil {
		return ua.BadHistoryOperationUnsupported
	}
	return f.forward(ctx, value, f.inner.ReplaceDataValue(ctx.raw(), f.inner.Context, nil, ctx.NodeID, value))
}

func (f *MQTTForwarder) UpdateDataValue(ctx Context, value ua.DataValue) ua.StatusCode {
	if f.inner.UpdateDataValue == nil {
		return ua.BadHistoryOperationUnsupported
	}
	return f.forward(ctx, value, f.inner.UpdateDataValue(ctx.raw(), f.inner.Context, nil, ctx.NodeID, value))
}

func (f *MQTTForwarder) RemoveDataValue(ctx Context, start, end time.Time) ua.StatusCode {
	if f.inner.RemoveDataValue == nil {
		return ua.BadHistoryOperationUnsupported
	}
	return f.inner.RemoveDataValue(ctx.raw(), f.inner.Context, nil, ctx.NodeID, start, end)
}
