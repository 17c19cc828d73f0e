// Copyright 2020 Converter Systems LLC. All rights reserved.

package uatree_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/ua"
	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/id"
	gua "github.com/gopcua/opcua/ua"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gotest.tools/assert"
)

// fakeSession records requests and answers them from its fields.
type fakeSession struct {
	sync.Mutex
	connectFailures int
	connects        int
	closed          bool
	reads           []*gua.ReadRequest
	writes          []*gua.WriteRequest
	adds            []*gua.AddNodesRequest
	readResult      *gua.DataValue
	writeResult     gua.StatusCode
	addResult       *gua.AddNodesResult
}

func (s *fakeSession) Connect(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()
	s.connects++
	if s.connects <= s.connectFailures {
		return errors.New("connection refused")
	}
	return nil
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

func (s *fakeSession) Read(ctx context.Context, req *gua.ReadRequest) (*gua.ReadResponse, error) {
	s.reads = append(s.reads, req)
	return &gua.ReadResponse{Results: []*gua.DataValue{s.readResult}}, nil
}

func (s *fakeSession) Write(ctx context.Context, req *gua.WriteRequest) (*gua.WriteResponse, error) {
	s.writes = append(s.writes, req)
	return &gua.WriteResponse{Results: []gua.StatusCode{s.writeResult}}, nil
}

func (s *fakeSession) AddNodes(ctx context.Context, req *gua.AddNodesRequest) (*gua.AddNodesResponse, error) {
	s.adds = append(s.adds, req)
	return &gua.AddNodesResponse{Results: []*gua.AddNodesResult{s.addResult}}, nil
}

func newTestClient(t *testing.T, s *fakeSession, opts ...uatree.ClientOption) *uatree.Client {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	opts = append([]uatree.ClientOption{uatree.WithClientLogger(logger), uatree.WithConnectRetry(3, time.Millisecond)}, opts...)
	c, err := uatree.NewClientWithSession(s, opts...)
	assert.NilError(t, err)
	return c
}

func TestClientConnectRetries(t *testing.T) {
	s := &fakeSession{connectFailures: 2}
	c := newTestClient(t, s)
	assert.NilError(t, c.Connect(context.Background()))
	assert.Equal(t, s.connects, 3)
	assert.NilError(t, c.Close(context.Background()))
	assert.Assert(t, s.closed)
}

func TestClientConnectGivesUp(t *testing.T) {
	s := &fakeSession{connectFailures: 10}
	c := newTestClient(t, s, uatree.WithConnectRetry(1, time.Millisecond))
	err := c.Connect(context.Background())
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, s.connects, 2)
}

func TestClientOptionErrors(t *testing.T) {
	_, err := uatree.NewClientWithSession(nil)
	assert.ErrorContains(t, err, "session is nil")
	_, err = uatree.NewClientWithSession(&fakeSession{}, uatree.WithConnectRetry(1, 0))
	assert.ErrorContains(t, err, "interval")
	_, err = uatree.NewClientWithSession(&fakeSession{}, uatree.WithClientLogger(nil))
	assert.ErrorContains(t, err, "logger is nil")
}

func TestClientReadValue(t *testing.T) {
	now := time.Now().UTC()
	s := &fakeSession{readResult: &gua.DataValue{
		Value:           gua.MustVariant(int32(42)),
		Status:          gua.StatusOK,
		SourceTimestamp: now,
	}}
	c := newTestClient(t, s)
	dv, err := c.ReadValue(context.Background(), ua.NewNodeIDString(2, "Leaf"))
	assert.NilError(t, err)
	assert.Equal(t, dv.Value, int32(42))
	assert.Equal(t, dv.SourceTimestamp, now)
	assert.Equal(t, s.reads[0].NodesToRead[0].NodeID.String(), "ns=2;s=Leaf")
	assert.Equal(t, s.reads[0].NodesToRead[0].AttributeID, gua.AttributeIDValue)

	s.readResult = &gua.DataValue{Status: gua.StatusBadNodeIDUnknown}
	_, err = c.ReadValue(context.Background(), ua.NewNodeIDString(2, "Missing"))
	assert.Equal(t, errors.Cause(err), ua.BadNodeIDUnknown)
}

func TestClientWriteValue(t *testing.T) {
	s := &fakeSession{writeResult: gua.StatusOK}
	c := newTestClient(t, s)
	assert.NilError(t, c.WriteValue(context.Background(), ua.NewNodeIDNumeric(2, 7), "hello"))
	w := s.writes[0].NodesToWrite[0]
	assert.Equal(t, w.NodeID.String(), "ns=2;i=7")
	assert.Equal(t, w.Value.Value.Value(), "hello")

	s.writeResult = gua.StatusBadTypeMismatch
	err := c.WriteValue(context.Background(), ua.NewNodeIDNumeric(2, 7), int32(1))
	assert.Equal(t, errors.Cause(err), ua.BadTypeMismatch)

	err = c.WriteValue(context.Background(), ua.NewNodeIDNumeric(2, 7), struct{}{})
	assert.Equal(t, errors.Cause(err), ua.BadTypeMismatch)
	assert.Equal(t, len(s.writes), 2)
}

func TestClientAddNodes(t *testing.T) {
	s := &fakeSession{addResult: &gua.AddNodesResult{StatusCode: gua.StatusOK, AddedNodeID: gua.NewNumericNodeID(2, 1001)}}
	c := newTestClient(t, s)
	ctx := context.Background()

	folder, err := c.AddFolder(ctx, ua.ObjectIDObjectsFolder, ua.NewQualifiedName(2, "Folder"), ua.NewNodeIDNumeric(2, 0))
	assert.NilError(t, err)
	assert.Equal(t, folder, ua.NewNodeIDNumeric(2, 1001))
	item := s.adds[0].NodesToAdd[0]
	assert.Equal(t, item.NodeClass, gua.NodeClassObject)
	assert.Equal(t, item.ParentNodeID.NodeID.String(), "i=85")
	assert.Equal(t, item.BrowseName.Name, "Folder")
	assert.Equal(t, item.TypeDefinition.NodeID.IntID(), uint32(id.FolderType))

	s.addResult = &gua.AddNodesResult{StatusCode: gua.StatusOK, AddedNodeID: gua.NewStringNodeID(2, "Leaf")}
	leaf, err := c.AddVariable(ctx, folder, ua.NewQualifiedName(2, "Leaf"), float64(1.5), ua.NewNodeIDString(2, "Leaf"))
	assert.NilError(t, err)
	assert.Equal(t, leaf, ua.NewNodeIDString(2, "Leaf"))
	item = s.adds[1].NodesToAdd[0]
	assert.Equal(t, item.NodeClass, gua.NodeClassVariable)
	assert.Equal(t, item.RequestedNewNodeID.NodeID.String(), "ns=2;s=Leaf")
	assert.Equal(t, item.TypeDefinition.NodeID.IntID(), uint32(id.BaseDataVariableType))

	s.addResult = &gua.AddNodesResult{StatusCode: gua.StatusBadBrowseNameDuplicated}
	_, err = c.AddFolder(ctx, ua.ObjectIDObjectsFolder, ua.NewQualifiedName(2, "Folder"), ua.NewNodeIDNumeric(2, 0))
	assert.Equal(t, errors.Cause(err), ua.BadBrowseNameDuplicated)
}

func TestNewClient(t *testing.T) {
	c, err := uatree.NewClient("opc.tcp://localhost:4840",
		uatree.WithClientOptions(opcua.SecurityMode(gua.MessageSecurityModeNone)),
		uatree.WithConnectRetry(0, time.Millisecond))
	assert.NilError(t, err)
	assert.Equal(t, c.EndpointURL(), "opc.tcp://localhost:4840")
	assert.Assert(t, c.Logger() != nil)
}
