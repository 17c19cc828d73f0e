// Copyright 2020 Converter Systems LLC. All rights reserved.

package nodetree_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/nodetree"
	"github.com/awcullen/uatree/tree"
	"github.com/awcullen/uatree/ua"
	gua "github.com/gopcua/opcua/ua"
	"github.com/sirupsen/logrus"
	"gotest.tools/assert"
)

// remoteSession is an address space behind the gopcua service types.
type remoteSession struct {
	sync.Mutex
	next   uint32
	names  map[string]bool
	values map[string]*gua.Variant
	adds   []*gua.AddNodesItem
}

func newRemoteSession() *remoteSession {
	return &remoteSession{next: 1000, names: map[string]bool{}, values: map[string]*gua.Variant{}}
}

func (s *remoteSession) Connect(ctx context.Context) error { return nil }

func (s *remoteSession) Close(ctx context.Context) error { return nil }

func (s *remoteSession) Read(ctx context.Context, req *gua.ReadRequest) (*gua.ReadResponse, error) {
	s.Lock()
	defer s.Unlock()
	res := &gua.ReadResponse{}
	for _, r := range req.NodesToRead {
		v, ok := s.values[r.NodeID.String()]
		if !ok {
			res.Results = append(res.Results, &gua.DataValue{EncodingMask: gua.DataValueStatusCode, Status: gua.StatusBadNodeIDUnknown})
			continue
		}
		res.Results = append(res.Results, &gua.DataValue{EncodingMask: gua.DataValueValue, Value: v, Status: gua.StatusOK})
	}
	return res, nil
}

func (s *remoteSession) Write(ctx context.Context, req *gua.WriteRequest) (*gua.WriteResponse, error) {
	s.Lock()
	defer s.Unlock()
	res := &gua.WriteResponse{}
	for _, w := range req.NodesToWrite {
		key := w.NodeID.String()
		old, ok := s.values[key]
		switch {
		case !ok:
			res.Results = append(res.Results, gua.StatusBadNodeIDUnknown)
		case old.Type() != w.Value.Value.Type():
			res.Results = append(res.Results, gua.StatusBadTypeMismatch)
		default:
			s.values[key] = w.Value.Value
			res.Results = append(res.Results, gua.StatusOK)
		}
	}
	return res, nil
}

func (s *remoteSession) AddNodes(ctx context.Context, req *gua.AddNodesRequest) (*gua.AddNodesResponse, error) {
	s.Lock()
	defer s.Unlock()
	res := &gua.AddNodesResponse{}
	for _, item := range req.NodesToAdd {
		s.adds = append(s.adds, item)
		key := item.ParentNodeID.NodeID.String() + "/" + item.BrowseName.Name
		if s.names[key] {
			res.Results = append(res.Results, &gua.AddNodesResult{StatusCode: gua.StatusBadBrowseNameDuplicated})
			continue
		}
		s.names[key] = true
		s.next++
		id := gua.NewNumericNodeID(item.BrowseName.NamespaceIndex, s.next)
		if attrs, ok := item.NodeAttributes.Value.(*gua.VariableAttributes); ok {
			s.values[id.String()] = attrs.Value
		}
		res.Results = append(res.Results, &gua.AddNodesResult{StatusCode: gua.StatusOK, AddedNodeID: id})
	}
	return res, nil
}

func TestClientNodeTree(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	session := newRemoteSession()
	c, err := uatree.NewClientWithSession(session, uatree.WithClientLogger(logger))
	assert.NilError(t, err)
	ctx := context.Background()
	assert.NilError(t, c.Connect(ctx))

	tr, err := nodetree.ClientNodeTree(c, ua.ObjectIDObjectsFolder, nodetree.WithNamespace(3))
	assert.NilError(t, err)
	path := tree.NodePath{"Folder", "Leaf"}
	assert.NilError(t, tr.SetNodeValue(ctx, path, int32(42)))
	v, err := tr.GetNodeValue(ctx, path)
	assert.NilError(t, err)
	assert.Equal(t, v, ua.Variant(int32(42)))

	assert.Equal(t, len(session.adds), 2)
	assert.Equal(t, session.adds[0].NodeClass, gua.NodeClassObject)
	assert.Equal(t, session.adds[0].BrowseName.NamespaceIndex, uint16(3))
	assert.Equal(t, session.adds[0].ParentNodeID.NodeID.String(), "i=85")
	assert.Equal(t, session.adds[1].NodeClass, gua.NodeClassVariable)
	folder, _ := tr.NodeIDOf(tree.NodePath{"Folder"})
	assert.Equal(t, session.adds[1].ParentNodeID.NodeID.String(), folder.String())

	err = tr.SetNodeValue(ctx, path, "text")
	assert.ErrorContains(t, err, "set Folder.Leaf")

	// a second tree over the same server fails on the existing folder
	other, err := nodetree.ClientNodeTree(c, ua.ObjectIDObjectsFolder, nodetree.WithNamespace(3))
	assert.NilError(t, err)
	err = other.SetNodeValue(ctx, path, int32(1))
	assert.ErrorContains(t, err, "create path Folder")
	assert.Assert(t, !other.Exists(tree.NodePath{"Folder"}))
}
