// Copyright 2021 Converter Systems LLC. All rights reserved.

package nodetree

import (
	"context"

	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/ua"
)

// NodeStore creates, reads and writes the nodes a UANodeTree mirrors.
type NodeStore interface {
	// AddFolderNode creates a folder named name below parent.
	AddFolderNode(ctx context.Context, parent ua.NodeID, name string) (ua.NodeID, error)
	// AddValueNode creates a variable named name below parent, typed by value.
	AddValueNode(ctx context.Context, parent ua.NodeID, name string, value ua.Variant) (ua.NodeID, error)
	GetValue(ctx context.Context, id ua.NodeID) (ua.Variant, error)
	SetValue(ctx context.Context, id ua.NodeID, value ua.Variant) error
}

// serverStore keeps nodes in the address space of a local server.
type serverStore struct {
	srv       *uatree.Server
	namespace uint16
}

func (s *serverStore) AddFolderNode(ctx context.Context, parent ua.NodeID, name string) (ua.NodeID, error) {
	return s.srv.AddFolder(parent, ua.NewQualifiedName(s.namespace, name), ua.NewNodeIDNumeric(s.namespace, 0))
}

func (s *serverStore) AddValueNode(ctx context.Context, parent ua.NodeID, name string, value ua.Variant) (ua.NodeID, error) {
	return s.srv.AddVariable(parent, ua.NewQualifiedName(s.namespace, name), value, ua.NewNodeIDNumeric(s.namespace, 0))
}

func (s *serverStore) GetValue(ctx context.Context, id ua.NodeID) (ua.Variant, error) {
	dv, err := s.srv.ReadValue(ctx, id)
	if err != nil {
		return nil, err
	}
	return dv.Value, nil
}

func (s *serverStore) SetValue(ctx context.Context, id ua.NodeID, value ua.Variant) error {
	return s.srv.WriteValue(ctx, id, value)
}

// clientStore keeps nodes in the address space of a remote server.
type clientStore struct {
	client    *uatree.Client
	namespace uint16
}

func (s *clientStore) AddFolderNode(ctx context.Context, parent ua.NodeID, name string) (ua.NodeID, error) {
	return s.client.AddFolder(ctx, parent, ua.NewQualifiedName(s.namespace, name), ua.NewNodeIDNumeric(s.namespace, 0))
}

func (s *clientStore) AddValueNode(ctx context.Context, parent ua.NodeID, name string, value ua.Variant) (ua.NodeID, error) {
	return s.client.AddVariable(ctx, parent, ua.NewQualifiedName(s.namespace, name), value, ua.NewNodeIDNumeric(s.namespace, 0))
}

func (s *clientStore) GetValue(ctx context.Context, id ua.NodeID) (ua.Variant, error) {
	dv, err := s.client.ReadValue(ctx, id)
	if err != nil {
		return nil, err
	}
	return dv.Value, nil
}

func (s *clientStore) SetValue(ctx context.Context, id ua.NodeID, value ua.Variant) error {
	return s.client.WriteValue(ctx, id, value)
}

// ServerNodeTree returns a tree that creates its nodes below parent in the
// address space of srv.
func ServerNodeTree(srv *uatree.Server, parent ua.NodeID, opts ...Option) (*UANodeTree, error) {
	store := &serverStore{srv: srv}
	t, err := New(store, parent, append([]Option{WithLogger(srv.Logger())}, opts...)...)
	if err != nil {
		return nil, err
	}
	store.namespace = t.Namespace()
	return t, nil
}

// ClientNodeTree returns a tree that creates its nodes below parent on the
// server c is connected to.
func ClientNodeTree(c *uatree.Client, parent ua.NodeID, opts ...Option) (*UANodeTree, error) {
	store := &clientStore{client: c}
	t, err := New(store, parent, append([]Option{WithLogger(c.Logger())}, opts...)...)
	if err != nil {
		return nil, err
	}
	store.namespace = t.Namespace()
	return t, nil
}
