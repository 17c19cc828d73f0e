// Copyright 2021 Converter Systems LLC. All rights reserved.

package nodetree_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/nodetree"
	"github.com/awcullen/uatree/tree"
	"github.com/awcullen/uatree/ua"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gotest.tools/assert"
)

type call struct {
	op     string
	parent ua.NodeID
	name   string
}

// fakeStore numbers its nodes and fails the add call number failAt.
type fakeStore struct {
	sync.Mutex
	calls  []call
	values map[ua.NodeID]ua.Variant
	next   uint32
	failAt int
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[ua.NodeID]ua.Variant{}, next: 100}
}

func (s *fakeStore) add(op string, parent ua.NodeID, name string) (ua.NodeID, error) {
	s.calls = append(s.calls, call{op, parent, name})
	if len(s.calls) == s.failAt {
		return ua.NilNodeID, ua.BadBrowseNameDuplicated
	}
	s.next++
	return ua.NewNodeIDNumeric(2, s.next), nil
}

func (s *fakeStore) AddFolderNode(ctx context.Context, parent ua.NodeID, name string) (ua.NodeID, error) {
	s.Lock()
	defer s.Unlock()
	return s.add("folder", parent, name)
}

func (s *fakeStore) AddValueNode(ctx context.Context, parent ua.NodeID, name string, value ua.Variant) (ua.NodeID, error) {
	s.Lock()
	defer s.Unlock()
	id, err := s.add("value", parent, name)
	if err == nil {
		s.values[id] = value
	}
	return id, err
}

func (s *fakeStore) GetValue(ctx context.Context, id ua.NodeID) (ua.Variant, error) {
	s.Lock()
	defer s.Unlock()
	v, ok := s.values[id]
	if !ok {
		return nil, ua.BadNodeIDUnknown
	}
	return v, nil
}

func (s *fakeStore) SetValue(ctx context.Context, id ua.NodeID, value ua.Variant) error {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.values[id]; !ok {
		return ua.BadNodeIDUnknown
	}
	s.values[id] = value
	return nil
}

func (s *fakeStore) ops() []string {
	s.Lock()
	defer s.Unlock()
	res := make([]string, len(s.calls))
	for i, c := range s.calls {
		res[i] = c.op + " " + c.name
	}
	return res
}

var root = ua.NewNodeIDNumeric(2, 0)

func newTree(t *testing.T, store nodetree.NodeStore, opts ...nodetree.Option) *nodetree.UANodeTree {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	tr, err := nodetree.New(store, root, append([]nodetree.Option{nodetree.WithLogger(logger)}, opts...)...)
	assert.NilError(t, err)
	return tr
}

func TestSetNodeValue(t *testing.T) {
	store := newFakeStore()
	tr := newTree(t, store)
	ctx := context.Background()
	path := tree.NodePath{"Folder", "Leaf"}

	assert.NilError(t, tr.SetNodeValue(ctx, path, int32(42)))
	assert.DeepEqual(t, store.ops(), []string{"folder Folder", "value Leaf"})
	assert.Assert(t, tr.Exists(tree.NodePath{"Folder"}))
	assert.Assert(t, tr.Exists(path))
	assert.Equal(t, store.calls[0].parent, root)
	folder, _ := tr.NodeIDOf(tree.NodePath{"Folder"})
	assert.Equal(t, store.calls[1].parent, folder)

	v, err := tr.GetNodeValue(ctx, path)
	assert.NilError(t, err)
	assert.Equal(t, v, ua.Variant(int32(42)))

	// an existing path is only written
	assert.NilError(t, tr.SetNodeValue(ctx, path, int32(43)))
	assert.Equal(t, len(store.ops()), 2)
	v, err = tr.GetChildValue(ctx, tree.NodePath{"Folder"}, "Leaf")
	assert.NilError(t, err)
	assert.Equal(t, v, ua.Variant(int32(43)))

	assert.NilError(t, tr.SetChildValue(ctx, tree.NodePath{"Folder"}, "Other", "text"))
	assert.DeepEqual(t, tr.ListChildren(tree.NodePath{"Folder"}), []string{"Leaf", "Other"})
	assert.Assert(t, tr.Changed())
}

func TestGetNodeValueMissing(t *testing.T) {
	store := newFakeStore()
	tr := newTree(t, store)
	ctx := context.Background()

	_, err := tr.GetNodeValue(ctx, tree.NodePath{"Nope"})
	assert.Equal(t, errors.Cause(err), ua.BadNoMatch)
	_, err = tr.GetNodeValue(ctx, nil)
	assert.Equal(t, errors.Cause(err), ua.BadNoMatch)

	// a folder has no value
	_, err = tr.CreatePathFolders(ctx, tree.NodePath{"A"}, 0)
	assert.NilError(t, err)
	_, err = tr.GetNodeValue(ctx, tree.NodePath{"A"})
	assert.Equal(t, errors.Cause(err), ua.BadNodeIDUnknown)
	assert.Equal(t, len(store.ops()), 1)
}

func TestCreatePathFoldersPartialFailure(t *testing.T) {
	store := newFakeStore()
	store.failAt = 3
	tr := newTree(t, store)
	ctx := context.Background()

	_, err := tr.CreatePathFolders(ctx, tree.NodePath{"a", "b", "c"}, 0)
	assert.ErrorContains(t, err, "create path a.b.c")
	assert.Equal(t, errors.Cause(err), ua.BadBrowseNameDuplicated)
	assert.Assert(t, tr.Exists(tree.NodePath{"a"}))
	assert.Assert(t, tr.Exists(tree.NodePath{"a", "b"}))
	assert.Assert(t, !tr.Exists(tree.NodePath{"a", "b", "c"}))

	// retrying creates only the missing segment
	id, err := tr.CreatePathFolders(ctx, tree.NodePath{"a", "b", "c"}, 0)
	assert.NilError(t, err)
	assert.DeepEqual(t, store.ops(), []string{"folder a", "folder b", "folder c", "folder c"})
	got, ok := tr.NodeIDOf(tree.NodePath{"a", "b", "c"})
	assert.Assert(t, ok)
	assert.Equal(t, got, id)

	// a complete path is a success
	again, err := tr.CreatePathFolders(ctx, tree.NodePath{"a", "b", "c"}, 0)
	assert.NilError(t, err)
	assert.Equal(t, again, id)
	assert.Equal(t, len(store.ops()), 4)
}

func TestCreatePathValueFailure(t *testing.T) {
	store := newFakeStore()
	store.failAt = 2
	tr := newTree(t, store)
	ctx := context.Background()

	err := tr.SetNodeValue(ctx, tree.NodePath{"Folder", "Leaf"}, true)
	assert.Equal(t, errors.Cause(err), ua.BadBrowseNameDuplicated)
	assert.Assert(t, tr.Exists(tree.NodePath{"Folder"}))
	assert.Assert(t, !tr.Exists(tree.NodePath{"Folder", "Leaf"}))
}

func TestCreatePathLevel(t *testing.T) {
	store := newFakeStore()
	tr := newTree(t, store)
	ctx := context.Background()

	_, err := tr.CreatePathFolders(ctx, tree.NodePath{"a", "b"}, 1)
	assert.Equal(t, errors.Cause(err), ua.BadNoMatch)
	_, err = tr.CreatePathFolders(ctx, tree.NodePath{"a"}, 0)
	assert.NilError(t, err)
	_, err = tr.CreatePath(ctx, tree.NodePath{"a", "b"}, float64(1), 1)
	assert.NilError(t, err)
	assert.DeepEqual(t, store.ops(), []string{"folder a", "value b"})

	_, err = tr.CreatePath(ctx, nil, float64(1), 0)
	assert.Equal(t, errors.Cause(err), ua.BadInvalidArgument)
	_, err = tr.CreatePathFolders(ctx, tree.NodePath{"a"}, 5)
	assert.Equal(t, errors.Cause(err), ua.BadInvalidArgument)

	id, err := tr.CreatePathFolders(ctx, nil, 0)
	assert.NilError(t, err)
	assert.Equal(t, id, root)
}

func TestPrint(t *testing.T) {
	store := newFakeStore()
	tr := newTree(t, store, nodetree.WithSeparator("/"))
	ctx := context.Background()
	assert.NilError(t, tr.SetNodeValue(ctx, tr.ParsePath("Plant/Line1/Speed"), float64(1.5)))
	assert.NilError(t, tr.SetNodeValue(ctx, tr.ParsePath("/Plant/Line1/Count/"), int32(7)))
	assert.NilError(t, tr.SetNodeValue(ctx, tr.ParsePath("Plant/Name"), "north"))

	var buf bytes.Buffer
	assert.NilError(t, tr.Print(ctx, &buf))
	assert.Equal(t, buf.String(), "Plant\n  Line1\n    Count = 7\n    Speed = 1.5\n  Name = north\n")
}

func TestOptions(t *testing.T) {
	_, err := nodetree.New(nil, root)
	assert.ErrorContains(t, err, "store is nil")
	_, err = nodetree.New(newFakeStore(), root, nodetree.WithLogger(nil))
	assert.ErrorContains(t, err, "logger is nil")
	_, err = nodetree.New(newFakeStore(), root, nodetree.WithSeparator(""))
	assert.ErrorContains(t, err, "separator is empty")

	tr := newTree(t, newFakeStore(), nodetree.WithNamespace(5))
	assert.Equal(t, tr.Namespace(), uint16(5))
	assert.Equal(t, tr.Parent(), root)
	assert.Assert(t, !tr.Changed())
}

func TestServerNodeTree(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	srv, err := uatree.NewServer(uatree.WithRegistry(uatree.NewRegistry()), uatree.WithServerLogger(logger))
	assert.NilError(t, err)
	defer srv.Shutdown()

	tr, err := nodetree.ServerNodeTree(srv, ua.ObjectIDObjectsFolder)
	assert.NilError(t, err)
	ctx := context.Background()
	path := tree.NodePath{"Folder", "Leaf"}
	assert.NilError(t, tr.SetNodeValue(ctx, path, int32(42)))
	v, err := tr.GetNodeValue(ctx, path)
	assert.NilError(t, err)
	assert.Equal(t, v, ua.Variant(int32(42)))

	id, _ := tr.NodeIDOf(path)
	assert.Equal(t, id.NamespaceIndex(), uint16(2))
	dv, err := srv.ReadValue(ctx, id)
	assert.NilError(t, err)
	assert.Equal(t, dv.Value, ua.Variant(int32(42)))

	refs, err := srv.Browse(ua.ObjectIDObjectsFolder)
	assert.NilError(t, err)
	found := false
	for _, r := range refs {
		if r.BrowseName.Name == "Folder" {
			found = true
		}
	}
	assert.Assert(t, found)

	// the server rejects a value of another type
	err = tr.SetNodeValue(ctx, path, "text")
	assert.Equal(t, errors.Cause(err), ua.BadTypeMismatch)
}
