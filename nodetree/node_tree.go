// Copyright 2021 Converter Systems LLC. All rights reserved.

// Package nodetree mirrors a tree of folders and variables of an OPC UA
// address space, addressed by browse path.
package nodetree

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/awcullen/uatree/tree"
	"github.com/awcullen/uatree/ua"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Node is a node of a UANodeTree. Its data is the id of the mirrored node.
type Node = tree.Node[string, ua.NodeID]

// UANodeTree keeps the ids of the nodes it created in a NodeStore, keyed by
// path. The root holds the id of the parent node passed to New.
//
// Path creation is not transactional. When the store rejects a segment, the
// segments created before it stay in the store and in the tree.
type UANodeTree struct {
	*tree.PropertyTree[string, ua.NodeID]
	store     NodeStore
	namespace uint16
	separator string
	logger    logrus.FieldLogger
}

// New returns a tree that creates its nodes below parent in store.
func New(store NodeStore, parent ua.NodeID, opts ...Option) (*UANodeTree, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	t := &UANodeTree{
		PropertyTree: tree.NewPropertyTree[string, ua.NodeID](),
		store:        store,
		namespace:    DefaultNamespace,
		separator:    tree.DefaultSeparator,
		logger:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	t.Root().SetData(parent)
	t.ClearChanged()
	return t, nil
}

// Namespace returns the namespace index of created nodes.
func (t *UANodeTree) Namespace() uint16 {
	return t.namespace
}

// Parent returns the id of the root.
func (t *UANodeTree) Parent() ua.NodeID {
	var id ua.NodeID
	t.View(func(root *Node) error {
		id = root.Data()
		return nil
	})
	return id
}

// Store returns the store of the tree.
func (t *UANodeTree) Store() NodeStore {
	return t.store
}

// ParsePath splits s on the separator of the tree.
func (t *UANodeTree) ParsePath(s string) tree.NodePath {
	return tree.ParsePath(s, t.separator)
}

// NodeIDOf returns the id of the node at path.
func (t *UANodeTree) NodeIDOf(path tree.NodePath) (ua.NodeID, bool) {
	if len(path) == 0 {
		return t.Parent(), true
	}
	return t.Lookup(path)
}

// CreatePathFolders creates a folder for each segment of path from level on
// that is not in the tree yet, and returns the id of the last one. The
// segments before level must exist. A path that is already complete is
// left as is.
func (t *UANodeTree) CreatePathFolders(ctx context.Context, path tree.NodePath, level int) (ua.NodeID, error) {
	var id ua.NodeID
	err := t.Update(func(root *Node) error {
		n, err := t.createPath(ctx, root, path, level, len(path), nil)
		if err != nil {
			return err
		}
		id = n.Data()
		return nil
	})
	return id, err
}

// CreatePath creates the folders of path from level on like
// CreatePathFolders, but creates the last segment as a variable holding
// value. An existing last segment is left as is.
func (t *UANodeTree) CreatePath(ctx context.Context, path tree.NodePath, value ua.Variant, level int) (ua.NodeID, error) {
	if len(path) == 0 {
		return ua.NilNodeID, errors.Wrap(ua.BadInvalidArgument, "create path: empty path")
	}
	var id ua.NodeID
	err := t.Update(func(root *Node) error {
		n, err := t.createPath(ctx, root, path, level, len(path)-1, func(parent *Node, name string) (ua.NodeID, error) {
			return t.store.AddValueNode(ctx, parent.Data(), name, value)
		})
		if err != nil {
			return err
		}
		id = n.Data()
		return nil
	})
	return id, err
}

// createPath descends from root along path, creating missing nodes from
// level on. Segments before folders are created as folders, the rest with
// leaf. Must be called with the tree locked.
func (t *UANodeTree) createPath(ctx context.Context, root *Node, path tree.NodePath, level, folders int, leaf func(*Node, string) (ua.NodeID, error)) (*Node, error) {
	if level < 0 || level > len(path) {
		return nil, errors.Wrapf(ua.BadInvalidArgument, "create path %s: level %d", path.Join(t.separator), level)
	}
	n := root.Find(path[:level])
	if n == nil {
		return nil, errors.Wrapf(ua.BadNoMatch, "create path %s: missing %s", path.Join(t.separator), path[:level].Join(t.separator))
	}
	for i := level; i < len(path); i++ {
		name := path[i]
		if c := n.Child(name); c != nil {
			n = c
			continue
		}
		var id ua.NodeID
		var err error
		if i < folders || leaf == nil {
			id, err = t.store.AddFolderNode(ctx, n.Data(), name)
		} else {
			id, err = leaf(n, name)
		}
		if err != nil {
			t.logger.WithField("path", path[:i+1].Join(t.separator)).WithError(err).Debug("Error creating node.")
			return nil, errors.Wrapf(err, "create path %s", path[:i+1].Join(t.separator))
		}
		n = n.CreateChild(name)
		n.SetData(id)
	}
	return n, nil
}

// SetNodeValue writes value to the variable at path, creating the path first
// when needed.
func (t *UANodeTree) SetNodeValue(ctx context.Context, path tree.NodePath, value ua.Variant) error {
	id, err := t.CreatePath(ctx, path, value, 0)
	if err != nil {
		return err
	}
	if err := t.store.SetValue(ctx, id, value); err != nil {
		return errors.Wrapf(err, "set %s", path.Join(t.separator))
	}
	return nil
}

// SetChildValue writes value to the variable child below path.
func (t *UANodeTree) SetChildValue(ctx context.Context, path tree.NodePath, child string, value ua.Variant) error {
	return t.SetNodeValue(ctx, path.Child(child), value)
}

// GetNodeValue reads the value of the variable at path. It fails with
// BadNoMatch when the path is not in the tree.
func (t *UANodeTree) GetNodeValue(ctx context.Context, path tree.NodePath) (ua.Variant, error) {
	id, ok := t.Lookup(path)
	if !ok || len(path) == 0 {
		return nil, errors.Wrapf(ua.BadNoMatch, "get %s", path.Join(t.separator))
	}
	v, err := t.store.GetValue(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", path.Join(t.separator))
	}
	return v, nil
}

// GetChildValue reads the value of the variable child below path.
func (t *UANodeTree) GetChildValue(ctx context.Context, path tree.NodePath, child string) (ua.Variant, error) {
	return t.GetNodeValue(ctx, path.Child(child))
}

// PrintNode writes the subtree of n to w, one node per line indented by
// level. Variables are printed with their current value. The caller must
// hold the lock of the tree, see View.
func (t *UANodeTree) PrintNode(ctx context.Context, n *Node, w io.Writer, level int) error {
	indent := strings.Repeat("  ", level)
	line := indent + n.Name()
	if n.ChildCount() == 0 {
		if v, err := t.store.GetValue(ctx, n.Data()); err == nil {
			line += fmt.Sprintf(" = %v", v)
		}
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	for _, c := range n.Children() {
		if err := t.PrintNode(ctx, c, w, level+1); err != nil {
			return err
		}
	}
	return nil
}

// Print writes the tree to w. The root is not printed.
func (t *UANodeTree) Print(ctx context.Context, w io.Writer) error {
	return t.View(func(root *Node) error {
		for _, c := range root.Children() {
			if err := t.PrintNode(ctx, c, w, 0); err != nil {
				return err
			}
		}
		return nil
	})
}
