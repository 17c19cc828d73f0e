// Copyright 2021 Converter Systems LLC. All rights reserved.

package tree

import (
	"cmp"
	"encoding/json"
	"slices"

	"github.com/pkg/errors"
)

// Encoder writes one value to a stream, e.g. a json.Encoder, a gob.Encoder
// or a ua.BinaryEncoder.
type Encoder interface {
	Encode(v any) error
}

// Decoder reads one value from a stream, the dual of Encoder.
type Decoder interface {
	Decode(v any) error
}

// Node is a named vertex of a tree. A Node owns its children, keyed by name,
// and refers back to its parent. Every node except the root appears in its
// parent's children under its own name.
type Node[K cmp.Ordered, T any] struct {
	name     K
	data     T
	parent   *Node[K, T]
	children map[K]*Node[K, T]
}

// NewNode returns a detached node.
func NewNode[K cmp.Ordered, T any](name K, data T) *Node[K, T] {
	return &Node[K, T]{name: name, data: data}
}

// Name returns the key of the node.
func (n *Node[K, T]) Name() K {
	return n.name
}

// SetName renames the node. If the node has a parent, it is re-keyed there,
// replacing any sibling of the same name.
func (n *Node[K, T]) SetName(name K) {
	if n.parent == nil {
		n.name = name
		return
	}
	p := n.parent
	delete(p.children, n.name)
	if old, ok := p.children[name]; ok && old != n {
		old.detach()
	}
	n.name = name
	p.children[name] = n
}

// Data returns the payload of the node.
func (n *Node[K, T]) Data() T {
	return n.data
}

// SetData sets the payload of the node.
func (n *Node[K, T]) SetData(data T) {
	n.data = data
}

// Parent returns the parent, or nil for a root.
func (n *Node[K, T]) Parent() *Node[K, T] {
	return n.parent
}

// Child returns the child of the given name, or nil.
func (n *Node[K, T]) Child(name K) *Node[K, T] {
	return n.children[name]
}

// HasChild returns true if a child of the given name exists.
func (n *Node[K, T]) HasChild(name K) bool {
	_, ok := n.children[name]
	return ok
}

// ChildCount returns the number of children.
func (n *Node[K, T]) ChildCount() int {
	return len(n.children)
}

// Children returns the children, ordered by name.
func (n *Node[K, T]) Children() []*Node[K, T] {
	names := n.childNames()
	res := make([]*Node[K, T], len(names))
	for i, name := range names {
		res[i] = n.children[name]
	}
	return res
}

func (n *Node[K, T]) childNames() []K {
	names := make([]K, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Path returns the names from the root down to this node. The root's own
// name is not part of the path, so Root.Find(n.Path()) == n.
func (n *Node[K, T]) Path() []K {
	var p []K
	for x := n; x.parent != nil; x = x.parent {
		p = append(p, x.name)
	}
	slices.Reverse(p)
	return p
}

// CreateChild adds a new child. A child of the same name is removed first.
func (n *Node[K, T]) CreateChild(name K) *Node[K, T] {
	c := &Node[K, T]{name: name}
	n.attach(c)
	return c
}

// RemoveChild deletes the child of the given name and its subtree.
// Returns false if there was no such child.
func (n *Node[K, T]) RemoveChild(name K) bool {
	c, ok := n.children[name]
	if !ok {
		return false
	}
	c.detach()
	return true
}

// Clear deletes every child.
func (n *Node[K, T]) Clear() {
	for _, c := range n.children {
		c.parent = nil
		c.Clear()
	}
	n.children = nil
}

func (n *Node[K, T]) attach(c *Node[K, T]) {
	if n.children == nil {
		n.children = make(map[K]*Node[K, T])
	}
	if old, ok := n.children[c.name]; ok {
		old.detach()
	}
	c.parent = n
	n.children[c.name] = c
}

func (n *Node[K, T]) detach() {
	if n.parent != nil {
		delete(n.parent.children, n.name)
		n.parent = nil
	}
	n.Clear()
}

// Find walks the path through the children and returns the node found, or nil
// as soon as a segment is missing. The empty path finds n itself.
func (n *Node[K, T]) Find(path []K) *Node[K, T] {
	return n.FindFrom(path, 0)
}

// FindFrom walks path[depth:] through the children.
func (n *Node[K, T]) FindFrom(path []K, depth int) *Node[K, T] {
	x := n
	for i := depth; i < len(path); i++ {
		c, ok := x.children[path[i]]
		if !ok {
			return nil
		}
		x = c
	}
	return x
}

// Add returns the node at path, creating only the missing suffix of the path.
// Existing nodes are never replaced.
func (n *Node[K, T]) Add(path []K) *Node[K, T] {
	x := n
	for _, name := range path {
		c, ok := x.children[name]
		if !ok {
			c = x.CreateChild(name)
		}
		x = c
	}
	return x
}

// Remove deletes the node at path and its subtree. Returns false if the
// path was not found. The empty path removes nothing.
func (n *Node[K, T]) Remove(path []K) bool {
	if len(path) == 0 {
		return false
	}
	x := n.Find(path)
	if x == nil {
		return false
	}
	x.detach()
	return true
}

// IterateNodes visits the node and then its children in name order,
// depth first. If f returns false, the children of that node are skipped;
// the walk continues with its siblings.
func (n *Node[K, T]) IterateNodes(f func(*Node[K, T]) bool) {
	if !f(n) {
		return
	}
	for _, c := range n.Children() {
		c.IterateNodes(f)
	}
}

// CopyTo clears other and then copies the name, data and subtree of n into
// it. The subtree is copied as it was before other was cleared, so other may
// be an ancestor or a descendant of n. CopyTo fails without touching other
// when a sibling of other already has the name of n.
func (n *Node[K, T]) CopyTo(other *Node[K, T]) error {
	if other == n {
		return nil
	}
	if p := other.parent; p != nil {
		if s, ok := p.children[n.name]; ok && s != other {
			return errors.Errorf("copy %v: %v already has a child %v", n.name, p.name, n.name)
		}
	}
	src := n.clone()
	other.Clear()
	other.SetName(src.name)
	other.data = src.data
	for _, c := range src.children {
		other.attach(c)
	}
	return nil
}

// clone returns a detached deep copy of n.
func (n *Node[K, T]) clone() *Node[K, T] {
	c := &Node[K, T]{name: n.name, data: n.data}
	for _, child := range n.children {
		c.attach(child.clone())
	}
	return c
}

// Write writes the name, data and child count of the node, then each child
// in name order.
func (n *Node[K, T]) Write(enc Encoder) error {
	if err := enc.Encode(n.name); err != nil {
		return errors.Wrap(err, "write name")
	}
	if err := enc.Encode(n.data); err != nil {
		return errors.Wrapf(err, "write data of %v", n.name)
	}
	if err := enc.Encode(uint32(len(n.children))); err != nil {
		return errors.Wrapf(err, "write child count of %v", n.name)
	}
	for _, c := range n.Children() {
		if err := c.Write(enc); err != nil {
			return err
		}
	}
	return nil
}

// Read replaces the node with the tree read from the stream. Read is the
// exact dual of Write.
func (n *Node[K, T]) Read(dec Decoder) error {
	n.Clear()
	var name K
	if err := dec.Decode(&name); err != nil {
		return errors.Wrap(err, "read name")
	}
	n.SetName(name)
	var data T
	if err := dec.Decode(&data); err != nil {
		return errors.Wrapf(err, "read data of %v", name)
	}
	n.data = data
	var count uint32
	if err := dec.Decode(&count); err != nil {
		return errors.Wrapf(err, "read child count of %v", name)
	}
	for i := uint32(0); i < count; i++ {
		c := &Node[K, T]{}
		if err := c.Read(dec); err != nil {
			return err
		}
		n.attach(c)
	}
	return nil
}

type jsonNode[K cmp.Ordered, T any] struct {
	Name     K                 `json:"name"`
	Data     T                 `json:"data"`
	Children []*jsonNode[K, T] `json:"children,omitempty"`
}

func (n *Node[K, T]) toJSON() *jsonNode[K, T] {
	j := &jsonNode[K, T]{Name: n.name, Data: n.data}
	for _, c := range n.Children() {
		j.Children = append(j.Children, c.toJSON())
	}
	return j
}

func (n *Node[K, T]) fromJSON(j *jsonNode[K, T]) {
	n.data = j.Data
	for _, cj := range j.Children {
		if cj != nil {
			n.CreateChild(cj.Name).fromJSON(cj)
		}
	}
}

// MarshalJSON returns the subtree as nested {"name","data","children"} objects.
func (n *Node[K, T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

// UnmarshalJSON replaces the node with the subtree in data.
func (n *Node[K, T]) UnmarshalJSON(data []byte) error {
	var j jsonNode[K, T]
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	n.Clear()
	n.SetName(j.Name)
	n.fromJSON(&j)
	return nil
}
