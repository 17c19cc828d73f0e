// Copyright 2021 Converter Systems LLC. All rights reserved.

package tree

import (
	"cmp"
	"sync"
	"sync/atomic"
)

// PropertyTree is a tree of named nodes that is safe for concurrent use.
// Reads take a shared lock and mutations take an exclusive lock. Any mutation
// sets the changed flag, which stays set until ClearChanged.
//
// IterateNodes, View and Update hold the lock while calling back. A callback
// must not call methods of the same tree, or it will deadlock.
type PropertyTree[K cmp.Ordered, T any] struct {
	mu           sync.RWMutex
	root         *Node[K, T]
	defaultValue T
	changed      atomic.Bool
}

// NewPropertyTree returns an empty tree. Get returns the zero value of T for missing paths.
func NewPropertyTree[K cmp.Ordered, T any]() *PropertyTree[K, T] {
	return &PropertyTree[K, T]{root: &Node[K, T]{}}
}

// SetDefault sets the value that Get returns for missing paths.
func (t *PropertyTree[K, T]) SetDefault(value T) {
	t.mu.Lock()
	t.defaultValue = value
	t.mu.Unlock()
}

// Default returns the value that Get returns for missing paths.
func (t *PropertyTree[K, T]) Default() T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.defaultValue
}

// Root returns the root node. Access to the root is not synchronized;
// use View or Update when other goroutines may use the tree.
func (t *PropertyTree[K, T]) Root() *Node[K, T] {
	return t.root
}

// Get returns the data at path, or the default value if the path is missing.
func (t *PropertyTree[K, T]) Get(path []K) T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n := t.root.Find(path); n != nil {
		return n.data
	}
	return t.defaultValue
}

// Lookup returns the data at path and true, or the default value and false.
func (t *PropertyTree[K, T]) Lookup(path []K) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n := t.root.Find(path); n != nil {
		return n.data, true
	}
	return t.defaultValue, false
}

// Set stores data at path, creating missing nodes.
func (t *PropertyTree[K, T]) Set(path []K, data T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root.Add(path).data = data
	t.changed.Store(true)
}

// Exists returns true if path is in the tree.
func (t *PropertyTree[K, T]) Exists(path []K) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root.Find(path) != nil
}

// Remove deletes the node at path and its subtree.
func (t *PropertyTree[K, T]) Remove(path []K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.changed.Store(true)
	return t.root.Remove(path)
}

// ListChildren returns the names of the children at path, in order.
func (t *PropertyTree[K, T]) ListChildren(path []K) []K {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := t.root.Find(path)
	if n == nil {
		return nil
	}
	return n.childNames()
}

// IterateNodes visits every node in pre-order under the exclusive lock.
// If f returns false the subtree of that node is skipped.
func (t *PropertyTree[K, T]) IterateNodes(f func(*Node[K, T]) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root.IterateNodes(f)
}

// View calls f with the root under the shared lock.
func (t *PropertyTree[K, T]) View(f func(root *Node[K, T]) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return f(t.root)
}

// Update calls f with the root under the exclusive lock and marks the tree changed.
func (t *PropertyTree[K, T]) Update(f func(root *Node[K, T]) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.changed.Store(true)
	return f(t.root)
}

// Clear removes every node and the data of the root.
func (t *PropertyTree[K, T]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root.Clear()
	var zero T
	t.root.data = zero
	t.changed.Store(true)
}

// Changed returns true if the tree was mutated since the last ClearChanged.
func (t *PropertyTree[K, T]) Changed() bool {
	return t.changed.Load()
}

// ClearChanged resets the changed flag.
func (t *PropertyTree[K, T]) ClearChanged() {
	t.changed.Store(false)
}

// SetChanged sets the changed flag to f.
func (t *PropertyTree[K, T]) SetChanged(f bool) {
	t.changed.Store(f)
}

// Write writes the whole tree to the stream.
func (t *PropertyTree[K, T]) Write(enc Encoder) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root.Write(enc)
}

// Read replaces the tree with the one read from the stream.
func (t *PropertyTree[K, T]) Read(dec Decoder) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.changed.Store(true)
	return t.root.Read(dec)
}

// MarshalJSON returns the tree as nested {"name","data","children"} objects.
func (t *PropertyTree[K, T]) MarshalJSON() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root.MarshalJSON()
}

// UnmarshalJSON replaces the tree with the one in data.
func (t *PropertyTree[K, T]) UnmarshalJSON(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil {
		t.root = &Node[K, T]{}
	}
	t.changed.Store(true)
	return t.root.UnmarshalJSON(data)
}
