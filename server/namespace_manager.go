// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"slices"
	"sync"

	"github.com/awcullen/uatree/ua"
	"github.com/gammazero/deque"
)

const (
	// the first numeric identifier handed out by NextID for a namespace.
	firstAutoAssignedID uint32 = 1000
)

var (
	hasChildReferenceTypes = []ua.NodeID{ua.ReferenceTypeIDOrganizes, ua.ReferenceTypeIDHasComponent, ua.ReferenceTypeIDHasProperty, ua.ReferenceTypeIDHasSubtype}
)

// NamespaceManager manages the namespaces and nodes for a server.
type NamespaceManager struct {
	sync.RWMutex
	server     *Server
	namespaces []string
	nodes      map[ua.NodeID]Node
	nextIDs    map[uint16]uint32
}

// NewNamespaceManager instantiates a new NamespaceManager.
func NewNamespaceManager(server *Server) *NamespaceManager {
	return &NamespaceManager{
		server:     server,
		namespaces: []string{ua.NamespaceURI, server.applicationURI},
		nodes:      make(map[ua.NodeID]Node, 256),
		nextIDs:    make(map[uint16]uint32, 4),
	}
}

// Add adds a namespace to the end of the table and returns the index.
// If the namespace already exists then returns the index.
func (m *NamespaceManager) Add(nsu string) uint16 {
	m.Lock()
	defer m.Unlock()
	for i, ns := range m.namespaces {
		if ns == nsu {
			return uint16(i)
		}
	}
	m.namespaces = append(m.namespaces, nsu)
	return uint16(len(m.namespaces) - 1)
}

// IndexOf returns the index of the namespace, if found.
func (m *NamespaceManager) IndexOf(nsu string) (uint16, bool) {
	m.RLock()
	defer m.RUnlock()
	for i, ns := range m.namespaces {
		if ns == nsu {
			return uint16(i), true
		}
	}
	return 0, false
}

// Len returns the number of namespace.
func (m *NamespaceManager) Len() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.namespaces)
}

// NamespaceUris returns the namespace table of the server.
func (m *NamespaceManager) NamespaceUris() []string {
	m.RLock()
	defer m.RUnlock()
	return slices.Clone(m.namespaces)
}

// NodeCount returns the number of nodes in the address space.
func (m *NamespaceManager) NodeCount() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.nodes)
}

// FindNode returns the node with the given NodeID from the namespace.
func (m *NamespaceManager) FindNode(id ua.NodeID) (node Node, ok bool) {
	m.RLock()
	defer m.RUnlock()
	node, ok = m.nodes[id]
	return
}

// FindObject returns the node with the given NodeID from the namespace.
func (m *NamespaceManager) FindObject(id ua.NodeID) (node *ObjectNode, ok bool) {
	m.RLock()
	defer m.RUnlock()
	if node1, ok1 := m.nodes[id]; ok1 {
		node, ok = node1.(*ObjectNode)
	}
	return
}

// FindVariable returns the node with the given NodeID from the namespace.
func (m *NamespaceManager) FindVariable(id ua.NodeID) (node *VariableNode, ok bool) {
	m.RLock()
	defer m.RUnlock()
	if node1, ok1 := m.nodes[id]; ok1 {
		node, ok = node1.(*VariableNode)
	}
	return
}

// FindChild returns the hierarchical child of startNode with the given browseName.
func (m *NamespaceManager) FindChild(startNode Node, browseName ua.QualifiedName) (node Node, ok bool) {
	m.RLock()
	defer m.RUnlock()
	return m.findChild(startNode, browseName)
}

func (m *NamespaceManager) findChild(startNode Node, browseName ua.QualifiedName) (Node, bool) {
	for _, r := range startNode.References() {
		if r.IsInverse || !slices.Contains(hasChildReferenceTypes, r.ReferenceTypeID) {
			continue
		}
		if node, ok := m.nodes[r.TargetID]; ok && node.BrowseName() == browseName {
			return node, true
		}
	}
	return nil, false
}

// NextID returns the next free numeric NodeID in the namespace.
func (m *NamespaceManager) NextID(ns uint16) ua.NodeID {
	m.Lock()
	defer m.Unlock()
	return m.nextID(ns)
}

func (m *NamespaceManager) nextID(ns uint16) ua.NodeID {
	next, ok := m.nextIDs[ns]
	if !ok {
		next = firstAutoAssignedID
	}
	for {
		id := ua.NewNodeIDNumeric(ns, next)
		next++
		if _, exists := m.nodes[id]; !exists {
			m.nextIDs[ns] = next
			return id
		}
	}
}

// InsertNode builds a node and adds it as a hierarchical child of parent,
// referenced from the parent with the given reference type. A requestedID
// with numeric identifier 0 is replaced by the next free identifier of its namespace.
func (m *NamespaceManager) InsertNode(parent, requestedID ua.NodeID, browseName ua.QualifiedName, referenceTypeID ua.NodeID, build func(id ua.NodeID) Node) (Node, error) {
	m.Lock()
	defer m.Unlock()
	p, ok := m.nodes[parent]
	if !ok {
		return nil, ua.BadParentNodeIDInvalid
	}
	if int(requestedID.NamespaceIndex()) >= len(m.namespaces) {
		return nil, ua.BadNodeIDRejected
	}
	if _, dup := m.findChild(p, browseName); dup {
		return nil, ua.BadBrowseNameDuplicated
	}
	id := requestedID
	if id.IsAutoAssign() {
		id = m.nextID(id.NamespaceIndex())
	} else if _, exists := m.nodes[id]; exists {
		return nil, ua.BadNodeIDExists
	}
	node := build(id)
	node.SetReferences(append(node.References(), ua.NewReference(referenceTypeID, true, parent)))
	return node, m.addNodes([]Node{node})
}

func (m *NamespaceManager) addNodes(nodes []Node) error {
	for _, node := range nodes {
		m.nodes[node.NodeID()] = node
	}
	// add inverse refs of added nodes
	for _, node := range nodes {
		id := node.NodeID()
		for _, r := range node.References() {
			if r.ReferenceTypeID == ua.ReferenceTypeIDHasTypeDefinition {
				continue
			}
			t, ok := m.nodes[r.TargetID]
			if !ok {
				m.server.logger.WithField("node", r.TargetID).Debug("Reference target not found.")
				continue
			}
			flag := false
			for _, tr := range t.References() {
				if tr.ReferenceTypeID == r.ReferenceTypeID && tr.IsInverse != r.IsInverse && tr.TargetID == id {
					flag = true
					break
				}
			}
			if !flag {
				t.SetReferences(append(t.References(), ua.NewReference(r.ReferenceTypeID, !r.IsInverse, id)))
			}
		}
	}
	return nil
}

// AddNodes adds the nodes to the namespace.
func (m *NamespaceManager) AddNodes(nodes []Node) error {
	m.Lock()
	defer m.Unlock()
	return m.addNodes(nodes)
}

// AddNode adds the node to the namespace.
func (m *NamespaceManager) AddNode(node Node) error {
	m.Lock()
	defer m.Unlock()
	return m.addNodes([]Node{node})
}

// DeleteNodes removes the nodes from the namespace, and optionally their hierarchical children.
func (m *NamespaceManager) DeleteNodes(nodes []Node, deleteChildren bool) error {
	m.Lock()
	defer m.Unlock()
	if deleteChildren {
		children := []Node{}
		for _, node := range nodes {
			children = append(children, m.getChildren(node, hasChildReferenceTypes)...)
		}
		for _, node := range children {
			m.deleteNodeandInverseReferences(node)
		}
	}
	for _, node := range nodes {
		m.deleteNodeandInverseReferences(node)
	}
	return nil
}

// DeleteNode removes the node from the namespace, and optionally its hierarchical children.
func (m *NamespaceManager) DeleteNode(node Node, deleteChildren bool) error {
	return m.DeleteNodes([]Node{node}, deleteChildren)
}

// DeleteNodeByID removes the node with the given id. Nodes of the standard
// namespace are protected.
func (m *NamespaceManager) DeleteNodeByID(id ua.NodeID) error {
	_, err := m.deleteNodeByID(id, false)
	return err
}

// DeleteNodeByIDRecursive removes the node with the given id and its
// hierarchical children. It returns the number of nodes removed.
func (m *NamespaceManager) DeleteNodeByIDRecursive(id ua.NodeID) (int, error) {
	return m.deleteNodeByID(id, true)
}

func (m *NamespaceManager) deleteNodeByID(id ua.NodeID, recursive bool) (int, error) {
	if id.NamespaceIndex() == 0 {
		return 0, ua.BadNodeIDInvalid
	}
	m.Lock()
	defer m.Unlock()
	node, ok := m.nodes[id]
	if !ok {
		return 0, ua.BadNodeIDUnknown
	}
	nodes := []Node{node}
	if recursive {
		for _, child := range m.getChildren(node, hasChildReferenceTypes) {
			if child.NodeID().NamespaceIndex() != 0 {
				nodes = append(nodes, child)
			}
		}
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		m.deleteNodeandInverseReferences(nodes[i])
	}
	return len(nodes), nil
}

func (m *NamespaceManager) deleteNodeandInverseReferences(node Node) {
	id := node.NodeID()
	// delete inverse references from target nodes.
	for _, r := range node.References() {
		if r.ReferenceTypeID == ua.ReferenceTypeIDHasTypeDefinition {
			continue
		}
		t, ok := m.nodes[r.TargetID]
		if !ok {
			continue
		}
		refs := make([]ua.Reference, 0, len(t.References()))
		for _, tr := range t.References() {
			if tr.ReferenceTypeID == r.ReferenceTypeID && tr.IsInverse != r.IsInverse && tr.TargetID == id {
				continue
			}
			refs = append(refs, tr)
		}
		t.SetReferences(refs)
	}
	// delete node from namespace.
	delete(m.nodes, id)
}

// GetChildren returns every node reachable from node through forward
// references of the given types, breadth first.
func (m *NamespaceManager) GetChildren(node Node, withRefTypes []ua.NodeID) []Node {
	m.RLock()
	defer m.RUnlock()
	return m.getChildren(node, withRefTypes)
}

func (m *NamespaceManager) getChildren(node Node, withRefTypes []ua.NodeID) []Node {
	children := []Node{}
	visited := map[ua.NodeID]struct{}{node.NodeID(): {}}
	queue := deque.New[Node]()
	queue.PushBack(node)
	for queue.Len() > 0 {
		item := queue.PopFront()
		for _, r := range item.References() {
			if r.IsInverse || (withRefTypes != nil && !slices.Contains(withRefTypes, r.ReferenceTypeID)) {
				continue
			}
			if _, seen := visited[r.TargetID]; seen {
				continue
			}
			if target, ok := m.nodes[r.TargetID]; ok {
				visited[r.TargetID] = struct{}{}
				queue.PushBack(target)
				children = append(children, target)
			}
		}
	}
	return children
}
