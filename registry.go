// Copyright 2021 Converter Systems LLC. All rights reserved.

package uatree

import (
	"sync"

	"github.com/awcullen/uatree/server"
	"github.com/pkg/errors"
)

// Registry maps each live raw server to the Server that owns it. Callbacks
// that receive only the raw server use it to find their owner.
type Registry struct {
	sync.RWMutex
	servers map[*server.Server]*Server
}

// DefaultRegistry is used by servers created without WithRegistry.
var DefaultRegistry = NewRegistry()

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{servers: make(map[*server.Server]*Server)}
}

// Register records owner as the owner of raw. A raw server is registered at most once.
func (r *Registry) Register(raw *server.Server, owner *Server) error {
	if raw == nil || owner == nil {
		return errors.New("register: server is nil")
	}
	r.Lock()
	defer r.Unlock()
	if _, ok := r.servers[raw]; ok {
		return errors.Errorf("register: server %p is already registered", raw)
	}
	r.servers[raw] = owner
	return nil
}

// Unregister removes raw. It returns false if raw was not registered.
func (r *Registry) Unregister(raw *server.Server) bool {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.servers[raw]; !ok {
		return false
	}
	delete(r.servers, raw)
	return true
}

// Find returns the owner of raw, or nil.
func (r *Registry) Find(raw *server.Server) *Server {
	if r == nil || raw == nil {
		return nil
	}
	r.RLock()
	defer r.RUnlock()
	return r.servers[raw]
}

// Len returns the number of registered servers.
func (r *Registry) Len() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.servers)
}
