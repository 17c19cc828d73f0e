// Copyright 2021 Converter Systems LLC. All rights reserved.

package uatree

import (
	"context"

	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Server owns a raw server and keeps it registered in a Registry for as long
// as it runs.
type Server struct {
	raw           *server.Server
	registry      *Registry
	logger        logrus.FieldLogger
	serverOptions []server.Option
}

// NewServer creates a raw server and registers it. The server is registered
// until it is shut down or aborted.
func NewServer(opts ...ServerOption) (*Server, error) {
	s := &Server{
		registry: DefaultRegistry,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	raw, err := server.New(append([]server.Option{server.WithLogger(s.logger)}, s.serverOptions...)...)
	if err != nil {
		return nil, errors.Wrap(err, "create server")
	}
	if err := s.registry.Register(raw, s); err != nil {
		raw.Abort()
		return nil, err
	}
	s.raw = raw
	// an aborted server drops its queued callbacks, a server shut down runs
	// them first and stays registered until they are done.
	raw.SetStateListener(func(state server.ServerState) {
		if state == server.ServerStateFailed {
			s.unregister()
		}
	})
	go func() {
		<-raw.Closed()
		s.unregister()
	}()
	return s, nil
}

func (s *Server) unregister() {
	if s.registry.Unregister(s.raw) {
		s.logger.WithField("handle", s.raw.ApplicationURI()).Debug("Server unregistered.")
	}
}

// Raw returns the wrapped server.
func (s *Server) Raw() *server.Server {
	return s.raw
}

// Registry returns the registry the server is registered in.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Logger returns the logger of the server.
func (s *Server) Logger() logrus.FieldLogger {
	return s.logger
}

// Config returns the configuration of the raw server.
func (s *Server) Config() *server.Config {
	return s.raw.Config()
}

// Start starts the server.
func (s *Server) Start() error {
	return s.raw.Start()
}

// Shutdown stops the server, runs the queued callbacks and then removes the
// server from the registry. Callbacks arriving afterwards no longer find
// their owner.
func (s *Server) Shutdown() error {
	err := s.raw.Shutdown()
	s.unregister()
	return err
}

// Run starts the server and blocks until ctx is done, then shuts it down.
func (s *Server) Run(ctx context.Context) error {
	err := s.raw.Run(ctx)
	select {
	case <-s.raw.Closed():
		s.unregister()
	default:
	}
	return err
}

// NamespaceIndex returns the index of the namespace uri.
func (s *Server) NamespaceIndex(uri string) (uint16, bool) {
	return s.raw.NamespaceIndex(uri)
}

// DefaultNamespaceIndex returns the index of the namespace for application nodes.
func (s *Server) DefaultNamespaceIndex() uint16 {
	return s.raw.DefaultNamespaceIndex()
}

// AddFolder adds a folder below parent. A requested id with a numeric
// identifier of 0 is assigned by the server.
func (s *Server) AddFolder(parent ua.NodeID, browseName ua.QualifiedName, requestedID ua.NodeID) (ua.NodeID, error) {
	id, err := s.raw.AddFolder(parent, browseName, requestedID)
	if err != nil {
		return ua.NilNodeID, errors.Wrapf(err, "add folder %q", browseName.Name)
	}
	return id, nil
}

// AddVariable adds a variable holding value below parent.
func (s *Server) AddVariable(parent ua.NodeID, browseName ua.QualifiedName, value ua.Variant, requestedID ua.NodeID) (ua.NodeID, error) {
	id, err := s.raw.AddVariable(parent, browseName, value, requestedID, false)
	if err != nil {
		return ua.NilNodeID, errors.Wrapf(err, "add variable %q", browseName.Name)
	}
	return id, nil
}

// AddHistoricalVariable adds a variable that can be read with history services.
// Register it with a historian to have its values stored.
func (s *Server) AddHistoricalVariable(parent ua.NodeID, browseName ua.QualifiedName, value ua.Variant, requestedID ua.NodeID) (ua.NodeID, error) {
	id, err := s.raw.AddVariable(parent, browseName, value, requestedID, true)
	if err != nil {
		return ua.NilNodeID, errors.Wrapf(err, "add historical variable %q", browseName.Name)
	}
	return id, nil
}

// ReadValue reads the value of a variable.
func (s *Server) ReadValue(ctx context.Context, id ua.NodeID) (ua.DataValue, error) {
	dv, err := s.raw.ReadValue(ctx, id)
	if err != nil {
		return ua.DataValue{}, errors.Wrapf(err, "read %s", id)
	}
	return dv, nil
}

// WriteValue writes the value of a variable.
func (s *Server) WriteValue(ctx context.Context, id ua.NodeID, value ua.Variant) error {
	return errors.Wrapf(s.raw.WriteValue(ctx, id, value), "write %s", id)
}

// DeleteNode deletes a node, and its children if deleteChildren is set.
func (s *Server) DeleteNode(id ua.NodeID, deleteChildren bool) error {
	return errors.Wrapf(s.raw.DeleteNode(id, deleteChildren), "delete %s", id)
}

// Browse returns the hierarchical references of a node.
func (s *Server) Browse(id ua.NodeID) ([]server.ReferenceDescription, error) {
	refs, err := s.raw.Browse(id)
	if err != nil {
		return nil, errors.Wrapf(err, "browse %s", id)
	}
	return refs, nil
}
