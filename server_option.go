// Copyright 2021 Converter Systems LLC. All rights reserved.

package uatree

import (
	"github.com/awcullen/uatree/server"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ServerOption is a functional option to be applied to a Server during initialization.
type ServerOption func(*Server) error

// WithRegistry sets the registry the server is registered in. (default: DefaultRegistry)
func WithRegistry(registry *Registry) ServerOption {
	return func(s *Server) error {
		if registry == nil {
			return errors.New("registry is nil")
		}
		s.registry = registry
		return nil
	}
}

// WithServerLogger sets the logger of the server. (default: logrus.StandardLogger())
func WithServerLogger(logger logrus.FieldLogger) ServerOption {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		s.logger = logger
		return nil
	}
}

// WithServerOptions passes options to the raw server.
func WithServerOptions(opts ...server.Option) ServerOption {
	return func(s *Server) error {
		s.serverOptions = append(s.serverOptions, opts...)
		return nil
	}
}
