// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Option is a functional option to be applied to a server during initialization.
type Option func(*Server) error

// WithApplicationURI sets the uri of namespace index 1. (default: urn:awcullen:uatree:server)
func WithApplicationURI(value string) Option {
	return func(srv *Server) error {
		if value == "" {
			return errors.New("application uri is empty")
		}
		srv.applicationURI = value
		return nil
	}
}

// WithNamespaceURI sets the uri of the namespace for application nodes, index 2.
func WithNamespaceURI(value string) Option {
	return func(srv *Server) error {
		if value == "" {
			return errors.New("namespace uri is empty")
		}
		srv.namespaceURI = value
		return nil
	}
}

// WithMaxWorkerThreads sets the number of workers of the callback loop. Values
// above 1 give up the ordering of history callbacks. (default: 1)
func WithMaxWorkerThreads(value int) Option {
	return func(srv *Server) error {
		if value < 1 {
			return errors.Errorf("invalid number of worker threads: %d", value)
		}
		srv.maxWorkerThreads = value
		return nil
	}
}

// WithMinSamplingInterval sets the lower bound of polling intervals. (default: 100ms)
func WithMinSamplingInterval(value time.Duration) Option {
	return func(srv *Server) error {
		srv.minSamplingInterval = value
		return nil
	}
}

// WithLogger sets the logger. (default: logrus.StandardLogger())
func WithLogger(value logrus.FieldLogger) Option {
	return func(srv *Server) error {
		if value == nil {
			return errors.New("logger is nil")
		}
		srv.logger = value
		return nil
	}
}

// WithHistoryDatabase installs the history database before the server starts.
func WithHistoryDatabase(value HistoryDatabase) Option {
	return func(srv *Server) error {
		srv.config.HistoryDatabase = value
		return nil
	}
}
