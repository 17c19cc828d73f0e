// Copyright 2021 Converter Systems LLC. All rights reserved.

package server_test

import (
	"io"
	"testing"
	"time"

	"github.com/awcullen/uatree/server"
	"github.com/sirupsen/logrus"
	"gotest.tools/assert"
)

// NewTestServer returns a started server that logs nowhere.
func NewTestServer(t *testing.T, opts ...server.Option) *server.Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	opts = append([]server.Option{
		server.WithApplicationURI("urn:uatree:testserver"),
		server.WithMinSamplingInterval(10 * time.Millisecond),
		server.WithLogger(logger),
	}, opts...)
	srv, err := server.New(opts...)
	assert.NilError(t, err)
	assert.NilError(t, srv.Start())
	t.Cleanup(func() {
		if srv.State() == server.ServerStateRunning {
			srv.Shutdown()
		}
	})
	return srv
}
