// Copyright 2020 Converter Systems LLC. All rights reserved.

package uatree

import (
	"time"

	"github.com/gopcua/opcua"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

const (
	defaultConnectRetries  uint64 = 3
	defaultConnectInterval        = 500 * time.Millisecond
)

// ClientOption is a functional option to be applied to a client during initialization.
type ClientOption func(*clientOptions) error

// clientOptions contains the client options.
type clientOptions struct {
	// options passed to the gopcua client.
	opcuaOptions []opcua.Option
	// returns the backoff used by Connect.
	backoff func() retry.Backoff
	logger  logrus.FieldLogger
}

// newClientOptions initializes a clientOptions structure with default values.
func newClientOptions() *clientOptions {
	return &clientOptions{
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(defaultConnectRetries, retry.NewExponential(defaultConnectInterval))
		},
		logger: logrus.StandardLogger(),
	}
}

// WithClientOptions passes options to the gopcua client, e.g. opcua.SecurityMode.
func WithClientOptions(opts ...opcua.Option) ClientOption {
	return func(o *clientOptions) error {
		o.opcuaOptions = append(o.opcuaOptions, opts...)
		return nil
	}
}

// WithConnectRetry sets the number of retries of Connect and the base interval
// of the exponential backoff between them. (default: 3, 500ms)
func WithConnectRetry(maxRetries uint64, interval time.Duration) ClientOption {
	return func(opts *clientOptions) error {
		if interval <= 0 {
			return errors.New("retry interval must be positive")
		}
		opts.backoff = func() retry.Backoff {
			return retry.WithMaxRetries(maxRetries, retry.NewExponential(interval))
		}
		return nil
	}
}

// WithClientLogger sets the logger of the client. (default: logrus.StandardLogger())
func WithClientLogger(logger logrus.FieldLogger) ClientOption {
	return func(opts *clientOptions) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		opts.logger = logger
		return nil
	}
}
