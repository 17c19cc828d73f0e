// Copyright 2021 Converter Systems LLC. All rights reserved.

package nodetree

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultNamespace is the namespace index of the nodes created by a UANodeTree.
const DefaultNamespace uint16 = 2

// Option is a functional option to be applied to a UANodeTree during initialization.
type Option func(*UANodeTree) error

// WithNamespace sets the namespace index of the browse names and node ids of
// created nodes. (default: 2)
func WithNamespace(value uint16) Option {
	return func(t *UANodeTree) error {
		t.namespace = value
		return nil
	}
}

// WithLogger sets the logger. (default: logrus.StandardLogger())
func WithLogger(value logrus.FieldLogger) Option {
	return func(t *UANodeTree) error {
		if value == nil {
			return errors.New("logger is nil")
		}
		t.logger = value
		return nil
	}
}

// WithSeparator sets the separator of string paths. (default: ".")
func WithSeparator(value string) Option {
	return func(t *UANodeTree) error {
		if value == "" {
			return errors.New("separator is empty")
		}
		t.separator = value
		return nil
	}
}
