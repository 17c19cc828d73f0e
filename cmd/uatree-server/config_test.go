// Copyright 2021 Converter Systems LLC. All rights reserved.

package main

import (
	"testing"
	"time"

	"github.com/awcullen/uatree/ua"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gotest.tools/assert"
)

const sampleConfig = `
namespaceURI: urn:test
logLevel: debug
logFormat: json
http: ":9090"
historian:
  kind: sqlite
  dsn: ":memory:"
  maxValuesPerNode: 100
  pollInterval: 250ms
values:
  - path: Plant.Line1.Speed
    value: 1.5
    historize: poll
  - path: Plant.Line1.Count
    value: 7
  - path: Plant.Name
    value: north
    historize: update
`

func TestParseConfig(t *testing.T) {
	cfg := defaultConfig()
	assert.NilError(t, parseConfig([]byte(sampleConfig), cfg))
	assert.Equal(t, cfg.NamespaceURI, "urn:test")
	assert.Equal(t, cfg.HTTP, ":9090")
	assert.Equal(t, cfg.Separator, ".")
	assert.Equal(t, cfg.Historian.Kind, "sqlite")
	assert.Equal(t, cfg.Historian.PollInterval, 250*time.Millisecond)
	assert.Equal(t, cfg.MQTT.Prefix, "uatree/history")
	assert.Equal(t, len(cfg.Values), 3)
	assert.Equal(t, cfg.Values[0].Historize, "poll")

	logger, err := newLogger(cfg)
	assert.NilError(t, err)
	assert.Equal(t, logger.GetLevel(), logrus.DebugLevel)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"kind", "historian:\n  kind: redis\n", "unknown historian kind"},
		{"mode", "values:\n  - path: A\n    value: 1\n    historize: always\n", "unknown historize mode"},
		{"field", "colour: blue\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, parseConfig([]byte(tt.yaml), defaultConfig()), tt.want)
		})
	}
	_, err := newLogger(&Config{LogLevel: "loud"})
	assert.ErrorContains(t, err, "log level")
	_, err = loadConfig("/nonexistent/uatree.yaml")
	assert.ErrorContains(t, err, "read config")
}

func TestVariantOf(t *testing.T) {
	tests := []struct {
		in   interface{}
		want ua.Variant
	}{
		{true, true},
		{"x", "x"},
		{1.5, float64(1.5)},
		{7, int64(7)},
		{float32(2), float64(2)},
	}
	for _, tt := range tests {
		got, err := variantOf(tt.in)
		assert.NilError(t, err)
		assert.Equal(t, got, tt.want)
	}
	_, err := variantOf([]interface{}{1})
	assert.Equal(t, errors.Cause(err), ua.BadTypeMismatch)
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		current ua.Variant
		in      interface{}
		want    ua.Variant
	}{
		{int32(1), float64(5), int32(5)},
		{uint16(1), float64(5), uint16(5)},
		{int64(1), float64(-3), int64(-3)},
		{float32(1), float64(0.5), float32(0.5)},
		{float64(1), float64(0.5), float64(0.5)},
		{nil, float64(2), float64(2)},
		{"a", "b", "b"},
	}
	for _, tt := range tests {
		got, err := coerce(tt.current, tt.in)
		assert.NilError(t, err)
		assert.Equal(t, got, tt.want)
	}
}
