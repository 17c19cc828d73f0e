// Copyright 2021 Converter Systems LLC. All rights reserved.

package main

import (
	"math"
	"os"
	"time"

	"github.com/awcullen/uatree/ua"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Config is read from a YAML file.
type Config struct {
	NamespaceURI string          `yaml:"namespaceURI"`
	LogLevel     string          `yaml:"logLevel"`
	LogFormat    string          `yaml:"logFormat"`
	HTTP         string          `yaml:"http"`
	Separator    string          `yaml:"separator"`
	Historian    HistorianConfig `yaml:"historian"`
	MQTT         MQTTConfig      `yaml:"mqtt"`
	Values       []ValueConfig   `yaml:"values"`
}

// HistorianConfig selects where historized values are stored.
type HistorianConfig struct {
	// Kind is one of memory, sqlite, postgres or none.
	Kind             string        `yaml:"kind"`
	DSN              string        `yaml:"dsn"`
	MaxValuesPerNode int           `yaml:"maxValuesPerNode"`
	ResponseSize     int           `yaml:"responseSize"`
	PollInterval     time.Duration `yaml:"pollInterval"`
}

// MQTTConfig enables publishing of historized values when Broker is set.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"clientID"`
	Prefix   string `yaml:"prefix"`
}

// ValueConfig is a variable created at startup.
type ValueConfig struct {
	Path  string      `yaml:"path"`
	Value interface{} `yaml:"value"`
	// Historize is one of update, poll or user. Empty means not historized.
	Historize string `yaml:"historize"`
}

func defaultConfig() *Config {
	return &Config{
		NamespaceURI: "urn:awcullen:uatree:demo",
		LogLevel:     "info",
		LogFormat:    "text",
		HTTP:         ":8080",
		Separator:    ".",
		Historian: HistorianConfig{
			Kind:         "memory",
			PollInterval: time.Second,
		},
		MQTT: MQTTConfig{
			ClientID: "uatree-server",
			Prefix:   "uatree/history",
		},
	}
}

// loadConfig reads the file at path over the defaults. An empty path
// returns the defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := parseConfig(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseConfig(b []byte, cfg *Config) error {
	if err := yaml.UnmarshalStrict(b, cfg); err != nil {
		return errors.Wrap(err, "parse config")
	}
	switch cfg.Historian.Kind {
	case "memory", "sqlite", "postgres", "none":
	default:
		return errors.Errorf("parse config: unknown historian kind %q", cfg.Historian.Kind)
	}
	for _, v := range cfg.Values {
		switch v.Historize {
		case "", "update", "poll", "user":
		default:
			return errors.Errorf("parse config: %s: unknown historize mode %q", v.Path, v.Historize)
		}
	}
	return nil
}

// newLogger returns a logger with the level and format of the config.
func newLogger(cfg *Config) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	logger.SetLevel(level)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

// variantOf converts a value decoded from YAML or JSON to a variant.
// Integers become Int64.
func variantOf(v interface{}) (ua.Variant, error) {
	switch x := v.(type) {
	case bool, string, float64, int32, int64:
		return x, nil
	case int:
		return int64(x), nil
	case float32:
		return float64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return x, nil
		}
		return int64(x), nil
	case time.Time:
		return x, nil
	}
	return nil, errors.Wrapf(ua.BadTypeMismatch, "value %v of type %T", v, v)
}

// coerce converts v to the variant type of current. Numbers decoded from
// JSON are float64 and are converted to any numeric type.
func coerce(current ua.Variant, v interface{}) (ua.Variant, error) {
	if f, ok := v.(float64); ok {
		switch current.(type) {
		case int8:
			return int8(f), nil
		case uint8:
			return uint8(f), nil
		case int16:
			return int16(f), nil
		case uint16:
			return uint16(f), nil
		case int32:
			return int32(f), nil
		case uint32:
			return uint32(f), nil
		case int64:
			return int64(f), nil
		case uint64:
			return uint64(f), nil
		case float32:
			return float32(f), nil
		}
	}
	return variantOf(v)
}
