// Copyright 2021 Converter Systems LLC. All rights reserved.

// Command uatree-server runs an in-process OPC UA address space filled from
// a YAML file, historizes selected variables and serves the tree over HTTP.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/historian"
	"github.com/awcullen/uatree/nodetree"
	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path of the YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Error loading config.")
	}
	logger, err := newLogger(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Error configuring logger.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Error running server.")
	}
	logger.Info("Server stopped.")
}

func run(ctx context.Context, cfg *Config, logger *logrus.Logger) error {
	srv, err := uatree.NewServer(
		uatree.WithServerLogger(logger),
		uatree.WithServerOptions(server.WithNamespaceURI(cfg.NamespaceURI)),
	)
	if err != nil {
		return err
	}
	ns, _ := srv.NamespaceIndex(cfg.NamespaceURI)

	h, closeHistorian, err := newHistorian(cfg, srv.Registry(), logger)
	if err != nil {
		srv.Shutdown()
		return err
	}
	defer closeHistorian()

	t, err := nodetree.ServerNodeTree(srv, ua.ObjectIDObjectsFolder,
		nodetree.WithNamespace(ns),
		nodetree.WithSeparator(cfg.Separator),
	)
	if err != nil {
		srv.Shutdown()
		return err
	}
	if err := populate(ctx, cfg, srv, t, h); err != nil {
		srv.Shutdown()
		return err
	}

	a := &app{srv: srv, tree: t, historian: h, logger: logger}
	httpServer := &http.Server{Addr: cfg.HTTP, Handler: a.router()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("namespace", cfg.NamespaceURI).Info("Starting server.")
		return srv.Run(ctx)
	})
	g.Go(func() error {
		logger.WithField("addr", cfg.HTTP).Info("Starting HTTP server.")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// populate creates the configured variables and historizes them.
func populate(ctx context.Context, cfg *Config, srv *uatree.Server, t *nodetree.UANodeTree, h *historian.Historian) error {
	for _, vc := range cfg.Values {
		path := t.ParsePath(vc.Path)
		v, err := variantOf(vc.Value)
		if err != nil {
			return errors.Wrapf(err, "value %s", vc.Path)
		}
		if err := t.SetNodeValue(ctx, path, v); err != nil {
			return err
		}
		if vc.Historize == "" {
			continue
		}
		if h == nil {
			srv.Logger().WithField("path", vc.Path).Warn("No historian configured.")
			continue
		}
		id, _ := t.NodeIDOf(path)
		size := cfg.Historian.ResponseSize
		switch vc.Historize {
		case "update":
			err = h.SetUpdateNode(srv, id, size)
		case "poll":
			err = h.SetPollNode(srv, id, size, cfg.Historian.PollInterval)
		case "user":
			err = h.SetUserNode(srv, id, size)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// newHistorian returns the configured historian, or nil for kind none, and
// a func that releases its resources.
func newHistorian(cfg *Config, reg *uatree.Registry, logger logrus.FieldLogger) (*historian.Historian, func(), error) {
	hc := cfg.Historian
	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	var hooks historian.BackendHooks
	var inner server.HistoryDataBackend
	switch hc.Kind {
	case "none":
		return nil, closeAll, nil
	case "memory":
		inner = server.NewMemoryHistoryDataBackend(len(cfg.Values), hc.MaxValuesPerNode)
	case "sqlite", "postgres":
		b, err := historian.OpenSQLBackend(hc.Kind, hc.DSN,
			historian.WithMaxValuesPerNode(hc.MaxValuesPerNode),
			historian.WithSQLLogger(logger),
		)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() { b.Close() })
		hooks = b
	}
	if cfg.MQTT.Broker != "" {
		client, err := connectMQTT(cfg.MQTT)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, func() { client.Disconnect(250) })
		if hooks != nil {
			b := historian.NewHistoryDataBackend(reg, hooks)
			b.Initialise()
			inner = b.Table()
		}
		hooks = historian.NewMQTTForwarder(inner, client, cfg.MQTT.Prefix, logger)
	}
	if hooks == nil {
		return historian.NewMemoryHistorian(len(cfg.Values), hc.MaxValuesPerNode), closeAll, nil
	}
	return historian.NewBackendHistorian(reg, len(cfg.Values), hooks), closeAll, nil
}

func connectMQTT(cfg MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, errors.Errorf("connect %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "connect %s", cfg.Broker)
	}
	return client, nil
}
