// Copyright 2020 Converter Systems LLC. All rights reserved.

// Command uatree-client writes a value to a path below the Objects folder of
// a remote server, creating the folders on the way, and reads it back.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/nodetree"
	"github.com/awcullen/uatree/ua"
	"github.com/gopcua/opcua"
	gua "github.com/gopcua/opcua/ua"
	"github.com/sirupsen/logrus"
)

func main() {
	endpoint := flag.String("endpoint", "opc.tcp://localhost:4840", "endpoint URL of the server")
	path := flag.String("path", "uatree.Demo.Value", "path of the variable")
	value := flag.String("value", "1", "value to write")
	namespace := flag.Uint("ns", uint(nodetree.DefaultNamespace), "namespace index of created nodes")
	retries := flag.Uint64("retries", 3, "number of connect retries")
	verbose := flag.Bool("v", false, "log debug messages")
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := uatree.NewClient(*endpoint,
		uatree.WithClientLogger(logger),
		uatree.WithConnectRetry(*retries, time.Second),
		uatree.WithClientOptions(opcua.SecurityMode(gua.MessageSecurityModeNone)),
	)
	if err != nil {
		logger.WithError(err).Fatal("Error creating client.")
	}
	if err := c.Connect(ctx); err != nil {
		logger.WithError(err).Fatal("Error connecting.")
	}
	defer c.Close(context.Background())

	t, err := nodetree.ClientNodeTree(c, ua.ObjectIDObjectsFolder, nodetree.WithNamespace(uint16(*namespace)))
	if err != nil {
		logger.WithError(err).Fatal("Error creating tree.")
	}
	p := t.ParsePath(*path)
	if err := t.SetNodeValue(ctx, p, parseValue(*value)); err != nil {
		logger.WithError(err).Fatal("Error writing value.")
	}
	v, err := t.GetNodeValue(ctx, p)
	if err != nil {
		logger.WithError(err).Fatal("Error reading value.")
	}
	id, _ := t.NodeIDOf(p)
	logger.WithFields(logrus.Fields{"path": p.String(), "node": id, "value": v}).Info("Value read.")
	if err := t.Print(ctx, os.Stdout); err != nil {
		logger.WithError(err).Warn("Error printing tree.")
	}
}

// parseValue returns s as an Int64, Double or Boolean if it parses as one,
// and as a String otherwise.
func parseValue(s string) ua.Variant {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
