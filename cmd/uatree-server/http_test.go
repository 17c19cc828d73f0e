// Copyright 2021 Converter Systems LLC. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/historian"
	"github.com/awcullen/uatree/nodetree"
	"github.com/awcullen/uatree/ua"
	"github.com/sirupsen/logrus"
	"gotest.tools/assert"
)

func newTestApp(t *testing.T, cfg *Config) *app {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	srv, err := uatree.NewServer(uatree.WithRegistry(uatree.NewRegistry()), uatree.WithServerLogger(logger))
	assert.NilError(t, err)
	assert.NilError(t, srv.Start())
	t.Cleanup(func() { srv.Shutdown() })

	h, closeHistorian, err := newHistorian(cfg, srv.Registry(), logger)
	assert.NilError(t, err)
	t.Cleanup(closeHistorian)
	tr, err := nodetree.ServerNodeTree(srv, ua.ObjectIDObjectsFolder)
	assert.NilError(t, err)
	assert.NilError(t, populate(context.Background(), cfg, srv, tr, h))
	return &app{srv: srv, tree: tr, historian: h, logger: logger}
}

func do(t *testing.T, h http.Handler, method, url, body string) (int, map[string]interface{}) {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var res map[string]interface{}
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return rec.Code, res
}

func TestValues(t *testing.T) {
	cfg := defaultConfig()
	cfg.Values = []ValueConfig{
		{Path: "Plant.Line1.Count", Value: 7},
		{Path: "Plant.Name", Value: "north"},
	}
	a := newTestApp(t, cfg)
	r := a.router()

	code, res := do(t, r, http.MethodGet, "/values/Plant/Line1/Count", "")
	assert.Equal(t, code, http.StatusOK)
	assert.Equal(t, res["value"], float64(7))
	assert.Equal(t, res["path"], "Plant.Line1.Count")

	code, res = do(t, r, http.MethodPut, "/values/Plant/Line1/Count", `{"value": 8}`)
	assert.Equal(t, code, http.StatusOK)
	v, err := a.tree.GetNodeValue(context.Background(), a.tree.ParsePath("Plant.Line1.Count"))
	assert.NilError(t, err)
	assert.Equal(t, v, ua.Variant(int64(8)))

	code, _ = do(t, r, http.MethodPut, "/values/Plant/Line1/Count", `{"value": "eight"}`)
	assert.Equal(t, code, http.StatusBadRequest)

	code, _ = do(t, r, http.MethodPut, "/values/Plant/Line2/Speed", `{"value": 2.5}`)
	assert.Equal(t, code, http.StatusOK)
	assert.Assert(t, a.tree.Exists(a.tree.ParsePath("Plant.Line2.Speed")))

	code, _ = do(t, r, http.MethodGet, "/values/Plant/Nope", "")
	assert.Equal(t, code, http.StatusNotFound)
	code, _ = do(t, r, http.MethodPut, "/values/", `{"value": 1}`)
	assert.Equal(t, code, http.StatusBadRequest)
	code, _ = do(t, r, http.MethodPut, "/values/Plant/X", `not json`)
	assert.Equal(t, code, http.StatusBadRequest)

	code, res = do(t, r, http.MethodGet, "/tree", "")
	assert.Equal(t, code, http.StatusOK)
	children := res["children"].([]interface{})
	assert.Equal(t, children[0].(map[string]interface{})["name"], "Plant")
}

func TestHistory(t *testing.T) {
	cfg := defaultConfig()
	cfg.Values = []ValueConfig{{Path: "Level", Value: 1.0, Historize: "update"}}
	a := newTestApp(t, cfg)
	r := a.router()

	for _, v := range []string{"2", "3"} {
		code, _ := do(t, r, http.MethodPut, "/values/Level", `{"value": `+v+`}`)
		assert.Equal(t, code, http.StatusOK)
	}
	assert.NilError(t, a.srv.Raw().Flush())

	code, res := do(t, r, http.MethodGet, "/history/Level", "")
	assert.Equal(t, code, http.StatusOK)
	values := res["values"].([]interface{})
	assert.Equal(t, len(values), 2)
	assert.Equal(t, values[1].(map[string]interface{})["value"], float64(3))

	code, _ = do(t, r, http.MethodGet, "/history/Level?start=soon", "")
	assert.Equal(t, code, http.StatusBadRequest)
	code, _ = do(t, r, http.MethodGet, "/history/Level?end=yesterday", "")
	assert.Equal(t, code, http.StatusBadRequest)
	code, _ = do(t, r, http.MethodGet, "/history/Other", "")
	assert.Equal(t, code, http.StatusNotFound)
}

func TestHistoryDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Historian.Kind = "none"
	cfg.Values = []ValueConfig{{Path: "Level", Value: 1.0, Historize: "update"}}
	a := newTestApp(t, cfg)
	assert.Assert(t, a.historian == nil)

	code, _ := do(t, a.router(), http.MethodGet, "/history/Level", "")
	assert.Equal(t, code, http.StatusNotImplemented)
}

func TestSQLHistorianConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Historian.Kind = "sqlite"
	cfg.Historian.DSN = ":memory:"
	cfg.Values = []ValueConfig{{Path: "Counter", Value: 1, Historize: "user"}}
	a := newTestApp(t, cfg)

	id, ok := a.tree.NodeIDOf(a.tree.ParsePath("Counter"))
	assert.Assert(t, ok)
	now := time.Now().Truncate(time.Millisecond)
	assert.NilError(t, a.historian.InsertValue(a.srv, id, ua.DataValue{Value: int64(5), SourceTimestamp: now}))
	values, err := a.historian.ReadRaw(context.Background(), a.srv, id, now.Add(-time.Second), now.Add(time.Second))
	assert.NilError(t, err)
	assert.Equal(t, len(values), 1)
	assert.Equal(t, values[0].Value, ua.Variant(int64(5)))
	assert.Assert(t, a.historian.Backend.Context.(*historian.HistoryDataBackend).Initialised())
}
