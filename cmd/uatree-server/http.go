// Copyright 2021 Converter Systems LLC. All rights reserved.

package main

import (
	"net/http"
	"time"

	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/historian"
	"github.com/awcullen/uatree/nodetree"
	"github.com/awcullen/uatree/tree"
	"github.com/awcullen/uatree/ua"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// app serves the node tree over HTTP. Paths in URLs are separated by "/".
type app struct {
	srv       *uatree.Server
	tree      *nodetree.UANodeTree
	historian *historian.Historian
	logger    logrus.FieldLogger
}

type valueBody struct {
	Value interface{} `json:"value"`
}

func (a *app) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), a.logRequests)
	r.GET("/tree", a.getTree)
	r.GET("/values/*path", a.getValue)
	r.PUT("/values/*path", a.putValue)
	r.GET("/history/*path", a.getHistory)
	return r
}

func (a *app) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	a.logger.WithFields(logrus.Fields{
		"method":   c.Request.Method,
		"path":     c.Request.URL.Path,
		"status":   c.Writer.Status(),
		"duration": time.Since(start),
	}).Debug("Request.")
}

// statusOf maps the status code at the cause of err to an HTTP status.
func statusOf(err error) int {
	code, ok := errors.Cause(err).(ua.StatusCode)
	if !ok {
		return http.StatusInternalServerError
	}
	switch code {
	case ua.BadNoMatch, ua.BadNodeIDUnknown:
		return http.StatusNotFound
	case ua.BadTypeMismatch, ua.BadInvalidArgument, ua.BadBrowseNameInvalid, ua.BadInvalidTimestampArgument:
		return http.StatusBadRequest
	case ua.BadBrowseNameDuplicated, ua.BadNodeIDExists, ua.BadAttributeIDInvalid:
		return http.StatusConflict
	case ua.BadHistoryOperationUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (a *app) fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}

func pathOf(c *gin.Context) tree.NodePath {
	return tree.ParsePath(c.Param("path"), "/")
}

func (a *app) getTree(c *gin.Context) {
	b, err := a.tree.MarshalJSON()
	if err != nil {
		a.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

func (a *app) getValue(c *gin.Context) {
	path := pathOf(c)
	v, err := a.tree.GetNodeValue(c.Request.Context(), path)
	if err != nil {
		a.fail(c, err)
		return
	}
	id, _ := a.tree.NodeIDOf(path)
	c.JSON(http.StatusOK, gin.H{"path": path.String(), "nodeId": id.String(), "value": v})
}

func (a *app) putValue(c *gin.Context) {
	var body valueBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	path := pathOf(c)
	if len(path) == 0 {
		a.fail(c, errors.Wrap(ua.BadInvalidArgument, "empty path"))
		return
	}
	var current ua.Variant
	if a.tree.Exists(path) {
		var err error
		if current, err = a.tree.GetNodeValue(ctx, path); err != nil {
			a.fail(c, err)
			return
		}
	}
	v, err := coerce(current, body.Value)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.tree.SetNodeValue(ctx, path, v); err != nil {
		a.fail(c, err)
		return
	}
	id, _ := a.tree.NodeIDOf(path)
	c.JSON(http.StatusOK, gin.H{"path": path.String(), "nodeId": id.String(), "value": v})
}

// getHistory returns the stored values between the RFC 3339 query
// parameters start and end. end defaults to now, start to one hour before end.
func (a *app) getHistory(c *gin.Context) {
	if a.historian == nil {
		a.fail(c, errors.Wrap(ua.BadHistoryOperationUnsupported, "no historian"))
		return
	}
	path := pathOf(c)
	id, ok := a.tree.NodeIDOf(path)
	if !ok || len(path) == 0 {
		a.fail(c, errors.Wrapf(ua.BadNoMatch, "history %s", path))
		return
	}
	end := time.Now()
	if s := c.Query("end"); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		end = t
	}
	start := end.Add(-time.Hour)
	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		start = t
	}
	values, err := a.historian.ReadRaw(c.Request.Context(), a.srv, id, start, end)
	if err != nil {
		a.fail(c, err)
		return
	}
	type item struct {
		Value           interface{} `json:"value"`
		Status          string      `json:"status"`
		SourceTimestamp time.Time   `json:"sourceTimestamp"`
	}
	items := make([]item, len(values))
	for i, dv := range values {
		items[i] = item{dv.Value, dv.StatusCode.Error(), dv.SourceTimestamp}
	}
	c.JSON(http.StatusOK, gin.H{"path": path.String(), "values": items})
}
