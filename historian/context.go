// Copyright 2021 Converter Systems LLC. All rights reserved.

// Package historian adapts the history callback tables of the server to
// Go interfaces. Each table slot is bound to a trampoline that finds the
// owning uatree.Server in a Registry and forwards to a hook.
package historian

import (
	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
)

// Context describes the callback that invoked a hook.
type Context struct {
	Server         *uatree.Server
	SessionID      ua.NodeID
	SessionContext any
	NodeID         ua.NodeID
}

// contextOf returns the Context of a callback, or false if the raw server has
// no owner in the registry.
func contextOf(reg *uatree.Registry, srv *server.Server, session *server.Session, nodeID ua.NodeID) (Context, bool) {
	owner := reg.Find(srv)
	if owner == nil {
		return Context{}, false
	}
	return Context{
		Server:         owner,
		SessionID:      session.SessionID(),
		SessionContext: session.Context(),
		NodeID:         nodeID,
	}, true
}

// raw returns the raw server of the context, or nil.
func (ctx Context) raw() *server.Server {
	if ctx.Server == nil {
		return nil
	}
	return ctx.Server.Raw()
}
