// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"context"
	"sync"
	"time"

	"github.com/awcullen/uatree/ua"
	"github.com/google/uuid"
)

type key string

const (
	// SessionKey stores the current session in context
	SessionKey key = "uatree-session"
)

// Session identifies the caller of a service. Its id and context are passed
// unchanged to the history callbacks.
type Session struct {
	sync.RWMutex
	sessionID   ua.NodeID
	context     any
	timeCreated time.Time
	lastAccess  time.Time
}

// NewSession returns a session with the given id and application context.
// A nil id is replaced with a random GUID identifier in namespace 1.
func NewSession(sessionID ua.NodeID, context any) *Session {
	if sessionID.IsNil() {
		sessionID = ua.NewNodeIDGUID(1, uuid.New())
	}
	now := time.Now()
	return &Session{
		sessionID:   sessionID,
		context:     context,
		timeCreated: now,
		lastAccess:  now,
	}
}

// SessionID gets the session id.
func (s *Session) SessionID() ua.NodeID {
	if s == nil {
		return ua.NilNodeID
	}
	return s.sessionID
}

// Context gets the application context of the session.
func (s *Session) Context() any {
	if s == nil {
		return nil
	}
	s.RLock()
	defer s.RUnlock()
	return s.context
}

// SetContext sets the application context of the session.
func (s *Session) SetContext(value any) {
	s.Lock()
	s.context = value
	s.Unlock()
}

// TimeCreated gets the time the session was created.
func (s *Session) TimeCreated() time.Time {
	return s.timeCreated
}

// LastAccess gets the time of the last service call made with the session.
func (s *Session) LastAccess() time.Time {
	s.RLock()
	defer s.RUnlock()
	return s.lastAccess
}

func (s *Session) touch() {
	if s == nil {
		return
	}
	s.Lock()
	s.lastAccess = time.Now()
	s.Unlock()
}

// WithSession returns a copy of ctx carrying the session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// SessionFromContext returns the session carried by ctx, or nil.
func SessionFromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(SessionKey).(*Session)
	s.touch()
	return s
}
