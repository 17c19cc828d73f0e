// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"context"
	"sync"
	"time"

	"github.com/awcullen/uatree/ua"
	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"
)

const (
	// the default application uri, namespace index 1.
	defaultApplicationURI = "urn:awcullen:uatree:server"
	// the default namespace for application nodes, namespace index 2.
	defaultNamespaceURI = "http://github.com/awcullen/uatree/nodes"
	// the default number of workers of the callback loop.
	defaultMaxWorkerThreads int = 1
	// the default lower bound of polling intervals.
	defaultMinSamplingInterval = 100 * time.Millisecond
)

// ServerState is the state of the server.
type ServerState int32

const (
	ServerStateRunning            ServerState = 0
	ServerStateFailed             ServerState = 1
	ServerStateNoConfiguration    ServerState = 2
	ServerStateSuspended          ServerState = 3
	ServerStateShutdown           ServerState = 4
	ServerStateTest               ServerState = 5
	ServerStateCommunicationFault ServerState = 6
	ServerStateUnknown            ServerState = 7
)

func (s ServerState) String() string {
	switch s {
	case ServerStateRunning:
		return "Running"
	case ServerStateFailed:
		return "Failed"
	case ServerStateNoConfiguration:
		return "NoConfiguration"
	case ServerStateSuspended:
		return "Suspended"
	case ServerStateShutdown:
		return "Shutdown"
	case ServerStateTest:
		return "Test"
	case ServerStateCommunicationFault:
		return "CommunicationFault"
	default:
		return "Unknown"
	}
}

// Config holds the settings the server consults while running. Assign
// HistoryDatabase before Start, or use SetHistoryDatabase afterwards.
type Config struct {
	ApplicationURI  string
	NamespaceURI    string
	HistoryDatabase HistoryDatabase
}

// Server is an in-process OPC UA address space. Nodes are kept in a
// NamespaceManager; history callbacks and polling run on a serialized
// callback loop.
type Server struct {
	sync.RWMutex
	config              Config
	applicationURI      string
	namespaceURI        string
	namespaceIndex      uint16
	maxWorkerThreads    int
	minSamplingInterval time.Duration
	logger              logrus.FieldLogger
	closed              chan struct{}
	closing             chan struct{}
	stateSemaphore      chan struct{}
	state               ServerState
	stateListener       func(state ServerState)
	dispatchLock        sync.RWMutex
	stopped             bool
	workerpool          *workerpool.WorkerPool
	namespaceManager    *NamespaceManager
	scheduler           *Scheduler
	startTime           time.Time
}

// New initializes a new instance of the Server.
func New(options ...Option) (*Server, error) {
	srv := &Server{
		applicationURI:      defaultApplicationURI,
		namespaceURI:        defaultNamespaceURI,
		maxWorkerThreads:    defaultMaxWorkerThreads,
		minSamplingInterval: defaultMinSamplingInterval,
		logger:              logrus.StandardLogger(),
		closed:              make(chan struct{}),
		closing:             make(chan struct{}),
		stateSemaphore:      make(chan struct{}, 1),
		state:               ServerStateUnknown,
	}

	// apply each option to the default
	for _, opt := range options {
		if err := opt(srv); err != nil {
			return nil, err
		}
	}

	srv.config.ApplicationURI = srv.applicationURI
	srv.config.NamespaceURI = srv.namespaceURI
	srv.workerpool = workerpool.New(srv.maxWorkerThreads)
	srv.namespaceManager = NewNamespaceManager(srv)
	srv.scheduler = NewScheduler(srv)

	if err := srv.initializeNamespace(); err != nil {
		srv.logger.WithError(err).Error("Error initializing namespace.")
		srv.workerpool.Stop()
		return nil, err
	}
	return srv, nil
}

// Config gets the configuration of the server. Changes made through the
// returned pointer are not synchronized with a running server.
func (srv *Server) Config() *Config {
	return &srv.config
}

// SetHistoryDatabase installs the history database. The table is copied.
func (srv *Server) SetHistoryDatabase(db HistoryDatabase) {
	srv.Lock()
	defer srv.Unlock()
	srv.config.HistoryDatabase = db
}

func (srv *Server) historyDatabase() HistoryDatabase {
	srv.RLock()
	defer srv.RUnlock()
	return srv.config.HistoryDatabase
}

// Logger gets the logger of the server.
func (srv *Server) Logger() logrus.FieldLogger {
	return srv.logger
}

// ApplicationURI gets the application uri, namespace index 1.
func (srv *Server) ApplicationURI() string {
	return srv.applicationURI
}

// DefaultNamespaceIndex gets the index of the namespace for application nodes.
func (srv *Server) DefaultNamespaceIndex() uint16 {
	return srv.namespaceIndex
}

// Closing gets a channel that broadcasts the closing of the server.
func (srv *Server) Closing() <-chan struct{} {
	return srv.closing
}

// Closed gets a channel that is closed when shutdown completes.
func (srv *Server) Closed() <-chan struct{} {
	return srv.closed
}

// State gets the ServerState.
func (srv *Server) State() ServerState {
	srv.RLock()
	defer srv.RUnlock()
	return srv.state
}

func (srv *Server) setState(value ServerState) {
	srv.Lock()
	srv.state = value
	listener := srv.stateListener
	srv.Unlock()
	srv.logger.WithField("state", value).Info("Server state changed.")
	if listener != nil {
		listener(value)
	}
}

// SetStateListener sets a func that listens for change of ServerState.
func (srv *Server) SetStateListener(listener func(state ServerState)) {
	srv.Lock()
	defer srv.Unlock()
	srv.stateListener = listener
}

// StartTime gets the time the server was started.
func (srv *Server) StartTime() time.Time {
	srv.RLock()
	defer srv.RUnlock()
	return srv.startTime
}

// NamespaceUris gets the namespace uris.
func (srv *Server) NamespaceUris() []string {
	return srv.namespaceManager.NamespaceUris()
}

// AddNamespace adds the namespace to the table and returns its index.
func (srv *Server) AddNamespace(nsu string) uint16 {
	return srv.namespaceManager.Add(nsu)
}

// NamespaceIndex returns the index of the namespace, if found.
func (srv *Server) NamespaceIndex(nsu string) (uint16, bool) {
	return srv.namespaceManager.IndexOf(nsu)
}

// WorkerPool gets the pool that runs the callback loop.
func (srv *Server) WorkerPool() *workerpool.WorkerPool {
	return srv.workerpool
}

// NamespaceManager gets the namespace manager.
func (srv *Server) NamespaceManager() *NamespaceManager {
	return srv.namespaceManager
}

// Scheduler gets the polling scheduler.
func (srv *Server) Scheduler() *Scheduler {
	return srv.scheduler
}

// Start puts the server in the Running state.
func (srv *Server) Start() error {
	srv.stateSemaphore <- struct{}{}
	defer func() { <-srv.stateSemaphore }()
	if srv.State() != ServerStateUnknown {
		return ua.BadInvalidState
	}
	srv.Lock()
	srv.startTime = time.Now()
	srv.Unlock()
	srv.setState(ServerStateRunning)
	return nil
}

// Shutdown stops polling, drains the callback loop and puts the server in
// the Shutdown state.
func (srv *Server) Shutdown() error {
	srv.stateSemaphore <- struct{}{}
	defer func() { <-srv.stateSemaphore }()
	switch srv.State() {
	case ServerStateShutdown, ServerStateFailed:
		return ua.BadInvalidState
	}

	srv.setState(ServerStateShutdown)

	// stop poll groups
	close(srv.closing)

	// refuse new callbacks, then run the queued ones.
	srv.dispatchLock.Lock()
	srv.stopped = true
	srv.dispatchLock.Unlock()
	srv.workerpool.StopWait()

	close(srv.closed)
	return nil
}

// Abort stops the server without running queued callbacks.
func (srv *Server) Abort() error {
	srv.stateSemaphore <- struct{}{}
	defer func() { <-srv.stateSemaphore }()
	switch srv.State() {
	case ServerStateShutdown, ServerStateFailed:
		return ua.BadInvalidState
	}

	srv.setState(ServerStateFailed)
	close(srv.closing)
	srv.dispatchLock.Lock()
	srv.stopped = true
	srv.dispatchLock.Unlock()
	srv.workerpool.Stop()
	close(srv.closed)
	return nil
}

// Run starts the server and shuts it down when ctx is done.
func (srv *Server) Run(ctx context.Context) error {
	if err := srv.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-srv.closing:
		<-srv.closed
		return nil
	}
	return srv.Shutdown()
}

func (srv *Server) halted() bool {
	select {
	case <-srv.closing:
		return true
	default:
		return false
	}
}

// dispatch queues f on the callback loop. It returns false once the server
// has stopped accepting callbacks.
func (srv *Server) dispatch(f func()) bool {
	srv.dispatchLock.RLock()
	defer srv.dispatchLock.RUnlock()
	if srv.stopped {
		return false
	}
	srv.workerpool.Submit(f)
	return true
}

// invoke runs f on the callback loop and waits for it. It must not be
// called from a callback.
func (srv *Server) invoke(f func()) error {
	done := make(chan struct{})
	if !srv.dispatch(func() {
		defer close(done)
		f()
	}) {
		return ua.BadServerHalted
	}
	<-done
	return nil
}

// Invoke runs f on the callback loop and waits for it. The history hooks
// run on that loop, so f may call them like a callback would. It returns
// BadServerHalted once the server stopped accepting callbacks and must not
// be called from a callback.
func (srv *Server) Invoke(f func()) error {
	return srv.invoke(f)
}

// Flush waits until every callback queued so far has run.
func (srv *Server) Flush() error {
	return srv.invoke(func() {})
}

func (srv *Server) initializeNamespace() error {
	nm := srv.namespaceManager
	nm.Add(srv.namespaceURI)
	srv.namespaceIndex, _ = nm.IndexOf(srv.namespaceURI)

	folder := func(id ua.NodeID, name string, refs ...ua.Reference) Node {
		refs = append(refs, ua.NewReference(ua.ReferenceTypeIDHasTypeDefinition, false, ua.ObjectTypeIDFolderType))
		return NewObjectNode(id, ua.NewQualifiedName(0, name), ua.LocalizedText{Text: name}, ua.LocalizedText{}, refs, 0)
	}
	nodes := []Node{
		NewObjectTypeNode(ua.ObjectTypeIDBaseObjectType, ua.NewQualifiedName(0, "BaseObjectType"), nil, false),
		NewObjectTypeNode(ua.ObjectTypeIDFolderType, ua.NewQualifiedName(0, "FolderType"), []ua.Reference{
			ua.NewReference(ua.ReferenceTypeIDHasSubtype, true, ua.ObjectTypeIDBaseObjectType),
		}, false),
		NewVariableTypeNode(ua.VariableTypeIDBaseDataVariableType, ua.NewQualifiedName(0, "BaseDataVariableType"), nil, ua.DataTypeIDBaseDataType, ua.ValueRankAny, false),
		folder(ua.ObjectIDRootFolder, "Root"),
		folder(ua.ObjectIDObjectsFolder, "Objects", ua.NewReference(ua.ReferenceTypeIDOrganizes, true, ua.ObjectIDRootFolder)),
		folder(ua.ObjectIDTypesFolder, "Types", ua.NewReference(ua.ReferenceTypeIDOrganizes, true, ua.ObjectIDRootFolder)),
		folder(ua.ObjectIDViewsFolder, "Views", ua.NewReference(ua.ReferenceTypeIDOrganizes, true, ua.ObjectIDRootFolder)),
		NewObjectNode(ua.ObjectIDServer, ua.NewQualifiedName(0, "Server"), ua.LocalizedText{Text: "Server"}, ua.LocalizedText{}, []ua.Reference{
			ua.NewReference(ua.ReferenceTypeIDOrganizes, true, ua.ObjectIDObjectsFolder),
			ua.NewReference(ua.ReferenceTypeIDHasTypeDefinition, false, ua.ObjectTypeIDBaseObjectType),
		}, 1),
	}
	return nm.AddNodes(nodes)
}
