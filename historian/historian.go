// Copyright 2021 Converter Systems LLC. All rights reserved.

package historian

import (
	"context"
	"time"

	"github.com/awcullen/uatree"
	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
	"github.com/pkg/errors"
)

const (
	// the default number of values returned per node and response.
	DefaultResponseSize = 100
	// the default interval of poll mode.
	DefaultPollInterval = time.Second
)

// Historian holds the three tables that historize the values of nodes.
// Database is installed in the server, Gathering keeps the node
// registrations and Backend stores the values.
type Historian struct {
	Database  server.HistoryDatabase
	Gathering server.HistoryDataGathering
	Backend   server.HistoryDataBackend
}

// NewHistorian returns a Historian of the given tables.
func NewHistorian(database server.HistoryDatabase, gathering server.HistoryDataGathering, backend server.HistoryDataBackend) *Historian {
	return &Historian{Database: database, Gathering: gathering, Backend: backend}
}

// NewMemoryHistorian returns a Historian that keeps up to maxValuesPerNode
// values of each node in memory. A maxValuesPerNode of 0 keeps every value.
func NewMemoryHistorian(numberNodes, maxValuesPerNode int) *Historian {
	gathering := server.NewDefaultHistoryDataGathering(numberNodes)
	return NewHistorian(
		server.NewDefaultHistoryDatabase(gathering),
		gathering,
		server.NewMemoryHistoryDataBackend(numberNodes, maxValuesPerNode),
	)
}

// NewBackendHistorian returns a Historian that stores values through hooks
// and uses the default database and gathering.
func NewBackendHistorian(reg *uatree.Registry, numberNodes int, hooks BackendHooks) *Historian {
	backend := NewHistoryDataBackend(reg, hooks)
	backend.Initialise()
	gathering := server.NewDefaultHistoryDataGathering(numberNodes)
	return NewHistorian(server.NewDefaultHistoryDatabase(gathering), gathering, backend.Table())
}

// NewCustomHistorian returns a Historian whose tables all forward to hooks.
func NewCustomHistorian(reg *uatree.Registry, database DatabaseHooks, gathering GatheringHooks, backend BackendHooks) *Historian {
	d := NewHistoryDatabase(reg, database)
	d.Initialise()
	g := NewHistoryDataGathering(reg, gathering)
	g.Initialise()
	b := NewHistoryDataBackend(reg, backend)
	b.Initialise()
	return NewHistorian(d.Table(), g.Table(), b.Table())
}

// Attach installs the database of the historian in the server.
func (h *Historian) Attach(srv *uatree.Server) {
	srv.Raw().SetHistoryDatabase(h.Database)
}

// SetUpdateNode historizes the node and stores every value written to it.
func (h *Historian) SetUpdateNode(srv *uatree.Server, nodeID ua.NodeID, responseSize int) error {
	return h.setNode(srv, nodeID, server.HistorizingNodeIDSettings{
		Backend:                    h.Backend,
		MaxHistoryDataResponseSize: responseSize,
		Strategy:                   server.HistorizingUpdateStrategyValueSet,
	})
}

// SetPollNode historizes the node and stores its value every interval when
// the value or status changed.
func (h *Historian) SetPollNode(srv *uatree.Server, nodeID ua.NodeID, responseSize int, interval time.Duration) error {
	if err := h.setNode(srv, nodeID, server.HistorizingNodeIDSettings{
		Backend:                    h.Backend,
		MaxHistoryDataResponseSize: responseSize,
		Strategy:                   server.HistorizingUpdateStrategyPoll,
		PollingInterval:            interval,
	}); err != nil {
		return err
	}
	g := h.Gathering
	if g.StartPoll == nil {
		return errors.Wrapf(ua.BadHistoryOperationUnsupported, "start poll %s", nodeID)
	}
	if code := call(srv, func() ua.StatusCode {
		return g.StartPoll(srv.Raw(), g.Context, nodeID)
	}); code.IsBad() {
		return errors.Wrapf(code, "start poll %s", nodeID)
	}
	return nil
}

// SetUserNode historizes the node without storing its values. Values are
// inserted with InsertValue or the history update service.
func (h *Historian) SetUserNode(srv *uatree.Server, nodeID ua.NodeID, responseSize int) error {
	return h.setNode(srv, nodeID, server.HistorizingNodeIDSettings{
		Backend:                    h.Backend,
		MaxHistoryDataResponseSize: responseSize,
		Strategy:                   server.HistorizingUpdateStrategyUser,
	})
}

func (h *Historian) setNode(srv *uatree.Server, nodeID ua.NodeID, setting server.HistorizingNodeIDSettings) error {
	if setting.MaxHistoryDataResponseSize <= 0 {
		setting.MaxHistoryDataResponseSize = DefaultResponseSize
	}
	if setting.Strategy == server.HistorizingUpdateStrategyPoll && setting.PollingInterval <= 0 {
		setting.PollingInterval = DefaultPollInterval
	}
	h.Attach(srv)
	if err := srv.Raw().SetHistorizing(nodeID, true); err != nil {
		return errors.Wrapf(err, "historize %s", nodeID)
	}
	g := h.Gathering
	if g.RegisterNodeID == nil {
		return errors.Wrapf(ua.BadHistoryOperationUnsupported, "register %s", nodeID)
	}
	code := call(srv, func() ua.StatusCode {
		code := g.RegisterNodeID(srv.Raw(), g.Context, nodeID, setting)
		if code == ua.BadNodeIDExists && g.UpdateNodeIDSetting != nil {
			code = g.UpdateNodeIDSetting(srv.Raw(), g.Context, nodeID, setting)
		}
		return code
	})
	if code.IsBad() {
		return errors.Wrapf(code, "register %s", nodeID)
	}
	srv.Logger().WithField("node", nodeID).WithField("strategy", setting.Strategy).Debug("Node historized.")
	return nil
}

// StopPoll stops polling the node.
func (h *Historian) StopPoll(srv *uatree.Server, nodeID ua.NodeID) error {
	g := h.Gathering
	if g.StopPoll == nil {
		return errors.Wrapf(ua.BadHistoryOperationUnsupported, "stop poll %s", nodeID)
	}
	if code := call(srv, func() ua.StatusCode {
		return g.StopPoll(srv.Raw(), g.Context, nodeID)
	}); code.IsBad() {
		return errors.Wrapf(code, "stop poll %s", nodeID)
	}
	return nil
}

// InsertValue stores a value of the node in the backend. The backend is
// called on the callback loop of the server, so InsertValue must not be
// called from a hook.
func (h *Historian) InsertValue(srv *uatree.Server, nodeID ua.NodeID, value ua.DataValue) error {
	b := h.Backend
	if b.ServerSetHistoryData == nil {
		return errors.Wrapf(ua.BadHistoryOperationUnsupported, "insert %s", nodeID)
	}
	if code := call(srv, func() ua.StatusCode {
		return b.ServerSetHistoryData(srv.Raw(), b.Context, nil, nodeID, true, value)
	}); code.IsBad() {
		return errors.Wrapf(code, "insert %s", nodeID)
	}
	return nil
}

// ReadRaw reads the values of the node with source timestamps from start,
// inclusive, to end, exclusive, following continuation points until all
// values are read. Only source timestamps are returned.
func (h *Historian) ReadRaw(ctx context.Context, srv *uatree.Server, nodeID ua.NodeID, start, end time.Time) ([]ua.DataValue, error) {
	details := ua.ReadRawModifiedDetails{StartTime: start, EndTime: end}
	node := ua.HistoryReadValueID{NodeID: nodeID}
	values := []ua.DataValue{}
	for {
		results, err := srv.Raw().HistoryReadRaw(ctx, details, ua.TimestampsToReturnSource, false, []ua.HistoryReadValueID{node})
		if err != nil {
			return nil, errors.Wrapf(err, "read history %s", nodeID)
		}
		r := results[0]
		if r.StatusCode.IsBad() {
			return nil, errors.Wrapf(r.StatusCode, "read history %s", nodeID)
		}
		values = append(values, r.HistoryData.DataValues...)
		if r.ContinuationPoint == "" {
			return values, nil
		}
		node.ContinuationPoint = r.ContinuationPoint
	}
}

// call runs f on the callback loop of srv, where every other hook runs.
func call(srv *uatree.Server, f func() ua.StatusCode) ua.StatusCode {
	code := ua.Good
	if err := srv.Raw().Invoke(func() { code = f() }); err != nil {
		return ua.BadServerHalted
	}
	return code
}
