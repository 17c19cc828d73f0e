// Copyright 2021 Converter Systems LLC. All rights reserved.

package server

import (
	"context"
	"reflect"
	"sync"

	"github.com/awcullen/uatree/ua"
)

type gatheringItem struct {
	setting HistorizingNodeIDSettings
	poller  *historyPoller
}

// defaultGathering keeps the registrations of historized nodes. Poll
// registrations are sampled by the server's Scheduler.
type defaultGathering struct {
	sync.Mutex
	items map[ua.NodeID]*gatheringItem
}

// NewDefaultHistoryDataGathering returns a gathering that forwards values
// according to the update strategy of each registered node.
func NewDefaultHistoryDataGathering(initialNodeIDStoreSize int) HistoryDataGathering {
	g := &defaultGathering{
		items: make(map[ua.NodeID]*gatheringItem, initialNodeIDStoreSize),
	}
	return HistoryDataGathering{
		Context:               g,
		RegisterNodeID:        g.registerNodeID,
		StopPoll:              g.stopPoll,
		StartPoll:             g.startPoll,
		UpdateNodeIDSetting:   g.updateNodeIDSetting,
		GetHistorizingSetting: g.getHistorizingSetting,
		SetValue:              g.setValue,
	}
}

func (g *defaultGathering) registerNodeID(srv *Server, hctx any, nodeID ua.NodeID, setting HistorizingNodeIDSettings) ua.StatusCode {
	g.Lock()
	defer g.Unlock()
	if _, ok := g.items[nodeID]; ok {
		return ua.BadNodeIDExists
	}
	g.items[nodeID] = &gatheringItem{setting: setting}
	return ua.Good
}

func (g *defaultGathering) startPoll(srv *Server, hctx any, nodeID ua.NodeID) ua.StatusCode {
	g.Lock()
	defer g.Unlock()
	item, ok := g.items[nodeID]
	if !ok {
		return ua.BadNodeIDUnknown
	}
	if item.setting.Strategy != HistorizingUpdateStrategyPoll {
		return ua.BadHistoryOperationInvalid
	}
	if item.poller != nil {
		return ua.Good
	}
	if srv == nil {
		return ua.BadInvalidArgument
	}
	p := &historyPoller{
		srv:     srv,
		nodeID:  nodeID,
		backend: item.setting.Backend,
		group:   srv.Scheduler().GetPollGroup(item.setting.PollingInterval),
	}
	p.group.Subscribe(p)
	item.poller = p
	srv.Logger().WithField("node", nodeID).WithField("interval", p.group.Interval()).Debug("Started polling.")
	return ua.Good
}

func (g *defaultGathering) stopPoll(srv *Server, hctx any, nodeID ua.NodeID) ua.StatusCode {
	g.Lock()
	defer g.Unlock()
	item, ok := g.items[nodeID]
	if !ok {
		return ua.BadNodeIDUnknown
	}
	if item.setting.Strategy != HistorizingUpdateStrategyPoll {
		return ua.BadHistoryOperationInvalid
	}
	if item.poller == nil {
		return ua.BadInvalidState
	}
	item.poller.group.Unsubscribe(item.poller)
	item.poller = nil
	return ua.Good
}

func (g *defaultGathering) updateNodeIDSetting(srv *Server, hctx any, nodeID ua.NodeID, setting HistorizingNodeIDSettings) ua.StatusCode {
	g.Lock()
	defer g.Unlock()
	item, ok := g.items[nodeID]
	if !ok {
		return ua.BadNodeIDUnknown
	}
	if item.poller != nil {
		item.poller.group.Unsubscribe(item.poller)
		item.poller = nil
	}
	item.setting = setting
	return ua.Good
}

func (g *defaultGathering) getHistorizingSetting(srv *Server, hctx any, nodeID ua.NodeID) (HistorizingNodeIDSettings, bool) {
	g.Lock()
	defer g.Unlock()
	item, ok := g.items[nodeID]
	if !ok {
		return HistorizingNodeIDSettings{}, false
	}
	return item.setting, true
}

func (g *defaultGathering) setValue(srv *Server, hctx any, session *Session, nodeID ua.NodeID, historizing bool, value ua.DataValue) {
	g.Lock()
	item, ok := g.items[nodeID]
	var setting HistorizingNodeIDSettings
	if ok {
		setting = item.setting
	}
	g.Unlock()
	if !ok || setting.Strategy != HistorizingUpdateStrategyValueSet {
		return
	}
	b := setting.Backend
	if b.ServerSetHistoryData == nil {
		return
	}
	if code := b.ServerSetHistoryData(srv, b.Context, session, nodeID, historizing, value); code.IsBad() {
		srv.Logger().WithField("node", nodeID).WithError(code).Warn("Error storing history value.")
	}
}

// historyPoller samples a node and stores the value when value or status changed.
type historyPoller struct {
	sync.Mutex
	srv     *Server
	nodeID  ua.NodeID
	backend HistoryDataBackend
	group   *PollGroup
	last    *ua.DataValue
}

func (p *historyPoller) Poll() {
	value, err := p.srv.ReadValue(context.Background(), p.nodeID)
	if err != nil {
		p.srv.Logger().WithField("node", p.nodeID).WithError(err).Debug("Error polling node.")
		return
	}
	p.Lock()
	changed := p.last == nil || p.last.StatusCode != value.StatusCode || !reflect.DeepEqual(p.last.Value, value.Value)
	if changed {
		p.last = &value
	}
	p.Unlock()
	if !changed || p.backend.ServerSetHistoryData == nil {
		return
	}
	if code := p.backend.ServerSetHistoryData(p.srv, p.backend.Context, nil, p.nodeID, true, value); code.IsBad() {
		p.srv.Logger().WithField("node", p.nodeID).WithError(code).Warn("Error storing polled value.")
	}
}
