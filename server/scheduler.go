package server

import (
	"sync"
	"time"
)

// Scheduler hands out poll groups. Listeners with the same interval share one ticker.
type Scheduler struct {
	sync.Mutex
	server              *Server
	groups              map[time.Duration]*PollGroup
	minSamplingInterval time.Duration
}

// NewScheduler ...
func NewScheduler(server *Server) *Scheduler {
	return &Scheduler{
		server:              server,
		groups:              make(map[time.Duration]*PollGroup),
		minSamplingInterval: server.minSamplingInterval,
	}
}

// GetPollGroup returns the group for the interval, starting it if needed.
// Intervals below the minimum sampling interval are raised to it.
func (s *Scheduler) GetPollGroup(interval time.Duration) *PollGroup {
	s.Lock()
	defer s.Unlock()
	if interval < s.minSamplingInterval {
		interval = s.minSamplingInterval
	}
	if g, ok := s.groups[interval]; ok {
		return g
	}
	g := NewPollGroup(interval, s.server.closing, s.server.dispatch)
	s.groups[interval] = g
	return g
}

// Len returns the number of running poll groups.
func (s *Scheduler) Len() int {
	s.Lock()
	defer s.Unlock()
	return len(s.groups)
}

// PollGroup calls Poll on every subscribed listener once per interval. The calls
// are handed to dispatch so they run on the server's callback loop.
type PollGroup struct {
	sync.Mutex
	cancellationCh <-chan struct{}
	interval       time.Duration
	dispatch       func(func()) bool
	subs           map[PollListener]struct{}
}

// NewPollGroup ...
func NewPollGroup(interval time.Duration, cancellationCh <-chan struct{}, dispatch func(func()) bool) *PollGroup {
	g := &PollGroup{
		cancellationCh: cancellationCh,
		interval:       interval,
		dispatch:       dispatch,
		subs:           map[PollListener]struct{}{},
	}
	go g.run()
	return g
}

// Interval gets the polling interval of the group.
func (g *PollGroup) Interval() time.Duration {
	return g.interval
}

func (g *PollGroup) run() {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-g.cancellationCh:
			g.Lock()
			clear(g.subs)
			g.Unlock()
			return
		case <-ticker.C:
			for _, listener := range g.listeners() {
				if !g.dispatch(listener.Poll) {
					return
				}
			}
		}
	}
}

func (g *PollGroup) listeners() []PollListener {
	g.Lock()
	defer g.Unlock()
	listeners := make([]PollListener, 0, len(g.subs))
	for sub := range g.subs {
		listeners = append(listeners, sub)
	}
	return listeners
}

// Subscribe adds the listener to the group.
func (g *PollGroup) Subscribe(listener PollListener) {
	g.Lock()
	g.subs[listener] = struct{}{}
	g.Unlock()
}

// Unsubscribe removes the listener from the group.
func (g *PollGroup) Unsubscribe(listener PollListener) {
	g.Lock()
	delete(g.subs, listener)
	g.Unlock()
}

// Len returns the number of listeners subscribed to the group.
func (g *PollGroup) Len() int {
	g.Lock()
	defer g.Unlock()
	return len(g.subs)
}

// PollListener is sampled by a PollGroup.
type PollListener interface {
	Poll()
}
