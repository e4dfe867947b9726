package service

import (
	"sync/atomic"
	"time"
)

// State: живость сессии дашборда, пишется инжесторами из своих горутин.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected   atomic.Bool
	reconnects    atomic.Int64
	lastEventUnix atomic.Int64 // unix seconds
	lastPollUnix  atomic.Int64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) IncReconnects()    { s.reconnects.Add(1) }
func (s *State) Reconnects() int64 { return s.reconnects.Load() }

func (s *State) TouchEvent(t time.Time) { s.lastEventUnix.Store(t.Unix()) }
func (s *State) LastEvent() time.Time   { return fromUnix(s.lastEventUnix.Load()) }

func (s *State) TouchPoll(t time.Time) { s.lastPollUnix.Store(t.Unix()) }
func (s *State) LastPoll() time.Time   { return fromUnix(s.lastPollUnix.Load()) }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func fromUnix(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}
