// Package testutil holds helpers for testing code built on storex.
package testutil

import (
	"sync"
	"time"

	"github.com/comalice/storex"
)

// Recorder subscribes to a store and keeps every state seen after a
// dispatch. Thread-safe.
type Recorder[S any] struct {
	mu     sync.Mutex
	states []S
	stop   func()
}

// Record starts recording st.
func Record[S any](st *storex.Store[S]) *Recorder[S] {
	r := &Recorder[S]{}
	stop, err := st.Subscribe(func() {
		state := st.GetState()
		r.mu.Lock()
		r.states = append(r.states, state)
		r.mu.Unlock()
	})
	if err != nil {
		// Subscribe only fails for a nil listener.
		panic(err)
	}
	r.stop = stop
	return r
}

// States returns a copy of the recorded states, oldest first.
func (r *Recorder[S]) States() []S {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]S(nil), r.states...)
}

// Len returns how many notifications were recorded.
func (r *Recorder[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// Last returns the most recent state, or false if none was recorded.
func (r *Recorder[S]) Last() (S, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero S
	if len(r.states) == 0 {
		return zero, false
	}
	return r.states[len(r.states)-1], true
}

// Stop unsubscribes. Recorded states are kept.
func (r *Recorder[S]) Stop() { r.stop() }

// ActionLog is middleware recording every message that reaches it, with
// the error the rest of the chain returned. Thread-safe.
type ActionLog[S any] struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry is one recorded message.
type LogEntry struct {
	Msg any
	Err error
}

// Middleware returns the recording middleware.
func (l *ActionLog[S]) Middleware() storex.Middleware[S] {
	return func(api storex.API[S]) func(next storex.Dispatcher) storex.Dispatcher {
		return func(next storex.Dispatcher) storex.Dispatcher {
			return func(msg any) (any, error) {
				result, err := next(msg)
				l.mu.Lock()
				l.entries = append(l.entries, LogEntry{Msg: msg, Err: err})
				l.mu.Unlock()
				return result, err
			}
		}
	}
}

// Entries returns a copy of the log.
func (l *ActionLog[S]) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// Types returns the action types that were applied without error.
func (l *ActionLog[S]) Types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var types []string
	for _, e := range l.entries {
		if a, ok := storex.AsAction(e.Msg); ok && e.Err == nil {
			types = append(types, a.Type)
		}
	}
	return types
}

// WaitFor polls cond until it holds or timeout passes.
func WaitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}
