// Package storex provides a single-writer, observable state container.
//
// A Store holds one state value of type S. The only way to change it is to
// Dispatch an Action; the store runs its Reducer against the current state
// and the action, swaps in the result and then calls every subscribed
// listener in subscription order.
//
// # Invariants
//
//   - Dispatch is synchronous: reducer and listeners finish before it returns.
//   - Dispatch is not re-entrant. Dispatching from a reducer, from a listener
//     or from another goroutine while a dispatch is running fails with
//     ErrReducerInFlight.
//   - Listeners see the subscriber list as it was when the dispatch began.
//     Subscribing or unsubscribing during a dispatch affects the next one.
//
// # Extension
//
// Behavior around Dispatch is added with enhancers, usually built from
// middleware with ApplyMiddleware:
//
//	st, err := storex.New(reducer,
//		storex.WithEnhancer(storex.ApplyMiddleware(mw1, mw2)),
//	)
//
// Concrete middleware lives in the middleware package; snapshot storage in
// the persist package.
package storex

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// Reducer computes the next state from the current state and an action.
// It must be pure and must return state unchanged for actions it ignores.
type Reducer[S any] func(state S, action Action) S

// Dispatcher sends a message down a dispatch chain.
type Dispatcher func(msg any) (any, error)

// StoreCreator is the signature of New; enhancers wrap it.
type StoreCreator[S any] func(reducer Reducer[S], opts ...Option[S]) (*Store[S], error)

// Enhancer decorates store construction.
type Enhancer[S any] func(next StoreCreator[S]) StoreCreator[S]

// Store is the mutable state cell.
// Safe to read from multiple goroutines; dispatches never overlap.
type Store[S any] struct {
	name   string
	logger *log.Logger

	mu        sync.RWMutex
	state     S
	reducer   Reducer[S]
	listeners []*subscription // copy-on-write; dispatch iterates a captured slice

	dispatching atomic.Bool
	dispatch    Dispatcher // exposed chain; rawDispatch unless enhanced
}

type subscription struct {
	fn func()
}

// New creates a Store and dispatches ActionInit to seed its state.
//
// With WithEnhancer, construction is delegated to enhancer(New) and its
// result returned as is.
func New[S any](reducer Reducer[S], opts ...Option[S]) (*Store[S], error) {
	cfg := newConfig(opts)
	if cfg.enhancerSet {
		if cfg.enhancer == nil {
			return nil, ErrInvalidEnhancer
		}
		forward := append(opts[:len(opts):len(opts)], withoutEnhancer[S]())
		return cfg.enhancer(New[S])(reducer, forward...)
	}
	if reducer == nil {
		return nil, ErrInvalidReducer
	}

	s := &Store[S]{
		name:    cfg.name,
		logger:  cfg.logger,
		state:   cfg.preloaded,
		reducer: reducer,
	}
	s.dispatch = s.rawDispatch

	init := Action{Type: ActionInit}
	if !cfg.hasPreloaded {
		init = withUndefinedState(init)
	}
	if _, err := s.rawDispatch(init); err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.name, err)
	}
	return s, nil
}

// Name returns the label given with WithName.
func (s *Store[S]) Name() string {
	return s.name
}

// GetState returns the current state. Treat it as read-only.
func (s *Store[S]) GetState() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch sends msg through the store's dispatch chain and returns the
// chain's result. Without middleware that is the action itself.
func (s *Store[S]) Dispatch(msg any) (any, error) {
	return s.dispatch(msg)
}

// Subscribe registers listener to run after every dispatch. The returned
// function removes it; calling it more than once is a no-op.
func (s *Store[S]) Subscribe(listener func()) (func(), error) {
	if listener == nil {
		return nil, ErrInvalidListener
	}
	sub := &subscription{fn: listener}

	s.mu.Lock()
	next := make([]*subscription, len(s.listeners), len(s.listeners)+1)
	copy(next, s.listeners)
	s.listeners = append(next, sub)
	s.mu.Unlock()

	return func() { s.unsubscribe(sub) }, nil
}

func (s *Store[S]) unsubscribe(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.listeners {
		if l != sub {
			continue
		}
		next := make([]*subscription, 0, len(s.listeners)-1)
		next = append(next, s.listeners[:i]...)
		s.listeners = append(next, s.listeners[i+1:]...)
		return
	}
}

// ReplaceReducer swaps the active reducer and dispatches ActionReplace so
// new slices pick up their defaults.
func (s *Store[S]) ReplaceReducer(next Reducer[S]) error {
	if next == nil {
		return ErrInvalidReducer
	}
	if !s.dispatching.CompareAndSwap(false, true) {
		return ErrReducerInFlight
	}
	defer s.dispatching.Store(false)

	s.mu.Lock()
	s.reducer = next
	s.mu.Unlock()

	s.logger.Printf("%s: reducer replaced", s.name)
	s.reduce(Action{Type: ActionReplace})
	return nil
}

// Close drops every listener and observer. The store keeps working.
func (s *Store[S]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = nil
}

// rawDispatch is the innermost link of every dispatch chain.
func (s *Store[S]) rawDispatch(msg any) (any, error) {
	action, ok := AsAction(msg)
	if !ok {
		return nil, fmt.Errorf("%w (got %T)", ErrInvalidAction, msg)
	}
	if action.Type == "" {
		return nil, ErrUndefinedActionType
	}
	if !s.dispatching.CompareAndSwap(false, true) {
		s.logger.Printf("%s: rejected %q: %v", s.name, action.Type, ErrReducerInFlight)
		return nil, ErrReducerInFlight
	}
	defer s.dispatching.Store(false)

	s.reduce(action)
	return msg, nil
}

// reduce runs the reducer and notifies listeners. The caller holds the
// dispatching flag.
func (s *Store[S]) reduce(action Action) {
	s.mu.RLock()
	current, reducer := s.state, s.reducer
	s.mu.RUnlock()

	next := reducer(current, action)

	s.mu.Lock()
	s.state = next
	listeners := s.listeners
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn()
	}
}
