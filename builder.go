package storex

import (
	"errors"
	"fmt"
)

// Handler computes the next state for one action type.
type Handler[S any] func(state S, action Action) S

// ReducerBuilder provides a fluent API for building a reducer from
// per-action-type handlers instead of one hand-written switch.
type ReducerBuilder[S any] struct {
	initial  S
	handlers map[string]Handler[S]
	order    []string // registration order, for error messages
	fallback Handler[S]
	errs     []error
}

// NewReducerBuilder starts a reducer whose state defaults to initial when it
// runs without prior state (see StateUndefined).
func NewReducerBuilder[S any](initial S) *ReducerBuilder[S] {
	return &ReducerBuilder[S]{
		initial:  initial,
		handlers: make(map[string]Handler[S]),
	}
}

// On registers handler for actionType.
// Registering the same type twice is reported by Build.
func (b *ReducerBuilder[S]) On(actionType string, handler Handler[S]) *ReducerBuilder[S] {
	switch {
	case actionType == "":
		b.errs = append(b.errs, ErrUndefinedActionType)
	case IsReserved(actionType):
		b.errs = append(b.errs, fmt.Errorf("action type %q is reserved", actionType))
	case handler == nil:
		b.errs = append(b.errs, fmt.Errorf("handler for %q is nil", actionType))
	default:
		if _, exists := b.handlers[actionType]; exists {
			b.errs = append(b.errs, fmt.Errorf("duplicate handler for action type %q", actionType))
			return b
		}
		b.handlers[actionType] = handler
		b.order = append(b.order, actionType)
	}
	return b
}

// OnMany registers the same handler for several action types.
func (b *ReducerBuilder[S]) OnMany(actionTypes []string, handler Handler[S]) *ReducerBuilder[S] {
	for _, t := range actionTypes {
		b.On(t, handler)
	}
	return b
}

// Default sets the handler for action types with no registered handler.
// Reserved actions never reach it.
func (b *ReducerBuilder[S]) Default(handler Handler[S]) *ReducerBuilder[S] {
	b.fallback = handler
	return b
}

// Types returns the registered action types in registration order.
func (b *ReducerBuilder[S]) Types() []string {
	return append([]string(nil), b.order...)
}

// Build validates the registrations and returns the reducer.
func (b *ReducerBuilder[S]) Build() (Reducer[S], error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}

	handlers := make(map[string]Handler[S], len(b.handlers))
	for k, h := range b.handlers {
		handlers[k] = h
	}
	initial, fallback := b.initial, b.fallback

	return func(state S, action Action) S {
		if StateUndefined(action) {
			state = initial
		}
		if h, ok := handlers[action.Type]; ok {
			return h(state, action)
		}
		if fallback != nil && !IsReserved(action.Type) {
			return fallback(state, action)
		}
		return state
	}, nil
}
