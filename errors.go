package storex

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidReducer            = errors.New("reducer must be a non-nil function")
	ErrInvalidEnhancer           = errors.New("enhancer must be a non-nil function")
	ErrInvalidAction             = errors.New("actions must be storex.Action values; use a middleware for other message kinds")
	ErrUndefinedActionType       = errors.New("action has an empty type")
	ErrReducerInFlight           = errors.New("dispatch already in progress on this store")
	ErrUndefinedSliceState       = errors.New("slice reducer returned undefined state")
	ErrInvalidActionCreator      = errors.New("action creator must be a function")
	ErrCreatorArguments          = errors.New("arguments do not match the action creator's parameters")
	ErrInvalidListener           = errors.New("listener must be a non-nil function")
	ErrInvalidObserver           = errors.New("observer must be non-nil")
	ErrInvalidMiddleware         = errors.New("middleware must be a non-nil function")
	ErrInvalidDispatch           = errors.New("dispatch must be a non-nil function")
	ErrDispatchWhileConstructing = errors.New("dispatching while constructing middleware is not allowed")
)

// SliceStateError reports a slice reducer that returned nil.
type SliceStateError struct {
	Key        string
	ActionType string
}

func (e *SliceStateError) Error() string {
	if e.ActionType == ActionInit {
		return fmt.Sprintf("slice %q returned undefined during initialization; return the initial state instead of nil", e.Key)
	}
	return fmt.Sprintf("slice %q returned undefined handling action %q; return the previous state to ignore an action", e.Key, e.ActionType)
}

func (e *SliceStateError) Unwrap() error { return ErrUndefinedSliceState }

// CreatorError names the map entry BindActionCreators rejected.
type CreatorError struct {
	Key    string
	Type   string
	Reason string // empty means the entry is not a function
}

func (e *CreatorError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("action creator %q of type %s: %s", e.Key, e.Type, e.Reason)
	}
	return fmt.Sprintf("action creator %q: expected a function, got %s", e.Key, e.Type)
}

func (e *CreatorError) Unwrap() error { return ErrInvalidActionCreator }
