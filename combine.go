package storex

import (
	"fmt"
	"io"
	"log"
	"sort"
	"sync"

	"github.com/comalice/storex/internal/codec"
)

// CombineOption configures CombineReducers.
type CombineOption func(*combineConfig)

type combineConfig struct {
	logger *log.Logger
}

// WithCombineLogger sets where configuration warnings go. Silent by default.
func WithCombineLogger(l *log.Logger) CombineOption {
	return func(c *combineConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// CombineReducers builds one reducer over a Tree from named slice reducers.
//
// Values must be Reducer[any] or func(any, Action) any (see Lift for typed
// slices); anything else is dropped with a warning. Every slice reducer is probed with the init action
// and an unknown action; a nil result for either is an error.
//
// The combined reducer returns its input Tree unchanged when no slice
// changed, so callers can skip work with an identity check.
func CombineReducers(reducers map[string]any, opts ...CombineOption) (Reducer[Tree], error) {
	cfg := &combineConfig{logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(cfg)
	}

	names := make([]string, 0, len(reducers))
	for k := range reducers {
		names = append(names, k)
	}
	sort.Strings(names)

	keys := make([]string, 0, len(names))
	fns := make([]Reducer[any], 0, len(names))
	for _, k := range names {
		var fn Reducer[any]
		switch r := reducers[k].(type) {
		case Reducer[any]:
			fn = r
		case func(any, Action) any:
			fn = r
		}
		if fn == nil {
			cfg.logger.Printf("combine: no reducer provided for key %q (got %T), slice dropped", k, reducers[k])
			continue
		}
		keys = append(keys, k)
		fns = append(fns, fn)
	}

	for i, k := range keys {
		if fns[i](nil, Action{Type: ActionInit}) == nil {
			return nil, &SliceStateError{Key: k, ActionType: ActionInit}
		}
		probe := ActionProbeUnknown()
		if fns[i](nil, Action{Type: probe}) == nil {
			return nil, fmt.Errorf("slice %q returned undefined when probed with an unknown action; "+
				"reducers must not handle reserved actions: %w", k, ErrUndefinedSliceState)
		}
	}

	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}
	var (
		warnMu sync.Mutex
		warned = map[string]bool{}
	)
	warnUnexpected := func(state Tree, action Action) {
		warnMu.Lock()
		defer warnMu.Unlock()
		for _, k := range state.Keys() {
			if known[k] || warned[k] {
				continue
			}
			warned[k] = true
			source := "previous state received by the reducer"
			if action.Type == ActionInit {
				source = "preloaded state"
			}
			cfg.logger.Printf("combine: unexpected key %q found in %s, it will be ignored", k, source)
		}
	}

	return func(state Tree, action Action) Tree {
		if action.Type != ActionReplace && len(state) > 0 {
			warnUnexpected(state, action)
		}

		changed := state == nil || len(state) != len(keys)
		next := make(Tree, len(keys))
		for i, k := range keys {
			prev := state[k]
			slice := fns[i](prev, action)
			if slice == nil {
				panic(&SliceStateError{Key: k, ActionType: action.Type})
			}
			next[k] = slice
			if !changed && !Same(prev, slice) {
				changed = true
			}
		}
		if !changed {
			return state
		}
		return next
	}, nil
}

// Lift adapts a typed slice reducer for CombineReducers. A nil slice state
// becomes the zero T and the action is marked with StateUndefined before the
// reducer runs. State of another shape, such
// as a slice decoded from a snapshot, is converted to T first and replaced
// by the zero T if that fails.
func Lift[T any](r Reducer[T]) Reducer[any] {
	return func(state any, action Action) any {
		var typed T
		switch s := state.(type) {
		case nil:
			action = withUndefinedState(action)
		case T:
			typed = s
		default:
			if v, err := codec.Convert[T](s); err == nil {
				typed = v
			}
		}
		return r(typed, action)
	}
}
