// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"github.com/comalice/storex"
)

// Counter is the reducer most benchmarks dispatch "tick" to.
func Counter(state int, action storex.Action) int {
	if action.Type == "tick" {
		return state + 1
	}
	return state
}

// GenCombinedReducer creates a combined reducer with n integer slices.
// Only slice s0 reacts to "tick"; the others return their state unchanged.
func GenCombinedReducer(n int) (storex.Reducer[storex.Tree], error) {
	if n < 1 {
		n = 1
	}
	reducers := make(map[string]any, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("s%d", i)
		if i == 0 {
			reducers[key] = storex.Lift(Counter)
			continue
		}
		reducers[key] = storex.Lift(func(state int, _ storex.Action) int { return state })
	}
	return storex.CombineReducers(reducers)
}

// GenPassThrough creates n middleware that only forward to next.
func GenPassThrough[S any](n int) []storex.Middleware[S] {
	mws := make([]storex.Middleware[S], n)
	for i := range mws {
		mws[i] = func(storex.API[S]) func(storex.Dispatcher) storex.Dispatcher {
			return func(next storex.Dispatcher) storex.Dispatcher { return next }
		}
	}
	return mws
}

// NewCounterStore creates a counter store with n pass-through middleware.
func NewCounterStore(n int) (*storex.Store[int], error) {
	if n == 0 {
		return storex.New(Counter)
	}
	return storex.New(Counter, storex.WithEnhancer(storex.ApplyMiddleware(GenPassThrough[int](n)...)))
}
