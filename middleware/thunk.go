package middleware

import "github.com/comalice/storex"

// Thunk is a deferred unit of work dispatched in place of an action. It
// receives the full dispatch chain, so actions it dispatches pass through
// every middleware again.
type Thunk[S any] func(dispatch storex.Dispatcher, getState func() S) (any, error)

// Thunks runs Thunk messages instead of forwarding them. Everything else
// goes to next unchanged.
func Thunks[S any]() storex.Middleware[S] {
	return func(api storex.API[S]) func(next storex.Dispatcher) storex.Dispatcher {
		return func(next storex.Dispatcher) storex.Dispatcher {
			return func(msg any) (any, error) {
				switch t := msg.(type) {
				case Thunk[S]:
					return t(api.Dispatch, api.GetState)
				case func(storex.Dispatcher, func() S) (any, error):
					return t(api.Dispatch, api.GetState)
				}
				return next(msg)
			}
		}
	}
}
