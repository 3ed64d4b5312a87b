package storex

// API is the view of a store handed to middleware.
type API[S any] interface {
	GetState() S
	// Dispatch re-enters the full chain, including the calling middleware.
	Dispatch(msg any) (any, error)
}

// Middleware intercepts messages on their way to the reducer.
type Middleware[S any] func(api API[S]) func(next Dispatcher) Dispatcher

type middlewareAPI[S any] struct {
	store    *Store[S]
	dispatch *Dispatcher
}

func (a middlewareAPI[S]) GetState() S { return a.store.GetState() }

func (a middlewareAPI[S]) Dispatch(msg any) (any, error) { return (*a.dispatch)(msg) }

// ApplyMiddleware returns an enhancer that routes Dispatch through mws.
// The first middleware sees each message first; the raw store dispatch is
// the innermost link.
func ApplyMiddleware[S any](mws ...Middleware[S]) Enhancer[S] {
	mws = append([]Middleware[S](nil), mws...)
	return func(next StoreCreator[S]) StoreCreator[S] {
		return func(reducer Reducer[S], opts ...Option[S]) (*Store[S], error) {
			for _, mw := range mws {
				if mw == nil {
					return nil, ErrInvalidMiddleware
				}
			}

			store, err := next(reducer, opts...)
			if err != nil {
				return nil, err
			}

			dispatch := Dispatcher(func(any) (any, error) {
				return nil, ErrDispatchWhileConstructing
			})
			api := middlewareAPI[S]{store: store, dispatch: &dispatch}

			chain := make([]func(Dispatcher) Dispatcher, len(mws))
			for i, mw := range mws {
				chain[i] = mw(api)
			}
			dispatch = Compose(chain...)(store.dispatch)
			store.dispatch = dispatch
			return store, nil
		}
	}
}
