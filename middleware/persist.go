package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/comalice/storex"
	"github.com/comalice/storex/persist"
)

// Persist saves a snapshot of the state after every action the reducer
// accepted. Sequence numbers continue from the snapshot already stored under
// storeID. Save failures go to the error handler; the dispatch result is
// unaffected.
func Persist[S any](p persist.Persister, storeID string, opts ...Option) storex.Middleware[S] {
	o := newOptions(opts)
	var (
		seq    atomic.Uint64
		seeded sync.Once
	)
	seed := func(ctx context.Context) {
		snap, err := p.Load(ctx, storeID)
		switch {
		case err == nil:
			seq.CompareAndSwap(0, snap.Sequence)
		case !errors.Is(err, persist.ErrNotFound):
			o.onError(fmt.Errorf("persist %s: read last sequence: %w", storeID, err))
		}
	}
	return func(api storex.API[S]) func(next storex.Dispatcher) storex.Dispatcher {
		return func(next storex.Dispatcher) storex.Dispatcher {
			return func(msg any) (any, error) {
				result, err := next(msg)
				if err != nil {
					return result, err
				}
				a, ok := storex.AsAction(msg)
				if !ok {
					return result, nil
				}

				ctx, cancel := o.context()
				defer cancel()
				seeded.Do(func() { seed(ctx) })
				snap := persist.Snapshot{
					StoreID:    storeID,
					Sequence:   seq.Add(1),
					ActionType: a.Type,
					State:      api.GetState(),
					Timestamp:  o.now(),
				}
				if serr := p.Save(ctx, snap); serr != nil {
					o.onError(fmt.Errorf("persist %s after %q: %w", storeID, a.Type, serr))
				}
				return result, nil
			}
		}
	}
}

// Rehydrate loads the latest snapshot for storeID and returns an option
// preloading it. With no snapshot saved it returns a nil option, which
// storex.New ignores.
func Rehydrate[S any](ctx context.Context, p persist.Persister, storeID string) (storex.Option[S], error) {
	snap, err := p.Load(ctx, storeID)
	if errors.Is(err, persist.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rehydrate %s: %w", storeID, err)
	}
	state, err := persist.Decode[S](snap)
	if err != nil {
		return nil, fmt.Errorf("rehydrate %s: %w", storeID, err)
	}
	return storex.WithPreloadedState(state), nil
}
