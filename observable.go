package storex

// Observer receives state values from an Observable.
type Observer[S any] interface {
	Next(state S)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc[S any] func(state S)

// Next calls f(state).
func (f ObserverFunc[S]) Next(state S) { f(state) }

// Subscription is returned by Observable.Subscribe.
type Subscription interface {
	Unsubscribe()
}

// Observable lets reactive-stream consumers follow a store's state.
// Streams never complete on their own.
type Observable[S any] interface {
	Subscribe(o Observer[S]) (Subscription, error)
}

type unsubscribeFunc func()

func (f unsubscribeFunc) Unsubscribe() { f() }

type storeObservable[S any] struct {
	store *Store[S]
}

// Observable returns the interop view of s. Each observer receives the
// current state on subscription and the new state after every dispatch.
func (s *Store[S]) Observable() Observable[S] {
	return storeObservable[S]{store: s}
}

func (o storeObservable[S]) Subscribe(observer Observer[S]) (Subscription, error) {
	if observer == nil {
		return nil, ErrInvalidObserver
	}
	if f, ok := observer.(ObserverFunc[S]); ok && f == nil {
		return nil, ErrInvalidObserver
	}
	observe := func() { observer.Next(o.store.GetState()) }
	observe()
	unsubscribe, err := o.store.Subscribe(observe)
	if err != nil {
		return nil, err
	}
	return unsubscribeFunc(unsubscribe), nil
}
