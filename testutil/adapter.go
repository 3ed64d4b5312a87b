package testutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comalice/storex"
	"github.com/comalice/storex/realtime"
)

// Driver provides a common interface for feeding a store directly or
// through a tick-based realtime.Dispatcher.
// This allows running the same test suite both ways.
type Driver[S any] interface {
	Start(ctx context.Context) error
	Stop() error
	Send(msg any) error
	State() S
	// Settle waits until every sent message has been applied and returns
	// the dispatch errors seen since the last Settle.
	Settle(timeout time.Duration) error
}

// DirectDriver dispatches synchronously on the caller's goroutine.
type DirectDriver[S any] struct {
	store *storex.Store[S]
	errs  []error
}

// NewDirectDriver creates a driver dispatching straight to store.
func NewDirectDriver[S any](store *storex.Store[S]) *DirectDriver[S] {
	return &DirectDriver[S]{store: store}
}

func (d *DirectDriver[S]) Start(ctx context.Context) error { return nil }

func (d *DirectDriver[S]) Stop() error { return nil }

func (d *DirectDriver[S]) Send(msg any) error {
	if _, err := d.store.Dispatch(msg); err != nil {
		d.errs = append(d.errs, err)
	}
	return nil
}

func (d *DirectDriver[S]) State() S { return d.store.GetState() }

func (d *DirectDriver[S]) Settle(timeout time.Duration) error {
	err := errors.Join(d.errs...)
	d.errs = nil
	return err
}

// TickDriver queues messages on a realtime.Dispatcher.
type TickDriver[S any] struct {
	store *storex.Store[S]
	rt    *realtime.Dispatcher
}

// NewTickDriver creates a driver feeding store at tickRate.
func NewTickDriver[S any](store *storex.Store[S], tickRate time.Duration) *TickDriver[S] {
	return &TickDriver[S]{
		store: store,
		rt:    realtime.NewDispatcher(store, realtime.Config{TickRate: tickRate}),
	}
}

func (d *TickDriver[S]) Start(ctx context.Context) error { return d.rt.Start(ctx) }

func (d *TickDriver[S]) Stop() error { return d.rt.Stop() }

func (d *TickDriver[S]) Send(msg any) error { return d.rt.Send(msg) }

func (d *TickDriver[S]) State() S { return d.store.GetState() }

func (d *TickDriver[S]) Settle(timeout time.Duration) error {
	// Wait for one full tick after the queue drains so the batch that
	// held the last message has finished.
	deadline := time.Now().Add(timeout)
	for d.rt.Pending() > 0 {
		if time.Now().After(deadline) {
			return fmt.Errorf("%d messages still queued after %v", d.rt.Pending(), timeout)
		}
		time.Sleep(time.Millisecond)
	}
	tick := d.rt.TickNumber()
	for d.rt.TickNumber() <= tick {
		if time.Now().After(deadline) {
			return fmt.Errorf("no tick completed within %v", timeout)
		}
		time.Sleep(time.Millisecond)
	}

	var errs []error
	for {
		select {
		case e := <-d.rt.Errors():
			errs = append(errs, e)
		default:
			return errors.Join(errs...)
		}
	}
}
