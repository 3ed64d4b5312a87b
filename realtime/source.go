package realtime

import (
	"context"
	"time"
)

// Feed forwards every message received on src to the dispatcher until src
// is closed or ctx is done. Messages that do not fit in the queue are
// reported on Errors() with ErrQueueFull. Feed blocks; run it in its own
// goroutine.
func (d *Dispatcher) Feed(ctx context.Context, src <-chan any) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-src:
			if !ok {
				return
			}
			d.sendOrReport(msg)
		}
	}
}

// Every sends the message built by next once per interval until ctx is
// done. Useful for heartbeat and timeout actions. Every blocks.
func (d *Dispatcher) Every(ctx context.Context, interval time.Duration, next func() any) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sendOrReport(next())
		}
	}
}

func (d *Dispatcher) sendOrReport(msg any) {
	if err := d.Send(msg); err != nil {
		d.report(&DispatchError{Tick: d.TickNumber(), Msg: msg, Err: err})
	}
}
