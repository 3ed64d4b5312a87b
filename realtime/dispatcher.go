package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

var (
	ErrQueueFull      = errors.New("message queue full")
	ErrAlreadyStarted = errors.New("dispatcher already started")
	ErrNotStarted     = errors.New("dispatcher not started")
	ErrPanic          = errors.New("panic during dispatch")
)

// Target is what a Dispatcher feeds; *storex.Store satisfies it.
type Target interface {
	Dispatch(msg any) (any, error)
}

// DispatchError reports one message the target rejected during a tick.
type DispatchError struct {
	Tick        uint64
	SequenceNum uint64
	Msg         any
	Err         error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("tick %d, message %d (%T): %v", e.Tick, e.SequenceNum, e.Msg, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Config configures a Dispatcher.
type Config struct {
	TickRate           time.Duration // Fixed tick rate (default 16.67ms, 60 FPS)
	MaxMessagesPerTick int           // Queue capacity (default 1000)
	ErrorBuffer        int           // Errors() capacity (default 64)
	Logger             *log.Logger   // default discards
}

// Dispatcher batches messages and dispatches them to its target once per
// tick from a single goroutine.
type Dispatcher struct {
	target   Target
	tickRate time.Duration
	logger   *log.Logger

	batchMu     sync.Mutex
	batch       []Envelope
	sequenceNum uint64
	tickNum     uint64

	tickMu sync.Mutex // serializes processTick between the loop and Flush
	errs   chan *DispatchError

	runMu      sync.Mutex
	tickCancel context.CancelFunc
	stopped    chan struct{}
}

// NewDispatcher creates a Dispatcher feeding target.
func NewDispatcher(target Target, cfg Config) *Dispatcher {
	if cfg.MaxMessagesPerTick <= 0 {
		cfg.MaxMessagesPerTick = 1000
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 16667 * time.Microsecond // Default 60 FPS
	}
	if cfg.ErrorBuffer <= 0 {
		cfg.ErrorBuffer = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	return &Dispatcher{
		target:   target,
		tickRate: cfg.TickRate,
		logger:   cfg.Logger,
		batch:    make([]Envelope, 0, cfg.MaxMessagesPerTick),
		errs:     make(chan *DispatchError, cfg.ErrorBuffer),
	}
}

// Start begins tick-based execution. It returns immediately.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.tickCancel != nil {
		return ErrAlreadyStarted
	}

	tickCtx, cancel := context.WithCancel(ctx)
	d.tickCancel = cancel
	d.stopped = make(chan struct{})
	go d.tickLoop(tickCtx, d.stopped)
	return nil
}

// Stop halts the tick loop and waits for the current tick to finish.
// Messages still queued stay queued; Flush applies them.
func (d *Dispatcher) Stop() error {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.tickCancel == nil {
		return ErrNotStarted
	}
	d.tickCancel()
	<-d.stopped
	d.tickCancel = nil
	return nil
}

func (d *Dispatcher) tickLoop(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(d.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.processTick()
		}
	}
}

// Send queues msg for the next tick (thread-safe).
func (d *Dispatcher) Send(msg any) error {
	return d.SendWithPriority(msg, 0)
}

// SendWithPriority queues msg with the given priority. Higher priorities
// are dispatched first within a tick.
func (d *Dispatcher) SendWithPriority(msg any, priority int) error {
	d.batchMu.Lock()
	defer d.batchMu.Unlock()

	if len(d.batch) >= cap(d.batch) {
		return ErrQueueFull
	}
	d.batch = append(d.batch, Envelope{
		Msg:         msg,
		SequenceNum: d.sequenceNum,
		Priority:    priority,
	})
	d.sequenceNum++
	return nil
}

// Flush dispatches everything queued right now, on the calling goroutine,
// and counts as one tick. Useful for tests and for draining after Stop.
func (d *Dispatcher) Flush() {
	d.processTick()
}

// TickNumber returns the number of completed ticks.
func (d *Dispatcher) TickNumber() uint64 {
	d.batchMu.Lock()
	defer d.batchMu.Unlock()
	return d.tickNum
}

// Pending returns the number of queued messages.
func (d *Dispatcher) Pending() int {
	d.batchMu.Lock()
	defer d.batchMu.Unlock()
	return len(d.batch)
}

// Errors delivers per-message failures. When nobody drains it, failures
// beyond its capacity are dropped.
func (d *Dispatcher) Errors() <-chan *DispatchError {
	return d.errs
}

func (d *Dispatcher) report(e *DispatchError) {
	d.logger.Printf("realtime: %v", e)
	select {
	case d.errs <- e:
	default: // drop on backpressure
	}
}
