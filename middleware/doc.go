// Package middleware provides ready-made storex middleware: logging,
// thunks, guards, Prometheus metrics, action publishing and snapshot
// persistence.
//
// Order matters. Middleware listed first sees a message first, so thunks
// usually go first and persistence last:
//
//	st, err := storex.New(reducer, storex.WithEnhancer(storex.ApplyMiddleware(
//		middleware.Thunks[State](),
//		middleware.Logger[State](logger),
//		middleware.Persist[State](p, "todos"),
//	)))
package middleware

import (
	"log"
	"time"
)

// Option tunes the side-effecting middleware (Publish, Persist).
type Option func(*options)

type options struct {
	logger  *log.Logger
	onError func(error)
	timeout time.Duration
	now     func() time.Time
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:  log.Default(),
		timeout: 5 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.onError == nil {
		o.onError = func(err error) { o.logger.Printf("storex: %v", err) }
	}
	return o
}

// WithLogger sets where failures are logged when no error handler is set.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithErrorHandler receives failures that happen after the reducer ran.
// Such failures never change the dispatch result.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// WithTimeout bounds each external call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
