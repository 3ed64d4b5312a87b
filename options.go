package storex

import (
	"io"
	"log"
)

// Option configures a Store via the functional options pattern.
type Option[S any] func(*config[S])

type config[S any] struct {
	name         string
	logger       *log.Logger
	preloaded    S
	hasPreloaded bool
	enhancer     Enhancer[S]
	enhancerSet  bool
}

func newConfig[S any](opts []Option[S]) *config[S] {
	cfg := &config[S]{
		name:   "store",
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithPreloadedState seeds the store with state instead of the reducer's
// own default. The reducer still receives the init action.
func WithPreloadedState[S any](state S) Option[S] {
	return func(c *config[S]) {
		c.preloaded = state
		c.hasPreloaded = true
	}
}

// WithEnhancer hands store construction to e. Passing nil is an error.
func WithEnhancer[S any](e Enhancer[S]) Option[S] {
	return func(c *config[S]) {
		c.enhancer = e
		c.enhancerSet = true
	}
}

// WithLogger configures the logger used for diagnostics. Silent by default.
func WithLogger[S any](l *log.Logger) Option[S] {
	return func(c *config[S]) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithName labels the store in logs, metrics and snapshots.
func WithName[S any](name string) Option[S] {
	return func(c *config[S]) {
		if name != "" {
			c.name = name
		}
	}
}

// withoutEnhancer is appended when an enhancer calls back into New so the
// inner construction builds a plain store.
func withoutEnhancer[S any]() Option[S] {
	return func(c *config[S]) {
		c.enhancer = nil
		c.enhancerSet = false
	}
}
