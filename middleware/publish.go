package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/storex"
)

// PublishedAction is an applied action plus delivery metadata.
type PublishedAction struct {
	ID        string
	StoreID   string
	Action    storex.Action
	Timestamp time.Time
}

// Publisher forwards applied actions to the outside world.
type Publisher interface {
	Publish(ctx context.Context, pa PublishedAction) error
}

// ChannelPublisher forwards actions to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	ch chan<- PublishedAction
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- PublishedAction) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, pa PublishedAction) error {
	select {
	case p.ch <- pa:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil // Non-blocking drop
	}
}

func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}

// Publish hands every action the reducer accepted to pub. Failed dispatches
// and non-action messages are not published.
func Publish[S any](pub Publisher, storeID string, opts ...Option) storex.Middleware[S] {
	o := newOptions(opts)
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
				pa := PublishedAction{ID: uuid.NewString(), StoreID: storeID, Action: a, Timestamp: o.now()}
				if perr := pub.Publish(ctx, pa); perr != nil {
					o.onError(fmt.Errorf("publish %q for %s: %w", a.Type, storeID, perr))
				}
				return result, nil
			}
		}
	}
}

func (o *options) context() (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), o.timeout)
}
