package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/comalice/storex"
)

func TestPublishDeliversAppliedActions(t *testing.T) {
	ch := make(chan PublishedAction, 10)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	st := newStore(t, Publish[int](NewChannelPublisher(ch), "counter", WithClock(func() time.Time { return fixed })))

	if _, err := st.Dispatch(storex.NewAction("INC", nil)); err != nil {
		t.Fatal(err)
	}
	_, _ = st.Dispatch("not an action")

	select {
	case got := <-ch:
		if got.Action.Type != "INC" || got.StoreID != "counter" {
			t.Errorf("unexpected published action %+v", got)
		}
		if got.ID == "" {
			t.Error("published action should carry an ID")
		}
		if !got.Timestamp.Equal(fixed) {
			t.Errorf("timestamp %v, want %v", got.Timestamp, fixed)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no action published")
	}
	if len(ch) != 0 {
		t.Errorf("failed dispatches must not publish, %d extra", len(ch))
	}
}

func TestChannelPublisherBackpressureDrop(t *testing.T) {
	ch := make(chan PublishedAction, 1)
	p := NewChannelPublisher(ch)
	ch <- PublishedAction{} // Fill buffer

	if err := p.Publish(context.Background(), PublishedAction{ID: "x"}); err != nil {
		t.Errorf("Publish on full channel failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, PublishedAction) error {
	return errors.New("broker down")
}

func TestPublishErrorsGoToHandler(t *testing.T) {
	var got error
	st := newStore(t, Publish[int](failingPublisher{}, "counter", WithErrorHandler(func(err error) { got = err })))

	if _, err := st.Dispatch(storex.NewAction("INC", nil)); err != nil {
		t.Fatalf("publish failure must not fail the dispatch: %v", err)
	}
	if got == nil || st.GetState() != 1 {
		t.Errorf("expected handler to see the failure, got %v (state %d)", got, st.GetState())
	}
}
