package middleware

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/comalice/storex"
)

func counter(state int, action storex.Action) int {
	switch action.Type {
	case "INC":
		return state + 1
	case "ADD":
		return state + action.Payload.(int)
	}
	return state
}

func newStore(t *testing.T, mws ...storex.Middleware[int]) *storex.Store[int] {
	t.Helper()
	st, err := storex.New(counter, storex.WithEnhancer(storex.ApplyMiddleware(mws...)))
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestLoggerLogsAroundDispatch(t *testing.T) {
	var buf bytes.Buffer
	st := newStore(t, Logger[int](log.New(&buf, "", 0)))

	if _, err := st.Dispatch(storex.NewAction("INC", nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Dispatch("junk"); err == nil {
		t.Fatal("expected error for non-action message")
	}

	out := buf.String()
	if !strings.Contains(out, `dispatch "INC"`) || !strings.Contains(out, "done in") {
		t.Errorf("missing success lines in %q", out)
	}
	if !strings.Contains(out, "dispatch string failed") {
		t.Errorf("missing failure line in %q", out)
	}
}

func TestThunksRunInsteadOfForwarding(t *testing.T) {
	var seen []string
	spy := func(api storex.API[int]) func(storex.Dispatcher) storex.Dispatcher {
		return func(next storex.Dispatcher) storex.Dispatcher {
			return func(msg any) (any, error) {
				seen = append(seen, describe(msg))
				return next(msg)
			}
		}
	}
	st := newStore(t, Thunks[int](), spy)

	thunk := Thunk[int](func(dispatch storex.Dispatcher, getState func() int) (any, error) {
		if _, err := dispatch(storex.NewAction("ADD", 2)); err != nil {
			return nil, err
		}
		if _, err := dispatch(storex.NewAction("INC", nil)); err != nil {
			return nil, err
		}
		return getState() * 10, nil
	})

	result, err := st.Dispatch(thunk)
	if err != nil {
		t.Fatal(err)
	}
	if result != 30 {
		t.Errorf("thunk result %v, want 30", result)
	}
	if st.GetState() != 3 {
		t.Errorf("state %d, want 3", st.GetState())
	}
	if len(seen) != 2 {
		t.Errorf("inner actions should re-enter the chain once each, saw %v", seen)
	}

	// Plain function literals with the thunk signature work too.
	_, err = st.Dispatch(func(dispatch storex.Dispatcher, _ func() int) (any, error) {
		return dispatch(storex.NewAction("INC", nil))
	})
	if err != nil || st.GetState() != 4 {
		t.Errorf("literal thunk: state %d err %v", st.GetState(), err)
	}
}

func TestThunkWithoutMiddlewareIsInvalid(t *testing.T) {
	st, err := storex.New(counter)
	if err != nil {
		t.Fatal(err)
	}
	_, err = st.Dispatch(Thunk[int](func(storex.Dispatcher, func() int) (any, error) { return nil, nil }))
	if !errors.Is(err, storex.ErrInvalidAction) {
		t.Errorf("expected ErrInvalidAction, got %v", err)
	}
}

func TestGuardRejects(t *testing.T) {
	st := newStore(t, Guard(func(state int, a storex.Action) bool {
		return a.Type != "INC" || state < 2
	}))

	notified := 0
	if _, err := st.Subscribe(func() { notified++ }); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Dispatch(storex.NewAction("INC", nil)); err != nil {
			t.Fatal(err)
		}
	}
	_, err := st.Dispatch(storex.NewAction("INC", nil))
	if !errors.Is(err, ErrGuardRejected) {
		t.Fatalf("expected ErrGuardRejected, got %v", err)
	}
	if st.GetState() != 2 || notified != 2 {
		t.Errorf("rejected action must not reach reducer or listeners: state %d, notified %d", st.GetState(), notified)
	}
	if _, err := st.Dispatch(storex.NewAction("ADD", 5)); err != nil {
		t.Errorf("other actions should pass: %v", err)
	}
}

func TestExprEval(t *testing.T) {
	state := storex.Tree{
		"counter": 5,
		"ratio":   0.5,
		"session": storex.Tree{"loggedIn": true, "user": "ada"},
		"raw":     map[string]any{"depth": map[string]any{"n": int64(2)}},
	}
	tests := []struct {
		expr string
		want bool
	}{
		{"counter < 10", true},
		{"counter >= 5", true},
		{"counter > 5", false},
		{"counter == 5", true},
		{"counter != 5", false},
		{"ratio <= 0.5", true},
		{"session.loggedIn == true", true},
		{"session.loggedIn != true", false},
		{"session.user == ada", true},
		{`session.user == "bob"`, false},
		{"raw.depth.n == 2", true},
		{"missing == nil", false},
		{"session.user > 1", false},
		{"session.user != 1", true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := MustParseExpr(tt.expr).Eval(state); got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParseExprErrors(t *testing.T) {
	for _, s := range []string{"", "counter", "counter ~ 3", "counter < abc"} {
		if _, err := ParseExpr(s); err == nil {
			t.Errorf("ParseExpr(%q): expected error", s)
		}
	}
}

func TestWhenGuardsListedTypesOnly(t *testing.T) {
	allow := When(MustParseExpr("session.loggedIn == true"), "todos/add")
	loggedOut := storex.Tree{"session": storex.Tree{"loggedIn": false}}

	if allow(loggedOut, storex.NewAction("todos/add", nil)) {
		t.Error("todos/add should be blocked while logged out")
	}
	if !allow(loggedOut, storex.NewAction("session/login", nil)) {
		t.Error("unlisted types should pass")
	}
}
