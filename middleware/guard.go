package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/comalice/storex"
)

// ErrGuardRejected is returned for actions a Guard refuses.
var ErrGuardRejected = errors.New("action rejected by guard")

// Guard drops actions for which allow returns false. The reducer never sees
// them and listeners are not called. Non-action messages pass through.
func Guard[S any](allow func(state S, action storex.Action) bool) storex.Middleware[S] {
	return func(api storex.API[S]) func(next storex.Dispatcher) storex.Dispatcher {
		return func(next storex.Dispatcher) storex.Dispatcher {
			return func(msg any) (any, error) {
				a, ok := storex.AsAction(msg)
				if ok && allow != nil && !allow(api.GetState(), a) {
					return nil, fmt.Errorf("%w: %q", ErrGuardRejected, a.Type)
				}
				return next(msg)
			}
		}
	}
}

// Expr is a parsed condition of the form "path op value" evaluated against
// a combined state tree, e.g. "counter < 10" or "session.loggedIn == true".
// Supported operators: == != < <= > >=.
type Expr struct {
	path  []string
	op    string
	raw   string
	num   float64
	isNum bool
}

// ParseExpr parses s into an Expr.
func ParseExpr(s string) (Expr, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return Expr{}, fmt.Errorf("expression %q: want \"path op value\"", s)
	}
	key, op, val := parts[0], parts[1], parts[2]
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
	default:
		return Expr{}, fmt.Errorf("expression %q: unknown operator %q", s, op)
	}

	e := Expr{path: strings.Split(key, "."), op: op, raw: val}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		e.num, e.isNum = f, true
	} else if op != "==" && op != "!=" {
		return Expr{}, fmt.Errorf("expression %q: %s needs a number", s, op)
	}
	return e, nil
}

// MustParseExpr is like ParseExpr but panics on error.
func MustParseExpr(s string) Expr {
	e, err := ParseExpr(s)
	if err != nil {
		panic(err)
	}
	return e
}

// Eval reports whether the condition holds. Missing paths fail closed.
func (e Expr) Eval(state storex.Tree) bool {
	v, ok := lookup(state, e.path)
	if !ok {
		return false
	}

	if e.isNum {
		f, ok := toFloat(v)
		if !ok {
			return e.op == "!="
		}
		switch e.op {
		case "==":
			return f == e.num
		case "!=":
			return f != e.num
		case "<":
			return f < e.num
		case "<=":
			return f <= e.num
		case ">":
			return f > e.num
		case ">=":
			return f >= e.num
		}
		return false
	}

	eq := equalLiteral(v, e.raw)
	if e.op == "!=" {
		return !eq
	}
	return eq
}

// When builds a Guard predicate that applies expr only to the listed action
// types; other actions are always allowed. With no types it applies to all.
func When(expr Expr, actionTypes ...string) func(storex.Tree, storex.Action) bool {
	types := make(map[string]bool, len(actionTypes))
	for _, t := range actionTypes {
		types[t] = true
	}
	return func(state storex.Tree, a storex.Action) bool {
		if len(types) > 0 && !types[a.Type] {
			return true
		}
		return expr.Eval(state)
	}
}

func lookup(state storex.Tree, path []string) (any, bool) {
	var cur any = map[string]any(state)
	for _, key := range path {
		var m map[string]any
		switch t := cur.(type) {
		case storex.Tree:
			m = t
		case map[string]any:
			m = t
		default:
			return nil, false
		}
		v, ok := m[key]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func equalLiteral(v any, lit string) bool {
	switch lit {
	case "true":
		return v == true
	case "false":
		return v == false
	case "nil":
		return v == nil
	}
	s, ok := v.(string)
	return ok && s == strings.Trim(lit, `"'`)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
