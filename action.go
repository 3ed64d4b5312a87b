package storex

import (
	"strings"

	"github.com/google/uuid"
)

// Action describes an intended state transition.
//
// Actions are values. Once dispatched they must not be mutated; reducers and
// listeners may retain them.
type Action struct {
	Type    string
	Payload any
	Meta    map[string]any
}

// NewAction returns an Action of the given type carrying payload.
func NewAction(actionType string, payload any) Action {
	return Action{Type: actionType, Payload: payload}
}

// reservedPrefix namespaces the actions the store dispatches itself.
const reservedPrefix = "@@storex/"

// Reserved action types. The random suffix is fixed for the life of the
// process so reducers can never match them by accident.
var (
	ActionInit    = reservedType("INIT")
	ActionReplace = reservedType("REPLACE")
)

// ActionProbeUnknown returns a fresh action type that no reducer can
// recognize. CombineReducers uses it to check slice reducers fall through
// to their current state.
func ActionProbeUnknown() string {
	return reservedType("PROBE_UNKNOWN_ACTION")
}

// IsReserved reports whether actionType belongs to the store's own namespace.
func IsReserved(actionType string) bool {
	return strings.HasPrefix(actionType, reservedPrefix)
}

func reservedType(name string) string {
	return reservedPrefix + name + "." + uuid.NewString()
}

// AsAction extracts an Action from a dispatched message. It accepts Action
// and non-nil *Action; everything else reports false.
func AsAction(msg any) (Action, bool) {
	switch a := msg.(type) {
	case Action:
		return a, true
	case *Action:
		if a == nil {
			return Action{}, false
		}
		return *a, true
	default:
		return Action{}, false
	}
}

// metaUndefined marks an action delivered to a reducer that has no state
// yet: a store without preloaded state at init, or a combined slice that
// did not exist before.
var metaUndefined = reservedType("UNDEFINED_STATE")

// StateUndefined reports whether the reducer receiving action has no prior
// state and should start from its own default. The zero value of S is not
// the same thing: a counter at 0 is real state.
func StateUndefined(action Action) bool {
	v, _ := action.Meta[metaUndefined].(bool)
	return v
}

func withUndefinedState(action Action) Action {
	meta := make(map[string]any, len(action.Meta)+1)
	for k, v := range action.Meta {
		meta[k] = v
	}
	meta[metaUndefined] = true
	action.Meta = meta
	return action
}
