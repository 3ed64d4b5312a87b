// Package todos is the sample domain used by the demo CLI and examples: a
// todo list plus a visibility filter, combined into one store.
package todos

import (
	"fmt"
	"log"

	"github.com/comalice/storex"
)

// Action types.
const (
	ActionAdd            = "todos/add"
	ActionToggle         = "todos/toggle"
	ActionClearCompleted = "todos/clearCompleted"
	ActionSetFilter      = "visibility/set"
)

// Filters accepted by ActionSetFilter.
const (
	ShowAll       = "all"
	ShowActive    = "active"
	ShowCompleted = "completed"
)

// Todo is one list entry.
type Todo struct {
	ID   int    `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
	Done bool   `json:"done" yaml:"done"`
}

// ListReducer handles the "todos" slice.
func ListReducer() (storex.Reducer[[]Todo], error) {
	return storex.NewReducerBuilder([]Todo{}).
		On(ActionAdd, func(list []Todo, a storex.Action) []Todo {
			text, _ := a.Payload.(string)
			next := make([]Todo, len(list), len(list)+1)
			copy(next, list)
			return append(next, Todo{ID: nextID(list), Text: text})
		}).
		On(ActionToggle, func(list []Todo, a storex.Action) []Todo {
			id, ok := a.Payload.(int)
			if !ok {
				return list
			}
			next := make([]Todo, len(list))
			copy(next, list)
			for i := range next {
				if next[i].ID == id {
					next[i].Done = !next[i].Done
					return next
				}
			}
			return list
		}).
		On(ActionClearCompleted, func(list []Todo, a storex.Action) []Todo {
			next := make([]Todo, 0, len(list))
			for _, t := range list {
				if !t.Done {
					next = append(next, t)
				}
			}
			if len(next) == len(list) {
				return list
			}
			return next
		}).
		Build()
}

// FilterReducer handles the "visibility" slice.
func FilterReducer() (storex.Reducer[string], error) {
	return storex.NewReducerBuilder(ShowAll).
		On(ActionSetFilter, func(current string, a storex.Action) string {
			switch f, _ := a.Payload.(string); f {
			case ShowAll, ShowActive, ShowCompleted:
				return f
			}
			return current
		}).
		Build()
}

// Reducer combines both slices.
func Reducer(logger *log.Logger) (storex.Reducer[storex.Tree], error) {
	list, err := ListReducer()
	if err != nil {
		return nil, fmt.Errorf("todos reducer: %w", err)
	}
	filter, err := FilterReducer()
	if err != nil {
		return nil, fmt.Errorf("visibility reducer: %w", err)
	}
	return storex.CombineReducers(map[string]any{
		"todos":      storex.Lift(list),
		"visibility": storex.Lift(filter),
	}, storex.WithCombineLogger(logger))
}

// Creators are the action creators for BindActionCreators.
func Creators() map[string]any {
	return map[string]any{
		"add":            func(args ...any) storex.Action { return storex.NewAction(ActionAdd, fmt.Sprint(args...)) },
		"toggle":         func(args ...any) storex.Action { return storex.NewAction(ActionToggle, firstInt(args)) },
		"clearCompleted": func() storex.Action { return storex.NewAction(ActionClearCompleted, nil) },
		"setFilter":      func(args ...any) storex.Action { return storex.NewAction(ActionSetFilter, fmt.Sprint(args...)) },
	}
}

// Visible returns the todos the current filter lets through.
func Visible(state storex.Tree) []Todo {
	list, _ := storex.Slice[[]Todo](state, "todos")
	filter, _ := storex.Slice[string](state, "visibility")
	out := make([]Todo, 0, len(list))
	for _, t := range list {
		switch {
		case filter == ShowActive && t.Done:
		case filter == ShowCompleted && !t.Done:
		default:
			out = append(out, t)
		}
	}
	return out
}

func nextID(list []Todo) int {
	id := 0
	for _, t := range list {
		if t.ID >= id {
			id = t.ID + 1
		}
	}
	return id
}

func firstInt(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}
