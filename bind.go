package storex

import (
	"fmt"
	"reflect"
)

// ActionCreator builds a message from arbitrary arguments.
type ActionCreator func(args ...any) any

// BoundActionCreator calls an ActionCreator and dispatches its result.
type BoundActionCreator func(args ...any) (any, error)

// BindActionCreator wraps creator so calling it dispatches the message it
// builds and returns dispatch's result.
func BindActionCreator(creator ActionCreator, dispatch Dispatcher) (BoundActionCreator, error) {
	if creator == nil {
		return nil, ErrInvalidActionCreator
	}
	if dispatch == nil {
		return nil, ErrInvalidDispatch
	}
	return func(args ...any) (any, error) {
		return dispatch(creator(args...))
	}, nil
}

// BindActionCreators binds every entry of creators. Any non-nil function
// returning exactly one value is accepted; typed parameters such as
// func(text string) Action are filled from the call's arguments, and a
// mismatch fails that call with ErrCreatorArguments. Other entries fail
// with a *CreatorError naming their key.
func BindActionCreators(creators map[string]any, dispatch Dispatcher) (map[string]BoundActionCreator, error) {
	if dispatch == nil {
		return nil, ErrInvalidDispatch
	}
	bound := make(map[string]BoundActionCreator, len(creators))
	for key, c := range creators {
		if creator := toActionCreator(c); creator != nil {
			b, err := BindActionCreator(creator, dispatch)
			if err != nil {
				return nil, fmt.Errorf("bind %q: %w", key, err)
			}
			bound[key] = b
			continue
		}

		fn := reflect.ValueOf(c)
		switch {
		case !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil():
			return nil, &CreatorError{Key: key, Type: fmt.Sprintf("%T", c)}
		case fn.Type().NumOut() != 1:
			return nil, &CreatorError{Key: key, Type: fn.Type().String(), Reason: "must return exactly one message"}
		}
		bound[key] = func(args ...any) (any, error) {
			in, err := creatorArgs(fn.Type(), args)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			return dispatch(fn.Call(in)[0].Interface())
		}
	}
	return bound, nil
}

func toActionCreator(c any) ActionCreator {
	switch fn := c.(type) {
	case ActionCreator:
		return fn
	case func(...any) any:
		return fn
	case func(...any) Action:
		if fn == nil {
			return nil
		}
		return func(args ...any) any { return fn(args...) }
	case func() Action:
		if fn == nil {
			return nil
		}
		return func(...any) any { return fn() }
	default:
		return nil
	}
}

// creatorArgs converts args to the parameter types of ft. Values must be
// assignable; nil is accepted for nilable parameters.
func creatorArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	n := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("%w: want at least %d, got %d", ErrCreatorArguments, n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrCreatorArguments, n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := ft.In(min(i, n-1))
		if ft.IsVariadic() && i >= n-1 {
			want = ft.In(n - 1).Elem()
		}
		if arg == nil {
			switch want.Kind() {
			case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
				in[i] = reflect.Zero(want)
				continue
			}
			return nil, fmt.Errorf("%w: argument %d is nil, want %s", ErrCreatorArguments, i, want)
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(want) {
			return nil, fmt.Errorf("%w: argument %d is %s, want %s", ErrCreatorArguments, i, v.Type(), want)
		}
		in[i] = v
	}
	return in, nil
}
