package storex

import (
	"reflect"
	"sort"
)

// Tree is the state shape produced by CombineReducers: one entry per slice.
// A Tree held by a store is never mutated; reducers build a new one.
type Tree map[string]any

// Get returns the slice stored under key, or nil.
func (t Tree) Get(key string) any {
	return t[key]
}

// Keys returns the slice names in sorted order.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of t with key set to value. t is left untouched.
func (t Tree) With(key string, value any) Tree {
	next := make(Tree, len(t)+1)
	for k, v := range t {
		next[k] = v
	}
	next[key] = value
	return next
}

// Slice returns the slice under key as a T.
func Slice[T any](t Tree, key string) (T, bool) {
	v, ok := t[key].(T)
	return v, ok
}

// Same reports whether a and b are the same value by reference: maps,
// pointers, slices, channels and funcs must share storage, structs and
// arrays must be Same field by field, other values must be equal.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return sameValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

func sameValue(va, vb reflect.Value) bool {
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Interface:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return sameValue(va.Elem(), vb.Elem())
	case reflect.Struct:
		for i := range va.NumField() {
			if !sameValue(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := range va.Len() {
			if !sameValue(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	}
	return va.Equal(vb)
}
