package value

import (
	"slices"
	"time"
)

// Object is an insertion-ordered string-keyed record.
type Object struct {
	keys []string
	vals map[string]any
}

// NewObject builds an Object from alternating key/value pairs. Non-string keys
// are skipped.
func NewObject(kv ...any) *Object {
	o := &Object{vals: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		o.Set(k, kv[i+1])
	}
	return o
}

func (o *Object) Get(key string) (any, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Set assigns key, appending it to the key order when new.
func (o *Object) Set(key string, v any) {
	if o.vals == nil {
		o.vals = map[string]any{}
	}
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	if _, ok := o.vals[key]; !ok {
		return false
	}
	delete(o.vals, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
	return true
}

func (o *Object) Has(key string) bool {
	_, ok := o.vals[key]
	return ok
}

func (o *Object) Keys() []string { return slices.Clone(o.keys) }
func (o *Object) Len() int       { return len(o.keys) }

// Array is a growable sequence with pointer identity. Holes read as nil.
type Array struct {
	items []any
}

func NewArray(items ...any) *Array { return &Array{items: slices.Clone(items)} }

func (a *Array) Len() int { return len(a.items) }

// At returns the element at i; ok is false when i is out of range.
func (a *Array) At(i int) (any, bool) {
	if i < 0 || i >= len(a.items) {
		return nil, false
	}
	return a.items[i], true
}

// SetAt assigns index i, growing the array with holes when i is past the end.
func (a *Array) SetAt(i int, v any) {
	if i < 0 {
		return
	}
	for len(a.items) <= i {
		a.items = append(a.items, nil)
	}
	a.items[i] = v
}

// SetLen truncates or extends the array to n elements.
func (a *Array) SetLen(n int) {
	if n < 0 {
		n = 0
	}
	if n <= len(a.items) {
		clear(a.items[n:])
		a.items = a.items[:n]
		return
	}
	a.items = append(a.items, make([]any, n-len(a.items))...)
}

// Items returns a copy of the elements.
func (a *Array) Items() []any { return slices.Clone(a.items) }

// Date is a mutable point in time.
type Date struct {
	t time.Time
}

func NewDate(t time.Time) *Date { return &Date{t: t} }

func (d *Date) Time() time.Time { return d.t }

func (d *Date) SetTime(t time.Time) { d.t = t }

// Map is an insertion-ordered map. Keys must be comparable.
type Map struct {
	keys []any
	vals map[any]any
}

// NewMap builds a Map from alternating key/value pairs.
func NewMap(kv ...any) *Map {
	m := &Map{vals: make(map[any]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

func (m *Map) Get(k any) (any, bool) {
	v, ok := m.vals[k]
	return v, ok
}

func (m *Map) Has(k any) bool {
	_, ok := m.vals[k]
	return ok
}

func (m *Map) Set(k, v any) {
	if m.vals == nil {
		m.vals = map[any]any{}
	}
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

func (m *Map) Delete(k any) bool {
	if _, ok := m.vals[k]; !ok {
		return false
	}
	delete(m.vals, k)
	m.keys = slices.DeleteFunc(m.keys, func(x any) bool { return x == k })
	return true
}

func (m *Map) Clear() {
	m.keys = nil
	clear(m.vals)
}

func (m *Map) Len() int    { return len(m.keys) }
func (m *Map) Keys() []any { return slices.Clone(m.keys) }

// Set is an insertion-ordered set. Members must be comparable.
type Set struct {
	items []any
	index map[any]struct{}
}

func NewSet(items ...any) *Set {
	s := &Set{index: make(map[any]struct{}, len(items))}
	for _, v := range items {
		s.Add(v)
	}
	return s
}

func (s *Set) Has(v any) bool {
	_, ok := s.index[v]
	return ok
}

// Add inserts v and reports whether it was absent.
func (s *Set) Add(v any) bool {
	if s.index == nil {
		s.index = map[any]struct{}{}
	}
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *Set) Delete(v any) bool {
	if _, ok := s.index[v]; !ok {
		return false
	}
	delete(s.index, v)
	s.items = slices.DeleteFunc(s.items, func(x any) bool { return x == v })
	return true
}

func (s *Set) Clear() {
	s.items = nil
	clear(s.index)
}

func (s *Set) Len() int      { return len(s.items) }
func (s *Set) Values() []any { return slices.Clone(s.items) }
