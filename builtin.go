package formstate

import (
	"iter"
	"time"

	"github.com/reoring/formstate/value"
)

// DateNode wraps a *value.Date. Setters report the date's own path, and only
// when the instant actually changed.
type DateNode struct {
	base
	date *value.Date
}

func (d *DateNode) Kind() value.Kind { return value.KindDate }
func (d *DateNode) Time() time.Time  { return d.date.Time() }

func (d *DateNode) Set(t time.Time) { d.mutate(func(time.Time) time.Time { return t }) }

// SetDate replaces the calendar date, keeping clock and location.
func (d *DateNode) SetDate(year int, month time.Month, day int) {
	d.mutate(func(t time.Time) time.Time {
		return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	})
}

// SetClock replaces the time of day, keeping date and location.
func (d *DateNode) SetClock(hour, minute, sec, nsec int) {
	d.mutate(func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, sec, nsec, t.Location())
	})
}

func (d *DateNode) AddDate(years, months, days int) {
	d.mutate(func(t time.Time) time.Time { return t.AddDate(years, months, days) })
}

func (d *DateNode) Add(dur time.Duration) {
	d.mutate(func(t time.Time) time.Time { return t.Add(dur) })
}

func (d *DateNode) mutate(fn func(time.Time) time.Time) {
	before := d.date.Time()
	d.date.SetTime(fn(before))
	if !before.Equal(d.date.Time()) {
		d.notify()
	}
}

// holder caches wrappers for containers returned by a map or set. They are
// bound to the owner's own path: built-ins have no per-key paths.
type holder struct {
	base
	kids map[any]Wrapped
}

func (h *holder) wrapChild(v any) any {
	if !value.IsContainer(v) {
		return v
	}
	if k, ok := h.kids[v]; ok {
		return k
	}
	w := h.e.wrap(v, h.path)
	if h.kids == nil {
		h.kids = map[any]Wrapped{}
	}
	h.kids[v] = w
	return w
}

func (h *holder) drop(v any) {
	if k, ok := h.kids[v]; ok {
		delete(h.kids, v)
		k.release()
	}
}

func (h *holder) dropAll() {
	for v := range h.kids {
		h.drop(v)
	}
}

func (h *holder) release() {
	h.dropAll()
	h.base.release()
}

// MapNode wraps a *value.Map.
type MapNode struct {
	holder
	m *value.Map
}

func (m *MapNode) Kind() value.Kind { return value.KindMap }

// Get returns the value for k; containers come back wrapped.
func (m *MapNode) Get(k any) (any, bool) {
	v, ok := m.m.Get(Unwrap(k))
	return m.wrapChild(v), ok
}

func (m *MapNode) Has(k any) bool { return m.m.Has(Unwrap(k)) }
func (m *MapNode) Len() int       { return m.m.Len() }
func (m *MapNode) Keys() []any    { return m.m.Keys() }

// All iterates entries in insertion order with wrapped values.
func (m *MapNode) All() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		for _, k := range m.m.Keys() {
			v, _ := m.m.Get(k)
			if !yield(k, m.wrapChild(v)) {
				return
			}
		}
	}
}

// Set stores v under k. Storing the value already held is not reported.
func (m *MapNode) Set(k, v any) {
	k, v = Unwrap(k), Unwrap(v)
	prev, had := m.m.Get(k)
	m.m.Set(k, v)
	if had && value.Same(prev, v) {
		return
	}
	if had {
		m.forget(prev)
	}
	m.notify()
}

// Delete removes k and reports whether it was present.
func (m *MapNode) Delete(k any) bool {
	k = Unwrap(k)
	prev, _ := m.m.Get(k)
	if !m.m.Delete(k) {
		return false
	}
	m.forget(prev)
	m.notify()
	return true
}

// Clear empties the map, reporting only when it held entries.
func (m *MapNode) Clear() {
	before := m.m.Len()
	m.m.Clear()
	m.dropAll()
	if m.m.Len() < before {
		m.notify()
	}
}

// forget drops the cached wrapper of v unless another key still holds it.
func (m *MapNode) forget(v any) {
	if !value.IsContainer(v) {
		return
	}
	for _, k := range m.m.Keys() {
		if cur, _ := m.m.Get(k); cur == v {
			return
		}
	}
	m.drop(v)
}

// SetNode wraps a *value.Set.
type SetNode struct {
	holder
	set *value.Set
}

func (s *SetNode) Kind() value.Kind { return value.KindSet }

func (s *SetNode) Has(v any) bool { return s.set.Has(Unwrap(v)) }
func (s *SetNode) Len() int       { return s.set.Len() }

// Values returns the members in insertion order; containers come back wrapped.
func (s *SetNode) Values() []any {
	raw := s.set.Values()
	out := make([]any, len(raw))
	for i, v := range raw {
		out[i] = s.wrapChild(v)
	}
	return out
}

func (s *SetNode) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, v := range s.set.Values() {
			if !yield(s.wrapChild(v)) {
				return
			}
		}
	}
}

// Add inserts v, reporting only when it was absent.
func (s *SetNode) Add(v any) {
	if s.set.Add(Unwrap(v)) {
		s.notify()
	}
}

// Delete removes v and reports whether it was present.
func (s *SetNode) Delete(v any) bool {
	v = Unwrap(v)
	if !s.set.Delete(v) {
		return false
	}
	s.drop(v)
	s.notify()
	return true
}

// Clear empties the set, reporting only when it held members.
func (s *SetNode) Clear() {
	before := s.set.Len()
	s.set.Clear()
	s.dropAll()
	if s.set.Len() < before {
		s.notify()
	}
}
