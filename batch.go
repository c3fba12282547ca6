package formstate

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/reoring/formstate/internal/touchcache"
	"github.com/reoring/formstate/paths"
	"github.com/reoring/formstate/value"
)

// batch runs a whole-array operation whose effect is confined to the slots
// from index from onward; to, when not negative, also bounds the written
// slots from above. mutate must leave the slots outside that window alone.
//
// Before mutate runs, every container element inside the window is queued in
// the touch cache together with the touch entries under its current path. The
// new contents are then written back slot by slot through the regular write
// path, which consumes those entries, and slots past the new end are deleted
// before the length is set.
func (a *ArrayNode) batch(op string, from, to int, mutate func(items []any) []any) {
	before := a.arr.Len()
	a.begin(op, from, bound(to, before))
	defer a.end(op)

	next := mutate(a.arr.Items())
	for i := from; i < bound(to, len(next)); i++ {
		_ = a.write(strconv.Itoa(i), next[i])
	}
	for i := before - 1; i >= max(len(next), from); i-- {
		a.remove(strconv.Itoa(i))
	}
	a.SetLen(len(next))
}

// bound returns to clamped to n, or n when to is negative.
func bound(to, n int) int {
	if to < 0 || to > n {
		return n
	}
	return to
}

func (a *ArrayNode) begin(op string, from, to int) {
	a.e.cb.batch(a.path, true)
	var entries []touchcache.Entry
	for i := from; i < to; i++ {
		v, _ := a.arr.At(i)
		if !value.IsContainer(v) {
			continue
		}
		p := paths.Index(a.path, i)
		entries = append(entries, touchcache.Entry{Value: v, Path: p, Touches: a.e.cb.touches(p)})
	}
	seq := a.e.cache.Begin(a.h, entries)
	a.e.log.Debug("formstate: batch begin",
		slog.String("op", op),
		slog.String("path", a.path),
		slog.Int("from", from),
		slog.Int("snapshot", len(entries)),
		slog.Uint64("seq", seq))
}

func (a *ArrayNode) end(op string) {
	if dropped := a.e.cache.End(a.h); dropped > 0 {
		a.e.log.Debug("formstate: batch end", slog.String("op", op), slog.String("path", a.path), slog.Int("unmatched", dropped))
	}
	a.e.cb.batch(a.path, false)
}

func unwrapAll(vs []any) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = Unwrap(v)
	}
	return out
}

// Push appends vs and returns the new length.
func (a *ArrayNode) Push(vs ...any) int {
	add := unwrapAll(vs)
	a.batch("push", a.arr.Len(), -1, func(items []any) []any { return append(items, add...) })
	return a.arr.Len()
}

// Pop removes and returns the last element (raw), or nil when empty.
func (a *ArrayNode) Pop() any {
	var out any
	a.batch("pop", max(a.arr.Len()-1, 0), -1, func(items []any) []any {
		if len(items) == 0 {
			return items
		}
		out = items[len(items)-1]
		return items[:len(items)-1]
	})
	return out
}

// Shift removes and returns the first element (raw), or nil when empty.
func (a *ArrayNode) Shift() any {
	var out any
	a.batch("shift", 0, -1, func(items []any) []any {
		if len(items) == 0 {
			return items
		}
		out = items[0]
		return items[1:]
	})
	return out
}

// Unshift prepends vs and returns the new length.
func (a *ArrayNode) Unshift(vs ...any) int {
	add := unwrapAll(vs)
	a.batch("unshift", 0, -1, func(items []any) []any { return append(append([]any{}, add...), items...) })
	return a.arr.Len()
}

// Splice removes deleteCount elements at start, inserts the given values there
// and returns the removed elements (raw). A negative start counts from the end.
func (a *ArrayNode) Splice(start, deleteCount int, insert ...any) []any {
	add := unwrapAll(insert)
	n := a.arr.Len()
	if start < 0 {
		start = max(n+start, 0)
	}
	start = min(start, n)
	var removed []any
	a.batch("splice", start, -1, func(items []any) []any {
		deleteCount = min(max(deleteCount, 0), n-start)
		removed = append([]any(nil), items[start:start+deleteCount]...)
		out := make([]any, 0, n-deleteCount+len(add))
		out = append(out, items[:start]...)
		out = append(out, add...)
		return append(out, items[start+deleteCount:]...)
	})
	return removed
}

// Sort orders the elements with a stable sort. less receives raw values.
func (a *ArrayNode) Sort(less func(x, y any) bool) {
	a.batch("sort", 0, -1, func(items []any) []any {
		sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
		return items
	})
}

// Reverse reverses the elements in place.
func (a *ArrayNode) Reverse() {
	a.batch("reverse", 0, -1, func(items []any) []any {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		return items
	})
}

// Fill assigns v to every slot in [start, end). Negative bounds count from the
// end; end is clamped to the length.
func (a *ArrayNode) Fill(v any, start, end int) {
	v = Unwrap(v)
	n := a.arr.Len()
	lo, hi := clampIndex(start, n), clampIndex(end, n)
	if lo >= hi {
		return
	}
	a.batch("fill", lo, hi, func(items []any) []any {
		for i := lo; i < hi; i++ {
			items[i] = v
		}
		return items
	})
}

// Retain keeps the elements for which keep returns true, preserving order. It
// is the in-place counterpart of filter.
func (a *ArrayNode) Retain(keep func(v any) bool) {
	a.batch("filter", 0, -1, func(items []any) []any {
		out := items[:0]
		for _, v := range items {
			if keep(v) {
				out = append(out, v)
			}
		}
		return out
	})
}

func clampIndex(i, n int) int {
	if i < 0 {
		return max(n+i, 0)
	}
	return min(i, n)
}
