// Package touchcache remembers, per tracked array and for the duration of one
// batch mutation, which child values sat at which path together with the
// touch entries recorded under that path. It lets the engine carry
// bookkeeping along with values that a sort or splice moved.
package touchcache

import (
	"github.com/reoring/formstate/touch"
)

// Handle identifies a container in the engine's identity table.
type Handle uint64

// Entry is one snapshot record: a child value by identity, the path it was
// found at and the touch entries recorded at or below that path.
type Entry struct {
	Value   any
	Path    string
	Touches []touch.Entry
}

type bucket struct {
	seq   uint64
	queue []Entry
}

// Cache is keyed by container handle. It is not safe for concurrent use.
type Cache struct {
	buckets map[Handle]*bucket
}

func New() *Cache { return &Cache{buckets: map[Handle]*bucket{}} }

func (c *Cache) bucket(h Handle) *bucket {
	b := c.buckets[h]
	if b == nil {
		b = &bucket{}
		c.buckets[h] = b
	}
	return b
}

// Begin queues entries for matching and returns the batch sequence number of
// h. Entries left over from an earlier batch are dropped.
func (c *Cache) Begin(h Handle, entries []Entry) uint64 {
	b := c.bucket(h)
	b.seq++
	clear(b.queue)
	b.queue = append(b.queue[:0], entries...)
	return b.seq
}

// Consume finds the first queued entry whose value is identical to v, removes
// it and returns it. Matching is by identity only.
func (c *Cache) Consume(h Handle, v any) (Entry, bool) {
	b := c.buckets[h]
	if b == nil {
		return Entry{}, false
	}
	for i, e := range b.queue {
		if e.Value != v {
			continue
		}
		b.queue = append(b.queue[:i], b.queue[i+1:]...)
		return e, true
	}
	return Entry{}, false
}

// End discards whatever the batch did not consume and returns how many
// entries were dropped.
func (c *Cache) End(h Handle) int {
	b := c.buckets[h]
	if b == nil {
		return 0
	}
	n := len(b.queue)
	clear(b.queue)
	b.queue = b.queue[:0]
	return n
}

// Pending reports the number of queued entries for h.
func (c *Cache) Pending(h Handle) int {
	if b := c.buckets[h]; b != nil {
		return len(b.queue)
	}
	return 0
}

// Forget drops all state for h.
func (c *Cache) Forget(h Handle) { delete(c.buckets, h) }

// Len reports how many containers have state.
func (c *Cache) Len() int { return len(c.buckets) }
