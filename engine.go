package formstate

import (
	"log/slog"

	"github.com/reoring/formstate/internal/touchcache"
	"github.com/reoring/formstate/touch"
	"github.com/reoring/formstate/value"
)

// TouchMigration is attached to a change when the written value was moved from
// another index by a batch array operation. Entries are the touch entries that
// were recorded under OldPath right before the batch started.
type TouchMigration struct {
	OldPath string
	Entries []touch.Entry
}

// ChangeMeta describes a reported change.
type ChangeMeta struct {
	IsArray bool            // the changed path is an element of an array
	Deleted bool            // the property was removed; nothing under it survives
	Touch   *TouchMigration // set when bookkeeping should follow a moved value
}

// Callbacks are the hooks the engine drives. Every field is optional.
type Callbacks struct {
	OnPathChanged func(path string, meta ChangeMeta)
	OnPathRead    func(path string)
	// TouchesUnderPath is asked for the touch entries at or below a path when
	// a batch array operation snapshots its elements.
	TouchesUnderPath func(path string) []touch.Entry
	// OnBatchStart and OnBatchEnd bracket a batch array operation on the
	// array at path. Changes reported in between belong to that operation.
	OnBatchStart func(path string)
	OnBatchEnd   func(path string)
}

func (c Callbacks) changed(path string, meta ChangeMeta) {
	if c.OnPathChanged != nil {
		c.OnPathChanged(path, meta)
	}
}

func (c Callbacks) read(path string) {
	if c.OnPathRead != nil {
		c.OnPathRead(path)
	}
}

func (c Callbacks) batch(path string, start bool) {
	if start && c.OnBatchStart != nil {
		c.OnBatchStart(path)
	} else if !start && c.OnBatchEnd != nil {
		c.OnBatchEnd(path)
	}
}

func (c Callbacks) touches(path string) []touch.Entry {
	if c.TouchesUnderPath == nil {
		return nil
	}
	return c.TouchesUnderPath(path)
}

// Options configures Wrap. When several are passed the last one wins.
type Options struct {
	// Strict makes compound lookups through a missing segment fail with
	// *DanglingPathError instead of yielding nil.
	Strict bool
	Logger *slog.Logger
}

// Wrapped is implemented by every wrapper the engine hands out.
type Wrapped interface {
	// Raw returns the underlying container.
	Raw() any
	// Path returns the path the wrapper is bound to.
	Path() string
	Kind() value.Kind
	release()
}

type handle = touchcache.Handle

// refTag records the array slot a container was last resolved at.
type refTag struct {
	parent handle
	index  int
	set    bool
}

type handleEntry struct {
	id   handle
	refs int
	tag  refTag
}

// engine owns the identity table shared by all wrappers of one root. Handles
// are reference counted by live wrappers; the last release drops the handle,
// its reference tag and its touch cache state.
type engine struct {
	cb      Callbacks
	strict  bool
	log     *slog.Logger
	handles map[any]*handleEntry
	next    handle
	cache   *touchcache.Cache
}

func newEngine(cb Callbacks, opts []Options) *engine {
	var opt Options
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &engine{
		cb:      cb,
		strict:  opt.Strict,
		log:     log,
		handles: map[any]*handleEntry{},
		cache:   touchcache.New(),
	}
}

// Wrap returns the tracking wrapper for root. Leaves are rejected with
// ErrUnsupportedRoot.
func Wrap(root any, cb Callbacks, opts ...Options) (Wrapped, error) {
	if !value.IsContainer(root) {
		return nil, ErrUnsupportedRoot
	}
	return newEngine(cb, opts).wrap(root, ""), nil
}

// WrapObject is Wrap for an object root.
func WrapObject(root *value.Object, cb Callbacks, opts ...Options) *ObjectNode {
	return newEngine(cb, opts).wrap(root, "").(*ObjectNode)
}

// WrapArray is Wrap for an array root.
func WrapArray(root *value.Array, cb Callbacks, opts ...Options) *ArrayNode {
	return newEngine(cb, opts).wrap(root, "").(*ArrayNode)
}

// Unwrap returns the raw container behind a wrapper, or v itself.
func Unwrap(v any) any {
	if w, ok := v.(Wrapped); ok && w != nil {
		return w.Raw()
	}
	return v
}

func (e *engine) acquire(raw any) handle {
	he := e.handles[raw]
	if he == nil {
		e.next++
		he = &handleEntry{id: e.next}
		e.handles[raw] = he
	}
	he.refs++
	return he.id
}

func (e *engine) release(raw any) {
	he := e.handles[raw]
	if he == nil {
		return
	}
	he.refs--
	if he.refs > 0 {
		return
	}
	delete(e.handles, raw)
	e.cache.Forget(he.id)
}

func (e *engine) wrap(raw any, path string) Wrapped {
	b := base{e: e, h: e.acquire(raw), path: path, raw: raw}
	switch t := raw.(type) {
	case *value.Object:
		return &ObjectNode{tree: tree{base: b}, obj: t}
	case *value.Array:
		return &ArrayNode{tree: tree{base: b, isArray: true}, arr: t}
	case *value.Date:
		return &DateNode{base: b, date: t}
	case *value.Map:
		return &MapNode{holder: holder{base: b}, m: t}
	case *value.Set:
		return &SetNode{holder: holder{base: b}, set: t}
	}
	e.release(raw)
	return nil
}

// base carries what every wrapper shares.
type base struct {
	e    *engine
	h    handle
	path string
	raw  any
}

func (b *base) Raw() any     { return b.raw }
func (b *base) Path() string { return b.path }
func (b *base) release()     { b.e.release(b.raw) }

// notify reports a change of the wrapper's own path.
func (b *base) notify() { b.e.cb.changed(b.path, ChangeMeta{}) }
