package formstate

import (
	"log/slog"
	"strconv"

	"github.com/reoring/formstate/internal/touchcache"
	"github.com/reoring/formstate/paths"
	"github.com/reoring/formstate/value"
)

// container is the shared read/write/delete surface of object and array
// wrappers. Compound properties are resolved before these are called.
type container interface {
	Wrapped
	read(prop string) any
	write(prop string, v any) error
	remove(prop string) bool
	node() *tree
}

// tree holds the child wrappers of an object or array wrapper, one per
// property. A child is reused for as long as the same container stays at that
// property.
type tree struct {
	base
	isArray bool
	kids    map[string]Wrapped
}

func (t *tree) node() *tree { return t }

func (t *tree) childPath(prop string) string { return paths.Build(t.path, prop, t.isArray) }

// child returns the wrapper for raw at prop, building it when absent or when
// a different container now sits there. Leaves are returned as-is.
func (t *tree) child(prop string, raw any) any {
	if !value.IsContainer(raw) {
		return raw
	}
	if k, ok := t.kids[prop]; ok {
		if k.Raw() == raw {
			return k
		}
		t.evict(prop)
	}
	w := t.e.wrap(raw, t.childPath(prop))
	if t.kids == nil {
		t.kids = map[string]Wrapped{}
	}
	t.kids[prop] = w
	return w
}

// evict drops the child wrapper at prop together with everything below it.
func (t *tree) evict(prop string) {
	k, ok := t.kids[prop]
	if !ok {
		return
	}
	delete(t.kids, prop)
	k.release()
}

func (t *tree) release() {
	for prop := range t.kids {
		t.evict(prop)
	}
	t.base.release()
}

// afterWrite applies the bookkeeping shared by object and array writes and
// reports the change when it is effective.
func (t *tree) afterWrite(prop string, prev, next any) {
	path := t.childPath(prop)
	var match *touchcache.Entry
	if value.IsContainer(next) {
		if m, ok := t.e.cache.Consume(t.h, next); ok {
			match = &m
		}
	}
	if !value.Same(prev, next) {
		if k, ok := t.kids[prop]; ok && k.Raw() != next {
			t.evict(prop)
		}
	}
	if !shouldNotify(prev, next, t.isArray, match, path) {
		return
	}
	meta := ChangeMeta{IsArray: t.isArray}
	if match != nil {
		meta.Touch = &TouchMigration{OldPath: match.Path, Entries: match.Touches}
		if match.Path != path {
			t.e.log.Debug("formstate: touch migration", slog.String("from", match.Path), slog.String("to", path))
		}
	}
	t.e.cb.changed(path, meta)
}

// shouldNotify decides whether a write is reported. Equal values are skipped,
// except that a container written into an array slot is always reported: the
// slot may now hold a different alias of the same identity, or a value the
// touch cache has never seen.
func shouldNotify(prev, next any, isArray bool, match *touchcache.Entry, path string) bool {
	if !value.Same(prev, next) {
		return true
	}
	if match != nil && match.Path != path {
		return true
	}
	return isArray && value.IsContainer(next)
}

// resolve walks a compound property down to the wrapper holding its last
// segment.
func resolve(c container, prop string) (container, string, error) {
	t := c.node()
	segs, err := paths.Tokenize(prop)
	if err != nil {
		if t.e.strict {
			return nil, "", err
		}
		return nil, "", nil
	}
	if len(segs) == 0 {
		return nil, "", nil
	}
	cur := c
	for _, s := range segs[:len(segs)-1] {
		next, ok := cur.read(s.Name).(container)
		if !ok {
			if t.e.strict {
				return nil, "", &DanglingPathError{Path: prop, Segment: s.String(), Parent: t.path}
			}
			return nil, "", nil
		}
		cur = next
	}
	return cur, segs[len(segs)-1].Name, nil
}

func lookup(c container, prop string) (any, error) {
	if !paths.IsCompound(prop) {
		return c.read(prop), nil
	}
	target, last, err := resolve(c, prop)
	if err != nil || target == nil {
		return nil, err
	}
	return target.read(last), nil
}

func assign(c container, prop string, v any) error {
	if !paths.IsCompound(prop) {
		return c.write(prop, v)
	}
	target, last, err := resolve(c, prop)
	if err != nil || target == nil {
		return err
	}
	return target.write(last, v)
}

func del(c container, prop string) bool {
	if !paths.IsCompound(prop) {
		return c.remove(prop)
	}
	target, last, err := resolve(c, prop)
	if err != nil || target == nil {
		return false
	}
	return target.remove(last)
}

// ObjectNode wraps a *value.Object.
type ObjectNode struct {
	tree
	obj *value.Object
}

func (o *ObjectNode) Kind() value.Kind { return value.KindObject }

// Get reads key. Container values come back wrapped. Compound keys such as
// "items[2].name" are resolved segment by segment.
func (o *ObjectNode) Get(key string) any {
	v, _ := lookup(o, key)
	return v
}

// Lookup is Get with the strict-mode error surfaced.
func (o *ObjectNode) Lookup(key string) (any, error) { return lookup(o, key) }

// Set assigns key. Wrapped values are stored raw.
func (o *ObjectNode) Set(key string, v any) error { return assign(o, key, v) }

// Delete removes key and reports whether it existed.
func (o *ObjectNode) Delete(key string) bool { return del(o, key) }

func (o *ObjectNode) Has(key string) bool { return o.obj.Has(key) }
func (o *ObjectNode) Keys() []string      { return o.obj.Keys() }
func (o *ObjectNode) Len() int            { return o.obj.Len() }

func (o *ObjectNode) read(key string) any {
	raw, _ := o.obj.Get(key)
	out := o.child(key, raw)
	o.e.cb.read(o.childPath(key))
	return out
}

func (o *ObjectNode) write(key string, v any) error {
	v = Unwrap(v)
	prev, _ := o.obj.Get(key)
	o.obj.Set(key, v)
	o.afterWrite(key, prev, v)
	return nil
}

func (o *ObjectNode) remove(key string) bool {
	if !o.obj.Delete(key) {
		return false
	}
	o.evict(key)
	o.e.cb.changed(o.childPath(key), ChangeMeta{Deleted: true})
	return true
}

// ArrayNode wraps a *value.Array. Properties are canonical decimal indexes.
type ArrayNode struct {
	tree
	arr *value.Array
}

func (a *ArrayNode) Kind() value.Kind { return value.KindArray }

// Get reads an index given as a property ("3") or a compound property
// ("3.name").
func (a *ArrayNode) Get(prop string) any {
	v, _ := lookup(a, prop)
	return v
}

func (a *ArrayNode) Lookup(prop string) (any, error) { return lookup(a, prop) }

// Index reads element i.
func (a *ArrayNode) Index(i int) any {
	if i < 0 {
		return nil
	}
	return a.read(strconv.Itoa(i))
}

// Set assigns an index given as a property. The "length" property resizes the
// array without reporting a change.
func (a *ArrayNode) Set(prop string, v any) error { return assign(a, prop, v) }

// SetIndex assigns element i, growing the array with holes when needed.
func (a *ArrayNode) SetIndex(i int, v any) error {
	if i < 0 {
		return ErrInvalidIndex
	}
	return a.write(strconv.Itoa(i), v)
}

// Delete clears an index, leaving a hole, and reports whether it was in range.
func (a *ArrayNode) Delete(prop string) bool { return del(a, prop) }

func (a *ArrayNode) Len() int { return a.arr.Len() }

// Items reads every element in order.
func (a *ArrayNode) Items() []any {
	out := make([]any, a.arr.Len())
	for i := range out {
		out[i] = a.Index(i)
	}
	return out
}

// SetLen resizes the array. Like assigning length it is never reported.
func (a *ArrayNode) SetLen(n int) {
	for prop := range a.kids {
		if i, ok := parseIndex(prop); ok && i >= n {
			a.evict(prop)
		}
	}
	a.arr.SetLen(n)
}

func (a *ArrayNode) read(prop string) any {
	path := a.childPath(prop)
	i, ok := parseIndex(prop)
	if !ok {
		a.e.cb.read(path)
		return nil
	}
	raw, _ := a.arr.At(i)
	out := a.child(prop, raw)
	a.retag(i, raw)
	a.e.cb.read(path)
	return out
}

// retag stamps raw with slot i. A container that turns up at a new slot while
// its wrapper at the old slot is stale gets that wrapper dropped, so the next
// read there rebuilds it bound to the right path.
func (a *ArrayNode) retag(i int, raw any) {
	he := a.e.handles[raw]
	if he == nil {
		return
	}
	old := he.tag
	he.tag = refTag{parent: a.h, index: i, set: true}
	if !old.set || old.parent != a.h || old.index == i {
		return
	}
	oldProp := strconv.Itoa(old.index)
	k, ok := a.kids[oldProp]
	if !ok || k.Raw() != raw {
		return
	}
	if cur, _ := a.arr.At(old.index); cur != raw {
		a.e.log.Debug("formstate: stale wrapper dropped", slog.String("path", k.Path()))
		a.evict(oldProp)
	}
}

func (a *ArrayNode) write(prop string, v any) error {
	if prop == "length" {
		n, ok := Unwrap(v).(int)
		if !ok || n < 0 {
			return ErrInvalidIndex
		}
		a.SetLen(n)
		return nil
	}
	i, ok := parseIndex(prop)
	if !ok {
		return ErrInvalidIndex
	}
	v = Unwrap(v)
	prev, _ := a.arr.At(i)
	a.arr.SetAt(i, v)
	a.afterWrite(prop, prev, v)
	return nil
}

func (a *ArrayNode) remove(prop string) bool {
	i, ok := parseIndex(prop)
	if !ok || i >= a.arr.Len() {
		return false
	}
	a.arr.SetAt(i, nil)
	a.evict(prop)
	a.e.cb.changed(a.childPath(prop), ChangeMeta{IsArray: true, Deleted: true})
	return true
}

// parseIndex accepts canonical non-negative decimal indexes only, so "3" and
// "03" never address different wrappers for the same slot.
func parseIndex(prop string) (int, bool) {
	i, err := strconv.Atoi(prop)
	if err != nil || i < 0 || strconv.Itoa(i) != prop {
		return 0, false
	}
	return i, true
}
