// Package form drives a tracked value the way a UI form does: it listens to
// the wrapping engine, keeps touch and submit state per path, runs the user
// validator and exposes the filtered error tree.
//
// A Form may be read from several goroutines and ValidateAsync results land
// on a goroutine of their own; writes through the wrapper must stay on one
// goroutine, as the engine is not safe for concurrent use.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/errtree"
	"github.com/reoring/formstate/i18n"
	"github.com/reoring/formstate/paths"
	"github.com/reoring/formstate/touch"
	"github.com/reoring/formstate/value"
)

var (
	// ErrStaleValidation is returned for a validation result that finished
	// after a newer validation had been started. The result is discarded.
	ErrStaleValidation = errors.New("form: validation result superseded by a newer run")
	// ErrRootMismatch is returned by Reset when the replacement is not the
	// same kind of container as the tracked root.
	ErrRootMismatch = errors.New("form: replacement root has a different kind")
)

// Event is delivered to OnChange subscribers once per settled change: after a
// single write, or after the outermost Batch or batch array operation ends.
type Event struct {
	Paths         []string // changed paths, in report order
	ErrorsChanged bool     // the filtered error list differs from the last one
}

// Option configures New.
type Option func(*Form)

func WithConfig(cfg Config) Option { return func(f *Form) { f.cfg = cfg } }

func WithValidator(v Validator) Option { return func(f *Form) { f.v = v } }

func WithLogger(l *slog.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.log = l
		}
	}
}

// WithTranslator overrides the translator chosen by Config.Language.
func WithTranslator(tr i18n.Translator) Option { return func(f *Form) { f.tr = tr } }

// Form owns the wrapper over one root together with its touch store and
// error tree.
type Form struct {
	cfg Config
	v   Validator
	log *slog.Logger
	tr  i18n.Translator

	node formstate.Wrapped

	mu      sync.Mutex
	touches *touch.Store
	issues  []formstate.Issue
	tree    *errtree.Tree
	gen     uint64

	depth   int
	changed []string
	dirty   bool
	moving  bool
	base    []formstate.Issue

	reads map[string]struct{}

	subs   map[int]func(Event)
	nextID int
}

// New wraps root, which must be an object or array.
func New(root any, opts ...Option) (*Form, error) {
	f := &Form{
		cfg:     DefaultConfig(),
		log:     slog.New(slog.DiscardHandler),
		touches: touch.NewStore(),
		tree:    errtree.Build(nil),
		subs:    map[int]func(Event){},
	}
	for _, o := range opts {
		o(f)
	}
	if f.tr == nil {
		f.tr = i18n.For(f.cfg.Language)
	}
	switch value.Classify(root) {
	case value.KindObject, value.KindArray:
	default:
		return nil, fmt.Errorf("form: %w", formstate.ErrUnsupportedRoot)
	}
	node, err := formstate.Wrap(root, formstate.Callbacks{
		OnPathChanged:    f.pathChanged,
		OnPathRead:       f.pathRead,
		TouchesUnderPath: f.touchesUnder,
		OnBatchStart:     func(string) { f.beginArrayOp() },
		OnBatchEnd:       func(string) { f.endArrayOp() },
	}, formstate.Options{Strict: f.cfg.Strict, Logger: f.log})
	if err != nil {
		return nil, err
	}
	f.node = node
	return f, nil
}

// Root returns the wrapper. Writes must go through it.
func (f *Form) Root() formstate.Wrapped { return f.node }

// Object returns the root wrapper when the root is an object, or nil.
func (f *Form) Object() *formstate.ObjectNode {
	o, _ := f.node.(*formstate.ObjectNode)
	return o
}

// Array returns the root wrapper when the root is an array, or nil.
func (f *Form) Array() *formstate.ArrayNode {
	a, _ := f.node.(*formstate.ArrayNode)
	return a
}

func (f *Form) Config() Config { return f.cfg }

func (f *Form) pathChanged(p string, meta formstate.ChangeMeta) {
	f.mu.Lock()
	switch {
	case meta.Touch != nil:
		f.touches.Migrate(meta.Touch.OldPath, p, meta.Touch.Entries)
		f.migrateIssues(meta.Touch.OldPath, p)
	case meta.IsArray, meta.Deleted:
		f.touches.ClearUnder(p)
		f.issues = dropUnder(f.issues, p)
	}
	f.touches.SetTouch(p, true)
	f.changed = append(f.changed, p)
	f.dirty = true
	settle := f.depth == 0
	f.mu.Unlock()
	if settle {
		f.settle()
	}
}

// migrateIssues re-homes the failures recorded under oldPath before the
// running batch started. Like touch migration it works from a snapshot, so an
// operation that swaps two elements moves both sets correctly.
func (f *Form) migrateIssues(oldPath, newPath string) {
	base := f.issues
	if f.moving {
		base = f.base
	}
	out := dropUnder(f.issues, newPath)
	for _, it := range base {
		if np, ok := paths.Rebase(it.Path, oldPath, newPath); ok {
			it.Path = np
			out = append(out, it)
		}
	}
	f.issues = out
}

func dropUnder(issues []formstate.Issue, p string) []formstate.Issue {
	return slices.DeleteFunc(slices.Clone(issues), func(it formstate.Issue) bool {
		return paths.IsAtOrUnder(it.Path, p)
	})
}

func (f *Form) pathRead(p string) {
	f.mu.Lock()
	if f.reads != nil {
		f.reads[p] = struct{}{}
	}
	f.mu.Unlock()
}

func (f *Form) touchesUnder(p string) []touch.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touches.Under(p)
}

func (f *Form) enter() {
	f.mu.Lock()
	f.depth++
	f.mu.Unlock()
}

func (f *Form) leave() {
	f.mu.Lock()
	f.depth--
	f.mu.Unlock()
	f.settle()
}

// beginArrayOp snapshots the issues so that migrations inside one batch array
// operation all read the state from before it.
func (f *Form) beginArrayOp() {
	f.mu.Lock()
	f.depth++
	f.moving = true
	f.base = slices.Clone(f.issues)
	f.mu.Unlock()
}

// endArrayOp closes the migration snapshot of one batch array operation.
func (f *Form) endArrayOp() {
	f.mu.Lock()
	f.moving = false
	f.base = nil
	f.mu.Unlock()
	f.leave()
}

// settle runs once the outermost batch is over: it revalidates when
// configured to, rebuilds the filtered tree and notifies subscribers.
func (f *Form) settle() {
	f.mu.Lock()
	if f.depth > 0 {
		f.mu.Unlock()
		return
	}
	changed := f.changed
	f.changed = nil
	dirty := f.dirty
	f.dirty = false
	errsChanged := f.rebuild()
	f.mu.Unlock()

	if dirty && f.cfg.ValidateOnChange && f.v != nil {
		c, err := f.validate(context.Background())
		if err != nil && !errors.Is(err, ErrStaleValidation) {
			f.log.Warn("form: revalidation failed", slog.Any("err", err))
		}
		errsChanged = errsChanged || c
	}
	if len(changed) > 0 || errsChanged {
		f.emit(Event{Paths: changed, ErrorsChanged: errsChanged})
	}
}

// rebuild recomputes the filtered tree and reports whether the filtered
// failures changed. Callers hold mu.
func (f *Form) rebuild() bool {
	filtered := errtree.Filter(f.issues, f.cfg.Mode, f.touches)
	same := errtree.Equal(f.tree.Issues(), filtered)
	f.tree = errtree.Build(filtered)
	return !same
}

// Batch runs fn with change notification deferred: subscribers receive a
// single Event when the outermost Batch returns.
func (f *Form) Batch(fn func()) {
	f.enter()
	defer f.leave()
	fn()
}

// Touch marks path as touched without writing to it, as a blur would. The
// path is read through the wrapper first so that a later batch array
// operation carries the touch along.
func (f *Form) Touch(path string) {
	f.lookup(path)
	f.mu.Lock()
	f.touches.SetTouch(path, true)
	changed := f.rebuild()
	f.mu.Unlock()
	if changed {
		f.emit(Event{ErrorsChanged: true})
	}
}

func (f *Form) lookup(path string) {
	switch n := f.node.(type) {
	case *formstate.ObjectNode:
		_, _ = n.Lookup(path)
	case *formstate.ArrayNode:
		_, _ = n.Lookup(path)
	}
}

func (f *Form) IsTouched(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touches.IsTouched(path)
}

func (f *Form) IsSubmitted(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touches.IsSubmitted(path)
}

// IsTouchedAtOrBelow reports whether path or anything under it is touched.
func (f *Form) IsTouchedAtOrBelow(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touches.IsTouchedAtOrBelow(path)
}

// Errors returns the filtered error tree.
func (f *Form) Errors() *errtree.Tree {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tree
}

// Issues returns the last unfiltered validation result.
func (f *Form) Issues() formstate.Issues {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(formstate.Issues(f.issues))
}

// Track calls fn and returns the sorted set of paths read through the
// wrapper meanwhile.
func (f *Form) Track(fn func()) []string {
	f.mu.Lock()
	prev := f.reads
	f.reads = map[string]struct{}{}
	f.mu.Unlock()

	fn()

	f.mu.Lock()
	got := f.reads
	f.reads = prev
	f.mu.Unlock()
	out := make([]string, 0, len(got))
	for p := range got {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// OnChange subscribes fn and returns a function that unsubscribes it.
func (f *Form) OnChange(fn func(Event)) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *Form) emit(ev Event) {
	f.mu.Lock()
	ids := make([]int, 0, len(f.subs))
	for id := range f.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), len(ids))
	for i, id := range ids {
		fns[i] = f.subs[id]
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Reset replaces the root's contents with next's and forgets touch, submit and
// error state. In-flight validations become stale. Subscribers see one Event.
func (f *Form) Reset(next any) error {
	if value.Classify(next) != f.node.Kind() {
		return ErrRootMismatch
	}
	f.mu.Lock()
	f.gen++
	f.mu.Unlock()

	f.Batch(func() {
		switch root := f.node.(type) {
		case *formstate.ObjectNode:
			src := next.(*value.Object)
			for _, k := range root.Keys() {
				if !src.Has(k) {
					root.Delete(k)
				}
			}
			for _, k := range src.Keys() {
				v, _ := src.Get(k)
				_ = root.Set(k, v)
			}
		case *formstate.ArrayNode:
			root.Splice(0, root.Len(), next.(*value.Array).Items()...)
		}
		f.mu.Lock()
		f.touches.Clear()
		f.issues = nil
		f.dirty = false
		f.mu.Unlock()
	})
	f.log.Debug("form: reset", slog.Int("keys", lenOf(next)))
	return nil
}

func lenOf(v any) int {
	switch t := v.(type) {
	case *value.Object:
		return t.Len()
	case *value.Array:
		return t.Len()
	}
	return 0
}
