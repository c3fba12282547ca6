// Package touch keeps per-path interaction state: whether a path has been
// touched by the user and whether it took part in a submit attempt.
package touch

import (
	"sort"

	"github.com/reoring/formstate/paths"
	"github.com/reoring/formstate/value"
)

// State is the interaction state of one path. A path without an entry is
// untouched and unsubmitted.
type State struct {
	Touched   bool `json:"touched" yaml:"touched"`
	Submitted bool `json:"submitted" yaml:"submitted"`
}

// Entry pairs a path with its State.
type Entry struct {
	Path  string `json:"path" yaml:"path"`
	State State  `json:"state" yaml:",inline"`
}

// Store maps paths to State. It is not safe for concurrent use.
type Store struct {
	m map[string]State
}

func NewStore() *Store { return &Store{m: map[string]State{}} }

// SetTouch creates or updates the entry for path. Touched is sticky: passing
// false never clears an existing touch; use Clear or ClearUnder for that.
func (s *Store) SetTouch(path string, touched bool) {
	st := s.m[path]
	st.Touched = st.Touched || touched
	s.m[path] = st
}

// MarkSubmitted flags path as part of a submit attempt.
func (s *Store) MarkSubmitted(path string) {
	st := s.m[path]
	st.Submitted = true
	s.m[path] = st
}

// MarkSubmittedTree marks the root and every path reachable inside v. Repeated
// references are marked at each position; cycles stop at the first revisit on
// the current branch.
func (s *Store) MarkSubmittedTree(v any) {
	s.MarkSubmitted("")
	s.markRecurse(v, "", map[any]bool{})
}

func (s *Store) markRecurse(v any, cur string, active map[any]bool) {
	kind := value.Classify(v)
	if kind != value.KindObject && kind != value.KindArray {
		return
	}
	if active[v] {
		return
	}
	active[v] = true
	defer delete(active, v)
	switch t := v.(type) {
	case *value.Object:
		for _, k := range t.Keys() {
			p := paths.Field(cur, k)
			s.MarkSubmitted(p)
			x, _ := t.Get(k)
			s.markRecurse(x, p, active)
		}
	case *value.Array:
		for i, x := range t.Items() {
			p := paths.Index(cur, i)
			s.MarkSubmitted(p)
			s.markRecurse(x, p, active)
		}
	}
}

// State returns the entry for path, or the zero State.
func (s *Store) State(path string) State { return s.m[path] }

func (s *Store) IsTouched(path string) bool   { return s.m[path].Touched }
func (s *Store) IsSubmitted(path string) bool { return s.m[path].Submitted }

// IsTouchedAtOrBelow reports whether path or any path under it is touched.
func (s *Store) IsTouchedAtOrBelow(path string) bool {
	for p, st := range s.m {
		if st.Touched && paths.IsAtOrUnder(p, path) {
			return true
		}
	}
	return false
}

// Under returns the entries at or below path, sorted by path.
func (s *Store) Under(path string) []Entry {
	var out []Entry
	for p, st := range s.m {
		if paths.IsAtOrUnder(p, path) {
			out = append(out, Entry{Path: p, State: st})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Clear empties the store.
func (s *Store) Clear() { clear(s.m) }

// ClearUnder removes the entries at or below path.
func (s *Store) ClearUnder(path string) {
	for p := range s.m {
		if paths.IsAtOrUnder(p, path) {
			delete(s.m, p)
		}
	}
}

// Migrate re-homes a captured set of entries from oldPath to newPath. Whatever
// was recorded under newPath before is replaced.
func (s *Store) Migrate(oldPath, newPath string, entries []Entry) {
	s.ClearUnder(newPath)
	for _, e := range entries {
		p, ok := paths.Rebase(e.Path, oldPath, newPath)
		if !ok {
			continue
		}
		s.m[p] = e.State
	}
}

func (s *Store) Len() int { return len(s.m) }
