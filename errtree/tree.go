// Package errtree turns a flat list of validation failures into a per-path
// error tree. Each path knows the messages reported exactly at it and the
// union of messages at it and below it.
package errtree

import (
	"iter"
	"slices"
	"sort"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/paths"
)

// Node is the error state of one path. Descendant always contains Own.
type Node struct {
	Own        []string `json:"own" yaml:"own"`
	Descendant []string `json:"descendant" yaml:"descendant"`
}

// GetOpts tunes Tree.Get.
type GetOpts struct {
	// IncludeDescendants returns the descendant list instead of own.
	IncludeDescendants bool
	// Raw returns messages as reported, in input order and without dedup.
	Raw bool
}

// Tree is the formatted result of Build. The zero Tree is empty.
type Tree struct {
	nodes  map[string]*Node
	issues []formstate.Issue
}

// Build formats issues into a Tree. Messages are deduplicated per path by
// exact string; the issue code stands in for an empty message.
func Build(issues []formstate.Issue) *Tree {
	t := &Tree{nodes: map[string]*Node{}, issues: slices.Clone(issues)}
	for _, it := range issues {
		msg := it.Text()
		n := t.node(it.Path)
		n.Own = addUnique(n.Own, msg)
		n.Descendant = addUnique(n.Descendant, msg)
		for _, anc := range paths.Ancestors(it.Path) {
			a := t.node(anc)
			a.Descendant = addUnique(a.Descendant, msg)
		}
		if it.Path != "" {
			r := t.node("")
			r.Descendant = addUnique(r.Descendant, msg)
		}
	}
	return t
}

func (t *Tree) node(p string) *Node {
	n := t.nodes[p]
	if n == nil {
		n = &Node{}
		t.nodes[p] = n
	}
	return n
}

func addUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}

// Get returns the messages at path. Without options that is the own list.
func (t *Tree) Get(path string, opts ...GetOpts) []string {
	var o GetOpts
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	if t == nil {
		return nil
	}
	if o.Raw {
		var out []string
		for _, it := range t.issues {
			if it.Path == path || (o.IncludeDescendants && paths.IsAtOrUnder(it.Path, path)) {
				out = append(out, it.Text())
			}
		}
		return out
	}
	n := t.nodes[path]
	if n == nil {
		return nil
	}
	if o.IncludeDescendants {
		return slices.Clone(n.Descendant)
	}
	return slices.Clone(n.Own)
}

// Has reports whether Get would return anything.
func (t *Tree) Has(path string, opts ...GetOpts) bool { return len(t.Get(path, opts...)) > 0 }

// Node returns a copy of the node at path, or the zero Node.
func (t *Tree) Node(path string) Node {
	if t == nil || t.nodes[path] == nil {
		return Node{}
	}
	n := t.nodes[path]
	return Node{Own: slices.Clone(n.Own), Descendant: slices.Clone(n.Descendant)}
}

// Paths lists every path that carries own or descendant errors, sorted.
func (t *Tree) Paths() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.nodes))
	for p := range t.nodes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// All iterates nodes in path order.
func (t *Tree) All() iter.Seq2[string, Node] {
	return func(yield func(string, Node) bool) {
		for _, p := range t.Paths() {
			if !yield(p, t.Node(p)) {
				return
			}
		}
	}
}

// Issues returns the failures the tree was built from.
func (t *Tree) Issues() []formstate.Issue {
	if t == nil {
		return nil
	}
	return slices.Clone(t.issues)
}

func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}
