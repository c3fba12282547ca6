package errtree_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/errtree"
	"github.com/reoring/formstate/touch"
)

func TestBuild_Aggregation(t *testing.T) {
	tree := errtree.Build([]formstate.Issue{
		{Path: "description", Message: "required"},
		{Path: "nodes[0].data.prompt.content", Message: "required"},
	})

	leaf := tree.Node("nodes[0].data.prompt.content")
	if diff := cmp.Diff([]string{"required"}, leaf.Own); diff != "" {
		t.Fatalf("leaf own mismatch (-want +got):\n%s", diff)
	}
	for _, p := range []string{"nodes[0].data.prompt", "nodes[0].data", "nodes[0]", "nodes"} {
		n := tree.Node(p)
		if len(n.Own) != 0 {
			t.Fatalf("%s: own should be empty, got %v", p, n.Own)
		}
		if diff := cmp.Diff([]string{"required"}, n.Descendant); diff != "" {
			t.Fatalf("%s: descendant mismatch (-want +got):\n%s", p, diff)
		}
	}
	if !tree.Has("description") || tree.Has("nodes") {
		t.Fatalf("Has mismatch")
	}
	if !tree.Has("nodes", errtree.GetOpts{IncludeDescendants: true}) {
		t.Fatalf("expected descendant errors under nodes")
	}
	if tree.Get("missing") != nil {
		t.Fatalf("expected nil for a path without errors")
	}
}

func TestBuild_Dedup(t *testing.T) {
	tree := errtree.Build([]formstate.Issue{
		{Path: "a.b", Message: "too short"},
		{Path: "a.b", Message: "too short"},
		{Path: "a.c", Message: "too short"},
		{Path: "a.b", Code: formstate.CodePattern},
	})
	if diff := cmp.Diff([]string{"too short", "pattern"}, tree.Get("a.b")); diff != "" {
		t.Fatalf("own mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"too short", "pattern"}, tree.Get("a", errtree.GetOpts{IncludeDescendants: true})); diff != "" {
		t.Fatalf("descendant mismatch (-want +got):\n%s", diff)
	}
	raw := tree.Get("a", errtree.GetOpts{IncludeDescendants: true, Raw: true})
	if diff := cmp.Diff([]string{"too short", "too short", "too short", "pattern"}, raw); diff != "" {
		t.Fatalf("raw mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"", "a", "a.b", "a.c"}, tree.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_DescendantContainsOwn(t *testing.T) {
	tree := errtree.Build([]formstate.Issue{
		{Path: "list", Message: "too few"},
		{Path: "list[3]", Message: "bad"},
	})
	for p, n := range tree.All() {
		for _, m := range n.Own {
			if !slices.Contains(n.Descendant, m) {
				t.Fatalf("%s: own %q missing from descendant", p, m)
			}
		}
	}
	if diff := cmp.Diff([]string{"too few", "bad"}, tree.Get("list", errtree.GetOpts{IncludeDescendants: true})); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter_Modes(t *testing.T) {
	issues := []formstate.Issue{
		{Path: "p", Message: "required"},
		{Path: "q", Message: "required"},
	}
	st := touch.NewStore()
	st.SetTouch("q", true)

	if got := errtree.Filter(issues, errtree.OnSubmit, st); len(got) != 0 {
		t.Fatalf("onSubmit before submit should drop everything, got %v", got)
	}
	st.MarkSubmitted("p")
	got := errtree.Filter(issues, errtree.OnSubmit, st)
	if len(got) != 1 || got[0].Path != "p" {
		t.Fatalf("onSubmit = %v", got)
	}
	got = errtree.Filter(issues, errtree.OnTouch, st)
	if len(got) != 1 || got[0].Path != "q" {
		t.Fatalf("onTouch = %v", got)
	}
	if got := errtree.Filter(issues, errtree.Always, nil); len(got) != 2 {
		t.Fatalf("always = %v", got)
	}
	tree := errtree.Build(errtree.Filter(issues, errtree.OnSubmit, st))
	if tree.Has("q", errtree.GetOpts{Raw: true}) {
		t.Fatalf("filtered failure must be absent from the tree")
	}
}

func TestMode_YAML(t *testing.T) {
	var cfg struct {
		Mode errtree.Mode `yaml:"mode"`
	}
	if err := yaml.Unmarshal([]byte("mode: onTouch\n"), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Mode != errtree.OnTouch {
		t.Fatalf("mode = %s", cfg.Mode)
	}
	if err := yaml.Unmarshal([]byte("mode: sometimes\n"), &cfg); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	out, err := yaml.Marshal(map[string]errtree.Mode{"mode": errtree.Always})
	if err != nil || string(out) != "mode: always\n" {
		t.Fatalf("marshal = %q %v", out, err)
	}
	if m, err := errtree.ParseMode("ON_SUBMIT"); err != nil || m != errtree.OnSubmit {
		t.Fatalf("ParseMode = %v %v", m, err)
	}
}

func TestEqual(t *testing.T) {
	a := []formstate.Issue{{Path: "x", Code: "custom", Params: map[string]any{"min": 3.0}, Cause: errors.New("boom")}}
	b := []formstate.Issue{{Path: "x", Code: "custom", Params: map[string]any{"min": 3.0}, Cause: errors.New("boom")}}
	if !errtree.Equal(a, b) {
		t.Fatalf("expected equal: %s", errtree.Diff(a, b))
	}
	b[0].Params["min"] = 4.0
	if errtree.Equal(a, b) || errtree.Diff(a, b) == "" {
		t.Fatalf("expected difference in params")
	}
	if !errtree.Equal(nil, []formstate.Issue{}) {
		t.Fatalf("nil and empty should be equal")
	}
}
