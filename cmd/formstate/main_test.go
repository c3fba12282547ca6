package main

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/reoring/formstate/errtree"
	"github.com/reoring/formstate/value"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const failures = `
mode: onSubmit
submitted: ["nodes[0].data.prompt.content"]
issues:
  - path: description
    code: required
  - path: nodes[0].data.prompt.content
    message: required
`

func TestErrorsCommand_FiltersAndAggregates(t *testing.T) {
	out, err := run(t, failures, "errors")
	if err != nil {
		t.Fatalf("errors: %v", err)
	}
	var got map[string]errtree.Node
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if _, ok := got["description"]; ok {
		t.Fatalf("unsubmitted failure kept under onSubmit")
	}
	want := errtree.Node{Own: []string{}, Descendant: []string{"required"}}
	if diff := cmp.Diff(want, normalize(got["nodes[0].data"])); diff != "" {
		t.Fatalf("nodes[0].data mismatch (-want +got):\n%s", diff)
	}
}

func normalize(n errtree.Node) errtree.Node {
	if n.Own == nil {
		n.Own = []string{}
	}
	return n
}

func TestErrorsCommand_ModeFlagAndCheck(t *testing.T) {
	out, err := run(t, failures, "errors", "--mode", "always", "--path", "description", "--lang", "ja", "--check")
	if err == nil {
		t.Fatalf("--check should fail when failures are kept")
	}
	if !strings.Contains(out, "必須項目です") {
		t.Fatalf("expected localized message, got %s", out)
	}
}

func TestErrorsCommand_BareListYAML(t *testing.T) {
	out, err := run(t, "- path: a.b\n  message: bad\n", "errors", "--mode", "always", "--format", "yaml")
	if err != nil {
		t.Fatalf("errors: %v", err)
	}
	if !strings.Contains(out, "a.b:") || !strings.Contains(out, "- bad") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestEncodeDecode(t *testing.T) {
	doc := "base: &b {x: 1}\ncopy: *b\nlist: [1, two]\n"
	encoded, err := run(t, doc, "encode")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(encoded, `{"$t":"ref","id":1}`) {
		t.Fatalf("alias should encode as a shared reference: %s", encoded)
	}

	decoded, err := run(t, encoded, "decode")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v, err := value.DecodeJSON([]byte(decoded))
	if err != nil {
		t.Fatalf("decoded output is not JSON: %v", err)
	}
	want := map[string]any{
		"base": map[string]any{"x": 1.0},
		"copy": map[string]any{"x": 1.0},
		"list": []any{1.0, "two"},
	}
	if diff := cmp.Diff(want, value.ToGo(v)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoot_RejectsFormat(t *testing.T) {
	if _, err := run(t, "[]", "encode", "--format", "xml"); err == nil {
		t.Fatalf("expected an error for an unknown format")
	}
}
