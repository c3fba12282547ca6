package rules_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/form"
	"github.com/reoring/formstate/rules"
	"github.com/reoring/formstate/value"
)

func signup() *value.Object {
	return value.NewObject(
		"name", "",
		"age", 16.0,
		"plan", "team",
		"email", "bob@",
		"members", value.NewArray(
			value.NewObject("email", "a@example.com"),
			value.NewObject("email", "b@example.com"),
			value.NewObject("email", "a@example.com"),
		),
	)
}

func codesByPath(iss []formstate.Issue) map[string]string {
	out := map[string]string{}
	for _, it := range iss {
		out[it.Path] = it.Code
	}
	return out
}

func TestRules_Basics(t *testing.T) {
	r := rules.And(
		rules.Required("name"),
		rules.Required("missing"),
		rules.Min("age", 18),
		rules.Max("age", 10),
		rules.Pattern("email", regexp.MustCompile(`^[^@]+@[^@]+$`)),
		rules.MinLength("plan", 5),
		rules.MaxLength("members", 2),
		rules.UniqueBy("members", "email"),
	)
	got := codesByPath(r(context.Background(), signup()))
	want := map[string]string{
		"name":             formstate.CodeRequired,
		"missing":          formstate.CodeRequired,
		"age":              formstate.CodeTooBig,
		"email":            formstate.CodePattern,
		"plan":             formstate.CodeTooShort,
		"members":          formstate.CodeTooLong,
		"members[2].email": formstate.CodeUniqueness,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestRules_Params(t *testing.T) {
	iss := rules.UniqueBy("members", "email")(context.Background(), signup())
	if len(iss) != 1 {
		t.Fatalf("want one duplicate, got %v", iss)
	}
	want := map[string]any{"first": 0, "dup": 2}
	if diff := cmp.Diff(want, iss[0].Params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
	if iss[0].Message != "" {
		t.Fatalf("rules should leave messages to the translator, got %q", iss[0].Message)
	}
}

func TestConditional(t *testing.T) {
	doc := signup()
	cases := []struct {
		name string
		cond rules.Conditional
		want bool
	}{
		{"eq", rules.If("plan", rules.Eq, "team"), true},
		{"ne", rules.If("plan", rules.Ne, "team"), false},
		{"int against float", rules.If("age", rules.Lt, 18), true},
		{"ge", rules.If("age", rules.Ge, 16), true},
		{"missing path", rules.If("nope", rules.Ne, "x"), false},
		{"ordered on string", rules.If("plan", rules.Gt, 1), false},
		{"nested path", rules.If("members[1].email", rules.Eq, "b@example.com"), true},
		{"and", rules.If("plan", rules.Eq, "team").And(rules.If("age", rules.Gt, 20)), false},
		{"or", rules.If("plan", rules.Eq, "solo").Or(rules.If("age", rules.Le, 16)), true},
		{"empty any", rules.IfAny(), false},
		{"empty all", rules.IfAll(), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cond.Holds(doc); got != tc.want {
				t.Fatalf("Holds = %v, want %v", got, tc.want)
			}
		})
	}

	r := rules.If("plan", rules.Eq, "team").Then(rules.AtLeastOne("members"))
	doc.Set("members", value.NewArray())
	if got := codesByPath(r(context.Background(), doc)); got["members"] != formstate.CodeTooShort {
		t.Fatalf("team plan without members should fail, got %v", got)
	}
	doc.Set("plan", "solo")
	if iss := r(context.Background(), doc); len(iss) != 0 {
		t.Fatalf("condition does not hold, got %v", iss)
	}
}

func TestEach(t *testing.T) {
	r := rules.Each("members", func(elem string) []rules.Rule {
		return []rules.Rule{rules.Pattern(elem+".email", regexp.MustCompile(`^a@`))}
	})
	got := codesByPath(r(context.Background(), signup()))
	want := map[string]string{"members[1].email": formstate.CodePattern}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestFailFastAndOr(t *testing.T) {
	r := rules.And(rules.Required("name"), rules.Required("missing"))
	ctx := rules.WithFailFast(context.Background(), true)
	if iss := r(ctx, signup()); len(iss) != 1 {
		t.Fatalf("fail-fast should stop after the first failing rule, got %v", iss)
	}

	either := rules.Or(rules.Required("name"), rules.Required("plan"))
	if iss := either(context.Background(), signup()); len(iss) != 0 {
		t.Fatalf("one passing branch is enough, got %v", iss)
	}
	neither := rules.Or(r, rules.Required("name"))
	if iss := neither(context.Background(), signup()); len(iss) != 1 || iss[0].Path != "name" {
		t.Fatalf("Or should report the smallest failing branch, got %v", iss)
	}
}

func TestLookup(t *testing.T) {
	doc := value.NewObject("m", value.NewMap("k", value.NewArray(1.0, 2.0)))
	if v, ok := rules.Lookup(doc, "m.k[1]"); !ok || v != 2.0 {
		t.Fatalf("Lookup = %v, %v", v, ok)
	}
	for _, p := range []string{"m.k.x", "m.k[5]", "m[0]", "x..y"} {
		if _, ok := rules.Lookup(doc, p); ok {
			t.Fatalf("Lookup(%q) should fail", p)
		}
	}
	if v, ok := rules.Lookup(doc, ""); !ok || v != any(doc) {
		t.Fatalf("empty path should resolve to the root")
	}
}

func TestValidator_WithForm(t *testing.T) {
	v := rules.Validator(rules.Required("name"), rules.Min("age", 18))
	cfg := form.DefaultConfig()
	cfg.Language = "ja"
	f, err := form.New(signup(), form.WithConfig(cfg), form.WithValidator(v))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = f.Submit(context.Background())
	iss, ok := formstate.AsIssues(err)
	if !ok {
		t.Fatalf("submit should fail with issues, got %v", err)
	}
	got := map[string]string{}
	for _, it := range iss {
		got[it.Path] = it.Message
	}
	want := map[string]string{"name": "必須項目です", "age": "18 以上で入力してください"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestValidator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rules.Validator(rules.Required("name")).Validate(ctx, signup())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
