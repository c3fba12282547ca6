package value_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/formstate/value"
)

func TestClassify(t *testing.T) {
	var nilObj *value.Object
	cases := []struct {
		in   any
		want value.Kind
	}{
		{value.NewObject(), value.KindObject},
		{value.NewArray(), value.KindArray},
		{value.NewDate(time.Now()), value.KindDate},
		{value.NewMap(), value.KindMap},
		{value.NewSet(), value.KindSet},
		{"x", value.KindLeaf},
		{nil, value.KindLeaf},
		{nilObj, value.KindLeaf},
	}
	for _, tc := range cases {
		if got := value.Classify(tc.in); got != tc.want {
			t.Fatalf("Classify(%T) = %s, want %s", tc.in, got, tc.want)
		}
	}
	if !value.KindMap.IsBuiltin() || value.KindArray.IsBuiltin() {
		t.Fatalf("IsBuiltin mismatch")
	}
}

// tagged is comparable by type but not by every value it can hold.
type tagged struct{ V any }

func TestSame(t *testing.T) {
	o := value.NewObject()
	b := []byte("ab")
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"nan", math.NaN(), math.NaN(), true},
		{"signed zero", 0.0, math.Copysign(0, -1), false},
		{"strings", "a", "a", true},
		{"types differ", 1.0, 1, false},
		{"same pointer", o, o, true},
		{"equal objects", value.NewObject(), value.NewObject(), false},
		{"same bytes", b, b, true},
		{"copied bytes", b, []byte("ab"), false},
		{"nil pair", nil, nil, true},
		{"nil vs value", nil, 0.0, false},
		{"uncomparable", map[string]int{}, map[string]int{}, false},
		{"value vs nil", 0.0, nil, false},
		{"struct holding slice", tagged{V: []int{1}}, tagged{V: []int{1}}, false},
		{"struct holding scalar", tagged{V: "x"}, tagged{V: "x"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := value.Same(tc.a, tc.b); got != tc.want {
				t.Fatalf("Same = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEqual_Cycles(t *testing.T) {
	a := value.NewObject("name", "x")
	a.Set("self", a)
	b := value.NewObject("name", "x")
	b.Set("self", b)
	if !value.Equal(a, b) {
		t.Fatalf("expected cyclic graphs to be equal")
	}
	b.Set("name", "y")
	if value.Equal(a, b) {
		t.Fatalf("expected difference to be detected")
	}
}

func TestEqual_Builtins(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	x := value.NewObject(
		"when", value.NewDate(at),
		"tags", value.NewSet("a", "b"),
		"m", value.NewMap(1.0, value.NewArray("z")),
	)
	y := value.NewObject(
		"when", value.NewDate(at.In(time.FixedZone("JST", 9*3600))),
		"tags", value.NewSet("b", "a"),
		"m", value.NewMap(1.0, value.NewArray("z")),
	)
	if !value.Equal(x, y) {
		t.Fatalf("expected equal")
	}
	if value.Equal(errors.New("a"), errors.New("b")) {
		t.Fatalf("errors with different messages are not equal")
	}
}

func TestObject_KeyOrder(t *testing.T) {
	o := value.NewObject("b", 1.0, "a", 2.0)
	o.Set("c", 3.0)
	o.Set("b", 4.0)
	o.Delete("a")
	if diff := cmp.Diff([]string{"b", "c"}, o.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestArray_Holes(t *testing.T) {
	a := value.NewArray()
	a.SetAt(2, "x")
	if diff := cmp.Diff([]any{nil, nil, "x"}, a.Items()); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	a.SetLen(1)
	if _, ok := a.At(2); ok || a.Len() != 1 {
		t.Fatalf("expected truncation")
	}
}

func TestClone_PreservesSharing(t *testing.T) {
	shared := value.NewObject("v", 1.0)
	root := value.NewArray(shared, shared)
	root.SetAt(2, root)

	c := value.Clone(root).(*value.Array)
	if c == root {
		t.Fatalf("clone returned the original")
	}
	first, _ := c.At(0)
	second, _ := c.At(1)
	self, _ := c.At(2)
	if first != second || first == shared {
		t.Fatalf("shared reference not preserved")
	}
	if self != c {
		t.Fatalf("cycle not preserved")
	}
	if !value.Equal(root, c) {
		t.Fatalf("clone differs structurally")
	}
}

func TestFromGoToGo(t *testing.T) {
	in := map[string]any{
		"name": "ada",
		"age":  36,
		"tags": []any{"x", map[string]any{"k": true}},
	}
	v := value.FromGo(in)
	o, ok := v.(*value.Object)
	if !ok {
		t.Fatalf("FromGo returned %T", v)
	}
	if diff := cmp.Diff([]string{"age", "name", "tags"}, o.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{
		"name": "ada",
		"age":  36.0,
		"tags": []any{"x", map[string]any{"k": true}},
	}
	if diff := cmp.Diff(want, value.ToGo(v)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestToGo_CutsCycles(t *testing.T) {
	o := value.NewObject()
	o.Set("self", o)
	got := value.ToGo(o)
	if diff := cmp.Diff(map[string]any{"self": nil}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeJSON(t *testing.T) {
	v, err := value.DecodeJSON([]byte(`{"z":1,"a":[true,null,"s"],"m":{"y":2.5}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	o := v.(*value.Object)
	if diff := cmp.Diff([]string{"z", "a", "m"}, o.Keys()); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{
		"z": 1.0,
		"a": []any{true, nil, "s"},
		"m": map[string]any{"y": 2.5},
	}
	if diff := cmp.Diff(want, value.ToGo(v)); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	if _, err := value.DecodeJSON([]byte(`{} {}`)); !errors.Is(err, value.ErrTrailingData) {
		t.Fatalf("expected ErrTrailingData, got %v", err)
	}
	if _, err := value.DecodeJSON([]byte(`{"a":`)); err == nil {
		t.Fatalf("expected error on truncated input")
	}
}
