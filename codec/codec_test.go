package codec_test

import (
	"errors"
	"math"
	"math/big"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/reoring/formstate/codec"
	"github.com/reoring/formstate/value"
)

type point struct {
	X, Y float64
}

func pointRegistry(t *testing.T) *codec.Registry {
	t.Helper()
	r := codec.NewRegistry()
	err := codec.Register(r, "Point",
		func(p point) (any, error) { return value.NewObject("x", p.X, "y", p.Y), nil },
		func(v any) (point, error) {
			o, ok := v.(*value.Object)
			if !ok {
				return point{}, errors.New("point payload must be an object")
			}
			x, _ := o.Get("x")
			y, _ := o.Get("y")
			return point{X: x.(float64), Y: y.(float64)}, nil
		})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return r
}

func roundTrip(t *testing.T, c *codec.Codec, v any) any {
	t.Helper()
	data, err := c.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := c.Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return out
}

func TestRoundTrip_BuiltinsClassAndCycle(t *testing.T) {
	c := codec.New(pointRegistry(t))
	root := value.NewObject(
		"when", value.NewDate(time.Date(2024, 2, 29, 12, 30, 0, 500, time.UTC)),
		"tags", value.NewSet("a", "b"),
		"nested", value.NewMap("inner", value.NewMap(1.0, "one")),
		"origin", point{X: 1, Y: 2},
	)
	root.Set("self", root)

	out := roundTrip(t, c, root)
	o, ok := out.(*value.Object)
	if !ok {
		t.Fatalf("decoded %T", out)
	}
	if !value.Equal(root, o) {
		t.Fatalf("decoded value differs from original")
	}
	self, _ := o.Get("self")
	if self != o {
		t.Fatalf("cycle not preserved: self points to a copy")
	}
	p, _ := o.Get("origin")
	if p != (point{X: 1, Y: 2}) {
		t.Fatalf("class value = %#v", p)
	}
}

func TestRoundTrip_SharedReferences(t *testing.T) {
	shared := value.NewObject("v", 1.0)
	root := value.NewArray(shared, value.NewObject("again", shared), shared)

	out := roundTrip(t, codec.New(nil), root).(*value.Array)
	first, _ := out.At(0)
	last, _ := out.At(2)
	mid, _ := out.At(1)
	again, _ := mid.(*value.Object).Get("again")
	if first != last || first != again {
		t.Fatalf("shared reference decoded into copies")
	}
}

func TestRoundTrip_Leaves(t *testing.T) {
	u, _ := url.Parse("https://example.com/a?b=c")
	leaves := []any{
		nil, true, "s", 2.5, math.Copysign(0, -1), math.Inf(1), 42,
		big.NewInt(0).Lsh(big.NewInt(1), 80),
		regexp.MustCompile(`^a+$`),
		u,
		errors.New("boom"),
		[]byte{0, 1, 2},
	}
	c := codec.New(nil)
	for _, l := range leaves {
		got := roundTrip(t, c, value.NewArray(l)).(*value.Array)
		v, _ := got.At(0)
		if !value.Equal(l, v) {
			t.Fatalf("leaf %T %v decoded as %T %v", l, l, v, v)
		}
	}
	nan := roundTrip(t, c, math.NaN())
	if f, ok := nan.(float64); !ok || !math.IsNaN(f) {
		t.Fatalf("NaN decoded as %v", nan)
	}
}

func TestMarshal_IDsOnlyForShared(t *testing.T) {
	c := codec.New(nil)
	data, err := c.Marshal(value.NewObject("a", value.NewArray()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), `"id"`) {
		t.Fatalf("unshared containers must not get ids: %s", data)
	}
	want := `{"$t":"object","v":{"a":{"$t":"array","v":[]}}}`
	if string(data) != want {
		t.Fatalf("got %s\nwant %s", data, want)
	}
}

func TestRegistrationErrors(t *testing.T) {
	r := pointRegistry(t)
	err := codec.Register(r, "Point",
		func(p point) (any, error) { return nil, nil },
		func(any) (point, error) { return point{}, nil })
	var re *codec.RegistrationError
	if !errors.As(err, &re) || !errors.Is(err, codec.ErrDuplicateClass) {
		t.Fatalf("expected duplicate registration error, got %v", err)
	}

	_, err = codec.New(nil).Marshal(value.NewArray(point{}))
	if !errors.As(err, &re) || re.Op != "encode" || !errors.Is(err, codec.ErrUnregistered) {
		t.Fatalf("expected encode registration error, got %v", err)
	}

	data, err := codec.New(r).Marshal(point{X: 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = codec.New(codec.NewRegistry()).Unmarshal(data)
	if !errors.As(err, &re) || re.Op != "decode" || re.Name != "Point" {
		t.Fatalf("expected decode registration error, got %v", err)
	}
}

func TestUnmarshal_Malformed(t *testing.T) {
	c := codec.New(nil)
	cases := []string{
		`[1,2]`,
		`{"v":1}`,
		`{"$t":"object","v":[]}`,
		`{"$t":"nope","v":"x"}`,
		`{"$t":"map","v":[[1]]}`,
	}
	for _, in := range cases {
		if _, err := c.Unmarshal([]byte(in)); !errors.Is(err, codec.ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", in, err)
		}
	}
	if _, err := c.Unmarshal([]byte(`{"$t":"ref","id":9}`)); !errors.Is(err, codec.ErrUnknownRef) {
		t.Fatalf("expected ErrUnknownRef, got %v", err)
	}
}
