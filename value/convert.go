package value

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"time"

	j "github.com/goccy/go-json"
)

// FromGo converts plain Go trees (map[string]any, []any, time.Time) into the
// container model. Map keys are ordered lexically because Go maps carry no
// order. Values already in the container model are returned as-is.
func FromGo(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			o.Set(k, FromGo(t[k]))
		}
		return o
	case []any:
		a := &Array{items: make([]any, len(t))}
		for i, x := range t {
			a.items[i] = FromGo(x)
		}
		return a
	case time.Time:
		return NewDate(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case j.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	}
	return v
}

// ToGo converts the container model back into plain Go values so validators
// can work on ordinary maps and slices. Cycles are cut: a container reached
// again while it is still being converted becomes nil.
func ToGo(v any) any {
	return toGo(v, map[any]bool{})
}

func toGo(v any, active map[any]bool) any {
	kind := Classify(v)
	if kind == KindLeaf {
		return v
	}
	if active[v] {
		return nil
	}
	active[v] = true
	defer delete(active, v)
	switch kind {
	case KindObject:
		o := v.(*Object)
		out := make(map[string]any, o.Len())
		for _, k := range o.keys {
			out[k] = toGo(o.vals[k], active)
		}
		return out
	case KindArray:
		a := v.(*Array)
		out := make([]any, len(a.items))
		for i, x := range a.items {
			out[i] = toGo(x, active)
		}
		return out
	case KindDate:
		return v.(*Date).Time()
	case KindMap:
		m := v.(*Map)
		out := make(map[any]any, m.Len())
		for _, k := range m.keys {
			out[k] = toGo(m.vals[k], active)
		}
		return out
	case KindSet:
		s := v.(*Set)
		out := make([]any, 0, s.Len())
		for _, x := range s.items {
			out = append(out, toGo(x, active))
		}
		return out
	}
	return v
}

// Clone deep-copies the container graph, preserving shared references and
// cycles. Leaves are shared.
func Clone(v any) any {
	return clone(v, map[any]any{})
}

func clone(v any, memo map[any]any) any {
	if Classify(v) == KindLeaf {
		return v
	}
	if c, ok := memo[v]; ok {
		return c
	}
	switch t := v.(type) {
	case *Object:
		c := &Object{keys: slices.Clone(t.keys), vals: make(map[string]any, len(t.vals))}
		memo[v] = c
		for k, x := range t.vals {
			c.vals[k] = clone(x, memo)
		}
		return c
	case *Array:
		c := &Array{items: make([]any, len(t.items))}
		memo[v] = c
		for i, x := range t.items {
			c.items[i] = clone(x, memo)
		}
		return c
	case *Date:
		c := NewDate(t.t)
		memo[v] = c
		return c
	case *Map:
		c := NewMap()
		memo[v] = c
		for _, k := range t.keys {
			c.Set(clone(k, memo), clone(t.vals[k], memo))
		}
		return c
	case *Set:
		c := NewSet()
		memo[v] = c
		for _, x := range t.items {
			c.Add(clone(x, memo))
		}
		return c
	}
	return v
}

// ErrTrailingData is returned by DecodeJSON when input holds more than one
// top-level value.
var ErrTrailingData = errors.New("value: trailing data after JSON value")

// DecodeJSON parses a JSON document into the container model, keeping object
// key order as it appears in the input. Numbers decode to float64.
func DecodeJSON(data []byte) (any, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	return v, nil
}

func decodeJSONValue(dec *j.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case j.Delim:
		switch t {
		case '{':
			o := NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("value: expected object key, got %v", kt)
				}
				x, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				o.Set(key, x)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return o, nil
		case '[':
			a := NewArray()
			for dec.More() {
				x, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				a.items = append(a.items, x)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return a, nil
		}
		return nil, fmt.Errorf("value: unexpected delimiter %v", t)
	case j.Number:
		return FromGo(t), nil
	default:
		return t, nil
	}
}
