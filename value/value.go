package value

import (
	"math"
	"math/big"
	"net/url"
	"reflect"
	"regexp"
	"slices"
	"time"
)

// Kind is the closed set of shapes the tracking engine distinguishes.
type Kind uint8

const (
	KindLeaf Kind = iota // primitives and immutable built-ins (regexp, bytes, big ints, URLs, errors)
	KindObject
	KindArray
	KindDate
	KindMap
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindDate:
		return "date"
	case KindMap:
		return "map"
	case KindSet:
		return "set"
	default:
		return "leaf"
	}
}

// Classify resolves the Kind of v. Nil container pointers classify as leaves.
func Classify(v any) Kind {
	switch t := v.(type) {
	case *Object:
		if t != nil {
			return KindObject
		}
	case *Array:
		if t != nil {
			return KindArray
		}
	case *Date:
		if t != nil {
			return KindDate
		}
	case *Map:
		if t != nil {
			return KindMap
		}
	case *Set:
		if t != nil {
			return KindSet
		}
	}
	return KindLeaf
}

// IsContainer reports whether v has identity worth tracking.
func IsContainer(v any) bool { return Classify(v) != KindLeaf }

// IsBuiltin reports whether k is one of the method-intercepted containers.
func (k Kind) IsBuiltin() bool { return k == KindDate || k == KindMap || k == KindSet }

// Same is the identity comparison used for no-op detection. Containers compare
// by pointer, NaN equals NaN, and byte slices compare by backing array.
func Same(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case float64:
		y, ok := b.(float64)
		if !ok {
			return false
		}
		if math.IsNaN(x) && math.IsNaN(y) {
			return true
		}
		return x == y && math.Signbit(x) == math.Signbit(y)
	case []byte:
		y, ok := b.([]byte)
		if !ok || len(x) != len(y) {
			return false
		}
		return len(x) == 0 || &x[0] == &y[0]
	}
	if _, ok := b.([]byte); ok || b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}

// Equal reports deep structural equality. Cycles are handled by assuming a
// pair of containers already under comparison is equal.
func Equal(a, b any) bool {
	return equal(a, b, map[[2]any]bool{})
}

func equal(a, b any, seen map[[2]any]bool) bool {
	ka, kb := Classify(a), Classify(b)
	if ka != kb {
		return false
	}
	if ka != KindLeaf {
		key := [2]any{a, b}
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	switch ka {
	case KindObject:
		x, y := a.(*Object), b.(*Object)
		if x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.Get(k)
			if !ok || !equal(x.vals[k], yv, seen) {
				return false
			}
		}
		return true
	case KindArray:
		x, y := a.(*Array), b.(*Array)
		if x.Len() != y.Len() {
			return false
		}
		for i := range x.items {
			if !equal(x.items[i], y.items[i], seen) {
				return false
			}
		}
		return true
	case KindDate:
		return a.(*Date).Time().Equal(b.(*Date).Time())
	case KindMap:
		x, y := a.(*Map), b.(*Map)
		if x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.Get(k)
			if !ok || !equal(x.vals[k], yv, seen) {
				return false
			}
		}
		return true
	case KindSet:
		x, y := a.(*Set), b.(*Set)
		if x.Len() != y.Len() {
			return false
		}
		for _, v := range x.items {
			if y.Has(v) {
				continue
			}
			if !slices.ContainsFunc(y.items, func(w any) bool { return equal(v, w, seen) }) {
				return false
			}
		}
		return true
	}
	return leafEqual(a, b)
}

func leafEqual(a, b any) bool {
	switch x := a.(type) {
	case *big.Int:
		y, ok := b.(*big.Int)
		return ok && (x == y || (x != nil && y != nil && x.Cmp(y) == 0))
	case *regexp.Regexp:
		y, ok := b.(*regexp.Regexp)
		return ok && (x == y || (x != nil && y != nil && x.String() == y.String()))
	case *url.URL:
		y, ok := b.(*url.URL)
		return ok && (x == y || (x != nil && y != nil && x.String() == y.String()))
	case []byte:
		y, ok := b.([]byte)
		return ok && string(x) == string(y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case error:
		y, ok := b.(error)
		return ok && x.Error() == y.Error()
	}
	if Same(a, b) {
		return true
	}
	return reflect.DeepEqual(a, b)
}
