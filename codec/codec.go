// Package codec serializes container-model values to JSON text and back,
// keeping built-in types, shared references, cycles and registered classes.
//
// Every non-primitive value is written as an envelope object:
//
//	{"$t":"object","id":1,"v":{"name":"x","self":{"$t":"ref","id":1}}}
//
// Encoding runs in two passes. The first pass walks the graph and gives an id
// to every container reached more than once, in first-seen order. The second
// pass writes each container once and replaces later encounters with a ref.
package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net/url"
	"regexp"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/reoring/formstate/value"
)

// Envelope tags.
const (
	TagObject = "object"
	TagArray  = "array"
	TagDate   = "date"
	TagMap    = "map"
	TagSet    = "set"
	TagRef    = "ref"
	TagBigInt = "bigint"
	TagRegexp = "regexp"
	TagURL    = "url"
	TagError  = "error"
	TagInt    = "int"
	TagFloat  = "float"
	TagBytes  = "bytes"
	TagClass  = "class"
)

var (
	ErrMalformed  = errors.New("codec: malformed document")
	ErrUnknownRef = errors.New("codec: reference to unknown id")
)

// Codec encodes and decodes with one Registry. The zero Codec knows no
// classes.
type Codec struct {
	reg *Registry
}

// New returns a Codec bound to r. r may be nil.
func New(r *Registry) *Codec { return &Codec{reg: r} }

// Marshal encodes v.
func (c *Codec) Marshal(v any) ([]byte, error) {
	e := &encoder{reg: c.reg, seen: map[any]int{}, ids: map[any]int{}, emitted: map[any]bool{}}
	if err := e.scan(v); err != nil {
		return nil, err
	}
	for _, x := range e.order {
		if e.seen[x] > 1 {
			e.next++
			e.ids[x] = e.next
		}
	}
	if err := e.emit(v); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// Unmarshal decodes data produced by Marshal.
func (c *Codec) Unmarshal(data []byte) (any, error) {
	doc, err := value.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	d := &decoder{reg: c.reg, byID: map[int]any{}}
	return d.build(doc)
}

type encoder struct {
	reg      *Registry
	seen     map[any]int
	order    []any
	ids      map[any]int
	next     int
	payloads []any
	pi       int
	emitted  map[any]bool
	buf      bytes.Buffer
}

// leafTag returns the envelope tag for leaves that need one; plain JSON
// primitives return "".
func leafTag(v any) (string, bool) {
	switch t := v.(type) {
	case nil, bool, string:
		return "", true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return TagFloat, true
		}
		return "", true
	case int:
		return TagInt, true
	case []byte:
		return TagBytes, true
	case *big.Int:
		return TagBigInt, t != nil
	case *regexp.Regexp:
		return TagRegexp, t != nil
	case *url.URL:
		return TagURL, t != nil
	}
	return "", false
}

func (e *encoder) scan(v any) error {
	if value.IsContainer(v) {
		e.seen[v]++
		if e.seen[v] > 1 {
			return nil
		}
		e.order = append(e.order, v)
		return e.scanChildren(v)
	}
	if _, ok := leafTag(v); ok {
		return nil
	}
	if c, ok := e.reg.forValue(v); ok {
		p, err := c.encode(v)
		if err != nil {
			return fmt.Errorf("codec: encode class %s: %w", c.name, err)
		}
		e.payloads = append(e.payloads, p)
		return e.scan(p)
	}
	if _, ok := v.(error); ok {
		return nil
	}
	return &RegistrationError{Op: "encode", Type: fmt.Sprintf("%T", v), Err: ErrUnregistered}
}

func (e *encoder) scanChildren(v any) error {
	var kids []any
	switch t := v.(type) {
	case *value.Object:
		for _, k := range t.Keys() {
			x, _ := t.Get(k)
			kids = append(kids, x)
		}
	case *value.Array:
		kids = t.Items()
	case *value.Map:
		for _, k := range t.Keys() {
			x, _ := t.Get(k)
			kids = append(kids, k, x)
		}
	case *value.Set:
		kids = t.Values()
	}
	for _, k := range kids {
		if err := e.scan(k); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) raw(s string) { e.buf.WriteString(s) }

func (e *encoder) str(s string) {
	b, _ := json.Marshal(s)
	e.buf.Write(b)
}

// open writes the start of an envelope up to and including the "v" key.
func (e *encoder) open(tag string, id int) {
	e.raw(`{"$t":`)
	e.str(tag)
	if id > 0 {
		e.raw(`,"id":`)
		e.raw(strconv.Itoa(id))
	}
	e.raw(`,"v":`)
}

func (e *encoder) leaf(tag, payload string) {
	e.open(tag, 0)
	e.str(payload)
	e.raw("}")
}

func (e *encoder) emit(v any) error {
	if value.IsContainer(v) {
		return e.emitContainer(v)
	}
	switch t := v.(type) {
	case nil:
		e.raw("null")
	case bool:
		e.raw(strconv.FormatBool(t))
	case string:
		e.str(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			e.leaf(TagFloat, strconv.FormatFloat(t, 'g', -1, 64))
			return nil
		}
		e.raw(strconv.FormatFloat(t, 'g', -1, 64))
	case int:
		e.leaf(TagInt, strconv.Itoa(t))
	case []byte:
		e.leaf(TagBytes, base64.StdEncoding.EncodeToString(t))
	case *big.Int:
		e.leaf(TagBigInt, t.String())
	case *regexp.Regexp:
		e.leaf(TagRegexp, t.String())
	case *url.URL:
		e.leaf(TagURL, t.String())
	default:
		if c, ok := e.reg.forValue(v); ok {
			p := e.payloads[e.pi]
			e.pi++
			e.raw(`{"$t":"class","name":`)
			e.str(c.name)
			e.raw(`,"v":`)
			if err := e.emit(p); err != nil {
				return err
			}
			e.raw("}")
			return nil
		}
		if err, ok := v.(error); ok {
			e.leaf(TagError, err.Error())
			return nil
		}
		return &RegistrationError{Op: "encode", Type: fmt.Sprintf("%T", v), Err: ErrUnregistered}
	}
	return nil
}

func (e *encoder) emitContainer(v any) error {
	id := e.ids[v]
	if e.emitted[v] {
		e.raw(`{"$t":"ref","id":`)
		e.raw(strconv.Itoa(id))
		e.raw("}")
		return nil
	}
	e.emitted[v] = true
	switch t := v.(type) {
	case *value.Object:
		e.open(TagObject, id)
		e.raw("{")
		for i, k := range t.Keys() {
			if i > 0 {
				e.raw(",")
			}
			e.str(k)
			e.raw(":")
			x, _ := t.Get(k)
			if err := e.emit(x); err != nil {
				return err
			}
		}
		e.raw("}}")
	case *value.Array:
		e.open(TagArray, id)
		if err := e.list(t.Items()); err != nil {
			return err
		}
		e.raw("}")
	case *value.Date:
		e.open(TagDate, id)
		e.str(formatRFC3339Canonical(t.Time()))
		e.raw("}")
	case *value.Map:
		e.open(TagMap, id)
		e.raw("[")
		for i, k := range t.Keys() {
			if i > 0 {
				e.raw(",")
			}
			x, _ := t.Get(k)
			if err := e.list([]any{k, x}); err != nil {
				return err
			}
		}
		e.raw("]}")
	case *value.Set:
		e.open(TagSet, id)
		if err := e.list(t.Values()); err != nil {
			return err
		}
		e.raw("}")
	}
	return nil
}

func (e *encoder) list(items []any) error {
	e.raw("[")
	for i, x := range items {
		if i > 0 {
			e.raw(",")
		}
		if err := e.emit(x); err != nil {
			return err
		}
	}
	e.raw("]")
	return nil
}
