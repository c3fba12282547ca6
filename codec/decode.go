package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strconv"

	"github.com/reoring/formstate/value"
)

type decoder struct {
	reg  *Registry
	byID map[int]any
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

func (d *decoder) build(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, float64, string:
		return v, nil
	case *value.Object:
		return d.envelope(t)
	}
	return nil, malformed("unexpected %s outside an envelope", value.Classify(v))
}

// bind records a container under its id before its children are decoded, so
// refs inside the container resolve to it.
func (d *decoder) bind(env *value.Object, c any) error {
	raw, ok := env.Get("id")
	if !ok {
		return nil
	}
	f, ok := raw.(float64)
	if !ok || f < 1 || f != float64(int(f)) {
		return malformed("invalid id %v", raw)
	}
	id := int(f)
	if _, dup := d.byID[id]; dup {
		return malformed("duplicate id %d", id)
	}
	d.byID[id] = c
	return nil
}

func (d *decoder) envelope(env *value.Object) (any, error) {
	tag, _ := env.Get("$t")
	name, ok := tag.(string)
	if !ok {
		return nil, malformed("envelope without $t")
	}
	payload, _ := env.Get("v")
	switch name {
	case TagRef:
		raw, _ := env.Get("id")
		f, _ := raw.(float64)
		if c, ok := d.byID[int(f)]; ok {
			return c, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnknownRef, raw)
	case TagObject:
		src, ok := payload.(*value.Object)
		if !ok {
			return nil, malformed("object payload is %s", value.Classify(payload))
		}
		o := value.NewObject()
		if err := d.bind(env, o); err != nil {
			return nil, err
		}
		for _, k := range src.Keys() {
			x, _ := src.Get(k)
			child, err := d.build(x)
			if err != nil {
				return nil, err
			}
			o.Set(k, child)
		}
		return o, nil
	case TagArray:
		items, err := d.items(payload)
		if err != nil {
			return nil, err
		}
		a := value.NewArray()
		if err := d.bind(env, a); err != nil {
			return nil, err
		}
		for i, x := range items {
			child, err := d.build(x)
			if err != nil {
				return nil, err
			}
			a.SetAt(i, child)
		}
		return a, nil
	case TagSet:
		items, err := d.items(payload)
		if err != nil {
			return nil, err
		}
		s := value.NewSet()
		if err := d.bind(env, s); err != nil {
			return nil, err
		}
		for _, x := range items {
			child, err := d.build(x)
			if err != nil {
				return nil, err
			}
			s.Add(child)
		}
		return s, nil
	case TagMap:
		pairs, err := d.items(payload)
		if err != nil {
			return nil, err
		}
		m := value.NewMap()
		if err := d.bind(env, m); err != nil {
			return nil, err
		}
		for _, p := range pairs {
			kv, err := d.items(p)
			if err != nil || len(kv) != 2 {
				return nil, malformed("map entry is not a pair")
			}
			k, err := d.build(kv[0])
			if err != nil {
				return nil, err
			}
			x, err := d.build(kv[1])
			if err != nil {
				return nil, err
			}
			m.Set(k, x)
		}
		return m, nil
	case TagDate:
		s, err := text(name, payload)
		if err != nil {
			return nil, err
		}
		t, err := parseRFC3339(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		dt := value.NewDate(t)
		if err := d.bind(env, dt); err != nil {
			return nil, err
		}
		return dt, nil
	case TagClass:
		cn, _ := env.Get("name")
		cname, _ := cn.(string)
		c, ok := d.reg.forName(cname)
		if !ok {
			return nil, &RegistrationError{Op: "decode", Name: cname, Err: ErrUnregistered}
		}
		p, err := d.build(payload)
		if err != nil {
			return nil, err
		}
		out, err := c.decode(p)
		if err != nil {
			return nil, fmt.Errorf("codec: decode class %s: %w", cname, err)
		}
		return out, nil
	}
	return d.leaf(name, payload)
}

func (d *decoder) leaf(tag string, payload any) (any, error) {
	s, err := text(tag, payload)
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagInt:
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return n, nil
	case TagFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return f, nil
	case TagBigInt:
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, malformed("invalid bigint %q", s)
		}
		return n, nil
	case TagRegexp:
		re, err := regexp.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return re, nil
	case TagURL:
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return u, nil
	case TagError:
		return errors.New(s), nil
	case TagBytes:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return b, nil
	}
	return nil, malformed("unknown tag %q", tag)
}

func (d *decoder) items(payload any) ([]any, error) {
	a, ok := payload.(*value.Array)
	if !ok {
		return nil, malformed("expected a list, got %s", value.Classify(payload))
	}
	return a.Items(), nil
}

func text(tag string, payload any) (string, error) {
	s, ok := payload.(string)
	if !ok {
		return "", malformed("%s payload is not a string", tag)
	}
	return s, nil
}
