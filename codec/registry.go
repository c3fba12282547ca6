package codec

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var (
	// ErrUnregistered is wrapped by RegistrationError when a value's type or
	// a class tag has no registered class.
	ErrUnregistered = errors.New("codec: class not registered")
	// ErrDuplicateClass is wrapped by RegistrationError when a name or type
	// is registered twice.
	ErrDuplicateClass = errors.New("codec: class already registered")
)

// RegistrationError reports a class registry failure. It is always returned
// to the caller, never recovered internally.
type RegistrationError struct {
	Op   string // "register", "encode" or "decode"
	Name string // class name, when known
	Type string // Go type, when known
	Err  error
}

func (e *RegistrationError) Error() string {
	subject := e.Name
	if subject == "" {
		subject = e.Type
	} else if e.Type != "" {
		subject = fmt.Sprintf("%s (%s)", e.Name, e.Type)
	}
	return fmt.Sprintf("codec: %s %s: %v", e.Op, subject, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

type class struct {
	name   string
	typ    reflect.Type
	encode func(any) (any, error)
	decode func(any) (any, error)
}

// Registry maps class names to Go types and their conversions. A Registry is
// passed to New explicitly; there is no process-wide default.
type Registry struct {
	byName map[string]*class
	byType map[reflect.Type]*class
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*class{}, byType: map[reflect.Type]*class{}}
}

// Register adds class name for values of type T. encode turns a value into
// its payload in the container model; decode rebuilds the value from the
// decoded payload. T must be a concrete type.
func Register[T any](r *Registry, name string, encode func(T) (any, error), decode func(any) (T, error)) error {
	typ := reflect.TypeFor[T]()
	if name == "" || typ.Kind() == reflect.Interface || encode == nil || decode == nil {
		return &RegistrationError{Op: "register", Name: name, Type: typ.String(), Err: errors.New("name, concrete type and both conversions are required")}
	}
	if _, dup := r.byName[name]; dup {
		return &RegistrationError{Op: "register", Name: name, Type: typ.String(), Err: ErrDuplicateClass}
	}
	if _, dup := r.byType[typ]; dup {
		return &RegistrationError{Op: "register", Name: name, Type: typ.String(), Err: ErrDuplicateClass}
	}
	c := &class{
		name:   name,
		typ:    typ,
		encode: func(v any) (any, error) { return encode(v.(T)) },
		decode: func(p any) (any, error) { return decode(p) },
	}
	r.byName[name] = c
	r.byType[typ] = c
	return nil
}

// MustRegister is Register that panics on error.
func MustRegister[T any](r *Registry, name string, encode func(T) (any, error), decode func(any) (T, error)) {
	if err := Register(r, name, encode, decode); err != nil {
		panic(err)
	}
}

// Names lists the registered class names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) forValue(v any) (*class, bool) {
	if r == nil || v == nil {
		return nil, false
	}
	c, ok := r.byType[reflect.TypeOf(v)]
	return c, ok
}

func (r *Registry) forName(name string) (*class, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.byName[name]
	return c, ok
}
