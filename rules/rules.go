// Package rules builds form validators from small path-addressed rules.
//
//	v := rules.Validator(
//		rules.Required("name"),
//		rules.Min("age", 18),
//		rules.If("plan", rules.Eq, "team").Then(rules.AtLeastOne("members")),
//		rules.UniqueBy("members", "email"),
//	)
//	f, _ := form.New(root, form.WithValidator(v))
//
// Rules read the raw container model (value.Object, value.Array and so on)
// and report issues without messages; the form fills messages in from its
// translator.
package rules

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"unicode/utf8"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/form"
	"github.com/reoring/formstate/paths"
	"github.com/reoring/formstate/value"
)

// Rule checks root and reports failures.
type Rule func(ctx context.Context, root any) []formstate.Issue

type ctxKey int

const failFastKey ctxKey = iota

// WithFailFast returns a child context that makes combinators stop at the
// first rule reporting issues.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, failFastKey, enabled)
}

// IsFailFast reports whether ctx asks combinators to stop early.
func IsFailFast(ctx context.Context) bool {
	v, _ := ctx.Value(failFastKey).(bool)
	return v
}

// Validator runs every rule in order and adapts the result to form.Validator.
// A cancelled context stops between rules.
func Validator(rs ...Rule) form.Validator {
	all := And(rs...)
	return form.ValidatorFunc(func(ctx context.Context, root any) ([]formstate.Issue, error) {
		iss := all(ctx, root)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return iss, nil
	})
}

// Op defines simple comparison operators for If(...).Then(...).
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (op Op) String() string {
	switch op {
	case Eq:
		return "=="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Conditional composes conditional execution of rules.
type Conditional struct {
	kind condKind
	path string
	op   Op
	want any
	subs []Conditional
}

type condKind int

const (
	condPath condKind = iota
	condAll
	condAny
)

// If builds a conditional that compares the value at path with want. A
// missing path never satisfies the condition.
func If(path string, op Op, want any) Conditional {
	return Conditional{path: path, op: op, want: value.FromGo(want)}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Conditional) Conditional { return Conditional{kind: condAll, subs: conds} }

// IfAny builds a conditional that requires any condition to hold.
// An empty IfAny never holds.
func IfAny(conds ...Conditional) Conditional { return Conditional{kind: condAny, subs: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	return IfAll(append([]Conditional{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	return IfAny(append([]Conditional{c}, others...)...)
}

// Holds evaluates the condition against root.
func (c Conditional) Holds(root any) bool {
	switch c.kind {
	case condAll:
		for _, it := range c.subs {
			if !it.Holds(root) {
				return false
			}
		}
		return true
	case condAny:
		for _, it := range c.subs {
			if it.Holds(root) {
				return true
			}
		}
		return false
	}
	cur, ok := Lookup(root, c.path)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// Then attaches rules to run when the condition holds.
func (c Conditional) Then(rs ...Rule) Rule {
	then := And(rs...)
	return func(ctx context.Context, root any) []formstate.Issue {
		if !c.Holds(root) {
			return nil
		}
		return then(ctx, root)
	}
}

// Required reports a missing, null or empty-string value at path. Empty
// arrays and objects count as present.
func Required(path string) Rule {
	return func(_ context.Context, root any) []formstate.Issue {
		v, ok := Lookup(root, path)
		if ok && v != nil && v != "" {
			return nil
		}
		return []formstate.Issue{issueAt(path, formstate.CodeRequired)}
	}
}

// MinLength reports a string (counted in runes) or array shorter than n.
// Other values and missing paths are left to Required.
func MinLength(path string, n int) Rule {
	return func(_ context.Context, root any) []formstate.Issue {
		if l, ok := length(root, path); ok && l < n {
			return []formstate.Issue{issueAt(path, formstate.CodeTooShort, "min", n, "actual", l)}
		}
		return nil
	}
}

// MaxLength reports a string (counted in runes) or array longer than n.
func MaxLength(path string, n int) Rule {
	return func(_ context.Context, root any) []formstate.Issue {
		if l, ok := length(root, path); ok && l > n {
			return []formstate.Issue{issueAt(path, formstate.CodeTooLong, "max", n, "actual", l)}
		}
		return nil
	}
}

// AtLeastOne ensures the array at path has at least 1 element.
func AtLeastOne(path string) Rule {
	return func(_ context.Context, root any) []formstate.Issue {
		v, ok := Lookup(root, path)
		if !ok {
			return nil
		}
		if a, isArr := v.(*value.Array); isArr && a.Len() == 0 {
			return []formstate.Issue{issueAt(path, formstate.CodeTooShort, "min", 1)}
		}
		// Not a collection; do not issue error here to avoid noise
		return nil
	}
}

// Min reports a number below n.
func Min(path string, n float64) Rule {
	return func(_ context.Context, root any) []formstate.Issue {
		v, ok := Lookup(root, path)
		if !ok {
			return nil
		}
		if f, isNum := toFloat64(v); isNum && f < n {
			return []formstate.Issue{issueAt(path, formstate.CodeTooSmall, "min", n)}
		}
		return nil
	}
}

// Max reports a number above n.
func Max(path string, n float64) Rule {
	return func(_ context.Context, root any) []formstate.Issue {
		v, ok := Lookup(root, path)
		if !ok {
			return nil
		}
		if f, isNum := toFloat64(v); isNum && f > n {
			return []formstate.Issue{issueAt(path, formstate.CodeTooBig, "max", n)}
		}
		return nil
	}
}

// Pattern reports a string that does not match re.
func Pattern(path string, re *regexp.Regexp) Rule {
	return func(_ context.Context, root any) []formstate.Issue {
		v, ok := Lookup(root, path)
		if !ok {
			return nil
		}
		s, isStr := v.(string)
		if !isStr || re.MatchString(s) {
			return nil
		}
		return []formstate.Issue{issueAt(path, formstate.CodePattern, "pattern", re.String())}
	}
}

// UniqueBy ensures elements of the array at collectionPath have unique values
// at keyPath, a path relative to each element (for example "sku" or
// "address.zip"). Duplicates are reported at the key of every repeat.
// Note: keys compare with value.Equal, so 1 and "1" are distinct.
func UniqueBy(collectionPath, keyPath string) Rule {
	return func(_ context.Context, root any) []formstate.Issue {
		v, ok := Lookup(root, collectionPath)
		if !ok {
			return nil
		}
		a, isArr := v.(*value.Array)
		if !isArr {
			return nil
		}
		var (
			seen []any
			at   []int
			out  []formstate.Issue
		)
	elems:
		for i := 0; i < a.Len(); i++ {
			elem, _ := a.At(i)
			kv, ok := Lookup(elem, keyPath)
			if !ok {
				continue
			}
			for n, prev := range seen {
				if value.Equal(prev, kv) {
					p := paths.At(collectionPath).Index(i).String()
					if keyPath != "" {
						p = paths.Field(p, keyPath)
					}
					out = append(out, issueAt(p, formstate.CodeUniqueness, "first", at[n], "dup", i))
					continue elems
				}
			}
			seen = append(seen, kv)
			at = append(at, i)
		}
		return out
	}
}

// Each runs the rules built by fn for every element of the array at path.
// fn receives the element's path, for example "items[2]".
func Each(path string, fn func(elem string) []Rule) Rule {
	return func(ctx context.Context, root any) []formstate.Issue {
		v, ok := Lookup(root, path)
		if !ok {
			return nil
		}
		a, isArr := v.(*value.Array)
		if !isArr {
			return nil
		}
		var out []formstate.Issue
		for i := 0; i < a.Len(); i++ {
			if iss := And(fn(paths.At(path).Index(i).String())...)(ctx, root); len(iss) > 0 {
				out = append(out, iss...)
				if IsFailFast(ctx) {
					return out
				}
			}
		}
		return out
	}
}

// Func wraps a custom check reported at path with CodeCustom when fn returns
// false. fn receives the value at path, or nil when it is missing.
func Func(path string, fn func(v any) bool) Rule {
	return func(_ context.Context, root any) []formstate.Issue {
		v, _ := Lookup(root, path)
		if fn(v) {
			return nil
		}
		return []formstate.Issue{issueAt(path, formstate.CodeCustom)}
	}
}

// ---------- Rule combinators ----------

// And executes all rules and concatenates Issues. In fail-fast mode it stops
// at the first rule that reports issues.
func And(rs ...Rule) Rule {
	return func(ctx context.Context, root any) []formstate.Issue {
		var out []formstate.Issue
		for _, r := range rs {
			if r == nil {
				continue
			}
			if ctx.Err() != nil {
				return out
			}
			if iss := r(ctx, root); len(iss) > 0 {
				out = append(out, iss...)
				if IsFailFast(ctx) {
					return out
				}
			}
		}
		return out
	}
}

// Or succeeds if any rule returns no Issues. When every branch fails it
// returns the branch with the fewest Issues.
func Or(rs ...Rule) Rule {
	return func(ctx context.Context, root any) []formstate.Issue {
		var best []formstate.Issue
		bestSet := false
		for _, r := range rs {
			if r == nil {
				continue
			}
			iss := r(ctx, root)
			if len(iss) == 0 {
				return nil
			}
			if !bestSet || len(iss) < len(best) {
				best = iss
				bestSet = true
			}
		}
		return best
	}
}

// ------- helpers -------

// Lookup resolves p against the container model. Objects are addressed by
// key, arrays by index and maps by string key. The empty path is v itself.
func Lookup(v any, p string) (any, bool) {
	segs, err := paths.Tokenize(p)
	if err != nil {
		return nil, false
	}
	cur := v
	for _, seg := range segs {
		switch c := cur.(type) {
		case *value.Object:
			if seg.IsIndex {
				return nil, false
			}
			next, ok := c.Get(seg.Name)
			if !ok {
				return nil, false
			}
			cur = next
		case *value.Array:
			if !seg.IsIndex {
				return nil, false
			}
			next, ok := c.At(seg.Index)
			if !ok {
				return nil, false
			}
			cur = next
		case *value.Map:
			next, ok := c.Get(seg.Name)
			if !ok {
				return nil, false
			}
			cur = next
		default:
			return nil, false
		}
	}
	return cur, true
}

func issueAt(p, code string, kv ...any) formstate.Issue {
	it := formstate.Issue{Path: p, Code: code}
	if len(kv) > 0 {
		it.Params = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			it.Params[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return it
}

func length(root any, p string) (int, bool) {
	v, ok := Lookup(root, p)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case string:
		return utf8.RuneCountInString(t), true
	case *value.Array:
		return t.Len(), true
	}
	return 0, false
}

func compare(cur any, op Op, want any) bool {
	switch op {
	case Eq:
		return value.Equal(cur, want)
	case Ne:
		return !value.Equal(cur, want)
	case Lt, Le, Gt, Ge:
		return compareOrdered(cur, op, want)
	default:
		return false
	}
}

func compareOrdered(cur any, op Op, want any) bool {
	a, ok := toFloat64(cur)
	if !ok {
		return false
	}
	b, ok := toFloat64(want)
	if !ok {
		return false
	}
	switch op {
	case Lt:
		return a < b
	case Le:
		return a <= b
	case Gt:
		return a > b
	case Ge:
		return a >= b
	}
	return false
}

// toFloat64 accepts any Go numeric kind, since callers may build trees by hand.
func toFloat64(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
