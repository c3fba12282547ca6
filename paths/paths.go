// Package paths builds and splits the dotted/bracketed path strings used to
// address values inside a tracked tree: "a.b", "arr[3]", "a.b[2].c". The root
// path is the empty string.
package paths

import (
	"fmt"
	"strconv"
	"strings"
)

// Build joins a property name onto parentPath. When the parent is an array the
// name is written as an index segment.
func Build(parentPath, name string, parentIsArray bool) string {
	if parentIsArray {
		return parentPath + "[" + name + "]"
	}
	if parentPath == "" {
		return name
	}
	return parentPath + "." + name
}

// Field appends an object property segment.
func Field(parentPath, name string) string { return Build(parentPath, name, false) }

// Index appends an array index segment.
func Index(parentPath string, i int) string { return Build(parentPath, strconv.Itoa(i), true) }

// IsCompound reports whether a property name embeds further segments and must
// be resolved token by token.
func IsCompound(name string) bool { return strings.ContainsAny(name, ".[") }

// Segment is one step of a path.
type Segment struct {
	Name    string // property name, or the decimal index for index segments
	Index   int
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + s.Name + "]"
	}
	return s.Name
}

// Tokenize splits p into ordered segments.
//
//	Tokenize("alfredo[2].zordon") → [alfredo, [2], zordon]
func Tokenize(p string) ([]Segment, error) {
	var out []Segment
	i := 0
	for i < len(p) {
		switch p[i] {
		case '.':
			if i == 0 || i == len(p)-1 || p[i+1] == '.' || p[i+1] == '[' {
				return nil, fmt.Errorf("paths: empty segment at offset %d in %q", i, p)
			}
			i++
		case '[':
			end := strings.IndexByte(p[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("paths: unterminated index at offset %d in %q", i, p)
			}
			raw := p[i+1 : i+end]
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("paths: invalid index %q in %q", raw, p)
			}
			out = append(out, Segment{Name: raw, Index: n, IsIndex: true})
			i += end + 1
			if i < len(p) && p[i] != '.' && p[i] != '[' {
				return nil, fmt.Errorf("paths: unexpected %q after index in %q", p[i], p)
			}
		default:
			j := i
			for j < len(p) && p[j] != '.' && p[j] != '[' {
				j++
			}
			out = append(out, Segment{Name: p[i:j]})
			i = j
		}
	}
	return out, nil
}

// Split returns the segment names of p, or nil when p is malformed.
func Split(p string) []string {
	segs, err := Tokenize(p)
	if err != nil {
		return nil
	}
	names := make([]string, len(segs))
	for i, s := range segs {
		names[i] = s.Name
	}
	return names
}

// Join renders segments back into a path.
func Join(segs []Segment) string {
	var b strings.Builder
	for i, s := range segs {
		if s.IsIndex {
			b.WriteString("[")
			b.WriteString(s.Name)
			b.WriteString("]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Name)
	}
	return b.String()
}

// Parent strips the last segment. ok is false for the root path.
func Parent(p string) (parent string, ok bool) {
	if p == "" {
		return "", false
	}
	if strings.HasSuffix(p, "]") {
		if i := strings.LastIndexByte(p, '['); i >= 0 {
			return p[:i], true
		}
	}
	if i := strings.LastIndexAny(p, ".]"); i >= 0 {
		if p[i] == ']' {
			return p[:i+1], true
		}
		return p[:i], true
	}
	return "", true
}

// Ancestors lists every strict ancestor of p, nearest first, excluding the
// root.
//
//	Ancestors("arr[0].x") → [arr[0], arr]
func Ancestors(p string) []string {
	var out []string
	for {
		parent, ok := Parent(p)
		if !ok || parent == "" {
			return out
		}
		out = append(out, parent)
		p = parent
	}
}

// IsAtOrUnder reports whether p equals prefix or lies below it. The root
// prefix contains every path.
func IsAtOrUnder(p, prefix string) bool {
	if prefix == "" || p == prefix {
		return true
	}
	if !strings.HasPrefix(p, prefix) {
		return false
	}
	c := p[len(prefix)]
	return c == '.' || c == '['
}

// Rebase moves p from below `from` to below `to`.
func Rebase(p, from, to string) (string, bool) {
	if !IsAtOrUnder(p, from) {
		return "", false
	}
	rest := p[len(from):]
	if from == "" && rest != "" && rest[0] != '[' && to != "" {
		rest = "." + rest
	}
	if to == "" && strings.HasPrefix(rest, ".") {
		rest = rest[1:]
	}
	return to + rest, true
}
