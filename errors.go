package formstate

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes. Validators may use any code; these are the ones the built-in
// message dictionary knows about.
const (
	CodeRequired      = "required"
	CodeInvalidType   = "invalid_type"
	CodeInvalidFormat = "invalid_format"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodePattern       = "pattern"
	CodeUniqueness    = "uniqueness"
	CodeCustom        = "custom"
)

// Issue is a single validation failure reported by a user validator. Path
// uses the tracker's path vocabulary (for example: items[2].price).
type Issue struct {
	Path    string         `json:"path" yaml:"path"`
	Code    string         `json:"code,omitempty" yaml:"code,omitempty"`
	Message string         `json:"message,omitempty" yaml:"message,omitempty"`
	Params  map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	Cause   error          `json:"-" yaml:"-"`
}

// Text returns the message, falling back to the code.
func (it Issue) Text() string {
	if it.Message != "" {
		return it.Message
	}
	return it.Code
}

// Issues is a list of validation failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. required at nodes[0].name
		fmt.Fprintf(b, "%s at %s", it.Text(), it.Path)
	}
	if n := len(iss); n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

var (
	// ErrUnsupportedRoot is returned by Wrap for values without identity.
	ErrUnsupportedRoot = errors.New("formstate: root must be an object, array, date, map or set")
	// ErrInvalidIndex is returned when an array is addressed by a property
	// that is not a canonical non-negative index.
	ErrInvalidIndex = errors.New("formstate: array property is not an index")
)

// DanglingPathError reports a compound property whose intermediate segment
// does not resolve to an object or array. It is only returned in strict mode.
type DanglingPathError struct {
	Path    string // the compound property as requested
	Segment string // the first segment that did not resolve
	Parent  string // path of the wrapper the lookup started from
}

func (e *DanglingPathError) Error() string {
	at := e.Parent
	if at == "" {
		at = "<root>"
	}
	return fmt.Sprintf("formstate: dangling path %q at segment %q (from %s)", e.Path, e.Segment, at)
}
