package errtree

import (
	"github.com/google/go-cmp/cmp"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/value"
)

var issueOpts = cmp.Options{
	cmp.Comparer(func(x, y error) bool {
		if x == nil || y == nil {
			return x == nil && y == nil
		}
		return x.Error() == y.Error()
	}),
	cmp.Comparer(func(x, y map[string]any) bool {
		return value.Equal(value.FromGo(x), value.FromGo(y))
	}),
}

// Equal reports whether two failure lists are structurally equal, in order.
// An empty and a nil list are equal. Callers use it to skip notifying when a
// revalidation produced the same result.
func Equal(a, b []formstate.Issue) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return cmp.Equal(a, b, issueOpts)
}

// Diff renders the difference between two failure lists, or "" when Equal.
func Diff(a, b []formstate.Issue) string {
	if Equal(a, b) {
		return ""
	}
	return cmp.Diff(a, b, issueOpts)
}
