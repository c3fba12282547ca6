package errtree

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/formstate"
)

// Mode selects which recorded failures become active errors.
type Mode uint8

const (
	// OnSubmit keeps failures at paths that took part in a submit attempt.
	OnSubmit Mode = iota
	// OnTouch keeps failures at paths the user has touched.
	OnTouch
	// Always keeps every failure.
	Always
)

func (m Mode) String() string {
	switch m {
	case OnTouch:
		return "onTouch"
	case Always:
		return "always"
	default:
		return "onSubmit"
	}
}

// ParseMode accepts the mode names case-insensitively; "on_submit" style
// spellings are accepted too.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "", "onsubmit":
		return OnSubmit, nil
	case "ontouch":
		return OnTouch, nil
	case "always":
		return Always, nil
	}
	return OnSubmit, fmt.Errorf("errtree: unknown validation mode %q", s)
}

func (m *Mode) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Mode) MarshalYAML() (any, error) { return m.String(), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// TouchState answers the per-path questions the filter needs. *touch.Store
// satisfies it.
type TouchState interface {
	IsTouched(path string) bool
	IsSubmitted(path string) bool
}

// Filter drops the failures the mode does not admit. Failures are dropped
// before any tree is built, so they are absent rather than hidden. A nil
// state admits nothing outside Always.
func Filter(issues []formstate.Issue, mode Mode, st TouchState) []formstate.Issue {
	if mode == Always {
		return issues
	}
	out := make([]formstate.Issue, 0, len(issues))
	for _, it := range issues {
		if st == nil {
			continue
		}
		switch mode {
		case OnSubmit:
			if st.IsSubmitted(it.Path) {
				out = append(out, it)
			}
		case OnTouch:
			if st.IsTouched(it.Path) {
				out = append(out, it)
			}
		}
	}
	return out
}
