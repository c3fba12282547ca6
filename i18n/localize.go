package i18n

import (
	"fmt"

	"github.com/reoring/formstate"
)

// Localize fills the Message of every issue that has none from tr, using the
// issue's Params as template data. Issues that already carry a message are
// left alone. A nil tr uses the current Translator.
func Localize(issues []formstate.Issue, tr Translator) []formstate.Issue {
	if tr == nil {
		tr = currentTranslator
	}
	out := make([]formstate.Issue, len(issues))
	for i, it := range issues {
		if it.Message == "" && it.Code != "" {
			it.Message = tr.Message(it.Code, stringParams(it.Params))
		}
		out[i] = it
	}
	return out
}

func stringParams(p map[string]any) map[string]string {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = fmt.Sprint(v)
	}
	return out
}
