package i18n

import (
	"testing"

	"github.com/reoring/formstate"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T(formstate.CodeInvalidType, nil); msg == formstate.CodeInvalidType || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T(formstate.CodeInvalidType, nil); msg == "invalid type" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_Templates(t *testing.T) {
	if msg := For("en").Message(formstate.CodeTooSmall, map[string]string{"min": "3"}); msg != "must be at least 3" {
		t.Fatalf("got %q", msg)
	}
	if msg := For("xx").Message("unknown_code", nil); msg != "unknown_code" {
		t.Fatalf("unknown code should fall back to itself, got %q", msg)
	}
	tr := FromDict(Dict{"custom": "nope"})
	if msg := tr.Message("custom", nil); msg != "nope" {
		t.Fatalf("got %q", msg)
	}
	if msg := tr.Message(formstate.CodeRequired, nil); msg != "required" {
		t.Fatalf("missing code should fall back to English, got %q", msg)
	}
}

func TestLocalize(t *testing.T) {
	in := []formstate.Issue{
		{Path: "age", Code: formstate.CodeTooSmall, Params: map[string]any{"min": 18}},
		{Path: "name", Code: formstate.CodeRequired, Message: "name please"},
	}
	out := Localize(in, For("ja"))
	if out[0].Message != "18 以上で入力してください" {
		t.Fatalf("got %q", out[0].Message)
	}
	if out[1].Message != "name please" {
		t.Fatalf("existing message overwritten: %q", out[1].Message)
	}
	if in[0].Message != "" {
		t.Fatalf("input mutated")
	}
}
