package i18n

import (
	"strings"

	"github.com/reoring/formstate"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional values to embed in the message; "{min}" in a
// template is replaced by data["min"].
type Translator interface {
	Message(code string, data map[string]string) string
}

// Dict maps issue codes to message templates.
type Dict map[string]string

var dicts = map[string]Dict{
	"en": {
		formstate.CodeRequired:      "required",
		formstate.CodeInvalidType:   "invalid type",
		formstate.CodeInvalidFormat: "invalid format",
		formstate.CodeTooSmall:      "must be at least {min}",
		formstate.CodeTooBig:        "must be at most {max}",
		formstate.CodeTooShort:      "too short",
		formstate.CodeTooLong:       "too long",
		formstate.CodePattern:       "does not match the expected pattern",
		formstate.CodeUniqueness:    "duplicate value",
		formstate.CodeCustom:        "invalid value",
	},
	"ja": {
		formstate.CodeRequired:      "必須項目です",
		formstate.CodeInvalidType:   "型が不正です",
		formstate.CodeInvalidFormat: "形式が不正です",
		formstate.CodeTooSmall:      "{min} 以上で入力してください",
		formstate.CodeTooBig:        "{max} 以下で入力してください",
		formstate.CodeTooShort:      "短すぎます",
		formstate.CodeTooLong:       "長すぎます",
		formstate.CodePattern:       "形式が一致しません",
		formstate.CodeUniqueness:    "値が重複しています",
		formstate.CodeCustom:        "値が不正です",
	},
}

// dictTranslator is the built-in dictionary-based Translator. Codes missing
// from the dictionary fall back to English, then to the code itself.
type dictTranslator struct{ dict Dict }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := t.dict[code]
	if !ok {
		if tmpl, ok = dicts["en"][code]; !ok {
			return code
		}
	}
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// For returns the built-in Translator for lang ("en"/"ja"; anything else is
// English).
func For(lang string) Translator {
	d, ok := dicts[lang]
	if !ok {
		d = dicts["en"]
	}
	return dictTranslator{dict: d}
}

// FromDict builds a Translator over a caller-supplied dictionary.
func FromDict(d Dict) Translator { return dictTranslator{dict: d} }

var currentTranslator = For("en")

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) { currentTranslator = For(lang) }

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = For("en")
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
