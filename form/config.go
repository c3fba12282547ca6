package form

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/reoring/formstate/errtree"
)

// Config is the YAML-loadable part of a Form's setup.
//
//	mode: onTouch
//	strict: true
//	validateOnChange: true
//	language: ja
type Config struct {
	Mode             errtree.Mode `yaml:"mode"`
	Strict           bool         `yaml:"strict"`
	ValidateOnChange bool         `yaml:"validateOnChange"`
	Language         string       `yaml:"language"`
}

// DefaultConfig validates on submit, revalidates on change and speaks English.
func DefaultConfig() Config {
	return Config{Mode: errtree.OnSubmit, ValidateOnChange: true, Language: "en"}
}

// ParseConfig decodes a YAML document over DefaultConfig. Unknown keys are
// rejected. An empty document yields the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("form: config: %w", err)
	}
	switch cfg.Language {
	case "", "en", "ja":
	default:
		return Config{}, fmt.Errorf("form: config: unsupported language %q", cfg.Language)
	}
	return cfg, nil
}

// LoadConfig reads r fully and parses it with ParseConfig.
func LoadConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("form: config: %w", err)
	}
	return ParseConfig(data)
}
