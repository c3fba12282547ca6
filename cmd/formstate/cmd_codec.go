package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reoring/formstate/codec"
	"github.com/reoring/formstate/value"
)

func (c *cli) encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode a JSON or YAML value with the formstate codec",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := c.input(args)
			if err != nil {
				return err
			}
			v, err := loadValue(data)
			if err != nil {
				return err
			}
			out, err := codec.New(nil).Marshal(v)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, "%s\n", out)
			return err
		},
	}
}

func (c *cli) decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a codec document and print it as plain data",
		Long: `Decodes a document produced by "encode". Shared references are expanded
and a reference back into a container still being printed becomes null.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := c.input(args)
			if err != nil {
				return err
			}
			v, err := codec.New(nil).Unmarshal(data)
			if err != nil {
				return err
			}
			return c.emit(plain(value.ToGo(v)))
		},
	}
}

// plain turns map[any]any produced for Map containers into string-keyed maps
// so both encoders can print them.
func plain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = plain(x)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[fmt.Sprint(k)] = plain(x)
		}
		return out
	case []any:
		for i, x := range t {
			t[i] = plain(x)
		}
		return t
	}
	return v
}
