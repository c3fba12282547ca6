package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/reoring/formstate/form"
)

type cli struct {
	in         io.Reader
	out        io.Writer
	errOut     io.Writer
	verbose    bool
	format     string
	configPath string
	log        *slog.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{in: in, out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "formstate",
		Short:         "Inspect form error trees and codec documents",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelDebug
			}
			c.log = slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: level}))
			switch c.format {
			case "json", "yaml":
			default:
				return fmt.Errorf("unsupported --format %q (json or yaml)", c.format)
			}
			return nil
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug records to stderr")
	root.PersistentFlags().StringVar(&c.format, "format", "json", "output format: json or yaml")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "form config YAML (mode, language)")

	root.AddCommand(c.errorsCmd(), c.encodeCmd(), c.decodeCmd())
	return root
}

// input reads the named file, or stdin for "" and "-".
func (c *cli) input(args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(c.in)
		return data, "", err
	}
	data, err := os.ReadFile(args[0])
	return data, args[0], err
}

func (c *cli) config() (form.Config, error) {
	if c.configPath == "" {
		return form.DefaultConfig(), nil
	}
	f, err := os.Open(c.configPath)
	if err != nil {
		return form.Config{}, err
	}
	defer f.Close()
	return form.LoadConfig(f)
}

// emit writes v in the selected format.
func (c *cli) emit(v any) error {
	if c.format == "yaml" {
		enc := yaml.NewEncoder(c.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.out, "%s\n", b)
	return err
}
