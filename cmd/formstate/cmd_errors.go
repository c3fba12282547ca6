package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/errtree"
	"github.com/reoring/formstate/i18n"
	"github.com/reoring/formstate/touch"
)

// failureDoc is the input of the errors command. A bare list of issues is
// accepted too.
type failureDoc struct {
	Mode      *errtree.Mode     `yaml:"mode"`
	Touched   []string          `yaml:"touched"`
	Submitted []string          `yaml:"submitted"`
	Issues    []formstate.Issue `yaml:"issues"`
}

func parseFailureDoc(data []byte) (failureDoc, error) {
	var n yaml.Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return failureDoc{}, fmt.Errorf("parse failures: %w", err)
	}
	var doc failureDoc
	if len(n.Content) == 0 {
		return doc, nil
	}
	top := n.Content[0]
	if top.Kind == yaml.SequenceNode {
		if err := top.Decode(&doc.Issues); err != nil {
			return failureDoc{}, fmt.Errorf("parse failures: %w", err)
		}
		return doc, nil
	}
	if err := top.Decode(&doc); err != nil {
		return failureDoc{}, fmt.Errorf("parse failures: %w", err)
	}
	return doc, nil
}

func (c *cli) errorsCmd() *cobra.Command {
	var (
		modeFlag string
		lang     string
		path     string
		check    bool
	)
	cmd := &cobra.Command{
		Use:   "errors [file]",
		Short: "Format a failure document into a per-path error tree",
		Long: `Reads a YAML or JSON failure document and prints, for every path that has
errors, the messages reported exactly there ("own") and at or below it
("descendant"). The document is either a list of issues or an object with
"issues", "touched", "submitted" and an optional "mode".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			data, name, err := c.input(args)
			if err != nil {
				return err
			}
			doc, err := parseFailureDoc(data)
			if err != nil {
				return err
			}

			mode := cfg.Mode
			if doc.Mode != nil {
				mode = *doc.Mode
			}
			if cmd.Flags().Changed("mode") {
				if mode, err = errtree.ParseMode(modeFlag); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("lang") {
				lang = cfg.Language
			}

			st := touch.NewStore()
			for _, p := range doc.Touched {
				st.SetTouch(p, true)
			}
			for _, p := range doc.Submitted {
				st.MarkSubmitted(p)
			}
			issues := errtree.Filter(i18n.Localize(doc.Issues, i18n.For(lang)), mode, st)
			tree := errtree.Build(issues)
			c.log.Debug("formatted failures",
				slog.String("file", name),
				slog.String("mode", mode.String()),
				slog.Int("reported", len(doc.Issues)),
				slog.Int("kept", len(issues)))

			if cmd.Flags().Changed("path") {
				out := tree.Node(path)
				if err := c.emit(out); err != nil {
					return err
				}
			} else {
				nodes := make(map[string]errtree.Node, tree.Len())
				for p, n := range tree.All() {
					nodes[p] = n
				}
				if err := c.emit(nodes); err != nil {
					return err
				}
			}
			if check && len(issues) > 0 {
				return formstate.Issues(issues)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", "", "validation mode: onSubmit, onTouch or always")
	cmd.Flags().StringVar(&lang, "lang", "en", "language for issues without a message (en, ja)")
	cmd.Flags().StringVar(&path, "path", "", "print only the node at this path")
	cmd.Flags().BoolVar(&check, "check", false, "exit non-zero when any failure is kept")
	return cmd
}
