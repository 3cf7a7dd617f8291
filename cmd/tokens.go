package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/quill/internal/syntax"
)

func newTokensCmd(a *app) *cobra.Command {
	var f sessionFlags
	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token tree of a file as YAML",
		Long: `Tokenize a file (or standard input) and print the token tree as YAML.
Plain text appears as strings; tokens appear as {type, content} mappings
whose content is a string or a list of nested nodes. Useful when writing
language definitions.

Examples:
  quill tokens main.js
  echo '{"a": [1, true]}' | quill tokens --lang json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := sourcePath(args)
			reg, err := a.registry()
			if err != nil {
				return err
			}
			sess, err := a.session(cmd.Context(), reg, f, path)
			if err != nil {
				return err
			}
			text, err := readSource(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(nodesYAML(syntax.Nodes(sess.Tokenize(cmd.Context(), text)))); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVarP(&f.lang, "lang", "l", "", "language name (default: from file extension)")
	return cmd
}

// tokenYAML is the YAML form of a token.
type tokenYAML struct {
	Type    string `yaml:"type"`
	Content any    `yaml:"content"`
}

func nodesYAML(nodes syntax.Nodes) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		switch n := n.(type) {
		case syntax.Leaf:
			out = append(out, string(n))
		case *syntax.Token:
			out = append(out, tokenYAML{Type: n.Type, Content: contentYAML(n.Content)})
		}
	}
	return out
}

func contentYAML(c syntax.Content) any {
	switch c := c.(type) {
	case syntax.Leaf:
		return string(c)
	case syntax.Nodes:
		return nodesYAML(c)
	}
	return nil
}
