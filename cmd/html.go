package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/quill/internal/render"
)

func newHTMLCmd(a *app) *cobra.Command {
	var (
		f          sessionFlags
		css        bool
		standalone bool
		title      string
	)
	cmd := &cobra.Command{
		Use:   "html [file]",
		Short: "Print a file as highlighted HTML markup",
		Long: `Tokenize a file (or standard input) and print it as nested <span> markup.
Each token becomes <span class="TYPE">; dotted types like "string.template"
become several classes.

Examples:
  quill html main.js > main.html
  quill html main.js --css --theme nord          # markup preceded by a <style> block
  quill html main.js --standalone > page.html    # complete HTML document
  quill html --css-only --theme dracula > quill.css`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := sourcePath(args)
			reg, err := a.registry()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			sess, err := a.session(ctx, reg, f, path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if only, _ := cmd.Flags().GetBool("css-only"); only {
				_, err := fmt.Fprint(out, sess.Theme().CSS())
				return err
			}

			text, err := readSource(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			if standalone {
				if title == "" {
					title = filepath.Base(path)
					if path == "" {
						title = sess.Language().Name
					}
				}
				_, err = fmt.Fprint(out, sess.Document(ctx, text, title))
				return err
			}
			if css {
				if _, err := fmt.Fprintf(out, "<style>\n%s</style>\n", sess.Theme().CSS()); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(out, "<pre class=\"%s\"><code>%s</code></pre>\n", render.ContainerClass, sess.HTML(ctx, text))
			return err
		},
	}
	cmd.Flags().StringVarP(&f.lang, "lang", "l", "", "language name (default: from file extension)")
	cmd.Flags().StringVarP(&f.theme, "theme", "t", "", "theme preset for --css and --standalone")
	cmd.Flags().BoolVar(&css, "css", false, "emit a <style> block with the theme rules")
	cmd.Flags().Bool("css-only", false, "emit only the theme stylesheet")
	cmd.Flags().BoolVar(&standalone, "standalone", false, "emit a complete HTML document")
	cmd.Flags().StringVar(&title, "title", "", "document title for --standalone")
	return cmd
}
