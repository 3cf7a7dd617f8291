package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/zjrosen/quill/internal/language"
	"github.com/zjrosen/quill/internal/log"
	"github.com/zjrosen/quill/internal/render"
	"github.com/zjrosen/quill/internal/watcher"
)

func newHighlightCmd(a *app) *cobra.Command {
	var (
		f     sessionFlags
		watch bool
		color string
	)
	cmd := &cobra.Command{
		Use:   "highlight [file]",
		Short: "Print a file with terminal syntax highlighting",
		Long: `Tokenize a file (or standard input) and print it with ANSI colors.

The language comes from --lang or the file extension. The theme comes from
--theme or the config file.

Examples:
  quill highlight main.js
  cat data.json | quill highlight --lang json
  quill highlight style.css --theme dracula --color always | less -R

  # Redraw whenever the file or a language definition changes
  quill highlight main.js --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := sourcePath(args)
			if watch && path == "" {
				return fmt.Errorf("--watch needs a file argument")
			}
			r, err := newRenderer(cmd.OutOrStdout(), color)
			if err != nil {
				return err
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}

			draw := func(ctx context.Context) error {
				sess, err := a.session(ctx, reg, f, path)
				if err != nil {
					return err
				}
				text, err := readSource(cmd.InOrStdin(), path)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), renderStyled(r, sess.Highlight(ctx, text)))
				return err
			}

			ctx := cmd.Context()
			if err := draw(ctx); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchAndRedraw(ctx, cmd.OutOrStdout(), reg, path, draw)
		},
	}
	cmd.Flags().StringVarP(&f.lang, "lang", "l", "", "language name (default: from file extension)")
	cmd.Flags().StringVarP(&f.theme, "theme", "t", "", "theme preset (default: from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "redraw when the file or language definitions change")
	cmd.Flags().StringVar(&color, "color", "auto", "color output: auto, always, never")
	return cmd
}

// newRenderer returns a lipgloss renderer for w with the requested color
// mode, or nil when color is off.
func newRenderer(w io.Writer, mode string) (*lipgloss.Renderer, error) {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case "auto", "":
	case "always":
		r.SetColorProfile(termenv.TrueColor)
	case "never":
		return nil, nil
	default:
		return nil, fmt.Errorf("--color must be auto, always or never, got %q", mode)
	}
	return r, nil
}

// renderStyled renders s with r, or returns its plain text for a nil r.
func renderStyled(r *lipgloss.Renderer, s render.StyledText) string {
	if r == nil {
		return s.Text
	}
	return s.RenderWith(r)
}

// watchAndRedraw clears the screen and calls draw whenever path or a
// language file changes, until ctx is done.
func watchAndRedraw(ctx context.Context, out io.Writer, reg *language.Registry, path string, draw func(context.Context) error) error {
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	reloaded := make(chan struct{}, 1)
	stopLangs, err := reg.Watch(ctx, func([]string) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = stopLangs() }()

	term := termenv.NewOutput(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			log.Debug(log.CatWatcher, "source changed", "paths", paths)
		case <-reloaded:
			log.Debug(log.CatWatcher, "languages reloaded")
		}
		term.ClearScreen()
		if err := draw(ctx); err != nil {
			log.ErrorErr(log.CatEditor, "redraw failed", err, "path", path)
			_, _ = fmt.Fprintf(out, "quill: %v\n", err)
		}
	}
}
