package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/quill/internal/editor"
	"github.com/zjrosen/quill/internal/language"
	"github.com/zjrosen/quill/internal/render"
	"github.com/zjrosen/quill/internal/tracing"
)

// sessionFlags are shared by commands that work on one source text.
type sessionFlags struct {
	lang  string
	theme string
}

func (a *app) registry() (*language.Registry, error) {
	return language.NewRegistry(a.cfg.Languages.RegistryConfig())
}

// theme resolves the configured theme, with preset overriding the
// configured base when set.
func (a *app) theme(preset string) (*render.Theme, error) {
	tc := a.cfg.Theme
	if preset != "" {
		tc.Preset, tc.File = preset, ""
	}
	return tc.Resolve()
}

// resolveLanguage picks the language named by name, else the one registered
// for path's extension.
func (a *app) resolveLanguage(ctx context.Context, reg *language.Registry, name, path string) (*language.Language, error) {
	ctx, span := tracing.Start(ctx, a.provider.Tracer(), tracing.SpanLanguage)
	var (
		lang *language.Language
		err  error
	)
	switch {
	case name != "":
		lang, err = reg.Get(ctx, name)
	case path != "":
		lang, err = reg.ForFile(ctx, path)
	default:
		err = fmt.Errorf("cannot tell the language of standard input, use --lang")
	}
	if err == nil {
		span.SetAttributes(
			attribute.String(tracing.AttrLanguageName, lang.Name),
			attribute.String(tracing.AttrLanguageSource, lang.Source),
		)
	}
	tracing.End(span, err)
	return lang, err
}

func (a *app) session(ctx context.Context, reg *language.Registry, f sessionFlags, path string) (*editor.Session, error) {
	lang, err := a.resolveLanguage(ctx, reg, f.lang, path)
	if err != nil {
		return nil, err
	}
	theme, err := a.theme(f.theme)
	if err != nil {
		return nil, err
	}
	scorer, err := a.cfg.Completion.Scorer()
	if err != nil {
		return nil, err
	}
	return editor.New(lang, theme, scorer,
		editor.WithTracer(a.provider.Tracer()),
		editor.WithMatchOptions(a.cfg.Completion.MatchOptions()...),
	)
}

// readSource reads path, or stdin when path is "" or "-".
func readSource(stdin io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// sourcePath returns the file argument, or "" for stdin.
func sourcePath(args []string) string {
	if len(args) == 0 || args[0] == "-" {
		return ""
	}
	return args[0]
}

// piped reports whether r is a pipe or file rather than a terminal.
func piped(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}
