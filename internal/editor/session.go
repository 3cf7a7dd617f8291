// Package editor composes a language, a theme and a completion scorer into
// the session an editing surface drives.
package editor

import (
	"context"
	"errors"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/quill/internal/language"
	"github.com/zjrosen/quill/internal/log"
	"github.com/zjrosen/quill/internal/match"
	"github.com/zjrosen/quill/internal/render"
	"github.com/zjrosen/quill/internal/syntax"
	"github.com/zjrosen/quill/internal/tracing"
)

var (
	// ErrNoLanguage is returned by New without a language.
	ErrNoLanguage = errors.New("editor: language required")
	// ErrNoScorer is returned by New without a scorer.
	ErrNoScorer = errors.New("editor: scorer required")
)

// Session highlights and completes text in one language. A Session is
// immutable and safe for concurrent use.
type Session struct {
	lang      *language.Language
	theme     *render.Theme
	scorer    *match.Scorer
	tracer    trace.Tracer
	matchOpts []match.Option
}

// Option configures a Session.
type Option func(*Session)

// WithTracer sets the tracer spans are opened on. The default is the
// global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

// WithMatchOptions applies opts to every completion.
func WithMatchOptions(opts ...match.Option) Option {
	return func(s *Session) { s.matchOpts = append(s.matchOpts, opts...) }
}

// New creates a session. A nil theme renders unstyled text.
func New(lang *language.Language, theme *render.Theme, scorer *match.Scorer, opts ...Option) (*Session, error) {
	if lang == nil {
		return nil, ErrNoLanguage
	}
	if scorer == nil {
		return nil, ErrNoScorer
	}
	s := &Session{lang: lang, theme: theme, scorer: scorer}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracing.DefaultServiceName)
	}
	return s, nil
}

// Language returns the session language.
func (s *Session) Language() *language.Language { return s.lang }

// Theme returns the session theme.
func (s *Session) Theme() *render.Theme { return s.theme }

// Scorer returns the completion scorer.
func (s *Session) Scorer() *match.Scorer { return s.scorer }

// WithLanguage returns a copy of s using lang, for reloads.
func (s *Session) WithLanguage(lang *language.Language) *Session {
	c := *s
	c.lang = lang
	return &c
}

// WithTheme returns a copy of s using theme.
func (s *Session) WithTheme(theme *render.Theme) *Session {
	c := *s
	c.theme = theme
	return &c
}

func (s *Session) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String(tracing.AttrLanguageName, s.lang.Name))
	return tracing.Start(ctx, s.tracer, name, attrs...)
}

// Tokenize splits text into a token tree using the session grammar.
func (s *Session) Tokenize(ctx context.Context, text string) syntax.Tree {
	_, span := s.start(ctx, tracing.SpanTokenize,
		attribute.Int(tracing.AttrTextLength, utf8.RuneCountInString(text)),
		attribute.Int(tracing.AttrGrammarRules, s.lang.Grammar.Len()),
	)
	tree := syntax.Tokenize(s.lang.Grammar, text)
	span.SetAttributes(attribute.Int(tracing.AttrTokenCount, len(tree.Tokens())))
	tracing.End(span, nil)
	return tree
}

// Highlight tokenizes text and flattens it into styled runs.
func (s *Session) Highlight(ctx context.Context, text string) render.StyledText {
	ctx, span := s.start(ctx, tracing.SpanHighlight, attribute.String(tracing.AttrThemeName, s.themeName()))
	styled := render.Flatten(s.Tokenize(ctx, text), s.theme)
	span.SetAttributes(attribute.Int(tracing.AttrRunCount, len(styled.Runs)))
	tracing.End(span, nil)
	return styled
}

// HTML tokenizes text and serializes it as span markup.
func (s *Session) HTML(ctx context.Context, text string) string {
	ctx, span := s.start(ctx, tracing.SpanSerialize)
	out := render.Serialize(s.Tokenize(ctx, text))
	span.SetAttributes(attribute.Int(tracing.AttrOutputSize, len(out)))
	tracing.End(span, nil)
	return out
}

// Document renders text as a standalone HTML page styled by the session
// theme.
func (s *Session) Document(ctx context.Context, text, title string) string {
	ctx, span := s.start(ctx, tracing.SpanSerialize, attribute.String(tracing.AttrThemeName, s.themeName()))
	out := render.Document(s.Tokenize(ctx, text), s.theme, title)
	span.SetAttributes(attribute.Int(tracing.AttrOutputSize, len(out)))
	tracing.End(span, nil)
	return out
}

// Complete ranks the language's candidates for trigger against filter.
func (s *Session) Complete(ctx context.Context, trigger, filter string) []match.Result[string] {
	return s.complete(ctx, trigger, s.lang.Candidates(trigger), filter)
}

// CompleteItems ranks caller-supplied candidates against filter.
func (s *Session) CompleteItems(ctx context.Context, candidates []string, filter string) []match.Result[string] {
	return s.complete(ctx, "", candidates, filter)
}

func (s *Session) complete(ctx context.Context, trigger string, candidates []string, filter string) []match.Result[string] {
	_, span := s.start(ctx, tracing.SpanComplete,
		attribute.String(tracing.AttrMatchAlgorithm, s.scorer.Algorithm().String()),
		attribute.String(tracing.AttrMatchTrigger, trigger),
		attribute.String(tracing.AttrMatchFilter, filter),
		attribute.Int(tracing.AttrCandidateCount, len(candidates)),
	)
	results := match.Strings(s.scorer, candidates, filter, s.matchOpts...)
	span.SetAttributes(attribute.Int(tracing.AttrResultCount, len(results)))
	tracing.End(span, nil)

	log.Debug(log.CatEditor, "completed", "trigger", trigger, "filter", filter, "candidates", len(candidates), "results", len(results))
	return results
}

// TriggerAt returns the innermost token type around the rune before the
// cursor at offset, or "" in plain text. The result is the trigger to pass
// to Complete.
func (s *Session) TriggerAt(ctx context.Context, text string, offset int) string {
	if offset <= 0 {
		return ""
	}
	types := s.Tokenize(ctx, text).TypeAt(offset - 1)
	if len(types) == 0 {
		return ""
	}
	return types[len(types)-1]
}

func (s *Session) themeName() string {
	if s.theme == nil {
		return ""
	}
	return s.theme.Name
}
