package editor

import (
	"context"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/quill/internal/language"
	"github.com/zjrosen/quill/internal/match"
	"github.com/zjrosen/quill/internal/render"
	"github.com/zjrosen/quill/internal/syntax"
	"github.com/zjrosen/quill/internal/tracing"
)

func newSession(t *testing.T, alg match.Algorithm, opts ...Option) (*Session, *tracetest.SpanRecorder) {
	t.Helper()
	lang, err := language.LoadBuiltin("json")
	require.NoError(t, err)
	scorer, err := match.NewScorer(alg)
	require.NoError(t, err)
	theme, err := render.PresetTheme("dracula")
	require.NoError(t, err)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	opts = append([]Option{WithTracer(tp.Tracer("test"))}, opts...)

	s, err := New(lang, theme, scorer, opts...)
	require.NoError(t, err)
	return s, recorder
}

func attr(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestNew_RequiresLanguageAndScorer(t *testing.T) {
	lang, err := language.LoadBuiltin("json")
	require.NoError(t, err)
	scorer, err := match.NewScorer(match.Prefix)
	require.NoError(t, err)

	_, err = New(nil, nil, scorer)
	require.ErrorIs(t, err, ErrNoLanguage)
	_, err = New(lang, nil, nil)
	require.ErrorIs(t, err, ErrNoScorer)

	s, err := New(lang, nil, scorer)
	require.NoError(t, err)
	require.Equal(t, `{"a": 1}`, ansi.Strip(s.Highlight(context.Background(), `{"a": 1}`).Render()))
}

func TestSession_Tokenize(t *testing.T) {
	s, recorder := newSession(t, match.Subletters)

	tree := s.Tokenize(context.Background(), `{"a": 1}`)
	require.Equal(t, syntax.Tree{
		&syntax.Token{Type: "punctuation", Content: syntax.Leaf("{")},
		&syntax.Token{Type: "property", Content: syntax.Leaf(`"a"`)},
		&syntax.Token{Type: "operator", Content: syntax.Leaf(":")},
		syntax.Leaf(" "),
		&syntax.Token{Type: "number", Content: syntax.Leaf("1")},
		&syntax.Token{Type: "punctuation", Content: syntax.Leaf("}")},
	}, tree)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, tracing.SpanTokenize, spans[0].Name())
	require.Equal(t, "json", attr(spans[0], tracing.AttrLanguageName).AsString())
	require.EqualValues(t, 8, attr(spans[0], tracing.AttrTextLength).AsInt64())
	require.EqualValues(t, 5, attr(spans[0], tracing.AttrTokenCount).AsInt64())
}

func TestSession_HighlightNestsTokenizeSpan(t *testing.T) {
	s, recorder := newSession(t, match.Subletters)

	styled := s.Highlight(context.Background(), `[true, null]`)
	require.Equal(t, `[true, null]`, styled.Text)
	require.Equal(t, "boolean", styled.TypeAt(1))
	require.Equal(t, s.Theme().Default().Merge(s.Theme().Style("boolean")), styled.StyleAt(1))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	tokenize, highlight := spans[0], spans[1]
	require.Equal(t, tracing.SpanTokenize, tokenize.Name())
	require.Equal(t, tracing.SpanHighlight, highlight.Name())
	require.Equal(t, highlight.SpanContext().SpanID(), tokenize.Parent().SpanID())
	require.Equal(t, "dracula", attr(highlight, tracing.AttrThemeName).AsString())
	require.EqualValues(t, len(styled.Runs), attr(highlight, tracing.AttrRunCount).AsInt64())
}

func TestSession_HTML(t *testing.T) {
	s, recorder := newSession(t, match.Subletters)

	out := s.HTML(context.Background(), `{"a<": 1}`)
	require.Equal(t, `<span class="punctuation">{</span><span class="property">&#34;a&lt;&#34;</span>`+
		`<span class="operator">:</span> <span class="number">1</span><span class="punctuation">}</span>`, out)

	spans := recorder.Ended()
	require.Equal(t, tracing.SpanSerialize, spans[len(spans)-1].Name())
	require.EqualValues(t, len(out), attr(spans[len(spans)-1], tracing.AttrOutputSize).AsInt64())
}

func TestSession_Complete(t *testing.T) {
	s, recorder := newSession(t, match.Subletters)

	results := s.Complete(context.Background(), "property", "t")
	require.Len(t, results, 1)
	require.Equal(t, "true", results[0].Item)
	require.Equal(t, 1.0, results[0].Score)

	span := recorder.Ended()[0]
	require.Equal(t, tracing.SpanComplete, span.Name())
	require.Equal(t, "subletters", attr(span, tracing.AttrMatchAlgorithm).AsString())
	require.Equal(t, "property", attr(span, tracing.AttrMatchTrigger).AsString())
	require.EqualValues(t, 3, attr(span, tracing.AttrCandidateCount).AsInt64())
	require.EqualValues(t, 1, attr(span, tracing.AttrResultCount).AsInt64())
}

func TestSession_CompleteItems(t *testing.T) {
	s, _ := newSession(t, match.PrefixSuffixSorted, WithMatchOptions(match.WithLimit(2)))

	results := s.CompleteItems(context.Background(), []string{"hello-world", "help", "hell", "hello", "shell"}, "hell")
	require.Len(t, results, 2)
	require.Equal(t, "hell", results[0].Item)
	require.Equal(t, "hello", results[1].Item)
	require.Greater(t, results[0].Score, results[1].Score)
}

func TestSession_TriggerAt(t *testing.T) {
	s, _ := newSession(t, match.Subletters)
	text := `{"ab": "x\n", "c": 1}`

	tests := []struct {
		offset int
		want   string
	}{
		{0, ""},
		{1, "punctuation"},
		{3, "property"},
		{6, "operator"},
		{7, ""},
		{9, "string"},
		{11, "escape"},
		{len(text), "punctuation"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, s.TriggerAt(context.Background(), text, tt.offset), "offset %d", tt.offset)
	}
}

func TestSession_WithLanguageAndTheme(t *testing.T) {
	s, _ := newSession(t, match.Subletters)
	css, err := language.LoadBuiltin("css")
	require.NoError(t, err)

	c := s.WithLanguage(css).WithTheme(nil)
	require.Equal(t, "css", c.Language().Name)
	require.Nil(t, c.Theme())
	require.Equal(t, "json", s.Language().Name, "original session unchanged")
	require.Same(t, s.Scorer(), c.Scorer())
}

func TestSession_Document(t *testing.T) {
	s, recorder := newSession(t, match.Prefix)

	page := s.Document(context.Background(), `{"a": 1}`, "a <b>")
	require.Contains(t, page, "<title>a &lt;b&gt;</title>")
	require.Contains(t, page, `<span class="property">&#34;a&#34;</span>`)
	require.Contains(t, page, ".quill .property {")

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, tracing.SpanSerialize, spans[1].Name())
	require.Equal(t, "dracula", attr(spans[1], tracing.AttrThemeName).AsString())
	require.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}
