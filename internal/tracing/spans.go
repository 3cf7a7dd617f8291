package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	// Language attributes
	AttrLanguageName   = "language.name"
	AttrLanguageSource = "language.source"
	AttrGrammarRules   = "grammar.rules"

	// Input attributes
	AttrTextLength = "text.length"

	// Tokenize and render attributes
	AttrTokenCount = "token.count"
	AttrThemeName  = "theme.name"
	AttrRunCount   = "render.runs"
	AttrOutputSize = "render.output_bytes"

	// Completion attributes
	AttrMatchAlgorithm = "match.algorithm"
	AttrMatchTrigger   = "match.trigger"
	AttrMatchFilter    = "match.filter"
	AttrCandidateCount = "match.candidates"
	AttrResultCount    = "match.results"

	// Error attributes
	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// Span names.
const (
	SpanTokenize  = "editor.tokenize"
	SpanHighlight = "editor.highlight"
	SpanSerialize = "editor.serialize"
	SpanComplete  = "editor.complete"
	SpanLanguage  = "language.resolve"
)

// Start opens an internal span named name on tracer.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// End records err on span, sets its status and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(
			attribute.String(AttrErrorMessage, err.Error()),
			attribute.String(AttrErrorType, fmt.Sprintf("%T", err)),
		)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
