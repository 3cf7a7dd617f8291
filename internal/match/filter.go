package match

import (
	"slices"

	"github.com/zjrosen/quill/internal/log"
)

// DefaultThreshold is the score a candidate must exceed to be kept.
const DefaultThreshold = 0.1

// Result is a kept candidate.
type Result[T any] struct {
	// Item is the candidate as supplied by the caller.
	Item T
	// Index is the candidate's position in the input.
	Index int
	// Score is the match score in (threshold, 1].
	Score float64
}

// Options configures Filter.
type Options struct {
	// Threshold is the exclusive lower bound for kept scores.
	Threshold float64
	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// Option mutates Options.
type Option func(*Options)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(o *Options) { o.Threshold = threshold }
}

// WithLimit keeps at most n results.
func WithLimit(n int) Option {
	return func(o *Options) { o.Limit = n }
}

// Filter scores every item, keeps those scoring above the threshold and
// returns them best first. Items with equal scores keep their input order.
// text extracts the string to match from an item.
func Filter[T any](s *Scorer, items []T, filter string, text func(T) string, opts ...Option) []Result[T] {
	o := Options{Threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&o)
	}

	f := clusters(filter)
	var results []Result[T]
	for i, item := range items {
		score := s.score(clusters(text(item)), f)
		if score > o.Threshold {
			results = append(results, Result[T]{Item: item, Index: i, Score: score})
		}
	}

	slices.SortStableFunc(results, func(a, b Result[T]) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if o.Limit > 0 && len(results) > o.Limit {
		results = results[:o.Limit]
	}

	log.Debug(log.CatMatch, "candidates filtered",
		"algorithm", s.alg, "candidates", len(items), "kept", len(results))
	return results
}

// Strings filters plain string candidates.
func Strings(s *Scorer, candidates []string, filter string, opts ...Option) []Result[string] {
	return Filter(s, candidates, filter, func(c string) string { return c }, opts...)
}
