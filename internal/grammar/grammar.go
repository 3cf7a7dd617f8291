// Package grammar compiles ordered rule definitions into immutable grammars
// used by the tokenizer.
//
// A Definition is a list of (type name, rule spec) pairs in priority order.
// Compile turns every pattern into an executable matcher, recursively compiles
// nested definitions and keeps declaration order verbatim. Compilation is
// all-or-nothing: the first bad rule aborts it with a *CompileError.
//
//	g, err := grammar.Compile(grammar.Definition{
//	    grammar.Define("string", `/"[^"]*"/`),
//	    grammar.Define("number", `/\d+/`),
//	})
package grammar

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/zjrosen/quill/internal/log"
)

// DefaultMatchTimeout bounds a single pattern match attempt.
const DefaultMatchTimeout = 250 * time.Millisecond

// Grammar is an ordered, immutable list of compiled rules.
type Grammar struct {
	rules []*Rule
}

// Rule is a compiled rule. Its fields are read-only after Compile.
type Rule struct {
	Name            string
	Source          string
	CaseInsensitive bool
	Global          bool
	Multiline       bool
	DotAll          bool
	Lookbehind      bool
	Inside          *Grammar

	re *regexp2.Regexp
}

// Match is the span of a rule match in rune offsets, with the lookbehind
// context (if any) already excluded.
type Match struct {
	Start int
	End   int
}

// Option configures compilation.
type Option func(*options)

type options struct {
	timeout time.Duration
}

// WithMatchTimeout overrides DefaultMatchTimeout. A zero or negative value
// disables the timeout.
func WithMatchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// Compile compiles def into a Grammar.
func Compile(def Definition, opts ...Option) (*Grammar, error) {
	o := options{timeout: DefaultMatchTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	g, err := compile(def, nil, o)
	if err != nil {
		log.ErrorErr(log.CatGrammar, "grammar compilation failed", err)
		return nil, err
	}
	log.Debug(log.CatGrammar, "grammar compiled", "rules", len(def))
	return g, nil
}

// MustCompile is like Compile but panics on error. Intended for grammars
// embedded in code and tests.
func MustCompile(def Definition, opts ...Option) *Grammar {
	g, err := Compile(def, opts...)
	if err != nil {
		panic(err)
	}
	return g
}

func compile(def Definition, path []string, o options) (*Grammar, error) {
	rules := make([]*Rule, 0, len(def))
	for _, rd := range def {
		r, err := compileRule(rd, path, o)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return &Grammar{rules: rules}, nil
}

func compileRule(rd RuleDef, path []string, o options) (*Rule, error) {
	fail := func(cause error) error {
		return &CompileError{Rule: rd.Name, Path: append([]string(nil), path...), Cause: cause}
	}

	if rd.Name == "" {
		return nil, fail(ErrEmptyName)
	}

	source, literal, err := ParsePattern(rd.Spec.Pattern)
	if err != nil {
		return nil, fail(err)
	}
	flags := literal.union(rd.Spec.flags())

	re, err := regexp2.Compile(source, regexOptions(flags))
	if err != nil {
		return nil, fail(err)
	}
	if o.timeout > 0 {
		re.MatchTimeout = o.timeout
	}

	if rd.Spec.Lookbehind && len(re.GetGroupNumbers()) < 2 {
		return nil, fail(ErrLookbehindGroup)
	}

	r := &Rule{
		Name:            rd.Name,
		Source:          source,
		CaseInsensitive: flags.CaseInsensitive,
		Global:          flags.Global,
		Multiline:       flags.Multiline,
		DotAll:          flags.DotAll,
		Lookbehind:      rd.Spec.Lookbehind,
		re:              re,
	}

	if rd.Spec.Inside != nil {
		inside, err := compile(rd.Spec.Inside, append(path, rd.Name), o)
		if err != nil {
			return nil, err
		}
		r.Inside = inside
	}
	return r, nil
}

func regexOptions(f Flags) regexp2.RegexOptions {
	opts := regexp2.None
	if f.CaseInsensitive {
		opts |= regexp2.IgnoreCase
	}
	if f.Multiline {
		opts |= regexp2.Multiline
	}
	if f.DotAll {
		opts |= regexp2.Singleline
	}
	return opts
}

// Rules returns the rules in priority order.
func (g *Grammar) Rules() []*Rule {
	if g == nil {
		return nil
	}
	out := make([]*Rule, len(g.rules))
	copy(out, g.rules)
	return out
}

// Len returns the number of top-level rules.
func (g *Grammar) Len() int {
	if g == nil {
		return 0
	}
	return len(g.rules)
}

// Names returns the type names of the top-level rules in priority order.
func (g *Grammar) Names() []string {
	if g == nil {
		return nil
	}
	names := make([]string, len(g.rules))
	for i, r := range g.rules {
		names[i] = r.Name
	}
	return names
}

// Flags returns the rule's flags.
func (r *Rule) Flags() Flags {
	return Flags{
		CaseInsensitive: r.CaseInsensitive,
		Global:          r.Global,
		Multiline:       r.Multiline,
		DotAll:          r.DotAll,
	}
}

// String renders the rule's pattern in literal form.
func (r *Rule) String() string {
	return fmt.Sprintf("/%s/%s", r.Source, r.Flags())
}

// Find returns the leftmost non-empty match in text at or after rune offset
// from. Patterns are evaluated against text alone, so anchors refer to its
// edges. A match that times out is reported as no match.
func (r *Rule) Find(text []rune, from int) (Match, bool) {
	for from <= len(text) {
		m, err := r.re.FindRunesMatchStartingAt(text, from)
		if err != nil {
			log.Warn(log.CatGrammar, "pattern match aborted", "rule", r.Name, "error", err)
			return Match{}, false
		}
		if m == nil {
			return Match{}, false
		}

		start := m.Index
		if r.Lookbehind {
			if g := m.GroupByNumber(1); g != nil {
				start += g.Length
			}
		}
		end := m.Index + m.Length

		if end > start {
			return Match{Start: start, End: end}, true
		}
		// Empty tokens are skipped; retry one rune further.
		from = m.Index + 1
	}
	return Match{}, false
}
