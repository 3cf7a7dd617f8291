package grammar

import (
	"fmt"
	"strings"
)

// Flags are the matching switches a pattern literal can carry after its
// closing slash.
type Flags struct {
	CaseInsensitive bool // i
	Global          bool // g
	Multiline       bool // m
	DotAll          bool // s
}

// String renders the flags in literal suffix form ("gi", "m", ...).
func (f Flags) String() string {
	var b strings.Builder
	if f.Global {
		b.WriteByte('g')
	}
	if f.CaseInsensitive {
		b.WriteByte('i')
	}
	if f.Multiline {
		b.WriteByte('m')
	}
	if f.DotAll {
		b.WriteByte('s')
	}
	return b.String()
}

func (f Flags) union(o Flags) Flags {
	return Flags{
		CaseInsensitive: f.CaseInsensitive || o.CaseInsensitive,
		Global:          f.Global || o.Global,
		Multiline:       f.Multiline || o.Multiline,
		DotAll:          f.DotAll || o.DotAll,
	}
}

// ParsePattern splits a pattern expression into its regex source and flags.
//
// Expressions starting with '/' are literals of the form /source/flags where
// the last slash closes the source. Anything else is taken verbatim as the
// source with no flags.
func ParsePattern(expr string) (string, Flags, error) {
	if !strings.HasPrefix(expr, "/") {
		if expr == "" {
			return "", Flags{}, ErrEmptyPattern
		}
		return expr, Flags{}, nil
	}

	end := strings.LastIndexByte(expr, '/')
	if end == 0 {
		return "", Flags{}, fmt.Errorf("%w: %q", ErrUnterminatedLiteral, expr)
	}

	source := expr[1:end]
	if source == "" {
		return "", Flags{}, ErrEmptyPattern
	}

	var flags Flags
	for _, c := range expr[end+1:] {
		switch c {
		case 'i':
			flags.CaseInsensitive = true
		case 'g':
			flags.Global = true
		case 'm':
			flags.Multiline = true
		case 's':
			flags.DotAll = true
		default:
			return "", Flags{}, fmt.Errorf("%w %q in %q", ErrUnknownFlag, c, expr)
		}
	}
	return source, flags, nil
}
