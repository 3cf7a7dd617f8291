// Package language loads language definitions: a grammar plus the file
// extensions and completion words that belong to it.
package language

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/quill/internal/grammar"
	"github.com/zjrosen/quill/internal/log"
)

// AnyTrigger is the completions key used when no entry matches a trigger.
const AnyTrigger = "*"

var (
	// ErrInvalidLanguage is returned for a language file that cannot be read.
	ErrInvalidLanguage = errors.New("invalid language")
	// ErrUnknownLanguage is returned when no language matches a name or file.
	ErrUnknownLanguage = errors.New("unknown language")
)

// Language is a compiled language definition. It is immutable once loaded.
type Language struct {
	Name        string
	Extensions  []string
	LineComment string
	Grammar     *grammar.Grammar
	// Completions maps a trigger, the token type at the cursor, to candidate
	// words. AnyTrigger holds the fallback list.
	Completions map[string][]string
	// Source is the file the language was loaded from.
	Source string
}

// PlainTextName names the language returned by PlainText.
const PlainTextName = "text"

// PlainText returns a language without rules or completions. Its token
// tree is the text as a single leaf.
func PlainText() *Language {
	return &Language{Name: PlainTextName}
}

// Candidates returns the completion words for trigger, falling back to the
// AnyTrigger list. Dotted triggers also try their prefixes, so
// "string.template" finds "string".
func (l *Language) Candidates(trigger string) []string {
	for t := trigger; t != ""; {
		if words, ok := l.Completions[t]; ok {
			return words
		}
		i := strings.LastIndexByte(t, '.')
		if i < 0 {
			break
		}
		t = t[:i]
	}
	return l.Completions[AnyTrigger]
}

// Matches reports whether path has one of the language's extensions.
func (l *Language) Matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range l.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// file is the YAML layout of a language file.
type file struct {
	Name        string              `yaml:"name"`
	Extensions  []string            `yaml:"extensions"`
	LineComment string              `yaml:"line_comment"`
	Grammar     grammar.Definition  `yaml:"grammar"`
	Completions map[string][]string `yaml:"completions"`
}

// header is the part of a language file needed to index it.
type header struct {
	Name       string   `yaml:"name"`
	Extensions []string `yaml:"extensions"`
}

// Parse decodes and compiles a language file. Compilation failures wrap a
// *grammar.CompileError naming the offending rule.
func Parse(data []byte, opts ...grammar.Option) (*Language, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLanguage, err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidLanguage)
	}

	g, err := grammar.Compile(f.Grammar, opts...)
	if err != nil {
		return nil, fmt.Errorf("language %s: %w", f.Name, err)
	}

	return &Language{
		Name:        f.Name,
		Extensions:  normalizeExtensions(f.Extensions),
		LineComment: f.LineComment,
		Grammar:     g,
		Completions: f.Completions,
	}, nil
}

// Load reads and compiles the language file at path.
func Load(path string, opts ...grammar.Option) (*Language, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from configured language dirs
	if err != nil {
		return nil, fmt.Errorf("reading language: %w", err)
	}
	lang, err := Parse(data, opts...)
	if err != nil {
		log.Warn(log.CatLanguage, "language file rejected", "path", path, "error", err)
		return nil, err
	}
	lang.Source = path
	log.Debug(log.CatLanguage, "language loaded", "name", lang.Name, "path", path, "rules", lang.Grammar.Len())
	return lang, nil
}

func parseHeader(data []byte) (header, error) {
	var h header
	if err := yaml.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("%w: %w", ErrInvalidLanguage, err)
	}
	h.Extensions = normalizeExtensions(h.Extensions)
	return h, nil
}

// normalizeExtensions lowercases extensions and adds the leading dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
