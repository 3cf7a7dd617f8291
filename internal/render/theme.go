package render

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/quill/internal/log"
)

// DefaultType is the theme key holding the default style.
const DefaultType = "*"

var (
	// ErrUnknownPreset is returned for a preset name that is not built in.
	ErrUnknownPreset = errors.New("unknown theme preset")
	// ErrInvalidTheme is returned when a theme file cannot be parsed.
	ErrInvalidTheme = errors.New("invalid theme")
)

// Theme maps token types to styles. Types are looked up by their full name
// first, then by each dotted prefix, so "keyword.control" falls back to
// "keyword". A type with no entry contributes nothing and its text keeps
// the style of its enclosing token.
//
// Themes are immutable; the With methods return modified copies.
type Theme struct {
	Name   string
	styles map[string]Style
}

// NewTheme builds a theme from a type-to-style map. The DefaultType key, if
// present, is the default style.
func NewTheme(name string, styles map[string]Style) *Theme {
	t := &Theme{Name: name, styles: make(map[string]Style, len(styles))}
	for typ, s := range styles {
		t.styles[typ] = maps.Clone(s)
	}
	return t
}

// Default returns the style applied to text outside of any token.
func (t *Theme) Default() Style {
	if t == nil {
		return nil
	}
	return t.styles[DefaultType]
}

// Style returns the style of a token type, falling back to the default style
// when neither the type nor any of its prefixes has an entry.
func (t *Theme) Style(typeName string) Style {
	if s, ok := t.lookup(typeName); ok {
		return s
	}
	return t.Default()
}

func (t *Theme) lookup(typeName string) (Style, bool) {
	if t == nil {
		return nil, false
	}
	for name := typeName; name != ""; name = parentScope(name) {
		if s, ok := t.styles[name]; ok {
			return s, true
		}
	}
	return nil, false
}

func parentScope(typeName string) string {
	i := strings.LastIndexByte(typeName, '.')
	if i < 0 {
		return ""
	}
	return typeName[:i]
}

// Types returns the styled token types in sorted order, excluding the
// default entry.
func (t *Theme) Types() []string {
	if t == nil {
		return nil
	}
	types := make([]string, 0, len(t.styles))
	for typ := range t.styles {
		if typ != DefaultType {
			types = append(types, typ)
		}
	}
	sort.Strings(types)
	return types
}

func (t *Theme) clone() *Theme {
	if t == nil {
		return &Theme{styles: map[string]Style{}}
	}
	c := &Theme{Name: t.Name, styles: make(map[string]Style, len(t.styles))}
	maps.Copy(c.styles, t.styles)
	return c
}

// WithStyle returns a copy of t with the style of typeName replaced.
func (t *Theme) WithStyle(typeName string, s Style) *Theme {
	c := t.clone()
	c.styles[typeName] = maps.Clone(s)
	return c
}

// WithAttribute returns a copy of t with a single attribute of typeName set.
// Other attributes of the type are kept.
func (t *Theme) WithAttribute(typeName, attr, value string) *Theme {
	c := t.clone()
	s := maps.Clone(c.styles[typeName])
	if s == nil {
		s = Style{}
	}
	s[attr] = value
	c.styles[typeName] = s
	return c
}

// WithStyles returns a copy of t with every given style merged attribute by
// attribute over the existing one.
func (t *Theme) WithStyles(over map[string]Style) *Theme {
	c := t.clone()
	for typ, s := range over {
		c.styles[typ] = c.styles[typ].Merge(s)
	}
	return c
}

// themeFile is the YAML layout of a theme file.
type themeFile struct {
	Name    string                    `yaml:"name"`
	Extends string                    `yaml:"extends"`
	Styles  map[string]map[string]any `yaml:"styles"`
}

// ParseTheme parses a YAML theme:
//
//	name: mine
//	extends: dracula
//	styles:
//	  "*": {color: "#F8F8F2"}
//	  comment: {color: "#6272A4", italic: true}
//
// With extends, the styles are merged over the named preset.
func ParseTheme(data []byte) (*Theme, error) {
	var f themeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTheme, err)
	}

	styles := make(map[string]Style, len(f.Styles))
	for typ, attrs := range f.Styles {
		s := make(Style, len(attrs))
		for k, v := range attrs {
			switch v.(type) {
			case nil:
				continue
			case map[string]any, []any:
				return nil, fmt.Errorf("%w: attribute %s.%s must be a scalar", ErrInvalidTheme, typ, k)
			}
			s[k] = fmt.Sprint(v)
		}
		styles[typ] = s
	}

	if f.Extends == "" {
		return NewTheme(f.Name, styles), nil
	}
	base, err := PresetTheme(f.Extends)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTheme, err)
	}
	theme := base.WithStyles(styles)
	if f.Name != "" {
		theme.Name = f.Name
	}
	return theme, nil
}

// LoadTheme reads and parses a YAML theme file.
func LoadTheme(path string) (*Theme, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from user config
	if err != nil {
		return nil, fmt.Errorf("reading theme: %w", err)
	}
	theme, err := ParseTheme(data)
	if err != nil {
		log.Warn(log.CatRender, "theme file rejected", "path", path, "error", err)
		return nil, err
	}
	log.Debug(log.CatRender, "theme loaded", "path", path, "name", theme.Name, "types", len(theme.styles))
	return theme, nil
}
