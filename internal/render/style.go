// Package render turns token trees into styled terminal text and HTML markup.
package render

import (
	"maps"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Style attribute names understood by the terminal renderer and the CSS
// generator. Other attributes are carried along untouched for hosts that
// understand them.
const (
	AttrColor         = "color"
	AttrBackground    = "background"
	AttrBold          = "bold"
	AttrItalic        = "italic"
	AttrUnderline     = "underline"
	AttrStrikethrough = "strikethrough"
	AttrFaint         = "faint"
)

// Style is an opaque set of attribute/value pairs such as color=#FF79C6 or
// bold=true. Styles handed out by a Theme must not be modified.
type Style map[string]string

// Merge returns a new style holding s with over's attributes on top. The
// result never shares its map with s or over.
func (s Style) Merge(over Style) Style {
	if len(s) == 0 && len(over) == 0 {
		return nil
	}
	out := make(Style, len(s)+len(over))
	maps.Copy(out, s)
	maps.Copy(out, over)
	return out
}

// Equal reports whether both styles hold the same attributes.
func (s Style) Equal(o Style) bool {
	return maps.Equal(s, o)
}

// Keys returns the attribute names in sorted order.
func (s Style) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s Style) flag(attr string) bool {
	v, ok := s[attr]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// Lipgloss converts the style to a lipgloss.Style. Tabs are left alone so the
// rendered text keeps its exact characters.
func (s Style) Lipgloss() lipgloss.Style {
	ls := lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion)
	if c, ok := s[AttrColor]; ok && c != "" {
		ls = ls.Foreground(lipgloss.Color(c))
	}
	if c, ok := s[AttrBackground]; ok && c != "" {
		ls = ls.Background(lipgloss.Color(c))
	}
	if s.flag(AttrBold) {
		ls = ls.Bold(true)
	}
	if s.flag(AttrItalic) {
		ls = ls.Italic(true)
	}
	if s.flag(AttrUnderline) {
		ls = ls.Underline(true)
	}
	if s.flag(AttrStrikethrough) {
		ls = ls.Strikethrough(true)
	}
	if s.flag(AttrFaint) {
		ls = ls.Faint(true)
	}
	return ls
}
