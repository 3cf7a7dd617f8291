package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/quill/internal/syntax"
)

// Run is a stretch of styled text. Start and End are rune offsets.
type Run struct {
	Start int
	End   int
	// Type is the innermost token type covering the run, empty for plain text.
	Type  string
	Style Style
}

// Len returns the run length in runes.
func (r Run) Len() int { return r.End - r.Start }

// StyledText is a flattened token tree: the original text plus contiguous
// runs covering every character exactly once.
type StyledText struct {
	Text string
	Runs []Run
}

// Len returns the text length in runes.
func (s StyledText) Len() int {
	if len(s.Runs) == 0 {
		return 0
	}
	return s.Runs[len(s.Runs)-1].End
}

// StyleAt returns the style of the rune at offset, or nil when out of range.
func (s StyledText) StyleAt(offset int) Style {
	if r, ok := s.runAt(offset); ok {
		return r.Style
	}
	return nil
}

// TypeAt returns the innermost token type at offset.
func (s StyledText) TypeAt(offset int) string {
	if r, ok := s.runAt(offset); ok {
		return r.Type
	}
	return ""
}

func (s StyledText) runAt(offset int) (Run, bool) {
	lo, hi := 0, len(s.Runs)
	for lo < hi {
		mid := (lo + hi) / 2
		r := s.Runs[mid]
		switch {
		case offset < r.Start:
			hi = mid
		case offset >= r.End:
			lo = mid + 1
		default:
			return r, true
		}
	}
	return Run{}, false
}

// Flatten resolves the style of every character of tree against theme.
//
// Text outside any token gets the theme's default style. Inside a token, the
// token's own style is laid over the style of its parent, so attributes the
// token does not set are inherited. Adjacent runs with the same type and
// style are merged. A nil theme yields unstyled runs. Run styles are
// copies and never share maps with theme.
func Flatten(tree syntax.Tree, theme *Theme) StyledText {
	f := flattener{theme: theme}
	f.visit(syntax.Nodes(tree), "", theme.Default().Merge(nil))
	return StyledText{Text: tree.Text(), Runs: f.runs}
}

type flattener struct {
	theme *Theme
	runs  []Run
	pos   int
}

func (f *flattener) visit(nodes syntax.Nodes, typ string, style Style) {
	for _, n := range nodes {
		switch n := n.(type) {
		case syntax.Leaf:
			f.emit(n.Len(), typ, style)
		case *syntax.Token:
			own, _ := f.theme.lookup(n.Type)
			inner := style.Merge(own)
			switch c := n.Content.(type) {
			case syntax.Leaf:
				f.emit(c.Len(), n.Type, inner)
			case syntax.Nodes:
				f.visit(c, n.Type, inner)
			}
		}
	}
}

func (f *flattener) emit(length int, typ string, style Style) {
	if length == 0 {
		return
	}
	if last := len(f.runs) - 1; last >= 0 && f.runs[last].Type == typ && f.runs[last].Style.Equal(style) {
		f.runs[last].End += length
		f.pos += length
		return
	}
	f.runs = append(f.runs, Run{Start: f.pos, End: f.pos + length, Type: typ, Style: style})
	f.pos += length
}

// Render returns the text with ANSI styling for the terminal. Stripping the
// escape sequences yields Text unchanged.
func (s StyledText) Render() string {
	return s.render(func(st Style) lipgloss.Style { return st.Lipgloss() })
}

// RenderWith is like Render but uses r to detect the terminal's color
// profile.
func (s StyledText) RenderWith(r *lipgloss.Renderer) string {
	return s.render(func(st Style) lipgloss.Style {
		return r.NewStyle().Inherit(st.Lipgloss()).TabWidth(lipgloss.NoTabConversion)
	})
}

func (s StyledText) render(toLipgloss func(Style) lipgloss.Style) string {
	offsets := syntax.ByteOffsets(s.Text)
	var b strings.Builder
	b.Grow(len(s.Text))
	for _, r := range s.Runs {
		seg := s.Text[offsets[r.Start]:offsets[r.End]]
		if len(r.Style) == 0 {
			b.WriteString(seg)
			continue
		}
		ls := toLipgloss(r.Style)
		// lipgloss pads multi-line strings to a block; style line by line.
		for i, line := range strings.Split(seg, "\n") {
			if i > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(ls.Render(line))
			}
		}
	}
	return b.String()
}
