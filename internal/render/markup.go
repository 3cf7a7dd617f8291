package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/zjrosen/quill/internal/syntax"
)

// ContainerClass is the CSS class of the element Document wraps markup in.
const ContainerClass = "quill"

// Serialize renders tree as HTML. Leaves are escaped text; every token
// becomes a span whose class is its type, with dots turned into spaces so a
// "keyword.control" token carries both the keyword and control classes.
// Removing the tags and unescaping yields the original text.
func Serialize(tree syntax.Tree) string {
	var b strings.Builder
	writeNodes(&b, syntax.Nodes(tree))
	return b.String()
}

func writeNodes(b *strings.Builder, nodes syntax.Nodes) {
	for _, n := range nodes {
		switch n := n.(type) {
		case syntax.Leaf:
			b.WriteString(html.EscapeString(string(n)))
		case *syntax.Token:
			b.WriteString(`<span class="`)
			b.WriteString(html.EscapeString(className(n.Type)))
			b.WriteString(`">`)
			switch c := n.Content.(type) {
			case syntax.Leaf:
				b.WriteString(html.EscapeString(string(c)))
			case syntax.Nodes:
				writeNodes(b, c)
			}
			b.WriteString("</span>")
		}
	}
}

func className(typeName string) string {
	return strings.ReplaceAll(typeName, ".", " ")
}

func selector(typeName string) string {
	parts := strings.Split(typeName, ".")
	for i, p := range parts {
		parts[i] = "." + cssIdent(p)
	}
	return strings.Join(parts, "")
}

// cssIdent escapes characters that may not appear in a CSS class selector.
func cssIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '-' || r == '_' || r >= 0x80,
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, `\%x `, r)
		}
	}
	return b.String()
}

// cssDeclarations converts style attributes to CSS declarations. Attributes
// without a CSS meaning are passed through as properties.
func cssDeclarations(s Style) []string {
	var decls []string
	for _, k := range s.Keys() {
		v := s[k]
		switch k {
		case AttrColor:
			decls = append(decls, "color: "+v)
		case AttrBackground:
			decls = append(decls, "background-color: "+v)
		case AttrBold:
			if s.flag(k) {
				decls = append(decls, "font-weight: bold")
			}
		case AttrItalic:
			if s.flag(k) {
				decls = append(decls, "font-style: italic")
			}
		case AttrUnderline:
			if s.flag(k) {
				decls = append(decls, "text-decoration: underline")
			}
		case AttrStrikethrough:
			if s.flag(k) {
				decls = append(decls, "text-decoration: line-through")
			}
		case AttrFaint:
			if s.flag(k) {
				decls = append(decls, "opacity: 0.6")
			}
		default:
			decls = append(decls, k+": "+v)
		}
	}
	return decls
}

// CSS returns a stylesheet for markup produced by Serialize, scoped to
// elements of ContainerClass. Rules are sorted by type so the output is
// stable.
func (t *Theme) CSS() string {
	var b strings.Builder
	writeRule := func(sel string, s Style) {
		decls := cssDeclarations(s)
		if len(decls) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s {\n", sel)
		for _, d := range decls {
			fmt.Fprintf(&b, "  %s;\n", d)
		}
		b.WriteString("}\n")
	}

	root := "." + ContainerClass
	writeRule(root, t.Default())
	for _, typ := range t.Types() {
		writeRule(root+" "+selector(typ), t.styles[typ])
	}
	return b.String()
}

// Document renders tree as a standalone HTML page styled by theme.
func Document(tree syntax.Tree, theme *Theme, title string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("<style>\n")
	b.WriteString(theme.CSS())
	b.WriteString("</style>\n</head>\n<body>\n")
	fmt.Fprintf(&b, "<pre class=\"%s\"><code>", ContainerClass)
	b.WriteString(Serialize(tree))
	b.WriteString("</code></pre>\n</body>\n</html>\n")
	return b.String()
}
