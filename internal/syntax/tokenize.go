package syntax

import (
	"github.com/zjrosen/quill/internal/grammar"
)

// piece is a working element of the tokenizer: an untokenized span of runes
// [start, end) or a finished token.
type piece struct {
	start, end int
	token      *Token
}

// ByteOffsets returns the byte offset of every rune of text plus a final
// entry for len(text). Runes are counted as by []rune(text), so each invalid
// UTF-8 byte is one rune of width 1.
func ByteOffsets(text string) []int {
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}

// Tokenize applies g to text. It never fails: text no rule claims is kept as
// Leaf nodes, and concatenating all leaves yields text byte for byte, even
// when text is not valid UTF-8.
//
// Rules run in grammar order. Each rule claims the leftmost match in every
// still-untokenized span, then keeps searching the remainder after the match.
// Claimed spans are final and never seen by later rules.
func Tokenize(g *grammar.Grammar, text string) Tree {
	if text == "" {
		return Tree{}
	}
	runes := []rune(text)
	offsets := ByteOffsets(text)
	cut := func(start, end int) string { return text[offsets[start]:offsets[end]] }

	pieces := []piece{{start: 0, end: len(runes)}}
	for _, rule := range g.Rules() {
		next := make([]piece, 0, len(pieces))
		for _, p := range pieces {
			if p.token != nil {
				next = append(next, p)
				continue
			}
			next = applyRule(rule, runes, p.start, p.end, cut, next)
		}
		pieces = next
	}

	tree := make(Tree, 0, len(pieces))
	for _, p := range pieces {
		if p.token != nil {
			tree = append(tree, p.token)
		} else {
			tree = append(tree, Leaf(cut(p.start, p.end)))
		}
	}
	return tree
}

func newToken(rule *grammar.Rule, matched string) *Token {
	if rule.Inside == nil {
		return &Token{Type: rule.Name, Content: Leaf(matched)}
	}
	inner := Tokenize(rule.Inside, matched)
	if len(inner) == 0 {
		inner = Tree{Leaf(matched)}
	}
	return &Token{Type: rule.Name, Content: Nodes(inner)}
}

// applyRule splits runes[start:end] around every match of rule and appends
// the result to out. After a match, the search resumes on the remaining text
// alone, as if it were a fresh span.
func applyRule(rule *grammar.Rule, runes []rune, start, end int, cut func(int, int) string, out []piece) []piece {
	for start < end {
		m, ok := rule.Find(runes[start:end], 0)
		if !ok {
			break
		}
		if m.Start > 0 {
			out = append(out, piece{start: start, end: start + m.Start})
		}
		out = append(out, piece{token: newToken(rule, cut(start+m.Start, start+m.End))})
		start += m.End
	}
	if start < end {
		out = append(out, piece{start: start, end: end})
	}
	return out
}
