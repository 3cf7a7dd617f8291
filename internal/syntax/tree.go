// Package syntax applies compiled grammars to text and models the result as
// a lossless token tree.
package syntax

import (
	"strings"
	"unicode/utf8"
)

// Node is an element of a token tree: either a Leaf or a *Token.
type Node interface {
	// Text returns the source text covered by the node.
	Text() string
	// Len returns the node's length in runes.
	Len() int
	node()
}

// Content is the body of a Token: either a Leaf or Nodes.
type Content interface {
	Text() string
	Len() int
	content()
}

// Leaf is source text that no rule claimed.
type Leaf string

func (l Leaf) Text() string { return string(l) }
func (l Leaf) Len() int     { return utf8.RuneCountInString(string(l)) }
func (Leaf) node()          {}
func (Leaf) content()       {}

// Nodes is a sequence of tree elements.
type Nodes []Node

func (n Nodes) Text() string {
	var b strings.Builder
	for _, child := range n {
		b.WriteString(child.Text())
	}
	return b.String()
}

func (n Nodes) Len() int {
	total := 0
	for _, child := range n {
		total += child.Len()
	}
	return total
}

func (Nodes) content() {}

// Token is text matched by a rule of the given type.
type Token struct {
	Type    string
	Content Content
}

func (t *Token) Text() string { return t.Content.Text() }
func (t *Token) Len() int     { return t.Content.Len() }
func (*Token) node()          {}

// Children returns the nested nodes of t, or nil when its content is a Leaf.
func (t *Token) Children() Nodes {
	if n, ok := t.Content.(Nodes); ok {
		return n
	}
	return nil
}

// Tree is the result of tokenizing a text.
type Tree Nodes

// Text reconstructs the tokenized text.
func (t Tree) Text() string { return Nodes(t).Text() }

// Len returns the length of the tokenized text in runes.
func (t Tree) Len() int { return Nodes(t).Len() }

// Walk visits every node of the tree depth-first, left to right. depth is 0
// for top-level nodes. Returning false from fn skips the node's children.
func (t Tree) Walk(fn func(n Node, depth int) bool) {
	walk(Nodes(t), 0, fn)
}

func walk(nodes Nodes, depth int, fn func(Node, int) bool) {
	for _, n := range nodes {
		if !fn(n, depth) {
			continue
		}
		if tok, ok := n.(*Token); ok {
			walk(tok.Children(), depth+1, fn)
		}
	}
}

// Tokens returns every token of the tree in depth-first order.
func (t Tree) Tokens() []*Token {
	var out []*Token
	t.Walk(func(n Node, _ int) bool {
		if tok, ok := n.(*Token); ok {
			out = append(out, tok)
		}
		return true
	})
	return out
}

// TypeAt returns the token types enclosing the rune at offset, outermost
// first. It returns nil for plain text or an out-of-range offset.
func (t Tree) TypeAt(offset int) []string {
	if offset < 0 {
		return nil
	}
	var types []string
	nodes := Nodes(t)
	for {
		found := false
		for _, n := range nodes {
			l := n.Len()
			if offset >= l {
				offset -= l
				continue
			}
			tok, ok := n.(*Token)
			if !ok {
				return types
			}
			types = append(types, tok.Type)
			nodes = tok.Children()
			found = true
			break
		}
		if !found {
			return types
		}
	}
}
