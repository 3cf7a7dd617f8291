package syntax

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTree() Tree {
	// `x = f("a\n")`
	return Tree{
		Leaf("x = "),
		&Token{Type: "function", Content: Leaf("f")},
		&Token{Type: "punctuation", Content: Leaf("(")},
		&Token{Type: "string", Content: Nodes{
			Leaf(`"a`),
			&Token{Type: "escape", Content: Leaf(`\n`)},
			Leaf(`"`),
		}},
		&Token{Type: "punctuation", Content: Leaf(")")},
	}
}

func TestTree_TextAndLen(t *testing.T) {
	tree := sampleTree()
	require.Equal(t, `x = f("a\n")`, tree.Text())
	require.Equal(t, 12, tree.Len())
}

func TestTree_TypeAt(t *testing.T) {
	tree := sampleTree()

	tests := []struct {
		offset int
		want   []string
	}{
		{0, nil},
		{4, []string{"function"}},
		{5, []string{"punctuation"}},
		{6, []string{"string"}},
		{8, []string{"string", "escape"}},
		{9, []string{"string", "escape"}},
		{10, []string{"string"}},
		{11, []string{"punctuation"}},
		{12, nil},
		{-1, nil},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tree.TypeAt(tt.offset), "offset %d", tt.offset)
	}
}

func TestTree_TokensDepthFirst(t *testing.T) {
	var types []string
	for _, tok := range sampleTree().Tokens() {
		types = append(types, tok.Type)
	}
	require.Equal(t, []string{"function", "punctuation", "string", "escape", "punctuation"}, types)
}

func TestTree_WalkDepthAndSkip(t *testing.T) {
	tree := sampleTree()

	var depths []int
	tree.Walk(func(n Node, depth int) bool {
		depths = append(depths, depth)
		return true
	})
	require.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 0}, depths)

	visited := 0
	tree.Walk(func(n Node, depth int) bool {
		visited++
		_, isToken := n.(*Token)
		return !isToken
	})
	require.Equal(t, 5, visited)
}

func TestToken_ChildrenOfLeafContent(t *testing.T) {
	tok := &Token{Type: "n", Content: Leaf("1")}
	require.Nil(t, tok.Children())
	require.Equal(t, 1, tok.Len())
}

func TestLeaf_LenCountsRunes(t *testing.T) {
	require.Equal(t, 2, Leaf("世界").Len())
	require.Equal(t, 6, len(Leaf("世界").Text()))
}
