package parser

import (
	"strconv"
	"strings"

	"github.com/barun-bash/coursebot/internal/lexer"
)

// Node is one node of a parse tree. Interior nodes are labeled with the rule
// (or alias) they instantiate; leaves carry the terminal name and the
// matched token. Trees returned by the parser share subtrees and must not be
// modified.
type Node struct {
	Label    string       // rule or alias for interior nodes, terminal name for leaves
	Token    *lexer.Token // non-nil for leaves
	Children []*Node
}

// IsLeaf reports whether the node is a matched token.
func (n *Node) IsLeaf() bool {
	return n.Token != nil
}

// Leaves returns the matched tokens in input order.
func (n *Node) Leaves() []lexer.Token {
	var out []lexer.Token
	n.walk(func(m *Node) bool {
		if m.IsLeaf() {
			out = append(out, *m.Token)
		}
		return true
	})
	return out
}

// Text joins the literals of all leaves with single spaces.
func (n *Node) Text() string {
	leaves := n.Leaves()
	parts := make([]string, len(leaves))
	for i, tok := range leaves {
		parts[i] = tok.Literal
	}
	return strings.Join(parts, " ")
}

// Find returns the first node with the given label in pre-order, or nil.
func (n *Node) Find(label string) *Node {
	var found *Node
	n.walk(func(m *Node) bool {
		if found == nil && m.Label == label {
			found = m
		}
		return found == nil
	})
	return found
}

// FindAll returns every node with the given label in pre-order.
func (n *Node) FindAll(label string) []*Node {
	var out []*Node
	n.walk(func(m *Node) bool {
		if m.Label == label {
			out = append(out, m)
		}
		return true
	})
	return out
}

// Child returns the first direct child with the given label, or nil.
func (n *Node) Child(label string) *Node {
	for _, c := range n.Children {
		if c.Label == label {
			return c
		}
	}
	return nil
}

// walk visits nodes in pre-order until fn returns false.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// Pretty renders the tree one node per line with two-space indentation.
// Leaves are shown as TERMINAL "text".
//
//	simple
//	  action
//	    ACTION "message"
func (n *Node) Pretty() string {
	var b strings.Builder
	n.pretty(&b, 0)
	return b.String()
}

func (n *Node) pretty(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Label)
	if n.IsLeaf() {
		b.WriteString(" ")
		b.WriteString(strconv.Quote(n.Token.Literal))
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		c.pretty(b, depth+1)
	}
}

// Bracket renders the tree on one line in labeled-bracket form:
// (simple (action (ACTION "message")) ...). Two trees have the same bracket
// form exactly when they have the same shape and leaves.
func (n *Node) Bracket() string {
	var b strings.Builder
	n.bracket(&b)
	return b.String()
}

func (n *Node) bracket(b *strings.Builder) {
	b.WriteString("(")
	b.WriteString(n.Label)
	if n.IsLeaf() {
		b.WriteString(" ")
		b.WriteString(strconv.Quote(n.Token.Literal))
	}
	for _, c := range n.Children {
		b.WriteString(" ")
		c.bracket(b)
	}
	b.WriteString(")")
}

func (n *Node) String() string {
	return n.Bracket()
}
