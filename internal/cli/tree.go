package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	cerr "github.com/barun-bash/coursebot/internal/errors"
	"github.com/barun-bash/coursebot/internal/parser"
)

// Tree renders a parse tree in the indented form of Node.Pretty, with rule
// labels in the accent color and matched text in the info color.
func Tree(n *parser.Node) string {
	var b strings.Builder
	writeTree(&b, n, 0)
	return b.String()
}

func writeTree(b *strings.Builder, n *parser.Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if n.IsLeaf() {
		b.WriteString(Muted(n.Label))
		b.WriteString(" ")
		b.WriteString(Info(strconv.Quote(n.Token.Literal)))
	} else {
		b.WriteString(Accent(n.Label))
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		writeTree(b, c, depth+1)
	}
}

// Result renders a parse result: the single tree, or a heading followed by
// every alternative of an ambiguous forest. bracket selects the one-line
// form.
func Result(res *parser.Result, bracket bool) string {
	render := func(n *parser.Node) string {
		if bracket {
			return n.Bracket() + "\n"
		}
		return Tree(n)
	}

	if res.Unambiguous() {
		return render(res.Tree())
	}

	var b strings.Builder
	b.WriteString(Warn(fmt.Sprintf("ambiguous: %d derivations", len(res.Trees))))
	b.WriteString("\n")
	for i, t := range res.Trees {
		if !bracket {
			b.WriteString("\n")
		}
		b.WriteString(Heading(fmt.Sprintf("alternative %d of %d", i+1, len(res.Trees))))
		b.WriteString("\n")
		b.WriteString(render(t))
	}
	return b.String()
}

var caretBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 1)

// SyntaxError renders the error message, the input with a caret under the
// failing column, and the suggestion when there is one.
func SyntaxError(err *cerr.SyntaxError) string {
	head := *err
	head.Expected, head.Suggestion = nil, ""

	var b strings.Builder
	b.WriteString(Error(head.Error()))
	b.WriteString("\n")

	input, caret, _ := strings.Cut(err.Caret(), "\n")
	body := input + "\n" + Colorize(RoleError, caret)
	if ColorEnabled {
		b.WriteString(caretBox.BorderForeground(currentTheme.Colors[RoleMuted]).Render(body))
	} else {
		b.WriteString("  " + strings.ReplaceAll(body, "\n", "\n  "))
	}
	b.WriteString("\n")

	if len(err.Expected) > 0 {
		b.WriteString(Muted("  expected: " + strings.Join(err.Expected, ", ")))
		b.WriteString("\n")
	}
	if err.Suggestion != "" {
		b.WriteString(Info(fmt.Sprintf("  did you mean %q?", err.Suggestion)))
		b.WriteString("\n")
	}
	return b.String()
}
