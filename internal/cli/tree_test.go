package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barun-bash/coursebot/internal/parser"
)

func TestTreeMatchesPrettyWithoutColor(t *testing.T) {
	ColorEnabled = false
	res, err := parser.Parse("show me comments on lab 2")
	require.NoError(t, err)

	assert.Equal(t, res.Tree().Pretty(), Tree(res.Tree()))
}

func TestResultUnambiguous(t *testing.T) {
	ColorEnabled = false
	res, err := parser.Parse("show me comments on lab 2")
	require.NoError(t, err)

	assert.Equal(t, res.Tree().Bracket()+"\n", Result(res, true))
	assert.True(t, strings.HasPrefix(Result(res, false), "simple\n  action\n    ACTION \"show me\"\n"))
}

func TestResultAmbiguous(t *testing.T) {
	ColorEnabled = false
	res, err := parser.Parse("message students with lab on test")
	require.NoError(t, err)

	out := Result(res, true)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "⚠ ambiguous: 2 derivations", lines[0])
	assert.Equal(t, "alternative 1 of 2", lines[1])
	assert.Equal(t, res.Trees[0].Bracket(), lines[2])
	assert.Equal(t, "alternative 2 of 2", lines[3])
	assert.Equal(t, res.Trees[1].Bracket(), lines[4])
}

func TestSyntaxErrorRendering(t *testing.T) {
	ColorEnabled = false
	_, err := parser.Parse("message studnets with no submissions for lab")
	serr, ok := parser.AsSyntaxError(err)
	require.True(t, ok)

	out := SyntaxError(serr)
	assert.Contains(t, out, "✗ syntax error at column 9")
	assert.Contains(t, out, "  message studnets with no submissions for lab\n")
	assert.Contains(t, out, "\n  "+strings.Repeat(" ", 8)+"^\n")
	assert.Contains(t, out, `did you mean "students"?`)
	assert.Equal(t, 1, strings.Count(out, "did you mean"))
}

func TestSyntaxErrorExpected(t *testing.T) {
	ColorEnabled = false
	_, err := parser.Parse("students message lab")
	serr, ok := parser.AsSyntaxError(err)
	require.True(t, ok)

	assert.Contains(t, SyntaxError(serr), "expected: ACTION")
}
