package lexer

import "fmt"

// TokenType names the grammar terminal a token was matched as, e.g. "NOUN".
type TokenType string

// EOF marks the end of the token stream.
const EOF TokenType = "$END"

// Token represents a single lexical token with its position in the input.
type Token struct {
	Type    TokenType
	Literal string // the source text of the token, as typed
	Offset  int    // byte offset in the input
	Column  int    // 1-based rune column
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Offset + len(t.Literal)
}

// String returns a human-readable representation of a token.
func (t Token) String() string {
	if t.Type == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}
