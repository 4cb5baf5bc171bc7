// Package lexer splits a command sentence into tokens using the terminal
// definitions of a grammar.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	cerr "github.com/barun-bash/coursebot/internal/errors"
	"github.com/barun-bash/coursebot/internal/grammar"
)

// Lexer tokenizes one input sentence against a grammar's terminals.
type Lexer struct {
	grammar *grammar.Grammar
	source  string  // the full input text
	tokens  []Token // accumulated tokens
	current int     // byte offset of current position
	column  int     // current rune column (1-based)
}

// New creates a Lexer for the given input.
func New(g *grammar.Grammar, source string) *Lexer {
	return &Lexer{
		grammar: g,
		source:  source,
		tokens:  make([]Token, 0, 16),
		column:  1,
	}
}

// Tokenize is a shorthand for New(g, source).Tokenize().
func Tokenize(g *grammar.Grammar, source string) ([]Token, error) {
	return New(g, source).Tokenize()
}

// Tokenize processes the entire input and returns all tokens. Matches of
// ignored terminals are dropped. The token stream always ends with EOF.
//
// At each position the longest match over all terminals wins. On equal
// length a literal terminal beats a pattern terminal, then the terminal
// declared first wins. Text no terminal matches is a *errors.SyntaxError.
func (l *Lexer) Tokenize() ([]Token, error) {
	terms := l.grammar.Terminals()
	for !l.isAtEnd() {
		term, size := l.longestMatch(terms)
		if term == nil {
			return nil, l.unknownWord()
		}
		if !l.grammar.Ignored(term.Name) {
			l.emit(TokenType(term.Name), l.source[l.current:l.current+size])
		}
		l.advance(size)
	}

	l.emit(EOF, "")
	return l.tokens, nil
}

// longestMatch returns the terminal with the best match at the current
// position and the match length in bytes.
func (l *Lexer) longestMatch(terms []*grammar.Terminal) (*grammar.Terminal, int) {
	var best *grammar.Terminal
	bestSize := 0
	rest := l.source[l.current:]

	for _, t := range terms {
		size := 0
		for _, lit := range t.Literals {
			size = max(size, matchLiteral(rest, lit))
		}
		for _, re := range t.Patterns {
			if loc := re.FindStringIndex(rest); loc != nil {
				size = max(size, loc[1])
			}
		}
		if size == 0 {
			continue
		}
		if size > bestSize || (size == bestSize && t.IsLiteral() && !best.IsLiteral()) {
			best, bestSize = t, size
		}
	}
	return best, bestSize
}

// matchLiteral reports how many bytes of s the literal matches, or 0.
// Words compare case-insensitively, any run of whitespace separates the
// words of a multi-word literal, and a literal ending in a letter or digit
// may not stop in the middle of a word.
func matchLiteral(s, lit string) int {
	pos := 0
	for i, word := range strings.Fields(lit) {
		if i > 0 {
			ws := 0
			for pos+ws < len(s) {
				r, n := utf8.DecodeRuneInString(s[pos+ws:])
				if !unicode.IsSpace(r) {
					break
				}
				ws += n
			}
			if ws == 0 {
				return 0
			}
			pos += ws
		}
		if len(s)-pos < len(word) || !strings.EqualFold(s[pos:pos+len(word)], word) {
			return 0
		}
		pos += len(word)
	}

	last, _ := utf8.DecodeLastRuneInString(lit)
	if pos < len(s) && isWordRune(last) {
		if next, _ := utf8.DecodeRuneInString(s[pos:]); isWordRune(next) {
			return 0
		}
	}
	return pos
}

// unknownWord builds the error for text no terminal matches, suggesting the
// closest vocabulary word when one is near enough. The reported word runs to
// the next non-word rune; a stray non-word rune is reported on its own.
func (l *Lexer) unknownWord() error {
	rest := l.source[l.current:]
	end := strings.IndexFunc(rest, func(r rune) bool { return !isWordRune(r) })
	switch {
	case end < 0:
		end = len(rest)
	case end == 0:
		_, end = utf8.DecodeRuneInString(rest)
	}
	word := rest[:end]

	err := cerr.NewSyntaxError(l.source, l.current, cerr.CodeUnknownWord, word)
	err.Suggestion = cerr.Suggest(word, l.grammar.Words())
	return err
}

// ── Scanning helpers ──

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

// advance moves forward size bytes, keeping the rune column in step.
func (l *Lexer) advance(size int) {
	l.column += utf8.RuneCountInString(l.source[l.current : l.current+size])
	l.current += size
}

// emit adds a token at the current position to the output stream.
func (l *Lexer) emit(tokenType TokenType, literal string) {
	l.tokens = append(l.tokens, Token{
		Type:    tokenType,
		Literal: literal,
		Offset:  l.current,
		Column:  l.column,
	})
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
