// Package parser parses command sentences against a grammar with an Earley
// chart parser. Every derivation of the input is returned, so an ambiguous
// sentence yields a forest instead of an arbitrary pick.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	cerr "github.com/barun-bash/coursebot/internal/errors"
	"github.com/barun-bash/coursebot/internal/grammar"
	"github.com/barun-bash/coursebot/internal/lexer"
)

// ErrTooManyDerivations is returned when an input has more distinct trees
// than the parser was configured to return.
var ErrTooManyDerivations = errors.New("too many derivations")

// Kind classifies a successful parse.
type Kind int

const (
	Unambiguous Kind = iota
	Ambiguous
)

func (k Kind) String() string {
	if k == Ambiguous {
		return "ambiguous"
	}
	return "unambiguous"
}

// Result holds every distinct tree of one input, sorted by bracket form.
// It always holds at least one tree.
type Result struct {
	Input  string
	Tokens []lexer.Token // without the trailing EOF
	Trees  []*Node
}

// Kind reports whether the input had one derivation or several.
func (r *Result) Kind() Kind {
	if len(r.Trees) > 1 {
		return Ambiguous
	}
	return Unambiguous
}

// Unambiguous reports whether the input had exactly one derivation.
func (r *Result) Unambiguous() bool { return len(r.Trees) == 1 }

// Ambiguous reports whether the input had two or more derivations.
func (r *Result) Ambiguous() bool { return len(r.Trees) > 1 }

// Tree returns the first tree of the forest.
func (r *Result) Tree() *Node { return r.Trees[0] }

// Pretty renders the single tree, or every tree of a forest as numbered
// alternatives.
func (r *Result) Pretty() string {
	if r.Unambiguous() {
		return r.Tree().Pretty()
	}
	var b strings.Builder
	for i, t := range r.Trees {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "alternative %d of %d:\n", i+1, len(r.Trees))
		b.WriteString(t.Pretty())
	}
	return b.String()
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger parse calls report to at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(p *Parser) {
		if log != nil {
			p.log = log
		}
	}
}

// WithMaxDerivations limits how many distinct trees a parse may return.
// Zero means no limit.
func WithMaxDerivations(n int) Option {
	return func(p *Parser) { p.maxDerivations = n }
}

// Parser parses sentences against one grammar. It holds no per-call state
// and is safe for concurrent use.
type Parser struct {
	grammar        *grammar.Grammar
	log            *zap.Logger
	maxDerivations int
}

// New creates a Parser for g.
func New(g *grammar.Grammar, opts ...Option) *Parser {
	p := &Parser{grammar: g, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Grammar returns the grammar the parser runs on.
func (p *Parser) Grammar() *grammar.Grammar { return p.grammar }

// Parse tokenizes and parses input. Bad input is reported as a
// *errors.SyntaxError; the returned Result is nil in that case.
func (p *Parser) Parse(input string) (*Result, error) {
	tokens, err := lexer.Tokenize(p.grammar, input)
	if err != nil {
		return nil, err
	}
	tokens = tokens[:len(tokens)-1]

	c := recognize(p.grammar, tokens)
	if !c.accepted() {
		serr := c.syntaxError(input)
		p.log.Debug("no derivation",
			zap.String("input", input),
			zap.Int("tokens", len(tokens)),
			zap.Int("column", serr.Column),
			zap.Strings("expected", serr.Expected),
		)
		return nil, serr
	}

	trees := newForest(c).roots()
	p.log.Debug("parsed",
		zap.String("input", input),
		zap.Int("tokens", len(tokens)),
		zap.Int("derivations", len(trees)),
	)
	if p.maxDerivations > 0 && len(trees) > p.maxDerivations {
		return nil, fmt.Errorf("%w: %d trees, limit %d", ErrTooManyDerivations, len(trees), p.maxDerivations)
	}
	return &Result{Input: input, Tokens: tokens, Trees: trees}, nil
}

// Parse parses input against the built-in command grammar.
func Parse(input string) (*Result, error) {
	return New(grammar.Default()).Parse(input)
}

// AsSyntaxError unwraps err to a *errors.SyntaxError, if it is one.
func AsSyntaxError(err error) (*cerr.SyntaxError, bool) {
	var serr *cerr.SyntaxError
	if errors.As(err, &serr) {
		return serr, true
	}
	return nil, false
}
