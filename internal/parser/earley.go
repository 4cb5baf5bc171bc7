package parser

import (
	"sort"

	cerr "github.com/barun-bash/coursebot/internal/errors"
	"github.com/barun-bash/coursebot/internal/grammar"
	"github.com/barun-bash/coursebot/internal/lexer"
)

// item is an Earley item: a production with a dot position and the chart
// position the production started at.
type item struct {
	prod   *grammar.Production
	dot    int
	origin int
}

func (it item) complete() bool {
	return it.dot >= len(it.prod.RHS)
}

func (it item) next() grammar.Symbol {
	return it.prod.RHS[it.dot]
}

func (it item) advance() item {
	return item{prod: it.prod, dot: it.dot + 1, origin: it.origin}
}

type itemKey struct {
	prod, dot, origin int
}

// itemSet is the set of Earley items at one chart position.
type itemSet struct {
	items []item
	seen  map[itemKey]bool
}

func (s *itemSet) add(it item) {
	key := itemKey{it.prod.ID, it.dot, it.origin}
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.items = append(s.items, it)
}

// span identifies a completed production over tokens [start, end).
type span struct {
	prod, start, end int
}

// chart is the result of Earley recognition over one token sequence.
type chart struct {
	g      *grammar.Grammar
	tokens []lexer.Token // without the trailing EOF
	sets   []*itemSet
	done   map[span]bool
}

// recognize runs predict/scan/complete over the tokens and records every
// completed production span. Nullable non-terminals are advanced over at
// prediction time so completions at the same position are never missed.
func recognize(g *grammar.Grammar, tokens []lexer.Token) *chart {
	n := len(tokens)
	c := &chart{
		g:      g,
		tokens: tokens,
		sets:   make([]*itemSet, n+1),
		done:   make(map[span]bool),
	}
	for i := range c.sets {
		c.sets[i] = &itemSet{seen: make(map[itemKey]bool)}
	}

	for _, p := range g.Alternatives(g.Start()) {
		c.sets[0].add(item{prod: p})
	}

	for i := 0; i <= n; i++ {
		set := c.sets[i]
		for j := 0; j < len(set.items); j++ {
			it := set.items[j]
			switch {
			case it.complete():
				c.complete(i, it)
			case it.next().Terminal:
				if i < n && string(tokens[i].Type) == it.next().Name {
					c.sets[i+1].add(it.advance())
				}
			default:
				c.predict(i, it)
			}
		}
	}
	return c
}

func (c *chart) predict(i int, it item) {
	rule := it.next().Name
	for _, p := range c.g.Alternatives(rule) {
		c.sets[i].add(item{prod: p, origin: i})
	}
	if c.g.Nullable(rule) {
		c.sets[i].add(it.advance())
	}
}

func (c *chart) complete(i int, done item) {
	c.done[span{done.prod.ID, done.origin, i}] = true
	rule := done.prod.Rule
	waiting := c.sets[done.origin].items
	for _, it := range waiting {
		if !it.complete() && !it.next().Terminal && it.next().Name == rule {
			c.sets[i].add(it.advance())
		}
	}
}

// accepted reports whether the start symbol spans every token.
func (c *chart) accepted() bool {
	n := len(c.tokens)
	for _, p := range c.g.Alternatives(c.g.Start()) {
		if c.done[span{p.ID, 0, n}] {
			return true
		}
	}
	return false
}

// syntaxError describes why recognition failed: the furthest chart position
// reached tells which token could not be consumed and what was expected
// there instead.
func (c *chart) syntaxError(input string) *cerr.SyntaxError {
	n := len(c.tokens)
	if n == 0 {
		return cerr.NewSyntaxError(input, 0, cerr.CodeEmptyInput, "")
	}

	furthest := 0
	for i := n; i >= 0; i-- {
		if len(c.sets[i].items) > 0 {
			furthest = i
			break
		}
	}

	var err *cerr.SyntaxError
	if furthest < n {
		tok := c.tokens[furthest]
		err = cerr.NewSyntaxError(input, tok.Offset, cerr.CodeUnexpected, tok.Literal)
	} else {
		err = cerr.NewSyntaxError(input, len(input), cerr.CodeUnexpectedEnd, "")
	}
	err.Expected = c.expected(furthest)
	return err
}

// expected lists the terminals some item at position i is waiting for.
func (c *chart) expected(i int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range c.sets[i].items {
		if it.complete() || !it.next().Terminal {
			continue
		}
		name := it.next().Name
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
