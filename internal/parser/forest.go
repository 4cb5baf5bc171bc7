package parser

import (
	"sort"

	"github.com/barun-bash/coursebot/internal/grammar"
)

type ruleSpan struct {
	rule       string
	start, end int
}

// forest enumerates parse trees from the completed spans of a chart.
//
// A rule may not re-derive itself over the same span within one path; such
// a re-entry is cut and contributes no trees. Results computed while a cut
// happened depend on the path that led to them and are not memoized.
type forest struct {
	c      *chart
	spans  map[ruleSpan]bool
	memo   map[ruleSpan][]*Node
	active map[ruleSpan]bool
	cuts   int
}

func newForest(c *chart) *forest {
	f := &forest{
		c:      c,
		spans:  make(map[ruleSpan]bool, len(c.done)),
		memo:   make(map[ruleSpan][]*Node),
		active: make(map[ruleSpan]bool),
	}
	prods := c.g.Productions()
	for s := range c.done {
		f.spans[ruleSpan{prods[s.prod].Rule, s.start, s.end}] = true
	}
	return f
}

// roots returns every distinct tree of the start rule spanning all tokens,
// sorted by bracket rendering.
func (f *forest) roots() []*Node {
	all := f.trees(f.c.g.Start(), 0, len(f.c.tokens))

	seen := make(map[string]bool, len(all))
	keys := make(map[*Node]string, len(all))
	var out []*Node
	for _, t := range all {
		key := t.Bracket()
		if seen[key] {
			continue
		}
		seen[key] = true
		keys[t] = key
		out = append(out, t)
	}
	sort.Slice(out, func(a, b int) bool { return keys[out[a]] < keys[out[b]] })
	return out
}

// trees returns every tree of rule over tokens [i, j).
func (f *forest) trees(rule string, i, j int) []*Node {
	key := ruleSpan{rule, i, j}
	if ts, ok := f.memo[key]; ok {
		return ts
	}
	if f.active[key] {
		f.cuts++
		return nil
	}

	f.active[key] = true
	before := f.cuts

	var out []*Node
	for _, p := range f.c.g.Alternatives(rule) {
		if !f.c.done[span{p.ID, i, j}] {
			continue
		}
		for _, children := range f.sequences(p.RHS, i, j) {
			out = append(out, &Node{Label: p.Label(), Children: children})
		}
	}

	delete(f.active, key)
	if f.cuts == before {
		f.memo[key] = out
	}
	return out
}

// sequences returns every way rhs derives tokens [pos, j) as a list of
// child nodes, one per symbol.
func (f *forest) sequences(rhs []grammar.Symbol, pos, j int) [][]*Node {
	if len(rhs) == 0 {
		if pos == j {
			return [][]*Node{nil}
		}
		return nil
	}

	sym, rest := rhs[0], rhs[1:]
	if sym.Terminal {
		if pos >= j || string(f.c.tokens[pos].Type) != sym.Name {
			return nil
		}
		leaf := &Node{Label: sym.Name, Token: &f.c.tokens[pos]}
		var out [][]*Node
		for _, tail := range f.sequences(rest, pos+1, j) {
			out = append(out, prepend(leaf, tail))
		}
		return out
	}

	var out [][]*Node
	for end := pos; end <= j; end++ {
		if !f.spans[ruleSpan{sym.Name, pos, end}] {
			continue
		}
		tails := f.sequences(rest, end, j)
		if len(tails) == 0 {
			continue
		}
		for _, head := range f.trees(sym.Name, pos, end) {
			for _, tail := range tails {
				out = append(out, prepend(head, tail))
			}
		}
	}
	return out
}

func prepend(n *Node, tail []*Node) []*Node {
	out := make([]*Node, 0, len(tail)+1)
	out = append(out, n)
	return append(out, tail...)
}
