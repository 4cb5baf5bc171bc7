// Package grammar holds the data-driven rule table the command parser runs
// on: productions keyed by non-terminal, plus the terminal definitions the
// lexer matches against. A Grammar is immutable once built and may be shared
// between goroutines.
package grammar

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	cerr "github.com/barun-bash/coursebot/internal/errors"
)

// Symbol is a reference to a terminal or non-terminal on the right-hand side
// of a production.
type Symbol struct {
	Name     string
	Terminal bool
}

func (s Symbol) String() string {
	return s.Name
}

// Production is one alternative of a rule after optional items and groups
// have been expanded away.
type Production struct {
	ID    int      // index into Grammar.Productions()
	Rule  string   // left-hand side non-terminal
	Alias string   // tree label override from "-> alias"
	RHS   []Symbol // empty for an epsilon production
	Line  int      // line in the grammar description
}

// Label returns the name a tree node built from this production carries.
func (p *Production) Label() string {
	if p.Alias != "" {
		return p.Alias
	}
	return p.Rule
}

func (p *Production) String() string {
	parts := make([]string, len(p.RHS))
	for i, s := range p.RHS {
		parts[i] = s.Name
	}
	rhs := strings.Join(parts, " ")
	if rhs == "" {
		rhs = "ε"
	}
	if p.Alias != "" {
		return fmt.Sprintf("%s: %s -> %s", p.Rule, rhs, p.Alias)
	}
	return fmt.Sprintf("%s: %s", p.Rule, rhs)
}

// Terminal is a token category matched directly against input text, either
// by fixed literals or by regular expressions.
type Terminal struct {
	Name      string
	Literals  []string         // fixed words, matched case-insensitively
	Patterns  []*regexp.Regexp // anchored, leftmost-longest
	Anonymous bool             // introduced by an inline "literal" in a rule
	Order     int              // declaration order; earlier wins lexer ties
}

// IsLiteral reports whether the terminal is defined by literals only.
func (t *Terminal) IsLiteral() bool {
	return len(t.Patterns) == 0
}

// Grammar is an immutable rule table.
type Grammar struct {
	name        string
	start       string
	productions []*Production
	byRule      map[string][]*Production
	ruleOrder   []string
	terminals   map[string]*Terminal
	termOrder   []string
	ignore      map[string]bool
	nullable    map[string]bool
	warnings    []*cerr.Diagnostic
}

// Name returns the source name the grammar was loaded from.
func (g *Grammar) Name() string { return g.name }

// Start returns the start symbol.
func (g *Grammar) Start() string { return g.start }

// Productions returns every production, indexed by Production.ID.
func (g *Grammar) Productions() []*Production { return g.productions }

// Alternatives returns the productions whose left-hand side is rule.
func (g *Grammar) Alternatives(rule string) []*Production { return g.byRule[rule] }

// Rules returns the non-terminal names in declaration order.
func (g *Grammar) Rules() []string { return g.ruleOrder }

// HasRule reports whether name is a defined non-terminal.
func (g *Grammar) HasRule(name string) bool {
	_, ok := g.byRule[name]
	return ok
}

// Terminal returns the terminal definition for name, or nil.
func (g *Grammar) Terminal(name string) *Terminal { return g.terminals[name] }

// Terminals returns every terminal in declaration order, ignored ones
// included.
func (g *Grammar) Terminals() []*Terminal {
	out := make([]*Terminal, 0, len(g.termOrder))
	for _, name := range g.termOrder {
		out = append(out, g.terminals[name])
	}
	return out
}

// Ignored reports whether matches of the terminal are skipped by the lexer.
func (g *Grammar) Ignored(name string) bool { return g.ignore[name] }

// Warnings returns the non-fatal diagnostics found while loading.
func (g *Grammar) Warnings() []*cerr.Diagnostic { return g.warnings }

// Nullable reports whether the non-terminal can derive the empty string.
func (g *Grammar) Nullable(rule string) bool { return g.nullable[rule] }

// Vocabulary returns every literal the grammar accepts, sorted.
func (g *Grammar) Vocabulary() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range g.Terminals() {
		if g.ignore[t.Name] {
			continue
		}
		for _, lit := range t.Literals {
			key := strings.ToLower(lit)
			if !seen[key] {
				seen[key] = true
				out = append(out, lit)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Words returns the individual words of the vocabulary, sorted. Multi-word
// literals such as "no submissions" contribute each of their words.
func (g *Grammar) Words() []string {
	seen := make(map[string]bool)
	var out []string
	for _, lit := range g.Vocabulary() {
		for _, w := range strings.Fields(lit) {
			key := strings.ToLower(w)
			if !seen[key] {
				seen[key] = true
				out = append(out, w)
			}
		}
	}
	sort.Strings(out)
	return out
}

// String renders the expanded rule table followed by the terminals.
func (g *Grammar) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "start: %s\n\n", g.start)

	for _, rule := range g.ruleOrder {
		fmt.Fprintf(&b, "%s:\n", rule)
		for _, p := range g.byRule[rule] {
			parts := make([]string, len(p.RHS))
			for i, s := range p.RHS {
				parts[i] = s.Name
			}
			line := strings.Join(parts, " ")
			if line == "" {
				line = "ε"
			}
			if p.Alias != "" {
				line += "  -> " + p.Alias
			}
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}

	b.WriteString("\n")
	for _, t := range g.Terminals() {
		if t.Anonymous {
			continue
		}
		var alts []string
		for _, lit := range t.Literals {
			alts = append(alts, fmt.Sprintf("%q", lit))
		}
		for _, re := range t.Patterns {
			alts = append(alts, "/"+strings.ReplaceAll(patternSource(re), "/", `\/`)+"/")
		}
		fmt.Fprintf(&b, "%s: %s\n", t.Name, strings.Join(alts, " | "))
	}

	var ignored []string
	for name := range g.ignore {
		ignored = append(ignored, name)
	}
	sort.Strings(ignored)
	for _, name := range ignored {
		fmt.Fprintf(&b, "%%ignore %s\n", name)
	}
	return b.String()
}

// patternSource strips the anchoring wrapper added at load time.
func patternSource(re *regexp.Regexp) string {
	src := re.String()
	src = strings.TrimPrefix(src, "^(?:")
	src = strings.TrimSuffix(src, ")")
	return src
}

// computeNullable finds every non-terminal that derives the empty string.
func (g *Grammar) computeNullable() {
	g.nullable = make(map[string]bool)
	for changed := true; changed; {
		changed = false
		for _, p := range g.productions {
			if g.nullable[p.Rule] {
				continue
			}
			all := true
			for _, s := range p.RHS {
				if s.Terminal || !g.nullable[s.Name] {
					all = false
					break
				}
			}
			if all {
				g.nullable[p.Rule] = true
				changed = true
			}
		}
	}
}
