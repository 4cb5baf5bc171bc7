package grammar

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	cerr "github.com/barun-bash/coursebot/internal/errors"
)

// Diagnostic codes for grammar descriptions.
const (
	CodeDescription = "E300"
	CodeUndefined   = "E301"
	CodeDuplicate   = "E302"
	CodeUnsupported = "E303"
	CodeTerminalDef = "E304"
	CodePattern     = "E305"
	CodeNoStart     = "E306"
	CodeTooLarge    = "E307"
	CodeUnreachable = "W301"
)

// maxAlternatives bounds how many productions one rule may expand into.
const maxAlternatives = 4096

// commonTerminals are the definitions available through "%import common.X".
// WS matches the same characters as unicode.IsSpace.
var commonTerminals = map[string]string{
	"WS":        `[\t\n\v\f\r\x{85}\p{Z}]+`,
	"WS_INLINE": `[\t\p{Zs}]+`,
	"NEWLINE":   `(\r?\n)+`,
	"INT":       `[0-9]+`,
	"DIGIT":     `[0-9]`,
	"LETTER":    `[A-Za-z]`,
	"WORD":      `[A-Za-z]+`,
}

// LoadFile reads and builds a grammar from a description file.
func LoadFile(path, start string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grammar: %w", err)
	}
	return Parse(filepath.Base(path), string(data), start)
}

// Parse builds a grammar from a description. name is used in diagnostics;
// start names the start rule. Every problem found is reported together in a
// single *errors.DiagnosticsError.
func Parse(name, src, start string) (*Grammar, error) {
	b := &builder{
		diags: cerr.New(name),
		g: &Grammar{
			name:      name,
			start:     start,
			byRule:    make(map[string][]*Production),
			terminals: make(map[string]*Terminal),
			ignore:    make(map[string]bool),
		},
		seenProd: make(map[string]bool),
	}

	defs, directives := b.split(src)
	b.directives(directives)

	var rules []*definition
	for _, d := range defs {
		if isTerminalName(d.name) {
			b.terminalDef(d)
		} else {
			rules = append(rules, d)
		}
	}
	for _, d := range rules {
		if _, dup := b.g.byRule[d.name]; dup {
			b.diags.AddError(d.line, CodeDuplicate, fmt.Sprintf("rule %q is defined more than once", d.name))
			continue
		}
		b.g.byRule[d.name] = nil
		b.g.ruleOrder = append(b.g.ruleOrder, d.name)
	}
	for _, d := range rules {
		b.ruleDef(d)
	}

	b.validate()
	if err := b.diags.Err(); err != nil {
		return nil, err
	}
	b.g.computeNullable()
	b.g.warnings = b.diags.Warnings()
	return b.g, nil
}

// ── Description structure ──

type itemKind int

const (
	itemSymbol itemKind = iota
	itemLiteral
	itemPattern
	itemGroup
	itemOptional
)

type item struct {
	kind  itemKind
	text  string        // symbol name, literal text or pattern source
	alts  []alternative // body of a group or optional
	flags string        // pattern flags
}

type alternative struct {
	items []item
	alias string
}

type definition struct {
	name string
	line int
	body string
	alts []alternative
}

type directive struct {
	line int
	text string
}

type builder struct {
	g        *Grammar
	diags    *cerr.Diagnostics
	seenProd map[string]bool
}

// split turns the description into definitions and directives, joining
// continuation lines that start with "|".
func (b *builder) split(src string) ([]*definition, []directive) {
	var defs []*definition
	var dirs []directive

	for i, raw := range strings.Split(src, "\n") {
		line := i + 1
		text := strings.TrimSpace(stripComment(raw))
		switch {
		case text == "":
			continue
		case strings.HasPrefix(text, "|"):
			if len(defs) == 0 {
				b.diags.AddError(line, CodeDescription, "continuation line without a definition")
				continue
			}
			defs[len(defs)-1].body += " " + text
		case strings.HasPrefix(text, "%"):
			dirs = append(dirs, directive{line: line, text: text})
		default:
			colon := strings.Index(text, ":")
			if colon <= 0 {
				b.diags.AddError(line, CodeDescription, fmt.Sprintf("expected \"name: ...\", got %q", text))
				continue
			}
			name := strings.TrimSpace(text[:colon])
			if strings.HasPrefix(name, "?") || strings.HasPrefix(name, "!") {
				b.diags.AddWarning(line, CodeUnsupported, fmt.Sprintf("modifier %q on %s is ignored", name[:1], name[1:]))
				name = name[1:]
			}
			if !isIdent(name) {
				b.diags.AddError(line, CodeUnsupported, fmt.Sprintf("unsupported definition name %q", name))
				continue
			}
			defs = append(defs, &definition{name: name, line: line, body: text[colon+1:]})
		}
	}

	for _, d := range defs {
		alts, err := parseBody(d.body)
		if err != nil {
			b.diags.AddError(d.line, CodeDescription, fmt.Sprintf("%s: %v", d.name, err))
			continue
		}
		d.alts = alts
	}
	return defs, dirs
}

func (b *builder) directives(dirs []directive) {
	// Imports first so %ignore can name an imported terminal on any line.
	var ignores []directive
	for _, d := range dirs {
		fields := strings.Fields(d.text)
		switch fields[0] {
		case "%import":
			if len(fields) != 2 || !strings.HasPrefix(fields[1], "common.") {
				b.diags.AddError(d.line, CodeUnsupported, fmt.Sprintf("unsupported import %q", d.text))
				continue
			}
			name := strings.TrimPrefix(fields[1], "common.")
			src, ok := commonTerminals[name]
			if !ok {
				b.diags.AddError(d.line, CodeUnsupported, fmt.Sprintf("unknown common terminal %q", name))
				continue
			}
			re, _ := compilePattern(src, "")
			b.addTerminal(d.line, &Terminal{Name: name, Patterns: []*regexp.Regexp{re}})
		case "%ignore":
			ignores = append(ignores, d)
		default:
			b.diags.AddError(d.line, CodeUnsupported, fmt.Sprintf("unsupported directive %q", fields[0]))
		}
	}
	for _, d := range ignores {
		fields := strings.Fields(d.text)
		if len(fields) != 2 || !isTerminalName(fields[1]) {
			b.diags.AddError(d.line, CodeUnsupported, fmt.Sprintf("%%ignore expects a terminal name, got %q", d.text))
			continue
		}
		b.g.ignore[fields[1]] = true
	}
}

func (b *builder) addTerminal(line int, t *Terminal) {
	if _, dup := b.g.terminals[t.Name]; dup {
		b.diags.AddError(line, CodeDuplicate, fmt.Sprintf("terminal %q is defined more than once", t.Name))
		return
	}
	t.Order = len(b.g.termOrder)
	b.g.terminals[t.Name] = t
	b.g.termOrder = append(b.g.termOrder, t.Name)
}

func (b *builder) terminalDef(d *definition) {
	t := &Terminal{Name: d.name}
	for _, alt := range d.alts {
		if alt.alias != "" || len(alt.items) != 1 {
			b.diags.AddError(d.line, CodeTerminalDef,
				fmt.Sprintf("terminal %s: each alternative must be a single literal or pattern", d.name))
			return
		}
		it := alt.items[0]
		switch it.kind {
		case itemLiteral:
			if it.text == "" {
				b.diags.AddError(d.line, CodeTerminalDef, fmt.Sprintf("terminal %s: empty literal", d.name))
				return
			}
			t.Literals = append(t.Literals, it.text)
		case itemPattern:
			re, err := compilePattern(it.text, it.flags)
			if err != nil {
				b.diags.AddError(d.line, CodePattern, fmt.Sprintf("terminal %s: %v", d.name, err))
				return
			}
			t.Patterns = append(t.Patterns, re)
		default:
			b.diags.AddError(d.line, CodeTerminalDef,
				fmt.Sprintf("terminal %s: each alternative must be a single literal or pattern", d.name))
			return
		}
	}
	b.addTerminal(d.line, t)
}

func (b *builder) ruleDef(d *definition) {
	var count int
	for _, alt := range d.alts {
		seqs, err := b.expand(d, alt.items)
		if err != nil {
			b.diags.AddError(d.line, CodeTooLarge, fmt.Sprintf("rule %s: %v", d.name, err))
			return
		}
		for _, seq := range seqs {
			count++
			if count > maxAlternatives {
				b.diags.AddError(d.line, CodeTooLarge,
					fmt.Sprintf("rule %s expands to more than %d alternatives", d.name, maxAlternatives))
				return
			}
			b.addProduction(&Production{Rule: d.name, Alias: alt.alias, RHS: seq, Line: d.line})
		}
	}
}

func (b *builder) addProduction(p *Production) {
	key := p.String()
	if b.seenProd[key] {
		return
	}
	b.seenProd[key] = true
	p.ID = len(b.g.productions)
	b.g.productions = append(b.g.productions, p)
	b.g.byRule[p.Rule] = append(b.g.byRule[p.Rule], p)
}

// expand turns a sequence of items into every plain symbol sequence it
// stands for: optional items double the alternatives, groups multiply them.
func (b *builder) expand(d *definition, items []item) ([][]Symbol, error) {
	seqs := [][]Symbol{{}}
	for _, it := range items {
		var choices [][]Symbol
		switch it.kind {
		case itemSymbol:
			choices = [][]Symbol{{{Name: it.text, Terminal: isTerminalName(it.text)}}}
		case itemLiteral:
			choices = [][]Symbol{{b.anonymousLiteral(it.text)}}
		case itemPattern:
			sym, err := b.anonymousPattern(it.text, it.flags)
			if err != nil {
				return nil, err
			}
			choices = [][]Symbol{{sym}}
		case itemGroup, itemOptional:
			for _, alt := range it.alts {
				if alt.alias != "" {
					b.diags.AddWarning(d.line, CodeUnsupported,
						fmt.Sprintf("rule %s: alias %q inside a group is ignored", d.name, alt.alias))
				}
				inner, err := b.expand(d, alt.items)
				if err != nil {
					return nil, err
				}
				choices = append(choices, inner...)
			}
			if it.kind == itemOptional {
				choices = append(choices, []Symbol{})
			}
		}

		next := make([][]Symbol, 0, len(seqs)*len(choices))
		for _, s := range seqs {
			for _, c := range choices {
				seq := make([]Symbol, 0, len(s)+len(c))
				seq = append(seq, s...)
				seq = append(seq, c...)
				next = append(next, seq)
			}
		}
		if len(next) > maxAlternatives {
			return nil, fmt.Errorf("expands to more than %d alternatives", maxAlternatives)
		}
		seqs = next
	}
	return seqs, nil
}

// anonymousLiteral resolves an inline "literal". A named terminal defined by
// exactly that one literal is reused; otherwise an anonymous terminal named
// after the quoted literal is introduced.
func (b *builder) anonymousLiteral(lit string) Symbol {
	for _, name := range b.g.termOrder {
		t := b.g.terminals[name]
		if !t.Anonymous && len(t.Patterns) == 0 && len(t.Literals) == 1 && strings.EqualFold(t.Literals[0], lit) {
			return Symbol{Name: name, Terminal: true}
		}
	}
	name := strconv.Quote(lit)
	if _, ok := b.g.terminals[name]; !ok {
		b.addTerminal(0, &Terminal{Name: name, Literals: []string{lit}, Anonymous: true})
	}
	return Symbol{Name: name, Terminal: true}
}

func (b *builder) anonymousPattern(src, flags string) (Symbol, error) {
	name := "/" + src + "/" + flags
	if _, ok := b.g.terminals[name]; !ok {
		re, err := compilePattern(src, flags)
		if err != nil {
			return Symbol{}, err
		}
		b.addTerminal(0, &Terminal{Name: name, Patterns: []*regexp.Regexp{re}, Anonymous: true})
	}
	return Symbol{Name: name, Terminal: true}, nil
}

func (b *builder) validate() {
	g := b.g

	var termNames []string
	for _, name := range g.termOrder {
		if !g.terminals[name].Anonymous {
			termNames = append(termNames, name)
		}
	}

	reported := make(map[string]bool)
	for _, p := range g.productions {
		for _, s := range p.RHS {
			if reported[s.Name] {
				continue
			}
			if s.Terminal && g.terminals[s.Name] == nil {
				reported[s.Name] = true
				b.undefined(p.Line, "terminal", s.Name, termNames)
			}
			if !s.Terminal && !g.HasRule(s.Name) {
				reported[s.Name] = true
				b.undefined(p.Line, "rule", s.Name, g.ruleOrder)
			}
		}
	}
	for name := range g.ignore {
		if g.terminals[name] == nil && !reported[name] {
			b.undefined(0, "terminal", name, termNames)
		}
	}

	if !g.HasRule(g.start) {
		if s := cerr.Suggest(g.start, g.ruleOrder); s != "" {
			b.diags.AddErrorWithSuggestion(0, CodeNoStart, fmt.Sprintf("start rule %q is not defined", g.start),
				fmt.Sprintf("did you mean %q?", s))
		} else {
			b.diags.AddError(0, CodeNoStart, fmt.Sprintf("start rule %q is not defined", g.start))
		}
		return
	}

	reachable := map[string]bool{g.start: true}
	queue := []string{g.start}
	for len(queue) > 0 {
		rule := queue[0]
		queue = queue[1:]
		for _, p := range g.byRule[rule] {
			for _, s := range p.RHS {
				if !s.Terminal && !reachable[s.Name] {
					reachable[s.Name] = true
					queue = append(queue, s.Name)
				}
			}
		}
	}
	for _, rule := range g.ruleOrder {
		if !reachable[rule] {
			line := 0
			if alts := g.byRule[rule]; len(alts) > 0 {
				line = alts[0].Line
			}
			b.diags.AddWarning(line, CodeUnreachable, fmt.Sprintf("rule %q is not reachable from %q", rule, g.start))
		}
	}
}

func (b *builder) undefined(line int, kind, name string, candidates []string) {
	msg := fmt.Sprintf("undefined %s %q", kind, name)
	if s := cerr.Suggest(name, candidates); s != "" {
		b.diags.AddErrorWithSuggestion(line, CodeUndefined, msg, fmt.Sprintf("did you mean %q?", s))
		return
	}
	b.diags.AddError(line, CodeUndefined, msg)
}

// ── Body scanner and parser ──

type tokKind int

const (
	tEOF tokKind = iota
	tName
	tString
	tRegex
	tPipe
	tArrow
	tLParen
	tRParen
	tLBrack
	tRBrack
	tQuestion
	tRepeat // * or +, recognized only to reject it
)

type descToken struct {
	kind  tokKind
	text  string
	flags string
}

func scanBody(body string) ([]descToken, error) {
	var toks []descToken
	rs := []rune(body)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '|':
			toks = append(toks, descToken{kind: tPipe})
			i++
		case r == '(':
			toks = append(toks, descToken{kind: tLParen})
			i++
		case r == ')':
			toks = append(toks, descToken{kind: tRParen})
			i++
		case r == '[':
			toks = append(toks, descToken{kind: tLBrack})
			i++
		case r == ']':
			toks = append(toks, descToken{kind: tRBrack})
			i++
		case r == '?':
			toks = append(toks, descToken{kind: tQuestion})
			i++
		case r == '*' || r == '+':
			toks = append(toks, descToken{kind: tRepeat, text: string(r)})
			i++
		case r == '-' && i+1 < len(rs) && rs[i+1] == '>':
			toks = append(toks, descToken{kind: tArrow})
			i += 2
		case r == '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				if rs[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("unterminated string")
			}
			lit, err := strconv.Unquote(string(rs[i : j+1]))
			if err != nil {
				return nil, fmt.Errorf("bad string %s: %w", string(rs[i:j+1]), err)
			}
			toks = append(toks, descToken{kind: tString, text: lit})
			i = j + 1
		case r == '/':
			var src strings.Builder
			j := i + 1
			for j < len(rs) && rs[j] != '/' {
				if rs[j] == '\\' && j+1 < len(rs) {
					if rs[j+1] == '/' {
						src.WriteRune('/')
					} else {
						src.WriteRune(rs[j])
						src.WriteRune(rs[j+1])
					}
					j += 2
					continue
				}
				src.WriteRune(rs[j])
				j++
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("unterminated pattern")
			}
			j++
			k := j
			for k < len(rs) && unicode.IsLetter(rs[k]) {
				k++
			}
			toks = append(toks, descToken{kind: tRegex, text: src.String(), flags: string(rs[j:k])})
			i = k
		case isIdentRune(r, true):
			j := i + 1
			for j < len(rs) && isIdentRune(rs[j], false) {
				j++
			}
			toks = append(toks, descToken{kind: tName, text: string(rs[i:j])})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", r)
		}
	}
	return append(toks, descToken{kind: tEOF}), nil
}

type bodyParser struct {
	toks []descToken
	pos  int
}

func parseBody(body string) ([]alternative, error) {
	toks, err := scanBody(body)
	if err != nil {
		return nil, err
	}
	p := &bodyParser{toks: toks}
	alts, err := p.expansions()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tEOF {
		return nil, fmt.Errorf("unexpected %s", p.peek().describe())
	}
	return alts, nil
}

func (p *bodyParser) peek() descToken { return p.toks[p.pos] }

func (p *bodyParser) next() descToken {
	t := p.toks[p.pos]
	if t.kind != tEOF {
		p.pos++
	}
	return t
}

func (p *bodyParser) expansions() ([]alternative, error) {
	var alts []alternative
	for {
		alt, err := p.alternative()
		if err != nil {
			return nil, err
		}
		alts = append(alts, alt)
		if p.peek().kind != tPipe {
			return alts, nil
		}
		p.next()
	}
}

func (p *bodyParser) alternative() (alternative, error) {
	var alt alternative
	for {
		switch p.peek().kind {
		case tPipe, tRParen, tRBrack, tEOF:
			return alt, nil
		case tArrow:
			p.next()
			name := p.next()
			if name.kind != tName {
				return alt, fmt.Errorf("expected alias name after ->")
			}
			alt.alias = name.text
			return alt, nil
		}
		it, err := p.item()
		if err != nil {
			return alt, err
		}
		alt.items = append(alt.items, it)
	}
}

func (p *bodyParser) item() (item, error) {
	var it item
	t := p.next()
	switch t.kind {
	case tName:
		it = item{kind: itemSymbol, text: t.text}
	case tString:
		it = item{kind: itemLiteral, text: t.text}
	case tRegex:
		it = item{kind: itemPattern, text: t.text, flags: t.flags}
	case tLParen, tLBrack:
		closer := tRParen
		kind := itemGroup
		if t.kind == tLBrack {
			closer, kind = tRBrack, itemOptional
		}
		alts, err := p.expansions()
		if err != nil {
			return it, err
		}
		if p.next().kind != closer {
			return it, fmt.Errorf("unbalanced brackets")
		}
		it = item{kind: kind, alts: alts}
	default:
		return it, fmt.Errorf("unexpected %s", t.describe())
	}

	switch p.peek().kind {
	case tQuestion:
		p.next()
		if it.kind == itemGroup {
			it.kind = itemOptional
		} else if it.kind != itemOptional {
			it = item{kind: itemOptional, alts: []alternative{{items: []item{it}}}}
		}
	case tRepeat:
		return it, fmt.Errorf("repetition %q is not supported", p.peek().text)
	}
	return it, nil
}

func (t descToken) describe() string {
	switch t.kind {
	case tEOF:
		return "end of definition"
	case tName:
		return fmt.Sprintf("name %q", t.text)
	case tString:
		return fmt.Sprintf("string %q", t.text)
	case tRegex:
		return fmt.Sprintf("pattern /%s/", t.text)
	case tPipe:
		return `"|"`
	case tArrow:
		return `"->"`
	case tRParen:
		return `")"`
	case tRBrack:
		return `"]"`
	default:
		return "token"
	}
}

// ── Helpers ──

// compilePattern anchors a pattern at the match position and switches it to
// leftmost-longest semantics.
func compilePattern(src, flags string) (*regexp.Regexp, error) {
	prefix := ""
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			prefix += string(f)
		default:
			return nil, fmt.Errorf("unsupported pattern flag %q", f)
		}
	}
	if prefix != "" {
		prefix = "(?" + prefix + ")"
	}
	re, err := regexp.Compile("^(?:" + prefix + src + ")")
	if err != nil {
		return nil, fmt.Errorf("bad pattern /%s/: %w", src, err)
	}
	re.Longest()
	if re.MatchString("") {
		return nil, fmt.Errorf("pattern /%s/ matches the empty string", src)
	}
	return re, nil
}

// stripComment removes a trailing // comment, ignoring slashes inside
// strings and patterns.
func stripComment(line string) string {
	inString, inPattern := false, false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case inPattern:
			if c == '\\' {
				i++
			} else if c == '/' {
				inPattern = false
			}
		case c == '"':
			inString = true
		case c == '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return line[:i]
			}
			inPattern = true
		}
	}
	return line
}

func isTerminalName(name string) bool {
	hasLetter := false
	for _, r := range name {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func isIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if !isIdentRune(r, i == 0) {
			return false
		}
	}
	return true
}

func isIdentRune(r rune, first bool) bool {
	if r == '_' || unicode.IsLetter(r) {
		return true
	}
	return !first && unicode.IsDigit(r)
}
