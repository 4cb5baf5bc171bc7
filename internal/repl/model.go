package repl

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/barun-bash/coursebot/internal/cli"
	"github.com/barun-bash/coursebot/internal/parser"
	"github.com/barun-bash/coursebot/internal/samples"
)

// Model is the bubbletea model of the parse console.
type Model struct {
	parser   *parser.Parser
	history  *History
	input    textinput.Model
	viewport viewport.Model
	commands map[string]*Command
	aliases  map[string]string
	order    []string
	lines    []string // scrollback
	bracket  bool
	ready    bool
	quitting bool
}

// NewModel creates a console model for p.
func NewModel(p *parser.Parser, h *History) *Model {
	if h == nil {
		h = NewHistoryWithPath("")
	}
	ti := textinput.New()
	ti.Placeholder = "message students with no submissions for lab"
	ti.Prompt = "coursebot> "
	ti.PromptStyle = cli.Style(cli.RolePrompt)
	ti.CharLimit = 1024
	ti.Width = 80
	ti.Focus()

	m := &Model{
		parser:   p,
		history:  h,
		input:    ti,
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}
	m.registerCommands()
	m.lines = append(m.lines, cli.Muted("Type a sentence to parse it. /help lists commands."))
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			line := m.input.Value()
			m.input.Reset()
			m.submit(line)
			if m.quitting {
				return m, tea.Quit
			}
			return m, nil

		case tea.KeyUp:
			if e, ok := m.history.Prev(); ok {
				m.input.SetValue(e)
				m.input.CursorEnd()
			}
			return m, nil

		case tea.KeyDown:
			e, _ := m.history.Next()
			m.input.SetValue(e)
			m.input.CursorEnd()
			return m, nil

		case tea.KeyTab:
			m.input.SetValue(m.Complete(m.input.Value()))
			m.input.CursorEnd()
			return m, nil
		}

	case tea.WindowSizeMsg:
		height := max(msg.Height-3, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 10)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return strings.Join(m.lines, "\n") + "\n"
	}
	body := strings.Join(m.lines, "\n")
	if m.ready {
		body = m.viewport.View()
	}
	return body + "\n\n" + m.input.View()
}

// submit echoes line into the scrollback followed by its evaluation.
func (m *Model) submit(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	m.lines = append(m.lines, cli.Style(cli.RolePrompt).Render(m.input.Prompt)+line)
	if out := m.Eval(line); out != "" {
		m.lines = append(m.lines, out)
	}
	m.refresh()
}

// Eval runs a command or parses a sentence and returns the text to show.
func (m *Model) Eval(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "/") {
		fields := strings.Fields(line)
		cmd := m.lookup(fields[0])
		if cmd == nil {
			return cli.Error("unknown command " + fields[0] + ", try /help")
		}
		return cmd.Handler(m, fields[1:])
	}

	m.history.Add(line)
	res, err := m.parser.Parse(line)
	if err != nil {
		if se, ok := parser.AsSyntaxError(err); ok {
			return strings.TrimSuffix(cli.SyntaxError(se), "\n")
		}
		return cli.Error(err.Error())
	}
	return strings.TrimSuffix(cli.Result(res, m.bracket), "\n")
}

// Complete extends the last word of line. Words complete against the
// grammar vocabulary and a leading "/" word against command names. When no
// word completes further, the whole line completes against the sample
// sentences. Several candidates complete to their common prefix; a single
// word candidate also gets a trailing space.
func (m *Model) Complete(line string) string {
	start := strings.LastIndexByte(line, ' ') + 1
	word := line[start:]

	if start == 0 && strings.HasPrefix(word, "/") {
		pool := slices.Clone(m.order)
		for alias := range m.aliases {
			pool = append(pool, alias)
		}
		return line[:start] + extend(word, pool, " ")
	}

	if word != "" {
		if w := extend(word, m.parser.Grammar().Words(), " "); w != word {
			return line[:start] + w
		}
	}

	var sentences []string
	for _, s := range samples.Autocomplete(line) {
		sentences = append(sentences, s.Sentence)
	}
	return extend(line, sentences, "")
}

// extend completes prefix against pool, case-insensitively. It returns
// prefix unchanged when no candidate makes progress.
func extend(prefix string, pool []string, sep string) string {
	lower := strings.ToLower(prefix)
	var matches []string
	for _, w := range pool {
		if strings.HasPrefix(strings.ToLower(w), lower) {
			matches = append(matches, w)
		}
	}
	switch len(matches) {
	case 0:
		return prefix
	case 1:
		return matches[0] + sep
	}
	common := matches[0]
	for _, w := range matches[1:] {
		for !strings.HasPrefix(w, common) {
			common = common[:len(common)-1]
		}
	}
	if len(common) <= len(prefix) {
		return prefix
	}
	return common
}

func (m *Model) format() string {
	if m.bracket {
		return "bracket"
	}
	return "pretty"
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}
