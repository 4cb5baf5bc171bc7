package repl

import (
	"fmt"
	"strings"

	"github.com/barun-bash/coursebot/internal/cli"
	"github.com/barun-bash/coursebot/internal/samples"
)

// Command is a console command with metadata and a handler. The handler
// returns the text to print.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Handler     func(m *Model, args []string) string
}

func (m *Model) registerCommands() {
	cmds := []*Command{
		{
			Name:        "/samples",
			Aliases:     []string{"/s"},
			Description: "List sample sentences, or search them",
			Usage:       "/samples [query]",
			Handler:     cmdSamples,
		},
		{
			Name:        "/grammar",
			Aliases:     []string{"/g"},
			Description: "Show the rule table",
			Usage:       "/grammar",
			Handler:     cmdGrammar,
		},
		{
			Name:        "/format",
			Description: "Switch tree output between pretty and bracket",
			Usage:       "/format [pretty|bracket]",
			Handler:     cmdFormat,
		},
		{
			Name:        "/theme",
			Description: "Show or change the color theme",
			Usage:       "/theme [name]",
			Handler:     cmdTheme,
		},
		{
			Name:        "/history",
			Description: "Show entered sentences",
			Usage:       "/history",
			Handler:     cmdHistory,
		},
		{
			Name:        "/clear",
			Description: "Clear the screen",
			Usage:       "/clear",
			Handler:     cmdClear,
		},
		{
			Name:        "/help",
			Aliases:     []string{"/?"},
			Description: "Show this help",
			Usage:       "/help",
			Handler:     cmdHelp,
		},
		{
			Name:        "/quit",
			Aliases:     []string{"/exit", "/q"},
			Description: "Leave the console",
			Usage:       "/quit",
			Handler:     cmdQuit,
		},
	}

	for _, cmd := range cmds {
		m.commands[cmd.Name] = cmd
		m.order = append(m.order, cmd.Name)
		for _, alias := range cmd.Aliases {
			m.aliases[alias] = cmd.Name
		}
	}
}

// lookup resolves a command name or alias.
func (m *Model) lookup(name string) *Command {
	name = strings.ToLower(name)
	if full, ok := m.aliases[name]; ok {
		name = full
	}
	return m.commands[name]
}

func cmdSamples(m *Model, args []string) string {
	list := samples.All()
	if len(args) > 0 {
		list = samples.Search(strings.Join(args, " "))
		if len(list) == 0 {
			return cli.Warn(fmt.Sprintf("no samples match %q", strings.Join(args, " ")))
		}
	}
	var b strings.Builder
	for _, s := range list {
		line := fmt.Sprintf("  %-60s %s", s.Sentence, cli.Muted(samples.CategoryLabel(s.Category)))
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func cmdGrammar(m *Model, args []string) string {
	return strings.TrimSuffix(m.parser.Grammar().String(), "\n")
}

func cmdFormat(m *Model, args []string) string {
	if len(args) == 0 {
		return "format: " + m.format()
	}
	switch strings.ToLower(args[0]) {
	case "pretty":
		m.bracket = false
	case "bracket":
		m.bracket = true
	default:
		return cli.Error(fmt.Sprintf("unknown format %q, want pretty or bracket", args[0]))
	}
	return cli.Success("format: " + m.format())
}

func cmdTheme(m *Model, args []string) string {
	if len(args) == 0 {
		return fmt.Sprintf("theme: %s (available: %s)", cli.CurrentThemeName(), strings.Join(cli.ThemeNames(), ", "))
	}
	if err := cli.SetTheme(args[0]); err != nil {
		return cli.Error(err.Error())
	}
	return cli.Success("theme: " + cli.CurrentThemeName())
}

func cmdHistory(m *Model, args []string) string {
	entries := m.history.Entries()
	if len(entries) == 0 {
		return cli.Muted("no history yet")
	}
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%4d  %s\n", i+1, e)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func cmdClear(m *Model, args []string) string {
	m.lines = m.lines[:0]
	return ""
}

func cmdHelp(m *Model, args []string) string {
	var b strings.Builder
	b.WriteString(cli.Heading("Type a sentence to parse it, or a command:"))
	b.WriteString("\n")
	for _, name := range m.order {
		cmd := m.commands[name]
		aliases := ""
		if len(cmd.Aliases) > 0 {
			aliases = " (" + strings.Join(cmd.Aliases, ", ") + ")"
		}
		fmt.Fprintf(&b, "  %-26s %s%s\n", cmd.Usage, cmd.Description, aliases)
	}
	b.WriteString(cli.Muted("  tab completes words, up/down recalls history, ctrl+c quits"))
	return b.String()
}

func cmdQuit(m *Model, args []string) string {
	m.quitting = true
	return "Goodbye."
}
