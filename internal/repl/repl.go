// Package repl is an interactive console that parses each entered sentence
// and prints its tree, its forest or its syntax error.
package repl

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/barun-bash/coursebot/internal/parser"
)

type options struct {
	in      io.Reader
	out     io.Writer
	history *History
}

// Option configures Run.
type Option func(*options)

// WithInput sets the input reader (default: os.Stdin).
func WithInput(r io.Reader) Option {
	return func(o *options) { o.in = r }
}

// WithOutput sets the output writer (default: os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithHistory replaces the default ~/.coursebot/repl_history.
func WithHistory(h *History) Option {
	return func(o *options) { o.history = h }
}

// Run starts the console and blocks until the user quits or ctx is done.
// History is saved on exit.
func Run(ctx context.Context, p *parser.Parser, opts ...Option) error {
	o := &options{in: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}
	if o.history == nil {
		o.history = NewHistory()
	}

	m := NewModel(p, o.history)
	prog := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(o.in),
		tea.WithOutput(o.out),
	)
	_, runErr := prog.Run()

	if err := o.history.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr != nil {
		return fmt.Errorf("running console: %w", runErr)
	}
	return nil
}
