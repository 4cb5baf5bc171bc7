package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/barun-bash/coursebot/internal/cli"
	"github.com/barun-bash/coursebot/internal/config"
	"github.com/barun-bash/coursebot/internal/grammar"
	"github.com/barun-bash/coursebot/internal/logging"
	"github.com/barun-bash/coursebot/internal/parser"
	"github.com/barun-bash/coursebot/internal/version"
)

// errReported is returned by commands that already printed their failure.
var errReported = errors.New("reported")

// app carries global flags and the state PersistentPreRunE builds for every
// command.
type app struct {
	out, errOut io.Writer

	project     string
	grammarFile string
	verbose     bool
	noColor     bool
	theme       string

	maxDerivations int

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "coursebot",
		Short: "Parse course command sentences and send coursework reminders",
		Long: `coursebot parses command-like sentences such as
"message students with no submissions for lab" against an ambiguous grammar,
and reminds students about overdue Canvas assignments over Zulip.`,
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.project, "project", "C", ".", "Project directory holding .coursebot/")
	pf.StringVarP(&a.grammarFile, "grammar", "g", "", "Grammar description file (default: built-in command grammar)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	pf.StringVar(&a.theme, "theme", "", "Color theme: "+fmt.Sprint(cli.ThemeNames()))

	root.AddCommand(
		newParseCmd(a),
		newCheckCmd(a),
		newSamplesCmd(a),
		newGrammarCmd(a),
		newReplCmd(a),
		newRemindCmd(a),
		newInitCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup() error {
	if a.noColor {
		cli.ColorEnabled = false
	}
	if a.theme != "" {
		if err := cli.SetTheme(a.theme); err != nil {
			return err
		}
	}

	cfg, err := config.Load(a.project)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return err
	}
	a.log = log
	a.log.Debug("configuration loaded", zap.String("path", cfg.Path()))
	return nil
}

// grammarPath is the grammar file in effect, "" for the built-in grammar.
func (a *app) grammarPath() string {
	if a.grammarFile != "" {
		return a.grammarFile
	}
	return a.cfg.Grammar.File
}

// loadGrammar loads the grammar in effect and logs its warnings.
func (a *app) loadGrammar() (*grammar.Grammar, error) {
	start := a.cfg.Grammar.Start
	var (
		g   *grammar.Grammar
		err error
	)
	switch path := a.grammarPath(); {
	case path != "":
		g, err = grammar.LoadFile(path, start)
	case start == "" || start == grammar.DefaultStart:
		g = grammar.Default()
	default:
		g, err = grammar.Parse("commands.grammar", grammar.Source(), start)
	}
	if err != nil {
		return nil, err
	}
	for _, w := range g.Warnings() {
		a.log.Warn("grammar warning", zap.String("grammar", g.Name()), zap.String("warning", w.Format()))
	}
	return g, nil
}

func (a *app) newParser() (*parser.Parser, error) {
	g, err := a.loadGrammar()
	if err != nil {
		return nil, err
	}
	if a.maxDerivations < 0 {
		return nil, fmt.Errorf("--max-derivations must not be negative, got %d", a.maxDerivations)
	}
	return parser.New(g,
		parser.WithLogger(a.log),
		parser.WithMaxDerivations(a.maxDerivations),
	), nil
}

func (a *app) maxDerivationsFlag(cmd *cobra.Command) {
	cmd.Flags().IntVar(&a.maxDerivations, "max-derivations", 0, "Fail a sentence with more than N derivations, 0 for no limit")
}

// reportErr prints err styled to errOut and returns errReported. Syntax and
// grammar diagnostics get their full rendering.
func (a *app) reportErr(err error) error {
	if se, ok := parser.AsSyntaxError(err); ok {
		fmt.Fprint(a.errOut, cli.SyntaxError(se))
		return errReported
	}
	fmt.Fprintln(a.errOut, cli.Error(err.Error()))
	return errReported
}
