package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/barun-bash/coursebot/internal/cli"
	"github.com/barun-bash/coursebot/internal/samples"
	"github.com/barun-bash/coursebot/internal/watch"
)

func newCheckCmd(a *app) *cobra.Command {
	var watchMode bool
	cmd := &cobra.Command{
		Use:   "check [cases-file]",
		Short: "Parse every case and report unambiguous, ambiguous and failing sentences",
		Long: `Parse every sentence of a cases file (one per line, "#" comments and blank
lines skipped), or the built-in samples when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var casesFile string
			if len(args) == 1 {
				casesFile = args[0]
			}
			if !watchMode {
				return a.check(cmd.Context(), casesFile)
			}
			return a.watchCheck(cmd.Context(), casesFile)
		},
	}
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Re-run when the cases or grammar file changes")
	a.maxDerivationsFlag(cmd)
	return cmd
}

func (a *app) check(ctx context.Context, casesFile string) error {
	p, err := a.newParser()
	if err != nil {
		return a.reportErr(err)
	}

	cases := samples.BuiltinCases()
	source := "built-in samples"
	if casesFile != "" {
		if cases, err = samples.LoadCases(casesFile); err != nil {
			return err
		}
		source = casesFile
	}

	var rep *samples.Report
	err = cli.WithSpinnerCtx(ctx, a.errOut, fmt.Sprintf("Parsing %d cases...", len(cases)), func(ctx context.Context) error {
		rep, err = samples.CheckAll(ctx, p, cases)
		return err
	})
	if err != nil {
		return err
	}

	for _, o := range rep.Outcomes {
		fmt.Fprintln(a.out, outcomeLine(source, o))
	}
	fmt.Fprintln(a.out)
	summary := fmt.Sprintf("%d cases: %d unambiguous, %d ambiguous, %d failed",
		len(rep.Outcomes), rep.Unambiguous, rep.Ambiguous, rep.Failed)
	a.log.Debug("check finished", zap.String("source", source), zap.Int("failed", rep.Failed))
	if rep.Failed > 0 {
		fmt.Fprintln(a.out, cli.Error(summary))
		return errReported
	}
	fmt.Fprintln(a.out, cli.Success(summary))
	return nil
}

func outcomeLine(source string, o samples.Outcome) string {
	loc := cli.Muted(fmt.Sprintf("%s:%d", source, o.Case.Line))
	switch {
	case !o.OK():
		return fmt.Sprintf("%s %s\n    %s", cli.Error(o.Case.Sentence), loc, o.Err.Error())
	case o.Result.Ambiguous():
		return fmt.Sprintf("%s %s", cli.Warn(fmt.Sprintf("%s (%d derivations)", o.Case.Sentence, len(o.Result.Trees))), loc)
	default:
		return fmt.Sprintf("%s %s", cli.Success(o.Case.Sentence), loc)
	}
}

// watchCheck runs check once and again after every change to the cases or
// grammar file, until ctx is done.
func (a *app) watchCheck(ctx context.Context, casesFile string) error {
	var files []string
	for _, f := range []string{casesFile, a.grammarPath()} {
		if f != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("nothing to watch: --watch needs a cases file or a grammar file")
	}

	w, err := watch.New(files, watch.WithLogger(a.log))
	if err != nil {
		return err
	}

	run := func() {
		if err := a.check(ctx, casesFile); err != nil && !errors.Is(err, errReported) && ctx.Err() == nil {
			fmt.Fprintln(a.errOut, cli.Error(err.Error()))
		}
		fmt.Fprintln(a.out, cli.Muted("watching "+strings.Join(files, ", ")+" (ctrl+c to stop)"))
	}
	run()

	err = w.Run(ctx, func(paths []string) {
		fmt.Fprintln(a.out, cli.Info("changed: "+strings.Join(paths, ", ")))
		run()
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
