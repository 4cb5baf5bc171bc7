package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/barun-bash/coursebot/internal/cli"
)

func newParseCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "parse <sentence...>",
		Short: "Parse a sentence and print its tree or forest",
		Example: `  coursebot parse message students with no submissions for lab
  coursebot parse --format bracket "message students with the lab"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var bracket bool
			switch format {
			case "pretty":
			case "bracket":
				bracket = true
			default:
				return fmt.Errorf("unknown format %q, want pretty or bracket", format)
			}

			p, err := a.newParser()
			if err != nil {
				return a.reportErr(err)
			}
			sentence := strings.Join(args, " ")
			res, err := p.Parse(sentence)
			if err != nil {
				a.log.Debug("parse failed", zap.String("input", sentence), zap.Error(err))
				return a.reportErr(err)
			}
			fmt.Fprint(a.out, cli.Result(res, bracket))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "pretty", "Output format: pretty or bracket")
	a.maxDerivationsFlag(cmd)
	return cmd
}
