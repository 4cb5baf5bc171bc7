package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barun-bash/coursebot/internal/cli"
)

func newGrammarCmd(a *app) *cobra.Command {
	var vocabulary bool
	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "Print the expanded rule table and vocabulary",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGrammar()
			if err != nil {
				return a.reportErr(err)
			}
			if vocabulary {
				fmt.Fprintln(a.out, strings.Join(g.Vocabulary(), "\n"))
				return nil
			}
			fmt.Fprint(a.out, g.String())
			for _, w := range g.Warnings() {
				fmt.Fprintln(a.errOut, cli.Warn(w.Format()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&vocabulary, "vocabulary", false, "Only list the accepted words and phrases")
	return cmd
}
