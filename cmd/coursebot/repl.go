package main

import (
	"github.com/spf13/cobra"

	"github.com/barun-bash/coursebot/internal/repl"
)

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive parse console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newParser()
			if err != nil {
				return a.reportErr(err)
			}
			return repl.Run(cmd.Context(), p, repl.WithInput(cmd.InOrStdin()), repl.WithOutput(a.out))
		},
	}
}
