package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/barun-bash/coursebot/internal/version"
)

func newVersionCmd(a *app) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(a.out, version.Info())
				return
			}
			fmt.Fprint(a.out, version.Detail())
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
