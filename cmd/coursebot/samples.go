package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barun-bash/coursebot/internal/cli"
	"github.com/barun-bash/coursebot/internal/samples"
)

func newSamplesCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "samples [query]",
		Short: "List sample sentences by category, or search them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				query := strings.Join(args, " ")
				found := samples.Search(query)
				if len(found) == 0 {
					fmt.Fprintln(a.out, cli.Warn(fmt.Sprintf("no samples match %q", query)))
					return nil
				}
				for _, s := range found {
					printSample(a, s)
				}
				return nil
			}

			cats := samples.AllCategories()
			if category != "" {
				cats = []samples.Category{samples.Category(category)}
				if len(samples.ByCategory(cats[0])) == 0 {
					return fmt.Errorf("unknown category %q", category)
				}
			}
			for i, cat := range cats {
				if i > 0 {
					fmt.Fprintln(a.out)
				}
				fmt.Fprintln(a.out, cli.Heading(samples.CategoryLabel(cat)))
				for _, s := range samples.ByCategory(cat) {
					printSample(a, s)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list one category")
	return cmd
}

func printSample(a *app, s samples.Sample) {
	fmt.Fprintf(a.out, "  %s\n", cli.Accent(s.Sentence))
	if s.Description != "" {
		fmt.Fprintf(a.out, "    %s\n", cli.Muted(s.Description))
	}
}
