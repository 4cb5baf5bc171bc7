package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barun-bash/coursebot/internal/canvas"
	"github.com/barun-bash/coursebot/internal/cli"
	"github.com/barun-bash/coursebot/internal/history"
	"github.com/barun-bash/coursebot/internal/remind"
	"github.com/barun-bash/coursebot/internal/zulip"
)

func newRemindCmd(a *app) *cobra.Command {
	var dryRun, force bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Remind students with overdue Canvas assignments over Zulip",
		Long: `Read the course's assignments, solution videos and submissions from Canvas
and send every student with overdue work one private Zulip message, shared
with the configured staff groups. A student is reminded at most once a day
unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.remind(cmd.Context(), dryRun, force)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Preview the messages instead of sending them")
	cmd.Flags().BoolVar(&force, "force", false, "Remind students again even if they were reminded today")
	cmd.AddCommand(newRemindLogCmd(a))
	return cmd
}

func (a *app) remind(ctx context.Context, dryRun, force bool) error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("remind is not configured:\n%w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := history.Open(ctx, cfg.History.Path, a.log)
	if err != nil {
		return err
	}
	defer store.Close()

	resources := make([]remind.Resource, len(cfg.Resources))
	for i, r := range cfg.Resources {
		resources[i] = remind.Resource{Text: r.Text, Link: r.Link}
	}

	runner := remind.NewRunner(
		canvas.New(cfg.Canvas.BaseURL, cfg.Canvas.CourseID, cfg.Canvas.APIKey),
		zulip.New(cfg.Zulip.Site, cfg.Zulip.Email, cfg.Zulip.APIKey),
		store,
		remind.Options{
			MaxDays:        cfg.Reminders.MaxDays,
			Location:       loc,
			VideoModule:    cfg.Canvas.VideoModule,
			Groups:         cfg.Reminders.Groups,
			Prof:           cfg.Reminders.Prof,
			TA:             cfg.Reminders.TA,
			NotifyStudents: cfg.Reminders.NotifyStudents,
			Concurrency:    cfg.Reminders.Concurrency,
			Resources:      resources,
			DryRun:         dryRun,
			Force:          force,
		},
		a.log,
	)

	var rep *remind.Report
	err = cli.WithSpinnerCtx(ctx, a.errOut, "Checking coursework...", func(ctx context.Context) error {
		rep, err = runner.Run(ctx)
		return err
	})
	if err != nil {
		return err
	}

	for _, o := range rep.Outcomes {
		switch o.Status {
		case remind.Previewed:
			if err := a.preview(o); err != nil {
				return err
			}
		case remind.Sent:
			fmt.Fprintln(a.out, cli.Success(fmt.Sprintf("%s: reminded about %d overdue", o.Student.Email, len(o.Reminder.Overdue))))
		case remind.AlreadyReminded:
			fmt.Fprintln(a.out, cli.Muted(fmt.Sprintf("  %s: already reminded today", o.Student.Email)))
		}
	}

	summary := fmt.Sprintf("run %s: %d students, %d sent, %d already reminded, %d with nothing overdue",
		rep.RunID, len(rep.Outcomes), rep.Count(remind.Sent), rep.Count(remind.AlreadyReminded), rep.Count(remind.NothingOverdue))
	if dryRun {
		summary = fmt.Sprintf("run %s (dry run): %d of %d students would be reminded",
			rep.RunID, rep.Count(remind.Previewed), len(rep.Outcomes))
	}
	fmt.Fprintln(a.out, cli.Info(summary))
	return nil
}

func (a *app) preview(o remind.Outcome) error {
	to := strings.Join(o.Recipients, ", ")
	if to == "" {
		to = "(no recipients configured)"
	}
	fmt.Fprintln(a.out, cli.Heading(fmt.Sprintf("%s <%s>", o.Student.Name, o.Student.Email)))
	fmt.Fprintln(a.out, cli.Muted("to: "+to))
	md, err := cli.Markdown(o.Message, 80)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, md)
	return nil
}

func newRemindLogCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "List recently sent reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(cmd.Context(), a.cfg.History.Path, a.log)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.out, cli.Muted("no reminders sent yet"))
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(a.out, "%s  %-32s %d overdue  %s\n", e.Day, e.Email, e.Overdue, cli.Muted(e.RunID))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show, 0 for all")
	return cmd
}
