package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/barun-bash/coursebot/internal/cli"
	"github.com/barun-bash/coursebot/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	var (
		force bool
		set   config.Config
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .coursebot/config.yaml",
		Long: `Write .coursebot/config.yaml in the project directory with the default
settings and any values given as flags. API keys are never written; set
CANVAS_API_KEY and ZULIP_API_KEY in the environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if p := a.cfg.Path(); p != "" && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite it", p)
			}

			cfg := config.Default()
			if set.Canvas.BaseURL != "" {
				cfg.Canvas.BaseURL = set.Canvas.BaseURL
			}
			if set.Canvas.CourseID != "" {
				cfg.Canvas.CourseID = set.Canvas.CourseID
			}
			if set.Zulip.Site != "" {
				cfg.Zulip.Site = set.Zulip.Site
			}
			if set.Zulip.Email != "" {
				cfg.Zulip.Email = set.Zulip.Email
			}
			if set.Reminders.Timezone != "" {
				cfg.Reminders.Timezone = set.Reminders.Timezone
			}
			cfg.Reminders.Groups = set.Reminders.Groups
			cfg.Reminders.NotifyStudents = set.Reminders.NotifyStudents

			if _, err := cfg.Location(); err != nil {
				return err
			}
			if err := config.Save(a.project, cfg); err != nil {
				return err
			}
			fmt.Fprintln(a.out, cli.Success("wrote .coursebot/config.yaml"))
			fmt.Fprintln(a.out, cli.Muted("  set CANVAS_API_KEY and ZULIP_API_KEY before running coursebot remind"))
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&force, "force", false, "Overwrite an existing config file")
	f.StringVar(&set.Canvas.BaseURL, "canvas-url", "", "Canvas base URL, e.g. https://canvas.example.edu/api/v1/")
	f.StringVar(&set.Canvas.CourseID, "course-id", "", "Canvas course id")
	f.StringVar(&set.Zulip.Site, "zulip-site", "", "Zulip organization URL")
	f.StringVar(&set.Zulip.Email, "zulip-email", "", "Zulip bot email")
	f.StringVar(&set.Reminders.Timezone, "timezone", "", "Timezone due dates are shown in (default America/New_York)")
	f.StringSliceVar(&set.Reminders.Groups, "groups", nil, "Staff groups copied on reminders: prof, ta, all")
	f.BoolVar(&set.Reminders.NotifyStudents, "notify-students", false, "Send reminders to the students themselves")
	return cmd
}
