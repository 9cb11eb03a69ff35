package root

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"habitquest/internal/reminder"
	"habitquest/internal/ui"
)

func newRemindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Control reminders",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "pause",
			Short: "Pause reminders until resumed",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, cleanup, err := openApp(cmd.Context(), openOptions{})
				if err != nil {
					return err
				}
				defer cleanup()
				if err := a.PauseReminders(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(ui.IconBell+" Reminders paused"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "resume",
			Short: "Resume reminders",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, cleanup, err := openApp(cmd.Context(), openOptions{})
				if err != nil {
					return err
				}
				defer cleanup()
				if err := a.ResumeReminders(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconBell+" Reminders resumed"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "snooze <minutes>",
			Short: "Silence reminders for a while",
			Args: func(cmd *cobra.Command, args []string) error {
				if len(args) != 1 {
					return errors.New("minutes are required")
				}
				if n, err := strconv.Atoi(args[0]); err != nil || n <= 0 {
					return errors.New("minutes must be a positive integer")
				}
				return nil
			},
			RunE: func(cmd *cobra.Command, args []string) error {
				a, cleanup, err := openApp(cmd.Context(), openOptions{})
				if err != nil {
					return err
				}
				defer cleanup()
				n, _ := strconv.Atoi(args[0])
				until, err := a.SnoozeReminders(time.Duration(n) * time.Minute)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s until %s\n", ui.Muted.Render(ui.IconBell+" Reminders snoozed"), until.Local().Format("15:04"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Check streaks now and print any warnings",
			RunE: func(cmd *cobra.Command, args []string) error {
				out := cmd.OutOrStdout()
				sent := 0
				a, cleanup, err := openApp(cmd.Context(), openOptions{
					notify: func(n reminder.Notification) {
						sent++
						fmt.Fprintln(out, ui.Notification(n))
					},
				})
				if err != nil {
					return err
				}
				defer cleanup()

				st := a.Reminders.Status()
				if !st.Enabled {
					fmt.Fprintln(out, ui.Muted.Render("Reminders are paused."))
					return nil
				}
				if until, ok := a.SnoozedUntil(); ok {
					fmt.Fprintln(out, ui.Muted.Render("Reminders are snoozed until "+until.Local().Format("15:04")+"."))
					return nil
				}
				a.Reminders.CheckStreaks()
				if sent == 0 {
					fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" No streaks need attention."))
				}
				return nil
			},
		},
	)
	return cmd
}
