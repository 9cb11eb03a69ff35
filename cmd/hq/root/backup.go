package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"habitquest/internal/ui"
)

func newBackupCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of the stored data (or list backups)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if list {
				backups, err := a.Persist.ListBackups(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ui.Heading(ui.IconBox, "Backups"))
				if len(backups) == 0 {
					fmt.Fprintln(out, ui.Muted.Render("(none)"))
				}
				for i := len(backups) - 1; i >= 0; i-- {
					b := backups[i]
					fmt.Fprintf(out, "- %s %s\n", b.CreatedAt.Local().Format("2006-01-02 15:04:05"), ui.Muted.Render(b.Key))
				}
				return nil
			}

			// Flush first so the backup covers the latest changes.
			if err := a.Persist.Flush(cmd.Context()); err != nil {
				return err
			}
			b, err := a.Persist.CreateBackup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", ui.Good.Render(ui.IconBox+" Backup created"), ui.Muted.Render(b.Key))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List backups, newest first")

	return cmd
}

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all habit data and backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes all data and backups; pass --yes to confirm")
			}
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.Persist.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render(ui.IconWarn+" All data deleted"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")

	return cmd
}
