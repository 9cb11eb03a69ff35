package root

import (
	"github.com/spf13/cobra"

	"habitquest/internal/tui"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the TUI dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			a.StartReminders()
			return tui.RunBoard(cmd.Context(), a, cmd.OutOrStdout())
		},
	}

	return cmd
}
