package root

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"habitquest/internal/engine"
	"habitquest/internal/ui"
)

func newGoalCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "goal <category> <target>",
		Short: "Set how many completions a category should reach per period",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("category and target are required")
			}
			if _, err := strconv.Atoi(args[1]); err != nil {
				return errors.New("target must be an integer")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := engine.ParseFrequency(period)
			if err != nil {
				return err
			}
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			target, _ := strconv.Atoi(args[1])
			g, err := a.Service.SetCategoryGoal(args[0], target, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render(ui.IconTarget+" Goal set"), g.Category, ui.Muted.Render(fmt.Sprintf("(%d per %s)", g.Target, g.Period)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", "weekly", "Goal period (daily|weekly|monthly)")

	return cmd
}
