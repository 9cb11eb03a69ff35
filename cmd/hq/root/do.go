package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"habitquest/internal/ui"
)

func newDoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "do <habit>",
		Short: "Complete a habit for the current period",
		Long:  "Complete a habit by id or by its (unique) name. Each habit can be completed once per day, week or month.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("habit id or name is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			h, err := a.Service.FindHabit(args[0])
			if err != nil {
				return err
			}
			res, err := a.Service.CompleteHabit(h.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s %s\n",
				ui.Good.Render(ui.IconDone+" Done"),
				h.Name,
				ui.Muted.Render(fmt.Sprintf("(+%d XP, +%d points)", res.XPAwarded, res.PointsAwarded)))
			fmt.Fprintln(out, ui.LabelValue("Streak", ui.Streak(res.Streak.CurrentStreak)))
			if res.LevelUp {
				fmt.Fprintf(out, "%s %s\n", ui.BadgeLevelUp, ui.LabelValue("Level", fmt.Sprintf("%d → %d", res.LevelBefore, res.LevelAfter)))
			}
			for _, ach := range res.NewAchievements {
				fmt.Fprintf(out, "%s %s %s %s\n", ui.Gold.Render(ui.IconTrophy+" Achievement"), ach.Icon, ach.Name, ui.Muted.Render(ach.Description))
			}
			return nil
		},
	}

	return cmd
}

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <habit>",
		Short: "Archive a habit (history is kept)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("habit id or name is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			h, err := a.Service.FindHabit(args[0])
			if err != nil {
				return err
			}
			if err := a.Service.ArchiveHabit(h.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Muted.Render(ui.IconBox+" Archived"), h.Name)
			return nil
		},
	}

	return cmd
}
