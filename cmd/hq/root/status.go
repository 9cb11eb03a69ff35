package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"habitquest/internal/engine"
	"habitquest/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show level, points, goals, streaks and unlocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			s := a.Service.Status()
			fmt.Fprintln(out, ui.Heading(ui.IconSparkle, "Player Status"))
			fmt.Fprintln(out, ui.LabelValue("Level", s.Level))
			fmt.Fprintln(out, ui.LabelValue("Total XP", fmt.Sprintf("%d %s %d to next", s.TotalXP, ui.ProgressBar(s.XPIntoLevel, s.XPForNext, 20), s.XPForNext-s.XPIntoLevel)))
			fmt.Fprintln(out, ui.LabelValue("Points", s.Points))
			fmt.Fprintln(out, ui.LabelValue("This period", fmt.Sprintf("%d done, %d due", s.DoneCount, s.DueCount)))
			fmt.Fprintln(out, "")

			if len(s.Goals) > 0 {
				fmt.Fprintln(out, ui.H2.Render(ui.IconTarget+" Category goals"))
				for _, g := range s.Goals {
					mark := ui.Warn.Render(fmt.Sprintf("%d/%d", g.Done, g.Goal.Target))
					if g.Met {
						mark = ui.Good.Render(fmt.Sprintf("%d/%d", g.Done, g.Goal.Target))
					}
					fmt.Fprintf(out, "- %s %s %s\n", g.Goal.Category, mark, ui.Muted.Render(string(g.Goal.Period)))
				}
				fmt.Fprintln(out, "")
			}

			if risks := a.Tracker.GetStreaksAtRisk(); len(risks) > 0 {
				fmt.Fprintln(out, ui.H2.Render(ui.IconFire+" Streaks at risk"))
				for _, r := range risks {
					fmt.Fprintf(out, "- %s %s %s\n", r.Name, ui.Streak(r.CurrentStreak), ui.Warn.Render(fmt.Sprintf("%.1fh left", r.HoursRemaining)))
				}
				fmt.Fprintln(out, "")
			}

			fmt.Fprintln(out, ui.H2.Render("🔓 Unlocks"))
			fmt.Fprintf(out, "- %s %d %s\n", ui.Key.Render("Max active habits:"), engine.MaxActiveHabits(s.Level), ui.Muted.Render(fmt.Sprintf("(currently %d)", s.ActiveCount)))
			fmt.Fprintf(out, "- %s %s\n", ui.Key.Render("Max difficulty:"), engine.MaxDifficultyForLevel(s.Level))
			fmt.Fprintf(out, "- %s %s\n", ui.Key.Render("Rewards:"), enabledStr(s.Level >= engine.LevelRewards))
			fmt.Fprintf(out, "- %s %s\n", ui.Key.Render("Category goals:"), enabledStr(s.Level >= engine.LevelCategoryGoals))
			fmt.Fprintln(out, "")

			achievements := a.Service.Achievements()
			fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("%s Achievements", ui.IconTrophy)))
			earned := 0
			for _, ach := range achievements {
				if ach.Earned {
					earned++
					fmt.Fprintf(out, "- %s %s %s\n", ach.Icon, ach.Name, ui.Muted.Render(ach.Description))
				}
			}
			fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("%d of %d earned", earned, len(achievements))))
			return nil
		},
	}

	return cmd
}

func enabledStr(ok bool) string {
	if ok {
		return ui.Good.Render("enabled")
	}
	return ui.Bad.Render("locked")
}
