package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"habitquest/internal/ui"
)

func newListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List habits, due ones first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			habits := a.Service.ListHabits(all)
			fmt.Fprintln(out, ui.Heading(ui.IconQuest, "Habits"))
			if len(habits) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(none yet, add one with `hq add <name>`)"))
				return nil
			}
			for _, v := range habits {
				h := v.Habit
				fmt.Fprintf(out, "- %s %s %s %s %s\n",
					ui.FrequencyIcon(h.Frequency),
					h.Name,
					ui.HabitStatus(v.Done, h.Archived),
					ui.Streak(v.Streak),
					ui.Muted.Render(fmt.Sprintf("[%s, %d XP, next %s, id %s]", h.Category, h.XPValue, v.NextDue.Format("Mon Jan 2"), h.ID)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include archived habits")

	return cmd
}
