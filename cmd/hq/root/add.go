package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"habitquest/internal/engine"
	"habitquest/internal/ui"
)

func newAddCmd() *cobra.Command {
	var diff string
	var category string
	var frequency string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a habit",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("name is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := engine.ParseFrequency(frequency)
			if err != nil {
				return err
			}
			d, err := engine.ParseDifficulty(diff)
			if err != nil {
				return err
			}

			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			h, err := a.Service.CreateHabit(engine.HabitInput{
				Name:       args[0],
				Category:   category,
				Frequency:  f,
				Difficulty: d,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n",
				ui.Good.Render(ui.IconPlus+" Added"),
				ui.FrequencyIcon(h.Frequency),
				h.Name,
				ui.Muted.Render(fmt.Sprintf("(%s, %s, %d XP, id %s)", h.Frequency, engine.Difficulty(h.Difficulty), h.XPValue, h.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&diff, "difficulty", "d", "1", "Difficulty (1-5 or trivial|easy|medium|hard|epic)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category (default \""+engine.DefaultCategory+"\")")
	cmd.Flags().StringVarP(&frequency, "frequency", "f", "daily", "Frequency (daily|weekly|monthly)")

	return cmd
}
