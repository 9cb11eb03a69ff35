package root

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"habitquest/internal/ui"
)

func newRewardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reward",
		Short: "Define, list and redeem rewards",
	}
	cmd.AddCommand(newRewardAddCmd(), newRewardListCmd(), newRewardRedeemCmd())
	return cmd
}

func newRewardAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <cost>",
		Short: "Define a reward bought with points",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("name and cost are required")
			}
			if _, err := strconv.Atoi(args[1]); err != nil {
				return errors.New("cost must be an integer")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			cost, _ := strconv.Atoi(args[1])
			r, err := a.Service.AddReward(args[0], cost)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render(ui.IconGift+" Reward added"), r.Name, ui.Muted.Render(fmt.Sprintf("(%d points)", r.Cost)))
			return nil
		},
	}
}

func newRewardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rewards and the inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			points := a.Service.Status().Points
			fmt.Fprintln(out, ui.Heading(ui.IconGift, "Rewards"))
			fmt.Fprintln(out, ui.LabelValue("Points", points))
			for _, r := range a.Service.Rewards() {
				cost := ui.Warn.Render(fmt.Sprintf("%d", r.Cost))
				if r.Cost <= points {
					cost = ui.Good.Render(fmt.Sprintf("%d", r.Cost))
				}
				fmt.Fprintf(out, "- %s %s %s\n", r.Name, cost, ui.Muted.Render("id "+r.ID))
			}
			if inv := a.Service.Inventory(); len(inv) > 0 {
				fmt.Fprintln(out, "")
				fmt.Fprintln(out, ui.H2.Render("Inventory"))
				for _, it := range inv {
					fmt.Fprintf(out, "- %s %s\n", it.Name, ui.Muted.Render(it.RedeemedAt.Format("2006-01-02")))
				}
			}
			return nil
		},
	}
}

func newRewardRedeemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redeem <reward>",
		Short: "Spend points on a reward",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("reward id or name is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			item, err := a.Service.RedeemReward(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Gold.Render(ui.IconGift+" Redeemed"), item.Name, ui.Muted.Render(fmt.Sprintf("(%d points left)", a.Service.Status().Points)))
			return nil
		},
	}
}
