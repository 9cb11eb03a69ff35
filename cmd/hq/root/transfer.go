package root

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"habitquest/internal/persist"
	"habitquest/internal/ui"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all habit data as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := a.Persist.ExportData()
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), data)
				return nil
			}
			if err := os.WriteFile(output, []byte(data+"\n"), 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconBox+" Exported"), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")

	return cmd
}

func newImportCmd() *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import habit data from an export or a backup",
		Long: `Import replaces all data with the file's contents, or with --merge combines
them by id: incoming habits, rewards and goals win, completions are unioned,
and points/XP keep the larger value. Nothing changes if the file is invalid.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("file is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			a, cleanup, err := openApp(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			mode := persist.ImportReplace
			if merge {
				mode = persist.ImportMerge
			}
			res := a.Persist.ImportData(cmd.Context(), string(data), mode)
			out := cmd.OutOrStdout()
			if !res.Success {
				for _, p := range res.Problems {
					fmt.Fprintf(out, "- %s\n", ui.Warn.Render(p))
				}
				return errors.New(res.Error)
			}
			fmt.Fprintf(out, "%s %s\n", ui.Good.Render(ui.IconDone+" Imported"), res.Summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "Merge with existing data instead of replacing it")

	return cmd
}
