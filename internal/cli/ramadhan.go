package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/shaum/internal/fasting"
)

func (a *app) newRamadhanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ramadhan",
		Short: "Show or pin the dates of Ramadhan",
		Long: "Ramadhan follows the Hijri calendar unless an override pins it to the dates\n" +
			"declared by your local authority. The day after the override ends is Eid al-Fitr.",
		Args: cobra.NoArgs,
		RunE: a.runRamadhanShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the Ramadhan override",
		Args:  cobra.NoArgs,
		RunE:  a.runRamadhanShow,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <start> <end>",
		Short: "Pin Ramadhan to explicit dates",
		Long:  "Pin Ramadhan to the inclusive range start..end, both YYYY-MM-DD.\n\nExample:\n  shaum ramadhan set 2024-03-12 2024-04-10",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := fasting.RamadhanOverride{StartDate: args[0], EndDate: args[1]}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.SaveOverride(cmd.Context(), o); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ramadhan set to %s .. %s (%d days), Eid al-Fitr on %s\n",
				o.StartDate, o.EndDate, o.Days(), o.EidAlFitr().Format(fasting.DateLayout))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Follow the Hijri calendar again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.ClearOverride(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Ramadhan override cleared.")
			return nil
		},
	})

	return cmd
}

func (a *app) runRamadhanShow(cmd *cobra.Command, args []string) error {
	p, err := a.profile(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.flags.json {
		return writeJSON(out, p.Override)
	}
	fmt.Fprintf(out, "  Ramadhan  %s\n", describeOverride(p.Override))
	return nil
}
