package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/shaum/internal/display"
	"github.com/smokyabdulrahman/shaum/internal/fasting"
	"github.com/smokyabdulrahman/shaum/internal/store"
)

func (a *app) newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record and list fasts",
	}
	cmd.AddCommand(a.newLogAddCmd())
	cmd.AddCommand(a.newLogListCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a log entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.DeleteLog(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func (a *app) newLogAddCmd() *cobra.Command {
	var typeName string
	var incomplete, nadzar, qadha bool

	cmd := &cobra.Command{
		Use:   "add [YYYY-MM-DD]",
		Short: "Record a fast (default: today)",
		Long: "Record a fast. Without --type, the day's recommendation decides the type\n" +
			"and whether it discharged a Qadha or Nadzar obligation.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := now()
			if len(args) == 1 {
				d, err := parseDate(args[0])
				if err != nil {
					return err
				}
				date = d
			}

			l := fasting.Log{
				Date:        date.Format(fasting.DateLayout),
				IsCompleted: !incomplete,
				IsNadzar:    nadzar,
				IsQadha:     qadha,
			}
			if typeName != "" {
				t, err := fasting.ParseType(typeName)
				if err != nil {
					return err
				}
				l.Type = t
			} else {
				e, err := a.entry(cmd, date)
				if err != nil {
					return err
				}
				rec := e.Recommendation
				if rec.IsForbidden {
					return fmt.Errorf("%s is a forbidden day (%s)", l.Date, rec.Reason)
				}
				l.Type = rec.Type
				if l.Type == fasting.None {
					l.Type = fasting.Other
				}
				l.IsNadzar = l.IsNadzar || rec.IsNadzar
				l.IsQadha = l.IsQadha || rec.IsQadha
			}

			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.AddLog(cmd.Context(), &l); err != nil {
				return err
			}

			if a.flags.json {
				return writeJSON(cmd.OutOrStdout(), l)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s on %s (%s)\n", l.Type.Label(), l.Date, l.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&typeName, "type", "", "Fast type: monday_thursday, ayyamul_bidh, ramadhan, nadzar, qadha, other")
	f.BoolVar(&incomplete, "incomplete", false, "Record a fast that was broken")
	f.BoolVar(&nadzar, "nadzar", false, "Count the fast toward a vow")
	f.BoolVar(&qadha, "qadha", false, "Count the fast as a makeup day")

	return cmd
}

func (a *app) newLogListCmd() *cobra.Command {
	var filter store.LogFilter
	var typeName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded fasts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range []string{filter.From, filter.To} {
				if d == "" {
					continue
				}
				if _, err := parseDate(d); err != nil {
					return err
				}
			}
			if typeName != "" {
				t, err := fasting.ParseType(typeName)
				if err != nil {
					return err
				}
				filter.Type = t
			}

			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			logs, err := s.ListLogs(cmd.Context(), filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.flags.json {
				if logs == nil {
					logs = []fasting.Log{}
				}
				return writeJSON(out, logs)
			}

			t := display.NewTable([]string{"Date", "Type", "Done", "Qadha", "Nadzar", "ID"})
			for _, l := range logs {
				t.AddRow([]string{l.Date, l.Type.Label(), check(l.IsCompleted), check(l.IsQadha), check(l.IsNadzar), l.ID})
			}
			if t.Len() == 0 {
				fmt.Fprintln(out, "No fasts recorded.")
				return nil
			}
			fmt.Fprint(out, t.Render())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&filter.From, "from", "", "First day, YYYY-MM-DD")
	f.StringVar(&filter.To, "to", "", "Last day, YYYY-MM-DD")
	f.StringVar(&typeName, "type", "", "Only this fast type")

	return cmd
}

func (a *app) newStatsCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a year of recorded fasts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				year = now().Year()
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			st, err := s.Stats(cmd.Context(), year)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.flags.json {
				return writeJSON(out, st)
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %s\n\n", display.Boldf("Fasting in %d", st.Year))
			fmt.Fprintf(out, "  %-18s %d\n", "Recorded", st.Total)
			fmt.Fprintf(out, "  %-18s %d\n", "Completed", st.Completed)
			fmt.Fprintf(out, "  %-18s %d\n", "Qadha repaid", st.QadhaRepaid)
			fmt.Fprintf(out, "  %-18s %d\n", "Nadzar fulfilled", st.NadzarFulfilled)

			types := make([]fasting.FastingType, 0, len(st.ByType))
			for t := range st.ByType {
				types = append(types, t)
			}
			sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
			if len(types) > 0 {
				fmt.Fprintln(out, display.Separator(20))
			}
			for _, t := range types {
				fmt.Fprintf(out, "  %-18s %d\n", t.Label(), st.ByType[t])
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Gregorian year (default: current)")

	return cmd
}

func check(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
