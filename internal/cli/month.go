package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/shaum/internal/display"
	"github.com/smokyabdulrahman/shaum/internal/fasting"
	"github.com/smokyabdulrahman/shaum/internal/forecast"
	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

func (a *app) newMonthCmd() *cobra.Command {
	var year, month int
	var useHijri bool

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show a month of fasting recommendations",
		Long: "Display every day of a month with its Hijri date and recommendation.\n" +
			"Defaults to the current month; with --hijri, --year and --month name a Hijri month.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := forecast.Request{Index: forecast.Gregorian, Year: year, Month: month}
			today := now()
			if useHijri {
				req.Index = forecast.Hijri
				h := hijri.ToHijri(today, a.cfg.OffsetOrDefault(0))
				if year == 0 {
					req.Year = h.Year
				}
				if month == 0 {
					req.Month = h.Month.Number
				}
			} else {
				if year == 0 {
					req.Year = today.Year()
				}
				if month == 0 {
					req.Month = int(today.Month())
				}
			}
			if err := req.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := a.profile(ctx)
			if err != nil {
				return err
			}
			req.Profile = p

			entries := a.generator(ctx).Collect(ctx, req)
			if a.flags.json {
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			title := fmt.Sprintf("%04d-%02d", req.Year, req.Month)
			if useHijri {
				title = fmt.Sprintf("%s %d H", hijri.MonthName(req.Month), req.Year)
			}
			printEntries(cmd.OutOrStdout(), title, entries)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year (Gregorian, or Hijri with --hijri)")
	cmd.Flags().IntVar(&month, "month", 0, "Month number 1-12")
	cmd.Flags().BoolVar(&useHijri, "hijri", false, "Interpret --year/--month as a Hijri month")

	return cmd
}

func (a *app) newUpcomingCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "upcoming [days]",
		Short: "List the fasts of the next days",
		Long:  "List the days in the next N days (default: 14) that carry a fast or are forbidden.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days := 14
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 || n > 366 {
					return fmt.Errorf("invalid number of days %q: must be 1-366", args[0])
				}
				days = n
			}

			ctx := cmd.Context()
			p, err := a.profile(ctx)
			if err != nil {
				return err
			}

			var entries []forecast.Entry
			for e := range a.generator(ctx).Range(ctx, now(), days, p) {
				if all || notable(e.Recommendation) {
					entries = append(entries, e)
				}
			}

			if a.flags.json {
				if entries == nil {
					entries = []forecast.Entry{}
				}
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			printEntries(cmd.OutOrStdout(), fmt.Sprintf("Next %d days", days), entries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include days without a fast")

	return cmd
}

func notable(rec fasting.Recommendation) bool {
	return rec.Type != fasting.None || rec.IsForbidden
}

// printEntries renders entries as a table, highlighting today.
func printEntries(w io.Writer, title string, entries []forecast.Entry) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(title))
	fmt.Fprintln(w)

	if len(entries) == 0 {
		fmt.Fprintf(w, "  %s\n\n", display.Dim("Nothing to fast."))
		return
	}

	t := display.NewTable([]string{"Date", "Day", "Hijri", "Fast"})
	today := hijri.Civil(now()).Format(fasting.DateLayout)
	for i, e := range entries {
		date := e.Date.Format(fasting.DateLayout)
		t.AddStyledRow([]string{
			date,
			e.Date.Weekday().String()[:3],
			e.Hijri.String(),
			e.Recommendation.Label(),
		}, display.StyleFor(e.Recommendation))
		if date == today {
			t.SetHighlightRow(i)
		}
	}
	fmt.Fprint(w, t.Render())
	fmt.Fprintln(w)
}
