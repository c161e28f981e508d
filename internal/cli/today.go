package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/shaum/internal/display"
	"github.com/smokyabdulrahman/shaum/internal/fasting"
	"github.com/smokyabdulrahman/shaum/internal/forecast"
)

func (a *app) newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's fasting recommendation",
		Args:  cobra.NoArgs,
		RunE:  a.runToday,
	}
}

func (a *app) newDayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "Show the fasting recommendation for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			return a.showDay(cmd, date, "Fasting")
		},
	}
}

func (a *app) runToday(cmd *cobra.Command, args []string) error {
	return a.showDay(cmd, now(), "Fasting Today")
}

func (a *app) showDay(cmd *cobra.Command, date time.Time, title string) error {
	e, err := a.entry(cmd, date)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.flags.json {
		return writeJSON(out, e)
	}
	printDayRich(out, e, title)
	return nil
}

// entry resolves a single day through the generator so remote calendars
// apply to it.
func (a *app) entry(cmd *cobra.Command, date time.Time) (forecast.Entry, error) {
	ctx := cmd.Context()
	p, err := a.profile(ctx)
	if err != nil {
		return forecast.Entry{}, err
	}
	gen := a.generator(ctx)
	for e := range gen.Range(ctx, date, 1, p) {
		return e, nil
	}
	return gen.Day(date, p), nil
}

// printDayRich renders the colored terminal output for one day.
func printDayRich(w io.Writer, e forecast.Entry, title string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(title))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", e.Date.Format("Monday, 02 January 2006"))
	fmt.Fprintf(w, "  %s\n", e.Hijri)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Recommendation(e.Recommendation))
	if e.Source == forecast.SourceLocal {
		fmt.Fprintf(w, "  %s\n", display.Dim("(local calendar)"))
	}
	fmt.Fprintln(w)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(fasting.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
