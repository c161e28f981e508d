package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/shaum/internal/export"
	"github.com/smokyabdulrahman/shaum/internal/forecast"
)

func (a *app) newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the fasting calendar",
	}
	cmd.AddCommand(a.newExportICSCmd())
	return cmd
}

func (a *app) newExportICSCmd() *cobra.Command {
	var year, month, months int
	var rules bool
	var output string

	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export fasts as an iCalendar file",
		Long: "Write one all-day event per fast or forbidden day for --months months\n" +
			"starting at --year/--month (default: the current month). With --rules,\n" +
			"the Nadzar and Qadha rules are added instead: a weekly recurring event\n" +
			"with Ramadhan and forbidden days excluded, plus the explicit and\n" +
			"Hijri-triggered days of the same months.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if months < 1 || months > 24 {
				return fmt.Errorf("--months must be 1-24")
			}
			today := now()
			if year == 0 {
				year = today.Year()
			}
			if month == 0 {
				month = int(today.Month())
			}
			start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
			if err := (forecast.Request{Year: year, Month: month}).Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := a.profile(ctx)
			if err != nil {
				return err
			}

			cal := export.New("Shaum", today)
			if rules {
				until := start.AddDate(0, months, -1)
				if _, err := cal.AddRules(p, start, until, a.cfg.OffsetOrDefault(0)); err != nil {
					return err
				}
			} else {
				gen := a.generator(ctx)
				for i := range months {
					m := start.AddDate(0, i, 0)
					cal.AddEntries(gen.Month(ctx, forecast.Request{
						Index:   forecast.Gregorian,
						Year:    m.Year(),
						Month:   int(m.Month()),
						Profile: p,
					}))
				}
			}

			if output == "" || output == "-" {
				return cal.Encode(cmd.OutOrStdout())
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := cal.Encode(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d events to %s\n", cal.Len(), output)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&year, "year", 0, "First Gregorian year")
	f.IntVar(&month, "month", 0, "First Gregorian month 1-12")
	f.IntVar(&months, "months", 1, "Number of months")
	f.BoolVar(&rules, "rules", false, "Export the recurring Nadzar and Qadha rules")
	f.StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
