package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/smokyabdulrahman/shaum/internal/fasting"
	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

func (a *app) newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show or modify Nadzar and Qadha rules",
		Long:  "Display the recurring Nadzar (vow) and Qadha (makeup) rules, or use subcommands to modify them.\nWhen run without subcommands, shows the current rules.",
		Args:  cobra.NoArgs,
		RunE:  a.runRulesShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current rules",
		Args:  cobra.NoArgs,
		RunE:  a.runRulesShow,
	})
	cmd.AddCommand(a.newRulesSetCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "clear <nadzar|qadha>",
		Short: "Remove a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := obligationArg(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.ClearConfig(cmd.Context(), t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s rule.\n", t.Label())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Replace all rules from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runRulesImport,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "export [file.yaml]",
		Short: "Write all rules as YAML",
		Long:  "Write the Nadzar and Qadha rules and the Ramadhan override as YAML, to a file or to stdout.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runRulesExport,
	})
	cmd.AddCommand(a.newRulesScheduleCmd())

	return cmd
}

func (a *app) newRulesSetCmd() *cobra.Command {
	var weekdays, dates, triggers []string
	var from, to string

	cmd := &cobra.Command{
		Use:   "set <nadzar|qadha>",
		Short: "Replace a rule",
		Long: "Replace the Nadzar or Qadha rule. A day matches when it lies in the\n" +
			"--from/--to window and any trigger fires.\n\n" +
			"Examples:\n" +
			"  shaum rules set qadha --weekdays mon,thu --to 2024-12-31\n" +
			"  shaum rules set nadzar --triggers ayyamul_bidh\n" +
			"  shaum rules set qadha --dates 2024-05-02,2024-05-09",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := obligationArg(args[0])
			if err != nil {
				return err
			}

			cfg := fasting.RecurrenceConfig{ExplicitDates: dates, ValidFrom: from, ValidTo: to}
			for _, w := range weekdays {
				wd, err := parseWeekday(w)
				if err != nil {
					return err
				}
				cfg.Weekdays = append(cfg.Weekdays, wd)
			}
			for _, tr := range triggers {
				ft, err := fasting.ParseType(tr)
				if err != nil {
					return err
				}
				cfg.TriggerTypes = append(cfg.TriggerTypes, ft)
			}
			if cfg.IsZero() {
				return fmt.Errorf("a rule needs at least one of --weekdays, --dates or --triggers")
			}

			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.SaveConfig(cmd.Context(), t, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s rule: %s\n", t.Label(), describeRule(cfg))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&weekdays, "weekdays", nil, "Weekdays, e.g. mon,thu")
	f.StringSliceVar(&dates, "dates", nil, "Explicit dates, YYYY-MM-DD")
	f.StringSliceVar(&triggers, "triggers", nil, "Sunnah types that trigger the rule: monday_thursday, ayyamul_bidh")
	f.StringVar(&from, "from", "", "First valid day, YYYY-MM-DD")
	f.StringVar(&to, "to", "", "Last valid day, YYYY-MM-DD")

	return cmd
}

func (a *app) newRulesScheduleCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "schedule <nadzar|qadha>",
		Short: "Preview the weekday and date triggers of a rule",
		Long:  "List the days in the next --days days scheduled by the rule's weekdays and explicit dates.\nTrigger types depend on the Hijri calendar; use `upcoming` to see them.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := obligationArg(args[0])
			if err != nil {
				return err
			}
			p, err := a.profile(cmd.Context())
			if err != nil {
				return err
			}
			cfg := p.Qadha
			if t == fasting.Nadzar {
				cfg = p.Nadzar
			}

			from := now()
			sched, err := cfg.Schedule(from, from.AddDate(0, 0, days))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.flags.json {
				list := make([]string, len(sched))
				for i, d := range sched {
					list[i] = d.Format(fasting.DateLayout)
				}
				return writeJSON(out, list)
			}
			if len(sched) == 0 {
				fmt.Fprintf(out, "No scheduled %s days in the next %d days.\n", t.Label(), days)
				return nil
			}
			offset := a.cfg.OffsetOrDefault(0)
			for _, d := range sched {
				line := fmt.Sprintf("  %s  %s", d.Format(fasting.DateLayout), d.Weekday().String()[:3])
				if fasting.IsProhibited(hijri.ToHijri(d, offset), d, p.Override) {
					line += "  (forbidden, skipped)"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Number of days to preview")

	return cmd
}

func (a *app) runRulesShow(cmd *cobra.Command, args []string) error {
	p, err := a.profile(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.flags.json {
		return writeJSON(out, p)
	}

	fmt.Fprintf(out, "  %-10s %s\n", fasting.Nadzar.Label(), describeRule(p.Nadzar))
	fmt.Fprintf(out, "  %-10s %s\n", fasting.Qadha.Label(), describeRule(p.Qadha))
	fmt.Fprintf(out, "  %-10s %s\n", "Ramadhan", describeOverride(p.Override))
	return nil
}

func (a *app) runRulesImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read rules: %w", err)
	}

	var p fasting.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid rules file %s: %w", args[0], err)
	}
	if err := p.Nadzar.Validate(); err != nil {
		return fmt.Errorf("nadzar: %w", err)
	}
	if err := p.Qadha.Validate(); err != nil {
		return fmt.Errorf("qadha: %w", err)
	}
	if p.Override != nil {
		if err := p.Override.Validate(); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	for t, cfg := range map[fasting.FastingType]fasting.RecurrenceConfig{fasting.Nadzar: p.Nadzar, fasting.Qadha: p.Qadha} {
		if cfg.IsZero() {
			err = s.ClearConfig(ctx, t)
		} else {
			err = s.SaveConfig(ctx, t, cfg)
		}
		if err != nil {
			return err
		}
	}
	if p.Override != nil {
		err = s.SaveOverride(ctx, *p.Override)
	} else {
		err = s.ClearOverride(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported rules from %s\n", args[0])
	return nil
}

func (a *app) runRulesExport(cmd *cobra.Command, args []string) error {
	p, err := a.profile(cmd.Context())
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	if len(args) == 0 {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("failed to write rules: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported rules to %s\n", args[0])
	return nil
}

func obligationArg(s string) (fasting.FastingType, error) {
	t, err := fasting.ParseType(s)
	if err != nil || (t != fasting.Nadzar && t != fasting.Qadha) {
		return fasting.None, fmt.Errorf("rule type must be nadzar or qadha, got %q", s)
	}
	return t, nil
}

// parseWeekday accepts English names, three-letter abbreviations and 0-6
// with 0 = Sunday.
func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || s == name[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// describeRule summarizes a rule in one line.
func describeRule(c fasting.RecurrenceConfig) string {
	if c.IsZero() {
		return "(not set)"
	}

	var parts []string
	if len(c.Weekdays) > 0 {
		names := make([]string, len(c.Weekdays))
		for i, wd := range c.Weekdays {
			names[i] = wd.String()[:3]
		}
		parts = append(parts, "every "+strings.Join(names, ", "))
	}
	if len(c.TriggerTypes) > 0 {
		names := make([]string, len(c.TriggerTypes))
		for i, t := range c.TriggerTypes {
			names[i] = t.Label()
		}
		parts = append(parts, "on "+strings.Join(names, ", ")+" days")
	}
	if len(c.ExplicitDates) > 0 {
		parts = append(parts, "on "+strings.Join(c.ExplicitDates, ", "))
	}

	s := strings.Join(parts, "; ")
	switch {
	case c.ValidFrom != "" && c.ValidTo != "":
		s += fmt.Sprintf(" (%s to %s)", c.ValidFrom, c.ValidTo)
	case c.ValidFrom != "":
		s += fmt.Sprintf(" (from %s)", c.ValidFrom)
	case c.ValidTo != "":
		s += fmt.Sprintf(" (until %s)", c.ValidTo)
	}
	return s
}

func describeOverride(o *fasting.RamadhanOverride) string {
	if o == nil {
		return "(calendar)"
	}
	s := fmt.Sprintf("%s to %s", o.StartDate, o.EndDate)
	if err := o.Validate(); err != nil {
		s += " (invalid, ignored)"
	}
	return s
}

