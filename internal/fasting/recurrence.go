package fasting

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

// RecurrenceConfig describes when a recurring obligation (a vow or a makeup
// debt) falls due. A day matches when it is inside the validity window and
// any of the triggers fires.
type RecurrenceConfig struct {
	// TriggerTypes matches days whose canonical sunnah type is listed,
	// e.g. every Monday/Thursday fast counts toward the vow.
	TriggerTypes []FastingType `json:"triggerTypes,omitempty" yaml:"trigger_types,omitempty"`
	// Weekdays matches by day of week, 0 = Sunday through 6 = Saturday.
	Weekdays []time.Weekday `json:"weekdays,omitempty" yaml:"weekdays,omitempty"`
	// ExplicitDates matches specific ISO dates.
	ExplicitDates []string `json:"explicitDates,omitempty" yaml:"explicit_dates,omitempty"`
	ValidFrom     string   `json:"validFrom,omitempty" yaml:"valid_from,omitempty"`
	ValidTo       string   `json:"validTo,omitempty" yaml:"valid_to,omitempty"`
}

var ErrInvalidRecurrence = errors.New("invalid recurrence config")

// Validate checks every field for well-formedness.
func (c RecurrenceConfig) Validate() error {
	var errs []error
	for _, t := range c.TriggerTypes {
		if !t.Valid() {
			errs = append(errs, fmt.Errorf("unknown trigger type %q", t))
		}
	}
	for _, wd := range c.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			errs = append(errs, fmt.Errorf("weekday %d out of range 0-6", wd))
		}
	}
	for _, d := range c.ExplicitDates {
		if _, err := time.Parse(DateLayout, d); err != nil {
			errs = append(errs, fmt.Errorf("explicit date %q is not YYYY-MM-DD", d))
		}
	}
	for name, d := range map[string]string{"validFrom": c.ValidFrom, "validTo": c.ValidTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, d); err != nil {
			errs = append(errs, fmt.Errorf("%s %q is not YYYY-MM-DD", name, d))
		}
	}
	if c.ValidFrom != "" && c.ValidTo != "" && c.ValidTo < c.ValidFrom {
		errs = append(errs, errors.New("validTo is before validFrom"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecurrence, errors.Join(errs...))
	}
	return nil
}

// IsZero reports whether the config has no trigger at all.
func (c RecurrenceConfig) IsZero() bool {
	return len(c.TriggerTypes) == 0 && len(c.Weekdays) == 0 && len(c.ExplicitDates) == 0
}

// InWindow reports whether date lies inside [ValidFrom, ValidTo]. Unset bounds
// are open.
func (c RecurrenceConfig) InWindow(date time.Time) bool {
	iso := date.Format(DateLayout)
	if c.ValidFrom != "" && iso < c.ValidFrom {
		return false
	}
	if c.ValidTo != "" && iso > c.ValidTo {
		return false
	}
	return true
}

// Matches reports whether the obligation falls on date. typeOfDay is the
// canonical sunnah type of the day, or None.
func (c RecurrenceConfig) Matches(date time.Time, typeOfDay FastingType) bool {
	if !c.InWindow(date) {
		return false
	}
	if slices.Contains(c.Weekdays, date.Weekday()) {
		return true
	}
	if slices.Contains(c.ExplicitDates, date.Format(DateLayout)) {
		return true
	}
	return typeOfDay != None && slices.Contains(c.TriggerTypes, typeOfDay)
}

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// RRule returns the weekday trigger as a weekly recurrence rule starting at
// dtstart, or nil when the config has no weekdays. ValidTo becomes UNTIL.
func (c RecurrenceConfig) RRule(dtstart time.Time) (*rrule.RRule, error) {
	if len(c.Weekdays) == 0 {
		return nil, nil
	}

	opt := rrule.ROption{
		Freq:    rrule.WEEKLY,
		Dtstart: dtstart,
	}
	for _, wd := range c.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return nil, fmt.Errorf("weekday %d out of range 0-6", wd)
		}
		opt.Byweekday = append(opt.Byweekday, rruleWeekdays[wd])
	}
	if c.ValidTo != "" {
		until, err := time.ParseInLocation(DateLayout, c.ValidTo, dtstart.Location())
		if err != nil {
			return nil, fmt.Errorf("parse validTo: %w", err)
		}
		opt.Until = until
	}

	return rrule.NewRRule(opt)
}

// Schedule lists the days in [from, until] scheduled by the weekday and
// explicit-date triggers, in order. Trigger types depend on the Hijri
// calendar and are not expanded here.
func (c RecurrenceConfig) Schedule(from, until time.Time) ([]time.Time, error) {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	until = time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.UTC)

	var set rrule.Set
	r, err := c.RRule(from)
	if err != nil {
		return nil, err
	}
	if r != nil {
		set.RRule(r)
	}
	for _, d := range c.ExplicitDates {
		t, err := time.Parse(DateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("parse explicit date: %w", err)
		}
		set.RDate(t)
	}

	var out []time.Time
	for _, t := range set.Between(from, until, true) {
		if c.InWindow(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) }), nil
}
