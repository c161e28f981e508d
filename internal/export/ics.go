// Package export writes fasting forecasts and recurring obligations as
// iCalendar (RFC 5545) files that calendar apps can subscribe to.
package export

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/smokyabdulrahman/shaum/internal/fasting"
	"github.com/smokyabdulrahman/shaum/internal/forecast"
	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

const (
	productID = "-//shaum//fasting calendar//EN"
	uidDomain = "shaum"
)

// Calendar accumulates all-day events.
type Calendar struct {
	cal   *ical.Calendar
	stamp time.Time
}

// New starts a calendar. stamp becomes every event's DTSTAMP.
func New(name string, stamp time.Time) *Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	return &Calendar{cal: cal, stamp: stamp.UTC()}
}

// AddEntries adds one event per day that has something to say: a fast to
// keep or a day on which fasting is forbidden. It returns the number added.
func (c *Calendar) AddEntries(entries iter.Seq[forecast.Entry]) int {
	n := 0
	for e := range entries {
		rec := e.Recommendation
		if rec.Type == fasting.None && !rec.IsForbidden {
			continue
		}
		ev := c.allDay(fmt.Sprintf("%s-day@%s", e.Date.Format(fasting.DateLayout), uidDomain), e.Date)
		ev.SetSummary(rec.Label())
		ev.SetDescription(e.Hijri.String())
		ev.AddProperty(ical.ComponentPropertyCategories, category(rec))
		n++
	}
	return n
}

// AddRules adds the Nadzar and Qadha obligations of p for [from, until]: a
// weekly recurring event for the weekday rule and one event per explicit
// date or Hijri trigger day. Ramadhan and forbidden days inside the range
// are left out, as EXDATEs on the weekly event. offset shifts the Hijri
// calendar as it does for forecasts.
func (c *Calendar) AddRules(p fasting.Profile, from, until time.Time, offset int) (int, error) {
	from = hijri.Civil(from)
	until = hijri.Civil(until)
	n := 0
	for _, rule := range []struct {
		typ fasting.FastingType
		cfg fasting.RecurrenceConfig
	}{{fasting.Qadha, p.Qadha}, {fasting.Nadzar, p.Nadzar}} {
		added, err := c.addRule(rule.typ, rule.cfg, p.Override, from, until, offset)
		if err != nil {
			return n, fmt.Errorf("%s: %w", rule.typ.Label(), err)
		}
		n += added
	}
	return n, nil
}

func (c *Calendar) addRule(typ fasting.FastingType, cfg fasting.RecurrenceConfig, o *fasting.RamadhanOverride, from, until time.Time, offset int) (int, error) {
	if cfg.IsZero() {
		return 0, nil
	}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	start := from
	if cfg.ValidFrom != "" {
		if vf, _ := time.Parse(fasting.DateLayout, cfg.ValidFrom); vf.After(start) {
			start = vf
		}
	}
	if until.Before(start) {
		return 0, nil
	}

	skip := func(d time.Time) bool {
		h := hijri.ToHijri(d, offset)
		return fasting.IsRamadhan(d, h, o) || fasting.IsProhibited(h, d, o)
	}

	n := 0
	r, err := cfg.RRule(start)
	if err != nil {
		return 0, err
	}
	if r != nil {
		if first := r.After(start.Add(-time.Second), true); !first.IsZero() {
			ev := c.allDay(fmt.Sprintf("%s-weekly@%s", typ, uidDomain), first)
			ev.SetSummary(typ.Label())
			ev.AddRrule(r.OrigOptions.RRuleString())
			ev.SetDescription(ruleDescription(cfg))
			ev.AddProperty(ical.ComponentPropertyCategories, string(typ))
			for _, d := range r.Between(start, until, true) {
				if skip(d) {
					ev.AddProperty(ical.ComponentPropertyExdate, d.Format("20060102"), ical.WithValue(string(ical.ValueDataTypeDate)))
				}
			}
			n++
		}
	}

	for d := start; !d.After(until); d = d.AddDate(0, 0, 1) {
		if !cfg.InWindow(d) || slices.Contains(cfg.Weekdays, d.Weekday()) || skip(d) {
			continue
		}
		iso := d.Format(fasting.DateLayout)
		trigger := triggeredBy(cfg, d, hijri.ToHijri(d, offset))
		if trigger == fasting.None && !slices.Contains(cfg.ExplicitDates, iso) {
			continue
		}
		ev := c.allDay(fmt.Sprintf("%s-%s@%s", typ, iso, uidDomain), d)
		ev.SetSummary(typ.Label())
		if trigger != fasting.None {
			ev.SetDescription(trigger.Label())
		}
		ev.AddProperty(ical.ComponentPropertyCategories, string(typ))
		n++
	}
	return n, nil
}

// triggeredBy returns the trigger type of cfg that fires on the day, or None.
func triggeredBy(cfg fasting.RecurrenceConfig, date time.Time, h hijri.Date) fasting.FastingType {
	for _, t := range cfg.TriggerTypes {
		switch {
		case t == fasting.MondayThursday && fasting.IsMondayThursday(date),
			t == fasting.AyyamulBidh && fasting.IsAyyamulBidh(h):
			return t
		}
	}
	return fasting.None
}

func (c *Calendar) allDay(uid string, date time.Time) *ical.VEvent {
	ev := c.cal.AddEvent(uid)
	ev.SetDtStampTime(c.stamp)
	ev.SetAllDayStartAt(date)
	ev.SetAllDayEndAt(date.AddDate(0, 0, 1))
	return ev
}

// Len returns the number of events.
func (c *Calendar) Len() int {
	return len(c.cal.Events())
}

// Encode writes the calendar to w.
func (c *Calendar) Encode(w io.Writer) error {
	return c.cal.SerializeTo(w)
}

// String returns the serialized calendar.
func (c *Calendar) String() string {
	return c.cal.Serialize()
}

func category(rec fasting.Recommendation) string {
	if rec.IsForbidden {
		return "forbidden"
	}
	return string(rec.Type)
}

func ruleDescription(cfg fasting.RecurrenceConfig) string {
	if len(cfg.TriggerTypes) == 0 {
		return ""
	}
	labels := make([]string, len(cfg.TriggerTypes))
	for i, t := range cfg.TriggerTypes {
		labels[i] = t.Label()
	}
	return "Also due on every " + strings.Join(labels, ", ") + " fast."
}
