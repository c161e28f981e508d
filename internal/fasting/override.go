package fasting

import (
	"errors"
	"fmt"
	"time"

	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

// MaxOverrideSpanDays bounds EndDate - StartDate of a RamadhanOverride.
const MaxOverrideSpanDays = 40

var (
	ErrOverrideDate     = errors.New("ramadhan override has an invalid date")
	ErrOverrideReversed = errors.New("ramadhan override ends before it starts")
	ErrOverrideSpan     = fmt.Errorf("ramadhan override spans more than %d days", MaxOverrideSpanDays)
)

// RamadhanOverride pins Ramadhan to explicit Gregorian dates, for users whose
// local authority declared the month differently from the tabular calendar.
// The day after EndDate is treated as Eid al-Fitr.
type RamadhanOverride struct {
	StartDate string `json:"startDate" yaml:"start_date"`
	EndDate   string `json:"endDate" yaml:"end_date"`
}

// Validate reports why the override cannot be used, or nil.
func (o RamadhanOverride) Validate() error {
	start, err := time.Parse(DateLayout, o.StartDate)
	if err != nil {
		return fmt.Errorf("%w: start %q", ErrOverrideDate, o.StartDate)
	}
	end, err := time.Parse(DateLayout, o.EndDate)
	if err != nil {
		return fmt.Errorf("%w: end %q", ErrOverrideDate, o.EndDate)
	}
	if end.Before(start) {
		return ErrOverrideReversed
	}
	if days(end.Sub(start)) > MaxOverrideSpanDays {
		return ErrOverrideSpan
	}
	return nil
}

// Active returns the override when it is set and valid. An invalid override
// behaves exactly as if none were configured.
func Active(o *RamadhanOverride) (*RamadhanOverride, bool) {
	if o == nil || o.Validate() != nil {
		return nil, false
	}
	return o, true
}

// Contains reports whether the civil day of t lies within [StartDate, EndDate].
// The override must be valid.
func (o RamadhanOverride) Contains(t time.Time) bool {
	iso := t.Format(DateLayout)
	return iso >= o.StartDate && iso <= o.EndDate
}

// EidAlFitr returns the day after EndDate. The override must be valid.
func (o RamadhanOverride) EidAlFitr() time.Time {
	end, _ := time.Parse(DateLayout, o.EndDate)
	return end.AddDate(0, 0, 1)
}

// HijriYear returns the Hijri year whose Ramadhan the override replaces, the
// tabular year of StartDate. The override must be valid.
func (o RamadhanOverride) HijriYear() int {
	start, _ := time.Parse(DateLayout, o.StartDate)
	return hijri.ToHijri(start, 0).Year
}

// Days returns the number of days covered by the override, inclusive.
func (o RamadhanOverride) Days() int {
	start, err1 := time.Parse(DateLayout, o.StartDate)
	end, err2 := time.Parse(DateLayout, o.EndDate)
	if err1 != nil || err2 != nil {
		return 0
	}
	return days(end.Sub(start)) + 1
}

func days(d time.Duration) int {
	return int(d.Hours() / 24)
}

// sameDay compares the civil days of a and b.
func sameDay(a, b time.Time) bool {
	return hijri.Civil(a).Equal(hijri.Civil(b))
}
