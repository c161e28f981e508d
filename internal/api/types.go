package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

// CalendarResponse represents the Al Adhan calendar conversion response.
// Both gToHCalendar and hToGCalendar return an array of daily data objects
// for a whole month.
type CalendarResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   []Day  `json:"data"`
}

// Day pairs one Hijri date with its Gregorian equivalent.
type Day struct {
	Hijri     HijriDate     `json:"hijri"`
	Gregorian GregorianDate `json:"gregorian"`
}

// HijriDate represents the Hijri (Islamic) date from the API response.
type HijriDate struct {
	Date        string           `json:"date"` // e.g. "10-08-1447"
	Day         string           `json:"day"`
	Month       HijriMonth       `json:"month"`
	Year        string           `json:"year"`
	Designation HijriDesignation `json:"designation"`
	Holidays    []string         `json:"holidays"`
	Method      string           `json:"method"`
}

// HijriMonth represents the month in the Hijri calendar.
type HijriMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"` // English name, e.g. "Shaʿbān"
	Ar     string `json:"ar"` // Arabic name
	Days   int    `json:"days"`
}

// HijriDesignation contains the calendar designation labels.
type HijriDesignation struct {
	Abbreviated string `json:"abbreviated"` // "AH"
	Expanded    string `json:"expanded"`    // "Anno Hegirae"
}

// ToDate converts the API representation into a hijri.Date, using our own
// month names. It fails on non-numeric or out-of-range fields.
func (h HijriDate) ToDate() (hijri.Date, error) {
	day, err := strconv.Atoi(h.Day)
	if err != nil {
		return hijri.Date{}, fmt.Errorf("invalid hijri day %q", h.Day)
	}
	year, err := strconv.Atoi(h.Year)
	if err != nil {
		return hijri.Date{}, fmt.Errorf("invalid hijri year %q", h.Year)
	}
	d := hijri.NewDate(year, h.Month.Number, day)
	if !d.Valid() {
		return hijri.Date{}, fmt.Errorf("hijri date %s-%d-%s out of range", h.Day, h.Month.Number, h.Year)
	}
	return d, nil
}

// GregorianDate represents the Gregorian date from the API response.
type GregorianDate struct {
	Date    string         `json:"date"` // e.g. "28-02-2026"
	Day     string         `json:"day"`
	Weekday GregorianDay   `json:"weekday"`
	Month   GregorianMonth `json:"month"`
	Year    string         `json:"year"`
}

// GregorianDay contains the weekday name.
type GregorianDay struct {
	En string `json:"en"` // e.g. "Saturday"
}

// GregorianMonth contains the month details.
type GregorianMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"` // e.g. "February"
}

// Time parses the DD-MM-YYYY date into UTC midnight.
func (g GregorianDate) Time() (time.Time, error) {
	t, err := time.Parse("02-01-2006", g.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid gregorian date %q", g.Date)
	}
	return t, nil
}

// Mappings converts a calendar response into date pairs.
func (r *CalendarResponse) Mappings() ([]hijri.Mapping, error) {
	out := make([]hijri.Mapping, 0, len(r.Data))
	for i, d := range r.Data {
		g, err := d.Gregorian.Time()
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", i+1, err)
		}
		h, err := d.Hijri.ToDate()
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", i+1, err)
		}
		out = append(out, hijri.Mapping{Gregorian: g, Hijri: h})
	}
	return out, nil
}
