// Package hijri converts between the Gregorian and the Hijri (Islamic lunar)
// calendars.
//
// The conversion uses the arithmetic (tabular) Islamic calendar with the civil
// epoch of 16 July 622 (Julian). Months alternate between 30 and 29 days and
// the last month gains a day in 11 leap years of every 30-year cycle. The
// tabular calendar can drift a day or two from locally observed moon
// sighting; callers compensate with an integer day offset.
package hijri

import (
	"fmt"
	"math"
	"time"
)

const (
	// epochJDN is the Julian Day Number of 1 Muharram 1 AH.
	epochJDN = 1948440
	// unixEpochJDN is the Julian Day Number of 1970-01-01.
	unixEpochJDN = 2440588

	// Era is the label appended to Hijri years.
	Era = "H"
)

// monthNames holds the Hijri month names, indexed by month number - 1.
var monthNames = [12]string{
	"Muharram",
	"Safar",
	"Rabiul Awal",
	"Rabiul Akhir",
	"Jumadil Awal",
	"Jumadil Akhir",
	"Rajab",
	"Sya'ban",
	"Ramadhan",
	"Syawal",
	"Dzulqa'dah",
	"Dzulhijjah",
}

// Month numbers that the fasting rules refer to.
const (
	Ramadhan   = 9
	Syawal     = 10
	Dzulhijjah = 12
)

// Month identifies a Hijri month.
type Month struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Date is a Hijri calendar date.
type Date struct {
	Day   int    `json:"day"`
	Month Month  `json:"month"`
	Year  int    `json:"year"`
	Era   string `json:"era"`
}

// NewDate builds a Date with the canonical month name and era label.
func NewDate(year, month, day int) Date {
	return Date{
		Day:   day,
		Month: Month{Number: month, Name: MonthName(month)},
		Year:  year,
		Era:   Era,
	}
}

// MonthName returns the name of the given Hijri month, or "" if out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// Valid reports whether the date has an in-range day and month.
func (d Date) Valid() bool {
	return d.Day >= 1 && d.Day <= 30 && d.Month.Number >= 1 && d.Month.Number <= 12
}

// String returns the date as "DD MonthName YYYY H".
func (d Date) String() string {
	era := d.Era
	if era == "" {
		era = Era
	}
	return fmt.Sprintf("%d %s %d %s", d.Day, d.Month.Name, d.Year, era)
}

// Mapping pairs a Gregorian day with its Hijri date.
type Mapping struct {
	Gregorian time.Time `json:"gregorian"`
	Hijri     Date      `json:"hijri"`
}

// ToHijri converts the civil date of t, shifted by offsetDays, to a Hijri date.
// Only the year, month and day of t are used.
func ToHijri(t time.Time, offsetDays int) Date {
	jdn := gregorianToJDN(t) + offsetDays
	y, m, d := jdnToHijri(jdn)
	return NewDate(y, m, d)
}

// ToGregorian returns the Gregorian day (UTC midnight) for which
// ToHijri(day, offsetDays) yields the given Hijri date.
func ToGregorian(year, month, day, offsetDays int) time.Time {
	return jdnToGregorian(hijriToJDN(year, month, day) - offsetDays)
}

// MonthLength returns the number of days (29 or 30) in the given Hijri month.
func MonthLength(year, month int) int {
	switch {
	case month%2 == 1:
		return 30
	case month == 12 && IsLeapYear(year):
		return 30
	}
	return 29
}

// IsLeapYear reports whether the Hijri year has 355 days.
func IsLeapYear(year int) bool {
	return floorDiv(14+11*year, 30)-floorDiv(3+11*year, 30) == 1
}

// Civil truncates t to midnight UTC of its own calendar day.
func Civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func gregorianToJDN(t time.Time) int {
	days := Civil(t).Unix() / 86400
	return int(days) + unixEpochJDN
}

func jdnToGregorian(jdn int) time.Time {
	return time.Unix(int64(jdn-unixEpochJDN)*86400, 0).UTC()
}

func hijriToJDN(year, month, day int) int {
	return day +
		(59*(month-1)+1)/2 +
		(year-1)*354 +
		floorDiv(3+11*year, 30) +
		epochJDN - 1
}

func jdnToHijri(jdn int) (year, month, day int) {
	year = floorDiv(30*(jdn-epochJDN)+10646, 10631)
	x := jdn - 29 - hijriToJDN(year, 1, 1)
	month = int(math.Ceil(float64(2*x)/59)) + 1
	if month > 12 {
		month = 12
	}
	day = jdn - hijriToJDN(year, month, 1) + 1
	return year, month, day
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
