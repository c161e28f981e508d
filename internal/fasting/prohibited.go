package fasting

import (
	"time"

	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

// Holiday labels.
const (
	EidAlFitr = "Eid al-Fitr"
	EidAlAdha = "Eid al-Adha"
	Tasyrik   = "Tasyrik"
)

type monthDay struct {
	month, day int
}

// prohibitedDays lists the days on which fasting is forbidden.
var prohibitedDays = map[monthDay]string{
	{hijri.Syawal, 1}:      EidAlFitr,
	{hijri.Dzulhijjah, 10}: EidAlAdha,
	{hijri.Dzulhijjah, 11}: Tasyrik,
	{hijri.Dzulhijjah, 12}: Tasyrik,
	{hijri.Dzulhijjah, 13}: Tasyrik,
}

// ProhibitedReason returns the holiday that forbids fasting on date, or "".
//
// With a valid override, the day after its EndDate is Eid al-Fitr no matter
// what the tabular Hijri date says. The tabular table still applies on top.
// TODO: decide whether a manual Eid al-Fitr shift should also move the
// Dzulhijjah holidays; they currently follow the tabular date only.
func ProhibitedReason(h hijri.Date, date time.Time, override *RamadhanOverride) string {
	if o, ok := Active(override); ok && sameDay(date, o.EidAlFitr()) {
		return EidAlFitr
	}
	return prohibitedDays[monthDay{h.Month.Number, h.Day}]
}

// IsProhibited reports whether fasting is forbidden on date.
func IsProhibited(h hijri.Date, date time.Time, override *RamadhanOverride) bool {
	return ProhibitedReason(h, date, override) != ""
}

// IsAyyamulBidh reports whether h is one of the white days (13th to 15th).
// 13 Dzulhijjah is a Tasyrik day and never counts.
func IsAyyamulBidh(h hijri.Date) bool {
	if h.Day < 13 || h.Day > 15 {
		return false
	}
	return !(h.Month.Number == hijri.Dzulhijjah && h.Day == 13)
}

// IsMondayThursday reports whether date falls on a Monday or Thursday.
func IsMondayThursday(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Monday || wd == time.Thursday
}
