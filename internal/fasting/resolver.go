package fasting

import (
	"time"

	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

// Resolve returns the recommendation for date, whose Hijri date is h.
//
// Rules, first match wins:
//  1. Ramadhan: inside a valid override, or Hijri month 9 of any year the
//     override does not cover. Ramadhan days are never prohibited.
//  2. Prohibited days yield no type at all.
//  3. A Qadha match labels the day Qadha unless it is also a sunnah day, in
//     which case the sunnah name (Monday/Thursday before Ayyamul Bidh) is
//     kept and IsQadha is set. IsNadzar is set too when the vow matches.
//  4. A Nadzar match, labelled the same way.
//  5. Otherwise Ayyamul Bidh, then Monday/Thursday.
func Resolve(date time.Time, h hijri.Date, nadzar, qadha RecurrenceConfig, override *RamadhanOverride) Recommendation {
	if IsRamadhan(date, h, override) {
		return Recommendation{Type: Ramadhan}
	}

	if reason := ProhibitedReason(h, date, override); reason != "" {
		return Recommendation{IsForbidden: true, Reason: reason}
	}

	tags := sunnahTags(date, h)
	isQadha := matchesDay(qadha, date, tags)
	isNadzar := matchesDay(nadzar, date, tags)

	switch {
	case isQadha:
		return Recommendation{Type: obligationType(tags, Qadha), IsQadha: true, IsNadzar: isNadzar}
	case isNadzar:
		return Recommendation{Type: obligationType(tags, Nadzar), IsNadzar: true}
	default:
		return Recommendation{Type: SunnahType(date, h)}
	}
}

// IsRamadhan reports whether date is a day of Ramadhan. A valid override
// replaces the calendar month of the Hijri year it covers; other years
// keep calendar month 9.
func IsRamadhan(date time.Time, h hijri.Date, override *RamadhanOverride) bool {
	if o, ok := Active(override); ok {
		if o.Contains(date) {
			return true
		}
		if h.Year == o.HijriYear() {
			return false
		}
	}
	return h.Month.Number == hijri.Ramadhan
}

// SunnahType returns the voluntary fast that the calendar suggests for the
// day, ignoring prohibitions and Ramadhan: Ayyamul Bidh before
// Monday/Thursday.
func SunnahType(date time.Time, h hijri.Date) FastingType {
	switch {
	case IsAyyamulBidh(h):
		return AyyamulBidh
	case IsMondayThursday(date):
		return MondayThursday
	default:
		return None
	}
}

// sunnahTags lists every sunnah type that applies to the day.
func sunnahTags(date time.Time, h hijri.Date) []FastingType {
	var tags []FastingType
	if IsMondayThursday(date) {
		tags = append(tags, MondayThursday)
	}
	if IsAyyamulBidh(h) {
		tags = append(tags, AyyamulBidh)
	}
	return tags
}

// matchesDay checks c against the day once per sunnah tag, so a trigger on
// either Monday/Thursday or Ayyamul Bidh fires when the two coincide.
func matchesDay(c RecurrenceConfig, date time.Time, tags []FastingType) bool {
	if c.Matches(date, None) {
		return true
	}
	for _, tag := range tags {
		if c.Matches(date, tag) {
			return true
		}
	}
	return false
}

// obligationType labels a Qadha or Nadzar day by its sunnah name when it has
// one, Monday/Thursday first, falling back to the obligation itself.
func obligationType(tags []FastingType, fallback FastingType) FastingType {
	if len(tags) > 0 {
		return tags[0]
	}
	return fallback
}
