package fasting

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

// Format constants for display modes.
const (
	FormatLabel      = "label"
	FormatShort      = "short"
	FormatHijri      = "hijri"
	FormatLabelHijri = "label-and-hijri"
	FormatFull       = "full"
)

// ShortNames maps types to compact status-line tags.
var ShortNames = map[FastingType]string{
	MondayThursday: "SK",
	AyyamulBidh:    "AB",
	Ramadhan:       "RMD",
	Nadzar:         "NZ",
	Qadha:          "QD",
	Other:          "OT",
}

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Label     string // e.g. "Senin-Kamis + Qadha"
	Type      string // canonical type, "" when none
	ShortName string // e.g. "SK"
	Hijri     string // e.g. "14 Sya'ban 1445 H"
	HijriDay  int
	Month     string // Hijri month name
	Date      string // Gregorian date, YYYY-MM-DD
	Forbidden bool
	Reason    string
	Nadzar    bool
	Qadha     bool
}

// FormatOutput formats a day's recommendation according to mode.
//
// If mode contains "{{", it is treated as a custom Go template string.
// Available template fields: .Label, .Type, .ShortName, .Hijri, .HijriDay,
// .Month, .Date, .Forbidden, .Reason, .Nadzar, .Qadha
//
// Example: "{{.ShortName}} {{.HijriDay}}" -> "SK 14"
func FormatOutput(rec Recommendation, date time.Time, h hijri.Date, mode string) string {
	short := shortName(rec)

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, FormatData{
			Label:     rec.Label(),
			Type:      string(rec.Type),
			ShortName: short,
			Hijri:     h.String(),
			HijriDay:  h.Day,
			Month:     h.Month.Name,
			Date:      date.Format(DateLayout),
			Forbidden: rec.IsForbidden,
			Reason:    rec.Reason,
			Nadzar:    rec.IsNadzar,
			Qadha:     rec.IsQadha,
		})
	}

	switch mode {
	case FormatShort:
		return short
	case FormatHijri:
		return h.String()
	case FormatLabelHijri:
		return fmt.Sprintf("%s | %s", rec.Label(), h.String())
	case FormatFull:
		return fmt.Sprintf("%s | %s | %s", date.Format("Mon 02 Jan"), h.String(), rec.Label())
	default:
		return rec.Label()
	}
}

func shortName(rec Recommendation) string {
	if rec.IsForbidden {
		return "X"
	}
	s := ShortNames[rec.Type]
	if s == "" {
		return "-"
	}
	if rec.IsQadha && rec.Type != Qadha {
		s += "+" + ShortNames[Qadha]
	}
	if rec.IsNadzar && rec.Type != Nadzar {
		s += "+" + ShortNames[Nadzar]
	}
	return s
}

// formatCustom executes a user-provided Go template string against the FormatData.
func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}
