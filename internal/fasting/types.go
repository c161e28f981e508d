// Package fasting decides which fast, if any, applies to a given day.
//
// Everything here is a pure function of its inputs: the Gregorian day, its
// Hijri date, the user's Nadzar and Qadha recurrence configs and an optional
// manual Ramadhan override. Nothing is cached and nothing is read from
// ambient state.
package fasting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

// DateLayout is the ISO layout used for every date string in configs and logs.
const DateLayout = "2006-01-02"

// FastingType tags a kind of fast. The zero value means "no fast".
type FastingType string

const (
	None           FastingType = ""
	MondayThursday FastingType = "monday_thursday"
	AyyamulBidh    FastingType = "ayyamul_bidh"
	Ramadhan       FastingType = "ramadhan"
	Nadzar         FastingType = "nadzar"
	Qadha          FastingType = "qadha"
	Other          FastingType = "other"
)

// AllTypes lists every non-empty FastingType.
var AllTypes = []FastingType{MondayThursday, AyyamulBidh, Ramadhan, Nadzar, Qadha, Other}

var typeLabels = map[FastingType]string{
	MondayThursday: "Senin-Kamis",
	AyyamulBidh:    "Ayyamul Bidh",
	Ramadhan:       "Ramadhan",
	Nadzar:         "Nadzar",
	Qadha:          "Qadha",
	Other:          "Other",
}

// Label returns a human-readable name.
func (t FastingType) Label() string {
	return typeLabels[t]
}

// Valid reports whether t is one of the known types (None excluded).
func (t FastingType) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

// ParseType parses a type name. It accepts the canonical value as well as
// the label, case-insensitively.
func ParseType(s string) (FastingType, error) {
	s = strings.TrimSpace(s)
	for _, t := range AllTypes {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, t.Label()) {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown fasting type %q", s)
}

// MarshalJSON encodes None as null.
func (t FastingType) MarshalJSON() ([]byte, error) {
	if t == None {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

// UnmarshalJSON accepts null as None.
func (t *FastingType) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = None
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = FastingType(s)
	return nil
}

// Recommendation is the resolved outcome for a single day.
type Recommendation struct {
	Type        FastingType `json:"type"`
	IsForbidden bool        `json:"isForbidden"`
	IsNadzar    bool        `json:"isNadzar"`
	IsQadha     bool        `json:"isQadha"`
	// Reason names the holiday when IsForbidden is set.
	Reason string `json:"reason,omitempty"`
}

// Label describes the recommendation in one short phrase.
func (r Recommendation) Label() string {
	switch {
	case r.IsForbidden:
		if r.Reason != "" {
			return "Forbidden (" + r.Reason + ")"
		}
		return "Forbidden"
	case r.Type == None:
		return "-"
	}

	label := r.Type.Label()
	var extra []string
	if r.IsQadha && r.Type != Qadha {
		extra = append(extra, Qadha.Label())
	}
	if r.IsNadzar && r.Type != Nadzar {
		extra = append(extra, Nadzar.Label())
	}
	if len(extra) > 0 {
		label += " + " + strings.Join(extra, " + ")
	}
	return label
}

// Log is a user's record of a fast. The engine never produces logs; they are
// kept by the store and read by statistics.
type Log struct {
	ID          string      `json:"id"`
	Date        string      `json:"date"`
	Type        FastingType `json:"type"`
	IsCompleted bool        `json:"isCompleted"`
	IsNadzar    bool        `json:"isNadzar,omitempty"`
	IsQadha     bool        `json:"isQadha,omitempty"`
}

// Profile bundles one user's fasting settings. It is read fresh for every
// query; the engine never keeps it.
type Profile struct {
	Nadzar   RecurrenceConfig  `json:"nadzar" yaml:"nadzar"`
	Qadha    RecurrenceConfig  `json:"qadha" yaml:"qadha"`
	Override *RamadhanOverride `json:"ramadhanOverride,omitempty" yaml:"ramadhan_override,omitempty"`
}

// Resolve applies Resolve with the profile's settings.
func (p Profile) Resolve(date time.Time, h hijri.Date) Recommendation {
	return Resolve(date, h, p.Nadzar, p.Qadha, p.Override)
}
