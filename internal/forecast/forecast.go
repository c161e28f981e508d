// Package forecast produces a month of fasting recommendations.
//
// A Generator converts every day of a requested month to Hijri, using a
// remote Lookup when one is configured and the local tabular calendar
// otherwise, then resolves each day with the fasting engine. Mappings are
// cached per month; recommendations are never cached.
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/smokyabdulrahman/shaum/internal/fasting"
	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

// Index selects the calendar a month request is expressed in.
type Index int

const (
	Gregorian Index = iota
	Hijri
)

func (i Index) String() string {
	if i == Hijri {
		return "hijri"
	}
	return "gregorian"
}

// ParseIndex accepts "gregorian" (or "") and "hijri".
func ParseIndex(s string) (Index, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gregorian":
		return Gregorian, nil
	case "hijri":
		return Hijri, nil
	}
	return Gregorian, fmt.Errorf("unknown month index %q (expected gregorian or hijri)", s)
}

// Source records where a day's Hijri date came from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Key identifies one cached month of date mappings. Every field that can
// change the mapping is part of the key.
type Key struct {
	Index      Index
	Year       int
	Month      int
	Method     string
	Adjustment int
}

func (k Key) String() string {
	method := k.Method
	if method == "" {
		method = "local"
	}
	return fmt.Sprintf("%s:%04d-%02d:%s:%+d", k.Index, k.Year, k.Month, method, k.Adjustment)
}

// Lookup resolves a whole month of Gregorian/Hijri pairs from an external
// calendar service.
type Lookup interface {
	GregorianToHijri(ctx context.Context, year, month, adjustment int) ([]hijri.Mapping, error)
	HijriToGregorian(ctx context.Context, year, month, adjustment int) ([]hijri.Mapping, error)
}

// Cache stores month mappings. A miss is reported with ok == false.
type Cache interface {
	LoadCalendar(ctx context.Context, key Key) ([]hijri.Mapping, bool)
	SaveCalendar(ctx context.Context, key Key, days []hijri.Mapping) error
}

// Request asks for one month of recommendations.
type Request struct {
	Index Index
	Year  int
	Month int
	fasting.Profile
}

// Validate checks the month coordinates.
func (r Request) Validate() error {
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("month %d out of range 1-12", r.Month)
	}
	if r.Year < 1 || r.Year > 9999 {
		return fmt.Errorf("year %d out of range", r.Year)
	}
	return nil
}

// Entry is one day of a forecast.
type Entry struct {
	Date           time.Time              `json:"-"`
	Hijri          hijri.Date             `json:"hijri"`
	Recommendation fasting.Recommendation `json:"recommendation"`
	Source         Source                 `json:"source"`
}

// MarshalJSON writes Date as an ISO day.
func (e Entry) MarshalJSON() ([]byte, error) {
	type entry Entry
	return json.Marshal(struct {
		Date    string `json:"date"`
		Weekday string `json:"weekday"`
		entry
	}{e.Date.Format(fasting.DateLayout), e.Date.Weekday().String(), entry(e)})
}

// Options configures a Generator. All fields are optional.
type Options struct {
	// Offset shifts the local conversion by whole days. It is also sent to
	// the Lookup as its adjustment, so remote results are not shifted again.
	Offset int
	// Method names the remote calendar method; it only takes part in cache keys.
	Method string
	Lookup Lookup
	Cache  Cache
	Logger *zerolog.Logger
}

// Generator builds monthly forecasts. It is safe for concurrent use.
type Generator struct {
	offset int
	method string
	lookup Lookup
	cache  Cache
	log    zerolog.Logger
	group  singleflight.Group
}

// New creates a Generator.
func New(opts Options) *Generator {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Generator{
		offset: opts.Offset,
		method: opts.Method,
		lookup: opts.Lookup,
		cache:  opts.Cache,
		log:    log.With().Str("component", "forecast").Logger(),
	}
}

// Day resolves a single day with the local calendar.
func (g *Generator) Day(date time.Time, p fasting.Profile) Entry {
	date = hijri.Civil(date)
	h := hijri.ToHijri(date, g.offset)
	return Entry{Date: date, Hijri: h, Recommendation: p.Resolve(date, h), Source: SourceLocal}
}

// Month yields every day of the requested month in date order. Days are
// produced lazily; a consumer that stops early stops the work. An invalid
// request yields nothing.
func (g *Generator) Month(ctx context.Context, req Request) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if err := req.Validate(); err != nil {
			g.log.Warn().Err(err).Msg("invalid month request")
			return
		}
		if req.Override != nil {
			if err := req.Override.Validate(); err != nil {
				g.log.Warn().Err(err).
					Str("start", req.Override.StartDate).
					Str("end", req.Override.EndDate).
					Msg("ignoring ramadhan override")
			}
		}

		if req.Index == Hijri {
			g.hijriMonth(ctx, req, yield)
			return
		}
		g.gregorianMonth(ctx, req, yield)
	}
}

// Collect gathers a month into a slice.
func (g *Generator) Collect(ctx context.Context, req Request) []Entry {
	var out []Entry
	for e := range g.Month(ctx, req) {
		out = append(out, e)
	}
	return out
}

// Range yields days consecutive days starting at from, crossing month
// boundaries as needed.
func (g *Generator) Range(ctx context.Context, from time.Time, days int, p fasting.Profile) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		from = hijri.Civil(from)
		until := from.AddDate(0, 0, days)
		for cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); cur.Before(until); cur = cur.AddDate(0, 1, 0) {
			req := Request{Index: Gregorian, Year: cur.Year(), Month: int(cur.Month()), Profile: p}
			for e := range g.Month(ctx, req) {
				if e.Date.Before(from) {
					continue
				}
				if !e.Date.Before(until) || !yield(e) {
					return
				}
			}
		}
	}
}

func (g *Generator) gregorianMonth(ctx context.Context, req Request, yield func(Entry) bool) {
	key := g.key(Gregorian, req.Year, req.Month)
	remote := make(map[string]hijri.Date)
	if days, ok := g.mappings(ctx, key); ok {
		for _, m := range days {
			remote[m.Gregorian.Format(fasting.DateLayout)] = m.Hijri
		}
	}

	n := daysIn(req.Year, time.Month(req.Month))
	for d := 1; d <= n; d++ {
		date := time.Date(req.Year, time.Month(req.Month), d, 0, 0, 0, 0, time.UTC)
		h, src := remote[date.Format(fasting.DateLayout)], SourceRemote
		if !h.Valid() {
			h, src = hijri.ToHijri(date, g.offset), SourceLocal
		}
		if !yield(Entry{Date: date, Hijri: h, Recommendation: req.Resolve(date, h), Source: src}) {
			return
		}
	}
}

func (g *Generator) hijriMonth(ctx context.Context, req Request, yield func(Entry) bool) {
	key := g.key(Hijri, req.Year, req.Month)
	if days, ok := g.mappings(ctx, key); ok {
		for _, m := range days {
			date := hijri.Civil(m.Gregorian)
			if !yield(Entry{Date: date, Hijri: m.Hijri, Recommendation: req.Resolve(date, m.Hijri), Source: SourceRemote}) {
				return
			}
		}
		return
	}

	n := hijri.MonthLength(req.Year, req.Month)
	start := hijri.ToGregorian(req.Year, req.Month, 1, g.offset)
	for d := 1; d <= n; d++ {
		date := start.AddDate(0, 0, d-1)
		h := hijri.NewDate(req.Year, req.Month, d)
		if !yield(Entry{Date: date, Hijri: h, Recommendation: req.Resolve(date, h), Source: SourceLocal}) {
			return
		}
	}
}

func (g *Generator) key(idx Index, year, month int) Key {
	k := Key{Index: idx, Year: year, Month: month}
	if g.lookup != nil {
		k.Method = g.method
		k.Adjustment = g.offset
	}
	return k
}

// mappings returns a validated month of mappings from the cache or the
// lookup. ok is false when the caller should convert locally.
func (g *Generator) mappings(ctx context.Context, key Key) ([]hijri.Mapping, bool) {
	if g.lookup == nil {
		return nil, false
	}

	if g.cache != nil {
		if days, ok := g.cache.LoadCalendar(ctx, key); ok {
			err := validate(key, days)
			if err == nil {
				return days, true
			}
			g.log.Warn().Err(err).Str("key", key.String()).Msg("discarding malformed cache entry")
		}
	}

	v, err, _ := g.group.Do(key.String(), func() (any, error) {
		var days []hijri.Mapping
		var err error
		if key.Index == Hijri {
			days, err = g.lookup.HijriToGregorian(ctx, key.Year, key.Month, key.Adjustment)
		} else {
			days, err = g.lookup.GregorianToHijri(ctx, key.Year, key.Month, key.Adjustment)
		}
		if err != nil {
			return nil, err
		}
		if err := validate(key, days); err != nil {
			return nil, fmt.Errorf("%w: %w", errMalformed, err)
		}
		if g.cache != nil {
			if err := g.cache.SaveCalendar(ctx, key, days); err != nil {
				g.log.Warn().Err(err).Str("key", key.String()).Msg("failed to cache calendar month")
			}
		}
		return days, nil
	})
	switch {
	case errors.Is(err, errMalformed):
		g.log.Warn().Err(err).Str("key", key.String()).Msg("remote calendar returned malformed data, using local calendar")
		return nil, false
	case err != nil:
		g.log.Warn().Err(err).Str("key", key.String()).Msg("remote calendar lookup failed, using local calendar")
		return nil, false
	}
	return v.([]hijri.Mapping), true
}

var errMalformed = errors.New("malformed calendar month")

// validate rejects mappings that do not belong to the month named by key.
func validate(key Key, days []hijri.Mapping) error {
	if len(days) == 0 {
		return errors.New("empty month")
	}
	for i, m := range days {
		if !m.Hijri.Valid() {
			return fmt.Errorf("day %d: invalid hijri date %+v", i+1, m.Hijri)
		}
		if m.Gregorian.IsZero() {
			return fmt.Errorf("day %d: missing gregorian date", i+1)
		}
		switch key.Index {
		case Gregorian:
			if m.Gregorian.Year() != key.Year || int(m.Gregorian.Month()) != key.Month {
				return fmt.Errorf("day %d: %s outside %04d-%02d", i+1, m.Gregorian.Format(fasting.DateLayout), key.Year, key.Month)
			}
		case Hijri:
			if m.Hijri.Year != key.Year || m.Hijri.Month.Number != key.Month {
				return fmt.Errorf("day %d: %s outside hijri %d/%d", i+1, m.Hijri, key.Year, key.Month)
			}
		}
	}
	if key.Index == Hijri && !coversHijriMonth(days, key.Year, key.Month) {
		return fmt.Errorf("hijri %d/%d: %d days do not cover the month day by day", key.Year, key.Month, len(days))
	}
	return nil
}

// coversHijriMonth reports whether days run 1..n without gaps, n being a
// plausible month length.
func coversHijriMonth(days []hijri.Mapping, year, month int) bool {
	if len(days) < 29 || len(days) > 30 {
		return false
	}
	for i, m := range days {
		if m.Hijri.Year != year || m.Hijri.Month.Number != month || m.Hijri.Day != i+1 {
			return false
		}
		if i > 0 && !hijri.Civil(m.Gregorian).Equal(hijri.Civil(days[i-1].Gregorian).AddDate(0, 0, 1)) {
			return false
		}
	}
	return true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
