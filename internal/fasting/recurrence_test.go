package fasting

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecurrenceConfig_Matches(t *testing.T) {
	tests := []struct {
		name string
		cfg  RecurrenceConfig
		date string
		typ  FastingType
		want bool
	}{
		{"empty", RecurrenceConfig{}, "2024-03-02", None, false},
		{"weekday", RecurrenceConfig{Weekdays: []time.Weekday{time.Saturday}}, "2024-03-02", None, true},
		{"other weekday", RecurrenceConfig{Weekdays: []time.Weekday{time.Sunday}}, "2024-03-02", None, false},
		{"explicit date", RecurrenceConfig{ExplicitDates: []string{"2024-03-02"}}, "2024-03-02", None, true},
		{"trigger type", RecurrenceConfig{TriggerTypes: []FastingType{MondayThursday}}, "2024-01-01", MondayThursday, true},
		{"trigger type without day type", RecurrenceConfig{TriggerTypes: []FastingType{MondayThursday}}, "2024-01-01", None, false},
		{"trigger type mismatch", RecurrenceConfig{TriggerTypes: []FastingType{AyyamulBidh}}, "2024-01-01", MondayThursday, false},
		{"before window", RecurrenceConfig{Weekdays: []time.Weekday{time.Saturday}, ValidFrom: "2024-03-03"}, "2024-03-02", None, false},
		{"after window", RecurrenceConfig{Weekdays: []time.Weekday{time.Saturday}, ValidTo: "2024-03-01"}, "2024-03-02", None, false},
		{"window bounds inclusive", RecurrenceConfig{ExplicitDates: []string{"2024-03-02"}, ValidFrom: "2024-03-02", ValidTo: "2024-03-02"}, "2024-03-02", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Matches(day(tt.date), tt.typ))
		})
	}
}

func TestRecurrenceConfig_Validate(t *testing.T) {
	ok := RecurrenceConfig{
		TriggerTypes:  []FastingType{MondayThursday},
		Weekdays:      []time.Weekday{time.Saturday},
		ExplicitDates: []string{"2024-03-02"},
		ValidFrom:     "2024-01-01",
		ValidTo:       "2024-12-31",
	}
	require.NoError(t, ok.Validate())

	bad := RecurrenceConfig{
		TriggerTypes:  []FastingType{"sometimes"},
		Weekdays:      []time.Weekday{7},
		ExplicitDates: []string{"2024/03/02"},
		ValidFrom:     "2024-12-31",
		ValidTo:       "2024-01-01",
	}
	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRecurrence))
	assert.Contains(t, err.Error(), "sometimes")
	assert.Contains(t, err.Error(), "weekday 7")
	assert.Contains(t, err.Error(), "2024/03/02")
	assert.Contains(t, err.Error(), "validTo is before validFrom")
}

func TestRecurrenceConfig_Schedule(t *testing.T) {
	cfg := RecurrenceConfig{
		Weekdays:      []time.Weekday{time.Saturday},
		ExplicitDates: []string{"2024-03-05", "2024-03-09", "2024-04-30"},
		ValidTo:       "2024-03-20",
	}

	got, err := cfg.Schedule(day("2024-03-01"), day("2024-03-31"))
	require.NoError(t, err)

	var iso []string
	for _, d := range got {
		iso = append(iso, d.Format(DateLayout))
	}
	assert.Equal(t, []string{"2024-03-02", "2024-03-05", "2024-03-09", "2024-03-16"}, iso)
}

func TestRecurrenceConfig_ScheduleEmpty(t *testing.T) {
	got, err := RecurrenceConfig{}.Schedule(day("2024-03-01"), day("2024-03-31"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecurrenceConfig_RRule(t *testing.T) {
	r, err := RecurrenceConfig{}.RRule(day("2024-03-01"))
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = RecurrenceConfig{Weekdays: []time.Weekday{time.Monday, time.Thursday}}.RRule(day("2024-03-01"))
	require.NoError(t, err)
	require.NotNil(t, r)

	rule := r.OrigOptions.RRuleString()
	assert.Contains(t, rule, "FREQ=WEEKLY")
	assert.Contains(t, rule, "BYDAY=MO,TH")
}

func TestRamadhanOverride_Validate(t *testing.T) {
	tests := []struct {
		name string
		o    RamadhanOverride
		want error
	}{
		{"valid", RamadhanOverride{"2024-03-11", "2024-04-09"}, nil},
		{"single day", RamadhanOverride{"2024-03-11", "2024-03-11"}, nil},
		{"exactly forty days", RamadhanOverride{"2024-03-01", "2024-04-10"}, nil},
		{"forty one days", RamadhanOverride{"2024-03-01", "2024-04-11"}, ErrOverrideSpan},
		{"reversed", RamadhanOverride{"2024-04-09", "2024-03-11"}, ErrOverrideReversed},
		{"bad start", RamadhanOverride{"", "2024-04-09"}, ErrOverrideDate},
		{"bad end", RamadhanOverride{"2024-03-11", "9 April"}, ErrOverrideDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.o.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRamadhanOverride_Helpers(t *testing.T) {
	o := RamadhanOverride{StartDate: "2024-03-11", EndDate: "2024-04-09"}

	assert.Equal(t, 30, o.Days())
	assert.Equal(t, "2024-04-10", o.EidAlFitr().Format(DateLayout))
	assert.True(t, o.Contains(day("2024-03-11")))
	assert.True(t, o.Contains(day("2024-04-09")))
	assert.False(t, o.Contains(day("2024-04-10")))

	_, ok := Active(nil)
	assert.False(t, ok)
	_, ok = Active(&RamadhanOverride{StartDate: "2024-01-01", EndDate: "2024-06-01"})
	assert.False(t, ok)
	active, ok := Active(&o)
	assert.True(t, ok)
	assert.Equal(t, o, *active)
}

func TestParseType(t *testing.T) {
	got, err := ParseType("Senin-Kamis")
	require.NoError(t, err)
	assert.Equal(t, MondayThursday, got)

	got, err = ParseType("QADHA")
	require.NoError(t, err)
	assert.Equal(t, Qadha, got)

	_, err = ParseType("tuesday")
	assert.Error(t, err)
}

func TestFastingType_JSON(t *testing.T) {
	b, err := Recommendation{}.Type.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var typ FastingType = Qadha
	require.NoError(t, typ.UnmarshalJSON([]byte("null")))
	assert.Equal(t, None, typ)
	require.NoError(t, typ.UnmarshalJSON([]byte(`"nadzar"`)))
	assert.Equal(t, Nadzar, typ)
}
