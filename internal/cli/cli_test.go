package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smokyabdulrahman/shaum/internal/display"
	"github.com/smokyabdulrahman/shaum/internal/fasting"
	"github.com/smokyabdulrahman/shaum/internal/hijri"
	"github.com/smokyabdulrahman/shaum/internal/store"
)

func TestMain(m *testing.M) {
	display.SetEnabled(false)
	os.Exit(m.Run())
}

// env isolates config, data and cache directories and pins the clock.
type env struct {
	t   *testing.T
	db  string
	dir string
}

func newEnv(t *testing.T, today string) *env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Chdir(dir)

	pinned, err := time.Parse(fasting.DateLayout, today)
	if err != nil {
		t.Fatal(err)
	}
	pinned = pinned.Add(9 * time.Hour)
	prev := now
	now = func() time.Time { return pinned }
	t.Cleanup(func() { now = prev })

	return &env{t: t, db: filepath.Join(dir, "shaum.db"), dir: dir}
}

// run executes the CLI offline against the test database.
func (e *env) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := NewRootCmd("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--offline", "--db", e.db, "--log-level", "off"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("%v: %v", args, err)
	}
	return out
}

type entryJSON struct {
	Date           string                 `json:"date"`
	Weekday        string                 `json:"weekday"`
	Hijri          hijri.Date             `json:"hijri"`
	Recommendation fasting.Recommendation `json:"recommendation"`
	Source         string                 `json:"source"`
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, s)
	}
	return v
}

func TestToday_JSON(t *testing.T) {
	e := newEnv(t, "2024-03-11")

	got := decode[entryJSON](t, e.mustRun("--json"))
	if got.Date != "2024-03-11" {
		t.Errorf("date = %q, want 2024-03-11", got.Date)
	}
	if got.Recommendation.Type != fasting.Ramadhan {
		t.Errorf("type = %q, want ramadhan", got.Recommendation.Type)
	}
	if got.Source != "local" {
		t.Errorf("source = %q, want local", got.Source)
	}
}

func TestDay_Forbidden(t *testing.T) {
	e := newEnv(t, "2024-03-11")

	out := e.mustRun("day", "2024-06-17")
	for _, want := range []string{"Monday, 17 June 2024", "10 Dzulhijjah 1445 H", "Forbidden (Eid al-Adha)", "(local calendar)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDay_InvalidDate(t *testing.T) {
	e := newEnv(t, "2024-03-11")

	_, err := e.run("day", "17-06-2024")
	if err == nil || !strings.Contains(err.Error(), "YYYY-MM-DD") {
		t.Errorf("expected date error, got %v", err)
	}
}

func TestOffset_FlagAndEnv(t *testing.T) {
	e := newEnv(t, "2024-03-11")

	got := decode[entryJSON](t, e.mustRun("--offset", "1", "--json", "day", "2024-03-10"))
	if got.Hijri != hijri.NewDate(1445, 9, 1) {
		t.Errorf("--offset 1: hijri = %v, want 1 Ramadhan 1445", got.Hijri)
	}

	t.Setenv("SHAUM_HIJRI_OFFSET", "1")
	got = decode[entryJSON](t, e.mustRun("--json", "day", "2024-03-10"))
	if got.Recommendation.Type != fasting.Ramadhan {
		t.Errorf("SHAUM_HIJRI_OFFSET=1: type = %q, want ramadhan", got.Recommendation.Type)
	}
}

func TestMonth_Gregorian(t *testing.T) {
	e := newEnv(t, "2024-03-11")

	entries := decode[[]entryJSON](t, e.mustRun("--json", "month", "--year", "2024", "--month", "3"))
	if len(entries) != 31 {
		t.Fatalf("got %d days, want 31", len(entries))
	}
	fasts := 0
	for _, en := range entries {
		if en.Recommendation.Type != fasting.None {
			fasts++
		}
	}
	if fasts != 23 {
		t.Errorf("got %d fasting days, want 23", fasts)
	}
}

func TestMonth_HijriTable(t *testing.T) {
	e := newEnv(t, "2024-03-11")

	out := e.mustRun("month", "--hijri", "--year", "1445", "--month", "9")
	for _, want := range []string{"Ramadhan 1445 H", "2024-03-11", "2024-04-09", "1 Ramadhan 1445 H"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "2024-04-10") {
		t.Error("month should end before 1 Syawal")
	}
}

func TestMonth_InvalidMonth(t *testing.T) {
	e := newEnv(t, "2024-03-11")

	if _, err := e.run("month", "--year", "2024", "--month", "13"); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestUpcoming(t *testing.T) {
	e := newEnv(t, "2024-03-01")

	entries := decode[[]entryJSON](t, e.mustRun("--json", "upcoming", "7"))
	var dates []string
	for _, en := range entries {
		dates = append(dates, en.Date)
	}
	if strings.Join(dates, ",") != "2024-03-04,2024-03-07" {
		t.Errorf("upcoming = %v, want [2024-03-04 2024-03-07]", dates)
	}

	if _, err := e.run("upcoming", "0"); err == nil {
		t.Error("expected error for 0 days")
	}
}

func TestRules_SetShowClear(t *testing.T) {
	e := newEnv(t, "2024-03-01")

	out := e.mustRun("rules", "set", "qadha", "--weekdays", "tue", "--to", "2024-12-31")
	if !strings.Contains(out, "every Tue (until 2024-12-31)") {
		t.Errorf("set output = %q", out)
	}

	got := decode[entryJSON](t, e.mustRun("--json", "day", "2024-03-05"))
	if got.Recommendation.Type != fasting.Qadha || !got.Recommendation.IsQadha {
		t.Errorf("recommendation = %+v, want qadha", got.Recommendation)
	}

	out = e.mustRun("rules")
	if !strings.Contains(out, "every Tue") || !strings.Contains(out, "(not set)") {
		t.Errorf("show output = %q", out)
	}

	e.mustRun("rules", "clear", "qadha")
	got = decode[entryJSON](t, e.mustRun("--json", "day", "2024-03-05"))
	if got.Recommendation.IsQadha {
		t.Error("qadha rule should be cleared")
	}
}

func TestRules_SetErrors(t *testing.T) {
	e := newEnv(t, "2024-03-01")

	for _, args := range [][]string{
		{"rules", "set", "ramadhan", "--weekdays", "mon"},
		{"rules", "set", "qadha"},
		{"rules", "set", "qadha", "--weekdays", "someday"},
		{"rules", "set", "qadha", "--triggers", "weekly"},
		{"rules", "set", "nadzar", "--dates", "2024-13-01"},
	} {
		if _, err := e.run(args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestRules_Schedule(t *testing.T) {
	e := newEnv(t, "2024-03-01")
	e.mustRun("rules", "set", "qadha", "--weekdays", "fri", "--dates", "2024-03-05,2024-03-20")

	got := decode[[]string](t, e.mustRun("--json", "rules", "schedule", "qadha", "--days", "10"))
	want := []string{"2024-03-01", "2024-03-05", "2024-03-08"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("schedule = %v, want %v", got, want)
	}
}

func TestRules_ScheduleMarksForbiddenDays(t *testing.T) {
	e := newEnv(t, "2024-04-05")
	e.mustRun("rules", "set", "qadha", "--weekdays", "wed")

	out := e.mustRun("rules", "schedule", "qadha", "--days", "10")
	if !strings.Contains(out, "2024-04-10  Wed  (forbidden, skipped)") {
		t.Errorf("Eid al-Fitr should be marked:\n%s", out)
	}
	if strings.Contains(out, "2024-04-10  Wed\n") {
		t.Errorf("Eid al-Fitr printed without mark:\n%s", out)
	}
}

func TestRules_ImportExport(t *testing.T) {
	e := newEnv(t, "2024-03-01")

	src := filepath.Join(e.dir, "rules.yaml")
	yamlRules := `nadzar:
  trigger_types: [ayyamul_bidh]
qadha:
  weekdays: [1, 4]
  valid_to: "2024-12-31"
ramadhan_override:
  start_date: "2024-03-12"
  end_date: "2024-04-10"
`
	if err := os.WriteFile(src, []byte(yamlRules), 0o644); err != nil {
		t.Fatal(err)
	}
	e.mustRun("rules", "import", src)

	var got fasting.Profile
	if err := yaml.Unmarshal([]byte(e.mustRun("rules", "export")), &got); err != nil {
		t.Fatalf("export is not YAML: %v", err)
	}
	if len(got.Qadha.Weekdays) != 2 || got.Qadha.Weekdays[1] != time.Thursday {
		t.Errorf("qadha weekdays = %v", got.Qadha.Weekdays)
	}
	if len(got.Nadzar.TriggerTypes) != 1 || got.Nadzar.TriggerTypes[0] != fasting.AyyamulBidh {
		t.Errorf("nadzar triggers = %v", got.Nadzar.TriggerTypes)
	}
	if got.Override == nil || got.Override.EndDate != "2024-04-10" {
		t.Errorf("override = %+v", got.Override)
	}

	// Importing an empty file clears everything.
	empty := filepath.Join(e.dir, "empty.yaml")
	os.WriteFile(empty, []byte("{}\n"), 0o644)
	e.mustRun("rules", "import", empty)
	out := e.mustRun("rules")
	if strings.Count(out, "(not set)") != 2 || !strings.Contains(out, "(calendar)") {
		t.Errorf("rules after empty import:\n%s", out)
	}
}

func TestRules_ImportInvalid(t *testing.T) {
	e := newEnv(t, "2024-03-01")

	src := filepath.Join(e.dir, "bad.yaml")
	os.WriteFile(src, []byte("qadha:\n  weekdays: [9]\n"), 0o644)
	if _, err := e.run("rules", "import", src); err == nil {
		t.Error("expected error for weekday 9")
	}
}

func TestRamadhan_Override(t *testing.T) {
	e := newEnv(t, "2024-03-01")

	out := e.mustRun("ramadhan", "set", "2024-03-12", "2024-04-10")
	if !strings.Contains(out, "Eid al-Fitr on 2024-04-11") {
		t.Errorf("set output = %q", out)
	}

	cases := map[string]func(fasting.Recommendation) bool{
		"2024-03-11": func(r fasting.Recommendation) bool { return r.Type == fasting.MondayThursday },
		"2024-04-10": func(r fasting.Recommendation) bool { return r.Type == fasting.Ramadhan },
		"2024-04-11": func(r fasting.Recommendation) bool { return r.IsForbidden && r.Reason == fasting.EidAlFitr },
	}
	for date, ok := range cases {
		got := decode[entryJSON](t, e.mustRun("--json", "day", date))
		if !ok(got.Recommendation) {
			t.Errorf("%s: unexpected %+v", date, got.Recommendation)
		}
	}

	if _, err := e.run("ramadhan", "set", "2024-04-10", "2024-03-12"); err == nil {
		t.Error("expected error for reversed override")
	}

	e.mustRun("ramadhan", "clear")
	if out := e.mustRun("ramadhan"); !strings.Contains(out, "(calendar)") {
		t.Errorf("show after clear = %q", out)
	}
}

func TestLog_AddListStats(t *testing.T) {
	e := newEnv(t, "2024-03-01")

	added := decode[fasting.Log](t, e.mustRun("--json", "log", "add", "2024-03-04"))
	if added.Type != fasting.MondayThursday || added.ID == "" {
		t.Errorf("added = %+v", added)
	}
	e.mustRun("log", "add", "2024-03-05", "--type", "qadha")
	e.mustRun("log", "add", "2024-03-06", "--type", "other", "--incomplete")

	logs := decode[[]fasting.Log](t, e.mustRun("--json", "log", "list", "--from", "2024-03-05"))
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}

	st := decode[store.Stats](t, e.mustRun("--json", "stats", "--year", "2024"))
	if st.Total != 3 || st.Completed != 2 || st.QadhaRepaid != 1 {
		t.Errorf("stats = %+v", st)
	}

	e.mustRun("log", "delete", added.ID)
	if _, err := e.run("log", "delete", added.ID); err == nil {
		t.Error("expected error deleting twice")
	}
}

func TestLog_AddForbiddenDay(t *testing.T) {
	e := newEnv(t, "2024-03-01")

	_, err := e.run("log", "add", "2024-06-17")
	if err == nil || !strings.Contains(err.Error(), "forbidden") {
		t.Errorf("expected forbidden-day error, got %v", err)
	}
}

func TestExportICS(t *testing.T) {
	e := newEnv(t, "2024-03-01")

	out := e.mustRun("export", "ics", "--year", "2024", "--month", "3")
	if !strings.HasPrefix(out, "BEGIN:VCALENDAR") {
		t.Errorf("not a calendar:\n%.200s", out)
	}
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 23 {
		t.Errorf("got %d events, want 23", n)
	}

	file := filepath.Join(e.dir, "fasts.ics")
	e.mustRun("rules", "set", "qadha", "--weekdays", "mon")
	e.mustRun("export", "ics", "--rules", "-o", file)
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "RRULE:FREQ=WEEKLY") {
		t.Errorf("rules export missing RRULE:\n%s", data)
	}
	// Mondays from the 11th are Ramadhan.
	if !strings.Contains(string(data), "EXDATE;VALUE=DATE:20240311") {
		t.Errorf("rules export should exclude Ramadhan Mondays:\n%s", data)
	}
}

func TestConfig_SetShowPath(t *testing.T) {
	e := newEnv(t, "2024-03-01")

	e.mustRun("config", "set", "hijri_offset", "+1")
	out := e.mustRun("config")
	if !strings.Contains(out, "hijri_offset     1") {
		t.Errorf("config show:\n%s", out)
	}
	if !strings.Contains(out, "(default: file)") {
		t.Errorf("config show should list defaults:\n%s", out)
	}

	path := strings.TrimSpace(e.mustRun("config", "path"))
	if path != filepath.Join(e.dir, "config", "shaum", "config.json") {
		t.Errorf("config path = %q", path)
	}

	// The stored offset applies to every command.
	got := decode[entryJSON](t, e.mustRun("--json", "day", "2024-03-10"))
	if got.Hijri.Day != 1 {
		t.Errorf("hijri = %v, want day 1", got.Hijri)
	}

	if _, err := e.run("config", "set", "hijri_offset", "9"); err == nil {
		t.Error("expected error for offset 9")
	}
	e.mustRun("config", "reset")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("config file should be removed, stat err = %v", err)
	}
}

func TestPrintVersion(t *testing.T) {
	if got := PrintVersion("v1.0.0"); got != "shaum v1.0.0\n" {
		t.Errorf("PrintVersion = %q", got)
	}
}

func TestCacheClear(t *testing.T) {
	e := newEnv(t, "2024-03-01")
	dir := filepath.Join(e.dir, "cache")
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, "calendar_0123456789abcdef.json"), []byte("{}"), 0o644)
	os.WriteFile(filepath.Join(dir, "geolocation.json"), []byte("{}"), 0o644)

	out := e.mustRun("--cache-dir", dir, "cache", "clear")
	if !strings.Contains(out, "Removed 1 cached months.") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "geolocation.json")); err != nil {
		t.Errorf("geolocation cache should be kept: %v", err)
	}

	if got := strings.TrimSpace(e.mustRun("--cache-dir", dir, "cache", "path")); got != dir {
		t.Errorf("cache path = %q, want %q", got, dir)
	}
}
