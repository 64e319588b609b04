package orgmode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

const sample = `#+TITLE: Work
* TODO [#A] Write report :work:urgent:
  DEADLINE: <2025-06-02 Mon 09:00>
  :PROPERTIES:
  :ID: 1234
  :END:
* DONE Pay rent
  DEADLINE: <2025-06-01 Sun>
* TODO No deadline here
* Notes
  DEADLINE: <2025-06-03 Tue 10:00>
** TODO Nested item :home:
   SCHEDULED: <2025-06-01 Sun> DEADLINE: <2025-06-04 Wed 18:30>
`

func TestParse(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample), "work.org")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Parse: got %d entries, want 3: %+v", len(entries), entries)
	}

	first := entries[0]
	if first.Text != "Write report" || first.Completed || first.Source != "work.org" {
		t.Errorf("first entry: got %+v", first)
	}
	if want := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local); !first.Deadline.Equal(want) {
		t.Errorf("first deadline: got %v, want %v", first.Deadline, want)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "work" || first.Tags[1] != "urgent" {
		t.Errorf("first tags: got %v", first.Tags)
	}

	second := entries[1]
	if !second.Completed || second.Text != "Pay rent" {
		t.Errorf("second entry: got %+v", second)
	}
	if got := second.Fields().Deadline; got != "2025-06-01T23:59" {
		t.Errorf("date-only deadline: got %q", got)
	}

	third := entries[2]
	if third.Text != "Nested item" || third.Fields().Deadline != "2025-06-04T18:30" {
		t.Errorf("third entry: got %+v", third)
	}
}

func TestFilterEntries(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample), "work.org")
	if err != nil {
		t.Fatal(err)
	}
	if got := FilterEntries(entries, "home"); len(got) != 1 || got[0].Text != "Nested item" {
		t.Errorf("FilterEntries(home): got %+v", got)
	}
	if got := FilterEntries(entries, ""); len(got) != len(entries) {
		t.Errorf("FilterEntries(\"\"): got %d entries", len(got))
	}
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.org")
	if err := os.WriteFile(path, []byte(sample), 0600); err != nil {
		t.Fatal(err)
	}
	entries, err := ParseFiles([]string{path, path})
	if err != nil {
		t.Fatalf("ParseFiles failed: %v", err)
	}
	if len(entries) != 6 {
		t.Errorf("ParseFiles: got %d entries", len(entries))
	}
	if _, err := ParseFiles([]string{filepath.Join(dir, "missing.org")}); err == nil {
		t.Error("ParseFiles: expected an error for a missing file")
	}
}

func TestDateOnlyDeadlineOnDSTChange(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	local := time.Local
	time.Local = ny
	defer func() { time.Local = local }()

	for _, date := range []string{"2024-03-10", "2024-11-03"} {
		got, ok := parseDeadline(date, "")
		if !ok {
			t.Fatalf("%s: not parsed", date)
		}
		if got.Hour() != 23 || got.Minute() != 59 || got.Format("2006-01-02") != date {
			t.Errorf("%s: got %v, want 23:59 that day", date, got)
		}
	}
}
