package model

import (
	"reflect"
	"testing"
	"time"
)

func TestParseDeadline(t *testing.T) {
	want := time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"datetime-local", "2025-03-14T09:30", want},
		{"with seconds", "2025-03-14T09:30:00", want},
		{"space separated", "2025-03-14 09:30", want},
		{"surrounding space", "  2025-03-14T09:30 ", want},
		{"rfc3339", "2025-03-14T09:30:00Z", time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDeadline(tt.input)
			if err != nil {
				t.Fatalf("ParseDeadline(%q) failed: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDeadline(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDeadlineRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "tomorrow", "14/03/2025 09:30"} {
		if _, err := ParseDeadline(input); err == nil {
			t.Errorf("ParseDeadline(%q): expected error", input)
		}
	}
}

func TestFormatDeadlineRoundTrip(t *testing.T) {
	when := time.Date(2030, 12, 1, 23, 5, 0, 0, time.Local)
	s := FormatDeadline(when)
	if s != "2030-12-01T23:05" {
		t.Fatalf("FormatDeadline: got %q", s)
	}
	back, err := ParseDeadline(s)
	if err != nil {
		t.Fatalf("ParseDeadline(%q) failed: %v", s, err)
	}
	if !back.Equal(when) {
		t.Errorf("round trip: got %v, want %v", back, when)
	}
}

func TestPatchPathsAndApply(t *testing.T) {
	text := "Write report"
	done := true
	p := Patch{Text: &text, Completed: &done}

	if got, want := p.Paths(), []string{FieldText, FieldCompleted}; !reflect.DeepEqual(got, want) {
		t.Errorf("Paths: got %v, want %v", got, want)
	}
	if p.IsEmpty() {
		t.Error("IsEmpty: got true for a patch with fields")
	}
	if !(Patch{}).IsEmpty() {
		t.Error("IsEmpty: got false for the zero patch")
	}

	task := Task{ID: "a1", Text: "Draft", Deadline: "2025-01-01T10:00"}
	got := task.Apply(p)
	if got.Text != text || !got.Completed || got.Deadline != task.Deadline || got.ID != "a1" {
		t.Errorf("Apply: got %+v", got)
	}
	if task.Text != "Draft" {
		t.Error("Apply mutated the receiver")
	}
}

func TestFieldsWithID(t *testing.T) {
	f := Fields{Text: "Buy milk", Deadline: "2025-01-01T10:00"}
	task := f.WithID("xyz")
	if task.ID != "xyz" || task.Text != f.Text || task.Completed || task.Deadline != f.Deadline {
		t.Errorf("WithID: got %+v", task)
	}
	if task.Fields() != f {
		t.Errorf("Fields: got %+v, want %+v", task.Fields(), f)
	}
}
