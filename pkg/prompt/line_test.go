package prompt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/harrisonrobin/tugas/pkg/todo"
)

func TestFormReadsBothFields(t *testing.T) {
	var out bytes.Buffer
	l := New(strings.NewReader("Write report\n2025-06-02T09:00\n"), &out)

	got, ok := l.Form(context.Background(), todo.Form{Title: "Add a new task"})
	if !ok {
		t.Fatal("Form: cancelled")
	}
	if got.Text != "Write report" || got.Deadline != "2025-06-02T09:00" {
		t.Errorf("Form: got %+v", got)
	}
	if !strings.Contains(out.String(), "Task name: ") || !strings.Contains(out.String(), "Deadline (YYYY-MM-DDTHH:MM): ") {
		t.Errorf("prompts: got %q", out.String())
	}
}

func TestFormCancels(t *testing.T) {
	for name, input := range map[string]string{
		"eof":        "",
		"eof second": "Report\n",
	} {
		l := New(strings.NewReader(input), &bytes.Buffer{})
		if _, ok := l.Form(context.Background(), todo.Form{}); ok {
			t.Errorf("%s: expected cancel", name)
		}
	}
}

func TestFormSubmitsBlankName(t *testing.T) {
	l := New(strings.NewReader("\n2025-06-02T09:00\n"), &bytes.Buffer{})
	got, ok := l.Form(context.Background(), todo.Form{})
	if !ok {
		t.Fatal("Form: a blank name cancelled")
	}
	if got.Text != "" || got.Deadline != "2025-06-02T09:00" {
		t.Errorf("Form: got %+v", got)
	}
}

func TestFormKeepsPrefilledValues(t *testing.T) {
	var out bytes.Buffer
	l := New(strings.NewReader("\n2025-07-01T10:00\n"), &out)
	got, ok := l.Form(context.Background(), todo.Form{Text: "Report", Deadline: "2025-06-02T09:00"})
	if !ok {
		t.Fatal("Form: cancelled")
	}
	if got.Text != "Report" || got.Deadline != "2025-07-01T10:00" {
		t.Errorf("Form: got %+v", got)
	}
	if !strings.Contains(out.String(), "Task name [Report]: ") {
		t.Errorf("prompt: got %q", out.String())
	}
}

func TestFormLastLineWithoutNewline(t *testing.T) {
	l := New(strings.NewReader("Report\n2025-06-02T09:00"), &bytes.Buffer{})
	got, ok := l.Form(context.Background(), todo.Form{})
	if !ok || got.Deadline != "2025-06-02T09:00" {
		t.Errorf("Form: got %+v, ok=%v", got, ok)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"sure\n", false},
	}
	for _, tt := range tests {
		l := New(strings.NewReader(tt.input), &bytes.Buffer{})
		got := l.Confirm(context.Background(), todo.Confirmation{Title: "Are you sure?", Confirm: "Yes, delete"})
		if got != tt.want {
			t.Errorf("Confirm(%q): got %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestConfirmAssumeYes(t *testing.T) {
	var out bytes.Buffer
	l := New(strings.NewReader(""), &out)
	l.AssumeYes = true
	if !l.Confirm(context.Background(), todo.Confirmation{Title: "Are you sure?"}) {
		t.Error("Confirm: expected yes")
	}
	if out.Len() != 0 {
		t.Errorf("AssumeYes printed %q", out.String())
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := New(strings.NewReader("Report\n2025-06-02T09:00\n"), &bytes.Buffer{})
	if _, ok := l.Form(ctx, todo.Form{}); ok {
		t.Error("Form: expected cancel on a done context")
	}
}

func TestNotify(t *testing.T) {
	var out bytes.Buffer
	l := New(strings.NewReader(""), &out)
	l.Notify(todo.Notice{Level: todo.Failure, Title: "Failed", Message: "Something went wrong while adding the task."})
	if !strings.Contains(out.String(), "Failed") || !strings.Contains(out.String(), "adding the task") {
		t.Errorf("Notify: got %q", out.String())
	}
}
