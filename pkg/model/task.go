package model

import (
	"fmt"
	"strings"
	"time"
)

// Field names as stored in the task collection.
const (
	FieldText      = "text"
	FieldCompleted = "completed"
	FieldDeadline  = "deadline"
)

// DeadlineLayout is the layout new deadlines are written in (HTML datetime-local).
const DeadlineLayout = "2006-01-02T15:04"

// deadlineLayouts are tried in order when reading a deadline back.
// Layouts without a zone are read in local time.
var deadlineLayouts = []string{
	DeadlineLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
}

// Task is a single to-do item.
type Task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Deadline  string `json:"deadline"`
}

// Fields returns the task without its store-assigned ID.
func (t Task) Fields() Fields {
	return Fields{Text: t.Text, Completed: t.Completed, Deadline: t.Deadline}
}

// DeadlineTime parses the task's deadline.
func (t Task) DeadlineTime() (time.Time, error) {
	return ParseDeadline(t.Deadline)
}

// Apply returns a copy of t with the patch applied.
func (t Task) Apply(p Patch) Task {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// Fields is the payload used to create a task; the store assigns the ID.
type Fields struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Deadline  string `json:"deadline"`
}

// WithID attaches a store-assigned ID.
func (f Fields) WithID(id string) Task {
	return Task{ID: id, Text: f.Text, Completed: f.Completed, Deadline: f.Deadline}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Text      *string
	Deadline  *string
	Completed *bool
}

// Paths returns the field names set in the patch, in a stable order.
func (p Patch) Paths() []string {
	var paths []string
	if p.Text != nil {
		paths = append(paths, FieldText)
	}
	if p.Completed != nil {
		paths = append(paths, FieldCompleted)
	}
	if p.Deadline != nil {
		paths = append(paths, FieldDeadline)
	}
	return paths
}

// IsEmpty reports whether the patch sets nothing.
func (p Patch) IsEmpty() bool {
	return len(p.Paths()) == 0
}

// ParseDeadline parses a deadline string in any of the accepted layouts.
func ParseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty deadline")
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised deadline %q, want YYYY-MM-DDTHH:MM", s)
}

// FormatDeadline renders a time in the layout new deadlines are stored in.
func FormatDeadline(t time.Time) string {
	return t.In(time.Local).Format(DeadlineLayout)
}

// DisplayDeadline renders a stored deadline for people; unparseable values are shown as-is.
func DisplayDeadline(s string) string {
	t, err := ParseDeadline(s)
	if err != nil {
		return s
	}
	return t.Format("Mon 02 Jan 2006 15:04")
}
