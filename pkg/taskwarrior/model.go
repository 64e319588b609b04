package taskwarrior

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/tugas/pkg/model"
)

const (
	PENDING   = "pending"
	COMPLETED = "completed"
	WAITING   = "waiting"
	DELETED   = "deleted"
)

type CustomTime struct {
	time.Time
}

const taskwarriorTimeLayout = "20060102T150405Z" // UTC

// UnmarshalJSON implements the json.Unmarshaler interface for CustomTime.
func (ct *CustomTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ct.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(taskwarriorTimeLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse Taskwarrior time string '%s': %w", s, err)
	}
	ct.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface for CustomTime.
func (ct CustomTime) MarshalJSON() ([]byte, error) {
	if ct.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ct.Time.Format(taskwarriorTimeLayout) + `"`), nil
}

type Task struct {
	UUID        string      `json:"uuid"`
	Description string      `json:"description"`
	Due         *CustomTime `json:"due,omitempty"`
	Status      string      `json:"status"`
	Project     string      `json:"project,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	End         *CustomTime `json:"end,omitempty"`
}

// Fields converts a Taskwarrior task into a task payload. Tasks without a due
// date and deleted tasks have no counterpart and report false.
func (t Task) Fields() (model.Fields, bool) {
	if t.Due == nil || t.Due.IsZero() || t.Status == DELETED {
		return model.Fields{}, false
	}
	text := strings.TrimSpace(t.Description)
	if text == "" {
		return model.Fields{}, false
	}
	return model.Fields{
		Text:      text,
		Completed: t.Status == COMPLETED,
		Deadline:  model.FormatDeadline(t.Due.Time),
	}, true
}
