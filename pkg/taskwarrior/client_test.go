package taskwarrior

import (
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/tugas/pkg/model"
)

func TestParseTasks(t *testing.T) {
	input := `{
		"uuid": "f45a05b3-c12e-42e5-9c9c-333333333333",
		"description": "Buy milk",
		"status": "pending",
		"due": "20230101T120000Z",
		"project": "Groceries",
		"tags": ["buy", "food"]
	}
	{"uuid": "a1", "description": "Call mum", "status": "completed", "end": "20230102T080000Z"}`

	tasks, err := ParseTasks(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}

	task := tasks[0]
	if task.UUID != "f45a05b3-c12e-42e5-9c9c-333333333333" {
		t.Errorf("Expected UUID f45a05b3-c12e-42e5-9c9c-333333333333, got %s", task.UUID)
	}
	if task.Description != "Buy milk" {
		t.Errorf("Expected Description 'Buy milk', got '%s'", task.Description)
	}
	if task.Project != "Groceries" {
		t.Errorf("Expected Project 'Groceries', got '%s'", task.Project)
	}
	if len(task.Tags) != 2 {
		t.Errorf("Expected 2 tags, got %d", len(task.Tags))
	}
	expectedDue, _ := time.Parse(time.RFC3339, "2023-01-01T12:00:00Z")
	if !task.Due.Time.Equal(expectedDue) {
		t.Errorf("Expected Due %v, got %v", expectedDue, task.Due.Time)
	}
	if tasks[1].Due != nil {
		t.Errorf("Expected no due date, got %v", tasks[1].Due)
	}
}

func TestParseExport(t *testing.T) {
	tasks, err := ParseExport([]byte(`[{"uuid":"a","description":"Report","status":"pending","due":"20250602T090000Z"}]`))
	if err != nil {
		t.Fatalf("ParseExport failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Description != "Report" {
		t.Errorf("ParseExport: got %+v", tasks)
	}
	if _, err := ParseExport([]byte("not json")); err == nil {
		t.Error("ParseExport: expected an error")
	}
}

func TestTaskFields(t *testing.T) {
	due := &CustomTime{time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}

	tests := []struct {
		name   string
		task   Task
		want   model.Fields
		wantOK bool
	}{
		{"pending", Task{Description: " Report ", Status: PENDING, Due: due},
			model.Fields{Text: "Report", Deadline: model.FormatDeadline(due.Time)}, true},
		{"completed", Task{Description: "Report", Status: COMPLETED, Due: due},
			model.Fields{Text: "Report", Completed: true, Deadline: model.FormatDeadline(due.Time)}, true},
		{"no due date", Task{Description: "Report", Status: PENDING}, model.Fields{}, false},
		{"deleted", Task{Description: "Report", Status: DELETED, Due: due}, model.Fields{}, false},
		{"blank", Task{Description: "  ", Status: PENDING, Due: due}, model.Fields{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.task.Fields()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Fields: got %+v, %v; want %+v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCustomTimeMarshalRoundTrip(t *testing.T) {
	ct := CustomTime{time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
	b, err := ct.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"20250602T090000Z"` {
		t.Errorf("MarshalJSON: got %s", b)
	}
	var back CustomTime
	if err := back.UnmarshalJSON(b); err != nil || !back.Equal(ct.Time) {
		t.Errorf("UnmarshalJSON: got %v, %v", back, err)
	}
}

func TestReadTasksAcceptsBothShapes(t *testing.T) {
	for name, input := range map[string]string{
		"export array":  "\n [{\"uuid\":\"a\",\"description\":\"Report\",\"status\":\"pending\"},{\"uuid\":\"b\",\"description\":\"Milk\",\"status\":\"pending\"}]\n",
		"object stream": "{\"uuid\":\"a\",\"description\":\"Report\",\"status\":\"pending\"}\n{\"uuid\":\"b\",\"description\":\"Milk\",\"status\":\"pending\"}\n",
	} {
		tasks, err := ReadTasks(strings.NewReader(input))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(tasks) != 2 || tasks[1].Description != "Milk" {
			t.Errorf("%s: got %+v", name, tasks)
		}
	}
}
