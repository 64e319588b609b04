package colors

import (
	"testing"

	"github.com/harrisonrobin/tugas/pkg/countdown"
	"github.com/harrisonrobin/tugas/pkg/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		completed bool
		remaining string
		want      State
	}{
		{"running", false, "1h 0m 0s", StateActive},
		{"pending", false, countdown.Pending, StateActive},
		{"expired", false, countdown.Sentinel, StateExpired},
		{"completed", true, "1h 0m 0s", StateCompleted},
		{"completed after expiry", true, countdown.Sentinel, StateCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(model.Task{Completed: tt.completed}, tt.remaining)
			if got != tt.want {
				t.Errorf("Classify: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestThemeFor(t *testing.T) {
	theme := DefaultTheme()
	if theme.For(StateCompleted).GetForeground() != green {
		t.Error("completed tasks should be green")
	}
	if theme.For(StateExpired).GetForeground() != purple {
		t.Error("expired tasks should be purple")
	}
	if theme.For(StateActive).GetForeground() != red {
		t.Error("running tasks should be red")
	}
}
