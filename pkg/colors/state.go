// Package colors maps a task's state to how it is drawn.
package colors

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/tugas/pkg/countdown"
	"github.com/harrisonrobin/tugas/pkg/model"
)

// State is the presentation state of a row.
type State int

const (
	StateActive State = iota
	StateExpired
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateCompleted:
		return "done"
	case StateExpired:
		return "expired"
	default:
		return "active"
	}
}

// Classify derives the state from the completed flag and the countdown string.
// Completion wins over expiry.
func Classify(t model.Task, remaining string) State {
	if t.Completed {
		return StateCompleted
	}
	if remaining == countdown.Sentinel {
		return StateExpired
	}
	return StateActive
}

// Theme holds one style per state plus the chrome around the list.
type Theme struct {
	Active    lipgloss.Style
	Expired   lipgloss.Style
	Completed lipgloss.Style

	Title    lipgloss.Style
	Cursor   lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Failure  lipgloss.Style
	Dialog   lipgloss.Style
	Danger   lipgloss.Style
	Selected lipgloss.Style
}

const (
	green  = lipgloss.Color("#2E7D32")
	purple = lipgloss.Color("#7E57C2")
	red    = lipgloss.Color("#C62828")
	gray   = lipgloss.Color("241")
	white  = lipgloss.Color("#FAFAFA")
)

// DefaultTheme draws completed tasks green, expired ones purple and running
// ones red.
func DefaultTheme() Theme {
	return Theme{
		Active:    lipgloss.NewStyle().Foreground(red),
		Expired:   lipgloss.NewStyle().Foreground(purple),
		Completed: lipgloss.NewStyle().Foreground(green).Strikethrough(true),

		Title:    lipgloss.NewStyle().Bold(true).Foreground(white).Background(purple).Padding(0, 1),
		Cursor:   lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(gray),
		Success:  lipgloss.NewStyle().Bold(true).Foreground(green),
		Failure:  lipgloss.NewStyle().Bold(true).Foreground(red),
		Dialog:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(purple).Padding(1, 2),
		Danger:   lipgloss.NewStyle().Bold(true).Foreground(white).Background(red).Padding(0, 1),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(white).Background(purple).Padding(0, 1),
	}
}

// For returns the style of a state.
func (t Theme) For(s State) lipgloss.Style {
	switch s {
	case StateCompleted:
		return t.Completed
	case StateExpired:
		return t.Expired
	default:
		return t.Active
	}
}
