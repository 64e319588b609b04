// Package ui is the full-screen task list.
package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/harrisonrobin/tugas/pkg/colors"
	"github.com/harrisonrobin/tugas/pkg/logging"
	"github.com/harrisonrobin/tugas/pkg/model"
	"github.com/harrisonrobin/tugas/pkg/todo"
)

// noticeFadeDelay is how long a notice stays on screen.
const noticeFadeDelay = 3 * time.Second

type tickMsg time.Time

type actionDoneMsg struct{ err error }

// noticeFadeMsg clears the notice it was scheduled for; newer notices survive.
type noticeFadeMsg struct{ seq int }

// Option configures the model.
type Option func(*Model)

func WithLogger(l *log.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// Model is the bubbletea model of the task list.
type Model struct {
	ctx    context.Context
	ctl    *todo.Controller
	keys   KeyMap
	dkeys  dialogKeys
	help   help.Model
	theme  colors.Theme
	logger *log.Logger

	tickInterval time.Duration
	noticeDelay  time.Duration

	rows   []todo.Row
	cursor int
	busy   bool

	form    *formDialog
	confirm *confirmDialog

	notice    *todo.Notice
	noticeSeq int

	width  int
	height int
}

// New builds a model over a loaded controller. Dialog requests reach it
// through a Bridge attached to the running program.
func New(ctx context.Context, ctl *todo.Controller, opts ...Option) *Model {
	m := &Model{
		ctx:          ctx,
		ctl:          ctl,
		keys:         DefaultKeyMap,
		dkeys:        defaultDialogKeys,
		help:         help.New(),
		theme:        colors.DefaultTheme(),
		logger:       logging.Discard(),
		tickInterval: todo.DefaultInterval,
		noticeDelay:  noticeFadeDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.syncRows()
	return m
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	return tickCmd(m.tickInterval)
}

func (m *Model) syncRows() {
	m.rows = m.ctl.Rows()
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selected() (todo.Row, bool) {
	if len(m.rows) == 0 {
		return todo.Row{}, false
	}
	return m.rows[m.cursor], true
}

// run executes a controller flow off the event loop.
func (m *Model) run(flow func(ctx context.Context) error) tea.Cmd {
	m.busy = true
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{err: flow(ctx)}
	}
}

func (m *Model) showNotice(n todo.Notice) tea.Cmd {
	m.notice = &n
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(m.noticeDelay, func(time.Time) tea.Msg {
		return noticeFadeMsg{seq: seq}
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.ctl.Tick(time.Time(msg))
		m.syncRows()
		return m, tickCmd(m.tickInterval)

	case formRequestMsg:
		m.form = newFormDialog(msg.form, msg.reply)
		return m, m.form.inputs[0].Focus()

	case confirmRequestMsg:
		m.confirm = newConfirmDialog(msg.confirmation, msg.reply)
		return m, nil

	case noticeMsg:
		return m, m.showNotice(msg.notice)

	case noticeFadeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = nil
		}
		return m, nil

	case actionDoneMsg:
		m.busy = false
		m.syncRows()
		if msg.err != nil {
			m.logger.Debug("action finished with error", "err", msg.err)
			if errors.Is(msg.err, todo.ErrUnknownTask) {
				return m, m.showNotice(todo.Notice{Level: todo.Failure, Title: "Failed", Message: "That task no longer exists."})
			}
		}
		return m, nil

	case reloadedMsg:
		m.syncRows()
		if msg.err != nil {
			return m, m.showNotice(todo.Notice{Level: todo.Failure, Title: "Failed", Message: "Could not refresh the task list."})
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.form != nil {
		var cmd tea.Cmd
		m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		cmd, done := m.form.update(msg, m.dkeys)
		if done {
			m.form = nil
		}
		return m, cmd
	}
	if m.confirm != nil {
		if m.confirm.update(msg, m.dkeys) {
			m.confirm = nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil
	}

	if m.busy {
		return m, nil
	}
	row, ok := m.selected()
	switch {
	case key.Matches(msg, m.keys.Add):
		return m, m.run(m.ctl.AddTask)
	case key.Matches(msg, m.keys.Reload):
		ctl := m.ctl
		ctx := m.ctx
		return m, func() tea.Msg { return reloadedMsg{err: ctl.Reload(ctx)} }
	case !ok:
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		return m, m.run(func(ctx context.Context) error { return m.ctl.EditTask(ctx, row.ID) })
	case key.Matches(msg, m.keys.Toggle):
		return m, m.run(func(ctx context.Context) error { return m.ctl.ToggleTask(ctx, row.ID) })
	case key.Matches(msg, m.keys.Delete):
		return m, m.run(func(ctx context.Context) error { return m.ctl.DeleteTask(ctx, row.ID) })
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("tugas"))
	b.WriteString("\n\n")

	switch {
	case m.form != nil:
		b.WriteString(m.form.view(m.theme))
	case m.confirm != nil:
		b.WriteString(m.confirm.view(m.theme))
	default:
		b.WriteString(m.listView())
	}
	b.WriteString("\n\n")

	if m.notice != nil {
		b.WriteString(m.noticeView(*m.notice))
		b.WriteString("\n")
	}
	if m.form == nil && m.confirm == nil {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m *Model) listView() string {
	if len(m.rows) == 0 {
		return m.theme.Muted.Render("No tasks yet. Press a to add one.")
	}
	textWidth := 0
	for _, r := range m.rows {
		textWidth = max(textWidth, lipgloss.Width(r.Text))
	}

	lines := make([]string, len(m.rows))
	for i, r := range m.rows {
		state := colors.Classify(r.Task, r.Remaining)
		check := "[ ]"
		if r.Completed {
			check = "[x]"
		}
		text := r.Text + strings.Repeat(" ", textWidth-lipgloss.Width(r.Text))
		line := fmt.Sprintf("%s %s  %s  %s", check, text, model.DisplayDeadline(r.Deadline), r.Remaining)
		prefix := "  "
		if i == m.cursor {
			prefix = m.theme.Cursor.Render("> ")
		}
		lines[i] = prefix + m.theme.For(state).Render(line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) noticeView(n todo.Notice) string {
	style, mark := m.theme.Success, "✓"
	if n.Level == todo.Failure {
		style, mark = m.theme.Failure, "✗"
	}
	s := style.Render(mark + " " + n.Title)
	if n.Message != "" {
		s += " " + n.Message
	}
	return s
}

// IsTTY reports whether f is a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Run shows the task list until the user quits or ctx is done. The bridge
// must be the controller's prompter.
func Run(ctx context.Context, ctl *todo.Controller, bridge *Bridge, opts ...Option) error {
	if !IsTTY(os.Stdout) {
		return errors.New("the task list needs a terminal, try `tugas list` instead")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, ctl, opts...)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(program.Send)
	defer bridge.Attach(nil)

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
