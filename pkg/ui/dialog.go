package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/tugas/pkg/colors"
	"github.com/harrisonrobin/tugas/pkg/model"
	"github.com/harrisonrobin/tugas/pkg/todo"
)

// formDialog is the modal two-field task form.
type formDialog struct {
	form   todo.Form
	inputs [2]textinput.Model
	focus  int
	reply  chan<- formReply
}

func newFormDialog(f todo.Form, reply chan<- formReply) *formDialog {
	name := textinput.New()
	name.Prompt = "Task name: "
	name.Placeholder = "What needs doing?"
	name.CharLimit = 256
	name.Width = 40
	name.SetValue(f.Text)

	deadline := textinput.New()
	deadline.Prompt = "Deadline:  "
	deadline.Placeholder = model.DeadlineLayout
	deadline.CharLimit = 32
	deadline.Width = 20
	deadline.SetValue(f.Deadline)

	d := &formDialog{form: f, inputs: [2]textinput.Model{name, deadline}, reply: reply}
	d.inputs[0].Focus()
	return d
}

// update handles a key. done is true once the dialog has answered.
func (d *formDialog) update(msg tea.KeyMsg, keys dialogKeys) (cmd tea.Cmd, done bool) {
	switch {
	case key.Matches(msg, keys.Cancel):
		d.answer(formReply{})
		return nil, true
	case key.Matches(msg, keys.Submit):
		if d.focus == 0 {
			return d.setFocus(1), false
		}
		d.answer(formReply{
			result: todo.FormResult{Text: d.inputs[0].Value(), Deadline: d.inputs[1].Value()},
			ok:     true,
		})
		return nil, true
	case key.Matches(msg, keys.Next):
		return d.setFocus((d.focus + 1) % len(d.inputs)), false
	case key.Matches(msg, keys.Prev):
		return d.setFocus((d.focus + len(d.inputs) - 1) % len(d.inputs)), false
	}
	d.inputs[d.focus], cmd = d.inputs[d.focus].Update(msg)
	return cmd, false
}

func (d *formDialog) setFocus(i int) tea.Cmd {
	d.inputs[d.focus].Blur()
	d.focus = i
	return d.inputs[d.focus].Focus()
}

func (d *formDialog) answer(r formReply) {
	select {
	case d.reply <- r:
	default:
	}
}

func (d *formDialog) view(theme colors.Theme) string {
	var b strings.Builder
	b.WriteString(theme.Cursor.Render(d.form.Title))
	b.WriteString("\n\n")
	b.WriteString(d.inputs[0].View())
	b.WriteString("\n")
	b.WriteString(d.inputs[1].View())
	b.WriteString("\n\n")
	submit := d.form.Submit
	if submit == "" {
		submit = "Save"
	}
	b.WriteString(theme.Muted.Render("enter: " + strings.ToLower(submit) + " · tab: next field · esc: cancel"))
	return theme.Dialog.Render(b.String())
}

// confirmDialog is the modal yes/no question. The cancel button starts selected.
type confirmDialog struct {
	confirmation todo.Confirmation
	yes          bool
	reply        chan<- bool
}

func newConfirmDialog(c todo.Confirmation, reply chan<- bool) *confirmDialog {
	return &confirmDialog{confirmation: c, reply: reply}
}

func (d *confirmDialog) update(msg tea.KeyMsg, keys dialogKeys) bool {
	switch {
	case key.Matches(msg, keys.Yes):
		d.answer(true)
		return true
	case key.Matches(msg, keys.No), key.Matches(msg, keys.Cancel):
		d.answer(false)
		return true
	case key.Matches(msg, keys.Submit):
		d.answer(d.yes)
		return true
	case key.Matches(msg, keys.Switch):
		d.yes = !d.yes
	}
	return false
}

func (d *confirmDialog) answer(yes bool) {
	select {
	case d.reply <- yes:
	default:
	}
}

func (d *confirmDialog) view(theme colors.Theme) string {
	c := d.confirmation
	confirm, cancel := c.Confirm, c.Cancel
	if confirm == "" {
		confirm = "Yes"
	}
	if cancel == "" {
		cancel = "Cancel"
	}

	selected := theme.Selected
	if c.Destructive {
		selected = theme.Danger
	}
	plain := lipgloss.NewStyle().Padding(0, 1)
	yesStyle, noStyle := plain, theme.Selected
	if d.yes {
		yesStyle, noStyle = selected, plain
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Top, yesStyle.Render(confirm), "  ", noStyle.Render(cancel))

	var b strings.Builder
	title := theme.Cursor.Render(c.Title)
	if c.Destructive {
		title = theme.Failure.Render(c.Title)
	}
	b.WriteString(title)
	if c.Message != "" {
		b.WriteString("\n\n")
		b.WriteString(c.Message)
	}
	b.WriteString("\n\n")
	b.WriteString(buttons)
	return theme.Dialog.Render(b.String())
}
