// Package prompt asks for task fields and confirmations on a plain terminal
// line by line. It backs the non-interactive subcommands.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/harrisonrobin/tugas/pkg/colors"
	"github.com/harrisonrobin/tugas/pkg/todo"
)

const (
	namePrompt     = "Task name"
	deadlinePrompt = "Deadline (YYYY-MM-DDTHH:MM)"
)

// Line is a todo.Prompter over a reader and a writer.
type Line struct {
	in    *bufio.Reader
	out   io.Writer
	theme colors.Theme

	// AssumeYes answers every confirmation with yes without asking.
	AssumeYes bool
}

var _ todo.Prompter = (*Line)(nil)

func New(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: out, theme: colors.DefaultTheme()}
}

// Form asks for both fields. Pre-filled values are shown in brackets and kept
// on an empty answer. Only end of input cancels; blank fields are submitted
// and left to validation.
func (l *Line) Form(ctx context.Context, f todo.Form) (todo.FormResult, bool) {
	if f.Title != "" {
		fmt.Fprintln(l.out, l.theme.Cursor.Render(f.Title))
	}
	text, ok := l.ask(ctx, namePrompt, f.Text)
	if !ok {
		return todo.FormResult{}, false
	}
	deadline, ok := l.ask(ctx, deadlinePrompt, f.Deadline)
	if !ok {
		return todo.FormResult{}, false
	}
	return todo.FormResult{Text: text, Deadline: deadline}, true
}

// Confirm is true only for an explicit y or yes.
func (l *Line) Confirm(ctx context.Context, c todo.Confirmation) bool {
	if l.AssumeYes {
		return true
	}
	title := c.Title
	if c.Destructive {
		title = l.theme.Failure.Render(title)
	}
	fmt.Fprintln(l.out, title)
	if c.Message != "" {
		fmt.Fprintln(l.out, c.Message)
	}
	answer, ok := l.ask(ctx, fmt.Sprintf("%s? [y/N]", c.Confirm), "")
	if !ok {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (l *Line) Notify(n todo.Notice) {
	mark, style := "✓", l.theme.Success
	if n.Level == todo.Failure {
		mark, style = "✗", l.theme.Failure
	}
	line := style.Render(mark + " " + n.Title)
	if n.Message != "" {
		line += " " + n.Message
	}
	fmt.Fprintln(l.out, line)
}

// ask prints the prompt and reads one trimmed line. ok is false at end of
// input or when ctx is done.
func (l *Line) ask(ctx context.Context, label, current string) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	if current != "" {
		fmt.Fprintf(l.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(l.out, "%s: ", label)
	}
	s, err := l.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		fmt.Fprintln(l.out)
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		s = current
	}
	return s, true
}
