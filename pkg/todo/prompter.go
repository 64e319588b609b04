package todo

import "context"

// Form describes a two-field task dialog.
type Form struct {
	Title    string
	Submit   string
	Text     string
	Deadline string
}

// FormResult is the ordered pair a submitted form returns.
type FormResult struct {
	Text     string
	Deadline string
}

// Confirmation is a yes/no question.
type Confirmation struct {
	Title       string
	Message     string
	Confirm     string
	Cancel      string
	Destructive bool
}

// Level classifies a notice.
type Level int

const (
	Success Level = iota
	Failure
)

func (l Level) String() string {
	if l == Failure {
		return "failure"
	}
	return "success"
}

// Notice is a transient message for the user.
type Notice struct {
	Level   Level
	Title   string
	Message string
}

// Prompter is the interaction surface the controller drives. Form returns
// ok=false when the dialog was cancelled; Confirm returns true only on an
// explicit yes.
type Prompter interface {
	Form(ctx context.Context, form Form) (FormResult, bool)
	Confirm(ctx context.Context, c Confirmation) bool
	Notify(n Notice)
}

// declining cancels every dialog. Used when no interactive surface is attached.
type declining struct{}

func (declining) Form(context.Context, Form) (FormResult, bool) { return FormResult{}, false }

func (declining) Confirm(context.Context, Confirmation) bool { return false }

func (declining) Notify(Notice) {}
