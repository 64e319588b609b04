package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrisonrobin/tugas/pkg/todo"
)

type formReply struct {
	result todo.FormResult
	ok     bool
}

// formRequestMsg asks the model to open the task form and answer on reply.
type formRequestMsg struct {
	form  todo.Form
	reply chan<- formReply
}

// confirmRequestMsg asks the model to open a yes/no dialog.
type confirmRequestMsg struct {
	confirmation todo.Confirmation
	reply        chan<- bool
}

type noticeMsg struct{ notice todo.Notice }

type reloadedMsg struct{ err error }

// Bridge is the todo.Prompter the controller talks to while the TUI runs. It
// turns each blocking dialog into a message for the event loop and waits for
// the model's answer.
type Bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

var _ todo.Prompter = (*Bridge)(nil)

func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach connects the bridge to a running program, usually tea.Program.Send.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

func (b *Bridge) deliver(msg tea.Msg) bool {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send == nil {
		return false
	}
	send(msg)
	return true
}

func (b *Bridge) Form(ctx context.Context, f todo.Form) (todo.FormResult, bool) {
	reply := make(chan formReply, 1)
	if !b.deliver(formRequestMsg{form: f, reply: reply}) {
		return todo.FormResult{}, false
	}
	select {
	case r := <-reply:
		return r.result, r.ok
	case <-ctx.Done():
		return todo.FormResult{}, false
	}
}

func (b *Bridge) Confirm(ctx context.Context, c todo.Confirmation) bool {
	reply := make(chan bool, 1)
	if !b.deliver(confirmRequestMsg{confirmation: c, reply: reply}) {
		return false
	}
	select {
	case yes := <-reply:
		return yes
	case <-ctx.Done():
		return false
	}
}

func (b *Bridge) Notify(n todo.Notice) {
	b.deliver(noticeMsg{notice: n})
}

// Reloaded tells the model that the list was refreshed from the store in the
// background.
func (b *Bridge) Reloaded(err error) {
	b.deliver(reloadedMsg{err: err})
}
