package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harrisonrobin/tugas/pkg/model"
)

// AddTask asks for a name and deadline and creates the task. A cancelled
// dialog does nothing; a submitted dialog with a missing or unreadable field
// is reported and never reaches the store.
func (c *Controller) AddTask(ctx context.Context) error {
	return c.AddTaskWith(ctx, FormResult{})
}

// AddTaskWith is AddTask with the dialog pre-filled from draft.
func (c *Controller) AddTaskWith(ctx context.Context, draft FormResult) error {
	c.action.Lock()
	defer c.action.Unlock()

	res, ok := c.prompter.Form(ctx, Form{
		Title:    "Add a new task",
		Submit:   "Add",
		Text:     draft.Text,
		Deadline: draft.Deadline,
	})
	if !ok {
		return nil
	}
	fields, err := validate(res.Text, res.Deadline)
	if err != nil {
		c.prompter.Notify(Notice{Level: Failure, Title: "Failed", Message: validationMessage(err)})
		return err
	}
	if _, err := c.create(ctx, fields); err != nil {
		c.prompter.Notify(Notice{Level: Failure, Title: "Failed", Message: "Something went wrong while adding the task."})
		return err
	}
	c.prompter.Notify(Notice{Level: Success, Title: "Done!", Message: "Task added."})
	return nil
}

// EditTask opens the task dialog pre-filled with the current values. Cancelling
// or leaving a field blank is a silent no-op.
func (c *Controller) EditTask(ctx context.Context, id string) error {
	c.action.Lock()
	defer c.action.Unlock()

	task, ok := c.Task(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	res, ok := c.prompter.Form(ctx, Form{
		Title:    "Edit task",
		Submit:   "Save",
		Text:     task.Text,
		Deadline: task.Deadline,
	})
	if !ok || strings.TrimSpace(res.Text) == "" || strings.TrimSpace(res.Deadline) == "" {
		return nil
	}
	fields, err := validate(res.Text, res.Deadline)
	if err != nil {
		c.prompter.Notify(Notice{Level: Failure, Title: "Failed", Message: validationMessage(err)})
		return err
	}
	if _, err := c.update(ctx, id, model.Patch{Text: &fields.Text, Deadline: &fields.Deadline}); err != nil {
		c.prompter.Notify(Notice{Level: Failure, Title: "Failed", Message: "Something went wrong while saving the task."})
		return err
	}
	c.prompter.Notify(Notice{Level: Success, Title: "Done!", Message: "Task updated."})
	return nil
}

// ToggleTask asks whether to flip the completed flag, worded after the
// current state, and flips it in the store and in memory on a yes.
func (c *Controller) ToggleTask(ctx context.Context, id string) error {
	c.action.Lock()
	defer c.action.Unlock()

	task, ok := c.Task(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	completing := !task.Completed
	q := Confirmation{
		Title:   "Undo completion?",
		Message: fmt.Sprintf("%q will be marked as not done.", task.Text),
		Confirm: "Yes, undo",
		Cancel:  "Cancel",
	}
	if completing {
		q.Title = "Mark task as done?"
		q.Message = fmt.Sprintf("%q will be marked as done.", task.Text)
		q.Confirm = "Yes, complete"
	}
	if !c.prompter.Confirm(ctx, q) {
		return nil
	}
	if _, err := c.update(ctx, id, model.Patch{Completed: &completing}); err != nil {
		c.prompter.Notify(Notice{Level: Failure, Title: "Failed", Message: "Something went wrong while updating the task."})
		return err
	}
	title := "Completion undone!"
	if completing {
		title = "Task done!"
	}
	c.prompter.Notify(Notice{Level: Success, Title: title})
	return nil
}

// DeleteTask asks for confirmation and deletes the task on a yes.
func (c *Controller) DeleteTask(ctx context.Context, id string) error {
	c.action.Lock()
	defer c.action.Unlock()

	task, ok := c.Task(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	confirmed := c.prompter.Confirm(ctx, Confirmation{
		Title:       "Are you sure?",
		Message:     fmt.Sprintf("%q will be deleted. This cannot be undone!", task.Text),
		Confirm:     "Yes, delete",
		Cancel:      "No",
		Destructive: true,
	})
	if !confirmed {
		return nil
	}
	if err := c.remove(ctx, id); err != nil {
		c.prompter.Notify(Notice{Level: Failure, Title: "Failed", Message: "Something went wrong while deleting the task."})
		return err
	}
	c.prompter.Notify(Notice{Level: Success, Title: "Deleted!", Message: "The task has been deleted."})
	return nil
}

func validationMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, ErrValidation) {
		msg = strings.TrimPrefix(msg, ErrValidation.Error()+": ")
	}
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
