// Package store defines the task store contract and an in-memory implementation.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/harrisonrobin/tugas/pkg/model"
)

// ErrNotFound is returned when a task document does not exist.
var ErrNotFound = errors.New("task not found")

// Store is a remote collection of tasks keyed by an opaque, store-assigned ID.
type Store interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, fields model.Fields) (string, error)
	Update(ctx context.Context, id string, patch model.Patch) error
	Delete(ctx context.Context, id string) error
}

// Error wraps a failed store operation.
type Error struct {
	Op  string
	ID  string
	Err error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s task %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s tasks: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
