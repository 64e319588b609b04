package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/harrisonrobin/tugas/pkg/model"
)

// Memory is a goroutine-safe Store held in process memory. IDs are random UUIDs.
type Memory struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]model.Task
}

// NewMemory returns an empty in-memory store seeded with the given tasks.
func NewMemory(seed ...model.Task) *Memory {
	m := &Memory{tasks: make(map[string]model.Task)}
	for _, t := range seed {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		m.order = append(m.order, t.ID)
		m.tasks[t.ID] = t
	}
	return m
}

func (m *Memory) List(ctx context.Context) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	tasks := make([]model.Task, 0, len(m.order))
	for _, id := range m.order {
		tasks = append(tasks, m.tasks[id])
	}
	return tasks, nil
}

func (m *Memory) Create(ctx context.Context, fields model.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Op: "create", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.order = append(m.order, id)
	m.tasks[id] = fields.WithID(id)
	return id, nil
}

func (m *Memory) Update(ctx context.Context, id string, patch model.Patch) error {
	if err := ctx.Err(); err != nil {
		return &Error{Op: "update", ID: id, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return &Error{Op: "update", ID: id, Err: ErrNotFound}
	}
	m.tasks[id] = t.Apply(patch)
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Op: "delete", ID: id, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return &Error{Op: "delete", ID: id, Err: ErrNotFound}
	}
	delete(m.tasks, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a task by ID.
func (m *Memory) Get(id string) (model.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	return t, ok
}

// Len returns the number of stored tasks.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tasks)
}
