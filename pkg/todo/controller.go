// Package todo holds the in-memory task list, keeps it in step with the store
// and derives the per-task countdown.
package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harrisonrobin/tugas/pkg/clock"
	"github.com/harrisonrobin/tugas/pkg/countdown"
	"github.com/harrisonrobin/tugas/pkg/logging"
	"github.com/harrisonrobin/tugas/pkg/model"
	"github.com/harrisonrobin/tugas/pkg/store"
)

var (
	// ErrUnknownTask is returned for IDs that are not in the loaded list.
	ErrUnknownTask = errors.New("unknown task")
	// ErrValidation marks input rejected before any store call.
	ErrValidation = errors.New("invalid input")
)

// DefaultInterval is how often the countdown is recomputed.
const DefaultInterval = time.Second

// Row is a task together with its current countdown string.
type Row struct {
	model.Task
	Remaining string
}

// Controller is the single owner of the in-memory task list.
type Controller struct {
	store    store.Store
	prompter Prompter
	clock    clock.Clock
	logger   *log.Logger
	interval time.Duration
	onTick   func()

	// action serializes mutating operations so that a store call and the
	// matching in-memory update are never interleaved with another mutation.
	action sync.Mutex

	mu        sync.Mutex
	tasks     []model.Task
	table     *countdown.Table
	remaining map[string]string
}

// Option configures a Controller.
type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

func WithLogger(l *log.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

func WithInterval(d time.Duration) Option {
	return func(ctl *Controller) { ctl.interval = d }
}

// WithTickHook registers f to run after every countdown tick in Run.
func WithTickHook(f func()) Option {
	return func(ctl *Controller) { ctl.onTick = f }
}

// New returns a controller over s. A nil prompter cancels every dialog.
func New(s store.Store, p Prompter, opts ...Option) *Controller {
	if p == nil {
		p = declining{}
	}
	c := &Controller{
		store:     s,
		prompter:  p,
		clock:     clock.Real(),
		logger:    logging.Discard(),
		interval:  DefaultInterval,
		table:     countdown.NewTable(),
		remaining: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPrompter swaps the interaction surface, for UIs built after the controller.
func (c *Controller) SetPrompter(p Prompter) {
	c.action.Lock()
	defer c.action.Unlock()
	if p == nil {
		p = declining{}
	}
	c.prompter = p
}

// Load fetches the whole collection once and replaces the in-memory list.
func (c *Controller) Load(ctx context.Context) error {
	c.action.Lock()
	defer c.action.Unlock()
	return c.load(ctx)
}

// Reload is Load for an already running controller; countdown strings of
// tasks that survive the reload are kept.
func (c *Controller) Reload(ctx context.Context) error {
	return c.Load(ctx)
}

func (c *Controller) load(ctx context.Context) error {
	tasks, err := c.store.List(ctx)
	if err != nil {
		c.logger.Error("could not load tasks", "err", err)
		return fmt.Errorf("load tasks: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	keep := make(map[string]bool, len(tasks))
	c.table = countdown.NewTable()
	c.tasks = append([]model.Task(nil), tasks...)
	for _, t := range c.tasks {
		keep[t.ID] = true
		c.trackLocked(t, now)
	}
	for id := range c.remaining {
		if !keep[id] {
			delete(c.remaining, id)
		}
	}
	c.logger.Info("loaded tasks", "count", len(c.tasks), "counting", c.table.Len())
	return nil
}

// trackLocked puts t in or out of the running countdown set.
func (c *Controller) trackLocked(t model.Task, now time.Time) {
	deadline, err := t.DeadlineTime()
	if err != nil {
		c.logger.Warn("task has an unreadable deadline", "task", t.ID, "deadline", t.Deadline)
		c.table.Remove(t.ID)
		c.remaining[t.ID] = countdown.Sentinel
		return
	}
	if t.Completed || !deadline.After(now) {
		c.table.Remove(t.ID)
		c.remaining[t.ID] = countdown.Format(deadline, now)
		return
	}
	c.table.Update(t.ID, deadline)
	if _, ok := c.remaining[t.ID]; !ok || c.remaining[t.ID] == countdown.Sentinel {
		c.remaining[t.ID] = countdown.Pending
	}
}

// Tick recomputes the countdown of every running task. Expired tasks are
// frozen at the sentinel and no longer recomputed.
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.table.Sweep(now) {
		c.remaining[e.ID] = countdown.Sentinel
		c.logger.Debug("deadline passed", "task", e.ID)
	}
	c.table.Compute(now, c.remaining)
}

// Run ticks the countdown every interval until ctx is done. The ticker is
// stopped on return.
func (c *Controller) Run(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Tick(c.clock.Now())
			if c.onTick != nil {
				c.onTick()
			}
		}
	}
}

// Tasks returns a copy of the in-memory list in load/insertion order.
func (c *Controller) Tasks() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Task(nil), c.tasks...)
}

// Rows returns every task with its countdown string.
func (c *Controller) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := make([]Row, len(c.tasks))
	for i, t := range c.tasks {
		rows[i] = Row{Task: t, Remaining: c.remainingLocked(t.ID)}
	}
	return rows
}

// Task looks a task up by ID.
func (c *Controller) Task(id string) (model.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return model.Task{}, false
	}
	return c.tasks[i], true
}

// Remaining returns the countdown string for id.
func (c *Controller) Remaining(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingLocked(id)
}

// Counting reports how many tasks are still being recomputed each tick.
func (c *Controller) Counting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table.Len()
}

func (c *Controller) remainingLocked(id string) string {
	if s, ok := c.remaining[id]; ok {
		return s
	}
	return countdown.Pending
}

func (c *Controller) indexLocked(id string) int {
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Create validates the input, creates the task in the store and appends it.
func (c *Controller) Create(ctx context.Context, text, deadline string) (model.Task, error) {
	c.action.Lock()
	defer c.action.Unlock()
	fields, err := validate(text, deadline)
	if err != nil {
		return model.Task{}, err
	}
	return c.create(ctx, fields)
}

// Import creates a task from complete fields, keeping their completed state.
func (c *Controller) Import(ctx context.Context, fields model.Fields) (model.Task, error) {
	c.action.Lock()
	defer c.action.Unlock()
	valid, err := validate(fields.Text, fields.Deadline)
	if err != nil {
		return model.Task{}, err
	}
	valid.Completed = fields.Completed
	return c.create(ctx, valid)
}

func (c *Controller) create(ctx context.Context, fields model.Fields) (model.Task, error) {
	id, err := c.store.Create(ctx, fields)
	if err != nil {
		c.logger.Error("could not create task", "text", fields.Text, "err", err)
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	task := fields.WithID(id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, task)
	c.trackLocked(task, c.clock.Now())
	c.logger.Info("task created", "task", id)
	return task, nil
}

// Edit replaces a task's text and deadline.
func (c *Controller) Edit(ctx context.Context, id, text, deadline string) (model.Task, error) {
	c.action.Lock()
	defer c.action.Unlock()
	if _, ok := c.Task(id); !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	fields, err := validate(text, deadline)
	if err != nil {
		return model.Task{}, err
	}
	return c.update(ctx, id, model.Patch{Text: &fields.Text, Deadline: &fields.Deadline})
}

// SetCompleted writes the completed flag of a task.
func (c *Controller) SetCompleted(ctx context.Context, id string, completed bool) (model.Task, error) {
	c.action.Lock()
	defer c.action.Unlock()
	if _, ok := c.Task(id); !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	return c.update(ctx, id, model.Patch{Completed: &completed})
}

func (c *Controller) update(ctx context.Context, id string, patch model.Patch) (model.Task, error) {
	if err := c.store.Update(ctx, id, patch); err != nil {
		c.logger.Error("could not update task", "task", id, "fields", patch.Paths(), "err", err)
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	c.tasks[i] = c.tasks[i].Apply(patch)
	c.trackLocked(c.tasks[i], c.clock.Now())
	c.logger.Info("task updated", "task", id, "fields", patch.Paths())
	return c.tasks[i], nil
}

// Remove deletes a task from the store and then from memory.
func (c *Controller) Remove(ctx context.Context, id string) error {
	c.action.Lock()
	defer c.action.Unlock()
	return c.remove(ctx, id)
}

func (c *Controller) remove(ctx context.Context, id string) error {
	if _, ok := c.Task(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	if err := c.store.Delete(ctx, id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Error("could not delete task", "task", id, "err", err)
			return fmt.Errorf("delete task: %w", err)
		}
		// Already gone from the store, e.g. deleted by another client.
		c.logger.Warn("task was already deleted", "task", id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
	}
	c.table.Remove(id)
	delete(c.remaining, id)
	c.logger.Info("task deleted", "task", id)
	return nil
}

// validate trims both fields and requires them to be present and the
// deadline to be readable.
func validate(text, deadline string) (model.Fields, error) {
	text = strings.TrimSpace(text)
	deadline = strings.TrimSpace(deadline)
	if text == "" || deadline == "" {
		return model.Fields{}, fmt.Errorf("%w: task name and deadline are both required", ErrValidation)
	}
	if _, err := model.ParseDeadline(deadline); err != nil {
		return model.Fields{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return model.Fields{Text: text, Deadline: deadline}, nil
}
