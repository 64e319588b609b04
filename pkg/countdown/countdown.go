// Package countdown formats the time left until a deadline and tracks which
// deadlines are still running.
package countdown

import (
	"fmt"
	"time"
)

const (
	// Sentinel is shown once a deadline has passed.
	Sentinel = "time's up"
	// Pending is shown before the first tick has computed a value.
	Pending = "calculating..."
)

// Format renders the time left until deadline as "<h>h <m>m <s>s".
// Hours are not rolled into days. Anything at or past the deadline is Sentinel.
func Format(deadline, now time.Time) string {
	left := deadline.Sub(now)
	if left <= 0 {
		return Sentinel
	}
	total := int64(left / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

type Entry struct {
	ID       string
	Deadline time.Time
}

// Table is the set of tasks whose countdown is still running: not completed and
// with a deadline in the future. Expired entries are swept out.
type Table struct {
	entries map[string]time.Time
}

func NewTable() *Table {
	return &Table{entries: make(map[string]time.Time)}
}

// Update adds or refreshes a running task. A zero deadline removes it.
func (t *Table) Update(id string, deadline time.Time) {
	if deadline.IsZero() {
		t.Remove(id)
		return
	}
	t.entries[id] = deadline
}

func (t *Table) Remove(id string) {
	delete(t.entries, id)
}

func (t *Table) Len() int {
	return len(t.entries)
}

// Sweep returns entries whose deadline is at or before now and removes them.
func (t *Table) Sweep(now time.Time) []Entry {
	var swept []Entry
	for id, deadline := range t.entries {
		if !deadline.After(now) {
			swept = append(swept, Entry{ID: id, Deadline: deadline})
			delete(t.entries, id)
		}
	}
	return swept
}

// Compute writes the remaining time of every running entry into out.
func (t *Table) Compute(now time.Time, out map[string]string) {
	for id, deadline := range t.entries {
		out[id] = Format(deadline, now)
	}
}
