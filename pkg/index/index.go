// Package index keeps the short numeric handles that subcommands use to
// address tasks between invocations.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const handlesFile = "handles.json"

type Handles struct {
	Mappings map[string]string `json:"mappings"`
	Path     string            `json:"-"`
	mu       sync.RWMutex
	dirty    bool
}

// New returns the handle index stored in dir, loading it if present.
func New(dir string) (*Handles, error) {
	h := &Handles{
		Mappings: make(map[string]string),
		Path:     filepath.Join(dir, handlesFile),
	}
	if _, err := os.Stat(h.Path); err == nil {
		if err := h.Load(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Handles) Load() error {
	f, err := os.Open(h.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	h.mu.Lock()
	defer h.mu.Unlock()
	return json.NewDecoder(f).Decode(&h.Mappings)
}

// Save writes the index if it changed since the last load or save.
func (h *Handles) Save() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(h.Path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(h.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(h.Mappings); err != nil {
		return err
	}
	h.dirty = false
	return nil
}

// Assign numbers ids from 1 in the given order and returns id -> handle.
func (h *Handles) Assign(ids []string) map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := make(map[string]string, len(ids))
	byID := make(map[string]int, len(ids))
	for i, id := range ids {
		next[strconv.Itoa(i+1)] = id
		byID[id] = i + 1
	}
	if !sameMappings(h.Mappings, next) {
		h.Mappings = next
		h.dirty = true
	}
	return byID
}

// Resolve turns a handle or a raw store ID into a store ID.
func (h *Handles) Resolve(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("empty task handle")
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if id, ok := h.Mappings[arg]; ok {
		return id, nil
	}
	if _, err := strconv.Atoi(arg); err == nil {
		return "", fmt.Errorf("no task with handle %s, run `tugas list` first", arg)
	}
	return arg, nil
}

func sameMappings(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
