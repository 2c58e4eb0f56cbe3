package urlstate

import (
	"fmt"
	"sync"

	"github.com/five82/tally/internal/prefs"
)

// History stores the current shareable query. Replace overwrites the current
// entry; there is no push.
type History interface {
	Replace(query string) error
	Current() string
}

// Commit mirrors s into h with exactly one Replace.
func Commit(h History, s State) error {
	if h == nil {
		return nil
	}
	if err := h.Replace(Encode(s)); err != nil {
		return fmt.Errorf("commit view: %w", err)
	}
	return nil
}

// Restore decodes explicit when it is set, otherwise the current entry of h.
func Restore(h History, explicit string) State {
	if explicit != "" {
		return Decode(explicit)
	}
	if h == nil {
		return State{}
	}
	return Decode(h.Current())
}

// MemoryHistory keeps every replaced query in memory.
type MemoryHistory struct {
	mu      sync.Mutex
	initial string
	entries []string
}

// NewMemoryHistory returns a history whose current entry is initial.
func NewMemoryHistory(initial string) *MemoryHistory {
	return &MemoryHistory{initial: initial}
}

func (h *MemoryHistory) Replace(query string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, query)
	return nil
}

func (h *MemoryHistory) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return h.initial
	}
	return h.entries[len(h.entries)-1]
}

// Replaces returns every replaced query in order, excluding the initial entry.
func (h *MemoryHistory) Replaces() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// FileHistory persists the current query in the preferences file so the view
// survives a restart.
type FileHistory struct {
	mu   sync.Mutex
	path string
}

// NewFileHistory returns a history backed by the prefs file at path. An empty
// path uses the default location.
func NewFileHistory(path string) *FileHistory {
	return &FileHistory{path: path}
}

func (h *FileHistory) Replace(query string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return prefs.Update(h.path, func(p *prefs.Prefs) { p.View = query })
}

func (h *FileHistory) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, _ := prefs.Load(h.path)
	return p.View
}
