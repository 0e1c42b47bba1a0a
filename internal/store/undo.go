package store

import (
	"sync"

	"github.com/zayatsoff/spm/internal/models"
)

// UndoStack is a bounded LIFO of completed mutations. Pushing past the
// depth evicts the oldest entry so long sessions cannot grow it without
// bound.
type UndoStack struct {
	mu      sync.Mutex
	entries []models.UndoEntry
	depth   int
}

// NewUndoStack creates a stack bounded to the given depth.
func NewUndoStack(depth int) *UndoStack {
	if depth <= 0 {
		depth = 50
	}

	return &UndoStack{depth: depth}
}

// Push records a completed mutation, evicting the oldest entry when full.
func (u *UndoStack) Push(entry models.UndoEntry) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(u.entries) >= u.depth {
		u.entries = append([]models.UndoEntry{}, u.entries[1:]...)
	}
	u.entries = append(u.entries, entry)
}

// Pop removes and returns the most recent entry. The second return is
// false when the stack is empty.
func (u *UndoStack) Pop() (models.UndoEntry, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(u.entries) == 0 {
		return models.UndoEntry{}, false
	}

	entry := u.entries[len(u.entries)-1]
	u.entries = u.entries[:len(u.entries)-1]

	return entry, true
}

// Len returns the number of recorded entries.
func (u *UndoStack) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	return len(u.entries)
}
