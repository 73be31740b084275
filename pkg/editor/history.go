package editor

import (
	"time"

	"github.com/matzehuels/floorsmith/pkg/plan"
)

// DefaultMaxHistory is the snapshot stack cap. Once full, the oldest
// snapshot is dropped on every push.
const DefaultMaxHistory = 50

// Snapshot is one committed state on the history stack. Snapshots hold full
// deep copies and are never mutated after capture.
type Snapshot struct {
	Spaces    []plan.Space `json:"spaces" bson:"spaces"`
	Label     string       `json:"label" bson:"label"`
	Timestamp time.Time    `json:"timestamp" bson:"timestamp"`
}

// HistoryState summarizes undo/redo availability for command results.
type HistoryState struct {
	CanUndo bool `json:"can_undo" bson:"can_undo"`
	CanRedo bool `json:"can_redo" bson:"can_redo"`
	Depth   int  `json:"depth" bson:"depth"`
	Cursor  int  `json:"cursor" bson:"cursor"`
}

// History is a capped, linear snapshot stack with a cursor. Pushing after an
// undo discards everything beyond the cursor; there is no branching.
type History struct {
	entries []Snapshot
	cursor  int
	max     int
}

// NewHistory creates a history capped at max entries (DefaultMaxHistory when
// max is not positive).
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultMaxHistory
	}
	return &History{cursor: -1, max: max}
}

// Push records a deep copy of spaces as the new current state. Any redo tail
// beyond the cursor is discarded; the oldest entry is dropped once the cap
// is reached.
func (h *History) Push(label string, spaces []plan.Space) {
	h.entries = h.entries[:h.cursor+1]
	h.entries = append(h.entries, Snapshot{
		Spaces:    plan.CloneSpaces(spaces),
		Label:     label,
		Timestamp: time.Now(),
	})
	if len(h.entries) > h.max {
		h.entries = h.entries[1:]
	}
	h.cursor = len(h.entries) - 1
}

// Undo moves the cursor back one snapshot and returns a deep copy of it.
// Returns false when there is nothing to undo.
func (h *History) Undo() ([]plan.Space, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.cursor--
	return plan.CloneSpaces(h.entries[h.cursor].Spaces), true
}

// Redo moves the cursor forward one snapshot and returns a deep copy of it.
// Returns false when there is nothing to redo.
func (h *History) Redo() ([]plan.Space, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.cursor++
	return plan.CloneSpaces(h.entries[h.cursor].Spaces), true
}

// CanUndo reports whether a snapshot exists before the cursor.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether a snapshot exists after the cursor.
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }

// Len returns the number of snapshots on the stack.
func (h *History) Len() int { return len(h.entries) }

// Labels returns the snapshot labels in stack order, oldest first.
func (h *History) Labels() []string {
	labels := make([]string, len(h.entries))
	for i, e := range h.entries {
		labels[i] = e.Label
	}
	return labels
}

// State returns the current undo/redo availability.
func (h *History) State() HistoryState {
	return HistoryState{
		CanUndo: h.CanUndo(),
		CanRedo: h.CanRedo(),
		Depth:   len(h.entries),
		Cursor:  h.cursor,
	}
}
