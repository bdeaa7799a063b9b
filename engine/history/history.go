package history

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrNothingToUndo is returned by Undo when every recorded edit has been undone.
	ErrNothingToUndo = errors.New("history: nothing to undo")

	// ErrNothingToRedo is returned by Redo when no undone edit is left to reapply.
	ErrNothingToRedo = errors.New("history: nothing to redo")
)

// Edit is one undoable change to a single field of a single object.
// Old and New hold whatever value the owner of Field needs to restore either side.
type Edit struct {
	TargetID string
	Field    string
	Old      any
	New      any
}

// History is a linear undo/redo stack. Recording a new edit discards everything that was undone.
type History interface {
	// Record pushes an edit that has already been applied.
	//
	// Parameters:
	//   - e: the applied edit
	Record(e Edit)

	// Undo steps back one edit and returns it. The caller applies e.Old.
	//
	// Returns:
	//   - Edit: the edit to revert
	//   - error: ErrNothingToUndo if the stack is at its start
	Undo() (Edit, error)

	// Redo steps forward one edit and returns it. The caller applies e.New.
	//
	// Returns:
	//   - Edit: the edit to reapply
	//   - error: ErrNothingToRedo if nothing has been undone
	Redo() (Edit, error)

	// CanUndo reports whether Undo would succeed.
	CanUndo() bool

	// CanRedo reports whether Redo would succeed.
	CanRedo() bool

	// Len returns the number of recorded edits, undone ones included.
	Len() int

	// Clear drops every record.
	Clear()
}

type history struct {
	mu *sync.Mutex

	// idx is the record Undo returns next; -1 when nothing is left to undo.
	idx      int
	recs     []Edit
	maxDepth int
}

var _ History = &history{}

// NewHistory creates an empty History.
//
// Parameters:
//   - options: functional options to configure the history
//
// Returns:
//   - History: the new history
func NewHistory(options ...HistoryBuilderOption) History {
	h := &history{
		mu:       &sync.Mutex{},
		idx:      -1,
		maxDepth: 256,
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

func (h *history) Record(e Edit) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.recs = append(h.recs[:h.idx+1], e)
	if h.maxDepth > 0 && len(h.recs) > h.maxDepth {
		h.recs = h.recs[len(h.recs)-h.maxDepth:]
	}
	h.idx = len(h.recs) - 1
}

func (h *history) Undo() (Edit, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.idx < 0 {
		return Edit{}, ErrNothingToUndo
	}
	e := h.recs[h.idx]
	h.idx--
	return e, nil
}

func (h *history) Redo() (Edit, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.idx >= len(h.recs)-1 {
		return Edit{}, ErrNothingToRedo
	}
	h.idx++
	return h.recs[h.idx], nil
}

func (h *history) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.idx >= 0
}

func (h *history) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.idx < len(h.recs)-1
}

func (h *history) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.recs)
}

func (h *history) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = nil
	h.idx = -1
}
