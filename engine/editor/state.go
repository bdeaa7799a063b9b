package editor

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-editor/engine/history"
	"github.com/Carmen-Shannon/oxy-editor/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Edit fields recorded in the history.
const (
	// FieldPlacement edits carry skeleton.Placement values and come from reparents.
	FieldPlacement = "placement"

	// FieldPosition edits carry mgl32.Vec3 local positions and come from property edits.
	FieldPosition = "position"
)

// ErrUnknownEdit is returned when a history record carries a field or value this package did not record.
var ErrUnknownEdit = errors.New("editor: unknown edit")

// State pairs the joint editor with its undo history and the joint tree's drag state.
// Every mutation made through State is recorded so it can be undone.
type State interface {
	// Skeleton returns the underlying joint editor.
	Skeleton() skeleton.Editor

	// History returns the undo history.
	History() history.History

	// Reparent moves draggedID under targetID and records the move.
	//
	// Parameters:
	//   - draggedID: the joint being moved
	//   - targetID: the new parent
	//
	// Returns:
	//   - error: skeleton.ErrNotFound or skeleton.ErrCycleDetected; nothing is recorded on error
	Reparent(draggedID, targetID string) error

	// MoveJoint sets a joint's local position and records the edit.
	//
	// Parameters:
	//   - id: the joint id
	//   - pos: the new local position
	//
	// Returns:
	//   - error: skeleton.ErrNotFound if id is absent
	MoveJoint(id string, pos mgl32.Vec3) error

	// Undo reverts the most recent edit.
	//
	// Returns:
	//   - error: history.ErrNothingToUndo, or the error from reapplying the old value
	Undo() error

	// Redo reapplies the most recently undone edit.
	//
	// Returns:
	//   - error: history.ErrNothingToRedo, or the error from reapplying the new value
	Redo() error

	// BeginDrag marks a joint as being dragged in the joint tree.
	//
	// Parameters:
	//   - id: the dragged joint
	BeginDrag(id string)

	// Dragging returns the joint being dragged, if any.
	Dragging() (string, bool)

	// EndDrag clears and returns the drag state.
	EndDrag() (string, bool)

	// Dirty reports whether the skeleton changed since the last load or save.
	Dirty() bool

	// Load replaces the skeleton with a saved YAML file and clears history.
	//
	// Parameters:
	//   - path: the skeleton file
	//
	// Returns:
	//   - error: error if the file cannot be loaded
	Load(path string) error

	// Import replaces the skeleton with the first skin of a glTF file and clears history.
	//
	// Parameters:
	//   - path: the glTF file
	//
	// Returns:
	//   - error: error if the file cannot be imported
	Import(path string) error

	// Save writes the skeleton to a YAML file and clears the dirty flag.
	//
	// Parameters:
	//   - path: the destination file
	//
	// Returns:
	//   - error: error if writing fails
	Save(path string) error

	// Autosave saves only when the skeleton is dirty.
	//
	// Parameters:
	//   - path: the destination file
	//
	// Returns:
	//   - bool: true if a save happened
	//   - error: error if writing fails
	Autosave(path string) (bool, error)
}

type state struct {
	// mu pairs each mutation with its history record.
	mu *sync.Mutex

	skeleton skeleton.Editor
	history  history.History
	logger   *slog.Logger

	dragMu   *sync.Mutex
	dragging string

	dirty atomic.Bool
}

var _ State = &state{}

// NewState creates a State over an empty skeleton.
//
// Parameters:
//   - options: functional options to configure the state
//
// Returns:
//   - State: the new state
func NewState(options ...StateBuilderOption) State {
	s := &state{
		mu:     &sync.Mutex{},
		dragMu: &sync.Mutex{},
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.skeleton == nil {
		s.skeleton = skeleton.NewEditor()
	}
	if s.history == nil {
		s.history = history.NewHistory()
	}
	s.skeleton.Subscribe(func([]skeleton.Joint) { s.dirty.Store(true) })
	return s
}

func (s *state) Skeleton() skeleton.Editor {
	return s.skeleton
}

func (s *state) History() history.History {
	return s.history
}

func (s *state) Reparent(draggedID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, err := s.skeleton.Placement(draggedID)
	if err != nil {
		return err
	}
	if err := s.skeleton.Reparent(draggedID, targetID); err != nil {
		return err
	}
	after, err := s.skeleton.Placement(draggedID)
	if err != nil {
		return err
	}
	s.history.Record(history.Edit{TargetID: draggedID, Field: FieldPlacement, Old: before, New: after})
	return nil
}

func (s *state) MoveJoint(id string, pos mgl32.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.skeleton.Joint(id)
	if !ok {
		return errors.Wrapf(skeleton.ErrNotFound, "move %q", id)
	}
	if err := s.skeleton.SetPosition(id, pos); err != nil {
		return err
	}
	s.history.Record(history.Edit{TargetID: id, Field: FieldPosition, Old: j.Position, New: pos})
	return nil
}

func (s *state) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.history.Undo()
	if err != nil {
		return err
	}
	if err := s.apply(e.TargetID, e.Field, e.Old); err != nil {
		// keep the record current so the user can retry
		_, _ = s.history.Redo()
		return errors.Wrapf(err, "undo %s of %q", e.Field, e.TargetID)
	}
	return nil
}

func (s *state) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.history.Redo()
	if err != nil {
		return err
	}
	if err := s.apply(e.TargetID, e.Field, e.New); err != nil {
		_, _ = s.history.Undo()
		return errors.Wrapf(err, "redo %s of %q", e.Field, e.TargetID)
	}
	return nil
}

func (s *state) apply(id, field string, value any) error {
	switch field {
	case FieldPlacement:
		p, ok := value.(skeleton.Placement)
		if !ok {
			return errors.Wrapf(ErrUnknownEdit, "%s value %T", field, value)
		}
		return s.skeleton.Place(id, p)
	case FieldPosition:
		pos, ok := value.(mgl32.Vec3)
		if !ok {
			return errors.Wrapf(ErrUnknownEdit, "%s value %T", field, value)
		}
		return s.skeleton.SetPosition(id, pos)
	default:
		return errors.Wrapf(ErrUnknownEdit, "field %q", field)
	}
}

func (s *state) BeginDrag(id string) {
	s.dragMu.Lock()
	defer s.dragMu.Unlock()
	s.dragging = id
}

func (s *state) Dragging() (string, bool) {
	s.dragMu.Lock()
	defer s.dragMu.Unlock()
	return s.dragging, s.dragging != ""
}

func (s *state) EndDrag() (string, bool) {
	s.dragMu.Lock()
	defer s.dragMu.Unlock()
	id := s.dragging
	s.dragging = ""
	return id, id != ""
}

func (s *state) Dirty() bool {
	return s.dirty.Load()
}

func (s *state) replace(joints []skeleton.Joint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.skeleton.Replace(joints); err != nil {
		return err
	}
	s.history.Clear()
	s.dirty.Store(false)
	return nil
}

func (s *state) Load(path string) error {
	joints, err := skeleton.LoadFile(path)
	if err != nil {
		return err
	}
	if err := s.replace(joints); err != nil {
		return err
	}
	s.logger.Info("skeleton loaded", "path", path, "joints", len(joints))
	return nil
}

func (s *state) Import(path string) error {
	joints, err := skeleton.ImportGLTF(path)
	if err != nil {
		return err
	}
	if err := s.replace(joints); err != nil {
		return err
	}
	// an import is not on disk in the editor's own format yet
	s.dirty.Store(true)
	s.logger.Info("skeleton imported", "path", path, "joints", len(joints))
	return nil
}

func (s *state) Save(path string) error {
	// clear first so an edit racing the save marks the skeleton dirty again
	s.dirty.Store(false)
	if err := skeleton.SaveFile(path, s.skeleton.Joints()); err != nil {
		s.dirty.Store(true)
		return err
	}
	return nil
}

func (s *state) Autosave(path string) (bool, error) {
	if !s.Dirty() {
		return false, nil
	}
	if err := s.Save(path); err != nil {
		return false, err
	}
	s.logger.Debug("skeleton autosaved", "path", path)
	return true, nil
}
