package skeleton

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Editor holds the joint collection behind an atomically swapped snapshot. Readers never block;
// writers are serialized, compute the next collection from the current snapshot and commit it
// with a single pointer swap, so a failed operation leaves nothing half applied.
type Editor interface {
	// Joints returns a copy of the current collection in row order.
	//
	// Returns:
	//   - []Joint: the joints
	Joints() []Joint

	// Joint returns the joint with the given id.
	//
	// Parameters:
	//   - id: the joint id
	//
	// Returns:
	//   - Joint: the joint
	//   - bool: false if no joint has the id
	Joint(id string) (Joint, bool)

	// Len returns the number of joints.
	Len() int

	// Reparent moves draggedID under targetID, preserving its world position.
	//
	// Parameters:
	//   - draggedID: the joint being moved
	//   - targetID: the new parent
	//
	// Returns:
	//   - error: ErrNotFound or ErrCycleDetected; the collection is unchanged on error
	Reparent(draggedID, targetID string) error

	// DescendantsOf returns the ids below id.
	//
	// Parameters:
	//   - id: the joint id
	//
	// Returns:
	//   - map[string]struct{}: the descendant ids
	//   - error: ErrNotFound if id is absent
	DescendantsOf(id string) (map[string]struct{}, error)

	// Depth returns the number of ancestor hops from id to its root.
	//
	// Parameters:
	//   - id: the joint id
	//
	// Returns:
	//   - int: the depth
	//   - error: ErrNotFound if id is absent
	Depth(id string) (int, error)

	// WorldPosition returns the sum of local positions along id's ancestor chain.
	//
	// Parameters:
	//   - id: the joint id
	//
	// Returns:
	//   - mgl32.Vec3: the accumulated position
	//   - error: ErrNotFound if id is absent
	WorldPosition(id string) (mgl32.Vec3, error)

	// Placement returns the joint's parent, local position and row.
	//
	// Parameters:
	//   - id: the joint id
	//
	// Returns:
	//   - Placement: the joint's placement
	//   - error: ErrNotFound if id is absent
	Placement(id string) (Placement, error)

	// Place restores a placement captured by Placement. Used to undo and redo reparents.
	//
	// Parameters:
	//   - id: the joint id
	//   - p: the placement to apply
	//
	// Returns:
	//   - error: ErrNotFound or ErrCycleDetected; the collection is unchanged on error
	Place(id string, p Placement) error

	// SetPosition replaces a joint's local position.
	//
	// Parameters:
	//   - id: the joint id
	//   - pos: the new local position
	//
	// Returns:
	//   - error: ErrNotFound if id is absent
	SetPosition(id string, pos mgl32.Vec3) error

	// Replace validates and installs a whole new collection, as done on load or import.
	//
	// Parameters:
	//   - joints: the new collection; it is copied
	//
	// Returns:
	//   - error: ErrInvalidHierarchy if the collection fails Validate
	Replace(joints []Joint) error

	// Subscribe registers fn to receive every committed snapshot.
	// fn runs on the committing goroutine after the writer lock is released and receives its own copy.
	// Notifications are delivered in commit order; fn must not commit to the editor itself.
	//
	// Parameters:
	//   - fn: the change callback
	//
	// Returns:
	//   - func(): removes the subscription
	Subscribe(fn func(joints []Joint)) func()
}

type editor struct {
	// mu serializes writers. Readers use the snapshot only.
	mu       *sync.Mutex
	snapshot atomic.Pointer[[]Joint]

	// notifyMu is taken before mu is released so notifications follow commit order.
	notifyMu *sync.Mutex
	subsMu   *sync.Mutex
	subs     map[int]func([]Joint)
	nextSub int
}

var _ Editor = &editor{}

// NewEditor creates an Editor with an empty collection.
//
// Returns:
//   - Editor: the new editor
func NewEditor() Editor {
	e := &editor{
		mu:       &sync.Mutex{},
		notifyMu: &sync.Mutex{},
		subsMu:   &sync.Mutex{},
		subs:     make(map[int]func([]Joint)),
	}
	empty := []Joint{}
	e.snapshot.Store(&empty)
	return e
}

func (e *editor) current() []Joint {
	return *e.snapshot.Load()
}

func (e *editor) Joints() []Joint {
	return slices.Clone(e.current())
}

func (e *editor) Joint(id string) (Joint, bool) {
	joints := e.current()
	if i := IndexOf(joints, id); i >= 0 {
		return joints[i], true
	}
	return Joint{}, false
}

func (e *editor) Len() int {
	return len(e.current())
}

// update runs fn against the current snapshot under the writer lock and commits its result.
func (e *editor) update(fn func(joints []Joint) ([]Joint, error)) error {
	e.mu.Lock()
	next, err := fn(e.current())
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.snapshot.Store(&next)
	e.notifyMu.Lock()
	e.mu.Unlock()

	defer e.notifyMu.Unlock()
	e.notify(next)
	return nil
}

func (e *editor) notify(joints []Joint) {
	e.subsMu.Lock()
	subs := make([]func([]Joint), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.subsMu.Unlock()

	for _, fn := range subs {
		fn(slices.Clone(joints))
	}
}

func (e *editor) Reparent(draggedID, targetID string) error {
	return e.update(func(joints []Joint) ([]Joint, error) {
		return Reparent(joints, draggedID, targetID)
	})
}

func (e *editor) DescendantsOf(id string) (map[string]struct{}, error) {
	return DescendantsOf(e.current(), id)
}

func (e *editor) Depth(id string) (int, error) {
	return Depth(e.current(), id)
}

func (e *editor) WorldPosition(id string) (mgl32.Vec3, error) {
	return WorldPosition(e.current(), id)
}

func (e *editor) Placement(id string) (Placement, error) {
	return PlacementOf(e.current(), id)
}

func (e *editor) Place(id string, p Placement) error {
	return e.update(func(joints []Joint) ([]Joint, error) {
		return Place(joints, id, p)
	})
}

func (e *editor) SetPosition(id string, pos mgl32.Vec3) error {
	return e.update(func(joints []Joint) ([]Joint, error) {
		i := IndexOf(joints, id)
		if i < 0 {
			return nil, errors.Wrapf(ErrNotFound, "set position of %q", id)
		}
		next := slices.Clone(joints)
		next[i].Position = pos
		return next, nil
	})
}

func (e *editor) Replace(joints []Joint) error {
	if err := Validate(joints); err != nil {
		return err
	}
	next := slices.Clone(joints)
	if next == nil {
		next = []Joint{}
	}
	return e.update(func([]Joint) ([]Joint, error) {
		return next, nil
	})
}

func (e *editor) Subscribe(fn func(joints []Joint)) func() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn

	return func() {
		e.subsMu.Lock()
		defer e.subsMu.Unlock()
		delete(e.subs, id)
	}
}
