package skeleton

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// IndexOf returns the row index of the joint with the given id, or -1.
func IndexOf(joints []Joint, id string) int {
	return slices.IndexFunc(joints, func(j Joint) bool { return j.ID == id })
}

// indexByID maps every id to its row. Later duplicates win; Validate rejects duplicates.
func indexByID(joints []Joint) map[string]int {
	index := make(map[string]int, len(joints))
	for i, j := range joints {
		index[j.ID] = i
	}
	return index
}

// walkAncestors calls visit for id and then each ancestor up to a root. visit returns false to stop.
// The walk is bounded by len(joints) hops; exceeding it means the parent graph already has a cycle.
func walkAncestors(joints []Joint, index map[string]int, id string, visit func(i int) bool) error {
	cur := id
	for hops := 0; cur != ""; hops++ {
		if hops > len(joints) {
			return errors.Wrapf(ErrInvalidHierarchy, "ancestor chain of %q does not terminate", id)
		}
		i, ok := index[cur]
		if !ok {
			return errors.Wrapf(ErrInvalidHierarchy, "joint %q references missing parent %q", id, cur)
		}
		if !visit(i) {
			return nil
		}
		cur = joints[i].ParentID
	}
	return nil
}

// isAncestorOrSelf reports whether ancestorID is id or lies on id's ancestor chain.
func isAncestorOrSelf(joints []Joint, index map[string]int, ancestorID, id string) (bool, error) {
	found := false
	err := walkAncestors(joints, index, id, func(i int) bool {
		found = joints[i].ID == ancestorID
		return !found
	})
	return found, err
}

func worldPosition(joints []Joint, index map[string]int, id string) (mgl32.Vec3, error) {
	var sum mgl32.Vec3
	err := walkAncestors(joints, index, id, func(i int) bool {
		sum = sum.Add(joints[i].Position)
		return true
	})
	return sum, err
}

// WorldPosition returns the joint's position in skeleton space: the sum of the local positions
// along its ancestor chain. Rotation and scale are not composed.
//
// Parameters:
//   - joints: the joint collection
//   - id: the joint id
//
// Returns:
//   - mgl32.Vec3: the accumulated position
//   - error: ErrNotFound if id is absent, ErrInvalidHierarchy if the chain is broken
func WorldPosition(joints []Joint, id string) (mgl32.Vec3, error) {
	index := indexByID(joints)
	if _, ok := index[id]; !ok {
		return mgl32.Vec3{}, errors.Wrapf(ErrNotFound, "world position of %q", id)
	}
	return worldPosition(joints, index, id)
}

// Depth returns the number of ancestor hops from the joint to its root. Roots have depth 0.
//
// Parameters:
//   - joints: the joint collection
//   - id: the joint id
//
// Returns:
//   - int: the depth
//   - error: ErrNotFound if id is absent, ErrInvalidHierarchy if the chain is broken
func Depth(joints []Joint, id string) (int, error) {
	index := indexByID(joints)
	if _, ok := index[id]; !ok {
		return 0, errors.Wrapf(ErrNotFound, "depth of %q", id)
	}
	depth := -1
	err := walkAncestors(joints, index, id, func(int) bool {
		depth++
		return true
	})
	if err != nil {
		return 0, err
	}
	return depth, nil
}

// DescendantsOf returns the ids of every joint below id, excluding id itself.
//
// Parameters:
//   - joints: the joint collection
//   - id: the joint id
//
// Returns:
//   - map[string]struct{}: the descendant id set, empty for leaves
//   - error: ErrNotFound if id is absent
func DescendantsOf(joints []Joint, id string) (map[string]struct{}, error) {
	if IndexOf(joints, id) < 0 {
		return nil, errors.Wrapf(ErrNotFound, "descendants of %q", id)
	}

	children := make(map[string][]string, len(joints))
	for _, j := range joints {
		if j.ParentID != "" {
			children[j.ParentID] = append(children[j.ParentID], j.ID)
		}
	}

	out := make(map[string]struct{})
	queue := slices.Clone(children[id])
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if _, seen := out[next]; seen || next == id {
			continue
		}
		out[next] = struct{}{}
		queue = append(queue, children[next]...)
	}
	return out, nil
}

// Validate checks that ids are non-empty and unique, that every parent exists and that the parent
// graph is acyclic.
//
// Parameters:
//   - joints: the joint collection
//
// Returns:
//   - error: an error wrapping ErrInvalidHierarchy describing the first problem found
func Validate(joints []Joint) error {
	index := make(map[string]int, len(joints))
	for i, j := range joints {
		if j.ID == "" {
			return errors.Wrapf(ErrInvalidHierarchy, "joint at row %d has an empty id", i)
		}
		if prev, dup := index[j.ID]; dup {
			return errors.Wrapf(ErrInvalidHierarchy, "duplicate id %q at rows %d and %d", j.ID, prev, i)
		}
		index[j.ID] = i
	}
	for _, j := range joints {
		if j.ParentID == j.ID {
			return errors.Wrapf(ErrInvalidHierarchy, "joint %q is its own parent", j.ID)
		}
		if err := walkAncestors(joints, index, j.ID, func(int) bool { return true }); err != nil {
			return err
		}
	}
	return nil
}

// Reparent moves the dragged joint under the target joint and returns the new collection.
//
// The target's ancestor chain is checked before anything changes: if the dragged joint is the
// target or one of its ancestors the move is rejected. Otherwise the dragged joint keeps its
// world position (its new local position is its old world position minus the target's world
// position), takes the target as parent and moves to the row the target occupied before the
// dragged joint was removed. Descendants keep their local positions. The input slice is never modified.
//
// Parameters:
//   - joints: the joint collection
//   - draggedID: the joint being moved
//   - targetID: the new parent
//
// Returns:
//   - []Joint: the new collection
//   - error: ErrNotFound, ErrCycleDetected or ErrInvalidHierarchy; joints is unchanged on error
func Reparent(joints []Joint, draggedID, targetID string) ([]Joint, error) {
	index := indexByID(joints)
	draggedIdx, ok := index[draggedID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "dragged joint %q", draggedID)
	}
	targetIdx, ok := index[targetID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "target joint %q", targetID)
	}

	cycle, err := isAncestorOrSelf(joints, index, draggedID, targetID)
	if err != nil {
		return nil, err
	}
	if cycle {
		return nil, errors.Wrapf(ErrCycleDetected, "%q is %q or one of its ancestors", draggedID, targetID)
	}

	oldWorld, err := worldPosition(joints, index, draggedID)
	if err != nil {
		return nil, err
	}
	parentWorld, err := worldPosition(joints, index, targetID)
	if err != nil {
		return nil, err
	}

	moved := joints[draggedIdx]
	moved.ParentID = targetID
	moved.Position = oldWorld.Sub(parentWorld)

	out := make([]Joint, 0, len(joints))
	out = append(out, joints[:draggedIdx]...)
	out = append(out, joints[draggedIdx+1:]...)
	return slices.Insert(out, min(targetIdx, len(out)), moved), nil
}

// PlacementOf returns the joint's current parent, local position and row.
//
// Parameters:
//   - joints: the joint collection
//   - id: the joint id
//
// Returns:
//   - Placement: the joint's placement
//   - error: ErrNotFound if id is absent
func PlacementOf(joints []Joint, id string) (Placement, error) {
	i := IndexOf(joints, id)
	if i < 0 {
		return Placement{}, errors.Wrapf(ErrNotFound, "placement of %q", id)
	}
	return Placement{ParentID: joints[i].ParentID, Position: joints[i].Position, Index: i}, nil
}

// Place applies a placement to a joint: parent, local position and row (clamped to the collection).
// The same cycle check as Reparent runs first.
//
// Parameters:
//   - joints: the joint collection
//   - id: the joint id
//   - p: the placement to apply
//
// Returns:
//   - []Joint: the new collection
//   - error: ErrNotFound, ErrCycleDetected or ErrInvalidHierarchy; joints is unchanged on error
func Place(joints []Joint, id string, p Placement) ([]Joint, error) {
	index := indexByID(joints)
	i, ok := index[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "place %q", id)
	}
	if p.ParentID != "" {
		if _, ok := index[p.ParentID]; !ok {
			return nil, errors.Wrapf(ErrNotFound, "parent %q of %q", p.ParentID, id)
		}
		cycle, err := isAncestorOrSelf(joints, index, id, p.ParentID)
		if err != nil {
			return nil, err
		}
		if cycle {
			return nil, errors.Wrapf(ErrCycleDetected, "place %q under %q", id, p.ParentID)
		}
	}

	moved := joints[i]
	moved.ParentID = p.ParentID
	moved.Position = p.Position

	out := make([]Joint, 0, len(joints))
	out = append(out, joints[:i]...)
	out = append(out, joints[i+1:]...)
	return slices.Insert(out, common.Clamp(p.Index, 0, len(out)), moved), nil
}
