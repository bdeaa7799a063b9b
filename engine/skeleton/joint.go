package skeleton

import "github.com/go-gl/mathgl/mgl32"

// Joint is one node of a skeleton. Joints reference their parent by id; an empty ParentID marks a root.
type Joint struct {
	ID       string
	Name     string
	ParentID string

	// Position is relative to the parent joint.
	Position mgl32.Vec3
	// Rotation is a quaternion stored as x, y, z, w.
	Rotation mgl32.Vec4
	Scale    mgl32.Vec3
}

// NewJoint returns a joint with an identity rotation and unit scale.
func NewJoint(id, name, parentID string, position mgl32.Vec3) Joint {
	return Joint{
		ID:       id,
		Name:     name,
		ParentID: parentID,
		Position: position,
		Rotation: mgl32.Vec4{0, 0, 0, 1},
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Placement is the part of a joint a reparent changes: its parent, local position and row index.
// Capturing it before and after a reparent is enough to undo or redo the move.
type Placement struct {
	ParentID string
	Position mgl32.Vec3
	Index    int
}
