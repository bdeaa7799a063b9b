package renderable

import (
	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a position, Euler rotation (radians) and scale.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// IdentityTransform returns a transform at the origin with unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix returns T * Ry * Rx * Rz * S.
func (t Transform) Matrix() mgl32.Mat4 {
	return common.ModelMatrix(t.Position, t.Rotation, t.Scale)
}
