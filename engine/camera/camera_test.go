package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestControllerDefaultsOrbitOrigin(t *testing.T) {
	cc := NewCameraController(WithRadius(10), WithElevation(0), WithAzimuth(0))

	assert.True(t, cc.Position().ApproxEqual(mgl32.Vec3{0, 0, 10}), "got %v", cc.Position())
	assert.Equal(t, mgl32.Vec3{}, cc.Target())
}

func TestControllerZoomClamped(t *testing.T) {
	cc := NewCameraController(WithRadius(10), WithRadiusBounds(2, 20), WithZoomSpeed(1))

	cc.Zoom(100)
	assert.Equal(t, float32(2), cc.Radius())

	cc.Zoom(-100)
	assert.Equal(t, float32(20), cc.Radius())
}

func TestControllerOrbitClampsElevation(t *testing.T) {
	cc := NewCameraController(WithElevationBounds(-0.5, 0.5), WithElevation(0))

	cc.Orbit(0.25, 10)
	assert.Equal(t, float32(0.5), cc.Elevation())
	assert.InDelta(t, 0.25, cc.Azimuth(), 1e-6)

	cc.Orbit(0, -10)
	assert.Equal(t, float32(-0.5), cc.Elevation())
}

func TestControllerKeyboardOrbitUsesSpeed(t *testing.T) {
	cc := NewCameraController(WithOrbitSpeed(0.1), WithAzimuth(0))

	cc.OrbitRight()
	cc.OrbitRight()
	cc.OrbitLeft()
	assert.InDelta(t, 0.1, cc.Azimuth(), 1e-6)
}

func TestControllerPanKeepsOffset(t *testing.T) {
	cc := NewCameraController(WithRadius(10), WithElevation(0), WithAzimuth(0), WithPanSpeed(2))
	before := cc.Position().Sub(cc.Target())

	cc.PanRight(1)
	cc.PanUp(1)
	cc.PanForward(1)

	after := cc.Position().Sub(cc.Target())
	assert.True(t, before.ApproxEqual(after), "orbit offset changed: %v -> %v", before, after)
	// looking down -Z from +Z: right is +X, up is +Y, forward is -Z
	assert.True(t, cc.Target().ApproxEqualThreshold(mgl32.Vec3{2, 2, -2}, 1e-5), "got %v", cc.Target())
}

func TestCameraViewProjectionTracksController(t *testing.T) {
	cc := NewCameraController(WithRadius(5), WithElevation(0), WithAzimuth(0))
	c := NewCamera(WithController(cc), WithAspect(16.0/9.0), WithNear(0.1), WithFar(100))

	vp := c.ViewProjection()
	// the target projects to the center of the screen
	clip := vp.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())
	assert.InDelta(t, 0, ndc.X(), 1e-5)
	assert.InDelta(t, 0, ndc.Y(), 1e-5)
	assert.True(t, ndc.Z() > 0 && ndc.Z() < 1, "depth %v outside [0,1]", ndc.Z())

	cc.SetTarget(mgl32.Vec3{1, 0, 0})
	moved := c.ViewProjection()
	assert.False(t, moved.ApproxEqual(vp), "view-projection not recomputed")
	assert.Equal(t, moved, c.ProjectionMatrix().Mul4(c.ViewMatrix()))
}

func TestCameraIgnoresNonPositiveAspect(t *testing.T) {
	c := NewCamera(WithAspect(2))
	c.SetAspect(0)
	assert.Equal(t, float32(2), c.Aspect())
	assert.InDelta(t, math.Pi/4, c.Fov(), 1e-6)
}

func TestCameraWithoutControllerIsIdentity(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, mgl32.Ident4(), c.ViewProjection())
	assert.Nil(t, c.Controller())
}
