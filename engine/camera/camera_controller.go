package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController drives a Camera's position and target. The editor viewport uses a single
// controller that orbits a target point and can pan the target along the camera's local axes.
type CameraController interface {
	orbitCameraController
	planarCameraController

	// Position returns the camera eye position.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position in world space
	Position() mgl32.Vec3

	// Target returns the point the camera looks at.
	//
	// Returns:
	//   - mgl32.Vec3: the target in world space
	Target() mgl32.Vec3

	// SetTarget moves the orbit pivot and recomputes the eye position.
	//
	// Parameters:
	//   - target: the new pivot
	SetTarget(target mgl32.Vec3)

	// Zoom moves the eye toward (positive) or away from (negative) the target, clamped to the radius bounds.
	//
	// Parameters:
	//   - delta: zoom input, scaled by ZoomSpeed
	Zoom(delta float32)
}

type orbitCameraController interface {
	OrbitLeft()
	OrbitRight()
	OrbitUp()
	OrbitDown()

	// Orbit rotates by the given angle deltas in radians. Elevation is clamped.
	//
	// Parameters:
	//   - dAzimuth: horizontal delta
	//   - dElevation: vertical delta
	Orbit(dAzimuth, dElevation float32)

	Radius() float32
	SetRadius(radius float32)
	Azimuth() float32
	SetAzimuth(azimuth float32)
	Elevation() float32
	SetElevation(elevation float32)

	OrbitSpeed() float32
	MouseSensitivity() float32
	ZoomSpeed() float32
}

type planarCameraController interface {
	// PanRight translates target and eye along the camera's right axis.
	PanRight(delta float32)

	// PanUp translates target and eye along the camera's up axis.
	PanUp(delta float32)

	// PanForward translates target and eye along the view direction.
	PanForward(delta float32)

	PanSpeed() float32
}
