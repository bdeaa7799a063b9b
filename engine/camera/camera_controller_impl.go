package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraControllerImpl is the single implementation of CameraController.
// Orbit methods modify spherical coordinates around the target and recompute the eye;
// planar methods translate eye and target together, preserving the orbit relationship.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3

	// spherical offset from target
	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed       float32
	mouseSensitivity float32
	zoomSpeed        float32
	panSpeed         float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates an orbit controller with defaults suited to an editor viewport:
// the target at the origin, 15 units away, looking down at 30 degrees.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu: &sync.Mutex{},

		radius:    15.0,
		azimuth:   0.0,
		elevation: float32(math.Pi / 6),

		minRadius:    1.0,
		maxRadius:    500.0,
		minElevation: -float32(math.Pi/2 - 0.05),
		maxElevation: float32(math.Pi/2 - 0.05),

		orbitSpeed:       0.03,
		mouseSensitivity: 0.005,
		zoomSpeed:        1.0,
		panSpeed:         1.0,
	}

	for _, option := range options {
		option(cc)
	}

	cc.radius = common.Clamp(cc.radius, cc.minRadius, cc.maxRadius)
	cc.elevation = common.Clamp(cc.elevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
	return cc
}

// updatePosition recomputes the eye from spherical coordinates. Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	cosElev := float32(math.Cos(float64(cc.elevation)))
	sinElev := float32(math.Sin(float64(cc.elevation)))
	cosAzim := float32(math.Cos(float64(cc.azimuth)))
	sinAzim := float32(math.Sin(float64(cc.azimuth)))

	cc.position = cc.target.Add(mgl32.Vec3{
		cc.radius * cosElev * sinAzim,
		cc.radius * sinElev,
		cc.radius * cosElev * cosAzim,
	})
}

// localAxes returns right, up and forward consistent with LookAt and a world up of +Y.
// All are zero when eye and target coincide. Caller must hold the mutex.
func (cc *cameraControllerImpl) localAxes() (right, up, forward mgl32.Vec3) {
	backward := cc.position.Sub(cc.target)
	if backward.Len() < 1e-8 {
		return
	}
	backward = backward.Normalize()

	right = mgl32.Vec3{0, 1, 0}.Cross(backward)
	if right.Len() < 1e-8 {
		return mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{}
	}
	right = right.Normalize()
	up = backward.Cross(right)
	forward = backward.Mul(-1)
	return
}

func (cc *cameraControllerImpl) pan(axis mgl32.Vec3, delta float32) {
	offset := axis.Mul(delta * cc.panSpeed)
	cc.target = cc.target.Add(offset)
	cc.position = cc.position.Add(offset)
}

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *cameraControllerImpl) SetTarget(target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = common.Clamp(cc.radius-delta*cc.zoomSpeed, cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitLeft() {
	cc.Orbit(-cc.OrbitSpeed(), 0)
}

func (cc *cameraControllerImpl) OrbitRight() {
	cc.Orbit(cc.OrbitSpeed(), 0)
}

func (cc *cameraControllerImpl) OrbitUp() {
	cc.Orbit(0, cc.OrbitSpeed())
}

func (cc *cameraControllerImpl) OrbitDown() {
	cc.Orbit(0, -cc.OrbitSpeed())
}

func (cc *cameraControllerImpl) Orbit(dAzimuth, dElevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += dAzimuth
	cc.elevation = common.Clamp(cc.elevation+dElevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *cameraControllerImpl) SetRadius(radius float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = common.Clamp(radius, cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *cameraControllerImpl) SetAzimuth(azimuth float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth = azimuth
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

func (cc *cameraControllerImpl) SetElevation(elevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.elevation = common.Clamp(elevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.orbitSpeed
}

func (cc *cameraControllerImpl) MouseSensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.mouseSensitivity
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomSpeed
}

func (cc *cameraControllerImpl) PanRight(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	right, _, _ := cc.localAxes()
	cc.pan(right, delta)
}

func (cc *cameraControllerImpl) PanUp(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	_, up, _ := cc.localAxes()
	cc.pan(up, delta)
}

func (cc *cameraControllerImpl) PanForward(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	_, _, forward := cc.localAxes()
	cc.pan(forward, delta)
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.panSpeed
}
