package input

import (
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/camera"
	"github.com/Carmen-Shannon/oxy-editor/engine/editor"
	"github.com/Carmen-Shannon/oxy-editor/engine/history"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
	"github.com/Carmen-Shannon/oxy-editor/engine/window"
	"github.com/pkg/errors"
)

// ErrNoDrag is returned by DropJoint when no joint drag is in progress.
var ErrNoDrag = errors.New("input: no joint is being dragged")

// Action is an editor command bound to a key chord.
type Action int

const (
	ActionNone Action = iota
	ActionUndo
	ActionRedo
	ActionOrbitLeft
	ActionOrbitRight
	ActionOrbitUp
	ActionOrbitDown
	ActionZoomIn
	ActionZoomOut
)

// Chord is a key plus the exact set of Shift, Control, Alt and Super modifiers held.
type Chord struct {
	Key  uint32
	Mods common.ModifierKey
}

// DefaultKeyMap returns the editor key bindings.
func DefaultKeyMap() map[Chord]Action {
	return map[Chord]Action{
		{common.KeyZ, common.ModControl}:                   ActionUndo,
		{common.KeyZ, common.ModControl | common.ModShift}: ActionRedo,
		{common.KeyY, common.ModControl}:                   ActionRedo,

		{common.KeyLeft, 0}:  ActionOrbitLeft,
		{common.KeyA, 0}:     ActionOrbitLeft,
		{common.KeyRight, 0}: ActionOrbitRight,
		{common.KeyD, 0}:     ActionOrbitRight,
		{common.KeyUp, 0}:    ActionOrbitUp,
		{common.KeyW, 0}:     ActionOrbitUp,
		{common.KeyDown, 0}:  ActionOrbitDown,
		{common.KeyS, 0}:     ActionOrbitDown,
		{common.KeyE, 0}:     ActionZoomIn,
		{common.KeyQ, 0}:     ActionZoomOut,
	}
}

// Dispatcher routes window input to the camera and the joint editor. Camera changes run
// under the scene lock so they never interleave with a frame's command construction.
type Dispatcher interface {
	// Bind registers the dispatcher's handlers as the window's input callbacks.
	//
	// Parameters:
	//   - w: the window delivering events
	Bind(w window.Window)

	// KeyDown handles a key press with the modifiers held.
	//
	// Parameters:
	//   - key: the virtual key code
	//   - mods: the modifier bit set
	//
	// Returns:
	//   - Action: the action performed, ActionNone for unbound chords
	KeyDown(key uint32, mods common.ModifierKey) Action

	// Scroll zooms the camera.
	//
	// Parameters:
	//   - delta: positive to zoom in
	Scroll(delta float32)

	// MiddleDown starts a camera orbit drag at the cursor position.
	MiddleDown(x, y int32)

	// MiddleUp ends the camera orbit drag.
	MiddleUp(x, y int32)

	// MouseMove orbits the camera by the cursor delta while a middle drag is active.
	MouseMove(x, y int32)

	// BeginJointDrag marks a joint tree row as dragged.
	//
	// Parameters:
	//   - id: the dragged joint
	BeginJointDrag(id string)

	// DropJoint drops the dragged joint on a target row, reparenting it. Rejected drops are
	// logged at warn level and leave the skeleton untouched.
	//
	// Parameters:
	//   - targetID: the joint the drag was dropped on
	//
	// Returns:
	//   - error: ErrNoDrag, or the reparent error
	DropJoint(targetID string) error
}

type dispatcher struct {
	mu *sync.Mutex

	scene  scene.Scene
	state  editor.State
	logger *slog.Logger
	keyMap map[Chord]Action

	orbiting     bool
	lastX, lastY int32
}

var _ Dispatcher = &dispatcher{}

// NewDispatcher creates a Dispatcher over a scene and editor state.
//
// Parameters:
//   - s: the scene whose camera is driven
//   - state: the editor state receiving undo, redo and drops
//   - options: functional options to configure the dispatcher
//
// Returns:
//   - Dispatcher: the new dispatcher
func NewDispatcher(s scene.Scene, state editor.State, options ...DispatcherBuilderOption) Dispatcher {
	d := &dispatcher{
		mu:     &sync.Mutex{},
		scene:  s,
		state:  state,
		logger: slog.Default(),
		keyMap: DefaultKeyMap(),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *dispatcher) Bind(w window.Window) {
	w.SetKeyDownCallback(func(key uint32, mods common.ModifierKey) { d.KeyDown(key, mods) })
	w.SetScrollCallback(d.Scroll)
	w.SetMiddleMouseDownCallback(d.MiddleDown)
	w.SetMiddleMouseUpCallback(d.MiddleUp)
	w.SetMouseMoveCallback(d.MouseMove)
}

// withController runs fn on the scene camera's controller under the scene lock.
func (d *dispatcher) withController(fn func(c camera.CameraController)) {
	cam := d.scene.Camera()
	if cam == nil || cam.Controller() == nil {
		return
	}
	ctrl := cam.Controller()
	d.scene.WithLock(func() { fn(ctrl) })
}

func (d *dispatcher) KeyDown(key uint32, mods common.ModifierKey) Action {
	chord := Chord{Key: key, Mods: mods & (common.ModShift | common.ModControl | common.ModAlt | common.ModSuper)}
	action := d.keyMap[chord]

	switch action {
	case ActionUndo:
		d.report("undo", d.state.Undo())
	case ActionRedo:
		d.report("redo", d.state.Redo())
	case ActionOrbitLeft:
		d.withController(func(c camera.CameraController) { c.OrbitLeft() })
	case ActionOrbitRight:
		d.withController(func(c camera.CameraController) { c.OrbitRight() })
	case ActionOrbitUp:
		d.withController(func(c camera.CameraController) { c.OrbitUp() })
	case ActionOrbitDown:
		d.withController(func(c camera.CameraController) { c.OrbitDown() })
	case ActionZoomIn:
		d.withController(func(c camera.CameraController) { c.Zoom(1) })
	case ActionZoomOut:
		d.withController(func(c camera.CameraController) { c.Zoom(-1) })
	}
	return action
}

func (d *dispatcher) report(what string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, history.ErrNothingToUndo), errors.Is(err, history.ErrNothingToRedo):
		d.logger.Debug(what+" skipped", "reason", err)
	default:
		d.logger.Warn(what+" failed", "err", err)
	}
}

func (d *dispatcher) Scroll(delta float32) {
	d.withController(func(c camera.CameraController) { c.Zoom(delta) })
}

func (d *dispatcher) MiddleDown(x, y int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orbiting = true
	d.lastX, d.lastY = x, y
}

func (d *dispatcher) MiddleUp(x, y int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orbiting = false
}

func (d *dispatcher) MouseMove(x, y int32) {
	d.mu.Lock()
	if !d.orbiting {
		d.mu.Unlock()
		return
	}
	dx, dy := x-d.lastX, y-d.lastY
	d.lastX, d.lastY = x, y
	d.mu.Unlock()

	if dx == 0 && dy == 0 {
		return
	}
	d.withController(func(c camera.CameraController) {
		s := c.MouseSensitivity()
		c.Orbit(-float32(dx)*s, float32(dy)*s)
	})
}

func (d *dispatcher) BeginJointDrag(id string) {
	d.state.BeginDrag(id)
}

func (d *dispatcher) DropJoint(targetID string) error {
	dragged, ok := d.state.EndDrag()
	if !ok {
		d.logger.Warn("joint drop rejected", "target", targetID, "err", ErrNoDrag)
		return ErrNoDrag
	}
	if err := d.state.Reparent(dragged, targetID); err != nil {
		d.logger.Warn("joint drop rejected", "joint", dragged, "target", targetID, "err", err)
		return err
	}
	d.logger.Debug("joint reparented", "joint", dragged, "parent", targetID)
	return nil
}
