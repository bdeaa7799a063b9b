package input

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/camera"
	"github.com/Carmen-Shannon/oxy-editor/engine/editor"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
	"github.com/Carmen-Shannon/oxy-editor/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	d     Dispatcher
	ctrl  camera.CameraController
	state editor.State
	logs  *bytes.Buffer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctrl := camera.NewCameraController(
		camera.WithAzimuth(0),
		camera.WithElevation(0),
		camera.WithRadius(10),
		camera.WithOrbitSpeed(0.1),
		camera.WithMouseSensitivity(0.01),
	)
	s := scene.NewScene("test", scene.WithCamera(camera.NewCamera(camera.WithController(ctrl))))

	state := editor.NewState()
	require.NoError(t, state.Skeleton().Replace([]skeleton.Joint{
		skeleton.NewJoint("root", "", "", mgl32.Vec3{}),
		skeleton.NewJoint("a", "", "root", mgl32.Vec3{1, 0, 0}),
		skeleton.NewJoint("b", "", "a", mgl32.Vec3{1, 0, 0}),
	}))

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return fixture{d: NewDispatcher(s, state, WithLogger(logger)), ctrl: ctrl, state: state, logs: logs}
}

func TestUndoRedoChords(t *testing.T) {
	f := newFixture(t)
	f.d.BeginJointDrag("b")
	require.NoError(t, f.d.DropJoint("root"))

	assert.Equal(t, ActionUndo, f.d.KeyDown(common.KeyZ, common.ModControl))
	b, _ := f.state.Skeleton().Joint("b")
	assert.Equal(t, "a", b.ParentID)

	assert.Equal(t, ActionRedo, f.d.KeyDown(common.KeyZ, common.ModControl|common.ModShift))
	b, _ = f.state.Skeleton().Joint("b")
	assert.Equal(t, "root", b.ParentID)

	assert.Equal(t, ActionUndo, f.d.KeyDown(common.KeyZ, common.ModControl))
	assert.Equal(t, ActionRedo, f.d.KeyDown(common.KeyY, common.ModControl))
	b, _ = f.state.Skeleton().Joint("b")
	assert.Equal(t, "root", b.ParentID)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, b.Position)
}

func TestPlainZIsNotUndo(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, ActionNone, f.d.KeyDown(common.KeyZ, 0))
	assert.Equal(t, ActionNone, f.d.KeyDown(common.KeyZ, common.ModControl|common.ModAlt))
	// nothing recorded yet: logged, not fatal
	assert.Equal(t, ActionUndo, f.d.KeyDown(common.KeyZ, common.ModControl))
	assert.Contains(t, f.logs.String(), "undo skipped")
}

func TestKeyboardCameraControls(t *testing.T) {
	f := newFixture(t)

	f.d.KeyDown(common.KeyRight, 0)
	f.d.KeyDown(common.KeyD, 0)
	assert.InDelta(t, 0.2, f.ctrl.Azimuth(), 1e-6)

	f.d.KeyDown(common.KeyW, 0)
	assert.InDelta(t, 0.1, f.ctrl.Elevation(), 1e-6)

	f.d.KeyDown(common.KeyE, 0)
	assert.Equal(t, float32(9), f.ctrl.Radius())
	f.d.Scroll(-2)
	assert.Equal(t, float32(11), f.ctrl.Radius())
}

func TestMiddleDragOrbits(t *testing.T) {
	f := newFixture(t)

	f.d.MouseMove(50, 50)
	assert.Zero(t, f.ctrl.Azimuth(), "moves without a middle drag are ignored")

	f.d.MiddleDown(100, 100)
	f.d.MouseMove(110, 105)
	assert.InDelta(t, -0.1, f.ctrl.Azimuth(), 1e-6)
	assert.InDelta(t, 0.05, f.ctrl.Elevation(), 1e-6)

	f.d.MiddleUp(110, 105)
	f.d.MouseMove(200, 200)
	assert.InDelta(t, -0.1, f.ctrl.Azimuth(), 1e-6)
}

func TestRejectedDropIsNoOp(t *testing.T) {
	f := newFixture(t)
	before := f.state.Skeleton().Joints()

	f.d.BeginJointDrag("a")
	err := f.d.DropJoint("b")
	assert.True(t, errors.Is(err, skeleton.ErrCycleDetected))
	assert.Equal(t, before, f.state.Skeleton().Joints())
	assert.Contains(t, f.logs.String(), "level=WARN")
	assert.Zero(t, f.state.History().Len())

	assert.True(t, errors.Is(f.d.DropJoint("root"), ErrNoDrag))
}
