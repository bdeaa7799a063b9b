package engine

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-editor/engine/camera"
	"github.com/Carmen-Shannon/oxy-editor/engine/editor"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
	"github.com/Carmen-Shannon/oxy-editor/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	mu     sync.Mutex
	calls  []string
	frame  func() error
	resize error
}

func (f *fakeRenderer) RenderFrame(renderer.FrameScene) error {
	f.mu.Lock()
	f.calls = append(f.calls, "frame")
	f.mu.Unlock()
	if f.frame != nil {
		return f.frame()
	}
	return nil
}

func (f *fakeRenderer) Resize(width, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "resize")
	return f.resize
}

func newTestEngine(r FrameRenderer, logs *bytes.Buffer, options ...EngineBuilderOption) (*engine, camera.Camera) {
	cam := camera.NewCamera()
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	options = append([]EngineBuilderOption{
		WithRenderer(r),
		WithScene(scene.NewScene("test", scene.WithCamera(cam))),
		WithLogger(logger),
	}, options...)
	return NewEngine(options...).(*engine), cam
}

func TestResizeQueueKeepsLatest(t *testing.T) {
	q := newResizeQueue()
	_, ok := q.pop()
	assert.False(t, ok)

	q.push(800, 600)
	q.push(0, 600)
	q.push(1024, 768)

	s, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, size{1024, 768}, s)
	_, ok = q.pop()
	assert.False(t, ok)
}

func TestResizeAppliedBeforeFrame(t *testing.T) {
	r := &fakeRenderer{}
	e, cam := newTestEngine(r, &bytes.Buffer{})

	e.Resize(400, 200)
	e.Resize(1000, 500)
	require.NoError(t, e.renderOnce())
	assert.Equal(t, []string{"resize", "frame"}, r.calls)
	assert.Equal(t, float32(2), cam.Aspect())

	require.NoError(t, e.renderOnce())
	assert.Equal(t, []string{"resize", "frame", "frame"}, r.calls)

	r.resize = errors.New("surface lost")
	e.Resize(10, 10)
	assert.Error(t, e.renderOnce())
}

func TestFailedResizeIsRetriedBeforeNextFrame(t *testing.T) {
	r := &fakeRenderer{resize: errors.New("depth allocation failed")}
	e, cam := newTestEngine(r, &bytes.Buffer{})

	e.Resize(1920, 1080)
	assert.Error(t, e.renderOnce())
	assert.Equal(t, []string{"resize"}, r.calls, "no frame is drawn after a failed resize")

	r.resize = nil
	require.NoError(t, e.renderOnce())
	assert.Equal(t, []string{"resize", "resize", "frame"}, r.calls)
	assert.InDelta(t, 1920.0/1080.0, cam.Aspect(), 1e-6)
}

func TestRequeueKeepsNewerSize(t *testing.T) {
	q := newResizeQueue()
	q.push(800, 600)
	q.requeue(size{640, 480})

	s, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, size{800, 600}, s)

	q.requeue(size{640, 480})
	s, ok = q.pop()
	require.True(t, ok)
	assert.Equal(t, size{640, 480}, s)
}

func TestPendingFramesAreSkippedAndLoggedOnce(t *testing.T) {
	r := &fakeRenderer{frame: func() error { return errors.Wrap(renderer.ErrResourceNotReady, "bootstrap") }}
	logs := &bytes.Buffer{}
	e, _ := newTestEngine(r, logs)

	for range 5 {
		require.NoError(t, e.renderOnce())
	}
	assert.Equal(t, 1, strings.Count(logs.String(), "GPU resources pending"))
}

func TestFrameErrorIsReturned(t *testing.T) {
	r := &fakeRenderer{frame: func() error { return errors.New("submit failed") }}
	e, _ := newTestEngine(r, &bytes.Buffer{})
	assert.EqualError(t, e.renderOnce(), "submit failed")
}

func TestRenderPanicStopsEngine(t *testing.T) {
	r := &fakeRenderer{frame: func() error {
		panic(errors.Wrap(renderer.ErrMissingResource, "object bind group for cube"))
	}}
	logs := &bytes.Buffer{}
	e, _ := newTestEngine(r, logs)

	e.wg.Add(1)
	go e.handleRender()

	select {
	case <-e.quitChannel:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not quit after a render panic")
	}
	e.wg.Wait()

	assert.True(t, errors.Is(e.runErr, renderer.ErrMissingResource))
	assert.Contains(t, logs.String(), "level=ERROR")
}

func TestAutosaveOnTick(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skeleton.yaml")
	state := editor.NewState()
	require.NoError(t, state.Skeleton().Replace([]skeleton.Joint{skeleton.NewJoint("root", "", "", mgl32.Vec3{})}))

	e, _ := newTestEngine(&fakeRenderer{}, &bytes.Buffer{},
		WithAutosave(state, path, time.Millisecond),
		WithTickRate(500),
	)

	e.wg.Add(1)
	go e.handleEngine()
	assert.Eventually(t, func() bool { return !state.Dirty() }, 5*time.Second, 5*time.Millisecond)
	e.Quit()
	e.wg.Wait()

	got, err := skeleton.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFrameLimitAndTickRate(t *testing.T) {
	e, _ := newTestEngine(&fakeRenderer{}, &bytes.Buffer{}, WithRenderFrameLimit(50))
	assert.Equal(t, int64(20*time.Millisecond), e.renderFrameLimit.Load())

	e.SetRenderFrameLimit(0)
	assert.Zero(t, e.renderFrameLimit.Load())

	e.SetTickRate(0)
	assert.Equal(t, time.Second/60, e.engineTickRate)

	e.running.Store(true)
	e.SetTickRate(10)
	e.SetTickRate(20)
	assert.Equal(t, 50*time.Millisecond, <-e.tickRateChannel)
}

func TestRunRequiresParts(t *testing.T) {
	assert.Error(t, NewEngine().Run())
}
