package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-editor/engine/editor"
	"github.com/Carmen-Shannon/oxy-editor/engine/profiler"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
	"github.com/Carmen-Shannon/oxy-editor/engine/window"
	"github.com/pkg/errors"
)

// FrameRenderer is the part of renderer.Renderer the engine loop drives.
type FrameRenderer interface {
	RenderFrame(scene renderer.FrameScene) error
	Resize(width, height int) error
}

var _ FrameRenderer = renderer.Renderer(nil)

// engine implements the Engine interface.
// Coordinates the tick, render and window goroutines.
type engine struct {
	tickRateChannel chan time.Duration
	resizes         *resizeQueue

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window   window.Window
	renderer FrameRenderer
	scene    scene.Scene
	state    editor.State
	logger   *slog.Logger

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	autosavePath     string
	autosaveInterval time.Duration

	// renderFrameLimit is the minimum frame duration in nanoseconds; 0 = uncapped
	renderFrameLimit atomic.Int64

	lastPendingLog time.Time
	errMu          sync.Mutex
	runErr         error
}

// Engine runs the editor: the window event loop on the calling goroutine, the render loop and the
// fixed-rate tick loop on their own goroutines.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each render frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Safe to call while running.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Resize queues a framebuffer resize. The render goroutine applies the latest queued size
	// before its next frame.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Run starts the render and tick goroutines and blocks in the window event loop until the
	// window closes or Quit is called.
	//
	// Returns:
	//   - error: the fatal render error that stopped the engine, if any
	Run() error

	// Quit signals all engine goroutines to stop. Safe to call multiple times.
	Quit()
}

// NewEngine creates a new Engine.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		resizes:          newResizeQueue(),
		quitChannel:      make(chan struct{}),
		logger:           slog.Default(),
		engineTickRate:   time.Second / 60,
		autosaveInterval: 5 * time.Second,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.Resize)
		// GLFW calls must stay on the event loop goroutine, so a quit from elsewhere closes the
		// window from the update callback.
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				if e.window.IsRunning() {
					_ = e.window.Close()
				}
			default:
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Run() error {
	if e.window == nil || e.renderer == nil || e.scene == nil {
		return errors.New("engine: window, renderer and scene are required")
	}
	e.running.Store(true)
	e.handle()
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	e.autosave()

	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.runErr
}

func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

func (e *engine) fail(err error) {
	e.errMu.Lock()
	if e.runErr == nil {
		e.runErr = err
	}
	e.errMu.Unlock()
	e.signalQuit()
}

func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate tick loop. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()
	lastSave := lastTick

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if now.Sub(lastSave) >= e.autosaveInterval {
				lastSave = now
				e.autosave()
			}
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

func (e *engine) autosave() {
	if e.state == nil || e.autosavePath == "" {
		return
	}
	saved, err := e.state.Autosave(e.autosavePath)
	if err != nil {
		e.logger.Warn("autosave failed", "path", e.autosavePath, "err", err)
		return
	}
	if saved {
		e.logger.Debug("skeleton autosaved", "path", e.autosavePath)
	}
}

// handleRender runs the render loop until quit. A panic in a frame (a missing GPU resource) is
// recovered, logged, and stops the engine with an error.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			e.logger.Error("render goroutine recovered from panic", "err", err)
			e.fail(errors.Wrap(err, "render"))
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if err := e.renderOnce(); err != nil {
			e.logger.Error("frame failed", "err", err)
		}

		if e.renderCallback != nil {
			e.renderCallback(dt)
		}

		if limit := time.Duration(e.renderFrameLimit.Load()); limit > 0 {
			if remaining := limit - time.Since(lastRender); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// renderOnce applies a pending resize and renders one frame. Frames skipped while the GPU
// bootstrap is pending are logged at most once per second. A failed resize is requeued and the
// frame is skipped, so no frame draws with a depth view sized for the old surface.
func (e *engine) renderOnce() error {
	if sz, ok := e.resizes.pop(); ok {
		if err := e.renderer.Resize(sz.width, sz.height); err != nil {
			e.resizes.requeue(sz)
			return errors.Wrapf(err, "resize %dx%d", sz.width, sz.height)
		}
		if cam := e.scene.Camera(); cam != nil {
			e.scene.WithLock(func() { cam.SetAspect(float32(sz.width) / float32(sz.height)) })
		}
	}

	err := e.scene.Frame(e.renderer.RenderFrame)
	switch {
	case err == nil:
		if e.profilingEnabled.Load() {
			e.profiler.Tick()
		}
		return nil
	case errors.Is(err, renderer.ErrResourceNotReady):
		if e.profilingEnabled.Load() {
			e.profiler.Skip()
		}
		if now := time.Now(); now.Sub(e.lastPendingLog) >= time.Second {
			e.lastPendingLog = now
			e.logger.Info("GPU resources pending, frame skipped")
		}
		return nil
	default:
		return err
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// replace any pending update
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit.Store(int64(frameDuration(fps)))
}

func (e *engine) Resize(width, height int) {
	e.resizes.push(width, height)
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
