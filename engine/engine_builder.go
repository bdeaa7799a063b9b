package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-editor/engine/editor"
	"github.com/Carmen-Shannon/oxy-editor/engine/profiler"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
	"github.com/Carmen-Shannon/oxy-editor/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithProfiler replaces the default profiler.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets the window whose event loop Run drives.
//
// Parameters:
//   - w: a configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer frames are drawn with.
//
// Parameters:
//   - r: the renderer, usually a renderer.Renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r FrameRenderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithScene sets the scene drawn each frame.
//
// Parameters:
//   - s: the Scene to render
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithAutosave saves the editor's skeleton to path from the tick goroutine whenever it is dirty
// and the interval has passed, and once more on shutdown.
//
// Parameters:
//   - state: the editor state
//   - path: the skeleton file
//   - interval: minimum time between saves
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAutosave(state editor.State, path string, interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.state = state
		e.autosavePath = path
		if interval > 0 {
			e.autosaveInterval = interval
		}
	}
}

// WithLogger sets the engine logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit.Store(int64(frameDuration(fps)))
	}
}
