package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/oxy-editor/engine"
	"github.com/Carmen-Shannon/oxy-editor/engine/camera"
	"github.com/Carmen-Shannon/oxy-editor/engine/config"
	"github.com/Carmen-Shannon/oxy-editor/engine/editor"
	"github.com/Carmen-Shannon/oxy-editor/engine/input"
	"github.com/Carmen-Shannon/oxy-editor/engine/loader"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderable"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
	"github.com/Carmen-Shannon/oxy-editor/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "oxy-editor:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	level := &slog.LevelVar{}
	if l, err := config.ParseLevel(settings.Log.Level); err == nil {
		level.Set(l)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Window ──────────────────────────────────────────────────────────
	win := window.NewWindow(
		window.WithTitle(settings.Window.Title),
		window.WithWidth(settings.Window.Width),
		window.WithHeight(settings.Window.Height),
	)

	// ── Renderer ────────────────────────────────────────────────────────
	cc := settings.Render.ClearColor
	r := renderer.NewRenderer(
		renderer.BackendTypeWGPU,
		win,
		renderer.WithPresentMode(renderer.ParsePresentMode(settings.Render.PresentMode)),
		renderer.WithMSAA(renderer.MSAASampleCount(settings.Render.MSAA)),
		renderer.WithForceSoftwareRenderer(settings.Render.ForceSoftware),
		renderer.WithClearColor(wgpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}),
		renderer.WithLogger(logger),
	)
	defer r.Release()

	// ── Camera + scene ──────────────────────────────────────────────────
	cam := camera.NewCamera(
		camera.WithFov(float32(45.0*math.Pi/180.0)),
		camera.WithAspect(float32(win.Width())/float32(max(win.Height(), 1))),
		camera.WithNear(0.05),
		camera.WithFar(1000),
		camera.WithController(camera.NewCameraController(
			camera.WithRadius(18),
			camera.WithElevation(0.5),
			camera.WithAzimuth(0.6),
			camera.WithRadiusBounds(2, 200),
			camera.WithMouseSensitivity(0.005),
		)),
	)
	sc := scene.NewScene("editor", scene.WithCamera(cam))
	defer sc.Release()

	// uploads happen under the frame's scene lock; the scene is filled after the frame
	content := make(chan demoContent, 1)
	r.OnReady(func(r renderer.Renderer) error {
		c, err := uploadDemo(r)
		if err != nil {
			return err
		}
		models := loader.NewLoader(loader.BackendTypeGLTF, loader.WithUploader(r), loader.WithLogger(logger))
		for i, path := range opts.models {
			m, err := models.Load(path, renderable.Transform{
				Position: mgl32.Vec3{-4 - 4*float32(i), 0, -2},
				Scale:    mgl32.Vec3{1, 1, 1},
			})
			if err != nil {
				logger.Error("model import failed", "path", path, "err", err)
				continue
			}
			c.models = append(c.models, m)
		}
		content <- c
		return nil
	})

	// ── Editor state + input ────────────────────────────────────────────
	state := editor.NewState(editor.WithLogger(logger))
	if err := openSkeleton(state, settings.Editor.Skeleton, opts.importPath); err != nil {
		return err
	}
	input.NewDispatcher(sc, state, input.WithLogger(logger)).Bind(win)

	// ── Engine ──────────────────────────────────────────────────────────
	engineOpts := []engine.EngineBuilderOption{
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithScene(sc),
		engine.WithLogger(logger),
		engine.WithProfiling(settings.Render.Profiling),
		engine.WithRenderFrameLimit(settings.Render.FrameLimit),
	}
	if settings.Editor.Autosave {
		engineOpts = append(engineOpts,
			engine.WithAutosave(state, settings.Editor.Skeleton, settings.Editor.AutosaveInterval.Duration))
	}
	eng := engine.NewEngine(engineOpts...)
	eng.SetRenderCallback(func(float32) {
		select {
		case c := <-content:
			if err := c.addTo(sc); err != nil {
				logger.Error("demo scene", "err", err)
			}
		default:
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		eng.Quit()
	}()

	if opts.configPath != "" {
		err := config.Watch(ctx, opts.configPath, logger, func(s config.Settings) {
			if l, err := config.ParseLevel(s.Log.Level); err == nil {
				level.Set(l)
			}
			eng.SetRenderFrameLimit(s.Render.FrameLimit)
			if s.Render.Profiling {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
		})
		if err != nil {
			logger.Warn("config watch disabled", "err", err)
		}
	}

	logger.Info("editor started",
		"msaa", settings.Render.MSAA,
		"present_mode", settings.Render.PresentMode,
		"skeleton", settings.Editor.Skeleton,
		"joints", state.Skeleton().Len(),
	)
	return eng.Run()
}

// openSkeleton loads the skeleton file when it exists, then imports a glTF skin on top if one was given.
func openSkeleton(state editor.State, path, importPath string) error {
	if _, err := os.Stat(path); err == nil {
		if err := state.Load(path); err != nil {
			return err
		}
	}
	if importPath != "" {
		return state.Import(importPath)
	}
	return nil
}
