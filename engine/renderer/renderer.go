package renderer

import (
	"image/color"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderable"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-editor/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu     *sync.Mutex
	logger *slog.Logger

	backendType RendererBackendType
	backend     RendererBackend

	width, height int
	ready         bool
	context       *GPUContext

	camera         bind_group_provider.BindGroupProvider
	defaultTexture bind_group_provider.BindGroupProvider
	depth          DepthBuffer
	orchestrator   FrameOrchestrator
	onReady        []func(Renderer) error

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	msaa                 MSAASampleCount
	clearColor           wgpu.Color
}

// Renderer owns the GPU resource set of the editor viewport.
//
// The adapter and device are requested asynchronously: NewRenderer returns immediately and frames
// are skipped with ErrResourceNotReady until the request completes. The first RenderFrame after
// completion builds the shared context (layouts, pipeline, camera and default texture groups,
// depth buffer) and runs the OnReady callbacks, which is where scene content should be uploaded.
type Renderer interface {
	// Ready reports whether the GPU context has been created.
	//
	// Returns:
	//   - bool: true once the first RenderFrame after bootstrap completed set up the context
	Ready() bool

	// Context returns the shared GPU context, or nil before Ready.
	//
	// Returns:
	//   - *GPUContext: the context or nil
	Context() *GPUContext

	// OnReady registers a callback run once, on the render goroutine, right after the context is
	// created. Callbacks registered after readiness run on the next RenderFrame.
	// An error returned by a callback is logged. Callbacks run inside RenderFrame, so the scene lock
	// is held: upload resources here and add them to the scene after the frame.
	//
	// Parameters:
	//   - fn: the callback
	OnReady(fn func(Renderer) error)

	// RenderFrame renders one frame of the scene. The caller holds the scene lock for the duration.
	//
	// Parameters:
	//   - scene: the scene state for this frame
	//
	// Returns:
	//   - error: wraps ErrResourceNotReady while the bootstrap is pending, or a frame acquisition
	//     or submission error. Missing draw-time resources panic.
	RenderFrame(scene FrameScene) error

	// Resize reconfigures the surface and recreates the depth buffer. Before readiness the size
	// is recorded and applied when the context is created.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: error if the surface or depth buffer could not be recreated
	Resize(width, height int) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// NewMeshProvider uploads vertex and index data and returns the provider holding the buffers.
	//
	// Parameters:
	//   - label: a debug label
	//   - vertices: the vertex data
	//   - indices: the uint32 index data
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider
	//   - error: ErrResourceNotReady before Ready, or a creation error
	NewMeshProvider(label string, vertices []renderable.Vertex, indices []uint32) (bind_group_provider.BindGroupProvider, error)

	// NewObjectProvider creates the per-object model matrix uniform and its slot 1 bind group.
	//
	// Parameters:
	//   - label: a debug label
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the object provider
	//   - error: ErrResourceNotReady before Ready, or a creation error
	NewObjectProvider(label string) (bind_group_provider.BindGroupProvider, error)

	// NewTextureProvider uploads a texture and creates its slot 2 bind group in texture mode.
	//
	// Parameters:
	//   - label: a debug label
	//   - texture: RGBA pixel data
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the texture provider
	//   - error: ErrResourceNotReady before Ready, or a creation error
	NewTextureProvider(label string, texture common.TextureStagingData) (bind_group_provider.BindGroupProvider, error)

	// NewDrawable uploads geometry and creates the object uniform for a new drawable.
	//
	// Parameters:
	//   - kind: the render category
	//   - label: a debug label
	//   - geometry: the mesh data
	//   - t: the initial transform
	//
	// Returns:
	//   - renderable.Drawable: the drawable with mesh and object providers set
	//   - error: ErrResourceNotReady before Ready, or a creation error
	NewDrawable(kind renderable.Kind, label string, geometry renderable.Geometry, t renderable.Transform) (renderable.Drawable, error)

	// SetPresentMode sets the surface present mode. It takes effect on the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// Release releases the context resources and the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type for the given window.
// The surface is created synchronously; the adapter and device are requested in the background.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - w: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, w window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		logger:      slog.Default(),
		backendType: backendType,
		width:       w.Width(),
		height:      w.Height(),
		presentMode: PresentModeVSync,
		msaa:        MSAA4x,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	if !r.msaa.Valid() {
		r.logger.Warn("unsupported MSAA sample count, using 4x", "samples", uint32(r.msaa))
		r.msaa = MSAA4x
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(w.SurfaceDescriptor(), r.forceFallbackAdapter, r.msaa, r.logger)
	}
	r.backend.SetPresentMode(r.presentMode)

	return r
}

func (r *renderer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

func (r *renderer) Context() *GPUContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.context
}

func (r *renderer) OnReady(fn func(Renderer) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReady = append(r.onReady, fn)
}

func (r *renderer) RenderFrame(scene FrameScene) error {
	if err := r.checkReady(); err != nil {
		return err
	}

	r.mu.Lock()
	callbacks := r.onReady
	r.onReady = nil
	orchestrator := r.orchestrator
	clearColor := r.clearColor
	r.mu.Unlock()

	for _, fn := range callbacks {
		if err := fn(r); err != nil {
			r.logger.Error("ready callback failed", "error", err)
		}
	}

	cmds, target, err := r.backend.AcquireFrame(clearColor)
	if err != nil {
		return err
	}
	defer cmds.Release()

	return orchestrator.RenderFrame(cmds, target, scene)
}

// checkReady polls the bootstrap channel without blocking and creates the context on first receipt.
func (r *renderer) checkReady() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ready {
		return nil
	}

	select {
	case res := <-r.backend.Bootstrap():
		if res.Err != nil {
			panic(errors.Wrap(res.Err, "GPU bootstrap failed"))
		}
		r.createContext()
		r.ready = true
		r.logger.Info("GPU resources ready", "width", r.width, "height", r.height, "msaa", uint32(r.msaa))
		return nil
	default:
		return errors.WithStack(ErrResourceNotReady)
	}
}

// createContext builds the shared resource set. Failures here leave the editor without a viewport,
// so they panic like the rest of GPU setup.
func (r *renderer) createContext() {
	vs, fs := shader.Primary(renderable.VertexLayout())
	p := pipeline.NewPipeline("primary",
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
	)

	ctx, err := r.backend.CreateContext(p, r.width, r.height)
	if err != nil {
		panic(errors.Wrap(err, "create GPU context"))
	}

	camera := bind_group_provider.NewBindGroupProvider("Camera")
	if err := r.backend.InitUniformBindGroup(camera, ctx.CameraLayout, CameraUniformSize); err != nil {
		panic(err)
	}

	defaultTexture := bind_group_provider.NewBindGroupProvider("Default Texture")
	white := common.SolidTexture(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	if err := r.backend.InitTextureBindGroup(defaultTexture, ctx.TextureLayout, white, common.SamplerStagingData{}, RenderModeColor); err != nil {
		panic(err)
	}

	depth := NewDepthBuffer(r.backend.CreateDepthView, uint32(r.msaa))
	if err := depth.Resize(r.width, r.height); err != nil {
		panic(err)
	}

	r.context = ctx
	r.camera = camera
	r.defaultTexture = defaultTexture
	r.depth = depth
	r.orchestrator = NewFrameOrchestrator(
		WithRenderPipeline(p),
		WithCameraProvider(camera),
		WithDefaultTexture(defaultTexture),
		WithDepthBuffer(depth),
	)
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if width <= 0 || height <= 0 {
		return nil
	}
	r.width, r.height = width, height
	if !r.ready {
		return nil
	}

	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return errors.Wrapf(err, "resize surface to %dx%d", width, height)
	}
	return r.depth.Resize(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	r.presentMode = mode
	r.mu.Unlock()
	r.backend.SetPresentMode(mode)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) requireContext() (*GPUContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.context == nil {
		return nil, errors.WithStack(ErrResourceNotReady)
	}
	return r.context, nil
}

func (r *renderer) NewMeshProvider(label string, vertices []renderable.Vertex, indices []uint32) (bind_group_provider.BindGroupProvider, error) {
	if _, err := r.requireContext(); err != nil {
		return nil, err
	}
	mesh := bind_group_provider.NewBindGroupProvider(label + " Mesh")
	if err := r.backend.InitMeshBuffers(mesh, common.SliceToBytes(vertices), common.SliceToBytes(indices), uint32(len(indices))); err != nil {
		mesh.Release()
		return nil, err
	}
	return mesh, nil
}

func (r *renderer) NewObjectProvider(label string) (bind_group_provider.BindGroupProvider, error) {
	ctx, err := r.requireContext()
	if err != nil {
		return nil, err
	}
	object := bind_group_provider.NewBindGroupProvider(label + " Object")
	if err := r.backend.InitUniformBindGroup(object, ctx.ObjectLayout, ObjectUniformSize); err != nil {
		object.Release()
		return nil, err
	}
	return object, nil
}

func (r *renderer) NewTextureProvider(label string, texture common.TextureStagingData) (bind_group_provider.BindGroupProvider, error) {
	ctx, err := r.requireContext()
	if err != nil {
		return nil, err
	}
	tp := bind_group_provider.NewBindGroupProvider(label + " Texture")
	if err := r.backend.InitTextureBindGroup(tp, ctx.TextureLayout, texture, common.SamplerStagingData{}, RenderModeTexture); err != nil {
		tp.Release()
		return nil, err
	}
	return tp, nil
}

func (r *renderer) NewDrawable(kind renderable.Kind, label string, geometry renderable.Geometry, t renderable.Transform) (renderable.Drawable, error) {
	mesh, err := r.NewMeshProvider(label, geometry.Vertices, geometry.Indices)
	if err != nil {
		return nil, err
	}
	object, err := r.NewObjectProvider(label)
	if err != nil {
		mesh.Release()
		return nil, err
	}
	return renderable.NewDrawable(kind, label,
		renderable.WithMesh(mesh),
		renderable.WithObject(object),
		renderable.WithTransform(t),
	), nil
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.depth != nil {
		r.depth.Release()
		r.depth = nil
	}
	if r.camera != nil {
		r.camera.Release()
		r.camera = nil
	}
	if r.defaultTexture != nil {
		r.defaultTexture.Release()
		r.defaultTexture = nil
	}
	r.orchestrator = nil
	r.context = nil
	r.ready = false
	r.backend.Release()
}
