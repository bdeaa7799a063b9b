package renderer

import (
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	logger *slog.Logger

	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat   wgpu.TextureFormat
	msaaTexture     *wgpu.Texture
	msaaTextureView *wgpu.TextureView
	width, height   int

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount

	bootstrap chan GPUResult
	context   *GPUContext
}

type wgpuRendererBackend interface {
	backendResources

	// Bootstrap returns a channel that receives exactly one GPUResult when the asynchronous adapter
	// and device request completes.
	//
	// Returns:
	//   - <-chan GPUResult: the one-shot bootstrap result
	Bootstrap() <-chan GPUResult

	// CreateContext configures the surface and builds the shared layouts and render pipeline.
	// Must only be called after Bootstrap delivered a result without error.
	//
	// Parameters:
	//   - p: the pipeline whose shaders and state describe the frame pipeline
	//   - width, height: the initial surface size in pixels
	//
	// Returns:
	//   - *GPUContext: the shared context
	//   - error: error if any GPU object could not be created
	CreateContext(p pipeline.Pipeline, width, height int) (*GPUContext, error)

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	// The multisampled color texture is recreated at the new size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: error if the MSAA texture could not be created
	ConfigureSurface(width, height int) error

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// CreateDepthView allocates a Depth24Plus texture and view. It has the DepthAllocator signature.
	//
	// Parameters:
	//   - width, height: the size in pixels
	//   - sampleCount: must match the color attachment
	//
	// Returns:
	//   - *wgpu.TextureView: the depth view
	//   - func(): releases the view and texture
	//   - error: error if creation fails
	CreateDepthView(width, height int, sampleCount uint32) (*wgpu.TextureView, func(), error)

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	// Each BufferWrite targets a specific buffer on a BindGroupProvider at a given binding and offset.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// AcquireFrame acquires the next swapchain image, creates the frame's command encoder and
	// records a pass that clears the color target to clear.
	//
	// Parameters:
	//   - clear: the clear color
	//
	// Returns:
	//   - FrameCommands: the per-frame command surface, released by the caller
	//   - FrameTarget: the color attachment for the frame pass
	//   - error: error if the swapchain image could not be acquired
	AcquireFrame(clear wgpu.Color) (FrameCommands, FrameTarget, error)

	// Release releases the MSAA texture, device, adapter, surface and instance.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend creates the instance and surface synchronously and requests the adapter
// and device on a separate goroutine. Bootstrap reports completion.
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount, logger *slog.Logger) wgpuRendererBackend {
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		logger:      logger,
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		sampleCount: sampleCount,
		bootstrap:   make(chan GPUResult, 1),
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	go func() {
		b.bootstrap <- b.requestDevice(forceFallbackAdapter)
	}()

	return b
}

func (b *wgpuRendererBackendImpl) requestDevice(forceFallbackAdapter bool) GPUResult {
	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return GPUResult{Err: errors.Wrap(err, "request adapter")}
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Editor Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		a.Release()
		return GPUResult{Err: errors.Wrap(err, "request device")}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.adapter = a
	b.device = d
	b.queue = d.GetQueue()
	return GPUResult{Adapter: a, Device: d, Queue: b.queue}
}

func (b *wgpuRendererBackendImpl) Bootstrap() <-chan GPUResult {
	return b.bootstrap
}

func (b *wgpuRendererBackendImpl) CreateContext(p pipeline.Pipeline, width, height int) (*GPUContext, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := b.ConfigureSurface(width, height); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cameraDesc := CameraLayoutDescriptor()
	cameraLayout, err := b.device.CreateBindGroupLayout(&cameraDesc)
	if err != nil {
		return nil, errors.Wrap(err, "create camera layout")
	}
	objectDesc := ObjectLayoutDescriptor()
	objectLayout, err := b.device.CreateBindGroupLayout(&objectDesc)
	if err != nil {
		return nil, errors.Wrap(err, "create object layout")
	}
	textureDesc := TextureLayoutDescriptor()
	textureLayout, err := b.device.CreateBindGroupLayout(&textureDesc)
	if err != nil {
		return nil, errors.Wrap(err, "create texture layout")
	}

	if err := b.registerRenderPipeline(p, []*wgpu.BindGroupLayout{cameraLayout, objectLayout, textureLayout}); err != nil {
		return nil, err
	}

	b.context = &GPUContext{
		Device:        b.device,
		Queue:         b.queue,
		Surface:       b.surface,
		SurfaceFormat: b.surfaceFormat,
		SampleCount:   b.sampleCount,
		Pipeline:      p,
		CameraLayout:  cameraLayout,
		ObjectLayout:  objectLayout,
		TextureLayout: textureLayout,
	}
	return b.context, nil
}

func (b *wgpuRendererBackendImpl) registerRenderPipeline(p pipeline.Pipeline, layouts []*wgpu.BindGroupLayout) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	vs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: vertexShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: vertexShader.Source(),
		},
	})
	if err != nil {
		return errors.Wrapf(err, "compile %s", vertexShader.Key())
	}
	fs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: fragmentShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: fragmentShader.Source(),
		},
	})
	if err != nil {
		return errors.Wrapf(err, "compile %s", fragmentShader.Key())
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}

	target := wgpu.ColorTargetState{
		Format:    b.surfaceFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      p.DepthCompare(),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create render pipeline")
	}

	p.SetRenderPipeline(created)
	return nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return nil
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.width, b.height = width, height

	b.releaseMSAA()
	if b.sampleCount <= MSAAOff {
		return nil
	}

	// the frame pass draws into the MSAA texture and resolves into the swapchain view
	msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "MSAA Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   uint32(b.sampleCount),
		Dimension:     wgpu.TextureDimension2D,
		Format:        b.surfaceFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return errors.Wrap(err, "create MSAA texture")
	}
	view, err := msaaTexture.CreateView(nil)
	if err != nil {
		msaaTexture.Release()
		return errors.Wrap(err, "create MSAA view")
	}
	b.msaaTexture = msaaTexture
	b.msaaTextureView = view
	return nil
}

func (b *wgpuRendererBackendImpl) releaseMSAA() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) CreateDepthView(width, height int, sampleCount uint32) (*wgpu.TextureView, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, nil, err
	}
	view, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return nil, nil, err
	}
	return view, func() {
		view.Release()
		depthTexture.Release()
	}, nil
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) == 0 || len(indexData) == 0 {
		return errors.Errorf("%s: empty geometry", provider.Label())
	}

	vb, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return errors.Wrapf(err, "%s: create vertex buffer", provider.Label())
	}
	if err := b.queue.WriteBuffer(vb, 0, vertexData); err != nil {
		vb.Release()
		return errors.Wrapf(err, "%s: upload vertices", provider.Label())
	}

	ib, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return errors.Wrapf(err, "%s: create index buffer", provider.Label())
	}
	if err := b.queue.WriteBuffer(ib, 0, indexData); err != nil {
		vb.Release()
		ib.Release()
		return errors.Wrapf(err, "%s: upload indices", provider.Label())
	}

	provider.SetGeometry(vb, ib, indexCount)
	return nil
}

func (b *wgpuRendererBackendImpl) InitUniformBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout, size uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return errors.Wrapf(err, "%s: create uniform buffer", provider.Label())
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  provider.Label() + " Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		buf.Release()
		return errors.Wrapf(err, "%s: create bind group", provider.Label())
	}

	provider.SetBindGroupLayout(layout, false)
	provider.SetBuffer(0, buf)
	provider.SetBindGroup(bindGroup)
	return nil
}

func (b *wgpuRendererBackendImpl) InitTextureBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout, staging common.TextureStagingData, samplerData common.SamplerStagingData, mode RenderMode) error {
	if !staging.Valid() {
		return errors.Errorf("%s: texture staging data does not match %dx%d", provider.Label(), staging.Width, staging.Height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	size := wgpu.Extent3D{
		Width:              staging.Width,
		Height:             staging.Height,
		DepthOrArrayLayers: 1,
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         provider.Label() + " Texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return errors.Wrapf(err, "%s: create texture", provider.Label())
	}
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		staging.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  staging.Width * 4,
			RowsPerImage: staging.Height,
		},
		&size,
	)
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return errors.Wrapf(err, "%s: create texture view", provider.Label())
	}
	provider.SetTexture(0, tex, view)

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         provider.Label() + " Sampler",
		AddressModeU:  common.Coalesce(samplerData.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(samplerData.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(samplerData.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(samplerData.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(samplerData.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(samplerData.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(samplerData.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(samplerData.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(samplerData.MaxAnisotropy, 1),
		Compare:       samplerData.Compare,
	})
	if err != nil {
		return errors.Wrapf(err, "%s: create sampler", provider.Label())
	}
	provider.SetSampler(1, samp)

	modeBuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " Render Mode",
		Size:  RenderModeUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return errors.Wrapf(err, "%s: create render mode buffer", provider.Label())
	}
	provider.SetBuffer(2, modeBuf)
	if err := b.queue.WriteBuffer(modeBuf, 0, mode.Bytes()); err != nil {
		return errors.Wrapf(err, "%s: write render mode", provider.Label())
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  provider.Label() + " Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: samp},
			{Binding: 2, Buffer: modeBuf, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "%s: create bind group", provider.Label())
	}

	provider.SetBindGroupLayout(layout, false)
	provider.SetBindGroup(bindGroup)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf := w.Target()
		if buf == nil {
			continue
		}
		if err := b.queue.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			b.logger.Error("queue buffer write failed", "provider", w.Provider.Label(), "binding", w.Binding, "error", err)
		}
	}
}

func (b *wgpuRendererBackendImpl) AcquireFrame(clear wgpu.Color) (FrameCommands, FrameTarget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, FrameTarget{}, errors.Wrap(err, "acquire swapchain image")
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, FrameTarget{}, errors.Wrap(err, "create swapchain view")
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return nil, FrameTarget{}, errors.Wrap(err, "create command encoder")
	}

	frame := &wgpuFrame{
		device:         b.device,
		queue:          b.queue,
		surface:        b.surface,
		logger:         b.logger,
		encoder:        encoder,
		surfaceTexture: surfaceTexture,
		surfaceView:    view,
	}

	// With MSAA the frame pass draws into the multisampled texture and resolves into the
	// swapchain view. Without it the swapchain view is the color attachment directly.
	target := FrameTarget{View: view}
	if b.sampleCount > MSAAOff && b.msaaTextureView != nil {
		target = FrameTarget{View: b.msaaTextureView, ResolveTarget: view}
	}

	// the frame pass loads the color attachment, so it is cleared here first
	clearPass := frame.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       target.View,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: clear,
			},
		},
	})
	clearPass.End()

	return frame, target, nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseMSAA()
	if b.context != nil {
		if b.context.Pipeline != nil {
			b.context.Pipeline.Release()
		}
		for _, l := range []*wgpu.BindGroupLayout{b.context.CameraLayout, b.context.ObjectLayout, b.context.TextureLayout} {
			if l != nil {
				l.Release()
			}
		}
		b.context = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
