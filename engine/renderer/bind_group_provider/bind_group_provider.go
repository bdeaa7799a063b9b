package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources and must be released when no longer needed.

	// bindGroup is the GPU bind group created for this provider, or nil if not initialized with the Renderer.
	bindGroup *wgpu.BindGroup
	// bindGroupLayout is the layout the bind group was created against. Layouts shared between
	// providers are owned by the GPU context and not released here.
	bindGroupLayout *wgpu.BindGroupLayout
	ownsLayout      bool
	// buffers holds the GPU buffers created for this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// textureViews holds the GPU texture views created for this provider, keyed by binding index.
	textureViews map[int]*wgpu.TextureView
	// textures holds the textures backing textureViews, keyed by binding index.
	textures map[int]*wgpu.Texture
	// samplers holds the GPU samplers created for this provider, keyed by binding index.
	samplers map[int]*wgpu.Sampler

	// vertexBuffer is the GPU vertex buffer, or nil for providers that carry no geometry.
	vertexBuffer *wgpu.Buffer
	// indexBuffer is the GPU index buffer, or nil for providers that carry no geometry.
	indexBuffer *wgpu.Buffer
	// indexCount is the number of uint32 indices in indexBuffer.
	indexCount uint32
}

// BindGroupProvider holds the GPU handles one drawable (or the camera) needs at draw time.
// Three shapes are used by the editor:
//   - mesh providers carry a vertex buffer, an index buffer and an index count
//   - uniform providers carry a bind group and the uniform buffer at binding 0
//   - texture providers carry a bind group over a texture view, a sampler and a render mode uniform
//
// The Renderer creates the GPU resources and stores them back on the provider. The frame
// orchestrator only reads them.
type BindGroupProvider interface {
	// Release releases any GPU resources held by this provider.
	// Shared layouts are left to their owner.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout the bind group was created against.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the GPU buffer bound at the given binding index.
	// Returns nil if GPU resources have not been initialized.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// TextureView returns the GPU texture view for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the GPU sampler for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	// VertexBuffer returns the GPU vertex buffer, or nil if not initialized.
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the GPU index buffer, or nil if not initialized.
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices for draw calls.
	IndexCount() uint32

	// HasGeometry reports whether both geometry buffers are present.
	HasGeometry() bool

	// SetBindGroup sets the bind group after GPU initialization.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout sets the layout and whether this provider owns (and releases) it.
	//
	// Parameters:
	//   - bgl: the bind group layout
	//   - owned: true if Release should release the layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout, owned bool)

	// SetBuffer stores a GPU buffer for a specific binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTexture stores a texture and its view for a specific binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tex: the texture backing the view, may be nil when the view is owned elsewhere
	//   - tv: the texture view
	SetTexture(binding int, tex *wgpu.Texture, tv *wgpu.TextureView)

	// SetSampler stores a GPU sampler for a specific binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the sampler to store
	SetSampler(binding int, s *wgpu.Sampler)

	// SetGeometry stores the vertex buffer, index buffer and index count.
	//
	// Parameters:
	//   - vertices: the created vertex buffer
	//   - indices: the created index buffer
	//   - indexCount: the number of indices
	SetGeometry(vertices, indices *wgpu.Buffer, indexCount uint32)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: debug label used for every GPU object created for this provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textureViews: make(map[int]*wgpu.TextureView),
		textures:     make(map[int]*wgpu.Texture),
		samplers:     make(map[int]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() uint32 {
	return p.indexCount
}

func (p *bindGroupProvider) HasGeometry() bool {
	return p.vertexBuffer != nil && p.indexBuffer != nil
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout, owned bool) {
	p.bindGroupLayout = bgl
	p.ownsLayout = owned
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTexture(binding int, tex *wgpu.Texture, tv *wgpu.TextureView) {
	if tex != nil {
		p.textures[binding] = tex
	}
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
}

func (p *bindGroupProvider) SetGeometry(vertices, indices *wgpu.Buffer, indexCount uint32) {
	p.vertexBuffer = vertices
	p.indexBuffer = indices
	p.indexCount = indexCount
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i, tv := range p.textureViews {
		if tv != nil {
			tv.Release()
		}
		delete(p.textureViews, i)
	}
	for i, tex := range p.textures {
		if tex != nil {
			tex.Release()
		}
		delete(p.textures, i)
	}
	for i, s := range p.samplers {
		if s != nil {
			s.Release()
		}
		delete(p.samplers, i)
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	if p.bindGroupLayout != nil {
		if p.ownsLayout {
			p.bindGroupLayout.Release()
		}
		p.bindGroupLayout = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}
