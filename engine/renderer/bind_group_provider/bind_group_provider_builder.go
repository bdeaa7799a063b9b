package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBindGroup sets the bind group for this provider.
//
// Parameters:
//   - bg: the bind group to set for this provider
//
// Returns:
//   - BindGroupProviderOption: a function that sets the bind group for this provider
func WithBindGroup(bg *wgpu.BindGroup) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroup = bg
	}
}

// WithSharedLayout sets a layout owned by someone else. Release leaves it alone.
//
// Parameters:
//   - bgl: the bind group layout shared with other providers
//
// Returns:
//   - BindGroupProviderOption: a function that sets the bind group layout for this provider
func WithSharedLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroupLayout = bgl
		p.ownsLayout = false
	}
}

// WithBuffer sets a buffer for a specific binding index.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the specified binding
func WithBuffer(binding int, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
	}
}

// WithGeometry sets the vertex buffer, index buffer and index count for this provider.
//
// Parameters:
//   - vertices: the vertex buffer
//   - indices: the uint32 index buffer
//   - indexCount: the number of indices
//
// Returns:
//   - BindGroupProviderOption: a function that sets the geometry for this provider
func WithGeometry(vertices, indices *wgpu.Buffer, indexCount uint32) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.vertexBuffer = vertices
		p.indexBuffer = indices
		p.indexCount = indexCount
	}
}
