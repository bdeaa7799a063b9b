package shader

import "github.com/cogentcore/webgpu/wgpu"

// ShaderBuilderOption is a functional option applied to a shader during construction via NewShader.
type ShaderBuilderOption func(*shader)

// WithVertexLayouts sets the vertex buffer layouts consumed by a vertex entry point, in slot order.
//
// Parameters:
//   - layouts: the vertex buffer layouts
//
// Returns:
//   - ShaderBuilderOption: a function that sets the vertex layouts
func WithVertexLayouts(layouts ...wgpu.VertexBufferLayout) ShaderBuilderOption {
	return func(s *shader) {
		s.vertexLayouts = layouts
	}
}
