package renderable

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// Vertex is the interleaved vertex format consumed by the primary shader.
// Size: 36 bytes (position, uv, color).
type Vertex struct {
	Position  [3]float32 // location 0
	TexCoords [2]float32 // location 1
	Color     [4]float32 // location 2
}

// VertexStride is the byte size of a single Vertex.
const VertexStride = uint64(unsafe.Sizeof(Vertex{}))

// VertexLayout returns the vertex buffer layout matching Vertex.
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout for vertex buffer slot 0
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 20, ShaderLocation: 2},
		},
	}
}
