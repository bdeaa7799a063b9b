package renderer

import (
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group slots, in pipeline layout order.
const (
	SlotCamera  uint32 = 0
	SlotObject  uint32 = 1
	SlotTexture uint32 = 2
)

// Uniform buffer sizes in bytes.
const (
	CameraUniformSize     = common.Mat4Size
	ObjectUniformSize     = common.Mat4Size
	RenderModeUniformSize = 16
)

// RenderMode selects how the fragment stage colors a textured draw.
type RenderMode int32

const (
	// RenderModeColor outputs the interpolated vertex color.
	RenderModeColor RenderMode = 0

	// RenderModeTexture outputs the sampled texture.
	RenderModeTexture RenderMode = 1
)

// Bytes returns the 16 byte uniform representation of the mode.
func (m RenderMode) Bytes() []byte {
	buf := make([]byte, RenderModeUniformSize)
	binary.LittleEndian.PutUint32(buf, uint32(m))
	return buf
}

// GPUResult is delivered once by the asynchronous adapter and device request.
// Err is set when either request failed, in which case the handles are nil.
type GPUResult struct {
	Adapter *wgpu.Adapter
	Device  *wgpu.Device
	Queue   *wgpu.Queue
	Err     error
}

// GPUContext is the GPU resource set shared by every frame once the bootstrap completes.
// It is created once and lives until Renderer.Release.
type GPUContext struct {
	Device        *wgpu.Device
	Queue         *wgpu.Queue
	Surface       *wgpu.Surface
	SurfaceFormat wgpu.TextureFormat
	SampleCount   MSAASampleCount

	Pipeline pipeline.Pipeline

	CameraLayout  *wgpu.BindGroupLayout
	ObjectLayout  *wgpu.BindGroupLayout
	TextureLayout *wgpu.BindGroupLayout
}

// CameraLayoutDescriptor describes slot 0: the view-projection uniform.
func CameraLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Camera Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: CameraUniformSize,
				},
			},
		},
	}
}

// ObjectLayoutDescriptor describes slot 1: the per-object model matrix uniform.
func ObjectLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Object Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: ObjectUniformSize,
				},
			},
		},
	}
}

// TextureLayoutDescriptor describes slot 2: a 2D texture, a filtering sampler and the render mode uniform.
func TextureLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Texture Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: RenderModeUniformSize,
				},
			},
		},
	}
}
