package renderer

import (
	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// ParsePresentMode maps a config value ("vsync" or "uncapped") to a PresentMode.
// Unknown values fall back to VSync.
func ParsePresentMode(s string) PresentMode {
	if s == "uncapped" {
		return PresentModeUncapped
	}
	return PresentModeVSync
}

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. WebGPU guarantees support for
// 1 (off) and 4; higher values (8, 16) are adapter-dependent and may not be available.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA16x MSAASampleCount = 16
)

// Valid reports whether the count is one of the supported sample counts.
func (c MSAASampleCount) Valid() bool {
	switch c {
	case MSAAOff, MSAA4x, MSAA8x, MSAA16x:
		return true
	}
	return false
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}

// backendResources is the part of the backend the Renderer uses to create per-object GPU resources
// once the context exists.
type backendResources interface {
	// InitMeshBuffers uploads vertex and index data and stores the buffers on the provider.
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount uint32) error

	// InitUniformBindGroup creates a single uniform buffer at binding 0 and a bind group for it.
	InitUniformBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout, size uint64) error

	// InitTextureBindGroup uploads the texture, creates the sampler and render mode uniform, and
	// builds the slot 2 bind group.
	InitTextureBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout, staging common.TextureStagingData, sampler common.SamplerStagingData, mode RenderMode) error
}
