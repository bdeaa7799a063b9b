package renderer

import (
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/pipeline"
)

// FrameOrchestratorOption is a functional option applied to a frame orchestrator during construction.
type FrameOrchestratorOption func(*frameOrchestrator)

// WithRenderPipeline sets the pipeline every draw uses.
//
// Parameters:
//   - p: a pipeline whose GPU object has been created
//
// Returns:
//   - FrameOrchestratorOption: a function that sets the pipeline
func WithRenderPipeline(p pipeline.Pipeline) FrameOrchestratorOption {
	return func(o *frameOrchestrator) {
		o.pipeline = p
	}
}

// WithCameraProvider sets the provider holding the camera bind group (slot 0) and its uniform buffer.
//
// Parameters:
//   - camera: the camera provider
//
// Returns:
//   - FrameOrchestratorOption: a function that sets the camera provider
func WithCameraProvider(camera bind_group_provider.BindGroupProvider) FrameOrchestratorOption {
	return func(o *frameOrchestrator) {
		o.camera = camera
	}
}

// WithDefaultTexture sets the texture group bound at slot 2 at the start of the pass.
//
// Parameters:
//   - texture: the default texture provider
//
// Returns:
//   - FrameOrchestratorOption: a function that sets the default texture
func WithDefaultTexture(texture bind_group_provider.BindGroupProvider) FrameOrchestratorOption {
	return func(o *frameOrchestrator) {
		o.defaultTexture = texture
	}
}

// WithDepthBuffer sets the depth buffer manager supplying the depth attachment.
//
// Parameters:
//   - depth: the depth buffer
//
// Returns:
//   - FrameOrchestratorOption: a function that sets the depth buffer
func WithDepthBuffer(depth DepthBuffer) FrameOrchestratorOption {
	return func(o *frameOrchestrator) {
		o.depth = depth
	}
}
