package pipeline

import (
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used as the GPU debug label
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	// renderPipeline is set once the backend has created the GPU pipeline
	renderPipeline *wgpu.RenderPipeline

	// The following properties configure pipeline creation and can be set with the builder options.

	depthWriteEnabled bool
	depthCompare      wgpu.CompareFunction
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

// Pipeline describes a render pipeline (vertex + fragment shaders) and the fixed-function state
// used to create it. The backend creates the GPU object and stores it via SetRenderPipeline.
type Pipeline interface {
	// PipelineKey returns the unique key of the pipeline.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// Shader returns the shader for the given stage, or nil if unset.
	//
	// Parameters:
	//   - shaderType: the stage
	//
	// Returns:
	//   - shader.Shader: the shader or nil
	Shader(shaderType shader.ShaderType) shader.Shader

	// RenderPipeline returns the created GPU pipeline, or nil before creation.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the GPU pipeline or nil
	RenderPipeline() *wgpu.RenderPipeline

	// DepthWriteEnabled reports whether fragments write depth.
	DepthWriteEnabled() bool

	// DepthCompare returns the depth comparison function.
	DepthCompare() wgpu.CompareFunction

	// BlendEnabled reports whether BlendState is applied to the color target.
	BlendEnabled() bool

	// CullMode returns the face culling mode.
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology.
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding.
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask.
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state used when BlendEnabled is true.
	BlendState() *wgpu.BlendState

	// Validate checks that both stages are set and declare the expected stage types.
	//
	// Returns:
	//   - error: error describing the first missing or mismatched stage
	Validate() error

	// SetRenderPipeline stores the created GPU pipeline.
	//
	// Parameters:
	//   - rp: the created render pipeline
	SetRenderPipeline(rp *wgpu.RenderPipeline)

	// Release releases the GPU pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render Pipeline description.
// Defaults: depth write on, depth compare Less, alpha blending (SrcAlpha, OneMinusSrcAlpha),
// no culling, triangle list, counter-clockwise front faces.
//
// Parameters:
//   - pipelineKey: unique key for the pipeline
//   - opts: functional options
//
// Returns:
//   - Pipeline: the pipeline description
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthWriteEnabled: true,
		depthCompare:      wgpu.CompareFunctionLess,
		blendEnabled:      true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Validate() error {
	if p.vertexShader == nil || p.fragmentShader == nil {
		return errors.Errorf("pipeline %s: both vertex and fragment shaders must be set", p.pipelineKey)
	}
	if p.vertexShader.ShaderType() != shader.ShaderTypeVertex {
		return errors.Errorf("pipeline %s: %s is not a vertex shader", p.pipelineKey, p.vertexShader.Key())
	}
	if p.fragmentShader.ShaderType() != shader.ShaderTypeFragment {
		return errors.Errorf("pipeline %s: %s is not a fragment shader", p.pipelineKey, p.fragmentShader.Key())
	}
	return nil
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}
