package renderer

import (
	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderable"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// FrameCommands is the per-frame command surface: the queue, one command encoder and the
// acquired swapchain image. It is created by the backend for each frame and released after.
type FrameCommands interface {
	// WriteBuffer schedules a queue write into buf.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: the byte offset
	//   - data: the bytes to write
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)

	// BeginRenderPass begins a render pass on the frame's command encoder.
	//
	// Parameters:
	//   - desc: the render pass descriptor
	//
	// Returns:
	//   - PassEncoder: the pass
	BeginRenderPass(desc *wgpu.RenderPassDescriptor) PassEncoder

	// Submit finishes the command encoder and submits the command buffer to the queue.
	//
	// Returns:
	//   - error: error if the encoder could not be finished
	Submit() error

	// Poll lets the device process completed work without blocking.
	Poll()

	// Present presents the acquired swapchain image.
	Present()

	// Release releases the encoder and the swapchain image.
	Release()
}

// PassEncoder is the subset of render pass commands the frame pass issues.
type PassEncoder interface {
	SetPipeline(p *wgpu.RenderPipeline)
	SetBindGroup(slot uint32, group *wgpu.BindGroup)
	// SetVertexBuffer binds buf at vertex slot 0.
	SetVertexBuffer(buf *wgpu.Buffer)
	// SetIndexBuffer binds buf as a uint32 index buffer.
	SetIndexBuffer(buf *wgpu.Buffer)
	// DrawIndexed draws indexCount indices as a single instance.
	DrawIndexed(indexCount uint32)
	End()
}

// FrameTarget is the color attachment of the frame pass. With MSAA, View is the multisampled
// texture and ResolveTarget the swapchain view. Without MSAA, View is the swapchain view.
type FrameTarget struct {
	View          *wgpu.TextureView
	ResolveTarget *wgpu.TextureView
}

// FrameScene is the scene state visible to the frame pass, read under the scene lock.
type FrameScene interface {
	// ViewProjection recomputes the camera matrices and returns the view-projection matrix.
	ViewProjection() mgl32.Mat4

	// Drawables returns the drawables of one category in draw order.
	Drawables(kind renderable.Kind) []renderable.Drawable
}

type frameOrchestrator struct {
	pipeline       pipeline.Pipeline
	camera         bind_group_provider.BindGroupProvider
	defaultTexture bind_group_provider.BindGroupProvider
	depth          DepthBuffer
}

// FrameOrchestrator builds and submits the single render pass of a frame.
//
// Per frame, in order:
//  1. begin the pass (color LoadOpLoad, depth cleared to 1.0) and set the pipeline
//  2. write the camera view-projection uniform exactly once
//  3. bind the default texture group at slot 2
//  4. draw grids, cubes, model meshes, then landscapes; per drawable write its model matrix,
//     bind slot 0 (camera), slot 1 (object) and slot 2 (texture, never for cubes), then issue
//     one indexed draw of one instance
//  5. end the pass, submit, poll without blocking, present
//
// A resource required at draw time that is missing is a programming error: RenderFrame panics
// with an error wrapping ErrMissingResource. Landscapes without a texture are skipped.
type FrameOrchestrator interface {
	// RenderFrame encodes and submits one frame.
	//
	// Parameters:
	//   - cmds: the per-frame command surface
	//   - target: the color attachment
	//   - scene: the scene state for this frame
	//
	// Returns:
	//   - error: error if submission fails
	RenderFrame(cmds FrameCommands, target FrameTarget, scene FrameScene) error

	// DepthBuffer returns the depth buffer manager used for the depth attachment.
	DepthBuffer() DepthBuffer
}

var _ FrameOrchestrator = &frameOrchestrator{}

// NewFrameOrchestrator creates a FrameOrchestrator.
//
// Parameters:
//   - options: functional options supplying the pipeline, camera provider, default texture and depth buffer
//
// Returns:
//   - FrameOrchestrator: the orchestrator
func NewFrameOrchestrator(options ...FrameOrchestratorOption) FrameOrchestrator {
	o := &frameOrchestrator{}
	for _, opt := range options {
		opt(o)
	}
	return o
}

func (o *frameOrchestrator) DepthBuffer() DepthBuffer {
	return o.depth
}

func (o *frameOrchestrator) RenderFrame(cmds FrameCommands, target FrameTarget, scene FrameScene) error {
	if o.pipeline == nil || o.pipeline.RenderPipeline() == nil {
		panic(errors.Wrap(ErrMissingResource, "render pipeline"))
	}
	if target.View == nil {
		panic(errors.Wrap(ErrMissingResource, "color target"))
	}
	if o.depth == nil || o.depth.View() == nil {
		panic(errors.Wrap(ErrMissingResource, "depth view"))
	}
	if o.camera == nil || o.camera.BindGroup() == nil || o.camera.Buffer(0) == nil {
		panic(errors.Wrap(ErrMissingResource, "camera bind group"))
	}
	cameraGroup := o.camera.BindGroup()

	pass := cmds.BeginRenderPass(o.passDescriptor(target))
	pass.SetPipeline(o.pipeline.RenderPipeline())

	cmds.WriteBuffer(o.camera.Buffer(0), 0, common.Mat4Bytes(scene.ViewProjection()))

	// cubes never set slot 2, so it must hold a valid group before the first cube
	if o.defaultTexture != nil && o.defaultTexture.BindGroup() != nil {
		pass.SetBindGroup(SlotTexture, o.defaultTexture.BindGroup())
	}

	for _, kind := range renderable.DrawOrder {
		for _, d := range scene.Drawables(kind) {
			o.draw(cmds, pass, cameraGroup, d)
		}
	}

	pass.End()

	if err := cmds.Submit(); err != nil {
		return errors.Wrap(err, "submit frame")
	}
	cmds.Poll()
	cmds.Present()
	return nil
}

func (o *frameOrchestrator) passDescriptor(target FrameTarget) *wgpu.RenderPassDescriptor {
	return &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          target.View,
				ResolveTarget: target.ResolveTarget,
				LoadOp:        wgpu.LoadOpLoad,
				StoreOp:       wgpu.StoreOpStore,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            o.depth.View(),
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	}
}

// draw issues the commands for one drawable. It returns false when the drawable was skipped.
func (o *frameOrchestrator) draw(cmds FrameCommands, pass PassEncoder, camera *wgpu.BindGroup, d renderable.Drawable) bool {
	var texture *wgpu.BindGroup
	switch d.Kind().TexturePolicy() {
	case renderable.TextureOptional:
		tp := d.Texture()
		if tp == nil || tp.BindGroup() == nil {
			return false
		}
		texture = tp.BindGroup()
	case renderable.TextureRequired:
		tp := d.Texture()
		if tp == nil || tp.BindGroup() == nil {
			panic(missingResource(d, "texture bind group"))
		}
		texture = tp.BindGroup()
	case renderable.TextureNever:
	}

	object := d.Object()
	if object == nil || object.BindGroup() == nil || object.Buffer(0) == nil {
		panic(missingResource(d, "object bind group"))
	}
	mesh := d.Mesh()
	if mesh == nil || !mesh.HasGeometry() {
		panic(missingResource(d, "mesh buffers"))
	}

	cmds.WriteBuffer(object.Buffer(0), 0, d.UniformBytes())

	pass.SetBindGroup(SlotCamera, camera)
	pass.SetBindGroup(SlotObject, object.BindGroup())
	if texture != nil {
		pass.SetBindGroup(SlotTexture, texture)
	}
	pass.SetVertexBuffer(mesh.VertexBuffer())
	pass.SetIndexBuffer(mesh.IndexBuffer())
	pass.DrawIndexed(mesh.IndexCount())
	return true
}

func missingResource(d renderable.Drawable, what string) error {
	return errors.Wrapf(ErrMissingResource, "%s %q: %s", d.Kind(), d.Label(), what)
}
