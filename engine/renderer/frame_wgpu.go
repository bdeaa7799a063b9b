package renderer

import (
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// wgpuFrame adapts one acquired swapchain image and its command encoder to FrameCommands.
type wgpuFrame struct {
	device  *wgpu.Device
	queue   *wgpu.Queue
	surface *wgpu.Surface
	logger  *slog.Logger

	encoder        *wgpu.CommandEncoder
	surfaceTexture *wgpu.Texture
	surfaceView    *wgpu.TextureView

	passes []*wgpu.RenderPassEncoder
}

type wgpuPass struct {
	pass *wgpu.RenderPassEncoder
}

var _ FrameCommands = &wgpuFrame{}
var _ PassEncoder = &wgpuPass{}

func (f *wgpuFrame) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	if err := f.queue.WriteBuffer(buf, offset, data); err != nil {
		f.logger.Error("queue buffer write failed", "offset", offset, "size", len(data), "error", err)
	}
}

func (f *wgpuFrame) BeginRenderPass(desc *wgpu.RenderPassDescriptor) PassEncoder {
	pass := f.encoder.BeginRenderPass(desc)
	f.passes = append(f.passes, pass)
	return &wgpuPass{pass: pass}
}

func (f *wgpuFrame) Submit() error {
	// passes must be released before the encoder is finished
	for _, p := range f.passes {
		p.Release()
	}
	f.passes = nil

	cmdBuffer, err := f.encoder.Finish(nil)
	if err != nil {
		return errors.Wrap(err, "finish command encoder")
	}
	f.queue.Submit(cmdBuffer)
	cmdBuffer.Release()
	return nil
}

func (f *wgpuFrame) Poll() {
	f.device.Poll(false, nil)
}

func (f *wgpuFrame) Present() {
	f.surface.Present()
}

func (f *wgpuFrame) Release() {
	for _, p := range f.passes {
		p.Release()
	}
	f.passes = nil
	if f.encoder != nil {
		f.encoder.Release()
		f.encoder = nil
	}
	if f.surfaceView != nil {
		f.surfaceView.Release()
		f.surfaceView = nil
	}
	if f.surfaceTexture != nil {
		f.surfaceTexture.Release()
		f.surfaceTexture = nil
	}
}

func (p *wgpuPass) SetPipeline(rp *wgpu.RenderPipeline) {
	p.pass.SetPipeline(rp)
}

func (p *wgpuPass) SetBindGroup(slot uint32, group *wgpu.BindGroup) {
	p.pass.SetBindGroup(slot, group, nil)
}

func (p *wgpuPass) SetVertexBuffer(buf *wgpu.Buffer) {
	p.pass.SetVertexBuffer(0, buf, 0, wgpu.WholeSize)
}

func (p *wgpuPass) SetIndexBuffer(buf *wgpu.Buffer) {
	p.pass.SetIndexBuffer(buf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
}

func (p *wgpuPass) DrawIndexed(indexCount uint32) {
	p.pass.DrawIndexed(indexCount, 1, 0, 0, 0)
}

func (p *wgpuPass) End() {
	p.pass.End()
}
