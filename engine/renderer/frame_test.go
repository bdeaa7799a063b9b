package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderable"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameCall struct {
	op    string
	slot  uint32
	group *wgpu.BindGroup
	buf   *wgpu.Buffer
	data  []byte
	count uint32
}

type recorder struct {
	calls     []frameCall
	desc      *wgpu.RenderPassDescriptor
	submitErr error
	released  bool
}

func (r *recorder) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	r.calls = append(r.calls, frameCall{op: "write", buf: buf, data: append([]byte(nil), data...)})
}

func (r *recorder) BeginRenderPass(desc *wgpu.RenderPassDescriptor) PassEncoder {
	r.desc = desc
	r.calls = append(r.calls, frameCall{op: "begin"})
	return &recordingPass{r: r}
}

func (r *recorder) Submit() error {
	r.calls = append(r.calls, frameCall{op: "submit"})
	return r.submitErr
}

func (r *recorder) Poll()    { r.calls = append(r.calls, frameCall{op: "poll"}) }
func (r *recorder) Present() { r.calls = append(r.calls, frameCall{op: "present"}) }
func (r *recorder) Release() { r.released = true }

func (r *recorder) ops() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.op
	}
	return out
}

func (r *recorder) draws() []uint32 {
	var out []uint32
	for _, c := range r.calls {
		if c.op == "draw" {
			out = append(out, c.count)
		}
	}
	return out
}

type recordingPass struct {
	r *recorder
}

func (p *recordingPass) SetPipeline(*wgpu.RenderPipeline) {
	p.r.calls = append(p.r.calls, frameCall{op: "pipeline"})
}

func (p *recordingPass) SetBindGroup(slot uint32, group *wgpu.BindGroup) {
	p.r.calls = append(p.r.calls, frameCall{op: "bind", slot: slot, group: group})
}

func (p *recordingPass) SetVertexBuffer(buf *wgpu.Buffer) {
	p.r.calls = append(p.r.calls, frameCall{op: "vertex", buf: buf})
}

func (p *recordingPass) SetIndexBuffer(buf *wgpu.Buffer) {
	p.r.calls = append(p.r.calls, frameCall{op: "index", buf: buf})
}

func (p *recordingPass) DrawIndexed(indexCount uint32) {
	p.r.calls = append(p.r.calls, frameCall{op: "draw", count: indexCount})
}

func (p *recordingPass) End() {
	p.r.calls = append(p.r.calls, frameCall{op: "end"})
}

type fakeScene struct {
	viewProj  mgl32.Mat4
	byKind    map[renderable.Kind][]renderable.Drawable
	vpCalls   int
	kindOrder []renderable.Kind
}

func (s *fakeScene) ViewProjection() mgl32.Mat4 {
	s.vpCalls++
	return s.viewProj
}

func (s *fakeScene) Drawables(kind renderable.Kind) []renderable.Drawable {
	s.kindOrder = append(s.kindOrder, kind)
	return s.byKind[kind]
}

type fixture struct {
	orchestrator FrameOrchestrator
	camera       bind_group_provider.BindGroupProvider
	defaultTex   bind_group_provider.BindGroupProvider
	depth        DepthBuffer
	depthView    *wgpu.TextureView
	target       FrameTarget
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	p := pipeline.NewPipeline("test")
	p.SetRenderPipeline(&wgpu.RenderPipeline{})

	camera := bind_group_provider.NewBindGroupProvider("camera",
		bind_group_provider.WithBindGroup(&wgpu.BindGroup{}),
		bind_group_provider.WithBuffer(0, &wgpu.Buffer{}),
	)
	defaultTex := bind_group_provider.NewBindGroupProvider("default",
		bind_group_provider.WithBindGroup(&wgpu.BindGroup{}),
	)

	depthView := &wgpu.TextureView{}
	depth := NewDepthBuffer(func(w, h int, samples uint32) (*wgpu.TextureView, func(), error) {
		return depthView, func() {}, nil
	}, 4)
	require.NoError(t, depth.Resize(800, 600))

	return &fixture{
		orchestrator: NewFrameOrchestrator(
			WithRenderPipeline(p),
			WithCameraProvider(camera),
			WithDefaultTexture(defaultTex),
			WithDepthBuffer(depth),
		),
		camera:     camera,
		defaultTex: defaultTex,
		depth:      depth,
		depthView:  depthView,
		target:     FrameTarget{View: &wgpu.TextureView{}, ResolveTarget: &wgpu.TextureView{}},
	}
}

// newTestDrawable builds a drawable whose mesh draws indexCount indices.
func newTestDrawable(kind renderable.Kind, label string, indexCount uint32, textured bool) renderable.Drawable {
	opts := []renderable.DrawableBuilderOption{
		renderable.WithMesh(bind_group_provider.NewBindGroupProvider(label+" mesh",
			bind_group_provider.WithGeometry(&wgpu.Buffer{}, &wgpu.Buffer{}, indexCount),
		)),
		renderable.WithObject(bind_group_provider.NewBindGroupProvider(label+" object",
			bind_group_provider.WithBindGroup(&wgpu.BindGroup{}),
			bind_group_provider.WithBuffer(0, &wgpu.Buffer{}),
		)),
	}
	if textured {
		opts = append(opts, renderable.WithTexture(bind_group_provider.NewBindGroupProvider(label+" texture",
			bind_group_provider.WithBindGroup(&wgpu.BindGroup{}),
		)))
	}
	d := renderable.NewDrawable(kind, label, opts...)
	d.Stage()
	return d
}

func fullScene() *fakeScene {
	return &fakeScene{
		viewProj: mgl32.Ident4(),
		byKind: map[renderable.Kind][]renderable.Drawable{
			renderable.KindLandscape: {newTestDrawable(renderable.KindLandscape, "land", 600, true)},
			renderable.KindMesh:      {newTestDrawable(renderable.KindMesh, "mesh", 30, true)},
			renderable.KindCube:      {newTestDrawable(renderable.KindCube, "cube", 36, false)},
			renderable.KindGrid:      {newTestDrawable(renderable.KindGrid, "grid", 240, true)},
		},
	}
}

func TestRenderFrameDrawOrder(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	scene := fullScene()

	require.NoError(t, f.orchestrator.RenderFrame(rec, f.target, scene))

	assert.Equal(t, []uint32{240, 36, 30, 600}, rec.draws())
	assert.Equal(t, renderable.DrawOrder[:], scene.kindOrder)
}

func TestRenderFrameModelScenario(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}

	model := renderable.NewModel("model", renderable.IdentityTransform())
	require.True(t, model.AddMesh(newTestDrawable(renderable.KindMesh, "mesh a", 12, true)))
	require.True(t, model.AddMesh(newTestDrawable(renderable.KindMesh, "mesh b", 18, true)))

	scene := &fakeScene{
		viewProj: mgl32.Ident4(),
		byKind: map[renderable.Kind][]renderable.Drawable{
			renderable.KindGrid:      {newTestDrawable(renderable.KindGrid, "grid", 240, true)},
			renderable.KindCube:      {newTestDrawable(renderable.KindCube, "cube", 36, false)},
			renderable.KindMesh:      model.Meshes(),
			renderable.KindLandscape: {newTestDrawable(renderable.KindLandscape, "land", 600, false)},
		},
	}

	require.NoError(t, f.orchestrator.RenderFrame(rec, f.target, scene))

	assert.Equal(t, []uint32{240, 36, 12, 18}, rec.draws())
}

func TestRenderFrameWritesCameraOnceBeforeDraws(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	scene := fullScene()
	scene.viewProj = mgl32.Translate3D(1, 2, 3)

	require.NoError(t, f.orchestrator.RenderFrame(rec, f.target, scene))

	cameraWrites := 0
	firstDraw := -1
	for i, c := range rec.calls {
		if c.op == "write" && c.buf == f.camera.Buffer(0) {
			cameraWrites++
			assert.Equal(t, -1, firstDraw, "camera written after a draw")
			assert.Equal(t, common.Mat4Bytes(scene.viewProj), c.data)
		}
		if c.op == "draw" && firstDraw < 0 {
			firstDraw = i
		}
	}
	assert.Equal(t, 1, cameraWrites)
	assert.Equal(t, 1, scene.vpCalls)
}

func TestRenderFramePerObjectSequence(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	mesh := newTestDrawable(renderable.KindMesh, "mesh", 12, true)
	scene := &fakeScene{byKind: map[renderable.Kind][]renderable.Drawable{renderable.KindMesh: {mesh}}}

	require.NoError(t, f.orchestrator.RenderFrame(rec, f.target, scene))

	// begin, pipeline, camera write, default slot 2, then the object
	calls := rec.calls[4:]
	require.Len(t, calls, 11)
	assert.Equal(t, "write", calls[0].op)
	assert.Equal(t, mesh.Object().Buffer(0), calls[0].buf)
	assert.Equal(t, mesh.UniformBytes(), calls[0].data)
	assert.Equal(t, frameCall{op: "bind", slot: SlotCamera, group: f.camera.BindGroup()}, calls[1])
	assert.Equal(t, frameCall{op: "bind", slot: SlotObject, group: mesh.Object().BindGroup()}, calls[2])
	assert.Equal(t, frameCall{op: "bind", slot: SlotTexture, group: mesh.Texture().BindGroup()}, calls[3])
	assert.Equal(t, frameCall{op: "vertex", buf: mesh.Mesh().VertexBuffer()}, calls[4])
	assert.Equal(t, frameCall{op: "index", buf: mesh.Mesh().IndexBuffer()}, calls[5])
	assert.Equal(t, frameCall{op: "draw", count: 12}, calls[6])
	assert.Equal(t, []string{"end", "submit", "poll", "present"}, rec.ops()[len(rec.calls)-4:])
}

func TestRenderFrameCubeNeverBindsTextureSlot(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	cube := newTestDrawable(renderable.KindCube, "cube", 36, false)
	// a texture attached to a cube is still never bound
	cube.SetTexture(bind_group_provider.NewBindGroupProvider("stray", bind_group_provider.WithBindGroup(&wgpu.BindGroup{})))
	scene := &fakeScene{byKind: map[renderable.Kind][]renderable.Drawable{renderable.KindCube: {cube, newTestDrawable(renderable.KindCube, "cube2", 36, false)}}}

	require.NoError(t, f.orchestrator.RenderFrame(rec, f.target, scene))

	slot2 := 0
	for _, c := range rec.calls {
		if c.op == "bind" && c.slot == SlotTexture {
			slot2++
			assert.Equal(t, f.defaultTex.BindGroup(), c.group)
		}
	}
	assert.Equal(t, 1, slot2, "only the default texture bind precedes the cubes")
	assert.Len(t, rec.draws(), 2)
}

func TestRenderFrameSkipsUntexturedLandscape(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	bare := newTestDrawable(renderable.KindLandscape, "bare", 600, false)
	textured := newTestDrawable(renderable.KindLandscape, "textured", 96, true)
	scene := &fakeScene{byKind: map[renderable.Kind][]renderable.Drawable{renderable.KindLandscape: {bare, textured}}}

	require.NoError(t, f.orchestrator.RenderFrame(rec, f.target, scene))

	assert.Equal(t, []uint32{96}, rec.draws())
	for _, c := range rec.calls {
		assert.NotEqual(t, bare.Object().Buffer(0), c.buf, "skipped landscape must not write its transform")
	}
}

func TestRenderFramePassDescriptor(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}

	require.NoError(t, f.orchestrator.RenderFrame(rec, f.target, &fakeScene{}))

	require.NotNil(t, rec.desc)
	require.Len(t, rec.desc.ColorAttachments, 1)
	color := rec.desc.ColorAttachments[0]
	assert.Equal(t, wgpu.LoadOpLoad, color.LoadOp)
	assert.Equal(t, wgpu.StoreOpStore, color.StoreOp)
	assert.Same(t, f.target.View, color.View)
	assert.Same(t, f.target.ResolveTarget, color.ResolveTarget)

	depth := rec.desc.DepthStencilAttachment
	require.NotNil(t, depth)
	assert.Same(t, f.depthView, depth.View)
	assert.Equal(t, wgpu.LoadOpClear, depth.DepthLoadOp)
	assert.Equal(t, float32(1.0), depth.DepthClearValue)
}

func TestRenderFrameEmptySceneStillPresents(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}

	require.NoError(t, f.orchestrator.RenderFrame(rec, f.target, &fakeScene{}))

	assert.Equal(t, []string{"begin", "pipeline", "write", "bind", "end", "submit", "poll", "present"}, rec.ops())
}

func TestRenderFrameSubmitErrorSkipsPresent(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{submitErr: errors.New("device lost")}

	err := f.orchestrator.RenderFrame(rec, f.target, fullScene())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "device lost")
	assert.NotContains(t, rec.ops(), "present")
	assert.NotContains(t, rec.ops(), "poll")
}

func requireMissingResourcePanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.Is(err, ErrMissingResource), "unexpected panic: %v", err)
	}()
	fn()
}

func TestRenderFrameMissingResourcesPanic(t *testing.T) {
	t.Run("untextured mesh", func(t *testing.T) {
		f := newFixture(t)
		scene := &fakeScene{byKind: map[renderable.Kind][]renderable.Drawable{
			renderable.KindMesh: {newTestDrawable(renderable.KindMesh, "mesh", 3, false)},
		}}
		requireMissingResourcePanic(t, func() { _ = f.orchestrator.RenderFrame(&recorder{}, f.target, scene) })
	})

	t.Run("no object", func(t *testing.T) {
		f := newFixture(t)
		d := renderable.NewDrawable(renderable.KindGrid, "grid",
			renderable.WithMesh(bind_group_provider.NewBindGroupProvider("m", bind_group_provider.WithGeometry(&wgpu.Buffer{}, &wgpu.Buffer{}, 6))),
			renderable.WithTexture(bind_group_provider.NewBindGroupProvider("t", bind_group_provider.WithBindGroup(&wgpu.BindGroup{}))),
		)
		scene := &fakeScene{byKind: map[renderable.Kind][]renderable.Drawable{renderable.KindGrid: {d}}}
		requireMissingResourcePanic(t, func() { _ = f.orchestrator.RenderFrame(&recorder{}, f.target, scene) })
	})

	t.Run("no mesh", func(t *testing.T) {
		f := newFixture(t)
		d := renderable.NewDrawable(renderable.KindCube, "cube",
			renderable.WithObject(bind_group_provider.NewBindGroupProvider("o",
				bind_group_provider.WithBindGroup(&wgpu.BindGroup{}),
				bind_group_provider.WithBuffer(0, &wgpu.Buffer{}),
			)),
		)
		scene := &fakeScene{byKind: map[renderable.Kind][]renderable.Drawable{renderable.KindCube: {d}}}
		requireMissingResourcePanic(t, func() { _ = f.orchestrator.RenderFrame(&recorder{}, f.target, scene) })
	})

	t.Run("no depth view", func(t *testing.T) {
		f := newFixture(t)
		f.depth.Release()
		requireMissingResourcePanic(t, func() { _ = f.orchestrator.RenderFrame(&recorder{}, f.target, &fakeScene{}) })
	})

	t.Run("no pipeline", func(t *testing.T) {
		o := NewFrameOrchestrator()
		requireMissingResourcePanic(t, func() { _ = o.RenderFrame(&recorder{}, FrameTarget{View: &wgpu.TextureView{}}, &fakeScene{}) })
	})

	t.Run("no color target", func(t *testing.T) {
		f := newFixture(t)
		requireMissingResourcePanic(t, func() { _ = f.orchestrator.RenderFrame(&recorder{}, FrameTarget{}, &fakeScene{}) })
	})
}

func TestRenderFrameUsesResizedDepthView(t *testing.T) {
	p := pipeline.NewPipeline("test")
	p.SetRenderPipeline(&wgpu.RenderPipeline{})
	camera := bind_group_provider.NewBindGroupProvider("camera",
		bind_group_provider.WithBindGroup(&wgpu.BindGroup{}),
		bind_group_provider.WithBuffer(0, &wgpu.Buffer{}),
	)

	var views []*wgpu.TextureView
	depth := NewDepthBuffer(func(w, h int, samples uint32) (*wgpu.TextureView, func(), error) {
		v := &wgpu.TextureView{}
		views = append(views, v)
		return v, func() {}, nil
	}, 4)
	require.NoError(t, depth.Resize(800, 600))

	o := NewFrameOrchestrator(WithRenderPipeline(p), WithCameraProvider(camera), WithDepthBuffer(depth))
	target := FrameTarget{View: &wgpu.TextureView{}}

	require.NoError(t, depth.Resize(1024, 768))
	rec := &recorder{}
	require.NoError(t, o.RenderFrame(rec, target, &fakeScene{}))

	require.Len(t, views, 2)
	assert.Same(t, views[1], rec.desc.DepthStencilAttachment.View)
	assert.Same(t, depth, o.DepthBuffer())
}
