package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/camera"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderable"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(x float32) renderable.Transform {
	t := renderable.IdentityTransform()
	t.Position = mgl32.Vec3{x, 0, 0}
	return t
}

func populated(t *testing.T, options ...SceneBuilderOption) (Scene, renderable.Model) {
	t.Helper()
	s := NewScene("test", options...)
	require.NoError(t, s.Add(renderable.NewDrawable(renderable.KindLandscape, "land")))
	require.NoError(t, s.Add(renderable.NewDrawable(renderable.KindCube, "cube", renderable.WithTransform(at(2)))))
	require.NoError(t, s.Add(renderable.NewDrawable(renderable.KindGrid, "grid")))

	m := renderable.NewModel("model", at(10))
	m.AddMesh(renderable.NewDrawable(renderable.KindMesh, "mesh-a", renderable.WithTransform(at(1))))
	m.AddMesh(renderable.NewDrawable(renderable.KindMesh, "mesh-b"))
	s.AddModel(m)
	return s, m
}

func TestAddRejectsLooseMeshes(t *testing.T) {
	s := NewScene("test")
	err := s.Add(renderable.NewDrawable(renderable.KindMesh, "mesh"))
	assert.True(t, errors.Is(err, ErrInvalidDrawable))
	assert.True(t, errors.Is(s.Add(nil), ErrInvalidDrawable))
	assert.Zero(t, s.Count())
}

func TestDrawablesByKind(t *testing.T) {
	s, _ := populated(t)

	assert.Equal(t, 5, s.Count())
	meshes := s.Drawables(renderable.KindMesh)
	require.Len(t, meshes, 2)
	assert.Equal(t, "mesh-a", meshes[0].Label())
	assert.Equal(t, "mesh-b", meshes[1].Label())
	assert.Len(t, s.Drawables(renderable.KindGrid), 1)
}

func TestAttachTextureAndRemove(t *testing.T) {
	s, _ := populated(t)
	tex := bind_group_provider.NewBindGroupProvider("tex")

	require.NoError(t, s.AttachTexture("land", tex))
	assert.Equal(t, tex, s.Find("land").Texture())
	assert.True(t, errors.Is(s.AttachTexture("missing", tex), ErrNotFound))

	require.NoError(t, s.Remove("cube"))
	assert.Nil(t, s.Find("cube"))
	require.NoError(t, s.Remove("model"))
	assert.Empty(t, s.Drawables(renderable.KindMesh))
	assert.True(t, errors.Is(s.Remove("cube"), ErrNotFound))
	assert.Equal(t, 2, s.Count())
}

func TestFrameStagesAndExposesView(t *testing.T) {
	for name, opts := range map[string][]SceneBuilderOption{
		"serial":   nil,
		"parallel": {WithStagingThreshold(-1), WithWorkers(2)},
	} {
		t.Run(name, func(t *testing.T) {
			s, _ := populated(t, opts...)
			cube := s.Find("cube")
			cube.SetTransform(at(5))

			var vp mgl32.Mat4
			var kinds []int
			err := s.Frame(func(fs renderer.FrameScene) error {
				vp = fs.ViewProjection()
				for _, kind := range renderable.DrawOrder {
					kinds = append(kinds, len(fs.Drawables(kind)))
				}
				return nil
			})
			require.NoError(t, err)

			assert.Equal(t, mgl32.Ident4(), vp)
			assert.Equal(t, []int{1, 1, 2, 1}, kinds)
			assert.Equal(t, common.Mat4Bytes(at(5).Matrix()), cube.UniformBytes())
			mesh := s.Find("mesh-a")
			assert.Equal(t, common.Mat4Bytes(at(11).Matrix()), mesh.UniformBytes())
		})
	}
}

func TestFrameUsesCamera(t *testing.T) {
	cam := camera.NewCamera(camera.WithController(camera.NewCameraController()))
	s := NewScene("test", WithCamera(cam))

	err := s.Frame(func(fs renderer.FrameScene) error {
		assert.Equal(t, cam.ViewProjection(), fs.ViewProjection())
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}
