package loader

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderable"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	drawables []string
	textures  []common.TextureStagingData
	failAfter int
}

func (f *fakeUploader) NewDrawable(kind renderable.Kind, label string, g renderable.Geometry, t renderable.Transform) (renderable.Drawable, error) {
	if f.failAfter > 0 && len(f.drawables) >= f.failAfter {
		return nil, errors.New("out of memory")
	}
	f.drawables = append(f.drawables, label)
	return renderable.NewDrawable(kind, label, renderable.WithTransform(t)), nil
}

func (f *fakeUploader) NewTextureProvider(label string, tex common.TextureStagingData) (bind_group_provider.BindGroupProvider, error) {
	f.textures = append(f.textures, tex)
	return bind_group_provider.NewBindGroupProvider(label), nil
}

// triangleDoc is a root node translated by (0,2,0) holding a textured triangle, with an
// untextured child triangle translated by (1,0,0).
func triangleDoc(t *testing.T) *gltf.Document {
	t.Helper()
	doc := gltf.NewDocument()

	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 1}})
	idx := modeler.WriteIndices(doc, []uint32{0, 1, 2})

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	imgIdx, err := modeler.WriteImage(doc, "albedo", "image/png", &buf)
	require.NoError(t, err)
	doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(imgIdx)})
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:                 "albedo",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorTexture: &gltf.TextureInfo{Index: 0}},
	})

	doc.Meshes = append(doc.Meshes,
		&gltf.Mesh{Name: "body", Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{gltf.POSITION: pos, gltf.TEXCOORD_0: uv},
			Indices:    gltf.Index(idx),
			Material:   gltf.Index(0),
		}}},
		&gltf.Mesh{Name: "fin", Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{gltf.POSITION: pos},
		}}},
	)
	doc.Nodes = append(doc.Nodes,
		&gltf.Node{Name: "root", Mesh: gltf.Index(0), Translation: [3]float32{0, 2, 0}, Children: []uint32{1}},
		&gltf.Node{Name: "child", Mesh: gltf.Index(1), Translation: [3]float32{1, 0, 0}},
	)
	doc.Scenes[0].Nodes = []uint32{0}
	return doc
}

func TestImportDocumentBakesTransforms(t *testing.T) {
	imported, err := importDocument(triangleDoc(t), "tri", "")
	require.NoError(t, err)
	require.Len(t, imported.Meshes, 2)

	body, fin := imported.Meshes[0], imported.Meshes[1]
	assert.Equal(t, "body", body.Name)
	assert.Equal(t, [3]float32{1, 2, 0}, body.Geometry.Vertices[1].Position)
	assert.Equal(t, [2]float32{1, 0}, body.Geometry.Vertices[1].TexCoords)
	assert.Equal(t, []uint32{0, 1, 2}, body.Geometry.Indices)
	require.NotNil(t, body.Texture)
	assert.Equal(t, uint32(2), body.Texture.Width)

	assert.Equal(t, [3]float32{1, 3, 0}, fin.Geometry.Vertices[2].Position, "child inherits the root translation")
	assert.Equal(t, []uint32{0, 1, 2}, fin.Geometry.Indices, "unindexed primitives get sequential indices")
	assert.Nil(t, fin.Texture)
}

func TestImportDocumentRejectsEmpty(t *testing.T) {
	_, err := importDocument(gltf.NewDocument(), "", "")
	assert.Error(t, err)
}

func TestLoadUploadsAndCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, gltf.SaveBinary(triangleDoc(t), path))

	up := &fakeUploader{}
	l := NewLoader(BackendTypeGLTF, WithUploader(up))

	m, err := l.Load(path, renderable.IdentityTransform())
	require.NoError(t, err)
	require.Len(t, m.Meshes(), 2)
	for _, mesh := range m.Meshes() {
		assert.Equal(t, renderable.KindMesh, mesh.Kind())
		assert.NotNil(t, mesh.Texture(), "meshes always get a texture")
	}
	assert.Equal(t, []string{"tri.glb/body", "tri.glb/fin"}, up.drawables)
	require.Len(t, up.textures, 2)
	assert.Equal(t, uint32(1), up.textures[1].Width, "untextured mesh gets the white fallback")

	require.NotNil(t, l.Get(path))
	second, err := l.Load(path, renderable.IdentityTransform())
	require.NoError(t, err)
	assert.NotSame(t, m, second, "each load is a separate upload")
	assert.Len(t, up.drawables, 4)

	l.Evict(path)
	assert.Nil(t, l.Get(path))
}

func TestLoadErrors(t *testing.T) {
	l := NewLoader(BackendTypeGLTF, WithUploader(&fakeUploader{}))
	_, err := l.Load("model.fbx", renderable.IdentityTransform())
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = l.Load(filepath.Join(t.TempDir(), "missing.gltf"), renderable.IdentityTransform())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, gltf.SaveBinary(triangleDoc(t), path))

	_, err = NewLoader(BackendTypeGLTF).Load(path, renderable.IdentityTransform())
	assert.Error(t, err, "no uploader")

	up := &fakeUploader{failAfter: 1}
	_, err = NewLoader(BackendTypeGLTF, WithUploader(up)).Load(path, renderable.IdentityTransform())
	assert.ErrorContains(t, err, "out of memory")
}

func TestLoadReaderUsesCacheKey(t *testing.T) {
	imported, err := importDocument(triangleDoc(t), "tri", "")
	require.NoError(t, err)

	up := &fakeUploader{}
	l := NewLoader(BackendTypeGLTF, WithUploader(up), WithModel("cached", imported))
	m, err := l.LoadReader("cached", bytes.NewReader(nil), renderable.IdentityTransform())
	require.NoError(t, err)
	assert.Equal(t, "cached", m.Label())
	assert.Len(t, m.Meshes(), 2)
}
