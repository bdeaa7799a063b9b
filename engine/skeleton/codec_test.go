package skeleton

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAMLRoundTrip(t *testing.T) {
	joints := fixture()
	joints[2].Rotation = mgl32.Vec4{0, 0.7071, 0, 0.7071}
	joints[3].Scale = mgl32.Vec3{2, 2, 2}

	data, err := Marshal(joints)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: 1")

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, joints, got)
}

func TestUnmarshalDefaultsAndErrors(t *testing.T) {
	got, err := Unmarshal([]byte(`
version: 1
joints:
  - id: hip
    position: [0, 1, 0]
  - id: knee
    parent: hip
    position: [0, -0.5, 0]
`))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, got[1].Rotation)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, got[1].Scale)
	assert.Equal(t, "hip", got[1].ParentID)

	_, err = Unmarshal([]byte("joints:\n  - id: a\n    position: [1, 2]\n"))
	assert.True(t, errors.Is(err, ErrInvalidHierarchy))

	_, err = Unmarshal([]byte("joints:\n  - id: a\n    parent: a\n    position: [0, 0, 0]\n"))
	assert.True(t, errors.Is(err, ErrInvalidHierarchy))

	_, err = Unmarshal([]byte("version: 99\n"))
	assert.Error(t, err)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skeleton.yaml")
	require.NoError(t, SaveFile(path, fixture()))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fixture(), got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGLTFRoundTrip(t *testing.T) {
	joints := fixture()
	joints[1].Rotation = mgl32.Vec4{0, 0, 0.7071, 0.7071}

	doc, err := ToGLTF(joints)
	require.NoError(t, err)
	require.Len(t, doc.Skins, 1)
	assert.Equal(t, []uint32{0}, doc.Scenes[0].Nodes)
	assert.Equal(t, []uint32{1, 3}, doc.Nodes[0].Children)

	got, err := FromGLTF(doc, 0)
	require.NoError(t, err)
	assert.Equal(t, joints, got)

	_, err = FromGLTF(doc, 1)
	assert.True(t, errors.Is(err, ErrInvalidHierarchy))
}

func TestGLTFFileRoundTrip(t *testing.T) {
	// names double as ids so the hierarchy survives without extras
	joints := []Joint{
		NewJoint("pelvis", "pelvis", "", mgl32.Vec3{0, 1, 0}),
		NewJoint("spine", "spine", "pelvis", mgl32.Vec3{0, 0.5, 0}),
		NewJoint("head", "head", "spine", mgl32.Vec3{0, 0.5, 0}),
	}
	path := filepath.Join(t.TempDir(), "skeleton.gltf")
	require.NoError(t, ExportGLTF(path, joints))

	got, err := ImportGLTF(path)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range joints {
		assert.Equal(t, joints[i].ID, got[i].ID)
		assert.Equal(t, joints[i].ParentID, got[i].ParentID)
		assert.Equal(t, joints[i].Position, got[i].Position)
	}
}

func TestFromGLTFDuplicateNamesGetUnusedIDs(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{
		{Name: "joint_2", Children: []uint32{1}},
		{Name: "arm", Children: []uint32{2}},
		{Name: "joint_2"},
	}
	doc.Scenes[0].Nodes = []uint32{0}
	doc.Skins = []*gltf.Skin{{Joints: []uint32{0, 1, 2}}}

	got, err := FromGLTF(doc, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "joint_2", got[0].ID)
	assert.Equal(t, "joint_2_1", got[2].ID)
	assert.Equal(t, "arm", got[2].ParentID)
}

func TestFromGLTFFoldsIntermediateNodeTranslations(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{
		{Name: "hip", Translation: [3]float32{0, 1, 0}, Children: []uint32{1}},
		{Name: "offset", Translation: [3]float32{0, 0, 2}, Children: []uint32{2}},
		{Name: "pivot", Translation: [3]float32{1, 0, 0}, Children: []uint32{3}},
		{Name: "knee", Translation: [3]float32{0, -0.5, 0}},
	}
	doc.Scenes[0].Nodes = []uint32{0}
	doc.Skins = []*gltf.Skin{{Joints: []uint32{0, 3}}}

	got, err := FromGLTF(doc, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hip", got[1].ParentID)
	assert.Equal(t, mgl32.Vec3{1, -0.5, 2}, got[1].Position)

	world, err := WorldPosition(got, "knee")
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{1, 0.5, 2}, world)
}
