package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderable"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfLoaderBackendImpl reads .gltf and .glb files through qmuntal/gltf.
type gltfLoaderBackendImpl struct{}

var _ loaderBackend = &gltfLoaderBackendImpl{}

func newGLTFLoaderBackend() loaderBackend {
	return &gltfLoaderBackendImpl{}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*ImportedModel, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return importDocument(doc, filepath.Base(path), filepath.Dir(path))
}

func (b *gltfLoaderBackendImpl) LoadReader(r io.Reader) (*ImportedModel, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "decode glTF stream")
	}
	return importDocument(doc, "", "")
}

// importDocument walks the default scene (or every root node when there is none) and emits one
// mesh per triangle primitive.
func importDocument(doc *gltf.Document, name, dir string) (*ImportedModel, error) {
	out := &ImportedModel{Name: name}
	textures := make(map[uint32]*common.TextureStagingData)

	var visit func(idx uint32, parent mgl32.Mat4, depth int) error
	visit = func(idx uint32, parent mgl32.Mat4, depth int) error {
		if int(idx) >= len(doc.Nodes) || depth > len(doc.Nodes) {
			return errors.Errorf("node %d out of range or cyclic", idx)
		}
		node := doc.Nodes[idx]
		world := parent.Mul4(nodeMatrix(node))

		if node.Mesh != nil {
			if int(*node.Mesh) >= len(doc.Meshes) {
				return errors.Errorf("node %q references missing mesh %d", node.Name, *node.Mesh)
			}
			mesh := doc.Meshes[*node.Mesh]
			for i, prim := range mesh.Primitives {
				m, err := importPrimitive(doc, prim, world)
				if err != nil {
					return errors.Wrapf(err, "mesh %q primitive %d", mesh.Name, i)
				}
				m.Name = common.Coalesce(mesh.Name, node.Name, fmt.Sprintf("mesh_%d", *node.Mesh))
				if len(mesh.Primitives) > 1 {
					m.Name = fmt.Sprintf("%s_%d", m.Name, i)
				}
				if m.Texture, err = baseColorTexture(doc, prim, dir, textures); err != nil {
					return errors.Wrapf(err, "mesh %q texture", mesh.Name)
				}
				out.Meshes = append(out.Meshes, m)
			}
		}
		for _, child := range node.Children {
			if err := visit(child, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range rootNodes(doc) {
		if err := visit(root, mgl32.Ident4(), 0); err != nil {
			return nil, err
		}
	}
	if len(out.Meshes) == 0 {
		return nil, errors.New("no meshes in document")
	}
	return out, nil
}

func rootNodes(doc *gltf.Document) []uint32 {
	if len(doc.Scenes) > 0 {
		scene := 0
		if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
			scene = int(*doc.Scene)
		}
		return doc.Scenes[scene].Nodes
	}
	isChild := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !isChild[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

// nodeMatrix returns the node's local matrix. A non-identity Matrix wins over TRS; zero
// rotation and scale mean unset.
func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	var zero [16]float32
	if n.Matrix != zero && mgl32.Mat4(n.Matrix) != mgl32.Ident4() {
		return mgl32.Mat4(n.Matrix)
	}
	t := mgl32.Translate3D(n.Translation[0], n.Translation[1], n.Translation[2])
	r := mgl32.Ident4()
	if q := n.Rotation; q != [4]float32{} {
		r = mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], q[1], q[2]}}.Normalize().Mat4()
	}
	s := mgl32.Ident4()
	if sc := n.Scale; sc != [3]float32{} {
		s = mgl32.Scale3D(sc[0], sc[1], sc[2])
	}
	return t.Mul4(r).Mul4(s)
}

func importPrimitive(doc *gltf.Document, prim *gltf.Primitive, world mgl32.Mat4) (ImportedMesh, error) {
	var m ImportedMesh
	if prim.Mode != gltf.PrimitiveTriangles {
		return m, errors.Errorf("unsupported primitive mode %v", prim.Mode)
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok || int(posIdx) >= len(doc.Accessors) {
		return m, errors.New("missing POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return m, errors.Wrap(err, "read positions")
	}

	var uvs [][2]float32
	if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok && int(uvIdx) < len(doc.Accessors) {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil); err != nil {
			return m, errors.Wrap(err, "read texture coordinates")
		}
	}

	m.Geometry.Vertices = make([]renderable.Vertex, len(positions))
	for i, p := range positions {
		v := world.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
		m.Geometry.Vertices[i] = renderable.Vertex{
			Position: [3]float32{v[0], v[1], v[2]},
			Color:    [4]float32{1, 1, 1, 1},
		}
		if i < len(uvs) {
			m.Geometry.Vertices[i].TexCoords = uvs[i]
		}
	}

	if prim.Indices != nil {
		if int(*prim.Indices) >= len(doc.Accessors) {
			return m, errors.Errorf("missing index accessor %d", *prim.Indices)
		}
		if m.Geometry.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return m, errors.Wrap(err, "read indices")
		}
	} else {
		m.Geometry.Indices = make([]uint32, len(positions))
		for i := range m.Geometry.Indices {
			m.Geometry.Indices[i] = uint32(i)
		}
	}
	for _, idx := range m.Geometry.Indices {
		if int(idx) >= len(positions) {
			return m, errors.Errorf("index %d out of range for %d vertices", idx, len(positions))
		}
	}
	return m, nil
}

// baseColorTexture decodes the primitive's base color image, sharing decoded images per glTF texture.
func baseColorTexture(doc *gltf.Document, prim *gltf.Primitive, dir string, cache map[uint32]*common.TextureStagingData) (*common.TextureStagingData, error) {
	if prim.Material == nil || int(*prim.Material) >= len(doc.Materials) {
		return nil, nil
	}
	pbr := doc.Materials[*prim.Material].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorTexture == nil {
		return nil, nil
	}
	texIdx := pbr.BaseColorTexture.Index
	if tex, ok := cache[texIdx]; ok {
		return tex, nil
	}
	if int(texIdx) >= len(doc.Textures) || doc.Textures[texIdx].Source == nil {
		return nil, nil
	}
	src := *doc.Textures[texIdx].Source
	if int(src) >= len(doc.Images) {
		return nil, errors.Errorf("missing image %d", src)
	}

	data, err := imageBytes(doc, doc.Images[src], dir)
	if err != nil {
		return nil, err
	}
	tex, err := common.DecodeTexture(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "decode image %d", src)
	}
	cache[texIdx] = &tex
	return &tex, nil
}

func imageBytes(doc *gltf.Document, img *gltf.Image, dir string) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		if int(*img.BufferView) >= len(doc.BufferViews) {
			return nil, errors.Errorf("missing buffer view %d", *img.BufferView)
		}
		bv := doc.BufferViews[*img.BufferView]
		if int(bv.Buffer) >= len(doc.Buffers) {
			return nil, errors.Errorf("missing buffer %d", bv.Buffer)
		}
		data := doc.Buffers[bv.Buffer].Data
		end := int(bv.ByteOffset) + int(bv.ByteLength)
		if end > len(data) {
			return nil, errors.Errorf("buffer view %d exceeds buffer", *img.BufferView)
		}
		return data[bv.ByteOffset:end], nil
	case img.IsEmbeddedResource():
		return img.MarshalData()
	case img.URI != "" && dir != "":
		return os.ReadFile(filepath.Join(dir, filepath.FromSlash(img.URI)))
	default:
		return nil, errors.Errorf("image %q cannot be resolved", img.Name)
	}
}
