package skeleton

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// extrasIDKey is the node extras key carrying the joint id through a glTF round trip.
const extrasIDKey = "oxy_joint_id"

// FromGLTF builds a joint collection from one skin of a glTF document. Rows follow the skin's
// joint list. A joint's parent is the nearest node above it in the node tree that is also a
// joint of the skin; joints without one become roots. Translations of non-joint nodes on the way
// up are added to the joint's position. Duplicate ids fall back to unused "joint_<node>" ids.
//
// Parameters:
//   - doc: the glTF document
//   - skin: index into doc.Skins
//
// Returns:
//   - []Joint: the joints
//   - error: error if the skin is missing or the result fails Validate
func FromGLTF(doc *gltf.Document, skin int) ([]Joint, error) {
	if skin < 0 || skin >= len(doc.Skins) {
		return nil, errors.Wrapf(ErrInvalidHierarchy, "document has %d skins, want index %d", len(doc.Skins), skin)
	}
	nodes := doc.Skins[skin].Joints

	parentOf := make(map[uint32]uint32, len(doc.Nodes))
	for i, n := range doc.Nodes {
		for _, child := range n.Children {
			parentOf[child] = uint32(i)
		}
	}

	ids := make(map[uint32]string, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, ni := range nodes {
		if int(ni) >= len(doc.Nodes) {
			return nil, errors.Wrapf(ErrInvalidHierarchy, "skin references node %d of %d", ni, len(doc.Nodes))
		}
		id := nodeID(doc.Nodes[ni], ni)
		if seen[id] {
			id = fmt.Sprintf("joint_%d", ni)
			for n := 1; seen[id]; n++ {
				id = fmt.Sprintf("joint_%d_%d", ni, n)
			}
		}
		seen[id] = true
		ids[ni] = id
	}

	joints := make([]Joint, 0, len(nodes))
	for _, ni := range nodes {
		n := doc.Nodes[ni]

		// non-joint nodes between a joint and its parent joint fold their translation into the joint
		parentID := ""
		pos := mgl32.Vec3(n.Translation)
		cur, ok := parentOf[ni]
		for hops := 0; ok && hops <= len(doc.Nodes); hops++ {
			if id, isJoint := ids[cur]; isJoint {
				parentID = id
				break
			}
			pos = pos.Add(mgl32.Vec3(doc.Nodes[cur].Translation))
			cur, ok = parentOf[cur]
		}

		j := NewJoint(ids[ni], n.Name, parentID, pos)
		if n.Rotation != [4]float32{} {
			j.Rotation = mgl32.Vec4(n.Rotation)
		}
		if n.Scale != [3]float32{} {
			j.Scale = mgl32.Vec3(n.Scale)
		}
		joints = append(joints, j)
	}

	if err := Validate(joints); err != nil {
		return nil, err
	}
	return joints, nil
}

func nodeID(n *gltf.Node, index uint32) string {
	if extras, ok := n.Extras.(map[string]any); ok {
		if id, ok := extras[extrasIDKey].(string); ok && id != "" {
			return id
		}
	}
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("joint_%d", index)
}

// ToGLTF builds a glTF document with one node per joint, the node tree mirroring the
// parent links, and a single skin listing the joints in row order. Roots are added to the default scene.
//
// Parameters:
//   - joints: the joint collection
//
// Returns:
//   - *gltf.Document: the document
//   - error: ErrInvalidHierarchy if the collection fails Validate
func ToGLTF(joints []Joint) (*gltf.Document, error) {
	if err := Validate(joints); err != nil {
		return nil, err
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "oxy-editor"

	index := indexByID(joints)
	skin := &gltf.Skin{Name: "skeleton", Joints: make([]uint32, len(joints))}
	for i, j := range joints {
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        j.Name,
			Translation: j.Position,
			Rotation:    j.Rotation,
			Scale:       j.Scale,
			Extras:      map[string]any{extrasIDKey: j.ID},
		})
		skin.Joints[i] = uint32(i)
	}
	for i, j := range joints {
		if j.ParentID == "" {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(i))
			continue
		}
		parent := doc.Nodes[index[j.ParentID]]
		parent.Children = append(parent.Children, uint32(i))
	}
	doc.Skins = append(doc.Skins, skin)
	return doc, nil
}

// ImportGLTF reads the first skin of a .gltf or .glb file.
//
// Parameters:
//   - path: the glTF file
//
// Returns:
//   - []Joint: the joints
//   - error: error if the file cannot be read or holds no usable skin
func ImportGLTF(path string) ([]Joint, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "import gltf %s", path)
	}
	joints, err := FromGLTF(doc, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "import gltf %s", path)
	}
	return joints, nil
}

// ExportGLTF writes joints as a glTF skin in a JSON .gltf file.
//
// Parameters:
//   - path: the destination file
//   - joints: the joint collection
//
// Returns:
//   - error: error if the collection is invalid or writing fails
func ExportGLTF(path string, joints []Joint) error {
	doc, err := ToGLTF(joints)
	if err != nil {
		return err
	}
	return errors.Wrapf(gltf.Save(doc, path), "export gltf %s", path)
}
