package skeleton

import (
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FormatVersion is written to every saved skeleton file.
const FormatVersion = 1

type fileDocument struct {
	Version int         `yaml:"version"`
	Joints  []jointNode `yaml:"joints"`
}

type jointNode struct {
	ID       string    `yaml:"id"`
	Name     string    `yaml:"name,omitempty"`
	Parent   string    `yaml:"parent,omitempty"`
	Position []float32 `yaml:"position,flow"`
	Rotation []float32 `yaml:"rotation,flow,omitempty"`
	Scale    []float32 `yaml:"scale,flow,omitempty"`
}

// Marshal encodes joints as a YAML document in row order.
//
// Parameters:
//   - joints: the joint collection
//
// Returns:
//   - []byte: the YAML document
//   - error: error if encoding fails
func Marshal(joints []Joint) ([]byte, error) {
	doc := fileDocument{Version: FormatVersion, Joints: make([]jointNode, len(joints))}
	for i, j := range joints {
		doc.Joints[i] = jointNode{
			ID:       j.ID,
			Name:     j.Name,
			Parent:   j.ParentID,
			Position: j.Position[:],
			Rotation: j.Rotation[:],
			Scale:    j.Scale[:],
		}
	}
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshal skeleton")
	}
	return out, nil
}

// Unmarshal decodes a YAML skeleton document and validates the hierarchy.
// A missing rotation defaults to identity and a missing scale to one.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - []Joint: the joints in row order
//   - error: error if the document is malformed or fails Validate
func Unmarshal(data []byte) ([]Joint, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unmarshal skeleton")
	}
	if doc.Version > FormatVersion {
		return nil, errors.Errorf("unmarshal skeleton: unsupported version %d", doc.Version)
	}

	joints := make([]Joint, len(doc.Joints))
	for i, n := range doc.Joints {
		j := NewJoint(n.ID, n.Name, n.Parent, mgl32.Vec3{})
		if err := copyVector(j.Position[:], n.Position, "position"); err != nil {
			return nil, errors.Wrapf(err, "joint %q", n.ID)
		}
		if len(n.Rotation) > 0 {
			if err := copyVector(j.Rotation[:], n.Rotation, "rotation"); err != nil {
				return nil, errors.Wrapf(err, "joint %q", n.ID)
			}
		}
		if len(n.Scale) > 0 {
			if err := copyVector(j.Scale[:], n.Scale, "scale"); err != nil {
				return nil, errors.Wrapf(err, "joint %q", n.ID)
			}
		}
		joints[i] = j
	}

	if err := Validate(joints); err != nil {
		return nil, err
	}
	return joints, nil
}

func copyVector(dst, src []float32, field string) error {
	if len(src) == 0 {
		return nil
	}
	if len(src) != len(dst) {
		return errors.Wrapf(ErrInvalidHierarchy, "%s has %d components, want %d", field, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// SaveFile writes joints to path. The file is written next to the target and renamed into place
// so a crash never leaves a truncated skeleton behind.
//
// Parameters:
//   - path: destination file
//   - joints: the joint collection
//
// Returns:
//   - error: error if encoding or writing fails
func SaveFile(path string, joints []Joint) error {
	data, err := Marshal(joints)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "save skeleton %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "save skeleton %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "save skeleton %s", path)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "save skeleton %s", path)
}

// LoadFile reads a skeleton saved by SaveFile.
//
// Parameters:
//   - path: the skeleton file
//
// Returns:
//   - []Joint: the joints
//   - error: error if reading, decoding or validation fails
func LoadFile(path string) ([]Joint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load skeleton %s", path)
	}
	joints, err := Unmarshal(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load skeleton %s", path)
	}
	return joints, nil
}
