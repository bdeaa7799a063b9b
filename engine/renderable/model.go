package renderable

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type model struct {
	mu *sync.Mutex

	label     string
	transform Transform
	meshes    []Drawable
}

// Model groups an ordered list of mesh drawables under a shared transform.
// A mesh's world matrix is the model matrix times the mesh's own matrix.
type Model interface {
	Parent

	// Label returns the debug label of the model.
	Label() string

	// Transform returns the model transform.
	//
	// Returns:
	//   - Transform: the model transform
	Transform() Transform

	// SetTransform replaces the model transform. Meshes pick it up on their next Stage.
	//
	// Parameters:
	//   - t: the new transform
	SetTransform(t Transform)

	// AddMesh appends a mesh drawable and parents it to the model.
	// Drawables of any other kind are ignored and false is returned.
	//
	// Parameters:
	//   - mesh: a KindMesh drawable
	//
	// Returns:
	//   - bool: true if the mesh was added
	AddMesh(mesh Drawable) bool

	// Meshes returns the meshes in insertion order.
	//
	// Returns:
	//   - []Drawable: a copy of the mesh list
	Meshes() []Drawable

	// Release releases every mesh.
	Release()
}

var _ Model = &model{}

// NewModel creates an empty Model.
//
// Parameters:
//   - label: debug label
//   - t: the model transform
//
// Returns:
//   - Model: the new model
func NewModel(label string, t Transform) Model {
	return &model{
		mu:        &sync.Mutex{},
		label:     label,
		transform: t,
	}
}

func (m *model) Label() string {
	return m.label
}

func (m *model) Transform() Transform {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transform
}

func (m *model) SetTransform(t Transform) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transform = t
}

func (m *model) Matrix() mgl32.Mat4 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transform.Matrix()
}

func (m *model) AddMesh(mesh Drawable) bool {
	if mesh == nil || mesh.Kind() != KindMesh {
		return false
	}
	mesh.SetParent(m)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.meshes = append(m.meshes, mesh)
	return true
}

func (m *model) Meshes() []Drawable {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Drawable, len(m.meshes))
	copy(out, m.meshes)
	return out
}

func (m *model) Release() {
	m.mu.Lock()
	meshes := m.meshes
	m.meshes = nil
	m.mu.Unlock()

	for _, mesh := range meshes {
		mesh.Release()
	}
}
