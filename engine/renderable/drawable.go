package renderable

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// Parent supplies a world matrix that prefixes a Drawable's own transform.
type Parent interface {
	Matrix() mgl32.Mat4
}

type drawable struct {
	mu *sync.Mutex

	kind  Kind
	label string

	transform Transform
	parent    Parent

	mesh    bind_group_provider.BindGroupProvider
	object  bind_group_provider.BindGroupProvider
	texture bind_group_provider.BindGroupProvider

	// uniform holds the staged model matrix written to the object buffer each frame.
	uniform [common.Mat4Size]byte
}

// Drawable is one object in the scene: a render category, a transform and the GPU handles
// needed to draw it. All drawables share the same capability set; the Kind decides how the
// frame pass treats the texture slot.
type Drawable interface {
	// Kind returns the render category of the drawable.
	//
	// Returns:
	//   - Kind: the render category
	Kind() Kind

	// Label returns the debug label of the drawable.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Mesh returns the provider holding the vertex buffer, index buffer and index count.
	// Returns nil if geometry has not been uploaded.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider or nil
	Mesh() bind_group_provider.BindGroupProvider

	// Object returns the provider holding the per-object uniform bind group (slot 1) and its buffer.
	// Returns nil if not created.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the object provider or nil
	Object() bind_group_provider.BindGroupProvider

	// Texture returns the provider holding the texture bind group (slot 2), or nil if no texture is attached.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the texture provider or nil
	Texture() bind_group_provider.BindGroupProvider

	// SetTexture attaches a texture provider. Pass nil to detach.
	//
	// Parameters:
	//   - texture: the texture provider
	SetTexture(texture bind_group_provider.BindGroupProvider)

	// Transform returns the local transform.
	//
	// Returns:
	//   - Transform: the local transform
	Transform() Transform

	// SetTransform replaces the local transform.
	//
	// Parameters:
	//   - t: the new transform
	SetTransform(t Transform)

	// SetParent attaches a parent whose matrix prefixes the local transform.
	//
	// Parameters:
	//   - p: the parent, or nil for world space
	SetParent(p Parent)

	// ModelMatrix returns parent * local.
	//
	// Returns:
	//   - mgl32.Mat4: the world matrix
	ModelMatrix() mgl32.Mat4

	// Stage recomputes the model matrix into the uniform staging area.
	// Safe to call from worker goroutines; each drawable stages independently.
	Stage()

	// UniformBytes returns the staged 64 byte model matrix.
	//
	// Returns:
	//   - []byte: the staged uniform bytes
	UniformBytes() []byte

	// Release releases the mesh, object and texture providers.
	Release()
}

var _ Drawable = &drawable{}

// NewDrawable creates a Drawable of the given kind.
//
// Parameters:
//   - kind: the render category
//   - label: a debug label
//   - options: functional options setting providers and transform
//
// Returns:
//   - Drawable: the new drawable with an identity transform unless overridden
func NewDrawable(kind Kind, label string, options ...DrawableBuilderOption) Drawable {
	d := &drawable{
		mu:        &sync.Mutex{},
		kind:      kind,
		label:     label,
		transform: IdentityTransform(),
	}
	for _, opt := range options {
		opt(d)
	}
	common.PutMat4(d.uniform[:], d.transform.Matrix())
	return d
}

func (d *drawable) Kind() Kind {
	return d.kind
}

func (d *drawable) Label() string {
	return d.label
}

func (d *drawable) Mesh() bind_group_provider.BindGroupProvider {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mesh
}

func (d *drawable) Object() bind_group_provider.BindGroupProvider {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.object
}

func (d *drawable) Texture() bind_group_provider.BindGroupProvider {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.texture
}

func (d *drawable) SetTexture(texture bind_group_provider.BindGroupProvider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texture = texture
}

func (d *drawable) Transform() Transform {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transform
}

func (d *drawable) SetTransform(t Transform) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transform = t
}

func (d *drawable) SetParent(p Parent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.parent = p
}

func (d *drawable) ModelMatrix() mgl32.Mat4 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modelMatrix()
}

func (d *drawable) Stage() {
	d.mu.Lock()
	defer d.mu.Unlock()
	common.PutMat4(d.uniform[:], d.modelMatrix())
}

func (d *drawable) UniformBytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uniform[:]
}

func (d *drawable) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mesh != nil {
		d.mesh.Release()
		d.mesh = nil
	}
	if d.object != nil {
		d.object.Release()
		d.object = nil
	}
	// textures may be shared between drawables, the owner releases them
	d.texture = nil
}

func (d *drawable) modelMatrix() mgl32.Mat4 {
	local := d.transform.Matrix()
	if d.parent == nil {
		return local
	}
	return d.parent.Matrix().Mul4(local)
}
