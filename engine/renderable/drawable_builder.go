package renderable

import "github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"

// DrawableBuilderOption is a functional option applied to a drawable during construction via NewDrawable.
type DrawableBuilderOption func(*drawable)

// WithMesh sets the geometry provider.
//
// Parameters:
//   - mesh: a provider holding vertex and index buffers
//
// Returns:
//   - DrawableBuilderOption: a function that sets the mesh provider
func WithMesh(mesh bind_group_provider.BindGroupProvider) DrawableBuilderOption {
	return func(d *drawable) {
		d.mesh = mesh
	}
}

// WithObject sets the per-object uniform provider bound at slot 1.
//
// Parameters:
//   - object: a provider holding the object bind group and its uniform buffer at binding 0
//
// Returns:
//   - DrawableBuilderOption: a function that sets the object provider
func WithObject(object bind_group_provider.BindGroupProvider) DrawableBuilderOption {
	return func(d *drawable) {
		d.object = object
	}
}

// WithTexture sets the texture provider bound at slot 2.
//
// Parameters:
//   - texture: a provider holding the texture bind group
//
// Returns:
//   - DrawableBuilderOption: a function that sets the texture provider
func WithTexture(texture bind_group_provider.BindGroupProvider) DrawableBuilderOption {
	return func(d *drawable) {
		d.texture = texture
	}
}

// WithTransform sets the initial local transform.
//
// Parameters:
//   - t: the transform
//
// Returns:
//   - DrawableBuilderOption: a function that sets the transform
func WithTransform(t Transform) DrawableBuilderOption {
	return func(d *drawable) {
		d.transform = t
	}
}
