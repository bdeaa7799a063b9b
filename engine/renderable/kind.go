package renderable

// Kind identifies the render category of a Drawable. The frame pass draws categories in DrawOrder.
type Kind int

const (
	// KindGrid is the editor ground grid.
	KindGrid Kind = iota

	// KindCube is a primitive cube. Cubes never bind a texture group.
	KindCube

	// KindMesh is one mesh of an imported or generated model.
	KindMesh

	// KindLandscape is a terrain surface. Landscapes without a texture are not drawn.
	KindLandscape
)

// DrawOrder is the fixed per-frame category order.
var DrawOrder = [...]Kind{KindGrid, KindCube, KindMesh, KindLandscape}

// TexturePolicy describes how a category treats bind group slot 2.
type TexturePolicy int

const (
	// TextureRequired binds slot 2 and treats a missing texture group as a fatal resource error.
	TextureRequired TexturePolicy = iota

	// TextureNever leaves slot 2 untouched.
	TextureNever

	// TextureOptional binds slot 2 when present and skips the object otherwise.
	TextureOptional
)

// TexturePolicy returns the slot 2 policy for the kind.
func (k Kind) TexturePolicy() TexturePolicy {
	switch k {
	case KindCube:
		return TextureNever
	case KindLandscape:
		return TextureOptional
	default:
		return TextureRequired
	}
}

func (k Kind) String() string {
	switch k {
	case KindGrid:
		return "grid"
	case KindCube:
		return "cube"
	case KindMesh:
		return "mesh"
	case KindLandscape:
		return "landscape"
	default:
		return "unknown"
	}
}
