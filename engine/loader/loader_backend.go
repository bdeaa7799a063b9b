package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderable"
)

// ImportedModel is the CPU-side result of parsing a model file. It is cached and uploaded once
// per Load, so each Load yields an independent set of GPU resources.
type ImportedModel struct {
	Name   string
	Meshes []ImportedMesh
}

// ImportedMesh is one triangle primitive with node transforms baked into its positions.
type ImportedMesh struct {
	Name     string
	Geometry renderable.Geometry

	// Texture is the base color image, or nil when the material has none.
	Texture *common.TextureStagingData
}

// loaderBackend parses one model file format.
type loaderBackend interface {
	// Load parses the model at path. Relative resources resolve against the file's directory.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *ImportedModel: the imported model data
	//   - error: error if parsing fails
	Load(path string) (*ImportedModel, error)

	// LoadReader parses a self-contained model stream.
	//
	// Parameters:
	//   - r: the reader providing model data
	//
	// Returns:
	//   - *ImportedModel: the imported model data
	//   - error: error if parsing fails
	LoadReader(r io.Reader) (*ImportedModel, error)
}
