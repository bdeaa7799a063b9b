package scene

import "github.com/Carmen-Shannon/oxy-editor/engine/camera"

// SceneBuilderOption is a functional option for configuring a Scene.
type SceneBuilderOption func(*scene)

// WithCamera sets the scene's camera.
//
// Parameters:
//   - cam: the camera whose view-projection is written each frame
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cam = cam
	}
}

// WithWorkers sets the number of staging pool workers. Values < 1 are ignored.
//
// Parameters:
//   - n: the number of workers
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n > 0 {
			s.stagingWorkers = n
		}
	}
}

// WithStagingThreshold sets the drawable count above which model matrices are staged in parallel.
//
// Parameters:
//   - n: the threshold; negative values stage every frame in parallel
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithStagingThreshold(n int) SceneBuilderOption {
	return func(s *scene) {
		s.stagingThreshold = n
	}
}
