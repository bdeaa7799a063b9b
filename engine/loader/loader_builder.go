package loader

import "log/slog"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithUploader sets the GPU uploader, usually the renderer.
//
// Parameters:
//   - u: the uploader
//
// Returns:
//   - LoaderBuilderOption: a function that applies the uploader option to a loader
func WithUploader(u Uploader) LoaderBuilderOption {
	return func(l *loader) {
		l.uploader = u
	}
}

// WithModel pre-populates the cache with an import.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the import to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model *ImportedModel) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}

// WithLogger sets the loader logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
