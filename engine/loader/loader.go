package loader

import (
	"image/color"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderable"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/pkg/errors"
)

// ErrUnsupportedFormat is returned for file extensions no backend reads.
var ErrUnsupportedFormat = errors.New("loader: unsupported model format")

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// Uploader creates GPU resources for imported meshes. renderer.Renderer satisfies it.
type Uploader interface {
	NewDrawable(kind renderable.Kind, label string, geometry renderable.Geometry, t renderable.Transform) (renderable.Drawable, error)
	NewTextureProvider(label string, texture common.TextureStagingData) (bind_group_provider.BindGroupProvider, error)
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	uploader Uploader
	logger   *slog.Logger

	modelCache map[string]*ImportedModel

	backend loaderBackend
}

// Loader imports model files into renderable models. Parsed files are cached by path; every
// Load uploads a fresh copy so the same file can be placed more than once.
type Loader interface {
	// Load imports a model file and uploads it as a renderable.Model of KindMesh drawables.
	// Meshes without a base color texture get a white one, since meshes always bind slot 2.
	//
	// Parameters:
	//   - path: the file path to the model file
	//   - t: the model transform
	//
	// Returns:
	//   - renderable.Model: the uploaded model
	//   - error: ErrUnsupportedFormat, a parse error or an upload error
	Load(path string, t renderable.Transform) (renderable.Model, error)

	// LoadReader imports a self-contained model stream and caches it by name.
	//
	// Parameters:
	//   - name: the cache key and model label
	//   - r: the reader providing model data
	//   - t: the model transform
	//
	// Returns:
	//   - renderable.Model: the uploaded model
	//   - error: a parse error or an upload error
	LoadReader(name string, r io.Reader, t renderable.Transform) (renderable.Model, error)

	// Import parses a model file without uploading it.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *ImportedModel: the cached parse result
	//   - error: ErrUnsupportedFormat or a parse error
	Import(path string) (*ImportedModel, error)

	// Get retrieves a cached import by name.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *ImportedModel: the cached import or nil
	Get(name string) *ImportedModel

	// Evict drops a cached import so the next Load reads the file again.
	//
	// Parameters:
	//   - name: the cache key
	Evict(name string)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: functional options to configure the Loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		modelCache: make(map[string]*ImportedModel),
		logger:     slog.Default(),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Import(path string) (*ImportedModel, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}
	imported, err := backend.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}

	l.mu.Lock()
	l.modelCache[path] = imported
	l.mu.Unlock()
	l.logger.Debug("model imported", "path", path, "meshes", len(imported.Meshes))
	return imported, nil
}

func (l *loader) Load(path string, t renderable.Transform) (renderable.Model, error) {
	imported, err := l.Import(path)
	if err != nil {
		return nil, err
	}
	return l.upload(common.Coalesce(imported.Name, filepath.Base(path)), imported, t)
}

func (l *loader) LoadReader(name string, r io.Reader, t renderable.Transform) (renderable.Model, error) {
	imported := l.Get(name)
	if imported == nil {
		var err error
		if imported, err = l.backend.LoadReader(r); err != nil {
			return nil, errors.Wrapf(err, "load from reader %q", name)
		}
		l.mu.Lock()
		l.modelCache[name] = imported
		l.mu.Unlock()
	}
	return l.upload(name, imported, t)
}

func (l *loader) Get(name string) *ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Evict(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.modelCache, name)
}

// upload creates one KindMesh drawable per imported mesh. Meshes sharing an image share one texture
// provider, which the caller owns like any texture. On failure every resource created so far is released.
func (l *loader) upload(label string, imported *ImportedModel, t renderable.Transform) (renderable.Model, error) {
	if l.uploader == nil {
		return nil, errors.New("loader: no uploader configured")
	}

	m := renderable.NewModel(label, t)
	textures := make(map[*common.TextureStagingData]bind_group_provider.BindGroupProvider)
	fail := func(err error) (renderable.Model, error) {
		m.Release()
		for _, tex := range textures {
			tex.Release()
		}
		return nil, err
	}

	for _, im := range imported.Meshes {
		meshLabel := label + "/" + im.Name
		d, err := l.uploader.NewDrawable(renderable.KindMesh, meshLabel, im.Geometry, renderable.IdentityTransform())
		if err != nil {
			return fail(errors.Wrapf(err, "upload %s", meshLabel))
		}
		m.AddMesh(d)

		tex, ok := textures[im.Texture]
		if !ok {
			data := white
			if im.Texture != nil {
				data = *im.Texture
			}
			if tex, err = l.uploader.NewTextureProvider(meshLabel, data); err != nil {
				return fail(errors.Wrapf(err, "upload texture for %s", meshLabel))
			}
			textures[im.Texture] = tex
		}
		d.SetTexture(tex)
	}
	return m, nil
}

var white = common.SolidTexture(color.RGBA{R: 255, G: 255, B: 255, A: 255})

// resolveBackend selects a loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, errors.Wrap(ErrUnsupportedFormat, path)
	}
}
