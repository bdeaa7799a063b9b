package scene

import (
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-editor/engine/camera"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderable"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a label does not name a drawable in the scene.
	ErrNotFound = errors.New("scene: drawable not found")

	// ErrInvalidDrawable is returned for nil drawables and for meshes added outside a model.
	ErrInvalidDrawable = errors.New("scene: invalid drawable")
)

// Scene is the single authoritative editor scene: a camera plus the drawables of each render
// category. One lock guards all of it. The render goroutine holds the lock for the duration of
// one frame's command construction through Frame; input handlers mutate the camera through WithLock.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Add appends a grid, cube or landscape drawable. Meshes must be added through a Model.
	//
	// Parameters:
	//   - d: the drawable to add
	//
	// Returns:
	//   - error: ErrInvalidDrawable if d is nil or a mesh
	Add(d renderable.Drawable) error

	// AddModel appends a model. Its meshes are drawn in the mesh category, in model then mesh order.
	//
	// Parameters:
	//   - m: the model to add
	AddModel(m renderable.Model)

	// Remove removes the first drawable or model mesh carrying the label and releases it.
	//
	// Parameters:
	//   - label: the drawable label
	//
	// Returns:
	//   - error: ErrNotFound if no drawable carries the label
	Remove(label string) error

	// Find returns the first drawable carrying the label, searching categories in draw order.
	//
	// Parameters:
	//   - label: the drawable label
	//
	// Returns:
	//   - renderable.Drawable: the drawable or nil
	Find(label string) renderable.Drawable

	// AttachTexture attaches a texture provider to the labelled drawable.
	//
	// Parameters:
	//   - label: the drawable label
	//   - texture: the texture provider, or nil to detach
	//
	// Returns:
	//   - error: ErrNotFound if no drawable carries the label
	AttachTexture(label string, texture bind_group_provider.BindGroupProvider) error

	// Drawables returns the drawables of one category in insertion order.
	//
	// Parameters:
	//   - kind: the render category
	//
	// Returns:
	//   - []renderable.Drawable: a copy of the category's drawables
	Drawables(kind renderable.Kind) []renderable.Drawable

	// Count returns the total number of drawables, counting each model mesh.
	Count() int

	// Frame locks the scene, stages every drawable's model matrix and hands a locked view of the
	// scene to fn. The view must not escape fn.
	//
	// Parameters:
	//   - fn: receives the frame view, typically Renderer.RenderFrame
	//
	// Returns:
	//   - error: the error returned by fn
	Frame(fn func(renderer.FrameScene) error) error

	// WithLock runs fn while holding the scene lock.
	//
	// Parameters:
	//   - fn: the mutation to run
	WithLock(fn func())

	// Release releases every drawable and model and empties the scene.
	Release()
}

type scene struct {
	mu *sync.RWMutex

	name string
	cam  camera.Camera

	grids      []renderable.Drawable
	cubes      []renderable.Drawable
	models     []renderable.Model
	landscapes []renderable.Drawable

	// stagingPool computes model matrices in parallel once the scene holds more than
	// stagingThreshold drawables. Workers persist across frames.
	stagingPool      worker.DynamicWorkerPool
	stagingWorkers   int
	stagingThreshold int
}

var _ Scene = &scene{}

// NewScene creates an empty Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:               &sync.RWMutex{},
		name:             name,
		stagingWorkers:   max(runtime.NumCPU()-1, 1),
		stagingThreshold: 64,
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the pool after options so WithWorkers can override the default.
	s.stagingPool = worker.NewDynamicWorkerPool(s.stagingWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Add(d renderable.Drawable) error {
	if d == nil {
		return errors.Wrap(ErrInvalidDrawable, "nil drawable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch d.Kind() {
	case renderable.KindGrid:
		s.grids = append(s.grids, d)
	case renderable.KindCube:
		s.cubes = append(s.cubes, d)
	case renderable.KindLandscape:
		s.landscapes = append(s.landscapes, d)
	default:
		return errors.Wrapf(ErrInvalidDrawable, "%s %q must be added through a model", d.Kind(), d.Label())
	}
	return nil
}

func (s *scene) AddModel(m renderable.Model) {
	if m == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = append(s.models, m)
}

func (s *scene) Remove(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, list := range []*[]renderable.Drawable{&s.grids, &s.cubes, &s.landscapes} {
		if i := indexOfLabel(*list, label); i >= 0 {
			d := (*list)[i]
			*list = slices.Delete(*list, i, i+1)
			d.Release()
			return nil
		}
	}
	for i, m := range s.models {
		if m.Label() == label {
			s.models = slices.Delete(s.models, i, i+1)
			m.Release()
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "remove %q", label)
}

func (s *scene) Find(label string) renderable.Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(label)
}

// find searches every category in draw order. Caller must hold s.mu.
func (s *scene) find(label string) renderable.Drawable {
	for _, kind := range renderable.DrawOrder {
		list := s.drawables(kind)
		if i := indexOfLabel(list, label); i >= 0 {
			return list[i]
		}
	}
	return nil
}

func (s *scene) AttachTexture(label string, texture bind_group_provider.BindGroupProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.find(label)
	if d == nil {
		return errors.Wrapf(ErrNotFound, "attach texture to %q", label)
	}
	d.SetTexture(texture)
	return nil
}

func (s *scene) Drawables(kind renderable.Kind) []renderable.Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.drawables(kind))
}

// drawables returns the live category slice; mesh lists are flattened from the models.
// Caller must hold s.mu.
func (s *scene) drawables(kind renderable.Kind) []renderable.Drawable {
	switch kind {
	case renderable.KindGrid:
		return s.grids
	case renderable.KindCube:
		return s.cubes
	case renderable.KindMesh:
		var meshes []renderable.Drawable
		for _, m := range s.models {
			meshes = append(meshes, m.Meshes()...)
		}
		return meshes
	case renderable.KindLandscape:
		return s.landscapes
	default:
		return nil
	}
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, kind := range renderable.DrawOrder {
		n += len(s.drawables(kind))
	}
	return n
}

func (s *scene) Frame(fn func(renderer.FrameScene) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := &frameView{s: s, lists: make(map[renderable.Kind][]renderable.Drawable, len(renderable.DrawOrder))}
	var all []renderable.Drawable
	for _, kind := range renderable.DrawOrder {
		list := s.drawables(kind)
		view.lists[kind] = list
		all = append(all, list...)
	}
	s.stage(all)
	return fn(view)
}

// stage recomputes the model matrix of every drawable. Above the threshold the work is
// split into chunks on the staging pool; a WaitGroup is the per-frame barrier since
// pool.Wait() blocks until workers idle-exit.
func (s *scene) stage(all []renderable.Drawable) {
	if len(all) <= s.stagingThreshold {
		for _, d := range all {
			d.Stage()
		}
		return
	}

	chunk := (len(all) + s.stagingWorkers - 1) / s.stagingWorkers
	var wg sync.WaitGroup
	for id, start := 0, 0; start < len(all); id, start = id+1, start+chunk {
		part := all[start:min(start+chunk, len(all))]
		wg.Add(1)
		s.stagingPool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for _, d := range part {
					d.Stage()
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (s *scene) WithLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range [][]renderable.Drawable{s.grids, s.cubes, s.landscapes} {
		for _, d := range list {
			d.Release()
		}
	}
	for _, m := range s.models {
		m.Release()
	}
	s.grids, s.cubes, s.models, s.landscapes = nil, nil, nil, nil
}

// frameView is the scene as seen by one frame. It reads the lists captured while the
// scene lock is held, so it never takes the lock itself.
type frameView struct {
	s     *scene
	lists map[renderable.Kind][]renderable.Drawable
}

var _ renderer.FrameScene = &frameView{}

func (v *frameView) ViewProjection() mgl32.Mat4 {
	if v.s.cam == nil {
		return mgl32.Ident4()
	}
	return v.s.cam.ViewProjection()
}

func (v *frameView) Drawables(kind renderable.Kind) []renderable.Drawable {
	return v.lists[kind]
}

func indexOfLabel(list []renderable.Drawable, label string) int {
	return slices.IndexFunc(list, func(d renderable.Drawable) bool { return d.Label() == label })
}
