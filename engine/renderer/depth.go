package renderer

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// DepthAllocator creates a depth texture view of the given size and sample count.
// The returned func releases the view and its texture.
type DepthAllocator func(width, height int, sampleCount uint32) (*wgpu.TextureView, func(), error)

type depthBuffer struct {
	mu *sync.Mutex

	alloc       DepthAllocator
	sampleCount uint32

	view    *wgpu.TextureView
	release func()
	width   int
	height  int
}

// DepthBuffer owns the depth attachment used by the frame pass. It is recreated whenever the
// surface size changes so a frame never draws against a depth view of a stale size.
type DepthBuffer interface {
	// View returns the current depth view, or nil before the first Resize.
	//
	// Returns:
	//   - *wgpu.TextureView: the depth view or nil
	View() *wgpu.TextureView

	// Size returns the dimensions of the current depth view.
	//
	// Returns:
	//   - width, height: the size in pixels, zero before the first Resize
	Size() (width, height int)

	// SampleCount returns the sample count depth views are created with.
	SampleCount() uint32

	// Resize recreates the depth view when the size differs from the current one.
	// Zero or negative sizes (a minimized window) are ignored. On allocation failure the
	// previous view is kept and the error is returned.
	//
	// Parameters:
	//   - width, height: the new surface size in pixels
	//
	// Returns:
	//   - error: error if the allocator fails
	Resize(width, height int) error

	// Release releases the current depth view.
	Release()
}

var _ DepthBuffer = &depthBuffer{}

// NewDepthBuffer creates an empty DepthBuffer. Call Resize to allocate the first view.
//
// Parameters:
//   - alloc: creates depth views
//   - sampleCount: must match the color attachment sample count
//
// Returns:
//   - DepthBuffer: the depth buffer manager
func NewDepthBuffer(alloc DepthAllocator, sampleCount uint32) DepthBuffer {
	return &depthBuffer{
		mu:          &sync.Mutex{},
		alloc:       alloc,
		sampleCount: max(sampleCount, 1),
	}
}

func (d *depthBuffer) View() *wgpu.TextureView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view
}

func (d *depthBuffer) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

func (d *depthBuffer) SampleCount() uint32 {
	return d.sampleCount
}

func (d *depthBuffer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.view != nil && d.width == width && d.height == height {
		return nil
	}

	view, release, err := d.alloc(width, height, d.sampleCount)
	if err != nil {
		return errors.Wrapf(err, "create depth buffer %dx%d", width, height)
	}
	if view == nil {
		return errors.Errorf("create depth buffer %dx%d: allocator returned no view", width, height)
	}

	if d.release != nil {
		d.release()
	}
	d.view = view
	d.release = release
	d.width = width
	d.height = height
	return nil
}

func (d *depthBuffer) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.release != nil {
		d.release()
	}
	d.view = nil
	d.release = nil
	d.width, d.height = 0, 0
}
