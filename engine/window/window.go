package window

import (
	"runtime"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// Window provides platform windowing and input event handling.
// Wraps platform-specific window implementations with a common interface.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the window is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up/zoom in, negative = down/zoom out)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code and the modifiers held
	SetKeyDownCallback(callback func(keyCode uint32, mods common.ModifierKey))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code and the modifiers held
	SetKeyUpCallback(callback func(keyCode uint32, mods common.ModifierKey))

	// SetCloseOnEscape controls whether Escape closes the window. Enabled by default.
	//
	// Parameters:
	//   - enabled: true to close on Escape
	SetCloseOnEscape(enabled bool)

	// SetMiddleMouseDownCallback sets the callback for middle mouse button press.
	//
	// Parameters:
	//   - callback: function receiving mouse x, y position
	SetMiddleMouseDownCallback(callback func(x, y int32))

	// SetMiddleMouseUpCallback sets the callback for middle mouse button release.
	//
	// Parameters:
	//   - callback: function receiving mouse x, y position
	SetMiddleMouseUpCallback(callback func(x, y int32))

	// SetMouseMoveCallback sets the callback for mouse movement.
	//
	// Parameters:
	//   - callback: function receiving mouse x, y position
	SetMouseMoveCallback(callback func(x, y int32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls OnUpdate callback each iteration.
	ProcessMessages()

	// Width returns the current window client area width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current window client area height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	title string

	maxWidth, maxHeight int
	minWidth, minHeight int

	// width and height are the framebuffer size in pixels, which may differ from the
	// requested window size on high-DPI displays.
	width  int
	height int

	closeOnEscape bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate          func()
	onResize          func(width, height int)
	onScroll          func(delta float32)
	onKeyDown         func(keyCode uint32, mods common.ModifierKey)
	onKeyUp           func(keyCode uint32, mods common.ModifierKey)
	onMiddleMouseDown func(x, y int32)
	onMiddleMouseUp   func(x, y int32)
	onMouseMove       func(x, y int32)
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window (not yet spawned)
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:         "oxy-editor",
		maxWidth:      7680,
		maxHeight:     4320,
		minWidth:      640,
		minHeight:     360,
		width:         1280,
		height:        720,
		closeOnEscape: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(errors.Wrap(err, "window: create platform window"))
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32, mods common.ModifierKey)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32, mods common.ModifierKey)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetCloseOnEscape(enabled bool) {
	w.closeOnEscape = enabled
}

func (w *engineWindow) SetMiddleMouseDownCallback(callback func(x, y int32)) {
	w.onMiddleMouseDown = callback
}

func (w *engineWindow) SetMiddleMouseUpCallback(callback func(x, y int32)) {
	w.onMiddleMouseUp = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y int32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
