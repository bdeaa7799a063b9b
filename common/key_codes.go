package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW         = 87  // W key (ASCII)
	KeyA         = 65  // A key (ASCII)
	KeyS         = 83  // S key (ASCII)
	KeyD         = 68  // D key (ASCII)
	KeyQ         = 81  // Q key (ASCII)
	KeyE         = 69  // E key (ASCII)
	KeyY         = 89  // Y key (ASCII)
	KeyZ         = 90  // Z key (ASCII)
	KeySpace     = 32  // Spacebar (ASCII)
	KeyBackspace = 259 // Backspace key (GLFW)
	KeyEsc       = 256 // Escape key (GLFW)

	KeyRight = 262 // Right arrow (GLFW)
	KeyLeft  = 263 // Left arrow (GLFW)
	KeyDown  = 264 // Down arrow (GLFW)
	KeyUp    = 265 // Up arrow (GLFW)
)

// Additional non-printable keys
const (
	KeyLeftShift    = 340 // Left Shift (GLFW)
	KeyLeftControl  = 341 // Left Control (GLFW)
	KeyRightShift   = 344 // Right Shift (GLFW)
	KeyRightControl = 345 // Right Control (GLFW)
)

// ModifierKey is a bit set of modifier keys held during a key event.
// The bits match glfw.ModifierKey.
type ModifierKey uint32

const (
	ModShift   ModifierKey = 0x0001
	ModControl ModifierKey = 0x0002
	ModAlt     ModifierKey = 0x0004
	ModSuper   ModifierKey = 0x0008
)

// Has reports whether every bit of m2 is set on m.
func (m ModifierKey) Has(m2 ModifierKey) bool {
	return m&m2 == m2
}
