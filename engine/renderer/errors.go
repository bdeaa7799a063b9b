package renderer

import "github.com/pkg/errors"

var (
	// ErrResourceNotReady is returned while the asynchronous GPU bootstrap has not delivered a device yet.
	// The frame is skipped.
	ErrResourceNotReady = errors.New("renderer: GPU resources not ready")

	// ErrMissingResource marks a resource that must exist at draw time. The orchestrator panics
	// with an error wrapping it.
	ErrMissingResource = errors.New("renderer: missing GPU resource")
)
