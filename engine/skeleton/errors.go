package skeleton

import "github.com/pkg/errors"

var (
	// ErrCycleDetected is returned when a reparent would make a joint its own ancestor.
	ErrCycleDetected = errors.New("skeleton: reparent would create a cycle")

	// ErrNotFound is returned when a joint id is not in the collection.
	ErrNotFound = errors.New("skeleton: joint not found")

	// ErrInvalidHierarchy is returned for collections with duplicate or empty ids,
	// dangling parent references or cycles.
	ErrInvalidHierarchy = errors.New("skeleton: invalid hierarchy")
)
