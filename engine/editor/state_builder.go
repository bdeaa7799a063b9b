package editor

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-editor/engine/history"
	"github.com/Carmen-Shannon/oxy-editor/engine/skeleton"
)

// StateBuilderOption is a functional option for configuring a State.
type StateBuilderOption func(*state)

// WithSkeleton uses an existing joint editor instead of an empty one.
//
// Parameters:
//   - e: the joint editor
//
// Returns:
//   - StateBuilderOption: option function to apply
func WithSkeleton(e skeleton.Editor) StateBuilderOption {
	return func(s *state) {
		s.skeleton = e
	}
}

// WithHistory uses an existing history, for example one with a custom depth.
//
// Parameters:
//   - h: the history
//
// Returns:
//   - StateBuilderOption: option function to apply
func WithHistory(h history.History) StateBuilderOption {
	return func(s *state) {
		s.history = h
	}
}

// WithLogger sets the logger used for load, import and autosave messages.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - StateBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) StateBuilderOption {
	return func(s *state) {
		if logger != nil {
			s.logger = logger
		}
	}
}
