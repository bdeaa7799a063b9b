package input

import "log/slog"

// DispatcherBuilderOption is a functional option for configuring a Dispatcher.
type DispatcherBuilderOption func(*dispatcher)

// WithLogger sets the logger used for rejected drops and failed undo or redo.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - DispatcherBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) DispatcherBuilderOption {
	return func(d *dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithKeyMap replaces the default key bindings.
//
// Parameters:
//   - keyMap: chord to action bindings
//
// Returns:
//   - DispatcherBuilderOption: option function to apply
func WithKeyMap(keyMap map[Chord]Action) DispatcherBuilderOption {
	return func(d *dispatcher) {
		d.keyMap = keyMap
	}
}
