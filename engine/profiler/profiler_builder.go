package profiler

import (
	"log/slog"
	"time"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithLogger sets the logger stats are written to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithInterval sets how often stats are logged.
//
// Parameters:
//   - interval: the logging interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = interval
	}
}
