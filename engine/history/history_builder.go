package history

// HistoryBuilderOption is a functional option for configuring a History.
type HistoryBuilderOption func(*history)

// WithMaxDepth caps the number of kept records; the oldest are dropped first.
//
// Parameters:
//   - depth: the maximum record count, 0 for unbounded
//
// Returns:
//   - HistoryBuilderOption: option function to apply
func WithMaxDepth(depth int) HistoryBuilderOption {
	return func(h *history) {
		h.maxDepth = max(depth, 0)
	}
}
