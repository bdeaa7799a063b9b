package engine

// size is a framebuffer size in pixels.
type size struct {
	width, height int
}

// resizeQueue carries window resizes from the event loop to the render goroutine.
// Only the latest pending size is kept.
type resizeQueue struct {
	ch chan size
}

func newResizeQueue() *resizeQueue {
	return &resizeQueue{ch: make(chan size, 1)}
}

// push replaces any pending size with the new one. Zero sizes (minimized windows) are dropped.
func (q *resizeQueue) push(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s := size{width, height}
	for {
		select {
		case q.ch <- s:
			return
		default:
			select {
			case <-q.ch:
			default:
			}
		}
	}
}

// pop returns the pending size, if any, without blocking.
func (q *resizeQueue) pop() (size, bool) {
	select {
	case s := <-q.ch:
		return s, true
	default:
		return size{}, false
	}
}

// requeue puts back a size whose resize failed, unless a newer size is already pending.
func (q *resizeQueue) requeue(s size) {
	select {
	case q.ch <- s:
	default:
	}
}
