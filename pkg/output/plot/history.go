package plot

// History is a fixed-capacity FIFO. Once full, each Append drops the oldest
// value.
type History[T any] struct {
	buf   []T
	start int
	n     int
}

func NewHistory[T any](capacity int) *History[T] {
	if capacity < 1 {
		panic("plot: history capacity must be >= 1")
	}
	return &History[T]{buf: make([]T, capacity)}
}

func (h *History[T]) Append(v T) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = v
		h.n++
		return
	}
	h.buf[h.start] = v
	h.start = (h.start + 1) % len(h.buf)
}

func (h *History[T]) Len() int { return h.n }

func (h *History[T]) Cap() int { return len(h.buf) }

// Values copies the contents out, oldest first.
func (h *History[T]) Values() []T {
	out := make([]T, h.n)
	for i := range out {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}
