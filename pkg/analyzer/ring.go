package analyzer

// Ring is a fixed-capacity FIFO. Pushing onto a full ring evicts the oldest
// entry; the backing array is allocated once.
type Ring[T any] struct {
	buf  []T
	head int
	size int
}

// NewRing creates a ring holding at most capacity values
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v and returns the evicted value, if any.
func (r *Ring[T]) Push(v T) (evicted T, ok bool) {
	if r.size == len(r.buf) {
		evicted = r.buf[r.head]
		ok = true
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		return evicted, ok
	}
	r.buf[(r.head+r.size)%len(r.buf)] = v
	r.size++
	return evicted, false
}

func (r *Ring[T]) Len() int { return r.size }

func (r *Ring[T]) Cap() int { return len(r.buf) }

// At returns the i-th oldest value
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.size {
		panic("analyzer: ring index out of range")
	}
	return r.buf[(r.head+i)%len(r.buf)]
}

// Values copies the contents oldest first
func (r *Ring[T]) Values() []T {
	return r.Tail(r.size)
}

// Tail copies the newest n values, oldest first
func (r *Ring[T]) Tail(n int) []T {
	if n > r.size {
		n = r.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	start := r.size - n
	for i := range out {
		out[i] = r.At(start + i)
	}
	return out
}

func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.head = 0
	r.size = 0
}
