// Package history provides the bounded sample streams that back every
// dashboard chart. A Stream holds the latest value of one scalar metric plus
// a fixed-capacity window of its trailing samples.
package history

// DefaultCapacity is the number of samples retained when no explicit
// capacity is requested. At the default 1s refresh this covers 100 seconds.
const DefaultCapacity = 100

// Stream is a fixed-capacity sliding window over one scalar metric.
//
// Samples live in a backing array twice the capacity long. The window slides
// right on every push and is copied back to the front only when it reaches
// the end of the array, so Push is amortized O(1) and History can hand out a
// contiguous view without allocating.
type Stream[T any] struct {
	current  T
	buf      []T
	start    int
	n        int
	capacity int
}

// New returns a stream of DefaultCapacity seeded with initial.
func New[T any](initial T) *Stream[T] {
	return WithCapacity(initial, DefaultCapacity)
}

// WithCapacity returns a stream that retains at most capacity samples,
// seeded with initial. A capacity below 1 is treated as 1.
func WithCapacity[T any](initial T, capacity int) *Stream[T] {
	if capacity < 1 {
		capacity = 1
	}
	s := &Stream[T]{
		buf:      make([]T, 2*capacity),
		capacity: capacity,
	}
	s.current = initial
	s.buf[0] = initial
	s.n = 1
	return s
}

// Push records v as the current value and appends it to the window,
// evicting the oldest sample when the window is full.
func (s *Stream[T]) Push(v T) {
	s.current = v
	if s.n == s.capacity {
		s.start++
		s.n--
	}
	end := s.start + s.n
	if end == len(s.buf) {
		copy(s.buf, s.buf[s.start:end])
		s.start = 0
		end = s.n
	}
	s.buf[end] = v
	s.n++
}

// Current returns the most recently pushed value.
func (s *Stream[T]) Current() T {
	return s.current
}

// History returns the retained samples, oldest first. The slice aliases the
// stream's storage: it is valid until the next Push and must not be modified.
func (s *Stream[T]) History() []T {
	return s.buf[s.start : s.start+s.n : s.start+s.n]
}

// Len returns the number of retained samples.
func (s *Stream[T]) Len() int {
	return s.n
}

// Cap returns the maximum number of retained samples.
func (s *Stream[T]) Cap() int {
	return s.capacity
}
