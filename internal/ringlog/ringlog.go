// Package ringlog provides the bounded activity logs the integration hub
// keeps: fixed-capacity rings that overwrite the oldest entry once full and
// read back newest-first.
package ringlog

import "sync"

type Ring[T any] struct {
	mu     sync.Mutex
	slots  []T
	cursor int // next slot to write
	length int // entries stored, <= cap
}

func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{slots: make([]T, capacity)}
}

func (r *Ring[T]) Capacity() int { return len(r.slots) }

func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.length
}

// Push appends an entry, overwriting the oldest one at capacity.
func (r *Ring[T]) Push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots[r.cursor] = v
	r.cursor = (r.cursor + 1) % len(r.slots)
	if r.length < len(r.slots) {
		r.length++
	}
}

// Recent returns up to limit entries, newest first.
func (r *Ring[T]) Recent(limit int) []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit > r.length {
		limit = r.length
	}
	if limit < 0 {
		limit = 0
	}

	out := make([]T, 0, limit)
	for i := 0; i < limit; i++ {
		// newest entry sits one behind the write cursor
		idx := (r.cursor - 1 - i + 2*len(r.slots)) % len(r.slots)
		out = append(out, r.slots[idx])
	}
	return out
}
