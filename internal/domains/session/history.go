package session

import "sync"

// History is an append-only, insertion-ordered log. It never sorts; order of
// Append calls is the only order.
type History[T any] struct {
	mu    sync.RWMutex
	items []T
}

func NewHistory[T any]() *History[T] {
	return &History[T]{items: make([]T, 0)}
}

// Append adds item at the end and returns its zero-based position.
func (h *History[T]) Append(item T) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, item)
	return len(h.items) - 1
}

// Snapshot returns a copy of the history in append order.
func (h *History[T]) Snapshot() []T {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]T, len(h.items))
	copy(out, h.items)
	return out
}

func (h *History[T]) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = make([]T, 0)
}

func (h *History[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}
