package meter

import "sync"

// SlidingWindow is a fixed-length history of levels. Every Push drops the
// oldest entry, so the window always holds exactly Cap values.
//
// The values live in a ring; head is the slot of the oldest value and the
// slot the next push overwrites. It is safe for one writer and any number of
// readers.
type SlidingWindow struct {
	mu     sync.RWMutex
	values []float64
	head   int
}

// NewSlidingWindow returns a zero-filled window holding capacity values.
func NewSlidingWindow(capacity int) (*SlidingWindow, error) {
	if capacity <= 0 {
		return nil, invalid("window capacity must be positive, got %d", capacity)
	}

	return &SlidingWindow{
		values: make([]float64, capacity),
	}, nil
}

// Push appends value as the newest entry and evicts the oldest.
func (w *SlidingWindow) Push(value float64) {
	w.mu.Lock()
	w.values[w.head] = value
	if w.head++; w.head == len(w.values) {
		w.head = 0
	}
	w.mu.Unlock()
}

// Snapshot returns a copy of the window, oldest first.
func (w *SlidingWindow) Snapshot() []float64 {
	return w.SnapshotInto(nil)
}

// SnapshotInto copies the window into dst, oldest first, growing dst if it
// is too small. It returns the filled slice.
func (w *SlidingWindow) SnapshotInto(dst []float64) []float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if cap(dst) < len(w.values) {
		dst = make([]float64, len(w.values))
	}
	dst = dst[:len(w.values)]

	n := copy(dst, w.values[w.head:])
	copy(dst[n:], w.values[:w.head])

	return dst
}

// Last returns the newest value.
func (w *SlidingWindow) Last() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	idx := w.head - 1
	if idx < 0 {
		idx = len(w.values) - 1
	}

	return w.values[idx]
}

// Reset zero-fills the window.
func (w *SlidingWindow) Reset() {
	w.mu.Lock()
	for i := range w.values {
		w.values[i] = 0
	}
	w.head = 0
	w.mu.Unlock()
}

// Len returns the number of values held. It always equals Cap.
func (w *SlidingWindow) Len() int {
	return len(w.values)
}

// Cap returns the window capacity.
func (w *SlidingWindow) Cap() int {
	return len(w.values)
}
