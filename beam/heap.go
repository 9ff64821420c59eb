package beam

import (
	"cmp"
	"math/bits"
)

// Heap is a bounded rank structure. It keeps at most Capacity items, the
// best being the smallest under its comparison function. When full, a new
// item replaces the current worst only if it is strictly better.
//
// Items are stored as a min-max heap so both ends are reachable in
// O(log capacity).
type Heap[T any] struct {
	items    []T
	capacity int
	cmp      func(a, b T) int
}

// NewHeap returns an empty heap holding at most capacity items ordered by
// cmpFn. Capacity below 1 is raised to 1.
func NewHeap[T any](capacity int, cmpFn func(a, b T) int) *Heap[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Heap[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
		cmp:      cmpFn,
	}
}

// NewOrderedHeap returns a heap retaining the smallest values.
func NewOrderedHeap[T cmp.Ordered](capacity int) *Heap[T] {
	return NewHeap(capacity, cmp.Compare[T])
}

// NewSequenceHeap returns a heap retaining the highest-scoring sequences.
func NewSequenceHeap(capacity int) *Heap[*Sequence] {
	return NewHeap(capacity, CompareSequences)
}

// Size returns the number of items held.
func (h *Heap[T]) Size() int { return len(h.items) }

// Capacity returns the maximum number of items held.
func (h *Heap[T]) Capacity() int { return h.capacity }

// IsEmpty reports whether the heap holds no items.
func (h *Heap[T]) IsEmpty() bool { return len(h.items) == 0 }

// Add inserts item, evicting the worst item if the heap is full and item is
// strictly better. It reports whether item was kept.
func (h *Heap[T]) Add(item T) bool {
	if len(h.items) < h.capacity {
		h.items = append(h.items, item)
		h.bubbleUp(len(h.items) - 1)
		return true
	}
	worst := h.maxIndex()
	if h.cmp(item, h.items[worst]) >= 0 {
		return false
	}
	h.removeAt(worst)
	h.items = append(h.items, item)
	h.bubbleUp(len(h.items) - 1)
	return true
}

// Extract removes and returns the best item.
func (h *Heap[T]) Extract() (T, bool) {
	var zero T
	if len(h.items) == 0 {
		return zero, false
	}
	best := h.items[0]
	h.removeAt(0)
	return best, true
}

// First returns the best item without removing it.
func (h *Heap[T]) First() (T, bool) {
	var zero T
	if len(h.items) == 0 {
		return zero, false
	}
	return h.items[0], true
}

// Last returns the worst item without removing it.
func (h *Heap[T]) Last() (T, bool) {
	var zero T
	if len(h.items) == 0 {
		return zero, false
	}
	return h.items[h.maxIndex()], true
}

// Clear removes every item.
func (h *Heap[T]) Clear() {
	clear(h.items)
	h.items = h.items[:0]
}

func (h *Heap[T]) less(i, j int) bool { return h.cmp(h.items[i], h.items[j]) < 0 }

func (h *Heap[T]) swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

// minLevel reports whether index i sits on a min level (even depth).
func minLevel(i int) bool {
	return (bits.Len(uint(i+1))-1)%2 == 0
}

func (h *Heap[T]) maxIndex() int {
	switch len(h.items) {
	case 1:
		return 0
	case 2:
		return 1
	}
	if h.less(1, 2) {
		return 2
	}
	return 1
}

func (h *Heap[T]) removeAt(i int) {
	last := len(h.items) - 1
	h.items[i] = h.items[last]
	var zero T
	h.items[last] = zero
	h.items = h.items[:last]
	if i < last {
		h.trickleDown(i)
		h.bubbleUp(i)
	}
}

func (h *Heap[T]) bubbleUp(i int) {
	if i == 0 {
		return
	}
	p := (i - 1) / 2
	if minLevel(i) {
		if h.less(p, i) {
			h.swap(i, p)
			h.bubbleUpLevel(p, false)
		} else {
			h.bubbleUpLevel(i, true)
		}
		return
	}
	if h.less(i, p) {
		h.swap(i, p)
		h.bubbleUpLevel(p, true)
	} else {
		h.bubbleUpLevel(i, false)
	}
}

// bubbleUpLevel moves i up through its grandparents on a min (or max) level.
func (h *Heap[T]) bubbleUpLevel(i int, isMin bool) {
	for i > 2 {
		gp := ((i-1)/2 - 1) / 2
		better := h.less(i, gp)
		if !isMin {
			better = h.less(gp, i)
		}
		if !better {
			return
		}
		h.swap(i, gp)
		i = gp
	}
}

func (h *Heap[T]) trickleDown(i int) {
	isMin := minLevel(i)
	n := len(h.items)
	for {
		// pick the extreme among children and grandchildren
		m := -1
		first := 2*i + 1
		candidates := [6]int{first, first + 1, 2*first + 1, 2*first + 2, 2*(first+1) + 1, 2*(first+1) + 2}
		for _, c := range candidates {
			if c >= n {
				continue
			}
			if m < 0 || (isMin && h.less(c, m)) || (!isMin && h.less(m, c)) {
				m = c
			}
		}
		if m < 0 {
			return
		}
		better := h.less(m, i)
		if !isMin {
			better = h.less(i, m)
		}
		if !better {
			return
		}
		h.swap(m, i)
		if m <= first+1 {
			// direct child, done
			return
		}
		p := (m - 1) / 2
		if (isMin && h.less(p, m)) || (!isMin && h.less(m, p)) {
			h.swap(m, p)
		}
		i = m
	}
}
