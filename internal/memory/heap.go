// Package memory owns the transient string buffers created while compiled
// code runs. Buffers come from a Heap shared by every frame of a unit and are
// tracked by the Arena of the frame that created them, one mark per lexical
// scope, so leaving a scope returns its buffers on every path.
package memory

const (
	minClass = 16
	maxFree  = 64
)

// Stats reports heap activity
type Stats struct {
	Live   int // buffers handed out and not yet returned or released
	Allocs int // total buffers handed out
	Reused int // allocations served from a free list
}

// Heap is a size-class free-list allocator for string buffers.
type Heap struct {
	free  map[int][][]byte
	stats Stats
}

func NewHeap() *Heap {
	return &Heap{free: make(map[int][][]byte)}
}

func classOf(n int) int {
	c := minClass
	for c < n {
		c <<= 1
	}
	return c
}

func (h *Heap) alloc(n int) []byte {
	c := classOf(n)
	h.stats.Live++
	h.stats.Allocs++
	if l := h.free[c]; len(l) > 0 {
		b := l[len(l)-1]
		l[len(l)-1] = nil
		h.free[c] = l[:len(l)-1]
		h.stats.Reused++
		return b[:n]
	}
	return make([]byte, n, c)
}

// recycle returns b to its free list
func (h *Heap) recycle(b []byte) {
	h.stats.Live--
	c := cap(b)
	if len(h.free[c]) < maxFree {
		h.free[c] = append(h.free[c], b[:0])
	}
}

// detach stops tracking b without reusing it. Strings that may still be
// referenced after their scope is flushed stay valid this way.
func (h *Heap) detach([]byte) {
	h.stats.Live--
}

// Live returns the number of outstanding buffers
func (h *Heap) Live() int {
	return h.stats.Live
}

// Stats returns a snapshot of heap counters
func (h *Heap) Stats() Stats {
	return h.stats
}
