package memory

import (
	"unsafe"

	"github.com/funvibe/blockjit/internal/host"
)

// Arena tracks the buffers allocated by one frame. Push opens a scope, Pop
// frees everything allocated since the matching Push.
type Arena struct {
	heap  *Heap
	bufs  [][]byte
	marks []int
}

func NewArena(h *Heap) *Arena {
	return &Arena{heap: h}
}

// Push opens a scope
func (a *Arena) Push() {
	a.marks = append(a.marks, len(a.bufs))
}

// Pop closes the innermost scope and frees its buffers
func (a *Arena) Pop() {
	n := len(a.marks) - 1
	a.recycleFrom(a.marks[n])
	a.marks = a.marks[:n]
}

// PopTo closes scopes until depth d remains
func (a *Arena) PopTo(d int) {
	for len(a.marks) > d {
		a.Pop()
	}
}

// Depth returns the number of open scopes
func (a *Arena) Depth() int {
	return len(a.marks)
}

// Flush gives up the buffers of the innermost scope before a suspend. The
// scope stays open.
func (a *Arena) Flush() {
	from := 0
	if n := len(a.marks); n > 0 {
		from = a.marks[n-1]
	}
	for i := from; i < len(a.bufs); i++ {
		a.heap.detach(a.bufs[i])
		a.bufs[i] = nil
	}
	a.bufs = a.bufs[:from]
}

// Release frees every buffer and closes all scopes. Used when a frame
// finishes or is killed.
func (a *Arena) Release() {
	a.recycleFrom(0)
	a.marks = a.marks[:0]
}

// Owned returns the number of buffers currently tracked
func (a *Arena) Owned() int {
	return len(a.bufs)
}

func (a *Arena) recycleFrom(from int) {
	for i := from; i < len(a.bufs); i++ {
		a.heap.recycle(a.bufs[i])
		a.bufs[i] = nil
	}
	a.bufs = a.bufs[:from]
}

func (a *Arena) alloc(n int) []byte {
	b := a.heap.alloc(n)
	a.bufs = append(a.bufs, b)
	return b
}

func view(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// String copies s into a scope-owned buffer
func (a *Arena) String(s string) string {
	if s == "" {
		return ""
	}
	b := a.alloc(len(s))
	copy(b, s)
	return view(b)
}

// Concat joins x and y into a scope-owned buffer
func (a *Arena) Concat(x, y string) string {
	n := len(x) + len(y)
	if n == 0 {
		return ""
	}
	b := a.alloc(n)
	copy(b, x)
	copy(b[len(x):], y)
	return view(b)
}

// FormatNumber renders f into a scope-owned buffer
func (a *Arena) FormatNumber(f float64) string {
	b := a.alloc(32)
	b = host.AppendNumber(b[:0], f)
	a.bufs[len(a.bufs)-1] = b
	return view(b)
}

// Heap returns the heap the arena allocates from
func (a *Arena) Heap() *Heap {
	return a.heap
}
