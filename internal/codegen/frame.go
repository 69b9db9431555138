package codegen

import (
	"math/rand/v2"

	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/memory"
)

// Env is the execution context threaded through compiled code. Everything
// stateful that an instruction needs lives here rather than in globals.
type Env struct {
	Target *host.Target // instance the script runs on
	Rand   *rand.Rand
	Heap   *memory.Heap
	Stats  Stats
}

// NewEnv creates an execution context for target with a seeded generator
func NewEnv(target *host.Target, seed uint64) *Env {
	return &Env{
		Target: target,
		Rand:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Heap:   memory.NewHeap(),
	}
}

// Stats counts cache and coroutine events
type Stats struct {
	ListRefreshes     int // cached list data pointers reloaded
	ListInvalidations int // operations that may have moved a list buffer
	Suspends          int
	Resumes           int
}

// listCache is the per-frame view of one list
type listCache struct {
	list  *host.List
	data  []host.Value
	size  int
	dirty bool
}

// Frame is the resumable state of one function activation: the register
// files, loop counters, list caches, the resume point and any pending
// callee.
type Frame struct {
	fn  *Function
	env *Env
	pc  int

	nums  []float64
	bools []bool
	strs  []string
	vals  []host.Value
	ints  []int64
	lists []listCache
	args  []host.Value

	callee *Frame
	arena  *memory.Arena
}

// Function returns the function this frame belongs to
func (fr *Frame) Function() *Function {
	return fr.fn
}

// Release frees the frame, any callee frame it is waiting on, and every
// string buffer they own. A released frame must not be resumed.
func (fr *Frame) Release() {
	if fr == nil || fr.fn == nil {
		return
	}
	if fr.callee != nil {
		fr.callee.Release()
		fr.callee = nil
	}
	fr.arena.Release()
	fn := fr.fn
	fr.fn = nil
	fr.env = nil
	clear(fr.strs)
	clear(fr.vals)
	clear(fr.args)
	clear(fr.lists)
	fn.pool.Put(fr)
}

// list returns the fresh cache of list slot k, reloading it when dirty
func (fr *Frame) list(k int, bind listBinding) *listCache {
	lc := &fr.lists[k]
	if lc.dirty {
		lc.list = bind.get(fr)
		lc.data = lc.list.Data()
		lc.size = lc.list.Size()
		lc.dirty = false
		fr.env.Stats.ListRefreshes++
	}
	return lc
}

// invalidateLists marks every list cache dirty. Other scripts may have
// changed any list while this frame was suspended or calling out.
func (fr *Frame) invalidateLists() {
	for k := range fr.lists {
		fr.lists[k].dirty = true
	}
}

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	s = s[:n]
	clear(s)
	return s
}

func (f *Function) newFrame(env *Env, args []host.Value) *Frame {
	fr, _ := f.pool.Get().(*Frame)
	if fr == nil {
		fr = &Frame{}
	}
	fr.fn = f
	fr.env = env
	fr.pc = 0
	fr.callee = nil

	l := &f.layout
	fr.nums = grow(fr.nums, l.nums)
	fr.bools = grow(fr.bools, l.bools)
	fr.strs = grow(fr.strs, l.strs)
	fr.vals = grow(fr.vals, l.vals)
	fr.ints = grow(fr.ints, l.ints)
	fr.lists = grow(fr.lists, len(f.lists))
	for k := range fr.lists {
		fr.lists[k].dirty = true
	}
	fr.args = append(fr.args[:0], args...)

	if fr.arena == nil || fr.arena.Heap() != env.Heap {
		fr.arena = memory.NewArena(env.Heap)
	}
	return fr
}
