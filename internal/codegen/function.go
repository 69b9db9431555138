package codegen

import (
	"fmt"
	"strings"
	"sync"

	"github.com/funvibe/blockjit/internal/host"
)

// Terminator results other than a block index
const (
	termDone    = -1 // the function finished
	termSuspend = -2 // the function suspended; Frame.pc holds the resume block
)

// block is a straight-line run of operations ended by a terminator that
// picks the next block.
type block struct {
	ops   []func(*Frame)
	names []string

	term     func(*Frame) int
	termName string
	succ     []int
	suspends bool
}

type layout struct {
	nums, bools, strs, vals, ints int
}

// Mode is the coroutine classification of a function
type Mode uint8

const (
	Warp        Mode = iota // runs to completion, never suspends
	Suspendable             // may suspend; runs as entry + resume pair
)

func (m Mode) String() string {
	if m == Warp {
		return "warp"
	}
	return "suspendable"
}

// Function is one compiled script or procedure.
type Function struct {
	Name   string
	Mode   Mode
	Params int
	// Owner is the sprite whose instances run the function, "" for the
	// stage or a procedure that touches no per-instance state
	Owner string

	blocks []block
	layout layout
	lists  []listBinding
	pool   sync.Pool

	entry  func(env *Env, args []host.Value) *Frame
	resume func(fr *Frame) bool
}

// Entry starts the function. It returns nil when the function ran to
// completion, else the suspended frame to pass to Resume.
func (f *Function) Entry(env *Env, args ...host.Value) *Frame {
	return f.entry(env, args)
}

// Resume continues a suspended frame and reports whether the function has
// finished. A finished frame is released.
func (f *Function) Resume(fr *Frame) bool {
	return f.resume(fr)
}

// exec runs blocks from the frame's resume point until the function
// finishes (true) or suspends (false).
func (f *Function) exec(fr *Frame) bool {
	blocks := f.blocks
	pc := fr.pc
	for {
		b := &blocks[pc]
		for _, op := range b.ops {
			op(fr)
		}
		next := b.term(fr)
		switch next {
		case termDone:
			return true
		case termSuspend:
			return false
		}
		pc = next
	}
}

// Blocks returns the number of basic blocks
func (f *Function) Blocks() int {
	return len(f.blocks)
}

// Disassemble returns a listing of the compiled blocks
func (f *Function) Disassemble() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s (%s) ==\n", f.Name, f.Mode))
	sb.WriteString(fmt.Sprintf("registers: nums=%d bools=%d strs=%d vals=%d ints=%d lists=%d\n",
		f.layout.nums, f.layout.bools, f.layout.strs, f.layout.vals, f.layout.ints, len(f.lists)))

	for i := range f.blocks {
		b := &f.blocks[i]
		sb.WriteString(fmt.Sprintf("block %d:\n", i))
		for _, name := range b.names {
			sb.WriteString("    ")
			sb.WriteString(name)
			sb.WriteByte('\n')
		}
		sb.WriteString("    ")
		sb.WriteString(b.termName)
		sb.WriteByte('\n')
	}
	return sb.String()
}
