package codegen

import (
	"fmt"

	"github.com/funvibe/blockjit/internal/analyzer"
	"github.com/funvibe/blockjit/internal/ir"
)

// builder turns one instruction stream into the blocks of a Function. It
// walks the stream once, keeping the compile-time state of every variable
// cache and the stack of open control constructs.
type builder struct {
	c     *Compiler
	fn    *Function
	name  string
	body  ir.Body
	st    ir.Structure
	types *analyzer.Result

	blocks  []block
	cur     int
	handles []Handle

	vars     map[int]*varCache
	varOrder []int
	lists    map[int]int

	depth int // open string scopes, including the function scope
	open  []*construct
}

func newBuilder(c *Compiler, fn *Function, body ir.Body, st ir.Structure, types *analyzer.Result) *builder {
	b := &builder{
		c:       c,
		fn:      fn,
		name:    fn.Name,
		body:    body,
		st:      st,
		types:   types,
		handles: make([]Handle, len(body)),
		vars:    make(map[int]*varCache),
		lists:   make(map[int]int),
	}
	b.cur = b.newBlock()
	return b
}

// build emits the whole body. The function scope is opened first and closed
// by the final block.
func (b *builder) build() {
	b.pushScope()

	for i := range b.body {
		in := &b.body[i]
		if in.Op >= ir.OP_COUNT {
			b.contractf(i, "unknown opcode %d", in.Op)
		}
		h := &handlers[in.Op]
		if h.emit == nil {
			b.contractf(i, "no handler for %s", in.Op)
		}
		if h.arity >= 0 && len(in.Args) != h.arity {
			b.contractf(i, "%s takes %d operands, got %d", in.Op, h.arity, len(in.Args))
		}
		b.handles[i] = h.emit(b, i, in, b.operands(i, in))
	}
	if len(b.open) > 0 {
		b.contractf(b.open[len(b.open)-1].at, "unclosed %s", b.body[b.open[len(b.open)-1].at].Op)
	}

	b.syncAll()
	b.popScope()
	b.finish()

	b.fn.blocks = b.blocks
}

func (b *builder) operands(i int, in *ir.Instr) []Handle {
	args := make([]Handle, len(in.Args))
	for j, a := range in.Args {
		if a.IsConst() {
			args[j] = constHandle(a.Const)
			continue
		}
		if a.Ref < 0 || a.Ref >= i {
			b.contractf(i, "operand %d refers to %d", j, a.Ref)
		}
		args[j] = b.handles[a.Ref]
	}
	return args
}

// Blocks

func (b *builder) newBlock() int {
	b.blocks = append(b.blocks, block{})
	return len(b.blocks) - 1
}

func (b *builder) setBlock(i int) {
	b.cur = i
}

func (b *builder) emit(name string, op func(*Frame)) {
	blk := &b.blocks[b.cur]
	if blk.term != nil {
		panic(fmt.Sprintf("codegen: emit into terminated block %d of %s", b.cur, b.name))
	}
	blk.ops = append(blk.ops, op)
	blk.names = append(blk.names, name)
}

func (b *builder) terminate(name string, term func(*Frame) int, succ ...int) *block {
	blk := &b.blocks[b.cur]
	if blk.term != nil {
		panic(fmt.Sprintf("codegen: block %d of %s terminated twice", b.cur, b.name))
	}
	blk.term = term
	blk.termName = name
	blk.succ = succ
	return blk
}

func (b *builder) jump(to int) {
	b.terminate(fmt.Sprintf("jump %d", to), func(*Frame) int { return to }, to)
}

func (b *builder) branch(cond func(*Frame) bool, then, els int) {
	b.terminate(fmt.Sprintf("branch %d, %d", then, els), func(fr *Frame) int {
		if cond(fr) {
			return then
		}
		return els
	}, then, els)
}

func (b *builder) finish() {
	b.terminate("return", func(*Frame) int { return termDone })
}

// suspend ends the current block with a suspend point resuming at resume.
// The innermost scope's strings are given up first.
func (b *builder) suspend(resume int) {
	blk := b.terminate(fmt.Sprintf("suspend -> %d", resume), func(fr *Frame) int {
		fr.arena.Flush()
		fr.env.Stats.Suspends++
		fr.pc = resume
		return termSuspend
	}, resume)
	blk.suspends = true
}

// Registers

func (b *builder) newReg(k Kind) Handle {
	l := &b.fn.layout
	var r int
	switch k {
	case KindNumber:
		r = l.nums
		l.nums++
	case KindBool:
		r = l.bools
		l.bools++
	default:
		r = l.strs
		l.strs++
	}
	return Handle{Variant: Specialized, Kind: k, Reg: r}
}

func (b *builder) newVal() Handle {
	r := b.fn.layout.vals
	b.fn.layout.vals++
	return Handle{Variant: Generic, Reg: r}
}

func (b *builder) newCounter() int {
	r := b.fn.layout.ints
	b.fn.layout.ints++
	return r
}

// listSlot returns the frame list cache index for a program list
func (b *builder) listSlot(i int, in *ir.Instr) (int, listBinding) {
	lb, err := b.c.bindList(in.List)
	if err != nil {
		b.contractf(i, "%v", err)
	}
	b.checkInstance(i, "list", lb.id, lb.owner)
	if k, ok := b.lists[in.List]; ok {
		return k, lb
	}
	k := len(b.fn.lists)
	b.fn.lists = append(b.fn.lists, lb)
	b.lists[in.List] = k
	return k, lb
}

// String scopes

func (b *builder) pushScope() {
	b.emit("scope push", func(fr *Frame) { fr.arena.Push() })
	b.depth++
}

func (b *builder) popScope() {
	b.emit("scope pop", func(fr *Frame) { fr.arena.Pop() })
	b.depth--
}

// popTo emits the unwinding of scopes down to depth d without changing the
// compile-time depth, for early exits.
func (b *builder) popTo(d int) {
	b.emit(fmt.Sprintf("scope pop to %d", d), func(fr *Frame) { fr.arena.PopTo(d) })
}

func (b *builder) label(i int) string {
	in := &b.body[i]
	return fmt.Sprintf("%04d %s", i, in.String())
}
