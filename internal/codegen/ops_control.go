package codegen

import (
	"math"

	"github.com/funvibe/blockjit/internal/ir"
)

// construct is an open IF, REPEAT or LOOP
type construct struct {
	op ir.Opcode
	at int

	snap map[int]cacheState // caches on IF entry
	els  int                // first block of the else arm (end when absent)
	end  int                // block following the construct

	header  int // loop test (REPEAT) or body start (LOOP)
	counter int // REPEAT iteration counter
	outer   int // scope depth outside the loop body
}

func (b *builder) top(i int, ops ...ir.Opcode) *construct {
	if len(b.open) > 0 {
		con := b.open[len(b.open)-1]
		for _, op := range ops {
			if con.op == op {
				return con
			}
		}
	}
	b.contractf(i, "%s does not close an open construct", b.body[i].Op)
	return nil
}

func (b *builder) closeConstruct(i int, ops ...ir.Opcode) *construct {
	con := b.top(i, ops...)
	b.open = b.open[:len(b.open)-1]
	return con
}

// IF: caches are written back before the branch so that both paths start
// from the host copy. Each arm is its own string scope; caches an arm
// changed are forgotten after it.

func emitIf(b *builder, i int, _ *ir.Instr, args []Handle) Handle {
	cond := b.boolOf(args[0])
	b.syncAll()

	sp, ok := b.st[i]
	if !ok {
		b.contractf(i, "if without matching end")
	}
	then, end := b.newBlock(), b.newBlock()
	els := end
	if sp.Else >= 0 {
		els = b.newBlock()
	}
	b.branch(cond, then, els)

	b.open = append(b.open, &construct{op: ir.OP_IF, at: i, snap: b.snapshot(), els: els, end: end})
	b.setBlock(then)
	b.pushScope()
	return none
}

func (b *builder) closeArm(con *construct) {
	b.syncAll()
	b.popScope()
	b.jump(con.end)
	b.forgetChanged(con.snap)
}

func emitElse(b *builder, i int, _ *ir.Instr, _ []Handle) Handle {
	con := b.top(i, ir.OP_IF)
	b.closeArm(con)
	b.setBlock(con.els)
	b.pushScope()
	return none
}

func emitEndIf(b *builder, i int, _ *ir.Instr, _ []Handle) Handle {
	con := b.closeConstruct(i, ir.OP_IF)
	b.closeArm(con)
	b.setBlock(con.end)
	return none
}

// repeatCount turns a repeat operand into an iteration counter: rounded
// half away from zero, 0 for non-positive counts, -1 for Infinity.
func repeatCount(f float64) int64 {
	c := math.Round(nz(f))
	switch {
	case c <= 0:
		return 0
	case math.IsInf(c, 1):
		return -1
	case c >= math.MaxInt64:
		return math.MaxInt64
	}
	return int64(c)
}

// Loops: every cache is written back and forgotten on entry and at the end
// of each iteration, so the header sees the host copy on every edge.

func emitRepeat(b *builder, i int, _ *ir.Instr, args []Handle) Handle {
	count := b.numOf(args[0])
	b.syncAll()
	b.forgetAll()

	k := b.newCounter()
	b.emit(b.label(i), func(fr *Frame) { fr.ints[k] = repeatCount(count(fr)) })

	header, body, exit := b.newBlock(), b.newBlock(), b.newBlock()
	b.jump(header)
	b.setBlock(header)
	b.branch(func(fr *Frame) bool { return fr.ints[k] != 0 }, body, exit)

	b.open = append(b.open, &construct{op: ir.OP_REPEAT, at: i, header: header, end: exit, counter: k, outer: b.depth})
	b.setBlock(body)
	b.pushScope()
	return none
}

func emitLoop(b *builder, i int, _ *ir.Instr, _ []Handle) Handle {
	b.syncAll()
	b.forgetAll()

	header, exit := b.newBlock(), b.newBlock()
	b.jump(header)

	b.open = append(b.open, &construct{op: ir.OP_LOOP, at: i, header: header, end: exit, outer: b.depth})
	b.setBlock(header)
	b.pushScope()
	return none
}

// emitLoopExit leaves the innermost LOOP when the condition says so. The
// exit edge writes back caches and unwinds the scopes opened inside the
// loop, including those of enclosing IFs.
func emitLoopExit(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	var loop *construct
	for j := len(b.open) - 1; j >= 0; j-- {
		if b.open[j].op == ir.OP_LOOP {
			loop = b.open[j]
			break
		}
		if b.open[j].op == ir.OP_REPEAT {
			break
		}
	}
	if loop == nil {
		b.contractf(i, "%s outside a conditional loop", in.Op)
	}

	cond := b.boolOf(args[0])
	cont, leave := b.newBlock(), b.newBlock()
	if in.Op == ir.OP_LOOP_WHILE {
		b.branch(cond, cont, leave)
	} else {
		b.branch(cond, leave, cont)
	}

	b.setBlock(leave)
	b.emitSyncAll()
	b.popTo(loop.outer)
	b.jump(loop.end)

	b.setBlock(cont)
	return none
}

func emitEndLoop(b *builder, i int, _ *ir.Instr, _ []Handle) Handle {
	con := b.closeConstruct(i, ir.OP_REPEAT, ir.OP_LOOP)
	b.syncAll()
	b.forgetAll()
	b.popScope()
	if con.op == ir.OP_REPEAT {
		k := con.counter
		b.emit("repeat next", func(fr *Frame) {
			if fr.ints[k] > 0 {
				fr.ints[k]--
			}
		})
	}
	b.jump(con.header)

	b.setBlock(con.end)
	b.forgetAll()
	return none
}

// emitYield is a suspend point in suspendable functions and a no-op in
// warp ones. Everything cached is stale after resuming.
func emitYield(b *builder, i int, _ *ir.Instr, _ []Handle) Handle {
	if b.fn.Mode == Warp {
		return none
	}
	b.syncAll()
	resume := b.newBlock()
	b.suspend(resume)

	b.setBlock(resume)
	b.forgetAll()
	b.emit(b.label(i)+" resumed", func(fr *Frame) { fr.invalidateLists() })
	return none
}

// emitStop finishes the current function from any depth
func emitStop(b *builder, i int, _ *ir.Instr, _ []Handle) Handle {
	b.emitSyncAll()
	b.popTo(0)
	b.finish()
	b.setBlock(b.newBlock())
	return none
}
