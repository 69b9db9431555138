package codegen

import (
	"strconv"

	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

// argOf reads h as a call argument. Scope-owned strings are copied since
// the callee may outlive the caller's scope.
func (b *builder) argOf(h Handle) func(*Frame) host.Value {
	get := b.valOf(h)
	if !h.Owned {
		return get
	}
	return func(fr *Frame) host.Value {
		var v host.Value
		v.Assign(get(fr))
		return v
	}
}

// emitCall calls a procedure. Caches are written back first and forgotten
// afterwards since the callee shares all host state.
//
// A warp callee runs to completion inline. A suspendable callee called from
// warp code is driven to completion on the spot. Otherwise the caller
// suspends on a poll block that resumes the callee once per slice until it
// finishes.
func emitCall(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	if in.Proc < 0 || in.Proc >= len(b.c.procs) {
		b.contractf(i, "procedure index %d out of range", in.Proc)
	}
	callee := b.c.procs[in.Proc]
	if callee.Owner != "" && callee.Owner != b.fn.Owner {
		b.contractf(i, "%s runs on %s, but %s runs on %s", callee.Name, callee.Owner, b.name, ownerName(b.fn.Owner))
	}
	if len(args) != callee.Params {
		b.contractf(i, "%s takes %d arguments, got %d", callee.Name, callee.Params, len(args))
	}

	getters := make([]func(*Frame) host.Value, len(args))
	for j, a := range args {
		getters[j] = b.argOf(a)
	}
	argv := func(fr *Frame) []host.Value {
		if len(getters) == 0 {
			return nil
		}
		vs := make([]host.Value, len(getters))
		for j, get := range getters {
			vs[j] = get(fr)
		}
		return vs
	}
	b.syncAll()

	switch {
	case callee.Mode == Warp:
		b.emit(b.label(i), func(fr *Frame) { callee.entry(fr.env, argv(fr)) })

	case b.fn.Mode == Warp:
		b.emit(b.label(i)+" (drain)", func(fr *Frame) {
			h := callee.entry(fr.env, argv(fr))
			for h != nil && !callee.resume(h) {
			}
		})

	default:
		b.emit(b.label(i), func(fr *Frame) { fr.callee = callee.entry(fr.env, argv(fr)) })
		after, poll := b.newBlock(), b.newBlock()
		blk := b.terminate("wait -> "+strconv.Itoa(after)+", poll "+strconv.Itoa(poll), func(fr *Frame) int {
			if fr.callee == nil {
				return after
			}
			fr.arena.Flush()
			fr.env.Stats.Suspends++
			fr.pc = poll
			return termSuspend
		}, after, poll)
		blk.suspends = true

		b.setBlock(poll)
		blk = b.terminate("poll "+callee.Name+" -> "+strconv.Itoa(after), func(fr *Frame) int {
			if callee.resume(fr.callee) {
				fr.callee = nil
				return after
			}
			fr.env.Stats.Suspends++
			fr.pc = poll
			return termSuspend
		}, after, poll)
		blk.suspends = true

		b.setBlock(after)
	}

	b.forgetAll()
	b.emit("invalidate lists", func(fr *Frame) { fr.invalidateLists() })
	return none
}

func emitArg(b *builder, i int, in *ir.Instr, _ []Handle) Handle {
	if in.Arg < 0 || in.Arg >= b.fn.Params {
		b.contractf(i, "argument index %d out of range", in.Arg)
	}
	k := in.Arg
	out := b.newVal()
	r := out.Reg
	b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) { fr.vals[r] = fr.args[k] })
	return out
}
