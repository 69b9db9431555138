package codegen

import (
	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

// listIndex converts a 1-based list position to a 0-based index in
// [0, limit), or -1.
func listIndex(n float64, limit int) int {
	n = nz(n)
	if !(n >= 1 && n < float64(limit)+1) {
		return -1
	}
	return int(n) - 1
}

// mayGrow marks the cache dirty when the next insertion reallocates
func (lc *listCache) mayGrow(env *Env) {
	if lc.size == lc.list.Capacity() {
		lc.dirty = true
		env.Stats.ListInvalidations++
	}
}

func (b *builder) listOp(i int, in *ir.Instr) func(*Frame) *listCache {
	k, lb := b.listSlot(i, in)
	return func(fr *Frame) *listCache { return fr.list(k, lb) }
}

func emitListAdd(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	list, store := b.listOp(i, in), b.storer(args[0])
	b.emit(b.label(i), func(fr *Frame) {
		lc := list(fr)
		lc.mayGrow(fr.env)
		store(fr, lc.list.AppendEmpty())
		lc.size++
	})
	return none
}

func emitListDelete(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	list, idx := b.listOp(i, in), b.numOf(args[0])
	b.emit(b.label(i), func(fr *Frame) {
		lc := list(fr)
		if k := listIndex(idx(fr), lc.size); k >= 0 {
			lc.list.RemoveAt(k)
			lc.size--
		}
	})
	return none
}

func emitListDeleteAll(b *builder, i int, in *ir.Instr, _ []Handle) Handle {
	list := b.listOp(i, in)
	b.emit(b.label(i), func(fr *Frame) {
		lc := list(fr)
		lc.list.Clear()
		lc.dirty = true
		fr.env.Stats.ListInvalidations++
	})
	return none
}

func emitListInsert(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	list, idx, store := b.listOp(i, in), b.numOf(args[0]), b.storer(args[1])
	b.emit(b.label(i), func(fr *Frame) {
		lc := list(fr)
		k := listIndex(idx(fr), lc.size+1)
		if k < 0 {
			return
		}
		lc.mayGrow(fr.env)
		store(fr, lc.list.InsertEmptyAt(k))
		lc.size++
	})
	return none
}

func emitListReplace(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	list, idx, store := b.listOp(i, in), b.numOf(args[0]), b.storer(args[1])
	b.emit(b.label(i), func(fr *Frame) {
		lc := list(fr)
		if k := listIndex(idx(fr), lc.size); k >= 0 {
			store(fr, &lc.data[k])
		}
	})
	return none
}

func emitListItem(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	list, idx := b.listOp(i, in), b.numOf(args[0])

	// Only a list of strings gives a single result kind, since an
	// out-of-range read is the empty string.
	if b.types.Types[i] == ir.TypeString {
		out := b.newReg(KindString)
		r := out.Reg
		b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) {
			lc := list(fr)
			k := listIndex(idx(fr), lc.size)
			switch {
			case k < 0:
				fr.strs[r] = ""
			case lc.data[k].Tag == host.TagString:
				fr.strs[r] = lc.data[k].Str()
			default:
				fr.strs[r] = host.ToString(lc.data[k])
			}
		})
		return out
	}

	out := b.newVal()
	r := out.Reg
	empty := host.String("")
	b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) {
		lc := list(fr)
		if k := listIndex(idx(fr), lc.size); k >= 0 {
			fr.vals[r] = lc.data[k]
		} else {
			fr.vals[r] = empty
		}
	})
	return out
}

// find returns the 0-based index of the first item equal to the needle
func (b *builder) find(i int, in *ir.Instr, needle Handle) func(*Frame) int {
	list := b.listOp(i, in)

	// A list known to hold only numbers searched for a number compares
	// raw floats, checking each tag.
	if b.types.Before[i] == ir.TypeNumber && needle.Variant != Generic && needle.Kind == KindNumber {
		x := b.numOf(needle)
		return func(fr *Frame) int {
			lc := list(fr)
			n := x(fr)
			for k, d := range lc.data[:lc.size] {
				if n == n && d.Tag == host.TagNumber {
					if d.Num() == n {
						return k
					}
				} else if host.Equals(d, host.Number(n)) {
					return k
				}
			}
			return -1
		}
	}

	x := b.valOf(needle)
	return func(fr *Frame) int {
		lc := list(fr)
		v := x(fr)
		for k, d := range lc.data[:lc.size] {
			if host.Equals(d, v) {
				return k
			}
		}
		return -1
	}
}

func emitListFind(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	find := b.find(i, in, args[0])
	if in.Op == ir.OP_LIST_CONTAINS {
		return b.emitBool(i, func(fr *Frame) bool { return find(fr) >= 0 })
	}
	out := b.newReg(KindNumber)
	r := out.Reg
	b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) { fr.nums[r] = float64(find(fr) + 1) })
	return out
}

func emitListLength(b *builder, i int, in *ir.Instr, _ []Handle) Handle {
	list := b.listOp(i, in)
	out := b.newReg(KindNumber)
	r := out.Reg
	b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) { fr.nums[r] = float64(list(fr).size) })
	return out
}

func emitListContents(b *builder, i int, in *ir.Instr, _ []Handle) Handle {
	list := b.listOp(i, in)
	out := b.newReg(KindString)
	r := out.Reg
	b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) {
		lc := list(fr)
		fr.strs[r] = host.Contents(lc.data[:lc.size])
	})
	return out
}
